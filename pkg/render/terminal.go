package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Display is the cell surface a TerminalRenderer writes to. *uv.Terminal
// satisfies it.
type Display interface {
	SetCell(x, y int, c *uv.Cell)
	Display() error
}

// TerminalRenderer presents framebuffers as half-block cells: each cell
// shows two vertically stacked pixels, the upper as foreground of ▀ and the
// lower as background.
type TerminalRenderer struct {
	out           Display
	width, height int // cells
	cells         []uv.Cell
}

// NewTerminalRenderer creates a renderer for a width x height cell area.
func NewTerminalRenderer(out Display, width, height int) *TerminalRenderer {
	width, height = max(width, 0), max(height, 0)
	return &TerminalRenderer{
		out:    out,
		width:  width,
		height: height,
		cells:  make([]uv.Cell, width*height),
	}
}

// FramebufferSize returns the framebuffer dimensions that fill the area.
func (t *TerminalRenderer) FramebufferSize() (width, height int) {
	return t.width, t.height * 2
}

// Render converts fb to cells. Pixels outside fb render as the default
// terminal color.
func (t *TerminalRenderer) Render(fb *Framebuffer) {
	for row := range t.height {
		topY := row * 2
		botY := topY + 1
		for col := range t.width {
			c := &t.cells[row*t.width+col]
			c.Content = "▀"
			c.Width = 1
			c.Style = uv.Style{
				Fg: rgbaToColor(fb.GetPixel(col, topY)),
				Bg: rgbaToColor(fb.GetPixel(col, botY)),
			}
			t.out.SetCell(col, row, c)
		}
	}
}

// Flush outputs the pending cell changes.
func (t *TerminalRenderer) Flush() error {
	return t.out.Display()
}

// rgbaToColor maps transparent pixels to the terminal default.
func rgbaToColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil
	}
	return c
}

// Color is an alias for color.RGBA for convenience.
type Color = color.RGBA

var (
	ColorBlack = color.RGBA{0, 0, 0, 255}
	ColorWhite = color.RGBA{255, 255, 255, 255}
	ColorRed   = color.RGBA{255, 0, 0, 255}
	ColorGreen = color.RGBA{0, 255, 0, 255}
	ColorBlue  = color.RGBA{0, 0, 255, 255}
	ColorGray  = color.RGBA{128, 128, 128, 255}
	ColorDark  = color.RGBA{68, 68, 68, 255}
)

// RGB creates a color from RGB values.
func RGB(r, g, b uint8) color.RGBA {
	return color.RGBA{r, g, b, 255}
}
