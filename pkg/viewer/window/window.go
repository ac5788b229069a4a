// Package window runs the demo in a desktop window through ebiten.
package window

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/taigrr/diorama/pkg/demo"
	"github.com/taigrr/diorama/pkg/viewer"
)

// Options configure Run.
type Options struct {
	Title         string
	Width, Height int // Initial window size in points
	Logger        *log.Logger
}

// Run opens a window and blocks until it is closed, Escape is pressed or
// ctx is done.
func Run(ctx context.Context, d *demo.Demo, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	g := &game{
		ctx:      ctx,
		d:        d,
		ratioCap: d.Config().PixelRatioCap,
		log:      logger.With("component", "window"),
	}

	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowSize(max(opts.Width, 320), max(opts.Height, 240))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(d.Config().FPS)

	d.Start(ctx)
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("run window: %w", err)
	}
	return nil
}

type game struct {
	ctx      context.Context
	d        *demo.Demo
	ratioCap float64
	log      *log.Logger

	width, height int // Framebuffer pixels
	pix           []byte

	dragging     bool
	lastX, lastY int
}

func (g *game) Update() error {
	if g.ctx.Err() != nil || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	g.handleInput()
	g.d.Tick()
	return nil
}

func (g *game) handleInput() {
	c := g.d.Controls

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		c.Reset()
	case inpututil.IsKeyJustPressed(ebiten.KeyG):
		g.d.ToggleGrid()
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.d.TogglePause()
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd):
		c.Dolly(viewer.ZoomStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract):
		c.Dolly(1 / viewer.ZoomStep)
	}

	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		c.Pan(viewer.PanStep/4, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		c.Pan(-viewer.PanStep/4, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		c.Pan(0, viewer.PanStep/4)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		c.Pan(0, -viewer.PanStep/4)
	}

	x, y := ebiten.CursorPosition()
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	if (left || right) && g.dragging {
		dx, dy := float64(x-g.lastX), float64(y-g.lastY)
		if right {
			viewer.DragPan(c, dx, dy, float64(g.height))
		} else {
			viewer.DragRotate(c, dx, dy, float64(g.height))
		}
	}
	g.dragging = left || right
	g.lastX, g.lastY = x, y

	switch _, wy := ebiten.Wheel(); {
	case wy > 0:
		c.Dolly(viewer.WheelStep)
	case wy < 0:
		c.Dolly(1 / viewer.WheelStep)
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	g.d.Render()
	fb := g.d.Renderer.Framebuffer()
	if len(g.pix) != fb.Width*fb.Height*4 {
		g.pix = make([]byte, fb.Width*fb.Height*4)
	}
	fb.WriteRGBA(g.pix)
	screen.WritePixels(g.pix)
}

// Layout sizes the framebuffer to the window times the capped device
// scale factor.
func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	ratio := viewer.PixelRatio(ebiten.Monitor().DeviceScaleFactor(), g.ratioCap)
	w, h := viewer.ScaledSize(outsideWidth, outsideHeight, ratio)
	if w != g.width || h != g.height {
		g.width, g.height = w, h
		g.d.Resize(w, h)
		g.log.Debug("resize", "width", w, "height", h, "ratio", ratio)
	}
	return w, h
}
