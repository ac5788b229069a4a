package viewer

import (
	"math"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/diorama/pkg/controls"
	"github.com/taigrr/diorama/pkg/demo"
)

// Input steps shared by the terminal and window frontends.
const (
	ZoomStep  = 0.9  // Dolly factor per +/- key press
	WheelStep = 0.95 // Dolly factor per wheel notch
	PanStep   = 0.05 // Pan per arrow key, as a fraction of the view height
)

// DragRotate orbits by a pointer drag of dx, dy pixels on a surface
// height pixels tall. Dragging the full height turns a full circle.
func DragRotate(c *controls.OrbitControls, dx, dy, height float64) {
	if height <= 0 {
		return
	}
	c.Rotate(-2*math.Pi*dx/height, -2*math.Pi*dy/height)
}

// DragPan moves the view with the pointer.
func DragPan(c *controls.OrbitControls, dx, dy, height float64) {
	if height <= 0 {
		return
	}
	c.Pan(dx/height, dy/height)
}

// termInput applies terminal events to the demo. Terminal cells are two
// framebuffer pixels tall, so vertical motion counts double.
type termInput struct {
	d   *demo.Demo
	hud *HUD

	rows     int
	dragging bool
	button   uv.MouseButton
	lastX    int
	lastY    int
}

func newTermInput(d *demo.Demo, hud *HUD) *termInput {
	return &termInput{d: d, hud: hud}
}

func (in *termInput) resize(rows int) {
	in.rows = rows
}

// handle applies one event and reports whether the user asked to quit.
func (in *termInput) handle(ev any) bool {
	c := in.d.Controls
	height := float64(in.rows * 2)

	switch ev := ev.(type) {
	case uv.KeyPressEvent:
		switch {
		case ev.MatchString("escape"), ev.MatchString("ctrl+c"):
			return true
		case ev.MatchString("r"):
			c.Reset()
		case ev.MatchString("g"):
			in.d.ToggleGrid()
		case ev.MatchString("space"):
			in.d.TogglePause()
		case ev.Text == "+", ev.MatchString("="): // "+" is the modifier separator
			c.Dolly(ZoomStep)
		case ev.MatchString("-", "_"):
			c.Dolly(1 / ZoomStep)
		case ev.MatchString("left"):
			c.Pan(PanStep, 0)
		case ev.MatchString("right"):
			c.Pan(-PanStep, 0)
		case ev.MatchString("up"):
			c.Pan(0, PanStep)
		case ev.MatchString("down"):
			c.Pan(0, -PanStep)
		case ev.MatchString("?"), ev.MatchString("shift+/"):
			in.hud.Visible = !in.hud.Visible
		}

	case uv.MouseClickEvent:
		in.dragging = true
		in.button = ev.Button
		in.lastX, in.lastY = ev.X, ev.Y

	case uv.MouseReleaseEvent:
		in.dragging = false

	case uv.MouseMotionEvent:
		if !in.dragging {
			return false
		}
		dx := float64(ev.X - in.lastX)
		dy := float64(ev.Y-in.lastY) * 2
		in.lastX, in.lastY = ev.X, ev.Y
		if in.button == uv.MouseRight {
			DragPan(c, dx, dy, height)
		} else {
			DragRotate(c, dx, dy, height)
		}

	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			c.Dolly(WheelStep)
		case uv.MouseWheelDown:
			c.Dolly(1 / WheelStep)
		}
	}
	return false
}
