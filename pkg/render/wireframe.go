package render

import (
	"github.com/taigrr/diorama/pkg/math3d"
)

// Wireframe draws debug helpers (grid, axes, light markers) as
// depth-tested lines.
type Wireframe struct {
	r *Rasterizer
}

// NewWireframe creates a helper renderer drawing through r.
func NewWireframe(r *Rasterizer) *Wireframe {
	return &Wireframe{r: r}
}

// DrawLine3D draws a line in 3D space.
func (w *Wireframe) DrawLine3D(p1, p2 math3d.Vec3, color Color) {
	w.r.DrawLine3D(p1, p2, color)
}

// DrawAxes draws the coordinate axes at the origin.
func (w *Wireframe) DrawAxes(length float64) {
	origin := math3d.Zero3()
	w.DrawLine3D(origin, math3d.V3(length, 0, 0), ColorRed)
	w.DrawLine3D(origin, math3d.V3(0, length, 0), ColorGreen)
	w.DrawLine3D(origin, math3d.V3(0, 0, length), ColorBlue)
}

// DrawGrid draws a size x size grid on the XZ plane at y, split into
// divisions cells. The two center lines use centerColor.
func (w *Wireframe) DrawGrid(size float64, divisions int, y float64, centerColor, color Color) {
	if divisions < 1 {
		divisions = 1
	}
	half := size / 2
	step := size / float64(divisions)
	for i := 0; i <= divisions; i++ {
		k := -half + float64(i)*step
		c := color
		if i*2 == divisions {
			c = centerColor
		}
		w.DrawLine3D(math3d.V3(k, y, -half), math3d.V3(k, y, half), c)
		w.DrawLine3D(math3d.V3(-half, y, k), math3d.V3(half, y, k), c)
	}
}

// DrawPoint draws a point as a small cross.
func (w *Wireframe) DrawPoint(pos math3d.Vec3, size float64, color Color) {
	h := size / 2
	w.DrawLine3D(math3d.V3(pos.X-h, pos.Y, pos.Z), math3d.V3(pos.X+h, pos.Y, pos.Z), color)
	w.DrawLine3D(math3d.V3(pos.X, pos.Y-h, pos.Z), math3d.V3(pos.X, pos.Y+h, pos.Z), color)
	w.DrawLine3D(math3d.V3(pos.X, pos.Y, pos.Z-h), math3d.V3(pos.X, pos.Y, pos.Z+h), color)
}
