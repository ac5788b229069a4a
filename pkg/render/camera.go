package render

import (
	"math"

	"github.com/taigrr/diorama/pkg/math3d"
)

// Camera is a perspective camera positioned in world space and oriented by
// yaw and pitch (no roll). Forward is -Z when both are zero.
type Camera struct {
	Position math3d.Vec3

	Pitch float64 // Rotation around X axis (look up/down)
	Yaw   float64 // Rotation around Y axis (look left/right)

	FOV         float64 // Vertical field of view in radians
	AspectRatio float64 // Width / Height
	Near        float64
	Far         float64

	viewMatrix     math3d.Mat4
	projMatrix     math3d.Mat4
	viewProjMatrix math3d.Mat4
	viewDirty      bool
	projDirty      bool
	vpDirty        bool
}

// NewPerspectiveCamera creates a camera at (0, 0, 4). fovDeg is the
// vertical field of view in degrees.
func NewPerspectiveCamera(fovDeg, aspect, near, far float64) *Camera {
	return &Camera{
		Position:    math3d.V3(0, 0, 4),
		FOV:         fovDeg * math.Pi / 180,
		AspectRatio: aspect,
		Near:        near,
		Far:         far,
		viewDirty:   true,
		projDirty:   true,
		vpDirty:     true,
	}
}

// SetPosition sets the camera position.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
	c.viewDirty = true
}

// SetAspectRatio sets width / height.
func (c *Camera) SetAspectRatio(aspect float64) {
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		return
	}
	c.AspectRatio = aspect
	c.projDirty = true
}

// Forward returns the unit view direction.
func (c *Camera) Forward() math3d.Vec3 {
	return math3d.V3(
		-math.Sin(c.Yaw)*math.Cos(c.Pitch),
		math.Sin(c.Pitch),
		-math.Cos(c.Yaw)*math.Cos(c.Pitch),
	)
}

// Right returns the unit right vector (always horizontal).
func (c *Camera) Right() math3d.Vec3 {
	return math3d.V3(
		math.Cos(c.Yaw),
		0,
		-math.Sin(c.Yaw),
	)
}

// Up returns the camera's up vector.
func (c *Camera) Up() math3d.Vec3 {
	return c.Right().Cross(c.Forward())
}

// ViewMatrix returns the world-to-camera matrix.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		// View = Rotation * Translation(-position)
		rot := math3d.RotateX(-c.Pitch).Mul(math3d.RotateY(-c.Yaw))
		c.viewMatrix = rot.Mul(math3d.Translate(c.Position.Negate()))
		c.viewDirty = false
		c.vpDirty = true
	}
	return c.viewMatrix
}

// ProjectionMatrix returns the perspective projection.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	if c.projDirty {
		c.projMatrix = math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
		c.projDirty = false
		c.vpDirty = true
	}
	return c.projMatrix
}

// ViewProjectionMatrix returns projection * view.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	view := c.ViewMatrix()
	proj := c.ProjectionMatrix()
	if c.vpDirty {
		c.viewProjMatrix = proj.Mul(view)
		c.vpDirty = false
	}
	return c.viewProjMatrix
}

// LookAt points the camera at target. Looking straight up or down keeps
// the current yaw.
func (c *Camera) LookAt(target math3d.Vec3) {
	dir := target.Sub(c.Position)
	if dir.LenSq() == 0 {
		return
	}
	dir = dir.Normalize()

	c.Pitch = math.Asin(math.Max(-1, math.Min(1, dir.Y)))
	if math.Abs(dir.X) > 1e-12 || math.Abs(dir.Z) > 1e-12 {
		c.Yaw = math.Atan2(-dir.X, -dir.Z)
	}
	c.viewDirty = true
}

// Frustum returns the current view frustum.
func (c *Camera) Frustum() Frustum {
	return NewFrustumFromMatrix(c.ViewProjectionMatrix())
}
