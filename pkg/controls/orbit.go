// Package controls moves a camera around a target point in response to
// pointer and keyboard input.
package controls

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/diorama/pkg/math3d"
	"github.com/taigrr/diorama/pkg/render"
)

// polarEpsilon keeps the camera off the poles, where LookAt loses yaw.
const polarEpsilon = 1e-6

// dampingFrequency is the springs' angular frequency. Critically damped at
// 4 rad/s, motion fades out over roughly a second.
const dampingFrequency = 4.0

// settleEpsilon is the speed below which a damped axis is considered still.
const settleEpsilon = 1e-7

// axis is one damped degree of freedom. Input adds velocity; each update
// applies the velocity and lets a critically damped spring pull it back to
// zero.
type axis struct {
	vel    float64
	accel  float64 // spring's own velocity, i.e. d(vel)/dt
	spring harmonica.Spring
}

func newAxis(fps int) axis {
	return axis{spring: harmonica.NewSpring(harmonica.FPS(fps), dampingFrequency, 1.0)}
}

// step returns the displacement for this frame and decays the velocity.
func (a *axis) step() float64 {
	d := a.vel
	a.vel, a.accel = a.spring.Update(a.vel, a.accel, 0)
	if math.Abs(a.vel) < settleEpsilon && math.Abs(a.accel) < settleEpsilon {
		a.vel, a.accel = 0, 0
	}
	return d
}

func (a *axis) stop() {
	a.vel, a.accel = 0, 0
}

type state struct {
	target             math3d.Vec3
	radius, theta, phi float64
}

// OrbitControls keeps a camera on a sphere around Target. Azimuth (theta)
// is measured around +Y from +Z; polar angle (phi) from +Y.
type OrbitControls struct {
	camera *render.Camera

	Target math3d.Vec3

	MinDistance, MaxDistance     float64
	MinPolarAngle, MaxPolarAngle float64

	// EnableDamping spreads each input over the following frames.
	EnableDamping bool

	radius, theta, phi float64

	// Inputs waiting for the next Update.
	pendTheta, pendPhi, pendDolly float64
	pendPan                       math3d.Vec3

	fps                     int
	rotTheta, rotPhi, dolly axis
	panX, panY, panZ        axis

	saved state
}

// NewOrbitControls attaches controls to camera, orbiting the origin from
// the camera's current position. fps is the update rate the damping is
// tuned for.
func NewOrbitControls(camera *render.Camera, fps int) *OrbitControls {
	if fps <= 0 {
		fps = 60
	}
	c := &OrbitControls{
		camera:        camera,
		MinDistance:   1,
		MaxDistance:   20,
		MinPolarAngle: 0,
		MaxPolarAngle: math.Pi,
		EnableDamping: true,
		fps:           fps,
	}
	c.resetSprings()
	c.syncFromCamera()
	c.SaveState()
	return c
}

func (c *OrbitControls) resetSprings() {
	c.rotTheta = newAxis(c.fps)
	c.rotPhi = newAxis(c.fps)
	c.dolly = newAxis(c.fps)
	c.panX = newAxis(c.fps)
	c.panY = newAxis(c.fps)
	c.panZ = newAxis(c.fps)
}

// syncFromCamera derives the spherical state from the camera position.
func (c *OrbitControls) syncFromCamera() {
	offset := c.camera.Position.Sub(c.Target)
	c.radius = offset.Len()
	if c.radius == 0 {
		c.theta, c.phi = 0, math.Pi/2
		return
	}
	c.theta = math.Atan2(offset.X, offset.Z)
	c.phi = math.Acos(math.Max(-1, math.Min(1, offset.Y/c.radius)))
}

// Distance returns the current distance from camera to target.
func (c *OrbitControls) Distance() float64 { return c.radius }

// Azimuth returns the angle around +Y, in radians.
func (c *OrbitControls) Azimuth() float64 { return c.theta }

// Polar returns the angle from +Y, in radians.
func (c *OrbitControls) Polar() float64 { return c.phi }

// Rotate orbits by dTheta around the vertical axis and dPhi toward the
// pole, in radians.
func (c *OrbitControls) Rotate(dTheta, dPhi float64) {
	c.pendTheta += dTheta
	c.pendPhi += dPhi
}

// Dolly scales the distance to the target by factor; factors above 1 move
// away.
func (c *OrbitControls) Dolly(factor float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	c.pendDolly += math.Log(factor)
}

// Pan slides camera and target across the view plane. dx and dy are
// fractions of the visible height at the target distance.
func (c *OrbitControls) Pan(dx, dy float64) {
	visible := 2 * c.radius * math.Tan(c.camera.FOV/2)
	right := c.camera.Right()
	up := c.camera.Up()
	c.pendPan = c.pendPan.Add(right.Scale(-dx * visible)).Add(up.Scale(dy * visible))
}

// impulse converts a total displacement into the initial velocity whose
// spring decay covers that displacement. A critically damped spring
// starting at v travels 2v/ω over time, or 2v·fps/ω over frames.
func (c *OrbitControls) impulse(total float64) float64 {
	return total * dampingFrequency / (2 * float64(c.fps))
}

// Update applies pending input, moves the camera and points it at the
// target. It reports whether the camera moved.
func (c *OrbitControls) Update() bool {
	var dTheta, dPhi, dDolly float64
	var dPan math3d.Vec3

	if c.EnableDamping {
		c.rotTheta.vel += c.impulse(c.pendTheta)
		c.rotPhi.vel += c.impulse(c.pendPhi)
		c.dolly.vel += c.impulse(c.pendDolly)
		c.panX.vel += c.impulse(c.pendPan.X)
		c.panY.vel += c.impulse(c.pendPan.Y)
		c.panZ.vel += c.impulse(c.pendPan.Z)

		dTheta = c.rotTheta.step()
		dPhi = c.rotPhi.step()
		dDolly = c.dolly.step()
		dPan = math3d.V3(c.panX.step(), c.panY.step(), c.panZ.step())
	} else {
		dTheta, dPhi, dDolly, dPan = c.pendTheta, c.pendPhi, c.pendDolly, c.pendPan
	}
	c.pendTheta, c.pendPhi, c.pendDolly = 0, 0, 0
	c.pendPan = math3d.Vec3{}

	c.theta += dTheta
	c.phi += dPhi
	c.radius *= math.Exp(dDolly)
	c.Target = c.Target.Add(dPan)
	c.clamp()

	before := c.camera.Position
	c.camera.SetPosition(c.position())
	c.camera.LookAt(c.Target)
	return !before.ApproxEqual(c.camera.Position, 1e-9)
}

func (c *OrbitControls) clamp() {
	lo := math.Max(c.MinPolarAngle, polarEpsilon)
	hi := math.Min(c.MaxPolarAngle, math.Pi-polarEpsilon)
	c.phi = math.Max(lo, math.Min(hi, c.phi))
	c.radius = math.Max(c.MinDistance, math.Min(c.MaxDistance, c.radius))
}

func (c *OrbitControls) position() math3d.Vec3 {
	sinPhi := math.Sin(c.phi)
	return c.Target.Add(math3d.V3(
		c.radius*sinPhi*math.Sin(c.theta),
		c.radius*math.Cos(c.phi),
		c.radius*sinPhi*math.Cos(c.theta),
	))
}

// SaveState records the current view for Reset.
func (c *OrbitControls) SaveState() {
	c.saved = state{target: c.Target, radius: c.radius, theta: c.theta, phi: c.phi}
}

// Reset restores the saved view, drops pending input and stops any
// motion still in flight.
func (c *OrbitControls) Reset() {
	c.Target = c.saved.target
	c.radius, c.theta, c.phi = c.saved.radius, c.saved.theta, c.saved.phi
	c.pendTheta, c.pendPhi, c.pendDolly = 0, 0, 0
	c.pendPan = math3d.Vec3{}
	c.resetSprings()
	c.camera.SetPosition(c.position())
	c.camera.LookAt(c.Target)
}
