// Package demo assembles the diorama scene and advances it frame by frame.
// All scene state belongs to the goroutine calling Tick.
package demo

import (
	"context"
	"image/color"

	"github.com/charmbracelet/log"
	"github.com/taigrr/diorama/pkg/anim"
	"github.com/taigrr/diorama/pkg/controls"
	"github.com/taigrr/diorama/pkg/loader"
	"github.com/taigrr/diorama/pkg/math3d"
	"github.com/taigrr/diorama/pkg/models"
	"github.com/taigrr/diorama/pkg/render"
	"github.com/taigrr/diorama/pkg/scene"
)

// LoadState tracks the model request.
type LoadState int

const (
	LoadIdle    LoadState = iota // No request issued
	LoadPending                  // Waiting on the loader
	LoadDone                     // Model attached
	LoadFailed                   // Request failed; the demo runs without it
)

func (s LoadState) String() string {
	switch s {
	case LoadPending:
		return "loading"
	case LoadDone:
		return "loaded"
	case LoadFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Demo is the scene plus everything that moves it.
type Demo struct {
	cfg Config
	log *log.Logger

	Scene    *scene.Scene
	Camera   *render.Camera
	Renderer *render.Renderer
	Controls *controls.OrbitControls
	Clock    *Clock // Started by Start or the first Tick unless set earlier
	Loader   *loader.Loader

	Box, Sphere, Torus *scene.Node

	Model     *scene.Node
	Mixer     *anim.Mixer
	Action    *anim.Action
	Triangles int // Triangles in the loaded model

	state   LoadState
	pending <-chan loader.Outcome
}

// New builds the scene with the primitives and lights in place. The model
// is requested by Start.
func New(cfg Config, logger *log.Logger) (*Demo, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	d := &Demo{
		cfg:   cfg,
		log:   logger.With("component", "demo"),
		Scene: scene.New(),
	}
	d.Scene.Background = cfg.Background

	d.Loader = loader.New()
	d.Loader.DecoderPath = cfg.DecoderPath
	d.Loader.Logger = logger.With("component", "loader")

	material := scene.NewBasicMaterial(cfg.PrimitiveColor)
	material.Wireframe = true

	d.Box = scene.NewMeshNode("box", models.NewBox(1, 1, 1), material)
	d.Box.Position = cfg.BoxPosition
	d.Sphere = scene.NewMeshNode("sphere", models.NewSphere(0.6, 16, 8), material)
	d.Sphere.Position = cfg.SpherePosition
	d.Torus = scene.NewMeshNode("torus", models.NewTorus(0.5, 0.2, 16, 50, 4), material)
	d.Torus.Position = cfg.TorusPosition
	d.Scene.Add(d.Box, d.Sphere, d.Torus)

	white := color.RGBA{255, 255, 255, 255}
	d.Scene.Add(scene.NewAmbientLight(white, cfg.AmbientIntensity))
	point := scene.NewPointLight(white, cfg.PointIntensity)
	point.Position = cfg.PointPosition
	d.Scene.Add(point)

	d.Camera = render.NewPerspectiveCamera(cfg.CameraFOV, 1, cfg.CameraNear, cfg.CameraFar)
	d.Camera.SetPosition(cfg.CameraPosition)
	d.Camera.LookAt(math3d.Zero3())
	d.Controls = controls.NewOrbitControls(d.Camera, cfg.FPS)

	d.Renderer = render.NewRenderer(d.Camera, 1, 1)
	d.Renderer.ShowGrid = cfg.ShowGrid

	return d, nil
}

// Config returns the configuration the demo was built with.
func (d *Demo) Config() Config {
	return d.cfg
}

// LoadState reports where the model request stands.
func (d *Demo) LoadState() LoadState {
	return d.state
}

// Start starts the scene clock and issues the model request. It returns
// immediately; the result is picked up by a later Tick. Without a model
// path nothing is requested.
func (d *Demo) Start(ctx context.Context) {
	d.startClock()
	if d.cfg.ModelPath == "" || d.state != LoadIdle {
		return
	}
	d.log.Info("loading model", "path", d.cfg.ModelPath)
	d.pending = d.Loader.LoadAsync(ctx, d.cfg.ModelPath)
	d.state = LoadPending
}

// Tick advances the scene by one frame: primitive rotations from elapsed
// time, any finished load, the animation mixer, and the camera controls.
func (d *Demo) Tick() {
	d.startClock()
	elapsed, delta := d.Clock.Tick()
	d.animatePrimitives(elapsed)
	d.poll()
	if d.Mixer != nil {
		d.Mixer.Update(delta)
	}
	d.Controls.Update()
}

func (d *Demo) startClock() {
	if d.Clock == nil {
		d.Clock = NewClock()
	}
}

// Render draws the current frame.
func (d *Demo) Render() {
	d.Renderer.Render(d.Scene)
}

func (d *Demo) animatePrimitives(t float64) {
	a := d.cfg.RotationRate * t
	d.Box.SetRotation(math3d.E(0, a, a))
	d.Sphere.SetRotation(math3d.E(0, a, -a))
	d.Torus.SetRotation(math3d.E(0, 0, -a))
}

// poll takes the load outcome if it has arrived.
func (d *Demo) poll() {
	if d.pending == nil {
		return
	}
	select {
	case out, ok := <-d.pending:
		d.resolve(out, ok)
	default:
	}
}

// Await blocks until the pending load resolves or ctx is done. It is a
// no-op when nothing is pending.
func (d *Demo) Await(ctx context.Context) error {
	if d.pending == nil {
		return nil
	}
	select {
	case out, ok := <-d.pending:
		d.resolve(out, ok)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Demo) resolve(out loader.Outcome, ok bool) {
	d.pending = nil
	switch {
	case !ok:
		d.state = LoadFailed
		d.log.Warn("model load ended without a result")
	case out.Err != nil:
		d.state = LoadFailed
		d.log.Warn("model load failed", "err", out.Err)
	default:
		d.attach(out.Result)
	}
}

// attach places the loaded model and starts its animation.
func (d *Demo) attach(res *loader.Result) {
	model := res.Scene
	model.SetUniformScale(d.cfg.ModelScale)
	model.RotateY(d.cfg.ModelRotationY)
	model.Position = d.cfg.ModelPosition
	d.Scene.Add(model)

	d.Model = model
	d.Triangles = res.Triangles
	d.state = LoadDone
	d.Mixer = anim.NewMixer(model)

	clip := res.Clip(d.cfg.ClipIndex)
	if clip == nil {
		d.log.Warn("animation clip out of range", "index", d.cfg.ClipIndex, "clips", len(res.Animations))
		return
	}
	d.Action = d.Mixer.ClipAction(clip).SetLoop(d.cfg.Loop, 0).Play()
	d.log.Info("model loaded", "triangles", res.Triangles, "clip", clip.Name, "loop", d.cfg.Loop)
}

// TogglePause pauses or resumes the model animation.
func (d *Demo) TogglePause() {
	if d.Action != nil {
		d.Action.Paused = !d.Action.Paused
	}
}

// ToggleGrid shows or hides the ground grid.
func (d *Demo) ToggleGrid() {
	d.Renderer.ShowGrid = !d.Renderer.ShowGrid
}

// Resize sets the drawing surface to width x height pixels.
func (d *Demo) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	d.Camera.SetAspectRatio(float64(width) / float64(height))
	d.Renderer.SetSize(width, height)
}
