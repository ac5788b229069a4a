package demo

import (
	"context"
	"errors"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/taigrr/diorama/pkg/anim"
	"github.com/taigrr/diorama/pkg/loader"
	"github.com/taigrr/diorama/pkg/math3d"
	"github.com/taigrr/diorama/pkg/scene"
)

const epsilon = 1e-9

// fakeTime is a manually advanced time source.
type fakeTime struct {
	t time.Time
}

func (f *fakeTime) now() time.Time { return f.t }

func (f *fakeTime) set(seconds float64) {
	f.t = time.Unix(0, 0).Add(time.Duration(seconds * float64(time.Second)))
}

func newTestDemo(t *testing.T, cfg Config) (*Demo, *fakeTime) {
	t.Helper()
	d, err := New(cfg, log.New(io.Discard))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ft := &fakeTime{}
	ft.set(0)
	d.Clock = NewClockFunc(ft.now)
	return d, ft
}

// fakeModel returns a loader result whose "bone" child moves along X
// in clip 2.
func fakeModel(clips int) *loader.Result {
	root := scene.NewNode("Scene")
	bone := scene.NewNode("bone")
	root.Add(bone)

	res := &loader.Result{Scene: root, Triangles: 42}
	for i := range clips {
		x := 0.0
		if i == 2 {
			x = 1
		}
		res.Animations = append(res.Animations, anim.NewClip("clip", []anim.Track{{
			Node:   "bone",
			Path:   anim.PathTranslation,
			Times:  []float64{0, 1},
			Values: []float64{0, 0, 0, x, 0, 0},
		}}))
	}
	return res
}

func deliver(d *Demo, out loader.Outcome) {
	ch := make(chan loader.Outcome, 1)
	ch <- out
	close(ch)
	d.pending = ch
	d.state = LoadPending
}

func TestNewPlacesPrimitives(t *testing.T) {
	d, _ := newTestDemo(t, DefaultConfig())

	tests := []struct {
		node *scene.Node
		want math3d.Vec3
	}{
		{d.Box, math3d.V3(-1, 1, 0)},
		{d.Sphere, math3d.V3(1, 1, 0)},
		{d.Torus, math3d.V3(1, -1, 0)},
	}
	for _, tc := range tests {
		if tc.node.Position != tc.want {
			t.Errorf("%s at %v, want %v", tc.node.Name, tc.node.Position, tc.want)
		}
		if tc.node.Parent() != d.Scene.Node {
			t.Errorf("%s not attached to the scene root", tc.node.Name)
		}
		mat := tc.node.Mesh.Material
		if !mat.Wireframe || mat.Color != (color.RGBA{0, 255, 255, 255}) {
			t.Errorf("%s material = %+v, want cyan wireframe", tc.node.Name, mat)
		}
	}

	var ambient, point int
	d.Scene.Traverse(func(n *scene.Node) {
		if n.Light == nil {
			return
		}
		switch n.Light.Kind {
		case scene.AmbientLight:
			ambient++
		case scene.PointLight:
			point++
			if n.Position != math3d.V3(2, 3, 4) || n.Light.Intensity != 0.5 {
				t.Errorf("point light at %v intensity %v", n.Position, n.Light.Intensity)
			}
		}
	})
	if ambient != 1 || point != 1 {
		t.Errorf("lights: %d ambient, %d point; want 1 and 1", ambient, point)
	}

	if d.Camera.Position != math3d.V3(0, 0, 4) {
		t.Errorf("camera at %v, want (0, 0, 4)", d.Camera.Position)
	}
	if want := 75 * math.Pi / 180; math.Abs(d.Camera.FOV-want) > epsilon {
		t.Errorf("camera FOV = %v, want %v", d.Camera.FOV, want)
	}
}

func TestTickRotatesPrimitives(t *testing.T) {
	d, ft := newTestDemo(t, DefaultConfig())

	for _, elapsed := range []float64{0, 1, 2.5, 10} {
		ft.set(elapsed)
		d.Tick()

		a := 0.2 * elapsed
		tests := []struct {
			node *scene.Node
			want math3d.Euler
		}{
			{d.Box, math3d.E(0, a, a)},
			{d.Sphere, math3d.E(0, a, -a)},
			{d.Torus, math3d.E(0, 0, -a)},
		}
		for _, tc := range tests {
			if got := tc.node.Rotation(); !got.ApproxEqual(tc.want, epsilon) {
				t.Errorf("t=%v: %s rotation = %v, want %v", elapsed, tc.node.Name, got, tc.want)
			}
		}
	}
}

func TestAttachModel(t *testing.T) {
	d, ft := newTestDemo(t, DefaultConfig())
	res := fakeModel(3)
	deliver(d, loader.Outcome{Result: res})

	ft.set(0.25)
	d.Tick()

	if d.LoadState() != LoadDone {
		t.Fatalf("LoadState = %v, want loaded", d.LoadState())
	}
	m := d.Model
	if m == nil || m.Parent() != d.Scene.Node {
		t.Fatal("model not attached to the scene")
	}
	if m.Scale != math3d.V3(0.015, 0.015, 0.015) {
		t.Errorf("model scale = %v, want 0.015", m.Scale)
	}
	if m.Position != math3d.V3(-1, -1, 0.025) {
		t.Errorf("model position = %v, want (-1, -1, 0.025)", m.Position)
	}
	want := math3d.QuatFromAxisAngle(math3d.Up(), -0.3)
	if !m.Quaternion().ApproxEqual(want, epsilon) {
		t.Errorf("model rotation = %v, want %v", m.Quaternion(), want)
	}
	if d.Triangles != 42 {
		t.Errorf("Triangles = %d, want 42", d.Triangles)
	}

	// Clip 2 is running and no other clip was touched.
	if d.Action == nil || !d.Action.IsRunning() || d.Action.Loop != anim.LoopRepeat {
		t.Fatalf("action = %+v, want clip 2 running on repeat", d.Action)
	}
	if d.Action.Clip() != res.Animations[2] || d.Mixer.ClipAction(res.Animations[0]).IsRunning() {
		t.Error("only clip 2 should be playing")
	}

	bone := m.FindByName("bone")
	if math.Abs(bone.Position.X-0.25) > epsilon {
		t.Errorf("bone x after first tick = %v, want 0.25", bone.Position.X)
	}
	ft.set(0.5)
	d.Tick()
	if math.Abs(bone.Position.X-0.5) > epsilon {
		t.Errorf("bone x after second tick = %v, want 0.5", bone.Position.X)
	}

	d.TogglePause()
	ft.set(0.75)
	d.Tick()
	if math.Abs(bone.Position.X-0.5) > epsilon {
		t.Errorf("paused bone x = %v, want 0.5", bone.Position.X)
	}
}

func TestAttachClipOutOfRange(t *testing.T) {
	d, ft := newTestDemo(t, DefaultConfig())
	deliver(d, loader.Outcome{Result: fakeModel(2)})

	ft.set(0.1)
	d.Tick()

	if d.Model == nil || d.Model.Parent() != d.Scene.Node {
		t.Fatal("model should be attached even without a playable clip")
	}
	if d.Action != nil {
		t.Error("no clip should be playing")
	}
	d.TogglePause() // no action; must not panic
}

func TestLoadFailureKeepsRunning(t *testing.T) {
	d, ft := newTestDemo(t, DefaultConfig())
	children := len(d.Scene.Children())
	deliver(d, loader.Outcome{Err: errors.New("boom")})

	ft.set(1)
	d.Tick()

	if d.LoadState() != LoadFailed {
		t.Errorf("LoadState = %v, want failed", d.LoadState())
	}
	if d.Model != nil || d.Mixer != nil {
		t.Error("failed load should leave no model or mixer")
	}
	if got := len(d.Scene.Children()); got != children {
		t.Errorf("scene has %d children, want %d", got, children)
	}

	// Later ticks keep animating the primitives.
	ft.set(2)
	d.Tick()
	if got := d.Torus.Rotation().Z; math.Abs(got+0.4) > epsilon {
		t.Errorf("torus z = %v, want -0.4", got)
	}
}

func TestStartMissingModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelPath = filepath.Join(t.TempDir(), "missing.gltf")
	d, _ := newTestDemo(t, cfg)

	d.Start(context.Background())
	if d.LoadState() != LoadPending {
		t.Fatalf("LoadState = %v, want loading", d.LoadState())
	}

	deadline := time.Now().Add(5 * time.Second)
	for d.LoadState() == LoadPending {
		if time.Now().After(deadline) {
			t.Fatal("load never resolved")
		}
		d.Tick()
		time.Sleep(time.Millisecond)
	}
	if d.LoadState() != LoadFailed {
		t.Errorf("LoadState = %v, want failed", d.LoadState())
	}
}

func TestStartWithoutModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelPath = ""
	d, _ := newTestDemo(t, cfg)

	d.Start(context.Background())
	if d.LoadState() != LoadIdle {
		t.Errorf("LoadState = %v, want idle", d.LoadState())
	}
}

func TestResize(t *testing.T) {
	d, _ := newTestDemo(t, DefaultConfig())

	d.Resize(160, 90)
	if want := 160.0 / 90.0; math.Abs(d.Camera.AspectRatio-want) > epsilon {
		t.Errorf("aspect = %v, want %v", d.Camera.AspectRatio, want)
	}
	if w, h := d.Renderer.Size(); w != 160 || h != 90 {
		t.Errorf("renderer size = %dx%d, want 160x90", w, h)
	}

	d.Resize(0, 50)
	if w, h := d.Renderer.Size(); w != 160 || h != 90 {
		t.Errorf("zero width resize changed size to %dx%d", w, h)
	}
}

func TestRenderDrawsPrimitives(t *testing.T) {
	d, ft := newTestDemo(t, DefaultConfig())
	d.Resize(120, 80)
	ft.set(1)
	d.Tick()
	d.Render()

	cyan := 0
	for _, c := range d.Renderer.Framebuffer().Pixels {
		if c == d.Config().PrimitiveColor {
			cyan++
		}
	}
	if cyan == 0 {
		t.Error("no wireframe pixels in the rendered frame")
	}
	if d.Renderer.Stats.Meshes != 3 {
		t.Errorf("drew %d meshes, want 3", d.Renderer.Stats.Meshes)
	}
}

func TestToggleGrid(t *testing.T) {
	d, _ := newTestDemo(t, DefaultConfig())
	d.ToggleGrid()
	if !d.Renderer.ShowGrid {
		t.Error("grid should be on after one toggle")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero fps", func(c *Config) { c.FPS = 0 }, true},
		{"zero pixel ratio", func(c *Config) { c.PixelRatioCap = 0 }, true},
		{"far before near", func(c *Config) { c.CameraFar = 0.05 }, true},
		{"flat fov", func(c *Config) { c.CameraFOV = 180 }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
			if _, newErr := New(cfg, log.New(io.Discard)); (newErr != nil) != tc.wantErr {
				t.Errorf("New() error = %v, wantErr %v", newErr, tc.wantErr)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"0,0,0", color.RGBA{0, 0, 0, 255}, false},
		{"30, 30, 40", color.RGBA{30, 30, 40, 255}, false},
		{"255,128,0", color.RGBA{255, 128, 0, 255}, false},
		{"256,0,0", color.RGBA{}, true},
		{"1,2", color.RGBA{}, true},
		{"a,b,c", color.RGBA{}, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseColor(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseColor(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestClock(t *testing.T) {
	ft := &fakeTime{}
	ft.set(100)
	c := NewClockFunc(ft.now)

	steps := []struct {
		at             float64
		elapsed, delta float64
	}{
		{100.5, 0.5, 0.5},
		{101, 1, 0.5},
		{101, 1, 0},
		{103.25, 3.25, 2.25},
	}
	for _, s := range steps {
		ft.set(s.at)
		elapsed, delta := c.Tick()
		if math.Abs(elapsed-s.elapsed) > 1e-6 || math.Abs(delta-s.delta) > 1e-6 {
			t.Errorf("at %v: Tick() = %v, %v; want %v, %v", s.at, elapsed, delta, s.elapsed, s.delta)
		}
	}
}

func TestAttachHonorsLoopMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Loop = anim.LoopOnce
	d, ft := newTestDemo(t, cfg)
	deliver(d, loader.Outcome{Result: fakeModel(3)})

	ft.set(0.5)
	d.Tick()
	if d.Action == nil || d.Action.Loop != anim.LoopOnce {
		t.Fatalf("action = %+v, want loop once", d.Action)
	}
	ft.set(1.5)
	d.Tick()
	if d.Action.IsRunning() {
		t.Error("a clip played once should stop at its end")
	}
	if x := d.Model.FindByName("bone").Position.X; math.Abs(x-1) > epsilon {
		t.Errorf("bone x after the clip ended = %v, want 1", x)
	}
}

func TestClockStartsWithTheDemo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelPath = ""
	d, err := New(cfg, log.New(io.Discard))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Clock != nil {
		t.Fatal("New should not start the clock")
	}

	time.Sleep(20 * time.Millisecond)
	d.Tick()
	if d.Clock == nil {
		t.Fatal("Tick should start the clock")
	}
	if elapsed := d.Clock.Elapsed(); elapsed >= 0.015 {
		t.Errorf("elapsed after first tick = %v, want time since Tick only", elapsed)
	}

	// An injected clock is kept by Start.
	ft := &fakeTime{}
	clock := NewClockFunc(ft.now)
	d.Clock = clock
	d.Start(context.Background())
	if d.Clock != clock {
		t.Error("Start replaced an injected clock")
	}
}

func TestAwait(t *testing.T) {
	d, _ := newTestDemo(t, DefaultConfig())
	if err := d.Await(context.Background()); err != nil {
		t.Fatalf("Await with nothing pending: %v", err)
	}

	deliver(d, loader.Outcome{Result: fakeModel(3)})
	if err := d.Await(context.Background()); err != nil {
		t.Fatalf("Await: %v", err)
	}
	if d.LoadState() != LoadDone || d.Model == nil {
		t.Errorf("LoadState = %v after Await, want loaded", d.LoadState())
	}

	// A load that never resolves gives way to the context.
	d.pending = make(chan loader.Outcome)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Await(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Await on canceled context = %v, want context.Canceled", err)
	}
}
