package anim

import (
	"fmt"
	"math"
	"strings"

	"github.com/taigrr/diorama/pkg/math3d"
	"github.com/taigrr/diorama/pkg/scene"
)

// LoopMode controls what an action does when it reaches the end of its clip.
type LoopMode int

const (
	LoopRepeat   LoopMode = iota // Jump back to the start
	LoopOnce                     // Play once, then stop (or hold, see ClampWhenFinished)
	LoopPingPong                 // Alternate forward and backward
)

var loopNames = [...]string{LoopRepeat: "repeat", LoopOnce: "once", LoopPingPong: "pingpong"}

func (m LoopMode) String() string {
	if m < 0 || int(m) >= len(loopNames) {
		return fmt.Sprintf("LoopMode(%d)", int(m))
	}
	return loopNames[m]
}

// ParseLoopMode parses "repeat", "once" or "pingpong".
func ParseLoopMode(s string) (LoopMode, error) {
	for i, name := range loopNames {
		if strings.EqualFold(s, name) {
			return LoopMode(i), nil
		}
	}
	return LoopRepeat, fmt.Errorf("unknown loop mode %q", s)
}

// Mixer plays actions on the nodes below a root. All methods must be called
// from the goroutine that owns the scene graph.
type Mixer struct {
	root    *scene.Node
	time    float64
	actions []*Action
	byClip  map[*Clip]*Action

	properties map[propertyKey]*property
	sample     [4]float64
}

// NewMixer creates a mixer whose tracks resolve node names under root.
func NewMixer(root *scene.Node) *Mixer {
	return &Mixer{
		root:       root,
		byClip:     make(map[*Clip]*Action),
		properties: make(map[propertyKey]*property),
	}
}

// Time returns the total time advanced through Update.
func (m *Mixer) Time() float64 {
	return m.time
}

// ClipAction returns the action for clip, creating it on first use. Tracks
// naming nodes that do not exist under the root are ignored.
func (m *Mixer) ClipAction(clip *Clip) *Action {
	if a, ok := m.byClip[clip]; ok {
		return a
	}

	a := &Action{
		mixer:     m,
		clip:      clip,
		TimeScale: 1,
		Weight:    1,
		Loop:      LoopRepeat,
		enabled:   true,
	}
	a.bindings = make([]*property, len(clip.Tracks))
	for i := range clip.Tracks {
		tr := &clip.Tracks[i]
		node := m.root.FindByName(tr.Node)
		if node == nil {
			continue
		}
		a.bindings[i] = m.property(node, tr.Path)
	}

	m.actions = append(m.actions, a)
	m.byClip[clip] = a
	return a
}

// Update advances running actions by dt seconds and writes the blended
// result to the bound nodes.
func (m *Mixer) Update(dt float64) {
	m.time += dt

	for _, p := range m.properties {
		p.reset()
	}

	for _, a := range m.actions {
		if !a.running || !a.enabled {
			continue
		}
		t := a.advance(dt)
		if a.Weight <= 0 {
			continue
		}
		for i, p := range a.bindings {
			if p == nil {
				continue
			}
			out := m.sample[:p.path.Components()]
			a.clip.Tracks[i].Sample(t, out)
			p.accumulate(out, a.Weight)
		}
	}

	for _, p := range m.properties {
		p.apply()
	}
}

func (m *Mixer) property(node *scene.Node, path Path) *property {
	key := propertyKey{node, path}
	if p, ok := m.properties[key]; ok {
		return p
	}
	p := &property{node: node, path: path}
	p.original = p.read()
	m.properties[key] = p
	return p
}

// Action schedules playback of one clip on a mixer.
type Action struct {
	mixer    *Mixer
	clip     *Clip
	bindings []*property

	Time              float64 // Local time within the clip
	TimeScale         float64 // Playback speed; negative plays backwards
	Weight            float64 // Blend weight in [0, 1]
	Loop              LoopMode
	Repetitions       int  // Number of loops before finishing; 0 is unlimited
	ClampWhenFinished bool // Hold the last frame instead of disabling
	Paused            bool

	running   bool
	enabled   bool
	loopCount int
}

// Clip returns the clip this action plays.
func (a *Action) Clip() *Clip {
	return a.clip
}

// Play starts the action.
func (a *Action) Play() *Action {
	a.running = true
	a.enabled = true
	return a
}

// SetLoop sets the loop mode and repetition count.
func (a *Action) SetLoop(mode LoopMode, repetitions int) *Action {
	a.Loop = mode
	a.Repetitions = repetitions
	return a
}

// IsRunning reports whether the action is playing and has not finished.
func (a *Action) IsRunning() bool {
	return a.running && a.enabled && !a.Paused
}

// advance moves local time forward by dt and returns the clip time to sample.
func (a *Action) advance(dt float64) float64 {
	duration := a.clip.Duration
	if !a.Paused {
		a.Time += dt * a.TimeScale
	}
	if duration <= 0 {
		a.Time = 0
		return 0
	}

	if a.Loop == LoopOnce {
		if a.Time >= duration || a.Time < 0 {
			a.Time = math.Max(0, math.Min(duration, a.Time))
			a.finish()
		}
		return a.Time
	}

	if a.Time >= duration || a.Time < 0 {
		loops := math.Floor(a.Time / duration)
		a.Time -= duration * loops
		a.loopCount += int(math.Abs(loops))

		if a.Repetitions > 0 && a.loopCount >= a.Repetitions {
			if a.TimeScale >= 0 {
				a.Time = duration
			} else {
				a.Time = 0
			}
			a.loopCount = a.Repetitions
			a.finish()
		}
	}

	if a.Loop == LoopPingPong && a.loopCount%2 == 1 {
		return duration - a.Time
	}
	return a.Time
}

func (a *Action) finish() {
	if a.ClampWhenFinished {
		a.Paused = true
		return
	}
	a.enabled = false
}

type propertyKey struct {
	node *scene.Node
	path Path
}

// property accumulates the weighted output of every action touching one
// node property during an Update.
type property struct {
	node     *scene.Node
	path     Path
	original [4]float64
	accum    [4]float64
	weight   float64
}

func (p *property) read() [4]float64 {
	switch p.path {
	case PathRotation:
		q := p.node.Quaternion()
		return [4]float64{q.X, q.Y, q.Z, q.W}
	case PathScale:
		s := p.node.Scale
		return [4]float64{s.X, s.Y, s.Z}
	default:
		v := p.node.Position
		return [4]float64{v.X, v.Y, v.Z}
	}
}

func (p *property) reset() {
	p.accum = [4]float64{}
	p.weight = 0
}

func (p *property) accumulate(v []float64, w float64) {
	if p.path == PathRotation {
		q := quatOf(v)
		if p.weight == 0 {
			putQuat(p.accum[:], q)
		} else {
			blended := quatOf(p.accum[:]).Slerp(q, w/(p.weight+w))
			putQuat(p.accum[:], blended)
		}
		p.weight += w
		return
	}
	for c := range v {
		p.accum[c] += v[c] * w
	}
	p.weight += w
}

func (p *property) apply() {
	if p.weight == 0 {
		return
	}

	if p.path == PathRotation {
		q := quatOf(p.accum[:])
		if p.weight < 1 {
			q = quatOf(p.original[:]).Slerp(q, p.weight)
		}
		p.node.SetQuaternion(q)
		return
	}

	var v math3d.Vec3
	if p.weight < 1 {
		rest := 1 - p.weight
		v = math3d.V3(
			p.accum[0]+p.original[0]*rest,
			p.accum[1]+p.original[1]*rest,
			p.accum[2]+p.original[2]*rest,
		)
	} else {
		v = math3d.V3(p.accum[0], p.accum[1], p.accum[2]).Scale(1 / p.weight)
	}

	if p.path == PathScale {
		p.node.Scale = v
	} else {
		p.node.Position = v
	}
}
