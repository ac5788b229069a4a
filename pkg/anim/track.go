// Package anim plays keyframe animation clips on scene graph nodes. A Mixer
// owns the actions for one root node and blends their output every frame.
package anim

import (
	"fmt"
	"math"
	"sort"

	"github.com/taigrr/diorama/pkg/math3d"
)

// Path is the node property a track animates.
type Path int

const (
	PathTranslation Path = iota
	PathRotation
	PathScale
)

func (p Path) String() string {
	switch p {
	case PathTranslation:
		return "translation"
	case PathRotation:
		return "rotation"
	case PathScale:
		return "scale"
	default:
		return fmt.Sprintf("Path(%d)", int(p))
	}
}

// Components is the number of floats per keyframe value.
func (p Path) Components() int {
	if p == PathRotation {
		return 4
	}
	return 3
}

// Interpolation selects how values between keyframes are computed.
type Interpolation int

const (
	InterpolationLinear Interpolation = iota
	InterpolationStep
	InterpolationCubicSpline
)

// Track animates one property of one named node. Values holds Path.Components()
// floats per key; cubic spline tracks hold three such groups per key
// (in-tangent, value, out-tangent).
type Track struct {
	Node          string
	Path          Path
	Interpolation Interpolation
	Times         []float64
	Values        []float64
}

// Validate checks that times are ascending and the value count matches.
func (t *Track) Validate() error {
	if len(t.Times) == 0 {
		return fmt.Errorf("track %s.%s: no keyframes", t.Node, t.Path)
	}
	for i := 1; i < len(t.Times); i++ {
		if t.Times[i] < t.Times[i-1] {
			return fmt.Errorf("track %s.%s: times not ascending at key %d", t.Node, t.Path, i)
		}
	}
	want := len(t.Times) * t.Path.Components()
	if t.Interpolation == InterpolationCubicSpline {
		want *= 3
	}
	if len(t.Values) != want {
		return fmt.Errorf("track %s.%s: %d values, want %d", t.Node, t.Path, len(t.Values), want)
	}
	return nil
}

// Duration returns the time of the last key.
func (t *Track) Duration() float64 {
	if len(t.Times) == 0 {
		return 0
	}
	return t.Times[len(t.Times)-1]
}

// Sample writes the value at time into out, which must hold
// Path.Components() floats. Times outside the keyed range clamp to the
// first or last key.
func (t *Track) Sample(time float64, out []float64) {
	n := len(t.Times)
	if n == 0 {
		return
	}
	if time <= t.Times[0] || n == 1 {
		t.key(0, out)
		return
	}
	if time >= t.Times[n-1] {
		t.key(n-1, out)
		return
	}

	// First key strictly after time; the segment is [i-1, i].
	i := sort.Search(n, func(k int) bool { return t.Times[k] > time })
	t0, t1 := t.Times[i-1], t.Times[i]
	dt := t1 - t0
	if dt <= 0 {
		t.key(i, out)
		return
	}
	s := (time - t0) / dt

	switch t.Interpolation {
	case InterpolationStep:
		t.key(i-1, out)
	case InterpolationCubicSpline:
		t.cubic(i-1, i, s, dt, out)
	default:
		t.linear(i-1, i, s, out)
	}
}

// value returns the slice for key k; group selects in-tangent (0), value
// (1) or out-tangent (2) for cubic spline tracks.
func (t *Track) value(k, group int) []float64 {
	c := t.Path.Components()
	if t.Interpolation == InterpolationCubicSpline {
		start := (k*3 + group) * c
		return t.Values[start : start+c]
	}
	return t.Values[k*c : k*c+c]
}

func (t *Track) key(k int, out []float64) {
	copy(out, t.value(k, 1))
}

func (t *Track) linear(a, b int, s float64, out []float64) {
	va, vb := t.value(a, 1), t.value(b, 1)
	if t.Path == PathRotation {
		q := quatOf(va).Slerp(quatOf(vb), s)
		putQuat(out, q)
		return
	}
	for c := range out {
		out[c] = va[c] + (vb[c]-va[c])*s
	}
}

// cubic evaluates the glTF cubic Hermite spline between keys a and b.
func (t *Track) cubic(a, b int, s, dt float64, out []float64) {
	p0, m0 := t.value(a, 1), t.value(a, 2)
	p1, m1 := t.value(b, 1), t.value(b, 0)

	s2 := s * s
	s3 := s2 * s
	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2

	for c := range out {
		out[c] = h00*p0[c] + h10*dt*m0[c] + h01*p1[c] + h11*dt*m1[c]
	}
	if t.Path == PathRotation {
		putQuat(out, quatOf(out).Normalize())
	}
}

func quatOf(v []float64) math3d.Quat {
	return math3d.Quat{X: v[0], Y: v[1], Z: v[2], W: v[3]}
}

func putQuat(out []float64, q math3d.Quat) {
	out[0], out[1], out[2], out[3] = q.X, q.Y, q.Z, q.W
}

// Clip is a named set of tracks played together.
type Clip struct {
	Name     string
	Duration float64
	Tracks   []Track
}

// NewClip builds a clip whose duration is the latest key time of any track.
func NewClip(name string, tracks []Track) *Clip {
	c := &Clip{Name: name, Tracks: tracks}
	c.ResetDuration()
	return c
}

// ResetDuration recomputes Duration from the tracks.
func (c *Clip) ResetDuration() {
	var d float64
	for i := range c.Tracks {
		d = math.Max(d, c.Tracks[i].Duration())
	}
	c.Duration = d
}

// Validate checks every track.
func (c *Clip) Validate() error {
	for i := range c.Tracks {
		if err := c.Tracks[i].Validate(); err != nil {
			return fmt.Errorf("clip %q: %w", c.Name, err)
		}
	}
	return nil
}
