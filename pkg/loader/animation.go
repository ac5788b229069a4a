package loader

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/diorama/pkg/anim"
)

// clip converts a glTF animation. Channels targeting morph weights or
// nodes outside the document are skipped.
func (b *builder) clip(index int, a *gltf.Animation) (*anim.Clip, error) {
	name := a.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", index)
	}

	tracks := make([]anim.Track, 0, len(a.Channels))
	for ci, ch := range a.Channels {
		if ch.Target.Node == nil || *ch.Target.Node < 0 || *ch.Target.Node >= len(b.nodes) {
			continue
		}
		path, ok := trackPath(ch.Target.Path)
		if !ok {
			continue
		}
		if ch.Sampler < 0 || ch.Sampler >= len(a.Samplers) {
			return nil, fmt.Errorf("channel %d: sampler %d out of range", ci, ch.Sampler)
		}
		s := a.Samplers[ch.Sampler]

		times, _, err := readFloats(b.doc, s.Input)
		if err != nil {
			return nil, fmt.Errorf("channel %d input: %w", ci, err)
		}
		values, n, err := readFloats(b.doc, s.Output)
		if err != nil {
			return nil, fmt.Errorf("channel %d output: %w", ci, err)
		}
		if n != path.Components() {
			return nil, fmt.Errorf("channel %d: %s output has %d components", ci, path, n)
		}

		t := anim.Track{
			Node:          b.nodes[*ch.Target.Node].Name,
			Path:          path,
			Interpolation: trackInterpolation(s.Interpolation),
			Times:         times,
			Values:        values,
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("channel %d: %w", ci, err)
		}
		tracks = append(tracks, t)
	}

	return anim.NewClip(name, tracks), nil
}

func trackPath(p gltf.TRSProperty) (anim.Path, bool) {
	switch p {
	case gltf.TRSTranslation:
		return anim.PathTranslation, true
	case gltf.TRSRotation:
		return anim.PathRotation, true
	case gltf.TRSScale:
		return anim.PathScale, true
	}
	return 0, false
}

func trackInterpolation(i gltf.Interpolation) anim.Interpolation {
	switch i {
	case gltf.InterpolationStep:
		return anim.InterpolationStep
	case gltf.InterpolationCubicSpline:
		return anim.InterpolationCubicSpline
	}
	return anim.InterpolationLinear
}
