package demo

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/taigrr/diorama/pkg/anim"
	"github.com/taigrr/diorama/pkg/math3d"
)

// Config holds everything that shapes the scene.
type Config struct {
	ModelPath   string
	ClipIndex   int           // Animation played once the model loads
	Loop        anim.LoopMode // How that animation repeats
	DecoderPath string        // Draco decoder location; logged only

	FPS           int
	Background    color.RGBA
	ShowGrid      bool
	PixelRatioCap float64 // Window backend only

	ModelScale     float64
	ModelRotationY float64
	ModelPosition  math3d.Vec3

	BoxPosition    math3d.Vec3
	SpherePosition math3d.Vec3
	TorusPosition  math3d.Vec3
	PrimitiveColor color.RGBA // Shared wireframe material
	RotationRate   float64    // Radians per second

	AmbientIntensity float64
	PointIntensity   float64
	PointPosition    math3d.Vec3

	CameraFOV      float64 // Degrees
	CameraNear     float64
	CameraFar      float64
	CameraPosition math3d.Vec3
}

// DefaultConfig returns the stock scene.
func DefaultConfig() Config {
	return Config{
		ModelPath:   "static/models/Fox/glTF/Fox.gltf",
		ClipIndex:   2,
		Loop:        anim.LoopRepeat,
		DecoderPath: "static/draco/",

		FPS:           60,
		Background:    color.RGBA{0, 0, 0, 255},
		PixelRatioCap: 2,

		ModelScale:     0.015,
		ModelRotationY: -0.3,
		ModelPosition:  math3d.V3(-1, -1, 0.025),

		BoxPosition:    math3d.V3(-1, 1, 0),
		SpherePosition: math3d.V3(1, 1, 0),
		TorusPosition:  math3d.V3(1, -1, 0),
		PrimitiveColor: color.RGBA{0, 255, 255, 255},
		RotationRate:   0.2,

		AmbientIntensity: 0.5,
		PointIntensity:   0.5,
		PointPosition:    math3d.V3(2, 3, 4),

		CameraFOV:      75,
		CameraNear:     0.1,
		CameraFar:      100,
		CameraPosition: math3d.V3(0, 0, 4),
	}
}

// Validate reports settings the demo cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", c.FPS))
	}
	if c.PixelRatioCap <= 0 {
		errs = append(errs, fmt.Errorf("pixel ratio cap must be positive, got %g", c.PixelRatioCap))
	}
	if c.CameraNear <= 0 || c.CameraFar <= c.CameraNear {
		errs = append(errs, fmt.Errorf("invalid clip planes %g..%g", c.CameraNear, c.CameraFar))
	}
	if c.CameraFOV <= 0 || c.CameraFOV >= 180 {
		errs = append(errs, fmt.Errorf("field of view must be in (0, 180), got %g", c.CameraFOV))
	}
	return errors.Join(errs...)
}

// ParseColor parses "R,G,B" with components in 0..255.
func ParseColor(s string) (color.RGBA, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return color.RGBA{}, fmt.Errorf("color %q: want R,G,B", s)
	}
	var rgb [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
		}
		rgb[i] = uint8(v)
	}
	return color.RGBA{rgb[0], rgb[1], rgb[2], 255}, nil
}
