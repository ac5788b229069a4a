package render

import (
	"math"

	"github.com/taigrr/diorama/pkg/math3d"
)

// PointLight emits from a world position in all directions.
type PointLight struct {
	Position  math3d.Vec3
	Color     Color
	Intensity float64
}

// Lighting is the light environment for one frame: an ambient term plus
// any number of point lights. Shading is Lambertian without distance
// falloff.
type Lighting struct {
	Ambient [3]float64 // Linear RGB multiplier, color * intensity
	Points  []PointLight
}

// AddAmbient accumulates an ambient light.
func (l *Lighting) AddAmbient(c Color, intensity float64) {
	l.Ambient[0] += float64(c.R) / 255 * intensity
	l.Ambient[1] += float64(c.G) / 255 * intensity
	l.Ambient[2] += float64(c.B) / 255 * intensity
}

// AddPoint adds a point light.
func (l *Lighting) AddPoint(pos math3d.Vec3, c Color, intensity float64) {
	l.Points = append(l.Points, PointLight{Position: pos, Color: c, Intensity: intensity})
}

// At returns the per-channel light multiplier at a surface point with the
// given unit normal. A nil Lighting is full bright (unlit materials).
func (l *Lighting) At(pos, normal math3d.Vec3) [3]float64 {
	if l == nil {
		return [3]float64{1, 1, 1}
	}
	out := l.Ambient
	for _, p := range l.Points {
		dir := p.Position.Sub(pos)
		if dir.LenSq() == 0 {
			continue
		}
		ndotl := normal.Dot(dir.Normalize())
		if ndotl <= 0 {
			continue
		}
		k := ndotl * p.Intensity
		out[0] += float64(p.Color.R) / 255 * k
		out[1] += float64(p.Color.G) / 255 * k
		out[2] += float64(p.Color.B) / 255 * k
	}
	return out
}

// shade multiplies a base color by a light multiplier, clamping to 255.
func shade(c Color, light [3]float64) [3]float64 {
	return [3]float64{
		math.Min(255, float64(c.R)*light[0]),
		math.Min(255, float64(c.G)*light[1]),
		math.Min(255, float64(c.B)*light[2]),
	}
}
