package render

import (
	"math"
	"testing"

	"github.com/taigrr/diorama/pkg/math3d"
)

func TestPlaneDistanceToPoint(t *testing.T) {
	// Plane at Z=0, normal pointing +Z
	plane := Plane{Normal: math3d.V3(0, 0, 1), D: 0}

	tests := []struct {
		name     string
		point    math3d.Vec3
		expected float64
	}{
		{"origin", math3d.V3(0, 0, 0), 0},
		{"in front", math3d.V3(0, 0, 5), 5},
		{"behind", math3d.V3(0, 0, -3), -3},
		{"offset XY", math3d.V3(10, -5, 2), 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dist := plane.DistanceToPoint(tc.point)
			if math.Abs(dist-tc.expected) > 1e-9 {
				t.Errorf("got %v, want %v", dist, tc.expected)
			}
		})
	}
}

func TestPlaneNormalize(t *testing.T) {
	plane := Plane{Normal: math3d.V3(0, 3, 4), D: 10}
	plane.Normalize()

	if math.Abs(plane.Normal.Len()-1.0) > 1e-9 {
		t.Errorf("normalized normal length = %v, want 1.0", plane.Normal.Len())
	}
	if math.Abs(plane.Normal.Y-0.6) > 1e-9 || math.Abs(plane.Normal.Z-0.8) > 1e-9 {
		t.Errorf("normal = %v, want (0, 0.6, 0.8)", plane.Normal)
	}
	if math.Abs(plane.D-2.0) > 1e-9 {
		t.Errorf("D = %v, want 2.0", plane.D)
	}
}

func TestAABBBasics(t *testing.T) {
	box := NewAABB(math3d.V3(-1, -2, -3), math3d.V3(1, 2, 3))

	if c := box.Center(); c != math3d.Zero3() {
		t.Errorf("center = %v, want (0, 0, 0)", c)
	}
	if s := box.Size(); s != math3d.V3(2, 4, 6) {
		t.Errorf("size = %v, want (2, 4, 6)", s)
	}
}

func TestAABBContainsPoint(t *testing.T) {
	box := NewAABB(math3d.V3(0, 0, 0), math3d.V3(10, 10, 10))

	tests := []struct {
		name     string
		point    math3d.Vec3
		expected bool
	}{
		{"center", math3d.V3(5, 5, 5), true},
		{"corner min", math3d.V3(0, 0, 0), true},
		{"corner max", math3d.V3(10, 10, 10), true},
		{"edge", math3d.V3(5, 0, 5), true},
		{"outside X", math3d.V3(11, 5, 5), false},
		{"outside Y", math3d.V3(5, -1, 5), false},
		{"outside Z", math3d.V3(5, 5, 15), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := box.ContainsPoint(tc.point); got != tc.expected {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tc.point, got, tc.expected)
			}
		})
	}
}

func TestAABBTransform(t *testing.T) {
	box := NewAABB(math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1))

	tests := []struct {
		name     string
		m        math3d.Mat4
		min, max math3d.Vec3
	}{
		{"translation", math3d.Translate(math3d.V3(10, 20, 30)), math3d.V3(9, 19, 29), math3d.V3(11, 21, 31)},
		{"scale", math3d.Scale(math3d.V3(2, 2, 2)), math3d.V3(-2, -2, -2), math3d.V3(2, 2, 2)},
		// A 45 degree turn widens the box to the rotated corners.
		{"rotation", math3d.RotateY(math.Pi / 4), math3d.V3(-math.Sqrt2, -1, -math.Sqrt2), math3d.V3(math.Sqrt2, 1, math.Sqrt2)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := box.Transform(tc.m)
			if !got.Min.ApproxEqual(tc.min, 1e-9) || !got.Max.ApproxEqual(tc.max, 1e-9) {
				t.Errorf("Transform = %v..%v, want %v..%v", got.Min, got.Max, tc.min, tc.max)
			}
		})
	}
}

func TestFrustumFromPerspective(t *testing.T) {
	proj := math3d.Perspective(math.Pi/3, 16.0/9.0, 0.1, 100)
	frustum := NewFrustumFromMatrix(proj)

	for i, plane := range frustum.Planes {
		if math.Abs(plane.Normal.Len()-1.0) > 1e-6 {
			t.Errorf("plane %d normal length = %v, want 1.0", i, plane.Normal.Len())
		}
	}
}

func TestFrustumContainsPoint(t *testing.T) {
	// Camera at origin looking down -Z
	frustum := NewFrustumFromMatrix(math3d.Perspective(math.Pi/3, 16.0/9.0, 0.1, 100))

	tests := []struct {
		name     string
		point    math3d.Vec3
		expected bool
	}{
		{"center near", math3d.V3(0, 0, -1), true},
		{"center mid", math3d.V3(0, 0, -50), true},
		{"center far", math3d.V3(0, 0, -99), true},
		{"behind camera", math3d.V3(0, 0, 1), false},
		{"too far", math3d.V3(0, 0, -200), false},
		{"too close", math3d.V3(0, 0, -0.01), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := frustum.ContainsPoint(tc.point); got != tc.expected {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tc.point, got, tc.expected)
			}
		})
	}
}

func TestFrustumIntersectAABB(t *testing.T) {
	frustum := NewFrustumFromMatrix(math3d.Perspective(math.Pi/3, 16.0/9.0, 1, 100))

	tests := []struct {
		name     string
		box      AABB
		expected bool
	}{
		{"fully inside", NewAABB(math3d.V3(-1, -1, -10), math3d.V3(1, 1, -5)), true},
		{"crosses near plane", NewAABB(math3d.V3(-1, -1, -2), math3d.V3(1, 1, 2)), true},
		{"behind camera", NewAABB(math3d.V3(-1, -1, 5), math3d.V3(1, 1, 10)), false},
		{"beyond far plane", NewAABB(math3d.V3(-1, -1, -150), math3d.V3(1, 1, -120)), false},
		{"far to the right", NewAABB(math3d.V3(100, -1, -10), math3d.V3(110, 1, -5)), false},
		{"contains frustum", NewAABB(math3d.V3(-200, -200, -200), math3d.V3(200, 200, 200)), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := frustum.IntersectAABB(tc.box); got != tc.expected {
				t.Errorf("IntersectAABB(%v) = %v, want %v", tc.box, got, tc.expected)
			}
		})
	}
}

func TestCameraFrustumFollowsRotation(t *testing.T) {
	camera := NewPerspectiveCamera(75, 1, 0.1, 100)
	camera.SetPosition(math3d.Zero3())
	camera.LookAt(math3d.V3(10, 0, 0))
	frustum := camera.Frustum()

	if !frustum.ContainsPoint(math3d.V3(10, 0, 0)) {
		t.Error("point in front of rotated camera should be visible")
	}
	if frustum.ContainsPoint(math3d.V3(-10, 0, 0)) {
		t.Error("point behind rotated camera should not be visible")
	}
}

func BenchmarkFrustumIntersectAABB(b *testing.B) {
	frustum := NewFrustumFromMatrix(math3d.Perspective(math.Pi/3, 16.0/9.0, 0.1, 1000))

	b.Run("visible", func(b *testing.B) {
		box := NewAABB(math3d.V3(-1, -1, -10), math3d.V3(1, 1, -5))
		for b.Loop() {
			_ = frustum.IntersectAABB(box)
		}
	})
	b.Run("culled", func(b *testing.B) {
		box := NewAABB(math3d.V3(-1, -1, 5), math3d.V3(1, 1, 15))
		for b.Loop() {
			_ = frustum.IntersectAABB(box)
		}
	})
}

func BenchmarkFrustumExtraction(b *testing.B) {
	camera := NewPerspectiveCamera(75, 1, 0.1, 100)
	camera.SetPosition(math3d.V3(0, 10, 20))
	camera.LookAt(math3d.Zero3())
	viewProj := camera.ViewProjectionMatrix()

	for b.Loop() {
		_ = NewFrustumFromMatrix(viewProj)
	}
}

func BenchmarkAABBTransform(b *testing.B) {
	box := NewAABB(math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1))
	m := math3d.Translate(math3d.V3(10, 0, 0)).Mul(math3d.RotateY(0.5))

	for b.Loop() {
		_ = box.Transform(m)
	}
}
