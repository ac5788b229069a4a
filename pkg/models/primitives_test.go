package models

import (
	"math"
	"testing"

	"github.com/taigrr/diorama/pkg/math3d"
)

// assertOutwardWinding checks that every clockwise face normal points away
// from the mesh center, i.e. the rasterizer will not cull the outside.
func assertOutwardWinding(t *testing.T, m *Mesh, center func(p math3d.Vec3) math3d.Vec3) {
	t.Helper()
	for i, f := range m.Faces {
		v0 := m.Vertices[f.V[0]].Position
		v1 := m.Vertices[f.V[1]].Position
		v2 := m.Vertices[f.V[2]].Position
		n := v2.Sub(v0).Cross(v1.Sub(v0))
		if n.LenSq() < 1e-18 {
			continue
		}
		centroid := v0.Add(v1).Add(v2).Scale(1.0 / 3)
		if n.Dot(centroid.Sub(center(centroid))) <= 0 {
			t.Fatalf("face %d faces inward", i)
		}
	}
}

func TestNewBox(t *testing.T) {
	box := NewBox(1, 2, 3)

	if got := box.VertexCount(); got != 24 {
		t.Errorf("VertexCount = %d, want 24", got)
	}
	if got := box.TriangleCount(); got != 12 {
		t.Errorf("TriangleCount = %d, want 12", got)
	}
	if !box.BoundsMin.ApproxEqual(math3d.V3(-0.5, -1, -1.5), 1e-12) {
		t.Errorf("BoundsMin = %v", box.BoundsMin)
	}
	if !box.BoundsMax.ApproxEqual(math3d.V3(0.5, 1, 1.5), 1e-12) {
		t.Errorf("BoundsMax = %v", box.BoundsMax)
	}
	assertOutwardWinding(t, box, func(math3d.Vec3) math3d.Vec3 { return math3d.Zero3() })
}

func TestNewSphere(t *testing.T) {
	tests := []struct {
		name          string
		w, h          int
		wantVerts     int
		wantTriangles int
	}{
		{"demo sphere", 16, 8, 17 * 9, 16 * (8*2 - 2)},
		{"clamped segments", 1, 1, 4 * 3, 3 * (2*2 - 2)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSphere(0.6, tc.w, tc.h)
			if got := s.VertexCount(); got != tc.wantVerts {
				t.Errorf("VertexCount = %d, want %d", got, tc.wantVerts)
			}
			if got := s.TriangleCount(); got != tc.wantTriangles {
				t.Errorf("TriangleCount = %d, want %d", got, tc.wantTriangles)
			}
			for i, v := range s.Vertices {
				if math.Abs(v.Position.Len()-0.6) > 1e-9 {
					t.Fatalf("vertex %d off the surface: |p| = %v", i, v.Position.Len())
				}
			}
			assertOutwardWinding(t, s, func(math3d.Vec3) math3d.Vec3 { return math3d.Zero3() })
		})
	}
}

func TestNewTorus(t *testing.T) {
	const radius, tube = 0.5, 0.2
	torus := NewTorus(radius, tube, 16, 50, 4)

	if got := torus.VertexCount(); got != 17*51 {
		t.Errorf("VertexCount = %d, want %d", got, 17*51)
	}
	if got := torus.TriangleCount(); got != 2*16*50 {
		t.Errorf("TriangleCount = %d, want %d", got, 2*16*50)
	}

	ringCenter := func(p math3d.Vec3) math3d.Vec3 {
		a := math.Atan2(p.Y, p.X)
		return math3d.V3(radius*math.Cos(a), radius*math.Sin(a), 0)
	}
	for i, v := range torus.Vertices {
		d := v.Position.Distance(ringCenter(v.Position))
		if math.Abs(d-tube) > 1e-9 {
			t.Fatalf("vertex %d is %v from the ring, want %v", i, d, tube)
		}
	}
	assertOutwardWinding(t, torus, ringCenter)

	// arc of 4 rad leaves the ring open: no vertex past the arc end
	for _, v := range torus.Vertices {
		a := math.Atan2(v.Position.Y, v.Position.X)
		if a < 0 {
			a += 2 * math.Pi
		}
		if a > 4+1e-9 {
			t.Fatalf("vertex at angle %v beyond arc", a)
		}
	}
}
