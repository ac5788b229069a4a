package models

import (
	"testing"

	"github.com/taigrr/diorama/pkg/math3d"
)

func triangleMesh() *Mesh {
	m := NewMesh("tri")
	m.Vertices = []MeshVertex{
		{Position: math3d.V3(0, 0, 0)},
		{Position: math3d.V3(1, 0, 0)},
		{Position: math3d.V3(0, 1, 0)},
	}
	m.addFace(0, 1, 2)
	return m
}

func TestCalculateNormalsFollowWinding(t *testing.T) {
	m := triangleMesh()
	m.CalculateNormals()
	for i, v := range m.Vertices {
		if !v.Normal.ApproxEqual(math3d.V3(0, 0, 1), 1e-12) {
			t.Errorf("vertex %d normal = %v, want +Z", i, v.Normal)
		}
	}

	m.CalculateSmoothNormals()
	for i, v := range m.Vertices {
		if !v.Normal.ApproxEqual(math3d.V3(0, 0, 1), 1e-12) {
			t.Errorf("vertex %d smooth normal = %v, want +Z", i, v.Normal)
		}
	}
}

func TestTransformUpdatesBounds(t *testing.T) {
	m := triangleMesh()
	m.CalculateBounds()
	m.Transform(math3d.Translate(math3d.V3(2, 3, 4)))

	if !m.BoundsMin.ApproxEqual(math3d.V3(2, 3, 4), 1e-12) {
		t.Errorf("BoundsMin = %v", m.BoundsMin)
	}
	if !m.BoundsMax.ApproxEqual(math3d.V3(3, 4, 4), 1e-12) {
		t.Errorf("BoundsMax = %v", m.BoundsMax)
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := triangleMesh()
	c := m.Clone()
	c.Vertices[0].Position = math3d.V3(9, 9, 9)
	c.Faces[0].V[0] = 2

	if m.Vertices[0].Position != math3d.V3(0, 0, 0) {
		t.Error("Clone shares vertex storage")
	}
	if m.Faces[0].V[0] != 0 {
		t.Error("Clone shares face storage")
	}
}

func TestIsSkinned(t *testing.T) {
	m := triangleMesh()
	if m.IsSkinned() {
		t.Error("mesh without weights reported as skinned")
	}
	m.Vertices[1].Weights = [4]float64{1, 0, 0, 0}
	if !m.IsSkinned() {
		t.Error("mesh with weights not reported as skinned")
	}
}
