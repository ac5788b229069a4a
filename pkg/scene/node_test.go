package scene

import (
	"math"
	"testing"

	"github.com/taigrr/diorama/pkg/math3d"
	"github.com/taigrr/diorama/pkg/models"
)

func TestAddReparents(t *testing.T) {
	a := NewNode("a")
	b := NewNode("b")
	c := NewNode("c")

	a.Add(c)
	b.Add(c)

	if c.Parent() != b {
		t.Fatalf("parent = %v, want b", c.Parent())
	}
	if len(a.Children()) != 0 {
		t.Errorf("a still has %d children", len(a.Children()))
	}
	if len(b.Children()) != 1 {
		t.Errorf("b has %d children, want 1", len(b.Children()))
	}

	a.Add(a, nil)
	if len(a.Children()) != 0 {
		t.Error("adding self or nil should be ignored")
	}
}

func TestRemove(t *testing.T) {
	root := NewNode("root")
	x, y, z := NewNode("x"), NewNode("y"), NewNode("z")
	root.Add(x, y, z)

	y.RemoveFromParent()
	if y.Parent() != nil {
		t.Error("removed node keeps its parent")
	}

	var names []string
	for _, c := range root.Children() {
		names = append(names, c.Name)
	}
	if len(names) != 2 || names[0] != "x" || names[1] != "z" {
		t.Errorf("children = %v, want [x z]", names)
	}

	root.Remove(y) // not a child any more
	if len(root.Children()) != 2 {
		t.Error("removing a non-child changed the children")
	}
}

func TestFindByNameAndTraverse(t *testing.T) {
	root := NewNode("root")
	arm := NewNode("arm")
	hand := NewNode("hand")
	root.Add(arm)
	arm.Add(hand)

	if got := root.FindByName("hand"); got != hand {
		t.Errorf("FindByName(hand) = %v", got)
	}
	if got := root.FindByName("foot"); got != nil {
		t.Errorf("FindByName(foot) = %v, want nil", got)
	}

	var count int
	root.Traverse(func(*Node) { count++ })
	if count != 3 {
		t.Errorf("Traverse visited %d nodes, want 3", count)
	}

	arm.Visible = false
	count = 0
	root.TraverseVisible(func(*Node) { count++ })
	if count != 1 {
		t.Errorf("TraverseVisible visited %d nodes, want 1", count)
	}
}

func TestRotationRepresentationsStayInSync(t *testing.T) {
	n := NewNode("n")
	n.SetRotation(math3d.E(0, 0.4, -0.2))
	want := math3d.QuatFromEuler(math3d.E(0, 0.4, -0.2))
	if !n.Quaternion().ApproxEqual(want, 1e-12) {
		t.Errorf("quaternion = %v, want %v", n.Quaternion(), want)
	}

	n.SetQuaternion(math3d.QuatFromAxisAngle(math3d.V3(1, 0, 0), 0.5))
	if !n.Rotation().ApproxEqual(math3d.E(0.5, 0, 0), 1e-9) {
		t.Errorf("rotation = %v, want (0.5, 0, 0)", n.Rotation())
	}
}

func TestRotateYIsLocal(t *testing.T) {
	n := NewNode("n")
	n.RotateY(-0.3)
	if !n.Rotation().ApproxEqual(math3d.E(0, -0.3, 0), 1e-9) {
		t.Errorf("rotation = %v, want (0, -0.3, 0)", n.Rotation())
	}

	// Local axis: after tipping around X, RotateY turns around the tipped axis.
	m := NewNode("m")
	m.SetRotation(math3d.E(math.Pi/2, 0, 0))
	m.RotateY(math.Pi / 2)
	got := m.Quaternion().Rotate(math3d.V3(1, 0, 0))
	want := math3d.QuatFromEuler(math3d.E(math.Pi/2, math.Pi/2, 0)).Rotate(math3d.V3(1, 0, 0))
	if !got.ApproxEqual(want, 1e-9) {
		t.Errorf("rotated +X = %v, want %v", got, want)
	}
}

func TestUpdateWorldMatrix(t *testing.T) {
	root := NewNode("root")
	root.Position = math3d.V3(-1, -1, 0.025)
	root.SetUniformScale(0.015)
	root.RotateY(-0.3)

	child := NewNode("child")
	child.Position = math3d.V3(0, 100, 0)
	root.Add(child)
	root.UpdateWorldMatrix()

	got := child.WorldPosition()
	want := math3d.Translate(root.Position).
		Mul(math3d.RotateY(-0.3)).
		Mul(math3d.Scale(math3d.V3(0.015, 0.015, 0.015))).
		MulVec3(child.Position)
	if !got.ApproxEqual(want, 1e-12) {
		t.Errorf("child world position = %v, want %v", got, want)
	}
	if !got.ApproxEqual(math3d.V3(-1, 0.5, 0.025), 1e-12) {
		t.Errorf("child world position = %v, want (-1, 0.5, 0.025)", got)
	}
}

func TestApplyMatrix(t *testing.T) {
	n := NewNode("n")
	m := math3d.Compose(math3d.V3(1, 2, 3), math3d.QuatFromAxisAngle(math3d.Up(), 0.25), math3d.V3(2, 2, 2))
	n.ApplyMatrix(m)
	n.UpdateWorldMatrix()

	got := n.LocalMatrix()
	for i := range got {
		if math.Abs(got[i]-m[i]) > 1e-9 {
			t.Fatalf("local matrix element %d = %v, want %v", i, got[i], m[i])
		}
	}
}

func TestSkinDeform(t *testing.T) {
	root := NewNode("root")
	j0 := NewNode("j0")
	j1 := NewNode("j1")
	root.Add(j0, j1)

	mesh := models.NewMesh("skinned")
	mesh.Vertices = []models.MeshVertex{
		{Position: math3d.V3(0, 0, 0), Normal: math3d.V3(0, 0, 1), Weights: [4]float64{1}},
		{Position: math3d.V3(1, 0, 0), Normal: math3d.V3(0, 0, 1), Joints: [4]int{1}, Weights: [4]float64{1}},
		{Position: math3d.V3(0, 1, 0), Normal: math3d.V3(0, 0, 1), Joints: [4]int{0, 1}, Weights: [4]float64{0.5, 0.5}},
	}

	skin := &Skin{
		Joints:              []*Node{j0, j1},
		InverseBindMatrices: []math3d.Mat4{math3d.Identity(), math3d.Identity()},
	}

	j1.Position = math3d.V3(0, 0, 2)
	root.UpdateWorldMatrix()

	posed := skin.Deform(mesh)
	want := []math3d.Vec3{
		math3d.V3(0, 0, 0),
		math3d.V3(1, 0, 2),
		math3d.V3(0, 1, 1),
	}
	for i, w := range want {
		if !posed.Vertices[i].Position.ApproxEqual(w, 1e-12) {
			t.Errorf("vertex %d = %v, want %v", i, posed.Vertices[i].Position, w)
		}
	}
	if mesh.Vertices[1].Position != math3d.V3(1, 0, 0) {
		t.Error("Deform modified the source mesh")
	}
	if posed.BoundsMax.Z != 2 {
		t.Errorf("bounds not refreshed: max = %v", posed.BoundsMax)
	}
}
