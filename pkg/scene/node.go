// Package scene is the retained scene graph: a tree of nodes with local
// transforms, some of which carry a mesh, a light or a skin.
package scene

import (
	"github.com/taigrr/diorama/pkg/math3d"
)

// Node is an object in the scene graph. Rotation is stored both as Euler
// angles and as a quaternion; the setters keep the two in sync so callers can
// use whichever representation suits them.
type Node struct {
	Name     string
	Position math3d.Vec3
	Scale    math3d.Vec3
	Visible  bool

	Mesh  *Mesh
	Light *Light
	Skin  *Skin

	rotation   math3d.Euler
	quaternion math3d.Quat

	parent   *Node
	children []*Node

	matrix      math3d.Mat4
	matrixWorld math3d.Mat4
}

// NewNode creates an empty, visible node at the origin.
func NewNode(name string) *Node {
	return &Node{
		Name:        name,
		Scale:       math3d.One3(),
		Visible:     true,
		quaternion:  math3d.QuatIdentity(),
		matrix:      math3d.Identity(),
		matrixWorld: math3d.Identity(),
	}
}

// Rotation returns the Euler angles (XYZ order).
func (n *Node) Rotation() math3d.Euler {
	return n.rotation
}

// SetRotation sets the Euler angles and derives the quaternion.
func (n *Node) SetRotation(e math3d.Euler) {
	n.rotation = e
	n.quaternion = math3d.QuatFromEuler(e)
}

// Quaternion returns the orientation as a quaternion.
func (n *Node) Quaternion() math3d.Quat {
	return n.quaternion
}

// SetQuaternion sets the orientation and derives the Euler angles.
func (n *Node) SetQuaternion(q math3d.Quat) {
	n.quaternion = q.Normalize()
	n.rotation = math3d.EulerFromQuat(n.quaternion)
}

// RotateOnAxis rotates the node around a local-space axis.
func (n *Node) RotateOnAxis(axis math3d.Vec3, angle float64) {
	n.SetQuaternion(n.quaternion.Mul(math3d.QuatFromAxisAngle(axis, angle)))
}

// RotateY rotates the node around its local Y axis.
func (n *Node) RotateY(angle float64) {
	n.RotateOnAxis(math3d.Up(), angle)
}

// SetUniformScale sets the same scale on all three axes.
func (n *Node) SetUniformScale(s float64) {
	n.Scale = math3d.V3(s, s, s)
}

// ApplyMatrix replaces the local transform with the decomposition of m.
func (n *Node) ApplyMatrix(m math3d.Mat4) {
	pos, q, scale := m.Decompose()
	n.Position = pos
	n.Scale = scale
	n.SetQuaternion(q)
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the direct children. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// Add attaches children to n, detaching them from any previous parent.
// Adding a node to itself is ignored.
func (n *Node) Add(children ...*Node) {
	for _, c := range children {
		if c == nil || c == n {
			continue
		}
		c.RemoveFromParent()
		c.parent = n
		n.children = append(n.children, c)
	}
}

// Remove detaches child from n. It is a no-op if child is not a direct child.
func (n *Node) Remove(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// RemoveFromParent detaches n from its parent, if any.
func (n *Node) RemoveFromParent() {
	if n.parent != nil {
		n.parent.Remove(n)
	}
}

// Traverse calls fn for n and all of its descendants, depth first.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// TraverseVisible is Traverse restricted to visible subtrees.
func (n *Node) TraverseVisible(fn func(*Node)) {
	if !n.Visible {
		return
	}
	fn(n)
	for _, c := range n.children {
		c.TraverseVisible(fn)
	}
}

// FindByName returns the first node in the subtree with the given name.
func (n *Node) FindByName(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.children {
		if found := c.FindByName(name); found != nil {
			return found
		}
	}
	return nil
}

// LocalMatrix returns the transform relative to the parent, as of the last
// UpdateWorldMatrix.
func (n *Node) LocalMatrix() math3d.Mat4 {
	return n.matrix
}

// WorldMatrix returns the transform relative to the root, as of the last
// UpdateWorldMatrix.
func (n *Node) WorldMatrix() math3d.Mat4 {
	return n.matrixWorld
}

// WorldPosition returns the translation of the world matrix.
func (n *Node) WorldPosition() math3d.Vec3 {
	return n.matrixWorld.Translation()
}

// UpdateWorldMatrix recomputes local and world matrices for n and its
// descendants. The parent's world matrix is assumed current.
func (n *Node) UpdateWorldMatrix() {
	n.matrix = math3d.Compose(n.Position, n.quaternion, n.Scale)
	if n.parent == nil {
		n.matrixWorld = n.matrix
	} else {
		n.matrixWorld = n.parent.matrixWorld.Mul(n.matrix)
	}
	for _, c := range n.children {
		c.UpdateWorldMatrix()
	}
}
