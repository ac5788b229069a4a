package scene

import (
	"github.com/taigrr/diorama/pkg/math3d"
	"github.com/taigrr/diorama/pkg/models"
)

// Skin binds a mesh to a joint hierarchy. Joint i deforms vertices weighted
// to index i by Joints[i].WorldMatrix() * InverseBindMatrices[i].
type Skin struct {
	Joints              []*Node
	InverseBindMatrices []math3d.Mat4

	jointMatrices []math3d.Mat4
	scratch       *models.Mesh
}

// JointMatrices returns the current skinning matrix per joint. World
// matrices must be up to date.
func (s *Skin) JointMatrices() []math3d.Mat4 {
	if len(s.jointMatrices) != len(s.Joints) {
		s.jointMatrices = make([]math3d.Mat4, len(s.Joints))
	}
	for i, j := range s.Joints {
		ibm := math3d.Identity()
		if i < len(s.InverseBindMatrices) {
			ibm = s.InverseBindMatrices[i]
		}
		s.jointMatrices[i] = j.WorldMatrix().Mul(ibm)
	}
	return s.jointMatrices
}

// Deform returns src posed by the current joint transforms, in world space.
// The returned mesh is owned by the skin and overwritten on the next call.
func (s *Skin) Deform(src *models.Mesh) *models.Mesh {
	if s.scratch == nil || len(s.scratch.Vertices) != len(src.Vertices) {
		s.scratch = src.Clone()
	}
	dst := s.scratch
	joints := s.JointMatrices()

	for i, v := range src.Vertices {
		var skin math3d.Mat4
		var total float64
		for k := range 4 {
			w := v.Weights[k]
			j := v.Joints[k]
			if w == 0 || j < 0 || j >= len(joints) {
				continue
			}
			total += w
			for e := range skin {
				skin[e] += joints[j][e] * w
			}
		}
		if total == 0 {
			skin = math3d.Identity()
		}

		out := &dst.Vertices[i]
		out.Position = skin.MulVec3(v.Position)
		out.Normal = skin.MulVec3Dir(v.Normal).Normalize()
	}

	dst.CalculateBounds()
	return dst
}
