package loader

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/diorama/pkg/anim"
	"github.com/taigrr/diorama/pkg/math3d"
	"github.com/taigrr/diorama/pkg/models"
	"github.com/taigrr/diorama/pkg/scene"
)

type imageEntry struct {
	img image.Image
	err error
}

// builder holds per-document decode state.
type builder struct {
	loader *Loader
	doc    *gltf.Document
	dir    string

	nodes     []*scene.Node
	names     map[string]int
	materials map[int]*scene.Material
	images    map[int]imageEntry
	skins     map[int]*scene.Skin
	triangles int
}

func (b *builder) build() (*Result, error) {
	roots, name, err := b.sceneRoots()
	if err != nil {
		return nil, err
	}

	b.names = make(map[string]int)
	b.materials = make(map[int]*scene.Material)
	b.skins = make(map[int]*scene.Skin)
	b.nodes = make([]*scene.Node, len(b.doc.Nodes))
	for i, n := range b.doc.Nodes {
		b.nodes[i] = scene.NewNode(b.uniqueName(n.Name, i))
		applyNodeTransform(b.nodes[i], n)
	}
	for i, n := range b.doc.Nodes {
		for _, c := range n.Children {
			if c < 0 || c >= len(b.nodes) || c == i {
				return nil, fmt.Errorf("node %d: child %d out of range", i, c)
			}
			b.nodes[i].Add(b.nodes[c])
		}
	}
	for i, n := range b.doc.Nodes {
		if n.Mesh == nil {
			continue
		}
		if err := b.attachMesh(b.nodes[i], n); err != nil {
			return nil, fmt.Errorf("node %q: %w", b.nodes[i].Name, err)
		}
	}

	root := scene.NewNode(name)
	for _, r := range roots {
		root.Add(b.nodes[r])
	}

	clips := make([]*anim.Clip, 0, len(b.doc.Animations))
	for i, a := range b.doc.Animations {
		clip, err := b.clip(i, a)
		if err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
		clips = append(clips, clip)
	}

	return &Result{Scene: root, Animations: clips, Triangles: b.triangles}, nil
}

// sceneRoots returns the root node indices of the default scene. Documents
// without scenes fall back to every node that has no parent.
func (b *builder) sceneRoots() ([]int, string, error) {
	doc := b.doc
	if len(doc.Nodes) == 0 {
		return nil, "", ErrNoScene
	}

	var roots []int
	name := "Scene"
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil {
			idx = *doc.Scene
		}
		if idx < 0 || idx >= len(doc.Scenes) {
			return nil, "", fmt.Errorf("scene %d out of range", idx)
		}
		s := doc.Scenes[idx]
		roots = s.Nodes
		if s.Name != "" {
			name = s.Name
		}
	} else {
		hasParent := make([]bool, len(doc.Nodes))
		for _, n := range doc.Nodes {
			for _, c := range n.Children {
				if c >= 0 && c < len(hasParent) {
					hasParent[c] = true
				}
			}
		}
		for i, p := range hasParent {
			if !p {
				roots = append(roots, i)
			}
		}
	}

	if len(roots) == 0 {
		return nil, "", ErrNoScene
	}
	for _, r := range roots {
		if r < 0 || r >= len(doc.Nodes) {
			return nil, "", fmt.Errorf("scene root %d out of range", r)
		}
	}
	return roots, name, nil
}

// uniqueName makes node names unique so animation tracks can bind by name.
func (b *builder) uniqueName(name string, index int) string {
	if name == "" {
		name = fmt.Sprintf("node_%d", index)
	}
	n := b.names[name]
	b.names[name] = n + 1
	if n == 0 {
		return name
	}
	return fmt.Sprintf("%s_%d", name, n)
}

func applyNodeTransform(dst *scene.Node, n *gltf.Node) {
	var zero [16]float64
	if n.Matrix != zero && n.Matrix != identityMatrix {
		dst.ApplyMatrix(math3d.Mat4FromSlice(n.Matrix[:]))
		return
	}

	dst.Position = math3d.V3(n.Translation[0], n.Translation[1], n.Translation[2])
	if n.Scale != [3]float64{} {
		dst.Scale = math3d.V3(n.Scale[0], n.Scale[1], n.Scale[2])
	}
	if n.Rotation != [4]float64{} {
		dst.SetQuaternion(math3d.Quat{X: n.Rotation[0], Y: n.Rotation[1], Z: n.Rotation[2], W: n.Rotation[3]})
	}
}

var identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// attachMesh puts the primitives of a glTF mesh on dst. A single primitive
// lives on the node itself; several become child nodes.
func (b *builder) attachMesh(dst *scene.Node, n *gltf.Node) error {
	if *n.Mesh < 0 || *n.Mesh >= len(b.doc.Meshes) {
		return fmt.Errorf("mesh %d out of range", *n.Mesh)
	}
	m := b.doc.Meshes[*n.Mesh]

	var skin *scene.Skin
	if n.Skin != nil {
		s, err := b.skin(*n.Skin)
		if err != nil {
			return fmt.Errorf("skin %d: %w", *n.Skin, err)
		}
		skin = s
	}

	var parts []*scene.Mesh
	for i, prim := range m.Primitives {
		if _, ok := prim.Extensions[extDraco]; ok {
			return ErrDracoUnsupported
		}
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			b.loader.logger().Debug("skipping non-triangle primitive", "mesh", m.Name, "primitive", i, "mode", prim.Mode)
			continue
		}
		geom, err := b.geometry(prim, fmt.Sprintf("%s_%d", m.Name, i))
		if err != nil {
			return fmt.Errorf("mesh %q primitive %d: %w", m.Name, i, err)
		}
		if geom == nil {
			continue
		}
		b.triangles += geom.TriangleCount()
		parts = append(parts, &scene.Mesh{Geometry: geom, Material: b.material(prim.Material)})
	}

	// Each mesh node gets its own Skin value so deformation scratch
	// buffers are not shared between primitives.
	ownSkin := func() *scene.Skin {
		if skin == nil {
			return nil
		}
		return &scene.Skin{Joints: skin.Joints, InverseBindMatrices: skin.InverseBindMatrices}
	}

	switch len(parts) {
	case 0:
	case 1:
		dst.Mesh = parts[0]
		dst.Skin = ownSkin()
	default:
		for i, p := range parts {
			child := scene.NewNode(b.uniqueName(fmt.Sprintf("%s_primitive", dst.Name), i))
			child.Mesh = p
			child.Skin = ownSkin()
			dst.Add(child)
		}
	}
	return nil
}

// geometry decodes one triangle primitive. glTF front faces are
// counter-clockwise; faces are stored clockwise to match the screen-space
// Y flip in the rasterizer.
func (b *builder) geometry(prim *gltf.Primitive, name string) (*models.Mesh, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil
	}
	positions, n, err := readFloats(b.doc, posIdx)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	if n != 3 {
		return nil, fmt.Errorf("positions: expected VEC3, got %d components", n)
	}
	count := len(positions) / 3

	mesh := models.NewMesh(name)
	mesh.Vertices = make([]models.MeshVertex, count)
	for i := range count {
		mesh.Vertices[i].Position = math3d.V3(positions[i*3], positions[i*3+1], positions[i*3+2])
	}

	hasNormals := false
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, n, err := readFloats(b.doc, idx)
		if err != nil {
			return nil, fmt.Errorf("read normals: %w", err)
		}
		if n == 3 {
			hasNormals = true
			for i := 0; i < count && i*3+2 < len(normals); i++ {
				mesh.Vertices[i].Normal = math3d.V3(normals[i*3], normals[i*3+1], normals[i*3+2])
			}
		}
	}

	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, n, err := readFloats(b.doc, idx)
		if err != nil {
			return nil, fmt.Errorf("read uvs: %w", err)
		}
		if n == 2 {
			for i := 0; i < count && i*2+1 < len(uvs); i++ {
				// glTF has V=0 at the top of the image; textures sample bottom-up.
				mesh.Vertices[i].UV = math3d.V2(uvs[i*2], 1.0-uvs[i*2+1])
			}
		}
	}

	if err := b.readSkinning(prim, mesh); err != nil {
		return nil, err
	}

	if prim.Indices != nil {
		indices, _, err := readInts(b.doc, *prim.Indices)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
		for i := 0; i+2 < len(indices); i += 3 {
			a, bb, c := indices[i], indices[i+1], indices[i+2]
			if a < 0 || bb < 0 || c < 0 || a >= count || bb >= count || c >= count {
				return nil, fmt.Errorf("index out of range at triangle %d", i/3)
			}
			mesh.Faces = append(mesh.Faces, models.Face{V: [3]int{a, c, bb}})
		}
	} else {
		for i := 0; i+2 < count; i += 3 {
			mesh.Faces = append(mesh.Faces, models.Face{V: [3]int{i, i + 2, i + 1}})
		}
	}

	if !hasNormals && b.loader.CalculateNormals {
		if b.loader.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}
	mesh.CalculateBounds()
	return mesh, nil
}

func (b *builder) readSkinning(prim *gltf.Primitive, mesh *models.Mesh) error {
	jIdx, hasJoints := prim.Attributes["JOINTS_0"]
	wIdx, hasWeights := prim.Attributes["WEIGHTS_0"]
	if !hasJoints || !hasWeights {
		return nil
	}
	joints, jn, err := readInts(b.doc, jIdx)
	if err != nil {
		return fmt.Errorf("read joints: %w", err)
	}
	weights, wn, err := readFloats(b.doc, wIdx)
	if err != nil {
		return fmt.Errorf("read weights: %w", err)
	}
	if jn != 4 || wn != 4 {
		return fmt.Errorf("skinning attributes must be VEC4")
	}
	for i := range mesh.Vertices {
		if i*4+3 >= len(joints) || i*4+3 >= len(weights) {
			break
		}
		v := &mesh.Vertices[i]
		for k := range 4 {
			v.Joints[k] = joints[i*4+k]
			v.Weights[k] = weights[i*4+k]
		}
	}
	return nil
}

func (b *builder) skin(index int) (*scene.Skin, error) {
	if s, ok := b.skins[index]; ok {
		return s, nil
	}
	if index < 0 || index >= len(b.doc.Skins) {
		return nil, fmt.Errorf("out of range")
	}
	gs := b.doc.Skins[index]

	s := &scene.Skin{Joints: make([]*scene.Node, len(gs.Joints))}
	for i, j := range gs.Joints {
		if j < 0 || j >= len(b.nodes) {
			return nil, fmt.Errorf("joint %d out of range", j)
		}
		s.Joints[i] = b.nodes[j]
	}

	if gs.InverseBindMatrices != nil {
		data, n, err := readFloats(b.doc, *gs.InverseBindMatrices)
		if err != nil {
			return nil, fmt.Errorf("read inverse bind matrices: %w", err)
		}
		if n != 16 {
			return nil, fmt.Errorf("inverse bind matrices must be MAT4")
		}
		s.InverseBindMatrices = make([]math3d.Mat4, len(data)/16)
		for i := range s.InverseBindMatrices {
			s.InverseBindMatrices[i] = math3d.Mat4FromSlice(data[i*16 : i*16+16])
		}
	}

	b.skins[index] = s
	return s, nil
}

// material converts a glTF material. Primitives without one get a white
// lit material.
func (b *builder) material(index *int) *scene.Material {
	if index == nil || *index < 0 || *index >= len(b.doc.Materials) {
		return scene.NewStandardMaterial(color.RGBA{255, 255, 255, 255})
	}
	if m, ok := b.materials[*index]; ok {
		return m
	}

	gm := b.doc.Materials[*index]
	mat := scene.NewStandardMaterial(color.RGBA{255, 255, 255, 255})
	mat.Name = gm.Name
	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		if f := pbr.BaseColorFactor; f != nil {
			mat.Color = color.RGBA{
				R: linearToSRGB(f[0]),
				G: linearToSRGB(f[1]),
				B: linearToSRGB(f[2]),
				A: uint8(clamp01(f[3])*255 + 0.5),
			}
		}
		if t := pbr.BaseColorTexture; t != nil {
			mat.Map = b.texture(t.Index)
		}
	}

	b.materials[*index] = mat
	return mat
}

func (b *builder) texture(index int) image.Image {
	if index < 0 || index >= len(b.doc.Textures) {
		return nil
	}
	src := b.doc.Textures[index].Source
	if src == nil {
		return nil
	}
	e, ok := b.images[*src]
	if !ok {
		e.img, e.err = b.decodeImage(*src)
		b.images[*src] = e
		if e.err != nil {
			b.loader.logger().Warn("texture unavailable", "image", *src, "err", e.err)
		}
	}
	return e.img
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// linearToSRGB encodes a linear color factor for display.
func linearToSRGB(v float64) uint8 {
	v = clamp01(v)
	if v <= 0.0031308 {
		v *= 12.92
	} else {
		v = 1.055*math.Pow(v, 1/2.4) - 0.055
	}
	return uint8(v*255 + 0.5)
}
