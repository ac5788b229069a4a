package scene

import (
	"image"
	"image/color"

	"github.com/taigrr/diorama/pkg/models"
)

// Scene is the root of a scene graph plus its clear color.
type Scene struct {
	*Node
	Background color.RGBA
}

// New creates an empty scene with a black background.
func New() *Scene {
	return &Scene{
		Node:       NewNode("scene"),
		Background: color.RGBA{0, 0, 0, 255},
	}
}

// MaterialKind selects the shading model.
type MaterialKind int

const (
	MaterialBasic    MaterialKind = iota // Unlit, flat color
	MaterialStandard                     // Lit by the scene's lights
)

// Material describes how a mesh surface is shaded.
type Material struct {
	Name      string
	Kind      MaterialKind
	Color     color.RGBA
	Wireframe bool
	Map       image.Image // Base color texture, optional
}

// NewBasicMaterial returns an unlit material.
func NewBasicMaterial(c color.RGBA) *Material {
	return &Material{Kind: MaterialBasic, Color: c}
}

// NewStandardMaterial returns a lit material.
func NewStandardMaterial(c color.RGBA) *Material {
	return &Material{Kind: MaterialStandard, Color: c}
}

// Mesh pairs geometry with a material.
type Mesh struct {
	Geometry *models.Mesh
	Material *Material
}

// NewMeshNode wraps geometry and material in a node.
func NewMeshNode(name string, geometry *models.Mesh, material *Material) *Node {
	n := NewNode(name)
	n.Mesh = &Mesh{Geometry: geometry, Material: material}
	return n
}

// LightKind distinguishes light types.
type LightKind int

const (
	AmbientLight LightKind = iota // Uniform, no direction
	PointLight                    // Emits from the node's world position
)

// Light is attached to a node; point lights take their position from it.
type Light struct {
	Kind      LightKind
	Color     color.RGBA
	Intensity float64
}

// NewAmbientLight returns a node carrying an ambient light.
func NewAmbientLight(c color.RGBA, intensity float64) *Node {
	n := NewNode("ambient light")
	n.Light = &Light{Kind: AmbientLight, Color: c, Intensity: intensity}
	return n
}

// NewPointLight returns a node carrying a point light.
func NewPointLight(c color.RGBA, intensity float64) *Node {
	n := NewNode("point light")
	n.Light = &Light{Kind: PointLight, Color: c, Intensity: intensity}
	return n
}
