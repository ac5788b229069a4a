package render

import (
	"image"

	"github.com/taigrr/diorama/pkg/math3d"
	"github.com/taigrr/diorama/pkg/scene"
)

// FrameStats describes the last rendered frame.
type FrameStats struct {
	Meshes    int // Meshes drawn after culling
	Culled    int // Meshes rejected by the frustum test
	Triangles int // Triangles submitted
}

// gridY is the height of the ground grid, level with the model's feet.
const gridY = -1

// Renderer draws a scene graph into a framebuffer through a camera.
type Renderer struct {
	camera  *Camera
	fb      *Framebuffer
	rast    *Rasterizer
	helpers *Wireframe

	textures map[image.Image]*Texture
	lighting Lighting

	ShowGrid bool
	Stats    FrameStats
}

// NewRenderer creates a renderer with a width x height framebuffer.
func NewRenderer(camera *Camera, width, height int) *Renderer {
	r := &Renderer{
		camera:   camera,
		textures: make(map[image.Image]*Texture),
	}
	r.SetSize(width, height)
	return r
}

// SetSize reallocates the framebuffer and depth buffer.
func (r *Renderer) SetSize(width, height int) {
	r.fb = NewFramebuffer(width, height)
	r.rast = NewRasterizer(r.camera, r.fb)
	r.helpers = NewWireframe(r.rast)
}

// Size returns the framebuffer dimensions.
func (r *Renderer) Size() (width, height int) {
	return r.fb.Width, r.fb.Height
}

// Framebuffer returns the target of the last Render.
func (r *Renderer) Framebuffer() *Framebuffer {
	return r.fb
}

// Camera returns the camera the renderer draws through.
func (r *Renderer) Camera() *Camera {
	return r.camera
}

// Render updates world matrices and draws every visible mesh in s.
func (r *Renderer) Render(s *scene.Scene) {
	s.UpdateWorldMatrix()

	r.fb.Clear(s.Background)
	r.rast.ClearDepth()
	r.rast.InvalidateFrustum()
	r.rast.ResetCullingStats()
	r.Stats = FrameStats{}

	r.collectLights(s.Node)

	s.TraverseVisible(func(n *scene.Node) {
		if n.Mesh != nil && n.Mesh.Geometry != nil {
			r.drawMesh(n)
		}
	})

	if r.ShowGrid {
		r.helpers.DrawGrid(10, 10, gridY, ColorGray, ColorDark)
		r.helpers.DrawAxes(1)
		for _, p := range r.lighting.Points {
			r.helpers.DrawPoint(p.Position, 0.2, p.Color)
		}
	}

	r.Stats.Culled = r.rast.CullingStats.MeshesCulled
}

func (r *Renderer) collectLights(root *scene.Node) {
	r.lighting = Lighting{Points: r.lighting.Points[:0]}
	root.TraverseVisible(func(n *scene.Node) {
		if n.Light == nil {
			return
		}
		switch n.Light.Kind {
		case scene.AmbientLight:
			r.lighting.AddAmbient(n.Light.Color, n.Light.Intensity)
		case scene.PointLight:
			r.lighting.AddPoint(n.WorldPosition(), n.Light.Color, n.Light.Intensity)
		}
	})
}

func (r *Renderer) drawMesh(n *scene.Node) {
	geom := n.Mesh.Geometry
	transform := n.WorldMatrix()
	if n.Skin != nil && geom.IsSkinned() {
		// Skinned vertices come out in world space.
		geom = n.Skin.Deform(geom)
		transform = math3d.Identity()
	}

	mat := n.Mesh.Material
	if mat == nil {
		mat = scene.NewBasicMaterial(ColorWhite)
	}

	var drawn bool
	switch {
	case mat.Wireframe:
		drawn = r.rast.DrawMeshWireframe(geom, transform, mat.Color)
	case mat.Kind == scene.MaterialStandard:
		drawn = r.rast.DrawMesh(geom, transform, mat.Color, r.texture(mat.Map), &r.lighting)
	default:
		drawn = r.rast.DrawMesh(geom, transform, mat.Color, r.texture(mat.Map), nil)
	}
	if drawn {
		r.Stats.Meshes++
		r.Stats.Triangles += geom.TriangleCount()
	}
}

// texture converts and caches material maps.
func (r *Renderer) texture(img image.Image) *Texture {
	if img == nil {
		return nil
	}
	if t, ok := r.textures[img]; ok {
		return t
	}
	t := TextureFromImage(img)
	r.textures[img] = t
	return t
}
