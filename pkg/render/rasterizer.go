package render

import (
	"math"

	"github.com/taigrr/diorama/pkg/math3d"
)

// MeshRenderer is the geometry the rasterizer can draw.
type MeshRenderer interface {
	VertexCount() int
	TriangleCount() int
	GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2)
	GetFace(i int) [3]int
}

// BoundedMeshRenderer extends MeshRenderer with bounds for frustum culling.
type BoundedMeshRenderer interface {
	MeshRenderer
	GetBounds() (min, max math3d.Vec3)
}

// Rasterizer draws triangles and lines into a framebuffer with a Z-buffer.
// Front faces are clockwise on screen; triangles crossing the near plane are
// clipped in clip space.
type Rasterizer struct {
	camera                 *Camera
	fb                     *Framebuffer
	zbuffer                []float64
	frustum                Frustum
	frustumDirty           bool
	CullingStats           CullingStats
	DisableBackfaceCulling bool

	verts []clipVertex // per-mesh vertex cache
	poly  []clipVertex // near-plane clipping scratch
}

// CullingStats tracks frustum culling per frame.
type CullingStats struct {
	MeshesTested int
	MeshesCulled int
	MeshesDrawn  int
}

// NewRasterizer creates a new rasterizer.
func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{
		camera:       camera,
		fb:           fb,
		frustumDirty: true,
	}
	r.Resize()
	return r
}

// Resize reallocates the depth buffer to match the framebuffer.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.zbuffer = nil
		return
	}
	r.zbuffer = make([]float64, r.fb.Width*r.fb.Height)
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// ClearDepth clears the Z-buffer (call before each frame).
func (r *Rasterizer) ClearDepth() {
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	r.zbuffer[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// InvalidateFrustum marks the frustum as needing recalculation.
// Call this when the camera moves or rotates.
func (r *Rasterizer) InvalidateFrustum() {
	r.frustumDirty = true
}

// IsVisible tests if a world-space AABB is visible in the frustum.
func (r *Rasterizer) IsVisible(worldBounds AABB) bool {
	if r.frustumDirty {
		r.frustum = r.camera.Frustum()
		r.frustumDirty = false
	}
	return r.frustum.IntersectAABB(worldBounds)
}

// ResetCullingStats resets the culling statistics (call once per frame).
func (r *Rasterizer) ResetCullingStats() {
	r.CullingStats = CullingStats{}
}

func (r *Rasterizer) depth(x, y int) float64 {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return math.MaxFloat64
	}
	return r.zbuffer[y*r.Width()+x]
}

// clipVertex is a vertex in clip space with its interpolated attributes.
type clipVertex struct {
	pos math3d.Vec4
	uv  math3d.Vec2
	col [3]float64
}

func lerpClip(a, b clipVertex, t float64) clipVertex {
	return clipVertex{
		pos: math3d.V4(
			a.pos.X+(b.pos.X-a.pos.X)*t,
			a.pos.Y+(b.pos.Y-a.pos.Y)*t,
			a.pos.Z+(b.pos.Z-a.pos.Z)*t,
			a.pos.W+(b.pos.W-a.pos.W)*t,
		),
		uv: math3d.V2(a.uv.X+(b.uv.X-a.uv.X)*t, a.uv.Y+(b.uv.Y-a.uv.Y)*t),
		col: [3]float64{
			a.col[0] + (b.col[0]-a.col[0])*t,
			a.col[1] + (b.col[1]-a.col[1])*t,
			a.col[2] + (b.col[2]-a.col[2])*t,
		},
	}
}

// nearDist is the signed distance to the near plane in clip space
// (z >= -w is inside).
func nearDist(v clipVertex) float64 {
	return v.pos.Z + v.pos.W
}

// clipNear clips a convex polygon against the near plane, appending the
// result to out.
func clipNear(in, out []clipVertex) []clipVertex {
	for i := range in {
		a := in[i]
		b := in[(i+1)%len(in)]
		da, db := nearDist(a), nearDist(b)
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			out = append(out, lerpClip(a, b, da/(da-db)))
		}
	}
	return out
}

func (r *Rasterizer) drawClipped(cv [3]clipVertex, tex *Texture) {
	d0, d1, d2 := nearDist(cv[0]), nearDist(cv[1]), nearDist(cv[2])
	if d0 >= 0 && d1 >= 0 && d2 >= 0 {
		r.rasterize(cv[0], cv[1], cv[2], tex)
		return
	}
	if d0 < 0 && d1 < 0 && d2 < 0 {
		return
	}
	r.poly = clipNear(cv[:], r.poly[:0])
	for i := 1; i+1 < len(r.poly); i++ {
		r.rasterize(r.poly[0], r.poly[i], r.poly[i+1], tex)
	}
}

// screenVertex holds a vertex transformed to screen space.
type screenVertex struct {
	X, Y float64 // Screen coordinates
	Z    float64 // NDC depth
	InvW float64 // 1/w for perspective-correct interpolation
	UV   math3d.Vec2
	Col  [3]float64
}

func (r *Rasterizer) toScreen(v clipVertex) screenVertex {
	invW := 1.0 / v.pos.W
	return screenVertex{
		X:    (v.pos.X*invW + 1) * 0.5 * float64(r.Width()),
		Y:    (1 - v.pos.Y*invW) * 0.5 * float64(r.Height()), // Y flipped
		Z:    v.pos.Z * invW,
		InvW: invW,
		UV:   v.uv,
		Col:  v.col,
	}
}

// edgeCoeffs returns A, B, C for edge(x,y) = A*x + B*y + C.
// Positive = left of edge, negative = right of edge, zero = on edge.
func edgeCoeffs(x0, y0, x1, y1 float64) (A, B, C float64) {
	A = y0 - y1
	B = x1 - x0
	C = x0*y1 - x1*y0
	return
}

func edgeFunc(A, B, C, x, y float64) float64 {
	return A*x + B*y + C
}

// rasterize fills a triangle whose vertices are all in front of the near
// plane, using edge functions with incremental updates.
func (r *Rasterizer) rasterize(a, b, c clipVertex, tex *Texture) {
	sv := [3]screenVertex{r.toScreen(a), r.toScreen(b), r.toScreen(c)}

	cross := (sv[1].X-sv[0].X)*(sv[2].Y-sv[0].Y) - (sv[1].Y-sv[0].Y)*(sv[2].X-sv[0].X)
	if cross == 0 {
		return
	}
	if cross < 0 {
		if !r.DisableBackfaceCulling {
			return
		}
		sv[1], sv[2] = sv[2], sv[1]
		cross = -cross
	}

	minX := int(math.Max(0, math.Floor(min3(sv[0].X, sv[1].X, sv[2].X))))
	maxX := int(math.Min(float64(r.Width()-1), math.Ceil(max3(sv[0].X, sv[1].X, sv[2].X))))
	minY := int(math.Max(0, math.Floor(min3(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := int(math.Min(float64(r.Height()-1), math.Ceil(max3(sv[0].Y, sv[1].Y, sv[2].Y))))
	if minX > maxX || minY > maxY {
		return
	}

	// Edge 0: v1 -> v2, Edge 1: v2 -> v0, Edge 2: v0 -> v1
	A0, B0, C0 := edgeCoeffs(sv[1].X, sv[1].Y, sv[2].X, sv[2].Y)
	A1, B1, C1 := edgeCoeffs(sv[2].X, sv[2].Y, sv[0].X, sv[0].Y)
	A2, B2, C2 := edgeCoeffs(sv[0].X, sv[0].Y, sv[1].X, sv[1].Y)
	invArea := 1.0 / cross

	px := float64(minX) + 0.5
	py := float64(minY) + 0.5
	w0Row := edgeFunc(A0, B0, C0, px, py)
	w1Row := edgeFunc(A1, B1, C1, px, py)
	w2Row := edgeFunc(A2, B2, C2, px, py)

	width := r.Width()
	zbuffer := r.zbuffer
	pixels := r.fb.Pixels

	for y := minY; y <= maxY; y++ {
		w0, w1, w2 := w0Row, w1Row, w2Row
		rowOffset := y * width

		for x := minX; x <= maxX; x++ {
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				bc0 := w0 * invArea
				bc1 := w1 * invArea
				bc2 := w2 * invArea

				z := bc0*sv[0].Z + bc1*sv[1].Z + bc2*sv[2].Z
				idx := rowOffset + x
				if z < zbuffer[idx] {
					pw0 := bc0 * sv[0].InvW
					pw1 := bc1 * sv[1].InvW
					pw2 := bc2 * sv[2].InvW
					inv := 1.0 / (pw0 + pw1 + pw2)

					var col [3]float64
					for k := range 3 {
						col[k] = (pw0*sv[0].Col[k] + pw1*sv[1].Col[k] + pw2*sv[2].Col[k]) * inv
					}

					var out Color
					if tex != nil {
						u := (pw0*sv[0].UV.X + pw1*sv[1].UV.X + pw2*sv[2].UV.X) * inv
						v := (pw0*sv[0].UV.Y + pw1*sv[1].UV.Y + pw2*sv[2].UV.Y) * inv
						t := tex.Sample(u, v)
						out = RGB(
							clampByte(float64(t.R)*col[0]/255),
							clampByte(float64(t.G)*col[1]/255),
							clampByte(float64(t.B)*col[2]/255),
						)
					} else {
						out = RGB(clampByte(col[0]), clampByte(col[1]), clampByte(col[2]))
					}

					zbuffer[idx] = z
					pixels[idx] = out
				}
			}

			w0 += A0
			w1 += A1
			w2 += A2
		}

		w0Row += B0
		w1Row += B1
		w2Row += B2
	}
}

// lineDepthBias lets lines win depth ties against the faces they outline.
const lineDepthBias = 1e-4

// DrawLine3D draws a depth-tested world-space line, clipped at the near
// plane.
func (r *Rasterizer) DrawLine3D(a, b math3d.Vec3, color Color) {
	viewProj := r.camera.ViewProjectionMatrix()
	r.drawClipLine(
		clipVertex{pos: viewProj.MulVec4(math3d.V4FromV3(a, 1))},
		clipVertex{pos: viewProj.MulVec4(math3d.V4FromV3(b, 1))},
		color,
	)
}

func (r *Rasterizer) drawClipLine(a, b clipVertex, color Color) {
	da, db := nearDist(a), nearDist(b)
	switch {
	case da < 0 && db < 0:
		return
	case da < 0:
		a = lerpClip(a, b, da/(da-db))
	case db < 0:
		b = lerpClip(b, a, db/(db-da))
	}

	sa, sb := r.toScreen(a), r.toScreen(b)
	dx, dy := sb.X-sa.X, sb.Y-sa.Y
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps > 4*(r.Width()+r.Height()) {
		// Nearly parallel to the near plane; not worth walking.
		return
	}
	if steps == 0 {
		steps = 1
	}

	width := r.Width()
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(math.Floor(sa.X + dx*t))
		y := int(math.Floor(sa.Y + dy*t))
		if x < 0 || x >= width || y < 0 || y >= r.Height() {
			continue
		}
		z := sa.Z + (sb.Z-sa.Z)*t
		idx := y*width + x
		if z-lineDepthBias <= r.zbuffer[idx] {
			r.zbuffer[idx] = z
			r.fb.Pixels[idx] = color
		}
	}
}

// tryFrustumCull reports whether a mesh with bounds lies outside the view.
func (r *Rasterizer) tryFrustumCull(mesh MeshRenderer, transform math3d.Mat4) bool {
	bounded, ok := mesh.(BoundedMeshRenderer)
	if !ok {
		return false
	}

	r.CullingStats.MeshesTested++

	minBounds, maxBounds := bounded.GetBounds()
	world := NewAABB(minBounds, maxBounds).Transform(transform)
	if !r.IsVisible(world) {
		r.CullingStats.MeshesCulled++
		return true
	}

	r.CullingStats.MeshesDrawn++
	return false
}

// DrawMesh renders a mesh with Gouraud shading. Vertex colors are base
// lit by light at each vertex; a nil light draws base unlit. tex, if
// non-nil, is modulated by the vertex colors. Returns false when the mesh
// was frustum culled.
func (r *Rasterizer) DrawMesh(mesh MeshRenderer, transform math3d.Mat4, base Color, tex *Texture, light *Lighting) bool {
	if r.tryFrustumCull(mesh, transform) {
		return false
	}

	viewProj := r.camera.ViewProjectionMatrix()
	normalMat := normalMatrix(transform)

	n := mesh.VertexCount()
	if cap(r.verts) < n {
		r.verts = make([]clipVertex, n)
	}
	verts := r.verts[:n]
	for i := range n {
		pos, normal, uv := mesh.GetVertex(i)
		wp := transform.MulVec3(pos)
		wn := normalMat.MulVec3Dir(normal).Normalize()
		verts[i] = clipVertex{
			pos: viewProj.MulVec4(math3d.V4FromV3(wp, 1)),
			uv:  uv,
			col: shade(base, light.At(wp, wn)),
		}
	}

	for i := range mesh.TriangleCount() {
		f := mesh.GetFace(i)
		r.drawClipped([3]clipVertex{verts[f[0]], verts[f[1]], verts[f[2]]}, tex)
	}
	return true
}

// DrawMeshWireframe renders the triangle edges of a mesh.
// Returns false when the mesh was frustum culled.
func (r *Rasterizer) DrawMeshWireframe(mesh MeshRenderer, transform math3d.Mat4, color Color) bool {
	if r.tryFrustumCull(mesh, transform) {
		return false
	}

	viewProj := r.camera.ViewProjectionMatrix().Mul(transform)
	n := mesh.VertexCount()
	if cap(r.verts) < n {
		r.verts = make([]clipVertex, n)
	}
	verts := r.verts[:n]
	for i := range n {
		pos, _, _ := mesh.GetVertex(i)
		verts[i] = clipVertex{pos: viewProj.MulVec4(math3d.V4FromV3(pos, 1))}
	}

	for i := range mesh.TriangleCount() {
		f := mesh.GetFace(i)
		r.drawClipLine(verts[f[0]], verts[f[1]], color)
		r.drawClipLine(verts[f[1]], verts[f[2]], color)
		r.drawClipLine(verts[f[2]], verts[f[0]], color)
	}
	return true
}

// normalMatrix returns the inverse transpose of m's upper 3x3, which keeps
// normals perpendicular under non-uniform scale.
func normalMatrix(m math3d.Mat4) math3d.Mat4 {
	inv := m.Inverse()
	var n math3d.Mat4
	for c := range 3 {
		for r := range 3 {
			n[c*4+r] = inv[r*4+c]
		}
	}
	n[15] = 1
	return n
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}
