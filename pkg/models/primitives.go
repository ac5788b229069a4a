package models

import (
	"math"

	"github.com/taigrr/diorama/pkg/math3d"
)

// NewBox builds an axis-aligned box centered on the origin with one quad per
// side. Each side has its own vertices so normals stay flat.
func NewBox(width, height, depth float64) *Mesh {
	mesh := NewMesh("box")
	dims := math3d.V3(width, height, depth)

	// normal, u axis, v axis; u x v == normal
	sides := [6][3]math3d.Vec3{
		{{X: 1}, {Z: -1}, {Y: 1}},
		{{X: -1}, {Z: 1}, {Y: 1}},
		{{Y: 1}, {X: 1}, {Z: -1}},
		{{Y: -1}, {X: 1}, {Z: 1}},
		{{Z: 1}, {X: 1}, {Y: 1}},
		{{Z: -1}, {X: -1}, {Y: 1}},
	}

	for _, side := range sides {
		n, u, v := side[0], side[1], side[2]
		center := n.Scale(n.Abs().Dot(dims) / 2)
		hu := u.Scale(u.Abs().Dot(dims) / 2)
		hv := v.Scale(v.Abs().Dot(dims) / 2)

		base := len(mesh.Vertices)
		corners := [4]struct {
			su, sv float64
			uv     math3d.Vec2
		}{
			{-1, -1, math3d.V2(0, 0)},
			{1, -1, math3d.V2(1, 0)},
			{1, 1, math3d.V2(1, 1)},
			{-1, 1, math3d.V2(0, 1)},
		}
		for _, c := range corners {
			mesh.Vertices = append(mesh.Vertices, MeshVertex{
				Position: center.Add(hu.Scale(c.su)).Add(hv.Scale(c.sv)),
				Normal:   n,
				UV:       c.uv,
			})
		}
		mesh.addFace(base, base+1, base+2)
		mesh.addFace(base, base+2, base+3)
	}

	mesh.CalculateBounds()
	return mesh
}

// NewSphere builds a UV sphere. widthSegments is clamped to at least 3 and
// heightSegments to at least 2. The poles are degenerate rows, so the first
// and last bands emit one triangle per quad.
func NewSphere(radius float64, widthSegments, heightSegments int) *Mesh {
	widthSegments = max(3, widthSegments)
	heightSegments = max(2, heightSegments)

	mesh := NewMesh("sphere")
	grid := make([][]int, heightSegments+1)

	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)
		row := make([]int, widthSegments+1)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float64(ix) / float64(widthSegments)
			pos := math3d.V3(
				-radius*math.Cos(u*2*math.Pi)*math.Sin(v*math.Pi),
				radius*math.Cos(v*math.Pi),
				radius*math.Sin(u*2*math.Pi)*math.Sin(v*math.Pi),
			)
			row[ix] = len(mesh.Vertices)
			mesh.Vertices = append(mesh.Vertices, MeshVertex{
				Position: pos,
				Normal:   pos.Normalize(),
				UV:       math3d.V2(u, 1-v),
			})
		}
		grid[iy] = row
	}

	for iy := range heightSegments {
		for ix := range widthSegments {
			a := grid[iy][ix+1]
			b := grid[iy][ix]
			c := grid[iy+1][ix]
			d := grid[iy+1][ix+1]
			if iy != 0 {
				mesh.addFace(a, b, d)
			}
			if iy != heightSegments-1 {
				mesh.addFace(b, c, d)
			}
		}
	}

	mesh.CalculateBounds()
	return mesh
}

// NewTorus builds a torus in the XY plane. radius is from the center to the
// middle of the tube, tube is the tube radius, and arc (radians) limits how
// much of the ring is generated; 2π closes it.
func NewTorus(radius, tube float64, radialSegments, tubularSegments int, arc float64) *Mesh {
	radialSegments = max(1, radialSegments)
	tubularSegments = max(1, tubularSegments)

	mesh := NewMesh("torus")

	for j := 0; j <= radialSegments; j++ {
		for i := 0; i <= tubularSegments; i++ {
			u := float64(i) / float64(tubularSegments) * arc
			v := float64(j) / float64(radialSegments) * 2 * math.Pi

			pos := math3d.V3(
				(radius+tube*math.Cos(v))*math.Cos(u),
				(radius+tube*math.Cos(v))*math.Sin(u),
				tube*math.Sin(v),
			)
			center := math3d.V3(radius*math.Cos(u), radius*math.Sin(u), 0)

			mesh.Vertices = append(mesh.Vertices, MeshVertex{
				Position: pos,
				Normal:   pos.Sub(center).Normalize(),
				UV: math3d.V2(
					float64(i)/float64(tubularSegments),
					float64(j)/float64(radialSegments),
				),
			})
		}
	}

	stride := tubularSegments + 1
	for j := 1; j <= radialSegments; j++ {
		for i := 1; i <= tubularSegments; i++ {
			a := stride*j + i - 1
			b := stride*(j-1) + i - 1
			c := stride*(j-1) + i
			d := stride*j + i
			mesh.addFace(a, b, d)
			mesh.addFace(b, c, d)
		}
	}

	mesh.CalculateBounds()
	return mesh
}
