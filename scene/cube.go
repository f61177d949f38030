// Copyright (c) 2025 Cubyte.online under the AGPL License

package scene

import "github.com/xlab/linmath"

// cubeFaces lists the normal and two edge directions of each face.
var cubeFaces = [6][3]linmath.Vec3{
	{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
}

// CubeMesh returns a unit cube centered at the origin with a quad of
// two triangles per face, each face with its own normals.
func CubeMesh(color linmath.Vec3) ([]Vertex, []uint32) {
	vertices := make([]Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, f := range cubeFaces {
		n, s, t := f[0], f[1], f[2]
		base := uint32(len(vertices))
		for _, c := range corners {
			var p linmath.Vec3
			for i := range p {
				p[i] = 0.5 * (n[i] + c[0]*s[i] + c[1]*t[i])
			}
			vertices = append(vertices, Vertex{
				Position: p,
				Color:    color,
				Normal:   n,
				UV:       linmath.Vec2{(c[0] + 1) / 2, (c[1] + 1) / 2},
			})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}

// NewCube uploads a cube mesh of the given color.
func NewCube(alloc BufferAllocator, color linmath.Vec3) (*Model, error) {
	vertices, indices := CubeMesh(color)
	return NewModel(alloc, vertices, indices)
}
