package input

import (
	"github.com/achilleasa/dynbvh/asset/compiler/bvh"
	"github.com/achilleasa/dynbvh/types"
)

// A surface material.
type Material struct {
	Name string

	// Diffuse color.
	Color types.Vec3

	// Emission strength; a negative value marks a non-emissive material.
	EmissionStrength float32

	// Surface roughness in the [0, 1] range.
	Roughness float32
}

// Create a material with the default properties.
func NewMaterial(name string) *Material {
	return &Material{
		Name:             name,
		Color:            types.Vec3{0.7, 0.7, 0.7},
		EmissionStrength: -1,
		Roughness:        1,
	}
}

// A triangle primitive
type Triangle struct {
	Vertices      [3]types.Vec3
	MaterialIndex int
}

// Get the triangle AABB.
func (tri *Triangle) BBox() bvh.BoundingBox {
	return TriangleBBox(tri.Vertices)
}

// Calculate the AABB enclosing a set of triangle vertices.
func TriangleBBox(vertices [3]types.Vec3) bvh.BoundingBox {
	min := types.MinVec3(vertices[0], types.MinVec3(vertices[1], vertices[2]))
	max := types.MaxVec3(vertices[0], types.MaxVec3(vertices[1], vertices[2]))
	return bvh.BoundingBox{
		X0: float64(min[0]), Y0: float64(min[1]), Z0: float64(min[2]),
		X1: float64(max[0]), Y1: float64(max[1]), Z1: float64(max[2]),
	}
}

// Get the triangle face normal. Degenerate triangles get a zero normal.
func (tri *Triangle) Normal() types.Vec3 {
	e01 := tri.Vertices[1].Sub(tri.Vertices[0])
	e02 := tri.Vertices[2].Sub(tri.Vertices[0])
	return e01.Cross(e02).Normalize()
}

// The scene contains all elements that are processed and optimized by the
// scene compiler.
type Scene struct {
	Triangles []*Triangle
	Materials []*Material
}

// Create a new scene.
func NewScene() *Scene {
	return &Scene{
		Triangles: make([]*Triangle, 0),
		Materials: make([]*Material, 0),
	}
}
