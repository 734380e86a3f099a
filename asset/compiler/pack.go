package compiler

import (
	"math"

	"github.com/achilleasa/dynbvh/asset/scene"
	"github.com/achilleasa/dynbvh/types"
	"github.com/pkg/errors"
)

var (
	ErrPackOverflow = errors.New("compiler: value does not fit in a 16-bit channel")
)

// Pack the scene triangles, materials and BVH into the flat float32 and
// int16 buffers uploaded to the GPU. The buffer layout is described in the
// scene package.
func Pack(sc *scene.Scene) error {
	var structure []int32
	var shapeLen int
	if sc.Bvh != nil {
		structure = sc.Bvh.Structure
		shapeLen = len(sc.Bvh.Shape)
	}

	length := max(shapeLen, len(sc.Materials), len(sc.Triangles))
	floats := make([]float32, scene.FloatRows*length*scene.FloatChannels)
	ints := make([]int16, scene.IntRows*length*scene.IntChannels)

	writeVec3 := func(row, column int, v types.Vec3) {
		copy(floats[scene.FloatOffset(row, column, length):], v[:])
	}

	for index, tri := range sc.Triangles {
		for vIndex, v := range tri.Vertices {
			writeVec3(scene.RowVertex0+vIndex, index, v)
		}
		writeVec3(scene.RowNormal, index, tri.Normal)

		matIndex, err := toInt16(tri.MaterialIndex)
		if err != nil {
			return errors.Wrapf(err, "triangle %d material index", index)
		}
		ints[scene.IntOffset(scene.RowBvhNodes, index, length)+1] = matIndex
	}

	for index, mat := range sc.Materials {
		writeVec3(scene.RowColor, index, mat.Color)
		offset := scene.FloatOffset(scene.RowSurface, index, length)
		floats[offset] = mat.Roughness
		floats[offset+1] = mat.EmissionStrength
	}

	if sc.Bvh != nil {
		for index, box := range sc.Bvh.Shape {
			writeVec3(scene.RowBoxMin, index, types.XYZ(float32(box.X0), float32(box.Y0), float32(box.Z0)))
			writeVec3(scene.RowBoxMax, index, types.XYZ(float32(box.X1), float32(box.Y1), float32(box.Z1)))
		}
	}

	for index, v := range structure {
		packed, err := toInt16(v)
		if err != nil {
			return errors.Wrapf(err, "bvh node %d structure", index)
		}
		ints[scene.IntOffset(scene.RowBvhNodes, index, length)] = packed
	}

	sc.Length = length
	sc.Floats = floats
	sc.Ints = ints
	return nil
}

func toInt16(v int32) (int16, error) {
	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, errors.Wrapf(ErrPackOverflow, "value %d", v)
	}
	return int16(v), nil
}
