package compiler

import (
	"time"

	"github.com/achilleasa/dynbvh/asset/compiler/bvh"
	"github.com/achilleasa/dynbvh/asset/compiler/input"
	"github.com/achilleasa/dynbvh/asset/scene"
	"github.com/achilleasa/dynbvh/log"
	"github.com/pkg/errors"
)

var (
	ErrUnknownMaterial = errors.New("compiler: triangle references an unknown material")
)

type sceneCompiler struct {
	parsedScene    *input.Scene
	optimizedScene *scene.Scene
	logger         log.Logger
}

// Compile a scene representation parsed by a scene reader into a GPU-friendly
// optimized scene format.
func Compile(parsedScene *input.Scene) (*scene.Scene, error) {
	compiler := &sceneCompiler{
		parsedScene:    parsedScene,
		optimizedScene: &scene.Scene{},
		logger:         log.New("scene compiler"),
	}

	start := time.Now()
	compiler.logger.Noticef("compiling scene")

	var err error
	err = compiler.convertMaterials()
	if err != nil {
		return nil, err
	}

	err = compiler.convertTriangles()
	if err != nil {
		return nil, err
	}

	err = compiler.partitionGeometry()
	if err != nil {
		return nil, err
	}

	err = Pack(compiler.optimizedScene)
	if err != nil {
		return nil, err
	}

	compiler.logger.Noticef("compiled scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return compiler.optimizedScene, nil
}

func (sc *sceneCompiler) convertMaterials() error {
	sc.optimizedScene.Materials = make([]scene.Material, len(sc.parsedScene.Materials))
	for index, mat := range sc.parsedScene.Materials {
		sc.optimizedScene.Materials[index] = scene.Material{
			Name:             mat.Name,
			Color:            mat.Color,
			Roughness:        mat.Roughness,
			EmissionStrength: mat.EmissionStrength,
		}
	}
	return nil
}

// Copy triangles to the optimized scene and precompute their normals.
func (sc *sceneCompiler) convertTriangles() error {
	matCount := len(sc.parsedScene.Materials)
	sc.optimizedScene.Triangles = make([]scene.Triangle, len(sc.parsedScene.Triangles))
	for index, tri := range sc.parsedScene.Triangles {
		if tri.MaterialIndex < 0 || tri.MaterialIndex >= matCount {
			return errors.Wrapf(ErrUnknownMaterial, "triangle %d: material index %d; %d materials defined", index, tri.MaterialIndex, matCount)
		}

		sc.optimizedScene.Triangles[index] = scene.Triangle{
			Vertices:      tri.Vertices,
			Normal:        tri.Normal(),
			MaterialIndex: int32(tri.MaterialIndex),
		}
	}
	return nil
}

// Generate a BVH tree over the triangle bounding boxes. Triangles are
// inserted in the order they were parsed so the result is deterministic.
func (sc *sceneCompiler) partitionGeometry() error {
	start := time.Now()
	sc.logger.Infof("building BVH tree (%d triangles)", len(sc.parsedScene.Triangles))

	boxes := make([]bvh.BoundingBox, len(sc.parsedScene.Triangles))
	for index, tri := range sc.parsedScene.Triangles {
		boxes[index] = tri.BBox()
	}

	enc, err := bvh.Encode(boxes)
	if err != nil {
		return errors.Wrap(err, "compiler: could not partition geometry")
	}
	sc.optimizedScene.Bvh = enc

	sc.logger.Infof("partitioned geometry into %d BVH nodes in %d ms", enc.Len(), time.Since(start).Nanoseconds()/1e6)
	return nil
}
