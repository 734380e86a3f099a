package writer

import "github.com/achilleasa/dynbvh/asset/scene"

// The Writer interface is implemented by all scene writers.
type Writer interface {
	// Write scene definition
	Write(*scene.Scene) error
}

// Write a compiled scene to a zip archive. The scene, including its
// flattened BVH and packed GPU buffers, is gob-encoded into a single
// scene.bin entry that the zip scene reader loads back.
func WriteScene(sc *scene.Scene, filename string) error {
	writer := newZipSceneWriter(filename)
	return writer.Write(sc)
}
