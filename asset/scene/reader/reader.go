package reader

import (
	"strings"

	"github.com/achilleasa/dynbvh/asset"
	"github.com/achilleasa/dynbvh/asset/scene"
	"github.com/pkg/errors"
)

var (
	ErrUnsupportedFormat = errors.New("readScene: unsupported file format")
)

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// Read scene from file. Wavefront (.obj) scenes are compiled after being
// parsed; compiled (.zip) scenes are loaded as-is.
func ReadScene(filename string) (*scene.Scene, error) {
	// Select reader based on file extension
	var reader Reader
	if strings.HasSuffix(filename, ".obj") {
		reader = newWavefrontReader()
	} else if strings.HasSuffix(filename, ".zip") {
		reader = newZipSceneReader()
	} else {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", filename)
	}

	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return reader.Read(res)
}
