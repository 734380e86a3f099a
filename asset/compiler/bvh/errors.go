package bvh

import "github.com/pkg/errors"

var (
	ErrInvalidInput    = errors.New("bvh: empty bounding volume list")
	ErrInvalidGeometry = errors.New("bvh: invalid bounding box")
	ErrInvalidEncoding = errors.New("bvh: invalid encoding")
)
