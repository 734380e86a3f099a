package bvh

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// BoundingBox is an axis-aligned box defined by its min (X0, Y0, Z0) and
// max (X1, Y1, Z1) corners.
type BoundingBox struct {
	X0, Y0, Z0 float64
	X1, Y1, Z1 float64
}

// The Bounded interface is implemented by all items that can be stored in
// the leaves of a BVH tree.
type Bounded interface {
	BBox() BoundingBox
}

// BBox allows a plain BoundingBox to be used as a tree item.
func (b BoundingBox) BBox() BoundingBox {
	return b
}

// Union returns the smallest box enclosing both a and b.
func Union(a, b BoundingBox) BoundingBox {
	return BoundingBox{
		X0: math.Min(a.X0, b.X0),
		Y0: math.Min(a.Y0, b.Y0),
		Z0: math.Min(a.Z0, b.Z0),
		X1: math.Max(a.X1, b.X1),
		Y1: math.Max(a.Y1, b.Y1),
		Z1: math.Max(a.Z1, b.Z1),
	}
}

// HSA returns half the surface area of the box (dx*dy + dy*dz + dz*dx). All
// SAH costs in this package are expressed in this unit.
func (b BoundingBox) HSA() float64 {
	dx := b.X1 - b.X0
	dy := b.Y1 - b.Y0
	dz := b.Z1 - b.Z0
	return dx*dy + dy*dz + dz*dx
}

// HSAUnion returns Union(a, b).HSA() without building the union box.
func HSAUnion(a, b BoundingBox) float64 {
	dx := math.Max(a.X1, b.X1) - math.Min(a.X0, b.X0)
	dy := math.Max(a.Y1, b.Y1) - math.Min(a.Y0, b.Y0)
	dz := math.Max(a.Z1, b.Z1) - math.Min(a.Z0, b.Z0)
	return dx*dy + dy*dz + dz*dx
}

// Detail formats the box as "x0/y0/z0; x1/y1/z1 (area: A)" where A is the
// full surface area.
func (b BoundingBox) Detail() string {
	return fmt.Sprintf(
		"%.2f/%.2f/%.2f; %.2f/%.2f/%.2f (area: %.2f)",
		b.X0, b.Y0, b.Z0,
		b.X1, b.Y1, b.Z1,
		2*b.HSA(),
	)
}

// Validate returns ErrInvalidGeometry if any coordinate is NaN/Inf or if
// the min corner exceeds the max corner along any axis.
func (b BoundingBox) Validate() error {
	for _, v := range [6]float64{b.X0, b.Y0, b.Z0, b.X1, b.Y1, b.Z1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrapf(ErrInvalidGeometry, "non-finite coordinate in %v", b)
		}
	}

	if b.X0 > b.X1 || b.Y0 > b.Y1 || b.Z0 > b.Z1 {
		return errors.Wrapf(ErrInvalidGeometry, "inverted extents in %v", b)
	}
	return nil
}

// ValidateItems checks that the item list is not empty and that every item
// reports a valid bounding box. All invalid items are reported.
func ValidateItems[T Bounded](items []T) error {
	if len(items) == 0 {
		return ErrInvalidInput
	}

	var err error
	for index, item := range items {
		if itemErr := item.BBox().Validate(); itemErr != nil {
			err = multierr.Append(err, errors.WithMessagef(itemErr, "item %d", index))
		}
	}
	return err
}
