package bvh

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestUnionAndSurfaceArea(t *testing.T) {
	a := BoundingBox{0, 0, 0, 1, 2, 3}
	b := BoundingBox{-1, 1, 2, 0.5, 4, 3}

	u := Union(a, b)
	require.Equal(t, BoundingBox{-1, 0, 0, 1, 4, 3}, u)
	require.Equal(t, u, Union(b, a))

	// dx=2, dy=4, dz=3
	require.Equal(t, 2.0*4+4*3+3*2, u.HSA())
	require.Equal(t, u.HSA(), HSAUnion(a, b))
	require.Equal(t, a.HSA(), HSAUnion(a, a))

	flat := BoundingBox{0, 0, 0, 1, 1, 0}
	require.Equal(t, 1.0, flat.HSA())
}

func TestBoxDetail(t *testing.T) {
	b := BoundingBox{0, 0.5, -1, 1, 1.25, 2}
	require.Equal(t, "0.00/0.50/-1.00; 1.00/1.25/2.00 (area: 12.00)", b.Detail())
}

func TestValidate(t *testing.T) {
	specs := []struct {
		box   BoundingBox
		valid bool
	}{
		{BoundingBox{0, 0, 0, 1, 1, 1}, true},
		{BoundingBox{1, 1, 1, 1, 1, 1}, true},
		{BoundingBox{2, 0, 0, 1, 1, 1}, false},
		{BoundingBox{0, 0, 3, 1, 1, 1}, false},
		{BoundingBox{math.NaN(), 0, 0, 1, 1, 1}, false},
		{BoundingBox{0, 0, 0, 1, math.Inf(1), 1}, false},
	}

	for specIndex, spec := range specs {
		err := spec.box.Validate()
		if spec.valid {
			require.NoError(t, err, "spec %d", specIndex)
		} else {
			require.True(t, errors.Is(err, ErrInvalidGeometry), "spec %d: got %v", specIndex, err)
		}
	}
}

func TestValidateItems(t *testing.T) {
	require.ErrorIs(t, ValidateItems([]BoundingBox{}), ErrInvalidInput)

	err := ValidateItems([]BoundingBox{
		{0, 0, 0, 1, 1, 1},
		{0, 0, 0, -1, 1, 1},
		{0, 0, 0, 1, 1, 1},
		{0, math.NaN(), 0, 1, 1, 1},
	})
	require.ErrorIs(t, err, ErrInvalidGeometry)
	require.Len(t, multierr.Errors(err), 2)
	require.Contains(t, err.Error(), "item 1")
	require.Contains(t, err.Error(), "item 3")
}
