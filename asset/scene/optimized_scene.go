package scene

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/achilleasa/dynbvh/asset/compiler/bvh"
	"github.com/achilleasa/dynbvh/asset/compiler/input"
	"github.com/achilleasa/dynbvh/types"
	"github.com/olekukonko/tablewriter"
)

// A triangle with its face normal precomputed.
type Triangle struct {
	Vertices      [3]types.Vec3
	Normal        types.Vec3
	MaterialIndex int32
}

// Get the triangle AABB.
func (tri Triangle) BBox() bvh.BoundingBox {
	return input.TriangleBBox(tri.Vertices)
}

// Material properties as consumed by the tracer.
type Material struct {
	Name             string
	Color            types.Vec3
	Roughness        float32
	EmissionStrength float32
}

// Packed data is laid out as a set of rows, each one Length texels wide.
//
// Float rows (3 channels per texel):
// - 0-2: triangle vertices
// - 3  : triangle normal
// - 4  : material color
// - 5  : unused
// - 6  : [material roughness, material emission strength, -]
// - 7-8: bvh node box min and max points
//
// Int rows (2 channels per texel):
// - 0  : [bvh structure value, triangle material index]
const (
	FloatRows     = 9
	FloatChannels = 3
	IntRows       = 1
	IntChannels   = 2

	RowVertex0  = 0
	RowNormal   = 3
	RowColor    = 4
	RowSurface  = 6
	RowBoxMin   = 7
	RowBoxMax   = 8
	RowBvhNodes = 0
)

// The compiled scene.
type Scene struct {
	Triangles []Triangle
	Materials []Material

	// The flattened BVH over the triangle bounding boxes. Leaf entries
	// reference triangle indices.
	Bvh *bvh.Encoding

	// GPU-ready buffers. See the row layout above.
	Length int
	Floats []float32
	Ints   []int16
}

// Get the offset of the first channel of a float texel.
func FloatOffset(row, column, length int) int {
	return (row*length + column) * FloatChannels
}

// Get the offset of the first channel of an int texel.
func IntOffset(row, column, length int) int {
	return (row*length + column) * IntChannels
}

// Build a tabular representation of scene statistics.
func (sc *Scene) Stats() string {
	var structure, parents []int32
	var shape []bvh.BoundingBox
	if sc.Bvh != nil {
		structure, shape, parents = sc.Bvh.Structure, sc.Bvh.Shape, sc.Bvh.Parents
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Count", "Size"})
	table.Append([]string{"Geometry", "---", "", fmtSize(sc.Triangles)})
	table.Append([]string{"", "Triangles", fmt.Sprint(len(sc.Triangles)), fmtSize(sc.Triangles)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"BVH", "---", "", fmtSize(structure, shape, parents)})
	table.Append([]string{"", "Structure", fmt.Sprint(len(structure)), fmtSize(structure)})
	table.Append([]string{"", "Shape", fmt.Sprint(len(shape)), fmtSize(shape)})
	table.Append([]string{"", "Parents", fmt.Sprint(len(parents)), fmtSize(parents)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Materials", "---", fmt.Sprint(len(sc.Materials)), fmtSize(sc.Materials)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Packed", "---", fmt.Sprint(sc.Length), fmtSize(sc.Floats, sc.Ints)})
	table.Append([]string{"", "Floats", fmt.Sprint(len(sc.Floats)), fmtSize(sc.Floats)})
	table.Append([]string{"", "Ints", fmt.Sprint(len(sc.Ints)), fmtSize(sc.Ints)})
	table.SetFooter([]string{"Total", " ", " ", strings.TrimLeft(fmtSize(sc.Triangles, structure, shape, parents, sc.Materials, sc.Floats, sc.Ints), " ")})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
