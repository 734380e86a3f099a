package cmd

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/achilleasa/dynbvh/asset/compiler/bvh"
	"github.com/achilleasa/dynbvh/asset/scene/reader"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Dump the BVH tree built over the triangles of a scene.
func DumpTree(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene file")
	}

	sc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		return err
	}

	maxLeaves := ctx.Int("max-leaves")
	if maxLeaves > 0 && len(sc.Triangles) > maxLeaves {
		return errors.Errorf("scene contains %d triangles; refusing to dump more than %d leaves", len(sc.Triangles), maxLeaves)
	}

	// Trees are built in triangle order so rebuilding them yields the
	// same tree that was flattened by the compiler.
	boxes := make([]bvh.BoundingBox, len(sc.Triangles))
	for index, tri := range sc.Triangles {
		boxes[index] = tri.BBox()
	}
	tree, err := bvh.BuildIndexed(boxes)
	if err != nil {
		return err
	}

	enc := bvh.Flatten(tree, func(item bvh.IndexedBox) int { return item.Index })
	if sc.Bvh != nil && !slices.Equal(enc.Structure, sc.Bvh.Structure) {
		logger.Warning("rebuilt BVH tree does not match the compiled scene BVH")
	}

	if err = tree.Fdump(ctx.App.Writer); err != nil {
		return err
	}

	logger.Noticef("BVH statistics:\n%s", fmtTreeStats(tree.Stats()))
	return nil
}

// Build a tabular representation of BVH tree statistics.
func fmtTreeStats(stats bvh.Stats) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Leaves", fmt.Sprint(stats.Leaves)})
	table.Append([]string{"Branches", fmt.Sprint(stats.Branches)})
	table.Append([]string{"Height", fmt.Sprint(stats.Height)})
	table.Append([]string{"Rotations", fmt.Sprint(stats.Rotations)})
	table.Append([]string{"SAH cost", fmt.Sprintf("%.2f", stats.Cost)})
	table.Append([]string{"Leaf depth (mean)", fmt.Sprintf("%.2f", stats.MeanLeafDepth)})
	table.Append([]string{"Leaf depth (stddev)", fmt.Sprintf("%.2f", stats.StdDevLeafDepth)})
	table.Append([]string{"Leaf depth (max)", fmt.Sprint(stats.MaxLeafDepth)})

	table.Render()
	return buf.String()
}
