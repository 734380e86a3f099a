package bvh

import "gonum.org/v1/gonum/stat"

// Stats summarizes the shape and quality of a BVH tree.
type Stats struct {
	Leaves    int
	Branches  int
	Height    int
	Rotations int

	// Sum of the half surface areas of all branches.
	Cost float64

	// Leaf depth distribution.
	MeanLeafDepth   float64
	StdDevLeafDepth float64
	MaxLeafDepth    int
}

// Stats collects tree statistics.
func (t *Tree[T]) Stats() Stats {
	s := Stats{
		Height:    t.nodes[t.root].height,
		Rotations: t.rotations,
	}

	depths := make([]float64, 0, t.leaves)
	t.Walk(func(id NodeID, depth int) {
		n := &t.nodes[id]
		if n.kind == branchNode {
			s.Branches++
			s.Cost += n.hsa
			return
		}

		s.Leaves++
		depths = append(depths, float64(depth))
		s.MaxLeafDepth = max(s.MaxLeafDepth, depth)
	})

	if len(depths) > 1 {
		s.MeanLeafDepth, s.StdDevLeafDepth = stat.MeanStdDev(depths, nil)
	} else {
		s.MeanLeafDepth = stat.Mean(depths, nil)
	}
	return s
}
