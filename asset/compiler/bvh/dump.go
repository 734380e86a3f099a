package bvh

import (
	"fmt"
	"io"
	"strings"
)

// Dump returns an indented, human-readable representation of the tree.
//
// Each line lists the node height, its name and its bounding box details.
// Leaf lines also include the leaf item formatted with %v.
func (t *Tree[T]) Dump() string {
	var sb strings.Builder
	t.Fdump(&sb)
	return sb.String()
}

// Fdump writes the output of Dump to w.
func (t *Tree[T]) Fdump(w io.Writer) error {
	return t.dumpNode(w, t.root, "")
}

func (t *Tree[T]) dumpNode(w io.Writer, id NodeID, indent string) error {
	var prefix string
	if strings.HasSuffix(indent, "  ") {
		prefix = strings.TrimSuffix(indent, "  ") + "└ "
	} else if strings.HasSuffix(indent, "│ ") {
		prefix = strings.TrimSuffix(indent, "│ ") + "├ "
	}

	n := &t.nodes[id]
	if n.kind == leafNode {
		_, err := fmt.Fprintf(w, "%s%d - %s (%v, %s)\n", prefix, n.height, t.nodeName(id), n.item, n.box.Detail())
		return err
	}

	if _, err := fmt.Fprintf(w, "%s%d - %s (%s)\n", prefix, n.height, t.nodeName(id), n.box.Detail()); err != nil {
		return err
	}
	if err := t.dumpNode(w, n.children[0], indent+"│ "); err != nil {
		return err
	}
	return t.dumpNode(w, n.children[1], indent+"  ")
}

func (t *Tree[T]) nodeName(id NodeID) string {
	return "<Node " + t.Path(id) + ">"
}
