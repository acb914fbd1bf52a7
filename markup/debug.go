package markup

import (
	"strings"

	"h2w/utils/debug"
)

// Dump writes node and its subtree to tw.
func (n *Node) Dump(tw *debug.TreeWriter, depth int) {
	if n.Kind == TextNode {
		tw.TextBlock(depth, "text", n.Text)
		return
	}

	var b strings.Builder
	b.WriteString(n.Tag)
	if n.Implicit {
		b.WriteString(" (implicit)")
	}
	for _, a := range n.Attrs {
		b.WriteString(" ")
		b.WriteString(a.Key)
		b.WriteString("=")
		b.WriteString(a.Val)
	}
	tw.Line(depth, "<%s> %s", b.String(), n.Category())
	for _, c := range n.Children {
		c.Dump(tw, depth+1)
	}
}

// String returns indented representation of node tree, used in debug
// reports.
func (n *Node) String() string {
	tw := debug.NewTreeWriter()
	n.Dump(tw, 0)
	return tw.String()
}
