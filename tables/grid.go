// Package tables computes rectangular grids from table markup.
package tables

import (
	"errors"
	"fmt"

	"h2w/markup"
	"h2w/utils/debug"
)

// ErrGridInvariant is returned when a computed row does not fill the grid
// width exactly. It indicates a defect in layout, not bad input.
var ErrGridInvariant = errors.New("table grid invariant violated")

// Section is the semantic group a row belongs to.
type Section int

const (
	SectionHeader Section = iota
	SectionBody
	SectionFooter
)

func (s Section) String() string {
	switch s {
	case SectionHeader:
		return "header"
	case SectionBody:
		return "body"
	case SectionFooter:
		return "footer"
	}
	return fmt.Sprintf("Section(%d)", int(s))
}

// Cell is a cell placed on the grid. Padding cells are synthesized to
// complete short rows and have no node.
type Cell struct {
	Node    *markup.Node
	Row     int
	Col     int
	ColSpan int
	// RowSpan 0 extends the cell to the end of its row group.
	RowSpan int
	Padding bool
}

// Slot is a grid position holding either a cell or a continuation of a cell
// spanning rows from above. Continuation is a single slot covering the same
// columns as its origin, so row width is the sum of slot Width values rather
// than the number of slots.
type Slot struct {
	Cell  *Cell
	Merge *Cell
}

// IsMerge reports whether slot continues a cell from previous row.
func (s Slot) IsMerge() bool {
	return s.Merge != nil
}

// Origin returns the cell slot belongs to.
func (s Slot) Origin() *Cell {
	if s.Merge != nil {
		return s.Merge
	}
	return s.Cell
}

// Width returns number of grid columns slot occupies.
func (s Slot) Width() int {
	return s.Origin().ColSpan
}

type Row struct {
	Node    *markup.Node
	Section Section
	Slots   []Slot
}

// Width returns number of columns occupied by the row.
func (r *Row) Width() int {
	w := 0
	for _, s := range r.Slots {
		w += s.Width()
	}
	return w
}

// Grid is normalized table layout: header rows, body rows, footer rows, each
// row covering exactly Columns columns.
type Grid struct {
	Table   *markup.Node
	Caption *markup.Node
	Rows    []Row
	Columns int
	// Widths has declared column widths in twips, 0 when unknown. It may
	// be shorter or longer than Columns.
	Widths []int
}

// Width returns declared width of grid column i in twips or 0.
func (g *Grid) Width(i int) int {
	if i < len(g.Widths) {
		return g.Widths[i]
	}
	return 0
}

func (g *Grid) verify() error {
	for i := range g.Rows {
		if w := g.Rows[i].Width(); w != g.Columns {
			return fmt.Errorf("%w: row %d occupies %d columns out of %d", ErrGridInvariant, i, w, g.Columns)
		}
	}
	return nil
}

// Dump writes grid layout for debugging.
func (g *Grid) Dump(tw *debug.TreeWriter, depth int) {
	tw.Line(depth, "grid: %d rows, %d columns, widths %v", len(g.Rows), g.Columns, g.Widths)
	if g.Caption != nil {
		tw.TextBlock(depth+1, "caption", g.Caption.TextContent())
	}
	for i, r := range g.Rows {
		tw.Line(depth+1, "row %d (%s)", i, r.Section)
		for _, s := range r.Slots {
			c := s.Origin()
			switch {
			case s.IsMerge():
				tw.Line(depth+2, "merge from [%d,%d] span %d", c.Row, c.Col, c.ColSpan)
			case c.Padding:
				tw.Line(depth+2, "padding [%d,%d]", c.Row, c.Col)
			default:
				tw.Line(depth+2, "cell [%d,%d] span %dx%d", c.Row, c.Col, c.ColSpan, c.RowSpan)
				tw.TextBlock(depth+3, "text", c.Node.TextContent())
			}
		}
	}
}
