package tables

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"h2w/css"
	"h2w/markup"
)

const (
	maxColSpan = 1000
	maxRowSpan = 65534
)

// Engine lays out tables. It is stateless and may be shared.
type Engine struct {
	log *zap.Logger
	css *css.Parser
}

func NewEngine(log *zap.Logger) *Engine {
	log = log.Named("tables")
	return &Engine{log: log, css: css.NewParser(log)}
}

type rowGroup struct {
	section Section
	rows    []*markup.Node
}

// merge tracks a cell spanning rows, remaining < 0 means until the end of
// row group.
type merge struct {
	cell      *Cell
	remaining int
}

// Layout computes grid for table element. Nested tables are not visited,
// each is laid out by its own call.
func (e *Engine) Layout(table *markup.Node) (*Grid, error) {
	g := &Grid{Table: table}

	groups := e.partition(table, g)

	// header, then body, then footer, keeping source order inside
	var ordered []rowGroup
	for _, section := range []Section{SectionHeader, SectionBody, SectionFooter} {
		for _, grp := range groups {
			if grp.section == section {
				ordered = append(ordered, grp)
			}
		}
	}

	for _, grp := range ordered {
		e.layoutGroup(g, grp)
	}

	for i := range g.Rows {
		g.Columns = max(g.Columns, g.Rows[i].Width())
	}
	for i := range g.Rows {
		e.pad(g, i)
	}
	if err := g.verify(); err != nil {
		return nil, err
	}
	return g, nil
}

// partition splits table children into row groups and collects caption and
// column definitions.
func (e *Engine) partition(table *markup.Node, g *Grid) []rowGroup {
	var (
		groups []rowGroup
		loose  *rowGroup
	)
	for _, c := range table.Children {
		if c.Kind != markup.ElementNode {
			continue
		}
		if c.Tag != "tr" {
			loose = nil
		}
		switch c.Tag {
		case "caption":
			if g.Caption == nil && len(strings.TrimSpace(c.TextContent())) > 0 {
				g.Caption = c
			}
		case "colgroup":
			cols := c.Elements("col")
			if len(cols) == 0 {
				cols = []*markup.Node{c}
			}
			for _, col := range cols {
				g.Widths = append(g.Widths, e.columnWidths(col)...)
			}
		case "col":
			g.Widths = append(g.Widths, e.columnWidths(c)...)
		case "thead":
			groups = append(groups, rowGroup{section: SectionHeader, rows: c.Elements("tr")})
		case "tbody":
			groups = append(groups, rowGroup{section: SectionBody, rows: c.Elements("tr")})
		case "tfoot":
			groups = append(groups, rowGroup{section: SectionFooter, rows: c.Elements("tr")})
		case "tr":
			if loose == nil {
				groups = append(groups, rowGroup{section: SectionBody})
				loose = &groups[len(groups)-1]
			}
			loose.rows = append(loose.rows, c)
		}
	}
	return groups
}

// layoutGroup places rows of a single row group. Merges never leave the
// group they were started in.
func (e *Engine) layoutGroup(g *Grid, grp rowGroup) {
	pending := make(map[int]*merge)

	for _, tr := range grp.rows {
		cells := tr.Elements("td", "th")
		if len(cells) == 0 {
			e.log.Debug("Dropping row without cells", zap.Int("row", len(g.Rows)))
			continue
		}

		idx := len(g.Rows)
		row := Row{Node: tr, Section: grp.section}
		col := 0
		for len(cells) > 0 || hasMergeFrom(pending, col) {
			if m, ok := pending[col]; ok {
				row.Slots = append(row.Slots, Slot{Merge: m.cell})
				col += m.cell.ColSpan
				continue
			}
			if len(cells) == 0 {
				// gap before next continuation
				row.Slots = append(row.Slots, Slot{Cell: &Cell{Row: idx, Col: col, ColSpan: 1, RowSpan: 1, Padding: true}})
				col++
				continue
			}

			node := cells[0]
			cells = cells[1:]
			cell := &Cell{
				Node:    node,
				Row:     idx,
				Col:     col,
				ColSpan: parseSpan(node.AttrOr("colspan", ""), 1, maxColSpan),
				RowSpan: parseSpan(node.AttrOr("rowspan", ""), 0, maxRowSpan),
			}
			if free := freeRun(pending, col, cell.ColSpan); free < cell.ColSpan {
				e.log.Debug("Clipping overlapping column span",
					zap.Int("row", idx), zap.Int("col", col), zap.Int("span", cell.ColSpan), zap.Int("free", free))
				cell.ColSpan = free
			}
			row.Slots = append(row.Slots, Slot{Cell: cell})
			col += cell.ColSpan
		}

		// advance merges after the row is placed so cells started here
		// are not counted
		for start, m := range pending {
			if m.remaining < 0 {
				continue
			}
			if m.remaining--; m.remaining == 0 {
				delete(pending, start)
			}
		}
		for _, s := range row.Slots {
			if c := s.Cell; c != nil && !c.Padding && c.RowSpan != 1 {
				remaining := c.RowSpan - 1
				if c.RowSpan == 0 {
					remaining = -1
				}
				pending[c.Col] = &merge{cell: c, remaining: remaining}
			}
		}
		g.Rows = append(g.Rows, row)
	}

	for _, m := range pending {
		if m.remaining > 0 {
			e.log.Debug("Row span truncated at the end of row group",
				zap.Int("row", m.cell.Row), zap.Int("col", m.cell.Col), zap.Int("remaining", m.remaining))
		}
	}
}

// pad completes short row with empty cells.
func (e *Engine) pad(g *Grid, i int) {
	row := &g.Rows[i]
	w := row.Width()
	if w >= g.Columns {
		return
	}
	e.log.Debug("Padding short row", zap.Int("row", i), zap.Int("width", w), zap.Int("columns", g.Columns))
	for col := w; col < g.Columns; col++ {
		row.Slots = append(row.Slots, Slot{Cell: &Cell{Row: i, Col: col, ColSpan: 1, RowSpan: 1, Padding: true}})
	}
}

// columnWidths expands col or colgroup definition into per column widths.
func (e *Engine) columnWidths(col *markup.Node) []int {
	span := parseSpan(col.AttrOr("span", ""), 1, maxColSpan)

	width := 0
	l, ok := css.ParseAttributeLength(col.AttrOr("width", ""))
	if v, found := e.css.ParseInline(col.AttrOr("style", "")).Get("width"); found {
		l, ok = v.Length()
	}
	if ok {
		width, _ = l.Twips()
	}

	widths := make([]int, span)
	for i := range widths {
		widths[i] = width
	}
	return widths
}

func hasMergeFrom(pending map[int]*merge, col int) bool {
	for start := range pending {
		if start >= col {
			return true
		}
	}
	return false
}

// freeRun returns number of consecutive free columns starting at col, up to
// limit.
func freeRun(pending map[int]*merge, col, limit int) int {
	n := limit
	for start, m := range pending {
		if start+m.cell.ColSpan > col && start < col+n {
			n = start - col
		}
	}
	return max(n, 1)
}

// parseSpan parses span attribute. Missing, malformed and values below low
// give 1.
func parseSpan(s string, low, high int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < low {
		return 1
	}
	return min(n, high)
}
