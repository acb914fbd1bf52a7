package convert

import (
	"fmt"

	"go.uber.org/zap"

	"h2w/common"
	"h2w/markup"
	"h2w/tables"
	"h2w/wml"
)

// borders of preformatted text box, in eights of a point
const preBorderSize = 4

// table emits table with its caption.
func (e *emitter) table(n *markup.Node, chain, blocks []*markup.Node) error {
	g, err := e.c.tables.Layout(n)
	if err != nil {
		return fmt.Errorf("unable to lay out table: %w", err)
	}
	if e.c.dump != nil {
		e.c.dump.Section("table %q", n.AttrOr("id", ""))
		g.Dump(e.c.dump, 1)
	}
	if len(g.Rows) == 0 {
		e.c.log.Debug("Ignoring table without rows")
		return nil
	}

	chain, blocks = extend(chain, n), extend(blocks, n)

	t := &wml.Table{Props: e.c.styles.Table(n)}
	for i := range g.Columns {
		t.Grid = append(t.Grid, g.Width(i))
	}
	for i := range g.Rows {
		row := &g.Rows[i]
		rowChain, rowBlocks := chain, blocks
		if row.Node != nil {
			rowChain, rowBlocks = extend(chain, row.Node), extend(blocks, row.Node)
		}
		tr := &wml.TableRow{Header: row.Section == tables.SectionHeader}
		for _, slot := range row.Slots {
			cell, err := e.cell(slot, row, rowChain, rowBlocks)
			if err != nil {
				return err
			}
			tr.Cells = append(tr.Cells, cell)
		}
		t.Rows = append(t.Rows, tr)
	}

	caption, err := e.caption(g.Caption, chain, blocks)
	if err != nil {
		return err
	}
	switch {
	case caption == nil:
		e.blocks = append(e.blocks, t)
	case e.c.cfg.TableCaptionPosition == common.CaptionPositionBelow:
		e.blocks = append(e.blocks, t, caption)
	default:
		e.blocks = append(e.blocks, caption, t)
	}
	return nil
}

// cell converts grid slot. Continuation of a merged cell repeats formatting
// of the cell it continues and has no content.
func (e *emitter) cell(slot tables.Slot, row *tables.Row, chain, blocks []*markup.Node) (*wml.TableCell, error) {
	origin := slot.Origin()

	cell := &wml.TableCell{}
	if origin.Node != nil {
		cell.Props = e.c.styles.Cell(origin.Node, row.Node)
	}
	if origin.ColSpan > 1 {
		cell.Props.GridSpan = origin.ColSpan
	}
	switch {
	case slot.IsMerge():
		cell.Props.VMerge = "continue"
	case origin.RowSpan != 1:
		cell.Props.VMerge = "restart"
	}

	if slot.IsMerge() || origin.Node == nil {
		cell.Blocks = []wml.Block{&wml.Paragraph{}}
		return cell, nil
	}

	sub := &emitter{c: e.c}
	chain, blocks = extend(chain, origin.Node), extend(blocks, origin.Node)
	for _, child := range origin.Node.Children {
		if err := sub.node(child, chain, blocks); err != nil {
			return nil, err
		}
	}
	sub.flush()

	cell.Blocks = sub.blocks
	if len(cell.Blocks) == 0 {
		cell.Blocks = []wml.Block{&wml.Paragraph{}}
	}
	return cell, nil
}

// caption returns numbered caption paragraph or nil when caption is absent,
// empty or not requested.
func (e *emitter) caption(n *markup.Node, chain, blocks []*markup.Node) (*wml.Paragraph, error) {
	if n == nil || e.c.cfg.TableCaptionPosition == common.CaptionPositionNone {
		return nil, nil
	}

	chain, blocks = extend(chain, n), extend(blocks, n)
	sub := &emitter{c: e.c}
	for _, child := range n.Children {
		if err := sub.node(child, chain, blocks); err != nil {
			return nil, err
		}
	}
	sub.flush()

	// caption is always a single paragraph
	var content []wml.Inline
	for _, b := range sub.blocks {
		if p, ok := b.(*wml.Paragraph); ok {
			content = append(content, p.Content...)
		}
	}
	if len(content) == 0 {
		e.c.log.Debug("Ignoring empty table caption")
		return nil, nil
	}

	p := &wml.Paragraph{
		Props: e.c.styles.Paragraph(blocks),
		Content: []wml.Inline{
			&wml.Run{Content: []wml.RunContent{wml.FieldChar{Type: "begin"}}},
			&wml.Run{Content: []wml.RunContent{wml.FieldCode{Code: `SEQ TABLE \* ARABIC`}}},
			&wml.Run{Content: []wml.RunContent{wml.FieldChar{Type: "end"}}},
			wml.NewRun(nil, " "),
		},
	}
	p.Content = append(p.Content, content...)
	return p, nil
}

// preTable emits preformatted text as single cell bordered table.
func (e *emitter) preTable(n *markup.Node, chain, blocks []*markup.Node) error {
	sub := &emitter{c: e.c}
	if err := sub.container(n, chain, blocks); err != nil {
		return err
	}
	if len(sub.blocks) == 0 {
		e.c.log.Debug("Ignoring empty preformatted text")
		return nil
	}

	cell := &wml.TableCell{Blocks: sub.blocks}
	for _, side := range []string{"top", "left", "bottom", "right"} {
		cell.Props.Borders = append(cell.Props.Borders, wml.Border{Side: side, Val: "single", Size: preBorderSize})
	}
	t := &wml.Table{
		Props: wml.TableProps{
			Style: e.c.styles.StyleID(e.c.cfg.Styles.PreTable),
			Width: wml.Width{Type: "auto"},
		},
		Grid: []int{0},
		Rows: []*wml.TableRow{{Cells: []*wml.TableCell{cell}}},
	}
	e.blocks = append(e.blocks, t)
	e.c.log.Debug("Preformatted text rendered as table", zap.Int("blocks", len(sub.blocks)))
	return nil
}
