package wml

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"h2w/notes"
)

// Namespaces used by the encoded parts.
const (
	NamespaceMain          = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NamespaceRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// Relations allocates relationship ids of the part content is encoded into.
type Relations interface {
	Hyperlink(target string) string
}

// Encoder writes model elements as children of etree elements.
type Encoder struct {
	rels Relations
}

func NewEncoder(rels Relations) *Encoder {
	return &Encoder{rels: rels}
}

// Blocks appends blocks to parent.
func (enc *Encoder) Blocks(parent *etree.Element, blocks []Block) {
	for _, b := range blocks {
		switch v := b.(type) {
		case *Paragraph:
			enc.Paragraph(parent, v)
		case *Table:
			enc.Table(parent, v)
		}
	}
}

// Note appends w:footnote or w:endnote element to parent.
func (enc *Encoder) Note(parent *etree.Element, n *Note) *etree.Element {
	el := parent.CreateElement("w:" + n.Kind.String())
	el.CreateAttr("w:id", strconv.Itoa(n.ID))
	enc.Blocks(el, n.Blocks)
	return el
}

func (enc *Encoder) Paragraph(parent *etree.Element, p *Paragraph) *etree.Element {
	el := parent.CreateElement("w:p")
	if !p.Props.IsEmpty() {
		encodeParagraphProps(el, p.Props)
	}
	for _, c := range p.Content {
		switch v := c.(type) {
		case *Run:
			enc.Run(el, v)
		case *Hyperlink:
			enc.Hyperlink(el, v)
		case *Bookmark:
			start := el.CreateElement("w:bookmarkStart")
			start.CreateAttr("w:id", strconv.Itoa(v.ID))
			start.CreateAttr("w:name", v.Name)
			el.CreateElement("w:bookmarkEnd").CreateAttr("w:id", strconv.Itoa(v.ID))
		}
	}
	return el
}

func (enc *Encoder) Hyperlink(parent *etree.Element, h *Hyperlink) *etree.Element {
	el := parent.CreateElement("w:hyperlink")
	switch {
	case len(h.Anchor) > 0:
		el.CreateAttr("w:anchor", h.Anchor)
	case enc.rels != nil:
		el.CreateAttr("r:id", enc.rels.Hyperlink(h.URI))
	}
	for _, r := range h.Runs {
		enc.Run(el, r)
	}
	return el
}

func (enc *Encoder) Run(parent *etree.Element, r *Run) *etree.Element {
	el := parent.CreateElement("w:r")
	if !r.Props.IsEmpty() {
		encodeRunProps(el, r.Props)
	}
	for _, c := range r.Content {
		switch v := c.(type) {
		case Text:
			t := el.CreateElement("w:t")
			if strings.TrimSpace(v.Value) != v.Value {
				t.CreateAttr("xml:space", "preserve")
			}
			t.SetText(v.Value)
		case Break:
			el.CreateElement("w:br")
		case NoteReference:
			el.CreateElement("w:"+v.Kind.String()+"Reference").CreateAttr("w:id", strconv.Itoa(v.ID))
		case NoteMark:
			if v.Kind == notes.Endnote {
				el.CreateElement("w:endnoteRef")
			} else {
				el.CreateElement("w:footnoteRef")
			}
		case FieldChar:
			el.CreateElement("w:fldChar").CreateAttr("w:fldCharType", v.Type)
		case FieldCode:
			t := el.CreateElement("w:instrText")
			t.CreateAttr("xml:space", "preserve")
			t.SetText(v.Code)
		}
	}
	return el
}

func (enc *Encoder) Table(parent *etree.Element, t *Table) *etree.Element {
	el := parent.CreateElement("w:tbl")

	pr := el.CreateElement("w:tblPr")
	if len(t.Props.Style) > 0 {
		setVal(pr.CreateElement("w:tblStyle"), t.Props.Style)
	}
	encodeWidth(pr, "w:tblW", t.Props.Width)
	if len(t.Props.Align) > 0 {
		setVal(pr.CreateElement("w:jc"), t.Props.Align)
	}

	grid := el.CreateElement("w:tblGrid")
	for _, w := range t.Grid {
		col := grid.CreateElement("w:gridCol")
		if w > 0 {
			col.CreateAttr("w:w", strconv.Itoa(w))
		}
	}

	for _, row := range t.Rows {
		tr := el.CreateElement("w:tr")
		if row.Header {
			tr.CreateElement("w:trPr").CreateElement("w:tblHeader")
		}
		for _, cell := range row.Cells {
			tc := tr.CreateElement("w:tc")
			encodeCellProps(tc, &cell.Props)
			enc.Blocks(tc, cell.Blocks)
			// cell must end with paragraph
			if n := len(cell.Blocks); n == 0 || isTable(cell.Blocks[n-1]) {
				tc.CreateElement("w:p")
			}
		}
	}
	return el
}

func isTable(b Block) bool {
	_, ok := b.(*Table)
	return ok
}

func encodeParagraphProps(parent *etree.Element, p *ParagraphProps) {
	pr := parent.CreateElement("w:pPr")
	if len(p.Style) > 0 {
		setVal(pr.CreateElement("w:pStyle"), p.Style)
	}
	if p.BorderBottom {
		b := pr.CreateElement("w:pBdr").CreateElement("w:bottom")
		b.CreateAttr("w:val", "single")
		b.CreateAttr("w:sz", "6")
		b.CreateAttr("w:space", "1")
		b.CreateAttr("w:color", "auto")
	}
	if len(p.Shading) > 0 {
		encodeShading(pr, p.Shading)
	}
	if p.Bidi {
		pr.CreateElement("w:bidi")
	}
	if p.Indent > 0 {
		pr.CreateElement("w:ind").CreateAttr("w:left", strconv.Itoa(p.Indent))
	}
	if len(p.Align) > 0 {
		setVal(pr.CreateElement("w:jc"), p.Align)
	}
}

func encodeRunProps(parent *etree.Element, p *RunProps) {
	pr := parent.CreateElement("w:rPr")
	if len(p.Style) > 0 {
		setVal(pr.CreateElement("w:rStyle"), p.Style)
	}
	if len(p.Font) > 0 {
		f := pr.CreateElement("w:rFonts")
		f.CreateAttr("w:ascii", p.Font)
		f.CreateAttr("w:hAnsi", p.Font)
		f.CreateAttr("w:cs", p.Font)
	}
	if p.Bold {
		pr.CreateElement("w:b")
	}
	if p.Italic {
		pr.CreateElement("w:i")
	}
	if p.Caps {
		pr.CreateElement("w:caps")
	}
	if p.Strike {
		pr.CreateElement("w:strike")
	}
	if len(p.Color) > 0 {
		setVal(pr.CreateElement("w:color"), p.Color)
	}
	if p.Size > 0 {
		setVal(pr.CreateElement("w:sz"), strconv.Itoa(p.Size))
		setVal(pr.CreateElement("w:szCs"), strconv.Itoa(p.Size))
	}
	if len(p.Highlight) > 0 {
		setVal(pr.CreateElement("w:highlight"), p.Highlight)
	}
	if p.Underline {
		setVal(pr.CreateElement("w:u"), "single")
	}
	if len(p.Shading) > 0 {
		encodeShading(pr, p.Shading)
	}
	if len(p.VertAlign) > 0 {
		setVal(pr.CreateElement("w:vertAlign"), p.VertAlign)
	}
	if p.RTL {
		pr.CreateElement("w:rtl")
	}
}

func encodeCellProps(parent *etree.Element, p *CellProps) {
	pr := parent.CreateElement("w:tcPr")
	if len(p.Width.Type) > 0 {
		encodeWidth(pr, "w:tcW", p.Width)
	}
	if p.GridSpan > 1 {
		setVal(pr.CreateElement("w:gridSpan"), strconv.Itoa(p.GridSpan))
	}
	switch p.VMerge {
	case "restart":
		setVal(pr.CreateElement("w:vMerge"), "restart")
	case "continue":
		pr.CreateElement("w:vMerge")
	}
	if len(p.Borders) > 0 {
		borders := pr.CreateElement("w:tcBorders")
		for _, b := range p.Borders {
			el := borders.CreateElement("w:" + b.Side)
			el.CreateAttr("w:val", b.Val)
			el.CreateAttr("w:sz", strconv.Itoa(b.Size))
			el.CreateAttr("w:space", "0")
			el.CreateAttr("w:color", "auto")
		}
	}
	if len(p.Shading) > 0 {
		encodeShading(pr, p.Shading)
	}
	if len(p.TextDirection) > 0 {
		setVal(pr.CreateElement("w:textDirection"), p.TextDirection)
	}
	if len(p.VAlign) > 0 {
		setVal(pr.CreateElement("w:vAlign"), p.VAlign)
	}
}

func encodeWidth(parent *etree.Element, tag string, w Width) {
	el := parent.CreateElement(tag)
	typ := w.Type
	if len(typ) == 0 {
		typ = "auto"
	}
	el.CreateAttr("w:w", strconv.Itoa(w.Value))
	el.CreateAttr("w:type", typ)
}

func encodeShading(parent *etree.Element, fill string) {
	shd := parent.CreateElement("w:shd")
	shd.CreateAttr("w:val", "clear")
	shd.CreateAttr("w:color", "auto")
	shd.CreateAttr("w:fill", fill)
}

func setVal(el *etree.Element, val string) {
	el.CreateAttr("w:val", val)
}
