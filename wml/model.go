// Package wml is the output document model: paragraphs, runs, tables and
// notes, and their WordprocessingML encoding.
package wml

import (
	"strings"

	"h2w/notes"
)

// Block is a body level element: *Paragraph or *Table.
type Block interface {
	Text() string
	block()
}

// Inline is a paragraph level element: *Run, *Hyperlink or *Bookmark.
type Inline interface {
	Text() string
	inline()
}

// RunContent is what a run carries.
type RunContent interface {
	text() string
	runContent()
}

type Paragraph struct {
	Props   *ParagraphProps
	Content []Inline
}

type ParagraphProps struct {
	Style        string
	Align        string
	Shading      string
	BorderBottom bool
	Bidi         bool
	// left indentation in twips
	Indent int
}

type Run struct {
	Props   *RunProps
	Content []RunContent
}

type RunProps struct {
	Style     string
	Font      string
	Bold      bool
	Italic    bool
	Caps      bool
	Strike    bool
	Color     string
	Size      int // half points
	Highlight string
	Underline bool
	Shading   string
	VertAlign string // superscript, subscript
	RTL       bool
}

type (
	Text struct {
		Value string
	}
	Break         struct{}
	NoteReference struct {
		Kind notes.Kind
		ID   int
	}
	// NoteMark is the number printed in front of note text.
	NoteMark struct {
		Kind notes.Kind
	}
	FieldChar struct {
		Type string // begin, separate, end
	}
	FieldCode struct {
		Code string
	}
)

// Hyperlink points either to external URI or to bookmark in the document.
type Hyperlink struct {
	URI    string
	Anchor string
	Runs   []*Run
}

// Bookmark marks position other content can link to.
type Bookmark struct {
	ID   int
	Name string
}

type Table struct {
	Props TableProps
	// Grid has column widths in twips, 0 for auto.
	Grid []int
	Rows []*TableRow
}

type TableProps struct {
	Style string
	Width Width
	Align string
}

// Width is a measure in twips (dxa), fiftieths of percent (pct) or auto.
type Width struct {
	Type  string
	Value int
}

type TableRow struct {
	Header bool
	Cells  []*TableCell
}

type TableCell struct {
	Props  CellProps
	Blocks []Block
}

type CellProps struct {
	Width         Width
	GridSpan      int
	VMerge        string // restart, continue
	Borders       []Border
	Shading       string
	TextDirection string
	VAlign        string
}

// Border of a table cell, Side is top, left, bottom or right.
type Border struct {
	Side string
	Val  string
	Size int // eights of a point
}

// Note is a footnote or endnote body.
type Note struct {
	Kind   notes.Kind
	ID     int
	Blocks []Block
}

func (*Paragraph) block() {}
func (*Table) block()     {}

func (*Run) inline()       {}
func (*Hyperlink) inline() {}
func (*Bookmark) inline()  {}

func (Text) runContent()          {}
func (Break) runContent()         {}
func (NoteReference) runContent() {}
func (NoteMark) runContent()      {}
func (FieldChar) runContent()     {}
func (FieldCode) runContent()     {}

func (t Text) text() string        { return t.Value }
func (Break) text() string         { return "\n" }
func (NoteReference) text() string { return "" }
func (NoteMark) text() string      { return "" }
func (FieldChar) text() string     { return "" }
func (FieldCode) text() string     { return "" }

// NewRun creates run holding text, props may be nil.
func NewRun(props *RunProps, text string) *Run {
	return &Run{Props: props, Content: []RunContent{Text{Value: text}}}
}

// Text returns visible text of the run, breaks are newlines.
func (r *Run) Text() string {
	var b strings.Builder
	for _, c := range r.Content {
		b.WriteString(c.text())
	}
	return b.String()
}

// IsEmpty reports whether run has nothing to show.
func (r *Run) IsEmpty() bool {
	return len(r.Content) == 0
}

func (h *Hyperlink) Text() string {
	var b strings.Builder
	for _, r := range h.Runs {
		b.WriteString(r.Text())
	}
	return b.String()
}

func (*Bookmark) Text() string { return "" }

func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, c := range p.Content {
		b.WriteString(c.Text())
	}
	return b.String()
}

// Runs returns runs of the paragraph including the ones inside hyperlinks.
func (p *Paragraph) Runs() []*Run {
	var runs []*Run
	for _, c := range p.Content {
		switch v := c.(type) {
		case *Run:
			runs = append(runs, v)
		case *Hyperlink:
			runs = append(runs, v.Runs...)
		}
	}
	return runs
}

func (t *Table) Text() string {
	var b strings.Builder
	for _, r := range t.Rows {
		b.WriteString(r.Text())
	}
	return b.String()
}

func (r *TableRow) Text() string {
	var b strings.Builder
	for _, c := range r.Cells {
		b.WriteString(c.Text())
	}
	return b.String()
}

func (c *TableCell) Text() string {
	var b strings.Builder
	for _, blk := range c.Blocks {
		b.WriteString(blk.Text())
	}
	return b.String()
}

func (n *Note) Text() string {
	var b strings.Builder
	for _, blk := range n.Blocks {
		b.WriteString(blk.Text())
	}
	return b.String()
}

// IsEmpty reports whether run properties carry nothing.
func (p *RunProps) IsEmpty() bool {
	return p == nil || *p == RunProps{}
}

func (p *ParagraphProps) IsEmpty() bool {
	return p == nil || *p == ParagraphProps{}
}
