package convert

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"h2w/config"
	"h2w/markup"
	"h2w/notes"
	"h2w/style"
	"h2w/tables"
	"h2w/uri"
	"h2w/utils/debug"
	"h2w/wml"
)

// ErrEmptyInput is returned when markup produces no content at all.
var ErrEmptyInput = errors.New("nothing to convert")

// Document receives notes produced by conversion and supplies identifiers
// already taken in it.
type Document interface {
	NoteIDs(kind notes.Kind) []int
	LastBookmarkID() int
	AppendNote(n *wml.Note) error
}

// Converter turns HTML markup into document blocks. Note and bookmark
// identifiers keep growing across Parse calls, so single converter may feed
// the same document several times. Converter must not be used concurrently.
type Converter struct {
	log *zap.Logger
	cfg *config.DocumentConfig
	doc Document

	builder  *markup.Builder
	tables   *tables.Engine
	styles   *style.Resolver
	registry *notes.Registry
	kind     notes.Kind

	lastBookmark int
	dump         *debug.TreeWriter
}

// NewConverter prepares converter for doc, catalog is used to resolve style
// names and may be nil.
func NewConverter(cfg *config.DocumentConfig, doc Document, catalog style.Catalog, log *zap.Logger) *Converter {
	log = log.Named("converter")

	registry := notes.NewRegistry()
	for _, kind := range []notes.Kind{notes.Footnote, notes.Endnote} {
		registry.Initialize(kind, doc.NoteIDs(kind))
	}

	return &Converter{
		log:          log,
		cfg:          cfg,
		doc:          doc,
		builder:      markup.NewBuilder(log),
		tables:       tables.NewEngine(log),
		styles:       style.NewResolver(&cfg.Styles, catalog, log),
		registry:     registry,
		kind:         notes.KindFor(cfg.AcronymPosition),
		lastBookmark: doc.LastBookmarkID(),
	}
}

// DumpTo requests node trees and table grids of every following Parse call
// to be written to tw.
func (c *Converter) DumpTo(tw *debug.TreeWriter) {
	c.dump = tw
}

// Parse converts markup. Malformed markup never fails conversion, error is
// only returned when table layout breaks its own invariant or document
// refuses a note, no blocks are returned in this case.
func (c *Converter) Parse(html string) ([]wml.Block, error) {
	nodes := c.builder.Parse(html)
	if c.dump != nil {
		c.dump.Section("node tree")
		for _, n := range nodes {
			c.dump.Dump(0, n)
		}
	}

	e := &emitter{c: c}
	for _, n := range nodes {
		if err := e.node(n, nil, nil); err != nil {
			return nil, err
		}
	}
	e.flush()

	if len(e.bookmarks) > 0 {
		c.log.Debug("Dropping bookmarks without content", zap.Int("count", len(e.bookmarks)))
	}
	return e.blocks, nil
}

// emitter holds state of a single Parse call.
type emitter struct {
	c *Converter

	blocks []wml.Block
	para   *paragraph
	// bookmarks waiting for the next paragraph with content
	bookmarks []*wml.Bookmark
}

// node emits block level node. Chain has all ancestors, blocks has non
// inline ancestors only.
func (e *emitter) node(n *markup.Node, chain, blocks []*markup.Node) error {
	if n.Kind == markup.TextNode || n.Category() == markup.CategoryInline {
		return e.inline(e.paragraph(blocks), n, chain)
	}

	switch {
	case n.Tag == "table":
		e.flush()
		return e.table(n, chain, blocks)
	case n.Tag == "hr":
		e.flush()
		e.blocks = append(e.blocks, &wml.Paragraph{Props: &wml.ParagraphProps{BorderBottom: true}})
		return nil
	case n.Tag == "pre" && e.c.cfg.RenderPreAsTable:
		e.flush()
		return e.preTable(n, chain, blocks)
	}

	e.flush()
	return e.container(n, chain, blocks)
}

// container emits block element content, elements which cannot hold other
// blocks produce single paragraph.
func (e *emitter) container(n *markup.Node, chain, blocks []*markup.Node) error {
	e.bookmark(n)

	chain, blocks = extend(chain, n), extend(blocks, n)
	if n.Tag == "pre" {
		e.paragraph(blocks).pre = true
	}
	start := len(e.blocks)
	for _, child := range n.Children {
		if err := e.node(child, chain, blocks); err != nil {
			return err
		}
	}

	if cite := n.AttrOr("cite", ""); len(cite) > 0 {
		ref, err := e.note(cite, chain)
		if err != nil {
			return err
		}
		e.attach(ref, start, blocks)
	}
	e.flush()
	return nil
}

// attach places note reference at the end of block content: into paragraph
// being built, last paragraph block produced or a new paragraph.
func (e *emitter) attach(ref *wml.Run, start int, blocks []*markup.Node) {
	if e.para != nil && e.para.hasText() {
		e.para.add(ref)
		return
	}
	if len(e.blocks) > start {
		if p, ok := e.blocks[len(e.blocks)-1].(*wml.Paragraph); ok {
			p.Content = append(p.Content, ref)
			return
		}
	}
	e.paragraph(blocks).add(ref)
}

// paragraph returns paragraph being built starting new one when needed.
func (e *emitter) paragraph(blocks []*markup.Node) *paragraph {
	if e.para == nil {
		e.para = newParagraph(e.c.styles.Paragraph(blocks))
	}
	return e.para
}

// flush completes paragraph being built.
func (e *emitter) flush() {
	if e.para == nil {
		return
	}
	p := e.para
	e.para = nil

	if !p.finish() {
		e.bookmarks = append(e.bookmarks, p.bookmarks()...)
		return
	}
	if len(e.bookmarks) > 0 {
		p.out.Content = append(toInlines(e.bookmarks), p.out.Content...)
		e.bookmarks = nil
	}
	e.blocks = append(e.blocks, p.out)
}

// bookmark remembers element id as bookmark for the next content.
func (e *emitter) bookmark(n *markup.Node) {
	id := n.AttrOr("id", "")
	if len(id) == 0 && n.Tag == "a" {
		id = n.AttrOr("name", "")
	}
	if len(id) == 0 {
		return
	}
	e.c.lastBookmark++
	bm := &wml.Bookmark{ID: e.c.lastBookmark, Name: id}
	if e.para != nil {
		e.para.add(bm)
		return
	}
	e.bookmarks = append(e.bookmarks, bm)
}

// inline adds inline node to paragraph p.
func (e *emitter) inline(p *paragraph, n *markup.Node, chain []*markup.Node) error {
	if n.Kind == markup.TextNode {
		p.text(n.Text, e.c.styles.Run(chain))
		return nil
	}

	chain = extend(chain, n)
	switch n.Tag {
	case "br":
		p.lineBreak(e.c.styles.Run(chain))
		return nil
	case "wbr":
		return nil
	case "a":
		return e.link(p, n, chain)
	}

	if id := n.AttrOr("id", ""); len(id) > 0 {
		e.c.lastBookmark++
		p.add(&wml.Bookmark{ID: e.c.lastBookmark, Name: id})
	}

	if n.Tag == "q" {
		p.text("“", e.c.styles.Run(chain))
	}
	for _, child := range n.Children {
		if err := e.inline(p, child, chain); err != nil {
			return err
		}
	}
	if n.Tag == "q" {
		p.text("”", e.c.styles.Run(chain))
	}

	var extra string
	switch n.Tag {
	case "abbr", "acronym", "dfn":
		extra = n.AttrOr("title", "")
	case "q":
		extra = n.AttrOr("cite", "")
	}
	if len(extra) == 0 {
		return nil
	}
	ref, err := e.note(extra, chain)
	if err != nil {
		return err
	}
	p.add(ref)
	return nil
}

// link adds hyperlink, bookmark or plain runs for anchor element.
func (e *emitter) link(p *paragraph, n *markup.Node, chain []*markup.Node) error {
	if name := n.AttrOr("id", n.AttrOr("name", "")); len(name) > 0 {
		e.c.lastBookmark++
		p.add(&wml.Bookmark{ID: e.c.lastBookmark, Name: name})
	}

	href := n.AttrOr("href", "")
	var h *wml.Hyperlink
	if anchor, ok := uri.IsFragment(href); ok {
		h = &wml.Hyperlink{Anchor: anchor}
	} else if target, ok := uri.Normalize(href); ok {
		h = &wml.Hyperlink{URI: target}
	} else if len(href) > 0 {
		e.c.log.Debug("Ignoring hyperlink target", zap.String("href", href))
	}

	if h == nil {
		for _, child := range n.Children {
			if err := e.inline(p, child, chain); err != nil {
				return err
			}
		}
		return nil
	}

	// runs are collected separately and moved under hyperlink
	inner := newParagraph(nil)
	inner.pre = p.pre
	inner.linkStyle = e.c.styles.StyleID(e.c.cfg.Styles.Hyperlink)
	for _, child := range n.Children {
		if err := e.inline(inner, child, chain); err != nil {
			return err
		}
	}
	for _, it := range inner.out.Content {
		switch v := it.(type) {
		case *wml.Run:
			h.Runs = append(h.Runs, v)
		default:
			// nested links and bookmarks cannot live inside hyperlink
			p.add(v)
		}
	}
	if len(h.Runs) == 0 && len(h.URI) > 0 {
		// empty anchor still gets visible target
		h.Runs = append(h.Runs, withStyle(e.c.styles.Run(chain), inner.linkStyle, h.URI))
	}
	if len(h.Runs) > 0 {
		p.add(h)
	}
	return nil
}

// note allocates note with supplementary text and returns reference run for
// it. Text which is an absolute URI becomes hyperlink inside the note.
func (e *emitter) note(text string, chain []*markup.Node) (*wml.Run, error) {
	c := e.c
	kind := c.kind
	id := c.registry.Allocate(kind)

	textStyle, refStyle := c.cfg.Styles.FootnoteText, c.cfg.Styles.FootnoteReference
	if kind == notes.Endnote {
		textStyle, refStyle = c.cfg.Styles.EndnoteText, c.cfg.Styles.EndnoteReference
	}
	refStyle = c.styles.StyleID(refStyle)
	refProps := func() *wml.RunProps {
		if len(refStyle) == 0 {
			return &wml.RunProps{VertAlign: "superscript"}
		}
		return &wml.RunProps{Style: refStyle}
	}

	para := &wml.Paragraph{
		Content: []wml.Inline{
			&wml.Run{Props: refProps(), Content: []wml.RunContent{wml.NoteMark{Kind: kind}}},
			wml.NewRun(nil, " "),
		},
	}
	if id := c.styles.StyleID(textStyle); len(id) > 0 {
		para.Props = &wml.ParagraphProps{Style: id}
	}

	text = strings.TrimSpace(text)
	if target, ok := uri.Normalize(text); ok {
		link := &wml.Hyperlink{URI: target}
		link.Runs = append(link.Runs, withStyle(nil, c.styles.StyleID(c.cfg.Styles.Hyperlink), text))
		para.Content = append(para.Content, link)
	} else {
		para.Content = append(para.Content, wml.NewRun(nil, text))
	}

	if err := c.doc.AppendNote(&wml.Note{Kind: kind, ID: id, Blocks: []wml.Block{para}}); err != nil {
		return nil, fmt.Errorf("unable to add %s %d: %w", kind, id, err)
	}
	c.log.Debug("Note added", zap.Stringer("kind", kind), zap.Int("id", id), zap.String("text", text))

	ref := &wml.Run{Props: refProps(), Content: []wml.RunContent{wml.NoteReference{Kind: kind, ID: id}}}
	if inherited := c.styles.Run(chain); inherited != nil && inherited.RTL {
		ref.Props.RTL = true
	}
	return ref, nil
}

func extend(chain []*markup.Node, n *markup.Node) []*markup.Node {
	return append(chain[:len(chain):len(chain)], n)
}

func withStyle(props *wml.RunProps, id, text string) *wml.Run {
	if len(id) > 0 {
		if props == nil {
			props = &wml.RunProps{}
		}
		props.Style = id
	}
	return wml.NewRun(props, text)
}

func toInlines(bookmarks []*wml.Bookmark) []wml.Inline {
	out := make([]wml.Inline, 0, len(bookmarks))
	for _, b := range bookmarks {
		out = append(out, b)
	}
	return out
}
