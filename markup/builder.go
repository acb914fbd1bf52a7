package markup

import (
	"iter"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// Builder assembles nodes from tokens recovering from unclosed and
// mismatched tags. Builder keeps no state between calls.
type Builder struct {
	log *zap.Logger
}

func NewBuilder(log *zap.Logger) *Builder {
	return &Builder{log: log.Named("markup")}
}

// Parse is Build over Tokenize(markup).
func (b *Builder) Parse(markup string) []*Node {
	return b.Build(Tokenize(markup))
}

// Build returns top level nodes in source order. Loose inline content on
// top level is wrapped into implicit paragraphs, so every returned node is a
// block or a table.
func (b *Builder) Build(tokens iter.Seq[Token]) []*Node {
	s := &buildState{log: b.log, root: NewElement("#root")}
	s.stack = []frame{{node: s.root}}
	for tok := range tokens {
		s.consume(tok)
	}
	for len(s.stack) > 1 {
		f := s.stack[len(s.stack)-1]
		if f.pos >= 0 {
			s.log.Debug("Closing element left open", zap.String("tag", f.node.Tag), zap.Int("pos", f.pos))
		}
		s.popFrame()
	}
	return wrapLoose(s.root.Children)
}

type frame struct {
	node *Node
	// source offset of the opening tag, -1 for reopened elements
	pos int
	// formatting pending when table was opened, it resumes after the table
	saved []*Node
}

type buildState struct {
	log   *zap.Logger
	root  *Node
	stack []frame

	// Formatting elements closed by force, reopened around the content
	// which follows. Slice is never modified in place.
	pending []*Node

	skipTag   string
	skipDepth int
}

func (s *buildState) top() *Node {
	return s.stack[len(s.stack)-1].node
}

func (s *buildState) push(n *Node, pos int) {
	s.stack = append(s.stack, frame{node: n, pos: pos})
}

func (s *buildState) consume(tok Token) {
	if s.skipDepth > 0 {
		switch {
		case s.skipTag == "head" && tok.Kind == OpenTag && tok.Name == "body":
			s.skipDepth = 0
		case tok.Kind == OpenTag && tok.Name == s.skipTag:
			s.skipDepth++
		case tok.Kind == CloseTag && tok.Name == s.skipTag:
			s.skipDepth--
		}
		return
	}

	switch tok.Kind {
	case Text:
		s.text(tok)
	case OpenTag, SelfClosingTag:
		s.open(tok)
	case CloseTag:
		s.close(tok)
	}
}

func (s *buildState) text(tok Token) {
	parent := s.top()
	if isTableStructure(parent) {
		if !isBlank(tok.Text) {
			s.log.Debug("Dropping text misplaced in table", zap.String("text", tok.Text), zap.Int("pos", tok.Pos))
		}
		return
	}
	if isBlank(tok.Text) && !s.inside("pre") && s.atBlockStart(parent) {
		return
	}
	s.reopen()
	s.top().appendChild(NewText(tok.Text))
}

func (s *buildState) open(tok Token) {
	name := tok.Name
	if name == "html" || name == "body" {
		return
	}
	selfClosing := tok.Kind == SelfClosingTag || IsVoid(name)

	cat := CategoryOf(name)
	if cat != CategoryTable && isTableStructure(s.top()) {
		s.log.Debug("Ignoring element misplaced in table", zap.String("tag", name), zap.Int("pos", tok.Pos))
		cat = CategoryIgnorable
	}

	switch cat {
	case CategoryUnknown, CategoryIgnorable:
		if cat == CategoryUnknown {
			s.log.Debug("Dropping unknown element", zap.String("tag", name), zap.Int("pos", tok.Pos))
		}
		if !selfClosing {
			s.skipTag, s.skipDepth = name, 1
		}
	case CategoryInline:
		s.reopen()
		el := NewElement(name, tok.Attrs...)
		s.top().appendChild(el)
		if !selfClosing {
			s.push(el, tok.Pos)
		}
	case CategoryBlock:
		s.closeForBlock(name)
		el := NewElement(name, tok.Attrs...)
		s.top().appendChild(el)
		if !selfClosing {
			s.push(el, tok.Pos)
		}
	case CategoryTable:
		s.openTable(tok, selfClosing)
	}
}

// closeForBlock prepares stack for a new block: open formatting is moved to
// pending and a block which cannot hold other blocks is closed.
func (s *buildState) closeForBlock(name string) {
	var popped []*Node
	for len(s.stack) > 1 && s.top().Category() == CategoryInline {
		if n := s.popFrame(); reopenable(n) {
			popped = append(popped, n)
		}
	}
	if len(popped) > 0 {
		slices.Reverse(popped)
		s.pending = slices.Concat(s.pending, popped)
	}

	switch name {
	case "li":
		s.closeListItem([]string{"li"}, []string{"ul", "ol", "menu"})
	case "dt", "dd":
		s.closeListItem([]string{"dt", "dd"}, []string{"dl"})
	}

	if top := s.top(); top != s.root && top.Category() == CategoryBlock && !IsContainer(top.Tag) {
		s.popFrame()
	}
}

// closeListItem closes open item of the innermost list.
func (s *buildState) closeListItem(items, lists []string) {
	for i := len(s.stack) - 1; i > 0; i-- {
		tag := s.stack[i].node.Tag
		switch {
		case slices.Contains(lists, tag), isBoundary(tag):
			return
		case slices.Contains(items, tag):
			s.popTo(i - 1)
			return
		}
	}
}

func (s *buildState) openTable(tok Token, selfClosing bool) {
	name := tok.Name
	el := NewElement(name, tok.Attrs...)

	if name == "table" {
		s.closeForBlock(name)
		saved := s.pending
		s.pending = nil
		s.top().appendChild(el)
		if selfClosing {
			s.pending = saved
			return
		}
		s.stack = append(s.stack, frame{node: el, pos: tok.Pos, saved: saved})
		return
	}

	t := s.findTable()
	if t < 0 {
		s.log.Debug("Ignoring table element outside of table", zap.String("tag", name), zap.Int("pos", tok.Pos))
		return
	}

	switch name {
	case "caption", "colgroup", "thead", "tbody", "tfoot":
		s.popTo(t)
	case "col":
		if s.top().Tag != "colgroup" {
			s.popTo(t)
		}
		s.top().appendChild(el)
		return
	case "tr":
		s.popTo(s.findSection(t))
	case "td", "th":
		if r := s.findAbove(t, "tr"); r >= 0 {
			s.popTo(r)
		} else {
			s.popTo(s.findSection(t))
			row := NewElement("tr")
			row.Implicit = true
			s.top().appendChild(row)
			s.push(row, tok.Pos)
		}
	}
	s.top().appendChild(el)
	if !selfClosing {
		s.push(el, tok.Pos)
	}
	if name == "td" || name == "th" || name == "caption" {
		s.pending = nil
	}
}

func (s *buildState) close(tok Token) {
	name := tok.Name
	if name == "html" || name == "body" {
		return
	}

	idx := s.find(name)
	if idx < 0 {
		if i := slices.IndexFunc(s.pending, func(n *Node) bool { return n.Tag == name }); i >= 0 {
			s.pending = slices.Delete(slices.Clone(s.pending), i, i+1)
			return
		}
		s.log.Debug("Ignoring unmatched closing tag", zap.String("tag", name), zap.Int("pos", tok.Pos))
		return
	}

	// formatting skipped over by this close tag keeps applying to the
	// content which follows
	var skipped []*Node
	for len(s.stack)-1 > idx {
		n := s.popFrame()
		switch {
		case isBoundary(n.Tag):
			skipped = nil
		case reopenable(n):
			skipped = append(skipped, n)
		}
	}
	if n := s.popFrame(); isBoundary(n.Tag) {
		skipped = nil
	}
	if len(skipped) > 0 {
		slices.Reverse(skipped)
		s.pending = slices.Concat(s.pending, skipped)
	}
}

// popFrame removes top frame. Formatting element left without content and
// carrying no title is dropped from the tree, link with a target is kept.
func (s *buildState) popFrame() *Node {
	f := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]

	n := f.node
	if n.Category() == CategoryInline && len(n.Children) == 0 && !hasPayload(n) {
		s.top().removeChild(n)
	}
	switch n.Tag {
	case "table":
		s.pending = f.saved
	case "td", "th", "caption":
		s.pending = nil
	}
	return n
}

func hasPayload(n *Node) bool {
	if len(strings.TrimSpace(n.AttrOr("title", ""))) > 0 {
		return true
	}
	return n.Tag == "a" && len(strings.TrimSpace(n.AttrOr("href", ""))) > 0
}

// popTo pops frames until frame i is on top.
func (s *buildState) popTo(i int) {
	for len(s.stack)-1 > i {
		s.popFrame()
	}
}

func (s *buildState) reopen() {
	if len(s.pending) == 0 {
		return
	}
	pending := s.pending
	s.pending = nil
	for _, p := range pending {
		el := p.cloneShallow()
		s.top().appendChild(el)
		s.push(el, -1)
	}
}

// find returns stack index of the innermost open element with name. Close
// tags do not reach over cell and table boundaries unless they close table
// structure.
func (s *buildState) find(name string) int {
	tableTag := CategoryOf(name) == CategoryTable
	for i := len(s.stack) - 1; i > 0; i-- {
		tag := s.stack[i].node.Tag
		switch {
		case tag == name:
			return i
		case tag == "table", isBoundary(tag) && !tableTag:
			return -1
		}
	}
	return -1
}

func (s *buildState) findTable() int {
	for i := len(s.stack) - 1; i > 0; i-- {
		if s.stack[i].node.Tag == "table" {
			return i
		}
	}
	return -1
}

// findAbove returns index of the innermost tag frame above stack index t.
func (s *buildState) findAbove(t int, tags ...string) int {
	for i := len(s.stack) - 1; i > t; i-- {
		if slices.Contains(tags, s.stack[i].node.Tag) {
			return i
		}
	}
	return -1
}

func (s *buildState) findSection(t int) int {
	if i := s.findAbove(t, "thead", "tbody", "tfoot"); i >= 0 {
		return i
	}
	return t
}

func (s *buildState) inside(tag string) bool {
	for i := len(s.stack) - 1; i > 0; i-- {
		if s.stack[i].node.Tag == tag {
			return true
		}
	}
	return false
}

// atBlockStart reports whether parent is block-like and has no inline
// content yet or last child is a block.
func (s *buildState) atBlockStart(parent *Node) bool {
	if parent != s.root && parent.Category() != CategoryBlock && !isBoundary(parent.Tag) {
		return false
	}
	if len(parent.Children) == 0 {
		return true
	}
	last := parent.Children[len(parent.Children)-1]
	return last.Kind == ElementNode && last.Category() != CategoryInline
}

// wrapLoose groups consecutive inline nodes into implicit paragraphs.
func wrapLoose(nodes []*Node) []*Node {
	var (
		out   []*Node
		group *Node
	)
	for _, n := range nodes {
		if n.Category() != CategoryInline {
			group = nil
			out = append(out, n)
			continue
		}
		if group == nil {
			if n.Kind == TextNode && isBlank(n.Text) {
				continue
			}
			group = NewElement("p")
			group.Implicit = true
			out = append(out, group)
		}
		group.appendChild(n)
	}
	return out
}

// reopenable tells formatting elements which survive forced closing.
// Elements producing notes are not repeated.
func reopenable(n *Node) bool {
	if n.Category() != CategoryInline || IsVoid(n.Tag) {
		return false
	}
	switch n.Tag {
	case "abbr", "acronym", "dfn", "q":
		return false
	}
	return true
}

// isBoundary tells elements whose content is isolated from surroundings.
func isBoundary(tag string) bool {
	switch tag {
	case "table", "td", "th", "caption":
		return true
	}
	return false
}

// isTableStructure tells table elements which may not hold content directly.
func isTableStructure(n *Node) bool {
	switch n.Tag {
	case "table", "thead", "tbody", "tfoot", "tr", "colgroup":
		return true
	}
	return false
}

func isBlank(s string) bool {
	return len(strings.Trim(s, " \t\r\n\f")) == 0
}
