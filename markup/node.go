package markup

import "strings"

type NodeKind int

const (
	ElementNode NodeKind = iota
	TextNode
)

// Node is either element with ordered attributes and children or text.
// Children are owned by their parent and keep source order.
type Node struct {
	Kind     NodeKind
	Tag      string
	Attrs    []Attr
	Text     string
	Children []*Node

	// Implicit marks elements builder synthesized: paragraphs wrapping loose
	// top level inline content, rows wrapping cells placed directly into
	// table sections.
	Implicit bool
}

func NewElement(tag string, attrs ...Attr) *Node {
	return &Node{Kind: ElementNode, Tag: tag, Attrs: attrs}
}

func NewText(text string) *Node {
	return &Node{Kind: TextNode, Text: text}
}

func (n *Node) IsElement(tag string) bool {
	return n.Kind == ElementNode && n.Tag == tag
}

// Category returns tag category of element, text nodes are inline.
func (n *Node) Category() Category {
	if n.Kind == TextNode {
		return CategoryInline
	}
	return CategoryOf(n.Tag)
}

// Attr returns value of the named attribute.
func (n *Node) Attr(key string) (string, bool) {
	return lookupAttr(n.Attrs, key)
}

// AttrOr returns trimmed value of the named attribute or def when attribute
// is absent or blank.
func (n *Node) AttrOr(key, def string) string {
	if v, ok := n.Attr(key); ok {
		if v = strings.TrimSpace(v); len(v) > 0 {
			return v
		}
	}
	return def
}

// TextContent returns concatenated text of the node and all its descendants.
func (n *Node) TextContent() string {
	if n.Kind == TextNode {
		return n.Text
	}
	var b strings.Builder
	n.collectText(&b)
	return b.String()
}

func (n *Node) collectText(b *strings.Builder) {
	for _, c := range n.Children {
		if c.Kind == TextNode {
			b.WriteString(c.Text)
			continue
		}
		c.collectText(b)
	}
}

// Elements returns child elements with any of the requested tags.
func (n *Node) Elements(tags ...string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind != ElementNode {
			continue
		}
		for _, t := range tags {
			if c.Tag == t {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func (n *Node) appendChild(c *Node) {
	// adjacent text is merged so runs are not split needlessly
	if c.Kind == TextNode && len(n.Children) > 0 {
		if last := n.Children[len(n.Children)-1]; last.Kind == TextNode {
			last.Text += c.Text
			return
		}
	}
	n.Children = append(n.Children, c)
}

func (n *Node) removeChild(c *Node) {
	for i := len(n.Children) - 1; i >= 0; i-- {
		if n.Children[i] == c {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return
		}
	}
}

// cloneShallow copies element without children, used to reopen formatting.
func (n *Node) cloneShallow() *Node {
	return &Node{Kind: n.Kind, Tag: n.Tag, Attrs: append([]Attr(nil), n.Attrs...)}
}
