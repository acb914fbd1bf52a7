package style

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"h2w/config"
	"h2w/css"
	"h2w/markup"
	"h2w/wml"
)

const monospaceFont = "Courier New"

// default font size in half points, relative sizes are computed from it
const baseSize = 24

// legacy <font size> 1..7 in half points
var fontSizes = [...]int{16, 20, 24, 27, 36, 48, 72}

var sizeKeywords = map[string]int{
	"xx-small": 14, "x-small": 16, "small": 20, "medium": 24,
	"large": 27, "x-large": 36, "xx-large": 48, "xxx-large": 72,
}

// Resolver maps nodes with their ancestors to document formatting. Chains
// passed to resolver methods start with the outermost ancestor and end with
// the node itself. Resolver caches parsed declarations and belongs to a
// single conversion.
type Resolver struct {
	log     *zap.Logger
	css     *css.Parser
	names   *config.StylesConfig
	catalog Catalog
	decls   map[*markup.Node]css.Declarations
}

// NewResolver creates resolver. When catalog is nil configured style names
// are used without checking.
func NewResolver(names *config.StylesConfig, catalog Catalog, log *zap.Logger) *Resolver {
	log = log.Named("style")
	return &Resolver{
		log:     log,
		css:     css.NewParser(log),
		names:   names,
		catalog: catalog,
		decls:   make(map[*markup.Node]css.Declarations),
	}
}

// StyleID returns id of the document style by its configured name or empty
// string when document does not define it.
func (r *Resolver) StyleID(name string) string {
	if len(name) == 0 {
		return ""
	}
	if r.catalog == nil {
		return name
	}
	if id, ok := r.catalog.Lookup(name); ok {
		return id
	}
	r.log.Debug("Style is not defined by document", zap.String("style", name))
	return ""
}

// NamedStyle returns first class of the element known to the document.
func (r *Resolver) NamedStyle(n *markup.Node) (string, bool) {
	if r.catalog == nil {
		return "", false
	}
	for class := range strings.FieldsSeq(n.AttrOr("class", "")) {
		if id, ok := r.catalog.Lookup(class); ok {
			return id, true
		}
	}
	return "", false
}

// Declarations returns parsed style attribute of the element.
func (r *Resolver) Declarations(n *markup.Node) css.Declarations {
	if n.Kind != markup.ElementNode {
		return nil
	}
	if d, ok := r.decls[n]; ok {
		return d
	}
	d := r.css.ParseInline(n.AttrOr("style", ""))
	r.decls[n] = d
	return d
}

func (r *Resolver) property(n *markup.Node, name string) (css.Value, bool) {
	return r.Declarations(n).Get(name)
}

// Run resolves properties of text inside chain, nil when nothing applies.
func (r *Resolver) Run(chain []*markup.Node) *wml.RunProps {
	var p wml.RunProps
	for _, n := range chain {
		if n.Kind == markup.ElementNode {
			r.applyRun(&p, n)
		}
	}
	if p.IsEmpty() {
		return nil
	}
	return &p
}

func (r *Resolver) applyRun(p *wml.RunProps, n *markup.Node) {
	switch n.Tag {
	case "b", "strong", "th":
		p.Bold = true
	case "i", "em", "cite", "dfn", "var":
		p.Italic = true
	case "u", "ins":
		p.Underline = true
	case "s", "strike", "del":
		p.Strike = true
	case "sup":
		p.VertAlign = "superscript"
	case "sub":
		p.VertAlign = "subscript"
	case "code", "kbd", "samp", "tt", "pre", "listing", "xmp":
		p.Font = monospaceFont
	case "small":
		p.Size = max(currentSize(p)-4, 2)
	case "big":
		p.Size = currentSize(p) + 4
	case "mark":
		p.Highlight = "yellow"
	case "font":
		r.applyFont(p, n)
	}
	if dir, ok := n.Attr("dir"); ok {
		p.RTL = strings.EqualFold(strings.TrimSpace(dir), "rtl")
	}

	decls := r.Declarations(n)
	if len(decls) == 0 {
		return
	}
	if v, ok := decls.Get("font-weight"); ok {
		switch v.Keyword {
		case "bold", "bolder":
			p.Bold = true
		case "normal", "lighter":
			p.Bold = false
		case "":
			p.Bold = v.Value >= 600
		}
	}
	if v, ok := decls.Get("font-style"); ok {
		p.Italic = v.Keyword == "italic" || v.Keyword == "oblique"
	}
	if v, ok := decls.Get("text-decoration"); ok {
		r.applyDecoration(p, v.Keyword)
	}
	if v, ok := decls.Get("text-decoration-line"); ok {
		r.applyDecoration(p, v.Keyword)
	}
	if v, ok := decls.Get("color"); ok {
		if c, ok := css.ParseColor(v.Raw); ok {
			p.Color = c
		}
	}
	if n.Category() == markup.CategoryInline {
		if c, ok := r.background(n); ok {
			p.Shading = c
		}
		if v, ok := decls.Get("vertical-align"); ok {
			switch v.Keyword {
			case "super":
				p.VertAlign = "superscript"
			case "sub":
				p.VertAlign = "subscript"
			case "baseline":
				p.VertAlign = ""
			}
		}
	}
	if v, ok := decls.Get("font-size"); ok {
		r.applyFontSize(p, v)
	}
	if v, ok := decls.Get("font-family"); ok {
		if f := firstFamily(v.Raw); len(f) > 0 {
			p.Font = f
		}
	}
	if v, ok := decls.Get("text-transform"); ok {
		p.Caps = v.Keyword == "uppercase"
	}
	if v, ok := decls.Get("direction"); ok {
		p.RTL = v.Keyword == "rtl"
	}
}

func (r *Resolver) applyDecoration(p *wml.RunProps, kw string) {
	if kw == "none" {
		p.Underline, p.Strike = false, false
		return
	}
	if strings.Contains(kw, "underline") {
		p.Underline = true
	}
	if strings.Contains(kw, "line-through") {
		p.Strike = true
	}
}

func (r *Resolver) applyFont(p *wml.RunProps, n *markup.Node) {
	if face := n.AttrOr("face", ""); len(face) > 0 {
		p.Font = firstFamily(face)
	}
	if c, ok := css.ParseColor(n.AttrOr("color", "")); ok {
		p.Color = c
	}
	size := n.AttrOr("size", "")
	if len(size) == 0 {
		return
	}
	v, err := strconv.Atoi(size)
	if err != nil {
		r.log.Debug("Ignoring font size", zap.String("size", size))
		return
	}
	if size[0] == '+' || size[0] == '-' {
		v += 3
	}
	p.Size = fontSizes[min(max(v, 1), len(fontSizes))-1]
}

func (r *Resolver) applyFontSize(p *wml.RunProps, v css.Value) {
	if hp, ok := sizeKeywords[v.Keyword]; ok {
		p.Size = hp
		return
	}
	switch v.Keyword {
	case "smaller":
		p.Size = max(currentSize(p)-4, 2)
		return
	case "larger":
		p.Size = currentSize(p) + 4
		return
	}
	l, ok := v.Length()
	if !ok {
		r.log.Debug("Ignoring font size", zap.String("value", v.Raw))
		return
	}
	if l.IsPercent() {
		p.Size = max(int(float64(currentSize(p))*l.Value/100+0.5), 2)
		return
	}
	if l.Unit == "em" || l.Unit == "rem" {
		p.Size = max(int(float64(currentSize(p))*l.Value+0.5), 2)
		return
	}
	if hp, ok := l.HalfPoints(); ok && hp > 0 {
		p.Size = hp
	}
}

// Paragraph resolves properties of block paragraph, chain ends with block.
func (r *Resolver) Paragraph(chain []*markup.Node) *wml.ParagraphProps {
	if len(chain) == 0 {
		return nil
	}
	block := chain[len(chain)-1]

	var p wml.ParagraphProps
	if id, ok := r.NamedStyle(block); ok {
		p.Style = id
	} else {
		p.Style = r.StyleID(r.defaultParagraphStyle(block))
	}

	for _, n := range chain {
		if n.Kind != markup.ElementNode || n.Category() == markup.CategoryInline {
			continue
		}
		if a, ok := r.alignment(n); ok {
			p.Align = a
		}
		if dir, ok := n.Attr("dir"); ok {
			p.Bidi = strings.EqualFold(strings.TrimSpace(dir), "rtl")
		}
		if v, ok := r.property(n, "direction"); ok {
			p.Bidi = v.Keyword == "rtl"
		}
	}

	if block.Category() == markup.CategoryBlock {
		if c, ok := r.background(block); ok {
			p.Shading = c
		}
		if v, ok := r.property(block, "margin-left"); ok {
			if l, ok := v.Length(); ok {
				p.Indent, _ = l.Twips()
			}
		}
	}

	if p.IsEmpty() {
		return nil
	}
	return &p
}

func (r *Resolver) defaultParagraphStyle(n *markup.Node) string {
	if lvl := markup.HeadingLevel(n.Tag); lvl > 0 && len(r.names.Heading) > 0 {
		return r.names.Heading + strconv.Itoa(lvl)
	}
	switch n.Tag {
	case "blockquote":
		return r.names.Quote
	case "li", "dd":
		return r.names.ListItem
	case "caption", "figcaption":
		return r.names.Caption
	}
	return ""
}

func (r *Resolver) alignment(n *markup.Node) (string, bool) {
	raw := ""
	if v, ok := r.property(n, "text-align"); ok {
		raw = v.Keyword
	} else if a, ok := n.Attr("align"); ok && n.Tag != "table" {
		raw = strings.ToLower(strings.TrimSpace(a))
	} else if n.Tag == "center" || n.Tag == "th" {
		raw = "center"
	}
	switch raw {
	case "left", "start":
		return "left", true
	case "right", "end":
		return "right", true
	case "center", "middle":
		return "center", true
	case "justify":
		return "both", true
	}
	return "", false
}

// Cell resolves properties of table cell, row may be nil.
func (r *Resolver) Cell(td, tr *markup.Node) wml.CellProps {
	var p wml.CellProps
	if c, ok := r.background(td); ok {
		p.Shading = c
	} else if tr != nil {
		if c, ok := r.background(tr); ok {
			p.Shading = c
		}
	}

	if v, ok := r.property(td, "writing-mode"); ok {
		switch v.Keyword {
		case "tb-lr", "vertical-lr":
			p.TextDirection, p.VAlign = "btLr", "center"
		case "tb-rl", "vertical-rl":
			p.TextDirection, p.VAlign = "tbRl", "center"
		}
	}

	valign := td.AttrOr("valign", "")
	if v, ok := r.property(td, "vertical-align"); ok {
		valign = v.Keyword
	} else if len(valign) == 0 && tr != nil {
		valign = tr.AttrOr("valign", "")
	}
	switch strings.ToLower(valign) {
	case "top":
		p.VAlign = "top"
	case "middle", "center":
		p.VAlign = "center"
	case "bottom":
		p.VAlign = "bottom"
	}

	p.Width = r.width(td)
	return p
}

// Table resolves table level properties.
func (r *Resolver) Table(table *markup.Node) wml.TableProps {
	var p wml.TableProps
	if id, ok := r.NamedStyle(table); ok {
		p.Style = id
	}
	p.Width = r.width(table)
	if len(p.Width.Type) == 0 {
		p.Width.Type = "auto"
	}
	switch strings.ToLower(table.AttrOr("align", "")) {
	case "center":
		p.Align = "center"
	case "right":
		p.Align = "right"
	}
	return p
}

func (r *Resolver) width(n *markup.Node) wml.Width {
	l, ok := css.ParseAttributeLength(n.AttrOr("width", ""))
	if v, found := r.property(n, "width"); found {
		l, ok = v.Length()
	}
	if !ok {
		return wml.Width{}
	}
	if f, ok := l.Fiftieths(); ok {
		return wml.Width{Type: "pct", Value: f}
	}
	if tw, ok := l.Twips(); ok {
		return wml.Width{Type: "dxa", Value: tw}
	}
	return wml.Width{}
}

// background returns fill color from background-color, background or
// bgcolor attribute.
func (r *Resolver) background(n *markup.Node) (string, bool) {
	for _, prop := range []string{"background-color", "background"} {
		if v, ok := r.property(n, prop); ok {
			return css.ParseColor(v.Raw)
		}
	}
	return css.ParseColor(n.AttrOr("bgcolor", ""))
}

func currentSize(p *wml.RunProps) int {
	if p.Size > 0 {
		return p.Size
	}
	return baseSize
}

// firstFamily returns first font of font-family list without quotes.
func firstFamily(list string) string {
	first, _, _ := strings.Cut(list, ",")
	return strings.Trim(strings.TrimSpace(first), `"'`)
}
