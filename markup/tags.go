package markup

import (
	"fmt"

	"golang.org/x/net/html/atom"
)

// Category is a closed set of tag kinds the tree builder and the converter
// dispatch on.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryBlock
	CategoryInline
	CategoryTable
	CategoryIgnorable
)

func (c Category) String() string {
	switch c {
	case CategoryUnknown:
		return "unknown"
	case CategoryBlock:
		return "block"
	case CategoryInline:
		return "inline"
	case CategoryTable:
		return "table"
	case CategoryIgnorable:
		return "ignorable"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

var categories = map[atom.Atom]Category{
	atom.Html: CategoryBlock, atom.Body: CategoryBlock,
	atom.P: CategoryBlock, atom.Div: CategoryBlock, atom.Pre: CategoryBlock, atom.Blockquote: CategoryBlock,
	atom.H1: CategoryBlock, atom.H2: CategoryBlock, atom.H3: CategoryBlock,
	atom.H4: CategoryBlock, atom.H5: CategoryBlock, atom.H6: CategoryBlock,
	atom.Ul: CategoryBlock, atom.Ol: CategoryBlock, atom.Li: CategoryBlock, atom.Menu: CategoryBlock,
	atom.Dl: CategoryBlock, atom.Dt: CategoryBlock, atom.Dd: CategoryBlock,
	atom.Address: CategoryBlock, atom.Article: CategoryBlock, atom.Aside: CategoryBlock,
	atom.Section: CategoryBlock, atom.Header: CategoryBlock, atom.Footer: CategoryBlock,
	atom.Nav: CategoryBlock, atom.Main: CategoryBlock, atom.Hgroup: CategoryBlock,
	atom.Figure: CategoryBlock, atom.Figcaption: CategoryBlock, atom.Hr: CategoryBlock,
	atom.Center: CategoryBlock, atom.Details: CategoryBlock, atom.Summary: CategoryBlock,
	atom.Form: CategoryBlock, atom.Fieldset: CategoryBlock, atom.Legend: CategoryBlock,
	atom.Listing: CategoryBlock, atom.Xmp: CategoryBlock, atom.Dialog: CategoryBlock,

	atom.A: CategoryInline, atom.Abbr: CategoryInline, atom.Acronym: CategoryInline, atom.Dfn: CategoryInline,
	atom.B: CategoryInline, atom.Strong: CategoryInline, atom.I: CategoryInline, atom.Em: CategoryInline,
	atom.U: CategoryInline, atom.Ins: CategoryInline, atom.S: CategoryInline, atom.Strike: CategoryInline,
	atom.Del: CategoryInline, atom.Sub: CategoryInline, atom.Sup: CategoryInline, atom.Span: CategoryInline,
	atom.Font: CategoryInline, atom.Small: CategoryInline, atom.Big: CategoryInline, atom.Code: CategoryInline,
	atom.Kbd: CategoryInline, atom.Samp: CategoryInline, atom.Var: CategoryInline, atom.Tt: CategoryInline,
	atom.Cite: CategoryInline, atom.Q: CategoryInline, atom.Mark: CategoryInline, atom.Label: CategoryInline,
	atom.Bdo: CategoryInline, atom.Bdi: CategoryInline, atom.Time: CategoryInline, atom.Nobr: CategoryInline,
	atom.Br: CategoryInline, atom.Wbr: CategoryInline, atom.Data: CategoryInline, atom.Ruby: CategoryInline,
	atom.Rb: CategoryInline, atom.Rt: CategoryInline, atom.Rtc: CategoryInline,

	atom.Table: CategoryTable, atom.Caption: CategoryTable, atom.Colgroup: CategoryTable, atom.Col: CategoryTable,
	atom.Thead: CategoryTable, atom.Tbody: CategoryTable, atom.Tfoot: CategoryTable,
	atom.Tr: CategoryTable, atom.Td: CategoryTable, atom.Th: CategoryTable,

	atom.Script: CategoryIgnorable, atom.Style: CategoryIgnorable, atom.Head: CategoryIgnorable,
	atom.Title: CategoryIgnorable, atom.Meta: CategoryIgnorable, atom.Link: CategoryIgnorable,
	atom.Base: CategoryIgnorable, atom.Noscript: CategoryIgnorable, atom.Template: CategoryIgnorable,
	atom.Svg: CategoryIgnorable, atom.Math: CategoryIgnorable, atom.Iframe: CategoryIgnorable,
	atom.Object: CategoryIgnorable, atom.Embed: CategoryIgnorable, atom.Param: CategoryIgnorable,
	atom.Applet: CategoryIgnorable, atom.Frame: CategoryIgnorable, atom.Frameset: CategoryIgnorable,
	atom.Noframes: CategoryIgnorable, atom.Noembed: CategoryIgnorable,
	atom.Button: CategoryIgnorable, atom.Input: CategoryIgnorable, atom.Select: CategoryIgnorable,
	atom.Textarea: CategoryIgnorable, atom.Option: CategoryIgnorable, atom.Optgroup: CategoryIgnorable,
	atom.Datalist: CategoryIgnorable, atom.Output: CategoryIgnorable, atom.Progress: CategoryIgnorable,
	atom.Meter: CategoryIgnorable, atom.Keygen: CategoryIgnorable,
	atom.Img: CategoryIgnorable, atom.Image: CategoryIgnorable, atom.Picture: CategoryIgnorable,
	atom.Map: CategoryIgnorable, atom.Area: CategoryIgnorable, atom.Audio: CategoryIgnorable,
	atom.Video: CategoryIgnorable, atom.Source: CategoryIgnorable, atom.Track: CategoryIgnorable,
	atom.Canvas: CategoryIgnorable, atom.Rp: CategoryIgnorable,
}

// CategoryOf maps lower case tag name to its category.
func CategoryOf(tag string) Category {
	return categories[atom.Lookup([]byte(tag))]
}

// void elements never have content or closing tag.
var void = map[string]bool{
	"br": true, "wbr": true, "hr": true, "col": true, "img": true, "input": true,
	"meta": true, "link": true, "base": true, "area": true, "embed": true,
	"param": true, "source": true, "track": true, "keygen": true,
}

// IsVoid reports whether element never has content.
func IsVoid(tag string) bool {
	return void[tag]
}

// containers are block elements allowed to hold other blocks. Remaining
// block elements hold inline content only and are closed when another block
// opens inside them.
var containers = map[string]bool{
	"div": true, "blockquote": true, "ul": true, "ol": true, "menu": true, "li": true,
	"dl": true, "dd": true, "address": true, "article": true, "aside": true,
	"section": true, "header": true, "footer": true, "nav": true, "main": true,
	"hgroup": true, "figure": true, "center": true, "details": true, "form": true,
	"fieldset": true, "dialog": true,
}

// IsContainer reports whether block element may contain other blocks.
func IsContainer(tag string) bool {
	return containers[tag]
}

// HeadingLevel returns heading level 1-6 for h1..h6, 0 otherwise.
func HeadingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && '1' <= tag[1] && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}
