package convert

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"h2w/common"
	"h2w/config"
	"h2w/docx"
	"h2w/notes"
	"h2w/style"
	"h2w/utils/debug"
	"h2w/wml"
)

func defaultDocumentConfig(t *testing.T) *config.DocumentConfig {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	return &cfg.Document
}

func newTestConverter(t *testing.T, mod func(cfg *config.DocumentConfig)) (*Converter, *docx.Package) {
	t.Helper()
	log := zaptest.NewLogger(t)
	pkg, err := docx.New(log)
	if err != nil {
		t.Fatalf("docx.New() error = %v", err)
	}
	cfg := defaultDocumentConfig(t)
	if mod != nil {
		mod(cfg)
	}
	return NewConverter(cfg, pkg, pkg.Styles(), log), pkg
}

func parse(t *testing.T, c *Converter, html string) []wml.Block {
	t.Helper()
	blocks, err := c.Parse(html)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return blocks
}

func asParagraph(t *testing.T, b wml.Block) *wml.Paragraph {
	t.Helper()
	p, ok := b.(*wml.Paragraph)
	if !ok {
		t.Fatalf("block is %T, want paragraph", b)
	}
	return p
}

func asTable(t *testing.T, b wml.Block) *wml.Table {
	t.Helper()
	tbl, ok := b.(*wml.Table)
	if !ok {
		t.Fatalf("block is %T, want table", b)
	}
	return tbl
}

func singleTable(t *testing.T, blocks []wml.Block) *wml.Table {
	t.Helper()
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	return asTable(t, blocks[0])
}

// directRuns returns runs which are immediate paragraph children.
func directRuns(p *wml.Paragraph) []*wml.Run {
	var runs []*wml.Run
	for _, c := range p.Content {
		if r, ok := c.(*wml.Run); ok {
			runs = append(runs, r)
		}
	}
	return runs
}

func noteReference(t *testing.T, p *wml.Paragraph) wml.NoteReference {
	t.Helper()
	runs := directRuns(p)
	if len(runs) == 0 {
		t.Fatal("paragraph has no runs")
	}
	last := runs[len(runs)-1]
	for _, c := range last.Content {
		if ref, ok := c.(wml.NoteReference); ok {
			return ref
		}
	}
	t.Fatalf("last run %q carries no note reference", last.Text())
	return wml.NoteReference{}
}

func findNote(pkg *docx.Package, kind notes.Kind, id int) *wml.Note {
	for _, n := range pkg.Notes(kind) {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func cellCounts(tbl *wml.Table) []int {
	var out []int
	for _, r := range tbl.Rows {
		out = append(out, len(r.Cells))
	}
	return out
}

func TestParse_Ignore(t *testing.T) {
	tests := []string{
		"<!--<p>some text</p>-->",
		"<script>document.getElementById('body');</script>",
		"<style>{font-size:2em}</script>",
		"<xml><element><childElement attr='value' /></element></xml>",
		"<button>Save</button>",
		"<input type='search' placeholder='Search' />",
		"<abbr></abbr>",
		"<table><tr></tr></table>",
		"<table></table>",
		"   ",
	}
	for _, html := range tests {
		t.Run(html, func(t *testing.T) {
			c, _ := newTestConverter(t, nil)
			if blocks := parse(t, c, html); len(blocks) != 0 {
				t.Errorf("got %d blocks, want none", len(blocks))
			}
		})
	}
}

func TestParse_UnclosedTag(t *testing.T) {
	c, _ := newTestConverter(t, nil)

	blocks := parse(t, c, "<p>some text in <i>italics <b>,bold and italics</p>")
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	runs := directRuns(asParagraph(t, blocks[0]))
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	if runs[0].Props != nil {
		t.Errorf("first run props = %+v, want none", runs[0].Props)
	}
	if p := runs[1].Props; p == nil || !p.Italic || p.Bold {
		t.Errorf("second run props = %+v, want italic only", p)
	}
	if p := runs[2].Props; p == nil || !p.Italic || !p.Bold {
		t.Errorf("third run props = %+v, want italic and bold", p)
	}

	blocks = parse(t, c, "<p>First paragraph in semi-<i>italics <p>Second paragraph still italic <b>but also in bold</b></p>")
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	first, second := directRuns(asParagraph(t, blocks[0])), directRuns(asParagraph(t, blocks[1]))
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("got %d and %d runs, want 2 and 2", len(first), len(second))
	}
	if first[0].Props != nil || first[1].Props == nil || !first[1].Props.Italic {
		t.Errorf("first paragraph runs props = %+v, %+v", first[0].Props, first[1].Props)
	}
	if p := second[0].Props; p == nil || !p.Italic || p.Bold {
		t.Errorf("reopened italic props = %+v", p)
	}
	if p := second[1].Props; p == nil || !p.Italic || !p.Bold {
		t.Errorf("reopened italic with bold props = %+v", p)
	}

	blocks = parse(t, c, "<p>First paragraph in <i>italics </i><p>Second paragraph not in italic</p>")
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if n := len(directRuns(asParagraph(t, blocks[0]))); n != 2 {
		t.Errorf("first paragraph has %d runs, want 2", n)
	}
	second = directRuns(asParagraph(t, blocks[1]))
	if len(second) != 1 {
		t.Fatalf("second paragraph has %d runs, want 1", len(second))
	}
	if second[0].Props != nil {
		t.Errorf("second paragraph props = %+v, want none", second[0].Props)
	}
}

func TestParse_NewlineRuns(t *testing.T) {
	tests := []struct {
		html string
		want int
	}{
		{"<p>Some\ntext</p>", 1},
		{"<p>Some <b>bold\n</b>text</p>", 3},
		{"\t<p>Some <b>bold\n</b>text</p>", 3},
		{"  <p>Some text</p> ", 1},
	}
	for _, tt := range tests {
		t.Run(tt.html, func(t *testing.T) {
			c, _ := newTestConverter(t, nil)
			blocks := parse(t, c, tt.html)
			if got := len(directRuns(asParagraph(t, blocks[0]))); got != tt.want {
				t.Errorf("got %d runs, want %d", got, tt.want)
			}
		})
	}
}

func TestParse_NotTag(t *testing.T) {
	tests := map[string]string{
		" < b >bold</b>": "< b >bold",
		" <3":            "<3",
	}
	for html, want := range tests {
		c, _ := newTestConverter(t, nil)
		blocks := parse(t, c, html)
		if len(blocks) != 1 {
			t.Fatalf("%q: got %d blocks, want 1", html, len(blocks))
		}
		runs := directRuns(asParagraph(t, blocks[0]))
		if len(runs) != 1 || runs[0].Text() != want {
			t.Errorf("%q: runs = %d, text %q, want %q", html, len(runs), blocks[0].Text(), want)
		}
	}
}

func TestParse_SpaceRuns(t *testing.T) {
	c, _ := newTestConverter(t, nil)
	blocks := parse(t, c, " <span>This is a <b>bold\n</b>text</span>")
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	p := asParagraph(t, blocks[0])
	if len(p.Content) != 3 || len(directRuns(p)) != 3 {
		t.Errorf("got %d children, want 3 runs", len(p.Content))
	}
	if got := p.Text(); got != "This is a bold text" {
		t.Errorf("text = %q", got)
	}
}

func TestParse_WhitespaceTrimming(t *testing.T) {
	c, _ := newTestConverter(t, nil)
	blocks := parse(t, c, "<p> <b> leading</b> middle <i> trailing </i> </p>")
	p := asParagraph(t, blocks[0])
	if got := p.Text(); got != "leading middle trailing" {
		t.Errorf("text = %q", got)
	}
}

func TestParse_ParagraphCustomClass(t *testing.T) {
	c, pkg := newTestConverter(t, nil)
	pkg.Styles().Add(style.Definition{ID: "CustomStyle1", Name: "Custom Style 1", Type: "paragraph"})

	blocks := parse(t, c, "<div class='CustomStyle1'>Lorem</div><span>Ipsum</span>")
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	p := asParagraph(t, blocks[0])
	if p.Props == nil || p.Props.Style != "CustomStyle1" {
		t.Errorf("paragraph props = %+v, want CustomStyle1", p.Props)
	}
	if p := asParagraph(t, blocks[1]); p.Props != nil {
		t.Errorf("implicit paragraph props = %+v, want none", p.Props)
	}
}

func TestParse_Headings(t *testing.T) {
	c, _ := newTestConverter(t, nil)
	blocks := parse(t, c, "<h2>Title</h2><blockquote>Quoted</blockquote><ul><li>Item</li></ul>")
	want := []string{"Heading2", "Quote", "ListParagraph"}
	if len(blocks) != len(want) {
		t.Fatalf("got %d blocks, want %d", len(blocks), len(want))
	}
	for i, w := range want {
		p := asParagraph(t, blocks[i])
		if p.Props == nil || p.Props.Style != w {
			t.Errorf("block %d props = %+v, want style %s", i, p.Props, w)
		}
	}
}

func TestParse_Abbr(t *testing.T) {
	tests := []string{
		`<dfn title='National Aeronautics and Space Administration'>NASA</dfn>`,
		`<abbr title='National Aeronautics and Space Administration'>NASA</abbr>`,
		`<acronym title='National Aeronautics and Space Administration'>NASA</acronym>`,
		`<acronym title='www.nasa.gov'>NASA</acronym>`,
	}
	for _, html := range tests {
		t.Run(html, func(t *testing.T) {
			c, pkg := newTestConverter(t, nil)
			blocks := parse(t, c, html)
			if len(blocks) != 1 {
				t.Fatalf("got %d blocks, want 1", len(blocks))
			}
			p := asParagraph(t, blocks[0])
			if p.Text() != "NASA" {
				t.Errorf("text = %q, want NASA", p.Text())
			}
			ref := noteReference(t, p)
			if ref.Kind != notes.Footnote || ref.ID != 1 {
				t.Errorf("reference = %+v, want footnote 1", ref)
			}
			n := findNote(pkg, notes.Footnote, ref.ID)
			if n == nil {
				t.Fatal("footnote was not added")
			}
			if rels := pkg.Relationships(pkg.NotesPart(notes.Footnote)).Items(); len(rels) != 0 {
				t.Errorf("footnote relationships = %+v, want none", rels)
			}
			if !slices.Contains(pkg.NoteIDs(notes.Footnote), ref.ID) {
				t.Errorf("footnote ids %v miss %d", pkg.NoteIDs(notes.Footnote), ref.ID)
			}
		})
	}
}

func TestParse_NoteWithLinks(t *testing.T) {
	tests := []struct {
		html string
		want string
	}{
		{`<abbr title='https://en.wikipedia.org/wiki/N A S A '>NASA</abbr>`, "https://en.wikipedia.org/wiki/N%20A%20S%20A"},
		{`<abbr title='file://C:\temp\NASA.html'>NASA</abbr>`, "file:///C:/temp/NASA.html"},
		{`<abbr title='\\server01\share\NASA.html'>NASA</abbr>`, "file://server01/share/NASA.html"},
		{`<abbr title='ftp://server01/share/NASA.html'>NASA</abbr>`, "ftp://server01/share/NASA.html"},
		{`<blockquote cite='https://en.wikipedia.org/wiki/NASA'>NASA</blockquote>`, "https://en.wikipedia.org/wiki/NASA"},
	}
	for _, tt := range tests {
		t.Run(tt.html, func(t *testing.T) {
			c, pkg := newTestConverter(t, nil)
			blocks := parse(t, c, tt.html)
			if len(blocks) != 1 {
				t.Fatalf("got %d blocks, want 1", len(blocks))
			}
			p := asParagraph(t, blocks[0])
			if p.Text() != "NASA" {
				t.Errorf("text = %q, want NASA", p.Text())
			}
			ref := noteReference(t, p)
			n := findNote(pkg, notes.Footnote, ref.ID)
			if n == nil {
				t.Fatal("footnote was not added")
			}

			np := asParagraph(t, n.Blocks[0])
			var link *wml.Hyperlink
			for _, it := range np.Content {
				if h, ok := it.(*wml.Hyperlink); ok {
					link = h
				}
			}
			if link == nil {
				t.Fatal("note has no hyperlink")
			}
			if link.URI != tt.want {
				t.Errorf("hyperlink = %q, want %q", link.URI, tt.want)
			}

			rels := pkg.Relationships(pkg.NotesPart(notes.Footnote)).Items()
			if len(rels) != 1 || !rels[0].External || rels[0].Target != tt.want {
				t.Errorf("footnote relationships = %+v", rels)
			}
		})
	}
}

func TestParse_DocumentEnd(t *testing.T) {
	c, pkg := newTestConverter(t, func(cfg *config.DocumentConfig) {
		cfg.AcronymPosition = common.AcronymPositionDocumentEnd
	})
	blocks := parse(t, c, `<acronym title='www.nasa.gov'>NASA</acronym>`)
	ref := noteReference(t, asParagraph(t, blocks[0]))
	if ref.Kind != notes.Endnote {
		t.Errorf("reference kind = %s, want endnote", ref.Kind)
	}
	if findNote(pkg, notes.Endnote, ref.ID) == nil {
		t.Error("endnote was not added")
	}
	if len(pkg.Notes(notes.Footnote)) != 0 {
		t.Error("footnote added for document end placement")
	}
}

func TestParse_NoDescription(t *testing.T) {
	tests := []string{
		"<abbr><a href='www.google.com'>Placeholder</a></abbr>",
		"<abbr>Placeholder</abbr>",
		"<blockquote>Placeholder</blockquote>",
	}
	for _, html := range tests {
		t.Run(html, func(t *testing.T) {
			c, pkg := newTestConverter(t, nil)
			blocks := parse(t, c, html)
			if len(blocks) != 1 {
				t.Fatalf("got %d blocks, want 1", len(blocks))
			}
			if blocks[0].Text() != "Placeholder" {
				t.Errorf("text = %q", blocks[0].Text())
			}
			if len(pkg.Notes(notes.Footnote)) != 0 {
				t.Error("note added without description")
			}
		})
	}
}

func TestParse_ExistingNotes(t *testing.T) {
	tests := []struct {
		html     string
		position common.AcronymPosition
	}{
		{"<abbr title='HyperText Markup Language'>HTML</abbr>", common.AcronymPositionDocumentEnd},
		{"<abbr title='HyperText Markup Language'>HTML</abbr>", common.AcronymPositionPageEnd},
		{"<blockquote cite='HyperText Markup Language'>HTML</blockquote>", common.AcronymPositionDocumentEnd},
		{"<blockquote cite='HyperText Markup Language'>HTML</blockquote>", common.AcronymPositionPageEnd},
	}
	for _, tt := range tests {
		t.Run(tt.html+" "+tt.position.String(), func(t *testing.T) {
			log := zaptest.NewLogger(t)
			kind := notes.KindFor(tt.position)

			// template with notes 1..3
			src, err := docx.New(log)
			if err != nil {
				t.Fatal(err)
			}
			for id := 1; id <= 3; id++ {
				if err := src.AppendNote(&wml.Note{Kind: kind, ID: id}); err != nil {
					t.Fatal(err)
				}
			}
			var buf bytes.Buffer
			if err := src.Save(&buf); err != nil {
				t.Fatal(err)
			}
			pkg, err := docx.Open(buf.Bytes(), log)
			if err != nil {
				t.Fatal(err)
			}

			cfg := defaultDocumentConfig(t)
			cfg.AcronymPosition = tt.position
			c := NewConverter(cfg, pkg, pkg.Styles(), log)

			blocks := parse(t, c, tt.html)
			if len(blocks) != 1 {
				t.Fatalf("got %d blocks, want 1", len(blocks))
			}
			ref := noteReference(t, asParagraph(t, blocks[0]))
			if ref.Kind != kind || ref.ID != 4 {
				t.Errorf("reference = %+v, want %s 4", ref, kind)
			}

			ids := pkg.NoteIDs(kind)
			if !slices.Equal(ids, []int{-1, 0, 1, 2, 3, 4}) {
				t.Errorf("note ids = %v", ids)
			}
			n := findNote(pkg, kind, ref.ID)
			if n == nil {
				t.Fatal("note was not added")
			}
			if got := n.Text(); got != " HyperText Markup Language" {
				t.Errorf("note text = %q", got)
			}
		})
	}
}

func TestParse_InlineAbbr(t *testing.T) {
	c, _ := newTestConverter(t, nil)
	blocks := parse(t, c, `<p>The
                <abbr title='National Aeronautics and Space Administration'>NASA</abbr>
                is an independent agency of the U.S. federal government responsible for the civil space program, aeronautics research, and space research.</p>`)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	p := asParagraph(t, blocks[0])
	runs := directRuns(p)
	if len(runs) <= 2 {
		t.Errorf("got %d runs, want more than 2", len(runs))
	}
	found := false
	for _, r := range runs {
		for _, c := range r.Content {
			if _, ok := c.(wml.NoteReference); ok {
				found = true
			}
		}
	}
	if !found {
		t.Error("no note reference in paragraph")
	}
	if !strings.HasPrefix(p.Text(), "The NASA is an independent agency") {
		t.Errorf("text = %q", p.Text())
	}
}

func TestParse_NoteIDsGrowAcrossCalls(t *testing.T) {
	c, pkg := newTestConverter(t, nil)
	for want := 1; want <= 3; want++ {
		blocks := parse(t, c, "<abbr title='Cascading Style Sheets'>CSS</abbr>")
		if ref := noteReference(t, asParagraph(t, blocks[0])); ref.ID != want {
			t.Errorf("reference id = %d, want %d", ref.ID, want)
		}
	}
	if n := len(pkg.Notes(notes.Footnote)); n != 3 {
		t.Errorf("got %d footnotes, want 3", n)
	}
}

func TestParse_Links(t *testing.T) {
	c, pkg := newTestConverter(t, nil)
	blocks := parse(t, c, `<p><a href="https://example.com/a b">site</a> and <a href="#top">up</a> or <a href="www.google.com">plain</a></p>`)
	p := asParagraph(t, blocks[0])
	if p.Text() != "site and up or plain" {
		t.Errorf("text = %q", p.Text())
	}

	var links []*wml.Hyperlink
	for _, it := range p.Content {
		if h, ok := it.(*wml.Hyperlink); ok {
			links = append(links, h)
		}
	}
	if len(links) != 2 {
		t.Fatalf("got %d hyperlinks, want 2", len(links))
	}
	if links[0].URI != "https://example.com/a%20b" {
		t.Errorf("external link = %q", links[0].URI)
	}
	if links[1].Anchor != "top" || len(links[1].URI) != 0 {
		t.Errorf("internal link = %+v", links[1])
	}
	if r := links[0].Runs[0]; r.Props == nil || r.Props.Style != "Hyperlink" {
		t.Errorf("link run props = %+v, want Hyperlink style", r.Props)
	}

	pkg.AppendBlocks(blocks)
	rels := pkg.Relationships(pkg.MainPart()).Items()
	if !slices.ContainsFunc(rels, func(r docx.Relationship) bool {
		return r.External && r.Target == "https://example.com/a%20b"
	}) {
		t.Errorf("main part relationships = %+v", rels)
	}
}

func TestParse_EmptyLink(t *testing.T) {
	c, _ := newTestConverter(t, nil)
	blocks := parse(t, c, `<p>see <a href="https://example.org/doc"></a></p>`)
	p := asParagraph(t, blocks[0])

	var links []*wml.Hyperlink
	for _, it := range p.Content {
		if h, ok := it.(*wml.Hyperlink); ok {
			links = append(links, h)
		}
	}
	if len(links) != 1 {
		t.Fatalf("got %d hyperlinks, want 1", len(links))
	}
	if links[0].URI != "https://example.org/doc" || len(links[0].Runs) != 1 {
		t.Fatalf("hyperlink = %+v", links[0])
	}
	if !strings.HasSuffix(p.Text(), "https://example.org/doc") {
		t.Errorf("text = %q, want link target shown", p.Text())
	}
}

func TestParse_Bookmarks(t *testing.T) {
	c, _ := newTestConverter(t, nil)
	blocks := parse(t, c, `<div id="top"><p>First <span id="mid">second</span></p></div>`)
	p := asParagraph(t, blocks[0])
	bm, ok := p.Content[0].(*wml.Bookmark)
	if !ok || bm.Name != "top" || bm.ID != 1 {
		t.Fatalf("first content = %#v, want bookmark top", p.Content[0])
	}
	found := false
	for _, it := range p.Content {
		if b, ok := it.(*wml.Bookmark); ok && b.Name == "mid" && b.ID == 2 {
			found = true
		}
	}
	if !found {
		t.Error("inline bookmark missing")
	}
}

func TestParse_QuotesBreaksRules(t *testing.T) {
	c, _ := newTestConverter(t, nil)
	blocks := parse(t, c, "<p>He said <q>hi</q></p><hr><p>a<br>b</p>")
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}
	if got := blocks[0].Text(); got != "He said “hi”" {
		t.Errorf("quote text = %q", got)
	}
	if p := asParagraph(t, blocks[1]); p.Props == nil || !p.Props.BorderBottom {
		t.Errorf("rule props = %+v", p.Props)
	}
	if got := blocks[2].Text(); got != "a\nb" {
		t.Errorf("break text = %q", got)
	}
}

func TestParse_Preformatted(t *testing.T) {
	c, _ := newTestConverter(t, nil)
	blocks := parse(t, c, "<pre>\n  x  y\n    z</pre>")
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	p := asParagraph(t, blocks[0])
	if got := p.Text(); got != "  x  y\n    z" {
		t.Errorf("text = %q", got)
	}
	if r := p.Runs()[0]; r.Props == nil || r.Props.Font != "Courier New" {
		t.Errorf("run props = %+v, want monospace", r.Props)
	}
}

func TestParse_EmptyCell(t *testing.T) {
	c, _ := newTestConverter(t, nil)
	tbl := singleTable(t, parse(t, c, "<table><tr><td></td></tr></table>"))
	if !slices.Equal(cellCounts(tbl), []int{1}) {
		t.Fatalf("cells = %v, want [1]", cellCounts(tbl))
	}
	blocks := tbl.Rows[0].Cells[0].Blocks
	if len(blocks) != 1 {
		t.Fatalf("cell has %d blocks, want 1", len(blocks))
	}
	asParagraph(t, blocks[0])
}

func TestParse_RowWithNoCell(t *testing.T) {
	c, _ := newTestConverter(t, nil)
	tbl := singleTable(t, parse(t, c, `<table>
                <tr><td>Cell 1.1</td><td>Cell 1.2</td></tr>
                <tr><td>Cell 2.1</td></tr>
                <tr><!--no cell!--></tr>
            </table>`))
	if !slices.Equal(cellCounts(tbl), []int{2, 2}) {
		t.Errorf("cells = %v, want [2 2]", cellCounts(tbl))
	}
}

func TestParse_DisorderedTable(t *testing.T) {
	c, _ := newTestConverter(t, nil)
	tbl := singleTable(t, parse(t, c, `
<table>
<tbody>
    <tr><td>Body</td></tr>
</tbody>
<thead>
    <tr><td>Header</td></tr>
</thead>
<tfoot>
    <tr><td>Footer</td></tr>
</tfoot>
</table>`))
	var got []string
	for _, r := range tbl.Rows {
		got = append(got, r.Text())
	}
	if !slices.Equal(got, []string{"Header", "Body", "Footer"}) {
		t.Errorf("rows = %q", got)
	}
	if !tbl.Rows[0].Header || tbl.Rows[1].Header {
		t.Error("only header group rows must repeat")
	}
}

func TestParse_ColSpan(t *testing.T) {
	tests := []struct {
		colspan string
		cells   int
		want    int
	}{
		{"2", 2, 2},
		{"1", 1, 0},
		{"0", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.colspan, func(t *testing.T) {
			c, _ := newTestConverter(t, nil)
			html := `<table><tr><th colspan="` + tt.colspan + `">Cell 1.1</th></tr><tr>` +
				strings.Repeat("<td>Cell</td>", tt.cells) + `</tr></table>`
			tbl := singleTable(t, parse(t, c, html))
			if !slices.Equal(cellCounts(tbl), []int{1, tt.cells}) {
				t.Fatalf("cells = %v", cellCounts(tbl))
			}
			if got := tbl.Rows[0].Cells[0].Props.GridSpan; got != tt.want {
				t.Errorf("grid span = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParse_RowSpanZero(t *testing.T) {
	c, _ := newTestConverter(t, nil)
	tbl := singleTable(t, parse(t, c, `<table>
                <tbody>
                    <tr><td rowspan="0">Cell 1.1</td><td>Cell 1.2</td><td>Cell 1.3</td></tr>
                    <tr><td>Cell 2.2</td><td>Cell 2.3</td></tr>
                    <tr><td>Cell 3.2</td><td>Cell 3.3</td></tr>
                </tbody>
                <tfoot>
                    <tr><td>Cell 4.1</td><td>Cell 4.2</td><td>Cell 4.3</td></tr>
                </tfoot>
                </table>`))
	if !slices.Equal(cellCounts(tbl), []int{3, 3, 3, 3}) {
		t.Fatalf("cells = %v", cellCounts(tbl))
	}
	var merges []string
	for _, r := range tbl.Rows {
		merges = append(merges, r.Cells[0].Props.VMerge)
	}
	if !slices.Equal(merges, []string{"restart", "continue", "continue", ""}) {
		t.Errorf("vertical merges = %q", merges)
	}
}

func TestParse_RowSpan(t *testing.T) {
	c, _ := newTestConverter(t, nil)
	tbl := singleTable(t, parse(t, c, `<table>
                    <tr><td>Cell 1.1</td><td>Cell 1.2</td><td>Cell 1.3</td></tr>
                    <tr><td>Cell 2.1</td><td rowspan="2">Cell 2.2</td><td>Cell 2.3</td></tr>
                    <tr><td>Cell 3.1</td><td>Cell 3.3</td></tr>
                </table>`))
	if !slices.Equal(cellCounts(tbl), []int{3, 3, 3}) {
		t.Fatalf("cells = %v", cellCounts(tbl))
	}
	if got := tbl.Rows[1].Cells[1].Props.VMerge; got != "restart" {
		t.Errorf("origin merge = %q", got)
	}
	if got := tbl.Rows[2].Cells[1].Props.VMerge; got != "continue" {
		t.Errorf("continuation merge = %q", got)
	}
	if got := tbl.Rows[2].Text(); got != "Cell 3.1Cell 3.3" {
		t.Errorf("continued row text = %q", got)
	}
}

func TestParse_RowAndColumnSpan(t *testing.T) {
	c, _ := newTestConverter(t, nil)
	tbl := singleTable(t, parse(t, c, `<table>
                    <tr><td rowspan="2" colspan="2">Cell 1.1</td><td>Cell 1.3</td></tr>
                    <tr><td>Cell 2.3</td></tr>
                    <tr><td>Cell 3.1</td><td>Cell 3.2</td><td>Cell 3.3</td></tr>
                </table>`))
	if !slices.Equal(cellCounts(tbl), []int{2, 2, 3}) {
		t.Fatalf("cells = %v", cellCounts(tbl))
	}
	first, second := tbl.Rows[0].Cells[0].Props, tbl.Rows[1].Cells[0].Props
	if first.GridSpan != 2 || first.VMerge != "restart" {
		t.Errorf("origin props = %+v", first)
	}
	if second.GridSpan != 2 || second.VMerge != "continue" {
		t.Errorf("continuation props = %+v", second)
	}
	if len(tbl.Grid) != 3 {
		t.Errorf("grid columns = %d, want 3", len(tbl.Grid))
	}
}

func TestParse_VerticalText(t *testing.T) {
	tests := map[string]string{
		"tb-lr":       "btLr",
		"vertical-lr": "btLr",
		"tb-rl":       "tbRl",
		"vertical-rl": "tbRl",
	}
	for mode, want := range tests {
		t.Run(mode, func(t *testing.T) {
			c, _ := newTestConverter(t, nil)
			tbl := singleTable(t, parse(t, c, `<table><tr><td style="writing-mode:`+mode+`">Cell 1.1</td></tr></table>`))
			props := tbl.Rows[0].Cells[0].Props
			if props.TextDirection != want || props.VAlign != "center" {
				t.Errorf("cell props = %+v, want %s centered", props, want)
			}
		})
	}
}

func TestParse_TableCaption(t *testing.T) {
	tests := []struct {
		position common.CaptionPosition
		caption  int
		table    int
	}{
		{common.CaptionPositionAbove, 0, 1},
		{common.CaptionPositionBelow, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.position.String(), func(t *testing.T) {
			c, _ := newTestConverter(t, func(cfg *config.DocumentConfig) {
				cfg.TableCaptionPosition = tt.position
			})
			blocks := parse(t, c, `<table>
                    <caption>Some table caption</caption>
                    <tr><td>Cell 1.1</td></tr>
                </table>`)
			if len(blocks) != 2 {
				t.Fatalf("got %d blocks, want 2", len(blocks))
			}
			asTable(t, blocks[tt.table])
			p := asParagraph(t, blocks[tt.caption])
			if p.Props == nil || p.Props.Style != "Caption" {
				t.Errorf("caption props = %+v", p.Props)
			}

			runs := p.Runs()
			if len(runs) < 4 {
				t.Fatalf("got %d runs, want at least 4", len(runs))
			}
			if fc, ok := runs[0].Content[0].(wml.FieldChar); !ok || fc.Type != "begin" {
				t.Errorf("first run = %#v", runs[0].Content)
			}
			if code, ok := runs[1].Content[0].(wml.FieldCode); !ok || code.Code != `SEQ TABLE \* ARABIC` {
				t.Errorf("second run = %#v", runs[1].Content)
			}
			if fc, ok := runs[2].Content[0].(wml.FieldChar); !ok || fc.Type != "end" {
				t.Errorf("third run = %#v", runs[2].Content)
			}
			if got := runs[len(runs)-1].Text(); got != "Some table caption" {
				t.Errorf("last run text = %q", got)
			}
		})
	}
}

func TestParse_TableCaptionIgnored(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		c, _ := newTestConverter(t, nil)
		singleTable(t, parse(t, c, `<table><caption></caption><tr><td>Cell 1.1</td></tr></table>`))
	})
	t.Run("not requested", func(t *testing.T) {
		c, _ := newTestConverter(t, func(cfg *config.DocumentConfig) {
			cfg.TableCaptionPosition = common.CaptionPositionNone
		})
		singleTable(t, parse(t, c, `<table><caption>Caption</caption><tr><td>Cell 1.1</td></tr></table>`))
	})
}

func TestParse_PreAsTable(t *testing.T) {
	const preformatted = "\n" +
		"              ^__^\n" +
		"              (oo)\\_______\n" +
		"              (__)\\       )\\/\\\n" +
		"                  ||----w |\n" +
		"                  ||     ||"

	c, _ := newTestConverter(t, func(cfg *config.DocumentConfig) {
		cfg.RenderPreAsTable = true
	})
	tbl := singleTable(t, parse(t, c, "\n<pre role='img' aria-label='ASCII COW'>\n"+preformatted+"</pre>"))

	if tbl.Props.Style != "TableGrid" {
		t.Errorf("table style = %q", tbl.Props.Style)
	}
	if tbl.Props.Width != (wml.Width{Type: "auto"}) {
		t.Errorf("table width = %+v", tbl.Props.Width)
	}
	if !slices.Equal(cellCounts(tbl), []int{1}) {
		t.Fatalf("cells = %v", cellCounts(tbl))
	}
	cell := tbl.Rows[0].Cells[0]
	if got := cell.Text(); got != preformatted {
		t.Errorf("cell text = %q, want %q", got, preformatted)
	}
	if len(cell.Props.Borders) != 4 {
		t.Fatalf("got %d borders, want 4", len(cell.Props.Borders))
	}
	for _, b := range cell.Props.Borders {
		if b.Val != "single" {
			t.Errorf("border %s = %s, want single", b.Side, b.Val)
		}
	}
}

func TestParse_RowStyle(t *testing.T) {
	c, _ := newTestConverter(t, nil)
	tbl := singleTable(t, parse(t, c, `<table><tr style='background-color:silver;'><td>Cell</td></tr></table>`))
	cell := tbl.Rows[0].Cells[0]
	if cell.Props.Shading != "C0C0C0" {
		t.Errorf("cell shading = %q, want C0C0C0", cell.Props.Shading)
	}
	if r := asParagraph(t, cell.Blocks[0]).Runs()[0]; r.Props != nil && len(r.Props.Shading) > 0 {
		t.Errorf("run shading = %q, want none", r.Props.Shading)
	}
}

func TestParse_CellStyle(t *testing.T) {
	c, _ := newTestConverter(t, nil)
	tbl := singleTable(t, parse(t, c, `<table><tr><td style="font-weight:bold"><i>Cell</i></td></tr></table>`))
	r := asParagraph(t, tbl.Rows[0].Cells[0].Blocks[0]).Runs()[0]
	if r.Props == nil || !r.Props.Bold || !r.Props.Italic {
		t.Errorf("run props = %+v, want bold italic", r.Props)
	}
}

func TestParse_NestedTable(t *testing.T) {
	c, _ := newTestConverter(t, nil)
	tbl := singleTable(t, parse(t, c, `<table>
                    <tr><td style="font-weight:bold">
                        <table><tr><td>Cell</td><td>Other</td></tr></table>
                    </td></tr>
                </table>`))
	if len(tbl.Grid) != 1 {
		t.Errorf("grid columns = %d, want 1", len(tbl.Grid))
	}
	inner := asTable(t, tbl.Rows[0].Cells[0].Blocks[0])
	if len(inner.Grid) != 2 {
		t.Errorf("nested grid columns = %d, want 2", len(inner.Grid))
	}
}

func TestParse_ColumnWidths(t *testing.T) {
	tests := []struct {
		name string
		html string
		want []int
	}{
		{
			name: "col",
			html: `<table><colgroup><col style="width:100px"/><col style="width:50px"/></colgroup>
				<tr><td>Cell 1.1</td><td>Cell 1.2</td></tr></table>`,
			want: []int{1500, 750},
		},
		{
			name: "span",
			html: `<table><colgroup><col style="width:100px" span="2" /><col style="width:50px"/></colgroup>
				<tr><td>Cell 1.1</td><td>Cell 1.2</td><td>Cell 1.3</td></tr></table>`,
			want: []int{1500, 1500, 750},
		},
		{
			name: "undeclared",
			html: `<table><tr><td>Cell 1.1</td><td>Cell 1.2</td></tr></table>`,
			want: []int{0, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestConverter(t, nil)
			tbl := singleTable(t, parse(t, c, tt.html))
			if !slices.Equal(tbl.Grid, tt.want) {
				t.Errorf("grid = %v, want %v", tbl.Grid, tt.want)
			}
		})
	}
}

func TestParse_Dump(t *testing.T) {
	c, _ := newTestConverter(t, nil)
	tw := debug.NewTreeWriter()
	c.DumpTo(tw)
	parse(t, c, "<p>Text</p><table><tr><td>Cell</td></tr></table>")

	out := tw.String()
	for _, want := range []string{"<p> block", `text: "Text"`, "grid: 1 rows, 1 columns"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump misses %q:\n%s", want, out)
		}
	}
}
