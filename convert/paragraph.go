package convert

import (
	"strings"

	"h2w/wml"
)

// paragraph collects inline content of a single output paragraph.
type paragraph struct {
	out *wml.Paragraph
	// text keeps its whitespace and line breaks
	pre bool
	// character style of runs inside hyperlink
	linkStyle string
}

func newParagraph(props *wml.ParagraphProps) *paragraph {
	return &paragraph{out: &wml.Paragraph{Props: props}}
}

func (p *paragraph) add(it wml.Inline) {
	p.out.Content = append(p.out.Content, it)
}

// text adds run with text, newlines become breaks in preformatted text.
func (p *paragraph) text(s string, props *wml.RunProps) {
	if len(s) == 0 {
		return
	}
	props = p.styled(props)
	if !p.pre {
		p.add(wml.NewRun(props, s))
		return
	}
	r := &wml.Run{Props: props}
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			r.Content = append(r.Content, wml.Break{})
		}
		if len(line) > 0 {
			r.Content = append(r.Content, wml.Text{Value: line})
		}
	}
	p.add(r)
}

func (p *paragraph) lineBreak(props *wml.RunProps) {
	p.add(&wml.Run{Props: p.styled(props), Content: []wml.RunContent{wml.Break{}}})
}

func (p *paragraph) styled(props *wml.RunProps) *wml.RunProps {
	if len(p.linkStyle) == 0 {
		return props
	}
	if props == nil {
		props = &wml.RunProps{}
	}
	if len(props.Style) == 0 {
		props.Style = p.linkStyle
	}
	return props
}

// hasText reports whether paragraph has any visible content so far.
func (p *paragraph) hasText() bool {
	for _, r := range p.out.Runs() {
		for _, c := range r.Content {
			switch v := c.(type) {
			case wml.Text:
				if len(strings.TrimSpace(v.Value)) > 0 {
					return true
				}
			case wml.Break:
				return true
			}
		}
	}
	return false
}

// finish trims whitespace and drops empty runs. It returns false when
// nothing but bookmarks remains.
func (p *paragraph) finish() bool {
	if !p.pre {
		p.trim()
	}

	content := p.out.Content[:0]
	visible := false
	for _, it := range p.out.Content {
		switch v := it.(type) {
		case *wml.Run:
			if compact(v) {
				content = append(content, v)
				visible = true
			}
		case *wml.Hyperlink:
			runs := v.Runs[:0]
			for _, r := range v.Runs {
				if compact(r) {
					runs = append(runs, r)
				}
			}
			v.Runs = runs
			if len(runs) > 0 {
				content = append(content, v)
				visible = true
			}
		default:
			content = append(content, it)
		}
	}
	p.out.Content = content
	return visible
}

// trim removes leading and trailing spaces of the paragraph and spaces
// doubled across run boundaries.
func (p *paragraph) trim() {
	runs := p.out.Runs()

	space := true
	for _, r := range runs {
		for i, c := range r.Content {
			switch v := c.(type) {
			case wml.Text:
				if space {
					v.Value = strings.TrimLeft(v.Value, " ")
					r.Content[i] = v
				}
				if len(v.Value) > 0 {
					space = strings.HasSuffix(v.Value, " ")
				}
			case wml.Break:
				space = true
			}
		}
	}

	for i := len(runs) - 1; i >= 0; i-- {
		r := runs[i]
		for j := len(r.Content) - 1; j >= 0; j-- {
			switch v := r.Content[j].(type) {
			case wml.Text:
				v.Value = strings.TrimRight(v.Value, " ")
				r.Content[j] = v
				if len(v.Value) > 0 {
					return
				}
			case wml.Break:
				return
			}
		}
	}
}

// bookmarks returns bookmarks placed into paragraph.
func (p *paragraph) bookmarks() []*wml.Bookmark {
	var out []*wml.Bookmark
	for _, it := range p.out.Content {
		if b, ok := it.(*wml.Bookmark); ok {
			out = append(out, b)
		}
	}
	return out
}

// compact removes empty text from run and reports whether anything is left.
func compact(r *wml.Run) bool {
	content := r.Content[:0]
	for _, c := range r.Content {
		if t, ok := c.(wml.Text); ok && len(t.Value) == 0 {
			continue
		}
		content = append(content, c)
	}
	r.Content = content
	return len(content) > 0
}
