package convert

import (
	"bytes"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/language"

	"h2w/docx"
)

// Metadata is descriptive information found in HTML document head.
type Metadata struct {
	Title       string
	Authors     []string
	Description string
	Keywords    []string
	Language    language.Tag
}

// readMetadata looks at the document head only, scanning stops at body or
// first content element.
func readMetadata(data []byte, log *zap.Logger) Metadata {
	var (
		md      Metadata
		lang    string
		title   strings.Builder
		inTitle bool
	)

	z := html.NewTokenizer(bytes.NewReader(data))
scan:
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			break scan
		case html.TextToken:
			if inTitle {
				title.Write(z.Text())
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Title:
				inTitle = false
			case atom.Head:
				break scan
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.Html:
				lang = attrValue(tok, "lang")
			case atom.Title:
				inTitle = tt == html.StartTagToken
			case atom.Meta:
				md.addMeta(tok, &lang)
			case atom.Head, atom.Link, atom.Script, atom.Style, atom.Base, atom.Noscript:
			default:
				break scan
			}
		}
	}

	md.Title = strings.Join(strings.Fields(html.UnescapeString(title.String())), " ")
	if len(lang) > 0 {
		tag, err := language.Parse(lang)
		if err != nil {
			log.Debug("Ignoring bad document language", zap.String("lang", lang), zap.Error(err))
		} else {
			md.Language = tag
		}
	}
	return md
}

func (md *Metadata) addMeta(tok html.Token, lang *string) {
	content := strings.TrimSpace(attrValue(tok, "content"))
	if len(content) == 0 {
		return
	}
	if strings.EqualFold(attrValue(tok, "http-equiv"), "content-language") {
		if len(*lang) == 0 {
			*lang = content
		}
		return
	}
	switch strings.ToLower(attrValue(tok, "name")) {
	case "author", "dc.creator":
		md.Authors = append(md.Authors, content)
	case "description", "dc.description":
		if len(md.Description) == 0 {
			md.Description = content
		}
	case "keywords", "dc.subject":
		for kw := range strings.SplitSeq(content, ",") {
			if kw = strings.TrimSpace(kw); len(kw) > 0 {
				md.Keywords = append(md.Keywords, kw)
			}
		}
	case "dc.language":
		if len(*lang) == 0 {
			*lang = content
		}
	}
}

func attrValue(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// CoreProperties returns document properties to be set from metadata.
func (md Metadata) CoreProperties() docx.CoreProperties {
	props := docx.CoreProperties{
		Title:       md.Title,
		Authors:     md.Authors,
		Description: md.Description,
		Keywords:    md.Keywords,
	}
	if md.Language != language.Und {
		props.Language = md.Language.String()
	}
	return props
}
