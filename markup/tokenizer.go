// Package markup turns possibly malformed HTML into a tree of element and
// text nodes. Nothing here ever fails: anything which does not look like
// markup is kept as text.
package markup

import (
	"iter"
	"strings"

	"golang.org/x/net/html"
)

// Tokenizer splits markup into tokens in a single forward pass.
type Tokenizer struct {
	src string
	pos int

	// text inside <pre> keeps its whitespace
	preDepth int
	// newline right after <pre> is not content
	skipNewline bool
}

// NewTokenizer returns tokenizer for markup with surrounding whitespace
// trimmed.
func NewTokenizer(markup string) *Tokenizer {
	return &Tokenizer{src: strings.TrimSpace(markup)}
}

// Tokenize returns lazy sequence of tokens for markup.
func Tokenize(markup string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		z := NewTokenizer(markup)
		for {
			tok, ok := z.Next()
			if !ok || !yield(tok) {
				return
			}
		}
	}
}

// Next returns next token, false when input is exhausted.
func (z *Tokenizer) Next() (Token, bool) {
	for z.pos < len(z.src) {
		skipNewline := z.skipNewline
		z.skipNewline = false

		if z.isMarkupStart(z.pos) {
			if tok, ok := z.readMarkup(); ok {
				return tok, true
			}
		}
		if tok, ok := z.readText(skipNewline); ok {
			return tok, true
		}
	}
	return Token{}, false
}

// isMarkupStart checks if '<' at position i opens a tag, comment or
// declaration. Anything else ("< b >", "<3") is literal text.
func (z *Tokenizer) isMarkupStart(i int) bool {
	s := z.src
	if s[i] != '<' || i+1 >= len(s) {
		return false
	}
	switch c := s[i+1]; {
	case isLetter(c), c == '!', c == '?':
		return true
	case c == '/':
		return i+2 < len(s) && isLetter(s[i+2])
	}
	return false
}

func (z *Tokenizer) readMarkup() (Token, bool) {
	start := z.pos
	rest := z.src[start:]

	switch {
	case strings.HasPrefix(rest, "<!--"):
		// unterminated comment swallows the rest of the input
		if end := strings.Index(rest[4:], "-->"); end >= 0 {
			z.pos = start + 4 + end + 3
		} else {
			z.pos = len(z.src)
		}
		return Token{Kind: Comment, Pos: start}, true
	case rest[1] == '!' || rest[1] == '?':
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			return Token{}, false
		}
		z.pos = start + end + 1
		return Token{Kind: Comment, Pos: start}, true
	case rest[1] == '/':
		return z.readCloseTag()
	}
	return z.readOpenTag()
}

func (z *Tokenizer) readCloseTag() (Token, bool) {
	start := z.pos
	i, name := z.readName(start + 2)
	end := strings.IndexByte(z.src[i:], '>')
	if end < 0 {
		return Token{}, false
	}
	z.pos = i + end + 1
	if name == "pre" && z.preDepth > 0 {
		z.preDepth--
	}
	return Token{Kind: CloseTag, Name: name, Pos: start}, true
}

func (z *Tokenizer) readOpenTag() (Token, bool) {
	s, start := z.src, z.pos
	i, name := z.readName(start + 1)

	tok := Token{Kind: OpenTag, Name: name, Pos: start}
	for closed := false; !closed; {
		i = skipSpace(s, i)
		if i >= len(s) {
			return Token{}, false
		}
		switch {
		case s[i] == '>':
			i++
			closed = true
			continue
		case strings.HasPrefix(s[i:], "/>"):
			i += 2
			tok.Kind = SelfClosingTag
			closed = true
			continue
		case s[i] == '/':
			i++
			continue
		}

		ks := i
		for i < len(s) && !isSpace(s[i]) && s[i] != '=' && s[i] != '>' && !strings.HasPrefix(s[i:], "/>") {
			i++
		}
		key := strings.ToLower(s[ks:i])
		if len(key) == 0 {
			// stray '=' with no name
			i++
		}

		var val string
		if j := skipSpace(s, i); j < len(s) && s[j] == '=' {
			i = skipSpace(s, j+1)
			if i < len(s) && (s[i] == '"' || s[i] == '\'') {
				end := strings.IndexByte(s[i+1:], s[i])
				if end < 0 {
					return Token{}, false
				}
				val = s[i+1 : i+1+end]
				i += end + 2
			} else {
				vs := i
				for i < len(s) && !isSpace(s[i]) && s[i] != '>' {
					i++
				}
				val = s[vs:i]
			}
		}
		if _, dup := lookupAttr(tok.Attrs, key); len(key) > 0 && !dup {
			tok.Attrs = append(tok.Attrs, Attr{Key: key, Val: html.UnescapeString(val)})
		}
	}
	z.pos = i

	if tok.Kind == OpenTag {
		switch name {
		case "script", "style":
			z.skipRawText(name)
			return Token{Kind: Ignorable, Name: name, Pos: start}, true
		case "pre":
			z.preDepth++
			z.skipNewline = true
		}
	}
	return tok, true
}

// skipRawText moves past the closing tag of a raw text element. Content is
// never interpreted as markup, when closing tag is absent everything to the
// end of input is consumed.
func (z *Tokenizer) skipRawText(name string) {
	closing := "</" + name
	for {
		end := indexFold(z.src[z.pos:], closing)
		if end < 0 {
			z.pos = len(z.src)
			return
		}
		z.pos += end + len(closing)
		// name must end right there, "</scripts" does not close script
		if z.pos == len(z.src) || isSpace(z.src[z.pos]) || z.src[z.pos] == '/' || z.src[z.pos] == '>' {
			break
		}
	}
	if gt := strings.IndexByte(z.src[z.pos:], '>'); gt >= 0 {
		z.pos += gt + 1
	} else {
		z.pos = len(z.src)
	}
}

func (z *Tokenizer) readText(skipNewline bool) (Token, bool) {
	start := z.pos
	// current '<' was already rejected as markup start
	i := start + 1
	for i < len(z.src) && !z.isMarkupStart(i) {
		i++
	}
	z.pos = i

	raw := z.src[start:i]
	if z.preDepth > 0 {
		if skipNewline {
			raw = strings.TrimPrefix(strings.TrimPrefix(raw, "\r"), "\n")
		}
		raw = strings.ReplaceAll(raw, "\r\n", "\n")
	} else {
		raw = collapseSpace(raw)
	}
	if len(raw) == 0 {
		return Token{}, false
	}
	return Token{Kind: Text, Text: html.UnescapeString(raw), Pos: start}, true
}

func (z *Tokenizer) readName(i int) (int, string) {
	s := z.src
	start := i
	for i < len(s) && isNameChar(s[i]) {
		i++
	}
	return i, strings.ToLower(s[start:i])
}

func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for i := 0; i < len(s); i++ {
		if isSpace(s[i]) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteByte(s[i])
	}
	if space {
		b.WriteByte(' ')
	}
	return b.String()
}

// indexFold is strings.Index with ASCII case folding.
func indexFold(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(sub)], sub) {
			return i
		}
	}
	return -1
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isLetter(c) || ('0' <= c && c <= '9') || c == '-' || c == '_' || c == ':' || c == '.'
}
