package markup

import "fmt"

// TokenKind discriminates lexical tokens produced by Tokenize.
type TokenKind int

const (
	OpenTag TokenKind = iota
	CloseTag
	SelfClosingTag
	Text
	Comment
	// Ignorable stands for a whole script or style element, its content is
	// consumed and never reported.
	Ignorable
)

func (k TokenKind) String() string {
	switch k {
	case OpenTag:
		return "open"
	case CloseTag:
		return "close"
	case SelfClosingTag:
		return "self-closing"
	case Text:
		return "text"
	case Comment:
		return "comment"
	case Ignorable:
		return "ignorable"
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Attr is a single element attribute. Names are lower case, values have
// character references decoded.
type Attr struct {
	Key string
	Val string
}

type Token struct {
	Kind TokenKind
	// Name is lower case tag name for tag tokens and Ignorable.
	Name  string
	Attrs []Attr
	// Text is token content for Text tokens.
	Text string
	// Pos is byte offset of the token in the trimmed input.
	Pos int
}

func (t Token) String() string {
	switch t.Kind {
	case Text:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	case Comment:
		return t.Kind.String()
	}
	return fmt.Sprintf("%s <%s>", t.Kind, t.Name)
}

// Attr returns value of the named attribute.
func (t Token) Attr(key string) (string, bool) {
	return lookupAttr(t.Attrs, key)
}

func lookupAttr(attrs []Attr, key string) (string, bool) {
	for _, a := range attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
