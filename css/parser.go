// Package css interprets inline style declarations: property values,
// lengths and colors. There is no selector matching or cascade here.
package css

import (
	"strconv"
	"strings"
	"unicode"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses style attribute values.
type Parser struct {
	log *zap.Logger
}

func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// ParseInline parses content of style attribute. Malformed declarations are
// skipped, the rest is kept in source order.
func (p *Parser) ParseInline(style string) Declarations {
	if len(strings.TrimSpace(style)) == 0 {
		return nil
	}

	var decls Declarations
	parser := css.NewParser(parse.NewInputString(style), true)
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if parser.HasParseError() {
				p.log.Debug("Skipping malformed declaration", zap.String("style", style), zap.Error(parser.Err()))
				continue
			}
			return decls
		case css.DeclarationGrammar:
			values := parser.Values()
			if len(values) == 0 {
				continue
			}
			d := Declaration{Property: string(data)}
			values, d.Important = stripImportant(values)
			d.Value = parsePropertyValue(values)
			decls = append(decls, d)
		}
	}
}

func stripImportant(tokens []css.Token) ([]css.Token, bool) {
	end := len(tokens)
	for end > 0 && tokens[end-1].TokenType == css.WhitespaceToken {
		end--
	}
	if end >= 2 && tokens[end-1].TokenType == css.IdentToken && strings.EqualFold(string(tokens[end-1].Data), "important") &&
		tokens[end-2].TokenType == css.DelimToken && string(tokens[end-2].Data) == "!" {
		return tokens[:end-2], true
	}
	return tokens, false
}

// parsePropertyValue converts declaration tokens to Value.
func parsePropertyValue(tokens []css.Token) Value {
	var raw strings.Builder
	var significant []css.Token
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			if raw.Len() > 0 {
				raw.WriteByte(' ')
			}
			continue
		}
		raw.Write(t.Data)
		significant = append(significant, t)
	}

	val := Value{Raw: strings.TrimSpace(raw.String())}
	if len(significant) != 1 {
		// functions and multi-value properties are kept raw
		val.Keyword = strings.ToLower(val.Raw)
		return val
	}

	t := significant[0]
	switch t.TokenType {
	case css.DimensionToken:
		val.Value, val.Unit = parseDimension(string(t.Data))
	case css.PercentageToken:
		val.Value, _ = strconv.ParseFloat(strings.TrimSuffix(string(t.Data), "%"), 64)
		val.Unit = "%"
	case css.NumberToken:
		val.Value, _ = strconv.ParseFloat(string(t.Data), 64)
	case css.IdentToken:
		val.Keyword = strings.ToLower(string(t.Data))
	case css.StringToken:
		val.Keyword = unquote(string(t.Data))
	case css.HashToken:
		val.Keyword = string(t.Data)
	default:
		val.Keyword = strings.ToLower(val.Raw)
	}
	return val
}

// parseDimension splits dimension token into number and lower case unit.
func parseDimension(s string) (float64, string) {
	numEnd := 0
	for i, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != '-' && r != '+' {
			break
		}
		numEnd = i + 1
	}
	if numEnd == 0 {
		return 0, ""
	}
	num, _ := strconv.ParseFloat(s[:numEnd], 64)
	return num, strings.ToLower(s[numEnd:])
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
