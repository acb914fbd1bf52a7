// Package style resolves formatting of markup nodes into document
// properties and looks up styles defined by the target document.
package style

import (
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/maruel/natural"
)

// Catalog finds styles known to the target document.
type Catalog interface {
	// Lookup returns style id for style id or name, case is ignored.
	Lookup(name string) (string, bool)
}

type Definition struct {
	ID   string
	Name string
	Type string
}

// Styles is catalog read from styles part.
type Styles struct {
	defs  map[string]Definition
	index map[string]string
}

// ParseStyles reads style definitions from styles part content.
func ParseStyles(data []byte) (*Styles, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("unable to parse styles: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "styles" {
		return nil, fmt.Errorf("unable to parse styles: unexpected root element")
	}

	s := &Styles{defs: make(map[string]Definition), index: make(map[string]string)}
	for _, el := range root.SelectElements("w:style") {
		def := Definition{
			ID:   el.SelectAttrValue("w:styleId", ""),
			Type: el.SelectAttrValue("w:type", ""),
		}
		if len(def.ID) == 0 {
			continue
		}
		if name := el.SelectElement("w:name"); name != nil {
			def.Name = name.SelectAttrValue("w:val", "")
		}
		s.Add(def)
	}
	return s, nil
}

// Add registers definition, existing definition with the same id is
// replaced.
func (s *Styles) Add(def Definition) {
	s.defs[def.ID] = def
	for _, key := range []string{def.ID, def.Name} {
		if len(key) == 0 {
			continue
		}
		for _, k := range lookupKeys(key) {
			if _, ok := s.index[k]; !ok || k == strings.ToLower(def.ID) {
				s.index[k] = def.ID
			}
		}
	}
}

func (s *Styles) Lookup(name string) (string, bool) {
	for _, k := range lookupKeys(name) {
		if id, ok := s.index[k]; ok {
			return id, true
		}
	}
	return "", false
}

// Definition returns style definition by id.
func (s *Styles) Definition(id string) (Definition, bool) {
	def, ok := s.defs[id]
	return def, ok
}

// IDs returns style ids in natural order.
func (s *Styles) IDs() []string {
	ids := make([]string, 0, len(s.defs))
	for id := range s.defs {
		ids = append(ids, id)
	}
	sort.Sort(natural.StringSlice(ids))
	return ids
}

// lookupKeys gives lower case name and, for names like "heading 1", the
// same without spaces.
func lookupKeys(name string) []string {
	k := strings.ToLower(strings.TrimSpace(name))
	if len(k) == 0 {
		return nil
	}
	if compact := strings.ReplaceAll(k, " ", ""); compact != k {
		return []string{k, compact}
	}
	return []string{k}
}
