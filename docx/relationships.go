package docx

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const (
	nsPackageRels = "http://schemas.openxmlformats.org/package/2006/relationships"

	RelOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	RelStyles         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	RelFootnotes      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footnotes"
	RelEndnotes       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/endnotes"
	RelHyperlink      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	RelCoreProps      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	RelExtendedProps  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
)

type Relationship struct {
	ID       string
	Type     string
	Target   string
	External bool
}

// Relationships of a single part. It implements wml.Relations.
type Relationships struct {
	// owner part name, empty for package relationships
	owner string
	items []Relationship
	next  int
}

func newRelationships(owner string) *Relationships {
	return &Relationships{owner: owner, next: 1}
}

// relsPartName returns name of relationships part for owner part.
func relsPartName(owner string) string {
	if len(owner) == 0 {
		return "_rels/.rels"
	}
	dir, file := path.Split(owner)
	return dir + "_rels/" + file + ".rels"
}

func parseRelationships(owner string, data []byte) (*Relationships, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("unable to parse relationships of '%s': %w", owner, err)
	}
	rels := newRelationships(owner)
	root := doc.Root()
	if root == nil {
		return rels, nil
	}
	for _, el := range root.SelectElements("Relationship") {
		r := Relationship{
			ID:       el.SelectAttrValue("Id", ""),
			Type:     el.SelectAttrValue("Type", ""),
			Target:   el.SelectAttrValue("Target", ""),
			External: el.SelectAttrValue("TargetMode", "") == "External",
		}
		rels.items = append(rels.items, r)
		if n, err := strconv.Atoi(strings.TrimPrefix(r.ID, "rId")); err == nil && n >= rels.next {
			rels.next = n + 1
		}
	}
	return rels, nil
}

// Add appends relationship and returns its id.
func (r *Relationships) Add(typ, target string, external bool) string {
	id := "rId" + strconv.Itoa(r.next)
	r.next++
	r.items = append(r.items, Relationship{ID: id, Type: typ, Target: target, External: external})
	return id
}

// Hyperlink returns id of external hyperlink relationship to target, adding
// one when needed.
func (r *Relationships) Hyperlink(target string) string {
	for _, it := range r.items {
		if it.External && it.Type == RelHyperlink && it.Target == target {
			return it.ID
		}
	}
	return r.Add(RelHyperlink, target, true)
}

// ByType returns first relationship of type.
func (r *Relationships) ByType(typ string) (Relationship, bool) {
	for _, it := range r.items {
		if it.Type == typ {
			return it, true
		}
	}
	return Relationship{}, false
}

// ByID returns relationship with id.
func (r *Relationships) ByID(id string) (Relationship, bool) {
	for _, it := range r.items {
		if it.ID == id {
			return it, true
		}
	}
	return Relationship{}, false
}

// Items returns all relationships in order of addition.
func (r *Relationships) Items() []Relationship {
	return r.items
}

// resolve returns package part name for internal target.
func (r *Relationships) resolve(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(r.owner), target)
}

func (r *Relationships) document() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("Relationships")
	root.CreateAttr("xmlns", nsPackageRels)
	for _, it := range r.items {
		el := root.CreateElement("Relationship")
		el.CreateAttr("Id", it.ID)
		el.CreateAttr("Type", it.Type)
		el.CreateAttr("Target", it.Target)
		if it.External {
			el.CreateAttr("TargetMode", "External")
		}
	}
	return doc
}
