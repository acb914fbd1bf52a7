package docx

import (
	"path"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"h2w/misc"
	"h2w/notes"
	"h2w/wml"
)

const (
	nsContentTypes = "http://schemas.openxmlformats.org/package/2006/content-types"

	ctRelationships = "application/vnd.openxmlformats-package.relationships+xml"
	ctDocument      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	ctStyles        = "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"
	ctFootnotes     = "application/vnd.openxmlformats-officedocument.wordprocessingml.footnotes+xml"
	ctEndnotes      = "application/vnd.openxmlformats-officedocument.wordprocessingml.endnotes+xml"
	ctCore          = "application/vnd.openxmlformats-package.core-properties+xml"
	ctApp           = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
)

type contentTypes struct {
	doc *etree.Document
}

func newContentTypes() *contentTypes {
	doc := newXMLDocument()
	root := doc.CreateElement("Types")
	root.CreateAttr("xmlns", nsContentTypes)
	for _, d := range [][2]string{{"rels", ctRelationships}, {"xml", "application/xml"}} {
		el := root.CreateElement("Default")
		el.CreateAttr("Extension", d[0])
		el.CreateAttr("ContentType", d[1])
	}
	return &contentTypes{doc: doc}
}

func parseContentTypes(data []byte) *contentTypes {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil || doc.Root() == nil {
		return newContentTypes()
	}
	return &contentTypes{doc: doc}
}

// override registers content type of part unless it is already known.
func (c *contentTypes) override(part, typ string) {
	name := "/" + part
	for _, el := range c.doc.Root().SelectElements("Override") {
		if strings.EqualFold(el.SelectAttrValue("PartName", ""), name) {
			return
		}
	}
	el := c.doc.Root().CreateElement("Override")
	el.CreateAttr("PartName", name)
	el.CreateAttr("ContentType", typ)
}

func newXMLDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	return doc
}

func newDocumentPart() *etree.Document {
	doc := newXMLDocument()
	root := doc.CreateElement("w:document")
	root.CreateAttr("xmlns:w", wml.NamespaceMain)
	root.CreateAttr("xmlns:r", wml.NamespaceRelationships)
	body := root.CreateElement("w:body")

	// A4 portrait with 1 inch margins
	sect := body.CreateElement("w:sectPr")
	size := sect.CreateElement("w:pgSz")
	size.CreateAttr("w:w", "11906")
	size.CreateAttr("w:h", "16838")
	mar := sect.CreateElement("w:pgMar")
	for _, a := range []string{"w:top", "w:right", "w:bottom", "w:left"} {
		mar.CreateAttr(a, "1440")
	}
	for _, a := range []string{"w:header", "w:footer"} {
		mar.CreateAttr(a, "708")
	}
	mar.CreateAttr("w:gutter", "0")
	return doc
}

// newNotesPart creates notes part with separator notes -1 and 0 Word expects
// in every notes part.
func newNotesPart(kind notes.Kind) *etree.Document {
	doc := newXMLDocument()
	root := doc.CreateElement("w:" + kind.String() + "s")
	root.CreateAttr("xmlns:w", wml.NamespaceMain)
	root.CreateAttr("xmlns:r", wml.NamespaceRelationships)

	for id, typ := range []string{"separator", "continuationSeparator"} {
		el := root.CreateElement("w:" + kind.String())
		el.CreateAttr("w:type", typ)
		el.CreateAttr("w:id", []string{"-1", "0"}[id])
		p := el.CreateElement("w:p")
		ppr := p.CreateElement("w:pPr").CreateElement("w:spacing")
		ppr.CreateAttr("w:after", "0")
		ppr.CreateAttr("w:line", "240")
		ppr.CreateAttr("w:lineRule", "auto")
		p.CreateElement("w:r").CreateElement("w:" + typ)
	}
	return doc
}

func newCorePart() *etree.Document {
	doc := newXMLDocument()
	root := newCoreRoot(doc)

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	root.CreateElement("dc:identifier").SetText("urn:uuid:" + id.String())
	root.CreateElement("dc:creator").SetText(misc.GetAppName())

	now := time.Now().UTC().Format(time.RFC3339)
	for _, tag := range []string{"dcterms:created", "dcterms:modified"} {
		el := root.CreateElement(tag)
		el.CreateAttr("xsi:type", "dcterms:W3CDTF")
		el.SetText(now)
	}
	return doc
}

func newAppPart() *etree.Document {
	doc := newXMLDocument()
	root := doc.CreateElement("Properties")
	root.CreateAttr("xmlns", "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties")
	root.CreateElement("Application").SetText(misc.GetAppName() + " " + misc.GetVersion())
	return doc
}

// relativeTarget returns target of part relative to owner directory.
func relativeTarget(owner, part string) string {
	dir := path.Dir(owner)
	if dir == "." {
		return part
	}
	if rel, ok := strings.CutPrefix(part, dir+"/"); ok {
		return rel
	}
	return "/" + part
}
