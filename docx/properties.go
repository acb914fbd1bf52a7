package docx

import (
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"h2w/misc"
)

// CoreProperties is descriptive document information. Empty values leave
// properties of the document unchanged.
type CoreProperties struct {
	Title       string
	Authors     []string
	Description string
	Keywords    []string
	Language    string
}

var coreNamespaces = [][2]string{
	{"xmlns:cp", "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"},
	{"xmlns:dc", "http://purl.org/dc/elements/1.1/"},
	{"xmlns:dcterms", "http://purl.org/dc/terms/"},
	{"xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance"},
}

// SetCoreProperties updates core properties part, creating it when document
// does not have one.
func (p *Package) SetCoreProperties(props CoreProperties) error {
	name, err := p.corePart()
	if err != nil {
		return err
	}
	root := p.parts[name].Root()
	for _, ns := range coreNamespaces {
		if root.SelectAttr(ns[0]) == nil {
			root.CreateAttr(ns[0], ns[1])
		}
	}

	set := func(tag, value string) {
		if len(value) == 0 {
			return
		}
		el := root.SelectElement(tag)
		if el == nil {
			el = root.CreateElement(tag)
		}
		el.SetText(value)
	}
	set("dc:title", props.Title)
	set("dc:creator", strings.Join(props.Authors, "; "))
	set("dc:description", props.Description)
	set("cp:keywords", strings.Join(props.Keywords, ", "))
	set("dc:language", props.Language)
	set("cp:lastModifiedBy", misc.GetAppName())

	modified := root.SelectElement("dcterms:modified")
	if modified == nil {
		modified = root.CreateElement("dcterms:modified")
	}
	if modified.SelectAttr("xsi:type") == nil {
		modified.CreateAttr("xsi:type", "dcterms:W3CDTF")
	}
	modified.SetText(time.Now().UTC().Format(time.RFC3339))

	p.log.Debug("Core properties set", zap.String("part", name), zap.String("title", props.Title))
	return nil
}

// CoreProperty returns text of core property element, for example "dc:title".
func (p *Package) CoreProperty(tag string) string {
	rel, ok := p.relationships("").ByType(RelCoreProps)
	if !ok {
		return ""
	}
	name := p.relationships("").resolve(rel.Target)
	if err := p.loadPart(name); err != nil {
		return ""
	}
	if el := p.parts[name].Root().SelectElement(tag); el != nil {
		return el.Text()
	}
	return ""
}

func (p *Package) corePart() (string, error) {
	root := p.relationships("")
	if rel, ok := root.ByType(RelCoreProps); ok {
		name := root.resolve(rel.Target)
		if err := p.loadPart(name); err != nil {
			return "", fmt.Errorf("unable to load core properties: %w", err)
		}
		return name, nil
	}

	p.parts[partCore] = newCorePart()
	p.types.override(partCore, ctCore)
	root.Add(RelCoreProps, partCore, false)
	p.log.Debug("Core properties part created", zap.String("part", partCore))
	return partCore, nil
}

func newCoreRoot(doc *etree.Document) *etree.Element {
	root := doc.CreateElement("cp:coreProperties")
	for _, ns := range coreNamespaces {
		root.CreateAttr(ns[0], ns[1])
	}
	return root
}
