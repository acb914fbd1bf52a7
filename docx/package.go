// Package docx reads and writes word processing packages: it supplies
// existing note identifiers and styles to conversion and receives converted
// body content and notes.
package docx

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/beevik/etree"
	"github.com/h2non/filetype"
	fixzip "github.com/hidez8891/zip"
	"go.uber.org/zap"

	"h2w/notes"
	"h2w/style"
	"h2w/wml"
)

var (
	ErrNotDocx     = errors.New("not a word processing document")
	ErrMissingPart = errors.New("document part is missing")
)

//go:embed styles.xml
var defaultStyles []byte

const (
	partContentTypes = "[Content_Types].xml"
	partDocument     = "word/document.xml"
	partStyles       = "word/styles.xml"
	partFootnotes    = "word/footnotes.xml"
	partEndnotes     = "word/endnotes.xml"
	partCore         = "docProps/core.xml"
	partApp          = "docProps/app.xml"
)

// Package is an open document. Parts which were not touched are copied
// unchanged on save.
type Package struct {
	log *zap.Logger

	source *fixzip.Reader
	// parsed xml parts, all of them are written on save
	parts map[string]*etree.Document
	// relationships by owner part name
	rels  map[string]*Relationships
	types *contentTypes

	document  string
	noteParts [2]string
	styles    *style.Styles

	// notes appended during this session
	added [2][]*wml.Note
}

// New creates empty document with default styles.
func New(log *zap.Logger) (*Package, error) {
	p := &Package{
		log:      log.Named("docx"),
		parts:    make(map[string]*etree.Document),
		rels:     make(map[string]*Relationships),
		types:    newContentTypes(),
		document: partDocument,
	}

	root := p.relationships("")
	root.Add(RelOfficeDocument, partDocument, false)
	root.Add(RelCoreProps, partCore, false)
	root.Add(RelExtendedProps, partApp, false)

	p.parts[partDocument] = newDocumentPart()
	p.types.override(partDocument, ctDocument)

	styles := etree.NewDocument()
	if err := styles.ReadFromBytes(defaultStyles); err != nil {
		return nil, fmt.Errorf("unable to parse default styles: %w", err)
	}
	p.parts[partStyles] = styles
	p.types.override(partStyles, ctStyles)
	p.relationships(partDocument).Add(RelStyles, "styles.xml", false)

	for _, kind := range []notes.Kind{notes.Footnote, notes.Endnote} {
		p.createNotesPart(kind)
	}

	p.parts[partCore] = newCorePart()
	p.types.override(partCore, ctCore)
	p.parts[partApp] = newAppPart()
	p.types.override(partApp, ctApp)

	if err := p.loadStyles(); err != nil {
		return nil, err
	}
	return p, nil
}

// OpenFile reads existing document from file.
func OpenFile(name string, log *zap.Logger) (*Package, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("unable to read document (%s): %w", name, err)
	}
	p, err := Open(data, log)
	if err != nil {
		return nil, fmt.Errorf("unable to open document (%s): %w", name, err)
	}
	return p, nil
}

// Open reads existing document. Converted content will be appended to its
// body, its styles and notes are preserved.
func Open(data []byte, log *zap.Logger) (*Package, error) {
	if !filetype.Is(data, "zip") {
		return nil, ErrNotDocx
	}
	zr, err := fixzip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotDocx, err)
	}

	p := &Package{
		log:    log.Named("docx"),
		source: zr,
		parts:  make(map[string]*etree.Document),
		rels:   make(map[string]*Relationships),
	}

	ct, err := p.readPart(partContentTypes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotDocx, err)
	}
	p.types = parseContentTypes(ct)

	root, err := p.loadRelationships("")
	if err != nil {
		return nil, err
	}
	main, ok := root.ByType(RelOfficeDocument)
	if !ok {
		return nil, fmt.Errorf("%w: no main document relationship", ErrNotDocx)
	}
	p.document = root.resolve(main.Target)
	if err := p.loadPart(p.document); err != nil {
		return nil, err
	}
	if p.body() == nil {
		return nil, fmt.Errorf("%w: document has no body", ErrNotDocx)
	}

	docRels, err := p.loadRelationships(p.document)
	if err != nil {
		return nil, err
	}
	for kind, typ := range map[notes.Kind]string{notes.Footnote: RelFootnotes, notes.Endnote: RelEndnotes} {
		rel, ok := docRels.ByType(typ)
		if !ok {
			continue
		}
		name := docRels.resolve(rel.Target)
		if err := p.loadPart(name); err != nil {
			return nil, err
		}
		if _, err := p.loadRelationships(name); err != nil {
			return nil, err
		}
		p.noteParts[kind] = name
	}
	if rel, ok := docRels.ByType(RelStyles); ok {
		name := docRels.resolve(rel.Target)
		if err := p.loadPart(name); err != nil {
			return nil, err
		}
	}
	if err := p.loadStyles(); err != nil {
		return nil, err
	}

	p.log.Debug("Document opened",
		zap.String("main", p.document),
		zap.Ints("footnotes", p.NoteIDs(notes.Footnote)),
		zap.Ints("endnotes", p.NoteIDs(notes.Endnote)))
	return p, nil
}

// Styles returns catalog of document styles.
func (p *Package) Styles() *style.Styles {
	return p.styles
}

// NoteIDs returns identifiers of notes of kind present in the document,
// including separator notes.
func (p *Package) NoteIDs(kind notes.Kind) []int {
	name := p.noteParts[kind]
	if len(name) == 0 {
		return nil
	}
	var ids []int
	for _, el := range p.parts[name].Root().SelectElements("w:" + kind.String()) {
		id, err := strconv.Atoi(el.SelectAttrValue("w:id", ""))
		if err != nil {
			p.log.Debug("Ignoring note with bad id", zap.Stringer("kind", kind), zap.String("id", el.SelectAttrValue("w:id", "")))
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// LastBookmarkID returns highest bookmark id used in document body.
func (p *Package) LastBookmarkID() int {
	last := 0
	for _, el := range p.body().FindElements(".//w:bookmarkStart") {
		if id, err := strconv.Atoi(el.SelectAttrValue("w:id", "")); err == nil {
			last = max(last, id)
		}
	}
	return last
}

// AppendBlocks adds blocks to the end of document body, before final section
// properties.
func (p *Package) AppendBlocks(blocks []wml.Block) {
	body := p.body()
	holder := etree.NewElement("holder")
	wml.NewEncoder(p.relationships(p.document)).Blocks(holder, blocks)

	sect := body.SelectElement("w:sectPr")
	for _, el := range holder.ChildElements() {
		holder.RemoveChild(el)
		if sect != nil {
			body.InsertChild(sect, el)
		} else {
			body.AddChild(el)
		}
	}
}

// AppendNote adds note to notes part of its kind creating the part when
// document has none.
func (p *Package) AppendNote(n *wml.Note) error {
	name := p.noteParts[n.Kind]
	if len(name) == 0 {
		name = p.createNotesPart(n.Kind)
	}
	for _, id := range p.NoteIDs(n.Kind) {
		if id == n.ID {
			return fmt.Errorf("%s %d already exists", n.Kind, n.ID)
		}
	}
	wml.NewEncoder(p.relationships(name)).Note(p.parts[name].Root(), n)
	p.added[n.Kind] = append(p.added[n.Kind], n)
	return nil
}

// Notes returns notes of kind appended to the document.
func (p *Package) Notes(kind notes.Kind) []*wml.Note {
	return p.added[kind]
}

// Relationships returns relationships of part, for notes use NotesPart.
func (p *Package) Relationships(part string) *Relationships {
	return p.relationships(part)
}

// MainPart returns name of the main document part.
func (p *Package) MainPart() string {
	return p.document
}

// NotesPart returns name of part holding notes of kind or empty string.
func (p *Package) NotesPart(kind notes.Kind) string {
	return p.noteParts[kind]
}

// Part returns parsed xml part or nil.
func (p *Package) Part(name string) *etree.Document {
	return p.parts[name]
}

func (p *Package) body() *etree.Element {
	doc := p.parts[p.document]
	if doc == nil || doc.Root() == nil {
		return nil
	}
	return doc.Root().SelectElement("w:body")
}

func (p *Package) relationships(owner string) *Relationships {
	r, ok := p.rels[owner]
	if !ok {
		r = newRelationships(owner)
		p.rels[owner] = r
	}
	return r
}

func (p *Package) loadStyles() error {
	rel, ok := p.relationships(p.document).ByType(RelStyles)
	if !ok {
		p.styles, _ = style.ParseStyles([]byte(`<w:styles xmlns:w="` + wml.NamespaceMain + `"/>`))
		return nil
	}
	doc := p.parts[p.relationships(p.document).resolve(rel.Target)]
	if doc == nil {
		return fmt.Errorf("%w: %s", ErrMissingPart, rel.Target)
	}
	data, err := doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("unable to serialize styles: %w", err)
	}
	if p.styles, err = style.ParseStyles(data); err != nil {
		return err
	}
	return nil
}

func (p *Package) createNotesPart(kind notes.Kind) string {
	name := partFootnotes
	ct := ctFootnotes
	rel := RelFootnotes
	if kind == notes.Endnote {
		name, ct, rel = partEndnotes, ctEndnotes, RelEndnotes
	}
	p.parts[name] = newNotesPart(kind)
	p.types.override(name, ct)
	p.relationships(p.document).Add(rel, relativeTarget(p.document, name), false)
	p.noteParts[kind] = name
	p.log.Debug("Notes part created", zap.String("part", name))
	return name
}

// readPart returns content of source part.
func (p *Package) readPart(name string) ([]byte, error) {
	if p.source == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingPart, name)
	}
	for _, f := range p.source.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("unable to open part '%s': %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("unable to read part '%s': %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingPart, name)
}

func (p *Package) loadPart(name string) error {
	if _, ok := p.parts[name]; ok {
		return nil
	}
	data, err := p.readPart(name)
	if err != nil {
		return err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return fmt.Errorf("unable to parse part '%s': %w", name, err)
	}
	if doc.Root() == nil {
		return fmt.Errorf("%w: %s is empty", ErrMissingPart, name)
	}
	p.parts[name] = doc
	return nil
}

// loadRelationships reads relationships of owner, missing relationships part
// is not an error.
func (p *Package) loadRelationships(owner string) (*Relationships, error) {
	if r, ok := p.rels[owner]; ok {
		return r, nil
	}
	data, err := p.readPart(relsPartName(owner))
	if errors.Is(err, ErrMissingPart) {
		return p.relationships(owner), nil
	}
	if err != nil {
		return nil, err
	}
	r, err := parseRelationships(owner, data)
	if err != nil {
		return nil, err
	}
	p.rels[owner] = r
	return r, nil
}
