package docx

import (
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"time"

	"github.com/beevik/etree"
	fixzip "github.com/hidez8891/zip"
	"github.com/maruel/natural"
	"go.uber.org/zap"
)

// Save writes package to w. Parts of the original document which were never
// parsed are copied as is.
func (p *Package) Save(w io.Writer) error {
	generated := p.generated()

	zw := fixzip.NewWriter(w)
	written := make(map[string]bool)

	writePart := func(name string, doc *etree.Document) error {
		f, err := zw.CreateHeader(&fixzip.FileHeader{Name: name, Method: fixzip.Deflate, Modified: time.Now()})
		if err != nil {
			return fmt.Errorf("unable to create part '%s': %w", name, err)
		}
		if _, err := doc.WriteTo(f); err != nil {
			return fmt.Errorf("unable to write part '%s': %w", name, err)
		}
		written[name] = true
		return nil
	}

	if p.source != nil {
		for _, file := range p.source.File {
			if doc, ok := generated[file.Name]; ok {
				if err := writePart(file.Name, doc); err != nil {
					return err
				}
				continue
			}
			// unset data descriptor flag.
			file.Flags &= ^fixzip.FlagDataDescriptor
			if err := zw.CopyFile(file); err != nil {
				return fmt.Errorf("unable to copy part '%s': %w", file.Name, err)
			}
			written[file.Name] = true
		}
	}

	// new parts: content types and package relationships first
	var names []string
	for name := range generated {
		if !written[name] {
			names = append(names, name)
		}
	}
	sort.Sort(natural.StringSlice(names))
	for _, first := range []string{relsPartName(""), partContentTypes} {
		if i := slices.Index(names, first); i > 0 {
			names = slices.Insert(slices.Delete(names, i, i+1), 0, first)
		}
	}
	for _, name := range names {
		if err := writePart(name, generated[name]); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("unable to finalize document: %w", err)
	}
	p.log.Debug("Document saved", zap.Int("parts", len(written)))
	return nil
}

// SaveFile writes package to file.
func (p *Package) SaveFile(name string) (err error) {
	out, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("unable to create document (%s): %w", name, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("unable to close document (%s): %w", name, cerr)
		}
	}()
	return p.Save(out)
}

// generated returns all parts which are serialized from memory.
func (p *Package) generated() map[string]*etree.Document {
	out := make(map[string]*etree.Document, len(p.parts)+len(p.rels)+1)
	for name, doc := range p.parts {
		out[name] = doc
	}
	for owner, r := range p.rels {
		if len(r.Items()) == 0 {
			continue
		}
		out[relsPartName(owner)] = r.document()
	}
	out[partContentTypes] = p.types.doc
	return out
}
