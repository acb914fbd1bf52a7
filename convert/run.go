package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	fixzip "github.com/hidez8891/zip"
	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"h2w/archive"
	"h2w/common"
	"h2w/config"
	"h2w/docx"
	"h2w/state"
	treedebug "h2w/utils/debug"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	if err := applyFlags(cmd, env, log); err != nil {
		return err
	}

	b, err := newBatch(env, dst, log)
	if err != nil {
		return err
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)), zap.Int("converted", b.converted))
	}(time.Now())

	return b.process(ctx, src)
}

// applyFlags overrides configuration with command line values.
func applyFlags(cmd *cli.Command, env *state.LocalEnv, log *zap.Logger) (err error) {
	doc := &env.Cfg.Document

	if cmd.IsSet("template") {
		doc.TemplatePath = cmd.String("template")
	}
	if cmd.IsSet("acronym-position") {
		if doc.AcronymPosition, err = common.ParseAcronymPosition(cmd.String("acronym-position")); err != nil {
			return fmt.Errorf("bad acronym position: %w", err)
		}
	}
	if cmd.IsSet("caption-position") {
		if doc.TableCaptionPosition, err = common.ParseCaptionPosition(cmd.String("caption-position")); err != nil {
			return fmt.Errorf("bad caption position: %w", err)
		}
	}
	if cmd.IsSet("pre-as-table") {
		doc.RenderPreAsTable = cmd.Bool("pre-as-table")
	}
	if cmd.IsSet("name-template") {
		doc.OutputNameTemplate = cmd.String("name-template")
	}
	if cmd.Bool("no-meta") {
		doc.Metainformation = false
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	env.Charset = lookupEncoding(cmd.String("charset"), log)
	if env.Charset != nil {
		n, _ := ianaindex.IANA.Name(env.Charset)
		log.Debug("Forcefully decoding input without BOM", zap.String("charset", n))
	}

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	env.CodePage = lookupEncoding(cmd.String("force-zip-cp"), log)
	if env.CodePage != nil {
		n, _ := ianaindex.IANA.Name(env.CodePage)
		log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
	}
	return nil
}

func lookupEncoding(name string, log *zap.Logger) encoding.Encoding {
	if len(name) == 0 {
		return nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		log.Warn("Unknown character set name. Ignoring...", zap.String("charset", name), zap.Error(err))
		return nil
	}
	return enc
}

// batch converts every HTML input found under source. Failures of separate
// inputs do not stop processing, they are collected and returned together.
type batch struct {
	env *state.LocalEnv
	log *zap.Logger
	dst string

	// template document, new document is created from scratch when empty
	template []byte

	converted int
	errs      error
}

func newBatch(env *state.LocalEnv, dst string, log *zap.Logger) (*batch, error) {
	b := &batch{env: env, log: log, dst: dst}

	name := env.Cfg.Document.TemplatePath
	if len(name) == 0 {
		return b, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("unable to read template: %w", err)
	}
	// fail early rather than on every input
	if _, err := docx.Open(data, log); err != nil {
		return nil, fmt.Errorf("unable to use template (%s): %w", name, err)
	}
	b.template = data
	log.Debug("Using template", zap.String("file", name))
	return b, nil
}

// process determines the input type (directory, archive, or single file) and
// processes it accordingly. Archive path may be followed by path inside it.
func (b *batch) process(ctx context.Context, src string) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := b.processDir(ctx, head); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator)))
			if err := b.processArchive(ctx, head, tail, ""); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		page, enc, err := isHTMLFile(head)
		if err != nil {
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if page && len(tail) == 0 {
			b.processPath(ctx, head, filepath.Base(head), enc)
			break
		}
		return fmt.Errorf("input was not recognized as HTML (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return b.errs
}

// processDir finds HTML files and archives under directory and processes
// them in natural name order.
func (b *batch) processDir(ctx context.Context, dir string) error {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			b.log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Sort(natural.StringSlice(paths))

	count := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		isArchive, err := isArchiveFile(path)
		if err != nil {
			b.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if isArchive {
			count++
			if err := b.processArchive(ctx, path, "", filepath.Dir(rel)); err != nil {
				b.log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
				b.errs = multierr.Append(b.errs, err)
			}
			continue
		}

		page, enc, err := isHTMLFile(path)
		if err != nil {
			b.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if !page {
			b.log.Debug("Skipping file, not recognized as HTML or archive", zap.String("file", path))
			continue
		}
		count++
		b.processPath(ctx, path, rel, enc)
	}
	if count == 0 {
		b.log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return nil
}

// processArchive walks all files inside archive, finds HTML files under
// "pathIn" and processes them.
func (b *batch) processArchive(ctx context.Context, path, pathIn, pathOut string) error {
	count := 0
	err := archive.Walk(path, pathIn, func(name string, f *fixzip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, enc, err := isHTMLInArchive(f)
		if err != nil {
			b.log.Warn("Skipping file in archive", zap.String("archive", name), zap.String("path", f.Name), zap.Error(err))
			return nil
		}
		if !page {
			b.log.Debug("Skipping file, not recognized as HTML", zap.String("archive", name), zap.String("file", f.Name))
			return nil
		}
		count++

		r, err := f.Open()
		if err != nil {
			b.fail(fmt.Errorf("unable to open %s in %s: %w", f.Name, name, err))
			return nil
		}
		defer r.Close()

		if err := b.processFile(ctx, b.decoder(r, enc), filepath.Join(pathOut, b.entryName(f))); err != nil {
			b.fail(fmt.Errorf("unable to convert %s in %s: %w", f.Name, name, err))
		}
		return nil
	})
	if err == nil && count == 0 {
		b.log.Debug("Nothing to process", zap.String("archive", path))
	}
	return err
}

// entryName returns name of archive entry, forcing requested code page for
// names which are not marked as UTF-8.
func (b *batch) entryName(f *fixzip.File) string {
	name := f.Name
	cp := b.env.CodePage
	if cp == nil || !f.NonUTF8 {
		return name
	}
	n, err := cp.NewDecoder().String(name)
	if err != nil {
		cs, _ := ianaindex.IANA.Name(cp)
		b.log.Warn("Unable to convert archive name from specified encoding",
			zap.String("charset", cs), zap.String("path", name), zap.Error(err))
		return name
	}
	return n
}

func (b *batch) processPath(ctx context.Context, path, src string, enc srcEncoding) {
	file, err := os.Open(path)
	if err != nil {
		b.fail(fmt.Errorf("unable to open %s: %w", path, err))
		return
	}
	defer file.Close()

	if err := b.processFile(ctx, b.decoder(file, enc), src); err != nil {
		b.fail(fmt.Errorf("unable to convert %s: %w", path, err))
	}
}

func (b *batch) fail(err error) {
	b.log.Error("Unable to process file", zap.Error(err))
	b.errs = multierr.Append(b.errs, err)
}

// decoder returns UTF-8 reader, forced charset only applies to input without
// BOM.
func (b *batch) decoder(r io.Reader, enc srcEncoding) io.Reader {
	if enc == encUnknown && b.env.Charset != nil {
		return b.env.Charset.NewDecoder().Reader(r)
	}
	return selectReader(r, enc)
}

// processFile converts single HTML source into a document. "src" is path of
// the source relative to the original input, always including file name.
func (b *batch) processFile(ctx context.Context, r io.Reader, src string) (rerr error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env, log := b.env, b.log
	refID := newRefID()
	outputName := ""

	log.Info("Conversion starting", zap.String("from", src), zap.String("ref_id", refID))
	defer func(start time.Time) {
		// a broken input must not stop the whole batch
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("conversion panic: %v", r)
		} else if rerr == nil {
			log.Info("Conversion completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.String("ref_id", refID))
		}
	}(time.Now())

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("unable to read source: %w", err)
	}
	md := readMetadata(data, log)

	name := ""
	if tmpl := env.Cfg.Document.OutputNameTemplate; len(tmpl) > 0 {
		if name, err = expandTemplate(md, config.OutputNameTemplateFieldName, tmpl, src, refID); err != nil {
			log.Warn("Unable to prepare output file name, using source name", zap.String("from", src), zap.Error(err))
			name = ""
		}
	}
	outputName = buildOutputPath(src, b.dst, name, env)

	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		if err = os.Remove(outputName); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	var pkg *docx.Package
	if len(b.template) > 0 {
		pkg, err = docx.Open(b.template, log)
	} else {
		pkg, err = docx.New(log)
	}
	if err != nil {
		return fmt.Errorf("unable to prepare document: %w", err)
	}

	conv := NewConverter(&env.Cfg.Document, pkg, pkg.Styles(), log)

	var tw *treedebug.TreeWriter
	if env.Rpt != nil {
		tw = treedebug.NewTreeWriter()
		conv.DumpTo(tw)
		env.Rpt.StoreData(fmt.Sprintf("source-%s.html", refID), data)
	}

	blocks, err := conv.Parse(string(data))
	if tw != nil {
		env.Rpt.StoreData(fmt.Sprintf("tree-%s.txt", refID), []byte(tw.String()))
	}
	if err != nil {
		return fmt.Errorf("unable to convert (%s): %w", src, err)
	}
	if len(blocks) == 0 {
		return fmt.Errorf("%s: %w", src, ErrEmptyInput)
	}

	pkg.AppendBlocks(blocks)
	if env.Cfg.Document.Metainformation {
		if err := pkg.SetCoreProperties(md.CoreProperties()); err != nil {
			return fmt.Errorf("unable to set document properties: %w", err)
		}
	}
	if err := pkg.SaveFile(outputName); err != nil {
		return fmt.Errorf("unable to save document: %w", err)
	}
	b.converted++

	// Store conversion result for debugging
	if env.Rpt != nil {
		env.Rpt.Store(fmt.Sprintf("result-%s%s", refID, filepath.Ext(outputName)), outputName)
	}
	return nil
}

// newRefID returns time ordered id which ties log records and report
// entries of a single conversion together.
func newRefID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
