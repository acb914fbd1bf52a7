package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/maruel/natural"

	"h2w/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates empty debug report.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	r := &Report{entries: make(map[string]entry)}

	f, err := os.Create(conf.Destination)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err != nil {
			return nil, fmt.Errorf("unable to create report: %w", err)
		}
	}
	r.file = f
	return r, nil
}

type entry struct {
	path  string
	stamp time.Time
	data  []byte
}

// Report accumulates files and data for debug archive, which is written when
// report is closed. Not safe for concurrent use.
//
// All methods are safe to call on nil Report, which means no report was
// requested.
type Report struct {
	entries map[string]entry
	file    *os.File
}

// Close writes accumulated entries into report archive.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	defer r.file.Close()
	return r.finalize()
}

// Name returns absolute name of the report archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store remembers file to be copied into report when it is closed, so file
// content will be as of that moment.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	if p, err := filepath.Abs(path); err == nil {
		path = p
	}
	if old, exists := r.entries[name]; exists && old.path != path {
		panic(fmt.Sprintf("attempt to overwrite report entry [%s]: was %s, now %s", name, old.path, path))
	}
	r.entries[name] = entry{path: path}
}

// StoreData puts data into report under requested name. Names already taken
// get time suffix.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	e := entry{data: data, stamp: time.Now()}
	if _, exists := r.entries[name]; exists {
		name = fmt.Sprintf("%s-%d", name, e.stamp.UnixNano())
	}
	r.entries[name] = e
}

func (r *Report) finalize() error {
	arc := zip.NewWriter(r.file)

	names := make([]string, 0, len(r.entries))
	for k := range r.entries {
		names = append(names, k)
	}
	sort.Sort(natural.StringSlice(names))

	now := time.Now()
	manifest := new(bytes.Buffer)
	for _, name := range names {
		e := r.entries[name]
		if e.stamp.IsZero() {
			e.stamp = now
		}
		fmt.Fprintf(manifest, "%s\t%s\t%s\n", e.stamp.UTC().Format(time.UnixDate), name, e.path)
	}
	if err := saveFile(arc, "MANIFEST", now, manifest); err != nil {
		return err
	}

	for _, name := range names {
		e := r.entries[name]
		if len(e.path) == 0 {
			if err := saveFile(arc, name, e.stamp, bytes.NewReader(e.data)); err != nil {
				return err
			}
			continue
		}
		info, err := os.Stat(e.path)
		if err != nil || !info.Mode().IsRegular() {
			// absent files are not an error, log may never have been written
			continue
		}
		f, err := os.Open(e.path)
		if err != nil {
			return err
		}
		err = saveFile(arc, name, info.ModTime(), f)
		f.Close()
		if err != nil {
			return err
		}
	}
	return arc.Close()
}

func saveFile(dst *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := dst.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
