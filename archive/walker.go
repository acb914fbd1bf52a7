// Package archive builds Walk abstraction on top of zip reader.
package archive

import (
	"fmt"
	"path"
	"sort"
	"strings"

	fixzip "github.com/hidez8891/zip"
	"github.com/maruel/natural"
)

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed to Walk
// The file argument is the zip file entry which satisfies match condition. If
// an error is returned, processing stops.
type WalkFunc func(archive string, file *fixzip.File) error

// Walk walks all files in the archive whose names start with pattern in
// natural name order, calling walkFn for each item. Archive with entries
// which have path traversal components ("..") or absolute paths is rejected
// before anything is visited.
func Walk(archive, pattern string, walkFn WalkFunc) error {
	r, err := fixzip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	byName := make(map[string]*fixzip.File, len(r.File))
	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		name := f.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(name, pattern) {
			continue
		}
		if _, dup := byName[name]; dup {
			continue
		}
		byName[name] = f
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))

	for _, name := range names {
		if err := walkFn(archive, byName[name]); err != nil {
			return err
		}
	}
	return nil
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(strings.ReplaceAll(name, `\`, "/"), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
