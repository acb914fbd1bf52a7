package convert

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"

	"h2w/config"
	"h2w/state"
)

const outputExt = ".docx"

// buildOutputPath returns output file path for source. "src" is path of the
// source relative to the original input (just base name for a single file).
// Unless directory structure is suppressed it is repeated under dst. When
// name is not empty it replaces source file name. Every path segment is
// cleaned and, if requested, transliterated.
func buildOutputPath(src, dst, name string, env *state.LocalEnv) string {
	segments := splitPathSegments(filepath.FromSlash(src))
	if len(segments) == 0 {
		return filepath.Join(dst, "document"+outputExt)
	}

	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, dst)
	if !env.NoDirs {
		for _, s := range segments[:len(segments)-1] {
			if s == "." {
				continue
			}
			parts = append(parts, cleanPathSegment(s, env))
		}
	}
	if len(strings.TrimSpace(name)) > 0 {
		parts = append(parts, cleanPathSegment(name, env)+outputExt)
	} else {
		parts = append(parts, makeDefaultFileName(segments[len(segments)-1], env))
	}
	return filepath.Join(parts...)
}

func makeDefaultFileName(src string, env *state.LocalEnv) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return cleanPathSegment(base, env) + outputExt
}

func splitPathSegments(path string) []string {
	path = strings.TrimSuffix(path, string(filepath.Separator))
	segments := make([]string, 0, 8)

	for head, tail := filepath.Split(path); tail != ""; head, tail = filepath.Split(head) {
		segments = slices.Insert(segments, 0, tail)
		head = strings.TrimSuffix(head, string(filepath.Separator))
		if head == "" {
			break
		}
	}
	return segments
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Document.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
