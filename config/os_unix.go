//go:build !windows

package config

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// CleanFileName drops path separators and leading dots from file name.
func CleanFileName(in string) string {
	out := strings.TrimLeft(strings.Map(func(sym rune) rune {
		if sym == os.PathSeparator || sym == os.PathListSeparator || sym == 0 {
			return -1
		}
		return sym
	}, in), ".")
	if len(out) == 0 {
		return "_bad_file_name_"
	}
	return out
}

// EnableColorOutput reports whether stream is a terminal.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}
