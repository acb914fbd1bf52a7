// Package debug formats conversion internals for debug reports.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

// longer text values are shortened in dumps
const maxTextLen = 256

// Dumper is implemented by structures which can write themselves into a
// tree dump: markup nodes and table grids.
type Dumper interface {
	Dump(tw *TreeWriter, depth int)
}

// TreeWriter accumulates indented text representation of trees.
type TreeWriter struct {
	w        *strings.Builder
	sections int
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw *TreeWriter) String() string {
	return tw.w.String()
}

// Section starts numbered section, sections are separated by empty line.
func (tw *TreeWriter) Section(format string, args ...any) {
	if tw.sections > 0 {
		tw.w.WriteByte('\n')
	}
	tw.sections++
	fmt.Fprintf(tw.w, "=== %d: ", tw.sections)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// Dump writes all items at depth.
func (tw *TreeWriter) Dump(depth int, items ...Dumper) {
	for _, it := range items {
		it.Dump(tw, depth)
	}
}

func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

func (tw *TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

func (tw *TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	runes := []rune(raw)
	if len(runes) <= maxTextLen {
		return strconv.Quote(raw)
	}
	return fmt.Sprintf("%s... (%d more)", strconv.Quote(string(runes[:maxTextLen])), len(runes)-maxTextLen)
}
