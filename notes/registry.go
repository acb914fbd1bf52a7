// Package notes allocates footnote and endnote identifiers.
package notes

import (
	"fmt"

	"h2w/common"
)

// Kind tells which collection a note belongs to.
type Kind int

const (
	Footnote Kind = iota
	Endnote
)

func (k Kind) String() string {
	switch k {
	case Footnote:
		return "footnote"
	case Endnote:
		return "endnote"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// KindFor maps placement policy to the note kind.
func KindFor(pos common.AcronymPosition) Kind {
	if pos == common.AcronymPositionDocumentEnd {
		return Endnote
	}
	return Footnote
}

// Registry hands out note identifiers unique per kind. Each conversion owns
// its own registry, it is not safe for concurrent use.
type Registry struct {
	last [2]int
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Initialize records identifiers already present in the document, later
// allocations will be above all of them. Calling it again never lowers the
// counter.
func (r *Registry) Initialize(kind Kind, existing []int) {
	for _, id := range existing {
		r.last[kind] = max(r.last[kind], id)
	}
}

// Allocate returns next identifier of the kind. Identifiers start at 1,
// lower values are reserved for separator notes.
func (r *Registry) Allocate(kind Kind) int {
	r.last[kind] = max(r.last[kind], 0) + 1
	return r.last[kind]
}
