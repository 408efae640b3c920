// SPDX-License-Identifier: MPL-2.0

package sexp

import (
	"fmt"
	"strings"
)

// Location records the physical resource a node's text came from and, through
// Source, the directive whose expansion pulled the node into the current tree.
//
// Locations are values. Rebasing produces a new Location and never touches the
// one it was derived from, so the Source chain cannot loop and always ends at a
// Location whose Source is nil.
type Location struct {
	// Name is the URI of the resource holding the node's literal text.
	Name string
	// Line is the 1-based line of the node's first token (0 when synthetic).
	Line int
	// Column is the 1-based column of the node's first token (0 when synthetic).
	Column int
	// Source is the location of the directive that introduced this node, or
	// nil for nodes that belong to the root document.
	Source *Location
}

// Rebase returns a copy of l whose Source is including. A nil including
// location means the node is being expanded at the root and l is returned as is.
func (l Location) Rebase(including *Location) Location {
	if including == nil {
		return l
	}
	l.Source = including
	return l
}

// IsRoot reports whether the location belongs to the root document.
func (l Location) IsRoot() bool { return l.Source == nil }

// Depth returns the number of include hops between l and the root document.
func (l Location) Depth() int {
	depth := 0
	for s := l.Source; s != nil; s = s.Source {
		depth++
	}
	return depth
}

// Chain returns l followed by every location reached through Source, ending
// with the root document's directive.
func (l Location) Chain() []Location {
	chain := []Location{l}
	for s := l.Source; s != nil; s = s.Source {
		chain = append(chain, *s)
	}
	return chain
}

// Position formats the physical position as name:line:column, omitting the
// numeric parts for synthetic locations.
func (l Location) Position() string {
	if l.Line == 0 {
		return l.Name
	}
	return fmt.Sprintf("%s:%d:%d", l.Name, l.Line, l.Column)
}

// String formats the position followed by the include chain, e.g.
// "mem://b:1:1 (included from mem://a:1:10)".
func (l Location) String() string {
	var sb strings.Builder
	sb.WriteString(l.Position())
	for s := l.Source; s != nil; s = s.Source {
		sb.WriteString(" (included from ")
		sb.WriteString(s.Position())
		sb.WriteString(")")
	}
	return sb.String()
}
