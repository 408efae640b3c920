// SPDX-License-Identifier: MPL-2.0

package sexp

import (
	"slices"
	"strings"
)

type (
	// Node is either an *Atom or a *Seq. The set of implementations is closed;
	// callers switch on the concrete type.
	Node interface {
		// Location returns where the node came from.
		Location() Location
		// String prints the node in S-expression syntax.
		String() string

		sealed()
	}

	// Atom is a leaf holding one literal value.
	Atom struct {
		value string
		loc   Location
	}

	// Seq is an ordered list of nodes.
	Seq struct {
		children []Node
		loc      Location
	}
)

// NewAtom returns an atom with the given value and location.
func NewAtom(value string, loc Location) *Atom {
	return &Atom{value: value, loc: loc}
}

// NewSeq returns a sequence holding children in order. The children slice is
// copied; later changes to it do not affect the Seq.
func NewSeq(loc Location, children ...Node) *Seq {
	return &Seq{children: slices.Clone(children), loc: loc}
}

// Value returns the atom's literal text.
func (a *Atom) Value() string { return a.value }

// Location implements Node.
func (a *Atom) Location() Location { return a.loc }

// String implements Node, quoting the value when it would not read back as a
// single atom.
func (a *Atom) String() string { return quoteAtom(a.value) }

func (*Atom) sealed() {}

// Location implements Node.
func (s *Seq) Location() Location { return s.loc }

// Len returns the number of children.
func (s *Seq) Len() int { return len(s.children) }

// At returns the i-th child.
func (s *Seq) At(i int) Node { return s.children[i] }

// Children returns a copy of the child list.
func (s *Seq) Children() []Node { return slices.Clone(s.children) }

// Head returns the first child when it is an atom.
func (s *Seq) Head() (*Atom, bool) {
	if len(s.children) == 0 {
		return nil, false
	}
	a, ok := s.children[0].(*Atom)
	return a, ok
}

// Tail returns a copy of every child after the first.
func (s *Seq) Tail() []Node {
	if len(s.children) == 0 {
		return nil
	}
	return slices.Clone(s.children[1:])
}

// String implements Node.
func (s *Seq) String() string {
	var sb strings.Builder
	writeNode(&sb, s)
	return sb.String()
}

func (*Seq) sealed() {}

// Rebase returns a deep copy of n in which every node's location has Source
// replaced by including. A nil including location returns n unchanged.
func Rebase(n Node, including *Location) Node {
	if including == nil {
		return n
	}
	switch v := n.(type) {
	case *Atom:
		return NewAtom(v.value, v.loc.Rebase(including))
	case *Seq:
		children := make([]Node, len(v.children))
		for i, c := range v.children {
			children[i] = Rebase(c, including)
		}
		return &Seq{children: children, loc: v.loc.Rebase(including)}
	default:
		return n
	}
}

// Walk calls fn for n and every node below it in depth-first order. Returning
// false from fn skips the children of the current node.
func Walk(n Node, fn func(Node) bool) {
	if !fn(n) {
		return
	}
	if s, ok := n.(*Seq); ok {
		for _, c := range s.children {
			Walk(c, fn)
		}
	}
}

// Atoms returns every atom below n in document order.
func Atoms(n Node) []*Atom {
	var atoms []*Atom
	Walk(n, func(n Node) bool {
		if a, ok := n.(*Atom); ok {
			atoms = append(atoms, a)
		}
		return true
	})
	return atoms
}
