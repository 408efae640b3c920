// SPDX-License-Identifier: MPL-2.0

// Package sexp provides the node model shared by the reader, the include
// engine, and the binding layer.
//
// A tree is built from two node kinds:
//   - [Atom]: a leaf holding one literal value
//   - [Seq]: an ordered list of nodes
//
// Every node carries a [Location] naming the resource its text came from. When
// a node is spliced into another document, its location is rebased so that
// Location.Source points at the directive that pulled it in; following Source
// repeatedly always ends at the root document.
//
// Sequences whose head atom is a reserved word are directives, see [Directive].
package sexp
