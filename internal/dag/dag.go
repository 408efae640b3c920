// SPDX-License-Identifier: MPL-2.0

// Package dag builds the include graph of a resolved document and orders it
// so that every document comes after the documents it pulls in.
//
// The graph is recovered from provenance alone: a node whose Location has a
// Source was read from Location.Name because of a directive in
// Source.Name. A single include path never loops, but two paths can include
// the same pair of documents in opposite directions, so ordering can still
// fail with a CycleError.
package dag

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sxinclude/sxinclude/pkg/sexp"
)

type (
	// CycleError lists the documents that include each other.
	CycleError struct {
		Documents []string
	}

	// Graph is a directed graph of document names. An edge from A to B
	// means A is included by B, so A must be read first.
	Graph struct {
		// dependents maps each document to the documents that include it.
		dependents map[string][]string
		// nodes holds every document in first-seen order.
		nodes []string
		seen  map[string]struct{}
		edges map[[2]string]struct{}
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("documents include each other: %s", strings.Join(e.Documents, ", "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		dependents: make(map[string][]string),
		seen:       make(map[string]struct{}),
		edges:      make(map[[2]string]struct{}),
	}
}

// FromForms builds the graph of a document named root from its expanded forms.
func FromForms(root string, forms []sexp.Node) *Graph {
	g := New()
	g.AddDocument(root)
	for _, f := range forms {
		sexp.Walk(f, func(n sexp.Node) bool {
			g.addChain(n.Location())
			return true
		})
	}
	return g
}

// addChain records every hop of loc's provenance chain.
func (g *Graph) addChain(loc sexp.Location) {
	for l := loc; l.Source != nil; l = *l.Source {
		g.AddInclude(l.Source.Name, l.Name)
	}
}

// AddDocument adds a node. Adding it twice is a no-op.
func (g *Graph) AddDocument(name string) {
	if _, ok := g.seen[name]; ok {
		return
	}
	g.seen[name] = struct{}{}
	g.nodes = append(g.nodes, name)
}

// AddInclude records that including pulled in included. Both documents are
// added if missing; repeated edges are ignored.
func (g *Graph) AddInclude(including, included string) {
	g.AddDocument(including)
	g.AddDocument(included)
	key := [2]string{included, including}
	if _, ok := g.edges[key]; ok {
		return
	}
	g.edges[key] = struct{}{}
	g.dependents[included] = append(g.dependents[included], including)
}

// Documents returns every document in first-seen order.
func (g *Graph) Documents() []string { return slices.Clone(g.nodes) }

// Includes returns the documents directly included by name, sorted.
func (g *Graph) Includes(name string) []string {
	var out []string
	for key := range g.edges {
		if key[1] == name {
			out = append(out, key[0])
		}
	}
	slices.Sort(out)
	return out
}

// Order returns the documents with every document after all the documents
// it includes, using Kahn's algorithm. The order is deterministic: leaves
// are seeded latest-seen first, so the deepest documents lead.
func (g *Graph) Order() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	pending := make(map[string]int, len(g.nodes))
	for key := range g.edges {
		pending[key[1]]++
	}

	var queue []string
	for _, node := range slices.Backward(g.nodes) {
		if pending[node] == 0 {
			queue = append(queue, node)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, dependent := range g.dependents[node] {
			pending[dependent]--
			if pending[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(g.nodes) {
		var stuck []string
		for _, node := range g.nodes {
			if pending[node] > 0 {
				stuck = append(stuck, node)
			}
		}
		return nil, &CycleError{Documents: stuck}
	}
	return result, nil
}
