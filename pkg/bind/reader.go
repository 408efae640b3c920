// SPDX-License-Identifier: MPL-2.0

// Package bind reads typed values out of resolved documents.
//
// A [MultiAtomReader] tries a list of [AtomReader] delegates in order, then a
// table of named constructors. Atoms that nothing accepts are reported to the
// [ReadContext] as unexpected terms, through the same sink the include engine
// uses, so resolution and binding problems surface together.
package bind

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/sxinclude/sxinclude/pkg/diag"
	"github.com/sxinclude/sxinclude/pkg/sexp"
)

// ErrUnexpectedTerm is the sentinel error wrapped by UnexpectedTermError.
var ErrUnexpectedTerm = errors.New("unexpected term")

type (
	// AtomReader converts atom text into a T. Read returns false when the
	// text is not something this reader understands.
	AtomReader[T any] interface {
		Read(value string) (T, bool)
		// LegalValues describes the accepted text for diagnostics.
		LegalValues() []string
	}

	// ReadContext carries the sink that binding problems are reported to.
	// It is safe for concurrent use.
	ReadContext struct {
		sink     diag.ErrorSink
		failures atomic.Int64
	}

	// MultiAtomReader reads a T by consulting delegates first and then
	// fallbacks, a table of constructors keyed by bind name.
	MultiAtomReader[T any] struct {
		typeName  string
		delegates []AtomReader[T]
		fallbacks map[string]func() T
		legal     []string
	}

	// UnexpectedTermError is returned when no delegate or fallback accepts
	// an atom. It wraps ErrUnexpectedTerm for errors.Is().
	UnexpectedTermError struct {
		Term     string
		TypeName string
		Legal    []string
		Location sexp.Location
	}
)

// NewReadContext returns a context reporting to sink. A nil sink discards.
func NewReadContext(sink diag.ErrorSink) *ReadContext {
	if sink == nil {
		sink = diag.SinkFunc(func(diag.Diagnostic) {})
	}
	return &ReadContext{sink: sink}
}

// Handle implements diag.ErrorSink.
func (c *ReadContext) Handle(d diag.Diagnostic) {
	if d.Severity == diag.SeverityError {
		c.failures.Add(1)
	}
	c.sink.Handle(d)
}

// Failures returns how many error diagnostics went through the context.
func (c *ReadContext) Failures() int { return int(c.failures.Load()) }

// NewMultiAtomReader builds a reader for values named typeName in
// diagnostics. The legal values are every delegate's, then every fallback
// name, without duplicates.
func NewMultiAtomReader[T any](typeName string, delegates []AtomReader[T], fallbacks map[string]func() T) *MultiAtomReader[T] {
	m := &MultiAtomReader[T]{
		typeName:  typeName,
		delegates: slices.Clone(delegates),
		fallbacks: make(map[string]func() T, len(fallbacks)),
	}
	for _, d := range delegates {
		for _, v := range d.LegalValues() {
			if !slices.Contains(m.legal, v) {
				m.legal = append(m.legal, v)
			}
		}
	}
	names := make([]string, 0, len(fallbacks))
	for name, ctor := range fallbacks {
		m.fallbacks[name] = ctor
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if !slices.Contains(m.legal, name) {
			m.legal = append(m.legal, name)
		}
	}
	return m
}

// LegalValues returns what the reader accepts, for help text and diagnostics.
func (m *MultiAtomReader[T]) LegalValues() []string { return slices.Clone(m.legal) }

// Read converts atom. When nothing accepts it, an unexpected_term diagnostic
// is reported to ctx and an *UnexpectedTermError is returned.
func (m *MultiAtomReader[T]) Read(ctx *ReadContext, atom *sexp.Atom) (T, error) {
	value := atom.Value()
	for _, d := range m.delegates {
		if v, ok := d.Read(value); ok {
			return v, nil
		}
	}
	if ctor, ok := m.fallbacks[value]; ok {
		return ctor(), nil
	}

	return m.unexpected(ctx, value, atom.Location())
}

// ReadNode is Read for an arbitrary node. Lists are never a legal term.
func (m *MultiAtomReader[T]) ReadNode(ctx *ReadContext, n sexp.Node) (T, error) {
	if atom, ok := n.(*sexp.Atom); ok {
		return m.Read(ctx, atom)
	}
	return m.unexpected(ctx, n.String(), n.Location())
}

// ReadAll reads every node, reporting each failure, and returns the values
// that could be read together with the first error.
func (m *MultiAtomReader[T]) ReadAll(ctx *ReadContext, nodes []sexp.Node) ([]T, error) {
	var (
		out      []T
		firstErr error
	)
	for _, n := range nodes {
		v, err := m.ReadNode(ctx, n)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out = append(out, v)
	}
	return out, firstErr
}

func (m *MultiAtomReader[T]) unexpected(ctx *ReadContext, term string, loc sexp.Location) (T, error) {
	err := &UnexpectedTermError{Term: term, TypeName: m.typeName, Legal: m.LegalValues(), Location: loc}
	ctx.Handle(diag.Diagnostic{
		Severity: diag.SeverityError,
		Code:     diag.CodeUnexpectedTerm,
		Message:  err.Error(),
		Location: loc,
		Cause:    err,
	})
	var zero T
	return zero, err
}

// Error implements the error interface.
func (e *UnexpectedTermError) Error() string {
	if len(e.Legal) == 0 {
		return fmt.Sprintf("unexpected term %q for %s", e.Term, e.TypeName)
	}
	return fmt.Sprintf("unexpected term %q for %s (expected one of: %s)", e.Term, e.TypeName, strings.Join(e.Legal, ", "))
}

// Unwrap returns ErrUnexpectedTerm for errors.Is() compatibility.
func (e *UnexpectedTermError) Unwrap() error { return ErrUnexpectedTerm }
