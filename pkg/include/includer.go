// SPDX-License-Identifier: MPL-2.0

package include

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/sxinclude/sxinclude/pkg/diag"
	"github.com/sxinclude/sxinclude/pkg/sexp"
)

// SyntheticRoot names the document passed to CollectFromRoot.
const SyntheticRoot Target = "root:"

type (
	// Document is a fully expanded document: its name and top-level forms.
	Document struct {
		Name  Target
		Forms []sexp.Node
	}

	// resolution is the state owned by one top-level call. The module set
	// lives for the whole call; the include stack is passed down explicitly
	// so that it only ever holds the current path.
	resolution struct {
		ctx      context.Context
		resolver Resolver
		sink     diag.ErrorSink
		modules  map[Target]struct{}
	}

	// includeStack holds the targets currently being expanded, the root
	// document first.
	includeStack []Target
)

// Source fetches and parses root, then expands every directive in it.
//
// A root that cannot be fetched or parsed has no partial tree and is returned
// as an error. Every other problem is reported to sink and the offending
// directive is left out of the result.
func Source(ctx context.Context, resolver Resolver, root Target, sink diag.ErrorSink) (sexp.Node, error) {
	doc, err := SourceDocument(ctx, resolver, root, sink)
	if err != nil {
		return nil, err
	}
	return doc.Node(), nil
}

// SourceDocument is Source returning every top-level form of the root.
func SourceDocument(ctx context.Context, resolver Resolver, root Target, sink diag.ErrorSink) (*Document, error) {
	if err := root.Validate(); err != nil {
		return nil, err
	}
	rc, err := resolver.Resolve(ctx, root, sink)
	if err != nil {
		return nil, fmt.Errorf("fetch root document: %w", err)
	}
	defer rc.Close() //nolint:errcheck // read-only document

	return ExpandDocument(ctx, resolver, root, rc, sink)
}

// CollectFromRoot parses text as a document named SyntheticRoot and expands it.
func CollectFromRoot(ctx context.Context, resolver Resolver, text string, sink diag.ErrorSink) (sexp.Node, error) {
	doc, err := ExpandDocument(ctx, resolver, SyntheticRoot, strings.NewReader(text), sink)
	if err != nil {
		return nil, err
	}
	return doc.Node(), nil
}

// ExpandDocument parses the text in r as the root document name and expands
// it. The include stack and module set are fresh for every call.
func ExpandDocument(ctx context.Context, resolver Resolver, name Target, r io.Reader, sink diag.ErrorSink) (*Document, error) {
	forms, err := sexp.ParseReader(string(name), r)
	if err != nil {
		return nil, fmt.Errorf("parse root document: %w", err)
	}

	res := &resolution{
		ctx:      ctx,
		resolver: resolver,
		sink:     sink,
		modules:  make(map[Target]struct{}),
	}
	return &Document{Name: name, Forms: res.expandAll(forms, includeStack{name}, nil)}, nil
}

// Node returns the document as a single node: its only form, or a headless
// Seq located at the document when it has zero or several forms.
func (d *Document) Node() sexp.Node {
	if len(d.Forms) == 1 {
		return d.Forms[0]
	}
	return sexp.NewSeq(sexp.Location{Name: string(d.Name)}, d.Forms...)
}

func (s includeStack) contains(t Target) bool { return slices.Contains(s, t) }

// nested reports whether expansion is inside at least one include.
func (s includeStack) nested() bool { return len(s) > 1 }

// push returns a new stack; s itself is never modified.
func (s includeStack) push(t Target) includeStack {
	return append(slices.Clip(s), t)
}

// expandAll expands nodes in order and concatenates the results.
func (r *resolution) expandAll(nodes []sexp.Node, stack includeStack, including *sexp.Location) []sexp.Node {
	out := make([]sexp.Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, r.expand(n, stack, including)...)
	}
	return out
}

// expand rewrites one node. It returns zero nodes for elided directives and
// possibly many for includes, which splice rather than wrap.
func (r *resolution) expand(n sexp.Node, stack includeStack, including *sexp.Location) []sexp.Node {
	switch v := n.(type) {
	case *sexp.Atom:
		return []sexp.Node{sexp.NewAtom(v.Value(), v.Location().Rebase(including))}
	case *sexp.Seq:
		loc := v.Location().Rebase(including)
		switch sexp.DirectiveOf(v) {
		case sexp.Include:
			return r.include(sexp.NewSeq(loc, v.Children()...), stack)
		case sexp.NoInclude:
			if stack.nested() {
				return nil
			}
			return r.expandAll(v.Tail(), stack, including)
		case sexp.IncludeModules:
			return r.includeModules(sexp.NewSeq(loc, v.Children()...))
		case sexp.Module:
			return []sexp.Node{sexp.Rebase(v, including)}
		default:
			return []sexp.Node{sexp.NewSeq(loc, r.expandAll(v.Children(), stack, including)...)}
		}
	default:
		return nil
	}
}

// include splices the expanded forms of the directive's target. The
// directive's own location becomes the including location of everything
// read from the target.
func (r *resolution) include(directive *sexp.Seq, stack includeStack) []sexp.Node {
	target, ok := r.resolver.Convert(directive, r.sink)
	if !ok {
		return nil
	}
	if stack.contains(target) {
		r.sink.Handle(diag.Diagnostic{
			Severity: diag.SeverityError,
			Code:     diag.CodeCyclicInclude,
			Message:  fmt.Sprintf("cyclic include of %s (include path: %s)", target, formatPath(stack, target)),
			Location: directive.Location(),
			Target:   string(target),
		})
		return nil
	}

	forms, ok := r.fetch(target, directive)
	if !ok {
		return nil
	}
	loc := directive.Location()
	return r.expandAll(forms, stack.push(target), &loc)
}

// includeModules converts each reference in the tail on its own and returns
// the ~module forms collected from every target not seen before in this call.
func (r *resolution) includeModules(directive *sexp.Seq) []sexp.Node {
	head, _ := directive.Head()
	tail := directive.Tail()
	if len(tail) == 0 {
		reportMalformed(r.sink, directive, "expected at least one module reference")
		return nil
	}

	var out []sexp.Node
	for _, ref := range tail {
		single := sexp.NewSeq(directive.Location(), head, ref)
		target, ok := r.resolver.Convert(single, r.sink)
		if !ok {
			continue
		}
		out = append(out, r.collectModules(target, directive)...)
	}
	return out
}

// collectModules reads target once per call. Nested include-modules forms
// contribute first, then the target's own ~module forms; anything else in
// the target is discarded.
func (r *resolution) collectModules(target Target, directive *sexp.Seq) []sexp.Node {
	if _, seen := r.modules[target]; seen {
		slog.Debug("module document already collected", "target", string(target))
		return nil
	}
	r.modules[target] = struct{}{}

	forms, ok := r.fetch(target, directive)
	if !ok {
		return nil
	}

	including := directive.Location()
	var nested, own []sexp.Node
	for _, f := range forms {
		switch sexp.DirectiveOf(f) {
		case sexp.IncludeModules:
			rebased, _ := sexp.Rebase(f, &including).(*sexp.Seq)
			nested = append(nested, r.includeModules(rebased)...)
		case sexp.Module:
			own = append(own, sexp.Rebase(f, &including))
		default:
		}
	}
	return append(nested, own...)
}

// fetch resolves and parses target, reporting failures against directive.
func (r *resolution) fetch(target Target, directive *sexp.Seq) ([]sexp.Node, bool) {
	rc, err := r.resolver.Resolve(r.ctx, target, r.sink)
	if err != nil {
		msg := fmt.Sprintf("cannot resolve %s: %v", target, err)
		if errors.Is(err, ErrNotFound) {
			msg = fmt.Sprintf("cannot resolve %s: document not found", target)
		}
		r.sink.Handle(diag.Diagnostic{
			Severity: diag.SeverityError,
			Code:     diag.CodeUnresolvableReference,
			Message:  msg,
			Location: directive.Location(),
			Target:   string(target),
			Cause:    err,
		})
		return nil, false
	}
	defer rc.Close() //nolint:errcheck // read-only document

	slog.Debug("expanding document", "target", string(target), "from", directive.Location().Position())

	forms, err := sexp.ParseReader(string(target), rc)
	if err != nil {
		r.sink.Handle(diag.Diagnostic{
			Severity: diag.SeverityError,
			Code:     diag.CodeParseError,
			Message:  fmt.Sprintf("cannot parse %s: %v", target, err),
			Location: directive.Location(),
			Target:   string(target),
			Cause:    err,
		})
		return nil, false
	}
	return forms, true
}

func formatPath(stack includeStack, next Target) string {
	parts := make([]string, 0, len(stack)+1)
	for _, t := range stack {
		parts = append(parts, string(t))
	}
	parts = append(parts, string(next))
	return strings.Join(parts, " -> ")
}
