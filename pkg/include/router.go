// SPDX-License-Identifier: MPL-2.0

package include

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/sxinclude/sxinclude/pkg/diag"
	"github.com/sxinclude/sxinclude/pkg/sexp"
)

// Router dispatches to a Resolver per URI scheme.
//
// Convert picks the resolver from the scheme of an absolute reference, else
// from the scheme of the including document, else the fallback scheme.
// Resolve picks it from the target's scheme.
type Router struct {
	resolvers map[string]Resolver
	fallback  string
}

// NewRouter returns an empty router. Relative references in documents whose
// scheme is not registered (such as SyntheticRoot) go to fallback.
func NewRouter(fallback string) *Router {
	return &Router{resolvers: make(map[string]Resolver), fallback: strings.ToLower(fallback)}
}

// Handle registers r for each scheme and returns the router for chaining.
func (rt *Router) Handle(r Resolver, schemes ...string) *Router {
	for _, s := range schemes {
		rt.resolvers[strings.ToLower(s)] = r
	}
	return rt
}

// Schemes returns the registered schemes in sorted order.
func (rt *Router) Schemes() []string {
	return slices.Sorted(maps.Keys(rt.resolvers))
}

// Convert implements Resolver.
func (rt *Router) Convert(directive *sexp.Seq, sink diag.ErrorSink) (Target, bool) {
	parts, ok := referenceParts(directive, sink)
	if !ok {
		return "", false
	}

	for _, scheme := range []string{schemeOf(parts[0]), schemeOf(directive.Location().Name), rt.fallback} {
		if r, found := rt.resolvers[scheme]; found {
			return r.Convert(directive, sink)
		}
	}
	reportMalformed(sink, directive, fmt.Sprintf("no resolver for reference %q (known schemes: %s)",
		strings.Join(parts, " "), strings.Join(rt.Schemes(), ", ")))
	return "", false
}

// Resolve implements Resolver.
func (rt *Router) Resolve(ctx context.Context, target Target, sink diag.ErrorSink) (io.ReadCloser, error) {
	r, found := rt.resolvers[target.Scheme()]
	if !found {
		return nil, &NotFoundError{Target: target, Cause: fmt.Errorf("no resolver registered for scheme %q", target.Scheme())}
	}
	return r.Resolve(ctx, target, sink)
}
