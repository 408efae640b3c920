// SPDX-License-Identifier: MPL-2.0

package include

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/sxinclude/sxinclude/pkg/diag"
	"github.com/sxinclude/sxinclude/pkg/sexp"
)

// DefaultMapScheme is the scheme used by NewMapResolver when none is given.
const DefaultMapScheme = "mem"

// MapResolver serves documents held in memory. A reference "a/b" becomes
// the target "<scheme>://a/b"; multi-atom tails are joined with "/".
type MapResolver struct {
	scheme string

	mu   sync.RWMutex
	docs map[Target]string
}

// NewMapResolver returns a resolver over docs, keyed by document name.
func NewMapResolver(scheme string, docs map[string]string) *MapResolver {
	if scheme == "" {
		scheme = DefaultMapScheme
	}
	m := &MapResolver{scheme: scheme, docs: make(map[Target]string, len(docs))}
	for name, text := range docs {
		m.docs[m.Target(name)] = text
	}
	return m
}

// Target returns the target for a document name.
func (m *MapResolver) Target(name string) Target {
	return Target(m.scheme + "://" + name)
}

// Put stores or replaces a document.
func (m *MapResolver) Put(name, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[m.Target(name)] = text
}

// Convert implements Resolver.
func (m *MapResolver) Convert(directive *sexp.Seq, sink diag.ErrorSink) (Target, bool) {
	parts, ok := referenceParts(directive, sink)
	if !ok {
		return "", false
	}
	return m.Target(strings.Join(parts, "/")), true
}

// Resolve implements Resolver.
func (m *MapResolver) Resolve(_ context.Context, target Target, _ diag.ErrorSink) (io.ReadCloser, error) {
	m.mu.RLock()
	text, ok := m.docs[target]
	m.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Target: target}
	}
	return io.NopCloser(strings.NewReader(text)), nil
}
