// SPDX-License-Identifier: MPL-2.0

package include

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/sxinclude/sxinclude/pkg/diag"
	"github.com/sxinclude/sxinclude/pkg/sexp"
)

var (
	// ErrNotFound is the sentinel error wrapped by NotFoundError.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidTarget is the sentinel error wrapped by InvalidTargetError.
	ErrInvalidTarget = errors.New("invalid target")
)

type (
	// Target is the absolute URI of a document, e.g. "file:///srv/a.sx" or
	// "mem://a". Targets are compared as strings.
	Target string

	// InvalidTargetError is returned when a Target is empty or not an
	// absolute URI. It wraps ErrInvalidTarget for errors.Is().
	InvalidTargetError struct {
		Value Target
		Cause error
	}

	// NotFoundError is returned by Resolver.Resolve when a target does not
	// exist. It wraps ErrNotFound for errors.Is().
	NotFoundError struct {
		Target Target
		Cause  error
	}

	// Resolver maps directives to targets and targets to document text.
	//
	// Implementations must not expand directives themselves; they only
	// translate references and fetch raw text.
	Resolver interface {
		// Convert computes the target named by a directive's tail. Relative
		// references resolve against the directive's Location().Name. On
		// malformed input Convert reports to sink and returns false.
		Convert(directive *sexp.Seq, sink diag.ErrorSink) (Target, bool)

		// Resolve opens the text of target for a single read. Unknown
		// targets fail with an error wrapping ErrNotFound. The caller closes
		// the reader once the text is parsed.
		Resolve(ctx context.Context, target Target, sink diag.ErrorSink) (io.ReadCloser, error)
	}
)

// Error implements the error interface.
func (e *InvalidTargetError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid target %q: %v", string(e.Value), e.Cause)
	}
	return fmt.Sprintf("invalid target %q (must be an absolute URI)", string(e.Value))
}

// Unwrap returns ErrInvalidTarget for errors.Is() compatibility.
func (e *InvalidTargetError) Unwrap() error { return ErrInvalidTarget }

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("document not found: %s: %v", e.Target, e.Cause)
	}
	return fmt.Sprintf("document not found: %s", e.Target)
}

// Unwrap returns ErrNotFound for errors.Is() compatibility.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// String returns the target URI.
func (t Target) String() string { return string(t) }

// Validate returns an error if the target is not an absolute URI.
func (t Target) Validate() error {
	if strings.TrimSpace(string(t)) == "" {
		return &InvalidTargetError{Value: t}
	}
	u, err := url.Parse(string(t))
	if err != nil {
		return &InvalidTargetError{Value: t, Cause: err}
	}
	if u.Scheme == "" {
		return &InvalidTargetError{Value: t}
	}
	return nil
}

// Scheme returns the URI scheme of the target, or "" when it has none.
func (t Target) Scheme() string {
	return schemeOf(string(t))
}

// schemeOf extracts an RFC 3986 scheme prefix without fully parsing s.
func schemeOf(s string) string {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		case i > 0 && r == ':':
			return strings.ToLower(s[:i])
		default:
			return ""
		}
	}
	return ""
}

// referenceParts returns the atom values of a directive's tail. It reports a
// malformed directive and returns false when the tail is empty or holds a
// nested list.
func referenceParts(directive *sexp.Seq, sink diag.ErrorSink) ([]string, bool) {
	tail := directive.Tail()
	if len(tail) == 0 {
		reportMalformed(sink, directive, "expected a target reference")
		return nil, false
	}
	parts := make([]string, 0, len(tail))
	for _, n := range tail {
		a, ok := n.(*sexp.Atom)
		if !ok {
			reportMalformed(sink, directive, "target reference must be atoms, found "+n.String())
			return nil, false
		}
		parts = append(parts, a.Value())
	}
	return parts, true
}

func reportMalformed(sink diag.ErrorSink, directive *sexp.Seq, reason string) {
	head, _ := directive.Head()
	word := ""
	if head != nil {
		word = head.Value()
	}
	sink.Handle(diag.Diagnostic{
		Severity: diag.SeverityError,
		Code:     diag.CodeMalformedDirective,
		Message:  fmt.Sprintf("malformed %s directive: %s", word, reason),
		Location: directive.Location(),
	})
}
