// SPDX-License-Identifier: MPL-2.0

// Package diag defines the structured diagnostics produced while resolving
// and binding documents, and the sinks that collect them.
//
// Diagnostics never halt processing. Callers hand a sink to the engine and
// inspect what it collected once the run returns.
package diag

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/sxinclude/sxinclude/pkg/sexp"
)

const (
	// SeverityWarning indicates a recoverable diagnostic.
	SeverityWarning Severity = "warning"
	// SeverityError indicates content was dropped or could not be read.
	SeverityError Severity = "error"

	// CodeUnresolvableReference means a directive's target could not be fetched.
	CodeUnresolvableReference Code = "unresolvable_reference"
	// CodeCyclicInclude means an include target is already being expanded.
	CodeCyclicInclude Code = "cyclic_include"
	// CodeMalformedDirective means a directive's arguments could not be read.
	CodeMalformedDirective Code = "malformed_directive"
	// CodeParseError means a fetched document is not valid S-expression text.
	CodeParseError Code = "parse_error"
	// CodeUnexpectedTerm means the binding layer could not read an atom.
	CodeUnexpectedTerm Code = "unexpected_term"
)

type (
	// Severity represents diagnostic severity.
	Severity string

	// Code is a machine-readable diagnostic identifier.
	Code string

	// Diagnostic is a structured problem report tied to a node location.
	Diagnostic struct {
		// Severity is the diagnostic level.
		Severity Severity
		// Code identifies the class of problem.
		Code Code
		// Message is the human-readable description.
		Message string
		// Location is where the offending node sits, including its include chain.
		Location sexp.Location
		// Target is the reference involved, if any.
		Target string
		// Cause is the underlying error (optional, for programmatic inspection).
		Cause error
	}

	// ErrorSink accepts diagnostics as they are produced.
	ErrorSink interface {
		Handle(d Diagnostic)
	}

	// SinkFunc adapts a function to ErrorSink.
	SinkFunc func(d Diagnostic)

	// Recorder is an ErrorSink that keeps every diagnostic in arrival order.
	// It is safe for concurrent use.
	Recorder struct {
		mu          sync.Mutex
		diagnostics []Diagnostic
	}

	logSink struct {
		next   ErrorSink
		logger *slog.Logger
	}
)

// Handle implements ErrorSink.
func (f SinkFunc) Handle(d Diagnostic) { f(d) }

// String formats the diagnostic as "<position>: <severity>: <message>".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Location.Position(), d.Severity, d.Message)
}

// Handle implements ErrorSink.
func (r *Recorder) Handle(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diagnostics = append(r.diagnostics, d)
}

// Diagnostics returns a copy of everything recorded so far.
func (r *Recorder) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.diagnostics)
}

// Codes returns the code of every recorded diagnostic in order.
func (r *Recorder) Codes() []Code {
	r.mu.Lock()
	defer r.mu.Unlock()
	codes := make([]Code, len(r.diagnostics))
	for i, d := range r.diagnostics {
		codes[i] = d.Code
	}
	return codes
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (r *Recorder) HasErrors() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.ContainsFunc(r.diagnostics, func(d Diagnostic) bool {
		return d.Severity == SeverityError
	})
}

// Len returns the number of recorded diagnostics.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.diagnostics)
}

// WithLogging returns a sink that logs each diagnostic at debug level before
// passing it on to next. A nil logger uses slog.Default().
func WithLogging(next ErrorSink, logger *slog.Logger) ErrorSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &logSink{next: next, logger: logger}
}

func (s *logSink) Handle(d Diagnostic) {
	s.logger.Debug("diagnostic",
		"code", string(d.Code),
		"severity", string(d.Severity),
		"at", d.Location.String(),
		"message", d.Message)
	s.next.Handle(d)
}
