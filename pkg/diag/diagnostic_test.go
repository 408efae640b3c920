// SPDX-License-Identifier: MPL-2.0

package diag

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/sxinclude/sxinclude/pkg/sexp"
)

func TestRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder
	if r.HasErrors() || r.Len() != 0 {
		t.Fatal("zero Recorder must be empty")
	}

	r.Handle(Diagnostic{Severity: SeverityWarning, Code: CodeMalformedDirective})
	if r.HasErrors() {
		t.Error("warnings must not count as errors")
	}

	r.Handle(Diagnostic{Severity: SeverityError, Code: CodeCyclicInclude})
	if !r.HasErrors() {
		t.Error("HasErrors() = false after an error diagnostic")
	}

	codes := r.Codes()
	if len(codes) != 2 || codes[0] != CodeMalformedDirective || codes[1] != CodeCyclicInclude {
		t.Errorf("Codes() = %v", codes)
	}

	got := r.Diagnostics()
	got[0].Code = "changed"
	if r.Codes()[0] != CodeMalformedDirective {
		t.Error("Diagnostics() must return a copy")
	}
}

func TestRecorderConcurrentHandle(t *testing.T) {
	t.Parallel()

	var r Recorder
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Handle(Diagnostic{Severity: SeverityError})
		}()
	}
	wg.Wait()

	if r.Len() != 16 {
		t.Errorf("Len() = %d, want 16", r.Len())
	}
}

func TestDiagnosticString(t *testing.T) {
	t.Parallel()

	d := Diagnostic{
		Severity: SeverityError,
		Message:  "document not found",
		Location: sexp.Location{Name: "mem://a", Line: 2, Column: 4},
	}
	if got, want := d.String(), "mem://a:2:4: error: document not found"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestWithLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var seen []Diagnostic
	sink := WithLogging(SinkFunc(func(d Diagnostic) { seen = append(seen, d) }), logger)
	sink.Handle(Diagnostic{Severity: SeverityError, Code: CodeParseError, Message: "bad"})

	if len(seen) != 1 {
		t.Fatalf("next sink saw %d diagnostics, want 1", len(seen))
	}
	for _, want := range []string{"level=DEBUG", "code=parse_error", "severity=error"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log output missing %q: %s", want, buf.String())
		}
	}
}
