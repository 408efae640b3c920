// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sxinclude/sxinclude/internal/issue"
	"github.com/sxinclude/sxinclude/pkg/include"
	"github.com/sxinclude/sxinclude/pkg/sexp"
)

// Process exit codes.
const (
	// ExitOK means every document resolved without diagnostics.
	ExitOK ExitCode = 0
	// ExitDiagnostics means output was produced but diagnostics were reported.
	ExitDiagnostics ExitCode = 1
	// ExitFatal means a root document, the configuration or the flags were unusable.
	ExitFatal ExitCode = 2
)

type (
	// ExitCode is a process exit status.
	ExitCode int

	// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
	ExitError struct {
		Code ExitCode
		Err  error
	}
)

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// fail prints err to stderr and returns it as a fatal ExitError. The error
// is printed here rather than by cobra so actionable errors keep their
// suggestions.
func (a *App) fail(cmd *cobra.Command, err error) error {
	cmd.SilenceErrors = true
	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, a.flags.verbose))
	return &ExitError{Code: ExitFatal, Err: err}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// rootError explains why a root document produced no tree.
func rootError(root string, err error) error {
	ctx := issue.NewErrorContext().
		WithOperation("resolve document").
		WithResource(root).
		Wrap(err)

	var syntaxErr *sexp.SyntaxError
	switch {
	case errors.As(err, &syntaxErr):
		ctx.WithIssue(issue.RootParseErrorId).
			WithSuggestion(fmt.Sprintf("Fix the syntax at %s", syntaxErr.Location.Position()))
	case errors.Is(err, include.ErrNotFound):
		ctx.WithIssue(issue.RootNotFoundId).
			WithSuggestion("Check that the path exists and is readable")
	case errors.Is(err, errStdinLarge):
		ctx.WithSuggestion("Raise max_document_size in config.cue or pass the document as a file")
	case errors.Is(err, include.ErrInvalidTarget):
		ctx.WithIssue(issue.RootNotFoundId).
			WithSuggestion("Pass a file path or a full target such as file:///abs/doc.sx")
	}
	return ctx.BuildError()
}
