// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sxinclude/sxinclude/pkg/diag"
	"github.com/sxinclude/sxinclude/pkg/include"
)

// stdinArg names standard input as a root document.
const stdinArg = "-"

var (
	errStdinTwice = errors.New("standard input (-) can be read only once")
	errWatchStdin = errors.New("watch cannot read standard input")
	errStdinLarge = errors.New("standard input is too large")
)

// resolution is the outcome of expanding one root.
type resolution struct {
	doc   *include.Document
	diags []diag.Diagnostic
}

func newResolveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <document>...",
		Short: "Print documents with every include directive expanded",
		Long: `Print documents with every include directive expanded.

Several documents are resolved concurrently and printed in argument order.
Diagnostics go to stderr; the exit status is 1 when there were any.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, app, args)
		},
	}
}

func newCheckCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check <document>...",
		Short: "Report unresolvable, cyclic and malformed includes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, app, args)
		},
	}
}

func newTraceCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <document>...",
		Short: "Show the position and include chain of every atom",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd, app, args)
		},
	}
}

func runResolve(cmd *cobra.Command, app *App, args []string) error {
	s, err := app.session(cmd)
	if err != nil {
		return app.fail(cmd, err)
	}
	results, err := resolveAll(cmd.Context(), s, app.stdin, args)
	if err != nil {
		return app.fail(cmd, err)
	}

	p := newPrinter(app.stdout, s.cfg.Output)
	var count int
	for _, r := range results {
		if err := p.print(r.doc, len(results) > 1); err != nil {
			return app.fail(cmd, fmt.Errorf("write output: %w", err))
		}
		renderDiagnostics(app.stderr, r.diags)
		count += len(r.diags)
	}
	return diagnosticsReported(cmd, count)
}

func runCheck(cmd *cobra.Command, app *App, args []string) error {
	s, err := app.session(cmd)
	if err != nil {
		return app.fail(cmd, err)
	}
	results, err := resolveAll(cmd.Context(), s, app.stdin, args)
	if err != nil {
		return app.fail(cmd, err)
	}

	var all []diag.Diagnostic
	for _, r := range results {
		renderDiagnostics(app.stderr, r.diags)
		all = append(all, r.diags...)
	}
	renderHints(app.stderr, all)
	count := len(all)
	if count == 0 {
		fmt.Fprintf(app.stdout, "%s %s resolved cleanly\n", SuccessStyle.Render("✓"), plural(len(results), "document"))
	}
	return diagnosticsReported(cmd, count)
}

func runTrace(cmd *cobra.Command, app *App, args []string) error {
	s, err := app.session(cmd)
	if err != nil {
		return app.fail(cmd, err)
	}
	results, err := resolveAll(cmd.Context(), s, app.stdin, args)
	if err != nil {
		return app.fail(cmd, err)
	}

	var count int
	for _, r := range results {
		if len(results) > 1 {
			fmt.Fprintf(app.stdout, "; %s\n", r.doc.Name)
		}
		renderTrace(app.stdout, r.doc.Forms)
		renderDiagnostics(app.stderr, r.diags)
		count += len(r.diags)
	}
	return diagnosticsReported(cmd, count)
}

// diagnosticsReported turns a non-zero diagnostic count into ExitDiagnostics.
// The diagnostics themselves have already been printed.
func diagnosticsReported(cmd *cobra.Command, count int) error {
	if count == 0 {
		return nil
	}
	cmd.SilenceErrors = true
	return &ExitError{Code: ExitDiagnostics, Err: fmt.Errorf("%s reported", plural(count, "diagnostic"))}
}

// resolveAll expands every root concurrently. Each root gets its own
// include stack, module set and recorder, so results never mix. The first
// fatal root error cancels the rest.
func resolveAll(ctx context.Context, s *session, stdin io.Reader, args []string) ([]resolution, error) {
	if countStdin(args) > 1 {
		return nil, errStdinTwice
	}

	results := make([]resolution, len(args))
	g, gctx := errgroup.WithContext(ctx)
	for i, arg := range args {
		g.Go(func() error {
			r, err := resolveOne(gctx, s, stdin, arg)
			if err != nil {
				return rootError(arg, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func resolveOne(ctx context.Context, s *session, stdin io.Reader, arg string) (resolution, error) {
	var rec diag.Recorder
	sink := diag.WithLogging(&rec, s.logger)

	var (
		doc *include.Document
		err error
	)
	if arg == stdinArg {
		text, rerr := readStdin(stdin, s.cfg.MaxDocumentSize)
		if rerr != nil {
			return resolution{}, rerr
		}
		doc, err = include.ExpandDocument(ctx, s.router, include.SyntheticRoot, bytes.NewReader(text), sink)
	} else {
		target, terr := rootTarget(arg)
		if terr != nil {
			return resolution{}, terr
		}
		s.logger.Debug("resolving document", "root", string(target))
		doc, err = include.SourceDocument(ctx, s.router, target, sink)
	}
	if err != nil {
		return resolution{}, err
	}
	return resolution{doc: doc, diags: rec.Diagnostics()}, nil
}

// readStdin reads the whole of r, failing once it passes limit bytes.
func readStdin(r io.Reader, limit int64) ([]byte, error) {
	text, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read standard input: %w", err)
	}
	if int64(len(text)) > limit {
		return nil, fmt.Errorf("%w: exceeds maximum %d bytes", errStdinLarge, limit)
	}
	return text, nil
}

// rootTarget turns a command-line argument into a target. Arguments that
// already carry a scheme are used as is; anything else is a file path.
func rootTarget(arg string) (include.Target, error) {
	if t := include.Target(arg); filepath.VolumeName(arg) == "" && t.Validate() == nil {
		return t, nil
	}
	return include.FileTarget(arg)
}

func countStdin(args []string) int {
	return len(slices.DeleteFunc(slices.Clone(args), func(a string) bool { return a != stdinArg }))
}
