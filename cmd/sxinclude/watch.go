// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/sxinclude/sxinclude/internal/watch"
	"github.com/sxinclude/sxinclude/pkg/include"
)

type watchFlagValues struct {
	clearScreen bool
	check       bool
}

func newWatchCommand(app *App) *cobra.Command {
	var flags watchFlagValues
	cmd := &cobra.Command{
		Use:   "watch <document>...",
		Short: "Re-resolve documents whenever a watched file changes",
		Long: `Re-resolve documents whenever a watched file changes.

The working directory, the configured search paths and the directory of
every file root are watched. Which files count is set by watch.patterns
and watch.ignore in config.cue. Press Ctrl+C to stop.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, app, &flags, args)
		},
	}
	cmd.Flags().BoolVar(&flags.clearScreen, "clear", false, "clear the screen before every run")
	cmd.Flags().BoolVar(&flags.check, "check", false, "print diagnostics only, like 'sxinclude check'")
	return cmd
}

// runWatch resolves the documents once, then again after every burst of
// changes. Resolution failures are printed and watching continues, since
// the next save may fix them.
func runWatch(cmd *cobra.Command, app *App, flags *watchFlagValues, args []string) error {
	if slices.Contains(args, stdinArg) {
		return app.fail(cmd, errWatchStdin)
	}
	s, err := app.session(cmd)
	if err != nil {
		return app.fail(cmd, err)
	}

	run := func(ctx context.Context) {
		results, err := resolveAll(ctx, s, nil, args)
		if err != nil {
			fmt.Fprintln(app.stderr, WarningStyle.Render("! ")+formatErrorForDisplay(err, app.flags.verbose))
			return
		}
		p := newPrinter(app.stdout, s.cfg.Output)
		var count int
		for _, r := range results {
			if !flags.check {
				if err := p.print(r.doc, len(results) > 1); err != nil {
					s.logger.Error("write output", "err", err)
				}
			}
			renderDiagnostics(app.stderr, r.diags)
			count += len(r.diags)
		}
		if count == 0 && flags.check {
			fmt.Fprintf(app.stdout, "%s %s resolved cleanly\n", SuccessStyle.Render("✓"), plural(len(results), "document"))
		}
	}

	w, err := watch.New(watch.Config{
		Roots:       watchRoots(s.cfg.SearchPaths, args),
		Patterns:    s.cfg.Watch.Patterns,
		Ignore:      s.cfg.Watch.Ignore,
		Debounce:    s.cfg.Watch.Debounce,
		ClearScreen: flags.clearScreen,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(app.stderr, "%s %s changed, resolving again\n",
				CodeStyle.Render("→"), plural(len(changed), "file"))
			run(ctx)
			return nil
		},
		Stdout: app.stdout,
		Logger: s.logger,
	})
	if err != nil {
		return app.fail(cmd, fmt.Errorf("failed to start watcher: %w", err))
	}

	run(cmd.Context())
	fmt.Fprintf(app.stderr, "%s Watching %s (Ctrl+C to stop)\n",
		CodeStyle.Render("→"), plural(len(w.Roots()), "root"))
	return w.Run(cmd.Context())
}

// watchRoots returns the search paths and the directory of every file root,
// on top of the working directory the watcher always covers. Git roots are
// not watched.
func watchRoots(searchPaths, args []string) []string {
	roots := slices.Clone(searchPaths)
	for _, arg := range args {
		target, err := rootTarget(arg)
		if err != nil {
			continue
		}
		if path, err := include.FilePath(target); err == nil {
			roots = append(roots, filepath.Dir(path))
		}
	}
	return roots
}
