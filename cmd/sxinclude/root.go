// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "sxinclude",
		Short: "Resolve include directives in S-expression documents",
		Long: TitleStyle.Render("sxinclude") + SubtitleStyle.Render(" - resolve include directives in S-expression documents") + `

sxinclude expands (include ...), (no-include ...) and (include-modules ...)
directives, splicing the referenced documents into one tree while keeping
track of where every node came from.

Documents are named by path or by target URI:
  doc.sx                                       a file, relative to the working directory
  file:///abs/doc.sx                           an absolute file target
  git+https://host/repo.git//doc.sx?ref=v1.0.0 a document inside a git repository
  -                                            standard input

` + SubtitleStyle.Render("Examples:") + `
  sxinclude resolve main.sx               Print the resolved tree
  sxinclude resolve -f json main.sx       Print it as JSON
  sxinclude check *.sx                    Report unresolved or cyclic includes
  sxinclude trace main.sx                 Show where every atom came from
  sxinclude deps main.sx                  List the documents main.sx is built from
  sxinclude watch main.sx                 Re-resolve whenever a document changes
  sxinclude explain cyclic_include        Explain a diagnostic code`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&app.flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/sxinclude/config.cue)")
	pf.StringVar(&app.flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVarP(&app.flags.format, "format", "f", "sexp", "output format: sexp, yaml, json")
	pf.BoolVar(&app.flags.provenance, "provenance", false, "attach the include chain of every node to yaml and json output")
	pf.BoolVarP(&app.flags.verbose, "verbose", "v", false, "show the full error chain of fatal errors")

	root.AddCommand(
		newResolveCommand(app),
		newCheckCommand(app),
		newTraceCommand(app),
		newDepsCommand(app),
		newWatchCommand(app),
		newExplainCommand(app),
		newConfigCommand(app),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the code of the first ExitError, or
// ExitFatal for any other error. It is called by main.main().
func Execute() {
	root := NewRootCommand(NewApp(Dependencies{}))
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(int(ExitFatal))
	}
}
