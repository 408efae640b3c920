// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sxinclude/sxinclude/internal/issue"
)

func newExplainCommand(app *App) *cobra.Command {
	var style string
	cmd := &cobra.Command{
		Use:   "explain [code]",
		Short: "Explain a diagnostic code",
		Long: `Explain a diagnostic code.

Every diagnostic printed by resolve, check and trace carries a code in
brackets, e.g. error[cyclic_include]. Without an argument, explain lists
all codes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				listIssues(app)
				return nil
			}
			return explainIssue(cmd, app, args[0], style)
		},
	}
	cmd.Flags().StringVar(&style, "style", "auto", "glamour style: auto, dark, light, notty")
	return cmd
}

func listIssues(app *App) {
	fmt.Fprintln(app.stdout, TitleStyle.Render("Diagnostic codes"))
	for _, i := range issue.Values() {
		fmt.Fprintf(app.stdout, "  %s  %s\n", CodeStyle.Render(string(i.Id())), SubtitleStyle.Render(i.Summary()))
	}
}

func explainIssue(cmd *cobra.Command, app *App, code, style string) error {
	entry := issue.Get(issue.Id(strings.ToLower(strings.TrimSpace(code))))
	if entry == nil {
		return app.fail(cmd, issue.NewErrorContext().
			WithOperation("explain").
			WithResource(code).
			WithSuggestion("Run 'sxinclude explain' to list every code").
			Wrap(fmt.Errorf("unknown diagnostic code %q", code)).
			BuildError())
	}

	rendered, err := entry.Render(style)
	if err != nil {
		return app.fail(cmd, fmt.Errorf("render explanation: %w", err))
	}
	fmt.Fprint(app.stdout, rendered)
	return nil
}
