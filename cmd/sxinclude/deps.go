// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sxinclude/sxinclude/internal/dag"
)

func newDepsCommand(app *App) *cobra.Command {
	var edges bool
	cmd := &cobra.Command{
		Use:   "deps <document>...",
		Short: "List the documents a document is built from, included documents first",
		Long: `List the documents a document is built from, included documents first.

The list comes from the provenance of the resolved tree, so a document that
contributed no nodes (for example one holding only no-include forms) does
not appear.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(cmd, app, args, edges)
		},
	}
	cmd.Flags().BoolVar(&edges, "edges", false, "also list what each document includes directly")
	return cmd
}

func runDeps(cmd *cobra.Command, app *App, args []string, edges bool) error {
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
		renderDiagnostics(app.stderr, r.diags)
		count += len(r.diags)

		g := dag.FromForms(string(r.doc.Name), r.doc.Forms)
		order, err := g.Order()
		if err != nil {
			fmt.Fprintf(app.stderr, "%s %v\n", WarningStyle.Render("!"), err)
			count++
			continue
		}
		for _, doc := range order {
			fmt.Fprintln(app.stdout, doc)
			if edges {
				for _, inc := range g.Includes(doc) {
					fmt.Fprintln(app.stdout, chainStyle.Render("includes "+inc))
				}
			}
		}
	}
	return diagnosticsReported(cmd, count)
}
