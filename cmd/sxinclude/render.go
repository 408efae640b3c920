// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"slices"

	"github.com/sxinclude/sxinclude/internal/issue"
	"github.com/sxinclude/sxinclude/pkg/diag"
	"github.com/sxinclude/sxinclude/pkg/sexp"
)

// renderDiagnostics writes one line per diagnostic followed by the include
// chain that led to it:
//
//	file:///b.sx:1:1: error[cyclic_include]: ...
//	    included from file:///a.sx:3:2
func renderDiagnostics(w io.Writer, diags []diag.Diagnostic) {
	for _, d := range diags {
		severity := WarningStyle.Render(string(d.Severity))
		if d.Severity == diag.SeverityError {
			severity = ErrorStyle.Render(string(d.Severity))
		}
		fmt.Fprintf(w, "%s: %s[%s]: %s\n",
			CodeStyle.Render(d.Location.Position()), severity, d.Code, d.Message)
		renderChain(w, d.Location)
	}
}

// renderHints points at the explain entry of every distinct code in diags.
func renderHints(w io.Writer, diags []diag.Diagnostic) {
	var seen []diag.Code
	for _, d := range diags {
		if slices.Contains(seen, d.Code) {
			continue
		}
		seen = append(seen, d.Code)
		if i := issue.ForCode(d.Code); i != nil {
			fmt.Fprintf(w, "%s run %s: %s\n",
				SubtitleStyle.Render("hint:"), CodeStyle.Render("sxinclude explain "+string(d.Code)), i.Summary())
		}
	}
}

// renderChain writes an "included from" line for every hop above loc.
func renderChain(w io.Writer, loc sexp.Location) {
	for s := loc.Source; s != nil; s = s.Source {
		fmt.Fprintln(w, chainStyle.Render("included from "+s.Position()))
	}
}

// renderTrace writes every atom of forms with its position and chain.
func renderTrace(w io.Writer, forms []sexp.Node) {
	for _, f := range forms {
		for _, a := range sexp.Atoms(f) {
			fmt.Fprintf(w, "%s %s\n", TitleStyle.Render(a.String()), CodeStyle.Render(a.Location().Position()))
			renderChain(w, a.Location())
		}
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
