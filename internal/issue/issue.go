// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/sxinclude/sxinclude/pkg/diag"
)

// Catalog ids. Diagnostic codes double as ids so `sxinclude explain` accepts
// whatever code a diagnostic printed.
const (
	UnresolvableReferenceId Id = Id(diag.CodeUnresolvableReference)
	CyclicIncludeId         Id = Id(diag.CodeCyclicInclude)
	MalformedDirectiveId    Id = Id(diag.CodeMalformedDirective)
	ParseErrorId            Id = Id(diag.CodeParseError)
	UnexpectedTermId        Id = Id(diag.CodeUnexpectedTerm)
	RootNotFoundId          Id = "root_not_found"
	RootParseErrorId        Id = "root_parse_error"
	ConfigLoadFailedId      Id = "config_load_failed"
)

type (
	// Id names a catalog entry.
	Id string

	// MarkdownMsg is the markdown body of an entry.
	MarkdownMsg string

	// Issue is a catalog entry explaining one class of problem.
	Issue struct {
		id      Id
		summary string
		mdMsg   MarkdownMsg
	}
)

// Id returns the entry id.
func (i *Issue) Id() Id { return i.id }

// Summary returns the one-line description.
func (i *Issue) Summary() string { return i.summary }

// MarkdownMsg returns the markdown body.
func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

// Render renders the entry for the terminal with the named glamour style
// ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	out, err := render(string(i.mdMsg), stylePath)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", i.id, err)
	}
	return out, nil
}

var (
	render = glamour.Render

	issues = map[Id]*Issue{}
)

func register(i *Issue) {
	i.mdMsg = MarkdownMsg(strings.TrimSpace(string(i.mdMsg)) + "\n")
	issues[i.id] = i
}

func init() {
	register(&Issue{
		id:      UnresolvableReferenceId,
		summary: "an include target could not be fetched",
		mdMsg: `
# unresolvable_reference

An ` + "`include`" + ` or ` + "`include-modules`" + ` directive named a document that
could not be read. The directive is dropped from the output; everything
around it is kept.

## Things you can try
- Check the spelling of the reference. Relative file references are
  resolved next to the including document, then in each ` + "`search_paths`" + `
  entry from your config.
- For ` + "`git+https://`" + ` targets, check that the repository is reachable and
  that the ` + "`?ref=`" + ` tag or branch exists.
- Run with ` + "`--log-level debug`" + ` to see every fetch attempt.
`,
	})
	register(&Issue{
		id:      CyclicIncludeId,
		summary: "a document includes itself, directly or through others",
		mdMsg: `
# cyclic_include

An ` + "`include`" + ` names a document that is already being expanded on the current
path. Expanding it again would never finish, so the directive is dropped.
The diagnostic lists the include path that closed the loop.

Including the same document twice from *different* branches is fine; only
a document that ends up inside itself is a cycle.

## Things you can try
- Move the shared forms into a third document included by both.
- Use ` + "`include-modules`" + ` for module libraries that depend on each other:
  each module document is read once per run, so mutual references are safe.
`,
	})
	register(&Issue{
		id:      MalformedDirectiveId,
		summary: "a directive has a missing or invalid reference",
		mdMsg: `
# malformed_directive

A directive could not be turned into a target. Common causes:

- ` + "`(include)`" + ` or ` + "`(include-modules)`" + ` with no reference
- a nested list where a reference was expected, e.g. ` + "`(include (a b))`" + `
- a reference with a scheme no resolver handles

The directive is dropped and expansion continues.
`,
	})
	register(&Issue{
		id:      ParseErrorId,
		summary: "an included document is not valid S-expression text",
		mdMsg: `
# parse_error

A document was fetched but could not be parsed. Nothing from it is spliced
in. The message gives the line and column of the problem in the included
document.

## Things you can try
- Look for an unbalanced parenthesis or an unterminated string.
- Run ` + "`sxinclude check <document>`" + ` on the included file directly.
`,
	})
	register(&Issue{
		id:      UnexpectedTermId,
		summary: "a value could not be read as the expected type",
		mdMsg: `
# unexpected_term

While binding a resolved document to typed values, an atom matched none of
the accepted forms. The message lists the legal values.
`,
	})
	register(&Issue{
		id:      RootNotFoundId,
		summary: "the document given on the command line does not exist",
		mdMsg: `
# root_not_found

The root document could not be read, so there is nothing to resolve.

## Things you can try
- Check the path. Paths without a scheme are read from the filesystem.
- Use a full target such as ` + "`git+https://host/repo.git//doc.sx?ref=v1.0.0`" + `
  for documents in repositories.
`,
	})
	register(&Issue{
		id:      RootParseErrorId,
		summary: "the document given on the command line cannot be parsed",
		mdMsg: `
# root_parse_error

The root document is not valid S-expression text. Unlike included
documents, a broken root has no partial result, so resolution stops.
`,
	})
	register(&Issue{
		id:      ConfigLoadFailedId,
		summary: "config.cue could not be loaded",
		mdMsg: `
# config_load_failed

The configuration file failed validation against the built-in schema.

## Things you can try
- Run ` + "`sxinclude config show`" + ` to see the effective configuration.
- Run ` + "`sxinclude config init --force`" + ` to start over from defaults.
- Remember that ` + "`SXINCLUDE_*`" + ` environment variables override the file.
`,
	})
}

// Values returns every entry sorted by id.
func Values() []*Issue {
	out := slices.Collect(maps.Values(issues))
	slices.SortFunc(out, func(a, b *Issue) int { return strings.Compare(string(a.id), string(b.id)) })
	return out
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}

// ForCode returns the entry explaining a diagnostic code, or nil.
func ForCode(code diag.Code) *Issue {
	return issues[Id(code)]
}
