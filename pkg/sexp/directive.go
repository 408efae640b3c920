// SPDX-License-Identifier: MPL-2.0

package sexp

const (
	// NotDirective marks atoms and sequences without a reserved head.
	NotDirective Directive = iota
	// Include splices the top-level forms of another document.
	Include
	// NoInclude keeps its body only when read as the root document.
	NoInclude
	// IncludeModules collects the ~module forms of other documents.
	IncludeModules
	// Module tags a reusable form collected by IncludeModules.
	Module
)

// Directive identifies the reserved head of a sequence.
type Directive int

// directiveWords maps reserved head atoms to their directive.
var directiveWords = map[string]Directive{
	"include":         Include,
	"no-include":      NoInclude,
	"include-modules": IncludeModules,
	"~module":         Module,
}

// DirectiveOf classifies n by the text of its head atom.
func DirectiveOf(n Node) Directive {
	s, ok := n.(*Seq)
	if !ok {
		return NotDirective
	}
	head, ok := s.Head()
	if !ok {
		return NotDirective
	}
	return directiveWords[head.Value()]
}

// String returns the directive's head word.
func (d Directive) String() string {
	switch d {
	case Include:
		return "include"
	case NoInclude:
		return "no-include"
	case IncludeModules:
		return "include-modules"
	case Module:
		return "~module"
	default:
		return ""
	}
}
