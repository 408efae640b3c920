// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/sxinclude/sxinclude/internal/config"
	"github.com/sxinclude/sxinclude/pkg/include"
	"github.com/sxinclude/sxinclude/pkg/sexp"
)

type (
	// printer writes resolved documents in the configured output format.
	printer struct {
		w       io.Writer
		cfg     config.OutputConfig
		printed int
	}

	// encodedDocument is the YAML and JSON shape of one resolved document.
	encodedDocument struct {
		Document string `json:"document" yaml:"document"`
		Forms    []any  `json:"forms" yaml:"forms"`
	}

	// annotatedNode is a node with its provenance. Value holds a string for
	// atoms and []annotatedNode for lists.
	annotatedNode struct {
		Value        any      `json:"value" yaml:"value"`
		At           string   `json:"at" yaml:"at"`
		IncludedFrom []string `json:"included_from,omitempty" yaml:"included_from,omitempty"`
	}
)

func newPrinter(w io.Writer, cfg config.OutputConfig) *printer {
	return &printer{w: w, cfg: cfg}
}

// print writes doc. When labelled, S-expression output is preceded by a
// comment naming the document.
func (p *printer) print(doc *include.Document, labelled bool) error {
	defer func() { p.printed++ }()

	switch p.cfg.Format {
	case config.OutputJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(p.encode(doc))
	case config.OutputYAML:
		if p.printed > 0 {
			if _, err := io.WriteString(p.w, "---\n"); err != nil {
				return err
			}
		}
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(p.encode(doc)); err != nil {
			return err
		}
		return enc.Close()
	default:
		if labelled {
			if _, err := fmt.Fprintf(p.w, "; %s\n", doc.Name); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintln(p.w, sexp.FormatDocument(doc.Forms))
		return err
	}
}

func (p *printer) encode(doc *include.Document) encodedDocument {
	forms := make([]any, 0, len(doc.Forms))
	for _, f := range doc.Forms {
		if p.cfg.Provenance {
			forms = append(forms, annotate(f))
		} else {
			forms = append(forms, plainValue(f))
		}
	}
	return encodedDocument{Document: string(doc.Name), Forms: forms}
}

// plainValue maps atoms to strings and lists to slices.
func plainValue(n sexp.Node) any {
	seq, ok := n.(*sexp.Seq)
	if !ok {
		return n.(*sexp.Atom).Value()
	}
	out := make([]any, 0, seq.Len())
	for _, c := range seq.Children() {
		out = append(out, plainValue(c))
	}
	return out
}

func annotate(n sexp.Node) annotatedNode {
	loc := n.Location()
	node := annotatedNode{At: loc.Position()}
	for s := loc.Source; s != nil; s = s.Source {
		node.IncludedFrom = append(node.IncludedFrom, s.Position())
	}

	seq, ok := n.(*sexp.Seq)
	if !ok {
		node.Value = n.(*sexp.Atom).Value()
		return node
	}
	children := make([]annotatedNode, 0, seq.Len())
	for _, c := range seq.Children() {
		children = append(children, annotate(c))
	}
	node.Value = children
	return node
}
