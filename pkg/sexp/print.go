// SPDX-License-Identifier: MPL-2.0

package sexp

import (
	"fmt"
	"strings"
	"unicode"
)

// FormatDocument prints each top-level form on its own line.
func FormatDocument(forms []Node) string {
	var sb strings.Builder
	for i, f := range forms {
		if i > 0 {
			sb.WriteByte('\n')
		}
		writeNode(&sb, f)
	}
	return sb.String()
}

func writeNode(sb *strings.Builder, n Node) {
	switch v := n.(type) {
	case *Atom:
		sb.WriteString(quoteAtom(v.value))
	case *Seq:
		sb.WriteByte('(')
		for i, c := range v.children {
			if i > 0 {
				sb.WriteByte(' ')
			}
			writeNode(sb, c)
		}
		sb.WriteByte(')')
	}
}

func quoteAtom(v string) string {
	if v != "" && !strings.ContainsFunc(v, needsQuote) {
		return v
	}
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range v {
		switch r {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if unicode.IsControl(r) {
				fmt.Fprintf(&sb, `\x%02x`, r)
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func needsQuote(r rune) bool {
	return isDelimiter(r) || r == '\\' || unicode.IsControl(r)
}
