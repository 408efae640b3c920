// SPDX-License-Identifier: MPL-2.0

package sexp

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// ErrSyntax is the sentinel error wrapped by SyntaxError.
var ErrSyntax = errors.New("syntax error")

// MaxDepth is the deepest list nesting Parse accepts.
const MaxDepth = 10000

type (
	// SyntaxError reports text that cannot be read as S-expressions.
	SyntaxError struct {
		Location Location
		Message  string
	}

	parser struct {
		name string
		src  []rune
		pos  int
		line  int
		col   int
		depth int
	}
)

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Location.Position(), e.Message)
}

// Unwrap returns ErrSyntax for errors.Is() compatibility.
func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// Parse reads every top-level form in src. Each node's location carries name
// and the line and column of its first character.
//
// The grammar is minimal: parenthesised lists, bare atoms, double-quoted atoms
// with \" \\ \n \r \t and \xHH escapes, and ';' line comments. Lists nested
// deeper than MaxDepth are a syntax error.
func Parse(name, src string) ([]Node, error) {
	p := &parser{name: name, src: []rune(src), line: 1, col: 1}
	return p.parseAll()
}

// ParseReader reads r to the end and parses it like Parse.
func ParseReader(name string, r io.Reader) ([]Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return Parse(name, string(data))
}

func (p *parser) parseAll() ([]Node, error) {
	var forms []Node
	for {
		p.skipSpace()
		if p.eof() {
			return forms, nil
		}
		if p.peek() == ')' {
			return nil, &SyntaxError{Location: p.here(), Message: "unexpected ')'"}
		}
		n, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		forms = append(forms, n)
	}
}

func (p *parser) parseNode() (Node, error) {
	loc := p.here()
	switch p.peek() {
	case '(':
		p.next()
		if p.depth++; p.depth > MaxDepth {
			return nil, &SyntaxError{Location: loc, Message: "nesting too deep"}
		}
		defer func() { p.depth-- }()
		var children []Node
		for {
			p.skipSpace()
			if p.eof() {
				return nil, &SyntaxError{Location: loc, Message: "unfinished expression"}
			}
			if p.peek() == ')' {
				p.next()
				return &Seq{children: children, loc: loc}, nil
			}
			child, err := p.parseNode()
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
	case '"':
		return p.parseString(loc)
	default:
		var sb strings.Builder
		for !p.eof() && !isDelimiter(p.peek()) {
			sb.WriteRune(p.next())
		}
		return NewAtom(sb.String(), loc), nil
	}
}

func (p *parser) parseString(loc Location) (Node, error) {
	p.next() // opening quote
	var sb strings.Builder
	for {
		if p.eof() {
			return nil, &SyntaxError{Location: loc, Message: "unterminated string"}
		}
		r := p.next()
		switch r {
		case '"':
			return NewAtom(sb.String(), loc), nil
		case '\\':
			if p.eof() {
				return nil, &SyntaxError{Location: loc, Message: "unterminated string"}
			}
			switch esc := p.next(); esc {
			case 'n':
				sb.WriteRune('\n')
			case 'r':
				sb.WriteRune('\r')
			case 't':
				sb.WriteRune('\t')
			case 'x':
				r, ok := p.hexByte()
				if !ok {
					return nil, &SyntaxError{Location: loc, Message: "invalid \\x escape"}
				}
				sb.WriteRune(r)
			default:
				sb.WriteRune(esc)
			}
		default:
			sb.WriteRune(r)
		}
	}
}

// hexByte reads the two hex digits of a \xHH escape.
func (p *parser) hexByte() (rune, bool) {
	var v rune
	for range 2 {
		if p.eof() {
			return 0, false
		}
		d := hexDigit(p.next())
		if d < 0 {
			return 0, false
		}
		v = v<<4 | d
	}
	return v, true
}

func hexDigit(r rune) rune {
	switch {
	case '0' <= r && r <= '9':
		return r - '0'
	case 'a' <= r && r <= 'f':
		return r - 'a' + 10
	case 'A' <= r && r <= 'F':
		return r - 'A' + 10
	default:
		return -1
	}
}

func (p *parser) skipSpace() {
	for !p.eof() {
		r := p.peek()
		switch {
		case r == ';':
			for !p.eof() && p.peek() != '\n' {
				p.next()
			}
		case unicode.IsSpace(r):
			p.next()
		default:
			return
		}
	}
}

func (p *parser) here() Location {
	return Location{Name: p.name, Line: p.line, Column: p.col}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() rune { return p.src[p.pos] }

func (p *parser) next() rune {
	r := p.src[p.pos]
	p.pos++
	if r == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return r
}

func isDelimiter(r rune) bool {
	return r == '(' || r == ')' || r == '"' || r == ';' || unicode.IsSpace(r)
}
