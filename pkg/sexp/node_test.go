// SPDX-License-Identifier: MPL-2.0

package sexp

import (
	"testing"
)

func mustParseOne(t *testing.T, name, src string) Node {
	t.Helper()
	forms, err := Parse(name, src)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", src, err)
	}
	if len(forms) != 1 {
		t.Fatalf("Parse(%q) returned %d forms, want 1", src, len(forms))
	}
	return forms[0]
}

func TestDirectiveOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src      string
		expected Directive
	}{
		{src: "(include a)", expected: Include},
		{src: "(no-include x y)", expected: NoInclude},
		{src: "(include-modules m)", expected: IncludeModules},
		{src: "(~module m x)", expected: Module},
		{src: "(includes a)", expected: NotDirective},
		{src: "((include) a)", expected: NotDirective},
		{src: "()", expected: NotDirective},
		{src: "include", expected: NotDirective},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()

			if got := DirectiveOf(mustParseOne(t, "mem://d", tt.src)); got != tt.expected {
				t.Errorf("DirectiveOf(%s) = %v, want %v", tt.src, got, tt.expected)
			}
		})
	}
}

func TestRebaseNilIncludingKeepsNode(t *testing.T) {
	t.Parallel()

	n := mustParseOne(t, "mem://a", "(x y)")
	if got := Rebase(n, nil); got != n {
		t.Error("Rebase with nil including location must return the node itself")
	}
}

func TestRebaseReplacesSourceEverywhere(t *testing.T) {
	t.Parallel()

	n := mustParseOne(t, "mem://b", "(x (y z))")
	including := &Location{Name: "mem://a", Line: 3, Column: 7}

	rebased := Rebase(n, including)
	if rebased == n {
		t.Fatal("Rebase must return a new node")
	}
	if got := rebased.String(); got != n.String() {
		t.Errorf("Rebase changed content: %s vs %s", got, n)
	}

	Walk(rebased, func(n Node) bool {
		loc := n.Location()
		if loc.Name != "mem://b" {
			t.Errorf("%s: Name = %q, want mem://b", n, loc.Name)
		}
		if loc.Source != including {
			t.Errorf("%s: Source = %v, want including location", n, loc.Source)
		}
		return true
	})

	Walk(n, func(n Node) bool {
		if !n.Location().IsRoot() {
			t.Errorf("original node %s was modified", n)
		}
		return true
	})
}

func TestLocationChain(t *testing.T) {
	t.Parallel()

	root := Location{Name: "mem://a", Line: 1, Column: 5}
	middle := Location{Name: "mem://b", Line: 2, Column: 1}.Rebase(&root)
	leaf := Location{Name: "mem://c", Line: 1, Column: 1}.Rebase(&middle)

	if got := leaf.Depth(); got != 2 {
		t.Errorf("Depth() = %d, want 2", got)
	}

	chain := leaf.Chain()
	names := make([]string, len(chain))
	for i, l := range chain {
		names[i] = l.Name
	}
	want := []string{"mem://c", "mem://b", "mem://a"}
	if len(names) != len(want) {
		t.Fatalf("Chain() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Chain()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
	if !chain[len(chain)-1].IsRoot() {
		t.Error("chain must end at a root location")
	}

	expected := "mem://c:1:1 (included from mem://b:2:1) (included from mem://a:1:5)"
	if got := leaf.String(); got != expected {
		t.Errorf("String() = %q, want %q", got, expected)
	}
}

func TestSeqAccessors(t *testing.T) {
	t.Parallel()

	seq := mustParseOne(t, "mem://s", "(head a b)").(*Seq)
	head, ok := seq.Head()
	if !ok || head.Value() != "head" {
		t.Fatalf("Head() = %v, %v", head, ok)
	}
	tail := seq.Tail()
	if len(tail) != 2 || tail[0].String() != "a" || tail[1].String() != "b" {
		t.Errorf("Tail() = %v", tail)
	}

	children := seq.Children()
	children[0] = NewAtom("changed", Location{})
	if seq.At(0).String() != "head" {
		t.Error("Children() must return a copy")
	}

	if got := len(Atoms(seq)); got != 3 {
		t.Errorf("Atoms() returned %d atoms, want 3", got)
	}
}
