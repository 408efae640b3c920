// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sxinclude/sxinclude/pkg/sexp"
)

func TestOrderEmptyGraph(t *testing.T) {
	t.Parallel()

	order, err := New().Order()
	if err != nil || order != nil {
		t.Errorf("Order() = %v, %v, want nil, nil", order, err)
	}
}

func TestOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		includes [][2]string
		expected []string
	}{
		{
			name:     "chain",
			includes: [][2]string{{"root", "a"}, {"a", "b"}},
			expected: []string{"b", "a", "root"},
		},
		{
			name:     "diamond",
			includes: [][2]string{{"root", "left"}, {"root", "right"}, {"left", "base"}, {"right", "base"}},
			expected: []string{"base", "left", "right", "root"},
		},
		{
			name:     "repeated include",
			includes: [][2]string{{"root", "a"}, {"root", "a"}},
			expected: []string{"a", "root"},
		},
		{
			name:     "disconnected",
			includes: [][2]string{{"x", "y"}, {"p", "q"}},
			expected: []string{"q", "y", "p", "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := New()
			for _, inc := range tt.includes {
				g.AddInclude(inc[0], inc[1])
			}
			got, err := g.Order()
			if err != nil {
				t.Fatalf("Order() error = %v", err)
			}
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("Order() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOrderReportsMutualIncludes(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddInclude("root", "a")
	g.AddInclude("root", "b")
	g.AddInclude("a", "b")
	g.AddInclude("b", "a")

	_, err := g.Order()
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("Order() error = %v, want *CycleError", err)
	}
	if diff := cmp.Diff([]string{"root", "a", "b"}, cycleErr.Documents); diff != "" {
		t.Errorf("Documents mismatch (-want +got):\n%s", diff)
	}
	if got, want := err.Error(), "documents include each other: root, a, b"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestFromForms(t *testing.T) {
	t.Parallel()

	root := sexp.Location{Name: "mem://root", Line: 1, Column: 3}
	mid := sexp.Location{Name: "mem://mid", Line: 1, Column: 1, Source: &root}
	forms := []sexp.Node{
		sexp.NewSeq(sexp.Location{Name: "mem://root", Line: 1, Column: 1},
			sexp.NewAtom("top", sexp.Location{Name: "mem://root", Line: 1, Column: 2}),
			sexp.NewAtom("leaf", sexp.Location{Name: "mem://leaf", Line: 1, Column: 1, Source: &mid}),
			sexp.NewAtom("m", sexp.Location{Name: "mem://mid", Line: 2, Column: 1, Source: &root}),
		),
	}

	g := FromForms("mem://root", forms)
	if diff := cmp.Diff([]string{"mem://root", "mem://mid", "mem://leaf"}, g.Documents()); diff != "" {
		t.Errorf("Documents() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"mem://mid"}, g.Includes("mem://root")); diff != "" {
		t.Errorf("Includes(root) mismatch (-want +got):\n%s", diff)
	}
	order, err := g.Order()
	if err != nil {
		t.Fatalf("Order() error = %v", err)
	}
	if diff := cmp.Diff([]string{"mem://leaf", "mem://mid", "mem://root"}, order); diff != "" {
		t.Errorf("Order() mismatch (-want +got):\n%s", diff)
	}
}
