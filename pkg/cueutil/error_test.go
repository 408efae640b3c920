// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

func TestFieldPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		elems    []string
		expected string
	}{
		{elems: nil, expected: ""},
		{elems: []string{"log"}, expected: "log"},
		{elems: []string{"watch", "debounce"}, expected: "watch.debounce"},
		{elems: []string{"search_paths", "2"}, expected: "search_paths[2]"},
		{elems: []string{"a", "0", "b", "1"}, expected: "a[0].b[1]"},
		{elems: []string{"0", "x"}, expected: "0.x"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()

			if got := FieldPath(tt.elems); got != tt.expected {
				t.Errorf("FieldPath(%v) = %q, want %q", tt.elems, got, tt.expected)
			}
		})
	}
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	if FormatError(nil, "x.cue") != nil {
		t.Error("FormatError(nil) must be nil")
	}

	plain := FormatError(errors.New("boom"), "x.cue")
	if plain == nil || plain.Error() != "x.cue: boom" {
		t.Errorf("FormatError(plain) = %v, want x.cue: boom", plain)
	}

	_, _, err := Decode[settings]([]byte(testSchema), []byte("name: 1\ndepth: \"deep\""), "#Settings", WithFilename("s.cue"))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Decode() error = %v, want *ValidationError", err)
	}
	if ve.File != "s.cue" || len(ve.Issues) == 0 {
		t.Fatalf("ValidationError = %+v, want issues in s.cue", ve)
	}
	if !strings.HasPrefix(err.Error(), "s.cue: ") {
		t.Errorf("Error() = %q, want it prefixed with the file", err)
	}
}

func TestIssueString(t *testing.T) {
	t.Parallel()

	if got := (Issue{Path: "log.level", Message: "bad"}).String(); got != "log.level: bad" {
		t.Errorf("String() = %q", got)
	}
	if got := (Issue{Message: "bad"}).String(); got != "bad" {
		t.Errorf("String() = %q", got)
	}
}
