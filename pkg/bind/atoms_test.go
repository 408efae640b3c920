// SPDX-License-Identifier: MPL-2.0

package bind

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIntReader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value    string
		expected int
		ok       bool
	}{
		{value: "42", expected: 42, ok: true},
		{value: "-7", expected: -7, ok: true},
		{value: "+3", expected: 3, ok: true},
		{value: "4.5"},
		{value: "0x10"},
		{value: ""},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()

			got, ok := IntReader{}.Read(tt.value)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("Read(%q) = %d, %v, want %d, %v", tt.value, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestBoolReader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value    string
		expected bool
		ok       bool
	}{
		{value: "true", expected: true, ok: true},
		{value: "YES", expected: true, ok: true},
		{value: "False", ok: true},
		{value: "no", ok: true},
		{value: "1"},
		{value: "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()

			got, ok := BoolReader{}.Read(tt.value)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("Read(%q) = %v, %v, want %v, %v", tt.value, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestEnumReader(t *testing.T) {
	t.Parallel()

	type level int
	values := map[string]level{"low": 1, "high": 3, "medium": 2}
	reader := NewEnumReader(values)
	values["extra"] = 4

	if got, ok := reader.Read("medium"); !ok || got != 2 {
		t.Errorf("Read(medium) = %d, %v, want 2, true", got, ok)
	}
	if _, ok := reader.Read("extra"); ok {
		t.Error("reader must not see entries added after construction")
	}
	if _, ok := reader.Read("LOW"); ok {
		t.Error("enum names are case-sensitive")
	}
	if diff := cmp.Diff([]string{"high", "low", "medium"}, reader.LegalValues()); diff != "" {
		t.Errorf("LegalValues() mismatch (-want +got):\n%s", diff)
	}
}

func TestStringReader(t *testing.T) {
	t.Parallel()

	if got, ok := (StringReader{}).Read("any thing"); !ok || got != "any thing" {
		t.Errorf("Read() = %q, %v, want the input", got, ok)
	}
}
