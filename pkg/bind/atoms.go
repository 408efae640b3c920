// SPDX-License-Identifier: MPL-2.0

package bind

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

type (
	// StringReader accepts any atom text as is.
	StringReader struct{}

	// IntReader accepts base-10 integers, with an optional sign.
	IntReader struct{}

	// BoolReader accepts true/false and yes/no, ignoring case.
	BoolReader struct{}

	// EnumReader accepts exactly the keys of a fixed table.
	EnumReader[T any] struct {
		values map[string]T
	}
)

// Read implements AtomReader.
func (StringReader) Read(value string) (string, bool) { return value, true }

// LegalValues implements AtomReader.
func (StringReader) LegalValues() []string { return []string{"<string>"} }

// Read implements AtomReader.
func (IntReader) Read(value string) (int, bool) {
	n, err := strconv.Atoi(value)
	return n, err == nil
}

// LegalValues implements AtomReader.
func (IntReader) LegalValues() []string { return []string{"<integer>"} }

// Read implements AtomReader.
func (BoolReader) Read(value string) (bool, bool) {
	switch strings.ToLower(value) {
	case "true", "yes":
		return true, true
	case "false", "no":
		return false, true
	default:
		return false, false
	}
}

// LegalValues implements AtomReader.
func (BoolReader) LegalValues() []string { return []string{"true", "false", "yes", "no"} }

// NewEnumReader returns a reader over a copy of values.
func NewEnumReader[T any](values map[string]T) EnumReader[T] {
	return EnumReader[T]{values: maps.Clone(values)}
}

// Read implements AtomReader.
func (e EnumReader[T]) Read(value string) (T, bool) {
	v, ok := e.values[value]
	return v, ok
}

// LegalValues implements AtomReader, in sorted order.
func (e EnumReader[T]) LegalValues() []string {
	return slices.Sorted(maps.Keys(e.values))
}
