// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteArchive(t *testing.T) {
	t.Parallel()

	dir := WriteArchive(t, `comment is ignored
-- main.sx --
(app (include lib/a.sx))
-- lib/a.sx --
(a)
`)

	tests := []struct {
		name     string
		expected string
	}{
		{name: "main.sx", expected: "(app (include lib/a.sx))\n"},
		{name: "lib/a.sx", expected: "(a)\n"},
	}
	for _, tt := range tests {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(tt.name)))
		if err != nil {
			t.Fatalf("ReadFile(%s) error = %v", tt.name, err)
		}
		if string(data) != tt.expected {
			t.Errorf("%s = %q, want %q", tt.name, data, tt.expected)
		}
	}
}
