// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strconv"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

type (
	// ValidationError lists the problems CUE found in one file.
	ValidationError struct {
		File   string
		Issues []Issue
	}

	// Issue is one problem at a field path such as "watch.patterns[1]".
	Issue struct {
		Path    string
		Message string
	}
)

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("%s: %s", e.File, e.Issues[0])
	}
	lines := make([]string, 0, len(e.Issues))
	for _, i := range e.Issues {
		lines = append(lines, i.String())
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", e.File, strings.Join(lines, "\n  "))
}

// String formats the issue as "path: message", or just the message.
func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// FormatError converts a CUE error into a *ValidationError. Errors that do
// not come from CUE are wrapped with the file name.
func FormatError(err error, file string) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%s: %w", file, err)
	}

	v := &ValidationError{File: file}
	for _, e := range errs {
		p := FieldPath(cueerrors.Path(e))
		msg := e.Error()
		if p != "" {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, p), ":"))
		}
		v.Issues = append(v.Issues, Issue{Path: p, Message: msg})
	}
	return v
}

// FieldPath renders CUE path elements as "a.b[0].c".
func FieldPath(elems []string) string {
	var sb strings.Builder
	for i, e := range elems {
		if _, err := strconv.Atoi(e); err == nil && i > 0 {
			sb.WriteString("[" + e + "]")
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(e)
	}
	return sb.String()
}
