// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestIsFatal(t *testing.T) {
	t.Parallel()

	for _, err := range []error{syscall.ENOSPC, fmt.Errorf("add watch: %w", syscall.EMFILE), syscall.ENFILE} {
		if !isFatal(err) {
			t.Errorf("isFatal(%v) = false, want true", err)
		}
	}
	for _, err := range []error{syscall.EACCES, errors.New("queue overflow")} {
		if isFatal(err) {
			t.Errorf("isFatal(%v) = true, want false", err)
		}
	}
}
