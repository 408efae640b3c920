// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests that build document trees on
// disk. Failures stop the test immediately.
package testutil
