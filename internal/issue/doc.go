// SPDX-License-Identifier: MPL-2.0

// Package issue turns failures into messages a user can act on.
//
// ActionableError carries the failed operation, the resource involved, and
// suggestions. The catalog holds a markdown explanation per diagnostic code,
// rendered by `sxinclude explain`.
package issue
