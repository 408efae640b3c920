// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the sxinclude CLI.
//
// Every command builds a resolver router from the effective configuration,
// expands one or more root documents with the include engine, and renders
// either the resolved tree or the diagnostics collected along the way.
package cmd
