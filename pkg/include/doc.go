// SPDX-License-Identifier: MPL-2.0

// Package include expands the inclusion directives of S-expression documents.
//
// Three directives are resolved:
//
//	(include <ref...>)          splice every top-level form of another document
//	(no-include <body...>)      keep body only when read as the root document
//	(include-modules <ref...>)  collect the (~module ...) forms of other documents
//
// Expansion is depth-first and order-preserving. Two guards bound it:
//   - the include stack holds the documents on the current path; including one
//     of them again is reported as a cyclic include and elided
//   - the module set holds every document already read by include-modules in
//     the current call; such documents are skipped silently, so mutually
//     dependent module documents each contribute exactly once
//
// Every node spliced from another document gets a location whose Source is
// the directive that pulled it in (see [sexp.Location]).
//
// Documents are fetched through a [Resolver]. The package ships:
//   - [MapResolver]: in-memory documents
//   - [FileResolver]: the local filesystem with search paths
//   - [GitResolver]: files inside remote Git repositories
//   - [Router]: dispatch by URI scheme
//
// Problems with individual directives are reported to a [diag.ErrorSink] and
// never stop the run. Only a root document that cannot be fetched or parsed
// is returned as an error.
package include
