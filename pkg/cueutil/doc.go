// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents against an embedded schema.
//
// Decoding unifies the user's file with one definition of the schema,
// validates the result, and decodes it into a Go value. Validation failures
// come back as a *ValidationError listing every offending field path.
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	cfg, _, err := cueutil.Decode[Config](schema, data, "#Config",
//	    cueutil.WithFilename(path), cueutil.WithConcrete(false))
package cueutil
