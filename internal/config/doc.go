// SPDX-License-Identifier: MPL-2.0

// Package config loads sxinclude settings.
//
// Settings come from built-in defaults, then config.cue (from --config, the
// user config directory, or the working directory, first found wins), then
// SXINCLUDE_* environment variables such as SXINCLUDE_OUTPUT_FORMAT. The
// file is validated against the embedded config_schema.cue before it is
// merged, so typos in field names are reported with their path.
package config
