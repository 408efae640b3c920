// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// OutputSexp prints resolved trees as S-expression text.
	OutputSexp OutputFormat = "sexp"
	// OutputYAML prints resolved trees as YAML documents.
	OutputYAML OutputFormat = "yaml"
	// OutputJSON prints resolved trees as JSON.
	OutputJSON OutputFormat = "json"

	// LogLevelDebug logs every fetch and skipped module document.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs warnings and errors only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs errors only.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidWatchConfig is the sentinel error wrapped by InvalidWatchConfigError.
	ErrInvalidWatchConfig = errors.New("invalid watch config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// OutputFormat selects how resolved trees are printed.
	OutputFormat string

	// InvalidOutputFormatError is returned when an OutputFormat value is not recognized.
	// It wraps ErrInvalidOutputFormat for errors.Is() compatibility.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	// LogLevel is the minimum level of CLI log output.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// Config holds the application configuration.
	Config struct {
		// SearchPaths are roots tried, in order, for relative file references
		// that do not exist next to the including document.
		SearchPaths []string `json:"search_paths" mapstructure:"search_paths"`
		// MaxDocumentSize bounds every document read from disk, in bytes.
		MaxDocumentSize int64        `json:"max_document_size" mapstructure:"max_document_size"`
		Git             GitConfig    `json:"git" mapstructure:"git"`
		Output          OutputConfig `json:"output" mapstructure:"output"`
		Log             LogConfig    `json:"log" mapstructure:"log"`
		Watch           WatchConfig  `json:"watch" mapstructure:"watch"`
	}

	// GitConfig controls git+ targets.
	GitConfig struct {
		// Enabled registers the git resolver. Disable it for offline use.
		Enabled bool `json:"enabled" mapstructure:"enabled"`
		// DefaultRef is used for targets without ?ref=. "latest" selects the
		// highest semantic-version tag.
		DefaultRef string `json:"default_ref" mapstructure:"default_ref"`
	}

	// OutputConfig controls how resolved trees are printed.
	OutputConfig struct {
		Format OutputFormat `json:"format" mapstructure:"format"`
		// Provenance attaches include chains to YAML and JSON output.
		Provenance bool `json:"provenance" mapstructure:"provenance"`
	}

	// LogConfig controls CLI logging.
	LogConfig struct {
		Level LogLevel `json:"level" mapstructure:"level"`
	}

	// WatchConfig controls `sxinclude watch`.
	WatchConfig struct {
		// Patterns are doublestar globs selecting the files whose changes
		// trigger a new resolution.
		Patterns []string `json:"patterns" mapstructure:"patterns"`
		// Ignore are doublestar globs excluded from watching.
		Ignore   []string      `json:"ignore" mapstructure:"ignore"`
		Debounce time.Duration `json:"debounce" mapstructure:"debounce"`
	}

	// InvalidWatchConfigError is returned when WatchConfig has invalid fields.
	// It wraps ErrInvalidWatchConfig for errors.Is() compatibility.
	InvalidWatchConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		SearchPaths:     []string{},
		MaxDocumentSize: 5 * 1024 * 1024,
		Git: GitConfig{
			Enabled:    true,
			DefaultRef: "latest",
		},
		Output: OutputConfig{
			Format: OutputSexp,
		},
		Log: LogConfig{
			Level: LogLevelInfo,
		},
		Watch: WatchConfig{
			Patterns: []string{"**/*.sx", "**/*.sexp"},
			Ignore:   []string{},
			Debounce: 300 * time.Millisecond,
		},
	}
}

// IsValid returns whether the Config has valid fields. CUE validates files
// before they reach viper, but environment overrides and flags bypass it.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Output.Format.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Log.Level.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.MaxDocumentSize <= 0 {
		errs = append(errs, fmt.Errorf("max_document_size must be positive, got %d", c.MaxDocumentSize))
	}
	for i, p := range c.SearchPaths {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("search_paths[%d] must be non-empty", i))
		}
	}
	if valid, fieldErrs := c.Watch.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Validate is IsValid as a single error.
func (c Config) Validate() error {
	if valid, errs := c.IsValid(); !valid {
		return errs[0]
	}
	return nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// IsValid returns whether every pattern is a valid doublestar glob and the
// debounce delay is not negative.
func (w WatchConfig) IsValid() (bool, []error) {
	var errs []error
	for _, p := range slices.Concat(w.Patterns, w.Ignore) {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("invalid glob pattern %q", p))
		}
	}
	if w.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce must not be negative, got %s", w.Debounce))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidWatchConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidWatchConfigError.
func (e *InvalidWatchConfigError) Error() string {
	return fmt.Sprintf("invalid watch config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidWatchConfig for errors.Is() compatibility.
func (e *InvalidWatchConfigError) Unwrap() error { return ErrInvalidWatchConfig }

// String returns the string representation of the OutputFormat.
func (f OutputFormat) String() string { return string(f) }

// IsValid returns whether the OutputFormat is one of the defined formats.
func (f OutputFormat) IsValid() (bool, []error) {
	switch f {
	case OutputSexp, OutputYAML, OutputJSON:
		return true, nil
	default:
		return false, []error{&InvalidOutputFormatError{Value: f}}
	}
}

// Error implements the error interface for InvalidOutputFormatError.
func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: sexp, yaml, json)", e.Value)
}

// Unwrap returns ErrInvalidOutputFormat for errors.Is() compatibility.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }
