// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/sxinclude/sxinclude/internal/issue"
	"github.com/sxinclude/sxinclude/pkg/cueutil"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func load(t *testing.T, opts LoadOptions) (*Loaded, error) {
	t.Helper()
	return LoadWithPath(context.Background(), opts)
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Output.Format != OutputSexp {
		t.Errorf("Output.Format = %s, want sexp", cfg.Output.Format)
	}
	if !cfg.Git.Enabled || cfg.Git.DefaultRef != "latest" {
		t.Errorf("Git = %+v, want enabled with latest", cfg.Git)
	}
	if cfg.MaxDocumentSize != 5*1024*1024 {
		t.Errorf("MaxDocumentSize = %d, want 5MiB", cfg.MaxDocumentSize)
	}
	if diff := cmp.Diff([]string{"**/*.sx", "**/*.sexp"}, cfg.Watch.Patterns); diff != "" {
		t.Errorf("Watch.Patterns mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must be valid: %v", err)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	loaded, err := load(t, LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("LoadWithPath() error = %v", err)
	}
	if loaded.Path != "" {
		t.Errorf("Path = %q, want empty", loaded.Path)
	}
	if diff := cmp.Diff(DefaultConfig(), loaded.Config, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	dir := t.TempDir()
	path := writeConfig(t, dir, `
search_paths: ["/srv/shared", "/srv/vendor"]
output: format: "yaml"
watch: debounce: "1s"
`)

	loaded, err := load(t, LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("LoadWithPath() error = %v", err)
	}
	if loaded.Path != path {
		t.Errorf("Path = %q, want %q", loaded.Path, path)
	}

	want := DefaultConfig()
	want.SearchPaths = []string{"/srv/shared", "/srv/vendor"}
	want.Output.Format = OutputYAML
	want.Watch.Debounce = time.Second
	if diff := cmp.Diff(want, loaded.Config, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SXINCLUDE_LOG_LEVEL", "debug")
	t.Setenv("SXINCLUDE_GIT_ENABLED", "false")

	dir := t.TempDir()
	writeConfig(t, dir, `log: level: "warn"`)

	loaded, err := load(t, LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("LoadWithPath() error = %v", err)
	}
	if loaded.Config.Log.Level != LogLevelDebug {
		t.Errorf("Log.Level = %s, want debug from the environment", loaded.Config.Log.Level)
	}
	if loaded.Config.Git.Enabled {
		t.Error("Git.Enabled = true, want false from the environment")
	}
}

func TestLoadRejectsInvalidEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SXINCLUDE_OUTPUT_FORMAT", "xml")

	_, err := load(t, LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidOutputFormat) {
		t.Fatalf("LoadWithPath() error = %v, want ErrInvalidOutputFormat", err)
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || !ae.HasSuggestions() {
		t.Errorf("error = %v, want an actionable error with suggestions", err)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.cue")
	if err := os.WriteFile(path, []byte(`output: provenance: true`), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := load(t, LoadOptions{ConfigFilePath: path, ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("LoadWithPath() error = %v", err)
	}
	if !loaded.Config.Output.Provenance || loaded.Path != path {
		t.Errorf("loaded = %+v from %q, want provenance from %q", loaded.Config.Output, loaded.Path, path)
	}

	_, err = load(t, LoadOptions{ConfigFilePath: filepath.Join(dir, "missing.cue")})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing explicit file error = %v, want fs.ErrNotExist", err)
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "unknown field", content: `colour: "red"`, wantErr: "colour"},
		{name: "bad format", content: `output: format: "xml"`, wantErr: "output.format"},
		{name: "negative size", content: `max_document_size: -1`, wantErr: "max_document_size"},
		{name: "bad duration", content: `watch: debounce: "soon"`, wantErr: "watch.debounce"},
		{name: "syntax", content: `log: {`, wantErr: FileName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeConfig(t, dir, tt.content)
			_, err := load(t, LoadOptions{ConfigDirPath: dir})
			if err == nil {
				t.Fatal("LoadWithPath() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateCUERoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SearchPaths = []string{"/a", `C:\docs`}
	cfg.Output.Provenance = true
	cfg.Watch.Ignore = []string{"**/tmp/**"}

	dir := t.TempDir()
	writeConfig(t, dir, GenerateCUE(cfg))
	loaded, err := load(t, LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded.Config, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestGeneratedCUEMatchesSchema(t *testing.T) {
	t.Parallel()

	if _, _, err := cueutil.Decode[map[string]any](configSchema, []byte(GenerateCUE(DefaultConfig())), "#Config"); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestWriteDefault(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested")
	path, err := WriteDefault(dir, false)
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if path != filepath.Join(dir, FileName) {
		t.Errorf("path = %q", path)
	}

	if _, err := WriteDefault(dir, false); !errors.Is(err, fs.ErrExist) {
		t.Errorf("second WriteDefault() error = %v, want fs.ErrExist", err)
	}
	if _, err := WriteDefault(dir, true); err != nil {
		t.Errorf("forced WriteDefault() error = %v", err)
	}
}

func TestConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	got, err := ConfigDir()
	if err != nil || got != dir {
		t.Errorf("ConfigDir() = %q, %v, want %q", got, err, dir)
	}
}

func TestConfigDirHonorsXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	got, err := ConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(xdg, AppName) {
		t.Errorf("ConfigDir() = %q, want %q", got, filepath.Join(xdg, AppName))
	}
}

func TestProviderLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, `git: default_ref: "main"`)

	loaded, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Config.Git.DefaultRef != "main" {
		t.Errorf("Git.DefaultRef = %q, want main", loaded.Config.Git.DefaultRef)
	}
	if loaded.Path != filepath.Join(dir, FileName) {
		t.Errorf("Path = %q, want %q", loaded.Path, filepath.Join(dir, FileName))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: dir}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() with canceled context error = %v, want context.Canceled", err)
	}
}
