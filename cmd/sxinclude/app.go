// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sxinclude/sxinclude/internal/config"
	"github.com/sxinclude/sxinclude/pkg/include"
)

type (
	// App wires CLI services and shared dependencies. Command handlers
	// receive an App and never touch os.Stdout or os.Stderr directly.
	App struct {
		Config config.Provider
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
		flags  rootFlagValues
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// rootFlagValues holds the persistent flags shared by every command.
	rootFlagValues struct {
		configPath string
		logLevel   string
		format     string
		provenance bool
		verbose    bool
	}

	// session is the effective configuration of one command run.
	session struct {
		cfg    *config.Config
		path   string
		router *include.Router
		logger *slog.Logger
	}
)

// NewApp builds an App, filling unset dependencies with the real config
// loader and the process's standard streams.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		stdin:  deps.Stdin,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// session loads configuration, applies flag overrides, and installs the
// CLI logger as the slog default.
func (a *App) session(cmd *cobra.Command) (*session, error) {
	loaded, err := a.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: a.flags.configPath})
	if err != nil {
		return nil, err
	}

	cfg := *loaded.Config
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = config.LogLevel(strings.ToLower(a.flags.logLevel))
	}
	if flags.Changed("format") {
		cfg.Output.Format = config.OutputFormat(strings.ToLower(a.flags.format))
	}
	if flags.Changed("provenance") {
		cfg.Output.Provenance = a.flags.provenance
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger(a.stderr, cfg.Log.Level)
	slog.SetDefault(logger)

	return &session{
		cfg:    &cfg,
		path:   loaded.Path,
		router: newRouter(&cfg),
		logger: logger,
	}, nil
}

// newRouter registers the file resolver, and the git resolver unless it is
// disabled. References without a scheme fall back to the filesystem.
func newRouter(cfg *config.Config) *include.Router {
	router := include.NewRouter(include.FileScheme).
		Handle(&include.FileResolver{
			SearchPaths: cfg.SearchPaths,
			MaxSize:     cfg.MaxDocumentSize,
		}, include.FileScheme)
	if cfg.Git.Enabled {
		router.Handle(&include.GitResolver{DefaultRef: cfg.Git.DefaultRef}, include.GitSchemes...)
	}
	return router
}

// newLogger returns a charmbracelet logger behind the slog API.
func newLogger(w io.Writer, level config.LogLevel) *slog.Logger {
	handler := log.NewWithOptions(w, log.Options{
		Level:  logLevel(level),
		Prefix: config.AppName,
	})
	return slog.New(handler)
}

func logLevel(level config.LogLevel) log.Level {
	switch level {
	case config.LogLevelDebug:
		return log.DebugLevel
	case config.LogLevelWarn:
		return log.WarnLevel
	case config.LogLevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
