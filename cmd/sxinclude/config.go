// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sxinclude/sxinclude/internal/config"
)

// newConfigCommand creates the `sxinclude config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sxinclude configuration",
		Long: `Manage sxinclude configuration.

Configuration is read from the first of:
  - the --config flag
  - $XDG_CONFIG_HOME/sxinclude/config.cue (or the platform config directory)
  - ./config.cue

SXINCLUDE_* environment variables override file values, e.g.
SXINCLUDE_OUTPUT_FORMAT=json.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, app, args, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return app.fail(cmd, err)
			}
			fmt.Fprintln(app.stdout, filepath.Join(dir, config.FileName))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App) error {
	s, err := app.session(cmd)
	if err != nil {
		return app.fail(cmd, err)
	}

	source := "(defaults)"
	if s.path != "" {
		source = s.path
	}
	fmt.Fprintf(app.stdout, "// source: %s\n", source)
	fmt.Fprint(app.stdout, config.GenerateCUE(s.cfg))
	return nil
}

func initConfig(cmd *cobra.Command, app *App, args []string, force bool) error {
	dir := ""
	if len(args) == 1 {
		dir = args[0]
	} else {
		var err error
		if dir, err = config.ConfigDir(); err != nil {
			return app.fail(cmd, err)
		}
	}

	path, err := config.WriteDefault(dir, force)
	if errors.Is(err, fs.ErrExist) {
		fmt.Fprintf(app.stderr, "%s %s already exists (use --force to overwrite)\n", WarningStyle.Render("!"), path)
		cmd.SilenceErrors = true
		return &ExitError{Code: ExitDiagnostics, Err: err}
	}
	if err != nil {
		return app.fail(cmd, err)
	}
	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}
