// Package cli implements the jembatan command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/satpel-tasikmalaya/jembatan/internal/paths"
	"github.com/satpel-tasikmalaya/jembatan/pkg/jembatan"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// exitCode maps a command error to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// NewRootCmd creates the top-level "jembatan" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:     "jembatan",
		Short:   "Bridge inventory dashboard",
		Long:    "jembatan keeps the bridge inventory in a remote document store with a\nlocal fallback, and serves the map dashboard over HTTP.",
		Version: jembatan.Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(flags),
		newServeCmd(flags),
		newListCmd(flags),
		newShowCmd(flags),
		newStatsCmd(flags),
		newAddCmd(flags),
		newUpdateCmd(flags),
		newDeleteCmd(flags),
		newFotoCmd(flags),
		newExportCmd(flags),
		newImportCmd(flags),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return exitCode(err)
}

// resolveConfigDir returns the config directory from flag, env, or default.
func (f *rootFlags) resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(f.configDir)
}

// resolveDataDir returns the data directory from flag, config, env, or
// default.
func (f *rootFlags) resolveDataDir(configValue string) (string, error) {
	return paths.ResolveDataDir(f.dataDir, configValue)
}
