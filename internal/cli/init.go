package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satpel-tasikmalaya/jembatan/internal/localstore"
)

func newInitCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize jembatan storage",
		Long:  "Create the configuration and data directories, write a default config.yaml\nand initialize the local store.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, flags)
		},
	}
}

func runInit(cmd *cobra.Command, flags *rootFlags) error {
	configDir, err := flags.resolveConfigDir()
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := flags.loadConfig()
	if err != nil {
		return err
	}

	store := localstore.NewStore()
	if err := store.Attach(cfg.DataDir); err != nil {
		return sysError(fmt.Errorf("initialize storage: %w", err))
	}
	if err := store.Detach(); err != nil {
		return sysError(fmt.Errorf("finalize storage: %w", err))
	}

	if flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), map[string]string{
			"config_dir": configDir,
			"data_dir":   cfg.DataDir,
		})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "jembatan initialized successfully")
	fmt.Fprintf(out, "config: %s\ndata:   %s\n", configDir, cfg.DataDir)
	return nil
}
