package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satpel-tasikmalaya/jembatan/pkg/jembatan"
)

const modulePath = "github.com/satpel-tasikmalaya/jembatan"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the jembatan version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "jembatan v%s\nmodule: %s\n", jembatan.Version, modulePath)
			return nil
		},
	}
}
