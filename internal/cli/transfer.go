package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satpel-tasikmalaya/jembatan/internal/localstore"
)

func newExportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export every bridge to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			records, err := s.dash.Records()
			if err != nil {
				return sysError(err)
			}
			if err := localstore.WriteJSONL(args[0], records); err != nil {
				return sysError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d bridges to %s\n", len(records), args[0])
			return nil
		},
	}
}

func newImportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import bridges from a JSONL file",
		Long: `Import bridges from a JSONL file with one record per line.

In remote mode every record is created in the remote store. In local mode
the file replaces the local inventory. Malformed lines are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, skipped, err := localstore.ReadJSONL(args[0])
			if err != nil {
				return userError(err)
			}

			s, err := flags.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			if skipped > 0 {
				s.log.WithField("skipped", skipped).Warn("malformed lines skipped")
			}
			n, err := s.dash.Import(cmd.Context(), records)
			if err != nil {
				return classify(err)
			}
			s.mirror(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d bridges (%s mode)\n", n, s.dash.Mode())
			return nil
		},
	}
}
