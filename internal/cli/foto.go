package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newFotoCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "foto",
		Short: "Manage bridge photos",
	}
	cmd.AddCommand(newFotoUploadCmd(flags), newFotoDeleteCmd(flags))
	return cmd
}

func newFotoUploadCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <id> <file>",
		Short: "Upload a photo and link it to a bridge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return userError(fmt.Errorf("open photo: %w", err))
			}
			defer f.Close()

			s, err := flags.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			contentType := mime.TypeByExtension(filepath.Ext(args[1]))
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			url, err := s.dash.UploadPhoto(cmd.Context(), args[0], filepath.Base(args[1]), f, contentType)
			if err != nil {
				return classify(err)
			}
			s.mirror(cmd.Context())
			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"foto": url})
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}

func newFotoDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete the photo of a bridge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.dash.DeletePhoto(cmd.Context(), args[0]); err != nil {
				return classify(err)
			}
			s.mirror(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "photo deleted for %s\n", args[0])
			return nil
		},
	}
}
