package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satpel-tasikmalaya/jembatan/internal/filter"
	"github.com/satpel-tasikmalaya/jembatan/pkg/types"
)

func newListCmd(flags *rootFlags) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bridges",
		Long: `List bridges, newest first, optionally narrowed by a filter.

Filters: all, K1, K2, K3, 100tahun, panjang50, panjang10.
An unknown filter lists every bridge.

Example:
  jembatan list
  jembatan list --filter K1
  jembatan list --filter panjang50 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			k, records, err := s.dash.Subset(filter.Key(key))
			if err != nil {
				return sysError(err)
			}
			if flags.jsonMode {
				if records == nil {
					records = []types.Bridge{}
				}
				return writeJSON(cmd.OutOrStdout(), listOutput{
					Filter:  k,
					Title:   filter.Title(k),
					Count:   len(records),
					Bridges: records,
				})
			}
			return writeBridgeTable(cmd.OutOrStdout(), filter.Title(k), records)
		},
	}
	cmd.Flags().StringVar(&key, "filter", string(filter.All), "filter key")
	return cmd
}

func newShowCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one bridge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			b, err := s.dash.Find(args[0])
			if err != nil {
				return classify(err)
			}
			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), b)
			}
			return writeBridge(cmd.OutOrStdout(), b)
		},
	}
}

func newStatsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show inventory statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			summary, err := s.dash.Stats()
			if err != nil {
				return sysError(err)
			}
			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			return writeStats(cmd.OutOrStdout(), summary)
		},
	}
}

// bridgeFlags binds the editable bridge fields to command flags.
type bridgeFlags struct {
	nomor   string
	lat     string
	lng     string
	kmhm    string
	kelas   string
	panjang string
	tahun   string
	foto    string
}

func (bf *bridgeFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&bf.nomor, "nomor", "", "bridge number (nomor BH)")
	f.StringVar(&bf.lat, "lat", "", "latitude")
	f.StringVar(&bf.lng, "lng", "", "longitude")
	f.StringVar(&bf.kmhm, "kmhm", "", "road chainage (KM/HM)")
	f.StringVar(&bf.kelas, "kelas", "", "class (K1, K2, K3)")
	f.StringVar(&bf.panjang, "panjang", "", "span length in metres")
	f.StringVar(&bf.tahun, "tahun", "", "construction year")
	f.StringVar(&bf.foto, "foto", "", "photo URL")
}

func (bf *bridgeFlags) bridge() types.Bridge {
	return types.Bridge{
		NomorBH:        bf.nomor,
		Lat:            types.Value(bf.lat),
		Lng:            types.Value(bf.lng),
		Kmhm:           types.Value(bf.kmhm),
		Kelas:          bf.kelas,
		Panjang:        types.Value(bf.panjang),
		TahunPembuatan: types.Value(bf.tahun),
		Foto:           bf.foto,
	}
}

// patch includes only the flags set on the command line.
func (bf *bridgeFlags) patch(cmd *cobra.Command) types.BridgePatch {
	changed := cmd.Flags().Changed
	value := func(s string) *types.Value {
		v := types.Value(s)
		return &v
	}
	var p types.BridgePatch
	if changed("nomor") {
		p.NomorBH = &bf.nomor
	}
	if changed("lat") {
		p.Lat = value(bf.lat)
	}
	if changed("lng") {
		p.Lng = value(bf.lng)
	}
	if changed("kmhm") {
		p.Kmhm = value(bf.kmhm)
	}
	if changed("kelas") {
		p.Kelas = &bf.kelas
	}
	if changed("panjang") {
		p.Panjang = value(bf.panjang)
	}
	if changed("tahun") {
		p.TahunPembuatan = value(bf.tahun)
	}
	if changed("foto") {
		p.Foto = &bf.foto
	}
	return p
}

func newAddCmd(flags *rootFlags) *cobra.Command {
	bf := &bridgeFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a bridge",
		Long: `Add a bridge record.

Example:
  jembatan add --nomor "BH 12" --lat -7.33 --lng 108.22 --kelas K2 --panjang 24 --tahun 1985`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if bf.nomor == "" {
				return userError(errors.New("--nomor is required"))
			}
			s, err := flags.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			id, err := s.dash.Add(cmd.Context(), bf.bridge())
			if err != nil {
				return classify(err)
			}
			s.mirror(cmd.Context())
			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"id": id})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", id)
			return nil
		},
	}
	bf.register(cmd)
	return cmd
}

func newUpdateCmd(flags *rootFlags) *cobra.Command {
	bf := &bridgeFlags{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a bridge",
		Long: `Update the fields given as flags. Other fields are left unchanged;
an empty value clears the field.

Example:
  jembatan update 0190c5c3-... --kelas K1 --panjang 62`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := bf.patch(cmd)
			if patch.IsEmpty() {
				return userError(errors.New("no fields to update"))
			}
			s, err := flags.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.dash.Update(cmd.Context(), args[0], patch); err != nil {
				return classify(err)
			}
			s.mirror(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", args[0])
			return nil
		},
	}
	bf.register(cmd)
	return cmd
}

func newDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a bridge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.dash.Delete(cmd.Context(), args[0]); err != nil {
				return classify(err)
			}
			s.mirror(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

// classify marks domain errors caused by the user's input as user errors
// and everything else as system errors.
func classify(err error) error {
	switch {
	case errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrInvalidCoordinates),
		errors.Is(err, types.ErrPhotosUnavailable):
		return userError(err)
	default:
		return sysError(err)
	}
}
