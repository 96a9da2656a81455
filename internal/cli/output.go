package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/satpel-tasikmalaya/jembatan/internal/filter"
	"github.com/satpel-tasikmalaya/jembatan/internal/render"
	"github.com/satpel-tasikmalaya/jembatan/internal/stats"
	"github.com/satpel-tasikmalaya/jembatan/pkg/types"
)

// listOutput is the --json shape of the list command.
type listOutput struct {
	Filter  filter.Key     `json:"filter"`
	Title   string         `json:"title"`
	Count   int            `json:"count"`
	Bridges []types.Bridge `json:"bridges"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeBridgeTable(w io.Writer, title string, records []types.Bridge) error {
	fmt.Fprintf(w, "%s (%d)\n", title, len(records))
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, render.EmptyPlaceholder)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOMOR BH\tKELAS\tPANJANG\tTAHUN\tLAT\tLNG")
	for _, b := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, dash(b.NomorBH), dash(b.Kelas), dash(b.Panjang.String()),
			dash(b.TahunPembuatan.String()), dash(b.Lat.String()), dash(b.Lng.String()))
	}
	return tw.Flush()
}

func writeBridge(w io.Writer, b types.Bridge) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"ID", b.ID},
		{"Nomor BH", b.NomorBH},
		{"Kelas", b.Kelas},
		{"KM/HM", b.Kmhm.String()},
		{"Panjang", b.Panjang.String()},
		{"Tahun Pembuatan", b.TahunPembuatan.String()},
		{"Lat", b.Lat.String()},
		{"Lng", b.Lng.String()},
		{"Foto", b.Foto},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r[0], dash(r[1]))
	}
	if b.CreatedAt != nil {
		fmt.Fprintf(tw, "Dibuat:\t%s\n", b.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	if b.UpdatedAt != nil {
		fmt.Fprintf(tw, "Diperbarui:\t%s\n", b.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func writeStats(w io.Writer, s stats.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := []struct {
		label string
		n     int
	}{
		{"Total Jembatan", s.Total},
		{"Kelas K1", s.K1},
		{"Kelas K2", s.K2},
		{"Kelas K3", s.K3},
		{"Umur 100+ Tahun", s.Century},
		{"Panjang > 50 M", s.SpanOver50},
		{"Panjang < 10 M", s.SpanUnder10},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%d\n", r.label, r.n)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, s.Storage.StorageText())
	return err
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
