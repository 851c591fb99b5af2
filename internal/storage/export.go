package storage

import (
	"encoding/csv"
	"io"
	"strconv"
)

// ExportCSV writes every row of a dump as CSV with a header line.
func ExportCSV(w io.Writer, d *Dump) error {
	cw := csv.NewWriter(w)
	header := []string{"id", "type", "h", "density", "pressure", "acc", "vel", "pos", "u"}
	if err := cw.Write(header); err != nil {
		return err
	}
	ff := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, r := range d.Rows {
		row := []string{
			strconv.FormatInt(r.ID, 10), r.Kind,
			ff(r.H), ff(r.Density), ff(r.Pressure), ff(r.Acc), ff(r.Vel), ff(r.Pos), ff(r.U),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
