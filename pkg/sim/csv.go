package sim

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteCSV exports every saved variable series joined on the shared
// time column. The header is "time" followed by the visible variable
// paths in sorted order.
func (s *Sim) WriteCSV(w io.Writer) error {
	names := make([]string, 0, len(s.prog.names))
	for _, name := range s.VarNames(false) {
		if name != "time" {
			names = append(names, name)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"time"}, names...)); err != nil {
		return err
	}

	record := make([]string, len(names)+1)
	for _, row := range s.saved {
		record[0] = formatCSV(row.time)
		for i, name := range names {
			record[i+1] = formatCSV(row.slots[s.prog.names[name]])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCSV(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
