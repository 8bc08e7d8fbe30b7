package report

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/fooddesert/tract-agent/internal/tract"
)

// writeCSV exports the records with the sorted union of all field names
// seen as the header row. An empty run still produces a file with an
// empty header.
func (r *Reporter) writeCSV(path string, records []tract.Record) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create csv %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := fieldNames(records)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	row := make([]string, len(header))
	for _, rec := range records {
		for i, name := range header {
			row[i] = formatCell(rec[name])
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv %s: %w", path, err)
	}
	return nil
}
