package tableio

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Save writes the table as CSV, creating parent directories.
func Save(path string, t *Table, opts Options) error {
	slog.Info("Writing CSV file",
		slog.String("path", path),
		slog.Int("record_count", len(t.Rows)))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, t, opts); err != nil {
		return err
	}
	return f.Close()
}

func WriteCSV(w io.Writer, t *Table, opts Options) error {
	if opts.BOM {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	record := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		for c := range record {
			record[c] = ""
			if c < len(row) && row[c] != nil {
				record[c] = *row[c]
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
