package tableio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type Options struct {
	// Encoding of CSV sources: utf-8, windows-1252 or iso-8859-1.
	Encoding string
	// BOM prefixes written CSV files with a UTF-8 byte order mark.
	BOM bool
}

// Load reads a .csv or .xlsx file into a Table. The first row is the header.
func Load(path string, opts Options) (*Table, error) {
	slog.Debug("Loading table", slog.String("path", path), slog.String("encoding", opts.Encoding))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		blob, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return LoadXLSX(blob)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return LoadCSV(f, opts)
	}
}

func LoadCSV(r io.Reader, opts Options) (*Table, error) {
	dec, err := sourceDecoder(opts.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(transform.NewReader(r, dec))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	t := &Table{Columns: trimHeader(header)}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record %d: %w", len(t.Rows)+1, err)
		}
		t.Rows = append(t.Rows, cellsFromStrings(record, len(t.Columns)))
	}
	return t, nil
}

func LoadXLSX(content []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Table{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}

	t := &Table{Columns: trimHeader(rows[0])}
	for _, row := range rows[1:] {
		t.Rows = append(t.Rows, cellsFromStrings(row, len(t.Columns)))
	}
	return t, nil
}

func sourceDecoder(name string) (transform.Transformer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported source encoding: %s", name)
	}
}

func trimHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(h)
	}
	return out
}
