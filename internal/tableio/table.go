package tableio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var ErrMissingColumn = errors.New("missing column")

// Table is a loosely typed sheet. A nil cell is an absent value.
type Table struct {
	Columns []string
	Rows    [][]*string
}

func (t *Table) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// MustIndex is Index with an error for absent columns.
func (t *Table) MustIndex(column string) (int, error) {
	idx := t.Index(column)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %s", ErrMissingColumn, column)
	}
	return idx, nil
}

// Rename relabels columns in place. Unknown keys are ignored and order is kept.
func (t *Table) Rename(mapping map[string]string) {
	for i, c := range t.Columns {
		if next, ok := mapping[c]; ok {
			t.Columns[i] = next
		}
	}
}

// AddColumn appends an all-absent column and returns its index. An existing column is
// reused as is.
func (t *Table) AddColumn(name string) int {
	if idx := t.Index(name); idx >= 0 {
		return idx
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], nil)
	}
	return len(t.Columns) - 1
}

func (t *Table) Cell(row, col int) *string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return nil
	}
	return t.Rows[row][col]
}

func (t *Table) SetCell(row, col int, value *string) {
	for len(t.Rows[row]) <= col {
		t.Rows[row] = append(t.Rows[row], nil)
	}
	t.Rows[row][col] = value
}

// CleanFileName inserts suffix before the extension: item.csv -> item_clean.csv.
func CleanFileName(name, suffix string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + suffix + ext
}

func cellsFromStrings(values []string, width int) []*string {
	out := make([]*string, width)
	for i := 0; i < width && i < len(values); i++ {
		if values[i] == "" {
			continue
		}
		v := values[i]
		out[i] = &v
	}
	return out
}
