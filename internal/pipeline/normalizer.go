package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"posclean/internal"
	"posclean/internal/util"
)

// ErrUnparseableField tags a size value that no rule could turn into a magnitude.
// The normalizer never returns it; it only shows up inside FieldIssue.
var ErrUnparseableField = errors.New("unparseable field")

var noteTokens = map[string]struct{}{
	"CUST REQST": {},
	"NO TAG":     {},
}

const notePrefix = "KH"

// Row is the working state threaded through the stage chain. Pointer fields are never
// written through, so copying a Row is enough to keep stages free of side effects.
type Row struct {
	Desc      *string
	Brand     *string
	Size      *string
	UOM       *string
	Note      *string
	Magnitude decimal.NullDecimal
	Issue     *FieldIssue

	// state just before the leading-letter split rewrote Size and Note
	letterSplit *letterSplit
}

type letterSplit struct {
	size string
	note *string
}

type Stage struct {
	Name  string
	Apply func(Row) Row
}

type FieldIssue struct {
	Index int
	Field string
	Value string
	Err   error
}

func (i FieldIssue) Error() string {
	return fmt.Sprintf("row %d: %s %q: %v", i.Index, i.Field, i.Value, i.Err)
}

func (i FieldIssue) Unwrap() error { return i.Err }

type NormalizerConfig struct {
	Workers      int
	Overrides    map[string]Override
	UnitSynonyms map[string]string
}

func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		Workers:      runtime.GOMAXPROCS(0),
		Overrides:    DefaultOverrides(),
		UnitSynonyms: DefaultUnitSynonyms(),
	}
}

type NormalizeStats struct {
	Rows        int
	Sized       int
	Noted       int
	Unparseable int
	Issues      []FieldIssue
}

type Normalizer struct {
	cfg    NormalizerConfig
	stages []Stage
}

func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Overrides == nil {
		cfg.Overrides = DefaultOverrides()
	}
	if cfg.UnitSynonyms == nil {
		cfg.UnitSynonyms = DefaultUnitSynonyms()
	}
	n := &Normalizer{cfg: cfg}
	n.stages = []Stage{
		{Name: "scrub_text", Apply: scrubText},
		{Name: "size_sentinels", Apply: sizeSentinels},
		{Name: "note_tokens", Apply: noteFromTokens},
		{Name: "size_from_description", Apply: sizeFromDescription},
		{Name: "note_leading_letters", Apply: noteFromLeadingLetters},
		{Name: "overrides", Apply: n.applyOverrides},
		{Name: "fractions", Apply: normalizeFractions},
		{Name: "split_magnitude", Apply: splitMagnitude},
		{Name: "unit_synonyms", Apply: n.normalizeUnit},
	}
	return n
}

// Stages returns the chain in execution order.
func (n *Normalizer) Stages() []Stage {
	out := make([]Stage, len(n.stages))
	copy(out, n.stages)
	return out
}

func (n *Normalizer) Normalize(raw internal.RawItem) internal.ItemRecord {
	row := n.run(raw)
	return toRecord(raw, row)
}

func (n *Normalizer) run(raw internal.RawItem) Row {
	row := Row{Desc: raw.Description, Brand: raw.Brand, Size: raw.Size}
	for _, stage := range n.stages {
		row = stage.Apply(row)
	}
	return row
}

// NormalizeAll maps rows across the configured number of workers. Output order matches
// input order. The context is checked between rows so callers can bound the run.
func (n *Normalizer) NormalizeAll(ctx context.Context, raws []internal.RawItem) ([]internal.ItemRecord, NormalizeStats, error) {
	out := make([]internal.ItemRecord, len(raws))
	issues := make([]*FieldIssue, len(raws))

	workers := n.cfg.Workers
	if workers > len(raws) {
		workers = len(raws)
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (len(raws) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(raws); start += chunk {
		end := min(start+chunk, len(raws))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				row := n.run(raws[i])
				out[i] = toRecord(raws[i], row)
				if row.Issue != nil {
					issue := *row.Issue
					issue.Index = i
					issues[i] = &issue
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, NormalizeStats{}, err
	}

	stats := NormalizeStats{Rows: len(raws)}
	for i, rec := range out {
		if rec.Size.Valid {
			stats.Sized++
		}
		if rec.Note != nil {
			stats.Noted++
		}
		if issues[i] != nil {
			stats.Unparseable++
			stats.Issues = append(stats.Issues, *issues[i])
		}
	}
	return out, stats, nil
}

func toRecord(raw internal.RawItem, row Row) internal.ItemRecord {
	return internal.ItemRecord{
		Code:  raw.Code,
		Desc:  row.Desc,
		Type:  raw.Type,
		Brand: row.Brand,
		Size:  row.Magnitude,
		UOM:   row.UOM,
		Note:  row.Note,
	}
}

func mapPtr(v *string, fn func(string) string) *string {
	if v == nil {
		return nil
	}
	return util.StringPtr(fn(*v))
}

func scrubText(row Row) Row {
	row.Desc = mapPtr(row.Desc, util.CleanText)
	row.Brand = mapPtr(row.Brand, util.CleanText)
	return row
}

func sizeSentinels(row Row) Row {
	if row.Size == nil {
		return row
	}
	size := util.CollapseSpaces(*row.Size)
	if size == "" || util.IsHashRun(size) {
		row.Size = nil
		return row
	}
	size = strings.TrimSpace(strings.ReplaceAll(size, "%", ""))
	if size == "" {
		row.Size = nil
		return row
	}
	row.Size = &size
	return row
}

func noteFromTokens(row Row) Row {
	if row.Size == nil {
		return row
	}
	size := *row.Size
	_, isToken := noteTokens[size]
	if !isToken && !strings.HasPrefix(size, notePrefix) {
		return row
	}
	row.Note = row.Size
	row.Size = nil
	return row
}

// sizeFromDescription runs for every row that already carries a note, which at this
// point means the size cell held an annotation instead of a measurement.
func sizeFromDescription(row Row) Row {
	if row.Note == nil {
		return row
	}
	if row.Desc == nil {
		row.Size = nil
		return row
	}
	prefix, rest, ok := util.SplitAtFirstDigit(*row.Desc)
	if !ok {
		row.Size = nil
		row.Desc = util.StringPtr(strings.TrimSpace(*row.Desc))
		return row
	}
	row.Size = util.StringPtr(rest)
	row.Desc = util.StringPtr(strings.TrimSpace(prefix))
	return row
}

// noteFromLeadingLetters scans every row, including the ones the token stage already
// touched.
func noteFromLeadingLetters(row Row) Row {
	if row.Size == nil || !util.StartsWithLetter(*row.Size) {
		return row
	}
	row.letterSplit = &letterSplit{size: *row.Size, note: row.Note}
	prefix, rest, ok := util.SplitAtFirstDigit(*row.Size)
	if !ok {
		row.Note = util.StringPtr(strings.TrimSpace(*row.Size))
		row.Size = nil
		return row
	}
	row.Note = util.StringPtr(strings.TrimSpace(prefix))
	row.Size = util.StringPtr(rest)
	return row
}

// applyOverrides matches the current size first. A value the leading-letter stage already
// took apart (for example "GAL") is matched on its pre-split form, and the note that
// stage wrote is discarded.
func (n *Normalizer) applyOverrides(row Row) Row {
	if row.Size != nil {
		if o, ok := n.cfg.Overrides[*row.Size]; ok {
			return o.apply(row)
		}
	}
	if row.letterSplit != nil {
		if o, ok := n.cfg.Overrides[row.letterSplit.size]; ok {
			row.Note = row.letterSplit.note
			return o.apply(row)
		}
	}
	return row
}

func normalizeFractions(row Row) Row {
	row.Size = mapPtr(row.Size, func(s string) string {
		return strings.ReplaceAll(s, " 1/2", ".5")
	})
	return row
}

func splitMagnitude(row Row) Row {
	row.UOM = nil
	row.Magnitude = decimal.NullDecimal{}
	if row.Size == nil {
		return row
	}
	size := *row.Size
	parsed := util.ParseSize(size)
	if parsed.Magnitude.Valid {
		row.Magnitude = parsed.Magnitude
		row.UOM = parsed.Unit
		return row
	}
	if strings.TrimSpace(size) == "" {
		return row
	}
	if row.Note == nil {
		row.Note = util.StringPtr(size)
	}
	row.Issue = &FieldIssue{Field: "item_size", Value: size, Err: ErrUnparseableField}
	return row
}

func (n *Normalizer) normalizeUnit(row Row) Row {
	if row.UOM == nil {
		return row
	}
	if mapped, ok := n.cfg.UnitSynonyms[*row.UOM]; ok {
		row.UOM = util.StringPtr(mapped)
	}
	return row
}
