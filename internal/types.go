package internal

import "github.com/shopspring/decimal"

// RawItem is one row of item.csv before normalization. Nil means the cell was absent.
type RawItem struct {
	Code        *string
	Description *string
	Type        *string
	Brand       *string
	Size        *string
}

// ItemRecord is the normalized form of a RawItem.
type ItemRecord struct {
	Code  *string
	Desc  *string
	Type  *string
	Brand *string
	Size  decimal.NullDecimal
	UOM   *string
	Note  *string
}

type ArchiveStatus string

const (
	ArchiveFetched   ArchiveStatus = "fetched"
	ArchiveProcessed ArchiveStatus = "processed"
	ArchiveExported  ArchiveStatus = "exported"
	ArchiveFailed    ArchiveStatus = "failed"
)

type ArchiveRow struct {
	ID        int
	URL       string
	Hash      string
	Path      string
	Status    ArchiveStatus
	FetchedAt string
}

type RunRow struct {
	ID        int
	TraceID   string
	ArchiveID *int
	File      string
	Timings   map[string]float64
	Counts    map[string]int
	CreatedAt string
}
