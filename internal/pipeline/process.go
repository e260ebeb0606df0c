package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"posclean/internal"
	"posclean/internal/config"
	"posclean/internal/storage"
	"posclean/internal/tableio"
)

type ProcessingService struct {
	db         *storage.DB
	cfg        config.Config
	normalizer *Normalizer
	logger     *slog.Logger
}

func NewProcessingService(db *storage.DB, cfg config.Config, logger *slog.Logger) *ProcessingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessingService{
		db:         db,
		cfg:        cfg,
		normalizer: NewNormalizer(NormalizerConfigFrom(cfg)),
		logger:     logger,
	}
}

func NormalizerConfigFrom(cfg config.Config) NormalizerConfig {
	nc := DefaultNormalizerConfig()
	if cfg.NormalizeWorkers > 0 {
		nc.Workers = cfg.NormalizeWorkers
	}
	return nc
}

type FileResult struct {
	File        string
	Output      string
	Rows        int
	Stored      int
	Unparseable int
	Err         error
}

type ProcessResult struct {
	TraceID string
	Files   []FileResult
}

func (r ProcessResult) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// Err joins the per-file failures, or returns nil when every file went through.
func (r ProcessResult) Err() error {
	var errs []error
	for _, f := range r.Files {
		if f.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.File, f.Err))
		}
	}
	return errors.Join(errs...)
}

// ProcessFiles cleans each named file from dir into CLEAN_DIR. A file that fails is
// logged and recorded in the result; the remaining files are still processed.
func (s *ProcessingService) ProcessFiles(ctx context.Context, dir string, files []string, archiveID *int) ProcessResult {
	result := ProcessResult{TraceID: uuid.NewString()}
	for _, name := range files {
		if ctx.Err() != nil {
			result.Files = append(result.Files, FileResult{File: name, Err: ctx.Err()})
			continue
		}
		res := s.ProcessFile(ctx, result.TraceID, filepath.Join(dir, name), archiveID)
		if res.Err != nil {
			s.logger.Error("error processing file", slog.String("file", name), slog.String("error", res.Err.Error()))
		}
		result.Files = append(result.Files, res)
	}
	return result
}

func (s *ProcessingService) ProcessFile(ctx context.Context, traceID, path string, archiveID *int) FileResult {
	start := time.Now()
	name := filepath.Base(path)
	res := FileResult{File: name}

	cleaner, err := s.normalizer.CleanerFor(name)
	if err != nil {
		res.Err = err
		return res
	}

	opts := tableio.Options{Encoding: s.cfg.SourceEncoding, BOM: s.cfg.CSVBOM}
	table, err := tableio.Load(path, opts)
	if err != nil {
		res.Err = err
		return res
	}
	loadedAt := time.Now()

	cleaned, err := cleaner(ctx, table)
	if err != nil {
		res.Err = err
		return res
	}
	cleanedAt := time.Now()

	res.Rows = cleaned.Stats.Rows
	res.Unparseable = cleaned.Stats.Unparseable
	for _, issue := range cleaned.Stats.Issues {
		s.logger.Debug("unparseable field", slog.String("file", name), slog.Int("row", issue.Index), slog.String("field", issue.Field), slog.String("value", issue.Value))
	}

	res.Output = filepath.Join(s.cfg.CleanDir, tableio.CleanFileName(name, s.cfg.FileSuffix))
	if err := tableio.Save(res.Output, table, opts); err != nil {
		res.Err = err
		return res
	}

	if len(cleaned.Items) > 0 {
		stored, err := s.db.UpsertItems(traceID, cleaned.Items)
		if err != nil {
			res.Err = err
			return res
		}
		res.Stored = stored
	}

	_ = s.db.InsertRun(internal.RunRow{
		TraceID:   traceID,
		ArchiveID: archiveID,
		File:      name,
		Timings: map[string]float64{
			"loadMs":  float64(loadedAt.Sub(start).Milliseconds()),
			"cleanMs": float64(cleanedAt.Sub(loadedAt).Milliseconds()),
			"totalMs": float64(time.Since(start).Milliseconds()),
		},
		Counts: map[string]int{
			"rows":        cleaned.Stats.Rows,
			"sized":       cleaned.Stats.Sized,
			"noted":       cleaned.Stats.Noted,
			"unparseable": cleaned.Stats.Unparseable,
			"stored":      res.Stored,
		},
	})

	s.logger.Info("cleaned data saved",
		slog.String("file", name),
		slog.String("output", res.Output),
		slog.Int("rows", res.Rows),
		slog.Int("unparseable", res.Unparseable))
	return res
}

// NormalizeFile cleans a single items table outside the configured layout.
func (s *ProcessingService) NormalizeFile(ctx context.Context, input, output string) (CleanResult, error) {
	opts := tableio.Options{Encoding: s.cfg.SourceEncoding, BOM: s.cfg.CSVBOM}
	table, err := tableio.Load(input, opts)
	if err != nil {
		return CleanResult{}, err
	}
	res, err := s.normalizer.CleanItemsTable(ctx, table)
	if err != nil {
		return CleanResult{}, err
	}
	if err := tableio.Save(output, table, opts); err != nil {
		return CleanResult{}, err
	}
	return res, nil
}
