package listener

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"posclean/internal"
	"posclean/internal/config"
	"posclean/internal/pipeline"
	"posclean/internal/source"
	"posclean/internal/storage"
)

type Service struct {
	db        *storage.DB
	cfg       config.Config
	logger    *slog.Logger
	fetcher   *source.FetchService
	processor *pipeline.ProcessingService
}

func NewService(db *storage.DB, cfg config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:        db,
		cfg:       cfg,
		logger:    logger,
		fetcher:   source.NewFetchService(db, cfg, logger),
		processor: pipeline.NewProcessingService(db, cfg, logger),
	}
}

// Run polls the source until ctx is cancelled. Cycle errors are logged, not returned.
func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.RunCycle(ctx); err != nil {
			s.logger.Error("listener cycle error", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.ListenerIntervalSec) * time.Second):
		}
	}
}

// RunCycle fetches the archive and processes it when its content has not been processed
// before. Archives left in the fetched state by an earlier failed cycle are retried.
func (s *Service) RunCycle(ctx context.Context) error {
	fetched, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}

	pending, err := s.db.ListArchivesByStatus(internal.ArchiveFetched, 20)
	if err != nil {
		return err
	}

	processed := 0
	for _, archive := range pending {
		if err := s.processArchive(ctx, archive); err != nil {
			_ = s.db.UpdateArchiveStatus(archive.ID, internal.ArchiveFailed)
			return fmt.Errorf("archive %s: %w", archive.Hash, err)
		}
		processed++
	}

	s.logger.Info("listener cycle done",
		slog.String("hash", fetched.Archive.Hash),
		slog.Bool("new", fetched.New),
		slog.Int("processed", processed))
	return nil
}

func (s *Service) processArchive(ctx context.Context, archive internal.ArchiveRow) error {
	if _, err := s.fetcher.Extract(archive); err != nil {
		return err
	}

	archiveID := archive.ID
	result := s.processor.ProcessFiles(ctx, s.cfg.RawDir, s.cfg.Files, &archiveID)
	if err := result.Err(); err != nil {
		return err
	}
	if err := s.db.UpdateArchiveStatus(archive.ID, internal.ArchiveProcessed); err != nil {
		return err
	}
	_ = s.db.SetMetadata("source.last_processed_hash", archive.Hash)

	if !s.cfg.ListenerAutoExport {
		return nil
	}
	items, err := s.db.ListItems()
	if err != nil {
		return err
	}
	outputPath := filepath.Join(s.cfg.OutputDir, "listener", archive.Hash+".xlsx")
	if err := pipeline.ExportItemsToXLSX(items, outputPath); err != nil {
		return err
	}
	return s.db.UpdateArchiveStatus(archive.ID, internal.ArchiveExported)
}
