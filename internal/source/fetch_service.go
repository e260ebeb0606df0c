package source

import (
	"context"
	"log/slog"
	"path/filepath"

	"posclean/internal"
	"posclean/internal/config"
	"posclean/internal/storage"
)

type FetchService struct {
	client *Client
	store  *Store
	cfg    config.Config
	logger *slog.Logger
}

type FetchResult struct {
	Archive internal.ArchiveRow
	New     bool
	Files   []string
}

func NewFetchService(db *storage.DB, cfg config.Config, logger *slog.Logger) *FetchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchService{
		client: NewClient(cfg, logger),
		store:  NewStore(db, cfg.ArchiveDir),
		cfg:    cfg,
		logger: logger,
	}
}

// Fetch downloads the configured source and stores it without extracting.
func (s *FetchService) Fetch(ctx context.Context) (FetchResult, error) {
	dl, err := s.client.Download(ctx, s.cfg.SourceURL)
	if err != nil {
		return FetchResult{}, err
	}
	row, isNew, err := s.store.Save(s.cfg.SourceURL, dl.Body)
	if err != nil {
		return FetchResult{}, err
	}
	s.logger.Info("archive stored",
		slog.String("url", dl.URL),
		slog.String("hash", row.Hash),
		slog.Bool("new", isNew),
		slog.Int("bytes", len(dl.Body)))
	return FetchResult{Archive: row, New: isNew}, nil
}

func (s *FetchService) FetchAndExtract(ctx context.Context) (FetchResult, error) {
	res, err := s.Fetch(ctx)
	if err != nil {
		return FetchResult{}, err
	}
	res.Files, err = s.Extract(res.Archive)
	return res, err
}

// Extract unpacks a stored archive into RAW_DIR and returns the base names written.
func (s *FetchService) Extract(archive internal.ArchiveRow) ([]string, error) {
	paths, err := Extract(archive.Path, s.cfg.RawDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	s.logger.Info("archive extracted", slog.String("dir", s.cfg.RawDir), slog.Int("files", len(names)))
	return names, nil
}
