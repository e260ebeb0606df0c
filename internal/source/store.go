package source

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"posclean/internal"
	"posclean/internal/storage"
)

// Store keeps downloaded archives on disk under their content hash.
type Store struct {
	db         *storage.DB
	archiveDir string
}

func NewStore(db *storage.DB, archiveDir string) *Store {
	return &Store{db: db, archiveDir: archiveDir}
}

// Save writes blob once per hash and records it. isNew reports whether this url/hash pair
// had not been seen before.
func (s *Store) Save(sourceURL string, blob []byte) (row internal.ArchiveRow, isNew bool, err error) {
	hashBytes := sha256.Sum256(blob)
	hash := hex.EncodeToString(hashBytes[:])

	existing, err := s.db.GetArchiveByHash(sourceURL, hash)
	if err != nil {
		return internal.ArchiveRow{}, false, err
	}

	if err := os.MkdirAll(s.archiveDir, 0o755); err != nil {
		return internal.ArchiveRow{}, false, err
	}

	path := filepath.Join(s.archiveDir, hash+".zip")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, blob, 0o644); err != nil {
			return internal.ArchiveRow{}, false, err
		}
	}

	row, err = s.db.UpsertArchive(sourceURL, hash, path, internal.ArchiveFetched)
	if err != nil {
		return internal.ArchiveRow{}, false, err
	}
	return row, existing == nil, nil
}
