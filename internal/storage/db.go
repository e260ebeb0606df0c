package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"posclean/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS items (
  item_code TEXT PRIMARY KEY,
  item_desc TEXT,
  item_type TEXT,
  item_brand TEXT,
  item_size TEXT,
  item_uom TEXT,
  item_note TEXT,
  traceId TEXT,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_items_brand ON items(item_brand);
CREATE INDEX IF NOT EXISTS idx_items_uom ON items(item_uom);

CREATE TABLE IF NOT EXISTS archives (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  url TEXT NOT NULL,
  hash TEXT NOT NULL,
  path TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  fetchedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(url, hash)
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  archiveId INTEGER,
  file TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(archiveId) REFERENCES archives(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// UpsertItems stores normalized items keyed by item code. Rows without a code are skipped.
func (d *DB) UpsertItems(traceID string, items []internal.ItemRecord) (int, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO items (item_code, item_desc, item_type, item_brand, item_size, item_uom, item_note, traceId, updatedAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(item_code) DO UPDATE SET
  item_desc=excluded.item_desc,
  item_type=excluded.item_type,
  item_brand=excluded.item_brand,
  item_size=excluded.item_size,
  item_uom=excluded.item_uom,
  item_note=excluded.item_note,
  traceId=excluded.traceId,
  updatedAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	stored := 0
	for _, it := range items {
		if it.Code == nil || *it.Code == "" {
			continue
		}
		if _, err := stmt.Exec(it.Code, it.Desc, it.Type, it.Brand, it.Size, it.UOM, it.Note, traceID); err != nil {
			return stored, fmt.Errorf("upsert item %s: %w", *it.Code, err)
		}
		stored++
	}

	return stored, tx.Commit()
}

func (d *DB) ListItems() ([]internal.ItemRecord, error) {
	rows, err := d.conn.Query(`
SELECT item_code, item_desc, item_type, item_brand, item_size, item_uom, item_note
FROM items ORDER BY item_code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ItemRecord
	for rows.Next() {
		var it internal.ItemRecord
		if err := rows.Scan(&it.Code, &it.Desc, &it.Type, &it.Brand, &it.Size, &it.UOM, &it.Note); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (d *DB) UpsertArchive(url, hash, path string, status internal.ArchiveStatus) (internal.ArchiveRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO archives (url, hash, path, status)
VALUES (?, ?, ?, ?)
ON CONFLICT(url, hash) DO UPDATE SET
  path=excluded.path,
  updatedAt=CURRENT_TIMESTAMP
`, url, hash, path, string(status))
	if err != nil {
		return internal.ArchiveRow{}, err
	}

	row, err := d.GetArchiveByHash(url, hash)
	if err != nil {
		return internal.ArchiveRow{}, err
	}
	if row == nil {
		return internal.ArchiveRow{}, errors.New("failed to upsert archive")
	}
	return *row, nil
}

func (d *DB) GetArchiveByHash(url, hash string) (*internal.ArchiveRow, error) {
	var row internal.ArchiveRow
	var status string
	err := d.conn.QueryRow(`
SELECT id, url, hash, path, status, fetchedAt
FROM archives WHERE url = ? AND hash = ?
`, url, hash).Scan(&row.ID, &row.URL, &row.Hash, &row.Path, &status, &row.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	row.Status = internal.ArchiveStatus(status)
	return &row, nil
}

func (d *DB) ListArchivesByStatus(status internal.ArchiveStatus, limit int) ([]internal.ArchiveRow, error) {
	rows, err := d.conn.Query(`
SELECT id, url, hash, path, status, fetchedAt
FROM archives WHERE status = ? ORDER BY fetchedAt ASC, id ASC LIMIT ?
`, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ArchiveRow
	for rows.Next() {
		var row internal.ArchiveRow
		var st string
		if err := rows.Scan(&row.ID, &row.URL, &row.Hash, &row.Path, &st, &row.FetchedAt); err != nil {
			return nil, err
		}
		row.Status = internal.ArchiveStatus(st)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateArchiveStatus(archiveID int, status internal.ArchiveStatus) error {
	_, err := d.conn.Exec(`UPDATE archives SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, string(status), archiveID)
	return err
}

func (d *DB) InsertRun(run internal.RunRow) error {
	timingsJSON, _ := json.Marshal(run.Timings)
	countsJSON, _ := json.Marshal(run.Counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, archiveId, file, timingsJson, countsJson) VALUES (?, ?, ?, ?, ?)`,
		run.TraceID, run.ArchiveID, run.File, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) ListRuns(traceID string) ([]internal.RunRow, error) {
	rows, err := d.conn.Query(`
SELECT id, traceId, archiveId, file, timingsJson, countsJson, createdAt
FROM runs WHERE traceId = ? ORDER BY id ASC
`, traceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		var run internal.RunRow
		var timingsJSON, countsJSON string
		if err := rows.Scan(&run.ID, &run.TraceID, &run.ArchiveID, &run.File, &timingsJSON, &countsJSON, &run.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(timingsJSON), &run.Timings)
		_ = json.Unmarshal([]byte(countsJSON), &run.Counts)
		out = append(out, run)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
