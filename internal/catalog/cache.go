// Package catalog persists the last successfully fetched folder and model
// catalog to a local SQLite database so it can be browsed while offline.
// The live application state itself is never persisted.
package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"modelman/internal/gateway"
)

const schema = `
CREATE TABLE IF NOT EXISTS folders (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	path        TEXT NOT NULL DEFAULT '',
	model_count INTEGER NOT NULL DEFAULT 0,
	position    INTEGER NOT NULL,
	fetched_at  TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS models (
	id         TEXT PRIMARY KEY,
	folder_id  TEXT NOT NULL,
	name       TEXT NOT NULL,
	type       TEXT NOT NULL DEFAULT '',
	size_bytes INTEGER NOT NULL DEFAULT 0,
	preview    TEXT NOT NULL DEFAULT '',
	tags       TEXT NOT NULL DEFAULT '[]',
	updated_at TIMESTAMP,
	position   INTEGER NOT NULL,
	fetched_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_models_folder ON models(folder_id, position);
`

// Cache is a read-through snapshot store for the model catalog.
type Cache struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Cache, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Cache{db: db, path: path}, nil
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.path
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// SaveFolders replaces the cached folder list wholesale.
func (c *Cache) SaveFolders(folders []gateway.Folder) error {
	return c.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM folders"); err != nil {
			return err
		}
		now := time.Now().UTC()
		for i, f := range folders {
			_, err := tx.Exec(
				"INSERT INTO folders (id, name, path, model_count, position, fetched_at) VALUES (?, ?, ?, ?, ?, ?)",
				f.ID, f.Name, f.Path, f.ModelCount, i, now,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Folders returns the cached folder list in original order.
func (c *Cache) Folders() ([]gateway.Folder, error) {
	rows, err := c.db.Query("SELECT id, name, path, model_count FROM folders ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []gateway.Folder
	for rows.Next() {
		var f gateway.Folder
		if err := rows.Scan(&f.ID, &f.Name, &f.Path, &f.ModelCount); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// SaveModels replaces the cached model list of one folder wholesale.
func (c *Cache) SaveModels(folderID string, models []gateway.Model) error {
	return c.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM models WHERE folder_id = ?", folderID); err != nil {
			return err
		}
		now := time.Now().UTC()
		for i, m := range models {
			tags, err := json.Marshal(m.Tags)
			if err != nil {
				return err
			}
			_, err = tx.Exec(
				"INSERT INTO models (id, folder_id, name, type, size_bytes, preview, tags, updated_at, position, fetched_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
				m.ID, folderID, m.Name, m.Type, m.SizeBytes, m.Preview, string(tags), m.UpdatedAt, i, now,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Models returns the cached model list of one folder in original order.
func (c *Cache) Models(folderID string) ([]gateway.Model, error) {
	rows, err := c.db.Query(
		"SELECT id, folder_id, name, type, size_bytes, preview, tags, updated_at FROM models WHERE folder_id = ? ORDER BY position",
		folderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var models []gateway.Model
	for rows.Next() {
		var m gateway.Model
		var tags string
		var updatedAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.FolderID, &m.Name, &m.Type, &m.SizeBytes, &m.Preview, &tags, &updatedAt); err != nil {
			return nil, err
		}
		if updatedAt.Valid {
			m.UpdatedAt = updatedAt.Time
		}
		if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

// LastFetched returns when the folder list was last cached, or the zero
// time when nothing is cached.
func (c *Cache) LastFetched() (time.Time, error) {
	var fetched sql.NullTime
	err := c.db.QueryRow("SELECT MAX(fetched_at) FROM folders").Scan(&fetched)
	if err != nil {
		return time.Time{}, err
	}
	if !fetched.Valid {
		return time.Time{}, nil
	}
	return fetched.Time, nil
}

func (c *Cache) withTx(fn func(*sql.Tx) error) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
