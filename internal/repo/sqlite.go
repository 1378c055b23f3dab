package repo

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLite persists a Memory to a single SQLite table as JSON blobs. It
// snapshots the full state after every successful write.
type SQLite struct {
	*Memory
	db   *sql.DB
	path string
}

var _ Repository = (*SQLite)(nil)

var buckets = []string{"categories", "meals", "settings", "orders", "sequence"}

// OpenSQLite opens the database at path and loads any saved state.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "fassr.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &SQLite{Memory: NewMemory(), db: db, path: path}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.Memory.persist = s.save
	return s, nil
}

func (s *SQLite) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshot Snapshot
	for rows.Next() {
		var (
			bucket  string
			payload []byte
		)
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		var target any
		switch bucket {
		case "categories":
			target = &snapshot.Categories
		case "meals":
			target = &snapshot.Meals
		case "settings":
			target = &snapshot.Settings
		case "orders":
			target = &snapshot.Orders
		case "sequence":
			target = &snapshot.NextID
		default:
			continue
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return fmt.Errorf("decode %s: %w", bucket, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read state: %w", err)
	}
	s.ImportState(snapshot)
	return nil
}

func (s *SQLite) save(snapshot Snapshot) (retErr error) {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range buckets {
		var data []byte
		switch bucket {
		case "categories":
			data, err = json.Marshal(snapshot.Categories)
		case "meals":
			data, err = json.Marshal(snapshot.Meals)
		case "settings":
			data, err = json.Marshal(snapshot.Settings)
		case "orders":
			data, err = json.Marshal(snapshot.Orders)
		case "sequence":
			data, err = json.Marshal(snapshot.NextID)
		}
		if err != nil {
			return err
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	return tx.Commit()
}

// Path returns the database file location.
func (s *SQLite) Path() string { return s.path }

// Close releases the database handle.
func (s *SQLite) Close() error { return s.db.Close() }
