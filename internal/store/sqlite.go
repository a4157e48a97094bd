package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLite stores saves in a single local database file.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS saves (
		slot TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		saved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create saves table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Load(ctx context.Context, slot string) ([]byte, error) {
	if err := ValidateSlot(slot); err != nil {
		return nil, err
	}
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM saves WHERE slot = ?`, slot).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load save: %w", err)
	}
	return payload, nil
}

func (s *SQLite) Save(ctx context.Context, slot string, payload []byte) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saves (slot, payload, saved_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(slot) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at
	`, slot, payload)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, slot string) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM saves WHERE slot = ?`, slot)
	if err != nil {
		return fmt.Errorf("delete save: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slot FROM saves ORDER BY slot`)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, err
		}
		out = append(out, slot)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
