// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/chatvault/internal/model"
)

// DatabaseFile is the durable tier file name inside the data directory.
const DatabaseFile = "chatvault.db"

// RecordStore is the durable tier.
type RecordStore interface {
	// ReplaceAll atomically swaps the whole stored history for recs.
	ReplaceAll(ctx context.Context, recs []model.Record) error

	// All returns every stored record, most recently updated first.
	All(ctx context.Context) ([]model.Record, error)

	// Clear removes every record.
	Clear(ctx context.Context) error

	Close() error
}

// =============================================================================
// SQLITE STORE
// =============================================================================

// SQLiteStore keeps records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// SchemaVersion returns the version recorded in the metadata table.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&v)
	return v, err
}

// ReplaceAll implements RecordStore. Any failure rolls the transaction back
// and wraps ErrTransaction.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, recs []model.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrTransaction, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chats"); err != nil {
		return fmt.Errorf("%w: clear: %w", ErrTransaction, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chats (id, title, messages, created_at, last_updated, has_summary)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare: %w", ErrTransaction, err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		msgs := string(rec.Messages)
		if msgs == "" {
			msgs = "[]"
		}
		_, err := stmt.ExecContext(ctx,
			rec.ID,
			nullString(rec.Title),
			msgs,
			toUnixNano(rec.CreatedAt),
			toUnixNano(rec.LastUpdated),
			boolToInt(rec.HasSummary),
		)
		if err != nil {
			return fmt.Errorf("%w: insert %s: %w", ErrTransaction, rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrTransaction, err)
	}
	return nil
}

// All implements RecordStore.
func (s *SQLiteStore) All(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, messages, created_at, last_updated, has_summary
		FROM chats
		ORDER BY last_updated DESC`)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer rows.Close()

	recs := make([]model.Record, 0)
	for rows.Next() {
		var (
			rec         model.Record
			title       sql.NullString
			msgs        string
			created     int64
			lastUpdated int64
			hasSummary  int
		)
		if err := rows.Scan(&rec.ID, &title, &msgs, &created, &lastUpdated, &hasSummary); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		rec.Title = title.String
		rec.Messages = json.RawMessage(msgs)
		rec.CreatedAt = fromUnixNano(created)
		rec.LastUpdated = fromUnixNano(lastUpdated)
		rec.HasSummary = hasSummary != 0
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}
	return recs, nil
}

// Clear implements RecordStore.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chats"); err != nil {
		return fmt.Errorf("%w: clear: %w", ErrTransaction, err)
	}
	return nil
}

// Count returns the number of stored chats.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chats").Scan(&n)
	return n, err
}

// Close implements RecordStore.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// toUnixNano maps the zero time to 0; UnixNano is undefined for it.
func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
