package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/insurance-a2a/internal/domain"
	"github.com/ashureev/insurance-a2a/internal/shared"
	_ "modernc.org/sqlite"
)

const (
	saveAttempts  = 3
	saveBaseDelay = 50 * time.Millisecond
)

// SQLiteBackend keeps the profile as a JSON document in a single-row table.
type SQLiteBackend struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteBackend opens (and creates) the database at dbPath.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	b := &SQLiteBackend{db: db, now: time.Now}
	if err := b.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS profiles (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		name TEXT NOT NULL,
		document TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := b.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (b *SQLiteBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// Load reads the stored profile document.
func (b *SQLiteBackend) Load(ctx context.Context) (domain.UserProfile, error) {
	var p domain.UserProfile
	var doc string
	err := b.db.QueryRowContext(ctx, `SELECT document FROM profiles WHERE id = 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNoProfile
	}
	if err != nil {
		return p, fmt.Errorf("query profile: %w", err)
	}
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return p, fmt.Errorf("decode profile document: %w", err)
	}
	return p, nil
}

// Save upserts the profile document, retrying on lock contention.
func (b *SQLiteBackend) Save(ctx context.Context, p domain.UserProfile) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	query := `
	INSERT INTO profiles (id, name, document, updated_at)
	VALUES (1, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		document = excluded.document,
		updated_at = excluded.updated_at`

	return shared.RetryOnConflict(ctx, saveAttempts, saveBaseDelay, "upsert profile", func() error {
		_, err := b.db.ExecContext(ctx, query, p.Name, string(doc), b.now().Unix())
		return err
	})
}
