// Package sqlite provides a SQLite-backed implementation of the storage ports.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/ewilliams-labs/vibelens/internal/core/ports"
)

// Adapter implements the image and recommendation storage ports for SQLite
type Adapter struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ ports.ImageStore               = (*Adapter)(nil)
	_ ports.ImageLoader              = (*Adapter)(nil)
	_ ports.RecommendationSink       = (*Adapter)(nil)
	_ ports.RecommendationRepository = (*Adapter)(nil)
	_ ports.PreviewEnergyStore       = (*Adapter)(nil)
)

// NewAdapter creates a connection and runs the schema migration
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	// An in-memory database exists per connection.
	if strings.Contains(storagePath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db, now: time.Now}

	// Auto-migrate on startup
	if err := adapter.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Ping verifies the database is reachable.
func (a *Adapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS images (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		path TEXT NOT NULL UNIQUE,
		mime_type TEXT NOT NULL,
		data BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS recommendations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		track_id TEXT NOT NULL,
		song TEXT NOT NULL,
		artist TEXT NOT NULL,
		album TEXT,
		cover_url TEXT,
		provider_url TEXT,
		preview_url TEXT,
		explanation TEXT NOT NULL,
		image_ref TEXT,
		image_features TEXT NOT NULL,
		genres TEXT NOT NULL,
		valence REAL,
		energy REAL,
		danceability REAL,
		instrumentalness REAL,
		tempo REAL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_recommendations_user_created
		ON recommendations (user_id, created_at DESC);
	`
	if _, err := a.db.Exec(query); err != nil {
		return err
	}

	// Columns added after the first schema version.
	if _, err := a.db.Exec("ALTER TABLE recommendations ADD COLUMN preview_energy REAL"); err != nil {
		if !isDuplicateColumnError(err) {
			return err
		}
	}

	return nil
}

func isDuplicateColumnError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "duplicate column") || strings.Contains(err.Error(), "already exists"))
}
