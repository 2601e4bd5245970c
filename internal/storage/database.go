package storage

import (
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// busyTimeoutMillis is applied to every pooled connection through the DSN.
const busyTimeoutMillis = 5000

// New opens a SQLite database at the given filesystem path, creating it if
// needed. It sets a busy timeout and connection pool settings.
func New(path string) (*sql.DB, error) {
	return open(path, false)
}

// OpenReadOnly opens an existing SQLite database without creating it.
func OpenReadOnly(path string) (*sql.DB, error) {
	return open(path, true)
}

func open(path string, readOnly bool) (*sql.DB, error) {
	dsn, err := DSN(path, readOnly)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// DSN builds an escaped file: URI for path so characters such as '?', '#'
// and '%' are part of the file name rather than URI syntax.
func DSN(path string, readOnly bool) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve database path %s: %w", path, err)
	}
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs
	}

	query := url.Values{}
	query.Set("_busy_timeout", strconv.Itoa(busyTimeoutMillis))
	if readOnly {
		query.Set("mode", "ro")
	}

	return (&url.URL{Scheme: "file", Path: abs, RawQuery: query.Encode()}).String(), nil
}

// Migrate creates the index file tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS index_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			model TEXT NOT NULL,
			dimension INTEGER NOT NULL,
			chunk_count INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			position INTEGER PRIMARY KEY,
			text TEXT NOT NULL,
			embedding BLOB NOT NULL
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
