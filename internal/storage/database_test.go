package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{
			name:    "valid path",
			path:    dbPath,
			wantErr: false,
		},
		{
			name:    "invalid path",
			path:    "/invalid/path/to/db.db",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := New(tt.path)

			if tt.wantErr {
				if err == nil {
					t.Errorf("New() expected error, got nil")
				}
				if db != nil {
					_ = db.Close()
				}
				return
			}

			if err != nil {
				t.Errorf("New() unexpected error: %v", err)
				return
			}

			if db == nil {
				t.Fatal("New() returned nil database")
			}

			// Verify connection pool settings
			if db.Stats().MaxOpenConnections != 25 {
				t.Errorf("New() MaxOpenConnections = %v, want 25", db.Stats().MaxOpenConnections)
			}

			_ = db.Close()
		})
	}
}

func TestMigrate(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	// Run migrations twice
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() first run error = %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() second run error = %v", err)
	}

	tables := []string{"index_meta", "chunks"}
	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Fatalf("Failed to check table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("Migrate() table %s not created", table)
		}
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		readOnly bool
		want     string
	}{
		{"plain", "/data/index.db", false, "file:///data/index.db?_busy_timeout=5000"},
		{"read only", "/data/index.db", true, "file:///data/index.db?_busy_timeout=5000&mode=ro"},
		{"hash", "/data/idx#1/index.db", false, "file:///data/idx%231/index.db?_busy_timeout=5000"},
		{"question mark", "/data/idx?x/index.db", false, "file:///data/idx%3Fx/index.db?_busy_timeout=5000"},
		{"percent", "/data/idx%20a/index.db", false, "file:///data/idx%2520a/index.db?_busy_timeout=5000"},
		{"space", "/data/a b/index.db", false, "file:///data/a%20b/index.db?_busy_timeout=5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DSN(tt.path, tt.readOnly)
			if err != nil {
				t.Fatalf("DSN() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNew_PathWithURICharacters(t *testing.T) {
	for _, name := range []string{"idx#1", "idx?x", "idx%20a", "a b"} {
		t.Run(name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), name)
			if err := os.MkdirAll(dir, 0755); err != nil {
				t.Fatalf("Failed to create dir: %v", err)
			}
			path := filepath.Join(dir, "index.db")

			db, err := New(path)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if err := Migrate(db); err != nil {
				t.Fatalf("Migrate() error = %v", err)
			}
			_ = db.Close()

			if _, err := os.Stat(path); err != nil {
				t.Fatalf("database not created at %s: %v", path, err)
			}

			ro, err := OpenReadOnly(path)
			if err != nil {
				t.Fatalf("OpenReadOnly() error = %v", err)
			}
			defer func() {
				_ = ro.Close()
			}()
			var count int
			if err := ro.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE name = 'chunks'").Scan(&count); err != nil {
				t.Fatalf("QueryRow() error = %v", err)
			}
			if count != 1 {
				t.Errorf("read-only handle opened a different database")
			}
		})
	}
}

func TestOpenReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")
	if db, err := OpenReadOnly(path); err == nil {
		_ = db.Close()
		t.Fatal("OpenReadOnly() on a missing file error = nil, want error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("OpenReadOnly() created %s", path)
	}

	db, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	_ = db.Close()

	ro, err := OpenReadOnly(path)
	if err != nil {
		t.Fatalf("OpenReadOnly() error = %v", err)
	}
	defer func() {
		_ = ro.Close()
	}()
	_, err = ro.Exec("INSERT INTO chunks (position, text, embedding) VALUES (0, 'x', x'00')")
	if err == nil || !strings.Contains(strings.ToLower(err.Error()), "readonly") {
		t.Errorf("write on read-only handle error = %v, want readonly error", err)
	}
}

func TestNew_BusyTimeoutOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	// Hold several connections at once so each is a distinct pooled connection.
	for i := range 3 {
		conn, err := db.Conn(ctx)
		if err != nil {
			t.Fatalf("Conn() error = %v", err)
		}
		defer func() {
			_ = conn.Close()
		}()

		var timeout int
		if err := conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil {
			t.Fatalf("PRAGMA busy_timeout error = %v", err)
		}
		if timeout != busyTimeoutMillis {
			t.Errorf("connection %d busy_timeout = %d, want %d", i, timeout, busyTimeoutMillis)
		}
	}
}
