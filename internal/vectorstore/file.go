package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"docqa/internal/apperrors"
	"docqa/internal/contextutil"
	"docqa/internal/storage"
)

// IndexFileName is the file holding the index inside a location directory.
const IndexFileName = "index.db"

// FileStore keeps each index as a SQLite file inside a location directory.
// Saves write a temporary file and rename it over the previous one.
type FileStore struct{}

// NewFileStore creates a FileStore.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Save writes ix to location/index.db, replacing any previous index.
func (s *FileStore) Save(ctx context.Context, location string, ix *Index) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := os.MkdirAll(location, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	tmpPath := filepath.Join(location, fmt.Sprintf(".%s-%s.tmp", IndexFileName, uuid.NewString()))
	if err := writeIndexFile(ctx, tmpPath, ix); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	finalPath := filepath.Join(location, IndexFileName)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace index file: %w", err)
	}

	info := ix.Info()
	logger.InfoContext(ctx, "index saved",
		"path", finalPath,
		"model", info.Model,
		"dimension", info.Dimension,
		"count", info.Count,
	)
	return nil
}

func writeIndexFile(ctx context.Context, path string, ix *Index) error {
	db, err := storage.New(path)
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate index file: %w", err)
	}

	repo := storage.NewIndexRepo(db)
	records := make([]storage.ChunkRecord, len(ix.entries))
	for i, e := range ix.entries {
		records[i] = storage.ChunkRecord{Position: e.Position, Text: e.Text, Embedding: e.Vector}
	}
	if err := repo.InsertChunks(ctx, records); err != nil {
		return err
	}

	info := ix.Info()
	return repo.WriteMeta(ctx, &storage.MetaRecord{
		Model:      info.Model,
		Dimension:  info.Dimension,
		ChunkCount: info.Count,
	})
}

// Load reads location/index.db into memory.
func (s *FileStore) Load(ctx context.Context, location string) (Searcher, error) {
	logger := contextutil.LoggerFromContext(ctx)

	path := filepath.Join(location, IndexFileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no index at %s: %w", location, apperrors.ErrIndexNotFound)
		}
		return nil, fmt.Errorf("failed to stat index file: %w", err)
	}

	// Read-only so a file removed after Stat is never recreated empty.
	db, err := storage.OpenReadOnly(path)
	if err != nil {
		if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
			return nil, fmt.Errorf("no index at %s: %w", location, apperrors.ErrIndexNotFound)
		}
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()
	// One connection keeps meta and chunks on the same file handle.
	db.SetMaxOpenConns(1)

	repo := storage.NewIndexRepo(db)
	meta, err := repo.ReadMeta(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read index meta: %w", err)
	}
	records, err := repo.ListChunks(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) != meta.ChunkCount {
		return nil, fmt.Errorf("index file is inconsistent: meta lists %d chunks, found %d", meta.ChunkCount, len(records))
	}

	entries := make([]Entry, len(records))
	for i, r := range records {
		entries[i] = Entry{Position: r.Position, Text: r.Text, Vector: r.Embedding}
	}
	ix, err := newIndex(meta.Model, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild index: %w", err)
	}
	if ix.dimension == 0 {
		ix.dimension = meta.Dimension
	}

	logger.DebugContext(ctx, "index loaded", "path", path, "model", meta.Model, "count", len(entries))
	return ix, nil
}
