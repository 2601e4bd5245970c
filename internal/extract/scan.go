package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docqa/internal/contextutil"
	"docqa/internal/indexer"
)

// ScanDir walks root and extracts every supported file into a document
// named by its slash-separated path relative to root. Hidden directories
// and files are skipped. Documents come back in lexical path order.
func ScanDir(ctx context.Context, root string) ([]indexer.Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var docs []indexer.Document
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		hidden := path != root && strings.HasPrefix(info.Name(), ".")
		if info.IsDir() {
			if hidden {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden || !Supported(path) {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		relPath = filepath.ToSlash(relPath)

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", relPath, err)
		}

		text, err := Extract(relPath, data)
		if err != nil {
			logger.WarnContext(ctx, "skipping unreadable document", "path", relPath, "error", err)
			return nil
		}

		docs = append(docs, indexer.Document{Name: relPath, Text: text})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	logger.InfoContext(ctx, "scanned documents", "root", root, "documents", len(docs))
	return docs, nil
}
