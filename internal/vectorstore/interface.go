package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_store.go -package=mocks docqa/internal/vectorstore Store,Searcher

import "context"

// Searcher answers similarity queries against a loaded index.
type Searcher interface {
	// Search returns up to k results by descending similarity.
	// k <= 0 is rejected; a query of the wrong dimension is a mismatch.
	Search(ctx context.Context, query []float32, k int) ([]Result, error)

	// Info describes the loaded index.
	Info() Info
}

// Store persists whole indexes at a location.
type Store interface {
	// Save replaces whatever was stored at location with ix.
	// A concurrent Load sees either the previous index or ix, never a mix.
	Save(ctx context.Context, location string, ix *Index) error

	// Load returns the index stored at location, or an error matching
	// apperrors.ErrIndexNotFound when nothing was saved there.
	Load(ctx context.Context, location string) (Searcher, error)
}
