package storage

import (
	"context"
	"math"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) *IndexRepo {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewIndexRepo(db)
}

func TestIndexRepo_Meta(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.ReadMeta(ctx); err != ErrNotFound {
		t.Fatalf("ReadMeta() on empty file error = %v, want ErrNotFound", err)
	}

	if err := repo.WriteMeta(ctx, &MetaRecord{Model: "models/embedding-001", Dimension: 768, ChunkCount: 3}); err != nil {
		t.Fatalf("WriteMeta() error = %v", err)
	}
	if err := repo.WriteMeta(ctx, &MetaRecord{Model: "models/embedding-001", Dimension: 768, ChunkCount: 5}); err != nil {
		t.Fatalf("WriteMeta() second call error = %v", err)
	}

	meta, err := repo.ReadMeta(ctx)
	if err != nil {
		t.Fatalf("ReadMeta() error = %v", err)
	}
	if meta.Model != "models/embedding-001" || meta.Dimension != 768 || meta.ChunkCount != 5 {
		t.Errorf("ReadMeta() = %+v, want model/768/5", meta)
	}
	if meta.CreatedAt.IsZero() {
		t.Error("ReadMeta() CreatedAt should be set")
	}
}

func TestIndexRepo_Chunks(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	empty, err := repo.ListChunks(ctx)
	if err != nil {
		t.Fatalf("ListChunks() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("ListChunks() on empty file returned %d chunks", len(empty))
	}

	in := []ChunkRecord{
		{Position: 1, Text: "second", Embedding: []float32{0, 1, -0.5}},
		{Position: 0, Text: "first", Embedding: []float32{1, 0, 0.25}},
		{Position: 2, Text: "first", Embedding: []float32{1, 0, 0.25}},
	}
	if err := repo.InsertChunks(ctx, in); err != nil {
		t.Fatalf("InsertChunks() error = %v", err)
	}

	out, err := repo.ListChunks(ctx)
	if err != nil {
		t.Fatalf("ListChunks() error = %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("ListChunks() returned %d chunks, want 3", len(out))
	}
	for i, c := range out {
		if c.Position != i {
			t.Errorf("chunk %d Position = %d", i, c.Position)
		}
	}
	if out[0].Text != "first" || out[1].Text != "second" {
		t.Errorf("ListChunks() order = %q, %q", out[0].Text, out[1].Text)
	}
	if out[1].Embedding[2] != -0.5 {
		t.Errorf("embedding not preserved: %v", out[1].Embedding)
	}
}

func TestIndexRepo_InsertChunks_DuplicatePositionRollsBack(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.InsertChunks(ctx, []ChunkRecord{
		{Position: 0, Text: "a", Embedding: []float32{1}},
		{Position: 0, Text: "b", Embedding: []float32{1}},
	})
	if err == nil {
		t.Fatal("InsertChunks() with duplicate position should fail")
	}

	out, err := repo.ListChunks(ctx)
	if err != nil {
		t.Fatalf("ListChunks() error = %v", err)
	}
	if len(out) != 0 {
		t.Errorf("failed insert left %d chunks behind", len(out))
	}
}

func TestVectorEncoding(t *testing.T) {
	tests := []struct {
		name string
		vec  []float32
	}{
		{"empty", []float32{}},
		{"values", []float32{0, 1, -1, 3.25, math.MaxFloat32, math.SmallestNonzeroFloat32}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := EncodeVector(tt.vec)
			if len(blob) != 4*len(tt.vec) {
				t.Fatalf("EncodeVector() length = %d, want %d", len(blob), 4*len(tt.vec))
			}
			got, err := DecodeVector(blob)
			if err != nil {
				t.Fatalf("DecodeVector() error = %v", err)
			}
			for i := range tt.vec {
				if got[i] != tt.vec[i] {
					t.Errorf("value %d = %v, want %v", i, got[i], tt.vec[i])
				}
			}
		})
	}

	if _, err := DecodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("DecodeVector() with truncated blob should fail")
	}
}
