package indexer

import (
	"context"
	"errors"
	"testing"

	"docqa/internal/apperrors"
	"docqa/internal/indexer/mocks"
	"docqa/internal/vectorstore"
	vectorstore_mocks "docqa/internal/vectorstore/mocks"

	"go.uber.org/mock/gomock"
)

func TestConcatenate(t *testing.T) {
	tests := []struct {
		name string
		docs []Document
		want string
	}{
		{"no documents", nil, ""},
		{"single", []Document{{Text: "abc"}}, "abc"},
		{"adds separator", []Document{{Text: "abc"}, {Text: "def"}}, "abc\ndef"},
		{"keeps existing newline", []Document{{Text: "abc\n"}, {Text: "def"}}, "abc\ndef"},
		{"skips empty", []Document{{Text: "abc"}, {Text: ""}, {Text: "def"}}, "abc\ndef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Concatenate(tt.docs); got != tt.want {
				t.Errorf("Concatenate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPipeline_Index(t *testing.T) {
	ctrl := gomock.NewController(t)

	chunker, err := NewChunker(10, 2)
	if err != nil {
		t.Fatalf("NewChunker() error = %v", err)
	}

	embedder := mocks.NewMockEmbedder(ctrl)
	store := vectorstore_mocks.NewMockStore(ctrl)

	embedder.EXPECT().
		Embed(gomock.Any(), []string{"01234\n5678", "789abc"}).
		Return([][]float32{{1, 0}, {0, 1}}, nil)
	embedder.EXPECT().Model().Return("test-model").AnyTimes()
	store.EXPECT().
		Save(gomock.Any(), "loc", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, ix *vectorstore.Index) error {
			info := ix.Info()
			if info.Count != 2 || info.Dimension != 2 || info.Model != "test-model" {
				t.Errorf("saved index Info = %+v", info)
			}
			return nil
		})

	pipeline := NewPipeline(chunker, embedder, store, "loc", nil)
	stats, err := pipeline.Index(context.Background(), []Document{{Name: "a.txt", Text: "01234"}, {Name: "b.txt", Text: "56789abc"}})
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	// "01234" + "\n" + "56789abc" is 14 runes: windows [0,10) and [8,14).
	if stats.Documents != 2 || stats.Chunks != 2 {
		t.Errorf("Index() stats = %+v, want 2 documents, 2 chunks", stats)
	}
	if stats.EmbeddingModel != "test-model" || stats.Dimension != 2 {
		t.Errorf("Index() stats model/dimension = %s/%d", stats.EmbeddingModel, stats.Dimension)
	}
	if stats.IndexVersion != IndexVersion(chunker, "test-model") {
		t.Errorf("Index() IndexVersion = %s", stats.IndexVersion)
	}
}

func TestPipeline_Index_EmptyText(t *testing.T) {
	ctrl := gomock.NewController(t)

	chunker, _ := NewChunker(50, 10)
	embedder := mocks.NewMockEmbedder(ctrl)
	store := vectorstore_mocks.NewMockStore(ctrl)

	embedder.EXPECT().Embed(gomock.Any(), gomock.Len(0)).Return([][]float32{}, nil)
	embedder.EXPECT().Model().Return("test-model").AnyTimes()
	store.EXPECT().Save(gomock.Any(), "loc", gomock.Any()).Return(nil)

	stats, err := NewPipeline(chunker, embedder, store, "loc", nil).Index(context.Background(), []Document{{Name: "empty.txt"}})
	if err != nil {
		t.Fatalf("Index() of empty text error = %v", err)
	}
	if stats.Chunks != 0 {
		t.Errorf("Index() Chunks = %d, want 0", stats.Chunks)
	}
}

func TestPipeline_Index_EmbeddingFailureSavesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)

	chunker, _ := NewChunker(50, 10)
	embedder := mocks.NewMockEmbedder(ctrl)
	store := vectorstore_mocks.NewMockStore(ctrl)

	embedder.EXPECT().
		Embed(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.Embedding("embed texts", errors.New("quota exceeded")))
	// No Save expected.

	_, err := NewPipeline(chunker, embedder, store, "loc", nil).Index(context.Background(), []Document{{Text: "some text"}})
	if !errors.Is(err, apperrors.ErrEmbeddingService) {
		t.Errorf("Index() error = %v, want ErrEmbeddingService", err)
	}
}

func TestPipeline_Index_SaveFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	chunker, _ := NewChunker(50, 10)
	embedder := mocks.NewMockEmbedder(ctrl)
	store := vectorstore_mocks.NewMockStore(ctrl)

	embedder.EXPECT().Embed(gomock.Any(), gomock.Any()).Return([][]float32{{1}}, nil)
	embedder.EXPECT().Model().Return("m").AnyTimes()
	store.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	if _, err := NewPipeline(chunker, embedder, store, "loc", nil).Index(context.Background(), []Document{{Text: "text"}}); err == nil {
		t.Error("Index() should fail when save fails")
	}
}
