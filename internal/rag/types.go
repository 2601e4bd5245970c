package rag

import (
	"docqa/internal/indexer"
	"docqa/internal/vectorstore"
)

// Answer is the synthesized reply to a question.
type Answer struct {
	// Text is the model's answer, or NotFoundAnswer.
	Text string `json:"answer"`
	// NotFound is true when Text is the not-found sentinel.
	NotFound bool `json:"not_found"`
}

// QueryResult is an Answer plus what was retrieved for it.
type QueryResult struct {
	Answer
	// Retrieved are the chunks passed to the model, in retrieval order.
	Retrieved []vectorstore.Result `json:"-"`
}

// IngestResult describes the index built by an ingest.
type IngestResult struct {
	indexer.Stats
}

// Status describes the index currently stored at the configured location.
type Status struct {
	// Ready is false until an ingest has saved an index.
	Ready bool `json:"ready"`
	// Model is the embedding model of the stored index.
	Model string `json:"model,omitempty"`
	// Dimension is the vector size of the stored index.
	Dimension int `json:"dimension,omitempty"`
	// Chunks is the number of stored chunks.
	Chunks int `json:"chunks"`
}
