// Package index keeps the external vector search index consistent with the
// question store.
//
// The embedding model and the vector database are black-box services behind
// two small interfaces. Production wires HTTP clients (index/openai,
// index/pinecone) or the embedded SQLite index (index/sqlitevec); tests wire
// fakes. Nothing here holds ambient global state — clients are constructed
// once at startup and injected.
package index

import "context"

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the length of every vector Embed produces.
	Dimension() int
}

// Item is one record in vector-index form.
type Item struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Match is one ranked query result.
type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// VectorIndex is the contract of the external vector database.
type VectorIndex interface {
	// Upsert inserts or replaces the given items.
	Upsert(ctx context.Context, items []Item) error

	// Query returns the topK closest items to vector, best first.
	Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]Match, error)
}
