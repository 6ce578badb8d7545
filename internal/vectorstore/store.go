// Package vectorstore holds the clients that sync chunks to, and search, the
// external vector index.
package vectorstore

import "context"

// Metadata keys attached to every upserted chunk.
const (
	MetaDocumentID = "document_id"
	MetaTitle      = "title"
	MetaSourceName = "source_name"
	MetaChunkIndex = "chunk_index"
)

// Item is one chunk submitted for embedding and storage.
type Item struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Hit is one search match, returned in index order of relevance.
type Hit struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type Client interface {
	// Upsert stores the items and reports how many the index accepted.
	Upsert(ctx context.Context, items []Item) (int, error)
	Search(ctx context.Context, query string, topK int) ([]Hit, error)
}
