package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Embedder turns texts into vectors, one per text, in order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// PGVectorStore keeps chunk embeddings in a Postgres table with a pgvector
// column, embedding texts itself before writing.
type PGVectorStore struct {
	pool      *pgxpool.Pool
	embedder  Embedder
	table     string
	dimension int
}

var _ Client = (*PGVectorStore)(nil)

func NewPGVectorStore(pool *pgxpool.Pool, embedder Embedder, table string, dimension int) *PGVectorStore {
	if table == "" {
		table = "rag_vectors"
	}
	return &PGVectorStore{
		pool:      pool,
		embedder:  embedder,
		table:     table,
		dimension: dimension,
	}
}

// EnsureSchema creates the extension, table and HNSW index when missing.
func (s *PGVectorStore) EnsureSchema(ctx context.Context) error {
	if s.dimension <= 0 {
		return fmt.Errorf("invalid vector dimension %d", s.dimension)
	}
	ident := pgx.Identifier{s.table}.Sanitize()
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, ident, s.dimension),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`,
			pgx.Identifier{s.table + "_embedding_idx"}.Sanitize(), ident),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure pgvector schema failed: %w", err)
		}
	}
	return nil
}

func (s *PGVectorStore) Upsert(ctx context.Context, items []Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	texts := make([]string, len(items))
	for i := range items {
		texts[i] = items[i].Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks failed: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, text, metadata, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET text = EXCLUDED.text, metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding`,
		pgx.Identifier{s.table}.Sanitize())

	batch := &pgx.Batch{}
	for i, item := range items {
		meta, err := json.Marshal(item.Metadata)
		if err != nil {
			return 0, fmt.Errorf("marshal chunk metadata failed: %w", err)
		}
		batch.Queue(query, item.ID, item.Text, string(meta), pgvector.NewVector(vectors[i]))
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for i := 0; i < len(items); i++ {
		if _, err := br.Exec(); err != nil {
			return inserted, fmt.Errorf("upsert vector %d failed: %w", i, err)
		}
		inserted++
	}
	return inserted, nil
}

func (s *PGVectorStore) Search(ctx context.Context, query string, topK int) ([]Hit, error) {
	if topK <= 0 {
		topK = 5
	}
	vectors, err := s.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}
	embedding := pgvector.NewVector(vectors[0])

	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, text, metadata::text, 1 - (embedding <=> $1) AS score
			FROM %s
			ORDER BY embedding <=> $1
			LIMIT $2`, pgx.Identifier{s.table}.Sanitize()),
		embedding, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("search vectors failed: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			hit  Hit
			meta string
		)
		if err := rows.Scan(&hit.ID, &hit.Text, &meta, &hit.Score); err != nil {
			return nil, fmt.Errorf("scan vector hit failed: %w", err)
		}
		if meta != "" {
			if err := json.Unmarshal([]byte(meta), &hit.Metadata); err != nil {
				return nil, fmt.Errorf("parse vector metadata failed: %w", err)
			}
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}
