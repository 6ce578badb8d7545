package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"newsrag/internal/model"
)

// chunkInsertBatch keeps each INSERT well under MySQL's placeholder limit.
const chunkInsertBatch = 500

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) CreateBatch(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&chunks, chunkInsertBatch).Error; err != nil {
		return fmt.Errorf("create chunks batch failed: %w", err)
	}
	return nil
}

// ListByDocumentID returns a document's chunks in chunk-index order.
func (r *ChunkRepository) ListByDocumentID(ctx context.Context, documentID uint) ([]model.Chunk, error) {
	var chunks []model.Chunk
	if err := r.db.WithContext(ctx).Where("document_id = ?", documentID).Order("id ASC").Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("list chunks by document failed: %w", err)
	}
	return chunks, nil
}
