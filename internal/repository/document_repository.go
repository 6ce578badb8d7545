package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"newsrag/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	if doc.IndexState == "" {
		doc.IndexState = model.IndexStatePersisted
	}
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Document{}).Where("url = ?", url).Limit(1).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check document url failed: %w", err)
	}
	return count > 0, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

// List returns documents newest first, without their content.
func (r *DocumentRepository) List(ctx context.Context, limit, offset int) ([]model.Document, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var docs []model.Document
	err := r.db.WithContext(ctx).
		Omit("content").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}

// ListUnindexed returns documents still waiting for a vector upsert that were
// created before the given time, oldest first.
func (r *DocumentRepository) ListUnindexed(ctx context.Context, createdBefore time.Time, limit int) ([]model.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	var docs []model.Document
	err := r.db.WithContext(ctx).
		Omit("content").
		Where("index_state = ? AND created_at < ?", model.IndexStatePersisted, createdBefore).
		Order("id ASC").
		Limit(limit).
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list unindexed documents failed: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) MarkIndexed(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"index_state": model.IndexStateIndexed,
			"indexed_at":  at,
		}).Error
	if err != nil {
		return fmt.Errorf("mark document indexed failed: %w", err)
	}
	return nil
}
