package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"newsrag/internal/model"
)

type SourceRepository struct {
	db *gorm.DB
}

func NewSourceRepository(db *gorm.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

func (r *SourceRepository) Create(ctx context.Context, source *model.Source) error {
	if err := r.db.WithContext(ctx).Create(source).Error; err != nil {
		return fmt.Errorf("create source failed: %w", err)
	}
	return nil
}

// GetByName returns the oldest source with the given name. Names are not
// unique, so concurrent first ingestions may leave duplicates behind.
func (r *SourceRepository) GetByName(ctx context.Context, name string) (*model.Source, error) {
	var source model.Source
	if err := r.db.WithContext(ctx).Where("name = ?", name).Order("id ASC").First(&source).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query source by name failed: %w", err)
	}
	return &source, nil
}

func (r *SourceRepository) GetByID(ctx context.Context, id uint) (*model.Source, error) {
	var source model.Source
	if err := r.db.WithContext(ctx).First(&source, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query source by id failed: %w", err)
	}
	return &source, nil
}
