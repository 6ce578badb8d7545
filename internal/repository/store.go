package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"newsrag/internal/model"
)

// Store groups the repositories behind the persistence operations used by
// the ingestion, harvest and reconcile services.
type Store struct {
	db        *gorm.DB
	sources   *SourceRepository
	documents *DocumentRepository
	chunks    *ChunkRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		sources:   NewSourceRepository(db),
		documents: NewDocumentRepository(db),
		chunks:    NewChunkRepository(db),
	}
}

// Models lists the tables owned by the store, for auto migration.
func Models() []interface{} {
	return []interface{}{&model.Source{}, &model.Document{}, &model.Chunk{}}
}

func (s *Store) FindSourceByName(ctx context.Context, name string) (*model.Source, error) {
	return s.sources.GetByName(ctx, name)
}

func (s *Store) GetSource(ctx context.Context, id uint) (*model.Source, error) {
	return s.sources.GetByID(ctx, id)
}

func (s *Store) SaveSource(ctx context.Context, source *model.Source) error {
	return s.sources.Create(ctx, source)
}

// SaveDocumentWithChunks writes the document and its chunks in one
// transaction. Chunk DocumentIDs are filled in from the new document.
func (s *Store) SaveDocumentWithChunks(ctx context.Context, doc *model.Document, chunks []model.Chunk) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := NewDocumentRepository(tx).Create(ctx, doc); err != nil {
			return err
		}
		for i := range chunks {
			chunks[i].DocumentID = doc.ID
		}
		return NewChunkRepository(tx).CreateBatch(ctx, chunks)
	})
}

func (s *Store) ExistsDocumentByURL(ctx context.Context, url string) (bool, error) {
	return s.documents.ExistsByURL(ctx, url)
}

func (s *Store) GetDocument(ctx context.Context, id uint) (*model.Document, error) {
	return s.documents.GetByID(ctx, id)
}

func (s *Store) ListDocuments(ctx context.Context, limit, offset int) ([]model.Document, error) {
	return s.documents.List(ctx, limit, offset)
}

func (s *Store) ListUnindexedDocuments(ctx context.Context, createdBefore time.Time, limit int) ([]model.Document, error) {
	return s.documents.ListUnindexed(ctx, createdBefore, limit)
}

func (s *Store) MarkDocumentIndexed(ctx context.Context, id uint) error {
	return s.documents.MarkIndexed(ctx, id, time.Now())
}

func (s *Store) ListChunksByDocumentID(ctx context.Context, documentID uint) ([]model.Chunk, error) {
	return s.chunks.ListByDocumentID(ctx, documentID)
}
