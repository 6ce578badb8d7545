package app

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"newsrag/internal/model"
	"newsrag/internal/vectorstore"
)

const untitled = "Untitled"

type IngestOrigin string

const (
	// OriginDirect is an API submission; content is mandatory.
	OriginDirect IngestOrigin = "direct"
	// OriginFeed is a harvested entry; content may be empty when the page
	// could not be fetched, which still records the URL.
	OriginFeed IngestOrigin = "feed"
)

type IngestInput struct {
	SourceName string
	SourceURL  string
	Title      string
	URL        string
	Content    string
	Origin     IngestOrigin
}

type IngestResult struct {
	DocumentID    uint `json:"document_id"`
	ChunkCount    int  `json:"chunk_count"`
	InsertedCount int  `json:"inserted_count"`
}

type IngestStore interface {
	FindSourceByName(ctx context.Context, name string) (*model.Source, error)
	SaveSource(ctx context.Context, source *model.Source) error
	SaveDocumentWithChunks(ctx context.Context, doc *model.Document, chunks []model.Chunk) error
	MarkDocumentIndexed(ctx context.Context, documentID uint) error
}

// ReindexPublisher queues a document whose vector upsert failed.
type ReindexPublisher interface {
	PublishReindex(ctx context.Context, documentID uint) error
}

type IngestService struct {
	store       IngestStore
	vectors     vectorstore.Client
	publisher   ReindexPublisher
	chunkSize   int
	newVectorID func() string
}

func NewIngestService(store IngestStore, vectors vectorstore.Client, publisher ReindexPublisher, chunkSize int) *IngestService {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &IngestService{
		store:       store,
		vectors:     vectors,
		publisher:   publisher,
		chunkSize:   chunkSize,
		newVectorID: func() string { return uuid.NewString() },
	}
}

// Ingest persists a document with its chunks and then pushes the chunks to
// the vector store. The relational write is committed before the upsert; a
// failed upsert leaves the document in the persisted state for the
// reconciler and is not reported to the caller.
func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	sourceName := strings.TrimSpace(input.SourceName)
	if sourceName == "" {
		return nil, ErrInvalidInput
	}
	content := normalizeText(input.Content)
	if input.Origin != OriginFeed && strings.TrimSpace(content) == "" {
		return nil, ErrInvalidInput
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = untitled
	}

	source, err := s.resolveSource(ctx, sourceName, strings.TrimSpace(input.SourceURL))
	if err != nil {
		return nil, err
	}

	texts := splitText(content, s.chunkSize)
	chunks := make([]model.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = model.Chunk{
			Text:     text,
			VectorID: s.newVectorID(),
		}
	}

	doc := &model.Document{
		SourceID:   source.ID,
		Title:      title,
		URL:        strings.TrimSpace(input.URL),
		Content:    content,
		IndexState: model.IndexStatePersisted,
	}
	if err := s.store.SaveDocumentWithChunks(ctx, doc, chunks); err != nil {
		return nil, err
	}

	result := &IngestResult{
		DocumentID: doc.ID,
		ChunkCount: len(chunks),
	}
	result.InsertedCount = s.index(ctx, doc, source.Name, chunks)
	return result, nil
}

// resolveSource looks the source up by name and creates it when missing.
// An existing source is reused as-is, even if sourceURL differs.
func (s *IngestService) resolveSource(ctx context.Context, name, sourceURL string) (*model.Source, error) {
	source, err := s.store.FindSourceByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if source != nil {
		return source, nil
	}
	source = &model.Source{Name: name, URL: sourceURL}
	if err := s.store.SaveSource(ctx, source); err != nil {
		return nil, err
	}
	return source, nil
}

func (s *IngestService) index(ctx context.Context, doc *model.Document, sourceName string, chunks []model.Chunk) int {
	log := logrus.WithField("document_id", doc.ID)
	if len(chunks) == 0 {
		if err := s.store.MarkDocumentIndexed(ctx, doc.ID); err != nil {
			log.WithError(err).Warn("mark empty document indexed failed")
		}
		return 0
	}

	inserted, err := s.vectors.Upsert(ctx, buildItems(doc, sourceName, chunks))
	if err != nil {
		log.WithError(err).Warn("vector upsert failed, document left for reindex")
		if s.publisher != nil {
			if pubErr := s.publisher.PublishReindex(ctx, doc.ID); pubErr != nil {
				log.WithError(pubErr).Warn("publish reindex request failed")
			}
		}
		return 0
	}
	if inserted < len(chunks) {
		log.Warnf("vector store accepted %d of %d chunks", inserted, len(chunks))
	}
	if err := s.store.MarkDocumentIndexed(ctx, doc.ID); err != nil {
		log.WithError(err).Warn("mark document indexed failed")
	}
	return inserted
}

// buildItems maps a document's chunks, in order, to upsert items. The slice
// position is the chunk index.
func buildItems(doc *model.Document, sourceName string, chunks []model.Chunk) []vectorstore.Item {
	items := make([]vectorstore.Item, len(chunks))
	for i, c := range chunks {
		items[i] = vectorstore.Item{
			ID:   c.VectorID,
			Text: c.Text,
			Metadata: map[string]interface{}{
				vectorstore.MetaDocumentID: doc.ID,
				vectorstore.MetaTitle:      doc.Title,
				vectorstore.MetaSourceName: sourceName,
				vectorstore.MetaChunkIndex: i,
			},
		}
	}
	return items
}
