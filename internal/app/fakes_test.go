package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"newsrag/internal/model"
	"newsrag/internal/vectorstore"
	"newsrag/internal/websearch"
)

var errFake = errors.New("boom")

type memStore struct {
	mu        sync.Mutex
	sources   []model.Source
	documents []model.Document
	chunks    []model.Chunk
	saveErr   error
}

var (
	_ IngestStore    = (*memStore)(nil)
	_ ReconcileStore = (*memStore)(nil)
)

func (m *memStore) FindSourceByName(_ context.Context, name string) (*model.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sources {
		if m.sources[i].Name == name {
			s := m.sources[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (m *memStore) SaveSource(_ context.Context, source *model.Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	source.ID = uint(len(m.sources) + 1)
	m.sources = append(m.sources, *source)
	return nil
}

func (m *memStore) GetSource(_ context.Context, id uint) (*model.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sources {
		if m.sources[i].ID == id {
			s := m.sources[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (m *memStore) SaveDocumentWithChunks(_ context.Context, doc *model.Document, chunks []model.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	doc.ID = uint(len(m.documents) + 1)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	m.documents = append(m.documents, *doc)
	for i := range chunks {
		chunks[i].DocumentID = doc.ID
		chunks[i].ID = uint(len(m.chunks) + 1)
		m.chunks = append(m.chunks, chunks[i])
	}
	return nil
}

func (m *memStore) GetDocument(_ context.Context, id uint) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.documents {
		if m.documents[i].ID == id {
			d := m.documents[i]
			return &d, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListChunksByDocumentID(_ context.Context, documentID uint) ([]model.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Chunk
	for _, c := range m.chunks {
		if c.DocumentID == documentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) ListUnindexedDocuments(_ context.Context, createdBefore time.Time, limit int) ([]model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Document
	for _, d := range m.documents {
		if d.IndexState == model.IndexStatePersisted && d.CreatedAt.Before(createdBefore) {
			out = append(out, d)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) MarkDocumentIndexed(_ context.Context, documentID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.documents {
		if m.documents[i].ID == documentID {
			now := time.Now()
			m.documents[i].IndexState = model.IndexStateIndexed
			m.documents[i].IndexedAt = &now
		}
	}
	return nil
}

func (m *memStore) document(id uint) model.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.documents[id-1]
}

type fakeVectors struct {
	mu        sync.Mutex
	upserts   [][]vectorstore.Item
	inserted  int // -1 means len(items)
	upsertErr error
	hits      []vectorstore.Hit
	searchErr error
	lastTopK  int
}

func (f *fakeVectors) Upsert(_ context.Context, items []vectorstore.Item) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, items)
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	if f.inserted < 0 {
		return len(items), nil
	}
	return f.inserted, nil
}

func (f *fakeVectors) Search(_ context.Context, _ string, topK int) ([]vectorstore.Hit, error) {
	f.lastTopK = topK
	return f.hits, f.searchErr
}

type fakePublisher struct {
	mu  sync.Mutex
	ids []uint
	err error
}

func (f *fakePublisher) PublishReindex(_ context.Context, documentID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, documentID)
	return f.err
}

type fakeWeb struct {
	results  []websearch.Result
	err      error
	lastTopK int
	calls    int
}

func (f *fakeWeb) TopResults(_ context.Context, _ string, topK int) ([]websearch.Result, error) {
	f.calls++
	f.lastTopK = topK
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > topK {
		return f.results[:topK], nil
	}
	return f.results, nil
}

type fakeSummarizer struct {
	summary  string
	err      error
	snippets []string
	calls    int
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string, snippets []string) (string, error) {
	f.calls++
	f.snippets = snippets
	return f.summary, f.err
}
