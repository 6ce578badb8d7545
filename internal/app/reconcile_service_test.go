package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsrag/internal/model"
	"newsrag/internal/vectorstore"
)

func seedUnindexed(t *testing.T, store *memStore, content string) uint {
	t.Helper()
	svc := NewIngestService(store, &fakeVectors{upsertErr: errFake}, nil, 0)
	res, err := svc.Ingest(context.Background(), IngestInput{SourceName: "src", Title: "T", Content: content})
	require.NoError(t, err)
	return res.DocumentID
}

func TestReconcile_ReindexReusesVectorIDs(t *testing.T) {
	store := &memStore{}
	id := seedUnindexed(t, store, "abcdefghij")
	chunks, err := store.ListChunksByDocumentID(context.Background(), id)
	require.NoError(t, err)

	vectors := &fakeVectors{inserted: -1}
	svc, err := NewReconcileService(store, vectors, ReconcileConfig{})
	require.NoError(t, err)
	defer svc.Close()

	require.NoError(t, svc.ReindexDocument(context.Background(), id))
	require.Len(t, vectors.upserts, 1)
	item := vectors.upserts[0][0]
	assert.Equal(t, chunks[0].VectorID, item.ID)
	assert.Equal(t, "src", item.Metadata[vectorstore.MetaSourceName])
	assert.Equal(t, 0, item.Metadata[vectorstore.MetaChunkIndex])
	assert.Equal(t, model.IndexStateIndexed, store.document(id).IndexState)

	// second call is a no-op
	require.NoError(t, svc.ReindexDocument(context.Background(), id))
	assert.Len(t, vectors.upserts, 1)
}

func TestReconcile_ReindexMissingDocument(t *testing.T) {
	svc, err := NewReconcileService(&memStore{}, &fakeVectors{}, ReconcileConfig{})
	require.NoError(t, err)
	defer svc.Close()

	assert.ErrorIs(t, svc.ReindexDocument(context.Background(), 42), ErrDocumentNotFound)
}

func TestReconcile_ReindexFailureKeepsPersisted(t *testing.T) {
	store := &memStore{}
	id := seedUnindexed(t, store, "text")

	svc, err := NewReconcileService(store, &fakeVectors{upsertErr: errFake}, ReconcileConfig{})
	require.NoError(t, err)
	defer svc.Close()

	assert.ErrorIs(t, svc.ReindexDocument(context.Background(), id), errFake)
	assert.Equal(t, model.IndexStatePersisted, store.document(id).IndexState)
}

func TestReconcile_SweepHonoursGrace(t *testing.T) {
	store := &memStore{}
	a := seedUnindexed(t, store, "one")
	b := seedUnindexed(t, store, "two")
	c := seedUnindexed(t, store, "three")

	vectors := &fakeVectors{inserted: -1}
	svc, err := NewReconcileService(store, vectors, ReconcileConfig{Grace: time.Minute, PoolSize: 2})
	require.NoError(t, err)
	defer svc.Close()
	// only documents created before now-grace qualify
	svc.now = func() time.Time { return store.document(c).CreatedAt.Add(30 * time.Second) }
	store.mu.Lock()
	store.documents[a-1].CreatedAt = store.documents[a-1].CreatedAt.Add(-time.Hour)
	store.documents[b-1].CreatedAt = store.documents[b-1].CreatedAt.Add(-time.Hour)
	store.mu.Unlock()

	report, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &SweepReport{Candidates: 2, Reindexed: 2}, report)
	assert.Equal(t, model.IndexStateIndexed, store.document(a).IndexState)
	assert.Equal(t, model.IndexStateIndexed, store.document(b).IndexState)
	assert.Equal(t, model.IndexStatePersisted, store.document(c).IndexState)
}

func TestReconcile_SweepCountsFailures(t *testing.T) {
	store := &memStore{}
	id := seedUnindexed(t, store, "text")
	store.mu.Lock()
	store.documents[id-1].CreatedAt = time.Now().Add(-time.Hour)
	store.mu.Unlock()

	svc, err := NewReconcileService(store, &fakeVectors{upsertErr: errFake}, ReconcileConfig{})
	require.NoError(t, err)
	defer svc.Close()

	report, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Candidates)
	assert.Equal(t, 1, report.Failed)
	assert.Zero(t, report.Reindexed)
}
