package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"newsrag/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Models()...))
	return NewStore(db)
}

func saveDoc(t *testing.T, store *Store, url string, texts ...string) *model.Document {
	t.Helper()
	doc := &model.Document{SourceID: 1, Title: "t", URL: url, Content: "c"}
	chunks := make([]model.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = model.Chunk{Text: text, VectorID: fmt.Sprintf("%s-%d", url, i)}
	}
	require.NoError(t, store.SaveDocumentWithChunks(context.Background(), doc, chunks))
	return doc
}

func TestStore_ExistsDocumentByURL(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exists, err := store.ExistsDocumentByURL(ctx, "https://a")
	require.NoError(t, err)
	assert.False(t, exists)

	saveDoc(t, store, "https://a")
	exists, err = store.ExistsDocumentByURL(ctx, "https://a")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.ExistsDocumentByURL(ctx, "https://a/")
	require.NoError(t, err)
	assert.False(t, exists, "only exact urls match")
}

func TestStore_SaveDocumentWithChunks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := saveDoc(t, store, "https://a", "one", "two", "three")
	require.NotZero(t, doc.ID)

	got, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IndexStatePersisted, got.IndexState)

	chunks, err := store.ListChunksByDocumentID(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, want := range []string{"one", "two", "three"} {
		assert.Equal(t, want, chunks[i].Text)
		assert.Equal(t, doc.ID, chunks[i].DocumentID)
	}
}

func TestStore_FailedChunkInsertRollsBackDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := &model.Document{SourceID: 1, Title: "t", URL: "https://dup"}
	chunks := []model.Chunk{
		{Text: "a", VectorID: "same"},
		{Text: "b", VectorID: "same"},
	}
	require.Error(t, store.SaveDocumentWithChunks(ctx, doc, chunks))

	exists, err := store.ExistsDocumentByURL(ctx, "https://dup")
	require.NoError(t, err)
	assert.False(t, exists)
	docs, err := store.ListDocuments(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestStore_MarkDocumentIndexed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := saveDoc(t, store, "https://a", "x")

	require.NoError(t, store.MarkDocumentIndexed(ctx, doc.ID))
	got, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, got.Indexed())
	assert.NotNil(t, got.IndexedAt)

	missing, err := store.GetDocument(ctx, doc.ID+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_SourcesByName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	none, err := store.FindSourceByName(ctx, "wire")
	require.NoError(t, err)
	assert.Nil(t, none)

	first := &model.Source{Name: "wire", URL: "https://one"}
	require.NoError(t, store.SaveSource(ctx, first))
	require.NoError(t, store.SaveSource(ctx, &model.Source{Name: "wire", URL: "https://two"}))

	got, err := store.FindSourceByName(ctx, "wire")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestStore_ListDocumentsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	a := saveDoc(t, store, "https://a")
	b := saveDoc(t, store, "https://b")

	docs, err := store.ListDocuments(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, b.ID, docs[0].ID)
	assert.Equal(t, a.ID, docs[1].ID)
	assert.Empty(t, docs[0].Content)
}

func TestStore_ManyChunksKeepInsertOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	texts := make([]string, 2*chunkInsertBatch+1)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk-%04d", i)
	}
	doc := saveDoc(t, store, "https://big", texts...)

	chunks, err := store.ListChunksByDocumentID(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, len(texts))
	for i, c := range chunks {
		assert.Equal(t, texts[i], c.Text)
		assert.NotZero(t, c.ID)
	}
}
