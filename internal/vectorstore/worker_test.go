package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerClient_Upsert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upsert", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body struct {
			Items []Item `json:"items"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Items, 2)
		assert.Equal(t, "v-1", body.Items[0].ID)
		assert.Equal(t, "hello", body.Items[0].Text)
		assert.EqualValues(t, 0, body.Items[0].Metadata[MetaChunkIndex])
		assert.EqualValues(t, 1, body.Items[1].Metadata[MetaChunkIndex])

		_, _ = w.Write([]byte(`{"inserted": 2}`))
	}))
	defer srv.Close()

	client := NewWorkerClient(srv.URL+"/", time.Second)
	inserted, err := client.Upsert(context.Background(), []Item{
		{ID: "v-1", Text: "hello", Metadata: map[string]interface{}{MetaChunkIndex: 0}},
		{ID: "v-2", Text: "world", Metadata: map[string]interface{}{MetaChunkIndex: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
}

func TestWorkerClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["query"])
		assert.EqualValues(t, 3, body["top_k"])

		_, _ = w.Write([]byte(`{"results":[
			{"id":"b","text":"second","score":0.5,"metadata":{"title":"T"}},
			{"id":"a","text":"first","score":0.9}
		]}`))
	}))
	defer srv.Close()

	hits, err := NewWorkerClient(srv.URL, time.Second).Search(context.Background(), "hello", 3)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "b", hits[0].ID)
	assert.Equal(t, "T", hits[0].Metadata[MetaTitle])
	assert.InDelta(t, 0.9, hits[1].Score, 1e-9)
}

func TestWorkerClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewWorkerClient(srv.URL, time.Second)
	_, err := client.Upsert(context.Background(), []Item{{ID: "x", Text: "y"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")

	hits, err := client.Search(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Empty(t, hits)
}

func TestWorkerClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewWorkerClient(url, 200*time.Millisecond).Search(context.Background(), "q", 5)
	require.Error(t, err)
}
