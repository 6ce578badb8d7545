package summarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsrag/internal/ai"
)

func TestWorkerSummarizer_Summarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/summarize", r.URL.Path)
		var body struct {
			Query    string   `json:"query"`
			Snippets []string `json:"snippets"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "what is go", body.Query)
		assert.Equal(t, []string{"Go https://go.dev"}, body.Snippets)
		_, _ = w.Write([]byte(`{"summary":"Go is a language."}`))
	}))
	defer srv.Close()

	s := NewWorkerSummarizer(srv.URL, time.Second)
	out, err := s.Summarize(context.Background(), "what is go", []string{"Go https://go.dev"})
	require.NoError(t, err)
	assert.Equal(t, "Go is a language.", out)
}

func TestWorkerSummarizer_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	out, err := NewWorkerSummarizer(srv.URL, time.Second).Summarize(context.Background(), "q", nil)
	require.Error(t, err)
	assert.Empty(t, out)
}

func TestLLMSummarizer_Summarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model    string           `json:"model"`
			Messages []ai.ChatMessage `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "chat-model", body.Model)
		require.Len(t, body.Messages, 1)
		assert.Contains(t, body.Messages[0].Content, "Query: weather")
		assert.Contains(t, body.Messages[0].Content, "snippet-5")
		assert.NotContains(t, body.Messages[0].Content, "snippet-6")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  sunny  "}}]}`))
	}))
	defer srv.Close()

	s := NewLLMSummarizer(ai.NewOpenAICompatibleClient(time.Second), ai.ChatConfig{BaseURL: srv.URL, Model: "chat-model"})
	snippets := []string{"snippet-1", "snippet-2", "snippet-3", "snippet-4", "snippet-5", "snippet-6"}
	out, err := s.Summarize(context.Background(), "weather", snippets)
	require.NoError(t, err)
	assert.Equal(t, "sunny", out)
}

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt("q", []string{"a", "b"})
	assert.True(t, strings.HasSuffix(p, "Answer concisely:"))
	assert.Contains(t, p, "Context:\na\n\nb")
}
