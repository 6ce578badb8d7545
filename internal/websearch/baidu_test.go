package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `<html><body>
<div class="result"><h3><a href="https://a.example/1">First hit</a></h3></div>
<div class="result-op"><h3><a href="/link?id=2"> Second hit </a></h3></div>
<div class="result"><p>no heading link</p></div>
<div class="result"><h3><a href="https://c.example/3">Third hit</a></h3></div>
<div class="result"><h3><a href="https://d.example/4">Fourth hit</a></h3></div>
</body></html>`

func TestBaiduClient_Disabled(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewBaiduClient(Config{Enabled: false, Endpoint: srv.URL})
	results, err := client.TopResults(context.Background(), "golang", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.False(t, called)
}

func TestBaiduClient_TopResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "go 语言", r.URL.Query().Get("wd"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	client := NewBaiduClient(Config{Enabled: true, Endpoint: srv.URL + "/s", UserAgent: "test-agent", Timeout: time.Second})
	results, err := client.TopResults(context.Background(), "go 语言", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, Result{Title: "First hit", URL: "https://a.example/1"}, results[0])
	assert.Equal(t, "Second hit", results[1].Title)
	assert.Equal(t, srv.URL+"/link?id=2", results[1].URL)
	assert.Equal(t, "https://c.example/3", results[2].URL)
}

func TestBaiduClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewBaiduClient(Config{Enabled: true, Endpoint: srv.URL})
	results, err := client.TopResults(context.Background(), "q", 3)
	require.Error(t, err)
	assert.Empty(t, results)
}
