package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WorkerClient talks to the embedding worker over its HTTP API
// (POST /upsert and POST /search).
type WorkerClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ Client = (*WorkerClient)(nil)

func NewWorkerClient(baseURL string, timeout time.Duration) *WorkerClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WorkerClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *WorkerClient) Upsert(ctx context.Context, items []Item) (int, error) {
	var resp struct {
		Inserted int `json:"inserted"`
	}
	if err := c.postJSON(ctx, "/upsert", map[string]interface{}{"items": items}, &resp); err != nil {
		return 0, err
	}
	return resp.Inserted, nil
}

func (c *WorkerClient) Search(ctx context.Context, query string, topK int) ([]Hit, error) {
	body := map[string]interface{}{
		"query": query,
		"top_k": topK,
	}
	var resp struct {
		Results []Hit `json:"results"`
	}
	if err := c.postJSON(ctx, "/search", body, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *WorkerClient) postJSON(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal vector %s request failed: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build vector %s request failed: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vector %s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read vector %s response failed: %w", path, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("vector %s response status %d: %s", path, resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse vector %s json failed: %w", path, err)
	}
	return nil
}
