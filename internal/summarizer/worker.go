package summarizer

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

// WorkerSummarizer calls the embedding worker's POST /summarize endpoint.
type WorkerSummarizer struct {
	baseURL    string
	httpClient *http.Client
}

var _ Summarizer = (*WorkerSummarizer)(nil)

func NewWorkerSummarizer(baseURL string, timeout time.Duration) *WorkerSummarizer {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &WorkerSummarizer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *WorkerSummarizer) Summarize(ctx context.Context, query string, snippets []string) (string, error) {
	if snippets == nil {
		snippets = []string{}
	}
	payload, err := json.Marshal(map[string]interface{}{
		"query":    query,
		"snippets": snippets,
	})
	if err != nil {
		return "", fmt.Errorf("marshal summarize request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/summarize", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build summarize request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarize request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read summarize response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("summarize response status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse summarize json failed: %w", err)
	}
	return parsed.Summary, nil
}
