package ai

import (
	"context"
	"fmt"
	"strings"
)

// embeddingBatchSize keeps requests under the batch limit of DashScope-style APIs.
const embeddingBatchSize = 10

// EmbeddingConfig holds API settings for text-embedding (OpenAI-compatible).
type EmbeddingConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Embedder binds an embedding config to a client.
type Embedder struct {
	client *OpenAICompatibleClient
	cfg    EmbeddingConfig
}

func NewEmbedder(client *OpenAICompatibleClient, cfg EmbeddingConfig) *Embedder {
	return &Embedder{client: client, cfg: cfg}
}

// EmbedBatch returns one vector per input text, in input order. Texts are
// sent in provider-sized batches.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	result := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += embeddingBatchSize {
		end := i + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.embed(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		result = append(result, batch...)
	}
	if len(result) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(result), len(texts))
	}
	return result, nil
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	input := make([]string, len(texts))
	for i, t := range texts {
		// Providers reject empty strings; a single space embeds as "nothing".
		if input[i] = strings.TrimSpace(t); input[i] == "" {
			input[i] = " "
		}
	}

	reqBody := map[string]interface{}{
		"model": e.cfg.Model,
		"input": input,
	}
	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := e.client.post(ctx, e.cfg.BaseURL, e.cfg.APIKey, "/embeddings", reqBody, &parsed); err != nil {
		return nil, fmt.Errorf("embedding %w", err)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(parsed.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for i := range parsed.Data {
		if len(parsed.Data[i].Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
		out[i] = parsed.Data[i].Embedding
	}
	return out, nil
}
