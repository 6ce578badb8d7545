package summarizer

import (
	"context"
	"strings"

	"newsrag/internal/ai"
)

// LLMSummarizer asks an OpenAI-compatible chat model directly.
type LLMSummarizer struct {
	client *ai.OpenAICompatibleClient
	cfg    ai.ChatConfig
}

var _ Summarizer = (*LLMSummarizer)(nil)

func NewLLMSummarizer(client *ai.OpenAICompatibleClient, cfg ai.ChatConfig) *LLMSummarizer {
	return &LLMSummarizer{client: client, cfg: cfg}
}

func (s *LLMSummarizer) Summarize(ctx context.Context, query string, snippets []string) (string, error) {
	messages := []ai.ChatMessage{
		{Role: "user", Content: buildPrompt(query, snippets)},
	}
	answer, err := s.client.Complete(ctx, s.cfg, messages)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}
