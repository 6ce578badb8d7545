package app

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"newsrag/internal/summarizer"
	"newsrag/internal/vectorstore"
	"newsrag/internal/websearch"
)

const (
	DefaultTopK = 5
	// fallbackTopK caps the number of web results fed to the summarizer.
	fallbackTopK = 3

	ResultKindVector   = "vector"
	ResultKindFallback = "web_fallback"
)

// Result is either a VectorHit or a FallbackSummary.
type Result interface {
	Kind() string
}

// VectorHit is a primary match, passed through from the vector store.
type VectorHit struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func (VectorHit) Kind() string { return ResultKindVector }

// FallbackSummary is the single item returned when the vector store has
// nothing: a summary of web results plus the results themselves.
type FallbackSummary struct {
	Source  string             `json:"source"`
	Summary string             `json:"summary"`
	Results []websearch.Result `json:"results"`
}

func (FallbackSummary) Kind() string { return ResultKindFallback }

type WebSearcher interface {
	TopResults(ctx context.Context, query string, topK int) ([]websearch.Result, error)
}

type SearchService struct {
	vectors    vectorstore.Client
	web        WebSearcher
	summarizer summarizer.Summarizer
}

func NewSearchService(vectors vectorstore.Client, web WebSearcher, sum summarizer.Summarizer) *SearchService {
	return &SearchService{
		vectors:    vectors,
		web:        web,
		summarizer: sum,
	}
}

// Search returns the vector store's matches verbatim. When there are none,
// or the store is unreachable, it falls back to summarizing web results and
// returns at most one FallbackSummary. Missing content is never an error.
func (s *SearchService) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidInput
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	log := logrus.WithField("query", query)

	hits, err := s.vectors.Search(ctx, query, topK)
	if err != nil {
		log.WithError(err).Warn("vector search failed, using fallback")
		hits = nil
	}
	if len(hits) > 0 {
		out := make([]Result, len(hits))
		for i, h := range hits {
			out[i] = VectorHit{ID: h.ID, Text: h.Text, Score: h.Score, Metadata: h.Metadata}
		}
		return out, nil
	}

	if s.web == nil {
		return []Result{}, nil
	}
	webResults, err := s.web.TopResults(ctx, query, min(fallbackTopK, topK))
	if err != nil {
		log.WithError(err).Warn("web search failed")
		return []Result{}, nil
	}
	if len(webResults) == 0 {
		return []Result{}, nil
	}

	snippets := make([]string, len(webResults))
	for i, r := range webResults {
		snippets[i] = r.Title + " " + r.URL
	}

	var summary string
	if s.summarizer != nil {
		summary, err = s.summarizer.Summarize(ctx, query, snippets)
		if err != nil {
			log.WithError(err).Warn("summarize web results failed")
			summary = ""
		}
	}

	return []Result{FallbackSummary{
		Source:  ResultKindFallback,
		Summary: summary,
		Results: webResults,
	}}, nil
}
