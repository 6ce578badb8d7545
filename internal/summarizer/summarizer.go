// Package summarizer condenses a query and a set of web snippets into a
// short answer.
package summarizer

import (
	"context"
	"strings"
)

// maxSnippets bounds the context handed to the model.
const maxSnippets = 5

type Summarizer interface {
	Summarize(ctx context.Context, query string, snippets []string) (string, error)
}

func buildPrompt(query string, snippets []string) string {
	if len(snippets) > maxSnippets {
		snippets = snippets[:maxSnippets]
	}
	var b strings.Builder
	b.WriteString("You are a helpful assistant. Based on the following context, answer the query ")
	b.WriteString("in the language of the query.\nIf the context is insufficient, say so briefly.\n\n")
	b.WriteString("Query: ")
	b.WriteString(query)
	b.WriteString("\n\nContext:\n")
	b.WriteString(strings.Join(snippets, "\n\n"))
	b.WriteString("\n\nAnswer concisely:")
	return b.String()
}
