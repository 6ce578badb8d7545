package app

import "strings"

// DefaultChunkSize is the maximum number of runes per chunk.
const DefaultChunkSize = 500

// normalizeText replaces invalid UTF-8 sequences with U+FFFD, so the stored
// content and its rune-based chunks agree byte for byte.
func normalizeText(text string) string {
	return strings.ToValidUTF8(text, "\uFFFD")
}

// splitText cuts text into consecutive, non-overlapping pieces of at most
// size runes. For valid UTF-8 input, joining the pieces yields text unchanged.
func splitText(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if text == "" {
		return nil
	}
	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
