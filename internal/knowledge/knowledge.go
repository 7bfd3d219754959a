// Package knowledge provides the knowledge base search backends used by the
// orchestrator: the Archon MCP server and a local SQLite index.
package knowledge

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Result is a single search hit.
type Result struct {
	Title   string  `json:"title"`
	Preview string  `json:"preview,omitempty"`
	Content string  `json:"content,omitempty"`
	URL     string  `json:"url,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// SearchResult is the outcome of a search. Success=false means the provider
// answered but reported a failure; transport failures are returned as errors.
type SearchResult struct {
	Success bool     `json:"success"`
	Results []Result `json:"results"`
	Error   string   `json:"error,omitempty"`
}

// Searcher searches a knowledge base.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) (*SearchResult, error)
}

// Noop is the searcher used when no knowledge provider is configured.
type Noop struct{}

// Search always reports an unsuccessful search.
func (Noop) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	return &SearchResult{Success: false, Error: "knowledge base not configured"}, nil
}

// Endpoint describes where a searcher reads from, for status output.
type Endpoint interface {
	Endpoint() string
}

// EndpointOf returns the searcher's endpoint, or "none".
func EndpointOf(s Searcher) string {
	if e, ok := s.(Endpoint); ok {
		return e.Endpoint()
	}
	return "none"
}

const previewChars = 200

// preview returns the first previewChars runes of content with whitespace
// collapsed.
func preview(content string) string {
	s := strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(s) <= previewChars {
		return s
	}
	return string([]rune(s)[:previewChars])
}
