package knowledge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flynn-ai/jarvis/internal/errors"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := OpenIndex(filepath.Join(t.TempDir(), "kb", "knowledge.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndexSearchRanksByKeywords(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	_, err := idx.Add(ctx, Document{Title: "Authentication guide", URL: "docs/auth.md", Content: "Use JWT tokens for authentication between services."})
	require.NoError(t, err)
	_, err = idx.Add(ctx, Document{Title: "Deploy notes", URL: "docs/deploy.md", Content: "Services are deployed with tokens rotated weekly."})
	require.NoError(t, err)
	_, err = idx.Add(ctx, Document{Title: "Cooking", URL: "docs/soup.md", Content: "Tomato soup recipe."})
	require.NoError(t, err)

	res, err := idx.Search(ctx, "How does authentication with tokens work?", 5)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "Authentication guide", res.Results[0].Title)
	assert.Equal(t, "Deploy notes", res.Results[1].Title)
	assert.Greater(t, res.Results[0].Score, res.Results[1].Score)
	assert.NotEmpty(t, res.Results[0].Preview)

	res, err = idx.Search(ctx, "tokens", 1)
	require.NoError(t, err)
	assert.Len(t, res.Results, 1)

	res, err = idx.Search(ctx, "kubernetes", 5)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.Results)
}

func TestIndexAddReplacesSameURL(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	first, err := idx.Add(ctx, Document{Title: "v1", URL: "docs/a.md", Content: "alpha"})
	require.NoError(t, err)
	second, err := idx.Add(ctx, Document{Title: "v2", URL: "docs/a.md", Content: "alpha beta"})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = idx.Add(ctx, Document{Title: "empty", Content: "  "})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestExtractKeywords(t *testing.T) {
	assert.Equal(t, []string{"authentication", "tokens"}, extractKeywords("What is the authentication of tokens? tokens"))
	assert.Empty(t, extractKeywords("is it ok"))
}

func TestFromHTML(t *testing.T) {
	html := `<html><head><title> Service Guide </title><style>p{}</style></head>
<body><nav>menu</nav><h1>Overview</h1><p>Use <strong>JWT</strong> tokens.</p><script>alert(1)</script></body></html>`

	d, err := FromHTML(html, "https://docs.example.com/guide")
	require.NoError(t, err)
	assert.Equal(t, "Service Guide", d.Title)
	assert.Equal(t, "https://docs.example.com/guide", d.URL)
	assert.Contains(t, d.Content, "# Overview")
	assert.Contains(t, d.Content, "**JWT**")
	assert.NotContains(t, d.Content, "alert")
	assert.NotContains(t, d.Content, "menu")
}

func TestFromFile(t *testing.T) {
	d, err := FromFile("notes/arch.md", []byte("intro\n## Architecture Notes\nbody"))
	require.NoError(t, err)
	assert.Equal(t, "Architecture Notes", d.Title)

	d, err = FromFile("notes/plain.txt", []byte("no heading"))
	require.NoError(t, err)
	assert.Equal(t, "plain.txt", d.Title)

	d, err = FromFile("page.html", []byte("<p>hello</p>"))
	require.NoError(t, err)
	assert.Equal(t, "page.html", d.Title)
	assert.Equal(t, "hello", d.Content)
}

func TestNoopSearcher(t *testing.T) {
	res, err := Noop{}.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "none", EndpointOf(Noop{}))
}

func TestMCPEndpoint(t *testing.T) {
	assert.Equal(t, "http://localhost:8051/mcp", mcpEndpoint("http://localhost:8051/"))
	assert.Equal(t, "http://archon:8051/custom", mcpEndpoint("http://archon:8051/custom"))
}

type searchArgs struct {
	Query      string `json:"query"`
	MatchCount int    `json:"match_count"`
	ReturnMode string `json:"return_mode"`
}

// newArchonServer serves the search tool over streamable HTTP.
func newArchonServer(t *testing.T, handle func(searchArgs) *mcp.CallToolResult) *httptest.Server {
	t.Helper()
	server := mcp.NewServer(&mcp.Implementation{Name: "archon-test", Version: "v0.0.1"}, nil)
	mcp.AddTool(server, &mcp.Tool{Name: DefaultSearchTool, Description: "search the knowledge base"},
		func(ctx context.Context, req *mcp.CallToolRequest, args searchArgs) (*mcp.CallToolResult, any, error) {
			return handle(args), nil, nil
		})
	ts := httptest.NewServer(mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil))
	t.Cleanup(ts.Close)
	return ts
}

func textResult(t *testing.T, v any) *mcp.CallToolResult {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(data)}}}
}

func TestArchonSearch(t *testing.T) {
	calls := make(chan searchArgs, 1)
	ts := newArchonServer(t, func(args searchArgs) *mcp.CallToolResult {
		calls <- args
		return textResult(t, map[string]any{
			"success": true,
			"results": []map[string]any{
				{"title": "Auth", "preview": "JWT everywhere", "url": "https://docs/auth", "similarity": 0.9},
				{"section_title": "Deploy", "content": strings.Repeat("x", 300)},
				{"content": "bare"},
			},
		})
	})

	a := NewArchon(ArchonConfig{URL: ts.URL, Logger: zerolog.Nop()})
	assert.Equal(t, ts.URL+"/mcp", a.Endpoint())

	res, err := a.Search(context.Background(), "auth tokens", 5)
	require.NoError(t, err)
	assert.Equal(t, searchArgs{Query: "auth tokens", MatchCount: 5, ReturnMode: "pages"}, <-calls)

	require.True(t, res.Success)
	require.Len(t, res.Results, 3)
	assert.Equal(t, Result{Title: "Auth", Preview: "JWT everywhere", URL: "https://docs/auth", Score: 0.9}, res.Results[0])
	assert.Equal(t, "Deploy", res.Results[1].Title)
	assert.Len(t, res.Results[1].Preview, previewChars)
	assert.Equal(t, "Untitled", res.Results[2].Title)
}

func TestArchonProviderReportedFailure(t *testing.T) {
	ts := newArchonServer(t, func(args searchArgs) *mcp.CallToolResult {
		return textResult(t, map[string]any{"success": false, "error": "no sources"})
	})

	res, err := NewArchon(ArchonConfig{URL: ts.URL + "/mcp", Logger: zerolog.Nop()}).Search(context.Background(), "q", 3)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "no sources", res.Error)
}

func TestArchonToolError(t *testing.T) {
	ts := newArchonServer(t, func(args searchArgs) *mcp.CallToolResult {
		return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: "database offline"}}}
	})

	res, err := NewArchon(ArchonConfig{URL: ts.URL, Logger: zerolog.Nop()}).Search(context.Background(), "q", 3)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "database offline", res.Error)
}

func TestArchonUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := NewArchon(ArchonConfig{URL: url, Logger: zerolog.Nop()}).Search(context.Background(), "q", 3)
	require.Error(t, err)
	assert.Equal(t, errors.CodeKnowledgeUnavailable, errors.GetCode(err))
}
