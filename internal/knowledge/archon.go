package knowledge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/flynn-ai/jarvis/internal/errors"
)

// DefaultSearchTool is the Archon RAG tool name.
const DefaultSearchTool = "rag_search_knowledge_base"

// ArchonConfig configures the Archon MCP searcher.
type ArchonConfig struct {
	// URL is the MCP server base URL. A bare host gets the /mcp path.
	URL        string
	Tool       string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Archon searches the Archon knowledge base through its MCP server.
// Each search opens a short-lived streamable HTTP session.
type Archon struct {
	endpoint string
	tool     string
	timeout  time.Duration
	client   *mcp.Client
	http     *http.Client
	log      zerolog.Logger
}

// NewArchon creates an Archon searcher.
func NewArchon(cfg ArchonConfig) *Archon {
	tool := cfg.Tool
	if tool == "" {
		tool = DefaultSearchTool
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Archon{
		endpoint: mcpEndpoint(cfg.URL),
		tool:     tool,
		timeout:  timeout,
		client:   mcp.NewClient(&mcp.Implementation{Name: "jarvis", Version: "v1.0.0"}, nil),
		http:     hc,
		log:      cfg.Logger.With().Str("component", "archon").Logger(),
	}
}

func mcpEndpoint(raw string) string {
	raw = strings.TrimRight(raw, "/")
	u, err := url.Parse(raw)
	if err != nil || u.Path != "" {
		return raw
	}
	return raw + "/mcp"
}

// Endpoint returns the MCP endpoint URL.
func (a *Archon) Endpoint() string {
	return a.endpoint
}

// Search calls the RAG tool with return_mode=pages.
func (a *Archon) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	session, err := a.client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint:   a.endpoint,
		HTTPClient: a.http,
	}, nil)
	if err != nil {
		return nil, errors.NewBuilder(errors.CodeKnowledgeUnavailable, "failed to connect to knowledge server").
			Temporary().
			Wrap(err).
			WithContext("endpoint", a.endpoint).
			WithSuggestion("Check that Archon is running or set ARCHON_MCP_URL").
			Build()
	}
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name: a.tool,
		Arguments: map[string]any{
			"query":       query,
			"match_count": limit,
			"return_mode": "pages",
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeKnowledgeQuery, "knowledge search failed", errors.CategoryTemporary)
	}

	text := firstText(res)
	if res.IsError {
		a.log.Warn().Str("tool", a.tool).Str("detail", text).Msg("knowledge tool reported an error")
		return &SearchResult{Success: false, Error: text}, nil
	}

	out, err := parseArchon(text)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeKnowledgeQuery, "failed to parse knowledge search result", errors.CategoryPermanent)
	}
	a.log.Debug().Int("results", len(out.Results)).Str("query", query).Msg("knowledge search complete")
	return out, nil
}

func firstText(res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// archonPayload is the JSON document carried in the tool's text content.
type archonPayload struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Results []struct {
		Title        string  `json:"title"`
		SectionTitle string  `json:"section_title"`
		Preview      string  `json:"preview"`
		Content      string  `json:"content"`
		URL          string  `json:"url"`
		Similarity   float64 `json:"similarity"`
	} `json:"results"`
}

func parseArchon(text string) (*SearchResult, error) {
	var p archonPayload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, err
	}

	out := &SearchResult{Success: p.Success, Error: p.Error}
	for _, r := range p.Results {
		title := r.Title
		if title == "" {
			title = r.SectionTitle
		}
		if title == "" {
			title = "Untitled"
		}
		pv := r.Preview
		if pv == "" {
			pv = preview(r.Content)
		}
		out.Results = append(out.Results, Result{
			Title:   title,
			Preview: pv,
			Content: r.Content,
			URL:     r.URL,
			Score:   r.Similarity,
		})
	}
	return out, nil
}
