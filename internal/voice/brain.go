package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/flynn-ai/jarvis/internal/errors"
	"github.com/flynn-ai/jarvis/pkg/protocol"
)

const maxErrorBody = 4 << 10

// BrainError is a non-200 answer from the brain service.
type BrainError struct {
	StatusCode int
	Body       string
}

func (e *BrainError) Error() string {
	return fmt.Sprintf("JARVIS brain error: %s", e.Body)
}

// BrainClient forwards commands to the brain service.
type BrainClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewBrainClient creates a client for the brain at baseURL. A zero timeout
// means 60 seconds.
func NewBrainClient(baseURL string, timeout time.Duration) *BrainClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &BrainClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// URL returns the brain base URL.
func (c *BrainClient) URL() string {
	return c.baseURL
}

// Process sends text to the brain and returns the raw JSON answer. A
// transport failure is reported as CodeBrainUnreachable; a non-200 answer
// as *BrainError.
func (c *BrainClient) Process(ctx context.Context, text string) (json.RawMessage, error) {
	body, err := json.Marshal(protocol.CommandRequest{Text: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/process", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewBuilder(errors.CodeBrainUnreachable, "Cannot connect to JARVIS brain. Is the service running?").
			Temporary().
			Wrap(err).
			WithContext("url", c.baseURL).
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &BrainError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeBrainUnreachable, "Cannot read JARVIS brain response.", errors.CategoryTemporary)
	}
	if !json.Valid(data) {
		return nil, &BrainError{StatusCode: http.StatusBadGateway, Body: "invalid JSON response"}
	}
	return data, nil
}
