// Package openai implements index.Embedder against an OpenAI-compatible
// embeddings endpoint (POST {base}/embeddings). The original deployment used
// text-embedding-ada-002; any server speaking the same JSON works, which is
// also how tests drive this client against httptest.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/teamtalks/knowledgebase/internal/httputil"
	"github.com/teamtalks/knowledgebase/internal/index"
)

// Config holds the embedding endpoint settings.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.openai.com/v1".
	BaseURL string

	APIKey string

	// Model is the embedding model name, e.g. "text-embedding-ada-002".
	Model string

	// Dimension is the vector length the model produces (1536 for ada-002).
	Dimension int

	// Timeout bounds each request; an embedding call that never returns
	// must not stall a request forever. Zero means 30s.
	Timeout time.Duration
}

var _ index.Embedder = (*Client)(nil)

// Client is an HTTP embeddings client. Construct with New and inject where
// an index.Embedder is needed.
type Client struct {
	http      *http.Client
	baseURL   string
	apiKey    string
	model     string
	dimension int
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		dimension: cfg.Dimension,
	}
}

// Dimension returns the configured vector length.
func (c *Client) Dimension() int { return c.dimension }

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed sends text to the embeddings endpoint and returns the vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("encoding embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service returned HTTP %d", resp.StatusCode)
	}

	var er embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("parsing embedding response: %w", err)
	}
	if len(er.Data) == 0 {
		return nil, fmt.Errorf("embedding response carried no data")
	}

	vector := er.Data[0].Embedding
	if c.dimension > 0 && len(vector) != c.dimension {
		return nil, fmt.Errorf("embedding has dimension %d, expected %d", len(vector), c.dimension)
	}
	return vector, nil
}
