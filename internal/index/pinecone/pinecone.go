// Package pinecone implements index.VectorIndex against a Pinecone-style
// REST API: POST {host}/vectors/upsert and POST {host}/query with an Api-Key
// header. The wire shapes match what the original deployment upserted into
// its "teamtalks-questions" index.
package pinecone

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

// Config holds the vector index endpoint settings.
type Config struct {
	// Host is the index endpoint, e.g.
	// "https://teamtalks-questions-abc123.svc.us-west1-gcp.pinecone.io".
	Host string

	APIKey string

	// Timeout bounds each request. Zero means 30s.
	Timeout time.Duration
}

var _ index.VectorIndex = (*Client)(nil)

// Client is an HTTP vector index client. Construct with New and inject where
// an index.VectorIndex is needed — never held as ambient global state.
type Client struct {
	http   *http.Client
	host   string
	apiKey string
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		host:   strings.TrimRight(cfg.Host, "/"),
		apiKey: cfg.APIKey,
	}
}

type upsertRequest struct {
	Vectors []index.Item `json:"vectors"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []index.Match `json:"matches"`
}

// Upsert inserts or replaces items in the index.
func (c *Client) Upsert(ctx context.Context, items []index.Item) error {
	if len(items) == 0 {
		return nil
	}
	var resp upsertResponse
	if err := c.post(ctx, "/vectors/upsert", upsertRequest{Vectors: items}, &resp); err != nil {
		return fmt.Errorf("upserting %d vectors: %w", len(items), err)
	}
	return nil
}

type upsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

// Query returns the topK nearest matches for vector.
func (c *Client) Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]index.Match, error) {
	var resp queryResponse
	err := c.post(ctx, "/query", queryRequest{
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: includeMetadata,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	return resp.Matches, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Api-Key", c.apiKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vector index returned HTTP %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
