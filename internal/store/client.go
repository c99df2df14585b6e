// Package store provides the HTTP client for the backend store that holds all
// of the agent's durable records: the memory and feedback blobs, the public
// action log, balance history, the tweet log, the reply log, and bounties.
// The process itself keeps no durable state; everything is re-derived from
// this store each cycle.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the production backend endpoint.
const DefaultBaseURL = "https://backend.vesper.sh/api"

// Client talks to the backend store. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// NewClient creates a backend store client authenticated with the given API
// key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do issues one request with auth headers and decodes the JSON response into
// out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s returned status %d: %s", method, path, resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// Memory retrieves the agent's memory blob.
func (c *Client) Memory(ctx context.Context) (string, error) {
	var out struct {
		Memory string `json:"memory"`
	}
	if err := c.do(ctx, http.MethodGet, "/memory", nil, &out); err != nil {
		return "", err
	}
	return out.Memory, nil
}

// Feedback retrieves the accumulated audience feedback blob.
func (c *Client) Feedback(ctx context.Context) (string, error) {
	var out struct {
		Feedback string `json:"feedback"`
	}
	if err := c.do(ctx, http.MethodGet, "/feedback", nil, &out); err != nil {
		return "", err
	}
	return out.Feedback, nil
}

// ClearFeedback resets the feedback blob to empty. Called once per completed
// active cycle to signal the feedback has been consumed.
func (c *Client) ClearFeedback(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/feedback/clear", nil, nil)
}

// PostAction appends a line to the public action log.
func (c *Client) PostAction(ctx context.Context, text string, highlighted bool) error {
	body := map[string]any{
		"text":        text,
		"highlighted": highlighted,
	}
	return c.do(ctx, http.MethodPost, "/actions", body, nil)
}

// PostBalance records a balance observation for the public audit trail.
func (c *Client) PostBalance(ctx context.Context, amount decimal.Decimal) error {
	body := map[string]any{
		"amount": amount.String(),
	}
	return c.do(ctx, http.MethodPost, "/balances", body, nil)
}

// TweetLog returns the append-only record of posted tweets, oldest first.
func (c *Client) TweetLog(ctx context.Context) ([]TweetEntry, error) {
	var out struct {
		Tweets []TweetEntry `json:"tweets"`
	}
	if err := c.do(ctx, http.MethodGet, "/tweets", nil, &out); err != nil {
		return nil, err
	}
	return out.Tweets, nil
}

// LogTweet appends a posted tweet to the tweet log.
func (c *Client) LogTweet(ctx context.Context, text string) error {
	body := map[string]any{
		"text": text,
	}
	return c.do(ctx, http.MethodPost, "/tweets", body, nil)
}

// RepliedIDs returns the ids of mentions that have already been replied to.
func (c *Client) RepliedIDs(ctx context.Context) ([]string, error) {
	var out struct {
		IDs []string `json:"ids"`
	}
	if err := c.do(ctx, http.MethodGet, "/replies", nil, &out); err != nil {
		return nil, err
	}
	return out.IDs, nil
}

// LogReply records that the mention with the given id has been replied to.
func (c *Client) LogReply(ctx context.Context, id string) error {
	body := map[string]any{
		"id": id,
	}
	return c.do(ctx, http.MethodPost, "/replies", body, nil)
}

// CreateBounty creates a new bounty record. The backend reports refusals
// (duplicate titles, malformed amounts) in the response body rather than via
// HTTP status.
func (c *Client) CreateBounty(ctx context.Context, title, description, amount string) error {
	body := map[string]any{
		"title":       title,
		"description": description,
		"amount":      amount,
	}
	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := c.do(ctx, http.MethodPost, "/bounties", body, &out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("backend rejected bounty: %s", out.Error)
	}
	return nil
}

// DeleteBounty removes a bounty by id and returns the deleted record.
func (c *Client) DeleteBounty(ctx context.Context, id int64) (Bounty, error) {
	var out Bounty
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/bounties/%d", id), nil, &out); err != nil {
		return Bounty{}, err
	}
	return out, nil
}

// Bounties lists all bounty records, active and completed.
func (c *Client) Bounties(ctx context.Context) ([]Bounty, error) {
	var out struct {
		Bounties []Bounty `json:"bounties"`
	}
	if err := c.do(ctx, http.MethodGet, "/bounties", nil, &out); err != nil {
		return nil, err
	}
	return out.Bounties, nil
}
