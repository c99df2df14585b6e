// Package social provides the Twitter/X client used for the agent's public
// posts, replies, timeline reads, and mention fetches. Requests are signed
// with OAuth 1.0a user credentials and hit the v2 REST API directly.
package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/dghubble/oauth1"
)

// DefaultBaseURL is the Twitter v2 API root.
const DefaultBaseURL = "https://api.twitter.com/2"

// MaxPostLength is the platform per-post character limit. Oversized text is
// rejected at this boundary rather than truncated silently.
const MaxPostLength = 280

// Credentials holds the OAuth 1.0a user-context credentials plus the
// account's numeric id and handle.
type Credentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
	UserID       string
	Username     string
}

// Client posts to and reads from a single Twitter account.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userID     string
	username   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client, bypassing OAuth signing (useful
// for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom API root (useful for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// NewClient creates a Twitter client with OAuth 1.0a request signing.
func NewClient(creds Credentials, opts ...Option) *Client {
	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	hc := config.Client(oauth1.NoContext, token)
	hc.Timeout = 30 * time.Second

	c := &Client{
		httpClient: hc,
		baseURL:    DefaultBaseURL,
		userID:     creds.UserID,
		username:   creds.Username,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Post is one published tweet.
type Post struct {
	ID   string
	Text string
	URL  string
}

// Mention is one tweet mentioning the agent's account.
type Mention struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// PostTweet publishes a tweet. Text over the platform limit is rejected
// before any request is made.
func (c *Client) PostTweet(ctx context.Context, text string) (Post, error) {
	return c.publish(ctx, map[string]any{"text": text})
}

// PostReply publishes a reply bound to the given parent tweet id.
func (c *Client) PostReply(ctx context.Context, text, parentID string) (Post, error) {
	if parentID == "" {
		return Post{}, fmt.Errorf("reply parent id is empty")
	}
	return c.publish(ctx, map[string]any{
		"text": text,
		"reply": map[string]any{
			"in_reply_to_tweet_id": parentID,
		},
	})
}

func (c *Client) publish(ctx context.Context, body map[string]any) (Post, error) {
	text, _ := body["text"].(string)
	if text == "" {
		return Post{}, fmt.Errorf("tweet text is empty")
	}
	if n := utf8.RuneCountInString(text); n > MaxPostLength {
		return Post{}, fmt.Errorf("tweet text is %d characters, limit is %d", n, MaxPostLength)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return Post{}, fmt.Errorf("failed to encode tweet: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tweets", bytes.NewReader(data))
	if err != nil {
		return Post{}, fmt.Errorf("failed to create tweet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Post{}, fmt.Errorf("tweet request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Post{}, fmt.Errorf("tweet returned status %d: %s", resp.StatusCode, string(detail))
	}

	var out struct {
		Data struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Post{}, fmt.Errorf("failed to decode tweet response: %w", err)
	}
	if out.Data.ID == "" {
		return Post{}, fmt.Errorf("tweet response carried no id")
	}

	return Post{
		ID:   out.Data.ID,
		Text: out.Data.Text,
		URL:  fmt.Sprintf("https://x.com/%s/status/%s", c.username, out.Data.ID),
	}, nil
}

// RecentPosts returns the text of the account's most recent original tweets,
// most recent first. Replies are excluded. The platform bounds page sizes to
// [5, 100]; n is clamped accordingly.
func (c *Client) RecentPosts(ctx context.Context, n int) ([]string, error) {
	if n < 5 {
		n = 5
	}
	if n > 100 {
		n = 100
	}
	u := fmt.Sprintf("%s/users/%s/tweets?max_results=%d&exclude=replies", c.baseURL, c.userID, n)

	var out struct {
		Data []struct {
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := c.get(ctx, u, &out); err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(out.Data))
	for _, t := range out.Data {
		texts = append(texts, t.Text)
	}
	return texts, nil
}

// Mentions returns recent tweets mentioning the account.
func (c *Client) Mentions(ctx context.Context) ([]Mention, error) {
	u := fmt.Sprintf("%s/users/%s/mentions", c.baseURL, c.userID)

	var out struct {
		Data []Mention `json:"data"`
	}
	if err := c.get(ctx, u, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("timeline request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("timeline returned status %d: %s", resp.StatusCode, string(detail))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode timeline response: %w", err)
	}
	return nil
}
