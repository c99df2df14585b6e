package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

type capturedRequest struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

func newTestServer(t *testing.T, status int, response string) (*Client, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := capturedRequest{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req.body)
		}
		captured = append(captured, req)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return NewClient("test-key", WithBaseURL(srv.URL)), &captured
}

func TestMemoryAndFeedback(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK, `{"memory":"day 12","feedback":"do a trade"}`)

	memory, err := c.Memory(context.Background())
	if err != nil {
		t.Fatalf("Memory() unexpected error: %v", err)
	}
	if memory != "day 12" {
		t.Errorf("Memory() = %q", memory)
	}

	feedback, err := c.Feedback(context.Background())
	if err != nil {
		t.Fatalf("Feedback() unexpected error: %v", err)
	}
	if feedback != "do a trade" {
		t.Errorf("Feedback() = %q", feedback)
	}

	if (*reqs)[0].auth != "Bearer test-key" {
		t.Errorf("auth header = %q", (*reqs)[0].auth)
	}
	if (*reqs)[0].path != "/memory" || (*reqs)[1].path != "/feedback" {
		t.Errorf("paths = %q, %q", (*reqs)[0].path, (*reqs)[1].path)
	}
}

func TestPostAction(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK, `{}`)

	if err := c.PostAction(context.Background(), "[SYSTEM] Checking balance...", true); err != nil {
		t.Fatalf("PostAction() unexpected error: %v", err)
	}

	req := (*reqs)[0]
	if req.method != http.MethodPost || req.path != "/actions" {
		t.Errorf("request = %s %s", req.method, req.path)
	}
	if req.body["text"] != "[SYSTEM] Checking balance..." {
		t.Errorf("body text = %v", req.body["text"])
	}
	if req.body["highlighted"] != true {
		t.Errorf("body highlighted = %v", req.body["highlighted"])
	}
}

func TestPostBalance(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK, `{}`)

	amount := decimal.RequireFromString("1.2345")
	if err := c.PostBalance(context.Background(), amount); err != nil {
		t.Fatalf("PostBalance() unexpected error: %v", err)
	}
	if (*reqs)[0].body["amount"] != "1.2345" {
		t.Errorf("body amount = %v, want decimal string", (*reqs)[0].body["amount"])
	}
}

func TestTweetAndReplyLogs(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK,
		`{"tweets":[{"text":"gm","datetime":"2026-08-29T12:00:00Z"}],"ids":["1","2"]}`)

	tweets, err := c.TweetLog(context.Background())
	if err != nil {
		t.Fatalf("TweetLog() unexpected error: %v", err)
	}
	if len(tweets) != 1 || tweets[0].Text != "gm" || tweets[0].Datetime.IsZero() {
		t.Errorf("TweetLog() = %+v", tweets)
	}

	if err := c.LogTweet(context.Background(), "gn"); err != nil {
		t.Fatalf("LogTweet() unexpected error: %v", err)
	}

	ids, err := c.RepliedIDs(context.Background())
	if err != nil {
		t.Fatalf("RepliedIDs() unexpected error: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("RepliedIDs() = %v", ids)
	}

	if err := c.LogReply(context.Background(), "77"); err != nil {
		t.Fatalf("LogReply() unexpected error: %v", err)
	}

	last := (*reqs)[3]
	if last.method != http.MethodPost || last.path != "/replies" || last.body["id"] != "77" {
		t.Errorf("LogReply request = %+v", last)
	}
}

func TestCreateBounty_BodyLevelRefusal(t *testing.T) {
	c, _ := newTestServer(t, http.StatusOK, `{"success":false,"error":"duplicate title"}`)

	err := c.CreateBounty(context.Background(), "t", "d", "0.5 SOL")
	if err == nil || !strings.Contains(err.Error(), "duplicate title") {
		t.Errorf("CreateBounty() error = %v, want body-level refusal", err)
	}
}

func TestCreateBounty_Success(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK, `{"success":true}`)

	if err := c.CreateBounty(context.Background(), "t", "d", "0.5 SOL"); err != nil {
		t.Fatalf("CreateBounty() unexpected error: %v", err)
	}
	body := (*reqs)[0].body
	if body["title"] != "t" || body["description"] != "d" || body["amount"] != "0.5 SOL" {
		t.Errorf("body = %v", body)
	}
}

func TestDeleteBounty(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK, `{"id":5,"title":"old","status":"active"}`)

	bounty, err := c.DeleteBounty(context.Background(), 5)
	if err != nil {
		t.Fatalf("DeleteBounty() unexpected error: %v", err)
	}
	if bounty.Title != "old" {
		t.Errorf("DeleteBounty() = %+v", bounty)
	}
	if (*reqs)[0].method != http.MethodDelete || (*reqs)[0].path != "/bounties/5" {
		t.Errorf("request = %s %s", (*reqs)[0].method, (*reqs)[0].path)
	}
}

func TestBounties(t *testing.T) {
	c, _ := newTestServer(t, http.StatusOK,
		`{"bounties":[{"id":1,"title":"a","status":"active"},{"id":2,"title":"b","status":"completed"}]}`)

	bounties, err := c.Bounties(context.Background())
	if err != nil {
		t.Fatalf("Bounties() unexpected error: %v", err)
	}
	if len(bounties) != 2 {
		t.Fatalf("Bounties() = %+v", bounties)
	}
	if !bounties[0].Active() || bounties[1].Active() {
		t.Errorf("Active() projection wrong: %+v", bounties)
	}
}

func TestErrorStatusSurfaced(t *testing.T) {
	c, _ := newTestServer(t, http.StatusInternalServerError, `backend exploded`)

	_, err := c.Memory(context.Background())
	if err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Errorf("Memory() error = %v, want status error", err)
	}
	if !strings.Contains(err.Error(), "backend exploded") {
		t.Errorf("error should carry the response body, got %v", err)
	}
}

func TestClearFeedback(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusNoContent, ``)

	if err := c.ClearFeedback(context.Background()); err != nil {
		t.Fatalf("ClearFeedback() unexpected error: %v", err)
	}
	if (*reqs)[0].method != http.MethodPost || (*reqs)[0].path != "/feedback/clear" {
		t.Errorf("request = %s %s", (*reqs)[0].method, (*reqs)[0].path)
	}
}
