package agent

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vesperlabs/vesper/internal/ledger"
	"github.com/vesperlabs/vesper/internal/social"
	"github.com/vesperlabs/vesper/internal/store"
)

// Fakes shared by the agent tests. Every fake records calls in order so the
// tests can assert sequencing, not just counts.

type transferCall struct {
	recipient string
	amount    decimal.Decimal
	mint      string
}

type fakeLedger struct {
	address     string
	balances    []decimal.Decimal
	balanceErr  error
	tokens      []ledger.TokenBalance
	tokensErr   error
	transfers   []transferCall
	transferErr error
}

func (f *fakeLedger) Address() string { return f.address }

func (f *fakeLedger) Balance(ctx context.Context) (decimal.Decimal, error) {
	if f.balanceErr != nil {
		return decimal.Zero, f.balanceErr
	}
	if len(f.balances) == 0 {
		return decimal.Zero, nil
	}
	b := f.balances[0]
	if len(f.balances) > 1 {
		f.balances = f.balances[1:]
	}
	return b, nil
}

func (f *fakeLedger) TokenBalances(ctx context.Context) ([]ledger.TokenBalance, error) {
	return f.tokens, f.tokensErr
}

func (f *fakeLedger) Transfer(ctx context.Context, recipient string, amount decimal.Decimal, mint string) (ledger.TransferReceipt, error) {
	f.transfers = append(f.transfers, transferCall{recipient, amount, mint})
	if f.transferErr != nil {
		return ledger.TransferReceipt{}, f.transferErr
	}
	return ledger.TransferReceipt{Amount: amount, Recipient: recipient, Signature: "sig"}, nil
}

type replyCall struct {
	text     string
	parentID string
}

type fakeSocial struct {
	posts      []string
	postErr    error
	replies    []replyCall
	replyErrs  map[string]error
	recent     []string
	recentErr  error
	mentions   []social.Mention
	mentionErr error
}

func (f *fakeSocial) PostTweet(ctx context.Context, text string) (social.Post, error) {
	if f.postErr != nil {
		return social.Post{}, f.postErr
	}
	f.posts = append(f.posts, text)
	return social.Post{ID: "42", Text: text, URL: "https://x.com/vesper/status/42"}, nil
}

func (f *fakeSocial) PostReply(ctx context.Context, text, parentID string) (social.Post, error) {
	if err := f.replyErrs[parentID]; err != nil {
		return social.Post{}, err
	}
	f.replies = append(f.replies, replyCall{text, parentID})
	return social.Post{ID: "43", Text: text}, nil
}

func (f *fakeSocial) RecentPosts(ctx context.Context, n int) ([]string, error) {
	return f.recent, f.recentErr
}

func (f *fakeSocial) Mentions(ctx context.Context) ([]social.Mention, error) {
	return f.mentions, f.mentionErr
}

type actionEntry struct {
	text        string
	highlighted bool
}

type fakeStore struct {
	memory      string
	feedback    string
	actions     []actionEntry
	balances    []string
	cleared     int
	tweetLog    []store.TweetEntry
	tweetLogErr error
	logged      []string
	replied     []string
	repliedErr  error
	logReplies  []string
	bounties    []store.Bounty
	actionErr   error
}

func (f *fakeStore) Memory(ctx context.Context) (string, error)   { return f.memory, nil }
func (f *fakeStore) Feedback(ctx context.Context) (string, error) { return f.feedback, nil }

func (f *fakeStore) ClearFeedback(ctx context.Context) error {
	f.cleared++
	return nil
}

func (f *fakeStore) PostAction(ctx context.Context, text string, highlighted bool) error {
	if f.actionErr != nil {
		return f.actionErr
	}
	f.actions = append(f.actions, actionEntry{text, highlighted})
	return nil
}

func (f *fakeStore) PostBalance(ctx context.Context, amount decimal.Decimal) error {
	f.balances = append(f.balances, amount.String())
	return nil
}

func (f *fakeStore) TweetLog(ctx context.Context) ([]store.TweetEntry, error) {
	return f.tweetLog, f.tweetLogErr
}

func (f *fakeStore) LogTweet(ctx context.Context, text string) error {
	f.logged = append(f.logged, text)
	return nil
}

func (f *fakeStore) RepliedIDs(ctx context.Context) ([]string, error) {
	return f.replied, f.repliedErr
}

func (f *fakeStore) LogReply(ctx context.Context, id string) error {
	f.logReplies = append(f.logReplies, id)
	return nil
}

func (f *fakeStore) Bounties(ctx context.Context) ([]store.Bounty, error) {
	return f.bounties, nil
}

type invocation struct {
	prompt       string
	toolsEnabled bool
}

type fakeEngine struct {
	invocations []invocation
	responses   []string
	err         error
}

func (f *fakeEngine) Invoke(ctx context.Context, prompt string, toolsEnabled bool) (string, error) {
	f.invocations = append(f.invocations, invocation{prompt, toolsEnabled})
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "done", nil
	}
	r := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return r, nil
}

type fixture struct {
	ledger *fakeLedger
	social *fakeSocial
	store  *fakeStore
	engine *fakeEngine
	agent  *Agent
}

func newFixture(t *testing.T, mutate func(*Params)) *fixture {
	t.Helper()

	f := &fixture{
		ledger: &fakeLedger{
			address:  "VesperWallet111",
			balances: []decimal.Decimal{decimal.RequireFromString("1.5")},
		},
		social: &fakeSocial{replyErrs: map[string]error{}},
		store: &fakeStore{
			memory:   "day one",
			feedback: "do a trade",
			// Recent entry keeps the feedback subcycle gated off unless a
			// test overrides it.
			tweetLog: []store.TweetEntry{{Text: "gm", Datetime: time.Now()}},
		},
		engine: &fakeEngine{},
	}

	p := Params{
		Config: Config{
			Name:            "Vesper",
			UpkeepRecipient: "Treasury111",
			Interval:        time.Minute,
			DisableFollowUp: true,
		},
		Ledger: f.ledger,
		Social: f.social,
		Store:  f.store,
		Engine: f.engine,
		Logger: log.New(io.Discard, "", 0),
	}
	if mutate != nil {
		mutate(&p)
	}

	a, err := New(p)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	f.agent = a
	return f
}

func (f *fixture) actionTexts() []string {
	texts := make([]string, len(f.store.actions))
	for i, a := range f.store.actions {
		texts[i] = a.text
	}
	return texts
}

func testBounties() []store.Bounty {
	return []store.Bounty{
		{ID: 1, Title: "fix my website", Description: "the header is broken", Amount: "0.2", Status: "active"},
		{ID: 2, Title: "design a logo", Description: "done already", Amount: "0.1", Status: "completed", CompletedBy: "alice"},
	}
}

func TestNew_Validation(t *testing.T) {
	base := func() Params {
		return Params{
			Config: Config{UpkeepRecipient: "Treasury111"},
			Ledger: &fakeLedger{},
			Social: &fakeSocial{},
			Store:  &fakeStore{},
			Engine: &fakeEngine{},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Params)
		errMsg string
	}{
		{"missing ledger", func(p *Params) { p.Ledger = nil }, "ledger is required"},
		{"missing social", func(p *Params) { p.Social = nil }, "social client is required"},
		{"missing store", func(p *Params) { p.Store = nil }, "store client is required"},
		{"missing engine", func(p *Params) { p.Engine = nil }, "engine is required"},
		{"missing recipient", func(p *Params) { p.Config.UpkeepRecipient = "" }, "upkeep recipient is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base()
			tt.mutate(&p)
			_, err := New(p)
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("New() error = %v, want containing %q", err, tt.errMsg)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	a, err := New(Params{
		Config: Config{UpkeepRecipient: "Treasury111"},
		Ledger: &fakeLedger{},
		Social: &fakeSocial{},
		Store:  &fakeStore{},
		Engine: &fakeEngine{},
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	if a.cfg.Name != "Vesper" {
		t.Errorf("Name = %q, want Vesper", a.cfg.Name)
	}
	if a.cfg.Interval != DefaultInterval {
		t.Errorf("Interval = %v, want %v", a.cfg.Interval, DefaultInterval)
	}
	if !a.cfg.SurvivalThreshold.Equal(DefaultSurvivalThreshold) {
		t.Errorf("SurvivalThreshold = %s, want %s", a.cfg.SurvivalThreshold, DefaultSurvivalThreshold)
	}
	if !a.cfg.UpkeepAmount.Equal(DefaultUpkeepAmount) {
		t.Errorf("UpkeepAmount = %s, want %s", a.cfg.UpkeepAmount, DefaultUpkeepAmount)
	}
	if a.cfg.FeedbackInterval != DefaultFeedbackInterval {
		t.Errorf("FeedbackInterval = %v, want %v", a.cfg.FeedbackInterval, DefaultFeedbackInterval)
	}
	if a.prompts.LastWords == "" {
		t.Error("prompts should fall back to defaults")
	}
}

func TestBelowThreshold(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		balance string
		want    bool
	}{
		{"0.004999999", true},
		{"0.005", false}, // boundary is survival, not death
		{"0.0050001", false},
		{"0", true},
		{"-0.001", true},
		{"1.5", false},
	}

	for _, tt := range tests {
		got := f.agent.belowThreshold(decimal.RequireFromString(tt.balance))
		if got != tt.want {
			t.Errorf("belowThreshold(%s) = %v, want %v", tt.balance, got, tt.want)
		}
	}
}
