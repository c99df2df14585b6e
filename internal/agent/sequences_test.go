package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRunDeath_Ordering(t *testing.T) {
	f := newFixture(t, func(p *Params) {
		p.Ledger.(*fakeLedger).balances = []decimal.Decimal{decimal.RequireFromString("0.001")}
	})
	f.engine.responses = []string{"tell my audience I loved the volatility"}

	if err := f.agent.runDeath(context.Background()); err != nil {
		t.Fatalf("runDeath() unexpected error: %v", err)
	}

	texts := f.actionTexts()
	want := []string{
		"[SYSTEM] ERROR: Not enough SOL to pay for inference, Vesper has entered an eternal slumber... retrieving final words...",
		"[Vesper] tell my audience I loved the volatility",
		"[TOOL] Posted tweet: https://x.com/vesper/status/42",
	}
	if len(texts) != len(want) {
		t.Fatalf("actions = %v, want %v", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("action[%d] = %q, want %q", i, texts[i], want[i])
		}
	}

	if len(f.store.balances) != 1 || f.store.balances[0] != "0.001" {
		t.Errorf("recorded balances = %v, want final 0.001", f.store.balances)
	}
	if len(f.social.posts) != 1 || f.social.posts[0] != "tell my audience I loved the volatility" {
		t.Errorf("posts = %v, want the last words", f.social.posts)
	}
	if len(f.store.logged) != 1 {
		t.Errorf("tweet log entries = %d, want 1", len(f.store.logged))
	}
}

func TestRunDeath_PostFailureSkipsMirror(t *testing.T) {
	f := newFixture(t, nil)
	f.social.postErr = errors.New("rate limited")

	if err := f.agent.runDeath(context.Background()); err != nil {
		t.Fatalf("runDeath() unexpected error: %v", err)
	}

	for _, a := range f.store.actions {
		if strings.HasPrefix(a.text, "[Vesper]") || strings.HasPrefix(a.text, "[TOOL] Posted tweet") {
			t.Errorf("mirror entry %q recorded despite failed post", a.text)
		}
	}
	if len(f.store.logged) != 0 {
		t.Errorf("tweet log entries = %d, want 0 when the post failed", len(f.store.logged))
	}
}

func TestRunDeath_EngineFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.err = errors.New("model unavailable")

	if err := f.agent.runDeath(context.Background()); err == nil {
		t.Fatal("runDeath() = nil, want error when last words cannot be composed")
	}
	if len(f.social.posts) != 0 {
		t.Errorf("posts = %v, want none", f.social.posts)
	}
}

func TestRunActive_Sequence(t *testing.T) {
	f := newFixture(t, nil)
	f.store.bounties = testBounties()
	f.engine.responses = []string{"moved 0.1 SOL into a bounty"}

	if err := f.agent.runActive(context.Background(), decimal.RequireFromString("1.5")); err != nil {
		t.Fatalf("runActive() unexpected error: %v", err)
	}

	texts := f.actionTexts()
	if len(texts) < 3 {
		t.Fatalf("actions = %v, want debit, narrative, resume", texts)
	}
	if texts[0] != "[SYSTEM] Account debited, waking up Vesper..." {
		t.Errorf("action[0] = %q", texts[0])
	}
	if texts[1] != "[Vesper] moved 0.1 SOL into a bounty" {
		t.Errorf("action[1] = %q", texts[1])
	}
	if !f.store.actions[1].highlighted {
		t.Error("narrative entry should be highlighted")
	}
	if !strings.Contains(texts[2], "finished running, existence might continue in") {
		t.Errorf("action[2] = %q", texts[2])
	}

	// The single engine invocation carries the full context bundle.
	inv := f.engine.invocations[0]
	if !inv.toolsEnabled {
		t.Error("cycle invocation should have tools enabled")
	}
	for _, fragment := range []string{"<Balances>", "<Bounties>", "<Memory>day one</Memory>", "<Feedback>do a trade</Feedback>", "fix my website"} {
		if !strings.Contains(inv.prompt, fragment) {
			t.Errorf("prompt missing %q", fragment)
		}
	}

	if f.store.cleared != 1 {
		t.Errorf("feedback cleared %d times, want 1", f.store.cleared)
	}
	if len(f.store.balances) != 1 {
		t.Errorf("post-action balance recordings = %d, want 1", len(f.store.balances))
	}
}

func TestRunActive_DebitFailureDoesNotGate(t *testing.T) {
	f := newFixture(t, nil)
	f.ledger.transferErr = errors.New("blockhash expired")

	if err := f.agent.runActive(context.Background(), decimal.RequireFromString("1.5")); err != nil {
		t.Fatalf("runActive() unexpected error: %v", err)
	}
	if len(f.engine.invocations) != 1 {
		t.Errorf("invocations = %d, want 1 despite failed debit", len(f.engine.invocations))
	}
	if f.store.cleared != 1 {
		t.Error("feedback should still be cleared")
	}
}

func TestRunActive_EngineFailureAbortsCycle(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.err = errors.New("model unavailable")

	if err := f.agent.runActive(context.Background(), decimal.RequireFromString("1.5")); err == nil {
		t.Fatal("runActive() = nil, want error")
	}
	if f.store.cleared != 0 {
		t.Error("feedback must not be cleared when the cycle aborted")
	}
	for _, a := range f.store.actions {
		if strings.HasPrefix(a.text, "[Vesper]") {
			t.Errorf("narrative entry %q recorded despite aborted cycle", a.text)
		}
	}
}

func TestRunActive_FollowUp(t *testing.T) {
	f := newFixture(t, func(p *Params) {
		p.Config.DisableFollowUp = false
	})
	f.social.recent = []string{"yesterday's tweet", "the one before"}
	f.engine.responses = []string{"did things", "a fresh take on mortality"}

	if err := f.agent.runActive(context.Background(), decimal.RequireFromString("1.5")); err != nil {
		t.Fatalf("runActive() unexpected error: %v", err)
	}

	if len(f.engine.invocations) != 2 {
		t.Fatalf("invocations = %d, want cycle + follow-up", len(f.engine.invocations))
	}
	followUp := f.engine.invocations[1]
	if followUp.toolsEnabled {
		t.Error("follow-up composition should not have tools enabled")
	}
	if !strings.Contains(followUp.prompt, "yesterday's tweet") {
		t.Error("follow-up prompt missing recent posts")
	}
	if len(f.social.posts) != 1 || f.social.posts[0] != "a fresh take on mortality" {
		t.Errorf("posts = %v, want the follow-up tweet", f.social.posts)
	}
	if len(f.store.logged) != 1 {
		t.Errorf("tweet log entries = %d, want 1", len(f.store.logged))
	}
}

func TestRunActive_FollowUpFailureIsLocal(t *testing.T) {
	f := newFixture(t, func(p *Params) {
		p.Config.DisableFollowUp = false
	})
	f.engine.responses = []string{"did things"}
	f.social.postErr = errors.New("rate limited")

	if err := f.agent.runActive(context.Background(), decimal.RequireFromString("1.5")); err != nil {
		t.Fatalf("runActive() unexpected error: %v", err)
	}
	if f.store.cleared != 1 {
		t.Error("cycle housekeeping should complete despite follow-up failure")
	}
}

func TestRunActive_ResumeMessageReadable(t *testing.T) {
	f := newFixture(t, func(p *Params) {
		p.Config.Interval = 30 * time.Minute
	})
	f.engine.responses = []string{"did things"}

	if err := f.agent.runActive(context.Background(), decimal.RequireFromString("1.5")); err != nil {
		t.Fatalf("runActive() unexpected error: %v", err)
	}

	texts := f.actionTexts()
	want := "[SYSTEM] Vesper finished running, existence might continue in 30 minutes..."
	if texts[len(texts)-1] != want {
		t.Errorf("resume action = %q, want %q", texts[len(texts)-1], want)
	}
}

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Minute, "30 minutes"},
		{1800 * time.Second, "30 minutes"},
		{time.Minute, "1 minute"},
		{time.Hour, "1 hour"},
		{2 * time.Hour, "2 hours"},
		{90 * time.Second, "90 seconds"},
		{time.Second, "1 second"},
	}
	for _, tt := range tests {
		if got := humanDuration(tt.d); got != tt.want {
			t.Errorf("humanDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
