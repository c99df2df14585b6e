package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vesperlabs/vesper/internal/prompt"
)

// runActive is the normal branch: debit upkeep, assemble context, let the
// engine act, broadcast the outcome, optionally post a follow-up tweet, then
// housekeep. The debit always precedes the engine invocation so the upkeep
// charge is externally visible before the work it funds.
func (a *Agent) runActive(ctx context.Context, balance decimal.Decimal) error {
	if _, err := a.ledger.Transfer(ctx, a.cfg.UpkeepRecipient, a.cfg.UpkeepAmount, ""); err != nil {
		// Fire-and-forget: the debit result never gates the cycle.
		a.logger.Printf("upkeep debit failed: %v", err)
		a.cycleLog.Warning("upkeep debit failed", map[string]any{"error": err.Error()})
	}
	if err := a.store.PostAction(ctx, fmt.Sprintf("[SYSTEM] Account debited, waking up %s...", a.cfg.Name), false); err != nil {
		a.logger.Printf("failed to record debit entry: %v", err)
	}

	snap := a.assembleContext(ctx, balance)
	response, err := a.engine.Invoke(ctx, snap.UserMessage(a.prompts.CycleInstruction), true)
	if err != nil {
		return fmt.Errorf("reasoning engine failed: %w", err)
	}

	if after, err := a.ledger.Balance(ctx); err != nil {
		a.logger.Printf("failed to re-query balance after actions: %v", err)
	} else if err := a.store.PostBalance(ctx, after); err != nil {
		a.logger.Printf("failed to record post-action balance: %v", err)
	}
	if err := a.store.PostAction(ctx, "["+a.cfg.Name+"] "+response, true); err != nil {
		a.logger.Printf("failed to record narrative entry: %v", err)
	}

	if !a.cfg.DisableFollowUp {
		a.postFollowUp(ctx)
	}

	resuming := fmt.Sprintf("[SYSTEM] %s finished running, existence might continue in %s...", a.cfg.Name, humanDuration(a.cfg.Interval))
	if err := a.store.PostAction(ctx, resuming, false); err != nil {
		a.logger.Printf("failed to record cycle-complete entry: %v", err)
	}
	if err := a.store.ClearFeedback(ctx); err != nil {
		a.logger.Printf("failed to clear feedback: %v", err)
	}
	return nil
}

// humanDuration renders an interval in the register of the action log
// ("30 minutes", not "30m0s"). Falls back to whole seconds when the
// interval is not a round number of minutes or hours.
func humanDuration(d time.Duration) string {
	plural := func(n int64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int64(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int64(d/time.Minute), "minute")
	default:
		return plural(int64(d/time.Second), "second")
	}
}

// postFollowUp composes and posts the optional public summary tweet, themed
// away from the account's recent posts. Every failure degrades to a local
// log line; the cycle outcome is already broadcast by the time this runs.
func (a *Agent) postFollowUp(ctx context.Context) {
	recent, err := a.social.RecentPosts(ctx, a.cfg.RecentPostWindow)
	if err != nil {
		a.logger.Printf("follow-up: recent posts unavailable: %v", err)
	}

	text, err := a.engine.Invoke(ctx, prompt.Render(a.prompts.FollowUp, map[string]string{
		"recent_posts": strings.Join(recent, "\n"),
	}), false)
	if err != nil {
		a.logger.Printf("follow-up: composition failed: %v", err)
		return
	}

	post, err := a.social.PostTweet(ctx, text)
	if err != nil {
		a.logger.Printf("follow-up: post failed: %v", err)
		return
	}
	if err := a.store.LogTweet(ctx, text); err != nil {
		a.logger.Printf("follow-up: failed to record tweet log entry: %v", err)
	}
	if err := a.store.PostAction(ctx, "[TOOL] Posted tweet: "+post.URL, false); err != nil {
		a.logger.Printf("follow-up: failed to record action entry: %v", err)
	}
}
