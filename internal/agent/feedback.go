package agent

import (
	"context"
	"time"
)

// runFeedback solicits audience feedback at most once per FeedbackInterval.
// The gate is derived from the tweet log on every invocation rather than
// from a cached cursor, so a crash between invocations cannot widen or
// narrow the window.
func (a *Agent) runFeedback(ctx context.Context) {
	entries, err := a.store.TweetLog(ctx)
	if err != nil {
		a.logger.Printf("feedback: tweet log unavailable, skipping: %v", err)
		return
	}

	var latest time.Time
	for _, e := range entries {
		if e.Datetime.After(latest) {
			latest = e.Datetime
		}
	}
	if !latest.IsZero() && time.Since(latest) < a.cfg.FeedbackInterval {
		return
	}

	text, err := a.engine.Invoke(ctx, a.prompts.Feedback, false)
	if err != nil {
		a.logger.Printf("feedback: composition failed: %v", err)
		return
	}

	post, err := a.social.PostTweet(ctx, text)
	if err != nil {
		a.logger.Printf("feedback: post failed: %v", err)
		return
	}
	if err := a.store.LogTweet(ctx, text); err != nil {
		a.logger.Printf("feedback: failed to record tweet log entry: %v", err)
	}
	if err := a.store.PostAction(ctx, "[TOOL] Posted tweet: "+post.URL, false); err != nil {
		a.logger.Printf("feedback: failed to record action entry: %v", err)
	}
}
