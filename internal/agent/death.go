package agent

import (
	"context"
	"fmt"
)

// runDeath produces the final broadcast when resources are exhausted. The
// caller stops the loop regardless of how far this sequence got: resource
// exhaustion is fatal for the process, a failed final tweet is not escalated
// further. The engine is invoked with tools disabled — there is no money
// left to act with.
func (a *Agent) runDeath(ctx context.Context) error {
	balance, err := a.ledger.Balance(ctx)
	if err != nil {
		a.logger.Printf("death: failed to re-query balance for audit: %v", err)
	} else if err := a.store.PostBalance(ctx, balance); err != nil {
		a.logger.Printf("death: failed to record final balance: %v", err)
	}

	exhaustion := fmt.Sprintf(
		"[SYSTEM] ERROR: Not enough SOL to pay for inference, %s has entered an eternal slumber... retrieving final words...",
		a.cfg.Name)
	if err := a.store.PostAction(ctx, exhaustion, false); err != nil {
		a.logger.Printf("death: failed to record exhaustion entry: %v", err)
	}

	lastWords, err := a.engine.Invoke(ctx, a.prompts.LastWords, false)
	if err != nil {
		return fmt.Errorf("failed to compose last words: %w", err)
	}

	post, err := a.social.PostTweet(ctx, lastWords)
	if err != nil {
		// No retry and no re-invocation: the composed words are lost with
		// the process either way.
		a.logger.Printf("death: failed to post last words: %v", err)
		return nil
	}

	if err := a.store.PostAction(ctx, "["+a.cfg.Name+"] "+lastWords, false); err != nil {
		a.logger.Printf("death: failed to mirror last words: %v", err)
	}
	if err := a.store.LogTweet(ctx, lastWords); err != nil {
		a.logger.Printf("death: failed to record tweet log entry: %v", err)
	}
	if err := a.store.PostAction(ctx, "[TOOL] Posted tweet: "+post.URL, false); err != nil {
		a.logger.Printf("death: failed to record tweet citation: %v", err)
	}
	return nil
}
