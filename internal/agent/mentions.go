package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/vesperlabs/vesper/internal/prompt"
	"github.com/vesperlabs/vesper/internal/social"
)

// tickerPattern matches cryptocurrency ticker markers like $BONK. Mentions
// carrying one are never replied to; engaging with shill threads is how
// agent accounts get farmed.
var tickerPattern = regexp.MustCompile(`\$[A-Za-z]{2,10}\b`)

// replyItem is one composed reply bound to one source mention id.
type replyItem struct {
	Text string `json:"text"`
	ID   string `json:"id"`
}

// runMentions replies to mentions the agent has not answered yet. A mention
// id is replied to at most once across the store's lifetime: the reply-log
// filter here plus the per-reply log write below jointly enforce it. A crash
// between post and log write can duplicate one reply on the next run; that
// is an accepted at-least-once window, not a bug to paper over with local
// state.
func (a *Agent) runMentions(ctx context.Context) {
	mentions, err := a.social.Mentions(ctx)
	if err != nil {
		a.logger.Printf("mentions: fetch failed, skipping: %v", err)
		return
	}
	replied, err := a.store.RepliedIDs(ctx)
	if err != nil {
		a.logger.Printf("mentions: reply log unavailable, skipping: %v", err)
		return
	}

	eligible := filterMentions(mentions, replied)
	if len(eligible) == 0 {
		return
	}

	payload, err := json.Marshal(eligible)
	if err != nil {
		a.logger.Printf("mentions: failed to encode mention list: %v", err)
		return
	}
	out, err := a.engine.Invoke(ctx, prompt.Render(a.prompts.MentionReply, map[string]string{
		"mentions": string(payload),
	}), false)
	if err != nil {
		a.logger.Printf("mentions: composition failed: %v", err)
		return
	}

	replies, err := parseReplies(out)
	if err != nil {
		// Malformed engine output aborts the whole subcycle; posting a
		// best-effort subset of a garbled batch is worse than waiting for
		// the next cycle.
		a.logger.Printf("mentions: malformed reply batch, aborting: %v", err)
		return
	}

	allowed := make(map[string]bool, len(eligible))
	for _, m := range eligible {
		allowed[m.ID] = true
	}

	for _, r := range replies {
		if !allowed[r.ID] {
			a.logger.Printf("mentions: dropping reply to unknown or ineligible id %s", r.ID)
			continue
		}
		if _, err := a.social.PostReply(ctx, r.Text, r.ID); err != nil {
			// Each reply is independent; keep going.
			a.logger.Printf("mentions: reply to %s failed: %v", r.ID, err)
			continue
		}
		if err := a.store.LogReply(ctx, r.ID); err != nil {
			a.logger.Printf("mentions: failed to record reply log entry for %s: %v", r.ID, err)
		}
		if err := a.store.PostAction(ctx, "[TOOL] Replied to mention "+r.ID, false); err != nil {
			a.logger.Printf("mentions: failed to record action entry for %s: %v", r.ID, err)
		}
	}
}

// filterMentions drops mentions already replied to and mentions carrying
// ticker markers.
func filterMentions(mentions []social.Mention, replied []string) []social.Mention {
	seen := make(map[string]bool, len(replied))
	for _, id := range replied {
		seen[id] = true
	}
	var eligible []social.Mention
	for _, m := range mentions {
		if seen[m.ID] || tickerPattern.MatchString(m.Text) {
			continue
		}
		eligible = append(eligible, m)
	}
	return eligible
}

// parseReplies decodes the engine's reply batch. Code fences are tolerated;
// anything else non-JSON is a parse failure.
func parseReplies(out string) ([]replyItem, error) {
	trimmed := strings.TrimSpace(out)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var replies []replyItem
	if err := json.Unmarshal([]byte(trimmed), &replies); err != nil {
		return nil, fmt.Errorf("failed to parse reply batch: %w", err)
	}
	for i, r := range replies {
		if r.ID == "" || r.Text == "" {
			return nil, fmt.Errorf("reply %d is missing text or id", i)
		}
	}
	return replies, nil
}
