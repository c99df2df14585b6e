package store

import "time"

// Bounty statuses.
const (
	BountyActive    = "active"
	BountyCompleted = "completed"
)

// Bounty is an externally tracked task-reward record. The agent creates and
// deletes bounties through tools; completion and payout are handled by a
// human operator on the backend.
type Bounty struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
	CompletedBy string `json:"completed_by,omitempty"`
}

// Active reports whether the bounty is still open.
func (b Bounty) Active() bool {
	return b.Status == BountyActive
}

// TweetEntry is one append-only record of a posted tweet. The feedback
// subcycle derives its 24-hour gate from the most recent entry's datetime.
type TweetEntry struct {
	Text     string    `json:"text"`
	Datetime time.Time `json:"datetime"`
}
