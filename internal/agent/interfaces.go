package agent

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vesperlabs/vesper/internal/ledger"
	"github.com/vesperlabs/vesper/internal/social"
	"github.com/vesperlabs/vesper/internal/store"
)

// Ledger queries balances and submits the per-cycle upkeep debit. Balances
// are queried fresh each cycle and never cached across cycles.
type Ledger interface {
	Address() string
	Balance(ctx context.Context) (decimal.Decimal, error)
	TokenBalances(ctx context.Context) ([]ledger.TokenBalance, error)
	Transfer(ctx context.Context, recipient string, amount decimal.Decimal, mint string) (ledger.TransferReceipt, error)
}

// Social posts to and reads from the agent's public account.
type Social interface {
	PostTweet(ctx context.Context, text string) (social.Post, error)
	PostReply(ctx context.Context, text, parentID string) (social.Post, error)
	RecentPosts(ctx context.Context, n int) ([]string, error)
	Mentions(ctx context.Context) ([]social.Mention, error)
}

// Store is the backend holding every durable record the agent owns: memory
// and feedback blobs, the public action log, balance history, the tweet log,
// the reply log, and bounties. It is the source of truth between cycles.
type Store interface {
	Memory(ctx context.Context) (string, error)
	Feedback(ctx context.Context) (string, error)
	ClearFeedback(ctx context.Context) error
	PostAction(ctx context.Context, text string, highlighted bool) error
	PostBalance(ctx context.Context, amount decimal.Decimal) error
	TweetLog(ctx context.Context) ([]store.TweetEntry, error)
	LogTweet(ctx context.Context, text string) error
	RepliedIDs(ctx context.Context) ([]string, error)
	LogReply(ctx context.Context, id string) error
	Bounties(ctx context.Context) ([]store.Bounty, error)
}

// Engine is the reasoning engine. With tools enabled it may dispatch any
// number of registered actions before producing its final text; its internal
// planning is opaque to the agent.
type Engine interface {
	Invoke(ctx context.Context, prompt string, toolsEnabled bool) (string, error)
}
