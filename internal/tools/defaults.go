package tools

import "fmt"

// Deps bundles the collaborators behind the default tool set.
type Deps struct {
	ActionLog ActionLogger
	Wallet    Wallet
	Bounties  BountyStore
	Publisher Publisher
	Memory    MemoryReader
	Trader    Trader
	Search    TokenSearcher
}

// NewDefaultRegistry builds the registry with the full fixed tool set:
// transfer, create_bounty, delete_bounty, list_bounties, post_tweet,
// query_memory, trade_tokens, search_token.
func NewDefaultRegistry(d Deps) (*Registry, error) {
	r := NewRegistry(d.ActionLog)
	all := []*Tool{
		NewTransferTool(d.Wallet),
		NewCreateBountyTool(d.Bounties),
		NewDeleteBountyTool(d.Bounties),
		NewListBountiesTool(d.Bounties),
		NewPostTweetTool(d.Publisher),
		NewQueryMemoryTool(d.Memory),
		NewTradeTokensTool(d.Trader),
		NewSearchTokenTool(d.Search),
	}
	for _, t := range all {
		if err := r.Register(t); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", t.Name, err)
		}
	}
	return r, nil
}
