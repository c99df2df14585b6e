package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vesperlabs/vesper/internal/ledger"
)

// BountyContext is the filtered bounty projection the engine sees.
type BountyContext struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	IsActive    bool   `json:"is_active"`
}

// Snapshot is the structured context bundle assembled once per active cycle
// and handed to the reasoning engine. Every source degrades to a neutral
// value on failure; a snapshot is always usable.
type Snapshot struct {
	Address       string
	SOLBalance    decimal.Decimal
	TokenBalances []ledger.TokenBalance
	Memory        string
	Feedback      string
	Bounties      []BountyContext
	Now           time.Time
}

// assembleContext gathers the snapshot sources concurrently. The SOL balance
// was already read by the survival gate and is passed through rather than
// re-queried, so the gate and the prompt describe the same reading.
func (a *Agent) assembleContext(ctx context.Context, balance decimal.Decimal) Snapshot {
	snap := Snapshot{
		Address:    a.ledger.Address(),
		SOLBalance: balance,
		Now:        time.Now().UTC(),
	}

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		tokens, err := a.ledger.TokenBalances(ctx)
		if err != nil {
			a.logger.Printf("context: token balances unavailable: %v", err)
			return
		}
		snap.TokenBalances = tokens
	}()
	go func() {
		defer wg.Done()
		memory, err := a.store.Memory(ctx)
		if err != nil {
			a.logger.Printf("context: memory unavailable: %v", err)
			return
		}
		snap.Memory = memory
	}()
	go func() {
		defer wg.Done()
		feedback, err := a.store.Feedback(ctx)
		if err != nil {
			a.logger.Printf("context: feedback unavailable: %v", err)
			return
		}
		snap.Feedback = feedback
	}()
	go func() {
		defer wg.Done()
		bounties, err := a.store.Bounties(ctx)
		if err != nil {
			a.logger.Printf("context: bounties unavailable: %v", err)
			return
		}
		for _, b := range bounties {
			snap.Bounties = append(snap.Bounties, BountyContext{
				Title:       b.Title,
				Description: b.Description,
				Amount:      b.Amount,
				IsActive:    b.Active(),
			})
		}
	}()
	wg.Wait()

	return snap
}

// UserMessage serializes the snapshot into the single user message sent to
// the reasoning engine. This is the one place context becomes prompt text;
// nothing else interpolates snapshot data.
func (s Snapshot) UserMessage(instruction string) string {
	balances, err := json.Marshal(map[string]any{
		"address":     s.Address,
		"sol_balance": s.SOLBalance.String(),
		"tokens":      s.TokenBalances,
	})
	if err != nil {
		balances = []byte(fmt.Sprintf(`{"sol_balance":%q}`, s.SOLBalance.String()))
	}
	list := s.Bounties
	if list == nil {
		list = []BountyContext{}
	}
	bounties, err := json.Marshal(list)
	if err != nil {
		bounties = []byte("[]")
	}

	return fmt.Sprintf(
		"Balances: <Balances>%s</Balances> "+
			"Your bounties, active and completed: <Bounties>%s</Bounties> "+
			"Current memory is within the memory tags: <Memory>%s</Memory> "+
			"Feedback from your audience is within the feedback tags: <Feedback>%s</Feedback> "+
			"The time is %s. %s",
		balances, bounties, s.Memory, s.Feedback, s.Now.Format(time.RFC3339), instruction)
}
