package tools

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vesperlabs/vesper/internal/ledger"
)

// Trader executes SOL-funded token swaps.
type Trader interface {
	Trade(ctx context.Context, outputMint string, amount decimal.Decimal) (ledger.TradeReceipt, error)
}

// TokenSearcher looks tokens up by name, symbol, or mint.
type TokenSearcher interface {
	SearchToken(ctx context.Context, query string) ([]ledger.TokenMatch, error)
}

// NewTradeTokensTool returns the trade_tokens action.
func NewTradeTokensTool(t Trader) *Tool {
	return &Tool{
		Name: "trade_tokens",
		Description: "Swap SOL for another token through the aggregator. " +
			"Use search_token first to find the output mint address. " +
			"The SOL you spend comes out of your survival balance.",
		Schema: objectSchema(map[string]any{
			"output_mint": prop("string", "Mint address of the token to buy"),
			"amount":      prop("string", "Amount of SOL to spend, for example \"0.1\""),
		}, []string{"output_mint", "amount"}),
		Handler: func(ctx context.Context, args map[string]any) Result {
			mint, ok := stringArg(args, "output_mint")
			if !ok {
				return Errorf("output_mint is required")
			}
			raw, ok := stringArg(args, "amount")
			if !ok {
				return Errorf("amount is required")
			}
			amount, err := decimal.NewFromString(raw)
			if err != nil {
				return Errorf("amount %q is not a valid decimal: %v", raw, err)
			}
			receipt, err := t.Trade(ctx, mint, amount)
			if err != nil {
				return Errorf("failed to trade: %v", err)
			}
			return Success(map[string]any{
				"input_mint":  receipt.InputMint,
				"output_mint": receipt.OutputMint,
				"in_amount":   receipt.InAmount,
				"out_amount":  receipt.OutAmount,
				"signature":   receipt.Signature,
			})
		},
		Summary: func(args map[string]any, res Result) string {
			amount, _ := stringArg(args, "amount")
			mint, _ := stringArg(args, "output_mint")
			return fmt.Sprintf("[TOOL] Trade %s SOL for %s, result: %s", amount, mint, res.Status())
		},
	}
}

// NewSearchTokenTool returns the search_token action.
func NewSearchTokenTool(s TokenSearcher) *Tool {
	return &Tool{
		Name:        "search_token",
		Description: "Search token listings by name, symbol, or mint address.",
		Schema: objectSchema(map[string]any{
			"query": prop("string", "The token name, symbol, or mint address to search for"),
		}, []string{"query"}),
		Handler: func(ctx context.Context, args map[string]any) Result {
			query, ok := stringArg(args, "query")
			if !ok {
				return Errorf("query is required")
			}
			matches, err := s.SearchToken(ctx, query)
			if err != nil {
				return Errorf("failed to search tokens: %v", err)
			}
			return Success(map[string]any{
				"tokens": matches,
			})
		},
		Summary: func(args map[string]any, res Result) string {
			query, _ := stringArg(args, "query")
			return fmt.Sprintf("[TOOL] Searched tokens for %q, result: %s", query, res.Status())
		},
	}
}
