package tools

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vesperlabs/vesper/internal/ledger"
)

// Wallet submits ledger transfers on behalf of the agent.
type Wallet interface {
	Transfer(ctx context.Context, recipient string, amount decimal.Decimal, mint string) (ledger.TransferReceipt, error)
}

// NewTransferTool returns the transfer action. Amounts arrive as decimal
// strings and are validated before the ledger is touched.
func NewTransferTool(w Wallet) *Tool {
	return &Tool{
		Name: "transfer",
		Description: "Transfer SOL from your wallet to another address. " +
			"The amount is deducted from your survival balance, so make sure the transfer is worth it.",
		Schema: objectSchema(map[string]any{
			"recipient": prop("string", "Base58 address of the recipient"),
			"amount":    prop("string", "Amount of SOL to send, for example \"0.25\""),
			"mint":      prop("string", "Optional SPL token mint address; omit for native SOL"),
		}, []string{"recipient", "amount"}),
		Handler: func(ctx context.Context, args map[string]any) Result {
			recipient, ok := stringArg(args, "recipient")
			if !ok {
				return Errorf("recipient is required")
			}
			raw, ok := stringArg(args, "amount")
			if !ok {
				return Errorf("amount is required")
			}
			amount, err := decimal.NewFromString(raw)
			if err != nil {
				return Errorf("amount %q is not a valid decimal: %v", raw, err)
			}
			if amount.Sign() <= 0 {
				return Errorf("amount must be positive, got %s", amount)
			}
			mint, _ := stringArg(args, "mint")

			receipt, err := w.Transfer(ctx, recipient, amount, mint)
			if err != nil {
				return Errorf("failed to transfer: %v", err)
			}
			return Success(map[string]any{
				"amount":    receipt.Amount.String(),
				"recipient": receipt.Recipient,
				"mint":      receipt.Mint,
				"signature": receipt.Signature,
			})
		},
		Summary: func(args map[string]any, res Result) string {
			asset := "SOL"
			if mint, ok := stringArg(args, "mint"); ok {
				asset = mint
			}
			amount, _ := stringArg(args, "amount")
			recipient, _ := stringArg(args, "recipient")
			return fmt.Sprintf("[TOOL] Transfer %s %s to %s, result: %s", amount, asset, recipient, res.Status())
		},
	}
}
