// Package ledger provides the Solana wallet client: balance queries, native
// transfers, and market operations (swaps, token search) used by the trade
// tools. Amounts cross the package boundary as decimal SOL; lamports stay
// internal.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

// lamportsPerSOL converts between lamports and SOL.
var lamportsPerSOL = decimal.NewFromInt(int64(solana.LAMPORTS_PER_SOL))

// Wallet signs and submits transactions for a single keypair. The keypair is
// immutable for the process lifetime.
type Wallet struct {
	rpc     *rpc.Client
	private solana.PrivateKey
	public  solana.PublicKey
}

// NewWallet creates a wallet from a base58-encoded private key and an RPC
// endpoint.
func NewWallet(rpcURL, privateKeyBase58 string) (*Wallet, error) {
	key, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return &Wallet{
		rpc:     rpc.New(rpcURL),
		private: key,
		public:  key.PublicKey(),
	}, nil
}

// Address returns the wallet's public address.
func (w *Wallet) Address() string {
	return w.public.String()
}

// Balance returns the current native balance in SOL. Callers query this fresh
// each cycle; the wallet never caches it.
func (w *Wallet) Balance(ctx context.Context) (decimal.Decimal, error) {
	res, err := w.rpc.GetBalance(ctx, w.public, rpc.CommitmentFinalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}
	return decimal.NewFromInt(int64(res.Value)).Div(lamportsPerSOL), nil
}

// TokenBalance is one SPL token holding.
type TokenBalance struct {
	Mint   string `json:"mint"`
	Amount string `json:"amount"`
}

// TokenBalances returns the wallet's SPL token holdings. Zero-amount accounts
// are skipped.
func (w *Wallet) TokenBalances(ctx context.Context) ([]TokenBalance, error) {
	out, err := w.rpc.GetTokenAccountsByOwner(
		ctx,
		w.public,
		&rpc.GetTokenAccountsConfig{ProgramId: solana.TokenProgramID.ToPointer()},
		&rpc.GetTokenAccountsOpts{Encoding: solana.EncodingJSONParsed},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get token accounts: %w", err)
	}

	var balances []TokenBalance
	for _, acc := range out.Value {
		var parsed struct {
			Parsed struct {
				Info struct {
					Mint        string `json:"mint"`
					TokenAmount struct {
						UIAmountString string `json:"uiAmountString"`
					} `json:"tokenAmount"`
				} `json:"info"`
			} `json:"parsed"`
		}
		raw := acc.Account.Data.GetRawJSON()
		if raw == nil {
			continue
		}
		if err := json.Unmarshal(raw, &parsed); err != nil {
			continue
		}
		amount := parsed.Parsed.Info.TokenAmount.UIAmountString
		if amount == "" || amount == "0" {
			continue
		}
		balances = append(balances, TokenBalance{
			Mint:   parsed.Parsed.Info.Mint,
			Amount: amount,
		})
	}
	return balances, nil
}

// TransferReceipt reports a submitted transfer.
type TransferReceipt struct {
	Amount    decimal.Decimal
	Recipient string
	Mint      string // empty for native SOL
	Signature string
}

// Transfer submits a native SOL transfer and returns once the transaction is
// accepted by the RPC node. SPL transfers go through the market client's swap
// path; a non-empty mint here is rejected.
func (w *Wallet) Transfer(ctx context.Context, recipient string, amount decimal.Decimal, mint string) (TransferReceipt, error) {
	if mint != "" {
		return TransferReceipt{}, fmt.Errorf("only native SOL transfers are supported, got mint %q", mint)
	}
	if amount.Sign() <= 0 {
		return TransferReceipt{}, fmt.Errorf("transfer amount must be positive, got %s", amount)
	}
	to, err := solana.PublicKeyFromBase58(recipient)
	if err != nil {
		return TransferReceipt{}, fmt.Errorf("invalid recipient address %q: %w", recipient, err)
	}

	lamports := amount.Mul(lamportsPerSOL).IntPart()
	recent, err := w.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return TransferReceipt{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(uint64(lamports), w.public, to).Build(),
		},
		recent.Value.Blockhash,
		solana.TransactionPayer(w.public),
	)
	if err != nil {
		return TransferReceipt{}, fmt.Errorf("failed to build transaction: %w", err)
	}

	if err := w.sign(tx); err != nil {
		return TransferReceipt{}, err
	}

	sig, err := w.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return TransferReceipt{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	return TransferReceipt{
		Amount:    amount,
		Recipient: recipient,
		Signature: sig.String(),
	}, nil
}

// sign signs a transaction with the wallet key.
func (w *Wallet) sign(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.public) {
			return &w.private
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}
