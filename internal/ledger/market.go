package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

// WSOLMint is the wrapped-SOL mint address used as the input side of swaps.
const WSOLMint = "So11111111111111111111111111111111111111112"

// Default market API endpoints.
const (
	DefaultQuoteBaseURL  = "https://quote-api.jup.ag/v6"
	DefaultSearchBaseURL = "https://api.dexscreener.com"
)

// maxSearchResults caps how many token matches are returned to the engine.
const maxSearchResults = 5

// MarketClient executes token swaps through the Jupiter aggregator and
// searches token listings through Dexscreener.
type MarketClient struct {
	httpClient *http.Client
	quoteURL   string
	searchURL  string
	wallet     *Wallet
}

// MarketOption configures a MarketClient.
type MarketOption func(*MarketClient)

// WithMarketHTTPClient sets a custom HTTP client.
func WithMarketHTTPClient(hc *http.Client) MarketOption {
	return func(m *MarketClient) {
		m.httpClient = hc
	}
}

// WithQuoteBaseURL sets a custom Jupiter base URL (useful for testing).
func WithQuoteBaseURL(u string) MarketOption {
	return func(m *MarketClient) {
		m.quoteURL = u
	}
}

// WithSearchBaseURL sets a custom Dexscreener base URL (useful for testing).
func WithSearchBaseURL(u string) MarketOption {
	return func(m *MarketClient) {
		m.searchURL = u
	}
}

// NewMarketClient creates a market client that signs and submits swap
// transactions with the given wallet.
func NewMarketClient(w *Wallet, opts ...MarketOption) *MarketClient {
	m := &MarketClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		quoteURL:   DefaultQuoteBaseURL,
		searchURL:  DefaultSearchBaseURL,
		wallet:     w,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TokenMatch is one token search result.
type TokenMatch struct {
	Name         string  `json:"name"`
	Symbol       string  `json:"symbol"`
	Mint         string  `json:"mint"`
	PriceUSD     string  `json:"price_usd"`
	LiquidityUSD float64 `json:"liquidity_usd"`
}

// SearchToken looks a token up by name, symbol, or mint address. Results are
// deduplicated by mint and capped.
func (m *MarketClient) SearchToken(ctx context.Context, query string) ([]TokenMatch, error) {
	u := fmt.Sprintf("%s/latest/dex/search?q=%s", m.searchURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token search failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token search returned status %d", resp.StatusCode)
	}

	var out struct {
		Pairs []struct {
			ChainID   string `json:"chainId"`
			BaseToken struct {
				Address string `json:"address"`
				Name    string `json:"name"`
				Symbol  string `json:"symbol"`
			} `json:"baseToken"`
			PriceUSD  string `json:"priceUsd"`
			Liquidity struct {
				USD float64 `json:"usd"`
			} `json:"liquidity"`
		} `json:"pairs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	seen := make(map[string]bool)
	var matches []TokenMatch
	for _, p := range out.Pairs {
		if p.ChainID != "solana" || seen[p.BaseToken.Address] {
			continue
		}
		seen[p.BaseToken.Address] = true
		matches = append(matches, TokenMatch{
			Name:         p.BaseToken.Name,
			Symbol:       p.BaseToken.Symbol,
			Mint:         p.BaseToken.Address,
			PriceUSD:     p.PriceUSD,
			LiquidityUSD: p.Liquidity.USD,
		})
		if len(matches) == maxSearchResults {
			break
		}
	}
	return matches, nil
}

// TradeReceipt reports an executed swap.
type TradeReceipt struct {
	InputMint  string
	OutputMint string
	InAmount   string
	OutAmount  string
	Signature  string
}

// Trade swaps SOL for the given output mint: fetch a quote, have Jupiter
// build the swap transaction, sign it, and submit it. Only SOL-funded trades
// are supported; the input side is always wrapped SOL.
func (m *MarketClient) Trade(ctx context.Context, outputMint string, amount decimal.Decimal) (TradeReceipt, error) {
	if amount.Sign() <= 0 {
		return TradeReceipt{}, fmt.Errorf("trade amount must be positive, got %s", amount)
	}
	if _, err := solana.PublicKeyFromBase58(outputMint); err != nil {
		return TradeReceipt{}, fmt.Errorf("invalid output mint %q: %w", outputMint, err)
	}

	lamports := amount.Mul(lamportsPerSOL).IntPart()
	quoteURL := fmt.Sprintf("%s/quote?inputMint=%s&outputMint=%s&amount=%d&slippageBps=100",
		m.quoteURL, WSOLMint, outputMint, lamports)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, quoteURL, nil)
	if err != nil {
		return TradeReceipt{}, fmt.Errorf("failed to create quote request: %w", err)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return TradeReceipt{}, fmt.Errorf("quote request failed: %w", err)
	}
	quote, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return TradeReceipt{}, fmt.Errorf("failed to read quote response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return TradeReceipt{}, fmt.Errorf("quote returned status %d: %s", resp.StatusCode, string(quote))
	}

	var quoted struct {
		InAmount  string `json:"inAmount"`
		OutAmount string `json:"outAmount"`
	}
	if err := json.Unmarshal(quote, &quoted); err != nil {
		return TradeReceipt{}, fmt.Errorf("failed to decode quote: %w", err)
	}

	swapBody, err := json.Marshal(map[string]any{
		"quoteResponse":    json.RawMessage(quote),
		"userPublicKey":    m.wallet.Address(),
		"wrapAndUnwrapSol": true,
	})
	if err != nil {
		return TradeReceipt{}, fmt.Errorf("failed to encode swap request: %w", err)
	}
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, m.quoteURL+"/swap", bytes.NewReader(swapBody))
	if err != nil {
		return TradeReceipt{}, fmt.Errorf("failed to create swap request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err = m.httpClient.Do(req)
	if err != nil {
		return TradeReceipt{}, fmt.Errorf("swap request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return TradeReceipt{}, fmt.Errorf("swap returned status %d: %s", resp.StatusCode, string(data))
	}

	var swap struct {
		SwapTransaction string `json:"swapTransaction"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&swap); err != nil {
		return TradeReceipt{}, fmt.Errorf("failed to decode swap response: %w", err)
	}

	tx, err := solana.TransactionFromBase64(swap.SwapTransaction)
	if err != nil {
		return TradeReceipt{}, fmt.Errorf("failed to decode swap transaction: %w", err)
	}
	if err := m.wallet.sign(tx); err != nil {
		return TradeReceipt{}, err
	}
	sig, err := m.wallet.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return TradeReceipt{}, fmt.Errorf("failed to send swap transaction: %w", err)
	}

	return TradeReceipt{
		InputMint:  WSOLMint,
		OutputMint: outputMint,
		InAmount:   quoted.InAmount,
		OutAmount:  quoted.OutAmount,
		Signature:  sig.String(),
	}, nil
}
