package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"pump-portal-sniper/internal/config"
	"pump-portal-sniper/internal/logger"
)

// TxSigner signs and broadcasts serialized transactions
type TxSigner interface {
	Address() string
	SignTransaction(raw []byte) (*solanago.Transaction, error)
	Broadcast(ctx context.Context, tx *solanago.Transaction) (string, error)
}

// TradeRequest is the trade-construction API request body. The API
// expects denominatedInSol as the strings "true" or "false".
type TradeRequest struct {
	PublicKey        string  `json:"publicKey"`
	Action           string  `json:"action"`
	Mint             string  `json:"mint"`
	DenominatedInSol string  `json:"denominatedInSol"`
	Amount           float64 `json:"amount"`
	Slippage         float64 `json:"slippage"`
	PriorityFee      float64 `json:"priorityFee"`
	Pool             string  `json:"pool"`
}

// TradeResult reports the outcome of a trade attempt. A rejected
// construction request is a failed result, not an error.
type TradeResult struct {
	Success    bool
	Action     string
	Mint       string
	Amount     float64
	Signature  string
	SolscanURL string
	StatusCode int
	Body       string
}

// Trader submits trades through the trade-construction API and signs
// and broadcasts the returned transactions locally
type Trader struct {
	tradeURL   string
	trading    config.TradingConfig
	signer     TxSigner
	httpClient *http.Client
	logger     *logger.Logger
	tradeLog   *logger.TradeLogger

	mu        sync.Mutex
	attempted int
	succeeded int
	rejected  int
}

// NewTrader creates a trader. tradeLog may be nil to disable the JSONL
// trade journal.
func NewTrader(tradeURL string, trading config.TradingConfig, signer TxSigner, log *logger.Logger, tradeLog *logger.TradeLogger) *Trader {
	timeout := time.Duration(trading.RequestTimeout) * time.Second
	if timeout == 0 {
		timeout = config.DefaultTradeTimeoutSec * time.Second
	}

	return &Trader{
		tradeURL: tradeURL,
		trading:  trading,
		signer:   signer,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:   log,
		tradeLog: tradeLog,
	}
}

// Buy spends the configured SOL amount on the given mint
func (t *Trader) Buy(ctx context.Context, event *TokenEvent) (*TradeResult, error) {
	return t.execute(ctx, "buy", event.Mint, t.trading.AmountSOL, true, event)
}

// BuyMint buys a mint directly, outside the feed path
func (t *Trader) BuyMint(ctx context.Context, mint string) (*TradeResult, error) {
	return t.execute(ctx, "buy", mint, t.trading.AmountSOL, true, nil)
}

// SellMint sells the given token amount of a mint
func (t *Trader) SellMint(ctx context.Context, mint string, tokenAmount float64) (*TradeResult, error) {
	return t.execute(ctx, "sell", mint, tokenAmount, false, nil)
}

func (t *Trader) execute(ctx context.Context, action, mint string, amount float64, inSol bool, event *TokenEvent) (*TradeResult, error) {
	t.mu.Lock()
	t.attempted++
	t.mu.Unlock()

	result := &TradeResult{
		Action: action,
		Mint:   mint,
		Amount: amount,
	}

	denominated := "false"
	if inSol {
		denominated = "true"
	}

	request := TradeRequest{
		PublicKey:        t.signer.Address(),
		Action:           action,
		Mint:             mint,
		DenominatedInSol: denominated,
		Amount:           amount,
		Slippage:         t.trading.Slippage,
		PriorityFee:      t.trading.PriorityFee,
		Pool:             t.trading.Pool,
	}

	t.logger.WithFields(logrus.Fields{
		"action": action,
		"mint":   mint,
		"amount": amount,
		"pool":   t.trading.Pool,
	}).Info("Requesting trade transaction")

	raw, statusCode, body, err := t.requestTransaction(ctx, request)
	if err != nil {
		t.journal(result, event, "error", err.Error())
		return nil, err
	}

	if statusCode != http.StatusOK {
		// The API declined to build the transaction. That is a normal
		// outcome for stale mints, so it does not bubble up as an error.
		result.StatusCode = statusCode
		result.Body = body

		t.mu.Lock()
		t.rejected++
		t.mu.Unlock()

		t.logger.LogTradeRejected(action, mint, fmt.Sprintf("%d: %s", statusCode, body))
		t.journal(result, event, "rejected", body)
		return result, nil
	}

	tx, err := t.signer.SignTransaction(raw)
	if err != nil {
		t.journal(result, event, "error", err.Error())
		return nil, fmt.Errorf("failed to sign trade transaction: %w", err)
	}

	signature, err := t.signer.Broadcast(ctx, tx)
	if err != nil {
		t.journal(result, event, "error", err.Error())
		return nil, fmt.Errorf("failed to broadcast trade transaction: %w", err)
	}

	result.Success = true
	result.StatusCode = statusCode
	result.Signature = signature
	result.SolscanURL = config.SolscanTxURL(signature)

	t.mu.Lock()
	t.succeeded++
	t.mu.Unlock()

	t.logger.LogTradeSuccess(action, mint, amount, signature, result.SolscanURL)
	t.journal(result, event, "confirmed", "")

	return result, nil
}

// requestTransaction POSTs the trade request and returns the raw
// transaction bytes on success, or the status and body on rejection
func (t *Trader) requestTransaction(ctx context.Context, request TradeRequest) ([]byte, int, string, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, 0, "", fmt.Errorf("failed to marshal trade request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.tradeURL, bytes.NewBuffer(payload))
	if err != nil {
		return nil, 0, "", fmt.Errorf("failed to create trade request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, 0, "", fmt.Errorf("trade request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, "", fmt.Errorf("failed to read trade response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, string(body), nil
	}

	return body, resp.StatusCode, "", nil
}

// journal writes the attempt to the JSONL trade log
func (t *Trader) journal(result *TradeResult, event *TokenEvent, status, errMsg string) {
	if t.tradeLog == nil {
		return
	}

	record := logger.TradeRecord{
		Action:      result.Action,
		Mint:        result.Mint,
		Amount:      result.Amount,
		Slippage:    t.trading.Slippage,
		PriorityFee: t.trading.PriorityFee,
		Signature:   result.Signature,
		Status:      status,
		Error:       errMsg,
	}
	if event != nil {
		record.TokenName = event.Name
		record.TokenSymbol = event.Symbol
	}

	if err := t.tradeLog.LogTrade(record); err != nil {
		t.logger.WithError(err).Warn("Failed to write trade log")
	}
}

// Stats returns trade counters for the status endpoint
func (t *Trader) Stats() map[string]interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	return map[string]interface{}{
		"attempted": t.attempted,
		"succeeded": t.succeeded,
		"rejected":  t.rejected,
	}
}
