package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// TradeRecord represents one trade attempt written to the trade log
type TradeRecord struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Action      string    `json:"action"` // "buy" or "sell"
	Mint        string    `json:"mint"`
	TokenName   string    `json:"token_name,omitempty"`
	TokenSymbol string    `json:"token_symbol,omitempty"`
	Amount      float64   `json:"amount"`
	Slippage    float64   `json:"slippage"`
	PriorityFee float64   `json:"priority_fee"`
	Signature   string    `json:"signature,omitempty"`
	Status      string    `json:"status"` // "confirmed", "rejected", "error"
	Error       string    `json:"error,omitempty"`
}

// TradeLogger appends trade records to daily JSONL files
type TradeLogger struct {
	baseDir string
	logger  *Logger
}

// NewTradeLogger creates a new trade logger rooted at baseDir
func NewTradeLogger(baseDir string, logger *Logger) (*TradeLogger, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create trade log directory: %w", err)
	}

	return &TradeLogger{
		baseDir: baseDir,
		logger:  logger,
	}, nil
}

// LogTrade assigns the record an ID and appends it to today's trade file
func (tl *TradeLogger) LogTrade(record TradeRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	tl.logger.WithFields(map[string]interface{}{
		"event":     "trade_logged",
		"id":        record.ID,
		"action":    record.Action,
		"mint":      record.Mint,
		"amount":    record.Amount,
		"signature": record.Signature,
		"status":    record.Status,
	}).Info("Trade logged")

	filename := fmt.Sprintf("trades_%s.jsonl", record.Timestamp.Format("2006-01-02"))
	path := filepath.Join(tl.baseDir, filename)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open trade log file: %w", err)
	}
	defer file.Close()

	recordBytes, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal trade record: %w", err)
	}

	if _, err := file.Write(append(recordBytes, '\n')); err != nil {
		return fmt.Errorf("failed to write trade record: %w", err)
	}

	return nil
}
