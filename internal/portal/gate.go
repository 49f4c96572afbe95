package portal

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pump-portal-sniper/internal/config"
)

// ErrInsufficientBalance marks a funding shortfall, which callers handle
// as a clean startup refusal rather than a runtime failure
var ErrInsufficientBalance = errors.New("insufficient balance")

// BalanceSource provides the wallet's SOL balance in lamports
type BalanceSource interface {
	GetBalance(ctx context.Context) (uint64, error)
}

// Gate checks that the wallet can cover the configured trade amount
// before the feed is ever opened
type Gate struct {
	source BalanceSource
	logger *logrus.Logger
}

// NewGate creates a balance gate
func NewGate(source BalanceSource, logger *logrus.Logger) *Gate {
	return &Gate{source: source, logger: logger}
}

// CheckEligibility returns nil when the wallet balance covers amountSOL.
// The comparison runs on decimals to avoid float drift right at the
// threshold.
func (g *Gate) CheckEligibility(ctx context.Context, amountSOL float64) error {
	lamports, err := g.source.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch wallet balance: %w", err)
	}

	balance := decimal.New(int64(lamports), 0).
		Div(decimal.New(config.LamportsPerSol, 0))
	required := decimal.NewFromFloat(amountSOL)

	g.logger.WithFields(logrus.Fields{
		"balance_sol": balance.String(),
		"amount_sol":  required.String(),
	}).Info("Checking wallet balance")

	if balance.LessThan(required) {
		return fmt.Errorf("%w: have %s SOL, need %s SOL", ErrInsufficientBalance, balance.String(), required.String())
	}

	return nil
}
