package portal

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"pump-portal-sniper/internal/logger"
	"pump-portal-sniper/internal/metrics"
)

// FeedSource is the slice of the feed client the sniper consumes
type FeedSource interface {
	Events() <-chan *TokenEvent
	Errs() <-chan error
	UnsubscribeNewToken() error
}

// BuySubmitter executes the buy for a matched event
type BuySubmitter interface {
	Buy(ctx context.Context, event *TokenEvent) (*TradeResult, error)
}

// Sniper consumes the event stream and fires at most one buy per process.
// All events flow through a single loop, so the latch needs no atomics;
// the mutex only guards reads from the status endpoint.
type Sniper struct {
	feed    FeedSource
	trader  BuySubmitter
	trigger Trigger
	logger  *logger.Logger

	mu        sync.RWMutex
	triggered bool
	evaluated int
	result    *TradeResult
}

// NewSniper creates a sniper over a connected, subscribed feed
func NewSniper(feed FeedSource, trader BuySubmitter, trigger Trigger, log *logger.Logger) *Sniper {
	return &Sniper{
		feed:    feed,
		trader:  trader,
		trigger: trigger,
		logger:  log,
	}
}

// Run consumes events until the context is cancelled, the feed closes,
// or the feed reports a transport error. After the one buy the loop
// keeps draining events so the process stays up until a signal arrives.
func (s *Sniper) Run(ctx context.Context) error {
	if !s.trigger.Armed() {
		s.logger.Warn("Trigger has no usable criteria in strict mode, no trade can fire")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-s.feed.Errs():
			s.logger.WithError(err).Error("Feed terminated")
			return err

		case event, ok := <-s.feed.Events():
			if !ok {
				s.logger.Info("Event stream closed")
				return nil
			}
			s.handleEvent(ctx, event)
		}
	}
}

func (s *Sniper) handleEvent(ctx context.Context, event *TokenEvent) {
	metrics.EventsTotal.Inc()

	s.mu.Lock()
	s.evaluated++
	triggered := s.triggered
	s.mu.Unlock()

	s.logger.LogTokenDiscovered(event.Mint, event.Creator, event.Name, event.Symbol)

	if triggered {
		// Events queued before the unsubscribe took effect still arrive
		// here. The latch already fired, so they are evaluated no further.
		s.logger.WithField("mint", event.Mint).Debug("Trade already executed, ignoring event")
		return
	}

	if !s.trigger.Matches(event) {
		return
	}

	metrics.EventsMatchedTotal.Inc()

	s.logger.WithFields(logrus.Fields{
		"mint":    event.Mint,
		"creator": event.Creator,
		"name":    event.Name,
		"symbol":  event.Symbol,
	}).Info("🎯 Trigger matched, executing buy")

	s.mu.Lock()
	s.triggered = true
	s.mu.Unlock()

	if err := s.feed.UnsubscribeNewToken(); err != nil {
		s.logger.WithError(err).Warn("Failed to unsubscribe from token events")
	}

	result, err := s.trader.Buy(ctx, event)
	if err != nil {
		metrics.TradesTotal.WithLabelValues("buy", "error").Inc()
		s.logger.WithError(err).Error("Buy failed")
		return
	}

	status := "rejected"
	if result.Success {
		status = "confirmed"
	}
	metrics.TradesTotal.WithLabelValues("buy", status).Inc()

	s.mu.Lock()
	s.result = result
	s.mu.Unlock()
}

// Triggered reports whether the buy has fired
func (s *Sniper) Triggered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.triggered
}

// Result returns the outcome of the buy, or nil if none has completed
func (s *Sniper) Result() *TradeResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Stats returns consumer-loop counters for the status endpoint
func (s *Sniper) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"events_evaluated": s.evaluated,
		"triggered":        s.triggered,
	}
	if s.result != nil {
		stats["signature"] = s.result.Signature
		stats["trade_success"] = s.result.Success
	}
	return stats
}
