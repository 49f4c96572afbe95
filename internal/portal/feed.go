package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"pump-portal-sniper/internal/metrics"
)

const (
	feedReadLimit    = 1024 * 1024
	feedReadTimeout  = 90 * time.Second
	feedPingInterval = 30 * time.Second
)

// SubscribeRequest is the wire format for feed subscription commands
type SubscribeRequest struct {
	Method string   `json:"method"`
	Keys   []string `json:"keys,omitempty"`
}

// Feed is a WebSocket client for the PumpPortal data stream. Incoming
// token events are delivered on a buffered channel; read failures are
// surfaced on a separate error channel and terminate the read loop.
type Feed struct {
	url    string
	conn   *websocket.Conn
	logger *logrus.Logger

	writeMu sync.Mutex
	mu      sync.RWMutex

	events chan *TokenEvent
	errs   chan error

	readTimeout  time.Duration
	pingInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	messagesReceived int
	decodeFailures   int
	lastActivity     time.Time
}

// NewFeed creates a feed client for the given WebSocket URL
func NewFeed(url string, logger *logrus.Logger) *Feed {
	ctx, cancel := context.WithCancel(context.Background())

	return &Feed{
		url:          url,
		logger:       logger,
		events:       make(chan *TokenEvent, 100),
		errs:         make(chan error, 1),
		readTimeout:  feedReadTimeout,
		pingInterval: feedPingInterval,
		ctx:          ctx,
		cancel:       cancel,
		lastActivity: time.Now(),
	}
}

// Connect establishes the WebSocket connection and starts the read and
// ping loops
func (f *Feed) Connect() error {
	f.logger.WithField("url", f.url).Info("Connecting to data feed...")

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}

	conn, resp, err := dialer.Dial(f.url, nil)
	if err != nil {
		if resp != nil {
			f.logger.WithFields(logrus.Fields{
				"status": resp.Status,
				"url":    f.url,
			}).Error("Feed connection failed")
		}
		return fmt.Errorf("failed to connect to feed: %w", err)
	}

	conn.SetReadLimit(feedReadLimit)
	conn.SetReadDeadline(time.Now().Add(f.readTimeout))
	conn.SetPongHandler(func(string) error {
		f.mu.Lock()
		f.lastActivity = time.Now()
		f.mu.Unlock()
		// Each pong pushes the deadline out, so a quiet but responsive
		// connection is never torn down between data frames.
		return conn.SetReadDeadline(time.Now().Add(f.readTimeout))
	})

	f.mu.Lock()
	f.conn = conn
	f.lastActivity = time.Now()
	f.mu.Unlock()

	f.logger.WithField("url", f.url).Info("Feed connected")

	go f.readLoop()
	go f.pingLoop()

	return nil
}

// Close stops the loops and closes the connection
func (f *Feed) Close() error {
	f.cancel()

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conn != nil {
		err := f.conn.Close()
		f.conn = nil
		return err
	}

	return nil
}

// Events returns the token event channel
func (f *Feed) Events() <-chan *TokenEvent {
	return f.events
}

// Errs returns the channel carrying the terminal read error, if any
func (f *Feed) Errs() <-chan error {
	return f.errs
}

// SubscribeNewToken subscribes to token creation events
func (f *Feed) SubscribeNewToken() error {
	return f.send(SubscribeRequest{Method: "subscribeNewToken"})
}

// UnsubscribeNewToken cancels the token creation subscription
func (f *Feed) UnsubscribeNewToken() error {
	return f.send(SubscribeRequest{Method: "unsubscribeNewToken"})
}

// SubscribeAccountTrade subscribes to trades made by the given accounts.
// Not used by the sniping path.
func (f *Feed) SubscribeAccountTrade(accounts []string) error {
	return f.send(SubscribeRequest{Method: "subscribeAccountTrade", Keys: accounts})
}

// SubscribeTokenTrade subscribes to trades on the given token mints.
// Not used by the sniping path.
func (f *Feed) SubscribeTokenTrade(mints []string) error {
	return f.send(SubscribeRequest{Method: "subscribeTokenTrade", Keys: mints})
}

// send marshals and writes a subscription command. Writes are serialized
// since gorilla connections allow only one concurrent writer.
func (f *Feed) send(req SubscribeRequest) error {
	f.mu.RLock()
	conn := f.conn
	f.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("feed not connected")
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	f.logger.WithField("method", req.Method).Debug("Sending feed request")

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send %s: %w", req.Method, err)
	}

	return nil
}

// readLoop reads frames until the connection fails or the feed is closed.
// Malformed frames are counted and skipped; the loop only stops on a
// transport error, which is pushed to the error channel.
func (f *Feed) readLoop() {
	defer close(f.events)

	for {
		select {
		case <-f.ctx.Done():
			return
		default:
		}

		f.mu.RLock()
		conn := f.conn
		f.mu.RUnlock()

		if conn == nil {
			return
		}

		f.mu.RLock()
		last := f.lastActivity
		f.mu.RUnlock()
		conn.SetReadDeadline(last.Add(f.readTimeout))

		_, data, err := conn.ReadMessage()
		if err != nil {
			if f.ctx.Err() != nil {
				return
			}
			f.logger.WithError(err).Error("Feed read error")
			select {
			case f.errs <- err:
			default:
			}
			return
		}

		f.mu.Lock()
		f.messagesReceived++
		f.lastActivity = time.Now()
		f.mu.Unlock()

		f.handleFrame(data)
	}
}

// handleFrame decodes one frame and dispatches it
func (f *Feed) handleFrame(data []byte) {
	event, ack, err := DecodeMessage(data)
	if err != nil {
		f.mu.Lock()
		f.decodeFailures++
		f.mu.Unlock()
		metrics.DecodeFailuresTotal.Inc()

		f.logger.WithError(err).Warn("Skipping malformed feed message")
		return
	}

	if ack != nil {
		f.logger.WithField("message", ack.Message).Info("Feed subscription acknowledged")
		return
	}

	select {
	case f.events <- event:
	case <-f.ctx.Done():
	default:
		f.logger.WithField("mint", event.Mint).Warn("Event channel full, dropping event")
	}
}

// pingLoop keeps the connection alive
func (f *Feed) pingLoop() {
	ticker := time.NewTicker(f.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.ctx.Done():
			return
		case <-ticker.C:
			f.mu.RLock()
			conn := f.conn
			f.mu.RUnlock()

			if conn == nil {
				return
			}

			f.writeMu.Lock()
			err := conn.WriteMessage(websocket.PingMessage, nil)
			f.writeMu.Unlock()

			if err != nil {
				f.logger.WithError(err).Debug("Failed to send ping")
			}
		}
	}
}

// Stats returns read-loop counters for the status endpoint
func (f *Feed) Stats() map[string]interface{} {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return map[string]interface{}{
		"messages_received": f.messagesReceived,
		"decode_failures":   f.decodeFailures,
		"last_activity":     f.lastActivity,
		"connected":         f.conn != nil,
	}
}
