package portal

import (
	"encoding/json"
	"fmt"
	"time"
)

// TokenEvent represents a new token creation event from the data feed
type TokenEvent struct {
	Mint         string  `json:"mint"`
	Creator      string  `json:"traderPublicKey"`
	Name         string  `json:"name"`
	Symbol       string  `json:"symbol"`
	URI          string  `json:"uri,omitempty"`
	Signature    string  `json:"signature,omitempty"`
	InitialBuy   float64 `json:"initialBuy,omitempty"`
	SolAmount    float64 `json:"solAmount,omitempty"`
	MarketCapSol float64 `json:"marketCapSol,omitempty"`
	Pool         string  `json:"pool,omitempty"`

	ReceivedAt time.Time `json:"-"`
}

// AckMessage is a server acknowledgement for a subscription request
type AckMessage struct {
	Message string `json:"message"`
}

// DecodeError reports a feed frame that could not be decoded into a
// known message shape
type DecodeError struct {
	Reason string
	Raw    []byte
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	raw := string(e.Raw)
	if len(raw) > 200 {
		raw = raw[:200] + "..."
	}
	return fmt.Sprintf("failed to decode feed message: %s: %s", e.Reason, raw)
}

// DecodeMessage classifies a raw feed frame. It returns a token event,
// an acknowledgement, or a DecodeError for anything else. A frame without
// a mint is rejected; a blank creator passes through so the matcher's
// literal comparison still sees it.
func DecodeMessage(raw []byte) (*TokenEvent, *AckMessage, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, nil, &DecodeError{Reason: err.Error(), Raw: raw}
	}

	if _, ok := probe["message"]; ok {
		var ack AckMessage
		if err := json.Unmarshal(raw, &ack); err != nil {
			return nil, nil, &DecodeError{Reason: err.Error(), Raw: raw}
		}
		return nil, &ack, nil
	}

	var event TokenEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, nil, &DecodeError{Reason: err.Error(), Raw: raw}
	}

	if event.Mint == "" {
		return nil, nil, &DecodeError{Reason: "missing mint field", Raw: raw}
	}

	event.ReceivedAt = time.Now()
	return &event, nil, nil
}
