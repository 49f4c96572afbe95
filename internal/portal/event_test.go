package portal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessage_TokenEvent(t *testing.T) {
	raw := []byte(`{
		"signature": "5abc",
		"mint": "Mint111",
		"traderPublicKey": "Creator111",
		"name": "Moon Token",
		"symbol": "MOON",
		"marketCapSol": 31.5,
		"pool": "pump"
	}`)

	event, ack, err := DecodeMessage(raw)
	require.NoError(t, err)
	assert.Nil(t, ack)

	require.NotNil(t, event)
	assert.Equal(t, "Mint111", event.Mint)
	assert.Equal(t, "Creator111", event.Creator)
	assert.Equal(t, "Moon Token", event.Name)
	assert.Equal(t, "MOON", event.Symbol)
	assert.Equal(t, 31.5, event.MarketCapSol)
	assert.False(t, event.ReceivedAt.IsZero())
}

func TestDecodeMessage_Ack(t *testing.T) {
	raw := []byte(`{"message": "Successfully subscribed to token creation events."}`)

	event, ack, err := DecodeMessage(raw)
	require.NoError(t, err)
	assert.Nil(t, event)

	require.NotNil(t, ack)
	assert.Contains(t, ack.Message, "Successfully subscribed")
}

func TestDecodeMessage_InvalidJSON(t *testing.T) {
	_, _, err := DecodeMessage([]byte(`{not json`))
	require.Error(t, err)

	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestDecodeMessage_MissingMint(t *testing.T) {
	raw := []byte(`{"traderPublicKey": "Creator111", "name": "Moon", "symbol": "MOON"}`)

	_, _, err := DecodeMessage(raw)
	require.Error(t, err)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Contains(t, decodeErr.Reason, "mint")
}

func TestDecodeMessage_BlankCreatorPassesThrough(t *testing.T) {
	// A blank creator is a matcher concern, not a decode failure. The
	// literal blank/blank comparison must be reachable from live frames.
	raw := []byte(`{"mint": "Mint111", "traderPublicKey": "", "name": "Moon", "symbol": "MOON"}`)

	event, ack, err := DecodeMessage(raw)
	require.NoError(t, err)
	assert.Nil(t, ack)

	require.NotNil(t, event)
	assert.Equal(t, "Mint111", event.Mint)
	assert.Empty(t, event.Creator)

	trigger := Trigger{Name: "Other", Symbol: "OTH"}
	assert.True(t, trigger.Matches(event), "decoded blank creator matches a blank configured creator")
}

func TestDecodeError_TruncatesLongFrames(t *testing.T) {
	raw := make([]byte, 500)
	for i := range raw {
		raw[i] = 'x'
	}

	err := &DecodeError{Reason: "test", Raw: raw}
	assert.Less(t, len(err.Error()), 300)
}
