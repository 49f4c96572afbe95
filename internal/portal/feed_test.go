package portal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pump-portal-sniper/internal/metrics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// feedServer runs an in-process WebSocket endpoint that hands the server
// side of each connection to the given session func.
func feedServer(t *testing.T, session func(conn *websocket.Conn)) string {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		session(conn)
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestFeed_SubscribeNewToken(t *testing.T) {
	requests := make(chan SubscribeRequest, 1)

	url := feedServer(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req SubscribeRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
			return
		}
		requests <- req

		// Block until the client disconnects
		conn.ReadMessage()
	})

	feed := NewFeed(url, testLogrus())
	require.NoError(t, feed.Connect())
	defer feed.Close()

	require.NoError(t, feed.SubscribeNewToken())

	select {
	case req := <-requests:
		assert.Equal(t, "subscribeNewToken", req.Method)
		assert.Empty(t, req.Keys)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received subscribe request")
	}
}

func TestFeed_DeliversTokenEvents(t *testing.T) {
	url := feedServer(t, func(conn *websocket.Conn) {
		frames := []string{
			`{"message": "Successfully subscribed to token creation events."}`,
			`{"mint": "Mint1", "traderPublicKey": "Creator1", "name": "Moon", "symbol": "MOON"}`,
			`{"mint": "Mint2", "traderPublicKey": "Creator2", "name": "Sun", "symbol": "SUN"}`,
		}
		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		conn.ReadMessage()
	})

	feed := NewFeed(url, testLogrus())
	require.NoError(t, feed.Connect())
	defer feed.Close()

	var mints []string
	timeout := time.After(2 * time.Second)
	for len(mints) < 2 {
		select {
		case event := <-feed.Events():
			mints = append(mints, event.Mint)
		case <-timeout:
			t.Fatalf("expected 2 events, got %d", len(mints))
		}
	}

	assert.Equal(t, []string{"Mint1", "Mint2"}, mints)
}

func TestFeed_SkipsMalformedFrames(t *testing.T) {
	failuresBefore := testutil.ToFloat64(metrics.DecodeFailuresTotal)

	url := feedServer(t, func(conn *websocket.Conn) {
		frames := []string{
			`not json at all`,
			`{"name": "missing mint and creator"}`,
			`{"mint": "Mint1", "traderPublicKey": "Creator1", "name": "Moon", "symbol": "MOON"}`,
		}
		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		conn.ReadMessage()
	})

	feed := NewFeed(url, testLogrus())
	require.NoError(t, feed.Connect())
	defer feed.Close()

	select {
	case event := <-feed.Events():
		// The malformed frames were dropped, the good one survived
		assert.Equal(t, "Mint1", event.Mint)
	case <-time.After(2 * time.Second):
		t.Fatal("valid event never arrived")
	}

	assert.Equal(t, failuresBefore+2, testutil.ToFloat64(metrics.DecodeFailuresTotal))
}

func TestFeed_IdleConnectionStaysAlive(t *testing.T) {
	url := feedServer(t, func(conn *websocket.Conn) {
		// No data frames at all. Reading keeps the default ping handler
		// answering the client's pings with pongs.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	feed := NewFeed(url, testLogrus())
	feed.readTimeout = 150 * time.Millisecond
	feed.pingInterval = 50 * time.Millisecond
	require.NoError(t, feed.Connect())
	defer feed.Close()

	// Several read-timeout windows pass with nothing but pongs on the
	// wire. The connection must survive them all.
	select {
	case err := <-feed.Errs():
		t.Fatalf("healthy idle connection surfaced error: %v", err)
	case event := <-feed.Events():
		t.Fatalf("unexpected event from silent server: %+v", event)
	case <-time.After(600 * time.Millisecond):
	}
}

func TestFeed_UnresponsivePeerTimesOut(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	url := feedServer(t, func(conn *websocket.Conn) {
		// Never read, so pings go unanswered and no pongs come back
		<-block
	})

	feed := NewFeed(url, testLogrus())
	feed.readTimeout = 150 * time.Millisecond
	feed.pingInterval = 50 * time.Millisecond
	require.NoError(t, feed.Connect())
	defer feed.Close()

	select {
	case err := <-feed.Errs():
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("dead peer was never detected")
	}
}

func TestFeed_ConnectLeavesDefaultDialerAlone(t *testing.T) {
	before := websocket.DefaultDialer.HandshakeTimeout

	url := feedServer(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
	})

	feed := NewFeed(url, testLogrus())
	require.NoError(t, feed.Connect())
	defer feed.Close()

	assert.Equal(t, before, websocket.DefaultDialer.HandshakeTimeout)
}

func TestFeed_SurfacesReadErrors(t *testing.T) {
	url := feedServer(t, func(conn *websocket.Conn) {
		// Drop the connection immediately
	})

	feed := NewFeed(url, testLogrus())
	require.NoError(t, feed.Connect())
	defer feed.Close()

	select {
	case err := <-feed.Errs():
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("read error never surfaced")
	}
}

func TestFeed_SendWithoutConnect(t *testing.T) {
	feed := NewFeed("ws://127.0.0.1:1", testLogrus())

	err := feed.SubscribeNewToken()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestFeed_SubscribeTokenTradeCarriesKeys(t *testing.T) {
	requests := make(chan SubscribeRequest, 1)

	url := feedServer(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req SubscribeRequest
		json.Unmarshal(msg, &req)
		requests <- req
		conn.ReadMessage()
	})

	feed := NewFeed(url, testLogrus())
	require.NoError(t, feed.Connect())
	defer feed.Close()

	require.NoError(t, feed.SubscribeTokenTrade([]string{"Mint1", "Mint2"}))

	select {
	case req := <-requests:
		assert.Equal(t, "subscribeTokenTrade", req.Method)
		assert.Equal(t, []string{"Mint1", "Mint2"}, req.Keys)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received subscribe request")
	}
}
