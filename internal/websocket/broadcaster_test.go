package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axisframe/axis/internal/logging"
)

func startTestHub(t *testing.T) (*Broadcaster, string) {
	t.Helper()
	b := NewBroadcaster(logging.Discard())
	srv := httptest.NewServer(http.HandlerFunc(b.HandleWebSocket))
	t.Cleanup(func() {
		srv.Close()
		b.Shutdown(context.Background())
	})
	return b, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	return conn
}

func readReload(t *testing.T, conn *websocket.Conn) ReloadMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg ReloadMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestBroadcaster_Reload(t *testing.T) {
	b, url := startTestHub(t)

	conn := dial(t, url)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return b.ClientCount() == 1 },
		3*time.Second, 10*time.Millisecond)

	b.NotifyReload("/components/Button.tsx")

	msg := readReload(t, conn)
	assert.Equal(t, "reload", msg.Type)
	assert.Equal(t, "/components/Button.tsx", msg.Filename)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestBroadcaster_PingAnsweredWithPong(t *testing.T) {
	b, url := startTestHub(t)

	conn := dial(t, url)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return b.ClientCount() == 1 },
		3*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"ping"}`)))

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var pong PongMessage
	require.NoError(t, json.Unmarshal(data, &pong))
	assert.Equal(t, "pong", pong.Type)
	assert.False(t, pong.Timestamp.IsZero())
}

func TestBroadcaster_IgnoresMalformedFrames(t *testing.T) {
	b, url := startTestHub(t)

	conn := dial(t, url)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return b.ClientCount() == 1 },
		3*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`not json`)))
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"other"}`)))

	// The connection stays up and reloads still arrive.
	b.NotifyReload("/lib/util.ts")
	msg := readReload(t, conn)
	assert.Equal(t, "reload", msg.Type)
}

func TestBroadcaster_FanOutDropsFailedClient(t *testing.T) {
	b, url := startTestHub(t)

	healthy1 := dial(t, url)
	defer healthy1.Close(websocket.StatusNormalClosure, "")
	healthy2 := dial(t, url)
	defer healthy2.Close(websocket.StatusNormalClosure, "")
	failing := dial(t, url)

	require.Eventually(t, func() bool { return b.ClientCount() == 3 },
		3*time.Second, 10*time.Millisecond)

	// One client goes away. The hub must drop it and still deliver to
	// the remaining two.
	failing.Close(websocket.StatusNormalClosure, "bye")
	require.Eventually(t, func() bool { return b.ClientCount() == 2 },
		3*time.Second, 10*time.Millisecond)

	b.NotifyReload("/app/page.tsx")

	for _, conn := range []*websocket.Conn{healthy1, healthy2} {
		msg := readReload(t, conn)
		assert.Equal(t, "reload", msg.Type)
		assert.Equal(t, "/app/page.tsx", msg.Filename)
	}
	assert.Equal(t, 2, b.ClientCount())
}

func TestBroadcaster_ShutdownRejectsNewClients(t *testing.T) {
	b := NewBroadcaster(logging.Discard())
	srv := httptest.NewServer(http.HandlerFunc(b.HandleWebSocket))
	defer srv.Close()

	require.NoError(t, b.Shutdown(context.Background()))

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestBroadcaster_NotifyAfterShutdownIsSafe(t *testing.T) {
	b := NewBroadcaster(logging.Discard())
	require.NoError(t, b.Shutdown(context.Background()))
	b.NotifyReload("/a.tsx")
	assert.Equal(t, 0, b.ClientCount())
}
