package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Upgrade(w, r, r.URL.Query().Get("user"))
	}))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func connect(t *testing.T, url, user string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url+"?user="+user, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(msg)
}

func TestSendToReachesOnlyThatUser(t *testing.T) {
	hub, url := startHub(t)
	alice := connect(t, url, "alice")
	bob := connect(t, url, "bob")
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 5*time.Millisecond)

	assert.True(t, hub.SendTo("alice", []byte(`{"event":"order.paid"}`)))
	assert.True(t, hub.SendTo("bob", []byte(`{"event":"order.delivered"}`)))

	assert.Equal(t, `{"event":"order.paid"}`, read(t, alice))
	assert.Equal(t, `{"event":"order.delivered"}`, read(t, bob))
}

func TestBroadcastReachesEveryone(t *testing.T) {
	hub, url := startHub(t)
	a := connect(t, url, "alice")
	b := connect(t, url, "alice")
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 5*time.Millisecond)

	hub.Broadcast([]byte("hi"))
	assert.Equal(t, "hi", read(t, a))
	assert.Equal(t, "hi", read(t, b))
}

func TestDisconnectUnregisters(t *testing.T) {
	hub, url := startHub(t)
	conn := connect(t, url, "alice")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}
