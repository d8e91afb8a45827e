package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// dialTestConn upgrades a real websocket pair and hands back the server side.
func dialTestConn(t *testing.T) *websocket.Conn {
	t.Helper()
	connCh := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connCh <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = clientConn.Close() })

	serverConn := <-connCh
	t.Cleanup(func() { _ = serverConn.Close() })
	return serverConn
}

func TestConnectionManager_ReconnectReplacesClient(t *testing.T) {
	m := NewConnectionManager(zap.NewNop())
	userID := uuid.NewString()

	first := &wsClient{userID: userID, conn: dialTestConn(t), send: make(chan []byte, 1)}
	second := &wsClient{userID: userID, conn: dialTestConn(t), send: make(chan []byte, 1)}

	m.registerClient(first)
	m.registerClient(second)

	// The replaced connection's read pump exits late and unregisters; that
	// must not evict the live replacement.
	m.unregisterClient(first)

	require.True(t, m.SendToUser(userID, []byte("still connected")))
	assert.Equal(t, []byte("still connected"), <-second.send)

	m.unregisterClient(second)
	assert.Eventually(t, func() bool {
		return !m.SendToUser(userID, []byte("after disconnect"))
	}, time.Second, 10*time.Millisecond)
}

func TestConnectionManager_SendToOfflineUser(t *testing.T) {
	m := NewConnectionManager(zap.NewNop())

	assert.False(t, m.SendToUser(uuid.NewString(), []byte("nobody home")))
}
