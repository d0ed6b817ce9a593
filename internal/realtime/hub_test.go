package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, hub *Hub, groupID uint, frames chan<- Frame) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(context.Background(), conn, Session{UserID: 1, GroupID: groupID}, func(_ context.Context, _ Session, f Frame) {
			frames <- f
		})
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubBroadcastReachesOnlyGroup(t *testing.T) {
	hub := NewHub()
	frames := make(chan Frame, 1)
	a := dial(t, startHub(t, hub, 7, frames))
	b := dial(t, startHub(t, hub, 8, frames))

	require.Eventually(t, func() bool {
		return hub.Subscribers(7) == 1 && hub.Subscribers(8) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast(7, "chat.message", map[string]string{"content": "hi"})

	require.NoError(t, a.SetReadDeadline(time.Now().Add(time.Second)))
	var f Frame
	require.NoError(t, a.ReadJSON(&f))
	assert.Equal(t, "chat.message", f.Type)
	assert.JSONEq(t, `{"content":"hi"}`, string(f.Data))

	require.NoError(t, b.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := b.ReadMessage()
	assert.Error(t, err)
}

func TestHubDispatchesIncomingFrames(t *testing.T) {
	hub := NewHub()
	frames := make(chan Frame, 1)
	conn := dial(t, startHub(t, hub, 3, frames))

	require.NoError(t, conn.WriteJSON(Frame{Type: "chat.send", Data: json.RawMessage(`{"content":"x"}`)}))

	select {
	case f := <-frames:
		assert.Equal(t, "chat.send", f.Type)
		assert.JSONEq(t, `{"content":"x"}`, string(f.Data))
	case <-time.After(time.Second):
		t.Fatal("frame not dispatched")
	}
}

func TestHubUnregistersOnClose(t *testing.T) {
	hub := NewHub()
	conn := dial(t, startHub(t, hub, 5, make(chan Frame, 1)))

	require.Eventually(t, func() bool { return hub.Subscribers(5) == 1 }, time.Second, 10*time.Millisecond)
	conn.Close()
	require.Eventually(t, func() bool { return hub.Subscribers(5) == 0 }, time.Second, 10*time.Millisecond)
}
