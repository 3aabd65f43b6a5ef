package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/sigchat/core"
	"github.com/totegamma/sigchat/internal/testutil"
)

func startServer(t *testing.T, hub *Hub) string {
	t.Helper()
	e := echo.New()
	e.GET("/socket", NewHandler(hub).Connect)
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/socket"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) core.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var event core.Event
	require.NoError(t, json.Unmarshal(frame, &event))
	return event
}

func TestBroadcastToAllClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown(time.Second)

	url := startServer(t, hub)
	first := dial(t, url)
	second := dial(t, url)

	assert.Eventually(t, func() bool { return hub.Count() == 2 }, 5*time.Second, 10*time.Millisecond)

	var gauge dto.Metric
	require.NoError(t, connectionsGauge.Write(&gauge))
	assert.Equal(t, float64(2), gauge.GetGauge().GetValue())

	before := promtestutil.ToFloat64(eventsCounter.WithLabelValues(core.EventPublicKeyReleased))

	s := NewService(hub, nil)
	err := s.Broadcast(context.Background(), core.EventPublicKeyReleased, core.PublicKeyReleased{Key: "abc", UserID: "u1"})
	require.NoError(t, err)

	for _, conn := range []*websocket.Conn{first, second} {
		event := readEvent(t, conn)
		assert.Equal(t, core.EventPublicKeyReleased, event.Name)
		assert.JSONEq(t, `{"key":"abc","userID":"u1"}`, string(event.Data))
	}

	assert.Equal(t, before+1, promtestutil.ToFloat64(eventsCounter.WithLabelValues(core.EventPublicKeyReleased)))
}

func TestDisconnectedClientIsRemoved(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown(time.Second)

	url := startServer(t, hub)
	conn := dial(t, url)
	assert.Eventually(t, func() bool { return hub.Count() == 1 }, 5*time.Second, 10*time.Millisecond)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 5*time.Second, 10*time.Millisecond)

	// nobody is listening, delivery must not block
	s := NewService(hub, nil)
	assert.NoError(t, s.Broadcast(context.Background(), core.EventMessageReceived, core.MessageReceived{}))
}

func TestFullClientIsDropped(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown(time.Second)

	url := startServer(t, hub)
	dial(t, url)
	assert.Eventually(t, func() bool { return hub.Count() == 1 }, 5*time.Second, 10*time.Millisecond)

	// the client never reads, so its queue eventually overflows
	frame := []byte(`{"event":"x","data":"` + strings.Repeat("a", 64*1024) + `"}`)
	assert.Eventually(t, func() bool {
		hub.Deliver(frame)
		return hub.Count() == 0
	}, 30*time.Second, time.Millisecond)
}

func TestShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	url := startServer(t, hub)
	conn := dial(t, url)
	assert.Eventually(t, func() bool { return hub.Count() == 1 }, 5*time.Second, 10*time.Millisecond)

	assert.NoError(t, hub.Shutdown(5*time.Second))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	// delivery after shutdown is discarded
	hub.Deliver([]byte("{}"))
	assert.False(t, hub.Register(&Client{}))
}

func TestBroadcastViaRedis(t *testing.T) {
	testutil.SkipUnlessDocker(t)

	rdb, cleanup := testutil.CreateRDB()
	defer cleanup()

	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewService(hub, rdb)
	require.NoError(t, s.Start(ctx))

	url := startServer(t, hub)
	conn := dial(t, url)
	assert.Eventually(t, func() bool { return hub.Count() == 1 }, 5*time.Second, 10*time.Millisecond)

	message := core.Message{ID: "m1", Text: "hello", Author: "u1", Date: time.Now()}
	require.NoError(t, s.Broadcast(ctx, core.EventMessageReceived, core.MessageReceived{Message: message}))

	event := readEvent(t, conn)
	assert.Equal(t, core.EventMessageReceived, event.Name)

	var payload core.MessageReceived
	require.NoError(t, json.Unmarshal(event.Data, &payload))
	assert.Equal(t, "hello", payload.Message.Text)
	assert.Equal(t, "u1", payload.Message.Author)
}
