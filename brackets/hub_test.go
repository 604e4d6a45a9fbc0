package brackets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Dosada05/bracket-of-death/events"
)

func hubServer(t *testing.T, hub *Hub, snapshot func() ([]byte, error)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if _, err := hub.Join("t1", conn, snapshot); err != nil {
			_ = conn.Close()
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	return conn
}

func TestHub_SnapshotThenRelay(t *testing.T) {
	log := zap.NewNop().Sugar()
	bus := events.NewBus(log)
	defer bus.Close()
	hub := NewHub(bus, log)
	defer hub.Close()

	srv := hubServer(t, hub, func() ([]byte, error) { return []byte(`{"type":"snapshot"}`), nil })
	conn := dial(t, srv)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, first, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"snapshot"}`, string(first))
	assert.Equal(t, 1, hub.Viewers("t1"))

	require.NoError(t, bus.Publish(context.Background(), "t1", events.MatchUpdate, map[string]string{"matchId": "m1"}))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var evt events.Event
	require.NoError(t, json.Unmarshal(raw, &evt))
	assert.Equal(t, events.MatchUpdate, evt.Type)
	assert.Equal(t, "t1", evt.TournamentID)
	assert.JSONEq(t, `{"matchId":"m1"}`, string(evt.Payload))

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Viewers("t1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_FailedSnapshotClosesRoom(t *testing.T) {
	log := zap.NewNop().Sugar()
	bus := events.NewBus(log)
	defer bus.Close()
	hub := NewHub(bus, log)
	defer hub.Close()

	srv := hubServer(t, hub, func() ([]byte, error) { return nil, errors.New("store down") })
	conn := dial(t, srv)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, hub.Viewers("t1"))
}

// scriptedSubscriber hands each Subscribe call the next stream in order.
type scriptedSubscriber struct {
	mu      sync.Mutex
	streams []chan events.Event
}

func (s *scriptedSubscriber) Subscribe(_ context.Context, _ string) (<-chan events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.streams) == 0 {
		return nil, errors.New("no stream left")
	}
	next := s.streams[0]
	s.streams = s.streams[1:]
	return next, nil
}

func TestHub_ClosedRoomStreamDoesNotReachReopenedRoom(t *testing.T) {
	old, fresh := make(chan events.Event), make(chan events.Event)
	hub := NewHub(&scriptedSubscriber{streams: []chan events.Event{old, fresh}}, zap.NewNop().Sugar())
	defer hub.Close()
	srv := hubServer(t, hub, func() ([]byte, error) { return []byte(`{"type":"snapshot"}`), nil })

	first := dial(t, srv)
	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := first.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, first.Close())
	require.Eventually(t, func() bool { return hub.Viewers("t1") == 0 }, 2*time.Second, 10*time.Millisecond)

	second := dial(t, srv)
	defer second.Close()
	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = second.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, 1, hub.Viewers("t1"))

	// the second send only returns once the first one went through broadcast
	old <- events.Event{Type: events.MatchUpdate, TournamentID: "t1"}
	old <- events.Event{Type: events.MatchUpdate, TournamentID: "t1"}
	fresh <- events.Event{Type: events.StatsUpdate, TournamentID: "t1"}

	_, raw, err := second.ReadMessage()
	require.NoError(t, err)
	var evt events.Event
	require.NoError(t, json.Unmarshal(raw, &evt))
	assert.Equal(t, events.StatsUpdate, evt.Type)
}
