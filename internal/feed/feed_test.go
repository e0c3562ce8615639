package feed

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/probabilitylab/internal/scheduler"
	"github.com/lox/probabilitylab/internal/simulator"
)

func newTestHub(t *testing.T) (*Hub, *simulator.Simulator, *httptest.Server) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	cfg := simulator.DefaultConfig()
	cfg.Seed = "feed"

	sim := simulator.New(cfg, simulator.Options{Logger: logger})
	hub := NewHub(sim.Snapshot, logger)
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, sim, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readUpdate(t *testing.T, conn *websocket.Conn) Update {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var u Update
	require.NoError(t, conn.ReadJSON(&u))
	return u
}

func TestSubscriberReceivesSnapshotThenUpdates(t *testing.T) {
	hub, sim, srv := newTestHub(t)
	conn := dial(t, srv)

	first := readUpdate(t, conn)
	assert.Equal(t, EventSnapshot, first.Type)
	assert.Equal(t, "feed", first.Report.Seed)
	assert.Zero(t, first.Report.Trials)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, sim.Advance(t.Context(), 25))
	hub.Publish(EventTick, true)

	u := readUpdate(t, conn)
	assert.Equal(t, EventTick, u.Type)
	assert.True(t, u.Auto)
	assert.Equal(t, 25, u.Report.Trials)
	require.Len(t, u.Report.A.Outcomes, 2)
	assert.Equal(t, 25, u.Report.A.Outcomes[0].Count+u.Report.A.Outcomes[1].Count)
}

func TestCallbacksPublish(t *testing.T) {
	hub, sim, srv := newTestHub(t)
	conn := dial(t, srv)
	readUpdate(t, conn)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	cb := hub.Callbacks()
	require.NoError(t, sim.Advance(t.Context(), 3))
	cb.OnDone(scheduler.Progress{Total: 3, Completed: 3, Chunks: 1})

	u := readUpdate(t, conn)
	assert.Equal(t, EventDone, u.Type)
	assert.Equal(t, 3, u.Report.Trials)
}

func TestSubscriberDisconnect(t *testing.T) {
	hub, _, srv := newTestHub(t)
	conn := dial(t, srv)
	readUpdate(t, conn)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 5*time.Second, 10*time.Millisecond)

	// Publishing with no subscribers is a no-op
	hub.Publish(EventTick, false)
}

func TestCloseRefusesSubscribers(t *testing.T) {
	hub, _, srv := newTestHub(t)
	hub.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Zero(t, hub.Clients())
}

func TestSnapshotEndpoint(t *testing.T) {
	_, sim, srv := newTestHub(t)
	require.NoError(t, sim.Advance(t.Context(), 10))

	resp, err := http.Get(srv.URL + "/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var u Update
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&u))
	assert.Equal(t, EventSnapshot, u.Type)
	assert.Equal(t, 10, u.Report.Trials)
}

func TestHealthEndpoint(t *testing.T) {
	_, _, srv := newTestHub(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))
}
