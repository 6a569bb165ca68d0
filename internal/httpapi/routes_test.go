package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DoyleJ11/liujiatong-server/internal/hub"
	"github.com/DoyleJ11/liujiatong-server/internal/lobby"
	"github.com/DoyleJ11/liujiatong-server/internal/types"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newServer(t *testing.T) (*httptest.Server, *hub.Hub, *lobby.Registry) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := hub.NewHub(ctx, zap.NewNop())
	reg := lobby.New()
	srv := httptest.NewServer(SetupRoutes(h, reg, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv, h, reg
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newServer(t)
	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestState_ReportsSeatsAndSnapshot(t *testing.T) {
	srv, h, reg := newServer(t)
	_, err := reg.Join("alice")
	require.NoError(t, err)

	get := func() StateView {
		res, err := http.Get(srv.URL + "/state")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
		var v StateView
		require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
		return v
	}

	v := get()
	require.Len(t, v.Seats, 1)
	assert.Equal(t, "alice", v.Seats[0].Name)
	assert.Nil(t, v.Snapshot)

	h.Publish(context.Background(), types.Snapshot{TrickScore: 25})
	v = get()
	assert.Equal(t, 1, v.Version)
	require.NotNil(t, v.Snapshot)
	assert.Equal(t, 25, v.Snapshot.TrickScore)
}

func TestWS_StreamsSnapshots(t *testing.T) {
	srv, h, _ := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool {
		v, _ := h.State(ctx)
		return v.Watchers == 1
	}, 2*time.Second, 5*time.Millisecond)

	h.Publish(ctx, types.Snapshot{TurnOrder: 5, HeadMaster: -1})

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg types.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "RoundSnapshot", msg.Type)
	assert.Equal(t, 1, msg.Version)
	require.NotNil(t, msg.Snapshot)
	assert.Equal(t, 5, msg.Snapshot.TurnOrder)
}
