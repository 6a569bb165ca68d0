package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/DoyleJ11/liujiatong-server/internal/hub"
	"github.com/DoyleJ11/liujiatong-server/internal/types"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

// Handler streams the public table view to a websocket watcher. Watchers
// only listen; anything they send is ignored.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		id := uuid.NewString()
		log := log.With(zap.String("watcher", id))
		out := make(chan types.Snapshot, 8)

		select {
		case h.Inbox() <- hub.Watch{ID: id, Outbox: out}:
		case <-h.Done():
			conn.Close(websocket.StatusGoingAway, "shutting down")
			return
		}
		defer func() {
			select {
			case h.Inbox() <- hub.Unwatch{ID: id}:
			case <-h.Done():
			}
		}()
		log.Info("watcher connected")

		ctx := conn.CloseRead(r.Context())
		for {
			select {
			case snap, ok := <-out:
				if !ok {
					conn.Close(websocket.StatusPolicyViolation, "too slow")
					return
				}
				if err := write(ctx, conn, types.ServerMessage{Type: "RoundSnapshot", Version: snap.Version, Snapshot: &snap}); err != nil {
					log.Info("watcher write failed", zap.Error(err))
					return
				}
			case <-ctx.Done():
				log.Info("watcher disconnected")
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
