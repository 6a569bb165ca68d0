// Package hub fans the public table view out to websocket watchers. It is
// a single goroutine owning the watcher set; everything else talks to it
// through its inbox.
package hub

import (
	"context"

	"github.com/DoyleJ11/liujiatong-server/internal/types"
	"go.uber.org/zap"
)

type HubMsg interface{ isHubMsg() }

type Watch struct {
	ID     string
	Outbox chan types.Snapshot // receives the latest snapshot, then every update
}

type Unwatch struct{ ID string }

type Publish struct{ Snapshot types.Snapshot }

type GetState struct {
	Reply chan View
}

type ShutdownHub struct{}

func (Watch) isHubMsg()       {}
func (Unwatch) isHubMsg()     {}
func (Publish) isHubMsg()     {}
func (GetState) isHubMsg()    {}
func (ShutdownHub) isHubMsg() {}

type View struct {
	Version  int
	Watchers int
	Snapshot types.Snapshot
}

type Hub struct {
	inbox    chan HubMsg
	watchers map[string]chan types.Snapshot
	version  int
	latest   types.Snapshot
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		watchers: make(map[string]chan types.Snapshot),
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once the hub has stopped.
func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

// Publish hands a snapshot to the hub. It gives up when ctx or the hub ends.
func (h *Hub) Publish(ctx context.Context, snap types.Snapshot) {
	select {
	case h.inbox <- Publish{Snapshot: snap}:
	case <-ctx.Done():
	case <-h.ctx.Done():
	}
}

// State returns the hub's view, or false once it has stopped.
func (h *Hub) State(ctx context.Context) (View, bool) {
	reply := make(chan View, 1)
	select {
	case h.inbox <- GetState{Reply: reply}:
	case <-ctx.Done():
		return View{}, false
	case <-h.ctx.Done():
		return View{}, false
	}
	select {
	case v := <-reply:
		return v, true
	case <-ctx.Done():
		return View{}, false
	case <-h.ctx.Done():
		return View{}, false
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Watch:
				h.watchers[msg.ID] = msg.Outbox
				if h.version > 0 {
					h.send(msg.ID, msg.Outbox, h.latest)
				}

			case Unwatch:
				if ch, ok := h.watchers[msg.ID]; ok {
					close(ch)
					delete(h.watchers, msg.ID)
				}

			case Publish:
				h.version++
				h.latest = msg.Snapshot
				h.latest.Version = h.version
				for id, ch := range h.watchers {
					h.send(id, ch, h.latest)
				}

			case GetState:
				msg.Reply <- View{Version: h.version, Watchers: len(h.watchers), Snapshot: h.latest}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

// send drops a watcher whose outbox is full.
func (h *Hub) send(id string, ch chan types.Snapshot, snap types.Snapshot) {
	select {
	case ch <- snap:
	default:
		h.log.Info("dropping slow watcher", zap.String("watcher", id))
		close(ch)
		delete(h.watchers, id)
	}
}

func (h *Hub) shutdown() {
	for id, ch := range h.watchers {
		close(ch)
		delete(h.watchers, id)
	}
	h.cancel()
}
