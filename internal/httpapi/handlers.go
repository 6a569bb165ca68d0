package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/DoyleJ11/liujiatong-server/internal/hub"
	"github.com/DoyleJ11/liujiatong-server/internal/lobby"
	"github.com/DoyleJ11/liujiatong-server/internal/types"
)

// StateView is the admin view of the server: who holds which seat, and the
// last table snapshot broadcast.
type StateView struct {
	Game     int               `json:"game"`
	Seats    []lobby.EntryView `json:"seats"`
	Watchers int               `json:"watchers"`
	Version  int               `json:"version"`
	Snapshot *types.Snapshot   `json:"snapshot,omitempty"`
}

func State(h *hub.Hub, reg *lobby.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := h.State(r.Context())
		if !ok {
			http.Error(w, "hub unavailable", http.StatusServiceUnavailable)
			return
		}
		view := StateView{
			Game:     reg.Game(),
			Seats:    reg.Entries(),
			Watchers: v.Watchers,
			Version:  v.Version,
		}
		if v.Version > 0 {
			view.Snapshot = &v.Snapshot
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(view)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
