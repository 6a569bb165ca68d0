package httpapi

import (
	"net/http"

	"github.com/DoyleJ11/liujiatong-server/internal/hub"
	"github.com/DoyleJ11/liujiatong-server/internal/lobby"
	"github.com/DoyleJ11/liujiatong-server/internal/ws"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func SetupRoutes(h *hub.Hub, reg *lobby.Registry, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/state", State(h, reg))
	r.Get("/ws", ws.Handler(h, log.Named("ws")))
	return r
}
