package handler

import (
	"net/http"
	"strings"

	"leaguevote/internal/realtime"
	"leaguevote/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type RealtimeHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewRealtimeHandler accepts websocket upgrades from allowedOrigins; an empty list allows any origin
func NewRealtimeHandler(hub *realtime.Hub, allowedOrigins []string, log *logger.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: log.Named("realtime_handler"),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// Subscribe handles GET /ws/matches/{matchID}
func (h *RealtimeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		h.logger.WithError(err).WithField("match_id", matchID).Debug("Websocket upgrade failed")
		return
	}

	h.hub.Subscribe(conn, matchID)
}
