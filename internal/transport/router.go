// Package transport is the thin HTTP/WebSocket surface over the arena
// core: request decoding, error translation and push-stream plumbing.
package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/arena"
	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/player"
)

// Handler bundles the route handlers and their dependencies.
type Handler struct {
	mgr     *arena.Manager
	players player.Repository
}

func NewHandler(mgr *arena.Manager, players player.Repository) *Handler {
	return &Handler{mgr: mgr, players: players}
}

// Router assembles the API under /api/v1.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/players", h.HandleRegisterPlayer)
		r.Get("/players/{playerID}", h.HandleGetPlayer)

		r.Post("/matches", h.HandleCreateMatch)
		r.Post("/matches/{matchID}/actions", h.HandleSubmitAction)
		r.Post("/matches/{matchID}/abort", h.HandleAbortMatch)
		r.Get("/matches/{matchID}", h.HandleGetMatch)
		r.Get("/matches/{matchID}/replay", h.HandleGetReplay)
		r.Get("/matches/{matchID}/stream", h.HandleStream)

		// The blocking join can wait minutes; it must not sit behind
		// the default request timeout.
		r.Post("/queue/join", h.HandleQueueJoin)
		r.Get("/queue/ws", h.HandleQueueWebsocket)
	})
	return r
}

// writeJSON is a helper to write JSON responses, handling serialization
// and headers.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError sends a structured JSON error response.
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

// writeArenaError translates the core's sentinel failures into HTTP
// status codes, the way the gateway translates backend errors.
func writeArenaError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, arena.ErrMatchNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, arena.ErrParticipantNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, arena.ErrUnknownParticipant):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, arena.ErrStaleTurn):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, arena.ErrAlreadyQueued):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, arena.ErrMatchFinished):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, arena.ErrMatchmakingTimeout):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
	}
}

const requestTimeout = 5 * time.Second
