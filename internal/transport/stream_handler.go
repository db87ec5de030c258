package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// upgrader is used to upgrade an HTTP connection to a persistent
// WebSocket connection.
var upgrader = websocket.Upgrader{
	// Allow connections from any origin (for development).
	// In production, restrict this to the game client's origin.
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const writeWait = 10 * time.Second

// HandleStream attaches the caller as a passive observer of a match.
// The socket carries TurnEvents in strict turn order, heartbeats while
// the match idles, then exactly one completion (or abort) event before
// closing. Observers pace themselves; one that stops reading is dropped
// by the hub, never waited on.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	sub, err := h.mgr.Attach(matchID)
	if err != nil {
		writeArenaError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		slog.Error("failed to upgrade observer connection", "matchID", matchID, "error", err)
		return
	}
	slog.Info("observer attached", "matchID", matchID, "remote", conn.RemoteAddr())

	// Read pump: we expect nothing from observers, but reading is how
	// we notice the client going away.
	go func() {
		defer sub.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		slog.Info("observer detached", "matchID", matchID, "remote", conn.RemoteAddr())
		sub.Close()
		conn.Close()
	}()

	for ev := range sub.Events() {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			slog.Warn("observer write failed", "matchID", matchID, "error", err)
			return
		}
	}
	// Channel closed: match finished or the hub dropped us. Say goodbye
	// properly so well-behaved clients distinguish this from a crash.
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "match stream ended"))
}
