package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/arena"
)

// HandleQueueJoin is the blocking matchmaking join: the request waits
// until a pairing or the matchmaking window elapses.
func (h *Handler) HandleQueueJoin(w http.ResponseWriter, r *http.Request) {
	var req ParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	cfg, err := req.config()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pairing, err := h.mgr.JoinQueue(r.Context(), cfg)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Client went away; nobody is listening for this response.
			return
		}
		writeArenaError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"matchID":    pairing.MatchID,
		"opponentID": pairing.OpponentID,
	})
}

// HandleQueueWebsocket is the push-style matchmaking join: the player
// holds a socket open, receives MATCH_FOUND when paired, and withdraws
// by disconnecting.
func (h *Handler) HandleQueueWebsocket(w http.ResponseWriter, r *http.Request) {
	var req ParticipantRequest
	req.PlayerID = r.URL.Query().Get("playerID")
	req.Source = r.URL.Query().Get("source")
	if req.Source == "" {
		req.Source = string(arena.SourceRemote)
	}
	if req.PlayerID == "" {
		http.Error(w, "playerID is required", http.StatusBadRequest)
		return
	}
	cfg, err := req.config()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade matchmaking connection", "error", err)
		return
	}
	slog.Info("matchmaking connection established", "playerID", req.PlayerID)

	// The join call blocks in its own goroutine; the read pump below
	// only exists to detect the client closing the connection, which
	// withdraws them from the queue.
	joinCtx, cancel := context.WithCancel(r.Context())
	defer cancel()

	type joined struct {
		pairing arena.Pairing
		err     error
	}
	done := make(chan joined, 1)
	go func() {
		p, err := h.mgr.JoinQueue(joinCtx, cfg)
		done <- joined{pairing: p, err: err}
	}()

	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		slog.Info("closing matchmaking connection", "playerID", req.PlayerID)
		conn.Close()
	}()

	select {
	case res := <-done:
		if res.err != nil {
			msg := map[string]string{"type": "MATCHMAKING_FAILED", "reason": res.err.Error()}
			if err := conn.WriteJSON(msg); err != nil {
				slog.Warn("failed to send matchmaking failure", "playerID", req.PlayerID, "error", err)
			}
			return
		}
		notification := map[string]interface{}{
			"type":       "MATCH_FOUND",
			"matchID":    res.pairing.MatchID,
			"opponentID": res.pairing.OpponentID,
		}
		if err := conn.WriteJSON(notification); err != nil {
			slog.Warn("failed to send MATCH_FOUND notification", "playerID", req.PlayerID, "error", err)
		} else {
			slog.Info("sent MATCH_FOUND notification", "playerID", req.PlayerID, "matchID", res.pairing.MatchID)
		}
	case <-disconnected:
		h.mgr.WithdrawQueue(req.PlayerID)
		cancel()
		<-done
	}
}
