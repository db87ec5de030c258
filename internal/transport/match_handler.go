package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/arena"
	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/bot"
	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/game"
	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/player"
)

// ParticipantRequest describes one side of a match to create.
type ParticipantRequest struct {
	PlayerID string `json:"playerID"`
	Source   string `json:"source"` // "remote" or "autonomous"
}

func (p ParticipantRequest) config() (arena.ParticipantConfig, error) {
	cfg := arena.ParticipantConfig{PlayerID: p.PlayerID}
	switch p.Source {
	case string(arena.SourceRemote):
	case string(arena.SourceAutonomous):
		cfg.Decider = bot.NewBaseline()
	default:
		return cfg, errors.New("source must be \"remote\" or \"autonomous\"")
	}
	return cfg, nil
}

type createMatchRequest struct {
	A ParticipantRequest `json:"a"`
	B ParticipantRequest `json:"b"`
}

// HandleCreateMatch starts a match directly from two participant
// configurations and returns its identity immediately.
func (h *Handler) HandleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	cfgA, err := req.A.config()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfgB, err := req.B.config()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	matchID, err := h.mgr.CreateMatch(ctx, cfgA, cfgB)
	if err != nil {
		writeArenaError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"matchID": matchID})
}

type submitActionRequest struct {
	PlayerID string `json:"playerID"`
	Turn     int    `json:"turn"`
	Spell    string `json:"spell"`
}

// HandleSubmitAction stores a remote participant's action for the turn
// in progress.
func (h *Handler) HandleSubmitAction(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	var req submitActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	action := game.Action{Spell: game.Spell(req.Spell)}
	if !action.Valid() {
		writeError(w, http.StatusBadRequest, "unknown spell")
		return
	}

	if err := h.mgr.Submit(matchID, req.PlayerID, req.Turn, action); err != nil {
		writeArenaError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"accepted": true, "turn": req.Turn})
}

// HandleAbortMatch is the administrative abort. Idempotent.
func (h *Handler) HandleAbortMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	if err := h.mgr.Abort(matchID); err != nil {
		writeArenaError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"matchID": matchID, "status": string(arena.MatchStatusAborted)})
}

// HandleGetMatch returns a live match's summary.
func (h *Handler) HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	m, err := h.mgr.Match(matchID)
	if err != nil {
		writeArenaError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"matchID":   m.ID,
		"status":    m.Status(),
		"turnIndex": m.TurnIndex(),
		"state":     m.State(),
		"playerA":   m.A.PlayerID,
		"playerB":   m.B.PlayerID,
		"createdAt": m.CreatedAt(),
	})
}

// HandleGetReplay returns the full ordered event log with no pacing
// delay, for live and recently finished matches alike.
func (h *Handler) HandleGetReplay(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	events, err := h.mgr.Replay(ctx, matchID)
	if err != nil {
		writeArenaError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"matchID": matchID, "events": events})
}

type registerPlayerRequest struct {
	Name string `json:"name"`
}

// HandleRegisterPlayer creates a participant identity.
func (h *Handler) HandleRegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var req registerPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, err := h.players.Create(ctx, req.Name)
	if err != nil {
		if errors.Is(err, player.ErrNameExists) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleGetPlayer returns a player's profile and record.
func (h *Handler) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, err := h.players.Get(ctx, playerID)
	if err != nil {
		if errors.Is(err, player.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
