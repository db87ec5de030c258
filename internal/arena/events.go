package arena

import (
	"time"

	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/game"
)

// EventType discriminates the messages pushed through a match's hub.
type EventType string

const (
	EventTurn      EventType = "turn"
	EventCompleted EventType = "completed"
	EventAborted   EventType = "aborted"
	EventHeartbeat EventType = "heartbeat"
)

// ResolutionStatus tags how one side's action for a turn was obtained.
type ResolutionStatus string

const (
	ResolutionOK      ResolutionStatus = "ok"
	ResolutionTimeout ResolutionStatus = "timeout"
	ResolutionFault   ResolutionStatus = "fault"
)

// ResolvedAction is one side's action after collection: either the real
// submission/decision or the substituted no-op, tagged accordingly.
type ResolvedAction struct {
	PlayerID string           `json:"playerID"`
	Action   game.Action      `json:"action"`
	Status   ResolutionStatus `json:"status"`
}

// ResultType classifies a finished match.
type ResultType string

const (
	ResultWin  ResultType = "win"
	ResultDraw ResultType = "draw"
)

// Result is attached to the final event of a completed match.
type Result struct {
	Type     ResultType `json:"type"`
	WinnerID string     `json:"winnerID,omitempty"`
}

// Event is the immutable envelope broadcast to observers and retained
// in the match log. Turn events carry the post-resolution state
// snapshot; exactly one turn event exists per completed turn.
type Event struct {
	Type      EventType       `json:"type"`
	MatchID   string          `json:"matchID"`
	Turn      int             `json:"turn,omitempty"`
	State     *game.State     `json:"state,omitempty"`
	ActionA   *ResolvedAction `json:"actionA,omitempty"`
	ActionB   *ResolvedAction `json:"actionB,omitempty"`
	Narrative []string        `json:"narrative,omitempty"`
	Result    *Result         `json:"result,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
