package arena

import "errors"

// Request-level failure classes surfaced to callers. Faults inside a
// single turn's action resolution are never surfaced this way; they are
// recovered locally and recorded as narrative events in the turn log.
var (
	ErrStaleTurn           = errors.New("submitted turn number does not match the turn in progress")
	ErrUnknownParticipant  = errors.New("participant does not belong to this match")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrAlreadyQueued       = errors.New("participant is already waiting in the matchmaking queue")
	ErrMatchmakingTimeout  = errors.New("no opponent found within the matchmaking window")
	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchFinished       = errors.New("match is no longer active")
)
