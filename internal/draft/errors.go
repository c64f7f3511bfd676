package draft

import "errors"

// Errors returned by the draft engine. Handlers map these onto HTTP codes.
var (
	ErrSessionNotFound        = errors.New("draft session not found")
	ErrSessionNotActive       = errors.New("draft session is not active")
	ErrSessionNotScheduled    = errors.New("draft session has already started")
	ErrSessionNotPaused       = errors.New("draft session is not paused")
	ErrSessionTerminal        = errors.New("draft session is completed or cancelled")
	ErrTeamNotOnClock         = errors.New("team is not on the clock")
	ErrTeamNotInSession       = errors.New("team is not a participant in this session")
	ErrPlayerUnavailable      = errors.New("player has already been drafted")
	ErrPlayerNotFound         = errors.New("player not found")
	ErrQueueUpdateRejected    = errors.New("queue update rejected")
	ErrInvalidDraftParameters = errors.New("invalid draft parameters")

	// ErrAutoPickExhausted is non-fatal: no queue entry and no available player
	// remained, the turn advances without a pick.
	ErrAutoPickExhausted = errors.New("no players available for auto-pick")
)
