package events

import (
	"time"
)

// EventType labels a frame on the live stream.
type EventType string

const (
	EventConnected     EventType = "connected"
	EventSessionUpdate EventType = "session-update"
	EventPickMade      EventType = "pick-made"
	EventHeartbeat     EventType = "heartbeat"
)

// Event is one frame fanned out to a session's observers.
type Event struct {
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// SessionUpdatePayload is the payload for a session-update event.
type SessionUpdatePayload struct {
	Status         string     `json:"status"`
	CurrentRound   int        `json:"current_round"`
	CurrentPick    int        `json:"current_pick"`
	CurrentTeamID  string     `json:"current_team_id"`
	TimerExpiresAt *time.Time `json:"timer_expires_at,omitempty"`
	Notice         string     `json:"notice,omitempty"`
}

// PickMadePayload is the payload for a pick-made event.
type PickMadePayload struct {
	PickID      string    `json:"pick_id"`
	TeamID      string    `json:"team_id"`
	PlayerID    string    `json:"player_id"`
	PlayerName  string    `json:"player_name"`
	Round       int       `json:"round"`
	Pick        int       `json:"pick"`
	OverallPick int       `json:"overall_pick"`
	PickType    string    `json:"pick_type"`
	MadeAt      time.Time `json:"made_at"`
}
