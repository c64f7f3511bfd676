package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftMode defines how the pick order moves between rounds.
type DraftMode string

const (
	DraftModeLinear DraftMode = "LINEAR"
	DraftModeSnake  DraftMode = "SNAKE"
)

// SessionStatus defines the lifecycle state of a draft session.
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "SCHEDULED"
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusPaused    SessionStatus = "PAUSED"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	SessionStatusCancelled SessionStatus = "CANCELLED"
)

// DraftSession represents a live draft for one league season.
// CurrentTeamID is always the team the order calculator yields for
// (CurrentRound, CurrentPick) under Mode and DraftOrder.
type DraftSession struct {
	ID             uuid.UUID     `json:"id"`
	LeagueID       uuid.UUID     `json:"league_id"`
	Mode           DraftMode     `json:"mode"`
	Status         SessionStatus `json:"status"`
	TotalRounds    int           `json:"total_rounds"`
	DraftOrder     []uuid.UUID   `json:"draft_order"`
	PickTimerSec   int           `json:"pick_timer_sec"`
	CurrentRound   int           `json:"current_round"`
	CurrentPick    int           `json:"current_pick"` // 1-based within round
	CurrentTeamID  uuid.UUID     `json:"current_team_id"`
	TimerExpiresAt *time.Time    `json:"timer_expires_at,omitempty"`
	PausedAt       *time.Time    `json:"paused_at,omitempty"`
	StartedAt      *time.Time    `json:"started_at,omitempty"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// TeamCount returns the number of participating teams.
func (s *DraftSession) TeamCount() int {
	return len(s.DraftOrder)
}

// TotalPicks returns the number of pick slots in the whole draft.
func (s *DraftSession) TotalPicks() int {
	return s.TotalRounds * len(s.DraftOrder)
}

// HasTeam reports whether teamID participates in the session.
func (s *DraftSession) HasTeam(teamID uuid.UUID) bool {
	for _, id := range s.DraftOrder {
		if id == teamID {
			return true
		}
	}
	return false
}
