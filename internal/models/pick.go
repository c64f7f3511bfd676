package models

import (
	"time"

	"github.com/google/uuid"
)

// PickType distinguishes a pick submitted by a team from one made by the system.
type PickType string

const (
	PickTypeManual PickType = "MANUAL"
	PickTypeAuto   PickType = "AUTO"
)

// DraftPick represents a single committed pick in a session.
type DraftPick struct {
	ID          uuid.UUID `json:"id"`
	SessionID   uuid.UUID `json:"session_id"`
	Round       int       `json:"round"`
	Pick        int       `json:"pick"`         // pick number in the round
	OverallPick int       `json:"overall_pick"` // pick number overall
	TeamID      uuid.UUID `json:"team_id"`
	PlayerID    uuid.UUID `json:"player_id"`
	PickType    PickType  `json:"pick_type"`
	DurationSec int       `json:"duration_sec"` // seconds the team spent on the clock
	PickedAt    time.Time `json:"picked_at"`
}

// OverallPick computes the 1-based running pick index across the whole draft.
func OverallPick(round, pickInRound, teamCount int) int {
	return (round-1)*teamCount + pickInRound
}
