package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftQueue is a team's ranked fallback list for one session.
// Front of PlayerIDs is the highest priority. The queue is owned by its team
// and consumed only during that team's own turn.
type DraftQueue struct {
	SessionID uuid.UUID   `json:"session_id"`
	TeamID    uuid.UUID   `json:"team_id"`
	PlayerIDs []uuid.UUID `json:"player_ids"`
	UpdatedAt time.Time   `json:"updated_at"`
}
