package models

import (
	"github.com/google/uuid"
)

// DraftStatus defines a player's availability within the draft pool.
type DraftStatus string

const (
	DraftStatusAvailable DraftStatus = "AVAILABLE"
	DraftStatusDrafted   DraftStatus = "DRAFTED"
)

// Player carries the slice of the registration-side player record the draft
// engine reads and mutates. Everything else about a player belongs to the
// registration subsystem.
type Player struct {
	ID          uuid.UUID   `json:"id"`
	FullName    string      `json:"full_name"`
	DraftStatus DraftStatus `json:"draft_status"`
}
