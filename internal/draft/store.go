package draft

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/leaguelinehq/leagueline/internal/models"
)

// SessionStore persists draft sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session *models.DraftSession) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.DraftSession, error)
	UpdateSession(ctx context.Context, session *models.DraftSession) error
	// FetchNextDeadline returns the soonest timer deadline across active
	// sessions, or ErrNoDeadline when none is armed.
	FetchNextDeadline(ctx context.Context) (*NextDeadline, error)
	// FetchSessionsDue returns ids of active sessions whose deadline is at or
	// before now, up to limit.
	FetchSessionsDue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

// PickStore persists committed picks.
type PickStore interface {
	// CommitPick claims the player for the slot and appends the pick record.
	// The two effects apply atomically: either the player flips to DRAFTED
	// and the pick row exists, or neither does. A lost claim race returns
	// ErrPlayerTaken.
	CommitPick(ctx context.Context, claim ClaimRequest, pick *models.DraftPick) error
	ListPicks(ctx context.Context, sessionID uuid.UUID) ([]models.DraftPick, error)
}

// QueueStore persists per-team ranked queues.
type QueueStore interface {
	GetQueue(ctx context.Context, sessionID, teamID uuid.UUID) (*models.DraftQueue, error)
	PutQueue(ctx context.Context, queue *models.DraftQueue) error
}

// ClaimRequest carries the slot a player is being claimed for.
type ClaimRequest struct {
	PlayerID  uuid.UUID
	SessionID uuid.UUID
	TeamID    uuid.UUID
	Round     int
	Pick      int
}

// PlayerStore exposes the read side of the player pool. The AVAILABLE ->
// DRAFTED flip itself happens inside PickStore.CommitPick so it can share the
// pick record's transaction.
type PlayerStore interface {
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	IsAvailable(ctx context.Context, id uuid.UUID) (bool, error)
	ListAvailable(ctx context.Context) ([]models.Player, error)
}

// NextDeadline pairs a session with its armed timer deadline.
type NextDeadline struct {
	SessionID uuid.UUID
	Deadline  time.Time
}

// Store-level sentinels.
var (
	ErrNoDeadline    = errors.New("no armed deadline")
	ErrPlayerTaken   = errors.New("player already claimed")
	ErrQueueNotFound = errors.New("no queue found for team")
)
