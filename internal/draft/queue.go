package draft

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/leaguelinehq/leagueline/internal/models"
	"github.com/rs/zerolog/log"
)

// QueueManager owns each team's ranked list of desired players.
//
// SetQueue and PopNextAvailable are both read-modify-write over the
// QueueStore and must not interleave for the same session. The service
// serializes them on its per-session lock: the resolver pops while holding
// it, and external replacements arrive through Service.SetQueue.
type QueueManager struct {
	sessions SessionStore
	queues   QueueStore
	clock    clockwork.Clock
}

func NewQueueManager(sessions SessionStore, queues QueueStore, clock clockwork.Clock) *QueueManager {
	return &QueueManager{
		sessions: sessions,
		queues:   queues,
		clock:    clock,
	}
}

// SetQueue replaces a team's queue wholesale. Duplicate ids keep their first
// occurrence. Rejected unless the session is active and the team participates.
func (m *QueueManager) SetQueue(ctx context.Context, sessionID, teamID uuid.UUID, playerIDs []uuid.UUID) (*models.DraftQueue, error) {
	session, err := m.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if session.Status != models.SessionStatusActive {
		return nil, fmt.Errorf("%w: session is %s", ErrQueueUpdateRejected, session.Status)
	}
	if !session.HasTeam(teamID) {
		return nil, fmt.Errorf("%w: %s", ErrQueueUpdateRejected, ErrTeamNotInSession)
	}

	seen := make(map[uuid.UUID]bool, len(playerIDs))
	deduped := make([]uuid.UUID, 0, len(playerIDs))
	for _, id := range playerIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		deduped = append(deduped, id)
	}

	queue := &models.DraftQueue{
		SessionID: sessionID,
		TeamID:    teamID,
		PlayerIDs: deduped,
		UpdatedAt: m.clock.Now(),
	}
	if err := m.queues.PutQueue(ctx, queue); err != nil {
		return nil, fmt.Errorf("failed to store queue: %w", err)
	}

	log.Debug().
		Str("session_id", sessionID.String()).
		Str("team_id", teamID.String()).
		Int("queue_len", len(deduped)).
		Msg("queue replaced")

	return queue, nil
}

// GetQueue returns a team's current queue, or ErrQueueNotFound.
func (m *QueueManager) GetQueue(ctx context.Context, sessionID, teamID uuid.UUID) (*models.DraftQueue, error) {
	return m.queues.GetQueue(ctx, sessionID, teamID)
}

// PopNextAvailable scans the team's queue front-to-back and removes and
// returns the first id for which isAvailable is true. Every stale id skipped
// on the way is pruned, and the pruned queue is written back even when no id
// qualifies. Returns uuid.Nil and false when the queue yields nothing.
func (m *QueueManager) PopNextAvailable(ctx context.Context, sessionID, teamID uuid.UUID, isAvailable func(uuid.UUID) bool) (uuid.UUID, bool, error) {
	queue, err := m.queues.GetQueue(ctx, sessionID, teamID)
	if errors.Is(err, ErrQueueNotFound) {
		// No queue is a normal state on the auto-pick path.
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to load queue: %w", err)
	}

	picked := uuid.Nil
	remaining := make([]uuid.UUID, 0, len(queue.PlayerIDs))
	for i, id := range queue.PlayerIDs {
		if picked == uuid.Nil && isAvailable(id) {
			picked = id
			remaining = append(remaining, queue.PlayerIDs[i+1:]...)
			break
		}
		// Stale entry: drop it.
	}

	pruned := len(queue.PlayerIDs) - len(remaining)
	if picked != uuid.Nil {
		pruned-- // the popped id is not a pruned one
	}

	queue.PlayerIDs = remaining
	queue.UpdatedAt = m.clock.Now()
	if err := m.queues.PutQueue(ctx, queue); err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to store pruned queue: %w", err)
	}

	if pruned > 0 {
		log.Debug().
			Str("session_id", sessionID.String()).
			Str("team_id", teamID.String()).
			Int("pruned", pruned).
			Msg("pruned stale queue entries")
	}

	if picked == uuid.Nil {
		return uuid.Nil, false, nil
	}
	return picked, true, nil
}
