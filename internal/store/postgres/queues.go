package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/leaguelinehq/leagueline/internal/draft"
	"github.com/leaguelinehq/leagueline/internal/models"
)

// QueueStore persists per-team queues in the draft_queues table, one row per
// (session, team) with the ranked ids as a uuid array.
type QueueStore struct {
	pool *pgxpool.Pool
}

func (s *QueueStore) GetQueue(ctx context.Context, sessionID, teamID uuid.UUID) (*models.DraftQueue, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT session_id, team_id, player_ids, updated_at
		FROM draft_queues
		WHERE session_id = $1 AND team_id = $2`, sessionID, teamID)

	var queue models.DraftQueue
	if err := row.Scan(&queue.SessionID, &queue.TeamID, &queue.PlayerIDs, &queue.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, draft.ErrQueueNotFound
		}
		return nil, fmt.Errorf("failed to get queue: %w", err)
	}
	return &queue, nil
}

func (s *QueueStore) PutQueue(ctx context.Context, queue *models.DraftQueue) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO draft_queues (session_id, team_id, player_ids, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, team_id)
		DO UPDATE SET player_ids = EXCLUDED.player_ids, updated_at = EXCLUDED.updated_at`,
		queue.SessionID, queue.TeamID, queue.PlayerIDs, queue.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put queue: %w", err)
	}
	return nil
}
