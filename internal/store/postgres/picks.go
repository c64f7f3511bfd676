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

// PickStore persists committed picks in the draft_picks table. A unique index
// on (session_id, player_id) backs the one-pick-per-player invariant at the
// storage layer too.
type PickStore struct {
	pool *pgxpool.Pool
}

// CommitPick claims the player and appends the pick in one transaction: the
// conditional UPDATE only flips a row that is still AVAILABLE, and a crash or
// insert failure rolls the flip back, so a DRAFTED player without a pick row
// can never be observed.
func (s *PickStore) CommitPick(ctx context.Context, claim draft.ClaimRequest, pick *models.DraftPick) error {
	return withTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE players
			SET draft_status = $2, drafted_session_id = $3, drafted_team_id = $4,
			    drafted_round = $5, drafted_pick = $6
			WHERE id = $1 AND draft_status = $7`,
			claim.PlayerID, models.DraftStatusDrafted, claim.SessionID, claim.TeamID,
			claim.Round, claim.Pick, models.DraftStatusAvailable,
		)
		if err != nil {
			return fmt.Errorf("failed to claim player: %w", err)
		}
		if tag.RowsAffected() == 0 {
			// Either the player does not exist or another claim won.
			var status models.DraftStatus
			err := tx.QueryRow(ctx, `SELECT draft_status FROM players WHERE id = $1`,
				claim.PlayerID).Scan(&status)
			if errors.Is(err, pgx.ErrNoRows) {
				return draft.ErrPlayerNotFound
			}
			if err != nil {
				return fmt.Errorf("failed to check player: %w", err)
			}
			return draft.ErrPlayerTaken
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO draft_picks (id, session_id, round, pick, overall_pick, team_id,
				player_id, pick_type, duration_sec, picked_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			pick.ID, pick.SessionID, pick.Round, pick.Pick, pick.OverallPick,
			pick.TeamID, pick.PlayerID, pick.PickType, pick.DurationSec, pick.PickedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to append pick: %w", err)
		}
		return nil
	})
}

func (s *PickStore) ListPicks(ctx context.Context, sessionID uuid.UUID) ([]models.DraftPick, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, round, pick, overall_pick, team_id, player_id,
			pick_type, duration_sec, picked_at
		FROM draft_picks
		WHERE session_id = $1
		ORDER BY overall_pick ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	defer rows.Close()

	var picks []models.DraftPick
	for rows.Next() {
		var pick models.DraftPick
		if err := rows.Scan(
			&pick.ID, &pick.SessionID, &pick.Round, &pick.Pick, &pick.OverallPick,
			&pick.TeamID, &pick.PlayerID, &pick.PickType, &pick.DurationSec, &pick.PickedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		picks = append(picks, pick)
	}
	return picks, rows.Err()
}
