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

// PlayerStore reads the draft_status slice of the players table. The
// AVAILABLE -> DRAFTED flip lives in PickStore.CommitPick so it shares the
// pick record's transaction.
type PlayerStore struct {
	pool *pgxpool.Pool
}

func (s *PlayerStore) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, full_name, draft_status
		FROM players
		WHERE id = $1`, id)

	var player models.Player
	if err := row.Scan(&player.ID, &player.FullName, &player.DraftStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, draft.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &player, nil
}

func (s *PlayerStore) IsAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	player, err := s.GetPlayer(ctx, id)
	if err != nil {
		return false, err
	}
	return player.DraftStatus == models.DraftStatusAvailable, nil
}

func (s *PlayerStore) ListAvailable(ctx context.Context) ([]models.Player, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, full_name, draft_status
		FROM players
		WHERE draft_status = $1
		ORDER BY full_name ASC`, models.DraftStatusAvailable)
	if err != nil {
		return nil, fmt.Errorf("failed to list available players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var player models.Player
		if err := rows.Scan(&player.ID, &player.FullName, &player.DraftStatus); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, player)
	}
	return players, rows.Err()
}

