package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/leaguelinehq/leagueline/internal/draft"
	"github.com/leaguelinehq/leagueline/internal/models"
)

// SessionStore persists draft sessions in the draft_sessions table.
type SessionStore struct {
	pool *pgxpool.Pool
}

const sessionColumns = `id, league_id, mode, status, total_rounds, draft_order, pick_timer_sec,
	current_round, current_pick, current_team_id, timer_expires_at, paused_at,
	started_at, completed_at, created_at, updated_at`

func (s *SessionStore) CreateSession(ctx context.Context, session *models.DraftSession) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO draft_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		session.ID, session.LeagueID, session.Mode, session.Status,
		session.TotalRounds, session.DraftOrder, session.PickTimerSec,
		session.CurrentRound, session.CurrentPick, nilIfZero(session.CurrentTeamID),
		session.TimerExpiresAt, session.PausedAt,
		session.StartedAt, session.CompletedAt, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *SessionStore) GetSession(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM draft_sessions
		WHERE id = $1`, id)
	return scanSession(row)
}

func (s *SessionStore) UpdateSession(ctx context.Context, session *models.DraftSession) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE draft_sessions
		SET status = $2, current_round = $3, current_pick = $4, current_team_id = $5,
		    timer_expires_at = $6, paused_at = $7, started_at = $8, completed_at = $9,
		    updated_at = $10
		WHERE id = $1`,
		session.ID, session.Status, session.CurrentRound, session.CurrentPick,
		nilIfZero(session.CurrentTeamID), session.TimerExpiresAt, session.PausedAt,
		session.StartedAt, session.CompletedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return draft.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) FetchNextDeadline(ctx context.Context) (*draft.NextDeadline, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, timer_expires_at
		FROM draft_sessions
		WHERE status = $1 AND timer_expires_at IS NOT NULL
		ORDER BY timer_expires_at ASC
		LIMIT 1`, models.SessionStatusActive)

	var nd draft.NextDeadline
	if err := row.Scan(&nd.SessionID, &nd.Deadline); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, draft.ErrNoDeadline
		}
		return nil, fmt.Errorf("failed to fetch next deadline: %w", err)
	}
	return &nd, nil
}

func (s *SessionStore) FetchSessionsDue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id
		FROM draft_sessions
		WHERE status = $1 AND timer_expires_at IS NOT NULL AND timer_expires_at <= $2
		ORDER BY timer_expires_at ASC
		LIMIT $3`, models.SessionStatusActive, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due sessions: %w", err)
	}
	defer rows.Close()

	var due []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan due session: %w", err)
		}
		due = append(due, id)
	}
	return due, rows.Err()
}

func scanSession(row pgx.Row) (*models.DraftSession, error) {
	var session models.DraftSession
	var currentTeamID *uuid.UUID
	err := row.Scan(
		&session.ID, &session.LeagueID, &session.Mode, &session.Status,
		&session.TotalRounds, &session.DraftOrder, &session.PickTimerSec,
		&session.CurrentRound, &session.CurrentPick, &currentTeamID,
		&session.TimerExpiresAt, &session.PausedAt,
		&session.StartedAt, &session.CompletedAt, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, draft.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	if currentTeamID != nil {
		session.CurrentTeamID = *currentTeamID
	}
	return &session, nil
}

// nilIfZero maps the zero uuid onto SQL NULL for the not-yet-started case.
func nilIfZero(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
