// Package notify delivers committed-pick notifications to the outreach
// pipeline (SMS and social posting workers). Delivery is fire-and-forget:
// a dispatcher failure is logged and never fails the pick that triggered it.
package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/leaguelinehq/leagueline/internal/models"
	"github.com/rs/zerolog/log"
)

// PickNotification carries everything the outreach workers render.
type PickNotification struct {
	Pick       models.DraftPick `json:"pick"`
	PlayerName string           `json:"player_name"`
	TeamID     uuid.UUID        `json:"team_id"`
}

// Dispatcher receives one notification per committed pick.
type Dispatcher interface {
	DispatchPickMade(ctx context.Context, n PickNotification) error
}

// LogDispatcher writes notifications to the log. Used in development and as
// the default when no broker is configured.
type LogDispatcher struct{}

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) DispatchPickMade(ctx context.Context, n PickNotification) error {
	log.Info().
		Str("session_id", n.Pick.SessionID.String()).
		Str("team_id", n.TeamID.String()).
		Str("player", n.PlayerName).
		Int("overall_pick", n.Pick.OverallPick).
		Msg("pick notification")
	return nil
}
