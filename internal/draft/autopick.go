package draft

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leaguelinehq/leagueline/internal/models"
	"github.com/rs/zerolog/log"
)

// AutoPickStrategy resolves the player for a turn nobody picked for.
type AutoPickStrategy interface {
	// SelectPlayer returns an available player for the on-clock team, or
	// ErrAutoPickExhausted when neither the queue nor the pool has one.
	SelectPlayer(ctx context.Context, session *models.DraftSession) (uuid.UUID, error)
}

// QueueThenRandomStrategy pops the team's queue first and falls back to a
// uniformly-random choice from the remaining pool.
type QueueThenRandomStrategy struct {
	queues  *QueueManager
	players PlayerStore

	mu  sync.Mutex
	rng *rand.Rand
}

// NewQueueThenRandomStrategy constructs the strategy with its own seeded RNG.
func NewQueueThenRandomStrategy(queues *QueueManager, players PlayerStore) *QueueThenRandomStrategy {
	src := rand.NewSource(time.Now().UnixNano())
	return &QueueThenRandomStrategy{
		queues:  queues,
		players: players,
		rng:     rand.New(src),
	}
}

// SelectPlayer implements AutoPickStrategy.
func (s *QueueThenRandomStrategy) SelectPlayer(ctx context.Context, session *models.DraftSession) (uuid.UUID, error) {
	isAvailable := func(id uuid.UUID) bool {
		ok, err := s.players.IsAvailable(ctx, id)
		return err == nil && ok
	}

	playerID, ok, err := s.queues.PopNextAvailable(ctx, session.ID, session.CurrentTeamID, isAvailable)
	if err != nil {
		return uuid.Nil, fmt.Errorf("pop queue: %w", err)
	}
	if ok {
		log.Info().
			Str("session_id", session.ID.String()).
			Str("team_id", session.CurrentTeamID.String()).
			Str("player_id", playerID.String()).
			Msg("auto-pick resolved from queue")
		return playerID, nil
	}

	pool, err := s.players.ListAvailable(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("list available players: %w", err)
	}
	if len(pool) == 0 {
		return uuid.Nil, ErrAutoPickExhausted
	}

	s.mu.Lock()
	choice := pool[s.rng.Intn(len(pool))]
	s.mu.Unlock()

	log.Info().
		Str("session_id", session.ID.String()).
		Str("team_id", session.CurrentTeamID.String()).
		Str("player_id", choice.ID.String()).
		Msg("auto-pick resolved from pool")

	return choice.ID, nil
}
