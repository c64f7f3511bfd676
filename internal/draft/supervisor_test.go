package draft_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/leaguelinehq/leagueline/internal/draft"
	"github.com/leaguelinehq/leagueline/internal/events"
	"github.com/leaguelinehq/leagueline/internal/models"
	"github.com/leaguelinehq/leagueline/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs the supervisor against the real clock with a 1s pick timer and lets it
// auto-draft an entire two-team, one-round session.
func TestSupervisorDrivesSessionToCompletion(t *testing.T) {
	clock := clockwork.NewRealClock()
	sessions := memory.NewSessionStore()
	players := memory.NewPlayerStore()
	picks := memory.NewPickStore(players)
	queues := draft.NewQueueManager(sessions, memory.NewQueueStore(), clock)
	strat := draft.NewQueueThenRandomStrategy(queues, players)
	dispatcher := &recordingDispatcher{}
	svc := draft.NewService(sessions, picks, players, queues, strat, events.NewBus(), dispatcher, clock)
	super := draft.NewSupervisor(svc, sessions, clock, 0, 0)

	for i := 0; i < 2; i++ {
		players.AddPlayer(models.Player{ID: uuid.New(), FullName: "Kid", DraftStatus: models.DraftStatusAvailable})
	}

	// Seeded directly so the timer can run shorter than the API minimum.
	now := clock.Now()
	session := &models.DraftSession{
		ID:           uuid.New(),
		LeagueID:     uuid.New(),
		Mode:         models.DraftModeLinear,
		Status:       models.SessionStatusScheduled,
		TotalRounds:  1,
		DraftOrder:   []uuid.UUID{uuid.New(), uuid.New()},
		PickTimerSec: 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, sessions.CreateSession(context.Background(), session))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = super.Run(ctx)
	}()

	_, err := svc.Start(context.Background(), session.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		current, err := svc.GetSession(context.Background(), session.ID)
		return err == nil && current.Status == models.SessionStatusCompleted
	}, 10*time.Second, 50*time.Millisecond, "supervisor never finished the draft")

	committed, err := svc.ListPicks(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, committed, 2)
	for _, pick := range committed {
		assert.Equal(t, models.PickTypeAuto, pick.PickType)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop on context cancel")
	}
}

// A wake must interrupt the idle poll so a freshly armed deadline is noticed
// immediately instead of after the poll interval.
func TestSupervisorWakeIsNonBlocking(t *testing.T) {
	clock := clockwork.NewRealClock()
	sessions := memory.NewSessionStore()
	players := memory.NewPlayerStore()
	picks := memory.NewPickStore(players)
	queues := draft.NewQueueManager(sessions, memory.NewQueueStore(), clock)
	strat := draft.NewQueueThenRandomStrategy(queues, players)
	svc := draft.NewService(sessions, picks, players, queues, strat, events.NewBus(), &recordingDispatcher{}, clock)
	super := draft.NewSupervisor(svc, sessions, clock, 0, 0)

	// Never panics or blocks, even with no Run loop draining it.
	for i := 0; i < 100; i++ {
		super.Wake()
	}
}
