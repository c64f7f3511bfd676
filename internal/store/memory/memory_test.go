package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leaguelinehq/leagueline/internal/draft"
	"github.com/leaguelinehq/leagueline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitPickResolvesRaceToOneWinner(t *testing.T) {
	players := NewPlayerStore()
	picks := NewPickStore(players)
	playerID := uuid.New()
	players.AddPlayer(models.Player{ID: playerID, FullName: "Sam", DraftStatus: models.DraftStatusAvailable})

	sessionID := uuid.New()
	const contenders = 16

	var wg sync.WaitGroup
	results := make(chan error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claim := draft.ClaimRequest{
				PlayerID:  playerID,
				SessionID: sessionID,
				TeamID:    uuid.New(),
				Round:     1,
				Pick:      1,
			}
			results <- picks.CommitPick(context.Background(), claim, &models.DraftPick{
				ID:          uuid.New(),
				SessionID:   sessionID,
				Round:       1,
				Pick:        1,
				OverallPick: 1,
				TeamID:      claim.TeamID,
				PlayerID:    playerID,
				PickType:    models.PickTypeManual,
			})
		}()
	}
	wg.Wait()
	close(results)

	won, lost := 0, 0
	for err := range results {
		if err == nil {
			won++
		} else {
			require.ErrorIs(t, err, draft.ErrPlayerTaken)
			lost++
		}
	}
	assert.Equal(t, 1, won, "exactly one commit may succeed")
	assert.Equal(t, contenders-1, lost)

	// Lost commits leave no trace: one DRAFTED player, one pick row.
	player, err := players.GetPlayer(context.Background(), playerID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusDrafted, player.DraftStatus)

	committed, err := picks.ListPicks(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Len(t, committed, 1)
}

func TestCommitPickUnknownPlayerLeavesNoPick(t *testing.T) {
	players := NewPlayerStore()
	picks := NewPickStore(players)
	sessionID := uuid.New()

	err := picks.CommitPick(context.Background(), draft.ClaimRequest{
		PlayerID: uuid.New(), SessionID: sessionID, TeamID: uuid.New(), Round: 1, Pick: 1,
	}, &models.DraftPick{ID: uuid.New(), SessionID: sessionID, OverallPick: 1})
	require.ErrorIs(t, err, draft.ErrPlayerNotFound)

	committed, err := picks.ListPicks(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Empty(t, committed)
}

func TestFetchNextDeadlinePicksSoonest(t *testing.T) {
	store := NewSessionStore()
	now := time.Now()

	_, err := store.FetchNextDeadline(context.Background())
	assert.ErrorIs(t, err, draft.ErrNoDeadline)

	later := now.Add(time.Minute)
	sooner := now.Add(10 * time.Second)
	sessionLater := seedActiveSession(t, store, &later)
	sessionSooner := seedActiveSession(t, store, &sooner)
	_ = seedActiveSession(t, store, nil) // unarmed, must be ignored
	_ = sessionLater

	next, err := store.FetchNextDeadline(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sessionSooner, next.SessionID)
	assert.Equal(t, sooner, next.Deadline)
}

func TestFetchSessionsDueHonorsLimit(t *testing.T) {
	store := NewSessionStore()
	now := time.Now()
	past := now.Add(-time.Second)

	for i := 0; i < 5; i++ {
		seedActiveSession(t, store, &past)
	}
	future := now.Add(time.Hour)
	seedActiveSession(t, store, &future)

	due, err := store.FetchSessionsDue(context.Background(), now, 3)
	require.NoError(t, err)
	assert.Len(t, due, 3)

	due, err = store.FetchSessionsDue(context.Background(), now, 0)
	require.NoError(t, err)
	assert.Len(t, due, 5)
}

func seedActiveSession(t *testing.T, store *SessionStore, deadline *time.Time) uuid.UUID {
	t.Helper()

	session := &models.DraftSession{
		ID:             uuid.New(),
		LeagueID:       uuid.New(),
		Mode:           models.DraftModeLinear,
		Status:         models.SessionStatusActive,
		TotalRounds:    1,
		DraftOrder:     []uuid.UUID{uuid.New(), uuid.New()},
		PickTimerSec:   30,
		CurrentRound:   1,
		CurrentPick:    1,
		TimerExpiresAt: deadline,
	}
	require.NoError(t, store.CreateSession(context.Background(), session))
	return session.ID
}
