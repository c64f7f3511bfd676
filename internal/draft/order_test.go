package draft

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/leaguelinehq/leagueline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeOrder(t *testing.T, n int) []uuid.UUID {
	t.Helper()
	order := make([]uuid.UUID, n)
	for i := range order {
		order[i] = uuid.New()
	}
	return order
}

func TestTeamOnClockLinear(t *testing.T) {
	order := makeOrder(t, 4)

	for round := 1; round <= 3; round++ {
		for pick := 1; pick <= 4; pick++ {
			teamID, err := TeamOnClock(round, pick, models.DraftModeLinear, order)
			require.NoError(t, err)
			assert.Equal(t, order[pick-1], teamID, "round %d pick %d", round, pick)
		}
	}
}

func TestTeamOnClockSnakeReversesEvenRounds(t *testing.T) {
	for _, n := range []int{2, 3, 4, 7, 12} {
		t.Run(fmt.Sprintf("%d_teams", n), func(t *testing.T) {
			order := makeOrder(t, n)

			var got []uuid.UUID
			for round := 1; round <= 3; round++ {
				for pick := 1; pick <= n; pick++ {
					teamID, err := TeamOnClock(round, pick, models.DraftModeSnake, order)
					require.NoError(t, err)
					got = append(got, teamID)
				}
			}

			// 1..N, N..1, 1..N
			var want []uuid.UUID
			want = append(want, order...)
			for i := n - 1; i >= 0; i-- {
				want = append(want, order[i])
			}
			want = append(want, order...)
			assert.Equal(t, want, got)
		})
	}
}

func TestNextTurnFourTeamSnakeTwoRounds(t *testing.T) {
	order := makeOrder(t, 4)

	// Expected sequence of teams on the clock: T1 T2 T3 T4 T4 T3 T2 T1.
	want := []uuid.UUID{
		order[0], order[1], order[2], order[3],
		order[3], order[2], order[1], order[0],
	}

	round, pick := 1, 1
	teamID, err := TeamOnClock(round, pick, models.DraftModeSnake, order)
	require.NoError(t, err)

	got := []uuid.UUID{teamID}
	for i := 0; i < 7; i++ {
		next, err := NextTurn(round, pick, models.DraftModeSnake, order)
		require.NoError(t, err)
		round, pick = next.Round, next.Pick
		got = append(got, next.TeamID)
	}

	assert.Equal(t, want, got)
}

func TestNextTurnRollsOverRound(t *testing.T) {
	order := makeOrder(t, 3)

	next, err := NextTurn(1, 3, models.DraftModeLinear, order)
	require.NoError(t, err)
	assert.Equal(t, 2, next.Round)
	assert.Equal(t, 1, next.Pick)
	assert.Equal(t, order[0], next.TeamID)
}

func TestOrderInvalidInputs(t *testing.T) {
	order := makeOrder(t, 3)

	cases := []struct {
		name  string
		round int
		pick  int
		order []uuid.UUID
	}{
		{name: "empty order", round: 1, pick: 1, order: nil},
		{name: "round zero", round: 0, pick: 1, order: order},
		{name: "pick zero", round: 1, pick: 0, order: order},
		{name: "pick beyond team count", round: 1, pick: 4, order: order},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := TeamOnClock(tc.round, tc.pick, models.DraftModeSnake, tc.order)
			assert.ErrorIs(t, err, ErrInvalidDraftParameters)

			_, err = NextTurn(tc.round, tc.pick, models.DraftModeSnake, tc.order)
			assert.ErrorIs(t, err, ErrInvalidDraftParameters)
		})
	}
}

func TestOverallPick(t *testing.T) {
	assert.Equal(t, 1, models.OverallPick(1, 1, 4))
	assert.Equal(t, 4, models.OverallPick(1, 4, 4))
	assert.Equal(t, 5, models.OverallPick(2, 1, 4))
	assert.Equal(t, 24, models.OverallPick(6, 4, 4))
}
