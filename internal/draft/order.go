package draft

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/leaguelinehq/leagueline/internal/models"
)

// Turn identifies one slot on the clock.
type Turn struct {
	Round  int
	Pick   int // 1-based within the round
	TeamID uuid.UUID
}

// TeamOnClock returns the team that owns (round, pickInRound) under the given
// mode and draft order. In LINEAR mode the order repeats every round; in SNAKE
// mode even rounds walk the order in reverse, producing the standard
// 1..N, N..1, 1..N pattern.
func TeamOnClock(round, pickInRound int, mode models.DraftMode, draftOrder []uuid.UUID) (uuid.UUID, error) {
	if err := validateTurnInputs(round, pickInRound, draftOrder); err != nil {
		return uuid.Nil, err
	}

	idx := pickInRound - 1
	if mode == models.DraftModeSnake && round%2 == 0 {
		idx = len(draftOrder) - pickInRound
	}
	return draftOrder[idx], nil
}

// NextTurn advances one slot: pickInRound increments, rolling over into the
// next round past the last team. The returned turn may lie beyond the end of
// the draft; the caller detects completion by comparing the overall pick index
// against totalRounds * teamCount.
func NextTurn(round, pickInRound int, mode models.DraftMode, draftOrder []uuid.UUID) (Turn, error) {
	if err := validateTurnInputs(round, pickInRound, draftOrder); err != nil {
		return Turn{}, err
	}

	nextRound, nextPick := round, pickInRound+1
	if nextPick > len(draftOrder) {
		nextRound++
		nextPick = 1
	}

	teamID, err := TeamOnClock(nextRound, nextPick, mode, draftOrder)
	if err != nil {
		return Turn{}, err
	}

	return Turn{Round: nextRound, Pick: nextPick, TeamID: teamID}, nil
}

func validateTurnInputs(round, pickInRound int, draftOrder []uuid.UUID) error {
	if len(draftOrder) == 0 {
		return fmt.Errorf("%w: empty draft order", ErrInvalidDraftParameters)
	}
	if round < 1 {
		return fmt.Errorf("%w: round %d", ErrInvalidDraftParameters, round)
	}
	if pickInRound < 1 || pickInRound > len(draftOrder) {
		return fmt.Errorf("%w: pick %d out of range [1,%d]", ErrInvalidDraftParameters, pickInRound, len(draftOrder))
	}
	return nil
}
