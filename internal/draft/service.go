package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/leaguelinehq/leagueline/internal/events"
	"github.com/leaguelinehq/leagueline/internal/models"
	"github.com/leaguelinehq/leagueline/internal/notify"
	"github.com/rs/zerolog/log"
)

const dispatchTimeout = 10 * time.Second

// EventBus is what the service needs from the live event fan-out.
type EventBus interface {
	Publish(event events.Event)
	CloseSession(sessionID uuid.UUID)
}

// CreateSessionRequest carries the settings for a new draft session.
type CreateSessionRequest struct {
	LeagueID     uuid.UUID
	Mode         models.DraftMode
	TotalRounds  int
	DraftOrder   []uuid.UUID
	PickTimerSec int
}

// Service owns session lifecycle and pick resolution. All mutations to one
// session's turn state funnel through that session's lock, so a manual pick
// and a timer expiry racing for the same turn resolve to exactly one commit.
type Service struct {
	sessions   SessionStore
	picks      PickStore
	players    PlayerStore
	queues     *QueueManager
	strat      AutoPickStrategy
	bus        EventBus
	dispatcher notify.Dispatcher
	clock      clockwork.Clock

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex

	wakeMu sync.Mutex
	wake   func()
}

func NewService(sessions SessionStore, picks PickStore, players PlayerStore, queues *QueueManager, strat AutoPickStrategy, bus EventBus, dispatcher notify.Dispatcher, clock clockwork.Clock) *Service {
	return &Service{
		sessions:   sessions,
		picks:      picks,
		players:    players,
		queues:     queues,
		strat:      strat,
		bus:        bus,
		dispatcher: dispatcher,
		clock:      clock,
		locks:      make(map[uuid.UUID]*sync.Mutex),
	}
}

// SetWake registers the supervisor's wake callback, invoked whenever a
// deadline is armed or moved so the scheduler can re-evaluate.
func (s *Service) SetWake(wake func()) {
	s.wakeMu.Lock()
	s.wake = wake
	s.wakeMu.Unlock()
}

func (s *Service) wakeSupervisor() {
	s.wakeMu.Lock()
	wake := s.wake
	s.wakeMu.Unlock()
	if wake != nil {
		wake()
	}
}

// sessionLock returns the serialization point for one session id.
func (s *Service) sessionLock(sessionID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

// CreateSession registers a new session in SCHEDULED state.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (*models.DraftSession, error) {
	if req.TotalRounds < 1 {
		return nil, fmt.Errorf("%w: total rounds must be at least 1", ErrInvalidDraftParameters)
	}
	if len(req.DraftOrder) < 2 {
		return nil, fmt.Errorf("%w: at least 2 teams required", ErrInvalidDraftParameters)
	}
	if req.PickTimerSec < 5 {
		return nil, fmt.Errorf("%w: pick timer must be at least 5 seconds", ErrInvalidDraftParameters)
	}
	seen := make(map[uuid.UUID]bool, len(req.DraftOrder))
	for _, teamID := range req.DraftOrder {
		if seen[teamID] {
			return nil, fmt.Errorf("%w: duplicate team %s in draft order", ErrInvalidDraftParameters, teamID)
		}
		seen[teamID] = true
	}
	if req.Mode != models.DraftModeLinear && req.Mode != models.DraftModeSnake {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidDraftParameters, req.Mode)
	}

	now := s.clock.Now()
	session := &models.DraftSession{
		ID:           uuid.New(),
		LeagueID:     req.LeagueID,
		Mode:         req.Mode,
		Status:       models.SessionStatusScheduled,
		TotalRounds:  req.TotalRounds,
		DraftOrder:   req.DraftOrder,
		PickTimerSec: req.PickTimerSec,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Info().
		Str("session_id", session.ID.String()).
		Str("mode", string(session.Mode)).
		Int("rounds", session.TotalRounds).
		Int("teams", session.TeamCount()).
		Msg("draft session created")

	return session, nil
}

// GetSession returns one session.
func (s *Service) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.DraftSession, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// ListPicks returns a session's committed picks in overall-pick order.
func (s *Service) ListPicks(ctx context.Context, sessionID uuid.UUID) ([]models.DraftPick, error) {
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		return nil, ErrSessionNotFound
	}
	return s.picks.ListPicks(ctx, sessionID)
}

// SetQueue replaces a team's ranked queue. It takes the session lock so a
// replacement can never interleave with the auto-pick path popping the same
// queue; whichever side enters second sees the other's completed write.
func (s *Service) SetQueue(ctx context.Context, sessionID, teamID uuid.UUID, playerIDs []uuid.UUID) (*models.DraftQueue, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()
	return s.queues.SetQueue(ctx, sessionID, teamID, playerIDs)
}

// GetQueue returns a team's current queue.
func (s *Service) GetQueue(ctx context.Context, sessionID, teamID uuid.UUID) (*models.DraftQueue, error) {
	return s.queues.GetQueue(ctx, sessionID, teamID)
}

// Start transitions SCHEDULED -> ACTIVE, seeding round 1, pick 1, the first
// team in the order and the first deadline.
func (s *Service) Start(ctx context.Context, sessionID uuid.UUID) (*models.DraftSession, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if session.Status != models.SessionStatusScheduled {
		return nil, fmt.Errorf("%w: status is %s", ErrSessionNotScheduled, session.Status)
	}

	firstTeam, err := TeamOnClock(1, 1, session.Mode, session.DraftOrder)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	expires := now.Add(time.Duration(session.PickTimerSec) * time.Second)
	session.Status = models.SessionStatusActive
	session.CurrentRound = 1
	session.CurrentPick = 1
	session.CurrentTeamID = firstTeam
	session.TimerExpiresAt = &expires
	session.StartedAt = &now
	session.UpdatedAt = now

	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	log.Info().
		Str("session_id", sessionID.String()).
		Str("first_team", firstTeam.String()).
		Time("deadline", expires).
		Msg("draft session started")

	s.publishSessionUpdate(session, "")
	s.wakeSupervisor()
	return session, nil
}

// Pause transitions ACTIVE -> PAUSED. The armed deadline is kept so Resume
// can re-arm with the remaining time.
func (s *Service) Pause(ctx context.Context, sessionID uuid.UUID) (*models.DraftSession, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if session.Status != models.SessionStatusActive {
		return nil, fmt.Errorf("%w: status is %s", ErrSessionNotActive, session.Status)
	}

	now := s.clock.Now()
	session.Status = models.SessionStatusPaused
	session.PausedAt = &now
	session.UpdatedAt = now

	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to pause session: %w", err)
	}

	log.Info().Str("session_id", sessionID.String()).Msg("draft session paused")
	s.publishSessionUpdate(session, "")
	return session, nil
}

// Resume transitions PAUSED -> ACTIVE, re-arming the timer with the time the
// on-clock team had left when the session paused.
func (s *Service) Resume(ctx context.Context, sessionID uuid.UUID) (*models.DraftSession, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if session.Status != models.SessionStatusPaused {
		return nil, fmt.Errorf("%w: status is %s", ErrSessionNotPaused, session.Status)
	}

	now := s.clock.Now()
	remaining := time.Duration(session.PickTimerSec) * time.Second
	if session.TimerExpiresAt != nil && session.PausedAt != nil {
		remaining = session.TimerExpiresAt.Sub(*session.PausedAt)
		if remaining < 0 {
			remaining = 0
		}
	}
	expires := now.Add(remaining)
	session.Status = models.SessionStatusActive
	session.TimerExpiresAt = &expires
	session.PausedAt = nil
	session.UpdatedAt = now

	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to resume session: %w", err)
	}

	log.Info().
		Str("session_id", sessionID.String()).
		Dur("remaining", remaining).
		Msg("draft session resumed")

	s.publishSessionUpdate(session, "")
	s.wakeSupervisor()
	return session, nil
}

// Cancel administratively terminates a session from any non-terminal state.
func (s *Service) Cancel(ctx context.Context, sessionID uuid.UUID) (*models.DraftSession, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	switch session.Status {
	case models.SessionStatusCompleted, models.SessionStatusCancelled:
		return nil, fmt.Errorf("%w: status is %s", ErrSessionTerminal, session.Status)
	}

	now := s.clock.Now()
	session.Status = models.SessionStatusCancelled
	session.TimerExpiresAt = nil
	session.UpdatedAt = now

	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to cancel session: %w", err)
	}

	log.Info().Str("session_id", sessionID.String()).Msg("draft session cancelled")
	s.publishSessionUpdate(session, "session cancelled")
	s.bus.CloseSession(sessionID)
	return session, nil
}

// SubmitPick validates and commits a manual pick for the on-clock team. When
// playerID is nil the target is resolved by the auto-pick strategy.
func (s *Service) SubmitPick(ctx context.Context, sessionID, teamID uuid.UUID, playerID *uuid.UUID) (*models.DraftPick, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if session.Status != models.SessionStatusActive {
		return nil, fmt.Errorf("%w: status is %s", ErrSessionNotActive, session.Status)
	}
	if teamID != session.CurrentTeamID {
		return nil, ErrTeamNotOnClock
	}

	return s.resolvePick(ctx, session, playerID)
}

// ExpireTurn is the timer path. It re-checks under the session lock that the
// deadline the supervisor saw is still due; a turn that already advanced is
// discarded silently, which resolves the race with a concurrent manual pick.
func (s *Service) ExpireTurn(ctx context.Context, sessionID uuid.UUID) (*models.DraftPick, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if session.Status != models.SessionStatusActive {
		return nil, nil
	}
	if session.TimerExpiresAt == nil || s.clock.Now().Before(*session.TimerExpiresAt) {
		// A manual pick won the race and re-armed the clock.
		return nil, nil
	}

	log.Info().
		Str("session_id", sessionID.String()).
		Str("team_id", session.CurrentTeamID.String()).
		Int("round", session.CurrentRound).
		Int("pick", session.CurrentPick).
		Msg("pick timer expired, auto-picking")

	pick, err := s.resolvePick(ctx, session, nil)
	if errors.Is(err, ErrAutoPickExhausted) {
		return nil, nil
	}
	return pick, err
}

// resolvePick commits one pick for the session's current turn and advances
// it. Caller holds the session lock and has validated status and turn
// ownership.
func (s *Service) resolvePick(ctx context.Context, session *models.DraftSession, playerID *uuid.UUID) (*models.DraftPick, error) {
	pickType := models.PickTypeManual
	var targetID uuid.UUID

	if playerID != nil {
		player, err := s.players.GetPlayer(ctx, *playerID)
		if err != nil {
			return nil, ErrPlayerNotFound
		}
		if player.DraftStatus != models.DraftStatusAvailable {
			return nil, ErrPlayerUnavailable
		}
		targetID = player.ID
	} else {
		pickType = models.PickTypeAuto
		id, err := s.strat.SelectPlayer(ctx, session)
		if errors.Is(err, ErrAutoPickExhausted) {
			return nil, s.advanceWithoutPick(ctx, session)
		}
		if err != nil {
			return nil, fmt.Errorf("auto-pick selection failed: %w", err)
		}
		targetID = id
	}

	now := s.clock.Now()
	pick := &models.DraftPick{
		ID:          uuid.New(),
		SessionID:   session.ID,
		Round:       session.CurrentRound,
		Pick:        session.CurrentPick,
		OverallPick: models.OverallPick(session.CurrentRound, session.CurrentPick, session.TeamCount()),
		TeamID:      session.CurrentTeamID,
		PlayerID:    targetID,
		PickType:    pickType,
		DurationSec: s.turnDuration(session, now),
		PickedAt:    now,
	}

	// The claim and the pick record commit together: CommitPick runs the
	// AVAILABLE -> DRAFTED flip and the insert as one atomic operation, a
	// single transaction in postgres.
	claim := ClaimRequest{
		PlayerID:  targetID,
		SessionID: session.ID,
		TeamID:    session.CurrentTeamID,
		Round:     session.CurrentRound,
		Pick:      session.CurrentPick,
	}
	if err := s.picks.CommitPick(ctx, claim, pick); err != nil {
		if errors.Is(err, ErrPlayerTaken) {
			return nil, ErrPlayerUnavailable
		}
		return nil, fmt.Errorf("failed to commit pick: %w", err)
	}

	if err := s.advanceTurn(ctx, session, now); err != nil {
		return nil, err
	}

	log.Info().
		Str("session_id", session.ID.String()).
		Str("team_id", pick.TeamID.String()).
		Str("player_id", pick.PlayerID.String()).
		Str("pick_type", string(pick.PickType)).
		Int("overall_pick", pick.OverallPick).
		Msg("pick committed")

	s.publishPickMade(session, pick)
	s.publishSessionUpdate(session, "")
	s.dispatchNotification(pick)
	s.wakeSupervisor()
	return pick, nil
}

// advanceWithoutPick moves the turn forward when no player could be resolved.
// The draft must never deadlock because a team has nothing left to pick.
func (s *Service) advanceWithoutPick(ctx context.Context, session *models.DraftSession) error {
	log.Warn().
		Str("session_id", session.ID.String()).
		Str("team_id", session.CurrentTeamID.String()).
		Int("round", session.CurrentRound).
		Int("pick", session.CurrentPick).
		Msg("no players available, skipping turn")

	if err := s.advanceTurn(ctx, session, s.clock.Now()); err != nil {
		return err
	}

	s.publishSessionUpdate(session, "turn skipped: no players available")
	s.wakeSupervisor()
	return ErrAutoPickExhausted
}

// advanceTurn computes the next turn, detects completion, and persists the
// session. Caller holds the session lock.
func (s *Service) advanceTurn(ctx context.Context, session *models.DraftSession, now time.Time) error {
	next, err := NextTurn(session.CurrentRound, session.CurrentPick, session.Mode, session.DraftOrder)
	if err != nil {
		return err
	}

	if models.OverallPick(next.Round, next.Pick, session.TeamCount()) > session.TotalPicks() {
		session.Status = models.SessionStatusCompleted
		session.TimerExpiresAt = nil
		session.CompletedAt = &now
		session.UpdatedAt = now
		if err := s.sessions.UpdateSession(ctx, session); err != nil {
			return fmt.Errorf("failed to complete session: %w", err)
		}
		log.Info().Str("session_id", session.ID.String()).Msg("draft session completed")
		return nil
	}

	expires := now.Add(time.Duration(session.PickTimerSec) * time.Second)
	session.CurrentRound = next.Round
	session.CurrentPick = next.Pick
	session.CurrentTeamID = next.TeamID
	session.TimerExpiresAt = &expires
	session.UpdatedAt = now
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return fmt.Errorf("failed to advance turn: %w", err)
	}
	return nil
}

// turnDuration returns how long the current turn has been on the clock.
func (s *Service) turnDuration(session *models.DraftSession, now time.Time) int {
	if session.TimerExpiresAt == nil {
		return 0
	}
	turnStart := session.TimerExpiresAt.Add(-time.Duration(session.PickTimerSec) * time.Second)
	d := int(now.Sub(turnStart) / time.Second)
	if d < 0 {
		return 0
	}
	return d
}

func (s *Service) publishSessionUpdate(session *models.DraftSession, notice string) {
	s.bus.Publish(events.Event{
		Type:      events.EventSessionUpdate,
		SessionID: session.ID.String(),
		Timestamp: s.clock.Now(),
		Payload: events.SessionUpdatePayload{
			Status:         string(session.Status),
			CurrentRound:   session.CurrentRound,
			CurrentPick:    session.CurrentPick,
			CurrentTeamID:  session.CurrentTeamID.String(),
			TimerExpiresAt: session.TimerExpiresAt,
			Notice:         notice,
		},
	})
	if session.Status == models.SessionStatusCompleted {
		s.bus.CloseSession(session.ID)
	}
}

func (s *Service) publishPickMade(session *models.DraftSession, pick *models.DraftPick) {
	payload := events.PickMadePayload{
		PickID:      pick.ID.String(),
		TeamID:      pick.TeamID.String(),
		PlayerID:    pick.PlayerID.String(),
		Round:       pick.Round,
		Pick:        pick.Pick,
		OverallPick: pick.OverallPick,
		PickType:    string(pick.PickType),
		MadeAt:      pick.PickedAt,
	}
	if player, err := s.players.GetPlayer(context.Background(), pick.PlayerID); err == nil {
		payload.PlayerName = player.FullName
	}
	s.bus.Publish(events.Event{
		Type:      events.EventPickMade,
		SessionID: session.ID.String(),
		Timestamp: s.clock.Now(),
		Payload:   payload,
	})
}

// dispatchNotification hands the pick to the outreach dispatcher without
// blocking or failing the commit.
func (s *Service) dispatchNotification(pick *models.DraftPick) {
	pickCopy := *pick
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		n := notify.PickNotification{
			Pick:   pickCopy,
			TeamID: pickCopy.TeamID,
		}
		if player, err := s.players.GetPlayer(ctx, pickCopy.PlayerID); err == nil {
			n.PlayerName = player.FullName
		}
		if err := s.dispatcher.DispatchPickMade(ctx, n); err != nil {
			log.Error().Err(err).
				Str("session_id", pickCopy.SessionID.String()).
				Str("pick_id", pickCopy.ID.String()).
				Msg("failed to dispatch pick notification")
		}
	}()
}
