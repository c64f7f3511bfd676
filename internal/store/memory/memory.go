// Package memory provides in-memory store implementations. They back the
// development server and the engine tests; production deployments swap in the
// postgres package behind the same interfaces.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leaguelinehq/leagueline/internal/draft"
	"github.com/leaguelinehq/leagueline/internal/models"
)

// SessionStore is an in-memory draft.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]models.DraftSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uuid.UUID]models.DraftSession)}
}

func (s *SessionStore) CreateSession(ctx context.Context, session *models.DraftSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

func (s *SessionStore) GetSession(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, draft.ErrSessionNotFound
	}
	out := cloneSession(&session)
	return &out, nil
}

func (s *SessionStore) UpdateSession(ctx context.Context, session *models.DraftSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return draft.ErrSessionNotFound
	}
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

func (s *SessionStore) FetchNextDeadline(ctx context.Context) (*draft.NextDeadline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var next *draft.NextDeadline
	for id, session := range s.sessions {
		if session.Status != models.SessionStatusActive || session.TimerExpiresAt == nil {
			continue
		}
		if next == nil || session.TimerExpiresAt.Before(next.Deadline) {
			next = &draft.NextDeadline{SessionID: id, Deadline: *session.TimerExpiresAt}
		}
	}
	if next == nil {
		return nil, draft.ErrNoDeadline
	}
	return next, nil
}

func (s *SessionStore) FetchSessionsDue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []uuid.UUID
	for id, session := range s.sessions {
		if session.Status != models.SessionStatusActive || session.TimerExpiresAt == nil {
			continue
		}
		if !session.TimerExpiresAt.After(now) {
			due = append(due, id)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].String() < due[j].String() })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func cloneSession(s *models.DraftSession) models.DraftSession {
	out := *s
	out.DraftOrder = append([]uuid.UUID(nil), s.DraftOrder...)
	out.TimerExpiresAt = cloneTime(s.TimerExpiresAt)
	out.PausedAt = cloneTime(s.PausedAt)
	out.StartedAt = cloneTime(s.StartedAt)
	out.CompletedAt = cloneTime(s.CompletedAt)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// PickStore is an in-memory draft.PickStore. CommitPick claims through the
// player store first; the append itself cannot fail, so the two effects never
// apply partially.
type PickStore struct {
	mu      sync.RWMutex
	picks   map[uuid.UUID][]models.DraftPick
	players *PlayerStore
}

func NewPickStore(players *PlayerStore) *PickStore {
	return &PickStore{
		picks:   make(map[uuid.UUID][]models.DraftPick),
		players: players,
	}
}

func (s *PickStore) CommitPick(ctx context.Context, claim draft.ClaimRequest, pick *models.DraftPick) error {
	if err := s.players.claim(claim); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.picks[pick.SessionID] = append(s.picks[pick.SessionID], *pick)
	return nil
}

func (s *PickStore) ListPicks(ctx context.Context, sessionID uuid.UUID) ([]models.DraftPick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.DraftPick(nil), s.picks[sessionID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].OverallPick < out[j].OverallPick })
	return out, nil
}

// QueueStore is an in-memory draft.QueueStore.
type QueueStore struct {
	mu     sync.RWMutex
	queues map[queueKey]models.DraftQueue
}

type queueKey struct {
	sessionID uuid.UUID
	teamID    uuid.UUID
}

func NewQueueStore() *QueueStore {
	return &QueueStore{queues: make(map[queueKey]models.DraftQueue)}
}

func (s *QueueStore) GetQueue(ctx context.Context, sessionID, teamID uuid.UUID) (*models.DraftQueue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	queue, ok := s.queues[queueKey{sessionID, teamID}]
	if !ok {
		return nil, draft.ErrQueueNotFound
	}
	out := queue
	out.PlayerIDs = append([]uuid.UUID(nil), queue.PlayerIDs...)
	return &out, nil
}

func (s *QueueStore) PutQueue(ctx context.Context, queue *models.DraftQueue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *queue
	stored.PlayerIDs = append([]uuid.UUID(nil), queue.PlayerIDs...)
	s.queues[queueKey{queue.SessionID, queue.TeamID}] = stored
	return nil
}

// PlayerStore is an in-memory draft.PlayerStore. PickStore reaches through
// it for the atomic claim half of a pick commit.
type PlayerStore struct {
	mu      sync.Mutex
	players map[uuid.UUID]models.Player
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{players: make(map[uuid.UUID]models.Player)}
}

// AddPlayer seeds a player into the pool.
func (s *PlayerStore) AddPlayer(player models.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if player.DraftStatus == "" {
		player.DraftStatus = models.DraftStatusAvailable
	}
	s.players[player.ID] = player
}

func (s *PlayerStore) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[id]
	if !ok {
		return nil, draft.ErrPlayerNotFound
	}
	return &player, nil
}

func (s *PlayerStore) IsAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[id]
	if !ok {
		return false, draft.ErrPlayerNotFound
	}
	return player.DraftStatus == models.DraftStatusAvailable, nil
}

func (s *PlayerStore) ListAvailable(ctx context.Context) ([]models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Player
	for _, player := range s.players {
		if player.DraftStatus == models.DraftStatusAvailable {
			out = append(out, player)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// claim flips AVAILABLE -> DRAFTED under the store lock, so two concurrent
// commits for the same player resolve to one winner.
func (s *PlayerStore) claim(req draft.ClaimRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[req.PlayerID]
	if !ok {
		return draft.ErrPlayerNotFound
	}
	if player.DraftStatus != models.DraftStatusAvailable {
		return draft.ErrPlayerTaken
	}
	player.DraftStatus = models.DraftStatusDrafted
	s.players[req.PlayerID] = player
	return nil
}
