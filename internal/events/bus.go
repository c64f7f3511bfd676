package events

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const subscriberBuffer = 64

// Subscription is one observer's handle on a session's event stream.
// Events() is closed when the subscription is dropped, either by Unsubscribe
// or because the subscriber fell too far behind.
type Subscription struct {
	ID        string
	SessionID uuid.UUID
	ch        chan Event
}

// Events returns the receive side of the subscription.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Bus fans session events out to subscribers, keyed by session id.
type Bus struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[*Subscription]bool
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[uuid.UUID]map[*Subscription]bool),
	}
}

// Subscribe registers an observer for one session.
func (b *Bus) Subscribe(sessionID uuid.UUID) *Subscription {
	sub := &Subscription{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		ch:        make(chan Event, subscriberBuffer),
	}

	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[*Subscription]bool)
	}
	b.subs[sessionID][sub] = true
	total := len(b.subs[sessionID])
	b.mu.Unlock()

	log.Debug().
		Str("subscription_id", sub.ID).
		Str("session_id", sessionID.String()).
		Int("total_subscribers", total).
		Msg("subscriber registered")

	return sub
}

// Unsubscribe drops an observer and closes its channel.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dropLocked(sub)
}

func (b *Bus) dropLocked(sub *Subscription) {
	sessionSubs, ok := b.subs[sub.SessionID]
	if !ok || !sessionSubs[sub] {
		return
	}
	delete(sessionSubs, sub)
	close(sub.ch)
	if len(sessionSubs) == 0 {
		delete(b.subs, sub.SessionID)
	}
}

// Publish delivers an event to every subscriber of its session. Subscribers
// whose buffer is full are dropped rather than allowed to block the draft.
func (b *Bus) Publish(event Event) {
	sessionID, err := uuid.Parse(event.SessionID)
	if err != nil {
		log.Error().Str("session_id", event.SessionID).Msg("publish with malformed session id")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs[sessionID] {
		select {
		case sub.ch <- event:
		default:
			log.Warn().
				Str("subscription_id", sub.ID).
				Str("session_id", event.SessionID).
				Msg("subscriber buffer full, dropping subscriber")
			b.dropLocked(sub)
		}
	}
}

// CloseSession drops every subscriber of a torn-down session.
func (b *Bus) CloseSession(sessionID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs[sessionID] {
		b.dropLocked(sub)
	}
}

// SubscriberCount reports how many observers a session currently has.
func (b *Bus) SubscriberCount(sessionID uuid.UUID) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[sessionID])
}
