package draft

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	idlePollDuration = 5 * time.Second
	defaultBatchSize = 25
	defaultWorkers   = 10
)

// Supervisor tracks the active sessions' deadlines and fires the auto-pick
// path when one expires. A single reusable timer sleeps until the soonest
// deadline; the wake channel preempts the sleep whenever a sooner deadline is
// armed. Expiries fan out to a worker pool with in-flight deduplication, and
// the service's deadline re-check under the session lock guarantees at most
// one auto-pick per turn no matter how often a session is scheduled.
type Supervisor struct {
	service  *Service
	sessions SessionStore
	clock    clockwork.Clock

	batchSize  int
	numWorkers int
	wakeCh     chan struct{}
	workCh     chan uuid.UUID
	instanceID string

	inFlight   map[uuid.UUID]bool
	inFlightMu sync.Mutex
}

func NewSupervisor(service *Service, sessions SessionStore, clock clockwork.Clock, batchSize, numWorkers int) *Supervisor {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	s := &Supervisor{
		service:    service,
		sessions:   sessions,
		clock:      clock,
		batchSize:  batchSize,
		numWorkers: numWorkers,
		wakeCh:     make(chan struct{}, 1),
		instanceID: uuid.New().String()[:8], // short ID for logging
		inFlight:   make(map[uuid.UUID]bool),
	}
	s.workCh = make(chan uuid.UUID, s.numWorkers*2)
	service.SetWake(s.Wake)
	return s
}

// Wake nudges the scheduler to re-read the next deadline.
func (s *Supervisor) Wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// Run loops until ctx is done, sleeping until the next deadline and firing
// expiries.
func (s *Supervisor) Run(ctx context.Context) error {
	log.Info().Str("instance", s.instanceID).Int("workers", s.numWorkers).Msg("timer supervisor started")

	var wg sync.WaitGroup
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	for i := 0; i < s.numWorkers; i++ {
		wg.Add(1)
		go s.worker(workerCtx, &wg, i)
	}
	defer func() {
		cancelWorkers()
		close(s.workCh)
		wg.Wait()
		log.Info().Str("instance", s.instanceID).Msg("all workers shut down")
	}()

	timer := s.clock.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		select {
		case <-s.wakeCh:
		default:
		}

		nd, err := s.sessions.FetchNextDeadline(ctx)
		if errors.Is(err, ErrNoDeadline) {
			// No active session has an armed timer; idle until woken.
			timer.Reset(idlePollDuration)
			select {
			case <-timer.Chan():
				continue
			case <-s.wakeCh:
				continue
			case <-ctx.Done():
				log.Info().Str("instance", s.instanceID).Msg("shutdown during idle")
				return nil
			}
		}
		if err != nil {
			log.Error().Err(err).Str("instance", s.instanceID).Msg("error fetching next deadline")
			timer.Reset(time.Second)
			select {
			case <-timer.Chan():
				continue
			case <-ctx.Done():
				return nil
			}
		}

		if wait := nd.Deadline.Sub(s.clock.Now()); wait > 0 {
			timer.Reset(wait)
			select {
			case <-timer.Chan():
			case <-s.wakeCh:
				// A sooner deadline may have been armed.
				continue
			case <-ctx.Done():
				log.Info().Str("instance", s.instanceID).Msg("shutdown during wait")
				return nil
			}
		}

		due, err := s.sessions.FetchSessionsDue(ctx, s.clock.Now(), s.batchSize)
		if err != nil {
			log.Error().Err(err).Str("instance", s.instanceID).Msg("error fetching due sessions")
			timer.Reset(time.Second)
			select {
			case <-timer.Chan():
				continue
			case <-ctx.Done():
				return nil
			}
		}

		for _, sessionID := range due {
			s.inFlightMu.Lock()
			if s.inFlight[sessionID] {
				s.inFlightMu.Unlock()
				continue
			}
			s.inFlight[sessionID] = true
			s.inFlightMu.Unlock()

			select {
			case s.workCh <- sessionID:
			case <-ctx.Done():
				s.inFlightMu.Lock()
				delete(s.inFlight, sessionID)
				s.inFlightMu.Unlock()
				log.Info().Str("instance", s.instanceID).Msg("shutdown while queueing expiries")
				return nil
			}
		}
	}
}

// worker processes expired turns from the work channel.
func (s *Supervisor) worker(ctx context.Context, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case sessionID, ok := <-s.workCh:
			if !ok {
				return
			}

			if _, err := s.service.ExpireTurn(ctx, sessionID); err != nil {
				log.Error().Err(err).
					Str("session_id", sessionID.String()).
					Str("instance", s.instanceID).
					Int("worker_id", workerID).
					Msg("auto-pick on expiry failed")
			}

			s.inFlightMu.Lock()
			delete(s.inFlight, sessionID)
			s.inFlightMu.Unlock()
		}
	}
}
