package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/leaguelinehq/leagueline/internal/draft"
	"github.com/leaguelinehq/leagueline/internal/events"
	"github.com/leaguelinehq/leagueline/internal/models"
	"github.com/leaguelinehq/leagueline/internal/notify"
	"github.com/leaguelinehq/leagueline/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiEnv struct {
	clock   *clockwork.FakeClock
	players *memory.PlayerStore
	bus     *events.Bus
	router  http.Handler
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	clock := clockwork.NewFakeClock()
	sessions := memory.NewSessionStore()
	players := memory.NewPlayerStore()
	bus := events.NewBus()
	queues := draft.NewQueueManager(sessions, memory.NewQueueStore(), clock)
	strat := draft.NewQueueThenRandomStrategy(queues, players)
	service := draft.NewService(sessions, memory.NewPickStore(players), players, queues, strat, bus, notify.NewLogDispatcher(), clock)
	streams := NewStreamHandler(service, bus, clock)
	handlers := NewHandlers(service, streams)

	return &apiEnv{
		clock:   clock,
		players: players,
		bus:     bus,
		router:  NewRouter(handlers, NewWebsocketHandler(service, bus)),
	}
}

func (e *apiEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *apiEnv) createSession(t *testing.T, teams int) (uuid.UUID, []uuid.UUID) {
	t.Helper()

	order := make([]uuid.UUID, teams)
	for i := range order {
		order[i] = uuid.New()
	}
	rec := e.do(t, http.MethodPost, "/sessions", map[string]interface{}{
		"league_id":      uuid.New(),
		"mode":           "SNAKE",
		"total_rounds":   2,
		"draft_order":    order,
		"pick_timer_sec": 30,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var session models.DraftSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	return session.ID, order
}

func (e *apiEnv) seedPlayers(t *testing.T, n int) []uuid.UUID {
	t.Helper()

	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
		e.players.AddPlayer(models.Player{ID: ids[i], FullName: fmt.Sprintf("Player %d", i+1), DraftStatus: models.DraftStatusAvailable})
	}
	return ids
}

func TestCreateSessionEndpoint(t *testing.T) {
	e := newAPIEnv(t)

	sessionID, _ := e.createSession(t, 4)
	assert.NotEqual(t, uuid.Nil, sessionID)

	rec := e.do(t, http.MethodPost, "/sessions", map[string]interface{}{
		"mode":           "SNAKE",
		"total_rounds":   0,
		"draft_order":    []uuid.UUID{uuid.New(), uuid.New()},
		"pick_timer_sec": 30,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/sessions", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSessionEndpoint(t *testing.T) {
	e := newAPIEnv(t)
	sessionID, _ := e.createSession(t, 2)

	rec := e.do(t, http.MethodGet, "/sessions/"+sessionID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var session models.DraftSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, models.SessionStatusScheduled, session.Status)

	rec = e.do(t, http.MethodGet, "/sessions/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDraftFlowOverHTTP(t *testing.T) {
	e := newAPIEnv(t)
	sessionID, order := e.createSession(t, 2)
	playerIDs := e.seedPlayers(t, 5)
	base := "/sessions/" + sessionID.String()

	rec := e.do(t, http.MethodPost, base+"/start", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var session models.DraftSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, models.SessionStatusActive, session.Status)
	assert.Equal(t, order[0], session.CurrentTeamID)

	// Starting twice conflicts.
	rec = e.do(t, http.MethodPost, base+"/start", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Wrong team is forbidden.
	rec = e.do(t, http.MethodPost, base+"/picks", map[string]interface{}{
		"team_id":   order[1],
		"player_id": playerIDs[0],
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPost, base+"/picks", map[string]interface{}{
		"team_id":   order[0],
		"player_id": playerIDs[0],
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var pick models.DraftPick
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pick))
	assert.Equal(t, 1, pick.OverallPick)
	assert.Equal(t, models.PickTypeManual, pick.PickType)

	// Drafted player 409s for the next team.
	rec = e.do(t, http.MethodPost, base+"/picks", map[string]interface{}{
		"team_id":   order[1],
		"player_id": playerIDs[0],
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodGet, base+"/picks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Picks []models.DraftPick `json:"picks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Len(t, listing.Picks, 1)
}

func TestPauseResumeCancelEndpoints(t *testing.T) {
	e := newAPIEnv(t)
	sessionID, _ := e.createSession(t, 2)
	base := "/sessions/" + sessionID.String()

	// Pause before start conflicts.
	rec := e.do(t, http.MethodPost, base+"/pause", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, base+"/start", nil).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, base+"/pause", nil).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, base+"/resume", nil).Code)

	rec = e.do(t, http.MethodPost, base+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var session models.DraftSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, models.SessionStatusCancelled, session.Status)

	rec = e.do(t, http.MethodPost, base+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestQueueEndpoints(t *testing.T) {
	e := newAPIEnv(t)
	sessionID, order := e.createSession(t, 2)
	playerIDs := e.seedPlayers(t, 3)
	queuePath := fmt.Sprintf("/sessions/%s/teams/%s/queue", sessionID, order[1])

	// No queue yet.
	rec := e.do(t, http.MethodGet, queuePath, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Session not active yet.
	rec = e.do(t, http.MethodPut, queuePath, map[string]interface{}{"player_ids": playerIDs})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/sessions/"+sessionID.String()+"/start", nil).Code)

	rec = e.do(t, http.MethodPut, queuePath, map[string]interface{}{"player_ids": playerIDs})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodGet, queuePath, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var queue models.DraftQueue
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &queue))
	assert.Equal(t, playerIDs, queue.PlayerIDs)
}

func TestHealthz(t *testing.T) {
	e := newAPIEnv(t)
	rec := e.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStreamSendsConnectedAndLiveFrames(t *testing.T) {
	e := newAPIEnv(t)
	sessionID, _ := e.createSession(t, 2)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/sessions/"+sessionID.String()+"/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.router.ServeHTTP(rec, req)
	}()

	// Give the handler time to register its subscription, then push a frame.
	require.Eventually(t, func() bool { return e.bus.SubscriberCount(sessionID) == 1 },
		2*time.Second, 10*time.Millisecond)
	e.bus.Publish(events.Event{
		Type:      events.EventSessionUpdate,
		SessionID: sessionID.String(),
		Timestamp: time.Now(),
	})

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler did not exit on client disconnect")
	}

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, `data: {`)
	assert.Contains(t, body, `"type":"connected"`)
	assert.Contains(t, body, `"type":"session-update"`)
	assert.NotContains(t, body, "\ndata: data:")
}

func TestStreamRejectsUnknownSession(t *testing.T) {
	e := newAPIEnv(t)
	rec := e.do(t, http.MethodGet, "/sessions/"+uuid.NewString()+"/stream", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
