package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leaguelinehq/leagueline/internal/draft"
	"github.com/leaguelinehq/leagueline/internal/models"
	"github.com/rs/zerolog/log"
)

// Handlers exposes the draft engine over HTTP.
type Handlers struct {
	service *draft.Service
	streams *StreamHandler
}

func NewHandlers(service *draft.Service, streams *StreamHandler) *Handlers {
	return &Handlers{
		service: service,
		streams: streams,
	}
}

type createSessionRequest struct {
	LeagueID     uuid.UUID   `json:"league_id"`
	Mode         string      `json:"mode"`
	TotalRounds  int         `json:"total_rounds"`
	DraftOrder   []uuid.UUID `json:"draft_order"`
	PickTimerSec int         `json:"pick_timer_sec"`
}

func (h *Handlers) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.service.CreateSession(r.Context(), draft.CreateSessionRequest{
		LeagueID:     req.LeagueID,
		Mode:         models.DraftMode(req.Mode),
		TotalRounds:  req.TotalRounds,
		DraftOrder:   req.DraftOrder,
		PickTimerSec: req.PickTimerSec,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *Handlers) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseID(w, chi.URLParam(r, "sessionID"))
	if !ok {
		return
	}
	session, err := h.service.GetSession(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handlers) listPicks(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseID(w, chi.URLParam(r, "sessionID"))
	if !ok {
		return
	}
	picks, err := h.service.ListPicks(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"picks": picks})
}

func (h *Handlers) startSession(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Start)
}

func (h *Handlers) pauseSession(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Pause)
}

func (h *Handlers) resumeSession(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Resume)
}

func (h *Handlers) cancelSession(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Cancel)
}

func (h *Handlers) lifecycle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id uuid.UUID) (*models.DraftSession, error)) {
	sessionID, ok := parseID(w, chi.URLParam(r, "sessionID"))
	if !ok {
		return
	}
	session, err := op(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type submitPickRequest struct {
	TeamID   uuid.UUID  `json:"team_id"`
	PlayerID *uuid.UUID `json:"player_id,omitempty"`
}

func (h *Handlers) submitPick(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseID(w, chi.URLParam(r, "sessionID"))
	if !ok {
		return
	}

	var req submitPickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pick, err := h.service.SubmitPick(r.Context(), sessionID, req.TeamID, req.PlayerID)
	if errors.Is(err, draft.ErrAutoPickExhausted) {
		// Non-fatal: the turn advanced with no pick.
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"pick":   nil,
			"notice": "no players available, turn skipped",
		})
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pick)
}

type setQueueRequest struct {
	PlayerIDs []uuid.UUID `json:"player_ids"`
}

func (h *Handlers) setQueue(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseID(w, chi.URLParam(r, "sessionID"))
	if !ok {
		return
	}
	teamID, ok := parseID(w, chi.URLParam(r, "teamID"))
	if !ok {
		return
	}

	var req setQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	queue, err := h.service.SetQueue(r.Context(), sessionID, teamID, req.PlayerIDs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queue)
}

func (h *Handlers) getQueue(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseID(w, chi.URLParam(r, "sessionID"))
	if !ok {
		return
	}
	teamID, ok := parseID(w, chi.URLParam(r, "teamID"))
	if !ok {
		return
	}

	queue, err := h.service.GetQueue(r.Context(), sessionID, teamID)
	if errors.Is(err, draft.ErrQueueNotFound) {
		writeError(w, http.StatusNotFound, "no queue found")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queue)
}

func parseID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed id")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps engine errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, draft.ErrSessionNotFound),
		errors.Is(err, draft.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, draft.ErrSessionNotActive),
		errors.Is(err, draft.ErrSessionNotScheduled),
		errors.Is(err, draft.ErrSessionNotPaused),
		errors.Is(err, draft.ErrSessionTerminal),
		errors.Is(err, draft.ErrPlayerUnavailable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, draft.ErrTeamNotOnClock),
		errors.Is(err, draft.ErrQueueUpdateRejected):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, draft.ErrInvalidDraftParameters):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
