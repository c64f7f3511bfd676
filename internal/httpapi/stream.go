package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/leaguelinehq/leagueline/internal/draft"
	"github.com/leaguelinehq/leagueline/internal/events"
	"github.com/rs/zerolog/log"
)

const heartbeatInterval = 30 * time.Second

// StreamHandler serves the live event stream: framed text events over a
// long-lived response, one `data: <JSON>` frame per event, with a heartbeat
// after every 30s of inactivity.
type StreamHandler struct {
	service *draft.Service
	bus     *events.Bus
	clock   clockwork.Clock
}

func NewStreamHandler(service *draft.Service, bus *events.Bus, clock clockwork.Clock) *StreamHandler {
	return &StreamHandler{
		service: service,
		bus:     bus,
		clock:   clock,
	}
}

func (h *StreamHandler) stream(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseID(w, chi.URLParam(r, "sessionID"))
	if !ok {
		return
	}
	if _, err := h.service.GetSession(r.Context(), sessionID); err != nil {
		writeServiceError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sub := h.bus.Subscribe(sessionID)
	defer h.bus.Unsubscribe(sub)

	writeFrame := func(event events.Event) bool {
		data, err := json.Marshal(event)
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal stream event")
			return true
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !writeFrame(events.Event{
		Type:      events.EventConnected,
		SessionID: sessionID.String(),
		Timestamp: h.clock.Now(),
	}) {
		return
	}

	heartbeat := h.clock.NewTimer(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case event, open := <-sub.Events():
			if !open {
				// Session torn down or this subscriber fell behind.
				return
			}
			if !writeFrame(event) {
				return
			}
			heartbeat.Reset(heartbeatInterval)

		case <-heartbeat.Chan():
			if !writeFrame(events.Event{
				Type:      events.EventHeartbeat,
				SessionID: sessionID.String(),
				Timestamp: h.clock.Now(),
			}) {
				return
			}
			heartbeat.Reset(heartbeatInterval)
		}
	}
}
