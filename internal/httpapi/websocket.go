package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/leaguelinehq/leagueline/internal/draft"
	"github.com/leaguelinehq/leagueline/internal/events"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteTimeout   = 10 * time.Second
	wsReadTimeout    = 60 * time.Second
	wsPingInterval   = 30 * time.Second
	wsMaxMessageSize = 1024
)

// WebsocketHandler mirrors the event stream over a websocket for the
// draft-room UI. Same bus subscription as the SSE stream, different framing.
type WebsocketHandler struct {
	service  *draft.Service
	bus      *events.Bus
	upgrader websocket.Upgrader
}

func NewWebsocketHandler(service *draft.Service, bus *events.Bus) *WebsocketHandler {
	return &WebsocketHandler{
		service: service,
		bus:     bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins in development - restrict in production
				return true
			},
		},
	}
}

func (h *WebsocketHandler) serve(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseID(w, chi.URLParam(r, "sessionID"))
	if !ok {
		return
	}
	if _, err := h.service.GetSession(r.Context(), sessionID); err != nil {
		writeServiceError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade websocket connection")
		return
	}

	sub := h.bus.Subscribe(sessionID)

	log.Info().
		Str("subscription_id", sub.ID).
		Str("session_id", sessionID.String()).
		Msg("websocket observer connected")

	go h.writePump(conn, sub)
	go h.readPump(conn, sub)
}

// writePump forwards bus events to the socket and keeps it alive with pings.
func (h *WebsocketHandler) writePump(conn *websocket.Conn, sub *events.Subscription) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
		h.bus.Unsubscribe(sub)
	}()

	for {
		select {
		case event, open := <-sub.Events():
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !open {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				log.Error().Err(err).Msg("failed to marshal websocket event")
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the socket so pongs and close frames are processed.
// Observers are read-only; inbound payloads are discarded.
func (h *WebsocketHandler) readPump(conn *websocket.Conn, sub *events.Subscription) {
	defer func() {
		h.bus.Unsubscribe(sub)
		conn.Close()
	}()

	conn.SetReadLimit(wsMaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
