package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// NewRouter builds the HTTP surface of the draft service.
func NewRouter(h *Handlers, ws *WebsocketHandler) http.Handler {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.createSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.getSession)
			r.Get("/picks", h.listPicks)
			r.Post("/start", h.startSession)
			r.Post("/pause", h.pauseSession)
			r.Post("/resume", h.resumeSession)
			r.Post("/cancel", h.cancelSession)
			r.Post("/picks", h.submitPick)
			r.Get("/stream", h.streams.stream)
			r.Get("/ws", ws.serve)
			r.Route("/teams/{teamID}", func(r chi.Router) {
				r.Put("/queue", h.setQueue)
				r.Get("/queue", h.getQueue)
			})
		})
	})

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(router)
}
