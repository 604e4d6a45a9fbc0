package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Dosada05/bracket-of-death/handlers"
	"github.com/Dosada05/bracket-of-death/middleware"
)

type Options struct {
	JWTSecret   []byte
	CORSOrigins []string
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	Log     *zap.SugaredLogger
}

func SetupRoutes(
	router *chi.Mux,
	opts Options,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(opts.Log))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		router.Handle("/metrics", opts.Metrics)
	}

	// the websocket route stays outside the timeout so connections live on
	router.Get("/ws/tournaments/{id}", webSocketHandler.ServeWs)

	authenticate := middleware.Authenticate(opts.JWTSecret, opts.Log)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Route("/tournaments/{id}", func(r chi.Router) {
			r.Get("/live", tournamentHandler.LiveHandler)
			r.Get("/phase", tournamentHandler.PhaseHandler)
			r.Get("/standings", tournamentHandler.StandingsHandler)
			r.Get("/matches", matchHandler.ListHandler)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/actions", tournamentHandler.ActionHandler)
				r.Post("/advance", tournamentHandler.AdvanceHandler)
				r.Post("/matches/generate", tournamentHandler.GenerateHandler)
				r.Post("/matches/confirm", matchHandler.ConfirmHandler)
				r.Post("/checkin", tournamentHandler.CheckInHandler)
			})
		})

		r.Route("/matches/{id}", func(r chi.Router) {
			r.Get("/", matchHandler.GetHandler)
			r.With(authenticate).Patch("/", matchHandler.UpdateHandler)
		})
	})
}
