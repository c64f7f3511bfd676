package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/leaguelinehq/leagueline/internal/config"
	"github.com/leaguelinehq/leagueline/internal/draft"
	"github.com/leaguelinehq/leagueline/internal/events"
	"github.com/leaguelinehq/leagueline/internal/httpapi"
	"github.com/leaguelinehq/leagueline/internal/notify"
	"github.com/leaguelinehq/leagueline/internal/store/memory"
	"github.com/leaguelinehq/leagueline/internal/store/postgres"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	bus := events.NewBus()

	sessions, picks, queues, players, cleanup, err := setupStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up stores")
	}
	defer cleanup()

	dispatcher, dispatcherCleanup := setupDispatcher(cfg)
	defer dispatcherCleanup()

	queueManager := draft.NewQueueManager(sessions, queues, clock)
	strategy := draft.NewQueueThenRandomStrategy(queueManager, players)
	service := draft.NewService(sessions, picks, players, queueManager, strategy, bus, dispatcher, clock)
	supervisor := draft.NewSupervisor(service, sessions, clock, cfg.Supervisor.BatchSize, cfg.Supervisor.Workers)

	handlers := httpapi.NewHandlers(service, httpapi.NewStreamHandler(service, bus, clock))
	wsHandler := httpapi.NewWebsocketHandler(service, bus)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.NewRouter(handlers, wsHandler),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return supervisor.Run(gctx)
	})

	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("service exited")
	}
	log.Info().Msg("shutdown complete")
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if os.Getenv("LOG_PRETTY") != "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// setupStores selects postgres when DATABASE_URL is set, the in-memory set
// otherwise.
func setupStores(ctx context.Context, cfg *config.Config) (draft.SessionStore, draft.PickStore, draft.QueueStore, draft.PlayerStore, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("no DATABASE_URL set, using in-memory stores")
		players := memory.NewPlayerStore()
		return memory.NewSessionStore(), memory.NewPickStore(players), memory.NewQueueStore(), players, func() {}, nil
	}

	stores, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	log.Info().Msg("connected to postgres")
	return stores.Sessions, stores.Picks, stores.Queues, stores.Players, stores.Close, nil
}

// setupDispatcher selects the JetStream dispatcher when NATS_URL is set, the
// logging dispatcher otherwise.
func setupDispatcher(cfg *config.Config) (notify.Dispatcher, func()) {
	if cfg.NATSURL == "" {
		log.Warn().Msg("no NATS_URL set, using log dispatcher")
		return notify.NewLogDispatcher(), func() {}
	}

	jsCfg := notify.DefaultJetStreamConfig()
	jsCfg.URL = cfg.NATSURL
	dispatcher, err := notify.NewJetStreamDispatcher(jsCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect notification dispatcher")
	}
	return dispatcher, dispatcher.Close
}
