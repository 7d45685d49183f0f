package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/golfdraft/golfdraft/internal/autopick"
	"github.com/golfdraft/golfdraft/internal/chat"
	"github.com/golfdraft/golfdraft/internal/config"
	"github.com/golfdraft/golfdraft/internal/draft"
	"github.com/golfdraft/golfdraft/internal/events"
	"github.com/golfdraft/golfdraft/internal/gateway"
	"github.com/golfdraft/golfdraft/internal/handler"
	"github.com/golfdraft/golfdraft/internal/picklist"
	"github.com/golfdraft/golfdraft/internal/postgres"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := postgres.NewRepository(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer repo.Close()

	if err := repo.RunMigrations(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	participants, err := repo.LoadParticipants(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load participants")
	}
	golfers, err := repo.LoadGolfers(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load golfers")
	}
	order, err := repo.LoadPickOrder(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load pick order")
	}
	if len(order) == 0 {
		ids := make([]uuid.UUID, len(participants))
		for i, p := range participants {
			ids[i] = p.ID
		}
		order, err = draft.GeneratePickOrder(ids, cfg.Tourney.Rounds)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to generate pick order")
		}
		if err := repo.SavePickOrder(ctx, order); err != nil {
			log.Fatal().Err(err).Msg("failed to save pick order")
		}
		log.Info().Int("slots", len(order)).Msg("seeded pick order")
	}

	log.Info().
		Str("tourney", cfg.Tourney.Name).
		Int("participants", len(participants)).
		Int("golfers", len(golfers)).
		Int("slots", len(order)).
		Msg("starting draft server")

	ledger, err := draft.NewLedger(ctx, repo, order, golfers, clockwork.NewRealClock())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build draft ledger")
	}

	bus := events.NewBus()
	pickLists := picklist.NewApp(repo)
	draftApp := draft.NewApp(ledger, pickLists, repo, bus)
	draftApp.SetNotifier(chat.NewBot(repo, ledger, participants))

	scheduler := autopick.NewScheduler(draftApp, clockwork.NewRealClock())
	draftApp.SetPoker(scheduler)
	go func() {
		if err := scheduler.Run(ctx); err != nil {
			log.Error().Err(err).Msg("auto-pick scheduler failed")
		}
	}()

	hub := gateway.NewHub()
	go hub.Run(ctx, bus)

	if cfg.NATS.Enabled {
		nc, err := events.ConnectNATS(cfg.NATS.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		defer nc.Close()

		publisher := events.NewNATSPublisher(nc, cfg.NATS.SubjectPrefix)
		go publisher.Run(ctx, bus)

		// The score sync worker announces fresh scores on this subject;
		// relay the announcement to connected clients.
		sub, err := nc.Subscribe(events.SubjectScoresUpdated, func(_ *nats.Msg) {
			ev, err := events.New(events.TypeScoresChanged, events.ScoresChangedPayload{LastUpdated: time.Now()})
			if err != nil {
				log.Error().Err(err).Msg("build scores event")
				return
			}
			bus.Publish(ev)
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to subscribe to score updates")
		}
		defer sub.Unsubscribe()
	}

	h := handler.NewHandler(draftApp, pickLists, repo, participants, hub, bus)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	cancel()

	log.Info().Msg("draft server shutdown complete")
}
