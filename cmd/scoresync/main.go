package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/golfdraft/golfdraft/internal/config"
	"github.com/golfdraft/golfdraft/internal/events"
	"github.com/golfdraft/golfdraft/internal/postgres"
	"github.com/golfdraft/golfdraft/internal/scoresync"
)

// natsAnnouncer publishes the scores-updated marker subject.
type natsAnnouncer struct {
	nc *nats.Conn
}

func (a *natsAnnouncer) ScoresUpdated(ctx context.Context) error {
	return a.nc.Publish(events.SubjectScoresUpdated, nil)
}

// noopAnnouncer is used when NATS is disabled; the sync still persists.
type noopAnnouncer struct{}

func (noopAnnouncer) ScoresUpdated(ctx context.Context) error { return nil }

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var (
		feedURL  = flag.String("feed", os.Getenv("SCORE_FEED_URL"), "score feed URL or file path")
		interval = flag.Duration("interval", 0, "re-sync interval; 0 runs once and exits")
	)
	flag.Parse()

	if *feedURL == "" {
		log.Fatal().Msg("score feed URL required (-feed or SCORE_FEED_URL)")
	}

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

	var publisher scoresync.Publisher = noopAnnouncer{}
	if cfg.NATS.Enabled {
		nc, err := events.ConnectNATS(cfg.NATS.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		defer nc.Close()
		publisher = &natsAnnouncer{nc: nc}
	}

	reader := scoresync.NewJSONFeedReader()

	sync := func() {
		if err := scoresync.Run(ctx, reader, *feedURL, repo, publisher); err != nil {
			log.Error().Err(err).Str("feed", *feedURL).Msg("score sync failed")
			return
		}
		log.Info().Str("feed", *feedURL).Msg("score sync complete")
	}

	sync()
	if *interval <= 0 {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sync()
		}
	}
}
