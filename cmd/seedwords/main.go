package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wordpan/wordpan/internal/domain"
	"github.com/wordpan/wordpan/internal/store"
)

// seedwords loads the built-in word lists into the word_pairs table so the
// translation game can serve more than the shipped defaults. Safe to re-run:
// existing triplets are skipped.
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	_ = godotenv.Load(".env.local")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	pg, err := store.Open(ctx, databaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open word store")
	}
	defer pg.Close()

	fallback := store.NewFallback()
	total := 0
	for _, lang := range domain.Languages() {
		pairs, err := fallback.WordPairs(ctx, lang, 0)
		if err != nil || len(pairs) == 0 {
			continue
		}
		n, err := pg.Seed(ctx, pairs)
		if err != nil {
			log.Fatal().Err(err).Str("language", lang.String()).Msg("seed failed")
		}
		log.Info().Str("language", lang.String()).Int("inserted", n).Int("available", len(pairs)).Msg("seeded")
		total += n
	}
	log.Info().Int("inserted", total).Msg("done")
}
