package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wordpan/wordpan/internal/adapters/httpapi"
	"github.com/wordpan/wordpan/internal/adapters/lkroom"
	"github.com/wordpan/wordpan/internal/adapters/token"
	"github.com/wordpan/wordpan/internal/adapters/view"
	"github.com/wordpan/wordpan/internal/app"
	"github.com/wordpan/wordpan/internal/config"
	"github.com/wordpan/wordpan/internal/core"
	"github.com/wordpan/wordpan/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	minter := token.Minter{
		ServerURL: cfg.LiveKitURL,
		APIKey:    cfg.LiveKitAPIKey,
		APISecret: cfg.LiveKitAPISecret,
		TTL:       cfg.TokenTTL,
	}

	// No database is fine: the game runs off the built-in word lists.
	var words core.WordSource = store.NewFallback()
	if cfg.DatabaseURL != "" {
		pg, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("word store unavailable, using fallback lists")
		} else {
			words = pg
			defer pg.Close()
		}
	}

	factory := func(sid app.SessionID) (*app.SessionComposer, error) {
		room := lkroom.NewHandle()
		provider := token.NewProvider(minter, string(sid), "player", token.NewRoomName(cfg.RoomPrefix))
		game := app.NewGameMachine(room, cfg.RPCTimeout)
		battle := app.NewBattleControl(room, cfg.RPCTimeout)
		return app.NewSessionComposer(provider, room, game, battle, cfg.AgentTimeout), nil
	}
	hub := app.NewHub(factory)

	limiter := view.NewIntentRateLimiter(30, time.Minute)
	viewCtl := view.NewViewWSController(hub, limiter)
	api := httpapi.NewAPI(minter, cfg.RoomPrefix, words)

	r := httpapi.SetupRouter(ctx, cfg, api, viewCtl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("WordPan server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	hub.Shutdown()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
