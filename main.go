package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/emojiworld/apps/go-server/internal/auth"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/chat"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/config"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/httpserver"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/presence"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/stats"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/store"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/sweeper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg)

	kv, err := store.Open(cfg.KVBackend, cfg.StoreTarget())
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.KVBackend).Msg("failed to open kv store")
	}
	defer kv.Close()

	players := presence.NewRegistry(kv, presence.WithGridSize(cfg.GridSize))
	messages := chat.NewLog(kv,
		chat.WithMaxHistory(cfg.MaxChatHistory),
		chat.WithMaxLength(cfg.MaxMessageLength),
	)

	rev, built := buildRevision()
	version := cfg.Version
	if version == "" {
		version = rev
	}
	srv := httpserver.New(httpserver.Deps{
		Players:       players,
		Chat:          messages,
		Stats:         stats.NewAggregator(players, messages, nil),
		Verifier:      auth.NewVerifier(cfg.JWTSecret, cfg.CookieName),
		PlayerTimeout: cfg.PlayerTimeout,
		ClientOrigin:  cfg.ClientOrigin,
		Version:       version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweeper.New(players, cfg.CleanupInterval, cfg.PlayerTimeout).Run(ctx)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("backend", cfg.KVBackend).
		Str("version", version).
		Str("revision", rev).
		Str("built", built).
		Msg("starting go-server")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// buildRevision reports the short VCS revision and commit date stamped into
// the binary, or "dev" and "unknown" outside a VCS build.
func buildRevision() (rev, built string) {
	rev, built = "dev", "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return rev, built
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if len(s.Value) >= 7 {
				rev = s.Value[:7]
			} else if s.Value != "" {
				rev = s.Value
			}
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
				built = t.Format("2006-01-02")
			}
		}
	}
	return rev, built
}
