// Package main is the entry point for the chat relay server.
//
//	@title			Math Tutor Chat Relay API
//	@version		1.0
//	@description	Relays web and WhatsApp conversations to an OpenAI-compatible or Anthropic model.
//	@BasePath		/
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-chat-relay/internal/config"
	httpapi "github.com/tbourn/go-chat-relay/internal/http"
	"github.com/tbourn/go-chat-relay/internal/llm"
	"github.com/tbourn/go-chat-relay/internal/observability"
	"github.com/tbourn/go-chat-relay/internal/repo"
	"github.com/tbourn/go-chat-relay/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

const purgeInterval = 10 * time.Minute

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.ConfigureLogging(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
	ver := sysutil.FirstNonEmpty(version, "dev")

	log.Info().Str("version", ver).Str("port", cfg.Port).Msg("starting chat relay")
	if cfg.Session.SecretGenerated {
		log.Warn().Msg("SESSION_SECRET not set; using a random secret, sessions will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
		shutdownTracing = func(context.Context) error { return nil }
	}

	db, err := repo.Open(cfg.DB.Driver, cfg.DB.Path, cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("open database")
	}

	// A missing model must not stop the server: /health reports it and the
	// channels answer with their fallback texts.
	var gw llm.Gateway
	client, err := llm.New(llm.Config{
		Provider:    cfg.LLM.Provider,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		TopP:        cfg.LLM.TopP,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		log.Warn().Err(err).Str("provider", cfg.LLM.Provider).Msg("LLM client unavailable")
	} else {
		gw = client
		log.Info().Str("provider", client.Name()).Str("model", cfg.LLM.Model).Msg("LLM client ready")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, gw, cfg)

	go purgeIdempotency(ctx, db)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("tracing shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info().Msg("server stopped")
}

// purgeIdempotency drops expired idempotency records until ctx is done.
func purgeIdempotency(ctx context.Context, db *gorm.DB) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now)
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency")
				continue
			}
			if n > 0 {
				log.Debug().Int64("purged", n).Msg("expired idempotency records")
			}
		}
	}
}
