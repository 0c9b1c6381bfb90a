package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"papersummary/internal/config"
	"papersummary/internal/document"
	"papersummary/internal/http/server"
	"papersummary/internal/infra/logging"
	"papersummary/internal/infra/ratelimit"
	"papersummary/internal/pipeline"
	"papersummary/internal/render"
	"papersummary/internal/summarizer"
)

func main() {
	cfg := config.Load()
	logging.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)
	logging.SetLogLevel(cfg.Logger.Level)

	ctx := context.Background()
	extractor, err := document.NewExtractor(ctx)
	if err != nil {
		logging.Error("Failed to build text extractor", "error", err)
		os.Exit(1)
	}
	if cfg.LLM.APIKey == "" {
		logging.Warn("No LLM credential configured; every summary will fail", "provider", cfg.LLM.Provider)
	}
	sum := summarizer.New(cfg.LLM, summarizer.NewChatModel(ctx, cfg.LLM))
	p := pipeline.New(cfg, extractor, sum, render.New(cfg))

	var store fiber.Storage
	if cfg.RateLimiter.Enabled {
		store = ratelimit.NewStore(ratelimit.RedisConfig{
			Addr: cfg.RateLimiter.RedisHost,
			DB:   cfg.RateLimiter.RedisDB,
		})
	}

	app := server.New(server.Deps{Config: cfg, Runner: p, Store: store})
	logging.Info("Starting server",
		"addr", cfg.Server.Host+cfg.Server.Port,
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"engine", cfg.PDF.Engine,
	)

	idleConnsClosed := make(chan struct{})
	startServer(app, cfg, idleConnsClosed)
	<-idleConnsClosed
}

// startServer starts the Fiber app and listens for shutdown signals
func startServer(app *fiber.App, cfg config.Config, idleConnsClosed chan struct{}) {
	go func() {
		if err := app.Listen(cfg.Server.Host + cfg.Server.Port); err != nil {
			logging.Error("Server error", "error", err)
		}
	}()

	// Listen for OS termination signals
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	<-sigint
	signal.Stop(sigint)

	logging.Warn("Shutdown signal received, closing server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
	}

	close(idleConnsClosed)
	logging.Info("Server stopped cleanly")
}
