// Command parleyd serves the conversational agent over HTTP.
//
// Configuration comes from the environment:
//
//	PARLEY_ADDR            listen address (default :8080)
//	PARLEY_MODEL           model id (default claude-opus-4-6)
//	PARLEY_ENGINE_MODE     native or manual (default native)
//	PARLEY_MAX_ROUNDS      completion rounds per turn (default 5)
//	PARLEY_SYSTEM_PROMPT   optional system prompt
//	PARLEY_LOG_LEVEL       debug, info, warn, or error (default info)
//	OPENAI_API_KEY         enables the openai provider
//	ANTHROPIC_API_KEY      enables the anthropic provider
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/martinemde/parley/agentchat"
	"github.com/martinemde/parley/chatserver"
	"github.com/martinemde/parley/enginellm"
	"github.com/martinemde/parley/toolkit"
)

type config struct {
	Addr         string `env:"PARLEY_ADDR" envDefault:":8080"`
	Model        string `env:"PARLEY_MODEL" envDefault:"claude-opus-4-6"`
	EngineMode   string `env:"PARLEY_ENGINE_MODE" envDefault:"native"`
	MaxRounds    int    `env:"PARLEY_MAX_ROUNDS" envDefault:"5"`
	SystemPrompt string `env:"PARLEY_SYSTEM_PROMPT"`
	LogLevel     string `env:"PARLEY_LOG_LEVEL" envDefault:"info"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("Failed to parse configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		slog.Error("Invalid log level", "level", cfg.LogLevel)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	client := enginellm.NewClientFromEnv()
	defer client.Close()
	client.Use(chatserver.CompletionLogging(logger))

	var engine agentchat.Engine
	switch cfg.EngineMode {
	case "native":
		engine = agentchat.NewNativeEngine(client, cfg.Model)
	case "manual":
		engine = agentchat.NewManualEngine(client, cfg.Model)
	default:
		slog.Error("Unknown engine mode", "mode", cfg.EngineMode)
		os.Exit(1)
	}

	registry := agentchat.NewToolRegistry()
	toolkit.RegisterBuiltins(registry, toolkit.Options{})

	loop := agentchat.NewLoop(engine, agentchat.NewStore(), registry, agentchat.LoopConfig{
		MaxRounds:    cfg.MaxRounds,
		SystemPrompt: cfg.SystemPrompt,
	})

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: chatserver.New(loop, logger).Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Listening", "addr", cfg.Addr, "model", cfg.Model, "engine_mode", cfg.EngineMode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
}
