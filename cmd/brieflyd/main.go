// Command brieflyd runs the in-memory BrieflyAI stub backend. It implements
// the same API surface as the production service and exists so the client
// can be developed and demoed without real credentials.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/briefly-ai/briefly-go/internal/config"
	"github.com/briefly-ai/briefly-go/internal/metrics"
	"github.com/briefly-ai/briefly-go/internal/stub"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Development() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	log.Logger = logger

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	m := metrics.New()
	server := stub.NewServer(stub.Config{
		JWTSecret: cfg.StubJWTSecret,
		TokenTTL:  cfg.StubTokenTTL,
	}, m, logger)

	if cfg.StubSeedFile != "" {
		if err := server.SeedFromFile(cfg.StubSeedFile); err != nil {
			logger.Fatal().Err(err).Str("path", cfg.StubSeedFile).Msg("failed to seed stub data")
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutting down")
		if err := server.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
	}()

	logger.Info().
		Str("environment", cfg.Environment).
		Str("addr", cfg.StubListenAddr).
		Msg("starting brieflyd")

	if err := server.Listen(cfg.StubListenAddr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
