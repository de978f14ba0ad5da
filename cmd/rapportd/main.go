// Package main provides the rapport daemon: it ingests device usage events,
// derives conversation engagement histories, and serves them over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"github.com/thebtf/rapport/internal/checkpoint"
	"github.com/thebtf/rapport/internal/config"
	gormdb "github.com/thebtf/rapport/internal/db/gorm"
	"github.com/thebtf/rapport/internal/processor"
	"github.com/thebtf/rapport/internal/registry"
	"github.com/thebtf/rapport/internal/source"
	"github.com/thebtf/rapport/internal/watcher"
	"github.com/thebtf/rapport/internal/worker"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	if err := config.EnsureDataDir(); err != nil {
		log.Fatal().Err(err).Msg("Failed to create data directory")
	}

	store, err := gormdb.NewStore(gormdb.Config{
		Path:     cfg.DBPath,
		LogLevel: logger.Silent,
	})
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("Failed to open store")
	}
	defer store.Close()

	events := gormdb.NewEventStore(store)
	conversations := gormdb.NewConversationStore(store)

	reg := registry.New()
	rows, err := conversations.ListAll(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load conversation registry")
	}
	for i := range rows {
		reg.AddConversation(rows[i].PackageName, rows[i].Info())
	}
	log.Info().Int("conversations", len(rows)).Msg("Registry loaded")

	var checkpoints checkpoint.Store
	if cfg.RedisAddr != "" {
		redisStore := checkpoint.NewRedisStore(cfg.RedisAddr)
		defer redisStore.Close()
		checkpoints = redisStore
		log.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis checkpoint store")
	} else {
		checkpoints = checkpoint.NewMemoryStore()
	}

	hub := source.NewHub(cfg.BufferEvents)
	proc := processor.New(reg, events, checkpoints, hub.EventSource)

	dbWatcher, err := watcher.New(cfg.DBPath, func() {
		log.Warn().Str("path", cfg.DBPath).Msg("Database file removed, recreating")
		if err := store.Recreate(); err != nil {
			log.Error().Err(err).Msg("Failed to recreate store")
		}
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create database watcher")
	}
	if err := dbWatcher.Start(); err != nil {
		log.Warn().Err(err).Msg("Database watcher not started")
	}
	defer dbWatcher.Stop()

	svc := worker.NewService(version, reg, events, conversations, proc, hub)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Serve(ctx, cfg.HTTPAddr); err != nil {
		log.Fatal().Err(err).Msg("HTTP server failed")
	}
	log.Info().Msg("Shutdown complete")
}
