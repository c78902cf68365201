package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/newscheck/backend/internal/api"
	"github.com/newscheck/backend/internal/config"
	"github.com/newscheck/backend/internal/engine"
	"github.com/newscheck/backend/internal/fetcher"
	"github.com/newscheck/backend/internal/metrics"
	"github.com/newscheck/backend/internal/storage"
	"github.com/newscheck/backend/internal/textclass"
)

func main() {
	// Setup Logging
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	entry := logger.WithField("service", "newscheck-api")

	// 1. Config
	cfg, err := config.Load()
	if err != nil {
		entry.Fatalf("Failed to load config: %v", err)
	}
	config.ConfigureLogger(logger, cfg.Log)

	entry.Info("Starting newscheck API service")

	// 2. Model
	artifacts := textclass.NewFileArtifactStore(cfg.Model.ArtifactPath)
	scorer := textclass.NewScorer(artifacts, entry.WithField("component", "scorer"))
	scorer.Load()

	// 3. Storage
	store, err := storage.OpenSQLite(cfg.Storage.DBPath)
	if err != nil {
		entry.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// 4. Engine
	m := metrics.New()
	ft := fetcher.NewFetcher(cfg.Fetcher, entry.WithField("component", "fetcher"))
	eng := engine.NewEngine(cfg, entry, scorer, ft, store, m)
	entry.WithField("model", eng.ModelState()).Info("Classifier initialised")

	// 5. API Server
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(eng, entry)
	if err := server.Start(ctx, cfg.Server); err != nil {
		entry.Fatal(err)
	}
	entry.Info("Server stopped")
}
