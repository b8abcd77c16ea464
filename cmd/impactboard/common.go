package main

import (
	"fmt"
	"time"

	"github.com/impactboard/impactboard-go/internal/cache"
	"github.com/impactboard/impactboard-go/internal/github"
	"github.com/impactboard/impactboard-go/internal/placeholder"
	"github.com/impactboard/impactboard-go/internal/render"
	"github.com/impactboard/impactboard-go/internal/storage"
)

// openStore opens the configured storage backend
func openStore() (storage.Store, error) {
	switch cfg.Storage.Type {
	case "postgres":
		return storage.NewPostgresStore(cfg.Storage.PostgresDSN, logger)
	case "sqlite":
		return storage.NewSQLiteStore(cfg.Storage.LocalPath, logger)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}

// newRenderService wires the full render pipeline from configuration
func newRenderService(store storage.Store) *render.Service {
	tokens := github.StaticTokenProvider(cfg.GitHub.Token)
	gh := github.NewClient(tokens, cache.New(45*time.Minute), cfg.GitHub.RateLimit)
	resolver := placeholder.NewResolver(store, store, logger)
	return render.NewService(gh, store, resolver, cache.New(cfg.Cache.TTL), cfg.Render, logger)
}
