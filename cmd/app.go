package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"taxprotest/internal/comparables"
	"taxprotest/internal/database"
	"taxprotest/internal/dataset"
	"taxprotest/internal/zoning"
)

// app bundles what every command needs: the served roll, the engine and the
// optional zoning index.
type app struct {
	store  *dataset.Store
	engine *comparables.Engine
	zones  *zoning.Index
	db     *database.Database
}

// newApp wires the source and engine without loading anything.
func newApp(ctx context.Context) (*app, error) {
	a := &app{engine: comparables.New(cfg.Valuation)}

	// Load zoning polygons first so they're available for lookups.
	if len(cfg.ZoningPaths) > 0 {
		idx, err := zoning.Load(cfg.ZoningPaths...)
		if err != nil {
			log.Warn().Err(err).Msg("zoning unavailable")
		} else {
			a.zones = idx
			a.engine.WithZoning(idx)
			log.Info().Int("polygons", idx.Len()).Msg("zoning loaded")
		}
	}

	var src dataset.Source
	if cfg.Database.Enabled() {
		db, err := database.NewDatabase(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
		src = db
	} else {
		src = dataset.Open(cfg.DataPath)
	}
	a.store = dataset.NewStore(src, dataset.Options{Workers: cfg.LoadWorkers})
	return a, nil
}

// openApp builds the app and performs the first load.
func openApp(ctx context.Context) (*app, error) {
	a, err := newApp(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) load(ctx context.Context) error {
	start := time.Now()
	ds, err := a.store.Reload(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	fmt.Printf("Dataset loaded in %v (%d records)\n", time.Since(start).Truncate(time.Millisecond), ds.Len())
	return nil
}

func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Warn().Err(err).Msg("close database")
		}
	}
}
