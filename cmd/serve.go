package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"taxprotest/internal/cache"
	"taxprotest/internal/dataset"
	"taxprotest/internal/httpserver"
	"taxprotest/internal/observability"
)

const scheduledReloadTimeout = 10 * time.Minute

// serveCmd exposes reports over HTTP for display clients.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reports over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	reg := observability.InitRegistry()
	a.store.OnReload = func(ds *dataset.Dataset, dur time.Duration, err error) {
		var st dataset.Stats
		if ds != nil {
			st = ds.Stats()
		}
		observability.ObserveReload(dur, err, st.Loaded, st.DroppedMissing, st.DroppedInvalid, st.DroppedArea)
	}
	if err := a.load(ctx); err != nil {
		return err
	}

	var reports *cache.Reports
	if cfg.Redis.Addr != "" {
		reports = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err := reports.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable; report cache disabled")
			_ = reports.Close()
			reports = nil
		} else {
			defer reports.Close()
			log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("report cache enabled")
		}
	}

	if cfg.ReloadSchedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.ReloadSchedule, func() {
			rctx, cancel := context.WithTimeout(ctx, scheduledReloadTimeout)
			defer cancel()
			_, _ = a.store.Reload(rctx) // Reload logs its own outcome
		}); err != nil {
			return err
		}
		c.Start()
		defer c.Stop()
		log.Info().Str("cron", cfg.ReloadSchedule).Msg("dataset reload scheduled")
	}

	srv := httpserver.New(httpserver.Options{
		Timeout:   cfg.HTTP.RequestTimeout,
		RateLimit: cfg.HTTP.RateLimit,
		RateBurst: cfg.HTTP.RateBurst,
		Logger:    log.Logger,
	})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&httpserver.Handlers{
		Store:  a.store,
		Engine: a.engine,
		Cache:  reports,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("API listening")
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(sctx)
}
