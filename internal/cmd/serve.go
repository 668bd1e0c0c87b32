package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/coffersTech/nanosearch/internal/config"
	"github.com/coffersTech/nanosearch/internal/engine"
	"github.com/coffersTech/nanosearch/internal/log"
	"github.com/coffersTech/nanosearch/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := log.Init(cfg.Log.Level, cfg.Log.Path); err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	// 1. Initialize QueryEngine
	qe := engine.NewQueryEngine(engine.Options{
		Capacity:        cfg.Engine.Capacity,
		DefaultLimit:    cfg.Engine.DefaultLimit,
		MaxQueryLength:  cfg.Query.MaxLength,
		CacheExpiration: cfg.Query.CacheExpiration,
		CacheCleanup:    cfg.Query.CacheCleanup,
		Retention:       cfg.Engine.Retention,
	})
	qe.StartStatsTicker(ctx, time.Second)
	log.Infof(ctx, "query engine initialized, capacity %d documents per generation", cfg.Engine.Capacity)

	// 2. Initialize HTTP server
	srv, err := server.New(qe, *cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	g, gctx := errgroup.WithContext(ctx)

	// 3. Background cleaner
	g.Go(func() error {
		qe.RunCleaner(gctx, time.Minute)
		return nil
	})

	// 4. HTTP server
	g.Go(func() error {
		log.Infof(gctx, "listening on %s", cfg.HTTP.Listen)
		return errors.Wrap(srv.Start(cfg.HTTP.Listen), "http server")
	})

	// 5. Graceful shutdown once a signal arrives or the server fails
	g.Go(func() error {
		<-gctx.Done()
		log.Infof(ctx, "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return errors.Wrap(srv.Shutdown(shutdownCtx), "http shutdown")
	})

	err = g.Wait()
	log.Infof(ctx, "nanosearch exited")
	return err
}
