package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"accessgate/internal/platform/httpserver"
	"accessgate/pkg/platform/audit/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run the background loops",
	Long: `Serve the HTTP API together with:
  - periodic compliance reconciliation (reconcile.interval)
  - the initial credits expiration sweep (credits.check_interval)
  - the audit outbox relay to Kafka, when Postgres and brokers are configured`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	srv := httpserver.New(a.cfg.Server.Addr, newRouter(a))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(ctx, srv, a.cfg.Server.ShutdownTimeout, a.logger)
	})
	g.Go(func() error {
		if a.cfg.Reconcile.Interval > 0 {
			a.reconciler.Start(ctx, a.cfg.Reconcile.Interval)
		}
		return nil
	})
	g.Go(func() error {
		runEvery(ctx, a.cfg.Credits.CheckInterval, func(ctx context.Context) {
			if _, err := a.credits.CheckExpiration(ctx); err != nil {
				a.logger.ErrorContext(ctx, "initial credits sweep failed", "error", err)
			}
		})
		return nil
	})
	if a.producer != nil {
		if err := a.producer.EnsureTopic(ctx, 3, 1); err != nil {
			a.logger.Warn("could not ensure audit topic", "error", err)
		}
		relay := worker.NewWorker(a.outbox, a.producer,
			worker.WithLogger(a.logger),
			worker.WithPollInterval(a.cfg.Kafka.PollInterval),
		)
		g.Go(func() error {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("accessgate stopped")
	return nil
}
