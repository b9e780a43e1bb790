// ledger-worker consumes ledger notifications from AMQP and maintains a
// running dashboard summary of live expenses.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/Rajdeepm07/expensechart/internal/config"
	"github.com/Rajdeepm07/expensechart/internal/events"
	eventsamqp "github.com/Rajdeepm07/expensechart/internal/events/amqp"
)

const summaryInterval = 30 * time.Second

type summary struct {
	added   atomic.Int64
	removed atomic.Int64
}

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting ledger-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	client, err := eventsamqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var stats summary

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return client.Consume(ctx,
			func(event *events.ExpenseAdded) error {
				stats.added.Add(1)
				slog.InfoContext(ctx, "Expense added",
					"id", event.ID,
					"title", event.Title,
					"amount_cents", event.AmountCents,
					"timestamp", event.Timestamp)
				return nil
			},
			func(event *events.ExpenseRemoved) error {
				stats.removed.Add(1)
				slog.InfoContext(ctx, "Expense removed", "id", event.ID)
				return nil
			})
	})

	g.Go(func() error {
		ticker := time.NewTicker(summaryInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				slog.InfoContext(ctx, "Notification summary",
					"added", stats.added.Load(),
					"removed", stats.removed.Load())
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully",
		"added", stats.added.Load(),
		"removed", stats.removed.Load())
}
