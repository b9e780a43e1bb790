// Package backend wires the ledger's collaborators (state store and
// notification publisher) from configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Rajdeepm07/expensechart/internal/config"
	"github.com/Rajdeepm07/expensechart/internal/core"
	"github.com/Rajdeepm07/expensechart/internal/events"
	eventsamqp "github.com/Rajdeepm07/expensechart/internal/events/amqp"
	eventskafka "github.com/Rajdeepm07/expensechart/internal/events/kafka"
	eventsmem "github.com/Rajdeepm07/expensechart/internal/events/memory"
	"github.com/Rajdeepm07/expensechart/internal/ledger"
	"github.com/Rajdeepm07/expensechart/internal/storage"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result holds the wired ledger and a cleanup function for its
// collaborators.
type Result struct {
	Ledger  *ledger.Ledger
	Cleanup CleanupFunc
}

// Build creates the store and publisher selected by cfg and wires a
// ledger instance over them.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := buildStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	pub, pubCleanup, err := buildPublisher(cfg, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	l, err := ledger.New(ctx, core.OwnerID(cfg.LedgerOwner), store, pub)
	if err != nil {
		if pubCleanup != nil {
			pubCleanup()
		}
		store.Close()
		return nil, fmt.Errorf("initialize ledger: %w", err)
	}

	cleanup := func() error {
		var errs []error
		if pubCleanup != nil {
			if err := pubCleanup(); err != nil {
				errs = append(errs, fmt.Errorf("publisher: %w", err))
			}
		}
		if err := store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
		if len(errs) > 0 {
			return fmt.Errorf("close backend: %v", errs)
		}
		return nil
	}

	return &Result{Ledger: l, Cleanup: cleanup}, nil
}

func buildStore(cfg *config.Config, logger *slog.Logger) (storage.StateStore, error) {
	switch cfg.StateBackend {
	case "sqlite":
		store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		logger.Info("Initialized SQLite state store", "db_path", cfg.SQLiteDBPath)
		return store, nil
	case "postgres":
		store, err := storage.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres store: %w", err)
		}
		logger.Info("Initialized Postgres state store")
		return store, nil
	case "memory":
		logger.Info("Initialized memory state store")
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported state backend: %s", cfg.StateBackend)
	}
}

func buildPublisher(cfg *config.Config, logger *slog.Logger) (events.Publisher, CleanupFunc, error) {
	switch cfg.EventsBackend {
	case "amqp":
		client, err := eventsamqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize AMQP publisher: %w", err)
		}
		logger.Info("Initialized AMQP publisher",
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue)
		return client, client.Close, nil
	case "kafka":
		pub := eventskafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		logger.Info("Initialized Kafka publisher",
			"brokers", cfg.KafkaBrokers,
			"topic", cfg.KafkaTopic)
		return pub, pub.Close, nil
	case "none":
		logger.Info("Notifications recorded in memory only")
		return eventsmem.NewRecorder(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported events backend: %s", cfg.EventsBackend)
	}
}
