package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"distribution/internal/adapters/out/eventbus"
	"distribution/internal/adapters/out/locker"
	"distribution/internal/adapters/out/memory"
	"distribution/internal/adapters/out/postgres"
	"distribution/internal/adapters/out/pubsub"
	"distribution/internal/core/ports"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"google.golang.org/api/option"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Closer releases an infrastructure resource on shutdown.
type Closer func(ctx context.Context) error

// OpenStorage returns the unit of work factory for the configured driver. The
// postgres schema is migrated before returning.
func OpenStorage(cfg Config, log *slog.Logger) (ports.UnitOfWorkFactory, Closer, error) {
	if cfg.StorageDriver == StorageMemory {
		log.Warn("Using in-memory storage; state is lost on exit")
		return memory.NewUnitOfWorkFactory(memory.NewStore()), noopCloser, nil
	}

	db, err := gorm.Open(pgdriver.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err = db.Use(otelgorm.NewPlugin()); err != nil {
		log.Warn("Failed to install otelgorm plugin", "error", err)
	}
	if err = postgres.Migrate(db); err != nil {
		return nil, nil, fmt.Errorf("migrating schema: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewGormUnitOfWorkFactory(db), func(context.Context) error { return sqlDB.Close() }, nil
}

// OpenLocker returns the key locker for the configured driver.
func OpenLocker(ctx context.Context, cfg Config, log *slog.Logger) (ports.KeyLocker, Closer, error) {
	if cfg.LockDriver == LockMemory {
		return locker.NewMemoryLocker(), noopCloser, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return locker.NewRedisLocker(rdb, locker.WithLogger(log)), func(context.Context) error { return rdb.Close() }, nil
}

// OpenEventBus starts the asynchronous publisher over the configured sink.
func OpenEventBus(ctx context.Context, cfg Config, log *slog.Logger) (*eventbus.Bus, Closer, error) {
	var (
		sink      eventbus.Sink = eventbus.NewLogSink(log)
		closeSink               = noopCloser
	)

	if cfg.EventsDriver == EventsPubSub {
		var opts []option.ClientOption
		if cfg.PubSubCredentialsJSON != "" {
			opts = append(opts, option.WithCredentialsJSON([]byte(cfg.PubSubCredentialsJSON)))
		}
		ps, err := pubsub.NewSink(ctx, cfg.PubSubProjectID, cfg.PubSubTopic, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to pubsub: %w", err)
		}
		if err = ps.EnsureTopic(ctx); err != nil {
			_ = ps.Close()
			return nil, nil, fmt.Errorf("ensuring pubsub topic: %w", err)
		}
		sink = ps
		closeSink = func(context.Context) error { return ps.Close() }
	}

	bus := eventbus.New(sink, eventbus.WithLogger(log))
	return bus, func(ctx context.Context) error {
		busErr := bus.Close(ctx)
		if err := closeSink(ctx); err != nil {
			return err
		}
		return busErr
	}, nil
}

func noopCloser(context.Context) error {
	return nil
}
