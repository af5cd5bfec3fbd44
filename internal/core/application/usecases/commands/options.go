package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"distribution/internal/core/application/ledger"
	"distribution/internal/core/ports"
)

// HandlerOption configures the clock and logger shared by command handlers.
type HandlerOption func(*handlerEnv)

func WithClock(now func() time.Time) HandlerOption {
	return func(e *handlerEnv) {
		e.now = now
	}
}

func WithLogger(logger *slog.Logger) HandlerOption {
	return func(e *handlerEnv) {
		e.logger = logger
	}
}

type handlerEnv struct {
	locker    ports.KeyLocker
	publisher ports.EventPublisher
	now       func() time.Time
	logger    *slog.Logger
}

func newHandlerEnv(locker ports.KeyLocker, publisher ports.EventPublisher, opts []HandlerOption) handlerEnv {
	env := handlerEnv{
		locker:    locker,
		publisher: publisher,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&env)
	}
	return env
}

func (e handlerEnv) ledger(repos LedgerRepoFactory, lockedKeys []string) *ledger.Ledger {
	return ledger.New(
		repos.LotRepository(),
		repos.TransactionLogRepository(),
		ledger.WithClock(e.now),
		ledger.WithLogger(e.logger),
		ledger.WithLockedKeys(lockedKeys),
	)
}

// lock acquires every key and returns the deduplicated key set actually held.
func (e handlerEnv) lock(ctx context.Context, keys ...string) (func(), []string, error) {
	keys = ledger.Dedup(keys)
	unlock, err := e.locker.Lock(ctx, keys...)
	if err != nil {
		return nil, nil, err
	}
	return unlock, keys, nil
}

func (e handlerEnv) publish(ctx context.Context, events ...ports.DomainEvent) {
	if e.publisher == nil || len(events) == 0 {
		return
	}
	e.publisher.Publish(ctx, events...)
}

func orderLockKey(id fmt.Stringer) string {
	return "order:" + id.String()
}

func planLockKey(id fmt.Stringer) string {
	return "plan:" + id.String()
}

func deliveryLockKey(id fmt.Stringer) string {
	return "delivery:" + id.String()
}
