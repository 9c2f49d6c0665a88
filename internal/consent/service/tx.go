package service

import (
	"context"
	"time"

	dErrors "sofie/pkg/domain-errors"
	platformsync "sofie/pkg/platform/sync"
)

// ConsentStoreTx provides a transactional boundary for a single consent key.
// Implementations may wrap a database transaction or, in-memory, a key lock.
// The key identifies one (user, consent type) pair; work on different keys
// must not block each other.
type ConsentStoreTx interface {
	RunInTx(ctx context.Context, key string, fn func(ctx context.Context, store Store) error) error
}

// defaultConsentTxTimeout is the maximum duration for a consent transaction.
const defaultConsentTxTimeout = 5 * time.Second

type shardedConsentTx struct {
	mu       *platformsync.ShardedMutex
	store    Store
	timeout  time.Duration
	observer func(wait time.Duration)
}

func newShardedConsentTx(store Store) *shardedConsentTx {
	return &shardedConsentTx{
		mu:      platformsync.NewShardedMutex(),
		store:   store,
		timeout: defaultConsentTxTimeout,
	}
}

func (t *shardedConsentTx) RunInTx(ctx context.Context, key string, fn func(ctx context.Context, store Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	lockStart := time.Now()
	t.mu.Lock(key)
	defer t.mu.Unlock(key)
	if t.observer != nil {
		t.observer(time.Since(lockStart))
	}

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx, t.store)
}
