package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	consentservice "sofie/internal/consent/service"
	consentstore "sofie/internal/consent/store"
	dErrors "sofie/pkg/domain-errors"
)

// consentPostgresTx makes grant, revoke and verify atomic across replicas.
// Each call opens a read-committed transaction and first takes the advisory
// lock for the (user, consent type) key, so a second replica touching the
// same record waits until the first commits.
type consentPostgresTx struct {
	db       *sql.DB
	lockWait time.Duration
}

func newConsentPostgresTx(db *sql.DB) *consentPostgresTx {
	return &consentPostgresTx{db: db, lockWait: 5 * time.Second}
}

func (t *consentPostgresTx) RunInTx(ctx context.Context, key string, fn func(ctx context.Context, store consentservice.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "consent request cancelled before locking")
	}
	if _, ok := ctx.Deadline(); !ok && t.lockWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.lockWait)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "begin consent transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	scoped := consentstore.NewPostgresTx(tx)
	if err := scoped.LockKey(ctx, key); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "consent record busy")
		}
		return err
	}
	if err := fn(ctx, scoped); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "commit consent transaction")
	}
	committed = true
	return nil
}
