package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "beredskap/pkg/domain-errors"
	"beredskap/pkg/platform/tx"
)

const defaultGroupTxTimeout = 5 * time.Second

// groupPostgresTx runs engine mutations inside a single database
// transaction. The transaction travels on the context so every store
// touched by the callback joins it.
type groupPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newGroupPostgresTx(db *sql.DB) *groupPostgresTx {
	return &groupPostgresTx{db: db}
}

func (t *groupPostgresTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultGroupTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(tx.WithTx(ctx, sqlTx)); err != nil {
		return err
	}

	return sqlTx.Commit()
}
