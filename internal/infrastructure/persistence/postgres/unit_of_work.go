// Package postgres - UnitOfWork implementation over pgx transactions.
//
// Usage:
//
//	err := uow.Execute(ctx, func(txCtx context.Context) error {
//	    // every repository call inside uses txCtx
//	    wallet, _ := walletRepo.Lock(txCtx, id)
//	    return walletRepo.UpdateBalance(txCtx, wallet)
//	})
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/coinledger/internal/application/ports"
)

// Compile-time check
var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// retryBackoff is the base delay between retry attempts; doubled per attempt.
const retryBackoff = 10 * time.Millisecond

// UnitOfWork implements ports.UnitOfWork with PostgreSQL transactions.
// Default isolation is READ COMMITTED; correctness under concurrency comes
// from the explicit row locks, not the isolation level.
type UnitOfWork struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{
		pool: pool,
		opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted},
	}
}

// Execute runs fn inside one transaction.
//
// Behavior:
//   - fn returns nil: COMMIT
//   - fn returns error: ROLLBACK, error propagated
//   - panic: ROLLBACK, re-panic
//
// A context that already carries a transaction is reused as-is; PostgreSQL
// has no true nested transactions.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(context.Context) error) error {
	if hasTx(ctx) {
		return fn(ctx)
	}

	tx, err := u.pool.BeginTx(ctx, u.opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	txCtx := injectTx(ctx, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ExecuteWithRetry runs the transaction again on transient failures
// (deadlock, serialization failure, lock-wait timeout, connection loss) up to
// maxRetries additional attempts, with exponential backoff between them.
// Business errors return immediately.
func (u *UnitOfWork) ExecuteWithRetry(ctx context.Context, maxRetries int, fn func(context.Context) error) error {
	var lastErr error
	backoff := retryBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := u.Execute(ctx, fn)
		if err == nil {
			return nil
		}

		if !isRetryableError(err) {
			return err
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
