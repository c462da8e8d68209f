// Package ports - UnitOfWork abstracts database transaction boundaries.
package ports

import "context"

// UnitOfWork runs a function inside one database transaction.
//
// Behavior:
//   - begins a transaction and injects it into the context passed to fn
//   - fn returns nil: COMMIT
//   - fn returns an error: ROLLBACK, error is propagated
//
// All repository calls inside fn must use the context fn receives; that is
// how they share the transaction (and its row locks).
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error

	// ExecuteWithRetry behaves like Execute but re-runs fn up to maxRetries
	// additional times when the failure is a transient storage category
	// (deadlock, serialization failure, lock-wait timeout), with a short
	// backoff between attempts. Business errors are never retried.
	ExecuteWithRetry(ctx context.Context, maxRetries int, fn func(ctx context.Context) error) error
}
