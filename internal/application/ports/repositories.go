// Package ports defines the interfaces the application layer needs from
// infrastructure. Implementations live in internal/infrastructure.
//
// Pattern: Repository + Ports & Adapters (Hexagonal Architecture).
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/Haleralex/coinledger/internal/domain/entities"
)

// AssetTypeRepository looks up the administratively seeded asset catalogue.
type AssetTypeRepository interface {
	// FindByCode returns the asset type with the given upper-case code.
	// Returns ErrEntityNotFound when absent.
	FindByCode(ctx context.Context, code string) (*entities.AssetType, error)

	// FindByID returns the asset type by id. Returns ErrEntityNotFound when
	// absent.
	FindByID(ctx context.Context, id int32) (*entities.AssetType, error)
}

// WalletRepository stores wallets and mediates the row-locking discipline.
type WalletRepository interface {
	// FindByPrincipalAndAsset returns the wallet for (principal, asset)
	// without locking it. Returns ErrEntityNotFound when absent.
	FindByPrincipalAndAsset(ctx context.Context, principalID int64, assetTypeID int32) (*entities.Wallet, error)

	// GetOrCreate returns the wallet for (principal, asset), inserting a
	// zero-balance row when none exists. A concurrent-create race is resolved
	// by the unique index: the loser re-reads and returns the winner's row.
	GetOrCreate(ctx context.Context, principalID int64, assetTypeID int32) (*entities.Wallet, error)

	// Lock acquires an exclusive row lock (SELECT ... FOR UPDATE) and returns
	// a fresh view of the row. Must be called inside an open transaction;
	// blocks until the lock is available.
	Lock(ctx context.Context, walletID int64) (*entities.Wallet, error)

	// UpdateBalance persists the balance of the in-memory wallet produced by
	// Lock. It must not re-select the row: the decision was made on the
	// locked instance and a fresh read would bypass that lock's intent.
	UpdateBalance(ctx context.Context, wallet *entities.Wallet) error
}

// TransactionRepository stores movement records and enforces idempotency-key
// uniqueness at the storage layer.
type TransactionRepository interface {
	// FindByIdempotencyKey returns the transaction bound to key, or (nil, nil)
	// when no such transaction exists.
	FindByIdempotencyKey(ctx context.Context, key string) (*entities.Transaction, error)

	// FindByPublicID returns the transaction with the given public id.
	// Returns ErrEntityNotFound when absent.
	FindByPublicID(ctx context.Context, publicID uuid.UUID) (*entities.Transaction, error)

	// CreatePending inserts a PENDING transaction. When the unique constraint
	// on idempotency_key fires, returns ErrDuplicateIdempotencyKey; the
	// caller re-reads by key after rollback.
	CreatePending(ctx context.Context, tx *entities.Transaction) error

	// Finalize persists a terminal status transition (the entity has already
	// moved PENDING -> COMPLETED|FAILED in memory).
	Finalize(ctx context.Context, tx *entities.Transaction) error
}

// LedgerRepository appends double-entry legs. Append-only by contract: there
// is no update or delete.
type LedgerRepository interface {
	// Append inserts one ledger leg bound to a transaction.
	Append(ctx context.Context, entry *entities.LedgerEntry) error

	// ListByTransaction returns the legs of one transaction, oldest first.
	ListByTransaction(ctx context.Context, transactionPublicID uuid.UUID) ([]*entities.LedgerEntry, error)
}
