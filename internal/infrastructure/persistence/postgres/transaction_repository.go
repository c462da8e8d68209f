// Package postgres - TransactionRepository, the idempotency authority.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/coinledger/internal/application/ports"
	"github.com/Haleralex/coinledger/internal/domain/entities"
	domainErrors "github.com/Haleralex/coinledger/internal/domain/errors"
	"github.com/Haleralex/coinledger/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.TransactionRepository = (*TransactionRepository)(nil)

const transactionColumns = `id, public_id, idempotency_key, movement_type, user_id,
	       asset_type_id, amount::text, status, metadata,
	       COALESCE(error_message, ''), created_at, completed_at`

// TransactionRepository implements ports.TransactionRepository. The unique
// index on idempotency_key is the authoritative duplicate check; everything
// above it is optimization.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func (r *TransactionRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// CreatePending inserts a PENDING transaction. A duplicate idempotency key
// surfaces as ErrDuplicateIdempotencyKey; the caller rolls back and re-reads.
func (r *TransactionRepository) CreatePending(ctx context.Context, tx *entities.Transaction) error {
	q := r.getQuerier(ctx)

	metadata, err := json.Marshal(tx.Metadata())
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO transactions (public_id, idempotency_key, movement_type, user_id,
		                          asset_type_id, amount, status, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9)
		RETURNING id
	`

	var id int64
	err = q.QueryRow(ctx, query,
		tx.PublicID(),
		tx.IdempotencyKey(),
		string(tx.Type()),
		tx.UserID(),
		tx.AssetTypeID(),
		tx.Amount().String(),
		string(tx.Status()),
		metadata,
		tx.CreatedAt(),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err, "transactions_idempotency_key_key") {
			return domainErrors.ErrDuplicateIdempotencyKey
		}
		return domainErrors.NewStorageError("transaction insert", err)
	}

	tx.SetID(id)
	return nil
}

// FindByIdempotencyKey returns the transaction bound to key, or (nil, nil).
// An absent key is the normal case, not an error.
func (r *TransactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE idempotency_key = $1
	`

	tx, err := r.scanTransaction(q.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, domainErrors.ErrEntityNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return tx, nil
}

// FindByPublicID returns the transaction with the given public id.
func (r *TransactionRepository) FindByPublicID(ctx context.Context, publicID uuid.UUID) (*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE public_id = $1
	`

	return r.scanTransaction(q.QueryRow(ctx, query, publicID))
}

// Finalize persists a terminal transition. The WHERE status = 'PENDING'
// guard makes the terminal write idempotent-safe: a row that already moved
// cannot move again.
func (r *TransactionRepository) Finalize(ctx context.Context, tx *entities.Transaction) error {
	q := r.getQuerier(ctx)

	if !tx.IsTerminal() {
		return domainErrors.ErrTransactionNotPending
	}

	query := `
		UPDATE transactions
		SET status = $2, error_message = NULLIF($3, ''), completed_at = $4
		WHERE id = $1 AND status = 'PENDING'
	`

	result, err := q.Exec(ctx, query,
		tx.ID(),
		string(tx.Status()),
		tx.ErrorMessage(),
		tx.CompletedAt(),
	)
	if err != nil {
		return domainErrors.NewStorageError("transaction finalize", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrTransactionNotPending
	}

	return nil
}

func (r *TransactionRepository) scanTransaction(row pgx.Row) (*entities.Transaction, error) {
	var (
		id, userID              int64
		publicID                uuid.UUID
		key, typeStr, statusStr string
		assetTypeID             int32
		amountStr, errorMessage string
		metadataRaw             []byte
		createdAt               time.Time
		completedAt             *time.Time
	)

	err := row.Scan(
		&id,
		&publicID,
		&key,
		&typeStr,
		&userID,
		&assetTypeID,
		&amountStr,
		&statusStr,
		&metadataRaw,
		&errorMessage,
		&createdAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, domainErrors.NewStorageError("transaction scan", err)
	}

	amount, err := valueobjects.NewMoney(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in database: %w", err)
	}

	var metadata map[string]any
	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return entities.ReconstructTransaction(
		id,
		publicID,
		key,
		entities.MovementType(typeStr),
		userID,
		assetTypeID,
		amount,
		entities.TransactionStatus(statusStr),
		metadata,
		errorMessage,
		createdAt,
		completedAt,
	), nil
}
