// Package postgres - LedgerRepository, append-only double-entry storage.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/coinledger/internal/application/ports"
	"github.com/Haleralex/coinledger/internal/domain/entities"
	domainErrors "github.com/Haleralex/coinledger/internal/domain/errors"
	"github.com/Haleralex/coinledger/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.LedgerRepository = (*LedgerRepository)(nil)

// LedgerRepository implements ports.LedgerRepository. Entries are never
// updated or deleted; the table has no UPDATE path at all.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Append inserts one ledger leg.
func (r *LedgerRepository) Append(ctx context.Context, entry *entities.LedgerEntry) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO ledger_entries (transaction_public_id, wallet_id, entry_type,
		                            amount, balance_before, balance_after, description, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7, $8)
		RETURNING id
	`

	var id int64
	err := q.QueryRow(ctx, query,
		entry.TransactionPublicID(),
		entry.WalletID(),
		string(entry.Type()),
		entry.Amount().String(),
		entry.BalanceBefore().String(),
		entry.BalanceAfter().String(),
		entry.Description(),
		entry.CreatedAt(),
	).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.NewStorageError("ledger append",
				fmt.Errorf("dangling ledger reference: %w", err))
		}
		return domainErrors.NewStorageError("ledger append", err)
	}

	return nil
}

// ListByTransaction returns the legs of one transaction, oldest first.
func (r *LedgerRepository) ListByTransaction(ctx context.Context, transactionPublicID uuid.UUID) ([]*entities.LedgerEntry, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, transaction_public_id, wallet_id, entry_type,
		       amount::text, balance_before::text, balance_after::text,
		       description, created_at
		FROM ledger_entries
		WHERE transaction_public_id = $1
		ORDER BY id ASC
	`

	rows, err := q.Query(ctx, query, transactionPublicID)
	if err != nil {
		return nil, domainErrors.NewStorageError("ledger list", err)
	}
	defer rows.Close()

	var entries []*entities.LedgerEntry
	for rows.Next() {
		var (
			id, walletID                   int64
			txID                           uuid.UUID
			entryType, description         string
			amountStr, beforeStr, afterStr string
			createdAt                      time.Time
		)

		if err := rows.Scan(&id, &txID, &walletID, &entryType,
			&amountStr, &beforeStr, &afterStr, &description, &createdAt); err != nil {
			return nil, domainErrors.NewStorageError("ledger scan", err)
		}

		amount, err := parseStoredMoney(amountStr)
		if err != nil {
			return nil, err
		}
		before, err := parseStoredMoney(beforeStr)
		if err != nil {
			return nil, err
		}
		after, err := parseStoredMoney(afterStr)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entities.ReconstructLedgerEntry(
			id, txID, walletID, entities.EntryType(entryType),
			amount, before, after, description, createdAt))
	}

	if err := rows.Err(); err != nil {
		return nil, domainErrors.NewStorageError("ledger iterate", err)
	}

	return entries, nil
}

func parseStoredMoney(s string) (valueobjects.Money, error) {
	m, err := valueobjects.NewMoney(s)
	if err != nil {
		return valueobjects.Money{}, fmt.Errorf("invalid amount in database: %w", err)
	}
	return m, nil
}
