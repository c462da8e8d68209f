// Package postgres - WalletRepository with pessimistic row locking.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/coinledger/internal/application/ports"
	"github.com/Haleralex/coinledger/internal/domain/entities"
	domainErrors "github.com/Haleralex/coinledger/internal/domain/errors"
	"github.com/Haleralex/coinledger/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.WalletRepository = (*WalletRepository)(nil)

const walletColumns = `id, principal_id, asset_type_id, balance::text, is_system,
	       COALESCE(system_kind, ''), created_at, updated_at`

// WalletRepository implements ports.WalletRepository.
//
// Balance is NUMERIC(20,8); it crosses the wire as its canonical text form so
// no float ever touches an amount. Concurrency control is pessimistic: Lock
// takes SELECT ... FOR UPDATE and UpdateBalance writes back the locked
// instance.
type WalletRepository struct {
	pool *pgxpool.Pool
}

func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

func (r *WalletRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// FindByPrincipalAndAsset loads a wallet without locking it.
func (r *WalletRepository) FindByPrincipalAndAsset(ctx context.Context, principalID int64, assetTypeID int32) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE principal_id = $1 AND asset_type_id = $2
	`

	return r.scanWallet(q.QueryRow(ctx, query, principalID, assetTypeID))
}

// GetOrCreate returns the wallet for (principal, asset), inserting a
// zero-balance row when none exists. Two concurrent creators race on the
// unique index; the loser re-reads and returns the winner's row. The insert
// resolves the conflict with ON CONFLICT DO NOTHING rather than catching a
// unique violation: a raised 23505 would abort the surrounding transaction
// and poison every statement after it, including the re-read.
func (r *WalletRepository) GetOrCreate(ctx context.Context, principalID int64, assetTypeID int32) (*entities.Wallet, error) {
	wallet, err := r.FindByPrincipalAndAsset(ctx, principalID, assetTypeID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, domainErrors.ErrEntityNotFound) {
		return nil, err
	}

	created := entities.NewWallet(principalID, assetTypeID)
	inserted, err := r.insert(ctx, created)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// Lost the create race: a concurrent insert owns the unique index.
		// The conflict raised no error, so the transaction is still healthy
		// and the re-read sees the winner's committed row.
		return r.FindByPrincipalAndAsset(ctx, principalID, assetTypeID)
	}
	return created, nil
}

// insert adds a zero-balance wallet row. Returns false without error when a
// concurrent insert already holds (principal_id, asset_type_id).
func (r *WalletRepository) insert(ctx context.Context, wallet *entities.Wallet) (bool, error) {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO wallets (principal_id, asset_type_id, balance, is_system, system_kind, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, $4, NULLIF($5, ''), $6, $7)
		ON CONFLICT (principal_id, asset_type_id) DO NOTHING
		RETURNING id
	`

	var id int64
	err := q.QueryRow(ctx, query,
		wallet.PrincipalID(),
		wallet.AssetTypeID(),
		wallet.Balance().String(),
		wallet.IsSystem(),
		string(wallet.SystemKind()),
		wallet.CreatedAt(),
		wallet.UpdatedAt(),
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		if isForeignKeyViolation(err) {
			return false, domainErrors.NewStorageError("wallet insert",
				fmt.Errorf("unknown asset type %d: %w", wallet.AssetTypeID(), err))
		}
		return false, domainErrors.NewStorageError("wallet insert", err)
	}

	wallet.SetID(id)
	return true, nil
}

// Lock acquires an exclusive row lock and returns a fresh view of the row.
// Requires an open transaction in the context: a FOR UPDATE lock outside a
// transaction is released immediately and protects nothing.
func (r *WalletRepository) Lock(ctx context.Context, walletID int64) (*entities.Wallet, error) {
	tx := extractTx(ctx)
	if tx == nil {
		return nil, domainErrors.NewStorageError("wallet lock",
			errors.New("row lock requires an open transaction"))
	}

	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE id = $1
		FOR UPDATE
	`

	wallet, err := r.scanWallet(tx.QueryRow(ctx, query, walletID))
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// UpdateBalance persists the balance of the in-memory wallet produced by
// Lock. No re-select: the balance decision was made on the locked instance.
func (r *WalletRepository) UpdateBalance(ctx context.Context, wallet *entities.Wallet) error {
	q := r.getQuerier(ctx)

	query := `
		UPDATE wallets
		SET balance = $2::numeric, updated_at = $3
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query, wallet.ID(), wallet.Balance().String(), wallet.UpdatedAt())
	if err != nil {
		if isCheckViolation(err) {
			// balance_non_negative backstop; the entity layer should have
			// refused the debit before we got here.
			return domainErrors.ErrNegativeBalance
		}
		return domainErrors.NewStorageError("wallet balance update", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrEntityNotFound
	}

	return nil
}

func (r *WalletRepository) scanWallet(row pgx.Row) (*entities.Wallet, error) {
	var (
		id, principalID      int64
		assetTypeID          int32
		balanceStr, kindStr  string
		isSystem             bool
		createdAt, updatedAt time.Time
	)

	err := row.Scan(
		&id,
		&principalID,
		&assetTypeID,
		&balanceStr,
		&isSystem,
		&kindStr,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, domainErrors.NewStorageError("wallet scan", err)
	}

	balance, err := valueobjects.NewMoney(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("invalid balance in database: %w", err)
	}

	return entities.ReconstructWallet(
		id,
		principalID,
		assetTypeID,
		balance,
		isSystem,
		entities.SystemKind(kindStr),
		createdAt,
		updatedAt,
	), nil
}
