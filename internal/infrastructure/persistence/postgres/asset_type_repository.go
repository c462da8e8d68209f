// Package postgres - AssetTypeRepository, read side of the asset catalogue.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/coinledger/internal/application/ports"
	"github.com/Haleralex/coinledger/internal/domain/entities"
	domainErrors "github.com/Haleralex/coinledger/internal/domain/errors"
)

// Compile-time check
var _ ports.AssetTypeRepository = (*AssetTypeRepository)(nil)

// AssetTypeRepository implements ports.AssetTypeRepository. The catalogue is
// seeded administratively; this repository only reads it.
type AssetTypeRepository struct {
	pool *pgxpool.Pool
}

func NewAssetTypeRepository(pool *pgxpool.Pool) *AssetTypeRepository {
	return &AssetTypeRepository{pool: pool}
}

func (r *AssetTypeRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *AssetTypeRepository) FindByCode(ctx context.Context, code string) (*entities.AssetType, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, code, display_name, is_active, created_at, updated_at
		FROM asset_types
		WHERE code = $1
	`

	return r.scanAssetType(q.QueryRow(ctx, query, code))
}

func (r *AssetTypeRepository) FindByID(ctx context.Context, id int32) (*entities.AssetType, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, code, display_name, is_active, created_at, updated_at
		FROM asset_types
		WHERE id = $1
	`

	return r.scanAssetType(q.QueryRow(ctx, query, id))
}

func (r *AssetTypeRepository) scanAssetType(row pgx.Row) (*entities.AssetType, error) {
	var (
		id                   int32
		code, displayName    string
		isActive             bool
		createdAt, updatedAt time.Time
	)

	err := row.Scan(&id, &code, &displayName, &isActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, domainErrors.NewStorageError("asset type scan", err)
	}

	return entities.ReconstructAssetType(id, code, displayName, isActive, createdAt, updatedAt), nil
}
