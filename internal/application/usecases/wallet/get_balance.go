// Package wallet holds the read-side use cases for wallets.
package wallet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Haleralex/coinledger/internal/application/dtos"
	"github.com/Haleralex/coinledger/internal/application/ports"
	"github.com/Haleralex/coinledger/internal/domain/errors"
)

// GetBalanceUseCase reads one user's balance for an asset. Read-only: it
// takes no locks and never creates a wallet row.
type GetBalanceUseCase struct {
	assetTypes ports.AssetTypeRepository
	wallets    ports.WalletRepository
	logger     *slog.Logger
}

func NewGetBalanceUseCase(
	assetTypes ports.AssetTypeRepository,
	wallets ports.WalletRepository,
	logger *slog.Logger,
) *GetBalanceUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetBalanceUseCase{
		assetTypes: assetTypes,
		wallets:    wallets,
		logger:     logger,
	}
}

// Execute returns the balance for (user, asset type id). A user without a
// wallet row for the asset is not found; wallets come into existence on the
// first movement, not on read.
func (uc *GetBalanceUseCase) Execute(ctx context.Context, query dtos.GetBalanceQuery) (*dtos.BalanceDTO, error) {
	if query.UserID <= 0 {
		return nil, errors.ValidationError{Field: "user_id", Message: "user id must be positive"}
	}
	if query.AssetTypeID <= 0 {
		return nil, errors.ValidationError{Field: "asset_type_id", Message: "asset type id must be positive"}
	}

	w, err := uc.wallets.FindByPrincipalAndAsset(ctx, query.UserID, query.AssetTypeID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, fmt.Errorf("wallet for user %d and asset_type %d: %w",
				query.UserID, query.AssetTypeID, errors.ErrEntityNotFound)
		}
		return nil, err
	}

	code := "UNKNOWN"
	asset, err := uc.assetTypes.FindByID(ctx, w.AssetTypeID())
	switch {
	case err == nil:
		code = asset.Code()
	case errors.IsNotFound(err):
		// The FK makes this unreachable in practice; keep the read usable.
	default:
		return nil, err
	}

	return &dtos.BalanceDTO{
		UserID:        w.PrincipalID(),
		AssetTypeID:   w.AssetTypeID(),
		AssetTypeCode: code,
		Balance:       w.Balance().String(),
	}, nil
}
