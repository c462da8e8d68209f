// Package transaction holds the read-side transaction use cases.
package transaction

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Haleralex/coinledger/internal/application/dtos"
	"github.com/Haleralex/coinledger/internal/application/ports"
	domainErrors "github.com/Haleralex/coinledger/internal/domain/errors"
)

// GetTransactionUseCase fetches one transaction by its public id.
type GetTransactionUseCase struct {
	transactions ports.TransactionRepository
	logger       *slog.Logger
}

func NewGetTransactionUseCase(
	transactions ports.TransactionRepository,
	logger *slog.Logger,
) *GetTransactionUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetTransactionUseCase{
		transactions: transactions,
		logger:       logger,
	}
}

// Execute returns the transaction with the given public id.
func (uc *GetTransactionUseCase) Execute(ctx context.Context, query dtos.GetTransactionQuery) (*dtos.TransactionDTO, error) {
	publicID, err := uuid.Parse(query.TransactionID)
	if err != nil {
		return nil, domainErrors.ValidationError{
			Field:   "transaction_id",
			Message: "must be a valid UUID",
		}
	}

	tx, err := uc.transactions.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, fmt.Errorf("find transaction %s: %w", publicID, err)
	}

	return dtos.MapTransactionToDTO(tx), nil
}
