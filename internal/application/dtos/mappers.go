package dtos

import "github.com/Haleralex/coinledger/internal/domain/entities"

// MapTransactionToDTO converts a Transaction entity into its DTO.
func MapTransactionToDTO(tx *entities.Transaction) *TransactionDTO {
	if tx == nil {
		return nil
	}

	return &TransactionDTO{
		TransactionID:  tx.PublicID().String(),
		IdempotencyKey: tx.IdempotencyKey(),
		Type:           string(tx.Type()),
		UserID:         tx.UserID(),
		AssetTypeID:    tx.AssetTypeID(),
		Amount:         tx.Amount().String(),
		Status:         string(tx.Status()),
		Metadata:       tx.Metadata(),
		CreatedAt:      tx.CreatedAt(),
		CompletedAt:    tx.CompletedAt(),
	}
}
