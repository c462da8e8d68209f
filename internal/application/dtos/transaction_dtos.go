// Package dtos holds the data transfer objects that cross the application
// boundary. Use cases accept commands/queries and return DTOs so the HTTP
// adapter never touches domain entities directly.
package dtos

import "time"

// MovementCommand is the typed request for one movement (TOPUP, BONUS,
// SPEND). AssetType carries the code string; resolution to an id happens
// inside the engine.
type MovementCommand struct {
	IdempotencyKey string
	UserID         int64
	AssetType      string
	Amount         string
	Metadata       map[string]any
}

// TransactionDTO is the caller-facing view of a transaction. Amount is the
// canonical decimal string with 8 fractional digits.
type TransactionDTO struct {
	TransactionID  string         `json:"transaction_id"`
	IdempotencyKey string         `json:"idempotency_key"`
	Type           string         `json:"transaction_type"`
	UserID         int64          `json:"user_id"`
	AssetTypeID    int32          `json:"asset_type_id"`
	Amount         string         `json:"amount"`
	Status         string         `json:"status"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}

// GetTransactionQuery fetches one transaction by its public id.
type GetTransactionQuery struct {
	TransactionID string
}
