// Package entities - Transaction records one movement between two wallets.
package entities

import (
	"time"

	"github.com/Haleralex/coinledger/internal/domain/errors"
	"github.com/Haleralex/coinledger/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// MovementType is the kind of movement a transaction performs.
// Each type fixes the source and destination wallet of the posting.
type MovementType string

const (
	MovementTopup MovementType = "TOPUP" // TREASURY -> user
	MovementBonus MovementType = "BONUS" // MARKETING -> user
	MovementSpend MovementType = "SPEND" // user -> REVENUE
)

// IsValid checks if the movement type is one of the known kinds.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTopup, MovementBonus, MovementSpend:
		return true
	default:
		return false
	}
}

// TransactionStatus is the state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// IsTerminal returns true once the status can no longer change.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// Transaction is the record of one movement.
//
// State machine:
//
//	(none) -> PENDING -> COMPLETED  [terminal]
//	                  -> FAILED     [terminal]
//
// The idempotency key binds a caller-intended movement to at most one
// committed row; uniqueness is enforced by the storage layer.
type Transaction struct {
	id             int64
	publicID       uuid.UUID
	idempotencyKey string
	movementType   MovementType
	userID         int64
	assetTypeID    int32
	amount         valueobjects.Money
	status         TransactionStatus
	metadata       map[string]any
	errorMessage   string
	createdAt      time.Time
	completedAt    *time.Time
}

// NewTransaction creates a PENDING transaction with a fresh public id.
func NewTransaction(
	idempotencyKey string,
	movementType MovementType,
	userID int64,
	assetTypeID int32,
	amount valueobjects.Money,
	metadata map[string]any,
) (*Transaction, error) {
	if idempotencyKey == "" {
		return nil, errors.ValidationError{Field: "idempotency_key", Message: "idempotency key is required"}
	}
	if !movementType.IsValid() {
		return nil, errors.ErrInvalidMovementType
	}
	if userID <= 0 {
		return nil, errors.ValidationError{Field: "user_id", Message: "user id must be positive"}
	}
	if !amount.IsPositive() {
		return nil, errors.ValidationError{Field: "amount", Message: "amount must be positive"}
	}

	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &Transaction{
		publicID:       uuid.New(),
		idempotencyKey: idempotencyKey,
		movementType:   movementType,
		userID:         userID,
		assetTypeID:    assetTypeID,
		amount:         amount,
		status:         TransactionStatusPending,
		metadata:       metadata,
		createdAt:      time.Now().UTC(),
	}, nil
}

// ReconstructTransaction hydrates a Transaction from stored data.
func ReconstructTransaction(
	id int64,
	publicID uuid.UUID,
	idempotencyKey string,
	movementType MovementType,
	userID int64,
	assetTypeID int32,
	amount valueobjects.Money,
	status TransactionStatus,
	metadata map[string]any,
	errorMessage string,
	createdAt time.Time,
	completedAt *time.Time,
) *Transaction {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return &Transaction{
		id:             id,
		publicID:       publicID,
		idempotencyKey: idempotencyKey,
		movementType:   movementType,
		userID:         userID,
		assetTypeID:    assetTypeID,
		amount:         amount,
		status:         status,
		metadata:       metadata,
		errorMessage:   errorMessage,
		createdAt:      createdAt,
		completedAt:    completedAt,
	}
}

// Getters

func (t *Transaction) ID() int64 {
	return t.id
}

// SetID assigns the surrogate id after INSERT ... RETURNING id.
// Repository use only.
func (t *Transaction) SetID(id int64) {
	t.id = id
}

func (t *Transaction) PublicID() uuid.UUID {
	return t.publicID
}

func (t *Transaction) IdempotencyKey() string {
	return t.idempotencyKey
}

func (t *Transaction) Type() MovementType {
	return t.movementType
}

func (t *Transaction) UserID() int64 {
	return t.userID
}

func (t *Transaction) AssetTypeID() int32 {
	return t.assetTypeID
}

func (t *Transaction) Amount() valueobjects.Money {
	return t.amount
}

func (t *Transaction) Status() TransactionStatus {
	return t.status
}

func (t *Transaction) Metadata() map[string]any {
	return t.metadata
}

func (t *Transaction) ErrorMessage() string {
	return t.errorMessage
}

func (t *Transaction) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Transaction) CompletedAt() *time.Time {
	return t.completedAt
}

// State machine

func (t *Transaction) IsPending() bool {
	return t.status == TransactionStatusPending
}

func (t *Transaction) IsCompleted() bool {
	return t.status == TransactionStatusCompleted
}

func (t *Transaction) IsTerminal() bool {
	return t.status.IsTerminal()
}

// MarkCompleted transitions PENDING -> COMPLETED.
func (t *Transaction) MarkCompleted() error {
	if !t.IsPending() {
		return errors.ErrTransactionNotPending
	}

	now := time.Now().UTC()
	t.status = TransactionStatusCompleted
	t.completedAt = &now
	return nil
}

// MarkFailed transitions PENDING -> FAILED with a reason. Reserved for flows
// that want to persist the failed attempt; the movement engine rolls back
// instead of using it.
func (t *Transaction) MarkFailed(reason string) error {
	if !t.IsPending() {
		return errors.ErrTransactionNotPending
	}

	now := time.Now().UTC()
	t.status = TransactionStatusFailed
	t.errorMessage = reason
	t.completedAt = &now
	return nil
}
