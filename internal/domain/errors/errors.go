// Package errors defines domain-specific error types.
// Using typed errors (instead of strings) allows clients to handle specific
// cases with errors.Is / errors.As.
package errors

import (
	"errors"
	"fmt"

	"github.com/Haleralex/coinledger/internal/domain/valueobjects"
)

// Common sentinel errors for domain validation.
var (
	// Entity errors
	ErrEntityNotFound = errors.New("entity not found")

	// Wallet errors
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNegativeBalance     = errors.New("operation would make balance negative")

	// Transaction errors
	ErrTransactionNotPending   = errors.New("transaction is not in pending state")
	ErrInvalidMovementType     = errors.New("invalid movement type")
	ErrDuplicateIdempotencyKey = errors.New("transaction with this idempotency key already exists")
)

// ValidationError represents a request-shape failure with field-level detail.
// Never retried by the engine; maps to 422 at the HTTP edge.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// InsufficientFundsError is raised when a SPEND would take the user's wallet
// below zero. Carries the numbers the caller needs to render the failure.
type InsufficientFundsError struct {
	Balance  valueobjects.Money
	Required valueobjects.Money
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %s, required %s", e.Balance, e.Required)
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientBalance
}

// NewInsufficientFunds creates an InsufficientFundsError.
func NewInsufficientFunds(balance, required valueobjects.Money) *InsufficientFundsError {
	return &InsufficientFundsError{Balance: balance, Required: required}
}

// ConfigurationError signals an operational misconfiguration: a missing or
// depleted system wallet, an asset with no seed data. These are not caller
// mistakes and not retryable.
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(message string, err error) *ConfigurationError {
	return &ConfigurationError{Message: message, Err: err}
}

// StorageError wraps an unexpected database failure after retries were
// exhausted (or the failure was not a transient category).
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a StorageError.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// Helper predicates for common error checking.

// IsNotFound checks if an error is an "entity not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// IsInsufficientFunds checks if an error is an insufficient funds error.
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}

// IsConfiguration checks if an error is a configuration error.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsDuplicateIdempotencyKey checks for the duplicate-key signal raised by the
// transaction store's unique index.
func IsDuplicateIdempotencyKey(err error) bool {
	return errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsStorage checks if an error is a storage error.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
