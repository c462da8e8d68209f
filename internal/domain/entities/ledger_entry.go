// Package entities - LedgerEntry is one leg of a double-entry posting.
package entities

import (
	"time"

	"github.com/Haleralex/coinledger/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// EntryType marks a ledger leg as a debit or a credit.
type EntryType string

const (
	EntryDebit  EntryType = "DEBIT"
	EntryCredit EntryType = "CREDIT"
)

// LedgerEntry records one side of a movement: which wallet moved, in which
// direction, by how much, and the balance before and after. Entries are
// append-only; every COMPLETED transaction has exactly one DEBIT and one
// CREDIT of identical amount.
type LedgerEntry struct {
	id                  int64
	transactionPublicID uuid.UUID
	walletID            int64
	entryType           EntryType
	amount              valueobjects.Money
	balanceBefore       valueobjects.Money
	balanceAfter        valueobjects.Money
	description         string
	createdAt           time.Time
}

// NewLedgerEntry creates a ledger leg for a transaction. Amount is the
// positive movement amount regardless of direction.
func NewLedgerEntry(
	transactionPublicID uuid.UUID,
	walletID int64,
	entryType EntryType,
	amount, balanceBefore, balanceAfter valueobjects.Money,
	description string,
) *LedgerEntry {
	return &LedgerEntry{
		transactionPublicID: transactionPublicID,
		walletID:            walletID,
		entryType:           entryType,
		amount:              amount,
		balanceBefore:       balanceBefore,
		balanceAfter:        balanceAfter,
		description:         description,
		createdAt:           time.Now().UTC(),
	}
}

// ReconstructLedgerEntry hydrates a LedgerEntry from stored data.
func ReconstructLedgerEntry(
	id int64,
	transactionPublicID uuid.UUID,
	walletID int64,
	entryType EntryType,
	amount, balanceBefore, balanceAfter valueobjects.Money,
	description string,
	createdAt time.Time,
) *LedgerEntry {
	return &LedgerEntry{
		id:                  id,
		transactionPublicID: transactionPublicID,
		walletID:            walletID,
		entryType:           entryType,
		amount:              amount,
		balanceBefore:       balanceBefore,
		balanceAfter:        balanceAfter,
		description:         description,
		createdAt:           createdAt,
	}
}

func (e *LedgerEntry) ID() int64 {
	return e.id
}

func (e *LedgerEntry) TransactionPublicID() uuid.UUID {
	return e.transactionPublicID
}

func (e *LedgerEntry) WalletID() int64 {
	return e.walletID
}

func (e *LedgerEntry) Type() EntryType {
	return e.entryType
}

func (e *LedgerEntry) Amount() valueobjects.Money {
	return e.amount
}

func (e *LedgerEntry) BalanceBefore() valueobjects.Money {
	return e.balanceBefore
}

func (e *LedgerEntry) BalanceAfter() valueobjects.Money {
	return e.balanceAfter
}

func (e *LedgerEntry) Description() string {
	return e.description
}

func (e *LedgerEntry) CreatedAt() time.Time {
	return e.createdAt
}

// SignedAmount returns the entry amount with its accounting sign: CREDIT
// positive, DEBIT negative. The signed amounts of a transaction's two legs
// always sum to zero.
func (e *LedgerEntry) SignedAmount() valueobjects.Money {
	if e.entryType == EntryDebit {
		return e.amount.Neg()
	}
	return e.amount
}
