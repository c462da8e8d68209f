// Package entities - Wallet is the core entity for balances.
// It enforces the single hard invariant of the ledger: a committed wallet
// balance is never negative.
package entities

import (
	"time"

	"github.com/Haleralex/coinledger/internal/domain/errors"
	"github.com/Haleralex/coinledger/internal/domain/valueobjects"
)

// SystemKind tags the three system wallets that act as sources and sinks.
type SystemKind string

const (
	SystemKindTreasury  SystemKind = "TREASURY"
	SystemKindMarketing SystemKind = "MARKETING"
	SystemKindRevenue   SystemKind = "REVENUE"
)

// System principal ids. Negative ids keep system accounts out of the user id
// space while sharing the (principal_id, asset_type_id) unique index.
const (
	TreasuryPrincipalID  int64 = -1
	MarketingPrincipalID int64 = -2
	RevenuePrincipalID   int64 = -3
)

// SystemKindForPrincipal maps a system principal id to its kind.
// Returns "" for user (positive) principals.
func SystemKindForPrincipal(principalID int64) SystemKind {
	switch principalID {
	case TreasuryPrincipalID:
		return SystemKindTreasury
	case MarketingPrincipalID:
		return SystemKindMarketing
	case RevenuePrincipalID:
		return SystemKindRevenue
	default:
		return ""
	}
}

// Wallet is an account holding a non-negative balance of one asset for one
// principal. User wallets are created lazily on first movement; system
// wallets are seeded and never deleted.
//
// Entity Pattern:
// - Identity: surrogate 64-bit id, unique (principal_id, asset_type_id)
// - Enforces invariants: Credit/Debit refuse to break balance >= 0
// - Mutations happen on the locked in-memory instance; the repository
//   persists that instance without re-reading the row
type Wallet struct {
	id          int64
	principalID int64
	assetTypeID int32
	balance     valueobjects.Money
	isSystem    bool
	systemKind  SystemKind
	createdAt   time.Time
	updatedAt   time.Time
}

// NewWallet creates a wallet with zero balance for the given principal.
// System principals (negative ids) get their kind tag materialized.
func NewWallet(principalID int64, assetTypeID int32) *Wallet {
	kind := SystemKindForPrincipal(principalID)
	now := time.Now().UTC()
	return &Wallet{
		principalID: principalID,
		assetTypeID: assetTypeID,
		balance:     valueobjects.ZeroMoney(),
		isSystem:    kind != "",
		systemKind:  kind,
		createdAt:   now,
		updatedAt:   now,
	}
}

// ReconstructWallet hydrates a Wallet from stored data.
func ReconstructWallet(
	id, principalID int64,
	assetTypeID int32,
	balance valueobjects.Money,
	isSystem bool,
	systemKind SystemKind,
	createdAt, updatedAt time.Time,
) *Wallet {
	return &Wallet{
		id:          id,
		principalID: principalID,
		assetTypeID: assetTypeID,
		balance:     balance,
		isSystem:    isSystem,
		systemKind:  systemKind,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// Getters

func (w *Wallet) ID() int64 {
	return w.id
}

// SetID assigns the surrogate id after INSERT ... RETURNING id.
// Repository use only.
func (w *Wallet) SetID(id int64) {
	w.id = id
}

func (w *Wallet) PrincipalID() int64 {
	return w.principalID
}

func (w *Wallet) AssetTypeID() int32 {
	return w.assetTypeID
}

func (w *Wallet) Balance() valueobjects.Money {
	return w.balance
}

func (w *Wallet) IsSystem() bool {
	return w.isSystem
}

func (w *Wallet) SystemKind() SystemKind {
	return w.systemKind
}

func (w *Wallet) CreatedAt() time.Time {
	return w.createdAt
}

func (w *Wallet) UpdatedAt() time.Time {
	return w.updatedAt
}

// Business methods

// HasSufficientBalance reports whether the wallet can cover amount.
func (w *Wallet) HasSufficientBalance(amount valueobjects.Money) bool {
	return w.balance.GreaterThanOrEqual(amount)
}

// Credit adds amount to the balance. Amount must be positive.
func (w *Wallet) Credit(amount valueobjects.Money) error {
	if !amount.IsPositive() {
		return errors.ValidationError{Field: "amount", Message: "credit amount must be positive"}
	}

	newBalance, err := w.balance.Add(amount)
	if err != nil {
		return err
	}

	w.balance = newBalance
	w.updatedAt = time.Now().UTC()
	return nil
}

// Debit subtracts amount from the balance. Amount must be positive and the
// resulting balance must stay >= 0; otherwise ErrInsufficientBalance.
func (w *Wallet) Debit(amount valueobjects.Money) error {
	if !amount.IsPositive() {
		return errors.ValidationError{Field: "amount", Message: "debit amount must be positive"}
	}

	if !w.HasSufficientBalance(amount) {
		return errors.NewInsufficientFunds(w.balance, amount)
	}

	newBalance, err := w.balance.Sub(amount)
	if err != nil {
		return err
	}

	w.balance = newBalance
	w.updatedAt = time.Now().UTC()
	return nil
}
