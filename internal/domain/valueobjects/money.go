// Package valueobjects contains immutable value objects that represent domain
// concepts without identity. They are compared by their values.
package valueobjects

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point decimal amount: 20 significant digits, 8 of them
// fractional. It matches the NUMERIC(20,8) columns the ledger is stored in.
//
// Value Object Pattern:
// - Immutable: all operations return new Money instances
// - Self-validating: cannot create a Money outside the 20.8 range
// - Exact: decimal arithmetic, never binary floats
//
// Money may be negative. It represents amounts and deltas; the "a wallet
// balance is never negative" rule belongs to the Wallet entity, not here.
type Money struct {
	value decimal.Decimal
}

// Scale is the number of fractional digits carried by every Money.
const Scale = 8

// maxMagnitude is 10^12: with 8 fractional digits, 12 integer digits exhaust
// the 20 significant digits of the storage type. Exclusive bound.
var maxMagnitude = decimal.New(1, 12)

// Common domain errors for Money operations.
var (
	ErrInvalidAmount = errors.New("invalid amount format")
	ErrOverflow      = errors.New("amount exceeds 20 digit precision")
)

// NewMoney parses a Money from a canonical decimal string.
//
// Rejected inputs:
//   - anything decimal cannot parse (including "NaN", "Inf", empty string)
//   - more than 8 fractional digits
//   - magnitude of 10^12 or above (would not fit NUMERIC(20,8))
func NewMoney(amountStr string) (Money, error) {
	v, err := decimal.NewFromString(amountStr)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, amountStr)
	}

	if !v.Equal(v.Truncate(Scale)) {
		return Money{}, fmt.Errorf("%w: %q has more than %d fractional digits", ErrInvalidAmount, amountStr, Scale)
	}

	m := Money{value: v.Round(Scale)}
	if err := m.checkBounds(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// NewMoneyFromInt creates a Money from a whole number of units.
func NewMoneyFromInt(amount int64) Money {
	return Money{value: decimal.NewFromInt(amount)}
}

// NewMoneyFromDecimal wraps an existing decimal, enforcing the 20.8 bounds.
// Used by the persistence layer when scanning NUMERIC columns.
func NewMoneyFromDecimal(v decimal.Decimal) (Money, error) {
	m := Money{value: v.Round(Scale)}
	if err := m.checkBounds(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// MustMoney parses a Money and panics on failure. Use only in seeds and tests
// where a bad literal is a programming error.
func MustMoney(amountStr string) Money {
	m, err := NewMoney(amountStr)
	if err != nil {
		panic(err)
	}
	return m
}

// ZeroMoney returns the zero amount.
func ZeroMoney() Money {
	return Money{value: decimal.Zero}
}

func (m Money) checkBounds() error {
	if m.value.Abs().Cmp(maxMagnitude) >= 0 {
		return fmt.Errorf("%w: %s", ErrOverflow, m.value.String())
	}
	return nil
}

// Add returns m + other, failing with ErrOverflow when the result leaves the
// 20.8 range. Both operands carry at most 8 fractional digits, so the sum is
// exact by construction.
func (m Money) Add(other Money) (Money, error) {
	sum := Money{value: m.value.Add(other.value)}
	if err := sum.checkBounds(); err != nil {
		return Money{}, err
	}
	return sum, nil
}

// Sub returns m - other, failing with ErrOverflow when the result leaves the
// 20.8 range. The result may be negative.
func (m Money) Sub(other Money) (Money, error) {
	diff := Money{value: m.value.Sub(other.value)}
	if err := diff.checkBounds(); err != nil {
		return Money{}, err
	}
	return diff, nil
}

// Neg returns -m. Negation cannot overflow because the range is symmetric.
func (m Money) Neg() Money {
	return Money{value: m.value.Neg()}
}

// Cmp compares two amounts: -1 if m < other, 0 if equal, +1 if m > other.
func (m Money) Cmp(other Money) int {
	return m.value.Cmp(other.value)
}

// Equals reports whether two amounts are numerically equal.
func (m Money) Equals(other Money) bool {
	return m.value.Equal(other.value)
}

// GreaterThanOrEqual reports m >= other.
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.value.Cmp(other.value) >= 0
}

// LessThan reports m < other.
func (m Money) LessThan(other Money) bool {
	return m.value.Cmp(other.value) < 0
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.value.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.value.Sign() < 0
}

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool {
	return m.value.Sign() > 0
}

// Decimal returns the underlying decimal value. decimal.Decimal is itself
// immutable, so handing it out does not break the value object.
func (m Money) Decimal() decimal.Decimal {
	return m.value
}

// String formats the amount canonically with exactly 8 fractional digits,
// e.g. "100.00000000". This is the wire and storage representation.
func (m Money) String() string {
	return m.value.StringFixed(Scale)
}

// MarshalJSON encodes Money as a canonical decimal JSON string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON decodes Money from a decimal JSON string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := NewMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
