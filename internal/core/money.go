// Package core holds the domain types shared by every layer: money in
// integer cents, calendar dates, and the record kinds the store
// persists.
//
// This file contains money parsing and formatting. Amounts are parsed
// from decimal strings once at the boundary and kept as int64 cents
// everywhere else, so sums stay exact no matter how many entries are
// aggregated.
package core

import (
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Money is a monetary amount in integer cents. The zero value is zero
// money; negative values only appear in derived figures such as net,
// never in stored records.
type Money struct {
	Cents int64 `json:"cents"`
}

// ParseMoney converts a decimal string to Money with half-up rounding
// on the third fractional digit. Both "12.34" and "12,34" forms are
// accepted. Zero and negative amounts are rejected: stored amounts are
// magnitudes, the sign lives in the transaction kind.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(normalizeAmount(s))
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.Sign() <= 0 {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Mul(oneHundred).Round(0).IntPart()
	if cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents}, nil
}

// ParseSignedMoney is ParseMoney without the positivity requirement,
// for derived values like filters on net amounts.
func ParseSignedMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(normalizeAmount(s))
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: d.Mul(oneHundred).Round(0).IntPart()}, nil
}

func normalizeAmount(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t':
			continue
		case ',':
			out = append(out, '.')
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}

// Validate rejects non-positive amounts.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m − other. The result may be negative.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// Decimal returns the exact decimal value (cents scaled by 10^-2).
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with exactly two fraction digits, e.g.
// "12.34" or "-0.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}
