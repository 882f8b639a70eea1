package model

import (
	"main/internal/errors"
)

// Money is a fixed-precision amount in a given currency. The precision is
// the currency's precision.
type Money struct {
	Raw      int64
	Currency Currency
}

// NewMoney converts a float amount using banker's rounding at the
// currency precision.
func NewMoney(value float64, currency Currency) (Money, error) {
	if !currency.IsDefined() {
		return Money{}, errors.Validation("money requires a currency")
	}
	raw, err := fixedFromFloat(value, currency.Precision)
	if err != nil {
		return Money{}, errors.Wrap(err, "new money")
	}
	return Money{Raw: raw, Currency: currency}, nil
}

// MoneyFromRaw builds a money amount from an already-scaled raw value.
func MoneyFromRaw(raw int64, currency Currency) Money {
	return Money{Raw: raw, Currency: currency}
}

func (m Money) Float64() float64 {
	return fixedToFloat(m.Raw, m.Currency.Precision)
}

func (m Money) IsZero() bool     { return m.Raw == 0 }
func (m Money) IsNegative() bool { return m.Raw < 0 }

// Add returns m + other. The currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, errors.Validationf("money currency mismatch: %s vs %s", m.Currency, other.Currency)
	}
	return Money{Raw: m.Raw + other.Raw, Currency: m.Currency}, nil
}

// Sub returns m - other. The currencies must match.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, errors.Validationf("money currency mismatch: %s vs %s", m.Currency, other.Currency)
	}
	return Money{Raw: m.Raw - other.Raw, Currency: m.Currency}, nil
}

// Neg returns the negated amount.
func (m Money) Neg() Money {
	return Money{Raw: -m.Raw, Currency: m.Currency}
}

func (m Money) String() string {
	buf := appendScaled(nil, m.Raw, m.Currency.Precision)
	buf = append(buf, ' ')
	buf = append(buf, m.Currency.Code...)
	return string(buf)
}
