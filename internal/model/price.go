package model

import (
	"main/internal/errors"
)

// Price is a fixed-precision price as (raw, precision). The real value is
// raw * 10^-precision. Arithmetic stays on raw integers and requires both
// operands to share the same precision.
type Price struct {
	Raw       int64
	Precision uint8
}

// NewPrice converts a float value using banker's rounding.
func NewPrice(value float64, precision uint8) (Price, error) {
	raw, err := fixedFromFloat(value, precision)
	if err != nil {
		return Price{}, errors.Wrap(err, "new price")
	}
	return Price{Raw: raw, Precision: precision}, nil
}

// PriceFromRaw builds a price from an already-scaled raw value.
func PriceFromRaw(raw int64, precision uint8) Price {
	return Price{Raw: raw, Precision: precision}
}

// ParsePrice infers precision from the fractional digits of s.
func ParsePrice(s string) (Price, error) {
	raw, precision, err := fixedFromString(s)
	if err != nil {
		return Price{}, errors.Wrap(err, "parse price")
	}
	return Price{Raw: raw, Precision: precision}, nil
}

func (p Price) Float64() float64 {
	return fixedToFloat(p.Raw, p.Precision)
}

func (p Price) IsZero() bool     { return p.Raw == 0 }
func (p Price) IsPositive() bool { return p.Raw > 0 }
func (p Price) IsDefined() bool  { return p != (Price{}) }

// Add returns p + other. The precisions must match.
func (p Price) Add(other Price) (Price, error) {
	if p.Precision != other.Precision {
		return Price{}, errors.Validationf("price precision mismatch: %d vs %d", p.Precision, other.Precision)
	}
	return Price{Raw: p.Raw + other.Raw, Precision: p.Precision}, nil
}

// Sub returns p - other. The precisions must match.
func (p Price) Sub(other Price) (Price, error) {
	if p.Precision != other.Precision {
		return Price{}, errors.Validationf("price precision mismatch: %d vs %d", p.Precision, other.Precision)
	}
	return Price{Raw: p.Raw - other.Raw, Precision: p.Precision}, nil
}

// Rescale returns the price at the given precision, rounding half to
// even when the precision decreases.
func (p Price) Rescale(precision uint8) (Price, error) {
	if err := checkPrecision(precision); err != nil {
		return Price{}, err
	}
	return Price{Raw: rescaleRaw(p.Raw, p.Precision, precision), Precision: precision}, nil
}

// MulScalar scales the price by an integer factor.
func (p Price) MulScalar(n int64) Price {
	return Price{Raw: p.Raw * n, Precision: p.Precision}
}

// Cmp returns -1, 0 or 1. Prices of equal precision compare on raw;
// otherwise on the rescaled common precision.
func (p Price) Cmp(other Price) int {
	a, b := p.Raw, other.Raw
	if p.Precision != other.Precision {
		common := p.Precision
		if other.Precision > common {
			common = other.Precision
		}
		a = rescaleRaw(p.Raw, p.Precision, common)
		b = rescaleRaw(other.Raw, other.Precision, common)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (p Price) String() string {
	return string(appendScaled(nil, p.Raw, p.Precision))
}
