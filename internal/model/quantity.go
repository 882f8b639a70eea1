package model

import (
	"main/internal/errors"
)

// Quantity is a non-negative fixed-precision size as (raw, precision).
type Quantity struct {
	Raw       int64
	Precision uint8
}

// NewQuantity converts a float value using banker's rounding.
func NewQuantity(value float64, precision uint8) (Quantity, error) {
	if value < 0 {
		return Quantity{}, errors.Validationf("quantity must be non-negative, was %v", value)
	}
	raw, err := fixedFromFloat(value, precision)
	if err != nil {
		return Quantity{}, errors.Wrap(err, "new quantity")
	}
	return Quantity{Raw: raw, Precision: precision}, nil
}

// QuantityFromRaw builds a quantity from an already-scaled raw value.
func QuantityFromRaw(raw int64, precision uint8) Quantity {
	return Quantity{Raw: raw, Precision: precision}
}

// ParseQuantity infers precision from the fractional digits of s.
func ParseQuantity(s string) (Quantity, error) {
	raw, precision, err := fixedFromString(s)
	if err != nil {
		return Quantity{}, errors.Wrap(err, "parse quantity")
	}
	if raw < 0 {
		return Quantity{}, errors.Validationf("quantity must be non-negative, was %q", s)
	}
	return Quantity{Raw: raw, Precision: precision}, nil
}

func (q Quantity) Float64() float64 {
	return fixedToFloat(q.Raw, q.Precision)
}

// Rescale returns the quantity at the given precision, rounding half to
// even when the precision decreases.
func (q Quantity) Rescale(precision uint8) (Quantity, error) {
	if err := checkPrecision(precision); err != nil {
		return Quantity{}, err
	}
	return Quantity{Raw: rescaleRaw(q.Raw, q.Precision, precision), Precision: precision}, nil
}

func (q Quantity) IsZero() bool     { return q.Raw == 0 }
func (q Quantity) IsPositive() bool { return q.Raw > 0 }

// Add returns q + other. The precisions must match.
func (q Quantity) Add(other Quantity) (Quantity, error) {
	if q.Precision != other.Precision {
		return Quantity{}, errors.Validationf("quantity precision mismatch: %d vs %d", q.Precision, other.Precision)
	}
	return Quantity{Raw: q.Raw + other.Raw, Precision: q.Precision}, nil
}

// Sub returns q - other. The precisions must match and the result must
// not go negative.
func (q Quantity) Sub(other Quantity) (Quantity, error) {
	if q.Precision != other.Precision {
		return Quantity{}, errors.Validationf("quantity precision mismatch: %d vs %d", q.Precision, other.Precision)
	}
	if other.Raw > q.Raw {
		return Quantity{}, errors.Validationf("quantity subtraction underflow: %s - %s", q, other)
	}
	return Quantity{Raw: q.Raw - other.Raw, Precision: q.Precision}, nil
}

// Min returns the smaller of q and other, assuming equal precision.
func (q Quantity) Min(other Quantity) Quantity {
	if other.Raw < q.Raw {
		return other
	}
	return q
}

// Cmp returns -1, 0 or 1.
func (q Quantity) Cmp(other Quantity) int {
	a, b := q.Raw, other.Raw
	if q.Precision != other.Precision {
		common := q.Precision
		if other.Precision > common {
			common = other.Precision
		}
		a = rescaleRaw(q.Raw, q.Precision, common)
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

func (q Quantity) String() string {
	return string(appendScaled(nil, q.Raw, q.Precision))
}
