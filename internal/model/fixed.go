package model

import (
	"math"
	"strconv"
	"strings"

	"main/internal/errors"
)

// FixedPrecisionMax is the maximum supported decimal precision for
// fixed-point raw values stored in int64.
const FixedPrecisionMax = 9

var pow10 = [...]int64{
	1,
	10,
	100,
	1_000,
	10_000,
	100_000,
	1_000_000,
	10_000_000,
	100_000_000,
	1_000_000_000,
}

func checkPrecision(precision uint8) error {
	if precision > FixedPrecisionMax {
		return errors.Validationf("precision %d exceeds maximum %d", precision, FixedPrecisionMax)
	}
	return nil
}

// fixedFromFloat converts a float to a raw fixed-point value using
// banker's rounding (round half to even).
func fixedFromFloat(value float64, precision uint8) (int64, error) {
	if err := checkPrecision(precision); err != nil {
		return 0, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, errors.Validationf("value is not finite: %v", value)
	}
	scaled := value * float64(pow10[precision])
	return int64(math.RoundToEven(scaled)), nil
}

func fixedToFloat(raw int64, precision uint8) float64 {
	return float64(raw) / float64(pow10[precision])
}

// fixedFromString parses a plain decimal string into a raw value and its
// inferred precision (number of fractional digits, capped at the maximum).
func fixedFromString(s string) (int64, uint8, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, errors.Validation("empty decimal string")
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		return 0, 0, errors.Validation("empty decimal string")
	}

	intPart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart = s[:idx]
		fracPart = s[idx+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > FixedPrecisionMax {
		return 0, 0, errors.Validationf("too many fractional digits in %q", s)
	}

	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, 0, errors.Validationf("invalid decimal string %q", s)
	}

	precision := uint8(len(fracPart))
	raw := whole * pow10[precision]
	if fracPart != "" {
		frac, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, 0, errors.Validationf("invalid decimal string %q", s)
		}
		raw += frac
	}
	if neg {
		raw = -raw
	}
	return raw, precision, nil
}

// rescaleRaw changes the precision of a raw value, rounding half to even
// when precision decreases.
func rescaleRaw(raw int64, from, to uint8) int64 {
	if from == to {
		return raw
	}
	if to > from {
		return raw * pow10[to-from]
	}
	div := pow10[from-to]
	q := raw / div
	rem := raw % div
	if rem == 0 {
		return q
	}
	abs := rem
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs*2 > div:
		// Round away from zero.
	case abs*2 < div:
		return q
	default:
		// Exactly half: round to even.
		if q%2 == 0 {
			return q
		}
	}
	if raw > 0 {
		return q + 1
	}
	return q - 1
}

// appendScaled appends the textual form of a raw fixed-point value.
func appendScaled(buf []byte, raw int64, precision uint8) []byte {
	if precision == 0 {
		return strconv.AppendInt(buf, raw, 10)
	}

	neg := raw < 0
	u := uint64(raw)
	if neg {
		u = uint64(^raw) + 1
	}

	var tmp [24]byte
	digits := strconv.AppendUint(tmp[:0], u, 10)

	if neg {
		buf = append(buf, '-')
	}

	scale := int(precision)
	if len(digits) <= scale {
		buf = append(buf, '0', '.')
		for i := 0; i < scale-len(digits); i++ {
			buf = append(buf, '0')
		}
		return append(buf, digits...)
	}

	idx := len(digits) - scale
	buf = append(buf, digits[:idx]...)
	buf = append(buf, '.')
	return append(buf, digits[idx:]...)
}
