package model

import (
	"math"

	"main/internal/errors"
	"main/internal/model/enum"
)

// Instrument is a tradeable definition tagged by kind. All variants share
// the same attribute set; kind-specific behavior keys off Kind and
// IsInverse.
type Instrument struct {
	ID        InstrumentID
	RawSymbol Symbol
	Kind      enum.InstrumentKind

	BaseCurrency       Currency
	QuoteCurrency      Currency
	SettlementCurrency Currency
	IsInverse          bool

	PricePrecision uint8
	SizePrecision  uint8
	PriceIncrement Price
	SizeIncrement  Quantity
	Multiplier     Quantity
	LotSize        Quantity

	MarginInit  float64
	MarginMaint float64
	MakerFee    float64
	TakerFee    float64

	TsEvent UnixNanos
	TsInit  UnixNanos
}

// Validate checks the structural invariants of the definition.
func (i Instrument) Validate() error {
	if !i.ID.IsDefined() {
		return errors.Validation("instrument id must be defined")
	}
	if i.Kind == enum.InstrumentKindUnknown {
		return errors.Validation("instrument kind must be set")
	}
	if err := checkPrecision(i.PricePrecision); err != nil {
		return err
	}
	if err := checkPrecision(i.SizePrecision); err != nil {
		return err
	}
	if !i.PriceIncrement.IsPositive() {
		return errors.Validationf("price increment must be positive for %s", i.ID)
	}
	if !i.SizeIncrement.IsPositive() {
		return errors.Validationf("size increment must be positive for %s", i.ID)
	}
	if !i.QuoteCurrency.IsDefined() {
		return errors.Validationf("quote currency must be set for %s", i.ID)
	}
	return nil
}

// MakePrice rounds a float to a valid price at the instrument precision.
func (i Instrument) MakePrice(value float64) (Price, error) {
	return NewPrice(value, i.PricePrecision)
}

// MakeQty rounds a float to a valid quantity at the instrument precision.
func (i Instrument) MakeQty(value float64) (Quantity, error) {
	return NewQuantity(value, i.SizePrecision)
}

// CostCurrency is the currency notional values are denominated in.
func (i Instrument) CostCurrency() Currency {
	if i.IsInverse {
		return i.BaseCurrency
	}
	return i.QuoteCurrency
}

// NotionalValue computes the notional of a fill. For inverse instruments
// the notional is denominated in the base currency unless useQuoteForInverse
// is set, in which case the size is interpreted as quote units directly.
func (i Instrument) NotionalValue(qty Quantity, price Price, useQuoteForInverse bool) (Money, error) {
	mult := i.Multiplier.Float64()
	if mult == 0 {
		mult = 1
	}
	if i.IsInverse {
		if useQuoteForInverse {
			return NewMoney(qty.Float64()*mult, i.QuoteCurrency)
		}
		px := price.Float64()
		if px == 0 {
			return Money{}, errors.Validation("inverse notional requires a non-zero price")
		}
		return NewMoney(qty.Float64()*mult*(1.0/px), i.BaseCurrency)
	}
	return NewMoney(qty.Float64()*mult*price.Float64(), i.QuoteCurrency)
}

// CalculateCommission computes the fee for a fill at the given liquidity
// side. Commission is always non-negative for positive fee schedules.
func (i Instrument) CalculateCommission(qty Quantity, price Price, liquidity enum.LiquiditySide, useQuoteForInverse bool) (Money, error) {
	notional, err := i.NotionalValue(qty, price, useQuoteForInverse)
	if err != nil {
		return Money{}, errors.Wrap(err, "calculate commission")
	}
	var rate float64
	switch liquidity {
	case enum.LiquiditySideMaker:
		rate = i.MakerFee
	case enum.LiquiditySideTaker:
		rate = i.TakerFee
	default:
		return Money{}, errors.Validationf("invalid liquidity side %s", liquidity)
	}
	amount := math.Abs(notional.Float64()) * rate
	return NewMoney(amount, notional.Currency)
}
