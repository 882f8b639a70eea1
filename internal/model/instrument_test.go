package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model/enum"
)

func testCurrencyPair(t *testing.T) Instrument {
	t.Helper()
	priceInc, err := ParsePrice("0.00001")
	require.NoError(t, err)
	sizeInc, err := ParseQuantity("1")
	require.NoError(t, err)
	return Instrument{
		ID:                 InstrumentID{Symbol: "AUD/USD", Venue: "SIM"},
		RawSymbol:          "AUD/USD",
		Kind:               enum.InstrumentKindCurrencyPair,
		BaseCurrency:       AUD,
		QuoteCurrency:      USD,
		SettlementCurrency: USD,
		PricePrecision:     5,
		SizePrecision:      0,
		PriceIncrement:     priceInc,
		SizeIncrement:      sizeInc,
		MakerFee:           0.0002,
		TakerFee:           0.0004,
	}
}

func TestInstrumentValidate(t *testing.T) {
	inst := testCurrencyPair(t)
	require.NoError(t, inst.Validate())

	broken := inst
	broken.PriceIncrement = Price{}
	require.Error(t, broken.Validate())

	broken = inst
	broken.ID = InstrumentID{}
	require.Error(t, broken.Validate())
}

func TestCommissionTakerAndMaker(t *testing.T) {
	inst := testCurrencyPair(t)
	qty, err := inst.MakeQty(100_000)
	require.NoError(t, err)
	px, err := inst.MakePrice(0.80000)
	require.NoError(t, err)

	taker, err := inst.CalculateCommission(qty, px, enum.LiquiditySideTaker, false)
	require.NoError(t, err)
	assert.Equal(t, "32.00 USD", taker.String())

	maker, err := inst.CalculateCommission(qty, px, enum.LiquiditySideMaker, false)
	require.NoError(t, err)
	assert.Equal(t, "16.00 USD", maker.String())

	_, err = inst.CalculateCommission(qty, px, enum.LiquiditySideNone, false)
	require.Error(t, err)
}

func TestInverseNotional(t *testing.T) {
	priceInc, err := ParsePrice("0.5")
	require.NoError(t, err)
	sizeInc, err := ParseQuantity("1")
	require.NoError(t, err)
	inst := Instrument{
		ID:                 InstrumentID{Symbol: "XBT/USD", Venue: "SIM"},
		Kind:               enum.InstrumentKindCryptoPerpetual,
		BaseCurrency:       BTC,
		QuoteCurrency:      USD,
		SettlementCurrency: BTC,
		IsInverse:          true,
		PricePrecision:     1,
		SizePrecision:      0,
		PriceIncrement:     priceInc,
		SizeIncrement:      sizeInc,
	}
	qty, err := inst.MakeQty(100_000)
	require.NoError(t, err)
	px, err := inst.MakePrice(50_000)
	require.NoError(t, err)

	notional, err := inst.NotionalValue(qty, px, false)
	require.NoError(t, err)
	assert.Equal(t, BTC, notional.Currency)
	assert.InDelta(t, 2.0, notional.Float64(), 1e-9)

	quoted, err := inst.NotionalValue(qty, px, true)
	require.NoError(t, err)
	assert.Equal(t, USD, quoted.Currency)
	assert.InDelta(t, 100_000, quoted.Float64(), 1e-9)
}
