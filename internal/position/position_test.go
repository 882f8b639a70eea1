package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/order"
)

func testInstrument(t *testing.T) model.Instrument {
	t.Helper()
	id, err := model.ParseInstrumentID("AUD/USD.SIM")
	require.NoError(t, err)
	priceInc, err := model.NewPrice(0.00001, 5)
	require.NoError(t, err)
	sizeInc, err := model.NewQuantity(1, 0)
	require.NoError(t, err)
	mult, err := model.NewQuantity(1, 0)
	require.NoError(t, err)
	return model.Instrument{
		ID:                 id,
		RawSymbol:          id.Symbol,
		Kind:               enum.InstrumentKindCurrencyPair,
		BaseCurrency:       model.AUD,
		QuoteCurrency:      model.USD,
		SettlementCurrency: model.USD,
		PricePrecision:     5,
		SizePrecision:      0,
		PriceIncrement:     priceInc,
		SizeIncrement:      sizeInc,
		Multiplier:         mult,
	}
}

func fill(t *testing.T, inst model.Instrument, side enum.OrderSide, qty, px float64, tradeID string, ts int64) order.Event {
	t.Helper()
	q, err := inst.MakeQty(qty)
	require.NoError(t, err)
	p, err := inst.MakePrice(px)
	require.NoError(t, err)
	return order.Event{
		Type:          order.EventFilled,
		TraderID:      "TRADER-001",
		StrategyID:    "S-001",
		InstrumentID:  inst.ID,
		ClientOrderID: "O-1",
		AccountID:     "SIM-001",
		OrderSide:     side,
		TradeID:       model.TradeID(tradeID),
		LastQty:       q,
		LastPx:        p,
		Commission:    model.MoneyFromRaw(0, model.USD),
		LiquiditySide: enum.LiquiditySideTaker,
		TsEvent:       model.UnixNanos(ts),
	}
}

func TestNewPositionFromFill(t *testing.T) {
	inst := testInstrument(t)
	p, err := New(inst, fill(t, inst, enum.OrderSideBuy, 100_000, 1.00010, "T-1", 1), "P-1")
	require.NoError(t, err)

	assert.Equal(t, enum.PositionSideLong, p.Side)
	assert.True(t, p.IsLong())
	assert.True(t, p.IsOpen())
	assert.Equal(t, int64(100_000), p.SignedRaw)
	assert.InDelta(t, 1.00010, p.AvgPxOpen, 1e-12)
	assert.Equal(t, model.UnixNanos(1), p.TsOpened)
	assert.Equal(t, 1, p.EventCount())
}

func TestIncreaseUpdatesAvgOpen(t *testing.T) {
	inst := testInstrument(t)
	p, err := New(inst, fill(t, inst, enum.OrderSideBuy, 100, 1.00000, "T-1", 1), "P-1")
	require.NoError(t, err)
	require.NoError(t, p.ApplyFill(fill(t, inst, enum.OrderSideBuy, 300, 1.00040, "T-2", 2)))

	assert.Equal(t, int64(400), p.SignedRaw)
	assert.InDelta(t, 1.00030, p.AvgPxOpen, 1e-9)
	assert.Equal(t, int64(400), p.PeakQty.Raw)
}

func TestReduceRealizesPnL(t *testing.T) {
	inst := testInstrument(t)
	p, err := New(inst, fill(t, inst, enum.OrderSideBuy, 100_000, 1.00000, "T-1", 1), "P-1")
	require.NoError(t, err)
	require.NoError(t, p.ApplyFill(fill(t, inst, enum.OrderSideSell, 50_000, 1.00100, "T-2", 2)))

	assert.Equal(t, int64(50_000), p.SignedRaw)
	assert.True(t, p.IsOpen())
	assert.InDelta(t, 1.00100, p.AvgPxClose, 1e-9)
	// (1.001 - 1.000) * 50_000
	assert.InDelta(t, 50.0, p.RealizedPnL.Float64(), 1e-9)
}

func TestCloseToFlat(t *testing.T) {
	inst := testInstrument(t)
	p, err := New(inst, fill(t, inst, enum.OrderSideSell, 1000, 1.00200, "T-1", 10), "P-1")
	require.NoError(t, err)
	require.NoError(t, p.ApplyFill(fill(t, inst, enum.OrderSideBuy, 1000, 1.00100, "T-2", 20)))

	assert.True(t, p.IsFlat())
	assert.True(t, p.IsClosed())
	assert.Equal(t, enum.PositionSideFlat, p.Side)
	assert.Equal(t, model.UnixNanos(20), p.TsClosed)
	// Short closed lower: (1.002 - 1.001) * 1000.
	assert.InDelta(t, 1.0, p.RealizedPnL.Float64(), 1e-9)

	unreal, err := p.UnrealizedPnL(mustPrice(t, 1.00000, 5))
	require.NoError(t, err)
	assert.True(t, unreal.IsZero())
}

func TestFlipThroughZeroRejected(t *testing.T) {
	inst := testInstrument(t)
	p, err := New(inst, fill(t, inst, enum.OrderSideBuy, 100, 1.0, "T-1", 1), "P-1")
	require.NoError(t, err)

	err = p.ApplyFill(fill(t, inst, enum.OrderSideSell, 150, 1.0, "T-2", 2))
	require.Error(t, err)
	assert.Equal(t, int64(100), p.SignedRaw)
}

func TestDuplicateTradeIDRejected(t *testing.T) {
	inst := testInstrument(t)
	p, err := New(inst, fill(t, inst, enum.OrderSideBuy, 100, 1.0, "T-1", 1), "P-1")
	require.NoError(t, err)

	err = p.ApplyFill(fill(t, inst, enum.OrderSideBuy, 100, 1.0, "T-1", 2))
	require.Error(t, err)
	assert.Equal(t, 1, p.EventCount())
}

func TestCommissionReducesRealized(t *testing.T) {
	inst := testInstrument(t)
	open := fill(t, inst, enum.OrderSideBuy, 1000, 1.0, "T-1", 1)
	open.Commission = model.MoneyFromRaw(200, model.USD) // 2.00 USD
	p, err := New(inst, open, "P-1")
	require.NoError(t, err)

	assert.InDelta(t, -2.0, p.RealizedPnL.Float64(), 1e-9)
	assert.Equal(t, int64(200), p.Commissions[model.USD].Raw)

	closing := fill(t, inst, enum.OrderSideSell, 1000, 1.001, "T-2", 2)
	closing.Commission = model.MoneyFromRaw(100, model.USD)
	require.NoError(t, p.ApplyFill(closing))
	// 1.0 gross - 3.0 commission.
	assert.InDelta(t, -2.0, p.RealizedPnL.Float64(), 1e-9)
	assert.Equal(t, int64(300), p.Commissions[model.USD].Raw)
}

func TestUnrealizedAndTotalPnL(t *testing.T) {
	inst := testInstrument(t)
	p, err := New(inst, fill(t, inst, enum.OrderSideBuy, 1000, 1.00000, "T-1", 1), "P-1")
	require.NoError(t, err)

	mark := mustPrice(t, 1.00200, 5)
	unreal, err := p.UnrealizedPnL(mark)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, unreal.Float64(), 1e-9)

	total, err := p.TotalPnL(mark)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, total.Float64(), 1e-9)
}

func TestInversePnLSettlesInBase(t *testing.T) {
	inst := testInstrument(t)
	inst.Kind = enum.InstrumentKindCryptoPerpetual
	inst.BaseCurrency = model.BTC
	inst.QuoteCurrency = model.USD
	inst.SettlementCurrency = model.BTC
	inst.IsInverse = true
	inst.PricePrecision = 1
	priceInc, err := model.NewPrice(0.1, 1)
	require.NoError(t, err)
	inst.PriceIncrement = priceInc

	p, err := New(inst, fill(t, inst, enum.OrderSideBuy, 10_000, 10_000.0, "T-1", 1), "P-1")
	require.NoError(t, err)
	require.NoError(t, p.ApplyFill(fill(t, inst, enum.OrderSideSell, 10_000, 12_500.0, "T-2", 2)))

	// 10_000 * (1/10_000 - 1/12_500) = 0.2 BTC.
	assert.Equal(t, model.BTC, p.RealizedPnL.Currency)
	assert.InDelta(t, 0.2, p.RealizedPnL.Float64(), 1e-9)
}

func TestFillConservation(t *testing.T) {
	inst := testInstrument(t)
	p, err := New(inst, fill(t, inst, enum.OrderSideBuy, 300, 1.0, "T-1", 1), "P-1")
	require.NoError(t, err)
	require.NoError(t, p.ApplyFill(fill(t, inst, enum.OrderSideSell, 100, 1.0, "T-2", 2)))
	require.NoError(t, p.ApplyFill(fill(t, inst, enum.OrderSideBuy, 50, 1.0, "T-3", 3)))
	require.NoError(t, p.ApplyFill(fill(t, inst, enum.OrderSideSell, 200, 1.0, "T-4", 4)))

	var sum int64
	for _, ev := range p.Events() {
		if ev.OrderSide == enum.OrderSideBuy {
			sum += ev.LastQty.Raw
		} else {
			sum -= ev.LastQty.Raw
		}
	}
	assert.Equal(t, p.SignedRaw, sum)
	assert.Equal(t, int64(350), p.PeakQty.Raw)
}

func mustPrice(t *testing.T, v float64, precision uint8) model.Price {
	t.Helper()
	p, err := model.NewPrice(v, precision)
	require.NoError(t, err)
	return p
}
