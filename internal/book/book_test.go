package book

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/errors"
	"main/internal/model"
	"main/internal/model/enum"
)

var testInstrument = model.InstrumentID{Symbol: "AUD/USD", Venue: "SIM"}

func price(t *testing.T, s string) model.Price {
	t.Helper()
	p, err := model.ParsePrice(s)
	require.NoError(t, err)
	return p
}

func qty(t *testing.T, s string) model.Quantity {
	t.Helper()
	q, err := model.ParseQuantity(s)
	require.NoError(t, err)
	return q
}

func delta(t *testing.T, action enum.BookAction, side enum.OrderSide, px, size string, orderID, seq uint64) model.OrderBookDelta {
	t.Helper()
	return model.OrderBookDelta{
		InstrumentID: testInstrument,
		Action:       action,
		Order: model.BookOrder{
			Side:    side,
			Price:   price(t, px),
			Size:    qty(t, size),
			OrderID: orderID,
		},
		Sequence: seq,
		TsEvent:  model.UnixNanos(seq),
		TsInit:   model.UnixNanos(seq),
	}
}

func TestL2AddUpdateDelete(t *testing.T) {
	b := New(testInstrument, enum.BookTypeL2MBP)

	require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionAdd, enum.OrderSideBuy, "1.00", "100", 0, 1)))
	require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionAdd, enum.OrderSideSell, "1.01", "50", 0, 2)))

	bid, ok := b.BestBidPrice()
	require.True(t, ok)
	assert.Equal(t, "1.00", bid.String())
	ask, ok := b.BestAskPrice()
	require.True(t, ok)
	assert.Equal(t, "1.01", ask.String())

	// Update replaces the aggregate at the level.
	require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionUpdate, enum.OrderSideBuy, "1.00", "70", 0, 3)))
	size, ok := b.BestBidSize()
	require.True(t, ok)
	assert.Equal(t, "70", size.String())

	// Update to zero size removes the level.
	require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionUpdate, enum.OrderSideBuy, "1.00", "0", 0, 4)))
	_, ok = b.BestBidPrice()
	assert.False(t, ok)

	require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionDelete, enum.OrderSideSell, "1.01", "0", 0, 5)))
	_, ok = b.BestAskPrice()
	assert.False(t, ok)

	assert.Equal(t, uint64(5), b.UpdateCount())
}

func TestBookOrderInvariantNotCrossed(t *testing.T) {
	b := New(testInstrument, enum.BookTypeL2MBP)
	require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionAdd, enum.OrderSideBuy, "1.00", "100", 0, 1)))

	err := b.ApplyDelta(delta(t, enum.BookActionAdd, enum.OrderSideSell, "0.99", "50", 0, 2))
	require.Error(t, err)
	assert.True(t, errors.IsIntegrity(err))
	assert.True(t, b.IsInconsistent())

	// Any further update is refused until a reset.
	err = b.ApplyDelta(delta(t, enum.BookActionAdd, enum.OrderSideBuy, "0.98", "10", 0, 3))
	require.Error(t, err)

	b.Clear()
	require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionAdd, enum.OrderSideBuy, "0.98", "10", 0, 4)))
}

func TestL3FIFOAndSizeIncreaseLosesPriority(t *testing.T) {
	b := New(testInstrument, enum.BookTypeL3MBO)

	require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionAdd, enum.OrderSideBuy, "1.00", "10", 1, 1)))
	require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionAdd, enum.OrderSideBuy, "1.00", "20", 2, 2)))

	top, ok := b.Bids().Top()
	require.True(t, ok)
	first, ok := top.First()
	require.True(t, ok)
	assert.Equal(t, uint64(1), first.OrderID)

	// Shrinking keeps position.
	require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionUpdate, enum.OrderSideBuy, "1.00", "5", 1, 3)))
	first, _ = top.First()
	assert.Equal(t, uint64(1), first.OrderID)

	// Growing moves to the back.
	require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionUpdate, enum.OrderSideBuy, "1.00", "50", 1, 4)))
	top, _ = b.Bids().Top()
	first, _ = top.First()
	assert.Equal(t, uint64(2), first.OrderID)

	// Unknown order id is an integrity error.
	err := b.ApplyDelta(delta(t, enum.BookActionUpdate, enum.OrderSideBuy, "1.00", "5", 99, 5))
	require.Error(t, err)
	assert.True(t, errors.IsIntegrity(err))
}

func TestL1SingleLevelPerSide(t *testing.T) {
	b := New(testInstrument, enum.BookTypeL1MBP)

	require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionAdd, enum.OrderSideBuy, "1.00", "10", 0, 1)))
	require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionAdd, enum.OrderSideBuy, "1.02", "20", 0, 2)))

	assert.Equal(t, 1, b.Bids().Len())
	bid, _ := b.BestBidPrice()
	assert.Equal(t, "1.02", bid.String())

	require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionDelete, enum.OrderSideBuy, "1.02", "0", 0, 3)))
	assert.True(t, b.Bids().IsEmpty())
}

func TestLaddersMonotonic(t *testing.T) {
	b := New(testInstrument, enum.BookTypeL2MBP)
	for i, px := range []string{"1.03", "1.01", "1.05", "1.02", "1.04"} {
		require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionAdd, enum.OrderSideSell, px, "10", 0, uint64(i+1))))
	}
	levels := b.Asks().Levels()
	for i := 1; i < len(levels); i++ {
		assert.True(t, levels[i-1].Price.Cmp(levels[i].Price) < 0, "asks must ascend")
	}

	for i, px := range []string{"0.99", "1.00", "0.97", "0.98"} {
		require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionAdd, enum.OrderSideBuy, px, "10", 0, uint64(i+6))))
	}
	levels = b.Bids().Levels()
	for i := 1; i < len(levels); i++ {
		assert.True(t, levels[i-1].Price.Cmp(levels[i].Price) > 0, "bids must descend")
	}
}

func TestGetAvgPxForQuantity(t *testing.T) {
	b := New(testInstrument, enum.BookTypeL2MBP)
	require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionAdd, enum.OrderSideSell, "1.10", "50", 0, 1)))
	require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionAdd, enum.OrderSideSell, "1.20", "100", 0, 2)))

	avg := b.GetAvgPxForQuantity(qty(t, "100"), enum.OrderSideBuy)
	assert.InDelta(t, 1.15, avg, 1e-9)

	// Insufficient depth returns NaN.
	avg = b.GetAvgPxForQuantity(qty(t, "1000"), enum.OrderSideBuy)
	assert.True(t, math.IsNaN(avg))
}

func TestSimulateFillsWalksOppositeSide(t *testing.T) {
	b := New(testInstrument, enum.BookTypeL2MBP)
	require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionAdd, enum.OrderSideBuy, "1.10", "50", 0, 1)))
	require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionAdd, enum.OrderSideBuy, "1.09", "100", 0, 2)))

	fills := b.SimulateFills(enum.OrderSideSell, qty(t, "150"), nil)
	require.Len(t, fills, 2)
	assert.Equal(t, "1.10", fills[0].Price.String())
	assert.Equal(t, "50", fills[0].Size.String())
	assert.Equal(t, "1.09", fills[1].Price.String())
	assert.Equal(t, "100", fills[1].Size.String())

	// A limit bounds the walk.
	limit := price(t, "1.10")
	fills = b.SimulateFills(enum.OrderSideSell, qty(t, "150"), &limit)
	require.Len(t, fills, 1)
	assert.Equal(t, "50", fills[0].Size.String())
}

func TestApplyDepthReplacesBook(t *testing.T) {
	b := New(testInstrument, enum.BookTypeL2MBP)
	require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionAdd, enum.OrderSideBuy, "0.90", "10", 0, 1)))

	depth := model.OrderBookDepth10{
		InstrumentID: testInstrument,
		Sequence:     10,
	}
	depth.Bids[0] = model.BookOrder{Side: enum.OrderSideBuy, Price: price(t, "1.00"), Size: qty(t, "5")}
	depth.Asks[0] = model.BookOrder{Side: enum.OrderSideSell, Price: price(t, "1.01"), Size: qty(t, "7")}

	require.NoError(t, b.ApplyDepth(depth))
	bid, _ := b.BestBidPrice()
	ask, _ := b.BestAskPrice()
	assert.Equal(t, "1.00", bid.String())
	assert.Equal(t, "1.01", ask.String())
	assert.Equal(t, 1, b.Bids().Len())

	mid, ok := b.Midpoint()
	require.True(t, ok)
	assert.InDelta(t, 1.005, mid, 1e-9)
	spread, ok := b.Spread()
	require.True(t, ok)
	assert.InDelta(t, 0.01, spread, 1e-9)
}

func TestSequenceRegressionRejected(t *testing.T) {
	b := New(testInstrument, enum.BookTypeL2MBP)
	require.NoError(t, b.ApplyDelta(delta(t, enum.BookActionAdd, enum.OrderSideBuy, "1.00", "10", 0, 5)))
	err := b.ApplyDelta(delta(t, enum.BookActionAdd, enum.OrderSideBuy, "0.99", "10", 0, 3))
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}
