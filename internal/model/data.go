package model

import (
	"fmt"

	"main/internal/model/enum"
)

// BookOrder is a single displayed order (or aggregated level) in a book.
type BookOrder struct {
	Side    enum.OrderSide
	Price   Price
	Size    Quantity
	OrderID uint64
}

// Exposure returns price * size as a float.
func (o BookOrder) Exposure() float64 {
	return o.Price.Float64() * o.Size.Float64()
}

// OrderBookDelta is a single mutation of an order book.
type OrderBookDelta struct {
	InstrumentID InstrumentID
	Action       enum.BookAction
	Order        BookOrder
	Flags        uint8
	Sequence     uint64
	TsEvent      UnixNanos
	TsInit       UnixNanos
}

// RecordFlagLast marks the final delta in a contiguous batch.
const RecordFlagLast uint8 = 1 << 7

// IsLast reports whether the delta completes a batch.
func (d OrderBookDelta) IsLast() bool {
	return d.Flags&RecordFlagLast != 0
}

// DepthLevels is the fixed depth of an OrderBookDepth10 snapshot.
const DepthLevels = 10

// OrderBookDepth10 is an aggregated top-10 snapshot per side.
type OrderBookDepth10 struct {
	InstrumentID InstrumentID
	Bids         [DepthLevels]BookOrder
	Asks         [DepthLevels]BookOrder
	BidCounts    [DepthLevels]uint32
	AskCounts    [DepthLevels]uint32
	Flags        uint8
	Sequence     uint64
	TsEvent      UnixNanos
	TsInit       UnixNanos
}

// QuoteTick is a top-of-book bid/ask update.
type QuoteTick struct {
	InstrumentID InstrumentID
	BidPrice     Price
	AskPrice     Price
	BidSize      Quantity
	AskSize      Quantity
	TsEvent      UnixNanos
	TsInit       UnixNanos
}

// ExtractPrice returns the quote price for the given price type.
func (q QuoteTick) ExtractPrice(priceType enum.PriceType) Price {
	switch priceType {
	case enum.PriceTypeBid:
		return q.BidPrice
	case enum.PriceTypeAsk:
		return q.AskPrice
	default:
		mid := (q.BidPrice.Raw + q.AskPrice.Raw) / 2
		return PriceFromRaw(mid, q.BidPrice.Precision)
	}
}

// TradeTick is a single trade print.
type TradeTick struct {
	InstrumentID  InstrumentID
	Price         Price
	Size          Quantity
	AggressorSide enum.AggressorSide
	TradeID       TradeID
	TsEvent       UnixNanos
	TsInit        UnixNanos
}

// MarkPriceUpdate is a venue mark price refresh.
type MarkPriceUpdate struct {
	InstrumentID InstrumentID
	Value        Price
	TsEvent      UnixNanos
	TsInit       UnixNanos
}

// IndexPriceUpdate is an index price refresh.
type IndexPriceUpdate struct {
	InstrumentID InstrumentID
	Value        Price
	TsEvent      UnixNanos
	TsInit       UnixNanos
}

// InstrumentStatus reports a venue trading-state change for an instrument.
type InstrumentStatus struct {
	InstrumentID InstrumentID
	Action       string
	Reason       string
	TsEvent      UnixNanos
	TsInit       UnixNanos
}

func (d OrderBookDelta) String() string {
	return fmt.Sprintf("OrderBookDelta(%s %s %s %s@%s seq=%d)",
		d.InstrumentID, d.Action, d.Order.Side, d.Order.Size, d.Order.Price, d.Sequence)
}

func (q QuoteTick) String() string {
	return fmt.Sprintf("QuoteTick(%s %s@%s / %s@%s)",
		q.InstrumentID, q.BidSize, q.BidPrice, q.AskSize, q.AskPrice)
}

func (t TradeTick) String() string {
	return fmt.Sprintf("TradeTick(%s %s@%s %s)",
		t.InstrumentID, t.Size, t.Price, t.AggressorSide)
}
