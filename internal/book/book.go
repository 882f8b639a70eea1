package book

import (
	"math"

	"main/internal/errors"
	"main/internal/model"
	"main/internal/model/enum"
)

// Integrity errors. Any of these marks the book inconsistent; a Reset
// (clear plus snapshot reapply) is required before further updates.
var (
	ErrOrderNotFound = errors.Integrity("book integrity: order not found")
	ErrNoOrderSide   = errors.Integrity("book integrity: order has no side")
	ErrOrdersCrossed = errors.Integrity("book integrity: orders crossed")
	ErrTooManyOrders = errors.Integrity("book integrity: too many orders for L2 level")
	ErrTooManyLevels = errors.Integrity("book integrity: too many levels for L1 book")
	ErrInconsistent  = errors.Integrity("book is inconsistent and requires a reset")
)

// Book maintains price-time priority state for one instrument.
type Book struct {
	InstrumentID model.InstrumentID
	BookType     enum.BookType

	bids *Ladder
	asks *Ladder

	sequence     uint64
	tsLast       model.UnixNanos
	updateCount  uint64
	inconsistent bool
}

// New creates an empty book.
func New(instrumentID model.InstrumentID, bookType enum.BookType) *Book {
	return &Book{
		InstrumentID: instrumentID,
		BookType:     bookType,
		bids:         NewLadder(enum.OrderSideBuy),
		asks:         NewLadder(enum.OrderSideSell),
	}
}

func (b *Book) Sequence() uint64        { return b.sequence }
func (b *Book) TsLast() model.UnixNanos { return b.tsLast }
func (b *Book) UpdateCount() uint64     { return b.updateCount }
func (b *Book) IsInconsistent() bool    { return b.inconsistent }
func (b *Book) Bids() *Ladder           { return b.bids }
func (b *Book) Asks() *Ladder           { return b.asks }

func (b *Book) ladder(side enum.OrderSide) (*Ladder, error) {
	switch side {
	case enum.OrderSideBuy:
		return b.bids, nil
	case enum.OrderSideSell:
		return b.asks, nil
	default:
		return nil, ErrNoOrderSide
	}
}

// ApplyDelta mutates the book by the delta's action.
func (b *Book) ApplyDelta(delta model.OrderBookDelta) error {
	if b.inconsistent {
		return ErrInconsistent
	}
	if delta.InstrumentID != b.InstrumentID {
		return errors.Validationf("delta instrument %s does not match book %s", delta.InstrumentID, b.InstrumentID)
	}
	if delta.Sequence != 0 && delta.Sequence < b.sequence {
		return errors.Validationf("delta sequence %d regressed below %d", delta.Sequence, b.sequence)
	}

	var err error
	switch delta.Action {
	case enum.BookActionAdd:
		err = b.add(delta.Order)
	case enum.BookActionUpdate:
		err = b.update(delta.Order)
	case enum.BookActionDelete:
		err = b.delete(delta.Order)
	case enum.BookActionClear:
		b.Clear()
	default:
		return errors.Validationf("unknown book action %d", delta.Action)
	}
	if err != nil {
		if errors.IsIntegrity(err) {
			b.inconsistent = true
		}
		return err
	}

	if err := b.checkIntegrity(); err != nil {
		b.inconsistent = true
		return err
	}

	b.sequence = delta.Sequence
	b.tsLast = delta.TsInit
	b.updateCount++
	return nil
}

// ApplyDeltas applies a contiguous batch. The batch is atomic: any error
// marks the book inconsistent rather than leaving a partial update visible.
func (b *Book) ApplyDeltas(deltas []model.OrderBookDelta) error {
	for _, delta := range deltas {
		if err := b.ApplyDelta(delta); err != nil {
			b.inconsistent = true
			return errors.Wrap(err, "apply deltas")
		}
	}
	return nil
}

// ApplyDepth replaces the book from a top-10 snapshot.
func (b *Book) ApplyDepth(depth model.OrderBookDepth10) error {
	if depth.InstrumentID != b.InstrumentID {
		return errors.Validationf("depth instrument %s does not match book %s", depth.InstrumentID, b.InstrumentID)
	}
	b.bids.Clear()
	b.asks.Clear()
	b.inconsistent = false

	for _, order := range depth.Bids {
		if order.Size.IsZero() {
			continue
		}
		if err := b.add(order); err != nil {
			b.inconsistent = true
			return err
		}
	}
	for _, order := range depth.Asks {
		if order.Size.IsZero() {
			continue
		}
		if err := b.add(order); err != nil {
			b.inconsistent = true
			return err
		}
	}
	if err := b.checkIntegrity(); err != nil {
		b.inconsistent = true
		return err
	}

	b.sequence = depth.Sequence
	b.tsLast = depth.TsInit
	b.updateCount++
	return nil
}

// ApplyQuote refreshes an L1 book from a top-of-book quote.
func (b *Book) ApplyQuote(quote model.QuoteTick) error {
	if b.BookType != enum.BookTypeL1MBP {
		return errors.Validationf("quotes can only refresh an L1 book, was %s", b.BookType)
	}
	b.bids.Clear()
	b.asks.Clear()
	b.inconsistent = false
	b.bids.Add(model.BookOrder{
		Side:    enum.OrderSideBuy,
		Price:   quote.BidPrice,
		Size:    quote.BidSize,
		OrderID: l1OrderID(enum.OrderSideBuy),
	})
	b.asks.Add(model.BookOrder{
		Side:    enum.OrderSideSell,
		Price:   quote.AskPrice,
		Size:    quote.AskSize,
		OrderID: l1OrderID(enum.OrderSideSell),
	})
	if err := b.checkIntegrity(); err != nil {
		b.inconsistent = true
		return err
	}
	b.tsLast = quote.TsInit
	b.updateCount++
	return nil
}

// Clear removes all levels and resets the inconsistent flag.
func (b *Book) Clear() {
	b.bids.Clear()
	b.asks.Clear()
	b.inconsistent = false
}

func l1OrderID(side enum.OrderSide) uint64 {
	return uint64(side)
}

func (b *Book) add(order model.BookOrder) error {
	ladder, err := b.ladder(order.Side)
	if err != nil {
		return err
	}
	switch b.BookType {
	case enum.BookTypeL1MBP:
		// A single level per side; Add replaces.
		ladder.Clear()
		order.OrderID = l1OrderID(order.Side)
		ladder.Add(order)
	case enum.BookTypeL2MBP:
		// One aggregated order per price level.
		order.OrderID = uint64(order.Price.Raw)
		idx, found := ladder.search(order.Price)
		if found {
			if ladder.levels[idx].Len() >= 1 {
				return ladder.levels[idx].Update(order)
			}
		}
		ladder.Add(order)
	case enum.BookTypeL3MBO:
		ladder.Add(order)
	default:
		return errors.Validationf("unknown book type %d", b.BookType)
	}
	return nil
}

func (b *Book) update(order model.BookOrder) error {
	ladder, err := b.ladder(order.Side)
	if err != nil {
		return err
	}
	switch b.BookType {
	case enum.BookTypeL1MBP:
		ladder.Clear()
		order.OrderID = l1OrderID(order.Side)
		ladder.Add(order)
		return nil
	case enum.BookTypeL2MBP:
		order.OrderID = uint64(order.Price.Raw)
		if order.Size.IsZero() {
			return b.delete(order)
		}
		if !ladder.Contains(order.OrderID) {
			ladder.Add(order)
			return nil
		}
		return ladder.Update(order)
	case enum.BookTypeL3MBO:
		if !ladder.Contains(order.OrderID) {
			return ErrOrderNotFound
		}
		return ladder.Update(order)
	default:
		return errors.Validationf("unknown book type %d", b.BookType)
	}
}

func (b *Book) delete(order model.BookOrder) error {
	ladder, err := b.ladder(order.Side)
	if err != nil {
		return err
	}
	switch b.BookType {
	case enum.BookTypeL1MBP:
		ladder.Clear()
		return nil
	case enum.BookTypeL2MBP:
		order.OrderID = uint64(order.Price.Raw)
		if !ladder.Contains(order.OrderID) {
			return nil
		}
		return ladder.Delete(order.OrderID)
	case enum.BookTypeL3MBO:
		if !ladder.Contains(order.OrderID) {
			return ErrOrderNotFound
		}
		return ladder.Delete(order.OrderID)
	default:
		return errors.Validationf("unknown book type %d", b.BookType)
	}
}

func (b *Book) checkIntegrity() error {
	if b.BookType == enum.BookTypeL1MBP {
		if b.bids.Len() > 1 || b.asks.Len() > 1 {
			return ErrTooManyLevels
		}
	}
	if b.BookType == enum.BookTypeL2MBP {
		for _, level := range b.bids.levels {
			if level.Len() > 1 {
				return ErrTooManyOrders
			}
		}
		for _, level := range b.asks.levels {
			if level.Len() > 1 {
				return ErrTooManyOrders
			}
		}
	}
	bid, hasBid := b.bids.Top()
	ask, hasAsk := b.asks.Top()
	if hasBid && hasAsk && bid.Price.Cmp(ask.Price) >= 0 {
		return ErrOrdersCrossed
	}
	return nil
}

// BestBidPrice returns the top bid price.
func (b *Book) BestBidPrice() (model.Price, bool) {
	top, ok := b.bids.Top()
	if !ok {
		return model.Price{}, false
	}
	return top.Price, true
}

// BestAskPrice returns the top ask price.
func (b *Book) BestAskPrice() (model.Price, bool) {
	top, ok := b.asks.Top()
	if !ok {
		return model.Price{}, false
	}
	return top.Price, true
}

// BestBidSize returns the displayed size at the top bid.
func (b *Book) BestBidSize() (model.Quantity, bool) {
	top, ok := b.bids.Top()
	if !ok {
		return model.Quantity{}, false
	}
	return top.Size(), true
}

// BestAskSize returns the displayed size at the top ask.
func (b *Book) BestAskSize() (model.Quantity, bool) {
	top, ok := b.asks.Top()
	if !ok {
		return model.Quantity{}, false
	}
	return top.Size(), true
}

// Spread returns ask - bid as a float, when both sides exist.
func (b *Book) Spread() (float64, bool) {
	bid, okBid := b.BestBidPrice()
	ask, okAsk := b.BestAskPrice()
	if !okBid || !okAsk {
		return 0, false
	}
	return ask.Float64() - bid.Float64(), true
}

// Midpoint returns (bid + ask) / 2 as a float, when both sides exist.
func (b *Book) Midpoint() (float64, bool) {
	bid, okBid := b.BestBidPrice()
	ask, okAsk := b.BestAskPrice()
	if !okBid || !okAsk {
		return 0, false
	}
	return (ask.Float64() + bid.Float64()) / 2, true
}

// GetAvgPxForQuantity walks the opposite side of an aggressive order of
// the given side, returning the volume-weighted average price, or NaN
// when the book has insufficient depth.
func (b *Book) GetAvgPxForQuantity(qty model.Quantity, side enum.OrderSide) float64 {
	opposite := b.opposite(side)
	if opposite == nil || qty.IsZero() {
		return math.NaN()
	}
	fills := opposite.Simulate(qty, nil)
	var filled int64
	var notional float64
	for _, fill := range fills {
		filled += fill.Size.Raw
		notional += fill.Price.Float64() * fill.Size.Float64()
	}
	if filled < qty.Raw {
		return math.NaN()
	}
	return notional / qty.Float64()
}

// SimulateFills walks the opposite side under the order's constraints
// and returns the hypothetical fill legs.
func (b *Book) SimulateFills(side enum.OrderSide, qty model.Quantity, limit *model.Price) []Fill {
	opposite := b.opposite(side)
	if opposite == nil {
		return nil
	}
	return opposite.Simulate(qty, limit)
}

func (b *Book) opposite(side enum.OrderSide) *Ladder {
	switch side {
	case enum.OrderSideBuy:
		return b.asks
	case enum.OrderSideSell:
		return b.bids
	default:
		return nil
	}
}
