package position

import (
	"time"

	"main/internal/errors"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/order"
)

// Position aggregates fills for one instrument under one strategy. A
// position never crosses through zero: the execution engine closes and
// reopens on a flip, so a single aggregate is only ever increased,
// reduced, or flattened.
type Position struct {
	ID           model.PositionID
	TraderID     model.TraderID
	StrategyID   model.StrategyID
	InstrumentID model.InstrumentID
	AccountID    model.AccountID

	OpeningOrderID model.ClientOrderID
	ClosingOrderID model.ClientOrderID

	EntrySide enum.OrderSide
	Side      enum.PositionSide

	SignedRaw     int64
	Quantity      model.Quantity
	PeakQty       model.Quantity
	SizePrecision uint8

	Multiplier float64
	IsInverse  bool

	AvgPxOpen  float64
	AvgPxClose float64

	SettlementCurrency model.Currency
	RealizedPnL        model.Money
	Commissions        map[model.Currency]model.Money

	TsOpened model.UnixNanos
	TsLast   model.UnixNanos
	TsClosed model.UnixNanos

	events   []order.Event
	tradeIDs map[model.TradeID]struct{}
}

// New opens a position from its first fill.
func New(instrument model.Instrument, fill order.Event, id model.PositionID) (*Position, error) {
	if fill.Type != order.EventFilled {
		return nil, errors.Validationf("position requires a fill event, was %s", fill.Type)
	}
	if id == "" {
		return nil, errors.Validation("position id must not be empty")
	}
	mult := instrument.Multiplier.Float64()
	if mult == 0 {
		mult = 1
	}
	p := &Position{
		ID:                 id,
		TraderID:           fill.TraderID,
		StrategyID:         fill.StrategyID,
		InstrumentID:       fill.InstrumentID,
		AccountID:          fill.AccountID,
		OpeningOrderID:     fill.ClientOrderID,
		EntrySide:          fill.OrderSide,
		SizePrecision:      instrument.SizePrecision,
		Multiplier:         mult,
		IsInverse:          instrument.IsInverse,
		SettlementCurrency: instrument.SettlementCurrency,
		RealizedPnL:        model.MoneyFromRaw(0, instrument.SettlementCurrency),
		Commissions:        make(map[model.Currency]model.Money),
		TsOpened:           fill.TsEvent,
		tradeIDs:           make(map[model.TradeID]struct{}),
	}
	if err := p.ApplyFill(fill); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Position) IsLong() bool   { return p.SignedRaw > 0 }
func (p *Position) IsShort() bool  { return p.SignedRaw < 0 }
func (p *Position) IsFlat() bool   { return p.SignedRaw == 0 }
func (p *Position) IsOpen() bool   { return p.SignedRaw != 0 }
func (p *Position) IsClosed() bool { return p.SignedRaw == 0 }

// Events returns the applied fill events in order.
func (p *Position) Events() []order.Event { return p.events }

func (p *Position) EventCount() int { return len(p.events) }

// Duration is the open-to-close interval for closed positions.
func (p *Position) Duration() time.Duration {
	if p.TsClosed == 0 {
		return 0
	}
	return time.Duration(p.TsClosed - p.TsOpened)
}

func signedFill(fill order.Event) (int64, error) {
	switch fill.OrderSide {
	case enum.OrderSideBuy:
		return fill.LastQty.Raw, nil
	case enum.OrderSideSell:
		return -fill.LastQty.Raw, nil
	default:
		return 0, errors.Validation("fill has no order side")
	}
}

// ApplyFill updates the position from a fill. A fill that would cross
// through zero is rejected; callers must split it into a closing and an
// opening portion.
func (p *Position) ApplyFill(fill order.Event) error {
	if fill.Type != order.EventFilled {
		return errors.Validationf("position requires a fill event, was %s", fill.Type)
	}
	if _, seen := p.tradeIDs[fill.TradeID]; seen && fill.TradeID != "" {
		return errors.Validationf("trade id %s already applied to position %s", fill.TradeID, p.ID)
	}
	delta, err := signedFill(fill)
	if err != nil {
		return err
	}
	if delta == 0 {
		return errors.Validation("fill quantity must be positive")
	}

	prev := p.SignedRaw
	next := prev + delta
	if prev != 0 && (prev > 0) != (delta > 0) && abs64(delta) > abs64(prev) {
		return errors.Validationf("fill would flip position %s through zero", p.ID)
	}

	px := fill.LastPx.Float64()
	qty := fill.LastQty.Float64()

	if prev == 0 || (prev > 0) == (delta > 0) {
		// Opening or increasing.
		openQty := absFloat(rawToFloat(prev, p.SizePrecision))
		total := openQty + qty
		if total > 0 {
			p.AvgPxOpen = (p.AvgPxOpen*openQty + px*qty) / total
		}
	} else {
		// Reducing.
		closedQty := qty
		closePrev := absFloat(p.closedQtyFloat())
		total := closePrev + closedQty
		if total > 0 {
			p.AvgPxClose = (p.AvgPxClose*closePrev + px*closedQty) / total
		}
		pnl := p.pointsPnL(p.AvgPxOpen, px) * closedQty * p.Multiplier
		realized, err := model.NewMoney(p.RealizedPnL.Float64()+pnl, p.SettlementCurrency)
		if err != nil {
			return err
		}
		p.RealizedPnL = realized
		p.ClosingOrderID = fill.ClientOrderID
	}

	if fill.Commission.Currency.IsDefined() {
		existing := p.Commissions[fill.Commission.Currency]
		if !existing.Currency.IsDefined() {
			existing = model.MoneyFromRaw(0, fill.Commission.Currency)
		}
		summed, err := existing.Add(fill.Commission)
		if err != nil {
			return err
		}
		p.Commissions[fill.Commission.Currency] = summed
		if fill.Commission.Currency == p.SettlementCurrency {
			p.RealizedPnL = model.MoneyFromRaw(p.RealizedPnL.Raw-fill.Commission.Raw, p.SettlementCurrency)
		}
	}

	p.SignedRaw = next
	p.Quantity = model.QuantityFromRaw(abs64(next), p.SizePrecision)
	if p.Quantity.Raw > p.PeakQty.Raw {
		p.PeakQty = p.Quantity
	}
	switch {
	case next > 0:
		p.Side = enum.PositionSideLong
	case next < 0:
		p.Side = enum.PositionSideShort
	default:
		p.Side = enum.PositionSideFlat
		p.TsClosed = fill.TsEvent
	}
	p.TsLast = fill.TsEvent
	if fill.TradeID != "" {
		p.tradeIDs[fill.TradeID] = struct{}{}
	}
	p.events = append(p.events, fill)
	return nil
}

// closedQtyFloat returns the quantity closed so far.
func (p *Position) closedQtyFloat() float64 {
	var closed int64
	for _, ev := range p.events {
		delta, err := signedFill(ev)
		if err != nil {
			continue
		}
		if p.EntrySide == enum.OrderSideBuy && delta < 0 {
			closed += -delta
		}
		if p.EntrySide == enum.OrderSideSell && delta > 0 {
			closed += delta
		}
	}
	return rawToFloat(closed, p.SizePrecision)
}

// pointsPnL returns per-unit profit for closing at px, signed for the
// position direction.
func (p *Position) pointsPnL(avgOpen, px float64) float64 {
	if p.IsInverse {
		if avgOpen == 0 || px == 0 {
			return 0
		}
		if p.EntrySide == enum.OrderSideBuy {
			return 1/avgOpen - 1/px
		}
		return 1/px - 1/avgOpen
	}
	if p.EntrySide == enum.OrderSideBuy {
		return px - avgOpen
	}
	return avgOpen - px
}

// UnrealizedPnL marks the open quantity against the given price.
func (p *Position) UnrealizedPnL(mark model.Price) (model.Money, error) {
	if p.IsFlat() {
		return model.MoneyFromRaw(0, p.SettlementCurrency), nil
	}
	openQty := rawToFloat(abs64(p.SignedRaw), p.SizePrecision)
	pnl := p.pointsPnL(p.AvgPxOpen, mark.Float64()) * openQty * p.Multiplier
	return model.NewMoney(pnl, p.SettlementCurrency)
}

// TotalPnL is realized plus unrealized at the given mark.
func (p *Position) TotalPnL(mark model.Price) (model.Money, error) {
	unrealized, err := p.UnrealizedPnL(mark)
	if err != nil {
		return model.Money{}, err
	}
	return p.RealizedPnL.Add(unrealized)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func rawToFloat(raw int64, precision uint8) float64 {
	q := model.QuantityFromRaw(abs64(raw), precision)
	f := q.Float64()
	if raw < 0 {
		return -f
	}
	return f
}
