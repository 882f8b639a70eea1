package exec

import (
	"fmt"

	"main/internal/model"
	"main/internal/model/enum"
)

// PositionEventType identifies a position lifecycle event.
type PositionEventType uint8

const (
	PositionOpened PositionEventType = iota + 1
	PositionChanged
	PositionClosed
)

func (t PositionEventType) String() string {
	switch t {
	case PositionOpened:
		return "PositionOpened"
	case PositionChanged:
		return "PositionChanged"
	case PositionClosed:
		return "PositionClosed"
	default:
		return "PositionEventUnknown"
	}
}

// PositionEvent reports a position state change caused by a fill.
type PositionEvent struct {
	Type         PositionEventType
	PositionID   model.PositionID
	TraderID     model.TraderID
	StrategyID   model.StrategyID
	InstrumentID model.InstrumentID
	AccountID    model.AccountID

	Side        enum.PositionSide
	SignedRaw   int64
	Quantity    model.Quantity
	PeakQty     model.Quantity
	AvgPxOpen   float64
	AvgPxClose  float64
	RealizedPnL model.Money

	OpeningOrderID model.ClientOrderID
	ClosingOrderID model.ClientOrderID

	EventID model.EventID
	TsEvent model.UnixNanos
	TsInit  model.UnixNanos
}

func (e PositionEvent) String() string {
	return fmt.Sprintf("%s(%s %s %s)", e.Type, e.PositionID, e.Side, e.Quantity)
}
