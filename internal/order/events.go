package order

import (
	"fmt"

	"main/internal/model"
	"main/internal/model/enum"
)

// EventType identifies an order event variant.
type EventType uint8

const (
	EventUnknown EventType = iota
	EventInitialized
	EventDenied
	EventEmulated
	EventReleased
	EventSubmitted
	EventAccepted
	EventRejected
	EventCanceled
	EventExpired
	EventTriggered
	EventPendingUpdate
	EventPendingCancel
	EventModifyRejected
	EventCancelRejected
	EventUpdated
	EventFilled
)

func (t EventType) String() string {
	switch t {
	case EventInitialized:
		return "OrderInitialized"
	case EventDenied:
		return "OrderDenied"
	case EventEmulated:
		return "OrderEmulated"
	case EventReleased:
		return "OrderReleased"
	case EventSubmitted:
		return "OrderSubmitted"
	case EventAccepted:
		return "OrderAccepted"
	case EventRejected:
		return "OrderRejected"
	case EventCanceled:
		return "OrderCanceled"
	case EventExpired:
		return "OrderExpired"
	case EventTriggered:
		return "OrderTriggered"
	case EventPendingUpdate:
		return "OrderPendingUpdate"
	case EventPendingCancel:
		return "OrderPendingCancel"
	case EventModifyRejected:
		return "OrderModifyRejected"
	case EventCancelRejected:
		return "OrderCancelRejected"
	case EventUpdated:
		return "OrderUpdated"
	case EventFilled:
		return "OrderFilled"
	default:
		return "OrderEventUnknown"
	}
}

// Event is a single order event. It is a flat tagged record: the Type
// decides which optional fields are meaningful. Identity fields are always
// populated.
type Event struct {
	Type          EventType
	TraderID      model.TraderID
	StrategyID    model.StrategyID
	InstrumentID  model.InstrumentID
	ClientOrderID model.ClientOrderID
	VenueOrderID  model.VenueOrderID
	AccountID     model.AccountID
	EventID       model.EventID
	TsEvent       model.UnixNanos
	TsInit        model.UnixNanos

	// Initialized.
	OrderSide      enum.OrderSide
	OrderType      enum.OrderType
	Quantity       model.Quantity
	TimeInForce    enum.TimeInForce
	ExpireTime     model.UnixNanos
	Price          model.Price
	TriggerPrice   model.Price
	TriggerType    enum.TriggerType
	PostOnly       bool
	ReduceOnly     bool
	Emulation      enum.TriggerType
	Contingency    enum.ContingencyType
	OrderListID    model.OrderListID
	LinkedOrderIDs []model.ClientOrderID
	ParentOrderID  model.ClientOrderID
	Tags           []string

	// Denied / Rejected / ModifyRejected / CancelRejected.
	Reason string

	// Filled.
	TradeID       model.TradeID
	LastQty       model.Quantity
	LastPx        model.Price
	Commission    model.Money
	LiquiditySide enum.LiquiditySide
	PositionID    model.PositionID
}

func (e Event) String() string {
	return fmt.Sprintf("%s(%s %s)", e.Type, e.InstrumentID, e.ClientOrderID)
}
