package exec

import (
	"main/internal/model"
	"main/internal/model/enum"
)

// OrderStatusReport is a venue-side snapshot of one order, used to
// reconcile cached state against what the venue is actually working.
type OrderStatusReport struct {
	AccountID     model.AccountID
	InstrumentID  model.InstrumentID
	ClientOrderID model.ClientOrderID
	VenueOrderID  model.VenueOrderID
	OrderSide     enum.OrderSide
	OrderType     enum.OrderType
	TimeInForce   enum.TimeInForce
	Status        enum.OrderStatus
	Quantity      model.Quantity
	FilledQty     model.Quantity
	Price         model.Price
	TsLast        model.UnixNanos
}

// FillReport is a venue-side execution record for one order.
type FillReport struct {
	AccountID     model.AccountID
	InstrumentID  model.InstrumentID
	ClientOrderID model.ClientOrderID
	VenueOrderID  model.VenueOrderID
	TradeID       model.TradeID
	OrderSide     enum.OrderSide
	FilledQty     model.Quantity
	AvgPx         float64
	TsLast        model.UnixNanos
}

// PositionStatusReport is a venue-side snapshot of one net position.
type PositionStatusReport struct {
	AccountID       model.AccountID
	InstrumentID    model.InstrumentID
	VenuePositionID model.PositionID
	PositionSide    enum.PositionSide
	Quantity        model.Quantity
	TsLast          model.UnixNanos
}
