package exec

import (
	"fmt"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/order"
)

// CommandType identifies a trading command variant.
type CommandType uint8

const (
	CommandUnknown CommandType = iota
	CommandSubmitOrder
	CommandSubmitOrderList
	CommandModifyOrder
	CommandCancelOrder
	CommandCancelAllOrders
	CommandBatchCancelOrders
	CommandQueryOrder
)

func (t CommandType) String() string {
	switch t {
	case CommandSubmitOrder:
		return "SubmitOrder"
	case CommandSubmitOrderList:
		return "SubmitOrderList"
	case CommandModifyOrder:
		return "ModifyOrder"
	case CommandCancelOrder:
		return "CancelOrder"
	case CommandCancelAllOrders:
		return "CancelAllOrders"
	case CommandBatchCancelOrders:
		return "BatchCancelOrders"
	case CommandQueryOrder:
		return "QueryOrder"
	default:
		return "Unknown"
	}
}

// Command is a trading command. It is a flat tagged record: Type decides
// which fields are meaningful.
type Command struct {
	Type         CommandType
	TraderID     model.TraderID
	StrategyID   model.StrategyID
	InstrumentID model.InstrumentID
	ClientID     model.ClientID

	// SubmitOrder / SubmitOrderList.
	Order      *order.Order
	OrderList  *order.List
	PositionID model.PositionID

	// ModifyOrder / CancelOrder.
	ClientOrderID model.ClientOrderID
	VenueOrderID  model.VenueOrderID
	Quantity      model.Quantity
	Price         model.Price
	TriggerPrice  model.Price

	// CancelAllOrders.
	OrderSide enum.OrderSide

	// BatchCancelOrders.
	CancelIDs []model.ClientOrderID

	CommandID model.EventID
	TsInit    model.UnixNanos
}

func (c Command) String() string {
	return fmt.Sprintf("%s(%s %s)", c.Type, c.InstrumentID, c.ClientOrderID)
}
