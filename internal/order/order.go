package order

import (
	"main/internal/errors"
	"main/internal/model"
	"main/internal/model/enum"
)

// Order is the aggregate driven by the order event state machine. All
// variants share this struct; Type decides which optional fields apply.
type Order struct {
	TraderID      model.TraderID
	StrategyID    model.StrategyID
	InstrumentID  model.InstrumentID
	ClientOrderID model.ClientOrderID
	VenueOrderID  model.VenueOrderID
	PositionID    model.PositionID
	AccountID     model.AccountID
	LastTradeID   model.TradeID

	Side        enum.OrderSide
	Type        enum.OrderType
	Quantity    model.Quantity
	FilledQty   model.Quantity
	LeavesQty   model.Quantity
	AvgPx       float64
	TimeInForce enum.TimeInForce
	ExpireTime  model.UnixNanos

	Price        model.Price
	TriggerPrice model.Price
	TriggerType  enum.TriggerType

	PostOnly   bool
	ReduceOnly bool
	Emulation  enum.TriggerType

	Contingency    enum.ContingencyType
	OrderListID    model.OrderListID
	LinkedOrderIDs []model.ClientOrderID
	ParentOrderID  model.ClientOrderID
	Tags           []string

	Status enum.OrderStatus
	InitID model.EventID
	TsInit model.UnixNanos
	TsLast model.UnixNanos

	events         []Event
	previousStatus enum.OrderStatus
}

// New builds an order from its OrderInitialized event.
func New(init Event) (*Order, error) {
	if init.Type != EventInitialized {
		return nil, errors.Validationf("order must be built from %s, was %s", EventInitialized, init.Type)
	}
	if init.ClientOrderID == "" {
		return nil, errors.Validation("client order id must not be empty")
	}
	if init.OrderSide == enum.OrderSideNone {
		return nil, errors.Validation("order side must be set")
	}
	if !init.Quantity.IsPositive() {
		return nil, errors.Validationf("order quantity must be positive, was %s", init.Quantity)
	}
	if init.OrderType.HasPrice() && !init.Price.IsDefined() {
		return nil, errors.Validationf("%s order requires a price", init.OrderType)
	}
	if init.OrderType.HasTrigger() && !init.TriggerPrice.IsDefined() {
		return nil, errors.Validationf("%s order requires a trigger price", init.OrderType)
	}
	if init.TimeInForce == enum.TimeInForceGTD && init.ExpireTime == 0 {
		return nil, errors.Validation("GTD order requires an expire time")
	}

	o := &Order{
		TraderID:       init.TraderID,
		StrategyID:     init.StrategyID,
		InstrumentID:   init.InstrumentID,
		ClientOrderID:  init.ClientOrderID,
		Side:           init.OrderSide,
		Type:           init.OrderType,
		Quantity:       init.Quantity,
		FilledQty:      model.QuantityFromRaw(0, init.Quantity.Precision),
		LeavesQty:      init.Quantity,
		TimeInForce:    init.TimeInForce,
		ExpireTime:     init.ExpireTime,
		Price:          init.Price,
		TriggerPrice:   init.TriggerPrice,
		TriggerType:    init.TriggerType,
		PostOnly:       init.PostOnly,
		ReduceOnly:     init.ReduceOnly,
		Emulation:      init.Emulation,
		Contingency:    init.Contingency,
		OrderListID:    init.OrderListID,
		LinkedOrderIDs: init.LinkedOrderIDs,
		ParentOrderID:  init.ParentOrderID,
		Tags:           init.Tags,
		Status:         enum.OrderStatusInitialized,
		InitID:         init.EventID,
		TsInit:         init.TsInit,
		TsLast:         init.TsInit,
	}
	o.events = append(o.events, init)
	return o, nil
}

// Events returns the applied event history, the init event first.
func (o *Order) Events() []Event {
	return o.events
}

// LastEvent returns the most recently applied event.
func (o *Order) LastEvent() Event {
	return o.events[len(o.events)-1]
}

func (o *Order) EventCount() int { return len(o.events) }

func (o *Order) IsOpen() bool {
	switch o.Status {
	case enum.OrderStatusAccepted, enum.OrderStatusTriggered,
		enum.OrderStatusPendingUpdate, enum.OrderStatusPendingCancel,
		enum.OrderStatusPartiallyFilled:
		return true
	default:
		return false
	}
}

func (o *Order) IsClosed() bool {
	return o.Status.IsTerminal()
}

func (o *Order) IsInflight() bool {
	switch o.Status {
	case enum.OrderStatusSubmitted, enum.OrderStatusPendingUpdate, enum.OrderStatusPendingCancel:
		return true
	default:
		return false
	}
}

// IsAggressive reports whether the order takes liquidity on arrival.
func (o *Order) IsAggressive() bool {
	return o.Type == enum.OrderTypeMarket || o.Type == enum.OrderTypeMarketToLimit
}

// WouldReduceOnly reports whether filling last quantity against the given
// position would only reduce it.
func (o *Order) WouldReduceOnly(positionSide enum.PositionSide, positionQty model.Quantity) bool {
	switch positionSide {
	case enum.PositionSideLong:
		return o.Side == enum.OrderSideSell && o.LeavesQty.Raw <= positionQty.Raw
	case enum.PositionSideShort:
		return o.Side == enum.OrderSideBuy && o.LeavesQty.Raw <= positionQty.Raw
	default:
		return false
	}
}

// Apply drives the state machine with the event, mutating the aggregate.
// Invalid transitions are errors and leave the order unchanged.
func (o *Order) Apply(ev Event) error {
	if ev.ClientOrderID != o.ClientOrderID {
		return errors.Validationf("event client order id %s does not match order %s", ev.ClientOrderID, o.ClientOrderID)
	}

	switch ev.Type {
	case EventModifyRejected:
		if o.Status != enum.OrderStatusPendingUpdate {
			return errors.StateTransitionf("invalid order state transition: %s -> %s", o.Status, ev.Type)
		}
		o.Status = o.previousStatus
		o.record(ev)
		return nil
	case EventCancelRejected:
		if o.Status != enum.OrderStatusPendingCancel {
			return errors.StateTransitionf("invalid order state transition: %s -> %s", o.Status, ev.Type)
		}
		o.Status = o.previousStatus
		o.record(ev)
		return nil
	}

	next, err := transition(o.Status, ev.Type)
	if err != nil {
		return err
	}

	switch ev.Type {
	case EventPendingUpdate, EventPendingCancel:
		o.previousStatus = o.Status
	case EventAccepted:
		if ev.VenueOrderID != "" {
			o.VenueOrderID = ev.VenueOrderID
		}
		if ev.AccountID != "" {
			o.AccountID = ev.AccountID
		}
	case EventSubmitted:
		if ev.AccountID != "" {
			o.AccountID = ev.AccountID
		}
	case EventUpdated:
		o.applyUpdated(ev)
	case EventFilled:
		if err := o.applyFilled(ev); err != nil {
			return err
		}
	}

	o.Status = next
	if ev.Type == EventFilled && o.LeavesQty.IsPositive() {
		o.Status = enum.OrderStatusPartiallyFilled
	}
	o.record(ev)
	return nil
}

func (o *Order) record(ev Event) {
	o.events = append(o.events, ev)
	o.TsLast = ev.TsEvent
}

func (o *Order) applyUpdated(ev Event) {
	if ev.Quantity.IsPositive() {
		o.Quantity = ev.Quantity
		leaves := o.Quantity.Raw - o.FilledQty.Raw
		if leaves < 0 {
			leaves = 0
		}
		o.LeavesQty = model.QuantityFromRaw(leaves, o.Quantity.Precision)
	}
	if ev.Price.IsDefined() {
		o.Price = ev.Price
	}
	if ev.TriggerPrice.IsDefined() {
		o.TriggerPrice = ev.TriggerPrice
	}
	if ev.VenueOrderID != "" && ev.VenueOrderID != o.VenueOrderID {
		o.VenueOrderID = ev.VenueOrderID
	}
}

func (o *Order) applyFilled(ev Event) error {
	if !ev.LastQty.IsPositive() {
		return errors.Validationf("fill quantity must be positive, was %s", ev.LastQty)
	}
	if ev.LastQty.Raw > o.LeavesQty.Raw {
		return errors.Validationf("fill quantity %s exceeds leaves %s for %s", ev.LastQty, o.LeavesQty, o.ClientOrderID)
	}

	prevFilled := o.FilledQty.Float64()
	fillQty := ev.LastQty.Float64()
	totalFilled := prevFilled + fillQty
	if totalFilled > 0 {
		o.AvgPx = (o.AvgPx*prevFilled + ev.LastPx.Float64()*fillQty) / totalFilled
	}

	o.FilledQty = model.QuantityFromRaw(o.FilledQty.Raw+ev.LastQty.Raw, o.Quantity.Precision)
	o.LeavesQty = model.QuantityFromRaw(o.LeavesQty.Raw-ev.LastQty.Raw, o.Quantity.Precision)
	o.LastTradeID = ev.TradeID
	if ev.VenueOrderID != "" && o.VenueOrderID == "" {
		o.VenueOrderID = ev.VenueOrderID
	}
	if ev.PositionID != "" {
		o.PositionID = ev.PositionID
	}
	if ev.AccountID != "" {
		o.AccountID = ev.AccountID
	}
	return nil
}
