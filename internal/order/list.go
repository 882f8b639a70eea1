package order

import (
	"main/internal/errors"
	"main/internal/model"
)

// List is a batch of orders submitted together, usually linked by a
// contingency.
type List struct {
	ID           model.OrderListID
	InstrumentID model.InstrumentID
	StrategyID   model.StrategyID
	Orders       []*Order
	TsInit       model.UnixNanos
}

// NewList validates that all orders share the list's instrument.
func NewList(id model.OrderListID, instrumentID model.InstrumentID, strategyID model.StrategyID, orders []*Order, tsInit model.UnixNanos) (*List, error) {
	if id == "" {
		return nil, errors.Validation("order list id must not be empty")
	}
	if len(orders) == 0 {
		return nil, errors.Validation("order list must not be empty")
	}
	for _, o := range orders {
		if o.InstrumentID != instrumentID {
			return nil, errors.Validationf("order %s instrument %s does not match list %s", o.ClientOrderID, o.InstrumentID, instrumentID)
		}
	}
	return &List{
		ID:           id,
		InstrumentID: instrumentID,
		StrategyID:   strategyID,
		Orders:       orders,
		TsInit:       tsInit,
	}, nil
}

// First returns the primary order of the list.
func (l *List) First() *Order {
	return l.Orders[0]
}
