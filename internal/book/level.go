package book

import (
	"main/internal/errors"
	"main/internal/model"
)

// Level is a single price level holding displayed orders in FIFO order.
type Level struct {
	Price  model.Price
	orders []model.BookOrder
}

// NewLevel creates an empty level at the given price.
func NewLevel(price model.Price) *Level {
	return &Level{Price: price}
}

// Len returns the number of orders at the level.
func (l *Level) Len() int {
	return len(l.orders)
}

// IsEmpty reports whether the level holds no orders.
func (l *Level) IsEmpty() bool {
	return len(l.orders) == 0
}

// Orders returns the level's orders in priority order.
func (l *Level) Orders() []model.BookOrder {
	return l.orders
}

// First returns the order at the front of the queue.
func (l *Level) First() (model.BookOrder, bool) {
	if len(l.orders) == 0 {
		return model.BookOrder{}, false
	}
	return l.orders[0], true
}

// SizeRaw returns the aggregate size at the level in raw units.
func (l *Level) SizeRaw() int64 {
	var total int64
	for _, o := range l.orders {
		total += o.Size.Raw
	}
	return total
}

// Size returns the aggregate size at the level.
func (l *Level) Size() model.Quantity {
	if len(l.orders) == 0 {
		return model.Quantity{}
	}
	return model.QuantityFromRaw(l.SizeRaw(), l.orders[0].Size.Precision)
}

// Exposure returns the aggregate price * size at the level.
func (l *Level) Exposure() float64 {
	var total float64
	for _, o := range l.orders {
		total += o.Exposure()
	}
	return total
}

// Add appends an order to the back of the queue.
func (l *Level) Add(order model.BookOrder) {
	l.orders = append(l.orders, order)
}

// Update changes an order's size in place. An increased size forfeits
// queue priority and moves the order to the back.
func (l *Level) Update(order model.BookOrder) error {
	for i, existing := range l.orders {
		if existing.OrderID != order.OrderID {
			continue
		}
		if order.Size.Raw > existing.Size.Raw {
			l.orders = append(l.orders[:i], l.orders[i+1:]...)
			l.orders = append(l.orders, order)
		} else {
			l.orders[i] = order
		}
		return nil
	}
	return errors.NotFoundf("order %d not found at level %s", order.OrderID, l.Price)
}

// Delete removes an order by its ID.
func (l *Level) Delete(orderID uint64) error {
	for i, existing := range l.orders {
		if existing.OrderID == orderID {
			l.orders = append(l.orders[:i], l.orders[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundf("order %d not found at level %s", orderID, l.Price)
}
