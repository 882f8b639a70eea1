package book

import (
	"sort"

	"main/internal/errors"
	"main/internal/model"
	"main/internal/model/enum"
)

// Ladder holds one side of a book as price levels in best-first order:
// bids descending, asks ascending.
type Ladder struct {
	side   enum.OrderSide
	levels []*Level
	index  map[uint64]int64 // order id -> level price raw
}

// NewLadder creates an empty ladder for the given side.
func NewLadder(side enum.OrderSide) *Ladder {
	return &Ladder{
		side:  side,
		index: make(map[uint64]int64),
	}
}

func (l *Ladder) Side() enum.OrderSide { return l.side }

// Len returns the number of price levels.
func (l *Ladder) Len() int { return len(l.levels) }

// IsEmpty reports whether the ladder has no levels.
func (l *Ladder) IsEmpty() bool { return len(l.levels) == 0 }

// Levels returns the levels best-first.
func (l *Ladder) Levels() []*Level { return l.levels }

// Top returns the best level.
func (l *Ladder) Top() (*Level, bool) {
	if len(l.levels) == 0 {
		return nil, false
	}
	return l.levels[0], true
}

// better reports whether price a has strictly better priority than b.
func (l *Ladder) better(a, b model.Price) bool {
	if l.side == enum.OrderSideBuy {
		return a.Cmp(b) > 0
	}
	return a.Cmp(b) < 0
}

// search returns the insertion index for price and whether an exact level
// exists there.
func (l *Ladder) search(price model.Price) (int, bool) {
	idx := sort.Search(len(l.levels), func(i int) bool {
		return !l.better(l.levels[i].Price, price)
	})
	if idx < len(l.levels) && l.levels[idx].Price.Cmp(price) == 0 {
		return idx, true
	}
	return idx, false
}

// Add inserts an order, creating its level if needed.
func (l *Ladder) Add(order model.BookOrder) {
	idx, found := l.search(order.Price)
	if !found {
		level := NewLevel(order.Price)
		l.levels = append(l.levels, nil)
		copy(l.levels[idx+1:], l.levels[idx:])
		l.levels[idx] = level
	}
	l.levels[idx].Add(order)
	l.index[order.OrderID] = order.Price.Raw
}

// Update modifies an existing order. A price change is a delete + add and
// forfeits priority.
func (l *Ladder) Update(order model.BookOrder) error {
	priceRaw, ok := l.index[order.OrderID]
	if !ok {
		return errors.NotFoundf("order %d not found on %s ladder", order.OrderID, l.side)
	}
	if priceRaw != order.Price.Raw {
		if err := l.Delete(order.OrderID); err != nil {
			return err
		}
		l.Add(order)
		return nil
	}
	idx, found := l.search(order.Price)
	if !found {
		return errors.Integrityf("ladder index desync for order %d", order.OrderID)
	}
	return l.levels[idx].Update(order)
}

// Delete removes an order, dropping its level when it empties.
func (l *Ladder) Delete(orderID uint64) error {
	priceRaw, ok := l.index[orderID]
	if !ok {
		return errors.NotFoundf("order %d not found on %s ladder", orderID, l.side)
	}
	delete(l.index, orderID)
	for i, level := range l.levels {
		if level.Price.Raw != priceRaw {
			continue
		}
		if err := level.Delete(orderID); err != nil {
			return err
		}
		if level.IsEmpty() {
			l.levels = append(l.levels[:i], l.levels[i+1:]...)
		}
		return nil
	}
	return errors.Integrityf("ladder index desync for order %d", orderID)
}

// Clear removes all levels.
func (l *Ladder) Clear() {
	l.levels = nil
	l.index = make(map[uint64]int64)
}

// Contains reports whether the order id rests on the ladder.
func (l *Ladder) Contains(orderID uint64) bool {
	_, ok := l.index[orderID]
	return ok
}

// VolumeRaw returns the total displayed size in raw units.
func (l *Ladder) VolumeRaw() int64 {
	var total int64
	for _, level := range l.levels {
		total += level.SizeRaw()
	}
	return total
}

// Simulate walks the ladder consuming liquidity for an aggressive order
// of the given quantity, optionally bounded by a limit price. The ladder
// holds the passive side: a buy consumes the ask ladder.
func (l *Ladder) Simulate(qty model.Quantity, limit *model.Price) []Fill {
	var fills []Fill
	remaining := qty.Raw
	for _, level := range l.levels {
		if remaining <= 0 {
			break
		}
		if limit != nil {
			if l.side == enum.OrderSideSell && level.Price.Cmp(*limit) > 0 {
				break
			}
			if l.side == enum.OrderSideBuy && level.Price.Cmp(*limit) < 0 {
				break
			}
		}
		for _, order := range level.orders {
			if remaining <= 0 {
				break
			}
			take := order.Size.Raw
			if take > remaining {
				take = remaining
			}
			if take <= 0 {
				continue
			}
			fills = append(fills, Fill{
				Price: level.Price,
				Size:  model.QuantityFromRaw(take, qty.Precision),
			})
			remaining -= take
		}
	}
	return fills
}

// Fill is one (price, size) leg produced by walking a ladder.
type Fill struct {
	Price model.Price
	Size  model.Quantity
}
