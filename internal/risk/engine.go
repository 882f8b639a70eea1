// Package risk implements pre-trade checks between strategy commands
// and the execution engine. A denied order is stopped before it reaches
// any venue and emits OrderDenied instead.
package risk

import (
	"fmt"
	"time"

	"main/internal/bus"
	"main/internal/cache"
	"main/internal/clock"
	"main/internal/errors"
	"main/internal/exec"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/order"
)

// Config defines static risk limits. Zero values disable a check.
type Config struct {
	KillSwitch           bool
	MaxOrderQty          model.Quantity
	MaxOrderNotional     float64
	MaxPosition          model.Quantity
	OrderRateLimit       int
	OrderRateWindow      time.Duration
	MaxPriceDeviationBps int64
}

// Executor receives the commands that pass the checks.
type Executor interface {
	Execute(cmd exec.Command) error
}

// Engine gates trading commands.
type Engine struct {
	config Config
	next   Executor
	msgbus *bus.Bus
	cache  *cache.Cache
	clk    clock.Clock
	ids    *model.IDGenerator

	rateWindowStart model.UnixNanos
	rateArmed       bool
	rateCount       int
	deniedCount     uint64
}

func NewEngine(cfg Config, next Executor, msgbus *bus.Bus, c *cache.Cache, clk clock.Clock, ids *model.IDGenerator) (*Engine, error) {
	if next == nil || msgbus == nil || c == nil || clk == nil || ids == nil {
		return nil, errors.Validation("risk engine requires executor, bus, cache, clock, and id generator")
	}
	return &Engine{config: cfg, next: next, msgbus: msgbus, cache: c, clk: clk, ids: ids}, nil
}

// SetKillSwitch flips the global trading halt.
func (e *Engine) SetKillSwitch(on bool) { e.config.KillSwitch = on }

// DeniedCount returns the number of denied orders.
func (e *Engine) DeniedCount() uint64 { return e.deniedCount }

// Execute checks submit commands and forwards what passes. Non-submit
// commands pass through untouched.
func (e *Engine) Execute(cmd exec.Command) error {
	switch cmd.Type {
	case exec.CommandSubmitOrder:
		if cmd.Order == nil {
			return errors.Validation("submit order command requires an order")
		}
		if reason := e.check(cmd.Order); reason != "" {
			e.deny(cmd.Order, reason)
			return nil
		}
	case exec.CommandSubmitOrderList:
		if cmd.OrderList == nil {
			return errors.Validation("submit order list command requires a list")
		}
		for _, o := range cmd.OrderList.Orders {
			if reason := e.check(o); reason != "" {
				// One bad leg stops the whole list.
				for _, each := range cmd.OrderList.Orders {
					e.deny(each, reason)
				}
				return nil
			}
		}
	}
	return e.next.Execute(cmd)
}

// check returns a denial reason, or empty when the order passes.
func (e *Engine) check(o *order.Order) string {
	if e.config.KillSwitch {
		return "kill switch engaged"
	}
	if reason := e.checkRate(); reason != "" {
		return reason
	}
	if e.config.MaxOrderQty.IsPositive() && o.Quantity.Float64() > e.config.MaxOrderQty.Float64() {
		return fmt.Sprintf("order quantity %s exceeds limit %s", o.Quantity, e.config.MaxOrderQty)
	}

	ref, hasRef := e.referencePrice(o.InstrumentID)

	if e.config.MaxPriceDeviationBps > 0 && o.Price.IsDefined() && hasRef && ref > 0 {
		deviation := (o.Price.Float64() - ref) / ref * 10_000
		if deviation < 0 {
			deviation = -deviation
		}
		if deviation > float64(e.config.MaxPriceDeviationBps) {
			return fmt.Sprintf("price %s deviates %.0f bps from reference", o.Price, deviation)
		}
	}

	if e.config.MaxOrderNotional > 0 {
		px := o.Price.Float64()
		if !o.Price.IsDefined() && hasRef {
			px = ref
		}
		if px > 0 {
			notional := px * o.Quantity.Float64()
			if notional > e.config.MaxOrderNotional {
				return fmt.Sprintf("order notional %.2f exceeds limit %.2f", notional, e.config.MaxOrderNotional)
			}
		}
	}

	if e.config.MaxPosition.IsPositive() {
		net := e.netPosition(o.InstrumentID)
		if o.Side == enum.OrderSideBuy {
			net += o.Quantity.Raw
		} else {
			net -= o.Quantity.Raw
		}
		if net < 0 {
			net = -net
		}
		netQty := model.QuantityFromRaw(net, o.Quantity.Precision)
		if netQty.Float64() > e.config.MaxPosition.Float64() {
			return fmt.Sprintf("position would exceed limit %s", e.config.MaxPosition)
		}
	}
	return ""
}

func (e *Engine) checkRate() string {
	if e.config.OrderRateLimit <= 0 || e.config.OrderRateWindow <= 0 {
		return ""
	}
	now := e.clk.TimestampNs()
	window := model.UnixNanos(e.config.OrderRateWindow.Nanoseconds())
	if !e.rateArmed || now-e.rateWindowStart >= window {
		e.rateArmed = true
		e.rateWindowStart = now
		e.rateCount = 0
	}
	e.rateCount++
	if e.rateCount > e.config.OrderRateLimit {
		return "order rate limit exceeded"
	}
	return ""
}

// referencePrice prefers the book midpoint for the instrument.
func (e *Engine) referencePrice(id model.InstrumentID) (float64, bool) {
	b, err := e.cache.Book(id)
	if err != nil {
		return 0, false
	}
	if mid, ok := b.Midpoint(); ok {
		return mid, true
	}
	return 0, false
}

// netPosition sums the open signed quantity for the instrument.
func (e *Engine) netPosition(id model.InstrumentID) int64 {
	var net int64
	for _, p := range e.cache.PositionsOpen(cache.PositionFilter{InstrumentID: id}) {
		net += p.SignedRaw
	}
	return net
}

// deny stops the order and reports OrderDenied. The order is cached so
// its terminal status stays queryable.
func (e *Engine) deny(o *order.Order, reason string) {
	e.deniedCount++
	if !e.cache.OrderExists(o.ClientOrderID) {
		if err := e.cache.AddOrder(o, ""); err != nil {
			return
		}
	}
	now := e.clk.TimestampNs()
	ev := order.Event{
		Type:          order.EventDenied,
		TraderID:      o.TraderID,
		StrategyID:    o.StrategyID,
		InstrumentID:  o.InstrumentID,
		ClientOrderID: o.ClientOrderID,
		EventID:       e.ids.Next(now),
		TsEvent:       now,
		TsInit:        now,
		Reason:        reason,
	}
	if err := o.Apply(ev); err != nil {
		return
	}
	_ = e.cache.UpdateOrder(o)
	e.msgbus.Publish(bus.TopicOrderEvents(o.StrategyID, o.ClientOrderID), ev)
}
