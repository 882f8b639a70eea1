// Package exec implements the execution engine: trading commands are
// validated and routed to venue clients, order events from the venues
// drive the cached order state machines, and fills flow through to
// positions and account balances.
package exec

import (
	"fmt"
	"sort"

	"github.com/yanun0323/logs"

	"main/internal/account"
	"main/internal/bus"
	"main/internal/cache"
	"main/internal/clock"
	"main/internal/component"
	"main/internal/errors"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/order"
	"main/internal/position"
)

// Journal persists aggregate state streams when snapshots are enabled.
type Journal interface {
	AppendOrderEvent(ev order.Event) error
	AppendPositionEvent(ev PositionEvent) error
	AppendAccountState(st account.State) error
}

// Config toggles engine behavior.
type Config struct {
	SnapshotOrders    bool
	SnapshotPositions bool
}

// Engine is the execution engine. All methods run on the core thread.
type Engine struct {
	component *component.Component
	config    Config

	msgbus *bus.Bus
	cache  *cache.Cache
	clk    clock.Clock
	ids    *model.IDGenerator

	clients       map[model.ClientID]Client
	routing       map[model.Venue]model.ClientID
	defaultClient model.ClientID

	omsTypes      map[model.Venue]enum.OmsType
	journal       Journal
	positionCount uint64
	commandCount  uint64
	eventCount    uint64
}

// NewEngine wires an execution engine onto the bus and cache.
func NewEngine(cfg Config, msgbus *bus.Bus, c *cache.Cache, clk clock.Clock, ids *model.IDGenerator) (*Engine, error) {
	if msgbus == nil || c == nil || clk == nil || ids == nil {
		return nil, errors.Validation("exec engine requires bus, cache, clock, and id generator")
	}
	e := &Engine{
		config:   cfg,
		msgbus:   msgbus,
		cache:    c,
		clk:      clk,
		ids:      ids,
		clients:  make(map[model.ClientID]Client),
		routing:  make(map[model.Venue]model.ClientID),
		omsTypes: make(map[model.Venue]enum.OmsType),
	}
	lifecycle, err := component.New("ExecEngine", component.Hooks{
		OnStart: e.onStart,
		OnStop:  e.onStop,
	}, msgbus, clk, ids)
	if err != nil {
		return nil, err
	}
	e.component = lifecycle
	return e, nil
}

func (e *Engine) Component() *component.Component { return e.component }

func (e *Engine) Start() error { return e.component.Start() }
func (e *Engine) Stop() error  { return e.component.Stop() }

func (e *Engine) onStart() error {
	for id, c := range e.clients {
		if err := c.Connect(); err != nil {
			return errors.Wrapf(err, "connect exec client %s", id)
		}
	}
	return nil
}

func (e *Engine) onStop() error {
	var first error
	for id, c := range e.clients {
		if err := c.Disconnect(); err != nil && first == nil {
			first = errors.Wrapf(err, "disconnect exec client %s", id)
		}
	}
	return first
}

// SetJournal attaches the snapshot persistence sink.
func (e *Engine) SetJournal(j Journal) { e.journal = j }

// SetOmsType sets the position assignment policy for a venue. Venues
// default to netting.
func (e *Engine) SetOmsType(venue model.Venue, oms enum.OmsType) {
	e.omsTypes[venue] = oms
}

func (e *Engine) omsType(venue model.Venue) enum.OmsType {
	if oms, ok := e.omsTypes[venue]; ok && oms != enum.OmsTypeUnspecified {
		return oms
	}
	return enum.OmsTypeNetting
}

// RegisterClient adds an execution client. The first registered client
// becomes the default route.
func (e *Engine) RegisterClient(c Client) error {
	if c == nil || c.ID() == "" {
		return errors.Validation("exec client requires an id")
	}
	if _, dup := e.clients[c.ID()]; dup {
		return errors.Validationf("exec client %s already registered", c.ID())
	}
	e.clients[c.ID()] = c
	if c.Venue() != "" {
		e.routing[c.Venue()] = c.ID()
	}
	if e.defaultClient == "" {
		e.defaultClient = c.ID()
	}
	return nil
}

func (e *Engine) resolveClient(clientID model.ClientID, venue model.Venue) (Client, error) {
	if clientID != "" {
		c, ok := e.clients[clientID]
		if !ok {
			return nil, errors.NotFoundf("exec client %s not registered", clientID)
		}
		return c, nil
	}
	if venue != "" {
		if id, ok := e.routing[venue]; ok {
			return e.clients[id], nil
		}
	}
	if e.defaultClient != "" {
		return e.clients[e.defaultClient], nil
	}
	return nil, errors.NotFound("no exec client registered")
}

// CommandCount returns the number of executed commands.
func (e *Engine) CommandCount() uint64 { return e.commandCount }

// EventCount returns the number of applied order events.
func (e *Engine) EventCount() uint64 { return e.eventCount }

// Execute validates and routes one trading command to a client.
func (e *Engine) Execute(cmd Command) error {
	client, err := e.resolveClient(cmd.ClientID, cmd.InstrumentID.Venue)
	if err != nil {
		return err
	}
	switch cmd.Type {
	case CommandSubmitOrder:
		if cmd.Order == nil {
			return errors.Validation("submit order command requires an order")
		}
		if !e.cache.OrderExists(cmd.Order.ClientOrderID) {
			if err := e.cache.AddOrder(cmd.Order, cmd.PositionID); err != nil {
				return err
			}
		}
		err = client.SubmitOrder(cmd)
	case CommandSubmitOrderList:
		if cmd.OrderList == nil {
			return errors.Validation("submit order list command requires a list")
		}
		for _, o := range cmd.OrderList.Orders {
			if !e.cache.OrderExists(o.ClientOrderID) {
				if err := e.cache.AddOrder(o, cmd.PositionID); err != nil {
					return err
				}
			}
		}
		err = client.SubmitOrderList(cmd)
	case CommandModifyOrder:
		if !e.cache.OrderExists(cmd.ClientOrderID) {
			return errors.NotFoundf("modify for unknown order %s", cmd.ClientOrderID)
		}
		err = client.ModifyOrder(cmd)
	case CommandCancelOrder:
		if !e.cache.OrderExists(cmd.ClientOrderID) {
			return errors.NotFoundf("cancel for unknown order %s", cmd.ClientOrderID)
		}
		err = client.CancelOrder(cmd)
	case CommandCancelAllOrders:
		err = client.CancelAllOrders(cmd)
	case CommandBatchCancelOrders:
		if len(cmd.CancelIDs) == 0 {
			return errors.Validation("batch cancel requires order ids")
		}
		err = client.BatchCancelOrders(cmd)
	case CommandQueryOrder:
		err = client.QueryOrder(cmd)
	default:
		return errors.Validationf("unknown command type %d", cmd.Type)
	}
	if err != nil {
		return errors.Wrapf(err, "execute %s", cmd.Type)
	}
	e.commandCount++
	return nil
}

// ProcessEvent applies one order event from a venue: drive the order
// state machine, then flow fills into positions and account balances.
// Events for unknown orders and illegal transitions are rejected.
func (e *Engine) ProcessEvent(ev order.Event) error {
	o, err := e.cache.Order(ev.ClientOrderID)
	if err != nil {
		logs.Errorf("exec engine: event %s for unknown order %s", ev.Type, ev.ClientOrderID)
		return err
	}
	if err := o.Apply(ev); err != nil {
		logs.Errorf("exec engine: %s rejected for %s, err: %+v", ev.Type, ev.ClientOrderID, err)
		return err
	}
	if err := e.cache.UpdateOrder(o); err != nil {
		return err
	}
	e.eventCount++
	e.msgbus.Publish(bus.TopicOrderEvents(o.StrategyID, o.ClientOrderID), ev)
	if e.config.SnapshotOrders && e.journal != nil {
		if err := e.journal.AppendOrderEvent(ev); err != nil {
			logs.Errorf("exec engine: order snapshot, err: %+v", err)
		}
	}

	if ev.Type == order.EventFilled {
		if err := e.handleFill(o, ev); err != nil {
			return err
		}
	}
	return nil
}

// handleFill assigns the fill to a position per the venue OMS policy and
// settles balances.
func (e *Engine) handleFill(o *order.Order, fill order.Event) error {
	inst, err := e.cache.Instrument(fill.InstrumentID)
	if err != nil {
		return errors.Wrap(err, "fill for unknown instrument")
	}

	p, err := e.resolvePosition(o, fill)
	if err != nil {
		return err
	}

	if p == nil {
		return e.openPosition(inst, fill)
	}
	return e.applyToPosition(inst, p, fill)
}

// resolvePosition finds the position the fill belongs to, or nil when a
// new one must be opened.
func (e *Engine) resolvePosition(o *order.Order, fill order.Event) (*position.Position, error) {
	if fill.PositionID != "" {
		p, err := e.cache.Position(fill.PositionID)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	if id, ok := e.cache.PositionForOrder(o.ClientOrderID); ok {
		p, err := e.cache.Position(id)
		if err != nil {
			return nil, err
		}
		if p.IsOpen() {
			return p, nil
		}
	}
	if e.omsType(fill.InstrumentID.Venue) == enum.OmsTypeNetting {
		open := e.cache.PositionsOpen(cache.PositionFilter{
			InstrumentID: fill.InstrumentID,
			StrategyID:   fill.StrategyID,
		})
		if len(open) > 0 {
			// Netting holds at most one open position per key.
			sort.Slice(open, func(i, j int) bool { return open[i].ID < open[j].ID })
			return open[0], nil
		}
	}
	return nil, nil
}

func (e *Engine) nextPositionID(fill order.Event) model.PositionID {
	e.positionCount++
	return model.PositionID(fmt.Sprintf("P-%s-%s-%d", fill.InstrumentID, fill.StrategyID, e.positionCount))
}

func (e *Engine) openPosition(inst model.Instrument, fill order.Event) error {
	p, err := position.New(inst, fill, e.nextPositionID(fill))
	if err != nil {
		return err
	}
	if err := e.cache.AddPosition(p); err != nil {
		return err
	}
	e.cache.LinkOrderToPosition(fill.ClientOrderID, p.ID)
	if err := e.settleFill(inst, fill, p.RealizedPnL, fill.Commission); err != nil {
		return err
	}
	e.publishPositionEvent(PositionOpened, p, fill)
	return nil
}

// applyToPosition applies the fill, splitting it when it would flip the
// position through zero: the old position closes exactly and a new one
// opens with the remainder.
func (e *Engine) applyToPosition(inst model.Instrument, p *position.Position, fill order.Event) error {
	opposing := (p.IsLong() && fill.OrderSide == enum.OrderSideSell) ||
		(p.IsShort() && fill.OrderSide == enum.OrderSideBuy)
	if opposing && fill.LastQty.Raw > p.Quantity.Raw {
		closing := fill
		closing.LastQty = model.QuantityFromRaw(p.Quantity.Raw, fill.LastQty.Precision)
		remainder := fill
		remainder.LastQty = model.QuantityFromRaw(fill.LastQty.Raw-p.Quantity.Raw, fill.LastQty.Precision)
		remainder.Commission = model.MoneyFromRaw(0, fill.Commission.Currency)
		remainder.TradeID = fill.TradeID + "-R"

		if err := e.applyToPosition(inst, p, closing); err != nil {
			return err
		}
		return e.openPosition(inst, remainder)
	}

	prevRealized := p.RealizedPnL
	if err := p.ApplyFill(fill); err != nil {
		return err
	}
	if err := e.cache.UpdatePosition(p); err != nil {
		return err
	}
	e.cache.LinkOrderToPosition(fill.ClientOrderID, p.ID)

	pnlDelta := model.MoneyFromRaw(p.RealizedPnL.Raw-prevRealized.Raw, p.SettlementCurrency)
	if err := e.settleFill(inst, fill, pnlDelta, fill.Commission); err != nil {
		return err
	}

	eventType := PositionChanged
	if p.IsClosed() {
		eventType = PositionClosed
	}
	e.publishPositionEvent(eventType, p, fill)
	return nil
}

// settleFill applies the realized PnL delta and any commission in a
// different currency to the venue account, then publishes the refreshed
// account state. The PnL delta already nets settlement-currency
// commission.
func (e *Engine) settleFill(inst model.Instrument, fill order.Event, pnlDelta model.Money, commission model.Money) error {
	acct, err := e.cache.AccountForVenue(inst.ID.Venue)
	if err != nil {
		// No account registered for the venue; nothing to settle.
		return nil
	}
	var deltas []model.Money
	if pnlDelta.Raw != 0 {
		deltas = append(deltas, pnlDelta)
	}
	if commission.Currency.IsDefined() && commission.Raw != 0 && commission.Currency != pnlDelta.Currency {
		deltas = append(deltas, commission.Neg())
	}
	if len(deltas) == 0 {
		return nil
	}
	if err := acct.UpdateBalances(deltas); err != nil {
		return err
	}
	return e.publishAccountState(acct, fill.TsEvent)
}

// publishAccountState snapshots the account and publishes it.
func (e *Engine) publishAccountState(acct *account.Account, ts model.UnixNanos) error {
	balances := acct.Balances()
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].Currency().Code < balances[j].Currency().Code
	})
	st := account.State{
		AccountID:    acct.ID,
		AccountType:  acct.Type,
		BaseCurrency: acct.BaseCurrency,
		Balances:     balances,
		IsReported:   false,
		EventID:      e.ids.Next(ts),
		TsEvent:      ts,
		TsInit:       e.clk.TimestampNs(),
	}
	if err := acct.ApplyState(st); err != nil {
		return err
	}
	e.msgbus.Publish(bus.TopicAccountEvents(acct.ID), st)
	if e.journal != nil {
		if err := e.journal.AppendAccountState(st); err != nil {
			logs.Errorf("exec engine: account snapshot, err: %+v", err)
		}
	}
	return nil
}

func (e *Engine) publishPositionEvent(eventType PositionEventType, p *position.Position, fill order.Event) {
	ev := PositionEvent{
		Type:           eventType,
		PositionID:     p.ID,
		TraderID:       p.TraderID,
		StrategyID:     p.StrategyID,
		InstrumentID:   p.InstrumentID,
		AccountID:      p.AccountID,
		Side:           p.Side,
		SignedRaw:      p.SignedRaw,
		Quantity:       p.Quantity,
		PeakQty:        p.PeakQty,
		AvgPxOpen:      p.AvgPxOpen,
		AvgPxClose:     p.AvgPxClose,
		RealizedPnL:    p.RealizedPnL,
		OpeningOrderID: p.OpeningOrderID,
		ClosingOrderID: p.ClosingOrderID,
		EventID:        e.ids.Next(fill.TsEvent),
		TsEvent:        fill.TsEvent,
		TsInit:         e.clk.TimestampNs(),
	}
	e.msgbus.Publish(bus.TopicPositionEvents(p.StrategyID, p.InstrumentID), ev)
	if e.config.SnapshotPositions && e.journal != nil {
		if err := e.journal.AppendPositionEvent(ev); err != nil {
			logs.Errorf("exec engine: position snapshot, err: %+v", err)
		}
	}
}

// ProcessAccountState applies an externally reported account snapshot.
func (e *Engine) ProcessAccountState(st account.State) error {
	acct, err := e.cache.Account(st.AccountID)
	if err != nil {
		return err
	}
	if err := acct.ApplyState(st); err != nil {
		return err
	}
	e.msgbus.Publish(bus.TopicAccountEvents(acct.ID), st)
	return nil
}
