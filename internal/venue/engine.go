// Package venue implements a simulated exchange for one instrument:
// trading commands and market data go in, order events come out as if a
// real venue had matched them. Matching is price-time priority over the
// reference book fed by market data.
package venue

import (
	"fmt"
	"sort"

	"main/internal/book"
	"main/internal/clock"
	"main/internal/errors"
	"main/internal/exec"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/order"
)

// Config toggles venue behavior.
type Config struct {
	BarExecution            bool
	RejectStopOrders        bool
	SupportGTDOrders        bool
	SupportContingentOrders bool
	UsePositionIDs          bool
	UseRandomIDs            bool
	UseReduceOnly           bool
}

// EventSink receives the order events the venue emits, in causal order.
type EventSink func(ev order.Event)

// resting is a working order held by the venue. Conditional orders sit
// here untriggered until their trigger price is touched.
type resting struct {
	o          *order.Order
	acceptedTs model.UnixNanos
	seq        uint64
	triggered  bool
	touches    int
}

// Engine is the matching engine for a single instrument.
type Engine struct {
	instrument model.Instrument
	config     Config
	clk        clock.Clock
	ids        *model.IDGenerator
	emit       EventSink

	book    *book.Book
	working map[model.ClientOrderID]*resting

	lastPrice model.Price
	hasLast   bool
	markPrice model.Price
	hasMark   bool
	idxPrice  model.Price
	hasIndex  bool

	accountID  model.AccountID
	netRaw     int64
	positionID model.PositionID

	orderSeq    uint64
	tradeSeq    uint64
	positionSeq uint64
	restingSeq  uint64
}

// NewEngine builds a matching engine for the instrument. Events are
// handed to the sink synchronously as they are produced.
func NewEngine(instrument model.Instrument, cfg Config, accountID model.AccountID, clk clock.Clock, ids *model.IDGenerator, emit EventSink) (*Engine, error) {
	if err := instrument.Validate(); err != nil {
		return nil, err
	}
	if clk == nil || ids == nil || emit == nil {
		return nil, errors.Validation("matching engine requires clock, ids, and event sink")
	}
	return &Engine{
		instrument: instrument,
		config:     cfg,
		clk:        clk,
		ids:        ids,
		emit:       emit,
		book:       book.New(instrument.ID, enum.BookTypeL2MBP),
		working:    make(map[model.ClientOrderID]*resting),
		accountID:  accountID,
	}, nil
}

// Book exposes the reference book, for inspection.
func (e *Engine) Book() *book.Book { return e.book }

// Instrument returns the instrument this engine matches.
func (e *Engine) Instrument() model.Instrument { return e.instrument }

// OpenOrderCount returns the number of working orders.
func (e *Engine) OpenOrderCount() int { return len(e.working) }

// ---- event plumbing ----

func (e *Engine) newEvent(t order.EventType, o *order.Order) order.Event {
	now := e.clk.TimestampNs()
	return order.Event{
		Type:          t,
		TraderID:      o.TraderID,
		StrategyID:    o.StrategyID,
		InstrumentID:  o.InstrumentID,
		ClientOrderID: o.ClientOrderID,
		VenueOrderID:  o.VenueOrderID,
		AccountID:     e.accountID,
		EventID:       e.ids.Next(now),
		TsEvent:       now,
		TsInit:        now,
	}
}

// apply drives the venue's own aggregate and hands the event out.
func (e *Engine) apply(o *order.Order, ev order.Event) {
	if err := o.Apply(ev); err != nil {
		// The venue only constructs legal sequences; a failure here is
		// an integrity defect worth surfacing to the caller.
		panic(fmt.Sprintf("venue emitted illegal order event: %+v", err))
	}
	e.emit(ev)
}

func (e *Engine) nextVenueOrderID() model.VenueOrderID {
	if e.config.UseRandomIDs {
		return model.VenueOrderID(e.ids.Next(e.clk.TimestampNs()))
	}
	e.orderSeq++
	return model.VenueOrderID(fmt.Sprintf("%s-%d", e.instrument.ID.Venue, e.orderSeq))
}

func (e *Engine) nextTradeID() model.TradeID {
	e.tradeSeq++
	return model.TradeID(fmt.Sprintf("%s-T-%d", e.instrument.ID.Venue, e.tradeSeq))
}

// ---- command processing ----

// Process handles one trading command.
func (e *Engine) Process(cmd exec.Command) error {
	switch cmd.Type {
	case exec.CommandSubmitOrder:
		if cmd.Order == nil {
			return errors.Validation("submit command requires an order")
		}
		return e.submit(cmd.Order)
	case exec.CommandSubmitOrderList:
		return e.submitList(cmd)
	case exec.CommandModifyOrder:
		return e.modify(cmd)
	case exec.CommandCancelOrder:
		return e.cancelByID(cmd.ClientOrderID)
	case exec.CommandCancelAllOrders:
		e.cancelAll(cmd.OrderSide)
		return nil
	case exec.CommandBatchCancelOrders:
		for _, id := range cmd.CancelIDs {
			if err := e.cancelByID(id); err != nil {
				return err
			}
		}
		return nil
	case exec.CommandQueryOrder:
		if _, ok := e.working[cmd.ClientOrderID]; !ok {
			return errors.NotFoundf("order %s not working", cmd.ClientOrderID)
		}
		return nil
	default:
		return errors.Validationf("unknown command type %d", cmd.Type)
	}
}

// submit runs a new order through validation, acceptance, and matching.
// The venue keeps its own aggregate built from the initialization event.
func (e *Engine) submit(src *order.Order) error {
	if src.InstrumentID != e.instrument.ID {
		return errors.Validationf("order %s is for %s, venue handles %s", src.ClientOrderID, src.InstrumentID, e.instrument.ID)
	}
	if _, dup := e.working[src.ClientOrderID]; dup {
		return errors.Validationf("order %s already working", src.ClientOrderID)
	}
	o, err := order.New(src.Events()[0])
	if err != nil {
		return err
	}
	e.apply(o, e.newEvent(order.EventSubmitted, o))

	if reason, rejected := e.validate(o); rejected {
		ev := e.newEvent(order.EventRejected, o)
		ev.Reason = reason
		e.apply(o, ev)
		return nil
	}

	acc := e.newEvent(order.EventAccepted, o)
	acc.VenueOrderID = e.nextVenueOrderID()
	e.apply(o, acc)

	if o.TimeInForce == enum.TimeInForceGTD && e.config.SupportGTDOrders {
		e.armExpiry(o)
	}

	w := &resting{o: o, acceptedTs: o.TsLast, seq: e.nextRestingSeq()}
	e.working[o.ClientOrderID] = w

	if o.Type.HasTrigger() {
		// Conditional orders wait for their trigger touch.
		return nil
	}
	e.matchAggressive(w)
	return nil
}

func (e *Engine) nextRestingSeq() uint64 {
	e.restingSeq++
	return e.restingSeq
}

// validate applies the venue's pre-acceptance checks.
func (e *Engine) validate(o *order.Order) (string, bool) {
	if e.config.RejectStopOrders && o.Type.HasTrigger() {
		return fmt.Sprintf("venue does not accept %s orders", o.Type), true
	}
	if o.Contingency != enum.ContingencyTypeNone && !e.config.SupportContingentOrders {
		return "venue does not accept contingent orders", true
	}
	if o.TimeInForce == enum.TimeInForceGTD && !e.config.SupportGTDOrders {
		// Converted to GTC rather than rejected.
		o.TimeInForce = enum.TimeInForceGTC
	}
	if e.config.UseReduceOnly && o.ReduceOnly {
		reduces := (o.Side == enum.OrderSideSell && e.netRaw > 0 && o.Quantity.Raw <= e.netRaw) ||
			(o.Side == enum.OrderSideBuy && e.netRaw < 0 && o.Quantity.Raw <= -e.netRaw)
		if !reduces {
			return "reduce-only order would increase position", true
		}
	}
	if o.Type == enum.OrderTypeMarket && len(e.book.SimulateFills(o.Side, o.Quantity, nil)) == 0 && !e.hasLast {
		return fmt.Sprintf("no market for %s", o.InstrumentID), true
	}
	return "", false
}

func (e *Engine) armExpiry(o *order.Order) {
	id := o.ClientOrderID
	name := "EXPIRE-" + string(id)
	_ = e.clk.SetTimeAlert(name, o.ExpireTime, func(clock.TimeEvent) {
		e.expire(id)
	})
}

func (e *Engine) expire(id model.ClientOrderID) {
	w, ok := e.working[id]
	if !ok || !w.o.IsOpen() {
		return
	}
	e.apply(w.o, e.newEvent(order.EventExpired, w.o))
	delete(e.working, id)
}

// submitList submits a contingent order list. OTO children enter the
// venue emulated and are released when the parent first fills.
func (e *Engine) submitList(cmd exec.Command) error {
	if cmd.OrderList == nil || len(cmd.OrderList.Orders) == 0 {
		return errors.Validation("submit list command requires orders")
	}
	// Register held children first so a parent filling on arrival can
	// release them.
	for _, o := range cmd.OrderList.Orders {
		if o.Contingency != enum.ContingencyTypeOTO || o.ParentOrderID == "" {
			continue
		}
		held, err := order.New(o.Events()[0])
		if err != nil {
			return err
		}
		e.apply(held, e.newEvent(order.EventEmulated, held))
		e.working[held.ClientOrderID] = &resting{o: held, seq: e.nextRestingSeq()}
	}
	for _, o := range cmd.OrderList.Orders {
		if o.Contingency == enum.ContingencyTypeOTO && o.ParentOrderID != "" {
			continue
		}
		if err := e.submit(o); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) modify(cmd exec.Command) error {
	w, ok := e.working[cmd.ClientOrderID]
	if !ok {
		return errors.NotFoundf("order %s not working", cmd.ClientOrderID)
	}
	o := w.o
	if o.Status == enum.OrderStatusEmulated {
		return errors.Validationf("order %s is held by a contingency", cmd.ClientOrderID)
	}
	e.apply(o, e.newEvent(order.EventPendingUpdate, o))

	if cmd.Quantity.IsPositive() && cmd.Quantity.Raw < o.FilledQty.Raw {
		ev := e.newEvent(order.EventModifyRejected, o)
		ev.Reason = "quantity below filled quantity"
		e.apply(o, ev)
		return nil
	}

	upd := e.newEvent(order.EventUpdated, o)
	upd.Quantity = cmd.Quantity
	upd.Price = cmd.Price
	upd.TriggerPrice = cmd.TriggerPrice
	e.apply(o, upd)

	if !o.Type.HasTrigger() || w.triggered {
		e.matchAggressive(w)
	}
	return nil
}

func (e *Engine) cancelByID(id model.ClientOrderID) error {
	w, ok := e.working[id]
	if !ok {
		return errors.NotFoundf("order %s not working", id)
	}
	o := w.o
	if o.Status == enum.OrderStatusEmulated {
		e.cancelVenue(w)
		return nil
	}
	e.apply(o, e.newEvent(order.EventPendingCancel, o))
	e.apply(o, e.newEvent(order.EventCanceled, o))
	delete(e.working, id)
	return nil
}

// cancelVenue cancels a working order without the pending phase, as for
// contingency cancels and remainders.
func (e *Engine) cancelVenue(w *resting) {
	if !w.o.IsOpen() && w.o.Status != enum.OrderStatusEmulated {
		return
	}
	e.apply(w.o, e.newEvent(order.EventCanceled, w.o))
	delete(e.working, w.o.ClientOrderID)
}

func (e *Engine) cancelAll(side enum.OrderSide) {
	for _, w := range e.sortedWorking() {
		if side != enum.OrderSideNone && w.o.Side != side {
			continue
		}
		if w.o.Status == enum.OrderStatusEmulated {
			e.cancelVenue(w)
			continue
		}
		_ = e.cancelByID(w.o.ClientOrderID)
	}
}

// ---- market data processing ----

// ProcessOrderBookDelta feeds one book mutation and re-evaluates the
// working orders against the new top of book.
func (e *Engine) ProcessOrderBookDelta(delta model.OrderBookDelta) error {
	if delta.InstrumentID != e.instrument.ID {
		return errors.Validationf("delta for %s, venue handles %s", delta.InstrumentID, e.instrument.ID)
	}
	if err := e.book.ApplyDelta(delta); err != nil {
		return err
	}
	e.iterate(dataBook)
	return nil
}

// ProcessQuoteTick feeds a top-of-book update.
func (e *Engine) ProcessQuoteTick(quote model.QuoteTick) error {
	if quote.InstrumentID != e.instrument.ID {
		return errors.Validationf("quote for %s, venue handles %s", quote.InstrumentID, e.instrument.ID)
	}
	if e.book.BookType == enum.BookTypeL1MBP {
		if err := e.book.ApplyQuote(quote); err != nil {
			return err
		}
	}
	e.iterate(dataQuote)
	return nil
}

// ProcessTradeTick feeds a trade print, updating the last price.
func (e *Engine) ProcessTradeTick(trade model.TradeTick) error {
	if trade.InstrumentID != e.instrument.ID {
		return errors.Validationf("trade for %s, venue handles %s", trade.InstrumentID, e.instrument.ID)
	}
	e.lastPrice = trade.Price
	e.hasLast = true
	e.iterate(dataTrade)
	return nil
}

// ProcessMarkPrice feeds a mark price refresh.
func (e *Engine) ProcessMarkPrice(mark model.MarkPriceUpdate) error {
	e.markPrice = mark.Value
	e.hasMark = true
	e.iterate(dataMark)
	return nil
}

// ProcessIndexPrice feeds an index price refresh.
func (e *Engine) ProcessIndexPrice(index model.IndexPriceUpdate) error {
	e.idxPrice = index.Value
	e.hasIndex = true
	e.iterate(dataIndex)
	return nil
}

// ProcessBar replays a bar as four last-price prints when bar execution
// is enabled. The high/low order follows the bar direction.
func (e *Engine) ProcessBar(bar model.Bar) error {
	if !e.config.BarExecution {
		return nil
	}
	prices := []model.Price{bar.Open, bar.High, bar.Low, bar.Close}
	if bar.Close.Cmp(bar.Open) >= 0 {
		prices = []model.Price{bar.Open, bar.Low, bar.High, bar.Close}
	}
	for _, px := range prices {
		e.lastPrice = px
		e.hasLast = true
		e.iterate(dataTrade)
	}
	return nil
}

type dataKind uint8

const (
	dataBook dataKind = iota
	dataQuote
	dataTrade
	dataMark
	dataIndex
)

// sortedWorking returns the working orders in deterministic match order:
// price priority, then acceptance time, then client order id.
func (e *Engine) sortedWorking() []*resting {
	out := make([]*resting, 0, len(e.working))
	for _, w := range e.working {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ap, bp := a.o.Price.Raw, b.o.Price.Raw
		if a.o.Side == b.o.Side && a.o.Price.IsDefined() && b.o.Price.IsDefined() && ap != bp {
			if a.o.Side == enum.OrderSideBuy {
				return ap > bp
			}
			return ap < bp
		}
		if a.acceptedTs != b.acceptedTs {
			return a.acceptedTs < b.acceptedTs
		}
		if a.seq != b.seq {
			return a.seq < b.seq
		}
		return a.o.ClientOrderID < b.o.ClientOrderID
	})
	return out
}

// iterate re-evaluates every working order against the current market
// state after a data update.
func (e *Engine) iterate(kind dataKind) {
	for _, w := range e.sortedWorking() {
		if _, still := e.working[w.o.ClientOrderID]; !still {
			continue
		}
		o := w.o
		if o.Status == enum.OrderStatusEmulated {
			continue
		}
		if o.Type.HasTrigger() && !w.triggered {
			if e.shouldTrigger(w, kind) {
				w.triggered = true
				e.apply(o, e.newEvent(order.EventTriggered, o))
				e.matchAggressive(w)
			}
			continue
		}
		if !o.IsOpen() {
			continue
		}
		e.matchResting(w, kind)
	}
}

// triggerPrices returns the reference prices relevant to the trigger
// type for this data kind. Double variants require two touches.
func (e *Engine) triggerPrices(t enum.TriggerType, kind dataKind) []model.Price {
	bid, hasBid := e.book.BestBidPrice()
	ask, hasAsk := e.book.BestAskPrice()
	switch t {
	case enum.TriggerTypeDefault, enum.TriggerTypeLastPrice, enum.TriggerTypeDoubleLast:
		if kind == dataTrade && e.hasLast {
			return []model.Price{e.lastPrice}
		}
	case enum.TriggerTypeBidAsk, enum.TriggerTypeDoubleBidAsk:
		if (kind == dataQuote || kind == dataBook) && hasBid && hasAsk {
			return []model.Price{bid, ask}
		}
	case enum.TriggerTypeLastOrBidAsk:
		if kind == dataTrade && e.hasLast {
			return []model.Price{e.lastPrice}
		}
		if (kind == dataQuote || kind == dataBook) && hasBid && hasAsk {
			return []model.Price{bid, ask}
		}
	case enum.TriggerTypeMidPoint:
		if mid, ok := e.book.Midpoint(); ok && (kind == dataQuote || kind == dataBook) {
			px, err := e.instrument.MakePrice(mid)
			if err == nil {
				return []model.Price{px}
			}
		}
	case enum.TriggerTypeMarkPrice:
		if kind == dataMark && e.hasMark {
			return []model.Price{e.markPrice}
		}
	case enum.TriggerTypeIndexPrice:
		if kind == dataIndex && e.hasIndex {
			return []model.Price{e.idxPrice}
		}
	}
	return nil
}

func (e *Engine) shouldTrigger(w *resting, kind dataKind) bool {
	o := w.o
	trigger := o.TriggerType
	if trigger == enum.TriggerTypeNone {
		trigger = enum.TriggerTypeDefault
	}
	touched := false
	for _, px := range e.triggerPrices(trigger, kind) {
		if touchesTrigger(o, px) {
			touched = true
			break
		}
	}
	if !touched {
		return false
	}
	w.touches++
	if trigger == enum.TriggerTypeDoubleLast || trigger == enum.TriggerTypeDoubleBidAsk {
		return w.touches >= 2
	}
	return true
}

// touchesTrigger evaluates the touch direction for the order type. Stop
// orders trigger against adverse moves, if-touched orders against
// favorable ones.
func touchesTrigger(o *order.Order, px model.Price) bool {
	cmp := px.Cmp(o.TriggerPrice)
	switch o.Type {
	case enum.OrderTypeStopMarket, enum.OrderTypeStopLimit,
		enum.OrderTypeTrailingStopMarket, enum.OrderTypeTrailingStopLimit:
		if o.Side == enum.OrderSideBuy {
			return cmp >= 0
		}
		return cmp <= 0
	case enum.OrderTypeMarketIfTouched, enum.OrderTypeLimitIfTouched:
		if o.Side == enum.OrderSideBuy {
			return cmp <= 0
		}
		return cmp >= 0
	default:
		return false
	}
}

// isLimitLike reports whether the order rests at a limit price after any
// trigger phase.
func isLimitLike(t enum.OrderType) bool {
	switch t {
	case enum.OrderTypeLimit, enum.OrderTypeStopLimit, enum.OrderTypeLimitIfTouched,
		enum.OrderTypeMarketToLimit, enum.OrderTypeTrailingStopLimit:
		return true
	default:
		return false
	}
}

// matchAggressive matches an order on arrival (or on trigger), walking
// the opposite ladder. Remainders rest, except IOC which cancels them
// and FOK which demands the full quantity.
func (e *Engine) matchAggressive(w *resting) {
	o := w.o
	var limit *model.Price
	if isLimitLike(o.Type) && o.Price.IsDefined() {
		px := o.Price
		limit = &px
	}

	legs := e.book.SimulateFills(o.Side, o.LeavesQty, limit)
	if len(legs) == 0 && limit == nil && e.hasLast {
		// No book depth: fill market orders at the last print.
		legs = []book.Fill{{Price: e.lastPrice, Size: o.LeavesQty}}
	}

	if o.TimeInForce == enum.TimeInForceFOK {
		var total int64
		for _, leg := range legs {
			total += leg.Size.Raw
		}
		if total < o.LeavesQty.Raw {
			e.cancelVenue(w)
			return
		}
	}

	for _, leg := range legs {
		if !o.IsOpen() {
			break
		}
		e.fill(w, leg.Price, leg.Size, enum.LiquiditySideTaker)
	}

	if _, still := e.working[o.ClientOrderID]; !still {
		return
	}
	if !o.IsOpen() {
		delete(e.working, o.ClientOrderID)
		return
	}
	if o.LeavesQty.IsPositive() {
		switch {
		case o.TimeInForce == enum.TimeInForceIOC:
			e.cancelVenue(w)
		case limit == nil:
			// A market remainder cannot rest.
			e.cancelVenue(w)
		}
	}
}

// matchResting fills a resting limit order when the market crosses its
// price. The fill happens at the resting price with maker liquidity.
func (e *Engine) matchResting(w *resting, kind dataKind) {
	o := w.o
	if !isLimitLike(o.Type) || !o.Price.IsDefined() {
		return
	}
	crossed := false
	switch kind {
	case dataTrade:
		if e.hasLast {
			cmp := e.lastPrice.Cmp(o.Price)
			crossed = (o.Side == enum.OrderSideBuy && cmp <= 0) ||
				(o.Side == enum.OrderSideSell && cmp >= 0)
		}
	default:
		if o.Side == enum.OrderSideBuy {
			if ask, ok := e.book.BestAskPrice(); ok {
				crossed = ask.Cmp(o.Price) <= 0
			}
		} else {
			if bid, ok := e.book.BestBidPrice(); ok {
				crossed = bid.Cmp(o.Price) >= 0
			}
		}
	}
	if !crossed {
		return
	}
	e.fill(w, o.Price, o.LeavesQty, enum.LiquiditySideMaker)
	if !o.IsOpen() {
		delete(e.working, o.ClientOrderID)
	}
}

// fill emits one fill leg and runs the contingency cascade.
func (e *Engine) fill(w *resting, px model.Price, qty model.Quantity, liquidity enum.LiquiditySide) {
	o := w.o
	if qty.Raw > o.LeavesQty.Raw {
		qty = o.LeavesQty
	}
	if !qty.IsPositive() {
		return
	}

	commission, err := e.instrument.CalculateCommission(qty, px, liquidity, false)
	if err != nil {
		commission = model.MoneyFromRaw(0, e.instrument.CostCurrency())
	}

	ev := e.newEvent(order.EventFilled, o)
	ev.TradeID = e.nextTradeID()
	ev.OrderSide = o.Side
	ev.LastQty = qty
	ev.LastPx = px
	ev.Commission = commission
	ev.LiquiditySide = liquidity
	if e.config.UsePositionIDs {
		ev.PositionID = e.currentPositionID()
	}
	e.apply(o, ev)

	if o.Side == enum.OrderSideBuy {
		e.netRaw += qty.Raw
	} else {
		e.netRaw -= qty.Raw
	}
	if e.netRaw == 0 {
		e.positionID = ""
	}

	e.cascadeContingencies(o)
}

func (e *Engine) currentPositionID() model.PositionID {
	if e.positionID == "" {
		e.positionSeq++
		e.positionID = model.PositionID(fmt.Sprintf("%s-P-%d", e.instrument.ID.Venue, e.positionSeq))
	}
	return e.positionID
}

// cascadeContingencies runs OCO sibling cancels, OTO child releases, and
// OUO proportional reductions after a fill on the linked order. Linked
// ids are visited in declaration order so the event stream stays
// deterministic.
func (e *Engine) cascadeContingencies(o *order.Order) {
	switch o.Contingency {
	case enum.ContingencyTypeOCO:
		for _, id := range o.LinkedOrderIDs {
			if sibling, ok := e.working[id]; ok {
				e.cancelVenue(sibling)
			}
		}
	case enum.ContingencyTypeOTO:
		for _, id := range o.LinkedOrderIDs {
			child, ok := e.working[id]
			if !ok || child.o.Status != enum.OrderStatusEmulated {
				continue
			}
			held := child.o
			delete(e.working, id)
			e.apply(held, e.newEvent(order.EventReleased, held))
			e.apply(held, e.newEvent(order.EventSubmitted, held))
			acc := e.newEvent(order.EventAccepted, held)
			acc.VenueOrderID = e.nextVenueOrderID()
			e.apply(held, acc)
			released := &resting{o: held, acceptedTs: held.TsLast, seq: e.nextRestingSeq()}
			e.working[id] = released
			if !held.Type.HasTrigger() {
				e.matchAggressive(released)
			}
		}
	case enum.ContingencyTypeOUO:
		if !o.LeavesQty.IsPositive() || !o.Quantity.IsPositive() {
			return
		}
		for _, id := range o.LinkedOrderIDs {
			sibling, ok := e.working[id]
			if !ok || !sibling.o.IsOpen() {
				continue
			}
			target := int64(float64(sibling.o.Quantity.Raw) * float64(o.LeavesQty.Raw) / float64(o.Quantity.Raw))
			if target >= sibling.o.Quantity.Raw || target <= sibling.o.FilledQty.Raw {
				continue
			}
			upd := e.newEvent(order.EventUpdated, sibling.o)
			upd.Quantity = model.QuantityFromRaw(target, sibling.o.Quantity.Precision)
			e.apply(sibling.o, upd)
		}
	}
}
