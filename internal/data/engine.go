// Package data implements the data engine: it resolves subscriptions
// and requests to venue clients, routes incoming market data onto the
// bus, maintains managed order books, and synthesizes bar streams that
// venues do not provide natively.
package data

import (
	"sort"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/cache"
	"main/internal/clock"
	"main/internal/component"
	"main/internal/errors"
	"main/internal/model"
	"main/internal/model/enum"
)

// Engine is the data engine. All methods run on the core thread.
type Engine struct {
	component *component.Component

	msgbus *bus.Bus
	cache  *cache.Cache
	clk    clock.Clock
	ids    *model.IDGenerator

	clients       map[model.ClientID]Client
	routing       map[model.Venue]model.ClientID
	defaultClient model.ClientID

	subscriptions map[string]model.ClientID
	managedBooks  map[model.InstrumentID]struct{}
	correlations  map[model.EventID]ResponseHandler
	aggregators   map[string]*BarAggregator
}

// NewEngine wires a data engine onto the bus and cache.
func NewEngine(msgbus *bus.Bus, c *cache.Cache, clk clock.Clock, ids *model.IDGenerator) (*Engine, error) {
	if msgbus == nil || c == nil || clk == nil || ids == nil {
		return nil, errors.Validation("data engine requires bus, cache, clock, and id generator")
	}
	e := &Engine{
		msgbus:        msgbus,
		cache:         c,
		clk:           clk,
		ids:           ids,
		clients:       make(map[model.ClientID]Client),
		routing:       make(map[model.Venue]model.ClientID),
		subscriptions: make(map[string]model.ClientID),
		managedBooks:  make(map[model.InstrumentID]struct{}),
		correlations:  make(map[model.EventID]ResponseHandler),
		aggregators:   make(map[string]*BarAggregator),
	}
	lifecycle, err := component.New("DataEngine", component.Hooks{
		OnStart: e.onStart,
		OnStop:  e.onStop,
		OnReset: e.onReset,
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
			return errors.Wrapf(err, "connect data client %s", id)
		}
	}
	return nil
}

func (e *Engine) onStop() error {
	var first error
	for id, c := range e.clients {
		if err := c.Disconnect(); err != nil && first == nil {
			first = errors.Wrapf(err, "disconnect data client %s", id)
		}
	}
	return first
}

func (e *Engine) onReset() error {
	e.subscriptions = make(map[string]model.ClientID)
	e.managedBooks = make(map[model.InstrumentID]struct{})
	e.correlations = make(map[model.EventID]ResponseHandler)
	e.aggregators = make(map[string]*BarAggregator)
	return nil
}

// ---- client registration ----

// RegisterClient adds a venue data client. The first registered client
// becomes the default route.
func (e *Engine) RegisterClient(c Client) error {
	if c == nil || c.ID() == "" {
		return errors.Validation("data client requires an id")
	}
	if _, dup := e.clients[c.ID()]; dup {
		return errors.Validationf("data client %s already registered", c.ID())
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
			return nil, errors.NotFoundf("data client %s not registered", clientID)
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
	return nil, errors.NotFound("no data client registered")
}

// ---- subscriptions ----

// Subscribe resolves the command to one client and forwards it. A repeat
// subscription is a no-op. Managed deltas subscriptions install a book
// updater; unsupported bar feeds fall back to internal aggregation.
func (e *Engine) Subscribe(cmd SubscribeCommand) error {
	if cmd.Type == SubscribeUnknown {
		return errors.Validation("subscribe command requires a type")
	}
	if cmd.Venue == "" {
		cmd.Venue = cmd.InstrumentID.Venue
	}
	key := cmd.key()
	if _, exists := e.subscriptions[key]; exists {
		return nil
	}
	client, err := e.resolveClient(cmd.ClientID, cmd.Venue)
	if err != nil {
		return err
	}

	if cmd.Type == SubscribeBars {
		if err := e.subscribeBars(client, cmd); err != nil {
			return err
		}
		e.subscriptions[key] = client.ID()
		return nil
	}

	if err := client.Subscribe(cmd); err != nil {
		return errors.Wrapf(err, "subscribe %s", cmd.Type)
	}
	e.subscriptions[key] = client.ID()

	if cmd.Type == SubscribeBookDeltas && cmd.Managed {
		bookType := cmd.BookType
		if bookType == enum.BookTypeUnknown {
			bookType = enum.BookTypeL2MBP
		}
		if _, err := e.cache.InitBook(cmd.InstrumentID, bookType); err != nil {
			return err
		}
		e.managedBooks[cmd.InstrumentID] = struct{}{}
	}
	return nil
}

// subscribeBars prefers the client's native feed and falls back to an
// internal aggregator fed by the underlying stream.
func (e *Engine) subscribeBars(client Client, cmd SubscribeCommand) error {
	err := client.Subscribe(cmd)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUnsupported) {
		return errors.Wrap(err, "subscribe bars")
	}

	barType := cmd.BarType
	agg, aggErr := NewBarAggregator(barType, func(bar model.Bar) {
		e.msgbus.Publish(bus.TopicBars(bar.Type.String()), bar)
	})
	if aggErr != nil {
		return aggErr
	}
	underlying := SubscribeCommand{
		Type:         SubscribeTrades,
		ClientID:     cmd.ClientID,
		Venue:        cmd.Venue,
		InstrumentID: barType.InstrumentID,
	}
	if barType.Spec.PriceType != enum.PriceTypeLast {
		underlying.Type = SubscribeQuotes
	}
	if err := e.Subscribe(underlying); err != nil {
		return errors.Wrap(err, "subscribe bar source")
	}
	e.aggregators[barType.String()] = agg
	return nil
}

// Unsubscribe removes a subscription; it fails without a matching prior
// Subscribe.
func (e *Engine) Unsubscribe(cmd SubscribeCommand) error {
	if cmd.Venue == "" {
		cmd.Venue = cmd.InstrumentID.Venue
	}
	key := cmd.key()
	clientID, exists := e.subscriptions[key]
	if !exists {
		return errors.NotFoundf("no %s subscription for %s", cmd.Type, cmd.InstrumentID)
	}
	delete(e.subscriptions, key)

	if cmd.Type == SubscribeBars {
		if _, ok := e.aggregators[cmd.BarType.String()]; ok {
			delete(e.aggregators, cmd.BarType.String())
			return nil
		}
	}
	if cmd.Type == SubscribeBookDeltas {
		delete(e.managedBooks, cmd.InstrumentID)
	}

	client, ok := e.clients[clientID]
	if !ok {
		return errors.NotFoundf("data client %s not registered", clientID)
	}
	if err := client.Unsubscribe(cmd); err != nil {
		return errors.Wrapf(err, "unsubscribe %s", cmd.Type)
	}
	return nil
}

// SubscriptionCount returns the number of active subscriptions.
func (e *Engine) SubscriptionCount() int { return len(e.subscriptions) }

// ---- requests ----

// Request forwards a one-shot request to a client and registers the
// handler for its response. The assigned correlation id is returned
// immediately. A synchronous client error is converted into an error
// Response rather than failing the call.
func (e *Engine) Request(req RequestCommand, handler ResponseHandler) (model.EventID, error) {
	if req.Type == RequestUnknown {
		return "", errors.Validation("request requires a type")
	}
	if handler == nil {
		return "", errors.Validation("request requires a response handler")
	}
	if req.Venue == "" {
		req.Venue = req.InstrumentID.Venue
	}
	client, err := e.resolveClient(req.ClientID, req.Venue)
	if err != nil {
		return "", err
	}
	req.CorrelationID = e.ids.Next(e.clk.TimestampNs())
	e.correlations[req.CorrelationID] = handler

	if err := client.Request(req); err != nil {
		e.DeliverResponse(Response{
			CorrelationID: req.CorrelationID,
			Type:          req.Type,
			Err:           errors.Wrap(err, "data request"),
			TsEvent:       e.clk.TimestampNs(),
		})
	}
	return req.CorrelationID, nil
}

// DeliverResponse routes a client response to its one-shot handler.
func (e *Engine) DeliverResponse(resp Response) {
	handler, ok := e.correlations[resp.CorrelationID]
	if !ok {
		logs.Errorf("data engine: response with unknown correlation id %s", resp.CorrelationID)
		return
	}
	delete(e.correlations, resp.CorrelationID)
	handler(resp)
}

// PendingRequestCount returns the number of unanswered requests.
func (e *Engine) PendingRequestCount() int { return len(e.correlations) }

// ---- data processing ----

// Process routes one incoming data event: cache what is cacheable,
// update managed books, feed aggregators, and publish on the bus.
func (e *Engine) Process(item any) error {
	switch v := item.(type) {
	case model.Instrument:
		if err := e.cache.AddInstrument(v); err != nil {
			return err
		}
		e.msgbus.Publish(bus.TopicInstrument(v.ID), v)
	case model.QuoteTick:
		e.cache.AddQuote(v)
		e.feedQuote(v)
		e.msgbus.Publish(bus.TopicQuotes(v.InstrumentID), v)
	case model.TradeTick:
		e.cache.AddTrade(v)
		e.feedTrade(v)
		e.msgbus.Publish(bus.TopicTrades(v.InstrumentID), v)
	case model.OrderBookDelta:
		if err := e.applyToManagedBook(v.InstrumentID, func(b bookApplier) error {
			return b.ApplyDelta(v)
		}); err != nil {
			return err
		}
		e.msgbus.Publish(bus.TopicBookDeltas(v.InstrumentID), v)
	case []model.OrderBookDelta:
		if len(v) == 0 {
			return nil
		}
		id := v[0].InstrumentID
		if err := e.applyToManagedBook(id, func(b bookApplier) error {
			return b.ApplyDeltas(v)
		}); err != nil {
			return err
		}
		e.msgbus.Publish(bus.TopicBookDeltas(id), v)
	case model.OrderBookDepth10:
		if err := e.applyToManagedBook(v.InstrumentID, func(b bookApplier) error {
			return b.ApplyDepth(v)
		}); err != nil {
			return err
		}
		e.msgbus.Publish(bus.TopicBookDepth(v.InstrumentID), v)
	case model.Bar:
		e.msgbus.Publish(bus.TopicBars(v.Type.String()), v)
	case model.MarkPriceUpdate:
		e.msgbus.Publish(bus.TopicMarkPrices(v.InstrumentID), v)
	case model.IndexPriceUpdate:
		e.msgbus.Publish(bus.TopicIndexPrices(v.InstrumentID), v)
	case model.InstrumentStatus:
		e.msgbus.Publish(bus.TopicInstrumentStatus(v.InstrumentID), v)
	default:
		return errors.Protocolf("data engine cannot route %T", item)
	}
	return nil
}

type bookApplier interface {
	ApplyDelta(model.OrderBookDelta) error
	ApplyDeltas([]model.OrderBookDelta) error
	ApplyDepth(model.OrderBookDepth10) error
}

// applyToManagedBook applies a mutation to the cached book when the
// instrument is managed. Integrity errors mark the book and surface; the
// caller resets via snapshot resubscribe.
func (e *Engine) applyToManagedBook(id model.InstrumentID, apply func(bookApplier) error) error {
	if _, managed := e.managedBooks[id]; !managed {
		return nil
	}
	b, err := e.cache.Book(id)
	if err != nil {
		return err
	}
	if err := apply(b); err != nil {
		logs.Errorf("data engine: book update for %s, err: %+v", id, err)
		return err
	}
	return nil
}

// sortedAggregators returns aggregators in bar type order so emission
// order is stable across runs.
func (e *Engine) sortedAggregators() []*BarAggregator {
	keys := make([]string, 0, len(e.aggregators))
	for k := range e.aggregators {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*BarAggregator, 0, len(keys))
	for _, k := range keys {
		out = append(out, e.aggregators[k])
	}
	return out
}

func (e *Engine) feedTrade(trade model.TradeTick) {
	for _, agg := range e.sortedAggregators() {
		if agg.BarType().InstrumentID == trade.InstrumentID && agg.BarType().Spec.PriceType == enum.PriceTypeLast {
			agg.HandleTrade(trade)
		}
	}
}

func (e *Engine) feedQuote(quote model.QuoteTick) {
	for _, agg := range e.sortedAggregators() {
		if agg.BarType().InstrumentID == quote.InstrumentID && agg.BarType().Spec.PriceType != enum.PriceTypeLast {
			agg.HandleQuote(quote)
		}
	}
}
