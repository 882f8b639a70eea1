// Package cache holds the in-memory working state shared by the engines:
// instruments, order books, orders, positions, and accounts, with the
// secondary indexes the engines query on the hot path.
package cache

import (
	"main/internal/account"
	"main/internal/book"
	"main/internal/errors"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/order"
	"main/internal/position"
)

// tickCapacity bounds the per-instrument quote and trade history.
const tickCapacity = 10_000

type Cache struct {
	instruments map[model.InstrumentID]model.Instrument
	books       map[model.InstrumentID]*book.Book
	quotes      map[model.InstrumentID][]model.QuoteTick
	trades      map[model.InstrumentID][]model.TradeTick
	orders      map[model.ClientOrderID]*order.Order
	positions   map[model.PositionID]*position.Position
	accounts    map[model.AccountID]*account.Account

	clientByVenueOrder map[model.VenueOrderID]model.ClientOrderID
	venueByClientOrder map[model.ClientOrderID]model.VenueOrderID

	ordersOpen     map[model.ClientOrderID]struct{}
	ordersClosed   map[model.ClientOrderID]struct{}
	ordersInflight map[model.ClientOrderID]struct{}
	ordersEmulated map[model.ClientOrderID]struct{}

	ordersByInstrument map[model.InstrumentID]map[model.ClientOrderID]struct{}
	ordersByStrategy   map[model.StrategyID]map[model.ClientOrderID]struct{}

	positionsOpen   map[model.PositionID]struct{}
	positionsClosed map[model.PositionID]struct{}

	positionsByInstrument map[model.InstrumentID]map[model.PositionID]struct{}
	positionsByStrategy   map[model.StrategyID]map[model.PositionID]struct{}

	positionByOrder  map[model.ClientOrderID]model.PositionID
	ordersByPosition map[model.PositionID]map[model.ClientOrderID]struct{}

	accountByVenue map[model.Venue]model.AccountID
}

func New() *Cache {
	c := &Cache{}
	c.Reset()
	return c
}

// Reset drops all cached state and indexes.
func (c *Cache) Reset() {
	c.instruments = make(map[model.InstrumentID]model.Instrument)
	c.books = make(map[model.InstrumentID]*book.Book)
	c.quotes = make(map[model.InstrumentID][]model.QuoteTick)
	c.trades = make(map[model.InstrumentID][]model.TradeTick)
	c.orders = make(map[model.ClientOrderID]*order.Order)
	c.positions = make(map[model.PositionID]*position.Position)
	c.accounts = make(map[model.AccountID]*account.Account)
	c.clientByVenueOrder = make(map[model.VenueOrderID]model.ClientOrderID)
	c.venueByClientOrder = make(map[model.ClientOrderID]model.VenueOrderID)
	c.ordersOpen = make(map[model.ClientOrderID]struct{})
	c.ordersClosed = make(map[model.ClientOrderID]struct{})
	c.ordersInflight = make(map[model.ClientOrderID]struct{})
	c.ordersEmulated = make(map[model.ClientOrderID]struct{})
	c.ordersByInstrument = make(map[model.InstrumentID]map[model.ClientOrderID]struct{})
	c.ordersByStrategy = make(map[model.StrategyID]map[model.ClientOrderID]struct{})
	c.positionsOpen = make(map[model.PositionID]struct{})
	c.positionsClosed = make(map[model.PositionID]struct{})
	c.positionsByInstrument = make(map[model.InstrumentID]map[model.PositionID]struct{})
	c.positionsByStrategy = make(map[model.StrategyID]map[model.PositionID]struct{})
	c.positionByOrder = make(map[model.ClientOrderID]model.PositionID)
	c.ordersByPosition = make(map[model.PositionID]map[model.ClientOrderID]struct{})
	c.accountByVenue = make(map[model.Venue]model.AccountID)
}

// ---- instruments ----

func (c *Cache) AddInstrument(inst model.Instrument) error {
	if err := inst.Validate(); err != nil {
		return errors.Wrap(err, "add instrument")
	}
	c.instruments[inst.ID] = inst
	return nil
}

func (c *Cache) Instrument(id model.InstrumentID) (model.Instrument, error) {
	inst, ok := c.instruments[id]
	if !ok {
		return model.Instrument{}, errors.NotFoundf("instrument %s not cached", id)
	}
	return inst, nil
}

func (c *Cache) Instruments(venue model.Venue) []model.Instrument {
	out := make([]model.Instrument, 0, len(c.instruments))
	for _, inst := range c.instruments {
		if venue == "" || inst.ID.Venue == venue {
			out = append(out, inst)
		}
	}
	return out
}

// ---- books ----

// InitBook creates a managed book for the instrument, or returns the
// existing one when already initialized with the same type.
func (c *Cache) InitBook(id model.InstrumentID, bookType enum.BookType) (*book.Book, error) {
	if b, ok := c.books[id]; ok {
		if b.BookType != bookType {
			return nil, errors.Validationf("book for %s already cached as %s", id, b.BookType)
		}
		return b, nil
	}
	b := book.New(id, bookType)
	c.books[id] = b
	return b, nil
}

func (c *Cache) Book(id model.InstrumentID) (*book.Book, error) {
	b, ok := c.books[id]
	if !ok {
		return nil, errors.NotFoundf("book for %s not cached", id)
	}
	return b, nil
}

func (c *Cache) HasBook(id model.InstrumentID) bool {
	_, ok := c.books[id]
	return ok
}

// ---- ticks ----

// AddQuote records a quote tick, evicting the oldest once the
// per-instrument capacity is reached.
func (c *Cache) AddQuote(q model.QuoteTick) {
	ticks := c.quotes[q.InstrumentID]
	if len(ticks) == tickCapacity {
		ticks = ticks[1:]
	}
	c.quotes[q.InstrumentID] = append(ticks, q)
}

// Quote returns the most recent quote tick for the instrument.
func (c *Cache) Quote(id model.InstrumentID) (model.QuoteTick, error) {
	ticks := c.quotes[id]
	if len(ticks) == 0 {
		return model.QuoteTick{}, errors.NotFoundf("no quote for %s cached", id)
	}
	return ticks[len(ticks)-1], nil
}

// Quotes returns the cached quote ticks for the instrument, oldest first.
func (c *Cache) Quotes(id model.InstrumentID) []model.QuoteTick {
	ticks := c.quotes[id]
	out := make([]model.QuoteTick, len(ticks))
	copy(out, ticks)
	return out
}

// AddTrade records a trade tick, evicting the oldest once the
// per-instrument capacity is reached.
func (c *Cache) AddTrade(t model.TradeTick) {
	ticks := c.trades[t.InstrumentID]
	if len(ticks) == tickCapacity {
		ticks = ticks[1:]
	}
	c.trades[t.InstrumentID] = append(ticks, t)
}

// Trade returns the most recent trade tick for the instrument.
func (c *Cache) Trade(id model.InstrumentID) (model.TradeTick, error) {
	ticks := c.trades[id]
	if len(ticks) == 0 {
		return model.TradeTick{}, errors.NotFoundf("no trade for %s cached", id)
	}
	return ticks[len(ticks)-1], nil
}

// Trades returns the cached trade ticks for the instrument, oldest first.
func (c *Cache) Trades(id model.InstrumentID) []model.TradeTick {
	ticks := c.trades[id]
	out := make([]model.TradeTick, len(ticks))
	copy(out, ticks)
	return out
}

// ---- orders ----

// AddOrder caches a new order and indexes it. The optional position id
// links the order to the position it was submitted for.
func (c *Cache) AddOrder(o *order.Order, positionID model.PositionID) error {
	if o == nil {
		return errors.Validation("order must not be nil")
	}
	if _, dup := c.orders[o.ClientOrderID]; dup {
		return errors.Validationf("order %s already cached", o.ClientOrderID)
	}
	c.orders[o.ClientOrderID] = o
	indexAdd(c.ordersByInstrument, o.InstrumentID, o.ClientOrderID)
	indexAdd(c.ordersByStrategy, o.StrategyID, o.ClientOrderID)
	if positionID != "" {
		c.linkOrderPosition(o.ClientOrderID, positionID)
	}
	c.reindexOrder(o)
	return nil
}

// UpdateOrder refreshes the state partitions after events were applied.
func (c *Cache) UpdateOrder(o *order.Order) error {
	if o == nil {
		return errors.Validation("order must not be nil")
	}
	cached, ok := c.orders[o.ClientOrderID]
	if !ok {
		return errors.NotFoundf("order %s not cached", o.ClientOrderID)
	}
	if cached != o {
		return errors.Integrityf("order %s cached under a different aggregate", o.ClientOrderID)
	}
	if o.VenueOrderID != "" {
		c.clientByVenueOrder[o.VenueOrderID] = o.ClientOrderID
		c.venueByClientOrder[o.ClientOrderID] = o.VenueOrderID
	}
	c.reindexOrder(o)
	return nil
}

// reindexOrder keeps the open, closed, inflight, and emulated partitions
// consistent with the order status. Open and closed are exclusive.
func (c *Cache) reindexOrder(o *order.Order) {
	id := o.ClientOrderID
	delete(c.ordersOpen, id)
	delete(c.ordersClosed, id)
	delete(c.ordersInflight, id)
	delete(c.ordersEmulated, id)
	switch {
	case o.IsClosed():
		c.ordersClosed[id] = struct{}{}
	case o.IsOpen():
		c.ordersOpen[id] = struct{}{}
	}
	if o.IsInflight() {
		c.ordersInflight[id] = struct{}{}
	}
	if o.Status == enum.OrderStatusEmulated {
		c.ordersEmulated[id] = struct{}{}
	}
}

func (c *Cache) Order(id model.ClientOrderID) (*order.Order, error) {
	o, ok := c.orders[id]
	if !ok {
		return nil, errors.NotFoundf("order %s not cached", id)
	}
	return o, nil
}

func (c *Cache) OrderExists(id model.ClientOrderID) bool {
	_, ok := c.orders[id]
	return ok
}

func (c *Cache) ClientOrderID(venueOrderID model.VenueOrderID) (model.ClientOrderID, error) {
	id, ok := c.clientByVenueOrder[venueOrderID]
	if !ok {
		return "", errors.NotFoundf("venue order id %s not indexed", venueOrderID)
	}
	return id, nil
}

func (c *Cache) VenueOrderID(clientOrderID model.ClientOrderID) (model.VenueOrderID, error) {
	id, ok := c.venueByClientOrder[clientOrderID]
	if !ok {
		return "", errors.NotFoundf("order %s has no venue order id", clientOrderID)
	}
	return id, nil
}

// OrderFilter narrows order queries. Zero values match everything.
type OrderFilter struct {
	InstrumentID model.InstrumentID
	StrategyID   model.StrategyID
	Side         enum.OrderSide
}

func (f OrderFilter) matches(o *order.Order) bool {
	if f.InstrumentID.IsDefined() && o.InstrumentID != f.InstrumentID {
		return false
	}
	if f.StrategyID != "" && o.StrategyID != f.StrategyID {
		return false
	}
	if f.Side != enum.OrderSideNone && o.Side != f.Side {
		return false
	}
	return true
}

func (c *Cache) selectOrders(ids map[model.ClientOrderID]struct{}, f OrderFilter) []*order.Order {
	out := make([]*order.Order, 0, len(ids))
	for id := range ids {
		o := c.orders[id]
		if o != nil && f.matches(o) {
			out = append(out, o)
		}
	}
	return out
}

func (c *Cache) OrdersOpen(f OrderFilter) []*order.Order     { return c.selectOrders(c.ordersOpen, f) }
func (c *Cache) OrdersClosed(f OrderFilter) []*order.Order   { return c.selectOrders(c.ordersClosed, f) }
func (c *Cache) OrdersInflight(f OrderFilter) []*order.Order { return c.selectOrders(c.ordersInflight, f) }
func (c *Cache) OrdersEmulated(f OrderFilter) []*order.Order { return c.selectOrders(c.ordersEmulated, f) }

func (c *Cache) OrdersOpenCount(f OrderFilter) int { return len(c.selectOrders(c.ordersOpen, f)) }

func (c *Cache) Orders(f OrderFilter) []*order.Order {
	out := make([]*order.Order, 0, len(c.orders))
	for _, o := range c.orders {
		if f.matches(o) {
			out = append(out, o)
		}
	}
	return out
}

// ---- positions ----

func (c *Cache) AddPosition(p *position.Position) error {
	if p == nil {
		return errors.Validation("position must not be nil")
	}
	if _, dup := c.positions[p.ID]; dup {
		return errors.Validationf("position %s already cached", p.ID)
	}
	c.positions[p.ID] = p
	indexAdd(c.positionsByInstrument, p.InstrumentID, p.ID)
	indexAdd(c.positionsByStrategy, p.StrategyID, p.ID)
	c.linkOrderPosition(p.OpeningOrderID, p.ID)
	c.reindexPosition(p)
	return nil
}

func (c *Cache) UpdatePosition(p *position.Position) error {
	if p == nil {
		return errors.Validation("position must not be nil")
	}
	cached, ok := c.positions[p.ID]
	if !ok {
		return errors.NotFoundf("position %s not cached", p.ID)
	}
	if cached != p {
		return errors.Integrityf("position %s cached under a different aggregate", p.ID)
	}
	if p.ClosingOrderID != "" {
		c.linkOrderPosition(p.ClosingOrderID, p.ID)
	}
	c.reindexPosition(p)
	return nil
}

func (c *Cache) reindexPosition(p *position.Position) {
	if p.IsOpen() {
		c.positionsOpen[p.ID] = struct{}{}
		delete(c.positionsClosed, p.ID)
	} else {
		c.positionsClosed[p.ID] = struct{}{}
		delete(c.positionsOpen, p.ID)
	}
}

func (c *Cache) Position(id model.PositionID) (*position.Position, error) {
	p, ok := c.positions[id]
	if !ok {
		return nil, errors.NotFoundf("position %s not cached", id)
	}
	return p, nil
}

func (c *Cache) PositionExists(id model.PositionID) bool {
	_, ok := c.positions[id]
	return ok
}

// PositionFilter narrows position queries. Zero values match everything.
type PositionFilter struct {
	InstrumentID model.InstrumentID
	StrategyID   model.StrategyID
}

func (f PositionFilter) matches(p *position.Position) bool {
	if f.InstrumentID.IsDefined() && p.InstrumentID != f.InstrumentID {
		return false
	}
	if f.StrategyID != "" && p.StrategyID != f.StrategyID {
		return false
	}
	return true
}

func (c *Cache) selectPositions(ids map[model.PositionID]struct{}, f PositionFilter) []*position.Position {
	out := make([]*position.Position, 0, len(ids))
	for id := range ids {
		p := c.positions[id]
		if p != nil && f.matches(p) {
			out = append(out, p)
		}
	}
	return out
}

func (c *Cache) PositionsOpen(f PositionFilter) []*position.Position {
	return c.selectPositions(c.positionsOpen, f)
}

func (c *Cache) PositionsClosed(f PositionFilter) []*position.Position {
	return c.selectPositions(c.positionsClosed, f)
}

// ---- position <-> order links ----

func (c *Cache) linkOrderPosition(orderID model.ClientOrderID, positionID model.PositionID) {
	if orderID == "" || positionID == "" {
		return
	}
	c.positionByOrder[orderID] = positionID
	set, ok := c.ordersByPosition[positionID]
	if !ok {
		set = make(map[model.ClientOrderID]struct{})
		c.ordersByPosition[positionID] = set
	}
	set[orderID] = struct{}{}
}

// LinkOrderToPosition records that an order contributes to a position.
func (c *Cache) LinkOrderToPosition(orderID model.ClientOrderID, positionID model.PositionID) {
	c.linkOrderPosition(orderID, positionID)
}

func (c *Cache) PositionForOrder(orderID model.ClientOrderID) (model.PositionID, bool) {
	id, ok := c.positionByOrder[orderID]
	return id, ok
}

func (c *Cache) OrderIDsForPosition(positionID model.PositionID) []model.ClientOrderID {
	set := c.ordersByPosition[positionID]
	out := make([]model.ClientOrderID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// ---- accounts ----

func (c *Cache) AddAccount(a *account.Account, venue model.Venue) error {
	if a == nil {
		return errors.Validation("account must not be nil")
	}
	if _, dup := c.accounts[a.ID]; dup {
		return errors.Validationf("account %s already cached", a.ID)
	}
	c.accounts[a.ID] = a
	if venue != "" {
		c.accountByVenue[venue] = a.ID
	}
	return nil
}

func (c *Cache) Account(id model.AccountID) (*account.Account, error) {
	a, ok := c.accounts[id]
	if !ok {
		return nil, errors.NotFoundf("account %s not cached", id)
	}
	return a, nil
}

func (c *Cache) AccountForVenue(venue model.Venue) (*account.Account, error) {
	id, ok := c.accountByVenue[venue]
	if !ok {
		return nil, errors.NotFoundf("no account registered for venue %s", venue)
	}
	return c.Account(id)
}

// ---- integrity ----

// CheckIntegrity verifies the index invariants: the open and closed
// partitions are disjoint, partition members exist, and every link end
// resolves.
func (c *Cache) CheckIntegrity() error {
	for id := range c.ordersOpen {
		if _, both := c.ordersClosed[id]; both {
			return errors.Integrityf("order %s in both open and closed partitions", id)
		}
		if _, ok := c.orders[id]; !ok {
			return errors.Integrityf("open partition references unknown order %s", id)
		}
	}
	for id := range c.ordersClosed {
		if _, ok := c.orders[id]; !ok {
			return errors.Integrityf("closed partition references unknown order %s", id)
		}
	}
	for id := range c.positionsOpen {
		if _, both := c.positionsClosed[id]; both {
			return errors.Integrityf("position %s in both open and closed partitions", id)
		}
		if _, ok := c.positions[id]; !ok {
			return errors.Integrityf("open partition references unknown position %s", id)
		}
	}
	for id := range c.positionsClosed {
		if _, ok := c.positions[id]; !ok {
			return errors.Integrityf("closed partition references unknown position %s", id)
		}
	}
	for orderID, positionID := range c.positionByOrder {
		set, ok := c.ordersByPosition[positionID]
		if !ok {
			return errors.Integrityf("order %s links to position %s with no reverse index", orderID, positionID)
		}
		if _, ok := set[orderID]; !ok {
			return errors.Integrityf("reverse index for position %s misses order %s", positionID, orderID)
		}
	}
	for venueID, clientID := range c.clientByVenueOrder {
		if got, ok := c.venueByClientOrder[clientID]; !ok || got != venueID {
			return errors.Integrityf("venue order id %s not mirrored for %s", venueID, clientID)
		}
	}
	return nil
}

func indexAdd[K comparable, V comparable](index map[K]map[V]struct{}, key K, value V) {
	set, ok := index[key]
	if !ok {
		set = make(map[V]struct{})
		index[key] = set
	}
	set[value] = struct{}{}
}
