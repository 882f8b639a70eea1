package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/account"
	"main/internal/bus"
	"main/internal/cache"
	"main/internal/clock"
	"main/internal/errors"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/order"
)

type fakeExecClient struct {
	id        model.ClientID
	venue     model.Venue
	accountID model.AccountID
	connected bool

	submitted []Command
	canceled  []Command
	modified  []Command
}

func (f *fakeExecClient) ID() model.ClientID         { return f.id }
func (f *fakeExecClient) Venue() model.Venue         { return f.venue }
func (f *fakeExecClient) AccountID() model.AccountID { return f.accountID }
func (f *fakeExecClient) Connect() error             { f.connected = true; return nil }
func (f *fakeExecClient) Disconnect() error          { f.connected = false; return nil }
func (f *fakeExecClient) IsConnected() bool          { return f.connected }

func (f *fakeExecClient) SubmitOrder(cmd Command) error     { f.submitted = append(f.submitted, cmd); return nil }
func (f *fakeExecClient) SubmitOrderList(cmd Command) error { f.submitted = append(f.submitted, cmd); return nil }
func (f *fakeExecClient) ModifyOrder(cmd Command) error     { f.modified = append(f.modified, cmd); return nil }
func (f *fakeExecClient) CancelOrder(cmd Command) error     { f.canceled = append(f.canceled, cmd); return nil }
func (f *fakeExecClient) CancelAllOrders(cmd Command) error { f.canceled = append(f.canceled, cmd); return nil }
func (f *fakeExecClient) BatchCancelOrders(cmd Command) error {
	f.canceled = append(f.canceled, cmd)
	return nil
}
func (f *fakeExecClient) QueryOrder(cmd Command) error { return nil }

func (f *fakeExecClient) GenerateOrderStatusReport(model.InstrumentID, model.ClientOrderID) (OrderStatusReport, error) {
	return OrderStatusReport{}, nil
}
func (f *fakeExecClient) GenerateFillReports(model.InstrumentID) ([]FillReport, error) {
	return nil, nil
}
func (f *fakeExecClient) GeneratePositionStatusReports(model.InstrumentID) ([]PositionStatusReport, error) {
	return nil, nil
}

type execFixture struct {
	engine *Engine
	bus    *bus.Bus
	cache  *cache.Cache
	client *fakeExecClient
	inst   model.Instrument

	orderEvents    []order.Event
	positionEvents []PositionEvent
	accountStates  []account.State
}

func newExecFixture(t *testing.T) *execFixture {
	t.Helper()
	b := bus.New("test")
	c := cache.New()
	e, err := NewEngine(Config{}, b, c, clock.NewTest(1), model.NewIDGenerator(1))
	require.NoError(t, err)

	inst := testInstrument(t)
	require.NoError(t, c.AddInstrument(inst))

	acct := testAccount(t)
	require.NoError(t, c.AddAccount(acct, inst.ID.Venue))

	fc := &fakeExecClient{id: "SIM-EXEC", venue: "SIM", accountID: acct.ID}
	require.NoError(t, e.RegisterClient(fc))

	f := &execFixture{engine: e, bus: b, cache: c, client: fc, inst: inst}
	require.NoError(t, b.Subscribe("events.order.*", bus.NewHandler("spy-orders", func(msg any) {
		if ev, ok := msg.(order.Event); ok {
			f.orderEvents = append(f.orderEvents, ev)
		}
	}), 0))
	require.NoError(t, b.Subscribe("events.position.*", bus.NewHandler("spy-positions", func(msg any) {
		if ev, ok := msg.(PositionEvent); ok {
			f.positionEvents = append(f.positionEvents, ev)
		}
	}), 0))
	require.NoError(t, b.Subscribe("events.account.*", bus.NewHandler("spy-accounts", func(msg any) {
		if st, ok := msg.(account.State); ok {
			f.accountStates = append(f.accountStates, st)
		}
	}), 0))
	return f
}

func testInstrument(t *testing.T) model.Instrument {
	t.Helper()
	id, err := model.ParseInstrumentID("AUD/USD.SIM")
	require.NoError(t, err)
	priceInc, err := model.NewPrice(0.00001, 5)
	require.NoError(t, err)
	sizeInc, err := model.NewQuantity(1, 0)
	require.NoError(t, err)
	return model.Instrument{
		ID:                 id,
		RawSymbol:          "AUD/USD",
		Kind:               enum.InstrumentKindCurrencyPair,
		BaseCurrency:       model.AUD,
		QuoteCurrency:      model.USD,
		SettlementCurrency: model.USD,
		PricePrecision:     5,
		SizePrecision:      0,
		PriceIncrement:     priceInc,
		SizeIncrement:      sizeInc,
		Multiplier:         sizeInc,
		LotSize:            sizeInc,
	}
}

func testAccount(t *testing.T) *account.Account {
	t.Helper()
	total, err := model.NewMoney(100_000, model.USD)
	require.NoError(t, err)
	bal, err := account.NewBalance(total, model.MoneyFromRaw(0, model.USD), total)
	require.NoError(t, err)
	acct, err := account.New(account.State{
		AccountID:   "SIM-001",
		AccountType: enum.AccountTypeMargin,
		Balances:    []account.Balance{bal},
		EventID:     "E-0",
		TsEvent:     1,
		TsInit:      1,
	})
	require.NoError(t, err)
	return acct
}

func (f *execFixture) newOrder(t *testing.T, id model.ClientOrderID, side enum.OrderSide, qty float64) *order.Order {
	t.Helper()
	q, err := model.NewQuantity(qty, 0)
	require.NoError(t, err)
	o, err := order.New(order.Event{
		Type:          order.EventInitialized,
		TraderID:      "TRADER-001",
		StrategyID:    "S-001",
		InstrumentID:  f.inst.ID,
		ClientOrderID: id,
		EventID:       "E-init",
		OrderSide:     side,
		OrderType:     enum.OrderTypeMarket,
		Quantity:      q,
		TimeInForce:   enum.TimeInForceGTC,
	})
	require.NoError(t, err)
	return o
}

// submitAndAccept runs an order through submit and venue acceptance.
func (f *execFixture) submitAndAccept(t *testing.T, o *order.Order) {
	t.Helper()
	require.NoError(t, f.engine.Execute(Command{
		Type:         CommandSubmitOrder,
		InstrumentID: o.InstrumentID,
		Order:        o,
	}))
	require.NoError(t, f.engine.ProcessEvent(order.Event{
		Type:          order.EventSubmitted,
		StrategyID:    o.StrategyID,
		InstrumentID:  o.InstrumentID,
		ClientOrderID: o.ClientOrderID,
		AccountID:     "SIM-001",
		TsEvent:       1,
	}))
	require.NoError(t, f.engine.ProcessEvent(order.Event{
		Type:          order.EventAccepted,
		StrategyID:    o.StrategyID,
		InstrumentID:  o.InstrumentID,
		ClientOrderID: o.ClientOrderID,
		VenueOrderID:  model.VenueOrderID("V-" + o.ClientOrderID),
		AccountID:     "SIM-001",
		TsEvent:       2,
	}))
}

func (f *execFixture) fill(t *testing.T, o *order.Order, tradeID model.TradeID, qty, px, commission float64, ts model.UnixNanos) order.Event {
	t.Helper()
	q, err := model.NewQuantity(qty, 0)
	require.NoError(t, err)
	p, err := model.NewPrice(px, 5)
	require.NoError(t, err)
	comm, err := model.NewMoney(commission, model.USD)
	require.NoError(t, err)
	return order.Event{
		Type:          order.EventFilled,
		StrategyID:    o.StrategyID,
		InstrumentID:  o.InstrumentID,
		ClientOrderID: o.ClientOrderID,
		VenueOrderID:  o.VenueOrderID,
		AccountID:     "SIM-001",
		OrderSide:     o.Side,
		TradeID:       tradeID,
		LastQty:       q,
		LastPx:        p,
		Commission:    comm,
		LiquiditySide: enum.LiquiditySideTaker,
		TsEvent:       ts,
	}
}

func TestSubmitOrderCachesAndRoutes(t *testing.T) {
	f := newExecFixture(t)
	o := f.newOrder(t, "O-1", enum.OrderSideBuy, 100)

	require.NoError(t, f.engine.Execute(Command{
		Type:         CommandSubmitOrder,
		InstrumentID: f.inst.ID,
		Order:        o,
	}))
	require.Len(t, f.client.submitted, 1)
	assert.True(t, f.cache.OrderExists("O-1"))
	assert.Equal(t, uint64(1), f.engine.CommandCount())
}

func TestCancelUnknownOrderRejected(t *testing.T) {
	f := newExecFixture(t)
	err := f.engine.Execute(Command{
		Type:          CommandCancelOrder,
		InstrumentID:  f.inst.ID,
		ClientOrderID: "O-missing",
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Empty(t, f.client.canceled)
}

func TestProcessEventDrivesOrderState(t *testing.T) {
	f := newExecFixture(t)
	o := f.newOrder(t, "O-1", enum.OrderSideBuy, 100)
	f.submitAndAccept(t, o)

	assert.Equal(t, enum.OrderStatusAccepted, o.Status)
	assert.Equal(t, model.VenueOrderID("V-O-1"), o.VenueOrderID)
	require.Len(t, f.orderEvents, 2)
	assert.Equal(t, order.EventSubmitted, f.orderEvents[0].Type)
	assert.Equal(t, order.EventAccepted, f.orderEvents[1].Type)
}

func TestProcessEventUnknownOrderRejected(t *testing.T) {
	f := newExecFixture(t)
	err := f.engine.ProcessEvent(order.Event{
		Type:          order.EventAccepted,
		ClientOrderID: "O-ghost",
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Empty(t, f.orderEvents)
}

func TestProcessEventIllegalTransitionRejected(t *testing.T) {
	f := newExecFixture(t)
	o := f.newOrder(t, "O-1", enum.OrderSideBuy, 100)
	require.NoError(t, f.engine.Execute(Command{
		Type:         CommandSubmitOrder,
		InstrumentID: f.inst.ID,
		Order:        o,
	}))

	// A fill before submission is not a legal order transition.
	err := f.engine.ProcessEvent(f.fill(t, o, "T-1", 100, 1.0, 0, 3))
	require.Error(t, err)
	assert.True(t, errors.IsStateTransition(err))
	assert.Equal(t, enum.OrderStatusInitialized, o.Status)
	assert.Equal(t, int64(0), o.FilledQty.Raw)
}

func TestFillOpensPosition(t *testing.T) {
	f := newExecFixture(t)
	o := f.newOrder(t, "O-1", enum.OrderSideBuy, 100_000)
	f.submitAndAccept(t, o)

	require.NoError(t, f.engine.ProcessEvent(f.fill(t, o, "T-1", 100_000, 1.0, 2.0, 3)))

	open := f.cache.PositionsOpen(cache.PositionFilter{InstrumentID: f.inst.ID})
	require.Len(t, open, 1)
	p := open[0]
	assert.Equal(t, int64(100_000), p.SignedRaw)
	assert.Equal(t, 1.0, p.AvgPxOpen)

	require.Len(t, f.positionEvents, 1)
	assert.Equal(t, PositionOpened, f.positionEvents[0].Type)
	assert.Equal(t, p.ID, f.positionEvents[0].PositionID)

	// Commission settles against the venue account.
	acct, err := f.cache.AccountForVenue("SIM")
	require.NoError(t, err)
	total, ok := acct.BalanceTotal(model.USD)
	require.True(t, ok)
	assert.Equal(t, "99998.00 USD", total.String())
}

func TestNettingFillsShareOnePosition(t *testing.T) {
	f := newExecFixture(t)
	o1 := f.newOrder(t, "O-1", enum.OrderSideBuy, 100_000)
	f.submitAndAccept(t, o1)
	require.NoError(t, f.engine.ProcessEvent(f.fill(t, o1, "T-1", 100_000, 1.0, 0, 3)))

	o2 := f.newOrder(t, "O-2", enum.OrderSideBuy, 50_000)
	f.submitAndAccept(t, o2)
	require.NoError(t, f.engine.ProcessEvent(f.fill(t, o2, "T-2", 50_000, 1.001, 0, 4)))

	open := f.cache.PositionsOpen(cache.PositionFilter{InstrumentID: f.inst.ID})
	require.Len(t, open, 1)
	assert.Equal(t, int64(150_000), open[0].SignedRaw)

	ids := f.cache.OrderIDsForPosition(open[0].ID)
	assert.ElementsMatch(t, []model.ClientOrderID{"O-1", "O-2"}, ids)
}

func TestHedgingFillsOpenSeparatePositions(t *testing.T) {
	f := newExecFixture(t)
	f.engine.SetOmsType("SIM", enum.OmsTypeHedging)

	o1 := f.newOrder(t, "O-1", enum.OrderSideBuy, 100_000)
	f.submitAndAccept(t, o1)
	require.NoError(t, f.engine.ProcessEvent(f.fill(t, o1, "T-1", 100_000, 1.0, 0, 3)))

	o2 := f.newOrder(t, "O-2", enum.OrderSideBuy, 50_000)
	f.submitAndAccept(t, o2)
	require.NoError(t, f.engine.ProcessEvent(f.fill(t, o2, "T-2", 50_000, 1.0, 0, 4)))

	open := f.cache.PositionsOpen(cache.PositionFilter{InstrumentID: f.inst.ID})
	assert.Len(t, open, 2)
}

func TestReducingFillRealizesPnlAndSettles(t *testing.T) {
	f := newExecFixture(t)
	o1 := f.newOrder(t, "O-1", enum.OrderSideBuy, 100_000)
	f.submitAndAccept(t, o1)
	require.NoError(t, f.engine.ProcessEvent(f.fill(t, o1, "T-1", 100_000, 1.0, 2.0, 3)))

	o2 := f.newOrder(t, "O-2", enum.OrderSideSell, 50_000)
	f.submitAndAccept(t, o2)
	require.NoError(t, f.engine.ProcessEvent(f.fill(t, o2, "T-2", 50_000, 1.001, 2.0, 4)))

	open := f.cache.PositionsOpen(cache.PositionFilter{InstrumentID: f.inst.ID})
	require.Len(t, open, 1)
	p := open[0]
	assert.Equal(t, int64(50_000), p.SignedRaw)
	// 50_000 closed at +0.001 points is 50 USD, minus 4 USD commission.
	assert.Equal(t, "46.00 USD", p.RealizedPnL.String())

	require.Len(t, f.positionEvents, 2)
	assert.Equal(t, PositionChanged, f.positionEvents[1].Type)

	acct, err := f.cache.AccountForVenue("SIM")
	require.NoError(t, err)
	total, ok := acct.BalanceTotal(model.USD)
	require.True(t, ok)
	assert.Equal(t, "100046.00 USD", total.String())
}

func TestClosingFillEmitsPositionClosed(t *testing.T) {
	f := newExecFixture(t)
	o1 := f.newOrder(t, "O-1", enum.OrderSideBuy, 100_000)
	f.submitAndAccept(t, o1)
	require.NoError(t, f.engine.ProcessEvent(f.fill(t, o1, "T-1", 100_000, 1.0, 0, 3)))

	o2 := f.newOrder(t, "O-2", enum.OrderSideSell, 100_000)
	f.submitAndAccept(t, o2)
	require.NoError(t, f.engine.ProcessEvent(f.fill(t, o2, "T-2", 100_000, 1.0, 0, 4)))

	assert.Empty(t, f.cache.PositionsOpen(cache.PositionFilter{}))
	require.Len(t, f.positionEvents, 2)
	assert.Equal(t, PositionClosed, f.positionEvents[1].Type)
	assert.Equal(t, model.ClientOrderID("O-2"), f.positionEvents[1].ClosingOrderID)
}

func TestFlipFillSplitsIntoCloseAndOpen(t *testing.T) {
	f := newExecFixture(t)
	o1 := f.newOrder(t, "O-1", enum.OrderSideBuy, 100_000)
	f.submitAndAccept(t, o1)
	require.NoError(t, f.engine.ProcessEvent(f.fill(t, o1, "T-1", 100_000, 1.0, 0, 3)))

	o2 := f.newOrder(t, "O-2", enum.OrderSideSell, 150_000)
	f.submitAndAccept(t, o2)
	require.NoError(t, f.engine.ProcessEvent(f.fill(t, o2, "T-2", 150_000, 1.001, 0, 4)))

	open := f.cache.PositionsOpen(cache.PositionFilter{InstrumentID: f.inst.ID})
	require.Len(t, open, 1)
	assert.Equal(t, int64(-50_000), open[0].SignedRaw)
	assert.InDelta(t, 1.001, open[0].AvgPxOpen, 1e-9)

	// The closing leg settles the full 100_000 at +0.001 points.
	closed := f.cache.PositionsClosed(cache.PositionFilter{InstrumentID: f.inst.ID})
	require.Len(t, closed, 1)
	assert.Equal(t, "100.00 USD", closed[0].RealizedPnL.String())

	require.Len(t, f.positionEvents, 3)
	assert.Equal(t, PositionOpened, f.positionEvents[0].Type)
	assert.Equal(t, PositionClosed, f.positionEvents[1].Type)
	assert.Equal(t, PositionOpened, f.positionEvents[2].Type)
	assert.NotEqual(t, f.positionEvents[0].PositionID, f.positionEvents[2].PositionID)
}

func TestAccountStatePublishedOnSettlement(t *testing.T) {
	f := newExecFixture(t)
	o := f.newOrder(t, "O-1", enum.OrderSideBuy, 100_000)
	f.submitAndAccept(t, o)
	require.NoError(t, f.engine.ProcessEvent(f.fill(t, o, "T-1", 100_000, 1.0, 2.0, 3)))

	require.Len(t, f.accountStates, 1)
	st := f.accountStates[0]
	assert.Equal(t, model.AccountID("SIM-001"), st.AccountID)
	require.Len(t, st.Balances, 1)
	assert.Equal(t, "99998.00 USD", st.Balances[0].Total.String())
	assert.False(t, st.IsReported)
}

type memJournal struct {
	orderEvents    []order.Event
	positionEvents []PositionEvent
	accountStates  []account.State
}

func (j *memJournal) AppendOrderEvent(ev order.Event) error      { j.orderEvents = append(j.orderEvents, ev); return nil }
func (j *memJournal) AppendPositionEvent(ev PositionEvent) error { j.positionEvents = append(j.positionEvents, ev); return nil }
func (j *memJournal) AppendAccountState(st account.State) error  { j.accountStates = append(j.accountStates, st); return nil }

func TestJournalReceivesSnapshots(t *testing.T) {
	f := newExecFixture(t)
	f.engine.config = Config{SnapshotOrders: true, SnapshotPositions: true}
	j := &memJournal{}
	f.engine.SetJournal(j)

	o := f.newOrder(t, "O-1", enum.OrderSideBuy, 100_000)
	f.submitAndAccept(t, o)
	require.NoError(t, f.engine.ProcessEvent(f.fill(t, o, "T-1", 100_000, 1.0, 2.0, 3)))

	assert.Len(t, j.orderEvents, 3)
	assert.Len(t, j.positionEvents, 1)
	assert.Len(t, j.accountStates, 1)
}
