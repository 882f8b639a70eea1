package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/bus"
	"main/internal/cache"
	"main/internal/clock"
	"main/internal/exec"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/order"
)

type recordingExecutor struct {
	commands []exec.Command
}

func (r *recordingExecutor) Execute(cmd exec.Command) error {
	r.commands = append(r.commands, cmd)
	return nil
}

type riskFixture struct {
	engine *Engine
	next   *recordingExecutor
	cache  *cache.Cache
	clk    *clock.TestClock
	instID model.InstrumentID
	denied []order.Event
}

func newRiskFixture(t *testing.T, cfg Config) *riskFixture {
	t.Helper()
	b := bus.New("test")
	c := cache.New()
	clk := clock.NewTest(1)
	next := &recordingExecutor{}
	e, err := NewEngine(cfg, next, b, c, clk, model.NewIDGenerator(1))
	require.NoError(t, err)
	id, err := model.ParseInstrumentID("AUD/USD.SIM")
	require.NoError(t, err)
	f := &riskFixture{engine: e, next: next, cache: c, clk: clk, instID: id}
	require.NoError(t, b.Subscribe("events.order.*", bus.NewHandler("spy", func(msg any) {
		if ev, ok := msg.(order.Event); ok && ev.Type == order.EventDenied {
			f.denied = append(f.denied, ev)
		}
	}), 0))
	return f
}

func (f *riskFixture) limitOrder(t *testing.T, id model.ClientOrderID, side enum.OrderSide, qty, price float64) *order.Order {
	t.Helper()
	q, err := model.NewQuantity(qty, 0)
	require.NoError(t, err)
	px, err := model.NewPrice(price, 5)
	require.NoError(t, err)
	o, err := order.New(order.Event{
		Type:          order.EventInitialized,
		StrategyID:    "S-001",
		InstrumentID:  f.instID,
		ClientOrderID: id,
		EventID:       model.EventID("I-" + id),
		OrderSide:     side,
		OrderType:     enum.OrderTypeLimit,
		Quantity:      q,
		Price:         px,
		TimeInForce:   enum.TimeInForceGTC,
	})
	require.NoError(t, err)
	return o
}

func (f *riskFixture) submit(t *testing.T, o *order.Order) {
	t.Helper()
	require.NoError(t, f.engine.Execute(exec.Command{
		Type:         exec.CommandSubmitOrder,
		InstrumentID: f.instID,
		Order:        o,
	}))
}

func TestPassingOrderForwarded(t *testing.T) {
	f := newRiskFixture(t, Config{})
	f.submit(t, f.limitOrder(t, "O-1", enum.OrderSideBuy, 10, 1.00))
	assert.Len(t, f.next.commands, 1)
	assert.Empty(t, f.denied)
}

func TestKillSwitchDeniesEverything(t *testing.T) {
	f := newRiskFixture(t, Config{})
	f.engine.SetKillSwitch(true)

	o := f.limitOrder(t, "O-1", enum.OrderSideBuy, 10, 1.00)
	f.submit(t, o)

	assert.Empty(t, f.next.commands)
	require.Len(t, f.denied, 1)
	assert.Equal(t, "kill switch engaged", f.denied[0].Reason)
	assert.Equal(t, enum.OrderStatusDenied, o.Status)
	assert.True(t, f.cache.OrderExists("O-1"))
}

func TestMaxOrderQtyDenied(t *testing.T) {
	maxQty, err := model.NewQuantity(100, 0)
	require.NoError(t, err)
	f := newRiskFixture(t, Config{MaxOrderQty: maxQty})

	f.submit(t, f.limitOrder(t, "O-1", enum.OrderSideBuy, 100, 1.00))
	f.submit(t, f.limitOrder(t, "O-2", enum.OrderSideBuy, 101, 1.00))

	assert.Len(t, f.next.commands, 1)
	require.Len(t, f.denied, 1)
	assert.Equal(t, model.ClientOrderID("O-2"), f.denied[0].ClientOrderID)
}

func TestMaxNotionalDenied(t *testing.T) {
	f := newRiskFixture(t, Config{MaxOrderNotional: 1_000})
	f.submit(t, f.limitOrder(t, "O-1", enum.OrderSideBuy, 999, 1.00))
	f.submit(t, f.limitOrder(t, "O-2", enum.OrderSideBuy, 2_000, 1.00))
	assert.Len(t, f.next.commands, 1)
	assert.Len(t, f.denied, 1)
}

func TestPriceBandDenied(t *testing.T) {
	f := newRiskFixture(t, Config{MaxPriceDeviationBps: 100})

	// Seed a book so the midpoint reference exists.
	b, err := f.cache.InitBook(f.instID, enum.BookTypeL2MBP)
	require.NoError(t, err)
	bid, _ := model.NewPrice(0.99990, 5)
	ask, _ := model.NewPrice(1.00010, 5)
	size, _ := model.NewQuantity(100, 0)
	require.NoError(t, b.ApplyDelta(model.OrderBookDelta{
		InstrumentID: f.instID, Action: enum.BookActionAdd,
		Order: model.BookOrder{Side: enum.OrderSideBuy, Price: bid, Size: size, OrderID: 1},
	}))
	require.NoError(t, b.ApplyDelta(model.OrderBookDelta{
		InstrumentID: f.instID, Action: enum.BookActionAdd,
		Order: model.BookOrder{Side: enum.OrderSideSell, Price: ask, Size: size, OrderID: 2},
	}))

	f.submit(t, f.limitOrder(t, "O-1", enum.OrderSideBuy, 10, 1.0005))
	f.submit(t, f.limitOrder(t, "O-2", enum.OrderSideBuy, 10, 1.05))

	assert.Len(t, f.next.commands, 1, "five bps passes")
	require.Len(t, f.denied, 1, "five hundred bps does not")
	assert.Equal(t, model.ClientOrderID("O-2"), f.denied[0].ClientOrderID)
}

func TestOrderRateLimit(t *testing.T) {
	f := newRiskFixture(t, Config{OrderRateLimit: 2, OrderRateWindow: time.Second})

	f.submit(t, f.limitOrder(t, "O-1", enum.OrderSideBuy, 1, 1.00))
	f.submit(t, f.limitOrder(t, "O-2", enum.OrderSideBuy, 1, 1.00))
	f.submit(t, f.limitOrder(t, "O-3", enum.OrderSideBuy, 1, 1.00))
	assert.Len(t, f.next.commands, 2)
	assert.Len(t, f.denied, 1)

	// A fresh window admits orders again.
	_, err := f.clk.AdvanceTime(model.UnixNanos(2*time.Second), true)
	require.NoError(t, err)
	f.submit(t, f.limitOrder(t, "O-4", enum.OrderSideBuy, 1, 1.00))
	assert.Len(t, f.next.commands, 3)
}

func TestOrderListDeniedAtomically(t *testing.T) {
	maxQty, err := model.NewQuantity(100, 0)
	require.NoError(t, err)
	f := newRiskFixture(t, Config{MaxOrderQty: maxQty})

	a := f.limitOrder(t, "O-A", enum.OrderSideBuy, 10, 1.00)
	b := f.limitOrder(t, "O-B", enum.OrderSideSell, 500, 1.00)
	list, err := order.NewList("L-1", f.instID, "S-001", []*order.Order{a, b}, 1)
	require.NoError(t, err)

	require.NoError(t, f.engine.Execute(exec.Command{
		Type:         exec.CommandSubmitOrderList,
		InstrumentID: f.instID,
		OrderList:    list,
	}))

	assert.Empty(t, f.next.commands)
	assert.Len(t, f.denied, 2)
	assert.Equal(t, uint64(2), f.engine.DeniedCount())
}

func TestNonSubmitCommandsPassThrough(t *testing.T) {
	f := newRiskFixture(t, Config{KillSwitch: true})
	require.NoError(t, f.engine.Execute(exec.Command{
		Type:          exec.CommandCancelOrder,
		InstrumentID:  f.instID,
		ClientOrderID: "O-1",
	}))
	assert.Len(t, f.next.commands, 1, "cancel is never risk gated")
}
