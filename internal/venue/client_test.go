package venue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/clock"
	"main/internal/errors"
	"main/internal/exec"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/order"
)

func clientInstrument(t *testing.T, symbol model.Symbol) model.Instrument {
	t.Helper()
	inst := venueInstrument(t)
	inst.ID = model.NewInstrumentID(symbol, "SIM")
	inst.RawSymbol = symbol
	return inst
}

func clientLimitOrder(t *testing.T, inst model.Instrument, id model.ClientOrderID) *order.Order {
	t.Helper()
	q, err := model.NewQuantity(10, 0)
	require.NoError(t, err)
	px, err := model.NewPrice(1.0, 5)
	require.NoError(t, err)
	o, err := order.New(order.Event{
		Type:          order.EventInitialized,
		TraderID:      "TRADER-001",
		StrategyID:    "S-001",
		InstrumentID:  inst.ID,
		ClientOrderID: id,
		EventID:       model.EventID("I-" + id),
		OrderSide:     enum.OrderSideBuy,
		OrderType:     enum.OrderTypeLimit,
		Quantity:      q,
		Price:         px,
		TimeInForce:   enum.TimeInForceGTC,
	})
	require.NoError(t, err)
	return o
}

func newClientFixture(t *testing.T) (*ExecClient, *Engine, *Engine, *[]order.Event) {
	t.Helper()
	var events []order.Event
	emit := func(ev order.Event) { events = append(events, ev) }

	clk := clock.NewTest(1)
	ids := model.NewIDGenerator(1)
	engA, err := NewEngine(clientInstrument(t, "AUD/USD"), Config{}, "SIM-001", clk, ids, emit)
	require.NoError(t, err)
	engB, err := NewEngine(clientInstrument(t, "EUR/USD"), Config{}, "SIM-001", clk, ids, emit)
	require.NoError(t, err)

	client := NewExecClient("SIM-EXEC", "SIM", "SIM-001")
	require.NoError(t, client.AddEngine(engA))
	require.NoError(t, client.AddEngine(engB))
	return client, engA, engB, &events
}

func TestExecClientRoutesByInstrument(t *testing.T) {
	client, engA, engB, _ := newClientFixture(t)

	instA := engA.Instrument()
	require.NoError(t, client.SubmitOrder(exec.Command{
		Type:         exec.CommandSubmitOrder,
		InstrumentID: instA.ID,
		Order:        clientLimitOrder(t, instA, "O-A"),
	}))
	assert.Equal(t, 1, engA.OpenOrderCount())
	assert.Equal(t, 0, engB.OpenOrderCount())
}

func TestExecClientUnknownInstrument(t *testing.T) {
	client, _, _, _ := newClientFixture(t)

	err := client.SubmitOrder(exec.Command{
		Type:         exec.CommandSubmitOrder,
		InstrumentID: model.NewInstrumentID("GBP/USD", "SIM"),
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestExecClientRejectsDuplicateEngine(t *testing.T) {
	client, engA, _, _ := newClientFixture(t)
	require.Error(t, client.AddEngine(engA))
}

func TestExecClientCancelAllBroadcasts(t *testing.T) {
	client, engA, engB, events := newClientFixture(t)

	instA, instB := engA.Instrument(), engB.Instrument()
	require.NoError(t, client.SubmitOrder(exec.Command{
		Type:         exec.CommandSubmitOrder,
		InstrumentID: instA.ID,
		Order:        clientLimitOrder(t, instA, "O-A"),
	}))
	require.NoError(t, client.SubmitOrder(exec.Command{
		Type:         exec.CommandSubmitOrder,
		InstrumentID: instB.ID,
		Order:        clientLimitOrder(t, instB, "O-B"),
	}))

	require.NoError(t, client.CancelAllOrders(exec.Command{Type: exec.CommandCancelAllOrders}))

	assert.Equal(t, 0, engA.OpenOrderCount())
	assert.Equal(t, 0, engB.OpenOrderCount())

	canceled := make([]model.InstrumentID, 0, 2)
	for _, ev := range *events {
		if ev.Type == order.EventCanceled {
			canceled = append(canceled, ev.InstrumentID)
		}
	}
	assert.Equal(t, []model.InstrumentID{instA.ID, instB.ID}, canceled)
}

func TestExecClientGeneratesReports(t *testing.T) {
	client, engA, _, _ := newClientFixture(t)
	instA := engA.Instrument()

	sellPx, err := model.NewPrice(1.0, 5)
	require.NoError(t, err)
	sellQty, err := model.NewQuantity(4, 0)
	require.NoError(t, err)
	require.NoError(t, engA.ProcessOrderBookDelta(model.OrderBookDelta{
		InstrumentID: instA.ID,
		Action:       enum.BookActionAdd,
		Order:        model.BookOrder{Side: enum.OrderSideSell, Price: sellPx, Size: sellQty, OrderID: 1},
		Sequence:     1,
		TsEvent:      1,
	}))

	require.NoError(t, client.SubmitOrder(exec.Command{
		Type:         exec.CommandSubmitOrder,
		InstrumentID: instA.ID,
		Order:        clientLimitOrder(t, instA, "O-A"),
	}))

	status, err := client.GenerateOrderStatusReport(instA.ID, "O-A")
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusPartiallyFilled, status.Status)
	assert.Equal(t, int64(10), status.Quantity.Raw)
	assert.Equal(t, int64(4), status.FilledQty.Raw)
	assert.Equal(t, enum.OrderSideBuy, status.OrderSide)

	_, err = client.GenerateOrderStatusReport(instA.ID, "O-MISSING")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	fills, err := client.GenerateFillReports(model.InstrumentID{})
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, model.ClientOrderID("O-A"), fills[0].ClientOrderID)
	assert.Equal(t, int64(4), fills[0].FilledQty.Raw)
	assert.Equal(t, instA.ID, fills[0].InstrumentID)

	positions, err := client.GeneratePositionStatusReports(model.InstrumentID{})
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, enum.PositionSideLong, positions[0].PositionSide)
	assert.Equal(t, int64(4), positions[0].Quantity.Raw)

	_, err = client.GenerateFillReports(model.NewInstrumentID("GBP/USD", "SIM"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
