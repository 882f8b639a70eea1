package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/account"
	"main/internal/errors"
	"main/internal/exec"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/order"
)

func storeOrderStream(t *testing.T, id model.ClientOrderID) []order.Event {
	t.Helper()
	instrumentID, err := model.ParseInstrumentID("AUD/USD.SIM")
	require.NoError(t, err)
	qty, err := model.NewQuantity(100_000, 0)
	require.NoError(t, err)
	price, err := model.NewPrice(0.65000, 5)
	require.NoError(t, err)

	base := order.Event{
		TraderID:      "TRADER-001",
		StrategyID:    "S-001",
		InstrumentID:  instrumentID,
		ClientOrderID: id,
	}

	init := base
	init.Type = order.EventInitialized
	init.OrderSide = enum.OrderSideBuy
	init.OrderType = enum.OrderTypeLimit
	init.Quantity = qty
	init.TimeInForce = enum.TimeInForceGTC
	init.Price = price
	init.EventID = "E-1"
	init.TsEvent = 1

	submitted := base
	submitted.Type = order.EventSubmitted
	submitted.EventID = "E-2"
	submitted.TsEvent = 2

	accepted := base
	accepted.Type = order.EventAccepted
	accepted.VenueOrderID = "SIM-1"
	accepted.EventID = "E-3"
	accepted.TsEvent = 3

	filled := base
	filled.Type = order.EventFilled
	filled.VenueOrderID = "SIM-1"
	filled.TradeID = "SIM-T-1"
	filled.OrderSide = enum.OrderSideBuy
	filled.LastQty = qty
	filled.LastPx = price
	filled.Commission = model.MoneyFromRaw(200, model.USD)
	filled.LiquiditySide = enum.LiquiditySideTaker
	filled.EventID = "E-4"
	filled.TsEvent = 4

	return []order.Event{init, submitted, accepted, filled}
}

func storeAccountStates(t *testing.T, id model.AccountID) []account.State {
	t.Helper()
	first, err := account.NewBalance(
		model.MoneyFromRaw(10_000_000, model.USD),
		model.MoneyFromRaw(0, model.USD),
		model.MoneyFromRaw(10_000_000, model.USD),
	)
	require.NoError(t, err)
	second, err := account.NewBalance(
		model.MoneyFromRaw(10_004_600, model.USD),
		model.MoneyFromRaw(0, model.USD),
		model.MoneyFromRaw(10_004_600, model.USD),
	)
	require.NoError(t, err)

	return []account.State{
		{
			AccountID:   id,
			AccountType: enum.AccountTypeMargin,
			Balances:    []account.Balance{first},
			EventID:     "A-1",
			TsEvent:     1,
		},
		{
			AccountID:   id,
			AccountType: enum.AccountTypeMargin,
			Balances:    []account.Balance{second},
			EventID:     "A-2",
			TsEvent:     5,
		},
	}
}

func TestMemoryStreamsKeepAppendOrder(t *testing.T) {
	s := NewMemory()

	for _, ev := range storeOrderStream(t, "O-2") {
		require.NoError(t, s.AppendOrderEvent(ev))
	}
	for _, ev := range storeOrderStream(t, "O-1")[:2] {
		require.NoError(t, s.AppendOrderEvent(ev))
	}

	ids, err := s.OrderIDs()
	require.NoError(t, err)
	require.Equal(t, []model.ClientOrderID{"O-1", "O-2"}, ids)

	events, err := s.OrderEvents("O-2")
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, order.EventInitialized, events[0].Type)
	assert.Equal(t, order.EventFilled, events[3].Type)

	events, err = s.OrderEvents("O-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
}

func TestRebuildOrderReplaysToTerminalState(t *testing.T) {
	s := NewMemory()
	stream := storeOrderStream(t, "O-7")
	for _, ev := range stream {
		require.NoError(t, s.AppendOrderEvent(ev))
	}

	events, err := s.OrderEvents("O-7")
	require.NoError(t, err)

	o, err := RebuildOrder(events)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusFilled, o.Status)
	assert.Equal(t, model.VenueOrderID("SIM-1"), o.VenueOrderID)
	assert.Equal(t, stream[0].Quantity, o.FilledQty)
}

func TestRebuildOrderRejectsEmptyStream(t *testing.T) {
	_, err := RebuildOrder(nil)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestRebuildAccountAppliesStatesInOrder(t *testing.T) {
	s := NewMemory()
	for _, st := range storeAccountStates(t, "SIM-001") {
		require.NoError(t, s.AppendAccountState(st))
	}

	states, err := s.AccountStates("SIM-001")
	require.NoError(t, err)
	require.Len(t, states, 2)

	a, err := RebuildAccount(states)
	require.NoError(t, err)
	total, ok := a.BalanceTotal(model.USD)
	require.True(t, ok)
	assert.Equal(t, "100046.00 USD", total.String())
}

func TestLatestPositionState(t *testing.T) {
	s := NewMemory()
	qty, err := model.NewQuantity(100_000, 0)
	require.NoError(t, err)

	opened := exec.PositionEvent{
		Type:       exec.PositionOpened,
		PositionID: "P-1",
		Side:       enum.PositionSideLong,
		Quantity:   qty,
		EventID:    "PE-1",
		TsEvent:    1,
	}
	closed := opened
	closed.Type = exec.PositionClosed
	closed.Side = enum.PositionSideFlat
	closed.Quantity = model.QuantityFromRaw(0, qty.Precision)
	closed.EventID = "PE-2"
	closed.TsEvent = 9

	require.NoError(t, s.AppendPositionEvent(opened))
	require.NoError(t, s.AppendPositionEvent(closed))

	events, err := s.PositionEvents("P-1")
	require.NoError(t, err)

	last, ok := LatestPositionState(events)
	require.True(t, ok)
	assert.Equal(t, exec.PositionClosed, last.Type)
	assert.Equal(t, enum.PositionSideFlat, last.Side)

	_, ok = LatestPositionState(nil)
	assert.False(t, ok)
}
