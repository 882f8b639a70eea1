package main

import (
	"fmt"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/clock"
	"main/internal/exec"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/order"
)

// executor is the command gateway the strategy trades through, normally
// the risk engine in front of the execution engine.
type executor interface {
	Execute(cmd exec.Command) error
}

// makerStrategy is a minimal spread-capture strategy: rest a buy at the
// bid while flat, and once long rest an exit sell one increment above
// the entry. It exists to drive the full command and event path.
type makerStrategy struct {
	traderID   model.TraderID
	strategyID model.StrategyID
	instrument model.Instrument
	executor   executor
	clk        clock.Clock
	ids        *model.IDGenerator

	tradeSize model.Quantity
	orderSeq  int
	openBuy   model.ClientOrderID
	openSell  model.ClientOrderID
	filledRaw map[model.ClientOrderID]int64
	netRaw    int64
	entryPx   model.Price

	submitted int
	fills     int
}

func newMakerStrategy(
	traderID model.TraderID,
	strategyID model.StrategyID,
	instrument model.Instrument,
	tradeSize model.Quantity,
	ex executor,
	msgbus *bus.Bus,
	clk clock.Clock,
	ids *model.IDGenerator,
) (*makerStrategy, error) {
	s := &makerStrategy{
		traderID:   traderID,
		strategyID: strategyID,
		instrument: instrument,
		executor:   ex,
		clk:        clk,
		ids:        ids,
		tradeSize:  tradeSize,
		filledRaw:  make(map[model.ClientOrderID]int64),
	}

	err := msgbus.Subscribe(bus.TopicQuotes(instrument.ID), bus.NewHandler(string(strategyID)+"-quotes", func(msg any) {
		if quote, ok := msg.(model.QuoteTick); ok {
			s.onQuote(quote)
		}
	}), 0)
	if err != nil {
		return nil, err
	}

	err = msgbus.Subscribe("events.order."+string(strategyID)+".*", bus.NewHandler(string(strategyID)+"-orders", func(msg any) {
		if ev, ok := msg.(order.Event); ok {
			s.onOrderEvent(ev)
		}
	}), 0)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *makerStrategy) onQuote(quote model.QuoteTick) {
	if s.netRaw == 0 && s.openBuy == "" {
		s.openBuy = s.submitLimit(enum.OrderSideBuy, quote.BidPrice)
		return
	}
	if s.netRaw > 0 && s.openSell == "" {
		exit := model.PriceFromRaw(s.entryPx.Raw+s.instrument.PriceIncrement.Raw, s.entryPx.Precision)
		if quote.AskPrice.Raw > exit.Raw {
			exit = quote.AskPrice
		}
		s.openSell = s.submitLimit(enum.OrderSideSell, exit)
	}
}

func (s *makerStrategy) onOrderEvent(ev order.Event) {
	terminal := false
	switch ev.Type {
	case order.EventFilled:
		s.fills++
		s.filledRaw[ev.ClientOrderID] += ev.LastQty.Raw
		if ev.OrderSide == enum.OrderSideBuy {
			s.netRaw += ev.LastQty.Raw
			s.entryPx = ev.LastPx
		} else {
			s.netRaw -= ev.LastQty.Raw
		}
		// A partial fill keeps the order working.
		terminal = s.filledRaw[ev.ClientOrderID] >= s.tradeSize.Raw
	case order.EventDenied, order.EventRejected, order.EventCanceled, order.EventExpired:
		terminal = true
	default:
		return
	}
	if !terminal {
		return
	}

	delete(s.filledRaw, ev.ClientOrderID)
	switch ev.ClientOrderID {
	case s.openBuy:
		s.openBuy = ""
	case s.openSell:
		s.openSell = ""
	}
}

func (s *makerStrategy) submitLimit(side enum.OrderSide, px model.Price) model.ClientOrderID {
	s.orderSeq++
	clientOrderID := model.ClientOrderID(fmt.Sprintf("O-%s-%d", s.strategyID, s.orderSeq))
	ts := s.clk.TimestampNs()

	init := order.Event{
		Type:          order.EventInitialized,
		TraderID:      s.traderID,
		StrategyID:    s.strategyID,
		InstrumentID:  s.instrument.ID,
		ClientOrderID: clientOrderID,
		OrderSide:     side,
		OrderType:     enum.OrderTypeLimit,
		Quantity:      s.tradeSize,
		TimeInForce:   enum.TimeInForceGTC,
		Price:         px,
		EventID:       s.ids.Next(ts),
		TsEvent:       ts,
		TsInit:        ts,
	}
	o, err := order.New(init)
	if err != nil {
		logs.Errorf("strategy %s: build order, err: %+v", s.strategyID, err)
		return ""
	}

	cmd := exec.Command{
		Type:         exec.CommandSubmitOrder,
		TraderID:     s.traderID,
		StrategyID:   s.strategyID,
		InstrumentID: s.instrument.ID,
		Order:        o,
		CommandID:    s.ids.Next(ts),
		TsInit:       ts,
	}
	if err := s.executor.Execute(cmd); err != nil {
		logs.Errorf("strategy %s: submit %s, err: %+v", s.strategyID, clientOrderID, err)
		return ""
	}
	s.submitted++
	return clientOrderID
}
