package main

import (
	"fmt"
	"math/rand"

	"main/internal/data"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/runner"
)

// replayDataClient satisfies the data client interface for replayed
// feeds: subscriptions always succeed and the runner pushes the data.
type replayDataClient struct {
	id        model.ClientID
	venue     model.Venue
	connected bool
}

var _ data.Client = (*replayDataClient)(nil)

func (c *replayDataClient) ID() model.ClientID { return c.id }
func (c *replayDataClient) Venue() model.Venue { return c.venue }

func (c *replayDataClient) Connect() error    { c.connected = true; return nil }
func (c *replayDataClient) Disconnect() error { c.connected = false; return nil }
func (c *replayDataClient) IsConnected() bool { return c.connected }

func (c *replayDataClient) Subscribe(cmd data.SubscribeCommand) error   { return nil }
func (c *replayDataClient) Unsubscribe(cmd data.SubscribeCommand) error { return nil }
func (c *replayDataClient) Request(req data.RequestCommand) error       { return nil }

// syntheticQuotes generates a seeded random walk of top-of-book quotes
// with a trade print every tenth step. The same seed always produces
// the same stream.
func syntheticQuotes(instrument model.Instrument, start model.UnixNanos, count int, seed int64) []runner.TimedEvent {
	rng := rand.New(rand.NewSource(seed))
	events := make([]runner.TimedEvent, 0, count+count/10)

	midRaw := int64(65_000) * pow10(instrument.PricePrecision) / 100_000
	if midRaw == 0 {
		midRaw = instrument.PriceIncrement.Raw * 100
	}
	spreadRaw := 2 * instrument.PriceIncrement.Raw
	sizeRaw := int64(1_000_000) * pow10(instrument.SizePrecision)

	const stepNs = 100 * 1_000_000
	tradeSeq := 0
	for i := 0; i < count; i++ {
		midRaw += int64(rng.Intn(3)-1) * instrument.PriceIncrement.Raw
		if midRaw < spreadRaw {
			midRaw = spreadRaw
		}
		ts := start + model.UnixNanos(int64(i)*stepNs)

		quote := model.QuoteTick{
			InstrumentID: instrument.ID,
			BidPrice:     model.PriceFromRaw(midRaw-spreadRaw/2, instrument.PricePrecision),
			AskPrice:     model.PriceFromRaw(midRaw+spreadRaw/2, instrument.PricePrecision),
			BidSize:      model.QuantityFromRaw(sizeRaw, instrument.SizePrecision),
			AskSize:      model.QuantityFromRaw(sizeRaw, instrument.SizePrecision),
			TsEvent:      ts,
			TsInit:       ts,
		}
		events = append(events, runner.TimedEvent{Ts: ts, Payload: quote})

		if i%10 == 9 {
			tradeSeq++
			side := enum.AggressorSideBuyer
			px := quote.AskPrice
			if rng.Intn(2) == 0 {
				side = enum.AggressorSideSeller
				px = quote.BidPrice
			}
			trade := model.TradeTick{
				InstrumentID:  instrument.ID,
				Price:         px,
				Size:          model.QuantityFromRaw(sizeRaw/10, instrument.SizePrecision),
				AggressorSide: side,
				TradeID:       model.TradeID(fmt.Sprintf("SYN-%d", tradeSeq)),
				TsEvent:       ts + 1,
				TsInit:        ts + 1,
			}
			events = append(events, runner.TimedEvent{Ts: ts + 1, Payload: trade})
		}
	}
	return events
}

func pow10(n uint8) int64 {
	out := int64(1)
	for i := uint8(0); i < n; i++ {
		out *= 10
	}
	return out
}
