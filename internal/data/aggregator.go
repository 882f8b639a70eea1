package data

import (
	"time"

	"main/internal/errors"
	"main/internal/model"
	"main/internal/model/enum"
)

// BarAggregator synthesizes bars from trades or quotes when no native
// bar feed exists. Time-driven bars close on fixed boundaries derived
// from tick timestamps, so backtest output does not depend on wall time.
type BarAggregator struct {
	barType model.BarType
	emit    func(model.Bar)

	open, high, low, close model.Price
	volume                 model.Quantity
	ticks                  int
	started                bool
	windowEnd              model.UnixNanos
}

// NewBarAggregator creates an aggregator emitting completed bars through
// the callback.
func NewBarAggregator(barType model.BarType, emit func(model.Bar)) (*BarAggregator, error) {
	if barType.Spec.Step <= 0 {
		return nil, errors.Validationf("bar type %s requires a positive step", barType)
	}
	if emit == nil {
		return nil, errors.Validation("bar aggregator requires an emit callback")
	}
	return &BarAggregator{barType: barType, emit: emit}, nil
}

func (a *BarAggregator) BarType() model.BarType { return a.barType }

// interval returns the window length for time-driven aggregations.
func (a *BarAggregator) interval() model.UnixNanos {
	step := int64(a.barType.Spec.Step)
	switch a.barType.Spec.Aggregation {
	case enum.BarAggregationSecond:
		return model.UnixNanos(step * int64(time.Second))
	case enum.BarAggregationMinute:
		return model.UnixNanos(step * int64(time.Minute))
	case enum.BarAggregationHour:
		return model.UnixNanos(step * int64(time.Hour))
	case enum.BarAggregationDay:
		return model.UnixNanos(step * int64(24*time.Hour))
	default:
		return 0
	}
}

// HandleTrade feeds a trade print into the aggregation.
func (a *BarAggregator) HandleTrade(trade model.TradeTick) {
	a.update(trade.Price, trade.Size, trade.TsEvent)
}

// HandleQuote feeds a quote update into the aggregation, extracting the
// price stream selected by the bar type.
func (a *BarAggregator) HandleQuote(quote model.QuoteTick) {
	price := quote.ExtractPrice(a.barType.Spec.PriceType)
	var size model.Quantity
	switch a.barType.Spec.PriceType {
	case enum.PriceTypeBid:
		size = quote.BidSize
	case enum.PriceTypeAsk:
		size = quote.AskSize
	default:
		size = model.QuantityFromRaw((quote.BidSize.Raw+quote.AskSize.Raw)/2, quote.BidSize.Precision)
	}
	a.update(price, size, quote.TsEvent)
}

func (a *BarAggregator) update(price model.Price, size model.Quantity, ts model.UnixNanos) {
	if a.barType.Spec.Aggregation.IsTimeDriven() {
		a.updateTimeDriven(price, size, ts)
		return
	}

	a.apply(price, size)
	switch a.barType.Spec.Aggregation {
	case enum.BarAggregationTick:
		if a.ticks >= a.barType.Spec.Step {
			a.build(ts)
		}
	case enum.BarAggregationVolume:
		if a.volume.Float64() >= float64(a.barType.Spec.Step) {
			a.build(ts)
		}
	}
}

func (a *BarAggregator) updateTimeDriven(price model.Price, size model.Quantity, ts model.UnixNanos) {
	interval := a.interval()
	if a.started && ts >= a.windowEnd {
		a.build(a.windowEnd)
	}
	if !a.started {
		start := model.UnixNanos(int64(ts) - int64(ts)%int64(interval))
		a.windowEnd = start + interval
	}
	a.apply(price, size)
}

func (a *BarAggregator) apply(price model.Price, size model.Quantity) {
	if !a.started {
		a.open = price
		a.high = price
		a.low = price
		a.volume = model.QuantityFromRaw(0, size.Precision)
		a.started = true
	}
	if price.Cmp(a.high) > 0 {
		a.high = price
	}
	if price.Cmp(a.low) < 0 {
		a.low = price
	}
	a.close = price
	a.volume = model.QuantityFromRaw(a.volume.Raw+size.Raw, a.volume.Precision)
	a.ticks++
}

// build emits the working bar and resets for the next window.
func (a *BarAggregator) build(ts model.UnixNanos) {
	if !a.started {
		return
	}
	a.emit(model.Bar{
		Type:    a.barType,
		Open:    a.open,
		High:    a.high,
		Low:     a.low,
		Close:   a.close,
		Volume:  a.volume,
		TsEvent: ts,
		TsInit:  ts,
	})
	a.started = false
	a.ticks = 0
}
