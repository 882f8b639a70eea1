package enum

// BarAggregation is the dimension a bar aggregates over.
type BarAggregation uint8

const (
	BarAggregationUnknown BarAggregation = iota
	BarAggregationTick
	BarAggregationVolume
	BarAggregationSecond
	BarAggregationMinute
	BarAggregationHour
	BarAggregationDay
)

func (b BarAggregation) String() string {
	switch b {
	case BarAggregationTick:
		return "TICK"
	case BarAggregationVolume:
		return "VOLUME"
	case BarAggregationSecond:
		return "SECOND"
	case BarAggregationMinute:
		return "MINUTE"
	case BarAggregationHour:
		return "HOUR"
	case BarAggregationDay:
		return "DAY"
	default:
		return "UNKNOWN"
	}
}

// IsTimeDriven reports whether the aggregation closes on clock boundaries.
func (b BarAggregation) IsTimeDriven() bool {
	switch b {
	case BarAggregationSecond, BarAggregationMinute, BarAggregationHour, BarAggregationDay:
		return true
	default:
		return false
	}
}

// PriceType selects which price stream feeds an aggregation.
type PriceType uint8

const (
	PriceTypeUnknown PriceType = iota
	PriceTypeBid
	PriceTypeAsk
	PriceTypeMid
	PriceTypeLast
	PriceTypeMark
)

func (p PriceType) String() string {
	switch p {
	case PriceTypeBid:
		return "BID"
	case PriceTypeAsk:
		return "ASK"
	case PriceTypeMid:
		return "MID"
	case PriceTypeLast:
		return "LAST"
	case PriceTypeMark:
		return "MARK"
	default:
		return "UNKNOWN"
	}
}
