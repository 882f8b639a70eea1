package model

import (
	"fmt"
	"strconv"
	"strings"

	"main/internal/errors"
	"main/internal/model/enum"
)

// BarSpecification describes the aggregation of a bar stream.
type BarSpecification struct {
	Step        int
	Aggregation enum.BarAggregation
	PriceType   enum.PriceType
}

func (s BarSpecification) String() string {
	return fmt.Sprintf("%d-%s-%s", s.Step, s.Aggregation, s.PriceType)
}

// BarType is an instrument plus a bar specification, formatted
// "<instrument>-<step>-<aggregation>-<price type>".
type BarType struct {
	InstrumentID InstrumentID
	Spec         BarSpecification
}

func (t BarType) String() string {
	return t.InstrumentID.String() + "-" + t.Spec.String()
}

// ParseBarType parses the canonical bar type string form.
func ParseBarType(value string) (BarType, error) {
	parts := strings.Split(value, "-")
	if len(parts) < 4 {
		return BarType{}, errors.Validationf("invalid bar type %q", value)
	}
	tail := parts[len(parts)-3:]
	instrumentPart := strings.Join(parts[:len(parts)-3], "-")

	instrumentID, err := ParseInstrumentID(instrumentPart)
	if err != nil {
		return BarType{}, errors.Wrap(err, "parse bar type")
	}
	step, err := strconv.Atoi(tail[0])
	if err != nil || step <= 0 {
		return BarType{}, errors.Validationf("invalid bar step in %q", value)
	}

	var aggregation enum.BarAggregation
	switch tail[1] {
	case "TICK":
		aggregation = enum.BarAggregationTick
	case "VOLUME":
		aggregation = enum.BarAggregationVolume
	case "SECOND":
		aggregation = enum.BarAggregationSecond
	case "MINUTE":
		aggregation = enum.BarAggregationMinute
	case "HOUR":
		aggregation = enum.BarAggregationHour
	case "DAY":
		aggregation = enum.BarAggregationDay
	default:
		return BarType{}, errors.Validationf("invalid bar aggregation in %q", value)
	}

	var priceType enum.PriceType
	switch tail[2] {
	case "BID":
		priceType = enum.PriceTypeBid
	case "ASK":
		priceType = enum.PriceTypeAsk
	case "MID":
		priceType = enum.PriceTypeMid
	case "LAST":
		priceType = enum.PriceTypeLast
	case "MARK":
		priceType = enum.PriceTypeMark
	default:
		return BarType{}, errors.Validationf("invalid bar price type in %q", value)
	}

	return BarType{
		InstrumentID: instrumentID,
		Spec: BarSpecification{
			Step:        step,
			Aggregation: aggregation,
			PriceType:   priceType,
		},
	}, nil
}

// Bar is an aggregated OHLCV record.
type Bar struct {
	Type    BarType
	Open    Price
	High    Price
	Low     Price
	Close   Price
	Volume  Quantity
	TsEvent UnixNanos
	TsInit  UnixNanos
}

// Validate checks the OHLC relation.
func (b Bar) Validate() error {
	if b.High.Cmp(b.Low) < 0 {
		return errors.Validationf("bar high %s below low %s", b.High, b.Low)
	}
	if b.High.Cmp(b.Open) < 0 || b.High.Cmp(b.Close) < 0 {
		return errors.Validationf("bar high %s below open/close", b.High)
	}
	if b.Low.Cmp(b.Open) > 0 || b.Low.Cmp(b.Close) > 0 {
		return errors.Validationf("bar low %s above open/close", b.Low)
	}
	return nil
}

func (b Bar) String() string {
	return fmt.Sprintf("Bar(%s O=%s H=%s L=%s C=%s V=%s)",
		b.Type, b.Open, b.High, b.Low, b.Close, b.Volume)
}
