package codec

import (
	"encoding/binary"

	"main/internal/model"
	"main/internal/model/enum"
)

// barFixedSize covers the bar specification, four prices, the volume
// and both timestamps. The instrument id follows length prefixed.
const barFixedSize = 65

// EncodeBar serializes an OHLCV bar into dst.
func EncodeBar(dst []byte, b model.Bar) []byte {
	dst = grow(dst, barFixedSize+instrumentIDSize(b.Type.InstrumentID))

	binary.LittleEndian.PutUint16(dst[0:2], uint16(b.Type.Spec.Step))
	dst[2] = uint8(b.Type.Spec.Aggregation)
	dst[3] = uint8(b.Type.Spec.PriceType)
	off := putPrice(dst, 4, b.Open)
	off = putPrice(dst, off, b.High)
	off = putPrice(dst, off, b.Low)
	off = putPrice(dst, off, b.Close)
	off = putQuantity(dst, off, b.Volume)
	binary.LittleEndian.PutUint64(dst[off:off+8], uint64(b.TsEvent))
	binary.LittleEndian.PutUint64(dst[off+8:off+16], uint64(b.TsInit))
	putInstrumentID(dst, off+16, b.Type.InstrumentID)

	return dst
}

// DecodeBar parses a payload produced by EncodeBar.
func DecodeBar(src []byte) (model.Bar, bool) {
	if len(src) < barFixedSize {
		return model.Bar{}, false
	}

	var b model.Bar
	b.Type.Spec.Step = int(binary.LittleEndian.Uint16(src[0:2]))
	b.Type.Spec.Aggregation = enum.BarAggregation(src[2])
	b.Type.Spec.PriceType = enum.PriceType(src[3])
	var off int
	b.Open, off = getPrice(src, 4)
	b.High, off = getPrice(src, off)
	b.Low, off = getPrice(src, off)
	b.Close, off = getPrice(src, off)
	b.Volume, off = getQuantity(src, off)
	b.TsEvent = model.UnixNanos(binary.LittleEndian.Uint64(src[off : off+8]))
	b.TsInit = model.UnixNanos(binary.LittleEndian.Uint64(src[off+8 : off+16]))

	id, _, ok := getInstrumentID(src, off+16)
	if !ok {
		return model.Bar{}, false
	}
	b.Type.InstrumentID = id

	return b, true
}
