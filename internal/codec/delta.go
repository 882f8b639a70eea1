package codec

import (
	"encoding/binary"

	"main/internal/model"
	"main/internal/model/enum"
)

// deltaFixedSize covers action, flags, side, order fields, sequence and
// both timestamps. The instrument id follows length prefixed.
const deltaFixedSize = 53

// EncodeOrderBookDelta serializes a book delta into dst, reallocating
// only when dst is too small.
func EncodeOrderBookDelta(dst []byte, d model.OrderBookDelta) []byte {
	dst = grow(dst, deltaFixedSize+instrumentIDSize(d.InstrumentID))

	dst[0] = uint8(d.Action)
	dst[1] = d.Flags
	dst[2] = uint8(d.Order.Side)
	off := putPrice(dst, 3, d.Order.Price)
	off = putQuantity(dst, off, d.Order.Size)
	binary.LittleEndian.PutUint64(dst[off:off+8], d.Order.OrderID)
	binary.LittleEndian.PutUint64(dst[off+8:off+16], d.Sequence)
	binary.LittleEndian.PutUint64(dst[off+16:off+24], uint64(d.TsEvent))
	binary.LittleEndian.PutUint64(dst[off+24:off+32], uint64(d.TsInit))
	putInstrumentID(dst, off+32, d.InstrumentID)

	return dst
}

// DecodeOrderBookDelta parses a payload produced by EncodeOrderBookDelta.
func DecodeOrderBookDelta(src []byte) (model.OrderBookDelta, bool) {
	if len(src) < deltaFixedSize {
		return model.OrderBookDelta{}, false
	}

	var d model.OrderBookDelta
	d.Action = enum.BookAction(src[0])
	d.Flags = src[1]
	d.Order.Side = enum.OrderSide(src[2])
	var off int
	d.Order.Price, off = getPrice(src, 3)
	d.Order.Size, off = getQuantity(src, off)
	d.Order.OrderID = binary.LittleEndian.Uint64(src[off : off+8])
	d.Sequence = binary.LittleEndian.Uint64(src[off+8 : off+16])
	d.TsEvent = model.UnixNanos(binary.LittleEndian.Uint64(src[off+16 : off+24]))
	d.TsInit = model.UnixNanos(binary.LittleEndian.Uint64(src[off+24 : off+32]))

	id, _, ok := getInstrumentID(src, off+32)
	if !ok {
		return model.OrderBookDelta{}, false
	}
	d.InstrumentID = id

	return d, true
}
