package codec

import (
	"encoding/binary"

	"main/internal/model"
	"main/internal/model/enum"
)

const (
	quoteFixedSize = 52
	tradeFixedSize = 35
)

// EncodeQuoteTick serializes a top-of-book quote into dst.
func EncodeQuoteTick(dst []byte, q model.QuoteTick) []byte {
	dst = grow(dst, quoteFixedSize+instrumentIDSize(q.InstrumentID))

	off := putPrice(dst, 0, q.BidPrice)
	off = putPrice(dst, off, q.AskPrice)
	off = putQuantity(dst, off, q.BidSize)
	off = putQuantity(dst, off, q.AskSize)
	binary.LittleEndian.PutUint64(dst[off:off+8], uint64(q.TsEvent))
	binary.LittleEndian.PutUint64(dst[off+8:off+16], uint64(q.TsInit))
	putInstrumentID(dst, off+16, q.InstrumentID)

	return dst
}

// DecodeQuoteTick parses a payload produced by EncodeQuoteTick.
func DecodeQuoteTick(src []byte) (model.QuoteTick, bool) {
	if len(src) < quoteFixedSize {
		return model.QuoteTick{}, false
	}

	var q model.QuoteTick
	var off int
	q.BidPrice, off = getPrice(src, 0)
	q.AskPrice, off = getPrice(src, off)
	q.BidSize, off = getQuantity(src, off)
	q.AskSize, off = getQuantity(src, off)
	q.TsEvent = model.UnixNanos(binary.LittleEndian.Uint64(src[off : off+8]))
	q.TsInit = model.UnixNanos(binary.LittleEndian.Uint64(src[off+8 : off+16]))

	id, _, ok := getInstrumentID(src, off+16)
	if !ok {
		return model.QuoteTick{}, false
	}
	q.InstrumentID = id

	return q, true
}

// EncodeTradeTick serializes a trade print into dst. The trade id
// follows the instrument id length prefixed.
func EncodeTradeTick(dst []byte, t model.TradeTick) []byte {
	dst = grow(dst, tradeFixedSize+instrumentIDSize(t.InstrumentID)+stringSize(string(t.TradeID)))

	dst[0] = uint8(t.AggressorSide)
	off := putPrice(dst, 1, t.Price)
	off = putQuantity(dst, off, t.Size)
	binary.LittleEndian.PutUint64(dst[off:off+8], uint64(t.TsEvent))
	binary.LittleEndian.PutUint64(dst[off+8:off+16], uint64(t.TsInit))
	off = putInstrumentID(dst, off+16, t.InstrumentID)
	putString(dst, off, string(t.TradeID))

	return dst
}

// DecodeTradeTick parses a payload produced by EncodeTradeTick.
func DecodeTradeTick(src []byte) (model.TradeTick, bool) {
	if len(src) < tradeFixedSize {
		return model.TradeTick{}, false
	}

	var t model.TradeTick
	t.AggressorSide = enum.AggressorSide(src[0])
	var off int
	t.Price, off = getPrice(src, 1)
	t.Size, off = getQuantity(src, off)
	t.TsEvent = model.UnixNanos(binary.LittleEndian.Uint64(src[off : off+8]))
	t.TsInit = model.UnixNanos(binary.LittleEndian.Uint64(src[off+8 : off+16]))

	id, off, ok := getInstrumentID(src, off+16)
	if !ok {
		return model.TradeTick{}, false
	}
	t.InstrumentID = id

	tradeID, _, ok := getString(src, off)
	if !ok {
		return model.TradeTick{}, false
	}
	t.TradeID = model.TradeID(tradeID)

	return t, true
}
