package codec

import (
	"encoding/binary"

	"main/internal/model"
)

const markFixedSize = 25

// EncodeMarkPrice serializes a mark price update into dst.
func EncodeMarkPrice(dst []byte, m model.MarkPriceUpdate) []byte {
	dst = grow(dst, markFixedSize+instrumentIDSize(m.InstrumentID))

	off := putPrice(dst, 0, m.Value)
	binary.LittleEndian.PutUint64(dst[off:off+8], uint64(m.TsEvent))
	binary.LittleEndian.PutUint64(dst[off+8:off+16], uint64(m.TsInit))
	putInstrumentID(dst, off+16, m.InstrumentID)

	return dst
}

// DecodeMarkPrice parses a payload produced by EncodeMarkPrice.
func DecodeMarkPrice(src []byte) (model.MarkPriceUpdate, bool) {
	if len(src) < markFixedSize {
		return model.MarkPriceUpdate{}, false
	}

	var m model.MarkPriceUpdate
	var off int
	m.Value, off = getPrice(src, 0)
	m.TsEvent = model.UnixNanos(binary.LittleEndian.Uint64(src[off : off+8]))
	m.TsInit = model.UnixNanos(binary.LittleEndian.Uint64(src[off+8 : off+16]))

	id, _, ok := getInstrumentID(src, off+16)
	if !ok {
		return model.MarkPriceUpdate{}, false
	}
	m.InstrumentID = id

	return m, true
}

// EncodeIndexPrice serializes an index price update into dst. The
// layout matches EncodeMarkPrice.
func EncodeIndexPrice(dst []byte, m model.IndexPriceUpdate) []byte {
	dst = grow(dst, markFixedSize+instrumentIDSize(m.InstrumentID))

	off := putPrice(dst, 0, m.Value)
	binary.LittleEndian.PutUint64(dst[off:off+8], uint64(m.TsEvent))
	binary.LittleEndian.PutUint64(dst[off+8:off+16], uint64(m.TsInit))
	putInstrumentID(dst, off+16, m.InstrumentID)

	return dst
}

// DecodeIndexPrice parses a payload produced by EncodeIndexPrice.
func DecodeIndexPrice(src []byte) (model.IndexPriceUpdate, bool) {
	if len(src) < markFixedSize {
		return model.IndexPriceUpdate{}, false
	}

	var m model.IndexPriceUpdate
	var off int
	m.Value, off = getPrice(src, 0)
	m.TsEvent = model.UnixNanos(binary.LittleEndian.Uint64(src[off : off+8]))
	m.TsInit = model.UnixNanos(binary.LittleEndian.Uint64(src[off+8 : off+16]))

	id, _, ok := getInstrumentID(src, off+16)
	if !ok {
		return model.IndexPriceUpdate{}, false
	}
	m.InstrumentID = id

	return m, true
}
