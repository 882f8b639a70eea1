// Package codec provides fixed-layout binary encoders and decoders for
// market data records. Every payload starts with a fixed numeric section
// written at known offsets, followed by length-prefixed identifier strings.
// All integers are little endian. Prices and quantities travel as raw
// scaled int64 values with their precision byte, so a decoded value is
// bit-identical to the encoded one.
package codec

import (
	"encoding/binary"

	"main/internal/model"
)

func grow(dst []byte, size int) []byte {
	if cap(dst) < size {
		return make([]byte, size)
	}
	return dst[:size]
}

func stringSize(s string) int {
	return 2 + len(s)
}

// putString writes a uint16 length prefix and the bytes at off,
// returning the offset past the string.
func putString(dst []byte, off int, s string) int {
	binary.LittleEndian.PutUint16(dst[off:off+2], uint16(len(s)))
	off += 2
	copy(dst[off:off+len(s)], s)
	return off + len(s)
}

func getString(src []byte, off int) (string, int, bool) {
	if len(src) < off+2 {
		return "", 0, false
	}
	n := int(binary.LittleEndian.Uint16(src[off : off+2]))
	off += 2
	if len(src) < off+n {
		return "", 0, false
	}
	return string(src[off : off+n]), off + n, true
}

func instrumentIDSize(id model.InstrumentID) int {
	return stringSize(string(id.Symbol)) + stringSize(string(id.Venue))
}

func putInstrumentID(dst []byte, off int, id model.InstrumentID) int {
	off = putString(dst, off, string(id.Symbol))
	return putString(dst, off, string(id.Venue))
}

func getInstrumentID(src []byte, off int) (model.InstrumentID, int, bool) {
	symbol, off, ok := getString(src, off)
	if !ok {
		return model.InstrumentID{}, 0, false
	}
	venue, off, ok := getString(src, off)
	if !ok {
		return model.InstrumentID{}, 0, false
	}
	return model.InstrumentID{Symbol: model.Symbol(symbol), Venue: model.Venue(venue)}, off, true
}

func putPrice(dst []byte, off int, p model.Price) int {
	dst[off] = p.Precision
	binary.LittleEndian.PutUint64(dst[off+1:off+9], uint64(p.Raw))
	return off + 9
}

func getPrice(src []byte, off int) (model.Price, int) {
	precision := src[off]
	raw := int64(binary.LittleEndian.Uint64(src[off+1 : off+9]))
	return model.PriceFromRaw(raw, precision), off + 9
}

func putQuantity(dst []byte, off int, q model.Quantity) int {
	dst[off] = q.Precision
	binary.LittleEndian.PutUint64(dst[off+1:off+9], uint64(q.Raw))
	return off + 9
}

func getQuantity(src []byte, off int) (model.Quantity, int) {
	precision := src[off]
	raw := int64(binary.LittleEndian.Uint64(src[off+1 : off+9]))
	return model.QuantityFromRaw(raw, precision), off + 9
}
