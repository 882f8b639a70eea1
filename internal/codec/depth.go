package codec

import (
	"encoding/binary"

	"main/internal/model"
	"main/internal/model/enum"
)

// Depth10 payloads share one price and one size precision across all
// levels since every level belongs to the same instrument. Each level
// carries raw price, raw size, order id and count; bids come before asks.
const (
	depthLevelSize = 28
	depthFixedSize = 27 + 2*model.DepthLevels*depthLevelSize
)

// EncodeDepth10 serializes a ten-level book snapshot into dst.
func EncodeDepth10(dst []byte, d model.OrderBookDepth10) []byte {
	dst = grow(dst, depthFixedSize+instrumentIDSize(d.InstrumentID))

	dst[0] = d.Flags
	dst[1] = d.Bids[0].Price.Precision
	dst[2] = d.Bids[0].Size.Precision
	binary.LittleEndian.PutUint64(dst[3:11], d.Sequence)
	binary.LittleEndian.PutUint64(dst[11:19], uint64(d.TsEvent))
	binary.LittleEndian.PutUint64(dst[19:27], uint64(d.TsInit))

	off := 27
	for i := 0; i < model.DepthLevels; i++ {
		off = putDepthLevel(dst, off, d.Bids[i], d.BidCounts[i])
	}
	for i := 0; i < model.DepthLevels; i++ {
		off = putDepthLevel(dst, off, d.Asks[i], d.AskCounts[i])
	}
	putInstrumentID(dst, off, d.InstrumentID)

	return dst
}

// DecodeDepth10 parses a payload produced by EncodeDepth10.
func DecodeDepth10(src []byte) (model.OrderBookDepth10, bool) {
	if len(src) < depthFixedSize {
		return model.OrderBookDepth10{}, false
	}

	var d model.OrderBookDepth10
	d.Flags = src[0]
	pricePrecision := src[1]
	sizePrecision := src[2]
	d.Sequence = binary.LittleEndian.Uint64(src[3:11])
	d.TsEvent = model.UnixNanos(binary.LittleEndian.Uint64(src[11:19]))
	d.TsInit = model.UnixNanos(binary.LittleEndian.Uint64(src[19:27]))

	off := 27
	for i := 0; i < model.DepthLevels; i++ {
		d.Bids[i], d.BidCounts[i], off = getDepthLevel(src, off, enum.OrderSideBuy, pricePrecision, sizePrecision)
	}
	for i := 0; i < model.DepthLevels; i++ {
		d.Asks[i], d.AskCounts[i], off = getDepthLevel(src, off, enum.OrderSideSell, pricePrecision, sizePrecision)
	}

	id, _, ok := getInstrumentID(src, off)
	if !ok {
		return model.OrderBookDepth10{}, false
	}
	d.InstrumentID = id

	return d, true
}

func putDepthLevel(dst []byte, off int, order model.BookOrder, count uint32) int {
	binary.LittleEndian.PutUint64(dst[off:off+8], uint64(order.Price.Raw))
	binary.LittleEndian.PutUint64(dst[off+8:off+16], uint64(order.Size.Raw))
	binary.LittleEndian.PutUint64(dst[off+16:off+24], order.OrderID)
	binary.LittleEndian.PutUint32(dst[off+24:off+28], count)
	return off + depthLevelSize
}

func getDepthLevel(src []byte, off int, side enum.OrderSide, pricePrecision, sizePrecision uint8) (model.BookOrder, uint32, int) {
	order := model.BookOrder{
		Side:    side,
		Price:   model.PriceFromRaw(int64(binary.LittleEndian.Uint64(src[off:off+8])), pricePrecision),
		Size:    model.QuantityFromRaw(int64(binary.LittleEndian.Uint64(src[off+8:off+16])), sizePrecision),
		OrderID: binary.LittleEndian.Uint64(src[off+16 : off+24]),
	}
	count := binary.LittleEndian.Uint32(src[off+24 : off+28])
	return order, count, off + depthLevelSize
}
