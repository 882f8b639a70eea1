package data

import (
	"main/internal/errors"
	"main/internal/model"
	"main/internal/model/enum"
)

// ErrUnsupported is returned by clients for subscription or request
// variants their venue has no native feed for. The engine synthesizes
// the stream instead where it can.
var ErrUnsupported = errors.New("data client does not support this variant")

// SubscriptionType enumerates the subscribable streams.
type SubscriptionType uint8

const (
	SubscribeUnknown SubscriptionType = iota
	SubscribeInstruments
	SubscribeInstrument
	SubscribeBookDeltas
	SubscribeBookSnapshots
	SubscribeBookDepth10
	SubscribeQuotes
	SubscribeTrades
	SubscribeBars
	SubscribeMarkPrices
	SubscribeIndexPrices
	SubscribeInstrumentStatus
	SubscribeInstrumentClose
	SubscribeCustom
)

func (s SubscriptionType) String() string {
	switch s {
	case SubscribeInstruments:
		return "Instruments"
	case SubscribeInstrument:
		return "Instrument"
	case SubscribeBookDeltas:
		return "BookDeltas"
	case SubscribeBookSnapshots:
		return "BookSnapshots"
	case SubscribeBookDepth10:
		return "BookDepth10"
	case SubscribeQuotes:
		return "Quotes"
	case SubscribeTrades:
		return "Trades"
	case SubscribeBars:
		return "Bars"
	case SubscribeMarkPrices:
		return "MarkPrices"
	case SubscribeIndexPrices:
		return "IndexPrices"
	case SubscribeInstrumentStatus:
		return "InstrumentStatus"
	case SubscribeInstrumentClose:
		return "InstrumentClose"
	case SubscribeCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// SubscribeCommand requests a data stream. ClientID routes explicitly;
// otherwise the venue of the instrument decides the client.
type SubscribeCommand struct {
	Type         SubscriptionType
	ClientID     model.ClientID
	Venue        model.Venue
	InstrumentID model.InstrumentID
	BarType      model.BarType
	BookType     enum.BookType
	Managed      bool
	DataType     string
}

// key canonicalizes the command for idempotency checks.
func (c SubscribeCommand) key() string {
	k := c.Type.String() + "|" + string(c.Venue) + "|" + c.InstrumentID.String() + "|" + c.DataType
	if c.Type == SubscribeBars {
		k += "|" + c.BarType.String()
	}
	return k
}

// RequestType enumerates the one-shot historical requests.
type RequestType uint8

const (
	RequestUnknown RequestType = iota
	RequestInstruments
	RequestBars
	RequestQuotes
	RequestTrades
	RequestBookSnapshot
	RequestCustom
)

func (r RequestType) String() string {
	switch r {
	case RequestInstruments:
		return "Instruments"
	case RequestBars:
		return "Bars"
	case RequestQuotes:
		return "Quotes"
	case RequestTrades:
		return "Trades"
	case RequestBookSnapshot:
		return "BookSnapshot"
	case RequestCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// RequestCommand asks a client for historical or snapshot data. The
// correlation id is assigned by the engine.
type RequestCommand struct {
	Type          RequestType
	CorrelationID model.EventID
	ClientID      model.ClientID
	Venue         model.Venue
	InstrumentID  model.InstrumentID
	BarType       model.BarType
	Start         model.UnixNanos
	End           model.UnixNanos
	Limit         int
	DataType      string
}

// Response answers a RequestCommand. Err is set when the client failed;
// Data carries the payload otherwise.
type Response struct {
	CorrelationID model.EventID
	Type          RequestType
	Data          any
	Err           error
	TsEvent       model.UnixNanos
}

// ResponseHandler receives the one-shot response for a request.
type ResponseHandler func(Response)

// Client is the venue data adapter consumed by the engine. Subscribe and
// Request return synchronously; stream data and responses arrive later
// through the runner queue.
type Client interface {
	ID() model.ClientID
	Venue() model.Venue

	Connect() error
	Disconnect() error
	IsConnected() bool

	Subscribe(cmd SubscribeCommand) error
	Unsubscribe(cmd SubscribeCommand) error
	Request(req RequestCommand) error
}
