package enum

// OrderSide describes order direction.
type OrderSide uint8

const (
	OrderSideNone OrderSide = iota
	OrderSideBuy
	OrderSideSell
)

func (s OrderSide) String() string {
	switch s {
	case OrderSideBuy:
		return "BUY"
	case OrderSideSell:
		return "SELL"
	default:
		return "NO_ORDER_SIDE"
	}
}

// Opposite returns the other side of the book.
func (s OrderSide) Opposite() OrderSide {
	switch s {
	case OrderSideBuy:
		return OrderSideSell
	case OrderSideSell:
		return OrderSideBuy
	default:
		return OrderSideNone
	}
}

// OrderType describes the order variant.
type OrderType uint8

const (
	OrderTypeUnknown OrderType = iota
	OrderTypeMarket
	OrderTypeLimit
	OrderTypeStopMarket
	OrderTypeStopLimit
	OrderTypeMarketIfTouched
	OrderTypeLimitIfTouched
	OrderTypeMarketToLimit
	OrderTypeTrailingStopMarket
	OrderTypeTrailingStopLimit
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "MARKET"
	case OrderTypeLimit:
		return "LIMIT"
	case OrderTypeStopMarket:
		return "STOP_MARKET"
	case OrderTypeStopLimit:
		return "STOP_LIMIT"
	case OrderTypeMarketIfTouched:
		return "MARKET_IF_TOUCHED"
	case OrderTypeLimitIfTouched:
		return "LIMIT_IF_TOUCHED"
	case OrderTypeMarketToLimit:
		return "MARKET_TO_LIMIT"
	case OrderTypeTrailingStopMarket:
		return "TRAILING_STOP_MARKET"
	case OrderTypeTrailingStopLimit:
		return "TRAILING_STOP_LIMIT"
	default:
		return "UNKNOWN"
	}
}

// HasPrice reports whether the variant carries a limit price.
func (t OrderType) HasPrice() bool {
	switch t {
	case OrderTypeLimit, OrderTypeStopLimit, OrderTypeLimitIfTouched, OrderTypeTrailingStopLimit:
		return true
	default:
		return false
	}
}

// HasTrigger reports whether the variant carries a trigger price.
func (t OrderType) HasTrigger() bool {
	switch t {
	case OrderTypeStopMarket, OrderTypeStopLimit, OrderTypeMarketIfTouched,
		OrderTypeLimitIfTouched, OrderTypeTrailingStopMarket, OrderTypeTrailingStopLimit:
		return true
	default:
		return false
	}
}

// OrderStatus tracks the lifecycle of an order.
type OrderStatus uint8

const (
	OrderStatusInitialized OrderStatus = iota
	OrderStatusDenied
	OrderStatusEmulated
	OrderStatusReleased
	OrderStatusSubmitted
	OrderStatusAccepted
	OrderStatusRejected
	OrderStatusCanceled
	OrderStatusExpired
	OrderStatusTriggered
	OrderStatusPendingUpdate
	OrderStatusPendingCancel
	OrderStatusPartiallyFilled
	OrderStatusFilled
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusInitialized:
		return "INITIALIZED"
	case OrderStatusDenied:
		return "DENIED"
	case OrderStatusEmulated:
		return "EMULATED"
	case OrderStatusReleased:
		return "RELEASED"
	case OrderStatusSubmitted:
		return "SUBMITTED"
	case OrderStatusAccepted:
		return "ACCEPTED"
	case OrderStatusRejected:
		return "REJECTED"
	case OrderStatusCanceled:
		return "CANCELED"
	case OrderStatusExpired:
		return "EXPIRED"
	case OrderStatusTriggered:
		return "TRIGGERED"
	case OrderStatusPendingUpdate:
		return "PENDING_UPDATE"
	case OrderStatusPendingCancel:
		return "PENDING_CANCEL"
	case OrderStatusPartiallyFilled:
		return "PARTIALLY_FILLED"
	case OrderStatusFilled:
		return "FILLED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal reports whether no further transitions are expected.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusDenied, OrderStatusRejected, OrderStatusCanceled,
		OrderStatusExpired, OrderStatusFilled:
		return true
	default:
		return false
	}
}

// TimeInForce describes how long an order remains in force.
type TimeInForce uint8

const (
	TimeInForceUnknown TimeInForce = iota
	TimeInForceGTC
	TimeInForceGTD
	TimeInForceIOC
	TimeInForceFOK
	TimeInForceDay
	TimeInForceAtTheOpen
	TimeInForceAtTheClose
)

func (t TimeInForce) String() string {
	switch t {
	case TimeInForceGTC:
		return "GTC"
	case TimeInForceGTD:
		return "GTD"
	case TimeInForceIOC:
		return "IOC"
	case TimeInForceFOK:
		return "FOK"
	case TimeInForceDay:
		return "DAY"
	case TimeInForceAtTheOpen:
		return "AT_THE_OPEN"
	case TimeInForceAtTheClose:
		return "AT_THE_CLOSE"
	default:
		return "UNKNOWN"
	}
}

// TriggerType selects the reference price evaluating a conditional order.
type TriggerType uint8

const (
	TriggerTypeNone TriggerType = iota
	TriggerTypeDefault
	TriggerTypeLastPrice
	TriggerTypeBidAsk
	TriggerTypeDoubleLast
	TriggerTypeDoubleBidAsk
	TriggerTypeLastOrBidAsk
	TriggerTypeMidPoint
	TriggerTypeMarkPrice
	TriggerTypeIndexPrice
)

func (t TriggerType) String() string {
	switch t {
	case TriggerTypeDefault:
		return "DEFAULT"
	case TriggerTypeLastPrice:
		return "LAST_PRICE"
	case TriggerTypeBidAsk:
		return "BID_ASK"
	case TriggerTypeDoubleLast:
		return "DOUBLE_LAST"
	case TriggerTypeDoubleBidAsk:
		return "DOUBLE_BID_ASK"
	case TriggerTypeLastOrBidAsk:
		return "LAST_OR_BID_ASK"
	case TriggerTypeMidPoint:
		return "MID_POINT"
	case TriggerTypeMarkPrice:
		return "MARK_PRICE"
	case TriggerTypeIndexPrice:
		return "INDEX_PRICE"
	default:
		return "NO_TRIGGER"
	}
}

// ContingencyType describes linkage among orders in a list.
type ContingencyType uint8

const (
	ContingencyTypeNone ContingencyType = iota
	ContingencyTypeOCO
	ContingencyTypeOTO
	ContingencyTypeOUO
)

func (c ContingencyType) String() string {
	switch c {
	case ContingencyTypeOCO:
		return "OCO"
	case ContingencyTypeOTO:
		return "OTO"
	case ContingencyTypeOUO:
		return "OUO"
	default:
		return "NO_CONTINGENCY"
	}
}

// LiquiditySide describes whether a fill made or took liquidity.
type LiquiditySide uint8

const (
	LiquiditySideNone LiquiditySide = iota
	LiquiditySideMaker
	LiquiditySideTaker
)

func (l LiquiditySide) String() string {
	switch l {
	case LiquiditySideMaker:
		return "MAKER"
	case LiquiditySideTaker:
		return "TAKER"
	default:
		return "NO_LIQUIDITY_SIDE"
	}
}

// OmsType is the position assignment policy of a venue or strategy.
type OmsType uint8

const (
	OmsTypeUnspecified OmsType = iota
	OmsTypeNetting
	OmsTypeHedging
)

func (o OmsType) String() string {
	switch o {
	case OmsTypeNetting:
		return "NETTING"
	case OmsTypeHedging:
		return "HEDGING"
	default:
		return "UNSPECIFIED"
	}
}
