package enum

// AccountType distinguishes cash from margin accounts.
type AccountType uint8

const (
	AccountTypeUnknown AccountType = iota
	AccountTypeCash
	AccountTypeMargin
)

func (a AccountType) String() string {
	switch a {
	case AccountTypeCash:
		return "CASH"
	case AccountTypeMargin:
		return "MARGIN"
	default:
		return "UNKNOWN"
	}
}

// PositionSide is the current direction of a position.
type PositionSide uint8

const (
	PositionSideFlat PositionSide = iota
	PositionSideLong
	PositionSideShort
)

func (p PositionSide) String() string {
	switch p {
	case PositionSideLong:
		return "LONG"
	case PositionSideShort:
		return "SHORT"
	default:
		return "FLAT"
	}
}

// InstrumentKind tags the instrument variant.
type InstrumentKind uint8

const (
	InstrumentKindUnknown InstrumentKind = iota
	InstrumentKindCurrencyPair
	InstrumentKindCryptoPerpetual
	InstrumentKindCryptoFuture
	InstrumentKindEquity
	InstrumentKindFuturesContract
	InstrumentKindOptionsContract
)

func (k InstrumentKind) String() string {
	switch k {
	case InstrumentKindCurrencyPair:
		return "CURRENCY_PAIR"
	case InstrumentKindCryptoPerpetual:
		return "CRYPTO_PERPETUAL"
	case InstrumentKindCryptoFuture:
		return "CRYPTO_FUTURE"
	case InstrumentKindEquity:
		return "EQUITY"
	case InstrumentKindFuturesContract:
		return "FUTURES_CONTRACT"
	case InstrumentKindOptionsContract:
		return "OPTIONS_CONTRACT"
	default:
		return "UNKNOWN"
	}
}
