package enum

// BookType is the order book granularity.
type BookType uint8

const (
	BookTypeUnknown BookType = iota
	BookTypeL1MBP
	BookTypeL2MBP
	BookTypeL3MBO
)

func (b BookType) String() string {
	switch b {
	case BookTypeL1MBP:
		return "L1_MBP"
	case BookTypeL2MBP:
		return "L2_MBP"
	case BookTypeL3MBO:
		return "L3_MBO"
	default:
		return "UNKNOWN"
	}
}

// BookAction is the mutation carried by an order book delta.
type BookAction uint8

const (
	BookActionUnknown BookAction = iota
	BookActionAdd
	BookActionUpdate
	BookActionDelete
	BookActionClear
)

func (a BookAction) String() string {
	switch a {
	case BookActionAdd:
		return "ADD"
	case BookActionUpdate:
		return "UPDATE"
	case BookActionDelete:
		return "DELETE"
	case BookActionClear:
		return "CLEAR"
	default:
		return "UNKNOWN"
	}
}

// AggressorSide describes which side of a trade removed liquidity.
type AggressorSide uint8

const (
	AggressorSideNone AggressorSide = iota
	AggressorSideBuyer
	AggressorSideSeller
)

func (a AggressorSide) String() string {
	switch a {
	case AggressorSideBuyer:
		return "BUYER"
	case AggressorSideSeller:
		return "SELLER"
	default:
		return "NO_AGGRESSOR"
	}
}
