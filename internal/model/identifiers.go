package model

import (
	"strings"

	"main/internal/errors"
)

// Short string identifiers compared by value.
type (
	Symbol        string
	Venue         string
	TraderID      string
	StrategyID    string
	ClientID      string
	ClientOrderID string
	VenueOrderID  string
	PositionID    string
	AccountID     string
	TradeID       string
	ComponentID   string
	OrderListID   string
)

func checkIdentifier(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return errors.Validationf("%s must not be empty", name)
	}
	return nil
}

func NewSymbol(value string) (Symbol, error) {
	if err := checkIdentifier(value, "symbol"); err != nil {
		return "", err
	}
	return Symbol(value), nil
}

func NewVenue(value string) (Venue, error) {
	if err := checkIdentifier(value, "venue"); err != nil {
		return "", err
	}
	return Venue(value), nil
}

func NewClientOrderID(value string) (ClientOrderID, error) {
	if err := checkIdentifier(value, "client order id"); err != nil {
		return "", err
	}
	return ClientOrderID(value), nil
}

func NewAccountID(value string) (AccountID, error) {
	if err := checkIdentifier(value, "account id"); err != nil {
		return "", err
	}
	return AccountID(value), nil
}

// InstrumentID is a symbol qualified by its venue, formatted
// "<symbol>.<venue>".
type InstrumentID struct {
	Symbol Symbol
	Venue  Venue
}

func NewInstrumentID(symbol Symbol, venue Venue) InstrumentID {
	return InstrumentID{Symbol: symbol, Venue: venue}
}

// ParseInstrumentID splits on the last dot so symbols may carry dots.
func ParseInstrumentID(value string) (InstrumentID, error) {
	idx := strings.LastIndexByte(value, '.')
	if idx <= 0 || idx == len(value)-1 {
		return InstrumentID{}, errors.Validationf("invalid instrument id %q, expected <symbol>.<venue>", value)
	}
	return InstrumentID{
		Symbol: Symbol(value[:idx]),
		Venue:  Venue(value[idx+1:]),
	}, nil
}

func (id InstrumentID) String() string {
	return string(id.Symbol) + "." + string(id.Venue)
}

func (id InstrumentID) IsDefined() bool {
	return id.Symbol != "" && id.Venue != ""
}
