package model

import (
	"main/internal/errors"
)

// CurrencyKind distinguishes fiat from crypto currencies.
type CurrencyKind uint8

const (
	CurrencyKindFiat CurrencyKind = iota
	CurrencyKindCrypto
)

// Currency is an ISO-style currency code with a display precision.
type Currency struct {
	Code      string
	Precision uint8
	Kind      CurrencyKind
}

var currencyRegistry = map[string]Currency{}

// RegisterCurrency adds or replaces a currency in the process registry.
func RegisterCurrency(c Currency) {
	currencyRegistry[c.Code] = c
}

// CurrencyFromCode looks up a registered currency.
func CurrencyFromCode(code string) (Currency, error) {
	c, ok := currencyRegistry[code]
	if !ok {
		return Currency{}, errors.NotFoundf("currency not registered: %s", code)
	}
	return c, nil
}

func fiat(code string) Currency {
	c := Currency{Code: code, Precision: 2, Kind: CurrencyKindFiat}
	currencyRegistry[code] = c
	return c
}

func crypto(code string, precision uint8) Currency {
	c := Currency{Code: code, Precision: precision, Kind: CurrencyKindCrypto}
	currencyRegistry[code] = c
	return c
}

var (
	AUD = fiat("AUD")
	EUR = fiat("EUR")
	GBP = fiat("GBP")
	JPY = func() Currency {
		c := Currency{Code: "JPY", Precision: 0, Kind: CurrencyKindFiat}
		currencyRegistry[c.Code] = c
		return c
	}()
	USD = fiat("USD")

	BTC  = crypto("BTC", 8)
	ETH  = crypto("ETH", 8)
	USDC = crypto("USDC", 6)
	USDT = crypto("USDT", 6)
)

func (c Currency) String() string {
	return c.Code
}

func (c Currency) IsDefined() bool {
	return c.Code != ""
}
