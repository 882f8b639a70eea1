// Package ops loads the node configuration: a JSON file describing
// venues, instruments, matching behavior and risk limits, plus
// environment overrides for the knobs that change per deployment.
package ops

import (
	"encoding/json"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/yanun0323/decimal"

	"main/internal/errors"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/risk"
	"main/internal/venue"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	TraderID    string             `json:"traderId"`
	Venues      []VenueConfig      `json:"venues"`
	Instruments []InstrumentConfig `json:"instruments"`
	Risk        RiskConfig         `json:"risk"`
	Snapshots   SnapshotConfig     `json:"snapshots"`
}

// VenueConfig describes a venue entry.
type VenueConfig struct {
	Name             string          `json:"name"`
	OmsType          string          `json:"omsType"`
	AccountID        string          `json:"accountId"`
	AccountType      string          `json:"accountType"`
	StartingBalances []BalanceConfig `json:"startingBalances"`
	Matching         MatchingConfig  `json:"matching"`
}

// BalanceConfig is a starting balance entry. Amounts travel as decimal
// strings so config files never lose precision to float rounding.
type BalanceConfig struct {
	Currency string          `json:"currency"`
	Total    decimal.Decimal `json:"total"`
}

// MatchingConfig mirrors the simulated venue knobs.
type MatchingConfig struct {
	BarExecution            bool `json:"barExecution"`
	RejectStopOrders        bool `json:"rejectStopOrders"`
	SupportGTDOrders        bool `json:"supportGtdOrders"`
	SupportContingentOrders bool `json:"supportContingentOrders"`
	UsePositionIDs          bool `json:"usePositionIds"`
	UseRandomIDs            bool `json:"useRandomIds"`
	UseReduceOnly           bool `json:"useReduceOnly"`
}

// InstrumentConfig describes an instrument definition entry.
type InstrumentConfig struct {
	ID                 string  `json:"id"`
	Kind               string  `json:"kind"`
	BaseCurrency       string  `json:"baseCurrency"`
	QuoteCurrency      string  `json:"quoteCurrency"`
	SettlementCurrency string  `json:"settlementCurrency"`
	IsInverse          bool    `json:"isInverse"`
	PricePrecision     uint8   `json:"pricePrecision"`
	SizePrecision      uint8   `json:"sizePrecision"`
	PriceIncrement     decimal.Decimal `json:"priceIncrement"`
	SizeIncrement      decimal.Decimal `json:"sizeIncrement"`
	Multiplier         decimal.Decimal `json:"multiplier"`
	LotSize            decimal.Decimal `json:"lotSize"`
	MakerFee           float64         `json:"makerFee"`
	TakerFee           float64         `json:"takerFee"`
}

// RiskConfig mirrors the risk limits in JSON-friendly form. Zero
// values leave the corresponding check disabled.
type RiskConfig struct {
	KillSwitch           bool            `json:"killSwitch"`
	MaxOrderQty          decimal.Decimal `json:"maxOrderQty"`
	MaxOrderNotional     float64         `json:"maxOrderNotional"`
	MaxPosition          decimal.Decimal `json:"maxPosition"`
	OrderRateLimit       int             `json:"orderRateLimit"`
	OrderRateWindowMs    int64           `json:"orderRateWindowMs"`
	MaxPriceDeviationBps int64           `json:"maxPriceDeviationBps"`
}

// SnapshotConfig toggles journaling of aggregate state streams.
type SnapshotConfig struct {
	Orders    bool `json:"orders"`
	Positions bool `json:"positions"`
}

// EnvConfig carries the per-deployment overrides. A .env file is
// loaded first when present.
type EnvConfig struct {
	ConfigPath    string `env:"CONFIG_PATH" envDefault:"config.json"`
	KillSwitch    bool   `env:"RISK_KILL_SWITCH" envDefault:"false"`
	PostgresHost  string `env:"PG_HOST"`
	PostgresPort  int    `env:"PG_PORT" envDefault:"5432"`
	PostgresUser  string `env:"PG_USER"`
	PostgresPass  string `env:"PG_PASSWORD"`
	PostgresDB    string `env:"PG_DATABASE"`
	PyroscopeAddr string `env:"PYROSCOPE_ADDR"`
}

// VenueSpec is a resolved venue entry.
type VenueSpec struct {
	Venue            model.Venue
	OmsType          enum.OmsType
	AccountID        model.AccountID
	AccountType      enum.AccountType
	StartingBalances []model.Money
	Matching         venue.Config
}

// Loaded is the resolved configuration ready for wiring.
type Loaded struct {
	TraderID    model.TraderID
	Venues      []VenueSpec
	Instruments []model.Instrument
	Risk        risk.Config
	Snapshots   SnapshotConfig
	Env         EnvConfig
}

// Load reads the environment, then the JSON file it points at, and
// resolves both into typed configuration.
func Load() (Loaded, error) {
	envCfg, err := ParseEnv()
	if err != nil {
		return Loaded{}, err
	}
	return LoadFile(envCfg.ConfigPath, envCfg)
}

// ParseEnv loads a .env file when present and parses the environment
// overrides.
func ParseEnv() (EnvConfig, error) {
	_ = godotenv.Load()

	var envCfg EnvConfig
	if err := env.Parse(&envCfg); err != nil {
		return EnvConfig{}, errors.Wrap(err, "parse environment")
	}
	return envCfg, nil
}

// LoadFile reads a JSON config file and applies the given overrides.
func LoadFile(path string, envCfg EnvConfig) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, errors.Wrapf(err, "read config %s", path)
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, errors.Wrapf(err, "parse config %s", path)
	}

	loaded := Loaded{
		TraderID:  model.TraderID(cfg.TraderID),
		Snapshots: cfg.Snapshots,
		Env:       envCfg,
	}
	if loaded.TraderID == "" {
		return Loaded{}, errors.Validation("config requires a trader id")
	}

	for _, ic := range cfg.Instruments {
		instrument, err := resolveInstrument(ic)
		if err != nil {
			return Loaded{}, err
		}
		loaded.Instruments = append(loaded.Instruments, instrument)
	}

	for _, vc := range cfg.Venues {
		spec, err := resolveVenue(vc)
		if err != nil {
			return Loaded{}, err
		}
		loaded.Venues = append(loaded.Venues, spec)
	}

	loaded.Risk, err = resolveRisk(cfg.Risk)
	if err != nil {
		return Loaded{}, err
	}
	if envCfg.KillSwitch {
		loaded.Risk.KillSwitch = true
	}

	return loaded, nil
}

func resolveInstrument(cfg InstrumentConfig) (model.Instrument, error) {
	id, err := model.ParseInstrumentID(cfg.ID)
	if err != nil {
		return model.Instrument{}, err
	}

	kind, err := parseInstrumentKind(cfg.Kind)
	if err != nil {
		return model.Instrument{}, errors.Wrapf(err, "instrument %s", cfg.ID)
	}

	base, err := model.CurrencyFromCode(cfg.BaseCurrency)
	if err != nil {
		return model.Instrument{}, errors.Wrapf(err, "instrument %s base", cfg.ID)
	}
	quote, err := model.CurrencyFromCode(cfg.QuoteCurrency)
	if err != nil {
		return model.Instrument{}, errors.Wrapf(err, "instrument %s quote", cfg.ID)
	}
	settlement := quote
	if cfg.SettlementCurrency != "" {
		settlement, err = model.CurrencyFromCode(cfg.SettlementCurrency)
		if err != nil {
			return model.Instrument{}, errors.Wrapf(err, "instrument %s settlement", cfg.ID)
		}
	}

	priceInc, err := parsePriceAt(cfg.PriceIncrement, cfg.PricePrecision)
	if err != nil {
		return model.Instrument{}, errors.Wrapf(err, "instrument %s price increment", cfg.ID)
	}
	sizeInc, err := parseQuantityAt(cfg.SizeIncrement, cfg.SizePrecision)
	if err != nil {
		return model.Instrument{}, errors.Wrapf(err, "instrument %s size increment", cfg.ID)
	}

	multiplier := sizeInc
	if cfg.Multiplier != "" {
		multiplier, err = parseQuantityAt(cfg.Multiplier, cfg.SizePrecision)
		if err != nil {
			return model.Instrument{}, errors.Wrapf(err, "instrument %s multiplier", cfg.ID)
		}
	}
	lotSize := sizeInc
	if cfg.LotSize != "" {
		lotSize, err = parseQuantityAt(cfg.LotSize, cfg.SizePrecision)
		if err != nil {
			return model.Instrument{}, errors.Wrapf(err, "instrument %s lot size", cfg.ID)
		}
	}

	instrument := model.Instrument{
		ID:                 id,
		RawSymbol:          id.Symbol,
		Kind:               kind,
		BaseCurrency:       base,
		QuoteCurrency:      quote,
		SettlementCurrency: settlement,
		IsInverse:          cfg.IsInverse,
		PricePrecision:     cfg.PricePrecision,
		SizePrecision:      cfg.SizePrecision,
		PriceIncrement:     priceInc,
		SizeIncrement:      sizeInc,
		Multiplier:         multiplier,
		LotSize:            lotSize,
		MakerFee:           cfg.MakerFee,
		TakerFee:           cfg.TakerFee,
	}
	if err := instrument.Validate(); err != nil {
		return model.Instrument{}, errors.Wrapf(err, "instrument %s", cfg.ID)
	}
	return instrument, nil
}

func resolveVenue(cfg VenueConfig) (VenueSpec, error) {
	if cfg.Name == "" {
		return VenueSpec{}, errors.Validation("venue requires a name")
	}

	omsType := enum.OmsTypeNetting
	switch cfg.OmsType {
	case "", "NETTING":
	case "HEDGING":
		omsType = enum.OmsTypeHedging
	default:
		return VenueSpec{}, errors.Validationf("unknown oms type %q for venue %s", cfg.OmsType, cfg.Name)
	}

	accountType := enum.AccountTypeMargin
	switch cfg.AccountType {
	case "", "MARGIN":
	case "CASH":
		accountType = enum.AccountTypeCash
	default:
		return VenueSpec{}, errors.Validationf("unknown account type %q for venue %s", cfg.AccountType, cfg.Name)
	}

	accountID := model.AccountID(cfg.AccountID)
	if accountID == "" {
		accountID = model.AccountID(cfg.Name + "-001")
	}

	spec := VenueSpec{
		Venue:       model.Venue(cfg.Name),
		OmsType:     omsType,
		AccountID:   accountID,
		AccountType: accountType,
		Matching: venue.Config{
			BarExecution:            cfg.Matching.BarExecution,
			RejectStopOrders:        cfg.Matching.RejectStopOrders,
			SupportGTDOrders:        cfg.Matching.SupportGTDOrders,
			SupportContingentOrders: cfg.Matching.SupportContingentOrders,
			UsePositionIDs:          cfg.Matching.UsePositionIDs,
			UseRandomIDs:            cfg.Matching.UseRandomIDs,
			UseReduceOnly:           cfg.Matching.UseReduceOnly,
		},
	}

	for _, bc := range cfg.StartingBalances {
		currency, err := model.CurrencyFromCode(bc.Currency)
		if err != nil {
			return VenueSpec{}, errors.Wrapf(err, "venue %s balance", cfg.Name)
		}
		amount, err := parseMoney(bc.Total, currency)
		if err != nil {
			return VenueSpec{}, errors.Wrapf(err, "venue %s balance", cfg.Name)
		}
		spec.StartingBalances = append(spec.StartingBalances, amount)
	}
	if len(spec.StartingBalances) == 0 {
		return VenueSpec{}, errors.Validationf("venue %s has no starting balances", cfg.Name)
	}

	return spec, nil
}

func resolveRisk(cfg RiskConfig) (risk.Config, error) {
	out := risk.Config{
		KillSwitch:           cfg.KillSwitch,
		MaxOrderNotional:     cfg.MaxOrderNotional,
		OrderRateLimit:       cfg.OrderRateLimit,
		OrderRateWindow:      time.Duration(cfg.OrderRateWindowMs) * time.Millisecond,
		MaxPriceDeviationBps: cfg.MaxPriceDeviationBps,
	}

	var err error
	if cfg.MaxOrderQty != "" {
		out.MaxOrderQty, err = parseQuantityAt(cfg.MaxOrderQty, model.FixedPrecisionMax)
		if err != nil {
			return risk.Config{}, errors.Wrap(err, "risk max order qty")
		}
	}
	if cfg.MaxPosition != "" {
		out.MaxPosition, err = parseQuantityAt(cfg.MaxPosition, model.FixedPrecisionMax)
		if err != nil {
			return risk.Config{}, errors.Wrap(err, "risk max position")
		}
	}
	return out, nil
}

func parseInstrumentKind(value string) (enum.InstrumentKind, error) {
	switch value {
	case "", "CURRENCY_PAIR":
		return enum.InstrumentKindCurrencyPair, nil
	case "CRYPTO_PERPETUAL":
		return enum.InstrumentKindCryptoPerpetual, nil
	case "CRYPTO_FUTURE":
		return enum.InstrumentKindCryptoFuture, nil
	case "EQUITY":
		return enum.InstrumentKindEquity, nil
	case "FUTURES_CONTRACT":
		return enum.InstrumentKindFuturesContract, nil
	case "OPTIONS_CONTRACT":
		return enum.InstrumentKindOptionsContract, nil
	default:
		return enum.InstrumentKindUnknown, errors.Validationf("unknown instrument kind %q", value)
	}
}

func parsePriceAt(d decimal.Decimal, precision uint8) (model.Price, error) {
	p, err := model.ParsePrice(string(d))
	if err != nil {
		return model.Price{}, err
	}
	return p.Rescale(precision)
}

func parseQuantityAt(d decimal.Decimal, precision uint8) (model.Quantity, error) {
	q, err := model.ParseQuantity(string(d))
	if err != nil {
		return model.Quantity{}, err
	}
	return q.Rescale(precision)
}

func parseMoney(d decimal.Decimal, currency model.Currency) (model.Money, error) {
	p, err := model.ParsePrice(string(d))
	if err != nil {
		return model.Money{}, err
	}
	p, err = p.Rescale(currency.Precision)
	if err != nil {
		return model.Money{}, err
	}
	return model.MoneyFromRaw(p.Raw, currency), nil
}
