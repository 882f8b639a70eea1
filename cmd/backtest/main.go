// Command backtest replays a deterministic synthetic feed through the
// full node: data engine, risk engine, execution engine, and one
// simulated matching engine per configured instrument. The same seed
// always produces the same fills and the same final balances.
package main

import (
	"flag"
	"fmt"
	"log"
	"sort"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"

	"main/internal/account"
	"main/internal/bus"
	"main/internal/cache"
	"main/internal/clock"
	"main/internal/component"
	"main/internal/data"
	"main/internal/exec"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/order"
	"main/internal/risk"
	"main/internal/runner"
	"main/internal/store"
	"main/internal/venue"
	"main/pkg/conn"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config (default: built-in simulation setup)")
	quoteCount := flag.Int("quotes", 20000, "Synthetic quotes per instrument")
	seed := flag.Int64("seed", 42, "Seed for the synthetic feed and id generation")
	journalKind := flag.String("journal", "memory", "Event journal backend (off|memory|postgres)")
	tradeSize := flag.Float64("trade-size", 10, "Strategy order size in base units")
	pyroscopeAddr := flag.String("pyroscope", "", "Pyroscope server address (default: PYROSCOPE_ADDR)")
	flag.Parse()

	loaded, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	addr := *pyroscopeAddr
	if addr == "" {
		addr = loaded.Env.PyroscopeAddr
	}
	if addr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "backtest",
			ServerAddress:   addr,
			Tags: map[string]string{
				"trader": string(loaded.TraderID),
			},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	journal, err := openJournal(*journalKind, loaded.Env)
	if err != nil {
		log.Fatalf("journal open failed: %v", err)
	}
	if journal != nil {
		defer func() {
			_ = journal.Close()
		}()
	}

	if err := run(loaded, journal, *quoteCount, *seed, *tradeSize); err != nil {
		log.Fatalf("backtest failed: %v", err)
	}
}

func loadConfig(path string) (ops.Loaded, error) {
	if path == "" {
		return defaultLoaded()
	}
	envCfg, err := ops.ParseEnv()
	if err != nil {
		return ops.Loaded{}, err
	}
	return ops.LoadFile(path, envCfg)
}

// defaultLoaded is the zero-setup simulation: one cash venue, one
// currency pair, and permissive risk limits.
func defaultLoaded() (ops.Loaded, error) {
	inst := model.Instrument{
		ID:                 model.NewInstrumentID("ETHUSDT", "SIM"),
		RawSymbol:          "ETHUSDT",
		Kind:               enum.InstrumentKindCurrencyPair,
		BaseCurrency:       model.ETH,
		QuoteCurrency:      model.USDT,
		SettlementCurrency: model.USDT,
		PricePrecision:     2,
		SizePrecision:      3,
		PriceIncrement:     model.PriceFromRaw(1, 2),
		SizeIncrement:      model.QuantityFromRaw(1, 3),
		Multiplier:         model.QuantityFromRaw(1, 3),
		LotSize:            model.QuantityFromRaw(1, 3),
		MakerFee:           0.0002,
		TakerFee:           0.0004,
	}
	if err := inst.Validate(); err != nil {
		return ops.Loaded{}, err
	}

	maxOrderQty, err := model.NewQuantity(1_000, model.FixedPrecisionMax)
	if err != nil {
		return ops.Loaded{}, err
	}
	maxPosition, err := model.NewQuantity(10_000, model.FixedPrecisionMax)
	if err != nil {
		return ops.Loaded{}, err
	}

	return ops.Loaded{
		TraderID: "BACKTESTER-001",
		Venues: []ops.VenueSpec{{
			Venue:            "SIM",
			OmsType:          enum.OmsTypeNetting,
			AccountID:        "SIM-001",
			AccountType:      enum.AccountTypeCash,
			StartingBalances: []model.Money{model.MoneyFromRaw(100_000_000_000, model.USDT)},
			Matching: venue.Config{
				SupportGTDOrders:        true,
				SupportContingentOrders: true,
			},
		}},
		Instruments: []model.Instrument{inst},
		Risk: risk.Config{
			MaxOrderQty: maxOrderQty,
			MaxPosition: maxPosition,
		},
		Snapshots: ops.SnapshotConfig{Orders: true, Positions: true},
	}, nil
}

func openJournal(kind string, envCfg ops.EnvConfig) (store.Store, error) {
	switch kind {
	case "off":
		return nil, nil
	case "memory":
		return store.NewMemory(), nil
	case "postgres":
		pg, err := store.NewPostgres(conn.Option{
			Host:     envCfg.PostgresHost,
			Port:     envCfg.PostgresPort,
			User:     envCfg.PostgresUser,
			Password: envCfg.PostgresPass,
			Database: envCfg.PostgresDB,
		})
		if err != nil {
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown journal backend %q", kind)
	}
}

// meteredExecutor counts commands on their way into the risk engine.
type meteredExecutor struct {
	next    *risk.Engine
	metrics *obs.Metrics
}

func (m *meteredExecutor) Execute(cmd exec.Command) error {
	m.metrics.ObserveCommand(cmd)
	return m.next.Execute(cmd)
}

func run(loaded ops.Loaded, journal store.Store, quoteCount int, seed int64, tradeSize float64) error {
	clk := clock.NewTest(uint64(seed))
	ids := model.NewIDGenerator(uint64(seed))
	msgbus := bus.New("backtest")
	c := cache.New()

	dataEngine, err := data.NewEngine(msgbus, c, clk, ids)
	if err != nil {
		return err
	}
	execEngine, err := exec.NewEngine(exec.Config{
		SnapshotOrders:    loaded.Snapshots.Orders,
		SnapshotPositions: loaded.Snapshots.Positions,
	}, msgbus, c, clk, ids)
	if err != nil {
		return err
	}
	if journal != nil {
		execEngine.SetJournal(journal)
	}
	riskEngine, err := risk.NewEngine(loaded.Risk, execEngine, msgbus, c, clk, ids)
	if err != nil {
		return err
	}

	for _, inst := range loaded.Instruments {
		if err := c.AddInstrument(inst); err != nil {
			return err
		}
	}

	emit := func(ev order.Event) {
		if err := execEngine.ProcessEvent(ev); err != nil {
			logs.Errorf("venue event %s dropped: %v", ev.Type, err)
		}
	}

	books := make(map[model.InstrumentID]*venue.Engine)
	for _, spec := range loaded.Venues {
		acct, err := startingAccount(spec, clk, ids)
		if err != nil {
			return err
		}
		if err := c.AddAccount(acct, spec.Venue); err != nil {
			return err
		}

		client := venue.NewExecClient(model.ClientID(string(spec.Venue)+"-EXEC"), spec.Venue, spec.AccountID)
		for _, inst := range loaded.Instruments {
			if inst.ID.Venue != spec.Venue {
				continue
			}
			eng, err := venue.NewEngine(inst, spec.Matching, spec.AccountID, clk, ids, emit)
			if err != nil {
				return err
			}
			if err := client.AddEngine(eng); err != nil {
				return err
			}
			books[inst.ID] = eng
		}
		if err := execEngine.RegisterClient(client); err != nil {
			return err
		}
		execEngine.SetOmsType(spec.Venue, spec.OmsType)

		if err := dataEngine.RegisterClient(&replayDataClient{
			id:    model.ClientID(string(spec.Venue) + "-DATA"),
			venue: spec.Venue,
		}); err != nil {
			return err
		}
	}

	metrics := obs.NewMetrics()
	err = msgbus.Subscribe("events.order.*", bus.NewHandler("metrics-orders", func(msg any) {
		if ev, ok := msg.(order.Event); ok {
			metrics.ObserveOrderEvent(ev)
		}
	}), 0)
	if err != nil {
		return err
	}

	if len(loaded.Instruments) == 0 {
		return fmt.Errorf("no instruments configured")
	}
	inst := loaded.Instruments[0]
	size, err := model.NewQuantity(tradeSize, inst.SizePrecision)
	if err != nil {
		return err
	}
	executor := &meteredExecutor{next: riskEngine, metrics: metrics}
	strat, err := newMakerStrategy(loaded.TraderID, "S-001", inst, size, executor, msgbus, clk, ids)
	if err != nil {
		return err
	}

	registry := component.NewRegistry()
	if err := registry.Register(dataEngine.Component()); err != nil {
		return err
	}
	if err := registry.Register(execEngine.Component()); err != nil {
		return err
	}

	handle := func(payload any) error {
		switch v := payload.(type) {
		case exec.Command:
			return executor.Execute(v)
		case model.QuoteTick:
			if eng, ok := books[v.InstrumentID]; ok {
				if err := eng.ProcessQuoteTick(v); err != nil {
					return err
				}
			}
			return dataEngine.Process(v)
		case model.TradeTick:
			if eng, ok := books[v.InstrumentID]; ok {
				if err := eng.ProcessTradeTick(v); err != nil {
					return err
				}
			}
			return dataEngine.Process(v)
		case model.Bar:
			if eng, ok := books[v.Type.InstrumentID]; ok {
				if err := eng.ProcessBar(v); err != nil {
					return err
				}
			}
			return dataEngine.Process(v)
		case model.OrderBookDelta:
			if eng, ok := books[v.InstrumentID]; ok {
				if err := eng.ProcessOrderBookDelta(v); err != nil {
					return err
				}
			}
			return dataEngine.Process(v)
		default:
			return dataEngine.Process(payload)
		}
	}

	bt, err := runner.NewBacktest(clk, registry, handle)
	if err != nil {
		return err
	}
	if err := bt.Run(buildFeed(loaded.Instruments, quoteCount, seed)); err != nil {
		return err
	}

	report(loaded, c, bt, metrics, strat, journal)
	return nil
}

func startingAccount(spec ops.VenueSpec, clk clock.Clock, ids *model.IDGenerator) (*account.Account, error) {
	ts := clk.TimestampNs()
	balances := make([]account.Balance, 0, len(spec.StartingBalances))
	for _, total := range spec.StartingBalances {
		b, err := account.NewBalance(total, model.MoneyFromRaw(0, total.Currency), total)
		if err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return account.New(account.State{
		AccountID:   spec.AccountID,
		AccountType: spec.AccountType,
		Balances:    balances,
		IsReported:  true,
		EventID:     ids.Next(ts),
		TsEvent:     ts,
		TsInit:      ts,
	})
}

// buildFeed merges the per-instrument synthetic streams into one
// timestamp-ordered stream.
func buildFeed(instruments []model.Instrument, count int, seed int64) []runner.TimedEvent {
	start := model.UnixNanos(1_000_000_000)
	var events []runner.TimedEvent
	for i, inst := range instruments {
		events = append(events, syntheticQuotes(inst, start, count, seed+int64(i))...)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Ts < events[j].Ts })
	return events
}

func report(loaded ops.Loaded, c *cache.Cache, bt *runner.Backtest, metrics *obs.Metrics, strat *makerStrategy, journal store.Store) {
	snap := metrics.Snapshot()

	fmt.Printf("processed %d events\n", bt.Processed())
	fmt.Printf("orders submitted %d, fills %d, denials %d\n",
		snap.CommandCounts[exec.CommandSubmitOrder], snap.Fills, snap.Denials)
	fmt.Printf("strategy %s: %d orders submitted, %d fill events\n", strat.strategyID, strat.submitted, strat.fills)
	if snap.EventLatency.Count > 0 {
		fmt.Printf("event latency avg %dns (min %dns, max %dns)\n",
			snap.EventLatency.Avg, snap.EventLatency.Min, snap.EventLatency.Max)
	}

	for _, spec := range loaded.Venues {
		acct, err := c.AccountForVenue(spec.Venue)
		if err != nil {
			logs.Errorf("account lookup for %s: %v", spec.Venue, err)
			continue
		}
		for _, b := range acct.Balances() {
			fmt.Printf("%s %s: total %s, free %s, locked %s\n",
				spec.Venue, acct.ID, b.Total, b.Free, b.Locked)
		}
	}

	open := c.PositionsOpen(cache.PositionFilter{})
	closed := c.PositionsClosed(cache.PositionFilter{})
	fmt.Printf("positions: %d open, %d closed\n", len(open), len(closed))

	if journal != nil {
		orderIDs, err := journal.OrderIDs()
		if err != nil {
			logs.Errorf("journal order listing: %v", err)
			return
		}
		positionIDs, err := journal.PositionIDs()
		if err != nil {
			logs.Errorf("journal position listing: %v", err)
			return
		}
		fmt.Printf("journal: %d orders, %d positions recorded\n", len(orderIDs), len(positionIDs))
	}
}
