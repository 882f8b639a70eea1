package venue

import (
	"sort"

	"main/internal/errors"
	"main/internal/exec"
	"main/internal/model"
	"main/internal/model/enum"
)

// ExecClient adapts a set of per-instrument matching engines to the
// execution client interface, routing each command to the engine for
// its instrument.
type ExecClient struct {
	id        model.ClientID
	venue     model.Venue
	accountID model.AccountID
	engines   map[model.InstrumentID]*Engine
	connected bool
}

var _ exec.Client = (*ExecClient)(nil)

func NewExecClient(id model.ClientID, v model.Venue, accountID model.AccountID) *ExecClient {
	return &ExecClient{
		id:        id,
		venue:     v,
		accountID: accountID,
		engines:   make(map[model.InstrumentID]*Engine),
	}
}

// AddEngine registers the matching engine for one instrument.
func (c *ExecClient) AddEngine(e *Engine) error {
	id := e.Instrument().ID
	if _, dup := c.engines[id]; dup {
		return errors.Validationf("matching engine for %s already registered", id)
	}
	c.engines[id] = e
	return nil
}

// Engine returns the matching engine for an instrument.
func (c *ExecClient) Engine(id model.InstrumentID) (*Engine, bool) {
	e, ok := c.engines[id]
	return e, ok
}

func (c *ExecClient) ID() model.ClientID         { return c.id }
func (c *ExecClient) Venue() model.Venue         { return c.venue }
func (c *ExecClient) AccountID() model.AccountID { return c.accountID }

func (c *ExecClient) Connect() error    { c.connected = true; return nil }
func (c *ExecClient) Disconnect() error { c.connected = false; return nil }
func (c *ExecClient) IsConnected() bool { return c.connected }

func (c *ExecClient) SubmitOrder(cmd exec.Command) error     { return c.route(cmd) }
func (c *ExecClient) SubmitOrderList(cmd exec.Command) error { return c.route(cmd) }
func (c *ExecClient) ModifyOrder(cmd exec.Command) error     { return c.route(cmd) }
func (c *ExecClient) CancelOrder(cmd exec.Command) error     { return c.route(cmd) }
func (c *ExecClient) QueryOrder(cmd exec.Command) error      { return c.route(cmd) }

func (c *ExecClient) BatchCancelOrders(cmd exec.Command) error { return c.route(cmd) }

// CancelAllOrders is broadcast to every engine when the command names
// no instrument.
func (c *ExecClient) CancelAllOrders(cmd exec.Command) error {
	if cmd.InstrumentID.IsDefined() {
		return c.route(cmd)
	}
	for _, e := range c.sortedEngines() {
		if err := e.Process(cmd); err != nil {
			return err
		}
	}
	return nil
}

// GenerateOrderStatusReport snapshots one order the venue is working.
func (c *ExecClient) GenerateOrderStatusReport(instrumentID model.InstrumentID, clientOrderID model.ClientOrderID) (exec.OrderStatusReport, error) {
	e, ok := c.engines[instrumentID]
	if !ok {
		return exec.OrderStatusReport{}, errors.NotFoundf("no matching engine for %s on %s", instrumentID, c.venue)
	}
	w, ok := e.working[clientOrderID]
	if !ok {
		return exec.OrderStatusReport{}, errors.NotFoundf("order %s not working on %s", clientOrderID, c.venue)
	}
	o := w.o
	return exec.OrderStatusReport{
		AccountID:     c.accountID,
		InstrumentID:  instrumentID,
		ClientOrderID: o.ClientOrderID,
		VenueOrderID:  o.VenueOrderID,
		OrderSide:     o.Side,
		OrderType:     o.Type,
		TimeInForce:   o.TimeInForce,
		Status:        o.Status,
		Quantity:      o.Quantity,
		FilledQty:     o.FilledQty,
		Price:         o.Price,
		TsLast:        o.TsLast,
	}, nil
}

// GenerateFillReports reports the executed portion of every working
// order, across all engines when no instrument is named.
func (c *ExecClient) GenerateFillReports(instrumentID model.InstrumentID) ([]exec.FillReport, error) {
	engines, err := c.selectEngines(instrumentID)
	if err != nil {
		return nil, err
	}
	var out []exec.FillReport
	for _, e := range engines {
		for _, w := range e.sortedWorking() {
			o := w.o
			if !o.FilledQty.IsPositive() {
				continue
			}
			out = append(out, exec.FillReport{
				AccountID:     c.accountID,
				InstrumentID:  o.InstrumentID,
				ClientOrderID: o.ClientOrderID,
				VenueOrderID:  o.VenueOrderID,
				TradeID:       o.LastTradeID,
				OrderSide:     o.Side,
				FilledQty:     o.FilledQty,
				AvgPx:         o.AvgPx,
				TsLast:        o.TsLast,
			})
		}
	}
	return out, nil
}

// GeneratePositionStatusReports reports every nonflat net position,
// across all engines when no instrument is named.
func (c *ExecClient) GeneratePositionStatusReports(instrumentID model.InstrumentID) ([]exec.PositionStatusReport, error) {
	engines, err := c.selectEngines(instrumentID)
	if err != nil {
		return nil, err
	}
	var out []exec.PositionStatusReport
	for _, e := range engines {
		if e.netRaw == 0 {
			continue
		}
		side := enum.PositionSideLong
		qtyRaw := e.netRaw
		if qtyRaw < 0 {
			side = enum.PositionSideShort
			qtyRaw = -qtyRaw
		}
		out = append(out, exec.PositionStatusReport{
			AccountID:       c.accountID,
			InstrumentID:    e.instrument.ID,
			VenuePositionID: e.positionID,
			PositionSide:    side,
			Quantity:        model.QuantityFromRaw(qtyRaw, e.instrument.SizePrecision),
			TsLast:          e.clk.TimestampNs(),
		})
	}
	return out, nil
}

func (c *ExecClient) selectEngines(instrumentID model.InstrumentID) ([]*Engine, error) {
	if !instrumentID.IsDefined() {
		return c.sortedEngines(), nil
	}
	e, ok := c.engines[instrumentID]
	if !ok {
		return nil, errors.NotFoundf("no matching engine for %s on %s", instrumentID, c.venue)
	}
	return []*Engine{e}, nil
}

func (c *ExecClient) route(cmd exec.Command) error {
	e, ok := c.engines[cmd.InstrumentID]
	if !ok {
		return errors.NotFoundf("no matching engine for %s on %s", cmd.InstrumentID, c.venue)
	}
	return e.Process(cmd)
}

func (c *ExecClient) sortedEngines() []*Engine {
	ids := make([]string, 0, len(c.engines))
	byID := make(map[string]*Engine, len(c.engines))
	for id, e := range c.engines {
		key := id.String()
		ids = append(ids, key)
		byID[key] = e
	}
	sort.Strings(ids)
	out := make([]*Engine, 0, len(ids))
	for _, key := range ids {
		out = append(out, byID[key])
	}
	return out
}
