package account

import (
	"main/internal/errors"
	"main/internal/model"
	"main/internal/model/enum"
)

// Balance is a per-currency holding split into locked and free parts.
// Total must equal Locked plus Free at all times.
type Balance struct {
	Total  model.Money
	Locked model.Money
	Free   model.Money
}

// NewBalance builds a balance and checks its arithmetic invariant.
func NewBalance(total, locked, free model.Money) (Balance, error) {
	b := Balance{Total: total, Locked: locked, Free: free}
	if err := b.Validate(); err != nil {
		return Balance{}, err
	}
	return b, nil
}

func (b Balance) Currency() model.Currency { return b.Total.Currency }

func (b Balance) Validate() error {
	c := b.Total.Currency
	if !c.IsDefined() {
		return errors.Validation("balance requires a currency")
	}
	if b.Locked.Currency != c || b.Free.Currency != c {
		return errors.Validationf("balance currency mismatch for %s", c)
	}
	if b.Total.Raw != b.Locked.Raw+b.Free.Raw {
		return errors.Integrityf("balance total %s != locked %s + free %s", b.Total, b.Locked, b.Free)
	}
	return nil
}

// MarginBalance is the margin held for one instrument on a margin account.
type MarginBalance struct {
	InstrumentID model.InstrumentID
	Initial      model.Money
	Maintenance  model.Money
}

// State is an account snapshot event. Snapshots are authoritative: a
// currency listed replaces whatever the account held for it before.
type State struct {
	AccountID    model.AccountID
	AccountType  enum.AccountType
	BaseCurrency model.Currency
	Balances     []Balance
	Margins      []MarginBalance
	IsReported   bool
	EventID      model.EventID
	TsEvent      model.UnixNanos
	TsInit       model.UnixNanos
}

func (s State) Validate() error {
	if s.AccountID == "" {
		return errors.Validation("account state requires an account id")
	}
	if s.AccountType == enum.AccountTypeUnknown {
		return errors.Validation("account state requires an account type")
	}
	if len(s.Balances) == 0 {
		return errors.Validationf("account state for %s has no balances", s.AccountID)
	}
	seen := make(map[model.Currency]struct{}, len(s.Balances))
	for _, b := range s.Balances {
		if err := b.Validate(); err != nil {
			return err
		}
		if _, dup := seen[b.Currency()]; dup {
			return errors.Validationf("duplicate balance currency %s for %s", b.Currency(), s.AccountID)
		}
		seen[b.Currency()] = struct{}{}
	}
	return nil
}

// Account holds the balance view built from applied state events. Margin
// fields stay empty for cash accounts.
type Account struct {
	ID           model.AccountID
	Type         enum.AccountType
	BaseCurrency model.Currency

	balances map[model.Currency]Balance
	margins  map[model.InstrumentID]MarginBalance
	events   []State
}

// New builds an account from its initial state event.
func New(initial State) (*Account, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	a := &Account{
		ID:           initial.AccountID,
		Type:         initial.AccountType,
		BaseCurrency: initial.BaseCurrency,
		balances:     make(map[model.Currency]Balance),
		margins:      make(map[model.InstrumentID]MarginBalance),
	}
	if err := a.ApplyState(initial); err != nil {
		return nil, err
	}
	return a, nil
}

// ApplyState applies a snapshot event on top of the current view.
func (a *Account) ApplyState(st State) error {
	if err := st.Validate(); err != nil {
		return err
	}
	if st.AccountID != a.ID {
		return errors.Validationf("account state for %s applied to %s", st.AccountID, a.ID)
	}
	if st.AccountType != a.Type {
		return errors.Validationf("account type changed for %s", a.ID)
	}
	for _, b := range st.Balances {
		a.balances[b.Currency()] = b
	}
	for _, m := range st.Margins {
		a.margins[m.InstrumentID] = m
	}
	a.events = append(a.events, st)
	return nil
}

func (a *Account) Events() []State { return a.events }

func (a *Account) LastEvent() (State, bool) {
	if len(a.events) == 0 {
		return State{}, false
	}
	return a.events[len(a.events)-1], true
}

func (a *Account) Balance(c model.Currency) (Balance, bool) {
	b, ok := a.balances[c]
	return b, ok
}

// Balances returns the per-currency view in unspecified order.
func (a *Account) Balances() []Balance {
	out := make([]Balance, 0, len(a.balances))
	for _, b := range a.balances {
		out = append(out, b)
	}
	return out
}

func (a *Account) BalanceTotal(c model.Currency) (model.Money, bool) {
	b, ok := a.balances[c]
	if !ok {
		return model.Money{}, false
	}
	return b.Total, true
}

func (a *Account) BalanceFree(c model.Currency) (model.Money, bool) {
	b, ok := a.balances[c]
	if !ok {
		return model.Money{}, false
	}
	return b.Free, true
}

func (a *Account) BalanceLocked(c model.Currency) (model.Money, bool) {
	b, ok := a.balances[c]
	if !ok {
		return model.Money{}, false
	}
	return b.Locked, true
}

// UpdateBalances adjusts totals by signed deltas, debiting free funds. A
// cash account rejects a delta that would take the total negative.
func (a *Account) UpdateBalances(deltas []model.Money) error {
	next := make(map[model.Currency]Balance, len(deltas))
	for _, d := range deltas {
		cur, ok := next[d.Currency]
		if !ok {
			cur, ok = a.balances[d.Currency]
			if !ok {
				cur = Balance{
					Total:  model.MoneyFromRaw(0, d.Currency),
					Locked: model.MoneyFromRaw(0, d.Currency),
					Free:   model.MoneyFromRaw(0, d.Currency),
				}
			}
		}
		cur.Total = model.MoneyFromRaw(cur.Total.Raw+d.Raw, d.Currency)
		cur.Free = model.MoneyFromRaw(cur.Free.Raw+d.Raw, d.Currency)
		if a.Type == enum.AccountTypeCash && cur.Total.Raw < 0 {
			return errors.Integrityf("insufficient funds: %s balance would be %s", d.Currency, cur.Total)
		}
		next[d.Currency] = cur
	}
	for c, b := range next {
		a.balances[c] = b
	}
	return nil
}

// LockBalance moves free funds into the locked bucket, as when a cash
// account reserves the cost of a resting order.
func (a *Account) LockBalance(amount model.Money) error {
	b, ok := a.balances[amount.Currency]
	if !ok {
		return errors.NotFoundf("no %s balance on account %s", amount.Currency, a.ID)
	}
	if amount.Raw < 0 {
		return errors.Validation("lock amount must be non-negative")
	}
	if b.Free.Raw < amount.Raw {
		return errors.Integrityf("insufficient free %s to lock %s", amount.Currency, amount)
	}
	b.Locked = model.MoneyFromRaw(b.Locked.Raw+amount.Raw, amount.Currency)
	b.Free = model.MoneyFromRaw(b.Free.Raw-amount.Raw, amount.Currency)
	a.balances[amount.Currency] = b
	return nil
}

// UnlockBalance releases previously locked funds back to free.
func (a *Account) UnlockBalance(amount model.Money) error {
	b, ok := a.balances[amount.Currency]
	if !ok {
		return errors.NotFoundf("no %s balance on account %s", amount.Currency, a.ID)
	}
	if amount.Raw < 0 {
		return errors.Validation("unlock amount must be non-negative")
	}
	if b.Locked.Raw < amount.Raw {
		return errors.Integrityf("locked %s below unlock amount %s", amount.Currency, amount)
	}
	b.Locked = model.MoneyFromRaw(b.Locked.Raw-amount.Raw, amount.Currency)
	b.Free = model.MoneyFromRaw(b.Free.Raw+amount.Raw, amount.Currency)
	a.balances[amount.Currency] = b
	return nil
}

// Margin returns the margin held for an instrument on a margin account.
func (a *Account) Margin(id model.InstrumentID) (MarginBalance, bool) {
	m, ok := a.margins[id]
	return m, ok
}

// UpdateMargin sets the margin for an instrument. Zero margins clear the
// entry.
func (a *Account) UpdateMargin(m MarginBalance) error {
	if a.Type != enum.AccountTypeMargin {
		return errors.Validationf("account %s does not hold margin", a.ID)
	}
	if !m.InstrumentID.IsDefined() {
		return errors.Validation("margin requires an instrument id")
	}
	if m.Initial.IsZero() && m.Maintenance.IsZero() {
		delete(a.margins, m.InstrumentID)
		return nil
	}
	a.margins[m.InstrumentID] = m
	return nil
}
