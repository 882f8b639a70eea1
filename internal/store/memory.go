package store

import (
	"sort"
	"sync"

	"main/internal/account"
	"main/internal/exec"
	"main/internal/model"
	"main/internal/order"
)

// Memory is an in-process Store. Streams keep append order; id listings
// are sorted so iteration is deterministic.
type Memory struct {
	mu        sync.Mutex
	orders    map[model.ClientOrderID][]order.Event
	positions map[model.PositionID][]exec.PositionEvent
	accounts  map[model.AccountID][]account.State
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		orders:    make(map[model.ClientOrderID][]order.Event),
		positions: make(map[model.PositionID][]exec.PositionEvent),
		accounts:  make(map[model.AccountID][]account.State),
	}
}

func (m *Memory) AppendOrderEvent(ev order.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[ev.ClientOrderID] = append(m.orders[ev.ClientOrderID], ev)
	return nil
}

func (m *Memory) AppendPositionEvent(ev exec.PositionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[ev.PositionID] = append(m.positions[ev.PositionID], ev)
	return nil
}

func (m *Memory) AppendAccountState(st account.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[st.AccountID] = append(m.accounts[st.AccountID], st)
	return nil
}

func (m *Memory) OrderIDs() ([]model.ClientOrderID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]model.ClientOrderID, 0, len(m.orders))
	for id := range m.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *Memory) OrderEvents(id model.ClientOrderID) ([]order.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := m.orders[id]
	out := make([]order.Event, len(events))
	copy(out, events)
	return out, nil
}

func (m *Memory) PositionIDs() ([]model.PositionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]model.PositionID, 0, len(m.positions))
	for id := range m.positions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *Memory) PositionEvents(id model.PositionID) ([]exec.PositionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := m.positions[id]
	out := make([]exec.PositionEvent, len(events))
	copy(out, events)
	return out, nil
}

func (m *Memory) AccountIDs() ([]model.AccountID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]model.AccountID, 0, len(m.accounts))
	for id := range m.accounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *Memory) AccountStates(id model.AccountID) ([]account.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	states := m.accounts[id]
	out := make([]account.State, len(states))
	copy(out, states)
	return out, nil
}

func (m *Memory) Close() error { return nil }
