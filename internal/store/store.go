// Package store persists the event streams the execution engine
// journals: order events per client order id, position events per
// position id and account state snapshots per account. A backend only
// appends and reads back ordered streams; aggregates are reconstructed
// by replaying a stream into an empty aggregate.
package store

import (
	"main/internal/account"
	"main/internal/errors"
	"main/internal/exec"
	"main/internal/model"
	"main/internal/order"
)

// Store is an append-only event store. It satisfies exec.Journal so it
// can be attached to the execution engine directly.
type Store interface {
	AppendOrderEvent(ev order.Event) error
	AppendPositionEvent(ev exec.PositionEvent) error
	AppendAccountState(st account.State) error

	OrderIDs() ([]model.ClientOrderID, error)
	OrderEvents(id model.ClientOrderID) ([]order.Event, error)
	PositionIDs() ([]model.PositionID, error)
	PositionEvents(id model.PositionID) ([]exec.PositionEvent, error)
	AccountIDs() ([]model.AccountID, error)
	AccountStates(id model.AccountID) ([]account.State, error)

	Close() error
}

// RebuildOrder replays a persisted stream into a fresh order aggregate.
func RebuildOrder(events []order.Event) (*order.Order, error) {
	if len(events) == 0 {
		return nil, errors.Validation("cannot rebuild an order from an empty stream")
	}
	o, err := order.New(events[0])
	if err != nil {
		return nil, errors.Wrap(err, "rebuild order")
	}
	for _, ev := range events[1:] {
		if err := o.Apply(ev); err != nil {
			return nil, errors.Wrapf(err, "rebuild order %s", ev.ClientOrderID)
		}
	}
	return o, nil
}

// RebuildAccount replays persisted state snapshots into a fresh account.
func RebuildAccount(states []account.State) (*account.Account, error) {
	if len(states) == 0 {
		return nil, errors.Validation("cannot rebuild an account from an empty stream")
	}
	a, err := account.New(states[0])
	if err != nil {
		return nil, errors.Wrap(err, "rebuild account")
	}
	for _, st := range states[1:] {
		if err := a.ApplyState(st); err != nil {
			return nil, errors.Wrapf(err, "rebuild account %s", st.AccountID)
		}
	}
	return a, nil
}

// LatestPositionState returns the last event of a position stream,
// which carries the full position state.
func LatestPositionState(events []exec.PositionEvent) (exec.PositionEvent, bool) {
	if len(events) == 0 {
		return exec.PositionEvent{}, false
	}
	return events[len(events)-1], true
}
