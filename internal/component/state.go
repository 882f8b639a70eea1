package component

import (
	"main/internal/errors"
)

// State is a component lifecycle state.
type State uint8

const (
	StatePreInitialized State = iota
	StateReady
	StateStarting
	StateRunning
	StateStopping
	StateStopped
	StateResuming
	StateResetting
	StateDisposing
	StateDisposed
	StateDegraded
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StatePreInitialized:
		return "PRE_INITIALIZED"
	case StateReady:
		return "READY"
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	case StateResuming:
		return "RESUMING"
	case StateResetting:
		return "RESETTING"
	case StateDisposing:
		return "DISPOSING"
	case StateDisposed:
		return "DISPOSED"
	case StateDegraded:
		return "DEGRADED"
	case StateFaulted:
		return "FAULTED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal reports whether no trigger can leave the state.
func (s State) IsTerminal() bool {
	return s == StateDisposed || s == StateFaulted
}

// Trigger drives a lifecycle transition. RunningCompleted and
// StoppedCompleted report that the in-progress work finished.
type Trigger uint8

const (
	TriggerInitialize Trigger = iota
	TriggerStart
	TriggerRunningCompleted
	TriggerStop
	TriggerStoppedCompleted
	TriggerResume
	TriggerReset
	TriggerDispose
	TriggerDegrade
	TriggerFault
)

func (t Trigger) String() string {
	switch t {
	case TriggerInitialize:
		return "INITIALIZE"
	case TriggerStart:
		return "START"
	case TriggerRunningCompleted:
		return "RUNNING"
	case TriggerStop:
		return "STOP"
	case TriggerStoppedCompleted:
		return "STOPPED"
	case TriggerResume:
		return "RESUME"
	case TriggerReset:
		return "RESET"
	case TriggerDispose:
		return "DISPOSE"
	case TriggerDegrade:
		return "DEGRADE"
	case TriggerFault:
		return "FAULT"
	default:
		return "UNKNOWN"
	}
}

type transitionKey struct {
	from    State
	trigger Trigger
}

var transitions = map[transitionKey]State{
	{StatePreInitialized, TriggerInitialize}: StateReady,

	{StateReady, TriggerStart}:   StateStarting,
	{StateReady, TriggerReset}:   StateResetting,
	{StateReady, TriggerDispose}: StateDisposing,
	{StateReady, TriggerFault}:   StateFaulted,

	{StateStarting, TriggerRunningCompleted}: StateRunning,
	{StateStarting, TriggerStop}:             StateStopping,
	{StateStarting, TriggerFault}:            StateFaulted,

	{StateRunning, TriggerStop}:    StateStopping,
	{StateRunning, TriggerDegrade}: StateDegraded,
	{StateRunning, TriggerFault}:   StateFaulted,

	{StateStopping, TriggerStoppedCompleted}: StateStopped,
	{StateStopping, TriggerFault}:            StateFaulted,

	{StateStopped, TriggerStart}:   StateStarting,
	{StateStopped, TriggerResume}:  StateResuming,
	{StateStopped, TriggerReset}:   StateResetting,
	{StateStopped, TriggerDispose}: StateDisposing,
	{StateStopped, TriggerFault}:   StateFaulted,

	{StateResuming, TriggerRunningCompleted}: StateRunning,
	{StateResuming, TriggerStop}:             StateStopping,
	{StateResuming, TriggerFault}:            StateFaulted,

	{StateResetting, TriggerInitialize}: StateReady,
	{StateResetting, TriggerFault}:      StateFaulted,

	{StateDisposing, TriggerStoppedCompleted}: StateDisposed,

	{StateDegraded, TriggerResume}: StateResuming,
	{StateDegraded, TriggerStop}:   StateStopping,
	{StateDegraded, TriggerFault}:  StateFaulted,
}

// transition looks up the next state for a trigger, failing loudly on an
// invalid pair.
func transition(from State, trigger Trigger) (State, error) {
	next, ok := transitions[transitionKey{from: from, trigger: trigger}]
	if !ok {
		return from, errors.StateTransitionf("invalid component trigger %s in state %s", trigger, from)
	}
	return next, nil
}
