package order

import (
	"main/internal/errors"
	"main/internal/model/enum"
)

type transitionKey struct {
	from  enum.OrderStatus
	event EventType
}

// transitions is the order lifecycle table. Event application resolves a
// Filled transition to PartiallyFilled afterwards when leaves remain.
var transitions = map[transitionKey]enum.OrderStatus{
	{enum.OrderStatusInitialized, EventDenied}:    enum.OrderStatusDenied,
	{enum.OrderStatusInitialized, EventEmulated}:  enum.OrderStatusEmulated,
	{enum.OrderStatusInitialized, EventReleased}:  enum.OrderStatusReleased,
	{enum.OrderStatusInitialized, EventSubmitted}: enum.OrderStatusSubmitted,
	// External order flows arrive already worked.
	{enum.OrderStatusInitialized, EventRejected}:  enum.OrderStatusRejected,
	{enum.OrderStatusInitialized, EventAccepted}:  enum.OrderStatusAccepted,
	{enum.OrderStatusInitialized, EventCanceled}:  enum.OrderStatusCanceled,
	{enum.OrderStatusInitialized, EventExpired}:   enum.OrderStatusExpired,
	{enum.OrderStatusInitialized, EventTriggered}: enum.OrderStatusTriggered,

	{enum.OrderStatusEmulated, EventCanceled}: enum.OrderStatusCanceled,
	{enum.OrderStatusEmulated, EventExpired}:  enum.OrderStatusExpired,
	{enum.OrderStatusEmulated, EventReleased}: enum.OrderStatusReleased,

	{enum.OrderStatusReleased, EventSubmitted}: enum.OrderStatusSubmitted,
	{enum.OrderStatusReleased, EventDenied}:    enum.OrderStatusDenied,
	{enum.OrderStatusReleased, EventCanceled}:  enum.OrderStatusCanceled,

	{enum.OrderStatusSubmitted, EventPendingUpdate}: enum.OrderStatusPendingUpdate,
	{enum.OrderStatusSubmitted, EventPendingCancel}: enum.OrderStatusPendingCancel,
	{enum.OrderStatusSubmitted, EventRejected}:      enum.OrderStatusRejected,
	// IOC and FOK remainders cancel straight from Submitted.
	{enum.OrderStatusSubmitted, EventCanceled}: enum.OrderStatusCanceled,
	{enum.OrderStatusSubmitted, EventAccepted}: enum.OrderStatusAccepted,
	{enum.OrderStatusSubmitted, EventFilled}:   enum.OrderStatusFilled,
	{enum.OrderStatusSubmitted, EventUpdated}:  enum.OrderStatusSubmitted,

	{enum.OrderStatusAccepted, EventRejected}:      enum.OrderStatusRejected,
	{enum.OrderStatusAccepted, EventPendingUpdate}: enum.OrderStatusPendingUpdate,
	{enum.OrderStatusAccepted, EventPendingCancel}: enum.OrderStatusPendingCancel,
	{enum.OrderStatusAccepted, EventCanceled}:      enum.OrderStatusCanceled,
	{enum.OrderStatusAccepted, EventTriggered}:     enum.OrderStatusTriggered,
	{enum.OrderStatusAccepted, EventExpired}:       enum.OrderStatusExpired,
	{enum.OrderStatusAccepted, EventFilled}:        enum.OrderStatusFilled,
	{enum.OrderStatusAccepted, EventUpdated}:       enum.OrderStatusAccepted,

	// A fill can race a cancel on a real venue.
	{enum.OrderStatusCanceled, EventFilled}: enum.OrderStatusFilled,

	{enum.OrderStatusPendingUpdate, EventRejected}:      enum.OrderStatusRejected,
	{enum.OrderStatusPendingUpdate, EventAccepted}:      enum.OrderStatusAccepted,
	{enum.OrderStatusPendingUpdate, EventCanceled}:      enum.OrderStatusCanceled,
	{enum.OrderStatusPendingUpdate, EventExpired}:       enum.OrderStatusExpired,
	{enum.OrderStatusPendingUpdate, EventTriggered}:     enum.OrderStatusTriggered,
	{enum.OrderStatusPendingUpdate, EventPendingUpdate}: enum.OrderStatusPendingUpdate,
	{enum.OrderStatusPendingUpdate, EventPendingCancel}: enum.OrderStatusPendingCancel,
	{enum.OrderStatusPendingUpdate, EventFilled}:        enum.OrderStatusFilled,
	{enum.OrderStatusPendingUpdate, EventUpdated}:       enum.OrderStatusAccepted,

	{enum.OrderStatusPendingCancel, EventRejected}:      enum.OrderStatusRejected,
	{enum.OrderStatusPendingCancel, EventPendingCancel}: enum.OrderStatusPendingCancel,
	{enum.OrderStatusPendingCancel, EventCanceled}:      enum.OrderStatusCanceled,
	{enum.OrderStatusPendingCancel, EventExpired}:       enum.OrderStatusExpired,
	// A failed cancel request falls back to Accepted.
	{enum.OrderStatusPendingCancel, EventAccepted}: enum.OrderStatusAccepted,
	{enum.OrderStatusPendingCancel, EventFilled}:   enum.OrderStatusFilled,

	{enum.OrderStatusTriggered, EventRejected}:      enum.OrderStatusRejected,
	{enum.OrderStatusTriggered, EventPendingUpdate}: enum.OrderStatusPendingUpdate,
	{enum.OrderStatusTriggered, EventPendingCancel}: enum.OrderStatusPendingCancel,
	{enum.OrderStatusTriggered, EventCanceled}:      enum.OrderStatusCanceled,
	{enum.OrderStatusTriggered, EventExpired}:       enum.OrderStatusExpired,
	{enum.OrderStatusTriggered, EventFilled}:        enum.OrderStatusFilled,

	{enum.OrderStatusPartiallyFilled, EventPendingUpdate}: enum.OrderStatusPendingUpdate,
	{enum.OrderStatusPartiallyFilled, EventPendingCancel}: enum.OrderStatusPendingCancel,
	{enum.OrderStatusPartiallyFilled, EventCanceled}:      enum.OrderStatusCanceled,
	{enum.OrderStatusPartiallyFilled, EventExpired}:       enum.OrderStatusExpired,
	{enum.OrderStatusPartiallyFilled, EventFilled}:        enum.OrderStatusFilled,
	{enum.OrderStatusPartiallyFilled, EventAccepted}:      enum.OrderStatusAccepted,
}

// transition returns the next status or a state-transition error.
func transition(from enum.OrderStatus, event EventType) (enum.OrderStatus, error) {
	next, ok := transitions[transitionKey{from, event}]
	if !ok {
		return from, errors.StateTransitionf("invalid order state transition: %s -> %s", from, event)
	}
	return next, nil
}
