// Package bus provides the in-process message bus: wildcard topic
// publish/subscribe, named point-to-point endpoints, and correlated
// request/response, plus a bounded queue for handing messages across
// goroutine boundaries.
package bus

import (
	"sort"

	"github.com/yanun0323/logs"

	"main/internal/errors"
)

// Handler consumes messages delivered by the bus. The ID distinguishes
// handlers for subscribe and unsubscribe bookkeeping.
type Handler interface {
	ID() string
	Handle(msg any)
}

type handlerFunc struct {
	id string
	fn func(msg any)
}

func (h handlerFunc) ID() string     { return h.id }
func (h handlerFunc) Handle(msg any) { h.fn(msg) }

// NewHandler wraps a function as a bus handler.
func NewHandler(id string, fn func(msg any)) Handler {
	return handlerFunc{id: id, fn: fn}
}

type subscription struct {
	pattern  string
	handler  Handler
	priority uint8
	sequence uint64
}

type pendingMsg struct {
	topic string
	msg   any
}

// Bus is the single-threaded message bus at the center of the system.
// It is not safe for concurrent use: producers on other goroutines hand
// messages over through a Queue drained by the owning goroutine.
//
// Publishes made from inside a handler are deferred until the current
// dispatch completes, so handlers always observe a finished delivery
// before the next one starts.
type Bus struct {
	Name string

	subs            []subscription
	matched         map[string][]subscription
	endpoints       map[string]Handler
	pendingRequests map[string]Handler

	sequence    uint64
	dispatching bool
	pending     []pendingMsg

	pubCount  uint64
	sentCount uint64
	reqCount  uint64
}

func New(name string) *Bus {
	return &Bus{
		Name:            name,
		matched:         make(map[string][]subscription),
		endpoints:       make(map[string]Handler),
		pendingRequests: make(map[string]Handler),
	}
}

// ---- subscriptions ----

// Subscribe registers a handler for all topics matching the pattern.
// Higher priority handlers run first; equal priorities run in
// registration order.
func (b *Bus) Subscribe(pattern string, handler Handler, priority uint8) error {
	if pattern == "" {
		return errors.Validation("subscribe pattern must not be empty")
	}
	if handler == nil || handler.ID() == "" {
		return errors.Validation("subscribe requires a handler with an id")
	}
	for _, s := range b.subs {
		if s.pattern == pattern && s.handler.ID() == handler.ID() {
			// Repeat registrations are idempotent.
			logs.Warnf("bus %s: handler %s already subscribed to %s", b.Name, handler.ID(), pattern)
			return nil
		}
	}
	b.sequence++
	b.subs = append(b.subs, subscription{
		pattern:  pattern,
		handler:  handler,
		priority: priority,
		sequence: b.sequence,
	})
	sort.SliceStable(b.subs, func(i, j int) bool {
		if b.subs[i].priority != b.subs[j].priority {
			return b.subs[i].priority > b.subs[j].priority
		}
		return b.subs[i].sequence < b.subs[j].sequence
	})
	b.matched = make(map[string][]subscription)
	return nil
}

// Unsubscribe removes a handler's subscription to the pattern.
func (b *Bus) Unsubscribe(pattern string, handlerID string) error {
	for i, s := range b.subs {
		if s.pattern == pattern && s.handler.ID() == handlerID {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			b.matched = make(map[string][]subscription)
			return nil
		}
	}
	return errors.NotFoundf("handler %s not subscribed to %s", handlerID, pattern)
}

// IsSubscribed reports whether the handler holds a subscription to the
// exact pattern.
func (b *Bus) IsSubscribed(pattern string, handlerID string) bool {
	for _, s := range b.subs {
		if s.pattern == pattern && s.handler.ID() == handlerID {
			return true
		}
	}
	return false
}

// HasSubscribers reports whether publishing to the topic would reach any
// handler.
func (b *Bus) HasSubscribers(topic string) bool {
	return len(b.matchSubs(topic)) > 0
}

// SubscriptionCount returns the number of handlers a publish to the
// topic would reach.
func (b *Bus) SubscriptionCount(topic string) int {
	return len(b.matchSubs(topic))
}

// Topics returns the distinct subscribed patterns.
func (b *Bus) Topics() []string {
	seen := make(map[string]struct{}, len(b.subs))
	out := make([]string, 0, len(b.subs))
	for _, s := range b.subs {
		if _, dup := seen[s.pattern]; dup {
			continue
		}
		seen[s.pattern] = struct{}{}
		out = append(out, s.pattern)
	}
	sort.Strings(out)
	return out
}

func (b *Bus) matchSubs(topic string) []subscription {
	if cached, ok := b.matched[topic]; ok {
		return cached
	}
	var matched []subscription
	for _, s := range b.subs {
		if IsMatching(topic, s.pattern) {
			matched = append(matched, s)
		}
	}
	b.matched[topic] = matched
	return matched
}

// ---- publish ----

// Publish delivers the message to every matching subscriber. When called
// from inside a handler the delivery is queued and runs after the
// current dispatch finishes.
func (b *Bus) Publish(topic string, msg any) {
	if b.dispatching {
		b.pending = append(b.pending, pendingMsg{topic: topic, msg: msg})
		return
	}
	b.dispatch(topic, msg)
	for len(b.pending) > 0 {
		next := b.pending[0]
		b.pending = b.pending[1:]
		b.dispatch(next.topic, next.msg)
	}
}

func (b *Bus) dispatch(topic string, msg any) {
	b.pubCount++
	b.dispatching = true
	defer func() { b.dispatching = false }()
	for _, s := range b.matchSubs(topic) {
		b.invoke(s.handler, topic, msg)
	}
}

// invoke isolates handler panics so one failing subscriber cannot take
// down the delivery loop.
func (b *Bus) invoke(h Handler, topic string, msg any) {
	defer func() {
		if r := recover(); r != nil {
			logs.Errorf("bus %s: handler %s panicked on topic %s, err: %+v", b.Name, h.ID(), topic, r)
		}
	}()
	h.Handle(msg)
}

// ---- endpoints ----

// RegisterEndpoint binds a name to a point-to-point handler.
func (b *Bus) RegisterEndpoint(name string, handler Handler) error {
	if name == "" {
		return errors.Validation("endpoint name must not be empty")
	}
	if handler == nil {
		return errors.Validation("endpoint requires a handler")
	}
	if _, dup := b.endpoints[name]; dup {
		return errors.Validationf("endpoint %s already registered", name)
	}
	b.endpoints[name] = handler
	return nil
}

// DeregisterEndpoint removes a named endpoint.
func (b *Bus) DeregisterEndpoint(name string) error {
	if _, ok := b.endpoints[name]; !ok {
		return errors.NotFoundf("endpoint %s not registered", name)
	}
	delete(b.endpoints, name)
	return nil
}

func (b *Bus) HasEndpoint(name string) bool {
	_, ok := b.endpoints[name]
	return ok
}

// Send delivers a message to one named endpoint. An unknown endpoint
// drops the message.
func (b *Bus) Send(name string, msg any) error {
	h, ok := b.endpoints[name]
	if !ok {
		logs.Debugf("bus %s: no endpoint %s, message dropped", b.Name, name)
		return nil
	}
	b.sentCount++
	b.invoke(h, name, msg)
	return nil
}

// ---- request/response ----

// Request is a correlated message to an endpoint. The callback receives
// the matching Response payload.
type Request struct {
	CorrelationID string
	Payload       any
}

// Response answers a Request through its correlation id.
type Response struct {
	CorrelationID string
	Payload       any
}

// SendRequest delivers a request to an endpoint and registers the
// callback for its response.
func (b *Bus) SendRequest(endpoint string, req Request, callback Handler) error {
	if req.CorrelationID == "" {
		return errors.Validation("request requires a correlation id")
	}
	if callback == nil {
		return errors.Validation("request requires a callback")
	}
	if _, dup := b.pendingRequests[req.CorrelationID]; dup {
		return errors.Validationf("correlation id %s already in flight", req.CorrelationID)
	}
	h, ok := b.endpoints[endpoint]
	if !ok {
		return errors.NotFoundf("endpoint %s not registered", endpoint)
	}
	b.pendingRequests[req.CorrelationID] = callback
	b.reqCount++
	b.invoke(h, endpoint, req)
	return nil
}

// SendResponse routes a response back to the requester's callback and
// clears the correlation.
func (b *Bus) SendResponse(resp Response) error {
	callback, ok := b.pendingRequests[resp.CorrelationID]
	if !ok {
		return errors.NotFoundf("no request pending for correlation id %s", resp.CorrelationID)
	}
	delete(b.pendingRequests, resp.CorrelationID)
	b.invoke(callback, resp.CorrelationID, resp)
	return nil
}

// PendingRequestCount returns the number of in-flight requests.
func (b *Bus) PendingRequestCount() int { return len(b.pendingRequests) }

// Stats counters.
func (b *Bus) PubCount() uint64  { return b.pubCount }
func (b *Bus) SentCount() uint64 { return b.sentCount }
func (b *Bus) ReqCount() uint64  { return b.reqCount }
