package component

import (
	"main/internal/errors"
	"main/internal/model"
)

// Registry owns component references by id. Holding components here
// instead of inside each other keeps handler wiring cycle-free: handlers
// capture a registry key, not the component.
type Registry struct {
	components map[model.ComponentID]*Component
	order      []model.ComponentID
}

func NewRegistry() *Registry {
	return &Registry{components: make(map[model.ComponentID]*Component)}
}

func (r *Registry) Register(c *Component) error {
	if c == nil {
		return errors.Validation("component must not be nil")
	}
	if _, dup := r.components[c.ID()]; dup {
		return errors.Validationf("component %s already registered", c.ID())
	}
	r.components[c.ID()] = c
	r.order = append(r.order, c.ID())
	return nil
}

// Deregister removes a component. Callers dispose it first.
func (r *Registry) Deregister(id model.ComponentID) error {
	if _, ok := r.components[id]; !ok {
		return errors.NotFoundf("component %s not registered", id)
	}
	delete(r.components, id)
	for i, n := range r.order {
		if n == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *Registry) Get(id model.ComponentID) (*Component, bool) {
	c, ok := r.components[id]
	return c, ok
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []model.ComponentID {
	out := make([]model.ComponentID, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int { return len(r.components) }

// StartAll starts components in registration order, stopping at the
// first failure.
func (r *Registry) StartAll() error {
	for _, id := range r.order {
		if err := r.components[id].Start(); err != nil {
			return errors.Wrapf(err, "start %s", id)
		}
	}
	return nil
}

// StopAll stops components in reverse registration order. All are
// attempted; the first error is returned.
func (r *Registry) StopAll() error {
	var first error
	for i := len(r.order) - 1; i >= 0; i-- {
		c := r.components[r.order[i]]
		if !c.IsRunning() && !c.IsDegraded() {
			continue
		}
		if err := c.Stop(); err != nil && first == nil {
			first = errors.Wrapf(err, "stop %s", c.ID())
		}
	}
	return first
}

// DisposeAll disposes components in reverse registration order and
// clears the registry.
func (r *Registry) DisposeAll() error {
	var first error
	for i := len(r.order) - 1; i >= 0; i-- {
		c := r.components[r.order[i]]
		if c.IsDisposed() || c.IsFaulted() {
			continue
		}
		if c.IsRunning() || c.IsDegraded() {
			if err := c.Stop(); err != nil && first == nil {
				first = errors.Wrapf(err, "stop %s", c.ID())
				continue
			}
		}
		if err := c.Dispose(); err != nil && first == nil {
			first = errors.Wrapf(err, "dispose %s", c.ID())
		}
	}
	r.components = make(map[model.ComponentID]*Component)
	r.order = nil
	return first
}
