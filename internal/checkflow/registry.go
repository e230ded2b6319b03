package checkflow

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/ledger"
)

// ErrFlowNotFound indicates an unknown or already-consumed flow id.
var ErrFlowNotFound = errors.New("checkflow: flow not found")

// Registry tracks in-flight check captures by flow id so stateless HTTP
// clients can drive the coordinator across requests. Flows live in
// memory only; an abandoned flow is just garbage-collected state.
type Registry struct {
	mu            sync.Mutex
	flows         map[string]*Coordinator
	defaultMethod ledger.PaymentMethod
	refs          ReferencePort
}

// NewRegistry builds a Registry.
func NewRegistry(defaultMethod ledger.PaymentMethod, refs ReferencePort) *Registry {
	return &Registry{
		flows:         make(map[string]*Coordinator),
		defaultMethod: defaultMethod,
		refs:          refs,
	}
}

// Begin starts a capture for a check payment of the given amount.
func (r *Registry) Begin(amount float64) (string, error) {
	c := NewCoordinator(r.defaultMethod, r.refs)
	if err := c.SelectMethod(ledger.MethodCheck, amount); err != nil {
		return "", err
	}
	id := uuid.NewString()
	r.mu.Lock()
	r.flows[id] = c
	r.mu.Unlock()
	return id, nil
}

// Confirm supplies details for a pending flow.
func (r *Registry) Confirm(ctx context.Context, id string, input DetailsInput) (*ledger.CheckDetails, error) {
	c, ok := r.get(id)
	if !ok {
		return nil, ErrFlowNotFound
	}
	return c.Confirm(ctx, input)
}

// Cancel abandons a flow.
func (r *Registry) Cancel(id string) error {
	c, ok := r.get(id)
	if !ok {
		return ErrFlowNotFound
	}
	c.Cancel()
	r.mu.Lock()
	delete(r.flows, id)
	r.mu.Unlock()
	return nil
}

// Take consumes the confirmed details of a flow, removing it.
func (r *Registry) Take(id string) (*ledger.CheckDetails, error) {
	c, ok := r.get(id)
	if !ok {
		return nil, ErrFlowNotFound
	}
	details, err := c.Take()
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	delete(r.flows, id)
	r.mu.Unlock()
	return details, nil
}

// State reports the state of a flow.
func (r *Registry) State(id string) (State, error) {
	c, ok := r.get(id)
	if !ok {
		return "", ErrFlowNotFound
	}
	return c.State(), nil
}

func (r *Registry) get(id string) (*Coordinator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.flows[id]
	return c, ok
}
