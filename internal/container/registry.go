package container

import (
	"slices"
	"sync"
)

// Condition restricts a binding to the contexts it returns true for.
type Condition func(ctx InjectContext) bool

type binding struct {
	provider  *Provider
	condition Condition
}

// BindingInfo is a read-only view of a registered binding.
type BindingInfo struct {
	ID          BindingID
	Provider    *Provider
	Conditional bool
}

// Registry maps contracts to providers in insertion order. It does not
// reject duplicates; ambiguity is reported when a contract is resolved.
type Registry struct {
	mu       sync.RWMutex
	bindings map[BindingID][]*binding
	order    []BindingID
	fallback *Provider
}

func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[BindingID][]*binding),
	}
}

func (r *Registry) Register(id BindingID, provider *Provider, condition Condition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bindings[id]; !exists {
		r.order = append(r.order, id)
	}
	r.bindings[id] = append(r.bindings[id], &binding{provider: provider, condition: condition})
}

func (r *Registry) Lookup(ctx InjectContext) []*Provider {
	r.mu.RLock()
	candidates := slices.Clone(r.bindings[ctx.BindingID()])
	r.mu.RUnlock()

	matches := make([]*Provider, 0, len(candidates))
	for _, b := range candidates {
		if b.condition == nil || b.condition(ctx) {
			matches = append(matches, b.provider)
		}
	}
	return matches
}

// detach removes the bindings of id and returns them in registration order.
func (r *Registry) detach(id BindingID) []*binding {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := r.bindings[id]
	if len(removed) == 0 {
		return nil
	}

	delete(r.bindings, id)
	r.order = slices.DeleteFunc(r.order, func(o BindingID) bool { return o == id })
	return removed
}

// restore puts detached bindings back ahead of anything registered since.
func (r *Registry) restore(id BindingID, detached []*binding) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bindings[id]; !exists {
		r.order = append(r.order, id)
	}
	r.bindings[id] = append(slices.Clone(detached), r.bindings[id]...)
}

func (r *Registry) Has(id BindingID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.bindings[id]) > 0
}

func (r *Registry) IDs() []BindingID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.order)
}

func (r *Registry) Bindings() []BindingInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var infos []BindingInfo
	for _, id := range r.order {
		for _, b := range r.bindings[id] {
			infos = append(infos, BindingInfo{
				ID:          id,
				Provider:    b.provider,
				Conditional: b.condition != nil,
			})
		}
	}
	return infos
}

func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, bs := range r.bindings {
		n += len(bs)
	}
	return n
}

func (r *Registry) SetFallback(p *Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = p
}

func (r *Registry) Fallback() *Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}
