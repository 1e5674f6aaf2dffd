package container

import (
	"reflect"
	"slices"

	qreflect "github.com/danpasecinic/quill/internal/reflect"
)

// Resolver is the view of the container handed to factory methods. Calls made
// through it join the resolution that invoked the factory, so cycles through
// factories are still detected.
type Resolver interface {
	Resolve(ctx InjectContext) (any, error)
	ResolveMany(ctx InjectContext) ([]any, error)
	Instantiate(concrete reflect.Type, extras ...any) (any, error)
	Has(id BindingID) bool
}

// Resolution is the state of one top-level resolve or validate call. It holds
// the active-resolution stack; it is never shared between calls.
type Resolution struct {
	c        *Container
	stack    []reflect.Type
	active   map[reflect.Type]int
	creators map[*singletonCreator]bool
	calls    []methodCall
}

// methodCall is one factory or lookup invocation in progress. The same
// provider asked for the same binding from the same parent again can only
// recurse forever.
type methodCall struct {
	provider *Provider
	id       BindingID
	parent   reflect.Type
}

func (c *Container) newResolution() *Resolution {
	return &Resolution{
		c:        c,
		active:   make(map[reflect.Type]int),
		creators: make(map[*singletonCreator]bool),
	}
}

func (r *Resolution) onStack(t reflect.Type) bool {
	return r.active[t] > 0
}

func (r *Resolution) push(t reflect.Type) {
	r.stack = append(r.stack, t)
	r.active[t]++
}

func (r *Resolution) pop() {
	n := len(r.stack) - 1
	t := r.stack[n]
	r.stack = r.stack[:n]
	if r.active[t]--; r.active[t] == 0 {
		delete(r.active, t)
	}
}

func (r *Resolution) building(s *singletonCreator) bool {
	return r.creators[s]
}

func (r *Resolution) enter(s *singletonCreator) {
	r.creators[s] = true
}

func (r *Resolution) leave(s *singletonCreator) {
	delete(r.creators, s)
}

func (r *Resolution) calling(call methodCall) bool {
	return slices.Contains(r.calls, call)
}

func (r *Resolution) enterCall(call methodCall) {
	r.calls = append(r.calls, call)
}

func (r *Resolution) leaveCall() {
	r.calls = r.calls[:len(r.calls)-1]
}

// callPath lists the bindings from the first call for id, closed with id.
func (r *Resolution) callPath(id BindingID) []string {
	start := 0
	for i, call := range r.calls {
		if call.id == id {
			start = i
			break
		}
	}
	path := make([]string, 0, len(r.calls)-start+1)
	for _, call := range r.calls[start:] {
		path = append(path, call.id.String())
	}
	return append(path, id.String())
}

// trace renders the stack outermost first.
func (r *Resolution) trace() []string {
	out := make([]string, len(r.stack))
	for i, t := range r.stack {
		out[i] = qreflect.Name(t)
	}
	return out
}

// cyclePath is the portion of the stack from the first occurrence of t,
// closed with t again.
func (r *Resolution) cyclePath(t reflect.Type) []string {
	start := 0
	for i, s := range r.stack {
		if s == t {
			start = i
			break
		}
	}
	path := make([]string, 0, len(r.stack)-start+1)
	for _, s := range r.stack[start:] {
		path = append(path, qreflect.Name(s))
	}
	return append(path, qreflect.Name(t))
}

func (r *Resolution) Resolve(ctx InjectContext) (any, error) {
	v, _, err := r.resolve(ctx)
	return v, err
}

func (r *Resolution) ResolveMany(ctx InjectContext) ([]any, error) {
	return r.resolveMany(ctx)
}

func (r *Resolution) Instantiate(concrete reflect.Type, extras ...any) (any, error) {
	return r.instantiate(concrete, extras)
}

func (r *Resolution) Has(id BindingID) bool {
	return r.c.registry.Has(id)
}
