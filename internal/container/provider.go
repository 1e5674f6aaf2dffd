package container

import (
	"iter"
	"reflect"
	"sync/atomic"

	"github.com/danpasecinic/quill/internal/kind"
	qreflect "github.com/danpasecinic/quill/internal/reflect"
)

// MethodFunc builds an instance on demand. The Resolver is bound to the
// resolution that triggered the call.
type MethodFunc func(r Resolver, ctx InjectContext) (any, error)

// Provider supplies instances for a binding. The set of kinds is closed;
// GetInstances and Validate switch over all of them.
type Provider struct {
	kind     kind.Kind
	concrete reflect.Type
	creator  *singletonCreator
	value    any
	method   MethodFunc
	target   *BindingID

	bound atomic.Int32
}

func (p *Provider) Kind() kind.Kind {
	return p.kind
}

// ConcreteType is the type the provider produces, or nil when it is only
// known at call time.
func (p *Provider) ConcreteType() reflect.Type {
	switch p.kind {
	case kind.Cached:
		return p.creator.id.ConcreteType
	case kind.Instance:
		if p.concrete != nil {
			return p.concrete
		}
		if p.value != nil {
			return reflect.TypeOf(p.value)
		}
		return nil
	default:
		return p.concrete
	}
}

// SingletonID is the key of the shared instance behind a cached provider.
func (p *Provider) SingletonID() (SingletonID, bool) {
	if p.kind != kind.Cached {
		return SingletonID{}, false
	}
	return p.creator.id, true
}

// LookupTarget is the binding a lookup provider forwards to.
func (p *Provider) LookupTarget() (BindingID, bool) {
	if p.target == nil {
		return BindingID{}, false
	}
	return *p.target, true
}

// Instantiated reports whether a shared instance already exists. Only
// cached providers hold one.
func (p *Provider) Instantiated() bool {
	return p.kind == kind.Cached && p.creator.HasInstance()
}

func (p *Provider) GetInstances(r *Resolution, ctx InjectContext) ([]any, error) {
	switch p.kind {
	case kind.Transient:
		concrete := p.concrete
		if concrete == nil {
			concrete = ctx.MemberType
		}
		v, err := r.instantiate(concrete, nil)
		if err != nil {
			return nil, err
		}
		return []any{v}, nil
	case kind.Cached:
		v, err := p.creator.getInstance(r, ctx)
		if err != nil {
			return nil, err
		}
		return []any{v}, nil
	case kind.Instance:
		return []any{p.value}, nil
	case kind.Method:
		v, err := r.callMethod(p, ctx)
		if err != nil {
			return nil, err
		}
		return []any{v}, nil
	default:
		return nil, NewError(ErrCodeUnknown, "unknown provider kind "+p.kind.String(), nil)
	}
}

// Validate reports what would go wrong if GetInstances were called. It never
// constructs anything and never runs user factories.
func (p *Provider) Validate(r *Resolution, ctx InjectContext) iter.Seq[*Error] {
	switch p.kind {
	case kind.Transient:
		concrete := p.concrete
		if concrete == nil {
			concrete = ctx.MemberType
		}
		return r.validateObjectGraph(concrete, nil)
	case kind.Cached:
		return p.creator.validate(r)
	case kind.Method:
		if p.target != nil {
			return r.validateLookup(p, ctx)
		}
		return none
	case kind.Instance:
		return none
	default:
		return func(yield func(*Error) bool) {
			yield(NewError(ErrCodeUnknown, "unknown provider kind "+p.kind.String(), nil))
		}
	}
}

func none(func(*Error) bool) {}

func newTransientProvider(concrete reflect.Type) *Provider {
	return &Provider{kind: kind.Transient, concrete: concrete}
}

func newCachedProvider(creator *singletonCreator) *Provider {
	return &Provider{kind: kind.Cached, creator: creator}
}

func newInstanceProvider(concrete reflect.Type, value any) *Provider {
	return &Provider{kind: kind.Instance, concrete: concrete, value: value}
}

func newMethodProvider(concrete reflect.Type, fn MethodFunc) *Provider {
	return &Provider{kind: kind.Method, concrete: concrete, method: fn}
}

func newLookupProvider(contract reflect.Type, identifier string) *Provider {
	return &Provider{kind: kind.Method, concrete: contract, target: &BindingID{Type: contract, Identifier: identifier}}
}

func describeProvider(p *Provider) string {
	switch {
	case p.target != nil:
		return "lookup " + p.target.String()
	case p.kind == kind.Cached:
		return p.kind.String() + " " + p.creator.id.String()
	case p.ConcreteType() != nil:
		return p.kind.String() + " " + qreflect.Name(p.ConcreteType())
	}
	return p.kind.String()
}
