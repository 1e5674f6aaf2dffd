package quill

import (
	"fmt"
	"reflect"
	"slices"

	qreflect "github.com/danpasecinic/quill/internal/reflect"
)

// Factory is the typed form of FactoryFunc.
type Factory[T any] func(r Resolver, ctx InjectContext) (T, error)

func (f Factory[T]) untyped() FactoryFunc {
	if f == nil {
		return nil
	}
	return func(r Resolver, ctx InjectContext) (any, error) {
		return f(r, ctx)
	}
}

type BindOption func(*bindConfig)

type bindConfig struct {
	id         string
	conditions []Condition
}

// Named binds under an identifier instead of the unqualified contract.
func Named(id string) BindOption {
	return func(cfg *bindConfig) {
		cfg.id = id
	}
}

// When restricts the binding to contexts cond accepts. Several conditions
// must all hold.
func When(cond Condition) BindOption {
	return func(cfg *bindConfig) {
		cfg.conditions = append(cfg.conditions, cond)
	}
}

// WhenInjectedInto restricts the binding to members of the given types.
func WhenInjectedInto(parents ...reflect.Type) BindOption {
	return When(func(ctx InjectContext) bool {
		return slices.Contains(parents, ctx.ParentType)
	})
}

func (cfg *bindConfig) condition() Condition {
	switch len(cfg.conditions) {
	case 0:
		return nil
	case 1:
		return cfg.conditions[0]
	}
	conds := cfg.conditions
	return func(ctx InjectContext) bool {
		for _, cond := range conds {
			if !cond(ctx) {
				return false
			}
		}
		return true
	}
}

// Binder registers providers for one contract.
type Binder struct {
	c        *Container
	contract reflect.Type
	id       string
	rebind   bool
}

func Bind[T any](c *Container) *Binder {
	return BindType(c, TypeOf[T]())
}

func BindType(c *Container, contract reflect.Type) *Binder {
	return &Binder{c: c, contract: contract}
}

func (b *Binder) WithID(id string) *Binder {
	cp := *b
	cp.id = id
	return &cp
}

func (b *Binder) bind(opts []BindOption, build func(cfg *bindConfig) (*Provider, error)) error {
	if b.contract == nil {
		return newError(ErrCodeBindFailed, "cannot bind a nil contract type", nil)
	}

	cfg := &bindConfig{id: b.id}
	for _, opt := range opts {
		opt(cfg)
	}
	id := BindingID{Type: b.contract, Identifier: cfg.id}

	if b.rebind {
		return b.c.internal.Rebind(id, cfg.condition(), func() (*Provider, error) {
			return build(cfg)
		})
	}

	p, err := build(cfg)
	if err != nil {
		return err
	}

	b.c.internal.RegisterProvider(p, id, cfg.condition())
	return nil
}

func (b *Binder) derives(concrete reflect.Type) error {
	if concrete == nil {
		return newError(ErrCodeBindFailed, "cannot bind "+qreflect.Name(b.contract)+" to a nil type", nil)
	}
	if !qreflect.DerivesFromOrEqual(concrete, b.contract) {
		return newError(
			ErrCodeInvalidType,
			fmt.Sprintf("type '%s' does not derive from contract '%s'", qreflect.Name(concrete), qreflect.Name(b.contract)),
			nil,
		).WithService(qreflect.Name(b.contract))
	}
	return nil
}

// ToTransient builds a new instance of the contract type on every resolve.
func (b *Binder) ToTransient(opts ...BindOption) error {
	return b.ToTransientType(b.contract, opts...)
}

func (b *Binder) ToTransientType(concrete reflect.Type, opts ...BindOption) error {
	return b.bind(opts, func(*bindConfig) (*Provider, error) {
		if err := b.derives(concrete); err != nil {
			return nil, err
		}
		return b.c.internal.TransientProvider(concrete)
	})
}

// ToSingle shares one lazily built instance of the contract type.
func (b *Binder) ToSingle(opts ...BindOption) error {
	return b.ToSingleType(b.contract, opts...)
}

// ToSingleType shares the instance of concrete with every other binding to
// the same concrete type.
func (b *Binder) ToSingleType(concrete reflect.Type, opts ...BindOption) error {
	return b.ToSingleNamed("", concrete, opts...)
}

// ToSingleNamed shares the instance only with bindings that use the same
// singleton identifier.
func (b *Binder) ToSingleNamed(singletonID string, concrete reflect.Type, opts ...BindOption) error {
	return b.bind(opts, func(*bindConfig) (*Provider, error) {
		if err := b.derives(concrete); err != nil {
			return nil, err
		}
		return b.c.internal.SingletonProvider(singletonID, concrete)
	})
}

// ToSingleFrom shares the instance of concrete only with bindings that name
// the same source. source must be comparable.
func (b *Binder) ToSingleFrom(source any, concrete reflect.Type, opts ...BindOption) error {
	return b.bind(opts, func(*bindConfig) (*Provider, error) {
		if err := b.derives(concrete); err != nil {
			return nil, err
		}
		return b.c.internal.SingletonProviderFrom("", concrete, source)
	})
}

func (b *Binder) ToInstance(instance any, opts ...BindOption) error {
	return b.bind(opts, func(*bindConfig) (*Provider, error) {
		concrete, err := b.instanceType(instance)
		if err != nil {
			return nil, err
		}
		return b.c.internal.InstanceProvider(concrete, instance)
	})
}

// ToSingleInstance registers instance as the shared singleton of its type.
// The container never closes it.
func (b *Binder) ToSingleInstance(instance any, opts ...BindOption) error {
	return b.bind(opts, func(*bindConfig) (*Provider, error) {
		concrete, err := b.instanceType(instance)
		if err != nil {
			return nil, err
		}
		return b.c.internal.SingletonInstanceProvider("", concrete, instance)
	})
}

func (b *Binder) instanceType(instance any) (reflect.Type, error) {
	if instance == nil {
		return b.contract, nil
	}
	concrete := reflect.TypeOf(instance)
	if err := b.derives(concrete); err != nil {
		return nil, err
	}
	return concrete, nil
}

// ToMethod calls fn on every resolve.
func (b *Binder) ToMethod(fn FactoryFunc, opts ...BindOption) error {
	return b.bind(opts, func(*bindConfig) (*Provider, error) {
		return b.c.internal.MethodProvider(b.contract, fn)
	})
}

// ToSingleMethod calls fn once and shares the result. A second factory for
// the same contract and identifier is rejected.
func (b *Binder) ToSingleMethod(fn FactoryFunc, opts ...BindOption) error {
	return b.bind(opts, func(cfg *bindConfig) (*Provider, error) {
		return b.c.internal.SingletonMethodProvider(cfg.id, b.contract, fn)
	})
}

// ToLookup forwards the contract to the binding registered under id.
func (b *Binder) ToLookup(id string, opts ...BindOption) error {
	return b.bind(opts, func(*bindConfig) (*Provider, error) {
		return b.c.internal.LookupProvider(b.contract, id)
	})
}

func BindTransient[C, T any](c *Container, opts ...BindOption) error {
	return Bind[C](c).ToTransientType(TypeOf[T](), opts...)
}

func BindSingle[C, T any](c *Container, opts ...BindOption) error {
	return Bind[C](c).ToSingleType(TypeOf[T](), opts...)
}

func BindInstance[T any](c *Container, instance T, opts ...BindOption) error {
	return Bind[T](c).ToInstance(instance, opts...)
}

func BindMethod[T any](c *Container, fn Factory[T], opts ...BindOption) error {
	return Bind[T](c).ToMethod(fn.untyped(), opts...)
}

func BindSingleMethod[T any](c *Container, fn Factory[T], opts ...BindOption) error {
	return Bind[T](c).ToSingleMethod(fn.untyped(), opts...)
}
