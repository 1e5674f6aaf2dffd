package container

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"reflect"
	"slices"
	"time"

	"github.com/danpasecinic/quill/internal/kind"
	qreflect "github.com/danpasecinic/quill/internal/reflect"
)

// TypeAnalyzer reports the injection points of a concrete type.
type TypeAnalyzer interface {
	Analyze(t reflect.Type) (*qreflect.TypeInfo, error)
	IsConstructible(t reflect.Type) bool
}

type ResolveHook func(key string, duration time.Duration, err error)

type BindHook func(key string, kind string)

type UnbindHook func(key string, removed int)

type Container struct {
	id         string
	registry   *Registry
	singletons *SingletonMap
	analyzer   TypeAnalyzer
	logger     *slog.Logger
	allowNull  bool

	onResolve []ResolveHook
	onBind    []BindHook
	onUnbind  []UnbindHook
}

type Config struct {
	ID                string
	Logger            *slog.Logger
	AllowNullBindings bool
	Analyzer          TypeAnalyzer
	OnResolve         []ResolveHook
	OnBind            []BindHook
	OnUnbind          []UnbindHook
}

func New(cfg *Config) *Container {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ID != "" {
		logger = logger.With("container", cfg.ID)
	}

	analyzer := cfg.Analyzer
	if analyzer == nil {
		analyzer = qreflect.NewAnalyzer()
	}

	return &Container{
		id:         cfg.ID,
		registry:   NewRegistry(),
		singletons: NewSingletonMap(cfg.AllowNullBindings, logger),
		analyzer:   analyzer,
		logger:     logger,
		allowNull:  cfg.AllowNullBindings,
		onResolve:  cfg.OnResolve,
		onBind:     cfg.OnBind,
		onUnbind:   cfg.OnUnbind,
	}
}

func (c *Container) ID() string {
	return c.id
}

func (c *Container) Analyzer() TypeAnalyzer {
	return c.analyzer
}

func (c *Container) Singletons() *SingletonMap {
	return c.singletons
}

func (c *Container) AllowNullBindings() bool {
	return c.allowNull
}

// RegisterProvider binds provider to id. The same provider may back several
// contracts; its singleton reference is released when the last one goes.
func (c *Container) RegisterProvider(provider *Provider, id BindingID, condition Condition) {
	provider.bound.Add(1)
	c.registry.Register(id, provider, condition)

	c.logger.Debug("binding registered", "contract", id.String(), "provider", describeProvider(provider))
	for _, hook := range c.onBind {
		hook(id.String(), provider.Kind().String())
	}
}

func (c *Container) SetFallback(provider *Provider) {
	c.registry.SetFallback(provider)
}

func (c *Container) Fallback() *Provider {
	return c.registry.Fallback()
}

func (c *Container) TransientProvider(concrete reflect.Type) (*Provider, error) {
	if concrete != nil && !c.analyzer.IsConstructible(concrete) {
		return nil, errNotConstructible(concrete, nil, nil)
	}
	return newTransientProvider(concrete), nil
}

func (c *Container) SingletonProvider(identifier string, concrete reflect.Type) (*Provider, error) {
	if !c.analyzer.IsConstructible(concrete) {
		return nil, errNotConstructible(concrete, nil, nil)
	}
	return c.singletons.ProviderFromType(SingletonID{Identifier: identifier, ConcreteType: concrete}), nil
}

// SingletonProviderFrom shares an instance keyed additionally by source, for
// instances that originate from distinct external handles.
func (c *Container) SingletonProviderFrom(identifier string, concrete reflect.Type, source any) (*Provider, error) {
	if source != nil && !reflect.ValueOf(source).Comparable() {
		return nil, NewError(
			ErrCodeBindFailed,
			fmt.Sprintf("singleton source of type '%T' is not comparable", source),
			nil,
		).WithService(qreflect.Name(concrete))
	}
	if !c.analyzer.IsConstructible(concrete) {
		return nil, errNotConstructible(concrete, nil, nil)
	}
	id := SingletonID{Identifier: identifier, ConcreteType: concrete, Source: source}
	return c.singletons.ProviderFromType(id), nil
}

func (c *Container) SingletonMethodProvider(identifier string, concrete reflect.Type, fn MethodFunc) (*Provider, error) {
	if fn == nil {
		return nil, NewError(ErrCodeBindFailed, "nil factory method for "+qreflect.Name(concrete), nil)
	}
	return c.singletons.ProviderFromMethod(SingletonID{Identifier: identifier, ConcreteType: concrete}, fn)
}

func (c *Container) SingletonInstanceProvider(identifier string, concrete reflect.Type, instance any) (*Provider, error) {
	return c.singletons.ProviderFromInstance(SingletonID{Identifier: identifier, ConcreteType: concrete}, instance)
}

func (c *Container) InstanceProvider(concrete reflect.Type, instance any) (*Provider, error) {
	if qreflect.IsNil(instance) && !c.allowNull {
		return nil, NewError(
			ErrCodeNullInstance,
			fmt.Sprintf("received nil instance for type '%s'", qreflect.Name(concrete)),
			nil,
		).WithService(qreflect.Name(concrete))
	}
	return newInstanceProvider(concrete, instance), nil
}

// LookupProvider forwards contract to the binding registered under
// identifier.
func (c *Container) LookupProvider(contract reflect.Type, identifier string) (*Provider, error) {
	if contract == nil {
		return nil, NewError(ErrCodeBindFailed, "cannot look up a nil contract type", nil)
	}
	return newLookupProvider(contract, identifier), nil
}

func (c *Container) MethodProvider(concrete reflect.Type, fn MethodFunc) (*Provider, error) {
	if fn == nil {
		return nil, NewError(ErrCodeBindFailed, "nil factory method for "+qreflect.Name(concrete), nil)
	}
	return newMethodProvider(concrete, fn), nil
}

// Unbind removes every binding for id and releases the singleton references
// they held. It reports whether anything was removed.
func (c *Container) Unbind(id BindingID) (bool, error) {
	removed := c.registry.detach(id)
	if len(removed) == 0 {
		return false, nil
	}

	err := c.releaseAll(removed)
	c.unbound(id, len(removed))
	return true, err
}

// Rebind replaces every binding for id with the provider build returns. When
// build fails the existing bindings stay in place.
func (c *Container) Rebind(id BindingID, condition Condition, build func() (*Provider, error)) error {
	p, err := build()
	if err == nil {
		_, err = c.Unbind(id)
		c.RegisterProvider(p, id, condition)
		return err
	}
	if !errors.Is(err, NewError(ErrCodeDuplicateSingleton, "", nil)) {
		return err
	}

	// The clash may be with a singleton held only by the bindings being
	// replaced. Release them and try once more.
	detached := c.registry.detach(id)
	if len(detached) == 0 {
		return err
	}
	releaseErr := c.releaseAll(detached)

	p, err = build()
	if err != nil {
		c.registry.restore(id, detached)
		for _, b := range detached {
			c.retain(b.provider)
		}
		return err
	}

	c.unbound(id, len(detached))
	c.RegisterProvider(p, id, condition)
	return releaseErr
}

func (c *Container) unbound(id BindingID, removed int) {
	c.logger.Debug("binding removed", "contract", id.String(), "providers", removed)
	for _, hook := range c.onUnbind {
		hook(id.String(), removed)
	}
}

func (c *Container) releaseAll(bindings []*binding) error {
	var errs []error
	for _, b := range bindings {
		if err := c.release(b.provider); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Container) release(p *Provider) error {
	if p.bound.Add(-1) > 0 {
		return nil
	}
	if p.Kind() != kind.Cached {
		return nil
	}
	return c.singletons.RemoveCreator(p.creator.id)
}

// retain undoes release for a provider that is registered again.
func (c *Container) retain(p *Provider) {
	if p.bound.Add(1) > 1 || p.Kind() != kind.Cached {
		return
	}
	c.singletons.restore(p.creator)
}

func (c *Container) Has(id BindingID) bool {
	return c.registry.Has(id)
}

func (c *Container) IDs() []BindingID {
	return c.registry.IDs()
}

func (c *Container) Bindings() []BindingInfo {
	return c.registry.Bindings()
}

func (c *Container) Size() int {
	return c.registry.Size()
}

// Dependencies lists the member contexts the provider would request,
// or nil when they are not known without running user code.
func (c *Container) Dependencies(p *Provider) []InjectContext {
	if target, ok := p.LookupTarget(); ok {
		return []InjectContext{{MemberType: target.Type, Identifier: target.Identifier}}
	}

	concrete := p.ConcreteType()
	switch {
	case concrete == nil:
		return nil
	case p.Kind() == kind.Method || p.Kind() == kind.Instance:
		return nil
	case p.Kind() == kind.Cached && (p.creator.method != nil || p.creator.HasInstance()):
		return nil
	}

	info, err := c.analyzer.Analyze(concrete)
	if err != nil {
		return nil
	}

	members := info.AllInjectables()
	out := make([]InjectContext, len(members))
	for i, m := range members {
		out[i] = memberContext(m, concrete)
	}
	return out
}

func (c *Container) Resolve(ctx InjectContext) (any, error) {
	start := time.Now()
	v, err := c.newResolution().Resolve(ctx)
	c.callResolveHooks(ctx, time.Since(start), err)
	return v, err
}

// TryResolve is Resolve for optional contexts. found is false when nothing
// matched.
func (c *Container) TryResolve(ctx InjectContext) (any, bool, error) {
	start := time.Now()
	v, found, err := c.newResolution().resolve(ctx)
	c.callResolveHooks(ctx, time.Since(start), err)
	return v, found, err
}

func (c *Container) ResolveMany(ctx InjectContext) ([]any, error) {
	start := time.Now()
	v, err := c.newResolution().ResolveMany(ctx)
	c.callResolveHooks(ctx, time.Since(start), err)
	return v, err
}

func (c *Container) Instantiate(concrete reflect.Type, extras ...any) (any, error) {
	start := time.Now()
	v, err := c.newResolution().Instantiate(concrete, extras...)
	c.callResolveHooks(InjectContext{MemberType: concrete}, time.Since(start), err)
	return v, err
}

func (c *Container) InjectInto(target any, extras ...any) error {
	return c.newResolution().injectInto(target, extras)
}

func (c *Container) callResolveHooks(ctx InjectContext, duration time.Duration, err error) {
	if len(c.onResolve) == 0 {
		return
	}
	key := ctx.BindingID().String()
	for _, hook := range c.onResolve {
		hook(key, duration, err)
	}
}

// ValidateResolve lists every problem in the graph behind ctx. An empty
// result means ctx can be resolved.
func (c *Container) ValidateResolve(ctx InjectContext) []error {
	return collectErrors(c.newResolution().validateContract(ctx))
}

func (c *Container) ValidateObjectGraph(concrete reflect.Type, extras ...reflect.Type) []error {
	return collectErrors(c.newResolution().validateObjectGraph(concrete, extras))
}

// ValidateAll validates each registered provider on its own, so contracts
// bound more than once on purpose are not reported as ambiguous.
func (c *Container) ValidateAll() []error {
	var errs []error
	for _, b := range c.registry.Bindings() {
		ctx := InjectContext{MemberType: b.ID.Type, Identifier: b.ID.Identifier}
		errs = append(errs, collectErrors(b.Provider.Validate(c.newResolution(), ctx))...)
	}
	return errs
}

func (c *Container) Close() error {
	return c.singletons.Close()
}

func collectErrors(seq iter.Seq[*Error]) []error {
	var errs []error
	for e := range seq {
		errs = append(errs, e)
	}
	return slices.Clip(errs)
}
