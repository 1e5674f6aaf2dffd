package quill

import (
	"log/slog"
	"reflect"

	"github.com/google/uuid"

	"github.com/danpasecinic/quill/internal/container"
	qreflect "github.com/danpasecinic/quill/internal/reflect"
)

type (
	BindingID     = container.BindingID
	InjectContext = container.InjectContext
	Provider      = container.Provider
	Resolver      = container.Resolver
	Condition     = container.Condition
	SingletonID   = container.SingletonID
	Analyzer      = qreflect.Analyzer
	InjectSource  = container.InjectSource
)

const (
	SourceConstructor = container.SourceConstructor
	SourceField       = container.SourceField
	SourceProperty    = container.SourceProperty
)

// FactoryFunc builds an instance for ctx. Resolutions made through r join
// the resolution that called the factory.
type FactoryFunc = container.MethodFunc

type Container struct {
	internal *container.Container
	analyzer *Analyzer
	logger   *slog.Logger
}

type containerConfig struct {
	id            string
	logger        *slog.Logger
	allowNull     bool
	autoConstruct bool
	fallback      FactoryFunc
	analyzer      *Analyzer
	onResolve     []ResolveHook
	onBind        []BindHook
	onUnbind      []UnbindHook
}

func New(opts ...Option) *Container {
	cfg := &containerConfig{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}
	if cfg.analyzer == nil {
		cfg.analyzer = NewAnalyzer()
	}

	internal := container.New(
		&container.Config{
			ID:                cfg.id,
			Logger:            cfg.logger,
			AllowNullBindings: cfg.allowNull,
			Analyzer:          cfg.analyzer,
			OnResolve:         cfg.onResolve,
			OnBind:            cfg.onBind,
			OnUnbind:          cfg.onUnbind,
		},
	)

	c := &Container{
		internal: internal,
		analyzer: cfg.analyzer,
		logger:   cfg.logger.With("container", cfg.id),
	}

	switch {
	case cfg.fallback != nil:
		p, _ := internal.MethodProvider(nil, cfg.fallback)
		internal.SetFallback(p)
	case cfg.autoConstruct:
		p, _ := internal.TransientProvider(nil)
		internal.SetFallback(p)
	}

	return c
}

func NewAnalyzer() *Analyzer {
	return qreflect.NewAnalyzer()
}

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return qreflect.TypeOf[T]()
}

func (c *Container) ID() string {
	return c.internal.ID()
}

func (c *Container) Size() int {
	return c.internal.Size()
}

// Keys lists the registered contracts in the order they were first bound.
func (c *Container) Keys() []string {
	ids := c.internal.IDs()
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	return keys
}

func (c *Container) Bindings() []container.BindingInfo {
	return c.internal.Bindings()
}

func (c *Container) Analyzer() *Analyzer {
	return c.analyzer
}

// Internal exposes the engine to the quilltest helpers.
func (c *Container) Internal() *container.Container {
	return c.internal
}

func (c *Container) RegisterProvider(p *Provider, id BindingID, condition Condition) {
	c.internal.RegisterProvider(p, id, condition)
}

func (c *Container) SetFallback(p *Provider) {
	c.internal.SetFallback(p)
}

func (c *Container) TransientProvider(concrete reflect.Type) (*Provider, error) {
	return c.internal.TransientProvider(concrete)
}

func (c *Container) SingletonProvider(identifier string, concrete reflect.Type) (*Provider, error) {
	return c.internal.SingletonProvider(identifier, concrete)
}

// SingletonProviderFrom keys the shared instance by source as well, so
// bindings built from different external handles do not share one. source
// must be comparable.
func (c *Container) SingletonProviderFrom(identifier string, concrete reflect.Type, source any) (*Provider, error) {
	return c.internal.SingletonProviderFrom(identifier, concrete, source)
}

func (c *Container) InstanceProvider(concrete reflect.Type, instance any) (*Provider, error) {
	return c.internal.InstanceProvider(concrete, instance)
}

func (c *Container) MethodProvider(concrete reflect.Type, fn FactoryFunc) (*Provider, error) {
	return c.internal.MethodProvider(concrete, fn)
}

func (c *Container) SingletonMethodProvider(identifier string, concrete reflect.Type, fn FactoryFunc) (*Provider, error) {
	return c.internal.SingletonMethodProvider(identifier, concrete, fn)
}

func (c *Container) SingletonInstanceProvider(identifier string, concrete reflect.Type, instance any) (*Provider, error) {
	return c.internal.SingletonInstanceProvider(identifier, concrete, instance)
}

// Validate checks every binding and joins the problems into one error.
func (c *Container) Validate() error {
	if errs := c.internal.ValidateAll(); len(errs) > 0 {
		return errValidationFailed(errs)
	}
	return nil
}

// ValidateAll lists the problems of every binding without stopping at the
// first one.
func (c *Container) ValidateAll() []error {
	return c.internal.ValidateAll()
}
