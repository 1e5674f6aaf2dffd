package quill

import "log/slog"

type Option func(*containerConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *containerConfig) {
		cfg.logger = logger
	}
}

// WithID overrides the generated container ID.
func WithID(id string) Option {
	return func(cfg *containerConfig) {
		cfg.id = id
	}
}

// WithAllowNullBindings permits nil instances in ToInstance and
// ToSingleInstance bindings.
func WithAllowNullBindings(allow bool) Option {
	return func(cfg *containerConfig) {
		cfg.allowNull = allow
	}
}

// WithAutoConstruct makes unbound concrete types resolvable by building
// them directly.
func WithAutoConstruct() Option {
	return func(cfg *containerConfig) {
		cfg.autoConstruct = true
	}
}

// WithFallback consults fn for any contract with no matching binding.
func WithFallback(fn FactoryFunc) Option {
	return func(cfg *containerConfig) {
		cfg.fallback = fn
	}
}

// WithTypeAnalyzer shares an analyzer, and the constructors registered on
// it, between containers.
func WithTypeAnalyzer(analyzer *Analyzer) Option {
	return func(cfg *containerConfig) {
		cfg.analyzer = analyzer
	}
}

func WithResolveObserver(hook ResolveHook) Option {
	return func(cfg *containerConfig) {
		cfg.onResolve = append(cfg.onResolve, hook)
	}
}

func WithBindObserver(hook BindHook) Option {
	return func(cfg *containerConfig) {
		cfg.onBind = append(cfg.onBind, hook)
	}
}

func WithUnbindObserver(hook UnbindHook) Option {
	return func(cfg *containerConfig) {
		cfg.onUnbind = append(cfg.onUnbind, hook)
	}
}
