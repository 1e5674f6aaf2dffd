package benchmark

import (
	"log/slog"

	"github.com/samber/do/v2"
	"go.uber.org/dig"
	"go.uber.org/fx"

	"github.com/danpasecinic/quill"
)

func newQuill() *quill.Container {
	return quill.New(quill.WithLogger(slog.New(slog.DiscardHandler)))
}

// chainQuill binds the Service graph. Leaves are instances; the rest are
// shared singletons unless transient is set.
func chainQuill(transient bool) *quill.Container {
	c := newQuill()
	_ = quill.BindInstance(c, &Config{Host: "localhost", Port: 8080})
	_ = quill.BindInstance(c, &Logger{Level: "info"})

	bind := func(b *quill.Binder) error { return b.ToSingle() }
	if transient {
		bind = func(b *quill.Binder) error { return b.ToTransient() }
	}
	_ = bind(quill.Bind[*Database](c))
	_ = bind(quill.Bind[*Cache](c))
	_ = bind(quill.Bind[*Repository](c))
	_ = bind(quill.Bind[*Service](c))
	return c
}

func chainDo(transient bool) do.Injector {
	injector := do.New()
	do.ProvideValue(injector, &Config{Host: "localhost", Port: 8080})
	do.ProvideValue(injector, &Logger{Level: "info"})

	if transient {
		do.ProvideTransient(injector, newDatabaseDo)
		do.ProvideTransient(injector, newCacheDo)
		do.ProvideTransient(injector, newRepositoryDo)
		do.ProvideTransient(injector, newServiceDo)
		return injector
	}
	do.Provide(injector, newDatabaseDo)
	do.Provide(injector, newCacheDo)
	do.Provide(injector, newRepositoryDo)
	do.Provide(injector, newServiceDo)
	return injector
}

func newDatabaseDo(i do.Injector) (*Database, error) {
	return &Database{Config: do.MustInvoke[*Config](i), Logger: do.MustInvoke[*Logger](i)}, nil
}

func newCacheDo(i do.Injector) (*Cache, error) {
	return &Cache{Logger: do.MustInvoke[*Logger](i)}, nil
}

func newRepositoryDo(i do.Injector) (*Repository, error) {
	return &Repository{DB: do.MustInvoke[*Database](i), Cache: do.MustInvoke[*Cache](i)}, nil
}

func newServiceDo(i do.Injector) (*Service, error) {
	return &Service{Repo: do.MustInvoke[*Repository](i), Logger: do.MustInvoke[*Logger](i)}, nil
}

var chainConstructors = []any{
	func() *Config { return &Config{Host: "localhost", Port: 8080} },
	func() *Logger { return &Logger{Level: "info"} },
	func(cfg *Config, log *Logger) *Database { return &Database{Config: cfg, Logger: log} },
	func(log *Logger) *Cache { return &Cache{Logger: log} },
	func(db *Database, cache *Cache) *Repository { return &Repository{DB: db, Cache: cache} },
	func(repo *Repository, log *Logger) *Service { return &Service{Repo: repo, Logger: log} },
}

func chainDig(opts ...dig.Option) *dig.Container {
	c := dig.New(opts...)
	for _, ctor := range chainConstructors {
		_ = c.Provide(ctor)
	}
	return c
}

func chainFx() []fx.Option {
	opts := []fx.Option{fx.NopLogger}
	for _, ctor := range chainConstructors {
		opts = append(opts, fx.Provide(ctor))
	}
	return opts
}
