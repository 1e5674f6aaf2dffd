package quill_test

import (
	"errors"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/quill"
)

type Config struct {
	Port int
	Host string
}

type Database struct {
	Config *Config `inject:""`
	Name   string
}

type Server struct {
	DB     *Database `inject:""`
	Config *Config   `inject:""`
}

type Store interface {
	Get(key string) string
}

type memStore struct {
	data map[string]string
}

func (s *memStore) Get(key string) string {
	return s.data[key]
}

type Handler struct {
	Store  Store   `inject:""`
	Stores []Store `inject:",optional"`
	Config *Config `inject:"public,optional"`
}

type CycleA struct {
	B *CycleB `inject:""`
}

type CycleB struct {
	A *CycleA `inject:""`
}

func newContainer(opts ...quill.Option) *quill.Container {
	opts = append([]quill.Option{quill.WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	return quill.New(opts...)
}

func TestNew(t *testing.T) {
	t.Parallel()

	c := newContainer()
	require.NotNil(t, c)
	assert.NotEmpty(t, c.ID())
	assert.NotEqual(t, c.ID(), newContainer().ID())
	assert.Equal(t, 0, c.Size())

	named := newContainer(quill.WithID("api"))
	assert.Equal(t, "api", named.ID())
}

func TestBindAndResolve(t *testing.T) {
	t.Parallel()

	c := newContainer()

	require.NoError(t, quill.BindInstance(c, &Config{Port: 8080, Host: "localhost"}))
	require.NoError(t, quill.Bind[*Database](c).ToTransient())
	require.NoError(t, quill.Bind[*Server](c).ToSingle())

	srv, err := quill.Resolve[*Server](c)
	require.NoError(t, err)
	assert.Equal(t, 8080, srv.Config.Port)
	assert.Same(t, srv.Config, srv.DB.Config)

	again := quill.MustResolve[*Server](c)
	assert.Same(t, srv, again)

	db1 := quill.MustResolve[*Database](c)
	db2 := quill.MustResolve[*Database](c)
	assert.NotSame(t, db1, db2)
}

func TestIdentifierScoping(t *testing.T) {
	t.Parallel()

	binders := map[string]func(c *quill.Container) error{
		"transient": func(c *quill.Container) error {
			return quill.BindTransient[Store, *memStore](c, quill.Named("foo"))
		},
		"single": func(c *quill.Container) error {
			return quill.BindSingle[Store, *memStore](c, quill.Named("foo"))
		},
		"method": func(c *quill.Container) error {
			return quill.BindMethod(c, func(quill.Resolver, quill.InjectContext) (Store, error) {
				return &memStore{}, nil
			}, quill.Named("foo"))
		},
	}

	for name, bind := range binders {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c := newContainer()
			require.NoError(t, bind(c))

			_, err := quill.Resolve[Store](c)
			require.Error(t, err)
			assert.True(t, quill.IsResolveError(err))
			assert.True(t, quill.IsNotFound(err))

			s, err := quill.ResolveNamed[Store](c, "foo")
			require.NoError(t, err)
			assert.NotNil(t, s)

			assert.Empty(t, quill.ValidateResolveNamed[Store](c, "foo"))
			assert.NotEmpty(t, quill.ValidateResolve[Store](c))
		})
	}
}

func TestAmbiguousBindings(t *testing.T) {
	t.Parallel()

	c := newContainer()
	require.NoError(t, quill.Bind[Store](c).WithID("foo").ToInstance(&memStore{data: map[string]string{"k": "a"}}))
	require.NoError(t, quill.Bind[Store](c).WithID("foo").ToInstance(&memStore{data: map[string]string{"k": "b"}}))

	_, err := quill.Resolve[Store](c)
	assert.True(t, quill.IsResolveError(err))

	_, err = quill.ResolveNamed[Store](c, "foo")
	assert.True(t, quill.IsAmbiguous(err))

	all, err := quill.ResolveManyNamed[Store](c, "foo")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Get("k"))
	assert.Equal(t, "b", all[1].Get("k"))
}

func TestCollectionsAndOptionalMembers(t *testing.T) {
	t.Parallel()

	c := newContainer()
	require.NoError(t, quill.Bind[Store](c).ToInstance(&memStore{}))
	require.NoError(t, quill.Bind[*Handler](c).ToTransient())

	h, err := quill.Resolve[*Handler](c)
	require.NoError(t, err)
	assert.NotNil(t, h.Store)
	assert.Len(t, h.Stores, 1)
	assert.Nil(t, h.Config)

	require.NoError(t, quill.Bind[*Config](c).WithID("public").ToInstance(&Config{Port: 443}))
	h, err = quill.Resolve[*Handler](c)
	require.NoError(t, err)
	require.NotNil(t, h.Config)
	assert.Equal(t, 443, h.Config.Port)
}

func TestResolveOptional(t *testing.T) {
	t.Parallel()

	c := newContainer()

	opt, err := quill.ResolveOptional[*Config](c)
	require.NoError(t, err)
	assert.False(t, opt.Present())
	assert.Equal(t, 1, opt.OrElse(&Config{Port: 1}).Port)

	require.NoError(t, quill.BindInstance(c, &Config{Port: 2}))
	opt, err = quill.ResolveOptional[*Config](c)
	require.NoError(t, err)
	v, ok := opt.Get()
	require.True(t, ok)
	assert.Equal(t, 2, v.Port)

	require.NoError(t, quill.BindInstance(c, &Config{Port: 3}))
	_, err = quill.ResolveOptional[*Config](c)
	assert.True(t, quill.IsAmbiguous(err))
}

func TestCycles(t *testing.T) {
	t.Parallel()

	c := newContainer()
	require.NoError(t, quill.Bind[*CycleA](c).ToTransient())
	require.NoError(t, quill.Bind[*CycleB](c).ToSingle())

	_, err := quill.Resolve[*CycleA](c)
	require.Error(t, err)
	assert.True(t, quill.IsResolveError(err))
	assert.True(t, quill.IsCycleError(err))

	errs := quill.ValidateResolve[*CycleA](c)
	require.Len(t, errs, 1)
	assert.True(t, quill.IsCycleError(errs[0]))

	err = c.Validate()
	require.Error(t, err)
	assert.True(t, quill.IsValidationFailed(err))
	assert.True(t, quill.IsCycleError(err))
}

func TestValidateObjectGraph(t *testing.T) {
	t.Parallel()

	c := newContainer()

	assert.Empty(t, quill.ValidateObjectGraph[*Config](c))

	errs := quill.ValidateObjectGraph[*Database](c)
	require.Len(t, errs, 1)
	assert.True(t, quill.IsNotFound(errs[0]))
	assert.Contains(t, errs[0].Error(), "*quill_test.Config")

	assert.Empty(t, quill.ValidateObjectGraph[*Database](c, quill.TypeOf[*Config]()))

	errs = quill.ValidateObjectGraph[*Config](c, reflect.TypeOf(""))
	require.Len(t, errs, 1)
	assert.True(t, quill.IsBindError(errs[0]))
	assert.Equal(t, quill.ErrCodeUnusedExtras, quill.CodeOf(errs[0]))
}

func TestInstantiate(t *testing.T) {
	t.Parallel()

	c := newContainer()
	cfg := &Config{Port: 9000}

	db, err := quill.Instantiate[*Database](c, cfg)
	require.NoError(t, err)
	assert.Same(t, cfg, db.Config)

	_, err = quill.Instantiate[*Database](c, cfg, 42)
	require.Error(t, err)
	assert.True(t, quill.IsBindError(err))

	_, err = quill.Instantiate[Store](c)
	require.Error(t, err)
	assert.Equal(t, quill.ErrCodeNotConstructible, quill.CodeOf(err))
}

func TestInjectInto(t *testing.T) {
	t.Parallel()

	c := newContainer()
	require.NoError(t, quill.BindInstance(c, &Config{Port: 1}))

	db := &Database{Name: "existing"}
	require.NoError(t, quill.InjectInto(c, db))
	assert.Equal(t, 1, db.Config.Port)
	assert.Equal(t, "existing", db.Name)

	assert.Error(t, quill.InjectInto(c, Database{}))
}

func TestBindErrors(t *testing.T) {
	t.Parallel()

	c := newContainer()

	err := quill.Bind[Store](c).ToTransient()
	assert.True(t, quill.IsBindError(err))
	assert.Equal(t, quill.ErrCodeNotConstructible, quill.CodeOf(err))

	err = quill.Bind[Store](c).ToTransientType(quill.TypeOf[*Config]())
	assert.Equal(t, quill.ErrCodeInvalidType, quill.CodeOf(err))

	err = quill.Bind[Store](c).ToInstance(&Config{})
	assert.Equal(t, quill.ErrCodeInvalidType, quill.CodeOf(err))

	err = quill.Bind[*Config](c).ToInstance(nil)
	assert.Equal(t, quill.ErrCodeNullInstance, quill.CodeOf(err))

	err = quill.BindInstance[*Config](c, nil)
	assert.Equal(t, quill.ErrCodeNullInstance, quill.CodeOf(err))

	err = quill.BindType(c, nil).ToTransient()
	assert.True(t, quill.IsBindError(err))

	err = quill.Bind[*Config](c).ToMethod(nil)
	assert.True(t, quill.IsBindError(err))

	assert.Equal(t, 0, c.Size())
}

func TestAllowNullBindings(t *testing.T) {
	t.Parallel()

	c := newContainer(quill.WithAllowNullBindings(true))
	require.NoError(t, quill.Bind[*Config](c).ToInstance(nil))

	cfg, err := quill.Resolve[*Config](c)
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestSingletonSharing(t *testing.T) {
	t.Parallel()

	c := newContainer()
	require.NoError(t, quill.BindSingle[Store, *memStore](c))
	require.NoError(t, quill.BindSingle[*memStore, *memStore](c))
	require.NoError(t, quill.Bind[Store](c).WithID("isolated").ToSingleNamed("other", quill.TypeOf[*memStore]()))

	viaInterface := quill.MustResolve[Store](c)
	viaConcrete := quill.MustResolve[*memStore](c)
	isolated := quill.MustResolveNamed[Store](c, "isolated")

	assert.Same(t, viaInterface.(*memStore), viaConcrete)
	assert.NotSame(t, viaConcrete, isolated.(*memStore))
}

func TestSingletonInstanceDuplicate(t *testing.T) {
	t.Parallel()

	c := newContainer()
	require.NoError(t, quill.Bind[*Config](c).ToSingleInstance(&Config{}))

	err := quill.Bind[*Config](c).WithID("again").ToSingleInstance(&Config{})
	require.Error(t, err)
	assert.Equal(t, quill.ErrCodeDuplicateSingleton, quill.CodeOf(err))
}

func TestSingleMethod(t *testing.T) {
	t.Parallel()

	c := newContainer()

	var calls atomic.Int32
	require.NoError(t, quill.BindSingleMethod(c, func(r quill.Resolver, _ quill.InjectContext) (*Config, error) {
		calls.Add(1)
		return &Config{Port: 80}, nil
	}))

	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() {
			_, err := quill.Resolve[*Config](c)
			assert.NoError(t, err)
		})
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())

	err := quill.BindSingleMethod(c, func(quill.Resolver, quill.InjectContext) (*Config, error) {
		return nil, nil
	})
	assert.Equal(t, quill.ErrCodeDuplicateSingleton, quill.CodeOf(err))
}

func TestMethodFailure(t *testing.T) {
	t.Parallel()

	c := newContainer()
	boom := errors.New("boom")
	require.NoError(t, quill.BindMethod(c, func(quill.Resolver, quill.InjectContext) (*Config, error) {
		return nil, boom
	}))

	_, err := quill.Resolve[*Config](c)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, quill.ErrCodeProviderFailed, quill.CodeOf(err))
}

func TestToLookup(t *testing.T) {
	t.Parallel()

	c := newContainer()
	primary := &memStore{data: map[string]string{"name": "primary"}}
	require.NoError(t, quill.Bind[Store](c).WithID("primary").ToInstance(primary))
	require.NoError(t, quill.Bind[Store](c).ToLookup("primary"))

	s, err := quill.Resolve[Store](c)
	require.NoError(t, err)
	assert.Equal(t, "primary", s.Get("name"))
}

func TestLookupCycle(t *testing.T) {
	t.Parallel()

	c := newContainer()
	require.NoError(t, quill.Bind[Store](c).ToLookup("a"))
	require.NoError(t, quill.Bind[Store](c).WithID("a").ToLookup(""))

	errs := quill.ValidateResolve[Store](c)
	require.Len(t, errs, 1)
	assert.True(t, quill.IsCycleError(errs[0]))
	assert.Contains(t, errs[0].Error(), "Store -> ")

	err := c.Validate()
	require.Error(t, err)
	assert.True(t, quill.IsValidationFailed(err))

	_, err = quill.Resolve[Store](c)
	require.Error(t, err)
	assert.True(t, quill.IsCycleError(err))

	_, err = quill.ResolveNamed[Store](c, "a")
	assert.True(t, quill.IsCycleError(err))
}

func TestLookupValidatesTarget(t *testing.T) {
	t.Parallel()

	c := newContainer()
	require.NoError(t, quill.Bind[*Server](c).ToLookup("main"))

	errs := quill.ValidateResolve[*Server](c)
	require.Len(t, errs, 1)
	assert.True(t, quill.IsNotFound(errs[0]))

	require.NoError(t, quill.Bind[*Server](c).WithID("main").ToTransient())
	errs = quill.ValidateResolve[*Server](c)
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.True(t, quill.IsNotFound(err))
	}
}

func TestFactoryResolvingItself(t *testing.T) {
	t.Parallel()

	c := newContainer()
	require.NoError(t, quill.BindMethod(c, func(r quill.Resolver, ctx quill.InjectContext) (*Config, error) {
		v, err := r.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		return v.(*Config), nil
	}))

	_, err := quill.Resolve[*Config](c)
	require.Error(t, err)
	assert.True(t, quill.IsCycleError(err))
}

func TestToSingleFrom(t *testing.T) {
	t.Parallel()

	c := newContainer()
	require.NoError(t, quill.BindInstance(c, &Config{}))
	require.NoError(t, quill.Bind[*Database](c).ToSingleFrom("east", quill.TypeOf[*Database]()))
	require.NoError(t, quill.Bind[*Database](c).WithID("replica").ToSingleFrom("east", quill.TypeOf[*Database]()))
	require.NoError(t, quill.Bind[*Database](c).WithID("west").ToSingleFrom("west", quill.TypeOf[*Database]()))

	east := quill.MustResolve[*Database](c)
	assert.Same(t, east, quill.MustResolveNamed[*Database](c, "replica"))
	assert.NotSame(t, east, quill.MustResolveNamed[*Database](c, "west"))

	err := quill.Bind[*Database](c).WithID("bad").ToSingleFrom([]string{"prefab"}, quill.TypeOf[*Database]())
	require.Error(t, err)
	assert.True(t, quill.IsBindError(err))
	assert.False(t, quill.HasBindingNamed[*Database](c, "bad"))
}

func TestConditions(t *testing.T) {
	t.Parallel()

	c := newContainer()
	require.NoError(t, quill.BindInstance(c, &Config{Port: 1}, quill.WhenInjectedInto(quill.TypeOf[*Database]())))
	require.NoError(t, quill.BindInstance(c, &Config{Port: 2}, quill.WhenInjectedInto(quill.TypeOf[*Server]())))
	require.NoError(t, quill.Bind[*Database](c).ToTransient())
	require.NoError(t, quill.Bind[*Server](c).ToTransient())

	srv, err := quill.Resolve[*Server](c)
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Config.Port)
	assert.Equal(t, 1, srv.DB.Config.Port)

	_, err = quill.Resolve[*Config](c)
	assert.True(t, quill.IsNotFound(err))

	require.NoError(t, quill.BindInstance(c, &Config{Port: 3},
		quill.When(func(ctx quill.InjectContext) bool { return ctx.ParentType == nil }),
		quill.When(func(ctx quill.InjectContext) bool { return ctx.Identifier == "" }),
	))
	cfg, err := quill.Resolve[*Config](c)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Port)
}

func TestAutoConstruct(t *testing.T) {
	t.Parallel()

	c := newContainer(quill.WithAutoConstruct())
	require.NoError(t, quill.BindInstance(c, &Config{Port: 5}))

	srv, err := quill.Resolve[*Server](c)
	require.NoError(t, err)
	assert.Equal(t, 5, srv.DB.Config.Port)
	assert.Empty(t, quill.ValidateResolve[*Server](c))
}

func TestFallback(t *testing.T) {
	t.Parallel()

	var asked []reflect.Type
	c := newContainer(quill.WithFallback(func(r quill.Resolver, ctx quill.InjectContext) (any, error) {
		asked = append(asked, ctx.MemberType)
		return &Config{Port: 7}, nil
	}))

	db, err := quill.Instantiate[*Database](c)
	require.NoError(t, err)
	assert.Equal(t, 7, db.Config.Port)
	assert.Equal(t, []reflect.Type{quill.TypeOf[*Config]()}, asked)
}

func TestKeys(t *testing.T) {
	t.Parallel()

	c := newContainer()
	require.NoError(t, quill.BindInstance(c, &Config{}))
	require.NoError(t, quill.BindInstance(c, &Config{}, quill.Named("b")))
	require.NoError(t, quill.Bind[*Database](c).ToTransient())

	keys := c.Keys()
	require.Len(t, keys, 3)
	assert.Contains(t, keys[0], "quill_test.Config")
	assert.Contains(t, keys[1], "quill_test.Config#b")
	assert.Contains(t, keys[2], "quill_test.Database")
	assert.True(t, quill.HasBinding[*Database](c))
	assert.True(t, quill.HasBindingNamed[*Config](c, "b"))
	assert.False(t, quill.HasBindingNamed[*Database](c, "b"))
	assert.Len(t, c.Bindings(), 3)
}

func TestValidateAll(t *testing.T) {
	t.Parallel()

	c := newContainer()
	require.NoError(t, quill.Bind[*Server](c).ToTransient())
	require.NoError(t, quill.Bind[*Database](c).ToSingle())

	errs := c.ValidateAll()
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.True(t, quill.IsNotFound(err))
	}

	require.NoError(t, quill.BindInstance(c, &Config{}))
	assert.Empty(t, c.ValidateAll())
	assert.NoError(t, c.Validate())
}
