package quill_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/quill"
)

type Clock interface {
	Now() int
}

type fixedClock int

func (c fixedClock) Now() int {
	return int(c)
}

type Scheduler struct {
	cfg   *Config
	clock Clock
	Tag   string
	jobs  []string
}

func NewScheduler(cfg *Config, clock Clock) *Scheduler {
	return &Scheduler{cfg: cfg, clock: clock}
}

func (s *Scheduler) InjectJobs(jobs []string) {
	s.jobs = jobs
}

type Mailer struct {
	host string
}

func (m *Mailer) InjectConfig(cfg *Config) error {
	if cfg.Host == "" {
		return errors.New("mail host required")
	}
	m.host = cfg.Host
	return nil
}

type Tracker struct {
	Clock  Clock   `inject:""`
	Config *Config `inject:"tracker"`
	skip   *Config
}

func TestBindConstructor(t *testing.T) {
	t.Parallel()

	c := newContainer()
	require.NoError(t, quill.BindInstance(c, &Config{Port: 1}))
	require.NoError(t, quill.Bind[Clock](c).ToInstance(fixedClock(42)))
	require.NoError(t, quill.BindInstance(c, []string{"a", "b"}))
	require.NoError(t, quill.BindConstructor[*Scheduler](c, NewScheduler))

	s, err := quill.Resolve[*Scheduler](c)
	require.NoError(t, err)
	assert.Equal(t, 1, s.cfg.Port)
	assert.Equal(t, 42, s.clock.Now())
	assert.Equal(t, []string{"a", "b"}, s.jobs)

	other := quill.MustResolve[*Scheduler](c)
	assert.NotSame(t, s, other)
}

func TestBindSingleConstructor(t *testing.T) {
	t.Parallel()

	c := newContainer()
	require.NoError(t, quill.BindInstance(c, &Config{}))
	require.NoError(t, quill.Bind[Clock](c).ToInstance(fixedClock(1)))
	require.NoError(t, quill.BindInstance(c, []string{}))
	require.NoError(t, quill.BindSingleConstructor[*Scheduler](c, NewScheduler))

	assert.Same(t, quill.MustResolve[*Scheduler](c), quill.MustResolve[*Scheduler](c))
}

func TestConstructorForInterface(t *testing.T) {
	t.Parallel()

	c := newContainer()
	require.NoError(t, quill.BindConstructor[Clock](c, func() Clock { return fixedClock(9) }))

	clock, err := quill.Resolve[Clock](c)
	require.NoError(t, err)
	assert.Equal(t, 9, clock.Now())
}

func TestConstructorError(t *testing.T) {
	t.Parallel()

	c := newContainer()
	boom := errors.New("no clock")
	require.NoError(t, quill.BindConstructor[Clock](c, func() (Clock, error) { return nil, boom }))

	_, err := quill.Resolve[Clock](c)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, quill.ErrCodeProviderFailed, quill.CodeOf(err))
}

func TestInvalidConstructor(t *testing.T) {
	t.Parallel()

	c := newContainer()

	for _, fn := range []any{nil, 42, func() {}, func() (int, int) { return 0, 0 }, func(...int) int { return 0 }} {
		_, err := quill.RegisterConstructor(c, fn)
		require.Error(t, err)
		assert.True(t, quill.IsBindError(err))
	}

	assert.Panics(t, func() {
		quill.MustBindConstructor[*Scheduler](c, "not a function")
	})
}

func TestValidateConstructorParams(t *testing.T) {
	t.Parallel()

	c := newContainer()
	require.NoError(t, quill.BindConstructor[*Scheduler](c, NewScheduler))

	errs := quill.ValidateResolve[*Scheduler](c)
	require.Len(t, errs, 3)
	for _, err := range errs {
		assert.True(t, quill.IsNotFound(err))
	}
}

func TestSetterInjection(t *testing.T) {
	t.Parallel()

	c := newContainer()
	require.NoError(t, quill.BindInstance(c, &Config{Host: "smtp.local"}))
	require.NoError(t, quill.Bind[*Mailer](c).ToTransient())

	m, err := quill.Resolve[*Mailer](c)
	require.NoError(t, err)
	assert.Equal(t, "smtp.local", m.host)

	require.NoError(t, quill.Replace(c, &Config{}))
	_, err = quill.Resolve[*Mailer](c)
	require.Error(t, err)
	assert.Equal(t, quill.ErrCodeProviderFailed, quill.CodeOf(err))
	assert.Contains(t, err.Error(), "mail host required")
}

func TestTaggedFieldIdentifiers(t *testing.T) {
	t.Parallel()

	c := newContainer()
	require.NoError(t, quill.Bind[Clock](c).ToInstance(fixedClock(3)))
	require.NoError(t, quill.BindInstance(c, &Config{Port: 1}))
	require.NoError(t, quill.BindInstance(c, &Config{Port: 2}, quill.Named("tracker")))

	tr, err := quill.Instantiate[*Tracker](c)
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Config.Port)
	assert.Nil(t, tr.skip)
}

func TestSharedAnalyzer(t *testing.T) {
	t.Parallel()

	analyzer := quill.NewAnalyzer()
	a := newContainer(quill.WithTypeAnalyzer(analyzer))
	_, err := quill.RegisterConstructor(a, func() Clock { return fixedClock(5) })
	require.NoError(t, err)

	b := newContainer(quill.WithTypeAnalyzer(analyzer))
	require.NoError(t, quill.Bind[Clock](b).ToTransient())
	assert.Equal(t, 5, quill.MustResolve[Clock](b).Now())
	assert.Same(t, analyzer, b.Analyzer())
}
