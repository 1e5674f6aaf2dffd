// Package quilltest wraps a container with helpers that fail the test
// instead of returning errors.
package quilltest

import (
	"errors"
	"log/slog"

	"github.com/danpasecinic/quill"
	qreflect "github.com/danpasecinic/quill/internal/reflect"
)

type TB interface {
	Helper()
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Cleanup(f func())
}

type TestContainer struct {
	*quill.Container
	tb TB
}

// New returns a container that logs nowhere and is closed when the test
// ends.
func New(tb TB, opts ...quill.Option) *TestContainer {
	tb.Helper()

	opts = append([]quill.Option{quill.WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	c := quill.New(opts...)
	tc := &TestContainer{
		Container: c,
		tb:        tb,
	}

	tb.Cleanup(func() {
		if err := c.Close(); err != nil {
			tb.Fatalf("failed to close container: %v", err)
		}
	})

	return tc
}

func (tc *TestContainer) RequireValid() {
	tc.tb.Helper()

	if err := tc.Validate(); err != nil {
		tc.tb.Fatalf("container validation failed: %v", err)
	}
}

// RequireResolvable fails unless T validates without errors.
func RequireResolvable[T any](tc *TestContainer) {
	tc.tb.Helper()

	if errs := quill.ValidateResolve[T](tc.Container); len(errs) > 0 {
		tc.tb.Fatalf("%s is not resolvable: %v", key[T](""), errors.Join(errs...))
	}
}

func Replace[T any](tc *TestContainer, value T) {
	tc.tb.Helper()
	ReplaceNamed(tc, "", value)
}

func ReplaceNamed[T any](tc *TestContainer, name string, value T) {
	tc.tb.Helper()

	if err := quill.Replace(tc.Container, value, quill.Named(name)); err != nil {
		tc.tb.Fatalf("failed to replace %s: %v", key[T](name), err)
	}
}

func ReplaceMethod[T any](tc *TestContainer, fn quill.Factory[T]) {
	tc.tb.Helper()

	if err := quill.ReplaceMethod(tc.Container, fn); err != nil {
		tc.tb.Fatalf("failed to replace method %s: %v", key[T](""), err)
	}
}

func AssertHas[T any](tc *TestContainer) {
	tc.tb.Helper()

	if !quill.HasBinding[T](tc.Container) {
		tc.tb.Fatalf("expected container to have %s", key[T](""))
	}
}

func AssertHasNamed[T any](tc *TestContainer, name string) {
	tc.tb.Helper()

	if !quill.HasBindingNamed[T](tc.Container, name) {
		tc.tb.Fatalf("expected container to have %s", key[T](name))
	}
}

func AssertNotHas[T any](tc *TestContainer) {
	tc.tb.Helper()

	if quill.HasBinding[T](tc.Container) {
		tc.tb.Fatalf("expected container to not have %s", key[T](""))
	}
}

func MustResolve[T any](tc *TestContainer) T {
	tc.tb.Helper()
	return MustResolveNamed[T](tc, "")
}

func MustResolveNamed[T any](tc *TestContainer, name string) T {
	tc.tb.Helper()

	v, err := quill.ResolveNamed[T](tc.Container, name)
	if err != nil {
		tc.tb.Fatalf("failed to resolve %s: %v", key[T](name), err)
	}
	return v
}

func MustBindInstance[T any](tc *TestContainer, value T, opts ...quill.BindOption) {
	tc.tb.Helper()

	if err := quill.BindInstance(tc.Container, value, opts...); err != nil {
		tc.tb.Fatalf("failed to bind instance %s: %v", key[T](""), err)
	}
}

func MustBindMethod[T any](tc *TestContainer, fn quill.Factory[T], opts ...quill.BindOption) {
	tc.tb.Helper()

	if err := quill.BindMethod(tc.Container, fn, opts...); err != nil {
		tc.tb.Fatalf("failed to bind method %s: %v", key[T](""), err)
	}
}

func MustBindTransient[C, T any](tc *TestContainer, opts ...quill.BindOption) {
	tc.tb.Helper()

	if err := quill.BindTransient[C, T](tc.Container, opts...); err != nil {
		tc.tb.Fatalf("failed to bind %s: %v", key[C](""), err)
	}
}

func MustBindSingle[C, T any](tc *TestContainer, opts ...quill.BindOption) {
	tc.tb.Helper()

	if err := quill.BindSingle[C, T](tc.Container, opts...); err != nil {
		tc.tb.Fatalf("failed to bind %s: %v", key[C](""), err)
	}
}

func key[T any](name string) string {
	return qreflect.KeyNamed(quill.TypeOf[T](), name)
}
