package quill

import (
	"reflect"

	qreflect "github.com/danpasecinic/quill/internal/reflect"
)

func contextOf[T any](id string, optional bool) InjectContext {
	return InjectContext{MemberType: TypeOf[T](), Identifier: id, Optional: optional}
}

func typeName(v any) string {
	return qreflect.Name(reflect.TypeOf(v))
}

func cast[T any](instance any) (T, error) {
	var zero T
	if instance == nil {
		return zero, nil
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, errResolvedType(qreflect.Name(TypeOf[T]()), instance)
	}
	return typed, nil
}

func Resolve[T any](c *Container) (T, error) {
	return ResolveNamed[T](c, "")
}

func ResolveNamed[T any](c *Container, id string) (T, error) {
	instance, err := c.internal.Resolve(contextOf[T](id, false))
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](instance)
}

func MustResolve[T any](c *Container) T {
	v, err := Resolve[T](c)
	if err != nil {
		panic(err)
	}
	return v
}

func MustResolveNamed[T any](c *Container, id string) T {
	v, err := ResolveNamed[T](c, id)
	if err != nil {
		panic(err)
	}
	return v
}

type Optional[T any] struct {
	value   T
	present bool
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

func (o Optional[T]) Value() T {
	return o.value
}

func (o Optional[T]) Present() bool {
	return o.present
}

func (o Optional[T]) OrElse(defaultValue T) T {
	if o.present {
		return o.value
	}
	return defaultValue
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, present: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

// ResolveOptional returns None when the contract has no binding. Other
// failures, ambiguity included, are still returned as errors.
func ResolveOptional[T any](c *Container) (Optional[T], error) {
	return ResolveOptionalNamed[T](c, "")
}

func ResolveOptionalNamed[T any](c *Container, id string) (Optional[T], error) {
	instance, found, err := c.internal.TryResolve(contextOf[T](id, true))
	if err != nil || !found {
		return None[T](), err
	}
	typed, err := cast[T](instance)
	if err != nil {
		return None[T](), err
	}
	return Some(typed), nil
}

// ResolveMany returns the instances of every binding of T, skipping the
// ambiguity check.
func ResolveMany[T any](c *Container) ([]T, error) {
	return ResolveManyNamed[T](c, "")
}

func ResolveManyNamed[T any](c *Container, id string) ([]T, error) {
	instances, err := c.internal.ResolveMany(contextOf[T](id, false))
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(instances))
	for _, instance := range instances {
		typed, err := cast[T](instance)
		if err != nil {
			return nil, err
		}
		out = append(out, typed)
	}
	return out, nil
}

// Instantiate builds T without a binding. Extras are handed to the first
// member whose type they satisfy; any left over is an error.
func Instantiate[T any](c *Container, extras ...any) (T, error) {
	instance, err := c.internal.Instantiate(TypeOf[T](), extras...)
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](instance)
}

// InjectInto fills the tagged fields and Inject setters of an existing
// struct pointer.
func InjectInto(c *Container, target any, extras ...any) error {
	return c.internal.InjectInto(target, extras...)
}

// ValidateResolve lists every problem that resolving T would hit. An empty
// result means T can be resolved.
func ValidateResolve[T any](c *Container) []error {
	return ValidateResolveNamed[T](c, "")
}

func ValidateResolveNamed[T any](c *Container, id string) []error {
	return c.internal.ValidateResolve(contextOf[T](id, false))
}

func ValidateObjectGraph[T any](c *Container, extras ...reflect.Type) []error {
	return c.internal.ValidateObjectGraph(TypeOf[T](), extras...)
}

func HasBinding[T any](c *Container) bool {
	return HasBindingNamed[T](c, "")
}

func HasBindingNamed[T any](c *Container, id string) bool {
	return c.internal.Has(BindingID{Type: TypeOf[T](), Identifier: id})
}
