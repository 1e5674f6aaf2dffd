package quill

import (
	"reflect"

	qreflect "github.com/danpasecinic/quill/internal/reflect"
)

// TagKey is the struct tag that marks injected fields:
//
//	Repo  *Repo  `inject:""`
//	Cache *Cache `inject:"redis,optional"`
const TagKey = qreflect.TagKey

// RegisterConstructor makes the container build the constructor's return
// type by calling it with resolved arguments. The constructor must have the
// shape func(deps...) T or func(deps...) (T, error).
func RegisterConstructor(c *Container, constructor any) (reflect.Type, error) {
	t, err := c.analyzer.RegisterConstructor(constructor)
	if err != nil {
		return nil, newError(ErrCodeBindFailed, "invalid constructor", err)
	}
	return t, nil
}

// BindConstructor registers constructor and binds T to a new result of it
// on every resolve.
func BindConstructor[T any](c *Container, constructor any, opts ...BindOption) error {
	t, err := RegisterConstructor(c, constructor)
	if err != nil {
		return err
	}
	return Bind[T](c).ToTransientType(t, opts...)
}

// BindSingleConstructor is BindConstructor with one shared result.
func BindSingleConstructor[T any](c *Container, constructor any, opts ...BindOption) error {
	t, err := RegisterConstructor(c, constructor)
	if err != nil {
		return err
	}
	return Bind[T](c).ToSingleType(t, opts...)
}

func MustBindConstructor[T any](c *Container, constructor any, opts ...BindOption) {
	if err := BindConstructor[T](c, constructor, opts...); err != nil {
		panic(err)
	}
}
