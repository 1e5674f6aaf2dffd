package container

import (
	"fmt"
	"reflect"

	qreflect "github.com/danpasecinic/quill/internal/reflect"
)

type InjectSource = qreflect.Source

const (
	SourceConstructor = qreflect.SourceConstructor
	SourceField       = qreflect.SourceField
	SourceProperty    = qreflect.SourceProperty
)

// BindingID is the contract a binding satisfies: a type plus an optional
// identifier. The zero identifier is the unqualified contract.
type BindingID struct {
	Type       reflect.Type
	Identifier string
}

func (id BindingID) String() string {
	return qreflect.KeyNamed(id.Type, id.Identifier)
}

// InjectContext describes a single request for a dependency. It is a value
// type; derived contexts are copies.
type InjectContext struct {
	MemberType reflect.Type
	Identifier string
	ParentType reflect.Type
	Optional   bool
	Source     InjectSource
	MemberName string
}

func (c InjectContext) ChangeMemberType(t reflect.Type) InjectContext {
	c.MemberType = t
	return c
}

func (c InjectContext) BindingID() BindingID {
	return BindingID{Type: c.MemberType, Identifier: c.Identifier}
}

func (c InjectContext) parentName() string {
	if c.ParentType == nil {
		return ""
	}
	return qreflect.Name(c.ParentType)
}

func (c InjectContext) whenInjecting() string {
	if c.ParentType == nil {
		return ""
	}
	return fmt.Sprintf(" when injecting into '%s'", qreflect.Name(c.ParentType))
}

func memberContext(m qreflect.Member, parent reflect.Type) InjectContext {
	return InjectContext{
		MemberType: m.Type,
		Identifier: m.Identifier,
		ParentType: parent,
		Optional:   m.Optional,
		Source:     m.Source,
		MemberName: m.Name,
	}
}

// SingletonID keys shared instances. Source distinguishes instances of the
// same concrete type that come from different external origins; it must be
// comparable.
type SingletonID struct {
	Identifier   string
	ConcreteType reflect.Type
	Source       any
}

func (id SingletonID) String() string {
	return qreflect.KeyNamed(id.ConcreteType, id.Identifier)
}
