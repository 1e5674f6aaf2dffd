package reflect

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testInterface interface {
	DoSomething()
}

type testStruct struct {
	Name string
}

func (t *testStruct) DoSomething() {}

func TestTypeKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"int", TypeKey[int](), "int"},
		{"string", TypeKey[string](), "string"},
		{"pointer to struct", TypeKey[*testStruct](), "*github.com/danpasecinic/quill/internal/reflect.testStruct"},
		{"slice", TypeKey[[]string](), "[]string"},
		{"array", TypeKey[[3]int](), "[3]int"},
		{"map", TypeKey[map[string]int](), "map[string]int"},
		{"interface", TypeKey[testInterface](), "github.com/danpasecinic/quill/internal/reflect.testInterface"},
		{"context.Context", TypeKey[context.Context](), "context.Context"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestTypeKeyUnique(t *testing.T) {
	t.Parallel()

	keys := []string{
		TypeKey[int](),
		TypeKey[*int](),
		TypeKey[[]int](),
		TypeKey[testStruct](),
		TypeKey[*testStruct](),
		TypeKey[testInterface](),
	}

	seen := map[string]bool{}
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
	}
}

func TestKeyNamed(t *testing.T) {
	t.Parallel()

	typ := TypeOf[*testStruct]()
	assert.Equal(t, KeyOf(typ), KeyNamed(typ, ""))
	assert.Equal(t, KeyOf(typ)+"#primary", KeyNamed(typ, "primary"))
}

func TestIsNil(t *testing.T) {
	t.Parallel()

	var nilPtr *testStruct
	var nilMap map[string]int
	var nilIface testInterface

	assert.True(t, IsNil(nil))
	assert.True(t, IsNil(nilPtr))
	assert.True(t, IsNil(nilMap))
	assert.True(t, IsNil(nilIface))
	assert.False(t, IsNil(&testStruct{}))
	assert.False(t, IsNil(0))
	assert.False(t, IsNil(""))
}

func TestIsInterface(t *testing.T) {
	t.Parallel()

	assert.True(t, IsInterface(TypeOf[testInterface]()))
	assert.False(t, IsInterface(TypeOf[*testStruct]()))
	assert.False(t, IsInterface(nil))
}

func TestSliceElem(t *testing.T) {
	t.Parallel()

	elem, ok := SliceElem(TypeOf[[]testInterface]())
	require.True(t, ok)
	assert.Equal(t, TypeOf[testInterface](), elem)

	_, ok = SliceElem(TypeOf[[]byte]())
	assert.False(t, ok)

	_, ok = SliceElem(TypeOf[*testStruct]())
	assert.False(t, ok)
}

func TestDerivesFromOrEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, DerivesFromOrEqual(TypeOf[*testStruct](), TypeOf[testInterface]()))
	assert.True(t, DerivesFromOrEqual(TypeOf[*testStruct](), TypeOf[*testStruct]()))
	assert.False(t, DerivesFromOrEqual(TypeOf[testStruct](), TypeOf[testInterface]()))
	assert.False(t, DerivesFromOrEqual(nil, TypeOf[testInterface]()))
}

func TestValueFor(t *testing.T) {
	t.Parallel()

	iface := TypeOf[testInterface]()

	zero := ValueFor(iface, nil)
	assert.Equal(t, iface, zero.Type())
	assert.True(t, zero.IsNil())

	v := ValueFor(iface, &testStruct{})
	assert.Equal(t, iface, v.Type())

	s := ValueFor(reflect.TypeOf(""), "x")
	assert.Equal(t, "x", s.Interface())
}

func BenchmarkTypeKey(b *testing.B) {
	for b.Loop() {
		_ = TypeKey[*testStruct]()
	}
}
