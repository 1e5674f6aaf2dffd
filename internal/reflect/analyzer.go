package reflect

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

const (
	TagKey       = "inject"
	SetterPrefix = "Inject"
)

var (
	ErrNotConstructible = errors.New("type is not constructible")
	ErrInvalidInjectTag = errors.New("invalid inject tag")
	ErrInvalidFunc      = errors.New("invalid constructor")
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type Source int

const (
	SourceConstructor Source = iota
	SourceField
	SourceProperty
)

func (s Source) String() string {
	switch s {
	case SourceConstructor:
		return "constructor"
	case SourceField:
		return "field"
	case SourceProperty:
		return "property"
	default:
		return "unknown"
	}
}

// Member describes a single injection point of a concrete type.
type Member struct {
	Name       string
	Type       reflect.Type
	Identifier string
	Optional   bool
	Source     Source

	index []int
}

// TypeInfo is the ordered set of injection points for a concrete type.
// Constructor parameters come first, then fields, then setter methods.
type TypeInfo struct {
	Type        reflect.Type
	Params      []Member
	Fields      []Member
	Properties  []Member
	constructor reflect.Value
	hasError    bool
}

func (ti *TypeInfo) AllInjectables() []Member {
	all := make([]Member, 0, len(ti.Params)+len(ti.Fields)+len(ti.Properties))
	all = append(all, ti.Params...)
	all = append(all, ti.Fields...)
	all = append(all, ti.Properties...)
	return all
}

// New builds a bare instance from resolved constructor arguments.
func (ti *TypeInfo) New(args []reflect.Value) (reflect.Value, error) {
	if ti.constructor.IsValid() {
		results := ti.constructor.Call(args)
		if ti.hasError && !results[1].IsNil() {
			return reflect.Value{}, results[1].Interface().(error)
		}
		return results[0], nil
	}

	if ti.Type.Kind() == reflect.Ptr {
		return reflect.New(ti.Type.Elem()), nil
	}
	return reflect.New(ti.Type).Elem(), nil
}

// Inject assigns v to member m of target. Target must be a pointer to a
// struct or an addressable struct.
func (ti *TypeInfo) Inject(target reflect.Value, m Member, v reflect.Value) error {
	switch m.Source {
	case SourceField:
		s := target
		if s.Kind() == reflect.Ptr {
			if s.IsNil() {
				return fmt.Errorf("cannot inject field %s into nil %s", m.Name, ti.Type)
			}
			s = s.Elem()
		}
		field := s.FieldByIndex(m.index)
		if !field.CanSet() {
			return fmt.Errorf("cannot set field %s of %s", m.Name, ti.Type)
		}
		field.Set(v)
		return nil
	case SourceProperty:
		recv := target
		if recv.Kind() != reflect.Ptr && recv.CanAddr() {
			recv = recv.Addr()
		}
		method := recv.MethodByName(m.Name)
		if !method.IsValid() {
			return fmt.Errorf("method %s not found on %s", m.Name, recv.Type())
		}
		out := method.Call([]reflect.Value{v})
		if len(out) == 1 && !out[0].IsNil() {
			return out[0].Interface().(error)
		}
		return nil
	default:
		return fmt.Errorf("member %s of %s is not settable", m.Name, ti.Type)
	}
}

// Analyzer discovers injection points by reflection and caches the result
// per type.
type Analyzer struct {
	mu           sync.RWMutex
	constructors map[reflect.Type]reflect.Value
	cache        sync.Map
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		constructors: make(map[reflect.Type]reflect.Value),
	}
}

// RegisterConstructor records fn as the constructor for its first return
// type. fn must have the shape func(deps...) T or func(deps...) (T, error).
func (a *Analyzer) RegisterConstructor(fn any) (reflect.Type, error) {
	fnVal := reflect.ValueOf(fn)
	if fn == nil || fnVal.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: expected a function, got %T", ErrInvalidFunc, fn)
	}

	fnType := fnVal.Type()
	switch {
	case fnType.NumOut() == 1:
	case fnType.NumOut() == 2 && fnType.Out(1).Implements(errorType):
	default:
		return nil, fmt.Errorf("%w: %s must return T or (T, error)", ErrInvalidFunc, fnType)
	}
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("%w: variadic constructor %s", ErrInvalidFunc, fnType)
	}

	out := fnType.Out(0)

	a.mu.Lock()
	a.constructors[out] = fnVal
	a.mu.Unlock()
	a.cache.Delete(out)

	return out, nil
}

func (a *Analyzer) IsConstructible(t reflect.Type) bool {
	if t == nil {
		return false
	}
	a.mu.RLock()
	_, ok := a.constructors[t]
	a.mu.RUnlock()
	if ok {
		return true
	}
	return structOf(t) != nil
}

func (a *Analyzer) Analyze(t reflect.Type) (*TypeInfo, error) {
	if cached, ok := a.cache.Load(t); ok {
		return cached.(*TypeInfo), nil
	}

	info, err := a.analyze(t)
	if err != nil {
		return nil, err
	}

	a.cache.Store(t, info)
	return info, nil
}

func (a *Analyzer) analyze(t reflect.Type) (*TypeInfo, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: <nil>", ErrNotConstructible)
	}

	info := &TypeInfo{Type: t}

	a.mu.RLock()
	ctor, hasCtor := a.constructors[t]
	a.mu.RUnlock()

	if hasCtor {
		fnType := ctor.Type()
		info.constructor = ctor
		info.hasError = fnType.NumOut() == 2
		for i := range fnType.NumIn() {
			info.Params = append(info.Params, Member{
				Name:   fmt.Sprintf("arg%d", i),
				Type:   fnType.In(i),
				Source: SourceConstructor,
			})
		}
	}

	st := structOf(t)
	if st == nil {
		if !hasCtor {
			return nil, fmt.Errorf("%w: %s", ErrNotConstructible, t)
		}
		return info, nil
	}

	fields, err := structFields(st)
	if err != nil {
		return nil, err
	}
	info.Fields = fields
	info.Properties = setterMethods(reflect.PointerTo(st))

	return info, nil
}

func structOf(t reflect.Type) reflect.Type {
	switch {
	case t.Kind() == reflect.Struct:
		return t
	case t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct:
		return t.Elem()
	default:
		return nil
	}
}

func structFields(st reflect.Type) ([]Member, error) {
	var members []Member

	for i := range st.NumField() {
		f := st.Field(i)
		tag, ok := f.Tag.Lookup(TagKey)
		if !ok {
			continue
		}
		if !f.IsExported() {
			return nil, fmt.Errorf("%w: field %s.%s is unexported", ErrInvalidInjectTag, st.Name(), f.Name)
		}

		id, optional, err := parseTag(tag)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", st.Name(), f.Name, err)
		}

		members = append(members, Member{
			Name:       f.Name,
			Type:       f.Type,
			Identifier: id,
			Optional:   optional,
			Source:     SourceField,
			index:      f.Index,
		})
	}

	return members, nil
}

func parseTag(tag string) (string, bool, error) {
	parts := strings.Split(tag, ",")
	id := strings.TrimSpace(parts[0])
	optional := false

	for _, opt := range parts[1:] {
		switch strings.TrimSpace(opt) {
		case "optional":
			optional = true
		case "":
		default:
			return "", false, fmt.Errorf("%w: unknown option %q", ErrInvalidInjectTag, opt)
		}
	}

	return id, optional, nil
}

// setterMethods collects InjectXxx(dep) methods, which reflect returns in
// lexicographic order.
func setterMethods(pt reflect.Type) []Member {
	var members []Member

	for i := range pt.NumMethod() {
		m := pt.Method(i)
		if !strings.HasPrefix(m.Name, SetterPrefix) || len(m.Name) == len(SetterPrefix) {
			continue
		}
		mt := m.Type
		if mt.NumIn() != 2 {
			continue
		}
		if mt.NumOut() > 1 || (mt.NumOut() == 1 && mt.Out(0) != errorType) {
			continue
		}

		members = append(members, Member{
			Name:   m.Name,
			Type:   mt.In(1),
			Source: SourceProperty,
		})
	}

	return members
}
