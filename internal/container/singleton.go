package container

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	qreflect "github.com/danpasecinic/quill/internal/reflect"
)

// singletonCreator owns the shared instance behind a SingletonID. refCount
// is guarded by the owning SingletonMap; the instance by mu.
type singletonCreator struct {
	id       SingletonID
	method   MethodFunc
	refCount int

	mu          sync.Mutex
	instance    any
	hasInstance bool
	owned       bool

	owner *SingletonMap
}

func (s *singletonCreator) getInstance(r *Resolution, ctx InjectContext) (any, error) {
	if r.building(s) {
		return nil, errCircular(r.cyclePath(s.id.ConcreteType), r.trace())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasInstance {
		return s.instance, nil
	}

	r.enter(s)
	defer r.leave(s)

	var (
		instance any
		err      error
	)
	if s.method != nil {
		instance, err = s.method(r, ctx)
		if err != nil {
			return nil, errProviderFailed(ctx, err, r.trace())
		}
	} else {
		instance, err = r.instantiate(s.id.ConcreteType, nil)
		if err != nil {
			return nil, err
		}
	}

	s.instance = instance
	s.hasInstance = true
	s.owned = true
	s.owner.created(s)

	return instance, nil
}

func (s *singletonCreator) validate(r *Resolution) iter.Seq[*Error] {
	s.mu.Lock()
	skip := s.method != nil || s.hasInstance
	s.mu.Unlock()

	if skip {
		return none
	}
	return r.validateObjectGraph(s.id.ConcreteType, nil)
}

func (s *singletonCreator) HasInstance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasInstance
}

func (s *singletonCreator) setInstance(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instance = v
	s.hasInstance = true
	s.owned = false
}

func (s *singletonCreator) dispose() error {
	s.mu.Lock()
	instance, owned := s.instance, s.owned
	s.instance = nil
	s.hasInstance = false
	s.owned = false
	s.mu.Unlock()

	if !owned {
		return nil
	}
	if closer, ok := instance.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SingletonMap shares one lazily created instance among every binding that
// uses the same SingletonID.
type SingletonMap struct {
	mu        sync.Mutex
	creators  map[SingletonID]*singletonCreator
	createdAt []*singletonCreator
	allowNull bool
	logger    *slog.Logger
}

func NewSingletonMap(allowNull bool, logger *slog.Logger) *SingletonMap {
	if logger == nil {
		logger = slog.Default()
	}
	return &SingletonMap{
		creators:  make(map[SingletonID]*singletonCreator),
		allowNull: allowNull,
		logger:    logger,
	}
}

func (m *SingletonMap) AddCreator(id SingletonID) *singletonCreator {
	m.mu.Lock()
	defer m.mu.Unlock()

	creator, ok := m.creators[id]
	if !ok {
		creator = &singletonCreator{id: id, owner: m}
		m.creators[id] = creator
	}
	creator.refCount++
	return creator
}

func (m *SingletonMap) AddCreatorFromMethod(id SingletonID, fn MethodFunc) (*singletonCreator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.creators[id]; ok {
		return nil, errDuplicateSingleton(id)
	}

	creator := &singletonCreator{id: id, method: fn, owner: m, refCount: 1}
	m.creators[id] = creator
	return creator, nil
}

// RemoveCreator drops one reference. When the last reference goes the entry
// is removed and any instance the container built is disposed.
func (m *SingletonMap) RemoveCreator(id SingletonID) error {
	m.mu.Lock()
	creator, ok := m.creators[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("singleton %s is not registered", id)
	}
	creator.refCount--
	if creator.refCount > 0 {
		m.mu.Unlock()
		return nil
	}
	delete(m.creators, id)
	m.createdAt = slices.DeleteFunc(m.createdAt, func(c *singletonCreator) bool { return c == creator })
	m.mu.Unlock()

	m.logger.Debug("singleton released", "singleton", id.String())
	if err := creator.dispose(); err != nil {
		return NewError(ErrCodeDisposeFailed, "failed to dispose "+id.String(), err).WithService(id.String())
	}
	return nil
}

// restore registers creator again after its last reference was dropped. An
// instance it built was disposed and is rebuilt on demand.
func (m *SingletonMap) restore(creator *singletonCreator) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch existing, ok := m.creators[creator.id]; {
	case !ok:
		creator.refCount = 1
		m.creators[creator.id] = creator
	case existing == creator:
		creator.refCount++
	}
}

func (m *SingletonMap) ProviderFromType(id SingletonID) *Provider {
	return newCachedProvider(m.AddCreator(id))
}

func (m *SingletonMap) ProviderFromMethod(id SingletonID, fn MethodFunc) (*Provider, error) {
	creator, err := m.AddCreatorFromMethod(id, fn)
	if err != nil {
		return nil, err
	}
	return newCachedProvider(creator), nil
}

func (m *SingletonMap) ProviderFromInstance(id SingletonID, instance any) (*Provider, error) {
	if qreflect.IsNil(instance) && !m.allowNull {
		return nil, NewError(
			ErrCodeNullInstance,
			fmt.Sprintf("received nil singleton instance for type '%s'", qreflect.Name(id.ConcreteType)),
			nil,
		).WithService(id.String())
	}
	if instance != nil && reflect.TypeOf(instance) != id.ConcreteType {
		return nil, NewError(
			ErrCodeInvalidType,
			fmt.Sprintf("singleton instance has type '%T', expected '%s'", instance, qreflect.Name(id.ConcreteType)),
			nil,
		).WithService(id.String())
	}

	creator := m.AddCreator(id)
	if creator.method != nil || creator.HasInstance() {
		_ = m.RemoveCreator(id)
		return nil, errDuplicateSingleton(id)
	}

	creator.setInstance(instance)
	return newCachedProvider(creator), nil
}

func (m *SingletonMap) RefCount(id SingletonID) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if creator, ok := m.creators[id]; ok {
		return creator.refCount
	}
	return 0
}

func (m *SingletonMap) Has(id SingletonID) bool {
	return m.RefCount(id) > 0
}

func (m *SingletonMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.creators)
}

func (m *SingletonMap) created(s *singletonCreator) {
	m.mu.Lock()
	m.createdAt = append(m.createdAt, s)
	m.mu.Unlock()

	m.logger.Debug("singleton created", "singleton", s.id.String())
}

// Close disposes every instance the container built, newest first. Entries
// stay registered and will be rebuilt on the next resolution.
func (m *SingletonMap) Close() error {
	m.mu.Lock()
	created := m.createdAt
	m.createdAt = nil
	m.mu.Unlock()

	var errs []error
	for i := len(created) - 1; i >= 0; i-- {
		if err := created[i].dispose(); err != nil {
			m.logger.Warn("singleton dispose failed", "singleton", created[i].id.String(), "error", err)
			errs = append(errs, fmt.Errorf("dispose %s: %w", created[i].id, err))
		}
	}

	if len(errs) > 0 {
		return NewError(ErrCodeDisposeFailed, "failed to dispose singletons", errors.Join(errs...))
	}
	return nil
}

func errDuplicateSingleton(id SingletonID) *Error {
	return NewError(
		ErrCodeDuplicateSingleton,
		fmt.Sprintf("found multiple singleton instances bound to type '%s'", qreflect.Name(id.ConcreteType)),
		nil,
	).WithService(id.String())
}
