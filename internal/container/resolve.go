package container

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	qreflect "github.com/danpasecinic/quill/internal/reflect"
)

type matchResult struct {
	ctx       InjectContext
	providers []*Provider
	elem      reflect.Type
	fallback  bool
	absent    bool
	err       *Error
}

// match decides how a context is satisfied. Live resolution and validation
// both branch on its result, so they cannot disagree.
func (r *Resolution) match(ctx InjectContext) matchResult {
	registry := r.c.registry
	matches := registry.Lookup(ctx)

	if len(matches) == 1 {
		return matchResult{ctx: ctx, providers: matches}
	}

	if elem, ok := qreflect.SliceElem(ctx.MemberType); ok {
		sub := ctx.ChangeMemberType(elem)
		matches = registry.Lookup(sub)

		if len(matches) == 0 {
			switch {
			case ctx.Optional:
				return matchResult{ctx: sub, elem: elem}
			case registry.Fallback() != nil:
				return matchResult{ctx: ctx, fallback: true}
			default:
				return matchResult{err: errMissingList(ctx, r.trace())}
			}
		}
		return matchResult{ctx: sub, providers: matches, elem: elem}
	}

	if len(matches) == 0 {
		switch {
		case ctx.Optional:
			return matchResult{ctx: ctx, absent: true}
		case registry.Fallback() != nil:
			return matchResult{ctx: ctx, fallback: true}
		default:
			return matchResult{err: errMissing(ctx, r.trace())}
		}
	}

	return matchResult{err: errAmbiguous(ctx, len(matches), r.trace())}
}

// resolve returns the value for ctx and whether one was found. An optional
// context with no binding yields found == false and no error.
func (r *Resolution) resolve(ctx InjectContext) (any, bool, error) {
	m := r.match(ctx)

	switch {
	case m.err != nil:
		return nil, false, m.err
	case m.absent:
		return nil, false, nil
	case m.fallback:
		instances, err := r.c.registry.Fallback().GetInstances(r, m.ctx)
		if err != nil {
			return nil, false, err
		}
		v, err := r.single(m.ctx, instances)
		return v, err == nil, err
	case m.elem != nil:
		v, err := r.collect(m)
		return v, err == nil, err
	default:
		instances, err := m.providers[0].GetInstances(r, m.ctx)
		if err != nil {
			return nil, false, err
		}
		v, err := r.single(m.ctx, instances)
		return v, err == nil, err
	}
}

func (r *Resolution) single(ctx InjectContext, instances []any) (any, error) {
	if len(instances) != 1 {
		return nil, errAmbiguous(ctx, len(instances), r.trace())
	}
	if err := r.checkAssignable(ctx, ctx.MemberType, instances[0]); err != nil {
		return nil, err
	}
	return instances[0], nil
}

func (r *Resolution) collect(m matchResult) (any, error) {
	sliceType := reflect.SliceOf(m.elem)
	out := reflect.MakeSlice(sliceType, 0, len(m.providers))

	for _, p := range m.providers {
		instances, err := p.GetInstances(r, m.ctx)
		if err != nil {
			return nil, err
		}
		for _, inst := range instances {
			if err := r.checkAssignable(m.ctx, m.elem, inst); err != nil {
				return nil, err
			}
			out = reflect.Append(out, qreflect.ValueFor(m.elem, inst))
		}
	}

	return out.Interface(), nil
}

func (r *Resolution) checkAssignable(ctx InjectContext, t reflect.Type, v any) error {
	if v == nil || t == nil {
		return nil
	}
	if !reflect.TypeOf(v).AssignableTo(t) {
		return NewError(
			ErrCodeTypeMismatch,
			fmt.Sprintf("provider returned '%T', which is not assignable to '%s'%s", v, qreflect.Name(t), ctx.whenInjecting()),
			nil,
		).WithService(qreflect.Name(t)).WithParent(ctx.parentName()).WithStack(r.trace())
	}
	return nil
}

// resolveMany returns the instances of every matching provider, skipping the
// single-match and ambiguity rules.
func (r *Resolution) resolveMany(ctx InjectContext) ([]any, error) {
	matches := r.c.registry.Lookup(ctx)

	if len(matches) == 0 {
		switch {
		case ctx.Optional:
			return []any{}, nil
		case r.c.registry.Fallback() != nil:
			return r.c.registry.Fallback().GetInstances(r, ctx)
		default:
			return nil, errMissing(ctx, r.trace())
		}
	}

	var all []any
	for _, p := range matches {
		instances, err := p.GetInstances(r, ctx)
		if err != nil {
			return nil, err
		}
		for _, inst := range instances {
			if err := r.checkAssignable(ctx, ctx.MemberType, inst); err != nil {
				return nil, err
			}
		}
		all = append(all, instances...)
	}
	return all, nil
}

// callMethod runs a factory or follows a lookup. Lookup errors come from the
// target binding and are returned as they are.
func (r *Resolution) callMethod(p *Provider, ctx InjectContext) (any, error) {
	call := methodCall{provider: p, id: ctx.BindingID(), parent: ctx.ParentType}
	if r.calling(call) {
		return nil, errCircular(r.callPath(call.id), r.trace())
	}

	r.enterCall(call)
	defer r.leaveCall()

	if p.target != nil {
		v, _, err := r.resolve(lookupContext(p, ctx))
		return v, err
	}

	v, err := p.method(r, ctx)
	if err != nil {
		return nil, errProviderFailed(ctx, err, r.trace())
	}
	return v, nil
}

func lookupContext(p *Provider, ctx InjectContext) InjectContext {
	target := ctx.ChangeMemberType(p.target.Type)
	target.Identifier = p.target.Identifier
	return target
}

// instantiate builds concrete and its whole graph. Extras are handed to the
// first member whose type they satisfy and are consumed once.
func (r *Resolution) instantiate(concrete reflect.Type, extras []any) (any, error) {
	if r.onStack(concrete) {
		return nil, errCircular(r.cyclePath(concrete), r.trace())
	}

	info, err := r.c.analyzer.Analyze(concrete)
	if err != nil {
		return nil, errNotConstructible(concrete, err, r.trace())
	}

	r.push(concrete)
	defer r.pop()

	members := info.AllInjectables()
	taken, leftover := takeExtras(members, extras, extraType)
	if len(leftover) > 0 {
		return nil, errUnusedExtras(concrete, leftover, extraType, r.trace())
	}

	args := make([]reflect.Value, len(info.Params))
	for i, m := range info.Params {
		v, _, err := r.memberValue(concrete, m, taken, i)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	obj, err := info.New(args)
	if err != nil {
		return nil, errProviderFailed(InjectContext{MemberType: concrete}, err, r.trace())
	}

	if obj.Kind() == reflect.Struct && !obj.CanAddr() {
		addressable := reflect.New(obj.Type()).Elem()
		addressable.Set(obj)
		obj = addressable
	}

	if err := r.injectMembers(concrete, info, obj, members, taken); err != nil {
		return nil, err
	}

	return obj.Interface(), nil
}

// injectInto fills the field and property members of an existing object.
func (r *Resolution) injectInto(target any, extras []any) error {
	if qreflect.IsNil(target) {
		return NewError(ErrCodeInvalidType, "cannot inject into nil", nil)
	}

	concrete := reflect.TypeOf(target)
	if concrete.Kind() != reflect.Ptr || concrete.Elem().Kind() != reflect.Struct {
		return NewError(
			ErrCodeInvalidType,
			fmt.Sprintf("cannot inject into '%s': expected a pointer to a struct", qreflect.Name(concrete)),
			nil,
		)
	}

	if r.onStack(concrete) {
		return errCircular(r.cyclePath(concrete), r.trace())
	}

	info, err := r.c.analyzer.Analyze(concrete)
	if err != nil {
		return errNotConstructible(concrete, err, r.trace())
	}

	r.push(concrete)
	defer r.pop()

	members := make([]qreflect.Member, 0, len(info.Fields)+len(info.Properties))
	members = append(members, info.Fields...)
	members = append(members, info.Properties...)

	taken, leftover := takeExtras(members, extras, extraType)
	if len(leftover) > 0 {
		return errUnusedExtras(concrete, leftover, extraType, r.trace())
	}

	return r.injectMembers(concrete, info, reflect.ValueOf(target), members, taken)
}

func (r *Resolution) injectMembers(
	concrete reflect.Type,
	info *qreflect.TypeInfo,
	obj reflect.Value,
	members []qreflect.Member,
	taken map[int]any,
) error {
	for i, m := range members {
		if m.Source == SourceConstructor {
			continue
		}
		v, found, err := r.memberValue(concrete, m, taken, i)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		if err := info.Inject(obj, m, v); err != nil {
			return errProviderFailed(memberContext(m, concrete), err, r.trace())
		}
	}
	return nil
}

func (r *Resolution) memberValue(
	concrete reflect.Type,
	m qreflect.Member,
	taken map[int]any,
	i int,
) (reflect.Value, bool, error) {
	if extra, ok := taken[i]; ok {
		return qreflect.ValueFor(m.Type, extra), true, nil
	}

	v, found, err := r.resolve(memberContext(m, concrete))
	if err != nil {
		return reflect.Value{}, false, err
	}
	return qreflect.ValueFor(m.Type, v), found, nil
}

func extraType(v any) reflect.Type {
	return reflect.TypeOf(v)
}

// takeExtras assigns each member the first remaining extra whose type derives
// from the member type. Unmatched extras are returned in their original order.
func takeExtras[E any](members []qreflect.Member, extras []E, typeOf func(E) reflect.Type) (map[int]E, []E) {
	taken := make(map[int]E)
	if len(extras) == 0 {
		return taken, nil
	}

	remaining := make([]E, len(extras))
	copy(remaining, extras)

	for i, m := range members {
		for j, extra := range remaining {
			if qreflect.DerivesFromOrEqual(typeOf(extra), m.Type) {
				taken[i] = extra
				remaining = append(remaining[:j], remaining[j+1:]...)
				break
			}
		}
	}

	return taken, remaining
}

func errMissing(ctx InjectContext, stack []string) *Error {
	return NewError(
		ErrCodeNotFound,
		fmt.Sprintf("could not find required dependency with type '%s'%s", dependencyName(ctx), ctx.whenInjecting()),
		nil,
	).WithService(qreflect.Name(ctx.MemberType)).WithParent(ctx.parentName()).WithStack(stack)
}

func errMissingList(ctx InjectContext, stack []string) *Error {
	return NewError(
		ErrCodeNotFound,
		fmt.Sprintf(
			"could not find dependency with type '%s'%s; mark the member optional if an empty list is valid",
			dependencyName(ctx), ctx.whenInjecting(),
		),
		nil,
	).WithService(qreflect.Name(ctx.MemberType)).WithParent(ctx.parentName()).WithStack(stack)
}

func errAmbiguous(ctx InjectContext, n int, stack []string) *Error {
	return NewError(
		ErrCodeAmbiguous,
		fmt.Sprintf(
			"found %d matches when only one was expected for dependency with type '%s'%s",
			n, dependencyName(ctx), ctx.whenInjecting(),
		),
		nil,
	).WithService(qreflect.Name(ctx.MemberType)).WithParent(ctx.parentName()).WithStack(stack)
}

func errCircular(path, stack []string) *Error {
	return NewError(
		ErrCodeCircularDependency,
		"circular dependency detected: "+strings.Join(path, " -> "),
		nil,
	).WithService(path[0]).WithStack(stack)
}

func errNotConstructible(t reflect.Type, cause error, stack []string) *Error {
	if errors.Is(cause, qreflect.ErrNotConstructible) {
		cause = nil
	}
	return NewError(
		ErrCodeNotConstructible,
		fmt.Sprintf("type '%s' cannot be constructed by the container", qreflect.Name(t)),
		cause,
	).WithService(qreflect.Name(t)).WithStack(stack)
}

func errProviderFailed(ctx InjectContext, cause error, stack []string) *Error {
	return NewError(
		ErrCodeProviderFailed,
		fmt.Sprintf("provider for '%s' failed%s", qreflect.Name(ctx.MemberType), ctx.whenInjecting()),
		cause,
	).WithService(qreflect.Name(ctx.MemberType)).WithParent(ctx.parentName()).WithStack(stack)
}

func errUnusedExtras[E any](concrete reflect.Type, extras []E, typeOf func(E) reflect.Type, stack []string) *Error {
	names := make([]string, len(extras))
	for i, e := range extras {
		names[i] = qreflect.Name(typeOf(e))
	}
	return NewError(
		ErrCodeUnusedExtras,
		fmt.Sprintf(
			"found unnecessary extra parameters passed when injecting into '%s' with types '%s'",
			qreflect.Name(concrete), strings.Join(names, ","),
		),
		nil,
	).WithService(qreflect.Name(concrete)).WithStack(stack)
}

func dependencyName(ctx InjectContext) string {
	name := qreflect.Name(ctx.MemberType)
	if ctx.Identifier != "" {
		name += "#" + ctx.Identifier
	}
	return name
}
