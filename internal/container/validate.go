package container

import (
	"iter"
	"reflect"
)

// validateContract replays the decisions of resolve for ctx and yields every
// problem it finds instead of stopping at the first one.
func (r *Resolution) validateContract(ctx InjectContext) iter.Seq[*Error] {
	return func(yield func(*Error) bool) {
		m := r.match(ctx)

		switch {
		case m.err != nil:
			yield(m.err)
		case m.absent:
		case m.fallback:
			for e := range r.c.registry.Fallback().Validate(r, m.ctx) {
				if !yield(e) {
					return
				}
			}
		default:
			for _, p := range m.providers {
				for e := range p.Validate(r, m.ctx) {
					if !yield(e) {
						return
					}
				}
			}
		}
	}
}

// validateObjectGraph checks that every injectable member of concrete could
// be resolved, recursing through the providers that would supply them.
func (r *Resolution) validateObjectGraph(concrete reflect.Type, extras []reflect.Type) iter.Seq[*Error] {
	return func(yield func(*Error) bool) {
		if r.onStack(concrete) {
			yield(errCircular(r.cyclePath(concrete), r.trace()))
			return
		}

		info, err := r.c.analyzer.Analyze(concrete)
		if err != nil {
			yield(errNotConstructible(concrete, err, r.trace()))
			return
		}

		r.push(concrete)
		defer r.pop()

		members := info.AllInjectables()
		taken, leftover := takeExtras(members, extras, identityType)

		for i, m := range members {
			if _, ok := taken[i]; ok {
				continue
			}
			for e := range r.validateContract(memberContext(m, concrete)) {
				if !yield(e) {
					return
				}
			}
		}

		if len(leftover) > 0 {
			yield(errUnusedExtras(concrete, leftover, identityType, r.trace()))
		}
	}
}

// validateLookup follows a lookup to its target with the same cycle guard
// live resolution uses.
func (r *Resolution) validateLookup(p *Provider, ctx InjectContext) iter.Seq[*Error] {
	return func(yield func(*Error) bool) {
		call := methodCall{provider: p, id: ctx.BindingID(), parent: ctx.ParentType}
		if r.calling(call) {
			yield(errCircular(r.callPath(call.id), r.trace()))
			return
		}

		r.enterCall(call)
		defer r.leaveCall()

		for e := range r.validateContract(lookupContext(p, ctx)) {
			if !yield(e) {
				return
			}
		}
	}
}

func identityType(t reflect.Type) reflect.Type {
	return t
}
