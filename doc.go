// Package quill is a contract-based dependency injection container with a
// dry-run validator.
//
// A contract is a type plus an optional identifier. Bindings map contracts to
// providers, and the container builds object graphs by resolving the injectable
// members of each concrete type it constructs.
//
// # Quick Start
//
//	c := quill.New()
//
//	quill.Bind[Clock](c).ToInstance(systemClock{})
//	quill.BindSingle[Store, *PostgresStore](c)
//	quill.Bind[*Handler](c).ToTransient()
//
//	if errs := quill.ValidateResolve[*Handler](c); len(errs) > 0 {
//	    log.Fatal(errors.Join(errs...))
//	}
//
//	h := quill.MustResolve[*Handler](c)
//
// # Injection Points
//
// A concrete type declares its dependencies in three ways, resolved in this
// order:
//
//   - constructor parameters, for types registered with RegisterConstructor
//     or BindConstructor
//   - exported struct fields tagged `inject:"[id][,optional]"`
//   - setter methods on the pointer type named Inject<Name> that take one
//     argument and return nothing or an error
//
// Example:
//
//	type Handler struct {
//	    Store Store  `inject:""`
//	    Cache Cache  `inject:"redis,optional"`
//	    Peers []Peer `inject:""`
//	    clock Clock
//	}
//
//	func (h *Handler) InjectClock(c Clock) { h.clock = c }
//
// A slice member collects every binding of its element type, in the order
// they were bound. A required slice with no bindings is an error; an
// optional one is empty.
//
// # Providers
//
// Every binding is backed by one of four providers:
//
//	ToTransient / ToTransientType    build a new instance on every resolve
//	ToSingle / ToSingleType          build once, share between bindings
//	ToInstance / ToSingleInstance    return a value supplied at bind time
//	ToMethod / ToSingleMethod        call a factory function
//
// Singletons are keyed by identifier and concrete type, so binding two
// contracts with ToSingleType to the same concrete type shares one instance.
// The instance is built lazily and released when the last binding that uses
// it is removed. Singletons the container built are closed when released or
// when Close is called, if they implement io.Closer.
//
// # Identifiers and Conditions
//
//	quill.Bind[*sql.DB](c).WithID("replica").ToInstance(replica)
//	quill.Bind[Logger](c).ToInstance(auditLog, quill.WhenInjectedInto(quill.TypeOf[*Billing]()))
//
// An unqualified request only matches unqualified bindings. More than one
// match for a single-valued member is ambiguous; use ResolveMany or a slice
// member to receive all of them.
//
// # Validation
//
// ValidateResolve and ValidateObjectGraph walk the same decisions as Resolve
// without building anything or calling factories. They return every problem
// in the graph instead of the first one:
//
//	for _, err := range quill.ValidateResolve[*Handler](c) {
//	    log.Println(err)
//	}
//
// Container.Validate checks every binding and joins the results.
//
// # Errors
//
// All errors are *Error values carrying an ErrorCode. Bind-time problems
// satisfy IsBindError, resolution problems satisfy IsResolveError, and
// dependency cycles satisfy IsCycleError. Resolution errors include the chain
// of types being built when the error occurred.
//
// # Modules
//
// Related bindings can be grouped and installed together:
//
//	var Storage = quill.NewModule("storage").
//	    Install(func(c *quill.Container) error {
//	        return quill.BindSingle[Store, *PostgresStore](c)
//	    })
//
//	c.Apply(Storage)
//
// # Observability
//
// WithResolveObserver, WithBindObserver and WithUnbindObserver receive
// container events; the metrics package turns them into Prometheus metrics
// and the inspect package serves the binding graph over HTTP.
package quill
