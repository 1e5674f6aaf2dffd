package quill

// Rebind removes every existing binding of the contract before the next
// To call registers its replacement.
func Rebind[T any](c *Container) *Binder {
	b := Bind[T](c)
	b.rebind = true
	return b
}

// Unbind removes every binding of T under id and reports whether any
// existed. Singletons lose a reference and are closed with the last one.
func Unbind[T any](c *Container, id string) (bool, error) {
	return c.internal.Unbind(BindingID{Type: TypeOf[T](), Identifier: id})
}

// Replace swaps whatever T is bound to for a fixed instance.
func Replace[T any](c *Container, instance T, opts ...BindOption) error {
	return Rebind[T](c).ToInstance(instance, opts...)
}

func ReplaceMethod[T any](c *Container, fn Factory[T], opts ...BindOption) error {
	return Rebind[T](c).ToMethod(fn.untyped(), opts...)
}

func MustReplace[T any](c *Container, instance T, opts ...BindOption) {
	if err := Replace(c, instance, opts...); err != nil {
		panic(err)
	}
}
