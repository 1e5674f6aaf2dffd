package quill

// Installer registers a group of bindings.
type Installer func(c *Container) error

// Module is a named, reusable set of installers. Submodules are installed
// before the module's own installers.
type Module struct {
	name       string
	installers []Installer
	submodules []*Module
}

func NewModule(name string) *Module {
	return &Module{
		name: name,
	}
}

func (m *Module) Name() string {
	return m.name
}

func (m *Module) Install(fn Installer) *Module {
	m.installers = append(m.installers, fn)
	return m
}

func (m *Module) Include(submodule *Module) *Module {
	m.submodules = append(m.submodules, submodule)
	return m
}

func (m *Module) apply(c *Container) error {
	for _, sub := range m.submodules {
		if err := sub.apply(c); err != nil {
			return errModuleApplyFailed(sub.name, err)
		}
	}

	for _, install := range m.installers {
		if err := install(c); err != nil {
			return err
		}
	}

	c.logger.Debug("module applied", "module", m.name)
	return nil
}

// Apply installs modules in order and stops at the first failure.
func (c *Container) Apply(modules ...*Module) error {
	for _, m := range modules {
		if err := m.apply(c); err != nil {
			return errModuleApplyFailed(m.name, err)
		}
	}
	return nil
}

func ModuleBindTransient[C, T any](m *Module, opts ...BindOption) *Module {
	return m.Install(func(c *Container) error {
		return BindTransient[C, T](c, opts...)
	})
}

func ModuleBindSingle[C, T any](m *Module, opts ...BindOption) *Module {
	return m.Install(func(c *Container) error {
		return BindSingle[C, T](c, opts...)
	})
}

func ModuleBindInstance[T any](m *Module, instance T, opts ...BindOption) *Module {
	return m.Install(func(c *Container) error {
		return BindInstance(c, instance, opts...)
	})
}

func ModuleBindMethod[T any](m *Module, fn Factory[T], opts ...BindOption) *Module {
	return m.Install(func(c *Container) error {
		return BindMethod(c, fn, opts...)
	})
}
