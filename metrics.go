package quill

import "github.com/danpasecinic/quill/internal/container"

// ResolveHook runs after every top-level resolution with the contract key,
// the time taken and the resulting error.
type ResolveHook = container.ResolveHook

// BindHook runs after a binding is registered with the contract key and the
// provider kind.
type BindHook = container.BindHook

type UnbindHook = container.UnbindHook
