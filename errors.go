package quill

import (
	"errors"

	"github.com/danpasecinic/quill/internal/container"
)

type (
	Error     = container.Error
	ErrorCode = container.ErrorCode
)

const (
	ErrCodeUnknown            = container.ErrCodeUnknown
	ErrCodeBindFailed         = container.ErrCodeBindFailed
	ErrCodeInvalidType        = container.ErrCodeInvalidType
	ErrCodeNotConstructible   = container.ErrCodeNotConstructible
	ErrCodeNullInstance       = container.ErrCodeNullInstance
	ErrCodeDuplicateSingleton = container.ErrCodeDuplicateSingleton
	ErrCodeUnusedExtras       = container.ErrCodeUnusedExtras
	ErrCodeNotFound           = container.ErrCodeNotFound
	ErrCodeAmbiguous          = container.ErrCodeAmbiguous
	ErrCodeCircularDependency = container.ErrCodeCircularDependency
	ErrCodeProviderFailed     = container.ErrCodeProviderFailed
	ErrCodeTypeMismatch       = container.ErrCodeTypeMismatch
	ErrCodeValidationFailed   = container.ErrCodeValidationFailed
	ErrCodeModuleApplyFailed  = container.ErrCodeModuleApplyFailed
	ErrCodeDisposeFailed      = container.ErrCodeDisposeFailed
)

func newError(code ErrorCode, message string, cause error) *Error {
	return container.NewError(code, message, cause)
}

func errValidationFailed(errs []error) *Error {
	return newError(ErrCodeValidationFailed, "container validation failed", errors.Join(errs...))
}

func errModuleApplyFailed(module string, cause error) *Error {
	return newError(ErrCodeModuleApplyFailed, "failed to apply module "+module, cause).WithService(module)
}

func errResolvedType(service string, got any) *Error {
	return newError(
		ErrCodeTypeMismatch,
		"resolved value does not implement "+service,
		nil,
	).WithService(service).WithParent(typeName(got))
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) ErrorCode {
	return container.CodeOf(err)
}

// IsBindError reports an error raised while configuring a binding.
func IsBindError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code.IsBind()
}

// IsResolveError reports an error raised while building an object graph.
func IsResolveError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code.IsResolve()
}

func IsCycleError(err error) bool {
	return errors.Is(err, newError(ErrCodeCircularDependency, "", nil))
}

func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeNotFound
}

func IsAmbiguous(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeAmbiguous
}

func IsValidationFailed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeValidationFailed
}
