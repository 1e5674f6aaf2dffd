package container

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorCode uint16

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeBindFailed
	ErrCodeInvalidType
	ErrCodeNotConstructible
	ErrCodeNullInstance
	ErrCodeDuplicateSingleton
	ErrCodeUnusedExtras
	ErrCodeNotFound
	ErrCodeAmbiguous
	ErrCodeCircularDependency
	ErrCodeProviderFailed
	ErrCodeTypeMismatch
	ErrCodeValidationFailed
	ErrCodeModuleApplyFailed
	ErrCodeDisposeFailed
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:            "UNKNOWN",
	ErrCodeBindFailed:         "BIND_FAILED",
	ErrCodeInvalidType:        "INVALID_TYPE",
	ErrCodeNotConstructible:   "NOT_CONSTRUCTIBLE",
	ErrCodeNullInstance:       "NULL_INSTANCE",
	ErrCodeDuplicateSingleton: "DUPLICATE_SINGLETON",
	ErrCodeUnusedExtras:       "UNUSED_EXTRAS",
	ErrCodeNotFound:           "NOT_FOUND",
	ErrCodeAmbiguous:          "AMBIGUOUS",
	ErrCodeCircularDependency: "CIRCULAR_DEPENDENCY",
	ErrCodeProviderFailed:     "PROVIDER_FAILED",
	ErrCodeTypeMismatch:       "TYPE_MISMATCH",
	ErrCodeValidationFailed:   "VALIDATION_FAILED",
	ErrCodeModuleApplyFailed:  "MODULE_APPLY_FAILED",
	ErrCodeDisposeFailed:      "DISPOSE_FAILED",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", c)
}

// IsBind reports codes raised while configuring bindings.
func (c ErrorCode) IsBind() bool {
	switch c {
	case ErrCodeBindFailed, ErrCodeInvalidType, ErrCodeNotConstructible,
		ErrCodeNullInstance, ErrCodeDuplicateSingleton, ErrCodeUnusedExtras:
		return true
	default:
		return false
	}
}

// IsResolve reports codes raised while resolving an object graph.
func (c ErrorCode) IsResolve() bool {
	switch c {
	case ErrCodeNotFound, ErrCodeAmbiguous, ErrCodeCircularDependency,
		ErrCodeProviderFailed, ErrCodeTypeMismatch:
		return true
	default:
		return false
	}
}

type Error struct {
	Code    ErrorCode
	Message string
	Service string
	Parent  string
	Cause   error
	Stack   []string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s]", e.Code))

	if e.Service != "" {
		b.WriteString(fmt.Sprintf(" service=%q:", e.Service))
	}

	b.WriteString(" ")
	b.WriteString(e.Message)

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	if len(e.Stack) > 0 {
		b.WriteString("\nObject graph:\n")
		b.WriteString(RenderGraph(e.Stack))
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *Error) WithService(service string) *Error {
	e.Service = service
	return e
}

func (e *Error) WithParent(parent string) *Error {
	e.Parent = parent
	return e
}

func (e *Error) WithStack(stack []string) *Error {
	e.Stack = stack
	return e
}

func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// RenderGraph prints the innermost type first.
func RenderGraph(stack []string) string {
	var b strings.Builder
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteString("  ")
		b.WriteString(stack[i])
		if i > 0 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeUnknown
}
