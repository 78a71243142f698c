package gojacomplate

import (
	"errors"
	"fmt"
)

var (
	// ErrScriptEvaluation is matched by [*ScriptEvaluationError].
	ErrScriptEvaluation = errors.New("script evaluation failed")

	// ErrUnknownView is matched by [*UnknownViewError].
	ErrUnknownView = errors.New("unknown view")

	// ErrParameterFormat is matched by [*ParameterFormatError].
	ErrParameterFormat = errors.New("parameters is not an object")

	// ErrArity is matched by [*ArityError].
	ErrArity = errors.New("arity mismatch")

	// ErrUnsupportedType indicates a Go value that has no script
	// representation, e.g. a channel, or a struct without a registered
	// [Prototype].
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrForeignValue indicates an object [Value] used with a runtime other
	// than the one that owns it.
	ErrForeignValue = errors.New("value belongs to a different runtime")

	errRenderUndefined = errors.New("ReferenceError: 'render' is not defined")
)

// ScriptEvaluationError is returned when a view bundle cannot be compiled or
// executed, or does not define the render entry point. It is always raised
// at construction time.
type ScriptEvaluationError struct {
	Cause  error
	Source string
}

// Error implements the error interface.
func (e *ScriptEvaluationError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("gojacomplate: %s: %s", e.Source, ErrScriptEvaluation)
	}
	return fmt.Sprintf("gojacomplate: %s: %s: %s", e.Source, ErrScriptEvaluation, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ScriptEvaluationError) Unwrap() error {
	return e.Cause
}

// Is reports true for [ErrScriptEvaluation].
func (e *ScriptEvaluationError) Is(target error) bool {
	return target == ErrScriptEvaluation
}

// UnknownViewError is returned when the requested view is not registered
// with the bundle's dispatcher.
type UnknownViewError struct {
	View string
}

// Error implements the error interface.
func (e *UnknownViewError) Error() string {
	return "gojacomplate: " + unknownViewMessage(e.View)
}

// Is reports true for [ErrUnknownView].
func (e *UnknownViewError) Is(target error) bool {
	return target == ErrUnknownView
}

func unknownViewMessage(view string) string {
	return "unknown view macro: `" + view + "` is not registered"
}

// ParameterFormatError is returned when render parameters do not describe
// a script object, e.g. pre-serialized text that fails to parse, or parses
// to a scalar or array.
type ParameterFormatError struct {
	Cause error
}

// Error implements the error interface.
func (e *ParameterFormatError) Error() string {
	if e.Cause == nil {
		return "gojacomplate: " + ErrParameterFormat.Error()
	}
	return fmt.Sprintf("gojacomplate: %s: %s", ErrParameterFormat, e.Cause)
}

// Unwrap returns the underlying cause, if any.
func (e *ParameterFormatError) Unwrap() error {
	return e.Cause
}

// Is reports true for [ErrParameterFormat].
func (e *ParameterFormatError) Is(target error) bool {
	return target == ErrParameterFormat
}

// ArityReason identifies which arity rule an [ArityError] violated.
type ArityReason int

const (
	// ArityTooMany means more arguments than declared parameters.
	ArityTooMany ArityReason = iota + 1
	// ArityUnsupported means more than [MaxArguments] arguments.
	ArityUnsupported
	// ArityMissing means fewer arguments than required parameters.
	ArityMissing
)

// ArityError is returned by [Function.Apply] when the number of arguments
// does not fit the function's declared parameters.
type ArityError struct {
	// Function is the name the function was declared with.
	Function string
	// Param names the first missing parameter, for [ArityMissing].
	Param  string
	Reason ArityReason
	// Given is the number of arguments supplied.
	Given int
}

// Error implements the error interface.
func (e *ArityError) Error() string {
	var msg string
	switch e.Reason {
	case ArityUnsupported:
		msg = fmt.Sprintf("too many arguments: more than %d arguments are not supported", MaxArguments)
	case ArityMissing:
		msg = "missing required argument `" + e.Param + "`"
	default:
		msg = fmt.Sprintf("too many arguments: %d given", e.Given)
	}
	return fmt.Sprintf("gojacomplate: %s: %s", e.Function, msg)
}

// Is reports true for [ErrArity].
func (e *ArityError) Is(target error) bool {
	return target == ErrArity
}
