package gojacomplate

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
)

// MaxArguments is the most arguments a [Function] accepts in one call, and
// the most parameters it may declare.
const MaxArguments = 8

// Callback is the Go side of a [Function]. It always receives one argument
// per declared parameter, with omitted optional arguments set to their
// defaults.
type Callback func(args []Value) (any, error)

// Param declares one positional parameter of a [Function].
type Param struct {
	def      Value
	name     string
	optional bool
}

// Arg declares a required parameter.
func Arg(name string) Param {
	return Param{name: name}
}

// OptionalArg declares a parameter that defaults to def, which must be a
// primitive accepted by [ValueOf].
func OptionalArg(name string, def any) Param {
	v, err := ValueOf(def)
	if err != nil {
		// reported by NewFunction
		v = Value{kind: KindObject}
	}
	return Param{name: name, def: v, optional: true}
}

// Name returns the parameter name.
func (p Param) Name() string { return p.name }

// Optional reports whether the parameter has a default.
func (p Param) Optional() bool { return p.optional }

// Default returns the parameter default, undefined for required parameters.
func (p Param) Default() Value { return p.def }

// Function is a Go callable exposed to script, with declared arity.
//
// A Function is stateless and may be shared between renderers, and called
// concurrently, as long as its [Callback] allows it.
type Function struct {
	fn       Callback
	name     string
	params   []Param
	required int
}

// NewFunction declares a Function. Required parameters must precede
// optional ones, names must be unique and non-empty, optional defaults must
// be primitives, and at most [MaxArguments] parameters may be declared.
func NewFunction(name string, fn Callback, params ...Param) (*Function, error) {
	if fn == nil {
		return nil, errors.New("gojacomplate: function callback must not be nil")
	}
	if len(params) > MaxArguments {
		return nil, fmt.Errorf("gojacomplate: %s: %d parameters declared, at most %d are supported", name, len(params), MaxArguments)
	}
	f := &Function{
		fn:     fn,
		name:   name,
		params: append([]Param(nil), params...),
	}
	seen := make(map[string]struct{}, len(params))
	for i, p := range params {
		if p.name == "" {
			return nil, fmt.Errorf("gojacomplate: %s: parameter %d has no name", name, i)
		}
		if _, ok := seen[p.name]; ok {
			return nil, fmt.Errorf("gojacomplate: %s: duplicate parameter %q", name, p.name)
		}
		seen[p.name] = struct{}{}
		if !p.optional {
			if f.required != i {
				return nil, fmt.Errorf("gojacomplate: %s: required parameter %q follows an optional parameter", name, p.name)
			}
			f.required++
			continue
		}
		if k := p.def.kind; k == KindObject || k == KindFunction {
			return nil, fmt.Errorf("gojacomplate: %s: parameter %q: %w: default must be a primitive", name, p.name, ErrUnsupportedType)
		}
	}
	return f, nil
}

// MustFunction is like [NewFunction] but panics on error.
func MustFunction(name string, fn Callback, params ...Param) *Function {
	f, err := NewFunction(name, fn, params...)
	if err != nil {
		panic(err)
	}
	return f
}

// Name returns the declared name.
func (f *Function) Name() string { return f.name }

// Required returns the number of required parameters.
func (f *Function) Required() int { return f.required }

// Params returns the number of declared parameters.
func (f *Function) Params() int { return len(f.params) }

// Apply calls the function with positional args, returning the callback's
// result as a Go value. The result is marshalled when the call originates
// from script.
//
// Apply fails with an [*ArityError] if more than [MaxArguments] arguments,
// more arguments than declared parameters, or fewer than the required
// parameters are given, checked in that order.
func (f *Function) Apply(args []Value) (any, error) {
	switch {
	case len(args) > MaxArguments:
		return nil, &ArityError{Function: f.name, Reason: ArityUnsupported, Given: len(args)}
	case len(args) > len(f.params):
		return nil, &ArityError{Function: f.name, Reason: ArityTooMany, Given: len(args)}
	case len(args) < f.required:
		return nil, &ArityError{Function: f.name, Reason: ArityMissing, Param: f.params[len(args)].name, Given: len(args)}
	}
	full := make([]Value, len(f.params))
	copy(full, args)
	for i := len(args); i < len(f.params); i++ {
		full[i] = f.params[i].def
	}
	return f.fn(full)
}

// bind exposes f as a native function of rt. Errors are thrown into script
// as Go errors, so they unwrap from the resulting exception.
func (f *Function) bind(rt *goja.Runtime, m *Marshaller) (goja.Value, error) {
	fn := rt.ToValue(func(call goja.FunctionCall) goja.Value {
		args := make([]Value, len(call.Arguments))
		for i, arg := range call.Arguments {
			args[i] = wrapValue(rt, m, arg)
		}
		result, err := f.Apply(args)
		if err != nil {
			panic(rt.NewGoError(err))
		}
		val, err := m.toScript(rt, result)
		if err != nil {
			panic(rt.NewGoError(fmt.Errorf("gojacomplate: %s: result: %w", f.name, err)))
		}
		return val
	}).(*goja.Object)
	if f.name != "" {
		if err := fn.DefineDataProperty("name", rt.ToValue(f.name), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
			return nil, fmt.Errorf("%s: name: %w", f.name, err)
		}
	}
	if err := fn.DefineDataProperty("length", rt.ToValue(f.required), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
		return nil, fmt.Errorf("%s: length: %w", f.name, err)
	}
	return fn, nil
}
