package gojacomplate

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/dop251/goja"
)

// Kind identifies which variant a [Value] holds.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindObject
	KindFunction
)

// String returns the script type name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindFunction:
		return "function"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Value is a script value as seen from Go. The zero value is undefined.
//
// Primitives are held by value and may be used with any runtime. Object and
// function values reference an object owned by a goja runtime; they must not
// be used after the renderer owning that runtime has been closed, and cannot
// be passed into a different runtime.
type Value struct {
	ref     *goja.Object
	rt      *goja.Runtime
	m       *Marshaller
	str     string
	num     float64
	integer int64
	kind    Kind
	isInt   bool
	boolean bool
}

// Undefined returns the undefined value.
func Undefined() Value { return Value{} }

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// ValueOf converts a Go primitive (nil, bool, any integer or floating point
// kind, or string) to a [Value]. A [Value] is returned unchanged. Composite
// values need a runtime, see [Marshaller.ToScript].
func ValueOf(v any) (Value, error) {
	if val, ok := v.(Value); ok {
		return val, nil
	}
	if val, ok := primitiveValue(v); ok {
		return val, nil
	}
	return Value{}, fmt.Errorf("gojacomplate: %w: %T is not a primitive", ErrUnsupportedType, v)
}

// Wrap wraps a value produced by rt. Script functions reached through the
// returned value marshal their arguments without any registered prototypes;
// values handed to bound [Function] callbacks use the renderer's prototypes.
func Wrap(rt *goja.Runtime, v goja.Value) Value {
	return wrapValue(rt, nil, v)
}

func wrapValue(rt *goja.Runtime, m *Marshaller, v goja.Value) Value {
	if v == nil || goja.IsUndefined(v) {
		return Value{}
	}
	if goja.IsNull(v) {
		return Null()
	}
	if obj, ok := v.(*goja.Object); ok {
		kind := KindObject
		if _, ok := goja.AssertFunction(obj); ok {
			kind = KindFunction
		}
		return Value{kind: kind, ref: obj, rt: rt, m: m}
	}
	if sym, ok := v.(*goja.Symbol); ok {
		return Value{kind: KindString, str: "Symbol(" + sym.String() + ")"}
	}
	switch x := v.Export().(type) {
	case *big.Int:
		if x.IsInt64() {
			return intValue(x.Int64())
		}
		f, _ := new(big.Float).SetInt(x).Float64()
		return floatValue(f)
	default:
		if val, ok := primitiveValue(x); ok {
			return val
		}
	}
	return Value{kind: KindString, str: v.String()}
}

func primitiveValue(v any) (Value, bool) {
	switch x := v.(type) {
	case nil:
		return Null(), true
	case bool:
		return Value{kind: KindBool, boolean: x}, true
	case string:
		return Value{kind: KindString, str: x}, true
	case int:
		return intValue(int64(x)), true
	case int8:
		return intValue(int64(x)), true
	case int16:
		return intValue(int64(x)), true
	case int32:
		return intValue(int64(x)), true
	case int64:
		return intValue(x), true
	case uint:
		return uintValue(uint64(x)), true
	case uint8:
		return intValue(int64(x)), true
	case uint16:
		return intValue(int64(x)), true
	case uint32:
		return intValue(int64(x)), true
	case uint64:
		return uintValue(x), true
	case float32:
		return floatValue(float64(x)), true
	case float64:
		return floatValue(x), true
	default:
		return Value{}, false
	}
}

func intValue(i int64) Value {
	return Value{kind: KindNumber, integer: i, num: float64(i), isInt: true}
}

func uintValue(u uint64) Value {
	if u > math.MaxInt64 {
		return floatValue(float64(u))
	}
	return intValue(int64(u))
}

// floatValue normalises integral floats within the int64 range to integers.
// Int is 0 for NaN, and saturates at the int64 bounds for other values
// outside that range.
func floatValue(f float64) Value {
	if f >= -(1<<63) && f < 1<<63 {
		if f == math.Trunc(f) {
			return intValue(int64(f))
		}
		return Value{kind: KindNumber, num: f, integer: int64(f)}
	}
	v := Value{kind: KindNumber, num: f}
	switch {
	case f > 0:
		v.integer = math.MaxInt64
	case f < 0:
		v.integer = math.MinInt64
	}
	return v
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNullish reports whether v is undefined or null.
func (v Value) IsNullish() bool {
	return v.kind == KindUndefined || v.kind == KindNull
}

// Bool returns the boolean held by v, or false if v is not a boolean.
func (v Value) Bool() bool {
	return v.kind == KindBool && v.boolean
}

// Int returns the number held by v truncated to an integer, or 0 if v is not
// a number.
func (v Value) Int() int64 {
	if v.kind != KindNumber {
		return 0
	}
	return v.integer
}

// Float returns the number held by v, or 0 if v is not a number.
func (v Value) Float() float64 {
	if v.kind != KindNumber {
		return 0
	}
	return v.num
}

// String returns the string held by v, or a display form for other kinds.
func (v Value) String() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.boolean)
	case KindNumber:
		if v.isInt {
			return strconv.FormatInt(v.integer, 10)
		}
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return v.str
	default:
		return v.ref.String()
	}
}

// Export converts v to a plain Go value: nil, bool, int64 (integral
// numbers), float64, string, [*ScriptFunction] for functions, and for other
// objects whatever goja exports (typically map[string]any or []any).
func (v Value) Export() any {
	switch v.kind {
	case KindBool:
		return v.boolean
	case KindNumber:
		if v.isInt {
			return v.integer
		}
		return v.num
	case KindString:
		return v.str
	case KindObject:
		return v.ref.Export()
	case KindFunction:
		f, _ := v.Function()
		return f
	default:
		return nil
	}
}

// Object returns the referenced script object, for object and function
// values.
func (v Value) Object() (*goja.Object, bool) {
	return v.ref, v.ref != nil
}

// Function returns a handle that calls the referenced script function from
// Go.
func (v Value) Function() (*ScriptFunction, bool) {
	if v.kind != KindFunction {
		return nil, false
	}
	fn, ok := goja.AssertFunction(v.ref)
	if !ok {
		return nil, false
	}
	m := v.m
	if m == nil {
		m = defaultMarshaller
	}
	return &ScriptFunction{rt: v.rt, fn: fn, m: m}, true
}

func (v Value) toScript(rt *goja.Runtime) (goja.Value, error) {
	switch v.kind {
	case KindUndefined:
		return goja.Undefined(), nil
	case KindNull:
		return goja.Null(), nil
	case KindBool:
		return rt.ToValue(v.boolean), nil
	case KindNumber:
		if v.isInt {
			return rt.ToValue(v.integer), nil
		}
		return rt.ToValue(v.num), nil
	case KindString:
		return rt.ToValue(v.str), nil
	default:
		if v.rt != rt {
			return nil, fmt.Errorf("gojacomplate: %w", ErrForeignValue)
		}
		return v.ref, nil
	}
}

// ScriptFunction calls a script function from Go.
type ScriptFunction struct {
	rt *goja.Runtime
	fn goja.Callable
	m  *Marshaller
}

// Call marshals args, invokes the function with an undefined receiver, and
// wraps the result. Script exceptions are returned as [*goja.Exception].
func (f *ScriptFunction) Call(args ...any) (Value, error) {
	vals := make([]goja.Value, len(args))
	for i, arg := range args {
		val, err := f.m.toScript(f.rt, arg)
		if err != nil {
			return Value{}, fmt.Errorf("gojacomplate: argument %d: %w", i, err)
		}
		vals[i] = val
	}
	res, err := f.fn(goja.Undefined(), vals...)
	if err != nil {
		return Value{}, err
	}
	return wrapValue(f.rt, f.m, res), nil
}
