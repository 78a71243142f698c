package gojacomplate

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"

	"github.com/dop251/goja"
	"github.com/joeycumines/go-utilpkg/jsonenc"
)

// Marshaller converts host values to script values, dispatching registered
// prototypes in order, first match wins. The zero value is ready to use and
// has no prototypes. A Marshaller is immutable and safe for concurrent use.
type Marshaller struct {
	prototypes []Prototype
}

var defaultMarshaller = &Marshaller{}

// NewMarshaller returns a Marshaller for the given prototypes. Nil entries
// are ignored.
func NewMarshaller(prototypes ...Prototype) *Marshaller {
	m := &Marshaller{prototypes: make([]Prototype, 0, len(prototypes))}
	for _, p := range prototypes {
		if p != nil {
			m.prototypes = append(m.prototypes, p)
		}
	}
	return m
}

// Prototypes returns the registered prototypes, in dispatch order.
func (m *Marshaller) Prototypes() []Prototype {
	return slices.Clone(m.prototypes)
}

// duplicates returns prototype names registered more than once.
func (m *Marshaller) duplicates() []string {
	var dups []string
	seen := make(map[string]int, len(m.prototypes))
	for _, p := range m.prototypes {
		seen[p.Name()]++
		if seen[p.Name()] == 2 {
			dups = append(dups, p.Name())
		}
	}
	return dups
}

func (m *Marshaller) match(v any) ([]Field, string, bool) {
	for _, p := range m.prototypes {
		if fields, ok := p.Extract(v); ok {
			return fields, p.Name(), true
		}
	}
	return nil, "", false
}

// ToScript converts v to a value of rt. See the package documentation for
// the supported types. Host object graphs must be acyclic.
func (m *Marshaller) ToScript(rt *goja.Runtime, v any) (goja.Value, error) {
	val, err := m.toScript(rt, v)
	if err != nil {
		return nil, fmt.Errorf("gojacomplate: %w", err)
	}
	return val, nil
}

func (m *Marshaller) toScript(rt *goja.Runtime, v any) (goja.Value, error) {
	switch x := v.(type) {
	case nil:
		return goja.Null(), nil
	case Value:
		return x.toScript(rt)
	case goja.Value:
		return x, nil
	case *Function:
		if x == nil {
			return goja.Null(), nil
		}
		return x.bind(rt, m)
	}
	if val, ok := primitiveValue(v); ok {
		return val.toScript(rt)
	}
	if isNilPointer(v) {
		return goja.Null(), nil
	}
	if fields, name, ok := m.match(v); ok {
		obj := rt.NewObject()
		for _, f := range fields {
			val, err := m.toScript(rt, f.Value)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, f.Name, err)
			}
			if err := obj.Set(f.Name, val); err != nil {
				return nil, err
			}
		}
		return obj, nil
	}
	switch x := v.(type) {
	case []any:
		if x == nil {
			return goja.Null(), nil
		}
		return m.arrayToScript(rt, len(x), func(i int) any { return x[i] })
	case map[string]any:
		if x == nil {
			return goja.Null(), nil
		}
		return m.objectToScript(rt, sortedKeys(x), func(k string) any { return x[k] })
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return goja.Null(), nil
		}
		return m.toScript(rt, rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return goja.Null(), nil
		}
		return m.arrayToScript(rt, rv.Len(), func(i int) any { return rv.Index(i).Interface() })
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		if rv.IsNil() {
			return goja.Null(), nil
		}
		keys, values := reflectMapEntries(rv)
		return m.objectToScript(rt, keys, func(k string) any { return values[k] })
	case reflect.Bool:
		return rt.ToValue(rv.Bool()), nil
	case reflect.String:
		return rt.ToValue(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intValue(rv.Int()).toScript(rt)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return uintValue(rv.Uint()).toScript(rt)
	case reflect.Float32, reflect.Float64:
		return rt.ToValue(rv.Float()), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func (m *Marshaller) arrayToScript(rt *goja.Runtime, n int, get func(int) any) (goja.Value, error) {
	items := make([]any, n)
	for i := range items {
		val, err := m.toScript(rt, get(i))
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		items[i] = val
	}
	return rt.NewArray(items...), nil
}

func (m *Marshaller) objectToScript(rt *goja.Runtime, keys []string, get func(string) any) (goja.Value, error) {
	obj := rt.NewObject()
	for _, k := range keys {
		val, err := m.toScript(rt, get(k))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", strconv.Quote(k), err)
		}
		if err := obj.Set(k, val); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func sortedKeys(x map[string]any) []string {
	keys := make([]string, 0, len(x))
	for k := range x {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func reflectMapEntries(rv reflect.Value) ([]string, map[string]any) {
	keys := make([]string, 0, rv.Len())
	values := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().String()
		keys = append(keys, k)
		values[k] = iter.Value().Interface()
	}
	slices.Sort(keys)
	return keys, values
}

// ParseParameters parses pre-serialized parameter text with the runtime's
// JSON parser. The text must describe an object, otherwise a
// [*ParameterFormatError] is returned.
func (m *Marshaller) ParseParameters(rt *goja.Runtime, text string) (*goja.Object, error) {
	var parse goja.Callable
	if j, ok := rt.GlobalObject().Get("JSON").(*goja.Object); ok {
		parse, _ = goja.AssertFunction(j.Get("parse"))
	}
	if parse == nil {
		return nil, &ParameterFormatError{Cause: fmt.Errorf("%w: JSON.parse", ErrUnsupportedType)}
	}
	res, err := parse(goja.Undefined(), rt.ToValue(text))
	if err != nil {
		return nil, &ParameterFormatError{Cause: err}
	}
	return parametersObject(res)
}

func parametersObject(v goja.Value) (*goja.Object, error) {
	obj, ok := v.(*goja.Object)
	if !ok || obj.ClassName() == "Array" {
		return nil, &ParameterFormatError{}
	}
	if _, ok := goja.AssertFunction(obj); ok {
		return nil, &ParameterFormatError{}
	}
	return obj, nil
}

// AppendJSON appends the JSON encoding of v to dst, producing
// pre-serialized parameter text that parses to the same value
// [Marshaller.ToScript] builds. Functions are omitted from objects and encoded
// as null in arrays, and non-finite numbers are null, as with JSON.stringify.
// Unlike JSON.stringify, strings have <, > and & escaped as \u003c, \u003e
// and \u0026, so the output is not byte-identical.
func (m *Marshaller) AppendJSON(dst []byte, v any) ([]byte, error) {
	if isFunction(v) {
		return dst, fmt.Errorf("gojacomplate: %w: a function has no JSON encoding", ErrUnsupportedType)
	}
	out, err := m.appendJSON(dst, v)
	if err != nil {
		return dst, fmt.Errorf("gojacomplate: %w", err)
	}
	return out, nil
}

func isFunction(v any) bool {
	switch x := v.(type) {
	case *Function:
		return x != nil
	case Value:
		return x.kind == KindFunction
	case *goja.Object:
		_, ok := goja.AssertFunction(x)
		return ok
	}
	return false
}

func (m *Marshaller) appendJSON(dst []byte, v any) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return append(dst, "null"...), nil
	case Value:
		if x.ref != nil {
			return appendObjectJSON(dst, x.ref)
		}
		return appendPrimitiveJSON(dst, x), nil
	case *goja.Object:
		return appendObjectJSON(dst, x)
	case goja.Value:
		return appendPrimitiveJSON(dst, wrapValue(nil, nil, x)), nil
	case *Function:
		return append(dst, "null"...), nil
	}
	if val, ok := primitiveValue(v); ok {
		return appendPrimitiveJSON(dst, val), nil
	}
	if isNilPointer(v) {
		return append(dst, "null"...), nil
	}
	if fields, name, ok := m.match(v); ok {
		dst = append(dst, '{')
		first := true
		for _, f := range fields {
			if isFunction(f.Value) {
				continue
			}
			if !first {
				dst = append(dst, ',')
			}
			first = false
			dst = jsonenc.AppendString(dst, f.Name)
			dst = append(dst, ':')
			var err error
			if dst, err = m.appendJSON(dst, f.Value); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, f.Name, err)
			}
		}
		return append(dst, '}'), nil
	}
	switch x := v.(type) {
	case []any:
		if x == nil {
			return append(dst, "null"...), nil
		}
		return m.appendArrayJSON(dst, len(x), func(i int) any { return x[i] })
	case map[string]any:
		if x == nil {
			return append(dst, "null"...), nil
		}
		return m.appendObjectJSON(dst, sortedKeys(x), func(k string) any { return x[k] })
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return append(dst, "null"...), nil
		}
		return m.appendJSON(dst, rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return append(dst, "null"...), nil
		}
		return m.appendArrayJSON(dst, rv.Len(), func(i int) any { return rv.Index(i).Interface() })
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		if rv.IsNil() {
			return append(dst, "null"...), nil
		}
		keys, values := reflectMapEntries(rv)
		return m.appendObjectJSON(dst, keys, func(k string) any { return values[k] })
	case reflect.Bool:
		return strconv.AppendBool(dst, rv.Bool()), nil
	case reflect.String:
		return jsonenc.AppendString(dst, rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.AppendInt(dst, rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return appendPrimitiveJSON(dst, uintValue(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return appendPrimitiveJSON(dst, floatValue(rv.Float())), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
}

func (m *Marshaller) appendArrayJSON(dst []byte, n int, get func(int) any) ([]byte, error) {
	dst = append(dst, '[')
	for i := 0; i < n; i++ {
		if i > 0 {
			dst = append(dst, ',')
		}
		item := get(i)
		if isFunction(item) {
			dst = append(dst, "null"...)
			continue
		}
		var err error
		if dst, err = m.appendJSON(dst, item); err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
	}
	return append(dst, ']'), nil
}

func (m *Marshaller) appendObjectJSON(dst []byte, keys []string, get func(string) any) ([]byte, error) {
	dst = append(dst, '{')
	first := true
	for _, k := range keys {
		val := get(k)
		if isFunction(val) {
			continue
		}
		if !first {
			dst = append(dst, ',')
		}
		first = false
		dst = jsonenc.AppendString(dst, k)
		dst = append(dst, ':')
		var err error
		if dst, err = m.appendJSON(dst, val); err != nil {
			return nil, fmt.Errorf("%s: %w", strconv.Quote(k), err)
		}
	}
	return append(dst, '}'), nil
}

func appendPrimitiveJSON(dst []byte, v Value) []byte {
	switch v.kind {
	case KindBool:
		return strconv.AppendBool(dst, v.boolean)
	case KindNumber:
		if v.isInt {
			return strconv.AppendInt(dst, v.integer, 10)
		}
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return append(dst, "null"...)
		}
		return jsonenc.AppendFloat64(dst, v.num)
	case KindString:
		return jsonenc.AppendString(dst, v.str)
	default:
		return append(dst, "null"...)
	}
}

func appendObjectJSON(dst []byte, obj *goja.Object) ([]byte, error) {
	b, err := obj.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return append(dst, b...), nil
}
