package gojacomplate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Field is one named field extracted from a host object.
type Field struct {
	Name  string
	Value any
}

// Prototype maps a host type to the fields of the script object it
// marshals to.
//
// Extract reports false for values the prototype does not handle. The
// returned fields become properties of the script object in order, each
// marshalled recursively.
type Prototype interface {
	Name() string
	Extract(v any) ([]Field, bool)
}

// Property is a computed field of a [NewPrototype] prototype.
type Property[T any] struct {
	get  func(T) any
	name string
}

// Prop declares a computed field.
func Prop[T any](name string, get func(T) any) Property[T] {
	return Property[T]{name: name, get: get}
}

type propPrototype[T any] struct {
	name  string
	props []Property[T]
}

// NewPrototype declares a prototype for values of type T, with fields
// computed by getters.
func NewPrototype[T any](name string, props ...Property[T]) (Prototype, error) {
	if name == "" {
		return nil, errors.New("gojacomplate: prototype name must not be empty")
	}
	seen := make(map[string]struct{}, len(props))
	for i, p := range props {
		if p.name == "" {
			return nil, fmt.Errorf("gojacomplate: prototype %s: property %d has no name", name, i)
		}
		if p.get == nil {
			return nil, fmt.Errorf("gojacomplate: prototype %s: property %q has no getter", name, p.name)
		}
		if _, ok := seen[p.name]; ok {
			return nil, fmt.Errorf("gojacomplate: prototype %s: duplicate property %q", name, p.name)
		}
		seen[p.name] = struct{}{}
	}
	return &propPrototype[T]{name: name, props: append([]Property[T](nil), props...)}, nil
}

// MustPrototype panics if err is non-nil, otherwise it returns p.
func MustPrototype(p Prototype, err error) Prototype {
	if err != nil {
		panic(err)
	}
	return p
}

func (p *propPrototype[T]) Name() string { return p.name }

func (p *propPrototype[T]) Extract(v any) ([]Field, bool) {
	x, ok := v.(T)
	if !ok {
		return nil, false
	}
	fields := make([]Field, len(p.props))
	for i, prop := range p.props {
		fields[i] = Field{Name: prop.name, Value: prop.get(x)}
	}
	return fields, true
}

type structField struct {
	name  string
	index int
}

type structPrototype[T any] struct {
	name   string
	fields []structField
}

// StructPrototype declares a prototype for struct type T, reading fields
// directly. Matches both T and *T.
//
// Fields are named by their `complate` tag, else their `json` tag, else the
// Go field name, and are selected by those names. With no names given, all
// exported fields are used in declaration order, except those tagged "-".
func StructPrototype[T any](name string, fields ...string) (Prototype, error) {
	if name == "" {
		return nil, errors.New("gojacomplate: prototype name must not be empty")
	}
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("gojacomplate: prototype %s: %w: %s is not a struct", name, ErrUnsupportedType, t)
	}

	var all []structField
	byName := make(map[string]int)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		fieldName, skip := structFieldName(sf)
		if skip {
			continue
		}
		if _, ok := byName[fieldName]; ok {
			return nil, fmt.Errorf("gojacomplate: prototype %s: duplicate property %q", name, fieldName)
		}
		byName[fieldName] = i
		all = append(all, structField{name: fieldName, index: i})
	}

	p := &structPrototype[T]{name: name}
	if len(fields) == 0 {
		p.fields = all
		return p, nil
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		idx, ok := byName[f]
		if !ok {
			return nil, fmt.Errorf("gojacomplate: prototype %s: %s has no field %q", name, t, f)
		}
		if _, ok := seen[f]; ok {
			return nil, fmt.Errorf("gojacomplate: prototype %s: duplicate property %q", name, f)
		}
		seen[f] = struct{}{}
		p.fields = append(p.fields, structField{name: f, index: idx})
	}
	return p, nil
}

func structFieldName(sf reflect.StructField) (string, bool) {
	for _, key := range [...]string{"complate", "json"} {
		tag, ok := sf.Tag.Lookup(key)
		if !ok {
			continue
		}
		if tag == "-" {
			return "", true
		}
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			return name, false
		}
	}
	return sf.Name, false
}

func (p *structPrototype[T]) Name() string { return p.name }

func (p *structPrototype[T]) Extract(v any) ([]Field, bool) {
	var rv reflect.Value
	switch x := v.(type) {
	case T:
		rv = reflect.ValueOf(&x).Elem()
	case *T:
		if x == nil {
			return nil, false
		}
		rv = reflect.ValueOf(x).Elem()
	default:
		return nil, false
	}
	fields := make([]Field, len(p.fields))
	for i, f := range p.fields {
		fields[i] = Field{Name: f.name, Value: rv.Field(f.index).Interface()}
	}
	return fields, true
}
