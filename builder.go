package gojacomplate

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Setting is a configuration value that is either fixed, see [Immediate],
// or produced on demand, see [Supplier].
type Setting[T any] struct {
	value    T
	supplier func() (T, error)
	set      bool
}

// Immediate returns a Setting that always resolves to v.
func Immediate[T any](v T) Setting[T] {
	return Setting[T]{value: v, set: true}
}

// Supplier returns a Setting that calls fn on every resolution.
func Supplier[T any](fn func() (T, error)) Setting[T] {
	return Setting[T]{supplier: fn, set: fn != nil}
}

// IsSet reports whether s was built by [Immediate] or [Supplier].
func (s Setting[T]) IsSet() bool { return s.set }

// Resolve returns the value of s, calling its supplier if any. The zero
// Setting resolves to the zero value of T.
func (s Setting[T]) Resolve() (T, error) {
	if s.supplier != nil {
		return s.supplier()
	}
	return s.value, nil
}

// Creator produces a fresh [Renderer] on every call.
type Creator func() (Renderer, error)

// Builder assembles renderers from a bundle source, bindings and
// prototypes. Unset bindings and prototypes are empty. The Builder methods
// are not safe for concurrent use, though the renderers and creators they
// return are independent of it.
type Builder struct {
	source     Setting[string]
	bindings   Setting[Bindings]
	prototypes Setting[[]Prototype]
	options    []Option
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Source sets the view bundle source. It is required.
func (b *Builder) Source(source Setting[string]) *Builder {
	b.source = source
	return b
}

// Bindings sets the global bindings.
func (b *Builder) Bindings(bindings Setting[Bindings]) *Builder {
	b.bindings = bindings
	return b
}

// Prototypes sets the prototypes, consulted in order.
func (b *Builder) Prototypes(prototypes Setting[[]Prototype]) *Builder {
	b.prototypes = prototypes
	return b
}

// Options appends renderer options, applied before the resolved bindings
// and prototypes.
func (b *Builder) Options(opts ...Option) *Builder {
	b.options = append(b.options, opts...)
	return b
}

// Unique resolves every setting once and constructs a single renderer,
// intended for reuse across many render calls.
func (b *Builder) Unique() (*GojaRenderer, error) {
	return b.snapshot().build()
}

// Creator returns a factory capturing the current configuration. Each call
// resolves every setting again and constructs a new renderer, recompiling
// the bundle.
func (b *Builder) Creator() Creator {
	c := b.snapshot()
	return func() (Renderer, error) {
		r, err := c.build()
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

func (b *Builder) snapshot() *Builder {
	c := *b
	c.options = slices.Clone(b.options)
	return &c
}

func (b *Builder) build() (*GojaRenderer, error) {
	if !b.source.IsSet() {
		return nil, errors.New("gojacomplate: builder: source is required")
	}
	source, err := b.source.Resolve()
	if err != nil {
		return nil, fmt.Errorf("gojacomplate: builder: source: %w", err)
	}
	bindings, err := b.bindings.Resolve()
	if err != nil {
		return nil, fmt.Errorf("gojacomplate: builder: bindings: %w", err)
	}
	prototypes, err := b.prototypes.Resolve()
	if err != nil {
		return nil, fmt.Errorf("gojacomplate: builder: prototypes: %w", err)
	}
	opts := append(slices.Clone(b.options),
		WithBindings(maps.Clone(bindings)),
		WithPrototypes(prototypes...),
	)
	return New(source, opts...)
}
