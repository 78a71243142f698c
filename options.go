package gojacomplate

import (
	"errors"
	"maps"

	"github.com/dop251/goja_nodejs/require"
	"github.com/joeycumines/logiface"
)

// DefaultSourceName is the name view bundles are compiled under unless
// [WithSourceName] is given.
const DefaultSourceName = "views.js"

// Bindings are installed as globals of the runtime before the view bundle
// runs. Values are marshalled with the renderer's prototypes; a [*Function]
// becomes a callable script function.
type Bindings map[string]any

// rendererOptions holds configuration for a [GojaRenderer].
type rendererOptions struct {
	bindings   Bindings
	logger     *logiface.Logger[logiface.Event]
	registry   *require.Registry
	sourceName string
	prototypes []Prototype
}

// Option configures a [GojaRenderer]. Options are applied during
// construction.
type Option interface {
	applyOption(*rendererOptions) error
}

// optionFunc implements [Option] via a closure.
type optionFunc struct {
	fn func(*rendererOptions) error
}

func (o *optionFunc) applyOption(opts *rendererOptions) error {
	return o.fn(opts)
}

// WithBindings adds global bindings. Repeated use merges, later names
// replace earlier ones.
func WithBindings(bindings Bindings) Option {
	return &optionFunc{fn: func(opts *rendererOptions) error {
		if opts.bindings == nil {
			opts.bindings = make(Bindings, len(bindings))
		}
		maps.Copy(opts.bindings, bindings)
		return nil
	}}
}

// WithPrototypes appends prototypes, consulted in order when marshalling.
func WithPrototypes(prototypes ...Prototype) Option {
	return &optionFunc{fn: func(opts *rendererOptions) error {
		opts.prototypes = append(opts.prototypes, prototypes...)
		return nil
	}}
}

// WithLogger configures the logger used for diagnostics and for the script
// console. A nil logger disables logging, the default.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionFunc{fn: func(opts *rendererOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithRegistry configures the [require.Registry] enabled on the runtime,
// making its native modules available to the bundle through require(). The
// registry is not modified, so it may be shared between renderers: the
// console global still writes to the renderer's logger, while
// require("console") resolves through the registry. If not set, a new
// registry is used.
func WithRegistry(registry *require.Registry) Option {
	return &optionFunc{fn: func(opts *rendererOptions) error {
		opts.registry = registry
		return nil
	}}
}

// WithSourceName sets the name the bundle is compiled under, as seen in
// stack traces and errors.
func WithSourceName(name string) Option {
	return &optionFunc{fn: func(opts *rendererOptions) error {
		if name == "" {
			return errors.New("source name must not be empty")
		}
		opts.sourceName = name
		return nil
	}}
}

// resolveOptions applies the given options to a default [rendererOptions].
func resolveOptions(opts []Option) (*rendererOptions, error) {
	cfg := &rendererOptions{sourceName: DefaultSourceName}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyOption(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
