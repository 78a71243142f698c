package gojacomplate

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dop251/goja"
	"github.com/joeycumines/logiface"
)

// Renderer renders views of a bundle.
type Renderer interface {
	// Render renders view into stream. Parameters may be a host value
	// marshalling to an object, pre-serialized JSON text (string, []byte or
	// json.RawMessage), or nil for an empty object. The stream is flushed
	// once the view completes.
	Render(view string, parameters any, stream Stream) error
	// RenderToString renders view into memory.
	RenderToString(view string, parameters any) (string, error)
}

// GojaRenderer is a [Renderer] owning one goja runtime with a view bundle
// loaded into it. It is not safe for concurrent use.
type GojaRenderer struct {
	runtime    *goja.Runtime
	render     goja.Callable
	marshaller *Marshaller
	logger     *logiface.Logger[logiface.Event]
	sourceName string
}

var _ Renderer = (*GojaRenderer)(nil)

// New compiles and runs the view bundle source in a new runtime, after
// installing bindings and the script console.
//
// Compilation failures, exceptions thrown while running the bundle, and a
// missing render function are reported as [*ScriptEvaluationError].
func New(source string, opts ...Option) (*GojaRenderer, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("gojacomplate: %w", err)
	}

	r := &GojaRenderer{
		runtime:    goja.New(),
		marshaller: NewMarshaller(cfg.prototypes...),
		logger:     cfg.logger,
		sourceName: cfg.sourceName,
	}

	for _, name := range r.marshaller.duplicates() {
		r.logger.Warning().
			Str("prototype", name).
			Log("prototype registered more than once, first match wins")
	}

	if err := enableRequire(r.runtime, cfg.registry, r.logger); err != nil {
		return nil, fmt.Errorf("gojacomplate: console: %w", err)
	}

	names := make([]string, 0, len(cfg.bindings))
	for name := range cfg.bindings {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		val, err := r.marshaller.toScript(r.runtime, cfg.bindings[name])
		if err != nil {
			return nil, fmt.Errorf("gojacomplate: binding %q: %w", name, err)
		}
		if err := r.runtime.Set(name, val); err != nil {
			return nil, fmt.Errorf("gojacomplate: binding %q: %w", name, err)
		}
	}

	prg, err := goja.Compile(cfg.sourceName, source, false)
	if err != nil {
		return nil, &ScriptEvaluationError{Cause: err, Source: cfg.sourceName}
	}
	if _, err := r.runtime.RunProgram(prg); err != nil {
		return nil, &ScriptEvaluationError{Cause: err, Source: cfg.sourceName}
	}
	render, ok := goja.AssertFunction(r.runtime.Get("render"))
	if !ok {
		return nil, &ScriptEvaluationError{Cause: errRenderUndefined, Source: cfg.sourceName}
	}
	r.render = render

	r.logger.Debug().
		Str("script", cfg.sourceName).
		Int("bindings", len(names)).
		Int("prototypes", len(r.marshaller.prototypes)).
		Log("renderer constructed")

	return r, nil
}

// Runtime returns the runtime owned by r.
func (r *GojaRenderer) Runtime() *goja.Runtime {
	r.mustOpen()
	return r.runtime
}

// Marshaller returns the marshaller holding r's prototypes.
func (r *GojaRenderer) Marshaller() *Marshaller {
	return r.marshaller
}

// Close releases the runtime. Using r afterwards panics. Close is
// idempotent and always returns nil.
func (r *GojaRenderer) Close() error {
	if r.runtime != nil {
		r.runtime = nil
		r.render = nil
	}
	return nil
}

func (r *GojaRenderer) mustOpen() {
	if r.runtime == nil {
		panic("gojacomplate: renderer used after Close")
	}
}

// Render implements [Renderer].
//
// An [*UnknownViewError] is returned if the bundle does not register view.
// Errors returned by the stream take precedence over anything the script
// reports, and errors raised by bound functions can be recovered with
// [errors.As].
func (r *GojaRenderer) Render(view string, parameters any, stream Stream) error {
	r.mustOpen()
	start := time.Now()

	params, err := r.parameters(parameters)
	if err != nil {
		return err
	}

	adapter := &streamAdapter{stream: stream}
	_, err = r.render(goja.Undefined(), r.runtime.ToValue(view), params, adapter.object(r.runtime))
	if adapter.err != nil {
		return fmt.Errorf("gojacomplate: render %s: stream: %w", view, adapter.err)
	}
	if err != nil {
		return renderError(view, err)
	}
	if err := stream.Flush(); err != nil {
		return fmt.Errorf("gojacomplate: render %s: stream: %w", view, err)
	}

	r.logger.Debug().
		Str("view", view).
		Dur("duration", time.Since(start)).
		Log("view rendered")

	return nil
}

// RenderToString implements [Renderer].
func (r *GojaRenderer) RenderToString(view string, parameters any) (string, error) {
	var s StringStream
	if err := r.Render(view, parameters, &s); err != nil {
		return "", err
	}
	return s.String(), nil
}

func (r *GojaRenderer) parameters(parameters any) (goja.Value, error) {
	switch x := parameters.(type) {
	case nil:
		return r.runtime.NewObject(), nil
	case string:
		return r.marshaller.ParseParameters(r.runtime, x)
	case []byte:
		return r.marshaller.ParseParameters(r.runtime, string(x))
	case json.RawMessage:
		return r.marshaller.ParseParameters(r.runtime, string(x))
	}
	val, err := r.marshaller.toScript(r.runtime, parameters)
	if err != nil {
		return nil, fmt.Errorf("gojacomplate: parameters: %w", err)
	}
	return parametersObject(val)
}

func renderError(view string, err error) error {
	var ex *goja.Exception
	if errors.As(err, &ex) && isUnknownView(ex.Value(), view) {
		return &UnknownViewError{View: view}
	}
	return fmt.Errorf("gojacomplate: render %s: %w", view, err)
}

func isUnknownView(thrown goja.Value, view string) bool {
	if thrown == nil {
		return false
	}
	msg := thrown
	if obj, ok := thrown.(*goja.Object); ok {
		if msg = obj.Get("message"); msg == nil {
			return false
		}
	}
	return msg.String() == unknownViewMessage(view)
}
