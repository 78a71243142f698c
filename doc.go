// Package gojacomplate renders complate views, UI templates compiled to
// JavaScript, to HTML by executing them inside a [goja] runtime.
//
// The package is the bridge between Go and the script: it marshals Go
// values into script values, exposes Go functions as script functions with
// declared arity, builds renderers bound to a compiled view bundle, and
// streams the produced HTML back to Go chunk by chunk.
//
// # View Bundles
//
// A view bundle is a script that, once executed, defines a global dispatcher:
//
//	function render(view, parameters, stream) { ... }
//
// The dispatcher looks up the view by name and writes output using the
// stream adapter's write, writeln and flush methods. Unregistered views are
// reported by throwing
//
//	Error("unknown view macro: `<name>` is not registered")
//
// which surfaces in Go as an [*UnknownViewError].
//
// # Building Renderers
//
//	renderer, err := gojacomplate.NewBuilder().
//	    Source(gojacomplate.Immediate(bundle)).
//	    Bindings(gojacomplate.Immediate(gojacomplate.Bindings{
//	        "renderedBy": "goja-complate",
//	    })).
//	    Prototypes(gojacomplate.Immediate([]gojacomplate.Prototype{todoPrototype})).
//	    Unique()
//	if err != nil {
//	    return err
//	}
//	defer renderer.Close()
//
//	html, err := renderer.RenderToString("TodoList", map[string]any{"todos": todos})
//
// [Builder.Unique] evaluates the configuration once and compiles the bundle
// once. [Builder.Creator] returns a factory that re-resolves every [Supplier]
// and recompiles on each call; wrap it in a [ReEvaluatingRenderer] to pick up
// bundle edits on every render during development.
//
// # Marshalling
//
// Go values cross into script as follows:
//   - nil → null
//   - bool → boolean
//   - integer and floating point kinds → number
//   - string → string
//   - slices and arrays → Array (elements marshalled recursively)
//   - string-keyed maps → Object (keys sorted, values marshalled recursively)
//   - values matching a registered [Prototype] → Object with the prototype's
//     fields, in declared order
//   - [*Function] → function, with arity checked on every call
//
// Host object graphs must be acyclic. Marshalling a cyclic graph does not
// terminate.
//
// Parameters may also be supplied as pre-serialized JSON text (string,
// []byte or [encoding/json.RawMessage]), which is parsed by the runtime and
// must describe an object.
//
// # Thread Safety
//
// A [GojaRenderer] owns one goja runtime and is not safe for concurrent use.
// Use one renderer per goroutine, or serialise access, e.g. with
// [Synchronized].
//
// [goja]: https://github.com/dop251/goja
package gojacomplate
