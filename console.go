package gojacomplate

import (
	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
	"github.com/joeycumines/logiface"
)

// consolePrinter forwards the script console to a logger.
type consolePrinter struct {
	logger *logiface.Logger[logiface.Event]
}

var _ console.Printer = consolePrinter{}

func (p consolePrinter) Log(s string) {
	p.logger.Info().Str("source", "console").Log(s)
}

func (p consolePrinter) Warn(s string) {
	p.logger.Warning().Str("source", "console").Log(s)
}

func (p consolePrinter) Error(s string) {
	p.logger.Err().Str("source", "console").Log(s)
}

// enableRequire enables registry on runtime and installs a console global
// that writes to logger. A caller supplied registry is not modified, so
// require("console") resolves through it. Without one, a new registry is
// created with the logging console registered.
func enableRequire(runtime *goja.Runtime, registry *require.Registry, logger *logiface.Logger[logiface.Event]) error {
	loader := console.RequireWithPrinter(consolePrinter{logger: logger})
	if registry == nil {
		registry = require.NewRegistry()
		registry.RegisterNativeModule(console.ModuleName, loader)
	}
	registry.Enable(runtime)

	module := runtime.NewObject()
	if err := module.Set("exports", runtime.NewObject()); err != nil {
		return err
	}
	loader(runtime, module)
	return runtime.Set("console", module.Get("exports"))
}
