package gojacomplate

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dop251/goja"
	gojarequire "github.com/dop251/goja_nodejs/require"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole_ForwardsToLogger(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(`
		console.log("loaded");
		function render(view, params, stream) {
			console.warn("rendering " + view);
			console.error("oops");
			stream.write("ok");
		}
	`, WithLogger(newTestLogger(&buf)))
	require.NoError(t, err)
	defer r.Close()

	out, err := r.RenderToString("V", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	logs := buf.String()
	assert.Contains(t, logs, `{"lvl":"info","source":"console","msg":"loaded"}`)
	assert.Contains(t, logs, `{"lvl":"warning","source":"console","msg":"rendering V"}`)
	assert.Contains(t, logs, `{"lvl":"err","source":"console","msg":"oops"}`)
}

func TestConsole_NilLogger(t *testing.T) {
	r, err := New(`console.log("discarded"); function render(v, p, s) { console.error("x"); s.write("ok"); }`)
	require.NoError(t, err)
	defer r.Close()

	out, err := r.RenderToString("V", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestLogging_Renderer(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRenderer(t, WithLogger(newTestLogger(&buf)), WithPrototypes(todoPrototype))

	_, err := r.RenderToString("Greeting", nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `{"lvl":"warning","prototype":"Todo","msg":"prototype registered more than once, first match wins"}`, lines[0])
	assert.Contains(t, lines[1], `"lvl":"debug"`)
	assert.Contains(t, lines[1], `"script":"views.js"`)
	assert.Contains(t, lines[1], `"msg":"renderer constructed"`)
	assert.Contains(t, lines[2], `"view":"Greeting"`)
	assert.Contains(t, lines[2], `"duration":`)
	assert.Contains(t, lines[2], `"msg":"view rendered"`)
}

func TestLogging_FailedRenderNotLogged(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRenderer(t, WithLogger(newTestLogger(&buf)))
	buf.Reset()

	_, err := r.RenderToString("MissingView", nil)
	require.Error(t, err)
	assert.Empty(t, buf.String())
}

func TestConsole_SharedRegistryUntouched(t *testing.T) {
	var own []string
	registry := gojarequire.NewRegistry()
	registry.RegisterNativeModule("console", func(rt *goja.Runtime, module *goja.Object) {
		exports := module.Get("exports").(*goja.Object)
		_ = exports.Set("log", func(s string) { own = append(own, s) })
	})

	const source = `function render(view, params, stream) {
		console.log(view);
		require("console").log("required " + view);
		stream.write("ok");
	}`
	var bufA, bufB bytes.Buffer
	a, err := New(source, WithRegistry(registry), WithLogger(newTestLogger(&bufA)))
	require.NoError(t, err)
	defer a.Close()
	b, err := New(source, WithRegistry(registry), WithLogger(newTestLogger(&bufB)))
	require.NoError(t, err)
	defer b.Close()

	_, err = a.RenderToString("A", nil)
	require.NoError(t, err)
	_, err = b.RenderToString("B", nil)
	require.NoError(t, err)

	assert.Equal(t, `{"lvl":"info","source":"console","msg":"A"}`+"\n", bufA.String())
	assert.Equal(t, `{"lvl":"info","source":"console","msg":"B"}`+"\n", bufB.String())
	assert.Equal(t, []string{"required A", "required B"}, own)
}

func TestConsole_RequireWithoutRegistry(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(`function render(v, p, s) { require("console").warn("via require"); s.write("ok"); }`,
		WithLogger(newTestLogger(&buf)))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.RenderToString("V", nil)
	require.NoError(t, err)
	assert.Equal(t, `{"lvl":"warning","source":"console","msg":"via require"}`+"\n", buf.String())
}
