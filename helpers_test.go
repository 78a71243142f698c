package gojacomplate

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/require"
)

type Timespan struct {
	Unit     string
	Amount   int
	VeryLate bool
}

type Todo struct {
	Timespan    Timespan `json:"timespan"`
	What        string   `json:"what"`
	Description string   `json:"description"`
	UpdateLink  string   `json:"updateLink"`
	internal    string
}

var timespanPrototype = MustPrototype(NewPrototype("Timespan",
	Prop("amount", func(t Timespan) any { return t.Amount }),
	Prop("unit", func(t Timespan) any { return t.Unit }),
	Prop("veryLate", func(t Timespan) any { return t.VeryLate }),
))

var todoPrototype = MustPrototype(StructPrototype[Todo]("Todo", "what", "description", "updateLink", "timespan"))

func testTodos() []Todo {
	return []Todo{
		{
			What:        "Buy milk",
			Description: "Semi-skimmed & fresh",
			UpdateLink:  "/todos/1?edit=true&from=list",
			Timespan:    Timespan{Amount: 3, Unit: "days", VeryLate: true},
			internal:    "ignored",
		},
		{
			What:        "Write <tests>",
			Description: `Cover the "bridge"`,
			UpdateLink:  "/todos/2",
			Timespan:    Timespan{Amount: 2, Unit: "hours"},
		},
	}
}

const testTodosJSON = `{"todos":[` +
	`{"what":"Buy milk","description":"Semi-skimmed & fresh","updateLink":"/todos/1?edit=true&from=list","timespan":{"amount":3,"unit":"days","veryLate":true}},` +
	`{"what":"Write <tests>","description":"Cover the \"bridge\"","updateLink":"/todos/2","timespan":{"amount":2,"unit":"hours","veryLate":false}}` +
	`]}`

func testBindings() Bindings {
	return Bindings{
		"assets": map[string]any{
			"stylesheet": MustFunction("stylesheet", func(args []Value) (any, error) {
				return "/static/" + args[0].String() + ".css", nil
			}, Arg("name")),
		},
		"getRendererLink": MustFunction("getRendererLink", func(args []Value) (any, error) {
			return "/renderers/" + args[0].String(), nil
		}, OptionalArg("renderer", "goja")),
		"renderedBy": "goja-complate",
	}
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(b)
}

// expectedTodoList returns the reference document, with line terminators
// native to the platform.
func expectedTodoList(t *testing.T) string {
	t.Helper()
	s := strings.ReplaceAll(readFixture(t, "todolist.html"), "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", LineTerminator)
}

func newTestRenderer(t *testing.T, opts ...Option) *GojaRenderer {
	t.Helper()
	opts = append([]Option{
		WithBindings(testBindings()),
		WithPrototypes(todoPrototype, timespanPrototype),
	}, opts...)
	r, err := New(readFixture(t, "views.js"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func newTestLogger(buf *bytes.Buffer) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(
			stumpy.WithWriter(buf),
			stumpy.WithTimeField(``),
		),
		stumpy.L.WithLevel(logiface.LevelDebug),
	).Logger()
}
