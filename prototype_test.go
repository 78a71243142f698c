package gojacomplate

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slotTimespan struct {
	Amount   int    `complate:"amount" json:"ignored"`
	Unit     string `json:"unit,omitempty"`
	VeryLate bool   `json:"veryLate"`
	Note     string `json:"-"`
}

func stringify(t *testing.T, rt *goja.Runtime, v goja.Value) string {
	t.Helper()
	j := rt.Get("JSON").ToObject(rt)
	stringifyFn, ok := goja.AssertFunction(j.Get("stringify"))
	require.True(t, ok)
	res, err := stringifyFn(j, v)
	require.NoError(t, err)
	return res.String()
}

func TestPrototype_SlotsAndPropertiesAgree(t *testing.T) {
	slots := MustPrototype(StructPrototype[slotTimespan]("Timespan"))
	rt := goja.New()

	fromSlots, err := NewMarshaller(slots).ToScript(rt, slotTimespan{Amount: 3, Unit: "days", VeryLate: true, Note: "x"})
	require.NoError(t, err)
	fromProps, err := NewMarshaller(timespanPrototype).ToScript(rt, Timespan{Amount: 3, Unit: "days", VeryLate: true})
	require.NoError(t, err)

	assert.Equal(t, `{"amount":3,"unit":"days","veryLate":true}`, stringify(t, rt, fromSlots))
	assert.Equal(t, stringify(t, rt, fromProps), stringify(t, rt, fromSlots))
	assert.Equal(t, fromProps.Export(), fromSlots.Export())
}

func TestStructPrototype_FieldSelection(t *testing.T) {
	p, err := StructPrototype[Todo]("Todo", "what", "timespan")
	require.NoError(t, err)
	assert.Equal(t, "Todo", p.Name())

	fields, ok := p.Extract(testTodos()[0])
	require.True(t, ok)
	assert.Equal(t, []Field{
		{Name: "what", Value: "Buy milk"},
		{Name: "timespan", Value: Timespan{Amount: 3, Unit: "days", VeryLate: true}},
	}, fields)

	todo := testTodos()[1]
	fields, ok = p.Extract(&todo)
	require.True(t, ok)
	assert.Equal(t, "Write <tests>", fields[0].Value)

	_, ok = p.Extract((*Todo)(nil))
	assert.False(t, ok)
	_, ok = p.Extract(Timespan{})
	assert.False(t, ok)
}

func TestStructPrototype_AllFields(t *testing.T) {
	p, err := StructPrototype[Todo]("Todo")
	require.NoError(t, err)
	fields, ok := p.Extract(Todo{What: "w"})
	require.True(t, ok)
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"timespan", "what", "description", "updateLink"}, names)
}

func TestStructPrototype_Validation(t *testing.T) {
	_, err := StructPrototype[Todo]("")
	assert.ErrorContains(t, err, "name must not be empty")

	_, err = StructPrototype[int]("int")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = StructPrototype[Todo]("Todo", "missing")
	assert.ErrorContains(t, err, `has no field "missing"`)

	_, err = StructPrototype[Todo]("Todo", "what", "what")
	assert.ErrorContains(t, err, `duplicate property "what"`)

	type clash struct {
		A string `json:"x"`
		B string `complate:"x"`
	}
	_, err = StructPrototype[clash]("clash")
	assert.ErrorContains(t, err, `duplicate property "x"`)
}

func TestNewPrototype_Validation(t *testing.T) {
	_, err := NewPrototype[Timespan]("")
	assert.ErrorContains(t, err, "name must not be empty")

	_, err = NewPrototype("T", Prop[Timespan]("", func(Timespan) any { return nil }))
	assert.ErrorContains(t, err, "property 0 has no name")

	_, err = NewPrototype("T", Prop[Timespan]("a", nil))
	assert.ErrorContains(t, err, `property "a" has no getter`)

	_, err = NewPrototype("T",
		Prop("a", func(Timespan) any { return 1 }),
		Prop("a", func(Timespan) any { return 2 }),
	)
	assert.ErrorContains(t, err, `duplicate property "a"`)

	assert.Panics(t, func() { MustPrototype(NewPrototype[Timespan]("")) })
}

func TestNewPrototype_Extract(t *testing.T) {
	fields, ok := timespanPrototype.Extract(Timespan{Amount: 1, Unit: "day"})
	require.True(t, ok)
	assert.Equal(t, []Field{{"amount", 1}, {"unit", "day"}, {"veryLate", false}}, fields)

	_, ok = timespanPrototype.Extract(&Timespan{})
	assert.False(t, ok)
}

func TestPrototype_Nested(t *testing.T) {
	rt := goja.New()
	m := NewMarshaller(todoPrototype, timespanPrototype)
	val, err := m.ToScript(rt, testTodos()[0])
	require.NoError(t, err)
	assert.Equal(t,
		`{"what":"Buy milk","description":"Semi-skimmed & fresh","updateLink":"/todos/1?edit=true&from=list","timespan":{"amount":3,"unit":"days","veryLate":true}}`,
		stringify(t, rt, val))
}

func TestPrototype_FirstMatchWins(t *testing.T) {
	rt := goja.New()
	other := MustPrototype(NewPrototype("Other", Prop("kind", func(Timespan) any { return "other" })))
	val, err := NewMarshaller(other, timespanPrototype).ToScript(rt, Timespan{})
	require.NoError(t, err)
	assert.Equal(t, `{"kind":"other"}`, stringify(t, rt, val))
}
