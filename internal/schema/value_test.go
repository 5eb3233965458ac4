package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueJSON(t *testing.T) {
	p := Payload{
		"title":   String("Ship it"),
		"points":  Number(3.5),
		"done":    Boolean(true),
		"cleared": Null(),
	}

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var back Payload
	require.NoError(t, json.Unmarshal(raw, &back))

	assert.Equal(t, p, back)
}

func TestValueUnmarshalRejectsNested(t *testing.T) {
	var v Value
	assert.Error(t, v.UnmarshalJSON([]byte(`{"nested":1}`)))
	assert.Error(t, v.UnmarshalJSON([]byte(`[1,2]`)))
}

func TestValueIsEmpty(t *testing.T) {
	assert.True(t, Null().IsEmpty())
	assert.True(t, String("").IsEmpty())
	assert.True(t, String("  \t\n").IsEmpty())
	assert.False(t, String("x").IsEmpty())
	assert.False(t, Number(0).IsEmpty())
	assert.False(t, Boolean(false).IsEmpty())
}

func TestValueAsString(t *testing.T) {
	assert.Equal(t, "hello", String("hello").AsString())
	assert.Equal(t, "3.5", Number(3.5).AsString())
	assert.Equal(t, "42", Number(42).AsString())
	assert.Equal(t, "true", Boolean(true).AsString())
	assert.Equal(t, "", Null().AsString())
}

func TestCheckValue(t *testing.T) {
	num := NewField("Points", TypeNumber, nil)
	chk := NewField("Done", TypeCheckbox, nil)
	sel := NewField("Status", TypeStatus, nil)
	txt := NewField("Title", TypeText, nil)

	// null always clears, regardless of type
	assert.NoError(t, CheckValue(num, Null()))
	assert.NoError(t, CheckValue(chk, Null()))

	assert.NoError(t, CheckValue(num, Number(7)))
	assert.NoError(t, CheckValue(num, String("7.25")), "numeric strings parse")
	assert.Error(t, CheckValue(num, String("seven")))
	assert.Error(t, CheckValue(num, Boolean(true)))

	assert.NoError(t, CheckValue(chk, Boolean(false)))
	assert.Error(t, CheckValue(chk, String("true")))

	assert.NoError(t, CheckValue(sel, String(sel.Options[0].ID)))
	assert.Error(t, CheckValue(sel, Number(1)))

	assert.NoError(t, CheckValue(txt, String("anything")))
	assert.Error(t, CheckValue(txt, Number(1)))
}
