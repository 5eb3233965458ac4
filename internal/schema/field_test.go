package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	cases := map[string]string{
		"Title":       "title",
		"Due Date":    "due_date",
		"Due Date!":   "due_date_",
		"priority":    "priority",
		"Sprint 2":    "sprint_2",
		"   spaced  ": "___spaced__",
		"":            "",
	}

	for label, want := range cases {
		assert.Equal(t, want, DeriveKey(label), "label %q", label)
	}

	// stable across calls
	assert.Equal(t, DeriveKey("Due Date"), DeriveKey("Due Date"))
}

func TestNewFieldChoiceDefaults(t *testing.T) {
	f := NewField("Status", TypeStatus, nil)

	require.Len(t, f.Options, 2)
	assert.NotEqual(t, f.Options[0].ID, f.Options[1].ID)
	assert.NotEqual(t, f.Options[0].Color, f.Options[1].Color)
	assert.Equal(t, "status", f.Key)
	assert.NotEmpty(t, f.ID)
}

func TestNewFieldExplicitEmptyOptions(t *testing.T) {
	// a non-nil empty slice means "start with no choices"
	f := NewField("Status", TypeSelect, []SelectOption{})

	assert.Empty(t, f.Options)
	assert.NotNil(t, f.Options)
}

func TestNewFieldDropsOptionsOnNonChoice(t *testing.T) {
	f := NewField("Title", TypeText, []SelectOption{{ID: "x", Label: "bogus"}})

	assert.Nil(t, f.Options)
}

func TestDefaultWidth(t *testing.T) {
	assert.Equal(t, 100, DefaultWidth(TypeID))
	assert.Equal(t, 300, DefaultWidth(TypeDescription))
	assert.Equal(t, 200, DefaultWidth(TypeURL))
	assert.Equal(t, 150, DefaultWidth(TypeText))
	assert.Equal(t, 150, DefaultWidth(TypeNumber))
}

func TestFieldTypeValid(t *testing.T) {
	for _, typ := range []FieldType{
		TypeText, TypeNumber, TypeDate, TypeSelect, TypeStatus,
		TypeCheckbox, TypeDescription, TypeURL, TypeID, TypeUser,
	} {
		assert.True(t, typ.Valid(), "%s", typ)
	}
	assert.False(t, FieldType("geolocation").Valid())
	assert.False(t, FieldType("").Valid())
}

func TestFieldByKey(t *testing.T) {
	fields := []FieldDefinition{
		NewField("Title", TypeText, nil),
		NewField("Status", TypeStatus, nil),
	}

	require.NotNil(t, FieldByKey(fields, "status"))
	assert.Equal(t, "Status", FieldByKey(fields, "status").Label)
	assert.Nil(t, FieldByKey(fields, "missing"))
}
