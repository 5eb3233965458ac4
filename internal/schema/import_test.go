package schema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorValidate(t *testing.T) {
	assert.Error(t, GroupDescriptor{}.Validate())
	assert.Error(t, GroupDescriptor{GroupName: "   "}.Validate())
	assert.Error(t, GroupDescriptor{GroupName: "Sprint 1"}.Validate(), "nil fields")
	assert.NoError(t, GroupDescriptor{
		GroupName:   "Sprint 1",
		GroupFields: []DescriptorField{},
	}.Validate())
}

func TestBuildFields(t *testing.T) {
	fields, err := BuildFields([]DescriptorField{
		{FieldName: "Task Name"},
		{FieldName: "Status", FieldType: TypeStatus},
		{FieldName: "Code", FieldType: TypeID},
	})
	require.NoError(t, err)
	require.Len(t, fields, 3)

	assert.Equal(t, TypeText, fields[0].Type, "missing type defaults to text")
	assert.Equal(t, "task_name", fields[0].Key)
	assert.Len(t, fields[1].Options, 2, "choice without options gets placeholders")
	assert.Equal(t, 100, fields[2].Width)
}

func TestBuildFieldsRejectsUnknownType(t *testing.T) {
	_, err := BuildFields([]DescriptorField{
		{FieldName: "X", FieldType: "matrix"},
	})
	assert.Error(t, err)
}

func testGen() func() string {
	seq := 0
	return func() string {
		seq++
		return fmt.Sprintf("%s%04d", ShortIDPrefix, seq)
	}
}

func TestMapRowGeneratesIDs(t *testing.T) {
	fields, err := BuildFields([]DescriptorField{
		{FieldName: "Code", FieldType: TypeID},
		{FieldName: "Task Name"},
	})
	require.NoError(t, err)

	// the sheet tried to supply its own code; it is ignored
	row := map[string]Value{
		"Code":      String("LEGACY-99"),
		"Task Name": String("Ship it"),
	}

	payload := MapRow(fields, row, testGen())

	assert.Equal(t, String("TASK-0001"), payload["code"])
	assert.Equal(t, String("Ship it"), payload["task_name"])
}

func TestMapRowMatchesByNormalizedKey(t *testing.T) {
	fields, err := BuildFields([]DescriptorField{
		{FieldName: "Due Date", FieldType: TypeDate},
	})
	require.NoError(t, err)

	payload := MapRow(fields, map[string]Value{"Due Date": String("2026-09-01")}, testGen())

	assert.Equal(t, String("2026-09-01"), payload["due_date"])
}

func TestMapRowSkipsEmpties(t *testing.T) {
	fields, err := BuildFields([]DescriptorField{
		{FieldName: "Task Name"},
		{FieldName: "Notes"},
	})
	require.NoError(t, err)

	payload := MapRow(fields, map[string]Value{
		"Task Name": String("x"),
		"Notes":     String("   "),
	}, testGen())

	_, present := payload["notes"]
	assert.False(t, present, "blank cells stay absent, never stored as empty strings")
}

func TestMapRowResolvesChoices(t *testing.T) {
	fields, err := BuildFields([]DescriptorField{
		{FieldName: "Status", FieldType: TypeStatus, Options: []SelectOption{
			{ID: "opt-todo", Label: "Todo", Color: ColorPalette[0]},
			{ID: "opt-done", Label: "Done", Color: ColorPalette[2]},
		}},
	})
	require.NoError(t, err)

	byLabel := MapRow(fields, map[string]Value{"Status": String("Done")}, testGen())
	assert.Equal(t, String("opt-done"), byLabel["status"])

	byID := MapRow(fields, map[string]Value{"Status": String("opt-todo")}, testGen())
	assert.Equal(t, String("opt-todo"), byID["status"])

	unresolved := MapRow(fields, map[string]Value{"Status": String("Cancelled")}, testGen())
	_, present := unresolved["status"]
	assert.False(t, present, "unresolved choice values are dropped, not stored dangling")
}

func TestMapRowCoercion(t *testing.T) {
	fields, err := BuildFields([]DescriptorField{
		{FieldName: "Points", FieldType: TypeNumber},
		{FieldName: "Done", FieldType: TypeCheckbox},
	})
	require.NoError(t, err)

	payload := MapRow(fields, map[string]Value{
		"Points": String(" 12.5 "),
		"Done":   String("Yes"),
	}, testGen())

	assert.Equal(t, Number(12.5), payload["points"])
	assert.Equal(t, Boolean(true), payload["done"])

	// unparseable input is kept raw rather than destroyed
	raw := MapRow(fields, map[string]Value{"Points": String("a dozen")}, testGen())
	assert.Equal(t, String("a dozen"), raw["points"])
}
