package schema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFieldsFillsDefaults(t *testing.T) {
	fields := []FieldDefinition{
		{Label: "Due Date", Type: TypeDate},
	}

	require.NoError(t, ValidateFields(fields))
	assert.Equal(t, "due_date", fields[0].Key)
	assert.NotEmpty(t, fields[0].ID)
	assert.Equal(t, 150, fields[0].Width)
}

func TestValidateFieldsRejects(t *testing.T) {
	assert.Error(t, ValidateFields([]FieldDefinition{
		{Key: "a", Label: "A", Type: "mystery"},
	}), "unknown type")

	assert.Error(t, ValidateFields([]FieldDefinition{
		{Key: "dup", Label: "One", Type: TypeText},
		{Key: "dup", Label: "Two", Type: TypeText},
	}), "duplicate key")

	// "!!!" derives to "___", which is odd but usable
	assert.NoError(t, ValidateFields([]FieldDefinition{
		{Label: "!!!", Type: TypeText},
	}))

	assert.Error(t, ValidateFields([]FieldDefinition{
		{Label: "", Type: TypeText},
	}), "no label, no key")
}

func TestValidateFieldsStripsOptionsOnNonChoice(t *testing.T) {
	fields := []FieldDefinition{
		{Key: "title", Label: "Title", Type: TypeText, Options: []SelectOption{{ID: "x"}}},
	}

	require.NoError(t, ValidateFields(fields))
	assert.Nil(t, fields[0].Options)
}

func TestDiffAddedAndBackfill(t *testing.T) {
	prev := []FieldDefinition{NewField("Title", TypeText, nil)}
	next := append(append([]FieldDefinition{}, prev...),
		NewField("Code", TypeID, nil),
		NewField("Points", TypeNumber, nil),
	)

	plan := Diff(prev, next)

	require.Len(t, plan.Added, 2)
	assert.Equal(t, []string{"code"}, plan.BackfillKeys)
	assert.Empty(t, plan.OrphanedKeys)
	assert.Empty(t, plan.Retyped)
}

func TestDiffOrphans(t *testing.T) {
	prev := []FieldDefinition{
		NewField("Title", TypeText, nil),
		NewField("Points", TypeNumber, nil),
	}
	next := prev[:1]

	plan := Diff(prev, next)

	assert.Equal(t, []string{"points"}, plan.OrphanedKeys)
	assert.Empty(t, plan.Added)
}

func TestDiffRetypeSynthesizesOption(t *testing.T) {
	prev := []FieldDefinition{NewField("Stage", TypeText, nil)}

	next := []FieldDefinition{prev[0]}
	next[0].Type = TypeStatus
	next[0].Options = nil

	plan := Diff(prev, next)

	assert.Equal(t, []string{"stage"}, plan.Retyped)
	require.Len(t, next[0].Options, 1)
	assert.Equal(t, "New Option", next[0].Options[0].Label)
	assert.Equal(t, ColorPalette[0], next[0].Options[0].Color)
}

func TestDiffReorderIsNoop(t *testing.T) {
	a := NewField("Title", TypeText, nil)
	b := NewField("Points", TypeNumber, nil)

	plan := Diff([]FieldDefinition{a, b}, []FieldDefinition{b, a})

	assert.Empty(t, plan.Added)
	assert.Empty(t, plan.OrphanedKeys)
	assert.Empty(t, plan.Retyped)
	assert.Empty(t, plan.BackfillKeys)
}

// Removing a field and later re-adding one with the same label revives the
// orphaned data under that key. That is the deliberate consequence of keys
// being derived from labels and orphans being retained.
func TestDiffKeyReuseRevivesOrphans(t *testing.T) {
	orig := NewField("Points", TypeNumber, nil)
	payload := Payload{"points": Number(8)}

	withoutIt := Diff([]FieldDefinition{orig}, nil)
	assert.Equal(t, []string{"points"}, withoutIt.OrphanedKeys)

	revived := NewField("Points", TypeNumber, nil)
	again := Diff(nil, []FieldDefinition{revived})

	require.Len(t, again.Added, 1)
	assert.Equal(t, "points", again.Added[0].Key)
	assert.Equal(t, Number(8), payload[again.Added[0].Key])
}

func TestShortIDFields(t *testing.T) {
	fields := []FieldDefinition{
		NewField("Title", TypeText, nil),
		NewField("Code", TypeID, nil),
		NewField("Owner", TypeUser, nil),
	}

	assert.Equal(t, []string{"code", "owner"}, ShortIDFields(fields))
}

func TestMissingShortIDs(t *testing.T) {
	keys := []string{"code", "owner"}

	p := Payload{"code": String("TASK-0001")}
	assert.Equal(t, []string{"owner"}, MissingShortIDs(p, keys))

	p["owner"] = String("  ")
	assert.Equal(t, []string{"owner"}, MissingShortIDs(p, keys), "blank counts as missing")

	p["owner"] = String("TASK-0002")
	assert.Empty(t, MissingShortIDs(p, keys))
}

func TestBackfillPatchIdempotent(t *testing.T) {
	seq := 0
	gen := func() string {
		seq++
		return fmt.Sprintf("%s%04d", ShortIDPrefix, seq)
	}
	keys := []string{"code"}

	p := Payload{}
	patch := BackfillPatch(p, keys, gen)
	require.NotNil(t, patch)
	assert.Equal(t, String("TASK-0001"), patch["code"])

	for k, v := range patch {
		p[k] = v
	}

	// second pass finds nothing to fill and draws no codes
	assert.Nil(t, BackfillPatch(p, keys, gen))
	assert.Equal(t, 1, seq)
}
