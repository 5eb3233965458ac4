package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddOptionPicksUnusedColor(t *testing.T) {
	f := NewField("Status", TypeStatus, nil)
	// defaults occupy palette[0] and palette[1]

	opt := AddOption(&f)
	require.NotNil(t, opt)
	assert.Equal(t, "New Option", opt.Label)
	assert.Equal(t, ColorPalette[2], opt.Color)
	assert.Len(t, f.Options, 3)
}

func TestAddOptionCyclesWhenPaletteExhausted(t *testing.T) {
	f := NewField("Status", TypeSelect, []SelectOption{})
	for range len(ColorPalette) {
		AddOption(&f)
	}
	require.Len(t, f.Options, len(ColorPalette))

	opt := AddOption(&f)
	require.NotNil(t, opt)
	// every color taken, so it wraps by position
	assert.Equal(t, ColorPalette[len(ColorPalette)%len(ColorPalette)], opt.Color)
}

func TestAddOptionNonChoice(t *testing.T) {
	f := NewField("Title", TypeText, nil)

	assert.Nil(t, AddOption(&f))
	assert.Empty(t, f.Options)
}

func TestUpdateOption(t *testing.T) {
	f := NewField("Status", TypeStatus, nil)
	id := f.Options[0].ID

	label := "Blocked"
	ok := UpdateOption(&f, id, OptionPatch{Label: &label})
	require.True(t, ok)
	assert.Equal(t, "Blocked", f.Options[0].Label)
	// color untouched by a label-only patch
	assert.Equal(t, ColorPalette[0], f.Options[0].Color)

	assert.False(t, UpdateOption(&f, "nope", OptionPatch{Label: &label}))
}

func TestRemoveOptionLeavesStoredValues(t *testing.T) {
	f := NewField("Status", TypeStatus, nil)
	removed := f.Options[0].ID

	payload := Payload{"status": String(removed)}

	require.True(t, RemoveOption(&f, removed))
	assert.Len(t, f.Options, 1)

	// the stale reference stays in the payload; it just no longer resolves
	assert.Equal(t, String(removed), payload["status"])
	assert.Nil(t, ResolveOption(f, removed))
}

func TestCycleColorWraps(t *testing.T) {
	f := NewField("Status", TypeStatus, nil)
	id := f.Options[0].ID
	require.Equal(t, ColorPalette[0], f.Options[0].Color)

	for i := 1; i <= len(ColorPalette); i++ {
		require.True(t, CycleColor(&f, id))
		assert.Equal(t, ColorPalette[i%len(ColorPalette)], f.Options[0].Color)
	}
}

func TestCycleColorUnknownColorRestarts(t *testing.T) {
	f := NewField("Status", TypeStatus, []SelectOption{
		{ID: "o1", Label: "Odd", Color: "bg-chartreuse-100 text-chartreuse-700"},
	})

	require.True(t, CycleColor(&f, "o1"))
	assert.Equal(t, ColorPalette[0], f.Options[0].Color)
}

func TestResolveOptionByLabelOrID(t *testing.T) {
	f := NewField("Priority", TypeSelect, []SelectOption{
		{ID: "opt-low", Label: "Low", Color: ColorPalette[1]},
		{ID: "opt-high", Label: "High", Color: ColorPalette[4]},
	})

	require.NotNil(t, ResolveOption(f, "Low"))
	assert.Equal(t, "opt-low", ResolveOption(f, "Low").ID)
	require.NotNil(t, ResolveOption(f, "opt-high"))
	assert.Nil(t, ResolveOption(f, "low"), "label match is exact")
	assert.Nil(t, ResolveOption(f, "Medium"))
}
