package schema

import "strings"

// OptionPatch carries partial updates for a select/status option. Nil fields
// are left untouched.
type OptionPatch struct {
	Label *string `json:"label,omitempty"`
	Color *string `json:"color,omitempty"`
}

// AddOption appends a fresh "New Option" to a choice field, colored with the
// first palette entry not already in use (falling back to cycling when the
// palette is exhausted). No-op on non-choice fields.
func AddOption(f *FieldDefinition) *SelectOption {
	if !f.Type.IsChoice() {
		return nil
	}

	used := make(map[string]struct{}, len(f.Options))
	for _, o := range f.Options {
		used[o.Color] = struct{}{}
	}
	color := ColorPalette[len(f.Options)%len(ColorPalette)]
	for _, c := range ColorPalette {
		if _, taken := used[c]; !taken {
			color = c
			break
		}
	}

	f.Options = append(f.Options, SelectOption{
		ID:    NewFieldID(),
		Label: "New Option",
		Color: color,
	})
	return &f.Options[len(f.Options)-1]
}

// UpdateOption merges the patch into the option matching optionID.
// Label/color edits never touch stored task values, which reference the
// option by ID. Returns false if no option matched.
func UpdateOption(f *FieldDefinition, optionID string, patch OptionPatch) bool {
	for i := range f.Options {
		if f.Options[i].ID != optionID {
			continue
		}
		if patch.Label != nil {
			f.Options[i].Label = *patch.Label
		}
		if patch.Color != nil {
			f.Options[i].Color = *patch.Color
		}
		return true
	}
	return false
}

// RemoveOption deletes the option matching optionID. Tasks still referencing
// the removed id keep that stale value in their payload; it simply no longer
// resolves and renders as "no option selected" until the user corrects it.
func RemoveOption(f *FieldDefinition, optionID string) bool {
	for i := range f.Options {
		if f.Options[i].ID == optionID {
			f.Options = append(f.Options[:i], f.Options[i+1:]...)
			return true
		}
	}
	return false
}

// CycleColor advances the option's color to the next palette entry, wrapping
// around. Unknown colors restart at the first entry.
func CycleColor(f *FieldDefinition, optionID string) bool {
	for i := range f.Options {
		if f.Options[i].ID != optionID {
			continue
		}
		idx := paletteIndex(f.Options[i].Color)
		next := 0
		if idx != -1 {
			next = (idx + 1) % len(ColorPalette)
		}
		f.Options[i].Color = ColorPalette[next]
		return true
	}
	return false
}

// ResolveOption finds an option by exact match on either label or id.
// Used by the import pipeline to turn sheet values into stable option ids.
func ResolveOption(f FieldDefinition, value string) *SelectOption {
	for i := range f.Options {
		if f.Options[i].Label == value || f.Options[i].ID == value {
			return &f.Options[i]
		}
	}
	return nil
}

func paletteIndex(color string) int {
	// match on the background class so partially edited colors still cycle
	bg := strings.SplitN(color, " ", 2)[0]
	for i, c := range ColorPalette {
		if strings.SplitN(c, " ", 2)[0] == bg {
			return i
		}
	}
	return -1
}
