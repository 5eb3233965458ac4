// Package schema implements the dynamic-schema task engine: per-group field
// definitions, select/status option management, the schemaless task payload,
// schema mutation planning and the bulk-import pipeline.
//
// Everything in here is pure; persistence is wired in by the callers.
package schema

import (
	"strings"

	"github.com/google/uuid"
)

// FieldType enumerates the supported column types.
type FieldType string

const (
	TypeText        FieldType = "text"
	TypeNumber      FieldType = "number"
	TypeDate        FieldType = "date"
	TypeSelect      FieldType = "select"
	TypeStatus      FieldType = "status"
	TypeCheckbox    FieldType = "checkbox"
	TypeDescription FieldType = "description"
	TypeURL         FieldType = "url"
	TypeID          FieldType = "id"
	TypeUser        FieldType = "user"
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case TypeText, TypeNumber, TypeDate, TypeSelect, TypeStatus,
		TypeCheckbox, TypeDescription, TypeURL, TypeID, TypeUser:
		return true
	}
	return false
}

// IsChoice reports whether the type carries an option list.
func (t FieldType) IsChoice() bool {
	return t == TypeSelect || t == TypeStatus
}

// SelectOption is one selectable value of a select/status field. Task
// payloads reference options by ID; Label and Color are presentation only
// and may change freely without invalidating stored values.
type SelectOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// FieldDefinition describes one column of a task group.
type FieldDefinition struct {
	ID       string         `json:"id"`
	Key      string         `json:"key"`
	Label    string         `json:"label"`
	Type     FieldType      `json:"type"`
	Required bool           `json:"required,omitempty"`
	Options  []SelectOption `json:"options,omitempty"`
	Width    int            `json:"width,omitempty"`
}

// ColorPalette is the fixed ordered palette used for option colors. Entries
// are paired background/text classes consumed verbatim by the web client.
var ColorPalette = []string{
	"bg-gray-100 text-gray-700",
	"bg-blue-100 text-blue-700",
	"bg-green-100 text-green-700",
	"bg-yellow-100 text-yellow-700",
	"bg-red-100 text-red-700",
	"bg-purple-100 text-purple-700",
	"bg-pink-100 text-pink-700",
}

// ShortIDPrefix prefixes the human-facing codes stored under id-typed fields.
const ShortIDPrefix = "TASK-"

// NewFieldID returns a fresh opaque field/option identifier.
func NewFieldID() string {
	return uuid.NewString()
}

// DeriveKey normalizes a display label into a storage key: lowercased,
// every non-alphanumeric rune replaced with '_'. Deterministic and stable
// across calls on the same label.
func DeriveKey(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range strings.ToLower(label) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// DefaultWidth returns the presentation width hint for a field type.
func DefaultWidth(t FieldType) int {
	switch t {
	case TypeID:
		return 100
	case TypeDescription:
		return 300
	case TypeURL:
		return 200
	default:
		return 150
	}
}

// defaultOptions synthesizes the two starter choices a fresh select/status
// field gets, with distinct palette colors so the picker is never unusable.
func defaultOptions() []SelectOption {
	return []SelectOption{
		{ID: NewFieldID(), Label: "Option 1", Color: ColorPalette[0]},
		{ID: NewFieldID(), Label: "Option 2", Color: ColorPalette[1]},
	}
}

// NewField builds a FieldDefinition from a proposed label/type/options.
// The key is derived from the label, the width defaults by type, and for
// choice types a nil options slice gets the two synthesized placeholders.
// An explicit non-nil empty slice is honored: the field starts with zero
// choices. Options on non-choice types are dropped.
func NewField(label string, t FieldType, options []SelectOption) FieldDefinition {
	f := FieldDefinition{
		ID:    NewFieldID(),
		Key:   DeriveKey(label),
		Label: label,
		Type:  t,
		Width: DefaultWidth(t),
	}
	if t.IsChoice() {
		if options == nil {
			f.Options = defaultOptions()
		} else {
			f.Options = options
		}
	}
	return f
}

// FieldByKey returns the field with the given key, or nil.
func FieldByKey(fields []FieldDefinition, key string) *FieldDefinition {
	for i := range fields {
		if fields[i].Key == key {
			return &fields[i]
		}
	}
	return nil
}
