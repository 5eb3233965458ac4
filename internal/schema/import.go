package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// GroupDescriptor is one entry of a bulk-import request: a board name, its
// column list and optionally the row values to seed it with. The wire names
// follow the tabular export format the web client produces.
type GroupDescriptor struct {
	GroupName   string             `json:"group_name"`
	GroupFields []DescriptorField  `json:"group_fields"`
	GroupValues []map[string]Value `json:"group_values,omitempty"`
}

// DescriptorField is a column in tabular form, prior to normalization.
type DescriptorField struct {
	FieldName string         `json:"field_name"`
	FieldType FieldType      `json:"field_type"`
	Options   []SelectOption `json:"options,omitempty"`
}

// Validate enforces the minimal descriptor shape. Field-level problems are
// deferred to BuildFields; this only rejects descriptors that cannot even
// be attributed to a board.
func (d GroupDescriptor) Validate() error {
	if strings.TrimSpace(d.GroupName) == "" {
		return fmt.Errorf("group_name is required")
	}
	if d.GroupFields == nil {
		return fmt.Errorf("group_fields must be a list")
	}
	return nil
}

// BuildFields converts descriptor fields into FieldDefinitions using the
// same normalization as interactive field creation: derived keys, type
// defaulting to text, width by type, synthesized options for choice types
// that arrive without any.
func BuildFields(dfs []DescriptorField) ([]FieldDefinition, error) {
	fields := make([]FieldDefinition, 0, len(dfs))
	for _, df := range dfs {
		t := df.FieldType
		if t == "" {
			t = TypeText
		}
		if !t.Valid() {
			return nil, fmt.Errorf("field %q: unknown type %q", df.FieldName, df.FieldType)
		}
		var opts []SelectOption
		if t.IsChoice() && len(df.Options) > 0 {
			opts = df.Options
		}
		fields = append(fields, NewField(df.FieldName, t, opts))
	}
	if err := ValidateFields(fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// MapRow converts one imported row into a task payload against the built
// field list.
//
//   - id-typed fields are always populated from gen, never from row input.
//   - other fields match the row key whose normalized form equals the
//     field's key, so "Due Date" in the sheet lands under "due_date".
//   - empty values are skipped entirely; the key is simply absent from the
//     payload rather than stored as "".
//   - select/status values resolve against the option list by exact label
//     or id match; unresolved values are dropped, never stored as dangling
//     references.
//   - number and checkbox values arriving as strings are coerced when they
//     parse cleanly, otherwise kept raw (the system never destroys input).
func MapRow(fields []FieldDefinition, row map[string]Value, gen func() string) Payload {
	payload := Payload{}

	for _, f := range fields {
		if f.Type == TypeID || f.Type == TypeUser {
			payload[f.Key] = String(gen())
			continue
		}

		v, ok := matchRowValue(row, f.Key)
		if !ok || v.IsEmpty() {
			continue
		}

		if f.Type.IsChoice() {
			opt := ResolveOption(f, v.AsString())
			if opt == nil {
				continue
			}
			payload[f.Key] = String(opt.ID)
			continue
		}

		payload[f.Key] = coerce(f.Type, v)
	}

	return payload
}

func matchRowValue(row map[string]Value, key string) (Value, bool) {
	for k, v := range row {
		if DeriveKey(k) == key {
			return v, true
		}
	}
	return Value{}, false
}

func coerce(t FieldType, v Value) Value {
	if v.Kind != KindString {
		return v
	}
	switch t {
	case TypeNumber:
		if n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64); err == nil {
			return Number(n)
		}
	case TypeCheckbox:
		switch strings.ToLower(strings.TrimSpace(v.Str)) {
		case "true", "yes", "1":
			return Boolean(true)
		case "false", "no", "0":
			return Boolean(false)
		}
	}
	return v
}
