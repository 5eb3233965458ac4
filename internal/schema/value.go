package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind tags the runtime type of a dynamic task value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
)

// Value is the tagged union stored under a task's dynamic keys. It keeps the
// per-group schema flexibility without resorting to bare interface{} maps:
// exactly one of the typed members is meaningful, selected by Kind.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
}

func String(s string) Value  { return Value{Kind: KindString, Str: s} }
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }
func Boolean(b bool) Value   { return Value{Kind: KindBool, Bool: b} }
func Null() Value            { return Value{Kind: KindNull} }

// IsEmpty reports whether the value should be treated as "nothing entered":
// null, the empty string, or only whitespace.
func (v Value) IsEmpty() bool {
	if v.Kind == KindNull {
		return true
	}
	if v.Kind == KindString {
		for _, r := range v.Str {
			if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Null()
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Boolean(b)
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("unsupported dynamic value %s", data)
		}
		*v = Number(n)
	}
	return nil
}

// AsString renders the value for storage-independent comparison.
func (v Value) AsString() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

// Payload is the dynamic part of a task record: field key -> value.
// Keys not present in the owning group's current field list are orphaned
// data, retained but not rendered.
type Payload map[string]Value

// CheckValue validates a value against a field's declared type. Orphaned
// keys (no matching field) are the caller's business; this only judges the
// shape for known fields. Null is always acceptable (it clears the cell).
func CheckValue(f FieldDefinition, v Value) error {
	if v.Kind == KindNull {
		return nil
	}
	switch f.Type {
	case TypeNumber:
		if v.Kind == KindNumber {
			return nil
		}
		if v.Kind == KindString {
			if _, err := strconv.ParseFloat(v.Str, 64); err == nil {
				return nil
			}
		}
		return fmt.Errorf("field %q expects a number", f.Key)
	case TypeCheckbox:
		if v.Kind != KindBool {
			return fmt.Errorf("field %q expects a boolean", f.Key)
		}
	case TypeSelect, TypeStatus:
		if v.Kind != KindString {
			return fmt.Errorf("field %q expects an option id", f.Key)
		}
	default:
		if v.Kind != KindString {
			return fmt.Errorf("field %q expects a string", f.Key)
		}
	}
	return nil
}
