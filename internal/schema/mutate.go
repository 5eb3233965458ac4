package schema

import "fmt"

// MutationPlan is the result of diffing a group's field list against a
// proposed replacement. The caller persists the new list and executes the
// backfill over existing tasks.
type MutationPlan struct {
	// Added holds fields whose key was not present before.
	Added []FieldDefinition
	// OrphanedKeys are keys that no current field references anymore.
	// The task data under them is retained, not deleted.
	OrphanedKeys []string
	// Retyped holds keys whose field changed type in place.
	Retyped []string
	// BackfillKeys are keys of newly added id/user-typed fields; every
	// existing task lacking a value there must be assigned one immediately.
	BackfillKeys []string
}

// ValidateFields checks a proposed field list and normalizes it in place:
// keys must be unique and non-empty, types must be known, and option lists
// on non-choice types are dropped. Fields arriving without an id or width
// (hand-built clients, older rows) get them filled in.
func ValidateFields(fields []FieldDefinition) error {
	seen := make(map[string]struct{}, len(fields))
	for i := range fields {
		f := &fields[i]
		if !f.Type.Valid() {
			return fmt.Errorf("unknown field type %q", f.Type)
		}
		if f.Key == "" {
			f.Key = DeriveKey(f.Label)
		}
		if f.Key == "" {
			return fmt.Errorf("field %q has no usable key", f.Label)
		}
		if _, dup := seen[f.Key]; dup {
			return fmt.Errorf("duplicate field key %q", f.Key)
		}
		seen[f.Key] = struct{}{}

		if f.ID == "" {
			f.ID = NewFieldID()
		}
		if f.Width == 0 {
			f.Width = DefaultWidth(f.Type)
		}
		if !f.Type.IsChoice() {
			f.Options = nil
		}
	}
	return nil
}

// Diff compares the current field list with the proposed one and produces
// the plan for reconciling existing task records.
//
// Semantics, keyed by field key:
//   - key only in next: added (id/user types additionally scheduled for
//     backfill so the "every task has a short code" invariant holds).
//   - key only in prev: its task data becomes orphaned.
//   - key in both with a different type: retyped in place. Stored values
//     are never coerced; they are only reinterpreted going forward. A
//     field retyped into select/status with no options gets one default
//     option synthesized so the picker is usable.
//   - pure reordering produces an empty plan.
func Diff(prev, next []FieldDefinition) MutationPlan {
	var plan MutationPlan

	old := make(map[string]FieldDefinition, len(prev))
	for _, f := range prev {
		old[f.Key] = f
	}

	current := make(map[string]struct{}, len(next))
	for i := range next {
		f := &next[i]
		current[f.Key] = struct{}{}

		before, existed := old[f.Key]
		if !existed {
			plan.Added = append(plan.Added, *f)
			if f.Type == TypeID || f.Type == TypeUser {
				plan.BackfillKeys = append(plan.BackfillKeys, f.Key)
			}
			continue
		}
		if before.Type != f.Type {
			plan.Retyped = append(plan.Retyped, f.Key)
			if f.Type.IsChoice() && len(f.Options) == 0 {
				f.Options = []SelectOption{{
					ID:    NewFieldID(),
					Label: "New Option",
					Color: ColorPalette[0],
				}}
			}
		}
	}

	for _, f := range prev {
		if _, kept := current[f.Key]; !kept {
			plan.OrphanedKeys = append(plan.OrphanedKeys, f.Key)
		}
	}

	return plan
}

// ShortIDFields returns the keys of all id/user-typed fields in the list.
// Task creation auto-populates these, and backfill targets them.
func ShortIDFields(fields []FieldDefinition) []string {
	var keys []string
	for _, f := range fields {
		if f.Type == TypeID || f.Type == TypeUser {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// MissingShortIDs returns the subset of keys that are absent or empty on
// the payload. An empty result means the task already satisfies the
// invariant, which is what makes re-running a backfill a no-op.
func MissingShortIDs(p Payload, keys []string) []string {
	var missing []string
	for _, key := range keys {
		if v, ok := p[key]; ok && !v.IsEmpty() {
			continue
		}
		missing = append(missing, key)
	}
	return missing
}

// BackfillPatch builds the patch that fills the given keys on one task
// payload, drawing a fresh short code from gen per missing slot.
func BackfillPatch(p Payload, keys []string, gen func() string) Payload {
	missing := MissingShortIDs(p, keys)
	if len(missing) == 0 {
		return nil
	}
	patch := Payload{}
	for _, key := range missing {
		patch[key] = String(gen())
	}
	return patch
}
