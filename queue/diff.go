package queue

// Diff computes the sparse change set between an original and an edited
// Value. The second return reports whether anything changed; an unchanged
// pair yields (nil, false) and the absence propagates upward so parents
// never see an empty mapping.
//
// Policies, in precedence order:
//   - deep-equal values are absent from the result;
//   - arrays are atomic: any difference replaces the entire edited array,
//     and reordering counts as a difference;
//   - a non-object on either side (including a type change such as object
//     vs. primitive, and null) is an atomic replace with the edited value;
//   - objects recurse per key. Keys present only in the edited side are
//     additions. Keys present only in the original are skipped: the patch
//     path can add and change fields but never delete them, so a line the
//     user removed from the draft cannot destroy remote data.
func Diff(original, edited Value) (Value, bool) {
	if Equal(original, edited) {
		return nil, false
	}

	if _, isArray := original.([]any); isArray {
		return Clone(edited), true
	}
	if _, isArray := edited.([]any); isArray {
		return Clone(edited), true
	}

	originalObject, originalIsObject := original.(map[string]any)
	editedObject, editedIsObject := edited.(map[string]any)
	if !originalIsObject || !editedIsObject {
		return Clone(edited), true
	}

	changes := make(map[string]any)
	for key, editedValue := range editedObject {
		originalValue, found := originalObject[key]
		if !found {
			changes[key] = Clone(editedValue)
			continue
		}
		if sub, changed := Diff(originalValue, editedValue); changed {
			changes[key] = sub
		}
	}

	if len(changes) == 0 {
		return nil, false
	}
	return changes, true
}

// BuildPatch derives the wire payload for a partial update: both sides are
// stripped of read-only keys, then diffed. A nil result means no changes
// and must block the commit. The payload equals the structural diff; no
// extra keys are injected.
//
// A draft replaced wholesale by null also returns nil: a valid patch body
// is an object, so a top-level null has no committable form and blocks
// the commit the same way an empty diff does.
func BuildPatch(original, edited Value) Value {
	patch, changed := Diff(StripReadOnly(original), StripReadOnly(edited))
	if !changed || patch == nil {
		return nil
	}
	return patch
}
