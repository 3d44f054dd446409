package queue

import (
	"encoding/json"
	"testing"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

func mustParse(t *testing.T, text string) Value {
	t.Helper()
	value, err := ParseText([]byte(text))
	if err != nil {
		t.Fatalf("ParseText(%s): %v", text, err)
	}
	return value
}

func assertDiff(t *testing.T, original, edited, want string) {
	t.Helper()
	got, changed := Diff(mustParse(t, original), mustParse(t, edited))
	if !changed {
		t.Fatalf("Diff(%s, %s): expected changes", original, edited)
	}
	if !Equal(got, mustParse(t, want)) {
		t.Fatalf("Diff(%s, %s) = %#v, want %s", original, edited, got, want)
	}
}

func assertNoDiff(t *testing.T, original, edited string) {
	t.Helper()
	if got, changed := Diff(mustParse(t, original), mustParse(t, edited)); changed {
		t.Fatalf("Diff(%s, %s) = %#v, expected absent", original, edited, got)
	}
}

func TestDiffOfEqualIsAbsent(t *testing.T) {
	t.Parallel()

	for _, text := range []string{
		`null`,
		`true`,
		`"support"`,
		`42`,
		`[1,2,3]`,
		`{"name":"support","settings":{"timeout":30},"agents":["a","b"]}`,
	} {
		assertNoDiff(t, text, text)
	}
}

func TestDiffSkipsRemovedKeys(t *testing.T) {
	t.Parallel()

	// A key deleted from the draft must never surface: the patch path
	// cannot express deletions.
	assertNoDiff(t, `{"a":1,"b":2}`, `{"a":1}`)
	assertNoDiff(t, `{"a":1,"nested":{"x":1,"y":2}}`, `{"a":1,"nested":{"x":1}}`)
}

func TestDiffArraysAreAtomic(t *testing.T) {
	t.Parallel()

	assertDiff(t, `{"a":[1,2,3]}`, `{"a":[1,2]}`, `{"a":[1,2]}`)
	assertDiff(t, `{"a":[1,2,3]}`, `{"a":[3,2,1]}`, `{"a":[3,2,1]}`)
	assertNoDiff(t, `{"a":[1,2,3]}`, `{"a":[1,2,3]}`)
}

func TestDiffNestedObjectsAreSparse(t *testing.T) {
	t.Parallel()

	assertDiff(t, `{"s":{"x":1,"y":2}}`, `{"s":{"x":1,"y":3}}`, `{"s":{"y":3}}`)
	assertDiff(t,
		`{"s":{"deep":{"a":1,"b":2}},"top":"same"}`,
		`{"s":{"deep":{"a":1,"b":9}},"top":"same"}`,
		`{"s":{"deep":{"b":9}}}`,
	)
}

func TestDiffTypeChangeIsAtomicReplace(t *testing.T) {
	t.Parallel()

	assertDiff(t, `{"a":{"x":1}}`, `{"a":5}`, `{"a":5}`)
	assertDiff(t, `{"a":5}`, `{"a":{"x":1}}`, `{"a":{"x":1}}`)
	assertDiff(t, `{"a":{"x":1}}`, `{"a":null}`, `{"a":null}`)
	assertDiff(t, `{"a":null}`, `{"a":{"x":1}}`, `{"a":{"x":1}}`)
}

func TestDiffKeyAddition(t *testing.T) {
	t.Parallel()

	assertDiff(t, `{"a":1}`, `{"a":1,"b":2}`, `{"b":2}`)
	assertDiff(t, `{"s":{}}`, `{"s":{"x":1}}`, `{"s":{"x":1}}`)
}

func TestDiffEmptySubtreeDoesNotProduceEmptyMapping(t *testing.T) {
	t.Parallel()

	// Absence must propagate: a subtree whose only change is a removed key
	// resolves to absent, not {}.
	got, changed := Diff(
		mustParse(t, `{"s":{"x":1,"y":2},"name":"a"}`),
		mustParse(t, `{"s":{"x":1},"name":"b"}`),
	)
	if !changed {
		t.Fatalf("expected name change")
	}
	object := got.(map[string]any)
	if _, found := object["s"]; found {
		t.Fatalf("expected subtree absent, got %#v", got)
	}
	if object["name"] != "b" {
		t.Fatalf("expected name replacement, got %#v", got)
	}
}

func TestBuildPatchStripsReadOnlyKeys(t *testing.T) {
	t.Parallel()

	patch := BuildPatch(
		mustParse(t, `{"queue_id":"q1","name":"A"}`),
		mustParse(t, `{"queue_id":"q9","name":"B"}`),
	)
	if !Equal(patch, mustParse(t, `{"name":"B"}`)) {
		t.Fatalf("expected read-only edit suppressed, got %#v", patch)
	}
}

func TestBuildPatchEmptyForRemovalOnlyEdit(t *testing.T) {
	t.Parallel()

	if patch := BuildPatch(mustParse(t, `{"a":1,"b":2}`), mustParse(t, `{"a":1}`)); patch != nil {
		t.Fatalf("expected nil patch, got %#v", patch)
	}
}

func TestBuildPatchNilForTopLevelNullDraft(t *testing.T) {
	t.Parallel()

	// A draft replaced wholesale by null collapses to the same nil as an
	// empty diff; either way there is no committable object payload.
	if patch := BuildPatch(mustParse(t, `{"name":"A"}`), mustParse(t, `null`)); patch != nil {
		t.Fatalf("expected nil patch, got %#v", patch)
	}
}

func TestBuildPatchDoesNotInjectKeys(t *testing.T) {
	t.Parallel()

	original := mustParse(t, `{"name":"A","settings":{"timeout":30,"mode":"strict"}}`)
	edited := mustParse(t, `{"name":"A","settings":{"timeout":60,"mode":"strict"}}`)

	patch := BuildPatch(original, edited).(map[string]any)
	if len(patch) != 1 {
		t.Fatalf("expected exactly one top-level key, got %#v", patch)
	}
	settings := patch["settings"].(map[string]any)
	if len(settings) != 1 {
		t.Fatalf("expected exactly one nested key, got %#v", settings)
	}
	if got := settings["timeout"].(json.Number); got.String() != "60" {
		t.Fatalf("expected timeout 60, got %#v", settings)
	}
}

// Applying the computed patch as an RFC 7386 merge patch must reproduce the
// edited document, as long as the edit introduces no nulls and removes no
// keys (our patch cannot express either).
func TestBuildPatchMergeRoundTrip(t *testing.T) {
	t.Parallel()

	originalText := `{"name":"support","settings":{"timeout":30,"mode":"strict"},"tags":["a","b"]}`
	editedText := `{"name":"support-eu","settings":{"timeout":45,"mode":"strict"},"tags":["b","a"]}`

	patch := BuildPatch(mustParse(t, originalText), mustParse(t, editedText))
	patchBytes, err := Encode(patch)
	if err != nil {
		t.Fatalf("Encode patch: %v", err)
	}

	merged, err := jsonpatch.MergePatch([]byte(originalText), patchBytes)
	if err != nil {
		t.Fatalf("MergePatch: %v", err)
	}

	got, err := ParseText(merged)
	if err != nil {
		t.Fatalf("parse merged: %v", err)
	}
	if !Equal(got, mustParse(t, editedText)) {
		t.Fatalf("merge result %#v, want %s", got, editedText)
	}
}
