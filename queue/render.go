package queue

import (
	"fmt"
	"sort"
	"strings"
)

type LineKind uint8

const (
	LineAdded LineKind = iota
	LineRemoved
	LineContext
)

// Line is one rendered diff row. Text holds the formatted value, not the
// full row; FormatLines produces the git-style presentation.
type Line struct {
	Kind LineKind
	Path string
	Text string
}

// RootPath is the rendered placeholder for an empty path.
const RootPath = "<root>"

// NoChangesIndicator is what FormatLines emits instead of a blank display
// when the two values are identical.
const NoChangesIndicator = "(no changes)"

// Render walks the same filtered pair fed to Diff and produces ordered
// added/removed lines for human review. It is deliberately independent of
// the sparse diff: removed keys are shown here even though the patch
// payload omits them. Keys are visited in lexicographic order at each
// level so output is deterministic.
func Render(original, edited Value) []Line {
	lines := make([]Line, 0)
	renderValue(&lines, "", original, edited)
	return lines
}

func renderValue(lines *[]Line, path string, original, edited Value) {
	if Equal(original, edited) {
		return
	}

	originalObject, originalIsObject := original.(map[string]any)
	editedObject, editedIsObject := edited.(map[string]any)
	if originalIsObject && editedIsObject {
		for _, key := range unionKeys(originalObject, editedObject) {
			childPath := joinPath(path, key)
			originalValue, inOriginal := originalObject[key]
			editedValue, inEdited := editedObject[key]

			switch {
			case !inEdited:
				appendLine(lines, LineRemoved, childPath, originalValue)
			case !inOriginal:
				appendLine(lines, LineAdded, childPath, editedValue)
			default:
				renderValue(lines, childPath, originalValue, editedValue)
			}
		}
		return
	}

	// Arrays, scalars, and type changes render as a whole-value swap,
	// matching the atomic-replace diff policy.
	appendLine(lines, LineRemoved, path, original)
	appendLine(lines, LineAdded, path, edited)
}

func appendLine(lines *[]Line, kind LineKind, path string, value Value) {
	*lines = append(*lines, Line{
		Kind: kind,
		Path: renderPath(path),
		Text: formatValue(value),
	})
}

func unionKeys(a, b map[string]any) []string {
	keys := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for key := range a {
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	for key := range b {
		if _, found := seen[key]; found {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

func renderPath(path string) string {
	if path == "" {
		return RootPath
	}
	return path
}

func formatValue(v Value) string {
	encoded, err := Encode(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(encoded)
}

// FormatLines renders the git-style text block shown before a commit.
func FormatLines(lines []Line) string {
	if len(lines) == 0 {
		return NoChangesIndicator
	}

	var builder strings.Builder
	for i, line := range lines {
		if i > 0 {
			builder.WriteByte('\n')
		}
		builder.WriteString(linePrefix(line.Kind))
		builder.WriteByte(' ')
		builder.WriteString(line.Path)
		builder.WriteString(": ")
		builder.WriteString(line.Text)
	}
	return builder.String()
}

func linePrefix(kind LineKind) string {
	switch kind {
	case LineAdded:
		return "+"
	case LineRemoved:
		return "-"
	default:
		return " "
	}
}
