package queue

// Server-assigned keys that must never be diffed, rendered, or sent in a
// patch. The set is closed and case-sensitive.
var readOnlyKeys = map[string]struct{}{
	"queue_id":           {},
	"id":                 {},
	"created_at":         {},
	"updated_at":         {},
	"last_modified_time": {},
	"total_records":      {},
	"next_page_token":    {},
}

func IsReadOnlyKey(key string) bool {
	_, denied := readOnlyKeys[key]
	return denied
}

// StripReadOnly returns a copy of v with every read-only key removed at
// every nesting level. Arrays are filtered element-wise preserving order,
// scalars pass through, and the operation is idempotent. Both sides of any
// comparison must go through this filter so denied keys can never surface
// as diff entries or patch fields.
func StripReadOnly(v Value) Value {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			if IsReadOnlyKey(k) {
				continue
			}
			m[k] = StripReadOnly(vv)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i := range t {
			s[i] = StripReadOnly(t[i])
		}
		return s
	default:
		return t
	}
}
