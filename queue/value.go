package queue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/queueops/queuectl/faults"
)

// Value is a dynamic JSON value restricted to the shapes produced by
// Normalize: nil, bool, string, json.Number, []any, map[string]any.
type Value = any

type Kind uint8

const (
	KindNull Kind = iota
	KindObject
	KindArray
	KindString
	KindNumber
	KindBool
)

func KindOf(v Value) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case map[string]any:
		return KindObject
	case []any:
		return KindArray
	case string:
		return KindString
	case json.Number:
		return KindNumber
	case bool:
		return KindBool
	default:
		return KindNull
	}
}

// ParseText decodes a user-edited text buffer into a normalized Value.
// Parse failures are recoverable validation errors carrying the decoder's
// complaint; they must block diff and commit without discarding the buffer.
func ParseText(text []byte) (Value, error) {
	if len(bytes.TrimSpace(text)) == 0 {
		return nil, faults.NewTypedError(faults.ValidationError, "draft is empty, expected a JSON document", nil)
	}

	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, faults.NewTypedError(faults.ValidationError, "draft is not valid JSON", err)
	}
	return Normalize(v)
}

// Normalize converts arbitrary Go values into the canonical Value shapes.
// Numbers become json.Number so numeric fields survive round-trips without
// float drift.
func Normalize(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool, string, json.Number:
		return t, nil
	case float32, float64, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return json.Number(fmt.Sprintf("%v", t)), nil
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			nv, err := Normalize(vv)
			if err != nil {
				return nil, err
			}
			m[k] = nv
		}
		return m, nil
	case []any:
		s := make([]any, len(t))
		for i := range t {
			nv, err := Normalize(t[i])
			if err != nil {
				return nil, err
			}
			s[i] = nv
		}
		return s, nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, faults.NewTypedError(faults.ValidationError, fmt.Sprintf("value not JSON-serializable: %T", t), err)
		}
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.UseNumber()
		var v2 any
		if err := dec.Decode(&v2); err != nil {
			return nil, err
		}
		return v2, nil
	}
}

// Clone deep-copies a normalized Value.
func Clone(v Value) Value {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = Clone(vv)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i := range t {
			s[i] = Clone(t[i])
		}
		return s
	default:
		return t
	}
}

// Equal is deep equality over normalized Values. Array order matters.
func Equal(a, b Value) bool {
	return reflect.DeepEqual(a, b)
}

// Encode renders a Value as compact canonical JSON.
func Encode(v Value) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// EncodeIndent renders a Value as indented JSON suitable for an edit buffer.
func EncodeIndent(v Value) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.MarshalIndent(v, "", "  ")
}
