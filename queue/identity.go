package queue

import (
	"encoding/json"
	"strings"

	"github.com/queueops/queuectl/faults"
)

// identityKeys in lookup order: the queue-specific id wins over the
// generic one.
var identityKeys = []string{"queue_id", "id"}

// ResolveID extracts the remote identifier from a queue payload. A payload
// missing both identity fields aborts the single operation with a
// validation error; the surrounding session stays usable.
func ResolveID(payload Value) (string, error) {
	object, ok := payload.(map[string]any)
	if !ok {
		return "", faults.NewTypedError(faults.ValidationError, "queue payload must be a JSON object", nil)
	}

	for _, key := range identityKeys {
		raw, found := object[key]
		if !found {
			continue
		}
		switch typed := raw.(type) {
		case string:
			if trimmed := strings.TrimSpace(typed); trimmed != "" {
				return trimmed, nil
			}
		case json.Number:
			return typed.String(), nil
		}
	}

	return "", faults.NewTypedError(faults.ValidationError, "queue payload has neither queue_id nor id", nil)
}
