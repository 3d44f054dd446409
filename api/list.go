package api

import (
	"encoding/json"
	"fmt"

	"github.com/queueops/queuectl/faults"
	"github.com/queueops/queuectl/queue"
)

// ListPage is the decoded queue list with its pagination fields. The
// tokens live here, outside the payloads, because they are read-only keys
// that never participate in diffing.
type ListPage struct {
	Queues        []queue.Value
	TotalRecords  int64
	NextPageToken string
}

// QueuesFromData decodes a list envelope's data. The canonical shape is a
// `queues` array directly under data; the single tolerated fallback is the
// same array nested one level deeper under `data`. Anything else is a
// contract drift and fails loudly.
func QueuesFromData(data queue.Value) (ListPage, error) {
	object, ok := data.(map[string]any)
	if !ok {
		return ListPage{}, shapeError("list data must be a JSON object")
	}

	container := object
	if _, found := container["queues"]; !found {
		inner, ok := container["data"].(map[string]any)
		if !ok {
			return ListPage{}, shapeError("list data has no \"queues\" array")
		}
		container = inner
	}

	raw, found := container["queues"]
	if !found {
		return ListPage{}, shapeError("list data has no \"queues\" array")
	}
	items, ok := raw.([]any)
	if !ok {
		return ListPage{}, shapeError("list data \"queues\" must be an array")
	}

	page := ListPage{Queues: make([]queue.Value, 0, len(items))}
	for i, item := range items {
		if _, ok := item.(map[string]any); !ok {
			return ListPage{}, shapeError(fmt.Sprintf("list entry %d is not a JSON object", i))
		}
		page.Queues = append(page.Queues, item)
	}

	if number, ok := container["total_records"].(json.Number); ok {
		if total, err := number.Int64(); err == nil {
			page.TotalRecords = total
		}
	}
	if token, ok := container["next_page_token"].(string); ok {
		page.NextPageToken = token
	}
	return page, nil
}

func shapeError(message string) error {
	return faults.NewTypedError(faults.TransportError, "unexpected list response shape: "+message, nil)
}
