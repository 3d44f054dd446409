package proxy

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/queueops/queuectl/faults"
	"github.com/queueops/queuectl/internal/bulk"
	"github.com/queueops/queuectl/internal/gateway"
	"github.com/queueops/queuectl/queue"
)

const maxRequestBody = 8 << 20

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := gateway.ListQuery{
		Channel:   params.Get("channel"),
		PageToken: params.Get("next_page_token"),
	}
	if raw := strings.TrimSpace(params.Get("page_size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			s.writeError(w, faults.NewTypedError(faults.ValidationError, "page_size must be a positive integer", err))
			return
		}
		query.PageSize = size
	}

	data, err := s.gateway.List(r.Context(), query)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeData(w, data)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	data, err := s.gateway.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeData(w, data)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	payload, err := readJSONBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	data, err := s.gateway.Create(r.Context(), payload)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeData(w, data)
}

// handleBulkCreate accepts either a JSON body (an array of payloads or an
// object with a "queues" array) or raw CSV, and forwards the resulting
// batch unchanged to the template batch-create endpoint.
func (s *Server) handleBulkCreate(w http.ResponseWriter, r *http.Request) {
	contentType := strings.ToLower(r.Header.Get("Content-Type"))

	var payloads []queue.Value
	if strings.Contains(contentType, "csv") {
		parsed, err := bulk.ParseCSV(io.LimitReader(r.Body, maxRequestBody))
		if err != nil {
			s.writeError(w, err)
			return
		}
		payloads = parsed
	} else {
		body, err := readJSONBody(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		payloads, err = bulkPayloadsFromJSON(body)
		if err != nil {
			s.writeError(w, err)
			return
		}
	}

	data, err := s.gateway.BulkCreate(r.Context(), payloads)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeData(w, data)
}

func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	patch, err := readJSONBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, ok := patch.(map[string]any); !ok {
		s.writeError(w, faults.NewTypedError(faults.ValidationError, "patch body must be a JSON object", nil))
		return
	}

	data, err := s.gateway.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeData(w, data)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.gateway.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeData(w, nil)
}

func readJSONBody(r *http.Request) (queue.Value, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return nil, faults.NewTypedError(faults.TransportError, "failed to read request body", err)
	}
	return queue.ParseText(raw)
}

func bulkPayloadsFromJSON(body queue.Value) ([]queue.Value, error) {
	switch typed := body.(type) {
	case []any:
		return payloadObjects(typed)
	case map[string]any:
		raw, found := typed["queues"]
		if !found {
			return nil, faults.NewTypedError(faults.ValidationError, "bulk body must be an array or an object with a \"queues\" array", nil)
		}
		items, ok := raw.([]any)
		if !ok {
			return nil, faults.NewTypedError(faults.ValidationError, "bulk body \"queues\" must be an array", nil)
		}
		return payloadObjects(items)
	default:
		return nil, faults.NewTypedError(faults.ValidationError, "bulk body must be an array or an object with a \"queues\" array", nil)
	}
}

func payloadObjects(items []any) ([]queue.Value, error) {
	payloads := make([]queue.Value, 0, len(items))
	for _, item := range items {
		if _, ok := item.(map[string]any); !ok {
			return nil, faults.NewTypedError(faults.ValidationError, "bulk entries must be JSON objects", nil)
		}
		payloads = append(payloads, item)
	}
	if len(payloads) == 0 {
		return nil, faults.NewTypedError(faults.ValidationError, "bulk body contains no entries", nil)
	}
	return payloads, nil
}
