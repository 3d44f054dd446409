// Package api defines the response-envelope contract shared by the admin
// proxy and its console clients. Every proxy endpoint answers with the
// same wrapper; shape drift is an error, not something to probe around.
package api

import (
	"bytes"
	"encoding/json"

	"github.com/queueops/queuectl/faults"
	"github.com/queueops/queuectl/queue"
)

// Envelope is the uniform `{ok, status, data|message}` wrapper.
type Envelope struct {
	OK      bool        `json:"ok"`
	Status  int         `json:"status,omitempty"`
	Data    queue.Value `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

const genericErrorLabel = "request failed"

// DecodeEnvelope parses a proxy response body. Data is normalized so
// numeric fields come back as json.Number.
func DecodeEnvelope(body []byte) (Envelope, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Envelope{}, faults.NewTypedError(faults.TransportError, "empty response envelope", nil)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var envelope Envelope
	if err := dec.Decode(&envelope); err != nil {
		return Envelope{}, faults.NewTypedError(faults.TransportError, "response is not a valid envelope", err)
	}

	normalized, err := queue.Normalize(envelope.Data)
	if err != nil {
		return Envelope{}, err
	}
	envelope.Data = normalized
	return envelope, nil
}

// ErrorMessage extracts a human-readable failure message: message first,
// then data.message, then a generic label.
func (e Envelope) ErrorMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if object, ok := e.Data.(map[string]any); ok {
		if message, ok := object["message"].(string); ok && message != "" {
			return message
		}
	}
	return genericErrorLabel
}

func OKEnvelope(status int, data queue.Value) Envelope {
	return Envelope{OK: true, Status: status, Data: data}
}

func ErrorEnvelope(status int, message string) Envelope {
	return Envelope{OK: false, Status: status, Message: message}
}
