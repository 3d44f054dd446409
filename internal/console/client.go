// Package console is the thin client the CLI uses against the admin
// proxy. It speaks the envelope contract and converts non-ok envelopes
// into typed errors carrying the extracted message.
package console

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/queueops/queuectl/api"
	"github.com/queueops/queuectl/faults"
	"github.com/queueops/queuectl/queue"
)

// Service is the console's view of the proxy endpoint family.
type Service interface {
	List(ctx context.Context, query ListQuery) (api.ListPage, error)
	Get(ctx context.Context, id string) (queue.Value, error)
	Create(ctx context.Context, payload queue.Value) (queue.Value, error)
	Patch(ctx context.Context, id string, patch queue.Value) (queue.Value, error)
	Delete(ctx context.Context, id string) error
	BulkCreate(ctx context.Context, payloads []queue.Value) (queue.Value, error)
}

type ListQuery struct {
	Channel   string
	PageSize  int
	PageToken string
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

var _ Service = (*Client)(nil)

func NewClient(proxyURL string) (*Client, error) {
	trimmed := strings.TrimSpace(proxyURL)
	if trimmed == "" {
		return nil, faults.NewTypedError(faults.ValidationError, "proxy URL must not be empty", nil)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, faults.NewTypedError(faults.ValidationError, "proxy URL is invalid", err)
	}

	return &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *Client) List(ctx context.Context, query ListQuery) (api.ListPage, error) {
	values := url.Values{}
	if strings.TrimSpace(query.Channel) != "" {
		values.Set("channel", query.Channel)
	}
	if query.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(query.PageSize))
	}
	if strings.TrimSpace(query.PageToken) != "" {
		values.Set("next_page_token", query.PageToken)
	}

	envelope, err := c.call(ctx, http.MethodGet, "/api/queues", values, nil)
	if err != nil {
		return api.ListPage{}, err
	}
	return api.QueuesFromData(envelope.Data)
}

func (c *Client) Get(ctx context.Context, id string) (queue.Value, error) {
	envelope, err := c.call(ctx, http.MethodGet, "/api/queues/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

func (c *Client) Create(ctx context.Context, payload queue.Value) (queue.Value, error) {
	envelope, err := c.call(ctx, http.MethodPost, "/api/queues", nil, payload)
	if err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

func (c *Client) Patch(ctx context.Context, id string, patch queue.Value) (queue.Value, error) {
	envelope, err := c.call(ctx, http.MethodPatch, "/api/queues/"+url.PathEscape(id), nil, patch)
	if err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.call(ctx, http.MethodDelete, "/api/queues/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *Client) BulkCreate(ctx context.Context, payloads []queue.Value) (queue.Value, error) {
	body := map[string]any{"queues": append([]any(nil), payloads...)}
	envelope, err := c.call(ctx, http.MethodPost, "/api/queues/bulk", nil, body)
	if err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body queue.Value) (api.Envelope, error) {
	endpoint := *c.baseURL
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + path
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := queue.Encode(body)
		if err != nil {
			return api.Envelope{}, faults.NewTypedError(faults.ValidationError, "failed to encode request body", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return api.Envelope{}, faults.NewTypedError(faults.InternalError, "failed to build proxy request", err)
	}
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return api.Envelope{}, faults.NewTypedError(faults.TransportError, "proxy request failed", err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, 8<<20))
	if err != nil {
		return api.Envelope{}, faults.NewTypedError(faults.TransportError, "failed to read proxy response", err)
	}

	envelope, err := api.DecodeEnvelope(raw)
	if err != nil {
		return api.Envelope{}, err
	}

	// A non-ok envelope is treated exactly like an HTTP error.
	if !envelope.OK {
		return api.Envelope{}, faults.NewTypedError(categoryForStatus(response.StatusCode), envelope.ErrorMessage(), nil)
	}
	return envelope, nil
}

func categoryForStatus(status int) faults.ErrorCategory {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return faults.AuthError
	case http.StatusNotFound:
		return faults.NotFoundError
	case http.StatusConflict:
		return faults.ConflictError
	}
	if status >= 400 && status < 500 {
		return faults.ValidationError
	}
	return faults.TransportError
}
