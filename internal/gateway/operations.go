package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/queueops/queuectl/queue"
)

// ListQuery carries the pagination and channel filters for queue listing.
type ListQuery struct {
	Channel   string
	PageSize  int
	PageToken string
}

func (q ListQuery) values() url.Values {
	values := url.Values{}
	if strings.TrimSpace(q.Channel) != "" {
		values.Set("channel", q.Channel)
	}
	if q.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if strings.TrimSpace(q.PageToken) != "" {
		values.Set("next_page_token", q.PageToken)
	}
	return values
}

// List fetches one page of queues. The raw payload object is returned
// unchanged so the proxy can pass it through; consumers decode it with
// api.QueuesFromData.
func (c *Client) List(ctx context.Context, query ListQuery) (queue.Value, error) {
	return c.do(ctx, http.MethodGet, "/queues", query.values(), nil)
}

// Get fetches the full detail of one queue, the trusted baseline for an
// edit session.
func (c *Client) Get(ctx context.Context, id string) (queue.Value, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodGet, "/queues/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Create(ctx context.Context, payload queue.Value) (queue.Value, error) {
	return c.do(ctx, http.MethodPost, "/queues", nil, payload)
}

// Update sends a partial update. The body must be the sparse structural
// diff; the gateway does not inspect or extend it.
func (c *Client) Update(ctx context.Context, id string, patch queue.Value) (queue.Value, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if patch == nil {
		return nil, validationError("patch payload must not be empty", nil)
	}
	return c.do(ctx, http.MethodPatch, "/queues/"+url.PathEscape(id), nil, patch)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	_, err := c.do(ctx, http.MethodDelete, "/queues/"+url.PathEscape(id), nil, nil)
	return err
}

// BulkCreate passes a batch of payloads to the template batch-create
// endpoint unchanged.
func (c *Client) BulkCreate(ctx context.Context, payloads []queue.Value) (queue.Value, error) {
	if len(payloads) == 0 {
		return nil, validationError("bulk create requires at least one payload", nil)
	}
	body := map[string]any{"queues": append([]any(nil), payloads...)}
	return c.do(ctx, http.MethodPost, "/queues/batch", nil, body)
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return validationError("queue id must not be empty", nil)
	}
	return nil
}
