package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/queueops/queuectl/faults"
)

type fakeUpstream struct {
	tokenRequests  atomic.Int64
	queueRequests  atomic.Int64
	lastAuthHeader atomic.Value
	lastMethod     atomic.Value
	lastBody       atomic.Value
	status         atomic.Int64
	responseBody   atomic.Value
}

func newFakeUpstream(t *testing.T) (*fakeUpstream, *Client) {
	t.Helper()

	upstream := &fakeUpstream{}
	upstream.status.Store(http.StatusOK)
	upstream.responseBody.Store(`{"queue_id":"q1","name":"support"}`)

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		upstream.tokenRequests.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse token form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "client_credentials" {
			t.Errorf("unexpected grant type %q", r.PostForm.Get("grant_type"))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-" + r.PostForm.Get("client_id"), "expires_in": 3600})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		upstream.queueRequests.Add(1)
		upstream.lastAuthHeader.Store(r.Header.Get("Authorization"))
		upstream.lastMethod.Store(r.Method + " " + r.URL.RequestURI())
		body := make([]byte, 0)
		if r.Body != nil {
			buf := make([]byte, 4096)
			n, _ := r.Body.Read(buf)
			body = buf[:n]
		}
		upstream.lastBody.Store(string(body))
		w.WriteHeader(int(upstream.status.Load()))
		_, _ = w.Write([]byte(upstream.responseBody.Load().(string)))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := New(Config{
		BaseURL:      server.URL,
		TokenURL:     server.URL + "/oauth/token",
		ClientID:     "console",
		ClientSecret: "secret",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return upstream, client
}

func TestGetInjectsCachedToken(t *testing.T) {
	upstream, client := newFakeUpstream(t)

	if _, err := client.Get(context.Background(), "q1"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := client.Get(context.Background(), "q1"); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got := upstream.tokenRequests.Load(); got != 1 {
		t.Fatalf("expected one token fetch, got %d", got)
	}
	if got := upstream.lastAuthHeader.Load(); got != "Bearer tok-console" {
		t.Fatalf("unexpected auth header %q", got)
	}
}

func TestSetCredentialsInvalidatesToken(t *testing.T) {
	upstream, client := newFakeUpstream(t)

	if _, err := client.Get(context.Background(), "q1"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	client.SetCredentials("rotated", "new-secret")
	if _, err := client.Get(context.Background(), "q1"); err != nil {
		t.Fatalf("Get after rotation: %v", err)
	}

	if got := upstream.tokenRequests.Load(); got != 2 {
		t.Fatalf("expected token refetch after rotation, got %d", got)
	}
	if got := upstream.lastAuthHeader.Load(); got != "Bearer tok-rotated" {
		t.Fatalf("expected rotated token, got %q", got)
	}
}

func TestUpdateSendsSparsePatch(t *testing.T) {
	upstream, client := newFakeUpstream(t)

	patch := map[string]any{"name": "renamed"}
	if _, err := client.Update(context.Background(), "q1", patch); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if got := upstream.lastMethod.Load(); got != "PATCH /queues/q1" {
		t.Fatalf("unexpected request %q", got)
	}
	if got := upstream.lastBody.Load(); got != `{"name":"renamed"}` {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestUpdateRejectsEmptyPatch(t *testing.T) {
	_, client := newFakeUpstream(t)

	if _, err := client.Update(context.Background(), "q1", nil); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListQueryEncoding(t *testing.T) {
	upstream, client := newFakeUpstream(t)
	upstream.responseBody.Store(`{"queues":[]}`)

	_, err := client.List(context.Background(), ListQuery{Channel: "voice", PageSize: 25, PageToken: "tok"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := upstream.lastMethod.Load(); got != "GET /queues?channel=voice&next_page_token=tok&page_size=25" {
		t.Fatalf("unexpected request %q", got)
	}
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		status   int
		category faults.ErrorCategory
	}{
		{http.StatusUnauthorized, faults.AuthError},
		{http.StatusForbidden, faults.AuthError},
		{http.StatusNotFound, faults.NotFoundError},
		{http.StatusConflict, faults.ConflictError},
		{http.StatusUnprocessableEntity, faults.ValidationError},
		{http.StatusBadGateway, faults.TransportError},
	}

	for _, tc := range cases {
		upstream, client := newFakeUpstream(t)
		upstream.status.Store(int64(tc.status))
		upstream.responseBody.Store(`{"message":"nope"}`)

		_, err := client.Get(context.Background(), "q1")
		if !faults.IsCategory(err, tc.category) {
			t.Fatalf("status %d: expected %s, got %v", tc.status, tc.category, err)
		}
	}
}

func TestDeleteRequiresID(t *testing.T) {
	_, client := newFakeUpstream(t)
	if err := client.Delete(context.Background(), "  "); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBulkCreateWrapsPayloads(t *testing.T) {
	upstream, client := newFakeUpstream(t)

	_, err := client.BulkCreate(context.Background(), []any{map[string]any{"name": "a"}})
	if err != nil {
		t.Fatalf("BulkCreate: %v", err)
	}
	if got := upstream.lastMethod.Load(); got != "POST /queues/batch" {
		t.Fatalf("unexpected request %q", got)
	}
	if got := upstream.lastBody.Load(); got != `{"queues":[{"name":"a"}]}` {
		t.Fatalf("unexpected body %q", got)
	}
}
