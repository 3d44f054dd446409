// Package gateway is the HTTP client for the upstream contact-center API.
// It owns credential injection: callers never see tokens, only queue
// payloads and typed errors.
package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/queueops/queuectl/faults"
	"github.com/queueops/queuectl/queue"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	mediaTypeJSON      = "application/json"
)

type Config struct {
	BaseURL        string
	TokenURL       string
	ClientID       string
	ClientSecret   string
	DefaultHeaders map[string]string
	InsecureTLS    bool
}

type Client struct {
	baseURL        *url.URL
	tokenURL       string
	defaultHeaders map[string]string
	httpClient     *http.Client

	credsMu      sync.Mutex
	clientID     string
	clientSecret string

	tokenMu        sync.Mutex
	accessToken    string
	tokenExpiresAt time.Time
}

func New(cfg Config) (*Client, error) {
	baseURL, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.TokenURL) == "" {
		return nil, validationError("token URL must not be empty", nil)
	}
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, validationError("client credentials must not be empty", nil)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		baseURL:        baseURL,
		tokenURL:       strings.TrimSpace(cfg.TokenURL),
		defaultHeaders: cloneStringMap(cfg.DefaultHeaders),
		httpClient: &http.Client{
			Timeout:   defaultHTTPTimeout,
			Transport: transport,
		},
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
	}, nil
}

// SetCredentials swaps the OAuth client credentials at runtime (config
// hot-reload) and drops any cached token so the next request
// re-authenticates.
func (c *Client) SetCredentials(clientID, clientSecret string) {
	c.credsMu.Lock()
	c.clientID = strings.TrimSpace(clientID)
	c.clientSecret = strings.TrimSpace(clientSecret)
	c.credsMu.Unlock()

	c.tokenMu.Lock()
	c.accessToken = ""
	c.tokenExpiresAt = time.Time{}
	c.tokenMu.Unlock()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body queue.Value) (queue.Value, error) {
	endpoint := c.baseURL.JoinPath(strings.Split(strings.Trim(path, "/"), "/")...)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := queue.Encode(body)
		if err != nil {
			return nil, validationError("failed to encode request body", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return nil, internalError("failed to build request", err)
	}
	request.Header.Set("Accept", mediaTypeJSON)
	if body != nil {
		request.Header.Set("Content-Type", mediaTypeJSON)
	}
	for name, value := range c.defaultHeaders {
		request.Header.Set(name, value)
	}

	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Authorization", "Bearer "+token)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, transportError("remote request failed", err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, 8<<20))
	if err != nil {
		return nil, transportError("failed to read response body", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, classifyStatusError(response.StatusCode, responseBody)
	}

	return decodeJSONResponse(responseBody)
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, validationError("base URL must not be empty", nil)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, validationError("base URL is invalid", err)
	}
	return parsed, nil
}

func cloneStringMap(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func decodeJSONResponse(body []byte) (queue.Value, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	value, err := queue.ParseText(body)
	if err != nil {
		return nil, transportError("response body is not valid JSON", err)
	}
	return value, nil
}

func classifyStatusError(statusCode int, body []byte) error {
	message := fmt.Sprintf("remote request failed with status %d: %s", statusCode, summarizeBody(body))

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return faults.NewTypedError(faults.AuthError, message, nil)
	case http.StatusNotFound:
		return faults.NewTypedError(faults.NotFoundError, message, nil)
	case http.StatusConflict:
		return faults.NewTypedError(faults.ConflictError, message, nil)
	}
	if statusCode >= 400 && statusCode < 500 {
		return validationError(message, nil)
	}
	return transportError(message, nil)
}

func summarizeBody(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "<empty>"
	}
	if len(trimmed) > 512 {
		return trimmed[:512] + "..."
	}
	return trimmed
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func transportError(message string, cause error) error {
	return faults.NewTypedError(faults.TransportError, message, cause)
}

func internalError(message string, cause error) error {
	return faults.NewTypedError(faults.InternalError, message, cause)
}
