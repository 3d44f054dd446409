package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/queueops/queuectl/faults"
)

// tokenRefreshWindow refreshes tokens slightly before their reported
// expiry so an in-flight request never carries a token that dies mid-hop.
const tokenRefreshWindow = 30 * time.Second

func (c *Client) token(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiresAt.Add(-tokenRefreshWindow)) {
		token := c.accessToken
		c.tokenMu.Unlock()
		return token, nil
	}
	c.tokenMu.Unlock()

	c.credsMu.Lock()
	clientID, clientSecret := c.clientID, c.clientSecret
	c.credsMu.Unlock()

	formValues := url.Values{}
	formValues.Set("grant_type", "client_credentials")
	formValues.Set("client_id", clientID)
	formValues.Set("client_secret", clientSecret)

	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.tokenURL,
		strings.NewReader(formValues.Encode()),
	)
	if err != nil {
		return "", internalError("failed to create oauth2 token request", err)
	}
	request.Header.Set("Accept", mediaTypeJSON)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", transportError("oauth2 token request failed", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return "", transportError("failed to read oauth2 token response", err)
	}

	if response.StatusCode >= http.StatusBadRequest {
		return "", faults.NewTypedError(
			faults.AuthError,
			fmt.Sprintf("oauth2 token request failed with status %d: %s", response.StatusCode, summarizeBody(body)),
			nil,
		)
	}

	var tokenResponse struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tokenResponse); err != nil {
		return "", faults.NewTypedError(faults.AuthError, "oauth2 token response is not valid JSON", err)
	}
	if strings.TrimSpace(tokenResponse.AccessToken) == "" {
		return "", faults.NewTypedError(faults.AuthError, "oauth2 token response does not include access_token", nil)
	}

	expiresAt := time.Now().Add(time.Hour)
	if tokenResponse.ExpiresIn > 0 {
		expiresAt = time.Now().Add(time.Duration(tokenResponse.ExpiresIn) * time.Second)
	}

	c.tokenMu.Lock()
	c.accessToken = tokenResponse.AccessToken
	c.tokenExpiresAt = expiresAt
	c.tokenMu.Unlock()

	return tokenResponse.AccessToken, nil
}
