// Package pms implements the HTTP client for the internal
// project-management service,
// grounded on internal/shortcut/client.go's NewClient/WithEndpoint/
// WithHTTPClient trio and internal/jira/client.go's doRequest helper.
package pms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every blocking PMS call.
const DefaultTimeout = 30 * time.Second

// Client is an authenticated HTTP client for one PMS instance.
type Client struct {
	Endpoint   string
	Login      string
	Password   string
	HTTPClient *http.Client

	sessionToken string
	projectID    int
}

// NewClient constructs a Client for endpoint with the given credentials.
func NewClient(endpoint, login, password string) *Client {
	return &Client{
		Endpoint: strings.TrimSuffix(endpoint, "/"),
		Login:    login,
		Password: password,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithEndpoint returns a copy of c pointed at a different endpoint, used
// to inject an httptest.Server URL in tests.
func (c *Client) WithEndpoint(endpoint string) *Client {
	clone := *c
	clone.Endpoint = strings.TrimSuffix(endpoint, "/")
	return &clone
}

// WithHTTPClient returns a copy of c using the given *http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	clone := *c
	clone.HTTPClient = hc
	return &clone
}

// Authenticate establishes a session token for subsequent calls.
func (c *Client) Authenticate(ctx context.Context) error {
	payload := map[string]string{"login": c.Login, "password": c.Password}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("pms: marshal auth request: %w", err)
	}

	body, err := c.doRequest(ctx, http.MethodPost, c.Endpoint+"/api/v1/authenticate", data)
	if err != nil {
		return fmt.Errorf("pms: authenticate: %w", err)
	}

	var result struct {
		SessionToken string `json:"session_token"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("pms: parse auth response: %w", err)
	}
	c.sessionToken = result.SessionToken
	return nil
}

// ConnectToProject selects projectID for subsequent artifact calls.
func (c *Client) ConnectToProject(ctx context.Context, projectID int) error {
	url := fmt.Sprintf("%s/api/v1/projects/%d/connect", c.Endpoint, projectID)
	if _, err := c.doRequest(ctx, http.MethodPost, url, nil); err != nil {
		return fmt.Errorf("pms: connect to project %d: %w", projectID, err)
	}
	c.projectID = projectID
	return nil
}

// doRequest executes an authenticated HTTP request and returns the
// response body, mirroring internal/jira/client.go's doRequest.
func (c *Client) doRequest(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	if c.Endpoint == "" {
		return nil, fmt.Errorf("pms endpoint not configured")
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if c.sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.sessionToken)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "syncengine-pms-client/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pms API returned %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
