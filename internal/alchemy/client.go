// Package alchemy talks to the Alchemy chemical-inventory REST API:
// sign-in, create-material and read-record, plus the token cache that
// fronts them.
package alchemy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mockerp/alchemy-bridge/internal/errs"
)

// DefaultBaseURL is the production core API root.
const DefaultBaseURL = "https://core-production.alchemy.cloud/core/api/v2"

// DefaultAppBaseURL is the web application root used for deep links.
const DefaultAppBaseURL = "https://app.alchemy.cloud"

// Client is a thin HTTP client for the Alchemy core API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client rooted at baseURL. A nil httpClient gets a
// 30s-timeout default.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// TenantToken is one (tenant, accessToken) pair from the sign-in response.
type TenantToken struct {
	Tenant      string `json:"tenant"`
	AccessToken string `json:"accessToken"`
}

// signInResponse accepts both response shapes the API is known to send:
// a list of tenant tokens, or a single pair at the top level.
type signInResponse struct {
	Tokens      []TenantToken `json:"tokens"`
	Tenant      string        `json:"tenant"`
	AccessToken string        `json:"accessToken"`
}

func (r signInResponse) all() []TenantToken {
	if len(r.Tokens) > 0 {
		return r.Tokens
	}
	if r.AccessToken != "" {
		return []TenantToken{{Tenant: r.Tenant, AccessToken: r.AccessToken}}
	}
	return nil
}

// SignIn exchanges credentials for the tenant tokens the account can use.
func (c *Client) SignIn(ctx context.Context, email, password string) ([]TenantToken, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("marshal sign-in body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sign-in", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &errs.ExternalAPIError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: sign-in rejected: %s", errs.ErrUnauthorized, upstreamMessage(raw, resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &errs.ExternalAPIError{StatusCode: resp.StatusCode, Message: upstreamMessage(raw, resp.StatusCode)}
	}

	var parsed signInResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &errs.ExternalAPIError{StatusCode: resp.StatusCode, Message: "malformed sign-in response"}
	}
	return parsed.all(), nil
}

// CreateMaterial posts a creation payload and returns the id Alchemy
// assigned to the new record. A response without an id is fatal.
func (c *Client) CreateMaterial(ctx context.Context, token string, payload any) (int64, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal create payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/create-material", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &errs.ExternalAPIError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &errs.ExternalAPIError{StatusCode: resp.StatusCode, Message: upstreamMessage(raw, resp.StatusCode)}
	}

	var parsed struct {
		MaterialID int64 `json:"materialId"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.MaterialID == 0 {
		return 0, &errs.ExternalAPIError{StatusCode: resp.StatusCode, Message: "alchemy did not return a materialId"}
	}
	return parsed.MaterialID, nil
}

// ReadRecord fetches the field list of a record by its external id.
func (c *Client) ReadRecord(ctx context.Context, token string, id int64) (Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/read-record?id="+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return Record{}, fmt.Errorf("build read request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Record{}, &errs.ExternalAPIError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Record{}, &errs.ExternalAPIError{StatusCode: resp.StatusCode, Message: upstreamMessage(raw, resp.StatusCode)}
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, &errs.ExternalAPIError{StatusCode: resp.StatusCode, Message: "malformed read-record response"}
	}
	return rec, nil
}

// upstreamMessage extracts a human-readable message from an upstream
// error body, falling back to a status line.
func upstreamMessage(raw []byte, status int) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	if len(raw) > 0 && len(raw) <= 200 {
		return string(raw)
	}
	return http.StatusText(status)
}
