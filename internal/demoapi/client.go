// ABOUTME: HTTP client Backend for a remote demo API using bearer-key auth.
// ABOUTME: Maps transport and status failures onto adapter error kinds.

package demoapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/2389/cloud-mcp/internal/adapter"
)

// maxErrorBody bounds how much of a failed response is echoed back.
const maxErrorBody = 512

// Client is a minimal HTTP client for the demo API.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewClient returns a new client. If httpClient is nil, a default with 30s timeout is used.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), APIKey: apiKey, HTTP: httpClient}
}

// GetUser fetches GET /users/{id}.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	var u User
	if err := c.get(ctx, "/users/"+url.PathEscape(userID), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Search fetches GET /search.
func (c *Client) Search(ctx context.Context, p SearchParams) (*SearchResult, error) {
	q := url.Values{}
	q.Set("query", p.Query)
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	var res SearchResult
	if err := c.get(ctx, "/search", q, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListItems fetches GET /items.
func (c *Client) ListItems(ctx context.Context, p ListParams) (*ItemPage, error) {
	q := url.Values{}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("pageSize", strconv.Itoa(p.PageSize))
	var page ItemPage
	if err := c.get(ctx, "/items", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return adapter.Wrap(adapter.KindBackendUnavailable, err, "invalid base url")
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return adapter.Wrap(adapter.KindBackendUnavailable, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return adapter.Wrap(adapter.KindBackendUnavailable, err, "request timed out")
		}
		return adapter.Wrap(adapter.KindBackendUnavailable, err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := fmt.Sprintf("api status %d", resp.StatusCode)
		if text := strings.TrimSpace(string(body)); text != "" {
			msg += ": " + text
		}
		if resp.StatusCode >= 500 {
			return adapter.Errorf(adapter.KindBackendUnavailable, "%s", msg)
		}
		return adapter.Errorf(adapter.KindCommandFailed, "%s", msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return adapter.Wrap(adapter.KindMalformedResponse, err, "decode response")
	}
	return nil
}
