// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package idp talks to a GoTrue-compatible identity provider over its REST
// API. Token verification uses the end-user endpoint with the caller's own
// bearer token; identity deletion uses the admin endpoint with the service
// key.
package idp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cardinalhq/scrubber/internal/erasure"
)

// Config describes the identity provider connection.
type Config struct {
	BaseURL    string `mapstructure:"base_url"`
	ServiceKey string `mapstructure:"service_key"`
}

type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

var _ erasure.IdentityProvider = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("identity provider base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid identity provider base URL: %w", err)
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		serviceKey: cfg.ServiceKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// VerifyToken resolves a bearer token to the identity it belongs to. Any
// non-200 response means the token does not resolve to a live identity.
func (c *Client) VerifyToken(ctx context.Context, token string) (erasure.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return erasure.Identity{}, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return erasure.Identity{}, fmt.Errorf("verify token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return erasure.Identity{}, fmt.Errorf("verify token: identity provider returned %d", resp.StatusCode)
	}

	var user userResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return erasure.Identity{}, fmt.Errorf("decode verify response: %w", err)
	}
	if user.ID == "" {
		return erasure.Identity{}, fmt.Errorf("identity provider returned no subject id")
	}

	return erasure.Identity{ID: user.ID, Email: user.Email}, nil
}

// DeleteIdentity removes the subject's identity record. A 404 means the
// record is already gone and counts as success, keeping repeat erasure runs
// idempotent.
func (c *Client) DeleteIdentity(ctx context.Context, subjectID string) error {
	endpoint := c.baseURL + "/admin/users/" + url.PathEscape(subjectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		slog.Debug("Identity already deleted")
		return nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("delete identity: identity provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}
