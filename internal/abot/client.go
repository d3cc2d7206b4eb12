/*
Copyright 2024.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package abot is a thin client around the Abot REST API as the operator uses
// it: one authenticated session per reconciliation pass, bearer-token auth
// after login, JSON bodies throughout.
package abot

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

// apiPrefix is prepended to every endpoint path.
const apiPrefix = "/abot/api/v5"

const defaultTimeout = 30 * time.Second

// Client is an authenticated session against one Abot instance. Sessions are
// cheap to establish and are not reused across reconciliation passes.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// Option configures a Client before login.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// Login authenticates against the Abot service and returns a session bound to
// the bearer token from the response. A non-2xx answer or a missing token is
// an *AuthError.
func Login(ctx context.Context, endpoint, email, password string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimSuffix(endpoint, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	body := map[string]string{"email": email, "password": password}
	resp, err := c.do(ctx, http.MethodPost, "/login", body)
	if err != nil {
		return nil, &AuthError{requestError{Op: "login", Transport: true, Err: err}}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &AuthError{requestError{Op: "login", StatusCode: resp.StatusCode}}
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return nil, &AuthError{requestError{Op: "login", Err: fmt.Errorf("decoding response: %w", err)}}
	}
	if loginResp.Token == "" {
		return nil, &AuthError{requestError{Op: "login", Err: fmt.Errorf("no token in response")}}
	}
	c.token = loginResp.Token
	return c, nil
}

// ConfigUpdate is the payload of an update_config_properties call.
type ConfigUpdate struct {
	Filename  string
	Update    map[string]string
	Comment   []string
	Uncomment []string
}

// UpdateConfig applies a properties-file update. Any non-2xx answer is a
// *ConfigUpdateError.
func (c *Client) UpdateConfig(ctx context.Context, cfg ConfigUpdate) error {
	update := cfg.Update
	if update == nil {
		update = map[string]string{}
	}
	comment := cfg.Comment
	if comment == nil {
		comment = []string{}
	}
	uncomment := cfg.Uncomment
	if uncomment == nil {
		uncomment = []string{}
	}
	body := map[string]any{
		"filename": cfg.Filename,
		"data": map[string]any{
			"update":    update,
			"comment":   comment,
			"uncomment": uncomment,
		},
	}
	resp, err := c.do(ctx, http.MethodPost, "/update_config_properties", body)
	if err != nil {
		return &ConfigUpdateError{requestError{Op: "update_config_properties", Transport: true, Err: err}}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ConfigUpdateError{requestError{Op: "update_config_properties", StatusCode: resp.StatusCode}}
	}
	return nil
}

// FeatureTags lists the feature tags known to the service. This is purely
// diagnostic; callers must not fail a suite on its error.
func (c *Client) FeatureTags(ctx context.Context) (json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodGet, "/feature_files_tags", nil)
	if err != nil {
		return nil, fmt.Errorf("abot feature_files_tags: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("abot feature_files_tags: unexpected status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("abot feature_files_tags: reading response: %w", err)
	}
	return raw, nil
}

// Execution is the handle returned by the execute endpoint. ID may be empty;
// some Abot deployments key status to the session rather than to a run id.
type Execution struct {
	ID string
}

// Execute triggers an execution of the features selected by params, labelled
// with the build under test. A non-2xx answer is a *TriggerError.
func (c *Client) Execute(ctx context.Context, params, build string) (Execution, error) {
	body := map[string]string{"params": params}
	if build != "" {
		body["build"] = build
	}
	resp, err := c.do(ctx, http.MethodPost, "/feature_files/execute", body)
	if err != nil {
		return Execution{}, &TriggerError{requestError{Op: "feature_files/execute", Transport: true, Err: err}}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Execution{}, &TriggerError{requestError{Op: "feature_files/execute", StatusCode: resp.StatusCode}}
	}

	// The response shape is implementation-defined; pick up an identifier if
	// one is present under any of the known keys.
	var fields map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		return Execution{}, nil
	}
	for _, key := range []string{"executionId", "id", "status"} {
		if v, ok := fields[key].(string); ok && v != "" {
			return Execution{ID: v}, nil
		}
	}
	return Execution{}, nil
}

// ExecutionStatus queries the current execution status, detailed or basic,
// and returns the raw body for classification. A failed query is a
// *StatusQueryError.
func (c *Client) ExecutionStatus(ctx context.Context, detailed bool) (json.RawMessage, error) {
	path := "/execution_status"
	if detailed {
		path = "/detail_execution_status"
	}
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, &StatusQueryError{requestError{Op: path[1:], Transport: true, Err: err}}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusQueryError{requestError{Op: path[1:], StatusCode: resp.StatusCode}}
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &StatusQueryError{requestError{Op: path[1:], Transport: true, Err: fmt.Errorf("reading response: %w", err)}}
	}
	return raw, nil
}

// LatestArtifactName fetches the name of the most recent result artifact.
// Best-effort; callers treat failures as diagnostic.
func (c *Client) LatestArtifactName(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/latest_artifact_name", nil)
	if err != nil {
		return "", fmt.Errorf("abot latest_artifact_name: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("abot latest_artifact_name: unexpected status %d", resp.StatusCode)
	}
	var fields map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		return "", fmt.Errorf("abot latest_artifact_name: decoding response: %w", err)
	}
	for _, key := range []string{"latest_artifact_name", "name", "artifact"} {
		if v, ok := fields[key].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.httpc.Do(req)
}
