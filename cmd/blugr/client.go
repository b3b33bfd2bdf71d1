package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"blugr/internal/api"
)

type apiClient struct {
	baseURL string
	token   string
	httpcl  *http.Client
}

func newAPIClient(addr, token string) *apiClient {
	base := strings.TrimRight(addr, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &apiClient{
		baseURL: base,
		token:   token,
		httpcl:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) Process(sourceURL string) (api.ProcessResponse, error) {
	body, err := json.Marshal(api.ProcessRequest{URL: sourceURL})
	if err != nil {
		return api.ProcessResponse{}, fmt.Errorf("encode request: %w", err)
	}
	var resp api.ProcessResponse
	if err := c.do(http.MethodPost, "/api/process", body, &resp); err != nil {
		return api.ProcessResponse{}, err
	}
	return resp, nil
}

func (c *apiClient) Tasks() (api.TaskListResponse, error) {
	var resp api.TaskListResponse
	if err := c.do(http.MethodGet, "/api/tasks", nil, &resp); err != nil {
		return api.TaskListResponse{}, err
	}
	return resp, nil
}

func (c *apiClient) Task(taskID string) (api.TaskView, error) {
	var resp api.TaskView
	if err := c.do(http.MethodGet, "/api/tasks/"+url.PathEscape(taskID), nil, &resp); err != nil {
		return api.TaskView{}, err
	}
	return resp, nil
}

func (c *apiClient) Content(contentID string) (api.ContentResponse, error) {
	var resp api.ContentResponse
	if err := c.do(http.MethodGet, "/api/content/"+url.PathEscape(contentID), nil, &resp); err != nil {
		return api.ContentResponse{}, err
	}
	return resp, nil
}

func (c *apiClient) Health() (api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.do(http.MethodGet, "/api/health", nil, &resp); err != nil {
		return api.HealthResponse{}, err
	}
	return resp, nil
}

func (c *apiClient) do(method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpcl.Do(req)
	if err != nil {
		return wrapDialError(err, c.baseURL)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr api.ErrorResponse
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon: %s (%s)", apiErr.Error, resp.Status)
		}
		return fmt.Errorf("daemon: unexpected status %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func wrapDialError(err error, baseURL string) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon at %s: connection refused; start the daemon with `blugrd`", baseURL)
	}
	return fmt.Errorf("connect to daemon: %w", err)
}
