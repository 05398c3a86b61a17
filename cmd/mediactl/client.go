package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// apiClient is a thin HTTP client against transomd's /v2 surface. mediactl
// has no local store or socket to fall back to — every command is a request.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(bind, token string) *apiClient {
	return &apiClient{
		baseURL: "http://" + strings.TrimPrefix(bind, "http://") + "/v2",
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type apiErrorBody struct {
	Status string `json:"status"`
	Error  struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details,omitempty"`
	} `json:"error"`
}

func (e apiErrorBody) asError() error {
	if e.Error.Details != "" {
		return fmt.Errorf("%s: %s (%s)", e.Error.Code, e.Error.Message, e.Error.Details)
	}
	return fmt.Errorf("%s: %s", e.Error.Code, e.Error.Message)
}

func (c *apiClient) do(method, path string, out any) error {
	req, err := http.NewRequest(method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapDialError(err, c.baseURL)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiErrorBody
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Code != "" {
			return apiErr.asError()
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func wrapDialError(err error, baseURL string) error {
	return fmt.Errorf("connect to transomd at %s: %w (is mediad running?)", baseURL, err)
}

func (c *apiClient) listJobs() (jobsListView, error) {
	var out jobsListView
	err := c.do(http.MethodGet, "/jobs", &out)
	return out, err
}

func (c *apiClient) getJob(id string) (jobView, error) {
	var out jobView
	err := c.do(http.MethodGet, "/jobs/"+id, &out)
	return out, err
}

func (c *apiClient) listBatches() (batchesListView, error) {
	var out batchesListView
	err := c.do(http.MethodGet, "/batches", &out)
	return out, err
}

func (c *apiClient) getBatch(id string) (batchView, error) {
	var out batchView
	err := c.do(http.MethodGet, "/batches/"+id, &out)
	return out, err
}

func (c *apiClient) cancelBatch(id string) (batchView, error) {
	var out batchView
	err := c.do(http.MethodPost, "/batches/"+id+"/cancel", &out)
	return out, err
}
