package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Client is a Tracker that talks to a tracking server over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a tracking client for the given server URI.
func NewClient(uri string) *Client {
	return &Client{
		baseURL: strings.TrimRight(uri, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError is the error payload returned by the tracking server.
type apiError struct {
	Error string `json:"error"`
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tracking server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("tracking server: %s (%s %s: %s)", apiErr.Error, method, path, resp.Status)
		}
		return fmt.Errorf("tracking server: %s %s: %s", method, path, resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// StartRun opens a tracked run on the server.
func (c *Client) StartRun(ctx context.Context, experiment string) (string, error) {
	req := struct {
		Experiment string `json:"experiment"`
	}{Experiment: experiment}

	var info RunInfo
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/runs", req, &info); err != nil {
		return "", err
	}

	return info.RunID, nil
}

// LogParam records a hyperparameter on the server.
func (c *Client) LogParam(ctx context.Context, runID, key, value string) error {
	req := struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}{Key: key, Value: value}

	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/v1/runs/%s/params", url.PathEscape(runID)), req, nil)
}

// LogMetric records a scalar metric on the server.
func (c *Client) LogMetric(ctx context.Context, runID, key string, value float64) error {
	req := struct {
		Key   string  `json:"key"`
		Value float64 `json:"value"`
	}{Key: key, Value: value}

	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/v1/runs/%s/metrics", url.PathEscape(runID)), req, nil)
}

// LogArtifact uploads the file at path to the server under name.
func (c *Client) LogArtifact(ctx context.Context, runID, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open artifact %s: %w", path, err)
	}
	defer f.Close()

	endpoint := fmt.Sprintf("%s/api/v1/runs/%s/artifacts/%s", c.baseURL, url.PathEscape(runID), url.PathEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, f)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tracking server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("tracking server: artifact upload failed: %s", resp.Status)
	}

	return nil
}

// EndRun closes the tracked run on the server.
func (c *Client) EndRun(ctx context.Context, runID string, outcome RunOutcome) error {
	req := struct {
		Status RunOutcome `json:"status"`
	}{Status: outcome}

	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/v1/runs/%s/end", url.PathEscape(runID)), req, nil)
}

// ListRuns fetches the most recent runs from the server.
func (c *Client) ListRuns(ctx context.Context, limit int) ([]RunInfo, error) {
	path := "/api/v1/runs"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}

	var runs []RunInfo
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

var _ Tracker = (*Client)(nil)
