// Package client talks to a running DengueSense API server. The CLI commands
// use it so they share the server's response types.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/papercomputeco/denguesense/api"
	"github.com/papercomputeco/denguesense/pkg/llm"
	"github.com/papercomputeco/denguesense/pkg/report"
)

const defaultTimeout = 30 * time.Second

// Client is an API client bound to one server.
type Client struct {
	target *url.URL
	http   *http.Client
}

// New returns a client for the server at apiTarget. A nil httpClient uses a
// client with a 30s timeout.
func New(apiTarget string, httpClient *http.Client) (*Client, error) {
	target, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid API target URL %q: scheme and host are required", apiTarget)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{target: target, http: httpClient}, nil
}

// Hotspots lists hotspots matching filter, "" or "all" for every hotspot.
func (c *Client) Hotspots(ctx context.Context, filter string) (*api.HotspotsResponse, error) {
	query := url.Values{}
	if filter != "" {
		query.Set("risk", filter)
	}

	var out api.HotspotsResponse
	if err := c.do(ctx, http.MethodGet, "/hotspots", query, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reports lists reports, newest first.
func (c *Client) Reports(ctx context.Context) (*api.ReportsResponse, error) {
	var out api.ReportsResponse
	if err := c.do(ctx, http.MethodGet, "/reports", nil, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitReport creates a report.
func (c *Client) SubmitReport(ctx context.Context, sub report.Submission) (*report.Report, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("marshaling report: %w", err)
	}

	var out report.Report
	if err := c.do(ctx, http.MethodPost, "/reports", nil, bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetReportStatus moves report id to status.
func (c *Client) SetReportStatus(ctx context.Context, id string, status report.Status) (*report.Report, error) {
	body, err := json.Marshal(api.StatusUpdate{Status: string(status)})
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	var out report.Report
	if err := c.do(ctx, http.MethodPatch, "/reports/"+url.PathEscape(id), nil, bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Analytics returns the dashboard.
func (c *Client) Analytics(ctx context.Context) (*api.AnalyticsResponse, error) {
	var out api.AnalyticsResponse
	if err := c.do(ctx, http.MethodGet, "/analytics", nil, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Impact returns the impact figures.
func (c *Client) Impact(ctx context.Context) (*api.ImpactResponse, error) {
	var out api.ImpactResponse
	if err := c.do(ctx, http.MethodGet, "/impact", nil, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Analyze uploads an image for breeding-site analysis.
func (c *Client) Analyze(ctx context.Context, filename string, data []byte) (*api.AnalyzeResponse, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("creating upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("writing upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing upload: %w", err)
	}

	var out api.AnalyzeResponse
	if err := c.do(ctx, http.MethodPost, "/analyze", nil, &body, w.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed (HTTP %d): %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	u := *c.target
	u.Path = path
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to DengueSense API at %s: %w", c.target, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr llm.ErrorResponse
		msg := string(bytes.TrimSpace(raw))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

