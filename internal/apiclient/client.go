// Package apiclient talks to the TrustChain report API over HTTP.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/trustchain/internal/dto"
)

var (
	ErrConflict = errors.New("report with this transaction ID already exists")
	ErrNotFound = errors.New("report not found")
)

// APIError is a non-2xx response that has no dedicated sentinel.
type APIError struct {
	StatusCode int
	Message    string
	Details    []dto.FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) CreateReport(ctx context.Context, req *dto.CreateReportRequest) (*dto.ReportResponse, error) {
	var out dto.ReportResponse
	if err := c.do(ctx, http.MethodPost, "/api/reports", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetReport(ctx context.Context, id string) (*dto.ReportResponse, error) {
	var out dto.ReportResponse
	if err := c.do(ctx, http.MethodGet, "/api/reports/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Summary(ctx context.Context) (*dto.AnalyticsSummary, error) {
	var out dto.AnalyticsSummary
	if err := c.do(ctx, http.MethodGet, "/api/analytics/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	switch resp.StatusCode {
	case http.StatusConflict:
		return ErrConflict
	case http.StatusNotFound:
		return ErrNotFound
	}

	var apiErr dto.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if json.Unmarshal(raw, &apiErr) != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Message, Details: apiErr.Details}
}
