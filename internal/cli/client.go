package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/fulfillment-console/pkg/middleware"
)

// Client calls the fulfillment-console HTTP API
type Client struct {
	baseURL    string
	operator   string
	httpClient *http.Client
}

// NewClient creates a new console API client
func NewClient(baseURL, operator string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/") + "/api/v1",
		operator: operator,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// APIError is a non-2xx console response
type APIError struct {
	Status    int
	Code      string
	Message   string
	Details   map[string]string
	RequestID string
}

func (e *APIError) Error() string {
	var b strings.Builder
	if e.Code != "" {
		fmt.Fprintf(&b, "%s: ", e.Code)
	}
	b.WriteString(e.Message)

	fields := make([]string, 0, len(e.Details))
	for field := range e.Details {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(&b, "\n  %s: %s", field, e.Details[field])
	}
	return b.String()
}

func (c *Client) get(ctx context.Context, path string, query url.Values, result interface{}) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

func (c *Client) delete(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, result)
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.HeaderRequestID, uuid.New().String())
	if c.operator != "" {
		req.Header.Set(middleware.HeaderOperator, c.operator)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("console unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, raw)
	}

	if result == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	var body middleware.APIErrorResponse
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		return &APIError{Status: status, Message: http.StatusText(status)}
	}
	return &APIError{
		Status:    status,
		Code:      body.Code,
		Message:   body.Message,
		Details:   body.Details,
		RequestID: body.RequestID,
	}
}
