// Package services provides the single outbound call boundary to the
// collaborator services. The client resolves logical service names to
// configured base addresses, attaches the run's bearer token, and maps
// non-success responses to a typed CallError. It never retries.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Om1001-OPS/mkol/pkg/formatting"
)

// CallError carries the failing service, path, status code, and upstream
// message for a non-success response.
type CallError struct {
	Service string
	Path    string
	Status  int
	Message string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Service, e.Path, e.Status, e.Message)
}

// Client issues request/response calls to collaborator services. It is
// read-only after construction and safe for concurrent runs.
type Client struct {
	endpoints   map[string]string
	http        *http.Client
	logger      *slog.Logger
	maxResponse int64
}

// New creates a Client from the finalized services configuration.
func New(cfg *Config, logger *slog.Logger) (*Client, error) {
	maxResponse, err := formatting.ParseBytes(cfg.MaxResponseSize)
	if err != nil {
		return nil, fmt.Errorf("max response size: %w", err)
	}

	return &Client{
		endpoints: cfg.Endpoints(),
		http: &http.Client{
			Timeout: cfg.TimeoutDuration(),
		},
		logger:      logger.With("system", "services"),
		maxResponse: maxResponse,
	}, nil
}

// Post sends payload as JSON to the named service and decodes the JSON
// response into out. An empty token omits the authorization header.
func (c *Client) Post(ctx context.Context, service, path, token string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", service, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, service, path, token, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, service, path, out)
}

// Get issues a GET to the named service and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, service, path, token string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, service, path, token, nil)
	if err != nil {
		return err
	}
	return c.do(req, service, path, out)
}

// Upload sends file as a multipart form part named "file" together with the
// given form fields, then decodes the JSON response into out.
func (c *Client) Upload(
	ctx context.Context,
	service, path, token string,
	filename string,
	file io.Reader,
	fields map[string]string,
	out any,
) error {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy upload body: %w", err)
	}
	for key, value := range fields {
		if err := form.WriteField(key, value); err != nil {
			return fmt.Errorf("write form field %s: %w", key, err)
		}
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("close form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, service, path, token, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	return c.do(req, service, path, out)
}

func (c *Client) newRequest(
	ctx context.Context,
	method, service, path, token string,
	body io.Reader,
) (*http.Request, error) {
	base, ok := c.endpoints[service]
	if !ok {
		return nil, fmt.Errorf("unknown service %q", service)
	}

	url := strings.TrimSuffix(base, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", service, err)
	}

	if token != "" {
		req.Header.Set("Authorization", token)
	}

	return req, nil
}

func (c *Client) do(req *http.Request, service, path string, out any) error {
	start := time.Now()

	c.logger.Debug(
		"service request",
		"service", service,
		"method", req.Method,
		"path", path,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s %s: %w", service, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponse))
	if err != nil {
		return fmt.Errorf("read %s response: %w", service, err)
	}

	c.logger.Info(
		"service response",
		"service", service,
		"method", req.Method,
		"path", path,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &CallError{
			Service: service,
			Path:    path,
			Status:  resp.StatusCode,
			Message: upstreamMessage(body),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", service, err)
	}
	return nil
}

// upstreamMessage extracts a detail or error field from a JSON error body,
// falling back to the raw text.
func upstreamMessage(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(body))
}
