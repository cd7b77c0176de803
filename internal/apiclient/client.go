package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tphummel/machine_registry/internal/metrics"
	"github.com/tphummel/machine_registry/internal/models"
)

// DefaultCSRFHeader is the request header the backend reads the CSRF token from.
const DefaultCSRFHeader = "X-CSRFToken"

// Route templates, used as bounded metric labels.
const (
	routeMachines  = "/api/machines/"
	routeMachine   = "/api/machines/{id}/"
	routeExportDoc = "/api/machines/{id}/export/"
	routeExportPDF = "/api/machines/{id}/export_pdf/"
	routeLogin     = "/api/auth/login/"
	routeLogout    = "/api/auth/logout/"
	routeUsers     = "/api/users/"
)

// Client is an HTTP client for the maintenance backend REST API. Every call
// carries the session cookies held in the client's cookie jar.
type Client struct {
	baseURL    *url.URL
	csrfHeader string
	httpClient *http.Client
	logger     *slog.Logger
}

// Options configures a Client.
type Options struct {
	// HTTPClient is used as is when set; its Jar should hold the session.
	HTTPClient *http.Client
	// CSRFHeader defaults to DefaultCSRFHeader.
	CSRFHeader string
	Logger     *slog.Logger
}

// APIError is returned for any non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: backend returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// New creates a Client targeting endpoint. Without an explicit HTTPClient a
// cookie jar is created and the transport is instrumented with metrics.
func New(endpoint string, opts Options) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}
	u, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("endpoint %q must be an absolute URL", endpoint)
	}

	hc := opts.HTTPClient
	if hc == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		hc = &http.Client{Jar: jar, Transport: metrics.Transport(http.DefaultTransport)}
	}
	header := opts.CSRFHeader
	if header == "" {
		header = DefaultCSRFHeader
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseURL: u, csrfHeader: header, httpClient: hc, logger: logger}, nil
}

// BaseURL returns the backend endpoint.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Jar returns the cookie jar holding the session, or nil.
func (c *Client) Jar() http.CookieJar {
	return c.httpClient.Jar
}

type call struct {
	method string
	route  string
	path   string
	body   any
	csrf   string
	accept string
}

func (c *Client) do(ctx context.Context, cl call) (*http.Response, error) {
	var reqBody io.Reader
	if cl.body != nil {
		encoded, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(metrics.WithRoute(ctx, cl.route), cl.method, c.baseURL.String()+cl.path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	accept := cl.accept
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.csrf != "" {
		req.Header.Set(c.csrfHeader, cl.csrf)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "backend request failed",
			slog.String("method", cl.method),
			slog.String("route", cl.route),
			slog.String("request_id", requestID),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}
	c.logger.LogAttrs(ctx, slog.LevelInfo, "backend request",
		slog.String("method", cl.method),
		slog.String("route", cl.route),
		slog.Int("status", resp.StatusCode),
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

// read performs the call and returns the body of a 2xx response.
func (c *Client) read(ctx context.Context, cl call) ([]byte, http.Header, error) {
	resp, err := c.do(ctx, cl)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: read body: %w", cl.method, cl.path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, &APIError{Method: cl.method, Path: cl.path, StatusCode: resp.StatusCode, Body: string(payload)}
	}
	return payload, resp.Header, nil
}

func (c *Client) doJSON(ctx context.Context, cl call, out any) error {
	payload, _, err := c.read(ctx, cl)
	if err != nil {
		return err
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", cl.method, cl.path, err)
	}
	return nil
}

func machinePath(id int64) string {
	return routeMachines + strconv.FormatInt(id, 10) + "/"
}

// ListMachines fetches the machine collection. The body is returned undecoded
// because the backend may answer with a bare array or a paginated envelope.
func (c *Client) ListMachines(ctx context.Context) (json.RawMessage, error) {
	payload, _, err := c.read(ctx, call{method: http.MethodGet, route: routeMachines, path: routeMachines})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(payload), nil
}

// CreateMachine POSTs a new machine and returns the server-assigned record.
func (c *Client) CreateMachine(ctx context.Context, m models.Machine, csrf string) (*models.Machine, error) {
	m.ID = 0
	var out models.Machine
	err := c.doJSON(ctx, call{method: http.MethodPost, route: routeMachines, path: routeMachines, body: m, csrf: csrf}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMachine PUTs a full replacement for the machine with the given id.
func (c *Client) UpdateMachine(ctx context.Context, id int64, m models.Machine, csrf string) (*models.Machine, error) {
	m.ID = id
	var out models.Machine
	err := c.doJSON(ctx, call{method: http.MethodPut, route: routeMachine, path: machinePath(id), body: m, csrf: csrf}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMachine removes the machine with the given id.
func (c *Client) DeleteMachine(ctx context.Context, id int64, csrf string) error {
	return c.doJSON(ctx, call{method: http.MethodDelete, route: routeMachine, path: machinePath(id), csrf: csrf}, nil)
}
