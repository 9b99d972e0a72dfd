// Package tracker is the HTTP client for the NautManager tracking API.
//
// Only two calls are needed: a lookup of projects by their stored local path
// and project creation. Every call is bounded by a per-request timeout and
// an optional client-side rate limit, carries an X-Request-ID, and is traced.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/nautwatch/internal/metrics"
)

const (
	instrumentationName = "github.com/fyrsmithlabs/nautwatch/internal/tracker"

	defaultTimeout  = 10 * time.Second
	maxResponseSize = 4 * 1024 * 1024

	// HeaderRequestID carries a per-call correlation ID.
	HeaderRequestID = "X-Request-ID"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. http://server:5001/api.
	BaseURL string

	// Timeout bounds each request. Defaults to 10s.
	Timeout time.Duration

	// RateLimit is the maximum requests per second; 0 disables limiting.
	RateLimit float64
	Burst     int

	// HTTPClient overrides the transport (tests).
	HTTPClient *http.Client

	// Metrics records request counts and latency when non-nil.
	Metrics *metrics.Metrics

	UserAgent string
}

// Client talks to the tracking API.
type Client struct {
	base      *url.URL
	http      *http.Client
	timeout   time.Duration
	limiter   *rate.Limiter
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	userAgent string
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL must use http or https: %s", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "nautwatch"
	}

	return &Client{
		base:      base,
		http:      httpClient,
		timeout:   timeout,
		limiter:   limiter,
		metrics:   opts.Metrics,
		tracer:    otel.Tracer(instrumentationName),
		userAgent: userAgent,
	}, nil
}

// FindByPath returns projects whose stored local path equals hostPath.
// An empty slice means none exist. Records for other paths are dropped, so
// a server that ignores the local_path filter and lists every project does
// not make new directories look registered.
func (c *Client) FindByPath(ctx context.Context, hostPath string) ([]Project, error) {
	q := url.Values{}
	q.Set("local_path", hostPath)

	status, body, err := c.do(ctx, "find", http.MethodGet, "/projects", q, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &StatusError{Operation: "find projects", StatusCode: status, Body: snippet(body)}
	}

	var projects []Project
	if err := json.Unmarshal(body, &projects); err != nil {
		return nil, fmt.Errorf("decoding find response: %w", err)
	}
	matches := make([]Project, 0, len(projects))
	for _, p := range projects {
		if p.LocalPath == hostPath {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// Create submits a new project. A 409 response is returned as a
// *StatusError matching ErrConflict.
func (c *Client) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding create request: %w", err)
	}

	status, body, err := c.do(ctx, "create", http.MethodPost, "/projects", nil, payload)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &StatusError{Operation: "create project", StatusCode: status, Body: snippet(body)}
	}

	var project Project
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &project); err != nil {
			return nil, fmt.Errorf("decoding create response: %w", err)
		}
	}
	return &project, nil
}

// do performs one request and returns status and body. Transport failures,
// cancellation and timeouts are returned as errors; HTTP statuses are not.
func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, payload []byte) (int, []byte, error) {
	ctx, span := c.tracer.Start(ctx, "tracker."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		span.SetStatus(codes.Error, "rate limiter")
		return 0, nil, fmt.Errorf("%s: waiting for rate limiter: %w", operation, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := *c.base
	u.Path = c.base.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: building request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set(HeaderRequestID, requestID)
	span.SetAttributes(attribute.String("http.request_id", requestID))
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveAPI(operation, 0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return 0, nil, fmt.Errorf("%s %s: %w", method, u.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	c.metrics.ObserveAPI(operation, resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reading body")
		return 0, nil, fmt.Errorf("%s: reading response: %w", operation, err)
	}
	if resp.StatusCode >= 500 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	return resp.StatusCode, body, nil
}

func snippet(body []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
