package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"careercoach/internal/config"
	"careercoach/internal/errors"
	"careercoach/internal/observability"

	"github.com/go-resty/resty/v2"
)

// Client is the typed gateway to the resume backend. Every method issues
// exactly one HTTP call and never retries.
type Client struct {
	http    *resty.Client
	logger  *errors.Logger
	om      *observability.ObservabilityManager
	baseURL string

	interviewBreaker    *CircuitBreaker[interviewResult]
	learningPathBreaker *CircuitBreaker[learningPathResult]
}

// Option customises a Client
type Option func(*clientOptions)

type clientOptions struct {
	om        *observability.ObservabilityManager
	transport http.RoundTripper
}

// WithObservability traces backend calls and records backend metrics
func WithObservability(om *observability.ObservabilityManager) Option {
	return func(o *clientOptions) { o.om = om }
}

// WithTransport replaces the underlying round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.transport = rt }
}

// NewClient creates a backend client from configuration
func NewClient(cfg config.BackendConfig, logger *errors.Logger, opts ...Option) *Client {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = errors.Discard()
	}

	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetTransport(o.om.HTTPTransport(o.transport)).
		SetLogger(restyLogger{logger})
	if cfg.UserAgent != "" {
		rc.SetHeader("User-Agent", cfg.UserAgent)
	}

	c := &Client{
		http:    rc,
		logger:  logger,
		om:      o.om,
		baseURL: cfg.BaseURL,
	}
	c.registerHooks()

	c.interviewBreaker = NewCircuitBreaker[interviewResult]("generation-interview", cfg.CircuitBreaker, logger)
	c.learningPathBreaker = NewCircuitBreaker[learningPathResult]("generation-learning-path", cfg.CircuitBreaker, logger)

	return c
}

// BaseURL returns the backend base URL the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// registerHooks wires request/response logging into resty
func (c *Client) registerHooks() {
	c.http.SetPreRequestHook(func(_ *resty.Client, r *http.Request) error {
		c.logger.Info("API request", "method", r.Method, "path", r.URL.Path)
		return nil
	})

	c.http.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		path := ""
		if resp.RawResponse != nil && resp.RawResponse.Request != nil {
			path = resp.RawResponse.Request.URL.Path
		}
		if resp.IsError() {
			c.logger.Warn("API error",
				"status", resp.StatusCode(),
				"path", path,
				"body", truncate(resp.String(), 512))
			return nil
		}
		c.logger.Info("API response", "status", resp.StatusCode(), "path", path)
		return nil
	})

	c.http.OnError(func(r *resty.Request, err error) {
		c.logger.Warn("API error", "method", r.Method, "url", r.URL, "error", err.Error())
	})
}

// call describes one backend request
type call struct {
	method string
	route  string // Path template, used as the metric label
	params map[string]string
	query  map[string]string
	body   any
}

// execute runs a call, decoding a 2xx body into result when result is non-nil
func (c *Client) execute(ctx context.Context, cl call, result any) error {
	req := c.http.R().SetContext(ctx)
	if cl.params != nil {
		req.SetPathParams(cl.params)
	}
	if cl.query != nil {
		req.SetQueryParams(cl.query)
	}
	if cl.body != nil {
		req.SetBody(cl.body)
	}
	if result != nil {
		req.SetResult(result).ForceContentType("application/json")
	}

	start := time.Now()
	resp, err := req.Execute(cl.method, cl.route)

	status := 0
	if resp != nil && resp.RawResponse != nil {
		status = resp.StatusCode()
	}
	c.om.RecordBackendCall(ctx, cl.method, cl.route, status, time.Since(start), err)

	if err != nil {
		if status != 0 && resp.IsSuccess() {
			return errors.NewBackendError(errors.ErrCodeBackendError,
				"backend returned a body that could not be decoded", err).
				WithContext("route", cl.route)
		}
		return errors.NewNetworkError(errors.ErrCodeBackendUnreachable,
			fmt.Sprintf("%s %s failed", cl.method, cl.route), err).
			WithContext("route", cl.route)
	}

	if resp.IsError() {
		return responseError(cl, resp)
	}

	return nil
}

// IsNotFound reports whether err means the requested resume does not exist
func IsNotFound(err error) bool {
	return errors.IsType(err, errors.ErrorTypeNotFound)
}

// IsCanceled reports whether err came from a cancelled or expired context
func IsCanceled(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

// restyLogger routes resty's internal messages into the structured logger
type restyLogger struct {
	logger *errors.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Warn("resty: " + fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn("resty: " + fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug("resty: " + fmt.Sprintf(format, v...))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
