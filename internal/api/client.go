// Package api is the client for the Prism REST API: authentication, task
// CRUD and the chat assistant. Every call is a single attempt; failures come
// back as *RequestError and are never retried here.
package api

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

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// TokenSource yields the bearer token for authenticated calls.
type TokenSource interface {
	Token() (string, error)
}

type Config struct {
	BaseURL string
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration
	// RateLimit caps outgoing requests per second. Zero or less means unlimited.
	RateLimit float64
	RateBurst int
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
	limiter *rate.Limiter
	metrics *Metrics
	log     logrus.FieldLogger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

func New(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("api base url is empty")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api base url %q must be http or https", cfg.BaseURL)
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		log:     discardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type call struct {
	op     string
	method string
	path   string
	body   any
	out    any
	auth   bool
}

func (c *Client) do(ctx context.Context, cl call) error {
	start := time.Now()
	requestID := uuid.NewString()
	log := c.log.WithFields(logrus.Fields{
		"operation":  cl.op,
		"request":    cl.method + " " + cl.path,
		"request_id": requestID,
	})

	status, err := c.send(ctx, cl, requestID)
	c.metrics.observe(cl.op, status, time.Since(start), err)
	if err != nil {
		log.WithField("status", status).Error(err.Error())
		return err
	}
	log.WithField("status", status).Debug("request completed")
	return nil
}

func (c *Client) send(ctx context.Context, cl call, requestID string) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, &RequestError{Op: cl.op, Err: err}
	}

	var body io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return 0, &RequestError{Op: cl.op, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL.String()+cl.path, body)
	if err != nil {
		return 0, &RequestError{Op: cl.op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.auth {
		if c.tokens == nil {
			return 0, fmt.Errorf("%s: no token source configured", cl.op)
		}
		token, err := c.tokens.Token()
		if err != nil {
			return 0, fmt.Errorf("%s: %w", cl.op, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return 0, &RequestError{Op: cl.op, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
		return res.StatusCode, &RequestError{
			Op:         cl.op,
			StatusCode: res.StatusCode,
			Message:    errorDetail(res.StatusCode, raw),
		}
	}

	if cl.out == nil || res.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, res.Body)
		return res.StatusCode, nil
	}
	if err := json.NewDecoder(res.Body).Decode(cl.out); err != nil {
		return res.StatusCode, &RequestError{Op: cl.op, StatusCode: res.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return res.StatusCode, nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
