// Package transport sends HTTP requests to the assessed API on behalf of the
// checks. It owns the base URL, the operator's default headers and cookies,
// proxy and TLS policy, and normalizes every answer into a Response value so
// checks never depend on net/http types beyond http.Header.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	consts "github.com/khanhnv2901/hapi-cli/internal/shared/constants"
	apperrors "github.com/khanhnv2901/hapi-cli/internal/shared/errors"
)

// Config describes how requests reach the target API.
type Config struct {
	BaseURL            string
	Headers            map[string]string
	Cookies            map[string]string
	Proxy              string
	InsecureSkipVerify bool
	Timeout            time.Duration
	// RatePerSecond paces outgoing requests; zero disables pacing.
	RatePerSecond float64
	Logger        *zap.SugaredLogger
}

// BasicAuth carries credentials for the Authorization header.
type BasicAuth struct {
	Username string
	Password string
}

// Request is a single call against a path of the target API.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Auth   *BasicAuth
}

// Response is the only response shape checks consume.
type Response struct {
	StatusCode int
	Header     http.Header
	Elapsed    time.Duration
	Body       []byte
}

// Error reports a request that could not be completed (network, TLS, timeout).
type Error struct {
	Method string
	URL    string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrTransport) match every transport Error.
func (e *Error) Is(target error) bool {
	return target == apperrors.ErrTransport
}

// Client is safe to share between checks; it holds no per-request state.
type Client struct {
	baseURL string
	headers http.Header
	cookies []*http.Cookie
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.SugaredLogger
}

// New validates cfg and builds a client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || base.Host == "" || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, fmt.Errorf("invalid target URL %q: must be an absolute http(s) URL", cfg.BaseURL)
	}

	proxy := http.ProxyFromEnvironment
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil || proxyURL.Host == "" {
			return nil, fmt.Errorf("invalid proxy URL %q", cfg.Proxy)
		}
		proxy = http.ProxyURL(proxyURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = consts.DefaultRequestTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	c := &Client{
		baseURL: strings.TrimRight(base.String(), "/"),
		headers: make(http.Header, len(cfg.Headers)),
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: proxy,
				// #nosec G402 -- operator opts in with --ignore-ssl.
				TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
			},
		},
		logger: logger,
	}

	for name, value := range cfg.Headers {
		c.headers.Set(name, value)
	}

	names := make([]string, 0, len(cfg.Cookies))
	for name := range cfg.Cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c.cookies = append(c.cookies, &http.Cookie{Name: name, Value: cfg.Cookies[name]})
	}

	if cfg.RatePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}

	return c, nil
}

// BaseURL returns the normalized target URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send issues req and waits for the response headers. Cancelling ctx stops a
// paced request from starting but never aborts one already on the wire; the
// client timeout still bounds it.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	target := c.resolve(req.Path)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(context.WithoutCancel(ctx), method, target, nil)
	if err != nil {
		return nil, &Error{Method: method, URL: target, Err: err}
	}
	for name, values := range c.headers {
		httpReq.Header[name] = append([]string(nil), values...)
	}
	for name, values := range req.Header {
		httpReq.Header[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}
	for _, cookie := range c.cookies {
		httpReq.AddCookie(cookie)
	}
	if req.Auth != nil {
		httpReq.SetBasicAuth(req.Auth.Username, req.Auth.Password)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Debugw("request failed", "method", method, "url", target, "error", err)
		return nil, &Error{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, consts.ResponseBodyLimitBytes))
	if err != nil {
		// A truncated body is still a usable answer.
		c.logger.Debugw("response body read failed", "method", method, "url", target, "error", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Debugw("request complete", "method", method, "url", target, "status", resp.StatusCode, "elapsed_ms", elapsed.Milliseconds())

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Elapsed:    elapsed,
		Body:       body,
	}, nil
}

func (c *Client) resolve(path string) string {
	if path == "" {
		return c.baseURL
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}
