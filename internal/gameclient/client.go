package gameclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

var (
	ErrTransport = errors.New("othello api transport error")
	ErrStatus    = errors.New("othello api status error")
	ErrDecode    = errors.New("othello api decode error")
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the TCP dialer, e.g. with an in-memory listener in tests.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in any, out any, retry bool) error {
	uri := c.baseURL + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	req.Header.SetContentType("application/json")

	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	policy := backoff{attempts: 1, base: retryBase, ceiling: retryCeiling}
	if retry && c.retryMax > 1 {
		policy.attempts = c.retryMax
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
		}
		again, err := c.send(req, resp, requestDeadline(ctx, c.defaultTimeout), method, path)
		if err == nil {
			break
		}
		if !again || attempt >= policy.attempts {
			return err
		}
		if policy.pause(ctx, attempt) != nil {
			return err
		}
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("%w: %s %s: %w", ErrDecode, method, path, err)
		}
	}
	return nil
}

// send performs one exchange. The bool reports whether a failure may clear up
// on a later attempt.
func (c *Client) send(req *fasthttp.Request, resp *fasthttp.Response, deadline time.Time, method, path string) (bool, error) {
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return true, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	status := resp.StatusCode()
	if status >= 200 && status < 300 {
		return false, nil
	}
	return retryableStatus(status), fmt.Errorf("%w: %s %s status=%d body=%s", ErrStatus, method, path, status, bodySnippet(resp.Body()))
}
