// Package http provides a fluent, retry-aware HTTP client for outgoing
// calls to third-party APIs.
//
// Usage:
//
//	resp, err := http.Post(base+"/v1/payment_intents").
//	    BasicAuth(secretKey, "").
//	    Form(url.Values{"amount": {"1099"}}).
//	    Header("Idempotency-Key", key).
//	    Retry(3, 200*time.Millisecond).
//	    WithContext(ctx).
//	    Send()
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	gohttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bistroboss/bistro/pkg/logger"
)

var defaultTransport = &gohttp.Transport{
	Proxy:               gohttp.ProxyFromEnvironment,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 20,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

// DefaultClient is shared by every request that does not set its own client.
var DefaultClient = &gohttp.Client{
	Transport: defaultTransport,
}

// Request is a fluent HTTP request builder.
type Request struct {
	method    string
	url       string
	headers   map[string]string
	body      interface{}
	form      url.Values
	user      string
	pass      string
	basic     bool
	timeout   time.Duration
	retries   int
	retryWait time.Duration
	ctx       context.Context
	client    *gohttp.Client
}

// Get starts a GET request.
func Get(url string) *Request { return newRequest(gohttp.MethodGet, url) }

// Post starts a POST request.
func Post(url string) *Request { return newRequest(gohttp.MethodPost, url) }

func newRequest(method, url string) *Request {
	return &Request{
		method:    method,
		url:       url,
		headers:   map[string]string{"Accept": "application/json"},
		timeout:   30 * time.Second,
		retries:   1,
		retryWait: 500 * time.Millisecond,
		ctx:       context.Background(),
		client:    DefaultClient,
	}
}

// Header adds a single header to the request.
func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

// Bearer sets the Authorization: Bearer <token> header.
func (r *Request) Bearer(token string) *Request {
	return r.Header("Authorization", "Bearer "+token)
}

// BasicAuth sets HTTP basic credentials.
func (r *Request) BasicAuth(user, pass string) *Request {
	r.user, r.pass, r.basic = user, pass, true
	return r
}

// Body sets a JSON body. Strings and byte slices are sent raw.
func (r *Request) Body(v interface{}) *Request {
	r.body = v
	return r
}

// Form sets an application/x-www-form-urlencoded body. It takes precedence
// over Body.
func (r *Request) Form(values url.Values) *Request {
	r.form = values
	return r
}

// Timeout sets the per-attempt timeout.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// Retry configures automatic retries on transport errors and 5xx answers.
// n is total attempts (1 = no retry), wait is the initial backoff (doubles
// each attempt).
func (r *Request) Retry(n int, wait time.Duration) *Request {
	if n < 1 {
		n = 1
	}
	r.retries = n
	r.retryWait = wait
	return r
}

// WithContext sets the parent context for every attempt.
func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

// Client overrides the client used to send the request.
func (r *Request) Client(c *gohttp.Client) *Request {
	if c != nil {
		r.client = c
	}
	return r
}

// Send executes the request. A 4xx answer is returned as a Response, not an
// error; call Throw to turn it into one.
func (r *Request) Send() (*Response, error) {
	var lastErr error

	for attempt := 1; attempt <= r.retries; attempt++ {
		resp, err := r.do()
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}
		if err == nil {
			if attempt == r.retries {
				return resp, nil
			}
			err = fmt.Errorf("http: server answered %d", resp.StatusCode)
		}
		lastErr = err

		if attempt < r.retries {
			backoff := time.Duration(float64(r.retryWait) * math.Pow(2, float64(attempt-1)))
			logger.Warn("http: request failed, retrying",
				"url", r.url, "attempt", attempt, "backoff", backoff, "error", err)
			select {
			case <-r.ctx.Done():
				return nil, fmt.Errorf("http: %s %s: %w", r.method, r.url, r.ctx.Err())
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("http: all %d attempts failed for %s %s: %w", r.retries, r.method, r.url, lastErr)
}

func (r *Request) do() (*Response, error) {
	body, ct, err := r.buildBody()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	req, err := gohttp.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}

	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	if r.basic {
		req.SetBasicAuth(r.user, r.pass)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: send: %w", err)
	}

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("http: read body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Raw:        raw,
	}, nil
}

func (r *Request) buildBody() (io.Reader, string, error) {
	if r.form != nil {
		return strings.NewReader(r.form.Encode()), "application/x-www-form-urlencoded", nil
	}
	if r.body == nil {
		return nil, "", nil
	}
	switch v := r.body.(type) {
	case string:
		return bytes.NewBufferString(v), "text/plain", nil
	case []byte:
		return bytes.NewReader(v), "application/octet-stream", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("http: marshal body: %w", err)
		}
		return bytes.NewReader(b), "application/json", nil
	}
}

// Response wraps the HTTP response with convenience methods.
type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON unmarshals the response body into dest.
func (r *Response) JSON(dest interface{}) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}

// Throw returns an error if the response status is not 2xx.
func (r *Response) Throw() error {
	if !r.OK() {
		return fmt.Errorf("http: request failed with status %d: %s", r.StatusCode, string(r.Raw))
	}
	return nil
}
