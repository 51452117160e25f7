package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout is applied to requests when neither the client nor the
// call specifies one.
const DefaultTimeout = 15 * time.Second

// TokenProvider supplies the current bearer token for outgoing requests.
// An empty token means no Authorization header is attached.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Client is a generic JSON-over-HTTP request layer: it joins URLs, attaches
// bearer tokens, serializes bodies, enforces timeouts and normalizes errors.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
	headers map[string]string
	timeout time.Duration
}

type Option func(*Client)

// WithTokenProvider configures lazy bearer-token injection.
func WithTokenProvider(tp TokenProvider) Option {
	return func(c *Client) { c.tokens = tp }
}

// WithTimeout overrides the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient substitutes the underlying transport. The client's own
// Timeout field is ignored; timeouts are enforced via context.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithDefaultHeader adds a header to every request.
func WithDefaultHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		headers: map[string]string{},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestOptions controls a single request. The zero value is a GET with
// no body and the client's default timeout.
type RequestOptions struct {
	Method  string
	Headers map[string]string
	Body    any            // io.Reader/[]byte/string pass through; everything else is JSON-marshalled
	Query   map[string]any // nil values are dropped, the rest stringified
	Timeout time.Duration
	Raw     bool // return the transport response unconsumed
}

// Response is a completed successful request.
type Response struct {
	Status int
	Body   []byte
	Data   any            // parsed JSON, or the raw text when the body is not JSON
	HTTP   *http.Response // set only in Raw mode; caller owns the body
}

// Decode unmarshals the response body into v. An empty body is a no-op.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func encodeQuery(query map[string]any) string {
	values := url.Values{}
	for k, v := range query {
		if v == nil {
			continue
		}
		values.Set(k, fmt.Sprintf("%v", v))
	}
	return values.Encode()
}

// Do performs a request against path (joined with the base URL) and returns
// the parsed response, or an *Error describing the failure.
func (c *Client) Do(ctx context.Context, path string, opts RequestOptions) (*Response, error) {
	timeout := c.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	handedOff := false
	defer func() {
		if !handedOff {
			cancel()
		}
	}()

	target := joinURL(c.baseURL, path)
	if len(opts.Query) > 0 {
		if qs := encodeQuery(opts.Query); qs != "" {
			target += "?" + qs
		}
	}

	headers := map[string]string{"Accept": "application/json"}
	for k, v := range c.headers {
		headers[k] = v
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve token: %w", err)
		}
		if token != "" {
			headers["Authorization"] = "Bearer " + token
		}
	}

	var reqBody io.Reader
	switch b := opts.Body.(type) {
	case nil:
	case io.Reader:
		reqBody = b
	case []byte:
		reqBody = bytes.NewReader(b)
	case string:
		reqBody = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
		if _, ok := headers["Content-Type"]; !ok {
			headers["Content-Type"] = "application/json"
		}
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
		if opts.Body != nil {
			method = http.MethodPost
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, mapTransportError(ctx, err)
	}

	if opts.Raw {
		// the caller owns the stream; keep the request context alive
		// until the body is closed
		res.Body = &cancelOnClose{ReadCloser: res.Body, cancel: cancel}
		handedOff = true
		return &Response{Status: res.StatusCode, HTTP: res}, nil
	}
	defer res.Body.Close()

	text, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, mapTransportError(ctx, err)
	}

	var data any
	if len(text) > 0 {
		if jsonErr := json.Unmarshal(text, &data); jsonErr != nil {
			// not JSON; keep the raw text as the payload
			data = string(text)
		}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &Error{Kind: KindStatus, Status: res.StatusCode, Data: data}
	}

	return &Response{Status: res.StatusCode, Body: text, Data: data}, nil
}

// cancelOnClose releases the per-request context once the caller is done
// with a raw response body.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func mapTransportError(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return &Error{Kind: KindTimeout, Status: 408, Message: "request timeout"}
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Status: 408, Message: "request timeout"}
	}
	return &Error{Kind: KindNetwork, Status: 0, Message: err.Error()}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, path, RequestOptions{Method: http.MethodGet})
}

// Post performs a POST request with an optional body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, path, RequestOptions{Method: http.MethodPost, Body: body})
}

// Put performs a PUT request with an optional body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, path, RequestOptions{Method: http.MethodPut, Body: body})
}

// Patch performs a PATCH request with an optional body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, path, RequestOptions{Method: http.MethodPatch, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, path, RequestOptions{Method: http.MethodDelete})
}
