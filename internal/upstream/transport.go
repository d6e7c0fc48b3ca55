// Package upstream talks to the third-party HTTP APIs the tracker proxies:
// the Gemini generative-text endpoint and the OpenWeatherMap current
// weather endpoint.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"life-tracker/internal/apperr"
)

// maxBodyBytes caps an upstream response; larger ones are rejected whole.
const maxBodyBytes = 4 << 20

// Authenticator applies a credential to an outbound request.
type Authenticator interface {
	Apply(req *http.Request, apiKey string)
}

// HeaderAuth sends the key in a request header.
type HeaderAuth struct {
	Header string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request, apiKey string) {
	req.Header.Set(a.Header, apiKey)
}

// QueryAuth sends the key as a query parameter.
type QueryAuth struct {
	Param string
}

// Apply implements the Authenticator interface for QueryAuth.
func (a *QueryAuth) Apply(req *http.Request, apiKey string) {
	if req.URL == nil {
		return
	}
	query := req.URL.Query()
	query.Set(a.Param, apiKey)
	req.URL.RawQuery = query.Encode()
}

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the upstream answered with a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client performs authenticated requests with a fixed timeout.
type Client struct {
	name   string
	http   *http.Client
	auth   Authenticator
	apiKey string
}

// NewClient creates a client for the named upstream. A nil httpClient gets
// a zero-value http.Client with no timeout.
func NewClient(name string, httpClient *http.Client, auth Authenticator, apiKey string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{name: name, http: httpClient, auth: auth, apiKey: apiKey}
}

// Do sends req and reads the whole body. Transport failures and bodies over
// maxBodyBytes are returned as apperr.ErrTimeout or apperr.ErrUpstream; HTTP
// error statuses are not errors here.
func (c *Client) Do(ctx context.Context, req *http.Request) (*Response, error) {
	req = req.WithContext(ctx)
	if c.auth != nil && c.apiKey != "" {
		c.auth.Apply(req, c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost || req.Method == http.MethodPut {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classify(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, c.classify(fmt.Errorf("read response body: %w", err))
	}
	if len(body) > maxBodyBytes {
		return nil, apperr.Wrap(apperr.ErrUpstream, c.name+" request failed",
			fmt.Errorf("response body exceeds %d bytes", maxBodyBytes))
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// classify drops the request URL from transport errors, since it may carry
// a query-string credential.
func (c *Client) classify(err error) error {
	var netErr net.Error
	timeout := errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}

	if timeout {
		return apperr.Wrap(apperr.ErrTimeout, c.name+" request timed out", err)
	}
	return apperr.Wrap(apperr.ErrUpstream, c.name+" request failed", err)
}
