package milesight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/go-querystring/query"
)

// maxErrorBody limits how much of an error response is kept in a StatusError.
const maxErrorBody = 4 << 10

// newRequest creates a new HTTP request.
func (c *Client) newRequest(
	ctx context.Context,
	method, path string,
	params url.Values,
	body any,
) (*http.Request, error) {
	rel := &url.URL{Path: path}
	u := c.baseURL.ResolveReference(rel)
	u.RawQuery = params.Encode()

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	return req, nil
}

// queryValues encodes a query struct; nil yields no parameters.
func queryValues(params any) (url.Values, error) {
	if params == nil {
		return nil, nil
	}

	v, err := query.Values(params)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	return v, nil
}

// get issues an authenticated GET and decodes the JSON response into v.
func (c *Client) get(ctx context.Context, path string, params any, v any) error {
	values, err := queryValues(params)
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodGet, path, values, nil)
	if err != nil {
		return err
	}

	_, err = c.doJSON(req, v)
	return err
}

// doJSON executes the request and decodes JSON response.
func (c *Client) doJSON(req *http.Request, v any) (*http.Response, error) {
	resp, err := c.do(req)
	if err != nil {
		return resp, err
	}
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return resp, fmt.Errorf("decode response: %w", err)
		}
	}

	return resp, nil
}

// do executes an authenticated request. Transport failures wrap
// [ErrTransport] and non-2xx answers are returned as [*StatusError].
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if header := c.auth.header(); header != "" {
		req.Header.Set("Authorization", header)
	}

	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, newStatusError(resp)
	}

	return resp, nil
}

// send performs the round trip and classifies failures as transport errors.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}

		return nil, fmt.Errorf("%s %s: %w: %w", req.Method, req.URL.Path, ErrTransport, err)
	}

	return resp, nil
}

// StatusError is returned when the API answers with a non-2xx status code.
// It matches [ErrStatus] with errors.Is, and 401/403 also match
// [ErrAuthentication].
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func newStatusError(resp *http.Response) *StatusError {
	e := &StatusError{StatusCode: resp.StatusCode}
	if resp.Request != nil {
		e.Method = resp.Request.Method
		e.Path = resp.Request.URL.Path
	}
	if resp.Body != nil {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		e.Body = string(bytes.TrimSpace(body))
		_ = resp.Body.Close()
	}

	return e
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %s: %d", e.Method, e.Path, http.StatusText(e.StatusCode), e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}

	return msg
}

// Is reports whether target is one of the sentinels the status maps to.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrStatus:
		return true
	case ErrAuthentication:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}

	return false
}

// IsStatus reports whether err is a [*StatusError] with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
