// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodyBytes bounds how much of a response body is kept for logging.
const maxBodyBytes = 64 << 10

type Client struct {
	httpClient *http.Client
}

// Response is the captured outcome of a request that reached the server.
type Response struct {
	StatusCode int
	Body       string
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewClientWith wraps an existing *http.Client, e.g. httptest.Server.Client().
func NewClientWith(c *http.Client) *Client {
	return &Client{httpClient: c}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// PostJSON serializes payload and POSTs it to url. A non-nil error means the
// request never produced a response; HTTP error statuses are returned in Response.
func (c *Client) PostJSON(ctx context.Context, url string, payload interface{}) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &Response{StatusCode: resp.StatusCode}, nil
	}

	return &Response{StatusCode: resp.StatusCode, Body: string(respBody)}, nil
}
