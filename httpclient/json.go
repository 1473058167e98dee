package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
)

// GetJSON performs a GET and decodes the JSON reply into T.
func GetJSON[T any](ctx context.Context, c *Client, path string, query map[string]string) (T, error) {
	return DoJSON[T](ctx, c, Request{Method: http.MethodGet, Path: path, Query: query})
}

// PostJSON posts body as JSON and decodes the JSON reply into T.
func PostJSON[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return DoJSON[T](ctx, c, Request{Method: http.MethodPost, Path: path, Body: body})
}

// DoJSON executes req and decodes a successful reply into T. An empty body
// decodes to the zero value.
func DoJSON[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var out T
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}
	if _, ok := req.Headers["Accept"]; !ok {
		req.Headers["Accept"] = "application/json"
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return out, err
	}
	if len(resp.Body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, newDecodeError(err, resp.Body)
	}
	return out, nil
}
