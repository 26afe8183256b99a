package tool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPTool makes GET/POST requests, for agents that need to reach REST
// APIs, webhooks, or arbitrary web pages. Registered under name
// "http_request".
//
// Input: method (default GET), url (required), headers, body.
// Output: status_code, headers, body.
type HTTPTool struct {
	client *http.Client
}

// NewHTTPTool creates an HTTP tool using http.DefaultClient's transport with
// no client-side timeout; bound request duration via context instead.
func NewHTTPTool() *HTTPTool {
	return &HTTPTool{client: &http.Client{}}
}

// Name implements Tool.
func (h *HTTPTool) Name() string { return "http_request" }

// Call implements Tool.
func (h *HTTPTool) Call(ctx context.Context, input map[string]any) (map[string]any, error) {
	urlStr, ok := input["url"].(string)
	if !ok || urlStr == "" {
		return nil, fmt.Errorf("url parameter required (string)")
	}

	method := "GET"
	if m, ok := input["method"].(string); ok && m != "" {
		method = strings.ToUpper(m)
	}
	if method != "GET" && method != "POST" {
		return nil, fmt.Errorf("unsupported HTTP method: %s (supported: GET, POST)", method)
	}

	var body io.Reader
	if bodyStr, ok := input["body"].(string); ok && bodyStr != "" {
		body = bytes.NewBufferString(bodyStr)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if headers, ok := input["headers"].(map[string]any); ok {
		for key, value := range headers {
			if s, ok := value.(string); ok {
				req.Header.Set(key, s)
			}
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	respHeaders := make(map[string]any, len(resp.Header))
	for key, values := range resp.Header {
		if len(values) == 1 {
			respHeaders[key] = values[0]
		} else {
			respHeaders[key] = values
		}
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     respHeaders,
		"body":        string(respBody),
	}, nil
}
