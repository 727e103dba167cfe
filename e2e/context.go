package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext carries the HTTP client and the last response across the
// steps of one scenario.
type TestContext struct {
	BaseURL string
	Token   string

	client     *http.Client
	statusCode int
	body       []byte
	parsed     map[string]any
}

func NewTestContext(baseURL, token string) *TestContext {
	return &TestContext{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Reset clears the last response before a scenario.
func (tc *TestContext) Reset() {
	tc.statusCode = 0
	tc.body = nil
	tc.parsed = nil
}

func (tc *TestContext) GET(path string, authenticated bool) error {
	return tc.do(http.MethodGet, path, nil, authenticated)
}

func (tc *TestContext) POST(path string, body any, authenticated bool) error {
	return tc.do(http.MethodPost, path, body, authenticated)
}

func (tc *TestContext) PUT(path string, body any, authenticated bool) error {
	return tc.do(http.MethodPut, path, body, authenticated)
}

func (tc *TestContext) do(method, path string, body any, authenticated bool) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authenticated && tc.Token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.Token)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.statusCode = resp.StatusCode
	tc.body, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	tc.parsed = nil
	if len(tc.body) > 0 {
		var parsed map[string]any
		if json.Unmarshal(tc.body, &parsed) == nil {
			tc.parsed = parsed
		}
	}
	return nil
}

func (tc *TestContext) StatusCode() int {
	return tc.statusCode
}

// ResponseField returns a top-level field of the last JSON object response.
func (tc *TestContext) ResponseField(field string) (any, error) {
	if tc.parsed == nil {
		return nil, fmt.Errorf("response is not a JSON object: %s", string(tc.body))
	}
	v, ok := tc.parsed[field]
	if !ok {
		return nil, fmt.Errorf("response has no field %q: %s", field, string(tc.body))
	}
	return v, nil
}
