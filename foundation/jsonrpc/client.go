// Package jsonrpc provides a minimal JSON-RPC 2.0 client over HTTP(S). It
// is the transport the remote block source uses to talk to an upstream
// archive node, generalized from the teacher's own peer-to-peer "send"
// helper into the standard Ethereum JSON-RPC envelope.
package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
)

// request is the standard JSON-RPC 2.0 request envelope.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// responseError is the standard JSON-RPC 2.0 error object.
type responseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (re responseError) Error() string {
	return fmt.Sprintf("jsonrpc: code %d: %s", re.Code, re.Message)
}

// response is the standard JSON-RPC 2.0 response envelope. Result is left
// raw so callers can decode it into the exact shape they expect.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *responseError  `json:"error"`
}

// Client is a thin, typed JSON-RPC 2.0 client that reuses a single HTTP
// transport across every call, per the spec's "shared resources" rule for
// the remote block source.
type Client struct {
	url        string
	httpClient *http.Client
}

// New constructs a Client that issues calls against the given endpoint
// URL. A nil httpClient falls back to http.DefaultClient.
func New(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		url:        url,
		httpClient: httpClient,
	}
}

// Call issues a single JSON-RPC method call and decodes the result into
// out. A nil out discards the result. Call never retries; the caller
// layer decides on retry/backoff policy.
func (c *Client) Call(ctx context.Context, method string, params []any, out any) error {
	req := request{
		JSONRPC: "2.0",
		ID:      uuid.New().String(),
		Method:  method,
		Params:  params,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var rpcResp response
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}

	if rpcResp.Error != nil {
		return rpcResp.Error
	}

	if out == nil || len(rpcResp.Result) == 0 {
		return nil
	}

	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}

	return nil
}
