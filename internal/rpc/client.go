package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Endpoint describes the node's JSON-RPC endpoint. It is built once at
// startup and shared read-only by every request.
type Endpoint struct {
	URL  string
	User string
	Pass string
}

// Caller is the calling side of the JSON-RPC client, split out so services
// can be tested against a stub node.
type Caller interface {
	Call(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

type Client struct {
	endpoint Endpoint
	hc       *http.Client
}

var _ Caller = (*Client)(nil)

func New(endpoint Endpoint) *Client {
	return &Client{
		endpoint: endpoint,
		hc:       &http.Client{Timeout: 15 * time.Second},
	}
}

type envelope struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type outcome struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

// Call issues a single JSON-RPC request to the node. No retries; callers
// that want retries loop themselves. The returned payload is the node's
// result member verbatim.
//
// Each call carries a fresh id and the reply must echo it; a reply for a
// different id is rejected as a ParseError rather than misattributed.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	id := uuid.NewString()

	body, err := json.Marshal(envelope{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	slog.Info("making rpc call", "method", method, "id", id)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return nil, &ConnError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.endpoint.User, c.endpoint.Pass)

	resp, err := c.hc.Do(req)
	if err != nil {
		slog.Error("rpc connection failed", "method", method, "error", err)
		return nil, &ConnError{Err: err}
	}
	defer resp.Body.Close()

	slog.Debug("rpc response status", "method", method, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := "unable to read error response"
		if b, readErr := io.ReadAll(resp.Body); readErr == nil {
			detail = strings.TrimSpace(string(b))
		}
		slog.Error("rpc non-ok status", "method", method, "status", resp.StatusCode, "body", detail)
		return nil, &StatusError{Code: resp.StatusCode, Body: detail}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("rpc response read failed", "method", method, "error", err)
		return nil, &ConnError{Err: err}
	}

	var out outcome
	if err := json.Unmarshal(raw, &out); err != nil {
		slog.Error("rpc response parse failed", "method", method, "error", err, "body", string(raw))
		return nil, &ParseError{Err: err, Body: string(raw)}
	}
	if out.ID != id {
		slog.Error("rpc response id mismatch", "method", method, "want", id, "got", out.ID)
		return nil, &ParseError{Err: errors.New("response id mismatch"), Body: string(raw)}
	}

	// result wins even when the node also set error; only its absence makes
	// the call a failure.
	if present(out.Result) {
		slog.Info("rpc call successful", "method", method)
		return out.Result, nil
	}

	nodeErr := decodeNodeError(out.Error)
	slog.Error("rpc call failed", "method", method, "code", nodeErr.Code, "error", nodeErr.Message)
	return nil, nodeErr
}

func present(v json.RawMessage) bool {
	return len(v) > 0 && string(v) != "null"
}

func decodeNodeError(raw json.RawMessage) *NodeError {
	if !present(raw) {
		return &NodeError{Message: "unknown error"}
	}
	var e struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &e); err == nil && e.Message != "" {
		return &NodeError{Code: e.Code, Message: e.Message}
	}
	return &NodeError{Message: string(raw)}
}
