package rpc

import "fmt"

// ConnError is a transport-level failure reaching the node: connection
// refused, DNS, TLS, or a failed body read.
type ConnError struct {
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("rpc connection error: %v", e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

// StatusError is a non-2xx HTTP reply from the node. Body is read on a
// best-effort basis.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("rpc http status %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("rpc http status %d", e.Code)
}

// ParseError means the response body was not a valid JSON-RPC reply, or the
// reply's id did not match the request's. Body carries the raw text for
// diagnosis.
type ParseError struct {
	Err  error
	Body string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("rpc parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NodeError is a well-formed JSON-RPC reply whose call itself failed, as
// reported by the node's error member.
type NodeError struct {
	Code    int
	Message string
}

func (e *NodeError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("rpc error: %s", e.Message)
}
