// Package transport implements the transport layer: stdio,
// HTTP, and WebSocket connections to tool-protocol servers, all behind one
// uniform connect/send/disconnect contract so the Tool-Protocol Client
// (internal/mcpclient) never branches on transport kind.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrClosed is returned by the stdio and WebSocket transports' Call when
// the transport is closed while the call is waiting for its response.
var ErrClosed = errors.New("transport: connection closed")

// RPCError is the JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// rpcRequest and rpcResponse are the wire envelopes shared by every
// transport implementation in this package.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      uint64 `json:"id"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// Transport is the uniform contract every connection kind satisfies.
// Call implements a single request/response round trip; Close tears the
// connection down, terminating any subprocess with a terminate -> wait 5s
// -> kill sequence.
type Transport interface {
	Call(ctx context.Context, method string, params any, result any) error
	Close() error
}

// Options configures a connection attempt, covering every transport kind;
// the fields relevant to the chosen Kind are used, the rest ignored.
type Options struct {
	Kind TransportKind

	// stdio
	Command string
	Args    []string
	Env     []string
	Dir     string

	// http / websocket
	URL     string
	Headers map[string]string

	ConnectTimeout time.Duration
	CallTimeout    time.Duration
}

// TransportKind mirrors registry.TransportKind without importing the
// registry package, keeping this layer free of storage concerns.
type TransportKind string

const (
	KindStdio     TransportKind = "stdio"
	KindHTTP      TransportKind = "http"
	KindWebSocket TransportKind = "websocket"
)

// Connect dials the connection kind named by opts.Kind.
func Connect(ctx context.Context, opts Options) (Transport, error) {
	switch opts.Kind {
	case KindStdio:
		return connectStdio(ctx, opts)
	case KindHTTP:
		return connectHTTP(ctx, opts)
	case KindWebSocket:
		return connectWebSocket(ctx, opts)
	default:
		return nil, errors.New("transport: unknown kind " + string(opts.Kind))
	}
}
