// Package mcpclient implements the Tool-Protocol Client: the
// initialize/initialized handshake, tools/call invocation, and ping
// keepalive over a transport.Transport, plus the numeric JSON-RPC error
// codes and content-block normalization tools/call responses need.
package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/toolgateway/gateway/internal/transport"
)

// DefaultProtocolVersion is the protocol version advertised during the
// initialize handshake when the caller does not specify one.
const DefaultProtocolVersion = "2024-11-05"

// JSON-RPC error codes.
const (
	ErrCodeTransport      = -32000 // connection-level failure
	ErrCodeTimeout        = -32001 // call exceeded its deadline
	ErrCodeProtocol       = -32002 // malformed or unexpected response
	ErrCodeInternal       = -32603 // server-reported internal error
)

// CallResult is a normalized tool invocation result: a JSON payload plus,
// when the first content block's text is itself valid JSON, a structured
// echo of the same payload for callers that want to avoid a second parse.
type CallResult struct {
	Result     json.RawMessage
	Structured json.RawMessage
	IsError    bool
}

// Options configures the handshake the Client performs once per
// connection.
type Options struct {
	ProtocolVersion string
	ClientName      string
	ClientVersion   string
	InitTimeout     time.Duration
}

// Client wraps a transport.Transport with the tool-protocol methods.
type Client struct {
	t transport.Transport
}

// Connect dials the underlying transport and performs the initialize /
// initialized handshake.
func Connect(ctx context.Context, topts transport.Options, opts Options) (*Client, error) {
	t, err := transport.Connect(ctx, topts)
	if err != nil {
		return nil, err
	}
	c := &Client{t: t}
	if err := c.handshake(ctx, opts); err != nil {
		_ = t.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) handshake(ctx context.Context, opts Options) error {
	protocol := opts.ProtocolVersion
	if protocol == "" {
		protocol = DefaultProtocolVersion
	}
	clientName := opts.ClientName
	if clientName == "" {
		clientName = "tool-gateway"
	}
	clientVersion := opts.ClientVersion
	if clientVersion == "" {
		clientVersion = "dev"
	}
	initCtx := ctx
	if opts.InitTimeout > 0 {
		var cancel context.CancelFunc
		initCtx, cancel = context.WithTimeout(ctx, opts.InitTimeout)
		defer cancel()
	}
	params := map[string]any{
		"protocolVersion": protocol,
		"clientInfo": map[string]any{
			"name":    clientName,
			"version": clientVersion,
		},
	}
	if err := c.t.Call(initCtx, "initialize", params, nil); err != nil {
		return classifyError(err)
	}
	// "initialized" is a notification in the MCP spec (no response
	// expected); this gateway's transports are all request/response, so we
	// send it as a fire-and-forget call and ignore transport-level errors
	// from the server choosing not to reply.
	_ = c.t.Call(ctx, "notifications/initialized", map[string]any{}, nil)
	return nil
}

// ListTools invokes tools/list, used by the discovery service to build a
// server's catalog.
func (c *Client) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	var result struct {
		Tools []ToolDescriptor `json:"tools"`
	}
	if err := c.t.Call(ctx, "tools/list", map[string]any{}, &result); err != nil {
		return nil, classifyError(err)
	}
	return result.Tools, nil
}

// ToolDescriptor is one entry from a server's tools/list response.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// CallTool invokes tools/call and normalizes the content-block response
// into a flat result payload.
func (c *Client) CallTool(ctx context.Context, name string, arguments json.RawMessage) (CallResult, error) {
	params := map[string]any{
		"name":      name,
		"arguments": arguments,
	}
	var raw toolsCallResult
	if err := c.t.Call(ctx, "tools/call", params, &raw); err != nil {
		return CallResult{}, classifyError(err)
	}
	return normalizeToolResult(raw)
}

// Ping sends the protocol's keepalive method.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.t.Call(ctx, "ping", map[string]any{}, nil); err != nil {
		return classifyError(err)
	}
	return nil
}

// Close tears down the underlying transport.
func (c *Client) Close() error { return c.t.Close() }

func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &transport.RPCError{Code: ErrCodeTimeout, Message: err.Error()}
	}
	if errors.Is(err, transport.ErrClosed) {
		return &transport.RPCError{Code: ErrCodeTransport, Message: err.Error()}
	}
	var rpcErr *transport.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return &transport.RPCError{Code: ErrCodeProtocol, Message: err.Error()}
}
