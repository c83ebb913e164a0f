package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectUnknownKind(t *testing.T) {
	_, err := Connect(context.Background(), Options{Kind: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestConnectHTTPRequiresURL(t *testing.T) {
	_, err := Connect(context.Background(), Options{Kind: KindHTTP})
	assert.Error(t, err)
}

func TestConnectStdioRequiresCommand(t *testing.T) {
	_, err := Connect(context.Background(), Options{Kind: KindStdio})
	assert.Error(t, err)
}

func TestConnectWebSocketRequiresURL(t *testing.T) {
	_, err := Connect(context.Background(), Options{Kind: KindWebSocket})
	assert.Error(t, err)
}

func TestHTTPTransportCallRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tools/call", req.Method)
		resp := rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(`{"ok":true}`)}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	tr, err := Connect(context.Background(), Options{Kind: KindHTTP, URL: srv.URL})
	require.NoError(t, err)
	defer tr.Close()

	var out map[string]any
	err = tr.Call(context.Background(), "tools/call", map[string]any{"name": "x"}, &out)
	require.NoError(t, err)
	assert.Equal(t, true, out["ok"])
}

func TestHTTPTransportCallPropagatesRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &RPCError{Code: -32601, Message: "method not found"}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	tr, err := Connect(context.Background(), Options{Kind: KindHTTP, URL: srv.URL})
	require.NoError(t, err)
	defer tr.Close()

	err = tr.Call(context.Background(), "unknown", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "method not found", err.Error())
}

func TestHTTPTransportCallNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr, err := Connect(context.Background(), Options{Kind: KindHTTP, URL: srv.URL})
	require.NoError(t, err)
	defer tr.Close()

	err = tr.Call(context.Background(), "ping", nil, nil)
	assert.Error(t, err)
}

// TestStdioTransportCallRoundTrip spawns the real "cat" command as the
// subprocess and relies on it echoing the marshaled request line straight
// back: since rpcRequest's fields are a superset of what rpcResponse reads
// (the unknown "method"/"params" keys are simply ignored by the decoder),
// the echoed line parses as a matching, error-free response.
func TestStdioTransportCallRoundTrip(t *testing.T) {
	tr, err := Connect(context.Background(), Options{Kind: KindStdio, Command: "cat"})
	require.NoError(t, err)
	defer tr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = tr.Call(ctx, "ping", nil, nil)
	assert.NoError(t, err)
}

func TestStdioTransportCloseTerminatesProcess(t *testing.T) {
	tr, err := Connect(context.Background(), Options{Kind: KindStdio, Command: "cat"})
	require.NoError(t, err)
	assert.NoError(t, tr.Close())
}
