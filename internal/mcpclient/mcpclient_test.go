package mcpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolgateway/gateway/internal/transport"
)

type rpcEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	ID      uint64          `json:"id"`
	Params  json.RawMessage `json:"params"`
}

// newFakeServer builds an httptest server that answers the handshake plus
// whatever extra per-method responder the test supplies.
func newFakeServer(t *testing.T, extra map[string]func(id uint64) map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env rpcEnvelope
		require.NoError(t, json.NewDecoder(r.Body).Decode(&env))
		w.Header().Set("Content-Type", "application/json")

		switch env.Method {
		case "initialize":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0", "id": env.ID,
				"result": map[string]any{"protocolVersion": DefaultProtocolVersion},
			})
		case "notifications/initialized":
			_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": env.ID, "result": map[string]any{}})
		default:
			if fn, ok := extra[env.Method]; ok {
				_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": env.ID, "result": fn(env.ID)})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0", "id": env.ID,
				"error": map[string]any{"code": -32601, "message": "method not found"},
			})
		}
	}))
}

func TestConnectPerformsHandshake(t *testing.T) {
	srv := newFakeServer(t, nil)
	defer srv.Close()

	c, err := Connect(context.Background(), transport.Options{Kind: transport.KindHTTP, URL: srv.URL}, Options{})
	require.NoError(t, err)
	defer c.Close()
}

func TestListTools(t *testing.T) {
	srv := newFakeServer(t, map[string]func(uint64) map[string]any{
		"tools/list": func(uint64) map[string]any {
			return map[string]any{"tools": []map[string]any{
				{"name": "search", "description": "search the web", "inputSchema": map[string]any{}},
			}}
		},
	})
	defer srv.Close()

	c, err := Connect(context.Background(), transport.Options{Kind: transport.KindHTTP, URL: srv.URL}, Options{})
	require.NoError(t, err)
	defer c.Close()

	tools, err := c.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "search", tools[0].Name)
}

func TestPing(t *testing.T) {
	srv := newFakeServer(t, map[string]func(uint64) map[string]any{
		"ping": func(uint64) map[string]any { return map[string]any{} },
	})
	defer srv.Close()

	c, err := Connect(context.Background(), transport.Options{Kind: transport.KindHTTP, URL: srv.URL}, Options{})
	require.NoError(t, err)
	defer c.Close()

	assert.NoError(t, c.Ping(context.Background()))
}

func TestCallToolMethodNotFoundIsClassified(t *testing.T) {
	srv := newFakeServer(t, nil)
	defer srv.Close()

	c, err := Connect(context.Background(), transport.Options{Kind: transport.KindHTTP, URL: srv.URL}, Options{})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.CallTool(context.Background(), "missing", json.RawMessage(`{}`))
	require.Error(t, err)
	var rpcErr *transport.RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32601, rpcErr.Code)
}

func TestNormalizeToolResultJSONText(t *testing.T) {
	text := `{"count": 3}`
	result, err := normalizeToolResult(toolsCallResult{Content: []contentItem{{Type: "text", Text: &text}}})
	require.NoError(t, err)
	assert.JSONEq(t, text, string(result.Result))
	assert.JSONEq(t, text, string(result.Structured))
}

func TestNormalizeToolResultPlainText(t *testing.T) {
	text := "hello world"
	result, err := normalizeToolResult(toolsCallResult{Content: []contentItem{{Type: "text", Text: &text}}})
	require.NoError(t, err)
	assert.Equal(t, `"hello world"`, string(result.Result))
	assert.Empty(t, result.Structured)
}

func TestNormalizeToolResultEmptyContent(t *testing.T) {
	_, err := normalizeToolResult(toolsCallResult{})
	assert.Error(t, err)
}

func TestClassifyErrorPassesThroughRPCError(t *testing.T) {
	rpcErr := &transport.RPCError{Code: -32603, Message: "boom"}
	got := classifyError(rpcErr)
	assert.Equal(t, rpcErr, got)
}

func TestClassifyErrorNil(t *testing.T) {
	assert.Nil(t, classifyError(nil))
}
