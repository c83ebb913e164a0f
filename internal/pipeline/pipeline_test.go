package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolgateway/gateway/internal/intent"
	"github.com/toolgateway/gateway/internal/registry"
	"github.com/toolgateway/gateway/internal/rules"
)

// newToolCallServer answers the tool-protocol handshake plus tools/call,
// returning a single text content block whose value is the echoed name
// parameter, so tests can assert the gateway actually built and forwarded
// the right arguments.
func newToolCallServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env struct {
			Method string          `json:"method"`
			ID     uint64          `json:"id"`
			Params json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&env))
		w.Header().Set("Content-Type", "application/json")
		switch env.Method {
		case "tools/call":
			var params struct {
				Arguments json.RawMessage `json:"arguments"`
			}
			_ = json.Unmarshal(env.Params, &params)
			text := string(params.Arguments)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0", "id": env.ID,
				"result": map[string]any{"content": []map[string]any{{"type": "text", "text": text}}},
			})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": env.ID, "result": map[string]any{}})
		}
	}))
}

func newTestOrchestrator(t *testing.T, serverURL string) *Orchestrator {
	t.Helper()
	store := registry.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.UpsertServer(ctx, &registry.Server{
		ID: "web", Name: "web", Transport: registry.TransportHTTP, URL: serverURL, Enabled: true,
	}))
	require.NoError(t, store.UpsertTool(ctx, &registry.Tool{
		ServerID: "web", Name: "search", Enabled: true,
		IntentPatterns: []string{"search"},
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"query": map[string]any{"type": "string"}},
			"required":   []any{"query"},
		},
	}))
	store.SetForcedOverrides([]*registry.ForcedOverride{
		{Pattern: "search", Kind: registry.PatternContains, Intent: "search", Priority: 1, Enabled: true},
	})

	intentEngine := intent.NewEngine(nil)
	ruleEngine := rules.NewEngine(nil)
	return NewOrchestrator(store, intentEngine, ruleEngine, WithSessionCounter(rules.NewMemorySessionCounter()))
}

func TestExecuteSuccessRunsAllEightStages(t *testing.T) {
	srv := newToolCallServer(t)
	defer srv.Close()

	orch := newTestOrchestrator(t, srv.URL)
	defer orch.CloseConnections()

	rec := orch.Execute(context.Background(), Request{
		Text:     "please search for quarterly earnings",
		UserID:   "u1",
		UserRole: "admin",
	})

	require.Equal(t, StatusSuccess, rec.Status)
	require.Len(t, rec.StageResults, len(stageOrder))
	for i, sr := range rec.StageResults {
		assert.Equal(t, stageOrder[i], sr.Stage)
		assert.True(t, sr.Success, "stage %s failed: %s", sr.Stage, sr.Error)
	}
	assert.Equal(t, "search", rec.ToolName)
	assert.NotEmpty(t, rec.RequestID)
}

func TestExecuteEmptyInputFailsAtExtractStage(t *testing.T) {
	orch := newTestOrchestrator(t, "http://unused")
	rec := orch.Execute(context.Background(), Request{Text: "   "})
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Equal(t, StageExtract, rec.FailedStage)
}

func TestExecuteNoMatchingToolFailsAtSelectToolStage(t *testing.T) {
	store := registry.NewMemoryStore()
	// a forced override keeps intent.is_forced true so the confidence-
	// threshold rule never denies first; the intent it names has no
	// matching tool, so select_tool is where this run actually fails.
	store.SetForcedOverrides([]*registry.ForcedOverride{
		{Pattern: "unrelated", Kind: registry.PatternContains, Intent: "nonexistent_tool", Priority: 1, Enabled: true},
	})
	orch := NewOrchestrator(store, intent.NewEngine(nil), rules.NewEngine(nil),
		WithSessionCounter(rules.NewMemorySessionCounter()))

	rec := orch.Execute(context.Background(), Request{Text: "do something totally unrelated to any tool"})
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Equal(t, StageSelectTool, rec.FailedStage)
}

func TestExecuteDenyShortCircuitsBeforeLaterStages(t *testing.T) {
	store := registry.NewMemoryStore()
	store.SetForcedOverrides([]*registry.ForcedOverride{
		{Pattern: "delete", Kind: registry.PatternContains, Intent: "delete", Priority: 1, Enabled: true},
	})
	orch := NewOrchestrator(store, intent.NewEngine(nil), rules.NewEngine(nil),
		WithSessionCounter(rules.NewMemorySessionCounter()))

	rec := orch.Execute(context.Background(), Request{
		Text:     "please delete my notes",
		UserID:   "u2",
		UserRole: "guest",
	})

	require.Equal(t, StatusDenied, rec.Status)
	assert.Equal(t, "guest-readonly", rec.DeniedRule)
	// the rule engine ran (stage 3) but tool selection never did, since
	// deny short-circuits the pipeline right after evaluate_rules.
	require.Len(t, rec.StageResults, 3)
	assert.Equal(t, StageRules, rec.StageResults[2].Stage)
}
