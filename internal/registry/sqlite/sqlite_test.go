package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolgateway/gateway/internal/registry"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertAndGetServer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertServer(ctx, &registry.Server{
		ID: "s1", Name: "one", Transport: registry.TransportHTTP, URL: "http://x", Enabled: true,
	}))

	got, err := s.GetServer(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "one", got.Name)
	assert.Equal(t, registry.TransportHTTP, got.Transport)
	assert.True(t, got.Enabled)
}

func TestUpsertServerIsIdempotentAndPreservesCreatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertServer(ctx, &registry.Server{ID: "s1", Name: "one"}))
	first, err := s.GetServer(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, s.UpsertServer(ctx, &registry.Server{ID: "s1", Name: "renamed"}))
	second, err := s.GetServer(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", second.Name)
	assert.Equal(t, first.CreatedAt.Unix(), second.CreatedAt.Unix())
}

func TestGetServerNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetServer(context.Background(), "missing")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestListServersEnabledOnlyFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertServer(ctx, &registry.Server{ID: "a", Enabled: true}))
	require.NoError(t, s.UpsertServer(ctx, &registry.Server{ID: "b", Enabled: false}))

	enabled, err := s.ListServers(ctx, true)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "a", enabled[0].ID)
}

func TestSetServerStatusNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.SetServerStatus(context.Background(), "missing", registry.StatusActive, "")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestUpsertToolAndDeleteToolsForServer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertTool(ctx, &registry.Tool{
		ServerID: "s1", Name: "search", InputSchema: map[string]any{"type": "object"},
		Tags: []string{"a", "b"}, IntentPatterns: []string{"find something"},
	}))
	require.NoError(t, s.UpsertTool(ctx, &registry.Tool{ServerID: "s1", Name: "fetch"}))
	require.NoError(t, s.UpsertTool(ctx, &registry.Tool{ServerID: "s2", Name: "search"}))

	tool, err := s.GetTool(ctx, "search")
	require.NoError(t, err)
	// two tools are named "search"; GetTool has no server filter so either
	// is a valid match -- just confirm the JSON-backed fields round trip.
	assert.Equal(t, "search", tool.Name)

	n, err := s.DeleteToolsForServer(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	remaining, err := s.ListTools(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "s2", remaining[0].ServerID)
}

func TestUpsertToolRoundTripsJSONFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertTool(ctx, &registry.Tool{
		ServerID:       "s1",
		Name:           "search",
		InputSchema:    map[string]any{"type": "object"},
		Tags:           []string{"web", "read-only"},
		IntentPatterns: []string{"search the web"},
	}))
	tool, err := s.GetTool(ctx, "search")
	require.NoError(t, err)
	assert.Equal(t, []string{"web", "read-only"}, tool.Tags)
	assert.Equal(t, []string{"search the web"}, tool.IntentPatterns)
	assert.Equal(t, "object", tool.InputSchema["type"])
}

func TestFindToolByIntentExactAndPatternAndFallback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertTool(ctx, &registry.Tool{ServerID: "s1", Name: "list_files"}))
	require.NoError(t, s.UpsertTool(ctx, &registry.Tool{ServerID: "s1", Name: "fs-remove", IntentPatterns: []string{"delete_file"}}))

	byName, err := s.FindToolByIntent(ctx, "list_files")
	require.NoError(t, err)
	assert.Equal(t, "list_files", byName.Name)

	byPattern, err := s.FindToolByIntent(ctx, "delete_file")
	require.NoError(t, err)
	assert.Equal(t, "fs-remove", byPattern.Name)

	byNormalized, err := s.FindToolByIntent(ctx, "fs_remove")
	require.NoError(t, err)
	assert.Equal(t, "fs-remove", byNormalized.Name)
}

func TestFindToolByIntentNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.FindToolByIntent(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestGetToolWithServer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertServer(ctx, &registry.Server{ID: "s1", Name: "one"}))
	require.NoError(t, s.UpsertTool(ctx, &registry.Tool{ServerID: "s1", Name: "search"}))

	tool, server, err := s.GetToolWithServer(ctx, "search")
	require.NoError(t, err)
	assert.Equal(t, "search", tool.Name)
	assert.Equal(t, "one", server.Name)
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	err := s.WithTx(ctx, func(ctx context.Context, tx registry.Store) error {
		return tx.UpsertServer(ctx, &registry.Server{ID: "tx-committed", Name: "x"})
	})
	require.NoError(t, err)

	got, err := s.GetServer(ctx, "tx-committed")
	require.NoError(t, err)
	assert.Equal(t, "x", got.Name)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sentinel := assert.AnError
	err := s.WithTx(ctx, func(ctx context.Context, tx registry.Store) error {
		if err := tx.UpsertServer(ctx, &registry.Server{ID: "tx-rolled-back", Name: "x"}); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, getErr := s.GetServer(ctx, "tx-rolled-back")
	assert.ErrorIs(t, getErr, registry.ErrNotFound)
}

func TestWithTxRefreshesCatalogAtomically(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertTool(ctx, &registry.Tool{ServerID: "s1", Name: "old-tool"}))

	err := s.WithTx(ctx, func(ctx context.Context, tx registry.Store) error {
		if _, err := tx.DeleteToolsForServer(ctx, "s1"); err != nil {
			return err
		}
		return tx.UpsertTool(ctx, &registry.Tool{ServerID: "s1", Name: "new-tool"})
	})
	require.NoError(t, err)

	tools, err := s.ListTools(ctx, "s1", "")
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "new-tool", tools[0].Name)
}
