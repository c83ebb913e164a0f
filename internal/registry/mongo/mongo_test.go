package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/toolgateway/gateway/internal/registry"
)

// newTestStore connects to the Mongo instance named by MONGO_TEST_URI and
// skips the test when it isn't set -- these tests exercise the driver
// against a real server rather than a fake, so they only run where one is
// reachable (e.g. CI jobs that bring up a mongod container).
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set, skipping mongo integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	dbName := "gateway_test"
	db := client.Database(dbName)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return New(db)
}

func TestUpsertAndGetServer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertServer(ctx, &registry.Server{
		ID: "s1", Name: "one", Transport: registry.TransportHTTP, Enabled: true,
	}))

	got, err := s.GetServer(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "one", got.Name)
}

func TestGetServerNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetServer(context.Background(), "missing")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestUpsertToolAndDeleteToolsForServer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertTool(ctx, &registry.Tool{ServerID: "s1", Name: "search"}))
	require.NoError(t, s.UpsertTool(ctx, &registry.Tool{ServerID: "s1", Name: "fetch"}))

	n, err := s.DeleteToolsForServer(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFindToolByIntentPatternAndFallback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertTool(ctx, &registry.Tool{ServerID: "s1", Name: "fs-remove", IntentPatterns: []string{"delete_file"}}))

	byPattern, err := s.FindToolByIntent(ctx, "delete_file")
	require.NoError(t, err)
	assert.Equal(t, "fs-remove", byPattern.Name)

	byNormalized, err := s.FindToolByIntent(ctx, "fs_remove")
	require.NoError(t, err)
	assert.Equal(t, "fs-remove", byNormalized.Name)
}

func TestWithTxRunsAgainstSameStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	err := s.WithTx(ctx, func(ctx context.Context, tx registry.Store) error {
		return tx.UpsertServer(ctx, &registry.Server{ID: "tx", Name: "via-tx"})
	})
	require.NoError(t, err)
	got, err := s.GetServer(ctx, "tx")
	require.NoError(t, err)
	assert.Equal(t, "via-tx", got.Name)
}
