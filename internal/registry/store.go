package registry

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a lookup finds no matching record.
var ErrNotFound = errors.New("registry: not found")

// Store defines the persistence layer for the tool registry. Implementations
// must be safe for concurrent use and must make bulk catalog refresh
// (DeleteToolsForServer followed by UpsertTool calls) atomic: readers must
// observe either the old or the new catalog, never a mixture.
//
// Available implementations:
//   - memory: in-process store for development and single-node tests
//   - sqlite (internal/registry/sqlite): pure-Go relational backend
//   - mongo (internal/registry/mongo): document-store backend
type Store interface {
	UpsertServer(ctx context.Context, s *Server) error
	GetServer(ctx context.Context, id string) (*Server, error)
	ListServers(ctx context.Context, enabledOnly bool) ([]*Server, error)
	SetServerStatus(ctx context.Context, id string, status ServerStatus, lastError string) error

	UpsertTool(ctx context.Context, t *Tool) error
	DeleteToolsForServer(ctx context.Context, serverID string) (int, error)
	GetTool(ctx context.Context, name string) (*Tool, error)
	ListTools(ctx context.Context, serverID, category string) ([]*Tool, error)
	GetToolWithServer(ctx context.Context, name string) (*Tool, *Server, error)

	// FindToolByIntent implements the tool-selection lookup: a primary
	// match on intent-pattern membership or exact name equality, falling
	// back to hyphen/underscore-normalized name equality.
	FindToolByIntent(ctx context.Context, intent string) (*Tool, error)

	GetForcedOverrides(ctx context.Context) ([]*ForcedOverride, error)
	GetRules(ctx context.Context, kind string) ([]*Rule, error)
	GetTrainingData(ctx context.Context, validatedOnly bool) ([]*TrainingSample, error)
}

// Begin is implemented by stores that can run a sequence of writes under one
// transaction (used by Discovery's delete-then-insert catalog refresh).
// Stores that are already atomic per-call (e.g. the in-memory store, guarded
// by a single mutex) may implement it as a no-op wrapper.
type Begin interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
