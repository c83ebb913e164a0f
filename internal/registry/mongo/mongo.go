// Package mongo provides a MongoDB-backed registry.Store implementation:
// a replace-with-upsert persistence pattern, one collection per record
// kind (servers, tools, forced overrides, rules, training samples).
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/toolgateway/gateway/internal/registry"
)

// Store is a MongoDB implementation of registry.Store, keeping one
// collection per record kind.
type Store struct {
	servers   *mongo.Collection
	tools     *mongo.Collection
	overrides *mongo.Collection
	rules     *mongo.Collection
	training  *mongo.Collection
}

var _ registry.Store = (*Store)(nil)
var _ registry.Begin = (*Store)(nil)

// New builds a Store from a connected *mongo.Database, one collection per
// record kind (servers, tools, forced_overrides, rules, training_samples).
func New(db *mongo.Database) *Store {
	return &Store{
		servers:   db.Collection("servers"),
		tools:     db.Collection("tools"),
		overrides: db.Collection("forced_overrides"),
		rules:     db.Collection("rules"),
		training:  db.Collection("training_samples"),
	}
}

// WithTx runs fn against the receiver directly: individual document writes
// are already atomic in MongoDB, and the delete-then-insert catalog
// refresh this wraps only ever touches one server's tool documents, so no
// multi-document transaction is required to keep the catalog consistent.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx registry.Store) error) error {
	return fn(ctx, s)
}

type serverDocument struct {
	ID        string            `bson:"_id"`
	Name      string            `bson:"name"`
	Transport string            `bson:"transport"`
	Command   string            `bson:"command,omitempty"`
	Args      []string          `bson:"args,omitempty"`
	URL       string            `bson:"url,omitempty"`
	Headers   map[string]string `bson:"headers,omitempty"`
	Status    string            `bson:"status"`
	LastError string            `bson:"last_error,omitempty"`
	Enabled   bool              `bson:"enabled"`
	Config    map[string]any    `bson:"config,omitempty"`
	CreatedAt time.Time         `bson:"created_at"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

func (s *Store) UpsertServer(ctx context.Context, srv *registry.Server) error {
	now := time.Now().UTC()
	existing, err := s.GetServer(ctx, srv.ID)
	createdAt := now
	if err == nil {
		createdAt = existing.CreatedAt
	}
	doc := serverDocument{
		ID: srv.ID, Name: srv.Name, Transport: string(srv.Transport),
		Command: srv.Command, Args: srv.Args, URL: srv.URL, Headers: srv.Headers,
		Status: string(srv.Status), LastError: srv.LastError, Enabled: srv.Enabled,
		Config: srv.Config, CreatedAt: createdAt, UpdatedAt: now,
	}
	opts := options.Replace().SetUpsert(true)
	_, werr := s.servers.ReplaceOne(ctx, bson.M{"_id": srv.ID}, doc, opts)
	if werr != nil {
		return fmt.Errorf("mongo: upsert server %q: %w", srv.ID, werr)
	}
	return nil
}

func (s *Store) GetServer(ctx context.Context, id string) (*registry.Server, error) {
	var doc serverDocument
	if err := s.servers.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, registry.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: get server %q: %w", id, err)
	}
	return fromServerDocument(&doc), nil
}

func (s *Store) ListServers(ctx context.Context, enabledOnly bool) ([]*registry.Server, error) {
	filter := bson.M{}
	if enabledOnly {
		filter["enabled"] = true
	}
	cursor, err := s.servers.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list servers: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()
	var docs []serverDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: list servers decode: %w", err)
	}
	out := make([]*registry.Server, len(docs))
	for i := range docs {
		out[i] = fromServerDocument(&docs[i])
	}
	return out, nil
}

func (s *Store) SetServerStatus(ctx context.Context, id string, status registry.ServerStatus, lastError string) error {
	update := bson.M{"$set": bson.M{"status": string(status), "last_error": lastError, "updated_at": time.Now().UTC()}}
	res, err := s.servers.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("mongo: set server status %q: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return registry.ErrNotFound
	}
	return nil
}

func fromServerDocument(doc *serverDocument) *registry.Server {
	return &registry.Server{
		ID: doc.ID, Name: doc.Name, Transport: registry.TransportKind(doc.Transport),
		Command: doc.Command, Args: doc.Args, URL: doc.URL, Headers: doc.Headers,
		Status: registry.ServerStatus(doc.Status), LastError: doc.LastError, Enabled: doc.Enabled,
		Config: doc.Config, CreatedAt: doc.CreatedAt, UpdatedAt: doc.UpdatedAt,
	}
}

type toolDocument struct {
	ID             string         `bson:"_id"`
	ServerID       string         `bson:"server_id"`
	Name           string         `bson:"name"`
	Description    string         `bson:"description,omitempty"`
	InputSchema    map[string]any `bson:"input_schema,omitempty"`
	OutputSchema   map[string]any `bson:"output_schema,omitempty"`
	Category       string         `bson:"category,omitempty"`
	Tags           []string       `bson:"tags,omitempty"`
	IntentPatterns []string       `bson:"intent_patterns,omitempty"`
	Enabled        bool           `bson:"enabled"`
	TimeoutMS      int64          `bson:"timeout_ms,omitempty"`
	CreatedAt      time.Time      `bson:"created_at"`
	UpdatedAt      time.Time      `bson:"updated_at"`
}

func toolDocID(serverID, name string) string { return serverID + "\x00" + name }

func (s *Store) UpsertTool(ctx context.Context, t *registry.Tool) error {
	now := time.Now().UTC()
	id := toolDocID(t.ServerID, t.Name)
	createdAt := now
	if existing, err := s.findToolDocByID(ctx, id); err == nil {
		createdAt = existing.CreatedAt
	}
	doc := toolDocument{
		ID: id, ServerID: t.ServerID, Name: t.Name, Description: t.Description,
		InputSchema: t.InputSchema, OutputSchema: t.OutputSchema, Category: t.Category,
		Tags: t.Tags, IntentPatterns: t.IntentPatterns, Enabled: t.Enabled,
		TimeoutMS: t.Timeout.Milliseconds(), CreatedAt: createdAt, UpdatedAt: now,
	}
	opts := options.Replace().SetUpsert(true)
	_, err := s.tools.ReplaceOne(ctx, bson.M{"_id": id}, doc, opts)
	if err != nil {
		return fmt.Errorf("mongo: upsert tool %q: %w", t.Name, err)
	}
	return nil
}

func (s *Store) findToolDocByID(ctx context.Context, id string) (*toolDocument, error) {
	var doc toolDocument
	if err := s.tools.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) DeleteToolsForServer(ctx context.Context, serverID string) (int, error) {
	res, err := s.tools.DeleteMany(ctx, bson.M{"server_id": serverID})
	if err != nil {
		return 0, fmt.Errorf("mongo: delete tools for server %q: %w", serverID, err)
	}
	return int(res.DeletedCount), nil
}

func (s *Store) GetTool(ctx context.Context, name string) (*registry.Tool, error) {
	var doc toolDocument
	if err := s.tools.FindOne(ctx, bson.M{"name": name}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, registry.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: get tool %q: %w", name, err)
	}
	return fromToolDocument(&doc), nil
}

func (s *Store) ListTools(ctx context.Context, serverID, category string) ([]*registry.Tool, error) {
	filter := bson.M{}
	if serverID != "" {
		filter["server_id"] = serverID
	}
	if category != "" {
		filter["category"] = category
	}
	cursor, err := s.tools.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list tools: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()
	var docs []toolDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: list tools decode: %w", err)
	}
	out := make([]*registry.Tool, len(docs))
	for i := range docs {
		out[i] = fromToolDocument(&docs[i])
	}
	return out, nil
}

func (s *Store) GetToolWithServer(ctx context.Context, name string) (*registry.Tool, *registry.Server, error) {
	tool, err := s.GetTool(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	srv, err := s.GetServer(ctx, tool.ServerID)
	if err != nil {
		return nil, nil, err
	}
	return tool, srv, nil
}

// FindToolByIntent mirrors the memory store's two-pass lookup:
// intent-pattern / exact-name match first, normalized-name match second.
func (s *Store) FindToolByIntent(ctx context.Context, intentName string) (*registry.Tool, error) {
	var direct toolDocument
	err := s.tools.FindOne(ctx, bson.M{"$or": []bson.M{
		{"intent_patterns": intentName},
		{"name": intentName},
	}}).Decode(&direct)
	if err == nil {
		return fromToolDocument(&direct), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("mongo: find tool by intent %q: %w", intentName, err)
	}

	all, err := s.ListTools(ctx, "", "")
	if err != nil {
		return nil, err
	}
	normIntent := normalizeSeparators(intentName)
	for _, t := range all {
		if normalizeSeparators(t.Name) == normIntent {
			return t, nil
		}
	}
	return nil, registry.ErrNotFound
}

func normalizeSeparators(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '-', ' ':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

func fromToolDocument(doc *toolDocument) *registry.Tool {
	return &registry.Tool{
		ServerID: doc.ServerID, Name: doc.Name, Description: doc.Description,
		InputSchema: doc.InputSchema, OutputSchema: doc.OutputSchema, Category: doc.Category,
		Tags: doc.Tags, IntentPatterns: doc.IntentPatterns, Enabled: doc.Enabled,
		Timeout: time.Duration(doc.TimeoutMS) * time.Millisecond,
		CreatedAt: doc.CreatedAt, UpdatedAt: doc.UpdatedAt,
	}
}

type overrideDocument struct {
	ID       int64  `bson:"_id"`
	Pattern  string `bson:"pattern"`
	Kind     string `bson:"kind"`
	Intent   string `bson:"intent"`
	Priority int    `bson:"priority"`
	Enabled  bool   `bson:"enabled"`
}

func (s *Store) GetForcedOverrides(ctx context.Context) ([]*registry.ForcedOverride, error) {
	cursor, err := s.overrides.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "priority", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list forced overrides: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()
	var docs []overrideDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: list forced overrides decode: %w", err)
	}
	out := make([]*registry.ForcedOverride, len(docs))
	for i, d := range docs {
		out[i] = &registry.ForcedOverride{
			ID: d.ID, Pattern: d.Pattern, Kind: registry.PatternKind(d.Kind),
			Intent: d.Intent, Priority: d.Priority, Enabled: d.Enabled,
		}
	}
	return out, nil
}

type ruleDocument struct {
	ID           int64          `bson:"_id"`
	Name         string         `bson:"name"`
	Kind         string         `bson:"kind"`
	Predicate    map[string]any `bson:"predicate"`
	Priority     int            `bson:"priority"`
	Enabled      bool           `bson:"enabled"`
	Decision     string         `bson:"decision"`
	Modification map[string]any `bson:"modification,omitempty"`
}

func (s *Store) GetRules(ctx context.Context, kind string) ([]*registry.Rule, error) {
	filter := bson.M{}
	if kind != "" {
		filter["kind"] = kind
	}
	cursor, err := s.rules.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "priority", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list rules: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()
	var docs []ruleDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: list rules decode: %w", err)
	}
	out := make([]*registry.Rule, len(docs))
	for i, d := range docs {
		out[i] = &registry.Rule{
			ID: d.ID, Name: d.Name, Kind: d.Kind, Predicate: d.Predicate,
			Priority: d.Priority, Enabled: d.Enabled, Decision: registry.RuleDecision(d.Decision),
			Modification: d.Modification,
		}
	}
	return out, nil
}

type trainingDocument struct {
	ID        int64   `bson:"_id"`
	Text      string  `bson:"text"`
	Intent    string  `bson:"intent"`
	Validated bool    `bson:"validated"`
	Weight    float64 `bson:"weight"`
}

func (s *Store) GetTrainingData(ctx context.Context, validatedOnly bool) ([]*registry.TrainingSample, error) {
	filter := bson.M{}
	if validatedOnly {
		filter["validated"] = true
	}
	cursor, err := s.training.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongo: list training data: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()
	var docs []trainingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: list training data decode: %w", err)
	}
	out := make([]*registry.TrainingSample, len(docs))
	for i, d := range docs {
		out[i] = &registry.TrainingSample{ID: d.ID, Text: d.Text, Intent: d.Intent, Validated: d.Validated, Weight: d.Weight}
	}
	return out, nil
}
