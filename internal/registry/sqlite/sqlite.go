// Package sqlite provides a pure-Go, file-backed registry.Store
// implementation on top of modernc.org/sqlite, adapted from the pattern in
// rakunlabs/at's internal/store/sqlite3 package: open the database, run
// migrations, enable WAL and foreign keys, then expose typed CRUD methods
// over hand-written SQL.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/toolgateway/gateway/internal/registry"
)

const schema = `
CREATE TABLE IF NOT EXISTS servers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	transport TEXT NOT NULL,
	command TEXT,
	args TEXT,
	url TEXT,
	headers TEXT,
	status TEXT NOT NULL,
	last_error TEXT,
	enabled INTEGER NOT NULL,
	config TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tools (
	server_id TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	input_schema TEXT,
	output_schema TEXT,
	category TEXT,
	tags TEXT,
	intent_patterns TEXT,
	enabled INTEGER NOT NULL,
	timeout_ms INTEGER,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (server_id, name)
);
CREATE INDEX IF NOT EXISTS idx_tools_name ON tools(name);

CREATE TABLE IF NOT EXISTS forced_overrides (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	pattern TEXT NOT NULL,
	kind TEXT NOT NULL,
	intent TEXT NOT NULL,
	priority INTEGER NOT NULL,
	enabled INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS rules (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	predicate TEXT NOT NULL,
	priority INTEGER NOT NULL,
	enabled INTEGER NOT NULL,
	decision TEXT NOT NULL,
	modification TEXT
);

CREATE TABLE IF NOT EXISTS training_samples (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	text TEXT NOT NULL,
	intent TEXT NOT NULL,
	validated INTEGER NOT NULL,
	weight REAL NOT NULL
);
`

// Store is a SQLite-backed registry.Store.
type Store struct {
	db *sql.DB
}

var _ registry.Store = (*Store)(nil)
var _ registry.Begin = (*Store)(nil)

// New opens (creating if necessary) the sqlite database at dsn and runs the
// schema migration. dsn is passed straight to modernc.org/sqlite, e.g.
// "file:gateway.db?_pragma=busy_timeout(5000)" or ":memory:".
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", dsn, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: set WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	// sqlite is single-writer; keep one connection so writers naturally
	// serialize instead of hitting SQLITE_BUSY under concurrent use.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// WithTx runs fn with a Store backed by a single *sql.Tx so the
// delete-then-insert catalog refresh (DeleteToolsForServer followed by
// UpsertTool calls) commits or rolls back as one unit.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx registry.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	txStore := &txStore{tx: tx}
	if err := fn(ctx, txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// execer is satisfied by both *sql.DB and *sql.Tx, letting every query
// method below run unmodified whether or not it's inside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// txStore is the transactional view handed to WithTx's callback; it
// implements registry.Store by delegating every query to the same helper
// functions the top-level Store uses, against the shared *sql.Tx.
type txStore struct{ tx *sql.Tx }

func (s *Store) conn() execer   { return s.db }
func (t *txStore) conn() execer { return t.tx }

func (s *Store) UpsertServer(ctx context.Context, srv *registry.Server) error {
	return upsertServer(ctx, s.conn(), srv)
}
func (t *txStore) UpsertServer(ctx context.Context, srv *registry.Server) error {
	return upsertServer(ctx, t.conn(), srv)
}

func (s *Store) GetServer(ctx context.Context, id string) (*registry.Server, error) {
	return getServer(ctx, s.conn(), id)
}
func (t *txStore) GetServer(ctx context.Context, id string) (*registry.Server, error) {
	return getServer(ctx, t.conn(), id)
}

func (s *Store) ListServers(ctx context.Context, enabledOnly bool) ([]*registry.Server, error) {
	return listServers(ctx, s.conn(), enabledOnly)
}
func (t *txStore) ListServers(ctx context.Context, enabledOnly bool) ([]*registry.Server, error) {
	return listServers(ctx, t.conn(), enabledOnly)
}

func (s *Store) SetServerStatus(ctx context.Context, id string, status registry.ServerStatus, lastError string) error {
	return setServerStatus(ctx, s.conn(), id, status, lastError)
}
func (t *txStore) SetServerStatus(ctx context.Context, id string, status registry.ServerStatus, lastError string) error {
	return setServerStatus(ctx, t.conn(), id, status, lastError)
}

func (s *Store) UpsertTool(ctx context.Context, tl *registry.Tool) error {
	return upsertTool(ctx, s.conn(), tl)
}
func (t *txStore) UpsertTool(ctx context.Context, tl *registry.Tool) error {
	return upsertTool(ctx, t.conn(), tl)
}

func (s *Store) DeleteToolsForServer(ctx context.Context, serverID string) (int, error) {
	return deleteToolsForServer(ctx, s.conn(), serverID)
}
func (t *txStore) DeleteToolsForServer(ctx context.Context, serverID string) (int, error) {
	return deleteToolsForServer(ctx, t.conn(), serverID)
}

func (s *Store) GetTool(ctx context.Context, name string) (*registry.Tool, error) {
	return getTool(ctx, s.conn(), name)
}
func (t *txStore) GetTool(ctx context.Context, name string) (*registry.Tool, error) {
	return getTool(ctx, t.conn(), name)
}

func (s *Store) ListTools(ctx context.Context, serverID, category string) ([]*registry.Tool, error) {
	return listTools(ctx, s.conn(), serverID, category)
}
func (t *txStore) ListTools(ctx context.Context, serverID, category string) ([]*registry.Tool, error) {
	return listTools(ctx, t.conn(), serverID, category)
}

func (s *Store) GetToolWithServer(ctx context.Context, name string) (*registry.Tool, *registry.Server, error) {
	return getToolWithServer(ctx, s.conn(), name)
}
func (t *txStore) GetToolWithServer(ctx context.Context, name string) (*registry.Tool, *registry.Server, error) {
	return getToolWithServer(ctx, t.conn(), name)
}

func (s *Store) FindToolByIntent(ctx context.Context, intentName string) (*registry.Tool, error) {
	return findToolByIntent(ctx, s.conn(), intentName)
}
func (t *txStore) FindToolByIntent(ctx context.Context, intentName string) (*registry.Tool, error) {
	return findToolByIntent(ctx, t.conn(), intentName)
}

func (s *Store) GetForcedOverrides(ctx context.Context) ([]*registry.ForcedOverride, error) {
	return getForcedOverrides(ctx, s.conn())
}
func (t *txStore) GetForcedOverrides(ctx context.Context) ([]*registry.ForcedOverride, error) {
	return getForcedOverrides(ctx, t.conn())
}

func (s *Store) GetRules(ctx context.Context, kind string) ([]*registry.Rule, error) {
	return getRules(ctx, s.conn(), kind)
}
func (t *txStore) GetRules(ctx context.Context, kind string) ([]*registry.Rule, error) {
	return getRules(ctx, t.conn(), kind)
}

func (s *Store) GetTrainingData(ctx context.Context, validatedOnly bool) ([]*registry.TrainingSample, error) {
	return getTrainingData(ctx, s.conn(), validatedOnly)
}
func (t *txStore) GetTrainingData(ctx context.Context, validatedOnly bool) ([]*registry.TrainingSample, error) {
	return getTrainingData(ctx, t.conn(), validatedOnly)
}

// --- servers ---

func upsertServer(ctx context.Context, c execer, srv *registry.Server) error {
	args, err := marshalJSON(srv.Args)
	if err != nil {
		return err
	}
	headers, err := marshalJSON(srv.Headers)
	if err != nil {
		return err
	}
	config, err := marshalJSON(srv.Config)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	createdAt := now
	if existing, err := getServer(ctx, c, srv.ID); err == nil {
		createdAt = existing.CreatedAt
	}
	const q = `
INSERT INTO servers (id, name, transport, command, args, url, headers, status, last_error, enabled, config, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name=excluded.name, transport=excluded.transport, command=excluded.command, args=excluded.args,
	url=excluded.url, headers=excluded.headers, status=excluded.status, last_error=excluded.last_error,
	enabled=excluded.enabled, config=excluded.config, updated_at=excluded.updated_at`
	_, err = c.ExecContext(ctx, q, srv.ID, srv.Name, string(srv.Transport), srv.Command, args, srv.URL, headers,
		string(srv.Status), srv.LastError, boolToInt(srv.Enabled), config, formatTime(createdAt), formatTime(now))
	if err != nil {
		return fmt.Errorf("sqlite: upsert server %q: %w", srv.ID, err)
	}
	return nil
}

func getServer(ctx context.Context, c execer, id string) (*registry.Server, error) {
	const q = `SELECT id, name, transport, command, args, url, headers, status, last_error, enabled, config, created_at, updated_at FROM servers WHERE id = ?`
	row := c.QueryRowContext(ctx, q, id)
	return scanServer(row)
}

func listServers(ctx context.Context, c execer, enabledOnly bool) ([]*registry.Server, error) {
	q := `SELECT id, name, transport, command, args, url, headers, status, last_error, enabled, config, created_at, updated_at FROM servers`
	if enabledOnly {
		q += ` WHERE enabled = 1`
	}
	q += ` ORDER BY id ASC`
	rows, err := c.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list servers: %w", err)
	}
	defer rows.Close()
	var out []*registry.Server
	for rows.Next() {
		srv, err := scanServerRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, srv)
	}
	return out, rows.Err()
}

func setServerStatus(ctx context.Context, c execer, id string, status registry.ServerStatus, lastError string) error {
	res, err := c.ExecContext(ctx, `UPDATE servers SET status = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		string(status), lastError, formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("sqlite: set server status %q: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return registry.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanServer(row *sql.Row) (*registry.Server, error) {
	return scanServerGeneric(row)
}
func scanServerRows(rows *sql.Rows) (*registry.Server, error) {
	return scanServerGeneric(rows)
}

func scanServerGeneric(s rowScanner) (*registry.Server, error) {
	var (
		srv                            registry.Server
		transport, status              string
		argsJSON, headersJSON, cfgJSON sql.NullString
		command, url, lastErr          sql.NullString
		enabled                        int
		createdAt, updatedAt           string
	)
	err := s.Scan(&srv.ID, &srv.Name, &transport, &command, &argsJSON, &url, &headersJSON, &status, &lastErr,
		&enabled, &cfgJSON, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan server: %w", err)
	}
	srv.Transport = registry.TransportKind(transport)
	srv.Status = registry.ServerStatus(status)
	srv.Command = command.String
	srv.URL = url.String
	srv.LastError = lastErr.String
	srv.Enabled = enabled != 0
	if err := unmarshalJSON(argsJSON, &srv.Args); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(headersJSON, &srv.Headers); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(cfgJSON, &srv.Config); err != nil {
		return nil, err
	}
	srv.CreatedAt = parseTime(createdAt)
	srv.UpdatedAt = parseTime(updatedAt)
	return &srv, nil
}

// --- tools ---

func upsertTool(ctx context.Context, c execer, t *registry.Tool) error {
	inputSchema, err := marshalJSON(t.InputSchema)
	if err != nil {
		return err
	}
	outputSchema, err := marshalJSON(t.OutputSchema)
	if err != nil {
		return err
	}
	tags, err := marshalJSON(t.Tags)
	if err != nil {
		return err
	}
	patterns, err := marshalJSON(t.IntentPatterns)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	createdAt := now
	if existing, err := getTool(ctx, c, t.Name); err == nil && existing.ServerID == t.ServerID {
		createdAt = existing.CreatedAt
	}
	const q = `
INSERT INTO tools (server_id, name, description, input_schema, output_schema, category, tags, intent_patterns, enabled, timeout_ms, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(server_id, name) DO UPDATE SET
	description=excluded.description, input_schema=excluded.input_schema, output_schema=excluded.output_schema,
	category=excluded.category, tags=excluded.tags, intent_patterns=excluded.intent_patterns,
	enabled=excluded.enabled, timeout_ms=excluded.timeout_ms, updated_at=excluded.updated_at`
	_, err = c.ExecContext(ctx, q, t.ServerID, t.Name, t.Description, inputSchema, outputSchema, t.Category,
		tags, patterns, boolToInt(t.Enabled), t.Timeout.Milliseconds(), formatTime(createdAt), formatTime(now))
	if err != nil {
		return fmt.Errorf("sqlite: upsert tool %q: %w", t.Name, err)
	}
	return nil
}

func deleteToolsForServer(ctx context.Context, c execer, serverID string) (int, error) {
	res, err := c.ExecContext(ctx, `DELETE FROM tools WHERE server_id = ?`, serverID)
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete tools for server %q: %w", serverID, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

const toolColumns = `server_id, name, description, input_schema, output_schema, category, tags, intent_patterns, enabled, timeout_ms, created_at, updated_at`

func getTool(ctx context.Context, c execer, name string) (*registry.Tool, error) {
	row := c.QueryRowContext(ctx, `SELECT `+toolColumns+` FROM tools WHERE name = ?`, name)
	return scanTool(row)
}

func listTools(ctx context.Context, c execer, serverID, category string) ([]*registry.Tool, error) {
	q := `SELECT ` + toolColumns + ` FROM tools WHERE 1=1`
	var args []any
	if serverID != "" {
		q += ` AND server_id = ?`
		args = append(args, serverID)
	}
	if category != "" {
		q += ` AND category = ?`
		args = append(args, category)
	}
	q += ` ORDER BY server_id ASC, name ASC`
	rows, err := c.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list tools: %w", err)
	}
	defer rows.Close()
	var out []*registry.Tool
	for rows.Next() {
		t, err := scanToolRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func getToolWithServer(ctx context.Context, c execer, name string) (*registry.Tool, *registry.Server, error) {
	t, err := getTool(ctx, c, name)
	if err != nil {
		return nil, nil, err
	}
	srv, err := getServer(ctx, c, t.ServerID)
	if err != nil {
		return nil, nil, err
	}
	return t, srv, nil
}

// findToolByIntent mirrors the memory store's two-pass lookup.
func findToolByIntent(ctx context.Context, c execer, intentName string) (*registry.Tool, error) {
	row := c.QueryRowContext(ctx, `SELECT `+toolColumns+` FROM tools
		WHERE name = ? OR intent_patterns LIKE '%' || ? || '%' ESCAPE '\' LIMIT 1`, intentName, jsonQuoted(intentName))
	t, err := scanTool(row)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, registry.ErrNotFound) {
		return nil, err
	}
	all, err := listTools(ctx, c, "", "")
	if err != nil {
		return nil, err
	}
	normIntent := normalizeSeparators(intentName)
	for _, tool := range all {
		if normalizeSeparators(tool.Name) == normIntent {
			return tool, nil
		}
	}
	return nil, registry.ErrNotFound
}

// jsonQuoted renders s as the quoted JSON string it is stored as inside the
// intent_patterns array, with LIKE's wildcard and escape characters
// escaped, so the probe above matches a whole array element rather than a
// substring of one.
func jsonQuoted(s string) string {
	b, _ := json.Marshal(s)
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(string(b))
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

func scanTool(row *sql.Row) (*registry.Tool, error)   { return scanToolGeneric(row) }
func scanToolRows(rows *sql.Rows) (*registry.Tool, error) { return scanToolGeneric(rows) }

func scanToolGeneric(s rowScanner) (*registry.Tool, error) {
	var (
		t                                   registry.Tool
		description, category               sql.NullString
		inputSchema, outputSchema            sql.NullString
		tagsJSON, patternsJSON               sql.NullString
		enabled                              int
		timeoutMS                           int64
		createdAt, updatedAt                string
	)
	err := s.Scan(&t.ServerID, &t.Name, &description, &inputSchema, &outputSchema, &category, &tagsJSON,
		&patternsJSON, &enabled, &timeoutMS, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan tool: %w", err)
	}
	t.Description = description.String
	t.Category = category.String
	t.Enabled = enabled != 0
	t.Timeout = time.Duration(timeoutMS) * time.Millisecond
	if err := unmarshalJSON(inputSchema, &t.InputSchema); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(outputSchema, &t.OutputSchema); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(tagsJSON, &t.Tags); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(patternsJSON, &t.IntentPatterns); err != nil {
		return nil, err
	}
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}

// --- forced overrides / rules / training samples (read-only from this
// backend's perspective; seeded and managed out of band) ---

func getForcedOverrides(ctx context.Context, c execer) ([]*registry.ForcedOverride, error) {
	rows, err := c.QueryContext(ctx, `SELECT id, pattern, kind, intent, priority, enabled FROM forced_overrides ORDER BY priority DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list forced overrides: %w", err)
	}
	defer rows.Close()
	var out []*registry.ForcedOverride
	for rows.Next() {
		var fo registry.ForcedOverride
		var kind string
		var enabled int
		if err := rows.Scan(&fo.ID, &fo.Pattern, &kind, &fo.Intent, &fo.Priority, &enabled); err != nil {
			return nil, fmt.Errorf("sqlite: scan forced override: %w", err)
		}
		fo.Kind = registry.PatternKind(kind)
		fo.Enabled = enabled != 0
		out = append(out, &fo)
	}
	return out, rows.Err()
}

func getRules(ctx context.Context, c execer, kind string) ([]*registry.Rule, error) {
	q := `SELECT id, name, kind, predicate, priority, enabled, decision, modification FROM rules`
	var args []any
	if kind != "" {
		q += ` WHERE kind = ?`
		args = append(args, kind)
	}
	q += ` ORDER BY priority DESC`
	rows, err := c.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list rules: %w", err)
	}
	defer rows.Close()
	var out []*registry.Rule
	for rows.Next() {
		var r registry.Rule
		var decision string
		var enabled int
		var predicateJSON, modJSON sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &r.Kind, &predicateJSON, &r.Priority, &enabled, &decision, &modJSON); err != nil {
			return nil, fmt.Errorf("sqlite: scan rule: %w", err)
		}
		r.Decision = registry.RuleDecision(decision)
		r.Enabled = enabled != 0
		if err := unmarshalJSON(predicateJSON, &r.Predicate); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(modJSON, &r.Modification); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func getTrainingData(ctx context.Context, c execer, validatedOnly bool) ([]*registry.TrainingSample, error) {
	q := `SELECT id, text, intent, validated, weight FROM training_samples`
	if validatedOnly {
		q += ` WHERE validated = 1`
	}
	rows, err := c.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list training data: %w", err)
	}
	defer rows.Close()
	var out []*registry.TrainingSample
	for rows.Next() {
		var ts registry.TrainingSample
		var validated int
		if err := rows.Scan(&ts.ID, &ts.Text, &ts.Intent, &validated, &ts.Weight); err != nil {
			return nil, fmt.Errorf("sqlite: scan training sample: %w", err)
		}
		ts.Validated = validated != 0
		out = append(out, &ts)
	}
	return out, rows.Err()
}

// --- marshal/scan helpers ---

func marshalJSON(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("sqlite: marshal json: %w", err)
	}
	return string(b), nil
}

func unmarshalJSON(ns sql.NullString, dest any) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(ns.String), dest); err != nil {
		return fmt.Errorf("sqlite: unmarshal json: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string { return t.Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
