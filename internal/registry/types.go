// Package registry is the durable store of record: server configs, tool
// schemas, forced overrides, declarative rules, and classifier training
// samples. Reads and writes never hand out live database handles — every
// operation returns plain value objects rather than live database handles
// or ORM rows.
package registry

import "time"

// TransportKind identifies how a server is reached.
type TransportKind string

const (
	TransportStdio     TransportKind = "stdio"
	TransportHTTP      TransportKind = "http"
	TransportWebSocket TransportKind = "websocket"
)

// ServerStatus tracks a server's discovery lifecycle.
type ServerStatus string

const (
	StatusInactive    ServerStatus = "inactive"
	StatusDiscovering ServerStatus = "discovering"
	StatusActive      ServerStatus = "active"
	StatusError       ServerStatus = "error"
)

// Server is the durable record of one tool-protocol server.
type Server struct {
	ID        string
	Name      string
	Transport TransportKind
	Command   string
	Args      []string
	URL       string
	Headers   map[string]string
	Status    ServerStatus
	LastError string
	Enabled   bool
	Config    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PatternKind classifies how a ForcedOverride pattern is matched.
type PatternKind string

const (
	PatternExact    PatternKind = "exact"
	PatternPrefix   PatternKind = "prefix"
	PatternContains PatternKind = "contains"
	PatternRegex    PatternKind = "regex"
)

// Tool is the durable record of one tool exposed by a server. (server,
// name) is unique. InputSchema must be a valid JSON-Schema draft-7 object;
// the registry does not interpret it beyond validating it is well-formed
// JSON — schema semantics belong to the Schema Executor.
type Tool struct {
	ServerID       string
	Name           string
	Description    string
	InputSchema    map[string]any
	OutputSchema   map[string]any
	Category       string
	Tags           []string
	IntentPatterns []string
	Enabled        bool
	Timeout        time.Duration
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ForcedOverride is a deterministic pattern-to-intent override consulted
// before the statistical classifier.
type ForcedOverride struct {
	ID       int64
	Pattern  string
	Kind     PatternKind
	Intent   string
	Priority int
	Enabled  bool
}

// RuleDecision is the outcome of evaluating one rule's predicate.
type RuleDecision string

const (
	DecisionAllow  RuleDecision = "allow"
	DecisionDeny   RuleDecision = "deny"
	DecisionModify RuleDecision = "modify"
)

// Rule is a declarative predicate-tree record evaluated by the rule
// engine. Predicate is stored as a generic tree (see package rules) so
// the registry has no knowledge of predicate semantics.
type Rule struct {
	ID           int64
	Name         string
	Kind         string
	Predicate    map[string]any
	Priority     int
	Enabled      bool
	Decision     RuleDecision
	Modification map[string]any
}

// TrainingSample is one labeled example used only by the classifier trainer.
type TrainingSample struct {
	ID        int64
	Text      string
	Intent    string
	Validated bool
	Weight    float64
}
