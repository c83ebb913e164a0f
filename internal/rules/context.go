// Package rules implements the declarative predicate-tree evaluator:
// a small JSON-logic-style algebra evaluated against a flat decision
// context, plus the priority-ordered rule walk that turns rule matches into
// a final allow/deny/modify decision.
package rules

// Context is the flat decision context rule predicates are evaluated
// against. It groups fields by subject (user, intent, tool, execution,
// session, config, custom) so a predicate path like "user.role" or
// "intent.confidence" resolves without the evaluator knowing what a "user"
// or "intent" is.
type Context struct {
	User      map[string]any
	Intent    map[string]any
	Tool      map[string]any
	Execution map[string]any
	Session   map[string]any
	Config    map[string]any
	Custom    map[string]any
}

// Flatten converts the Context into the nested map dereferenced by {var:...}
// path lookups.
func (c Context) Flatten() map[string]any {
	return map[string]any{
		"user":      c.User,
		"intent":    c.Intent,
		"tool":      c.Tool,
		"execution": c.Execution,
		"session":   c.Session,
		"config":    c.Config,
		"custom":    c.Custom,
	}
}
