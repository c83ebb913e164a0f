package registry

// DefaultRules returns the seed rule set a fresh rule engine ships with.
// Hosts may override these from storage; a fresh MemoryStore starts
// with exactly this list. Predicates are plain JSON-logic-style trees
// (package rules interprets the {var:...}/==/!=/and/or/!/in vocabulary) so
// the registry stays unaware of predicate semantics.
func DefaultRules() []*Rule {
	v := func(path string) map[string]any { return map[string]any{"var": path} }
	return []*Rule{
		{
			ID:       1,
			Name:     "confidence-threshold",
			Kind:     "threshold",
			Priority: 50,
			Enabled:  true,
			Decision: DecisionDeny,
			Predicate: map[string]any{"and": []any{
				map[string]any{"!": v("intent.is_forced")},
				map[string]any{"<": []any{v("intent.confidence"), v("config.confidence_threshold")}},
			}},
		},
		{
			ID:       2,
			Name:     "guest-readonly",
			Kind:     "permission",
			Priority: 90,
			Enabled:  true,
			Decision: DecisionDeny,
			Predicate: map[string]any{"and": []any{
				map[string]any{"==": []any{v("user.role"), "guest"}},
				v("execution.is_destructive"),
			}},
		},
		{
			ID:       3,
			Name:     "destructive-confirmation",
			Kind:     "context",
			Priority: 40,
			Enabled:  true,
			Decision: DecisionModify,
			Modification: map[string]any{
				"requires_confirmation": true,
			},
			Predicate: map[string]any{"and": []any{
				v("execution.is_destructive"),
				map[string]any{"!": v("tool.requires_confirmation")},
			}},
		},
		{
			ID:       4,
			Name:     "admin-confidence-bypass",
			Kind:     "permission",
			Priority: 60,
			Enabled:  true,
			Decision: DecisionAllow,
			Predicate: map[string]any{"and": []any{
				map[string]any{"==": []any{v("user.role"), "admin"}},
				map[string]any{"<": []any{v("intent.confidence"), v("config.confidence_threshold")}},
			}},
		},
		{
			ID:       5,
			Name:     "rate-limit",
			Kind:     "threshold",
			Priority: 100,
			Enabled:  true,
			Decision: DecisionDeny,
			Predicate: map[string]any{">": []any{v("session.request_count"), 1000}},
		},
	}
}
