package rules

import (
	"context"
	"sort"

	"github.com/toolgateway/gateway/internal/registry"
	"github.com/toolgateway/gateway/internal/telemetry"
)

// Result is the outcome of evaluating an ordered rule list against a
// decision context.
type Result struct {
	Decision      registry.RuleDecision
	MatchedRules  []string
	Reason        string
	Modifications map[string]any
}

// Engine evaluates a priority-sorted rule list against a decision context,
// producing an allow/deny/modify Result.
type Engine struct {
	logger telemetry.Logger
}

// NewEngine constructs a rule Engine. logger may be nil.
func NewEngine(logger telemetry.Logger) *Engine {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Engine{logger: telemetry.WithComponent(logger, "rule-engine")}
}

// Evaluate walks rules sorted by priority descending (ties keep their
// incoming order, i.e. a stable sort). For each enabled rule whose
// predicate is true:
//   - deny terminates immediately; the result is deny with this rule's name
//     as the reason.
//   - modify sets the running decision to modify (unless already deny) and
//     merges its modification map into the accumulator.
//   - allow sets the running decision to allow unless a later modify has
//     already occurred or deny is reached.
//
// If no rule matches at all, the decision is allow.
func (e *Engine) Evaluate(ctx context.Context, ruleset []*registry.Rule, flat map[string]any) Result {
	sorted := make([]*registry.Rule, len(ruleset))
	copy(sorted, ruleset)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })

	result := Result{Decision: registry.DecisionAllow, Modifications: map[string]any{}}
	matched := false

	for _, r := range sorted {
		if !r.Enabled {
			continue
		}
		if !Evaluate(ctx, r.Predicate, flat, e.logger) {
			continue
		}
		matched = true
		result.MatchedRules = append(result.MatchedRules, r.Name)
		switch r.Decision {
		case registry.DecisionDeny:
			result.Decision = registry.DecisionDeny
			result.Reason = r.Name
			e.logger.Debug(ctx, "rule denied execution", "rule", r.Name)
			return result
		case registry.DecisionModify:
			if result.Decision != registry.DecisionDeny {
				result.Decision = registry.DecisionModify
			}
			for k, v := range r.Modification {
				result.Modifications[k] = v
			}
		case registry.DecisionAllow:
			if result.Decision != registry.DecisionDeny && result.Decision != registry.DecisionModify {
				result.Decision = registry.DecisionAllow
			}
		}
	}
	if !matched {
		result.Decision = registry.DecisionAllow
	}
	return result
}
