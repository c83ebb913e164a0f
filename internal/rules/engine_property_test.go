package rules

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/toolgateway/gateway/internal/registry"
)

// TestEvaluateAlwaysTerminatesWithADecisionProperty checks that for any
// randomly generated ruleset, Evaluate always returns exactly one of
// allow/deny/modify -- it never panics and never leaves Decision unset.
func TestEvaluateAlwaysTerminatesWithADecisionProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("evaluate always returns a valid decision", prop.ForAll(
		func(rules []*registry.Rule) (result bool) {
			defer func() {
				if recover() != nil {
					result = false
				}
			}()
			e := NewEngine(nil)
			res := e.Evaluate(context.Background(), rules, map[string]any{})
			switch res.Decision {
			case registry.DecisionAllow, registry.DecisionDeny, registry.DecisionModify:
				return true
			default:
				return false
			}
		},
		genRuleSlice(),
	))

	properties.TestingRun(t)
}

// TestEvaluateDenyIsAlwaysFinalProperty checks that whenever a deny rule
// matches, the result is deny and no rule below it in the sorted order
// could have changed that.
func TestEvaluateDenyIsAlwaysFinalProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("a matching deny rule always wins", prop.ForAll(
		func(rules []*registry.Rule) bool {
			e := NewEngine(nil)
			res := e.Evaluate(context.Background(), rules, map[string]any{})
			anyDenyEnabled := false
			for _, r := range rules {
				if r.Enabled && r.Decision == registry.DecisionDeny {
					anyDenyEnabled = true
				}
			}
			if !anyDenyEnabled {
				return true
			}
			// Every enabled deny rule's predicate here is the constant "true"
			// literal, so if one exists, the result must be deny.
			return res.Decision == registry.DecisionDeny
		},
		genRuleSlice(),
	))

	properties.TestingRun(t)
}

func genRuleSlice() gopter.Gen {
	return gen.SliceOfN(5, genRule())
}

func genRule() gopter.Gen {
	return gopter.CombineGens(
		gen.AlphaString(),
		gen.IntRange(0, 100),
		gen.Bool(),
		gen.OneConstOf(registry.DecisionAllow, registry.DecisionDeny, registry.DecisionModify),
	).Map(func(vals []any) *registry.Rule {
		return &registry.Rule{
			Name:      vals[0].(string),
			Priority:  vals[1].(int),
			Enabled:   vals[2].(bool),
			Decision:  vals[3].(registry.RuleDecision),
			Predicate: map[string]any{"==": []any{true, true}},
		}
	})
}
