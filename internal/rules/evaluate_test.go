package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateComparisonOperators(t *testing.T) {
	flat := map[string]any{"session": map[string]any{"request_count": 1500.0}}
	tests := []struct {
		name string
		node any
		want bool
	}{
		{"greater than true", map[string]any{">": []any{map[string]any{"var": "session.request_count"}, 1000}}, true},
		{"greater than false", map[string]any{">": []any{map[string]any{"var": "session.request_count"}, 2000}}, false},
		{"equal true", map[string]any{"==": []any{"a", "a"}}, true},
		{"not equal true", map[string]any{"!=": []any{"a", "b"}}, true},
		{"and both true", map[string]any{"and": []any{true, true}}, true},
		{"and one false", map[string]any{"and": []any{true, false}}, false},
		{"or one true", map[string]any{"or": []any{false, true}}, true},
		{"negation", map[string]any{"!": true}, false},
		{"membership true", map[string]any{"in": []any{"admin", []any{"admin", "owner"}}}, true},
		{"membership false", map[string]any{"in": []any{"guest", []any{"admin", "owner"}}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Evaluate(context.Background(), tc.node, flat, nil))
		})
	}
}

func TestEvaluateMissingVarIsFalsy(t *testing.T) {
	node := map[string]any{"==": []any{map[string]any{"var": "user.does_not_exist"}, "x"}}
	assert.False(t, Evaluate(context.Background(), node, map[string]any{"user": map[string]any{}}, nil))
}

func TestEvaluateUnknownOperatorIsFalse(t *testing.T) {
	node := map[string]any{"nonsense_op": true}
	assert.False(t, Evaluate(context.Background(), node, nil, nil))
}

func TestEvaluateMalformedNodeIsFalse(t *testing.T) {
	node := map[string]any{"a": 1, "b": 2} // more than one operator key
	assert.False(t, Evaluate(context.Background(), node, nil, nil))
}
