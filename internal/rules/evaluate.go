package rules

import (
	"context"
	"strconv"
	"strings"

	"github.com/toolgateway/gateway/internal/telemetry"
)

// Evaluate walks a predicate tree (built from equality, inequality,
// relational, logical, membership, and {var:...} dereference nodes) against
// flat and returns its boolean result. Evaluation is total: a malformed
// node, a missing variable, or an unknown operator evaluates to false
// rather than raising an error out of the rule. Unknown operators are
// logged via logger, which may be nil.
func Evaluate(ctx context.Context, node any, flat map[string]any, logger telemetry.Logger) bool {
	v, ok := eval(ctx, node, flat, logger)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// eval evaluates node, returning (value, true) on success or (nil, false) if
// the node could not be evaluated at all (as opposed to evaluating to a
// non-true value).
func eval(ctx context.Context, node any, flat map[string]any, logger telemetry.Logger) (any, bool) {
	switch n := node.(type) {
	case nil:
		return nil, true
	case bool, string, float64, int, int64:
		return n, true
	case map[string]any:
		if len(n) != 1 {
			logUnknown(ctx, logger, "predicate node must have exactly one operator key")
			return false, true
		}
		for op, args := range n {
			return evalOp(ctx, op, args, flat, logger)
		}
	}
	logUnknown(ctx, logger, "unrecognized predicate node type")
	return false, true
}

func evalOp(ctx context.Context, op string, args any, flat map[string]any, logger telemetry.Logger) (any, bool) {
	switch op {
	case "var":
		path, _ := args.(string)
		return lookup(flat, path)
	case "!":
		b := truthy(ctx, args, flat, logger)
		return !b, true
	case "and":
		for _, a := range toList(args) {
			if !truthy(ctx, a, flat, logger) {
				return false, true
			}
		}
		return true, true
	case "or":
		for _, a := range toList(args) {
			if truthy(ctx, a, flat, logger) {
				return true, true
			}
		}
		return false, true
	case "==":
		a, b := binaryOperands(args)
		return looseEqual(ctx, a, b, flat, logger), true
	case "!=":
		a, b := binaryOperands(args)
		return !looseEqual(ctx, a, b, flat, logger), true
	case "<", "<=", ">", ">=":
		return compare(ctx, op, args, flat, logger), true
	case "in":
		return membership(ctx, args, flat, logger), true
	default:
		logUnknown(ctx, logger, "unknown predicate operator: "+op)
		return false, true
	}
}

func truthy(ctx context.Context, node any, flat map[string]any, logger telemetry.Logger) bool {
	v, ok := eval(ctx, node, flat, logger)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func toList(args any) []any {
	if l, ok := args.([]any); ok {
		return l
	}
	return []any{args}
}

func binaryOperands(args any) (any, any) {
	l := toList(args)
	if len(l) != 2 {
		return nil, nil
	}
	return l[0], l[1]
}

func looseEqual(ctx context.Context, a, b any, flat map[string]any, logger telemetry.Logger) bool {
	av, aok := eval(ctx, a, flat, logger)
	bv, bok := eval(ctx, b, flat, logger)
	if !aok || !bok {
		return false
	}
	if af, aIsNum := toFloat(av); aIsNum {
		if bf, bIsNum := toFloat(bv); bIsNum {
			return af == bf
		}
	}
	return av == bv
}

func compare(ctx context.Context, op string, args any, flat map[string]any, logger telemetry.Logger) bool {
	a, b := binaryOperands(args)
	av, aok := eval(ctx, a, flat, logger)
	bv, bok := eval(ctx, b, flat, logger)
	if !aok || !bok {
		return false
	}
	af, aIsNum := toFloat(av)
	bf, bIsNum := toFloat(bv)
	if !aIsNum || !bIsNum {
		return false
	}
	switch op {
	case "<":
		return af < bf
	case "<=":
		return af <= bf
	case ">":
		return af > bf
	case ">=":
		return af >= bf
	}
	return false
}

func membership(ctx context.Context, args any, flat map[string]any, logger telemetry.Logger) bool {
	a, b := binaryOperands(args)
	av, aok := eval(ctx, a, flat, logger)
	bv, bok := eval(ctx, b, flat, logger)
	if !aok || !bok {
		return false
	}
	list, ok := bv.([]any)
	if !ok {
		return false
	}
	for _, item := range list {
		if item == av {
			return true
		}
	}
	return false
}

// lookup dereferences a dotted path (e.g. "user.role") against the flat
// context map. A missing segment evaluates to (nil, true): the path simply
// resolves to nil, which compares false against anything but nil.
func lookup(flat map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, true
	}
	segs := strings.Split(path, ".")
	var cur any = flat
	for _, seg := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, true
		}
		cur = m[seg]
	}
	return cur, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func logUnknown(ctx context.Context, logger telemetry.Logger, msg string) {
	if logger == nil {
		return
	}
	logger.Warn(ctx, msg)
}
