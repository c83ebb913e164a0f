// Package intent implements the Intent Engine: a deterministic
// pattern-override layer consulted first, falling back to a trained
// TF-IDF + multinomial logistic regression text classifier. The
// vectorization and softmax-regression training loop are implemented
// directly on the standard library (see DESIGN.md for why no ML library
// was used).
package intent

import (
	"context"
	"regexp"
	"strings"

	"github.com/toolgateway/gateway/internal/registry"
)

// Alternative is one runner-up label with its probability.
type Alternative struct {
	Intent      string
	Probability float64
}

// Result is the Intent Result.
type Result struct {
	Intent         string
	Confidence     float64
	IsForced       bool
	MatchedPattern string
	Alternatives   []Alternative
	Source         string
}

// Engine classifies input text into an intent name.
type Engine struct {
	classifier *Classifier
}

// NewEngine constructs an Engine. classifier may be nil if no model has
// been trained yet; Classify then falls through to "classifier_not_trained".
func NewEngine(classifier *Classifier) *Engine {
	return &Engine{classifier: classifier}
}

// SetClassifier swaps the active trained model, e.g. after a retrain.
func (e *Engine) SetClassifier(c *Classifier) { e.classifier = c }

// Classify runs the two-stage classification: forced overrides first
// (deterministic, short-circuits the classifier entirely), then the
// statistical classifier.
func (e *Engine) Classify(_ context.Context, text string, overrides []*registry.ForcedOverride) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Intent: "unknown", Confidence: 0, Source: "empty_input"}
	}

	if target, pattern, ok := matchOverrides(text, overrides); ok {
		return Result{
			Intent:         target,
			Confidence:     1.0,
			IsForced:       true,
			MatchedPattern: pattern,
			Source:         "forced_override",
		}
	}

	if e.classifier == nil || !e.classifier.Trained {
		return Result{Intent: "unknown", Confidence: 0, Source: "classifier_not_trained"}
	}
	label, confidence, alts := e.classifier.Predict(text)
	return Result{Intent: label, Confidence: confidence, Alternatives: alts, Source: "classifier"}
}

// matchOverrides implements the priority-sorted, first-match-wins walk.
// Among ties, the earlier entry in overrides wins.
func matchOverrides(text string, overrides []*registry.ForcedOverride) (target, pattern string, ok bool) {
	sorted := make([]*registry.ForcedOverride, len(overrides))
	copy(sorted, overrides)
	stableSortByPriorityDesc(sorted)

	for _, o := range sorted {
		if !o.Enabled {
			continue
		}
		if matchPattern(text, o.Pattern, o.Kind) {
			return o.Intent, o.Pattern, true
		}
	}
	return "", "", false
}

func stableSortByPriorityDesc(overrides []*registry.ForcedOverride) {
	// Insertion sort: stable and cheap for the small override lists this
	// engine deals with, and it preserves insertion order on ties.
	for i := 1; i < len(overrides); i++ {
		for j := i; j > 0 && overrides[j].Priority > overrides[j-1].Priority; j-- {
			overrides[j], overrides[j-1] = overrides[j-1], overrides[j]
		}
	}
}

func matchPattern(text, pattern string, kind registry.PatternKind) bool {
	normText := strings.ToLower(strings.TrimSpace(text))
	normPattern := strings.ToLower(strings.TrimSpace(pattern))
	switch kind {
	case registry.PatternExact:
		return normText == normPattern
	case registry.PatternPrefix:
		return strings.HasPrefix(normText, normPattern)
	case registry.PatternContains:
		return strings.Contains(normText, normPattern)
	case registry.PatternRegex:
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return false
		}
		return re.MatchString(text)
	default:
		return false
	}
}
