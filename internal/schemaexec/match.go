package schemaexec

import (
	"strconv"
	"strings"

	"github.com/toolgateway/gateway/internal/extract"
)

// namePatternHints implements the name-pattern hint table: a parameter
// name containing one of these substrings prefers entities of the listed
// labels. Order within a hint list does not affect scoring -- membership is
// boolean (0.9 either way); order only matters for the substring-match
// preference below.
func namePatternHints(paramName string) []string {
	lower := strings.ToLower(paramName)
	switch {
	case containsAny(lower, "path", "file", "directory"):
		return []string{extract.LabelFilePath}
	case containsAny(lower, "url", "uri"):
		return []string{extract.LabelURL}
	case containsAny(lower, "email"):
		return []string{extract.LabelEmail}
	case containsAny(lower, "name"):
		return []string{extract.LabelPerson, extract.LabelOrg}
	case containsAny(lower, "location"):
		return []string{extract.LabelGPE, extract.LabelLoc}
	case containsAny(lower, "date"):
		return []string{extract.LabelDate}
	case containsAny(lower, "time"):
		return []string{extract.LabelTime}
	case containsAny(lower, "amount"):
		return []string{extract.LabelMoney, extract.LabelCardinal}
	case containsAny(lower, "count", "number"):
		return []string{extract.LabelCardinal}
	case containsAny(lower, "command"):
		return []string{extract.LabelCommand}
	case containsAny(lower, "query", "content", "text", "message", "description"):
		return nil // free-text parameters: no entity preference at all
	default:
		return nil
	}
}

// freeTextParamNames is the name set step (d) treats specially.
var freeTextParamNames = map[string]bool{
	"query": true, "content": true, "text": true, "message": true, "description": true,
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// typeFallbackLabels is consulted when a parameter name carries no
// name-pattern hint: it maps the property's declared JSON type to a
// fallback set of acceptable entity labels.
func typeFallbackLabels(t string) []string {
	switch t {
	case "string":
		return []string{
			extract.LabelFilePath, extract.LabelURL, extract.LabelEmail,
			extract.LabelPerson, extract.LabelOrg, extract.LabelGPE, extract.LabelCommand,
		}
	case "integer":
		return []string{extract.LabelCardinal, extract.LabelQuantity}
	case "number":
		return []string{extract.LabelCardinal, extract.LabelMoney, extract.LabelPercent, extract.LabelQuantity}
	default:
		return nil
	}
}

// scoreEntity implements the scoring rule, taking the highest of every
// rule that applies: direct label membership (0.9), enum-value match on
// the entity's text (1.0), and type compatibility (string 0.5, numeric 0.8
// if parseable, boolean 0.9 if a recognized boolean token).
func scoreEntity(paramName string, spec *PropertySpec, e extract.Entity) float64 {
	hints := namePatternHints(paramName)
	if hints == nil && !freeTextParamNames[strings.ToLower(paramName)] {
		hints = typeFallbackLabels(spec.Type)
	}
	best := 0.0
	for _, label := range hints {
		if e.Label == label {
			best = maxF(best, 0.9)
		}
	}
	for _, enumVal := range spec.Enum {
		if s, ok := enumVal.(string); ok && strings.EqualFold(s, e.Text) {
			best = maxF(best, 1.0)
		}
	}
	switch spec.Type {
	case "string", "":
		best = maxF(best, 0.5)
	case "integer", "number":
		if _, ok := parseNumericToken(e.Text); ok {
			best = maxF(best, 0.8)
		}
	case "boolean":
		if isBooleanToken(e.Text) {
			best = maxF(best, 0.9)
		}
	}
	return best
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func parseNumericToken(text string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func isBooleanToken(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "true", "yes", "false", "no", "0", "1":
		return true
	default:
		return false
	}
}

// entityAssignment is one (parameter, entity) pairing chosen by
// assignEntities.
type entityAssignment struct {
	Param string
	Entity extract.Entity
	Score float64
}

// assignEntities implements the global greedy assignment: "each entity
// is consumed at most once across parameters; the highest-scoring
// still-unused entity wins." It scores every (parameter, entity) pair,
// sorts descending by score, and greedily commits non-conflicting pairs.
func assignEntities(schema *Schema, entities []extract.Entity) map[string]extract.Entity {
	var candidates []entityAssignment
	for _, name := range schema.PropertyOrder {
		spec := schema.Properties[name]
		for _, e := range entities {
			if score := scoreEntity(name, spec, e); score > 0 {
				candidates = append(candidates, entityAssignment{Param: name, Entity: e, Score: score})
			}
		}
	}
	sortAssignmentsDesc(candidates)

	assignedParam := map[string]bool{}
	usedEntity := map[int]bool{} // keyed by entity start offset, a cheap identity proxy
	out := map[string]extract.Entity{}
	for _, c := range candidates {
		if assignedParam[c.Param] || usedEntity[c.Entity.Start] {
			continue
		}
		assignedParam[c.Param] = true
		usedEntity[c.Entity.Start] = true
		out[c.Param] = c.Entity
	}
	return out
}

// sortAssignmentsDesc is a stable insertion sort: small N, and it keeps
// candidates in their generated (property-order, entity-order) sequence on
// ties, which keeps the outcome deterministic across repeated runs.
func sortAssignmentsDesc(a []entityAssignment) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j].Score > a[j-1].Score; j-- {
			a[j], a[j-1] = a[j-1], a[j]
		}
	}
}
