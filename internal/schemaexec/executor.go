package schemaexec

import (
	"strings"

	"github.com/toolgateway/gateway/internal/extract"
)

// ParamSource records which resolution-order step produced a
// parameter's value, for the Execution Record's provenance trail.
type ParamSource string

const (
	SourceOverride ParamSource = "explicit_override"
	SourceEntity   ParamSource = "entity_match"
	SourceURL      ParamSource = "url_token_fallback"
	SourceFreeText ParamSource = "free_text_fallback"
	SourceCaller   ParamSource = "caller_default"
	SourceSchema   ParamSource = "schema_default"
	SourceUnset    ParamSource = "unset"
)

// BuildResult is the outcome of Assemble filling one tool's parameters.
type BuildResult struct {
	Parameters       map[string]any
	Provenance       map[string]ParamSource
	Missing          []string
	ValidationErrors []ValidationError
	Valid            bool
}

// BuildInput bundles everything the assembler needs to fill one tool's
// parameters.
type BuildInput struct {
	Schema         *Schema
	RawSchema      []byte
	Entities       []extract.Entity
	Tokens         []string // normalized, stopword-filtered tokens, for the URL-token fallback
	NounPhrases    []string
	NormalizedText string
	Overrides      map[string]any
	CallerDefaults map[string]any
}

// urlFallbackStopwords are skipped when scanning tokens for a URL-token
// fallback candidate.
var urlFallbackStopwords = map[string]bool{
	"navigate": true, "go": true, "open": true, "visit": true,
	"browse": true, "to": true, "show": true, "get": true, "fetch": true,
}

// Assemble fills every property of the schema in order, walking this
// resolution order for each: (a) explicit override, (b) entity
// match (via a global greedy assignment across all parameters), (c)
// URL-token fallback, (d) free-text fallback, (e) caller default, (f)
// schema default, (g) unset. It then validates the result against the raw
// schema with jsonschema/v6.
func Assemble(in BuildInput) (*BuildResult, error) {
	result := &BuildResult{
		Parameters: map[string]any{},
		Provenance: map[string]ParamSource{},
	}

	assigned := assignEntities(in.Schema, in.Entities)

	for _, name := range in.Schema.PropertyOrder {
		spec := in.Schema.Properties[name]
		value, source, ok := resolveOne(name, spec, in, assigned)
		if !ok {
			if in.Schema.Required[name] {
				result.Missing = append(result.Missing, name)
			}
			continue
		}
		converted, err := convertValue(value, name, spec)
		if err != nil {
			// A value that fails type conversion is treated as unresolved
			// for this parameter rather than aborting the whole build; it
			// surfaces through Missing so stage 6 can report it.
			if in.Schema.Required[name] {
				result.Missing = append(result.Missing, name)
			}
			continue
		}
		result.Parameters[name] = converted
		result.Provenance[name] = source
	}

	// If any required key is missing, validation is skipped and
	// missing_required stays populated; success is false either way.
	if len(result.Missing) == 0 && in.RawSchema != nil {
		verrs, err := ValidateAgainstSchema(in.RawSchema, result.Parameters)
		if err != nil {
			return nil, err
		}
		result.ValidationErrors = verrs
	}
	result.Valid = len(result.Missing) == 0 && len(result.ValidationErrors) == 0
	return result, nil
}

func resolveOne(name string, spec *PropertySpec, in BuildInput, assigned map[string]extract.Entity) (any, ParamSource, bool) {
	// (a) explicit override
	if v, ok := in.Overrides[name]; ok {
		return v, SourceOverride, true
	}
	// (b) best matching entity, from the global greedy assignment
	if e, ok := assigned[name]; ok {
		return e.Text, SourceEntity, true
	}
	// (c) URL-token fallback
	if isURLFlagged(name, spec) {
		if tok, ok := firstURLToken(in.Tokens); ok {
			return tok, SourceURL, true
		}
	}
	// (d) free-text fallback
	if spec.Type == "string" || spec.Type == "" {
		if freeTextParamNames[strings.ToLower(name)] {
			if len(in.NounPhrases) > 0 {
				return strings.Join(in.NounPhrases, " "), SourceFreeText, true
			}
			if in.NormalizedText != "" {
				return in.NormalizedText, SourceFreeText, true
			}
		}
	}
	// (e) caller default
	if v, ok := in.CallerDefaults[name]; ok {
		return v, SourceCaller, true
	}
	// (f) schema default
	if spec.HasDefault {
		return spec.Default, SourceSchema, true
	}
	// (g) unset
	return nil, SourceUnset, false
}

// firstURLToken scans tokens (already stopword-filtered) for the first one
// that isn't an extra navigation verb and isn't shorter than 3 characters.
func firstURLToken(tokens []string) (string, bool) {
	for _, tok := range tokens {
		lower := strings.ToLower(tok)
		if len(tok) < 3 {
			continue
		}
		if urlFallbackStopwords[lower] {
			continue
		}
		return normalizeURL(tok), true
	}
	return "", false
}
