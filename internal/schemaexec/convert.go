package schemaexec

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var urlSchemes = []string{"http://", "https://", "ftp://", "file://"}

// isURLFlagged implements the url-flag test: a property named "url", or
// whose schema declares format=="uri", or whose description mentions
// "url"/"uri", is URL-flagged for both the resolution order's URL-token
// fallback (step c) and the string type-conversion's URL normalization.
func isURLFlagged(name string, spec *PropertySpec) bool {
	if strings.EqualFold(name, "url") {
		return true
	}
	if spec.Format == "uri" || spec.Format == "url" {
		return true
	}
	desc := strings.ToLower(spec.Description)
	return strings.Contains(desc, "url") || strings.Contains(desc, "uri")
}

// normalizeURL implements the string type-conversion URL normalization:
// trim; leave intact if it already carries a recognized scheme; otherwise
// append ".com" when the text has no dot and isn't "localhost"; then
// prefix "https://".
func normalizeURL(text string) string {
	text = strings.TrimSpace(text)
	for _, scheme := range urlSchemes {
		if strings.HasPrefix(text, scheme) {
			return text
		}
	}
	if !strings.Contains(text, ".") && !strings.EqualFold(text, "localhost") {
		text += ".com"
	}
	return "https://" + text
}

// convertValue coerces a raw string (an entity's text, a free-text token,
// or a caller-supplied override) to the JSON type a property's schema
// declares. Values that are already the right Go type (e.g. a caller
// override passed as parsed JSON) pass through unchanged.
func convertValue(raw any, name string, spec *PropertySpec) (any, error) {
	text, isString := raw.(string)
	if !isString {
		return raw, nil
	}
	switch spec.Type {
	case "integer":
		f, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("cannot convert %q to integer: %w", text, err)
		}
		return int64(math.Trunc(f)), nil
	case "number":
		f, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("cannot convert %q to number: %w", text, err)
		}
		return f, nil
	case "boolean":
		switch strings.ToLower(strings.TrimSpace(text)) {
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0":
			return false, nil
		default:
			return nil, fmt.Errorf("cannot convert %q to boolean", text)
		}
	case "array":
		parts := strings.Split(text, ",")
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if spec.Items != nil {
				v, err := convertValue(p, name+"[]", spec.Items)
				if err != nil {
					return nil, err
				}
				out = append(out, v)
				continue
			}
			out = append(out, p)
		}
		return out, nil
	case "null":
		return nil, nil
	case "string", "":
		if isURLFlagged(name, spec) {
			return normalizeURL(text), nil
		}
		return text, nil
	default:
		return text, nil
	}
}
