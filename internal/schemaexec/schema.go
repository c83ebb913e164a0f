// Package schemaexec implements the Schema Executor: it fills a
// JSON-Schema input object from an extraction result with zero knowledge of
// any specific tool, then validates the result against the same schema
// using github.com/santhosh-tekuri/jsonschema/v6.
package schemaexec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PropertySpec describes one property's constraints, extracted from its
// JSON-Schema node.
type PropertySpec struct {
	Name        string
	Type        string
	Enum        []any
	Format      string
	Description string
	Items       *PropertySpec
	Default     any
	HasDefault  bool
	Minimum     *float64
	Maximum     *float64
	MinLength   *int
	MaxLength   *int
	Pattern     string
}

// Schema is the analyzed form of a tool's input JSON-Schema.
type Schema struct {
	PropertyOrder []string
	Properties    map[string]*PropertySpec
	Required      map[string]bool
	Raw           map[string]any
}

// ParseSchema analyzes a JSON-Schema draft-7 object. The property order is
// read directly off the wire bytes (not off the decoded map, whose key
// order Go does not preserve) so the "ordered property table" asks for
// reflects the schema author's intended order.
func ParseSchema(raw []byte) (*Schema, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("schemaexec: parse schema: %w", err)
	}
	order, err := topLevelKeyOrder(raw, "properties")
	if err != nil {
		return nil, err
	}

	s := &Schema{
		PropertyOrder: order,
		Properties:    map[string]*PropertySpec{},
		Required:      map[string]bool{},
		Raw:           doc,
	}
	if reqList, ok := doc["required"].([]any); ok {
		for _, r := range reqList {
			if name, ok := r.(string); ok {
				s.Required[name] = true
			}
		}
	}
	props, _ := doc["properties"].(map[string]any)
	for _, name := range order {
		node, _ := props[name].(map[string]any)
		s.Properties[name] = parsePropertySpec(name, node)
	}
	return s, nil
}

// ParseSchemaMap analyzes a schema already decoded into a map[string]any
// (as stored by the registry). Because Go maps carry no key order, the
// property order falls back to alphabetical — callers that need the
// schema author's original order should go through ParseSchema on the
// tool's raw JSON bytes instead.
func ParseSchemaMap(doc map[string]any) (*Schema, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("schemaexec: remarshal schema: %w", err)
	}
	return ParseSchema(raw)
}

func parsePropertySpec(name string, node map[string]any) *PropertySpec {
	spec := &PropertySpec{Name: name}
	if t, ok := node["type"].(string); ok {
		spec.Type = t
	}
	if enum, ok := node["enum"].([]any); ok {
		spec.Enum = enum
	}
	if f, ok := node["format"].(string); ok {
		spec.Format = f
	}
	if d, ok := node["description"].(string); ok {
		spec.Description = d
	}
	if pat, ok := node["pattern"].(string); ok {
		spec.Pattern = pat
	}
	if def, ok := node["default"]; ok {
		spec.Default = def
		spec.HasDefault = true
	}
	if v, ok := numericField(node, "minimum"); ok {
		spec.Minimum = &v
	}
	if v, ok := numericField(node, "maximum"); ok {
		spec.Maximum = &v
	}
	if v, ok := numericField(node, "minLength"); ok {
		i := int(v)
		spec.MinLength = &i
	}
	if v, ok := numericField(node, "maxLength"); ok {
		i := int(v)
		spec.MaxLength = &i
	}
	if items, ok := node["items"].(map[string]any); ok {
		spec.Items = parsePropertySpec(name+"[]", items)
	}
	return spec
}

func numericField(node map[string]any, key string) (float64, bool) {
	v, ok := node[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// topLevelKeyOrder returns the key order of the object found under the
// given top-level key, by tokenizing the raw JSON rather than relying on a
// decoded map.
func topLevelKeyOrder(raw []byte, topKey string) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("schemaexec: tokenize schema: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		if key == topKey {
			return objectKeyOrder(dec)
		}
		// Skip this key's value entirely.
		if err := skipValue(dec); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func objectKeyOrder(dec *json.Decoder) ([]string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil
	}
	var order []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		order = append(order, key)
		if err := skipValue(dec); err != nil {
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, err
	}
	return order, nil
}

// skipValue consumes one complete JSON value (object, array, or scalar)
// from dec, leaving the decoder positioned after it.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil // scalar already consumed
	}
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	_ = delim
	return nil
}
