package schemaexec

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError is one schema-validation failure, reported with a JSON
// pointer so callers can point at the exact offending field.
type ValidationError struct {
	Path    string
	Message string
}

// ValidateAgainstSchema compiles rawSchema and validates params against it:
// unmarshal both documents, build a one-off jsonschema/v6 compiler, then
// validate. Compilers are built fresh per call rather than cached, since
// tool schemas are small and validated far less often than extraction runs.
func ValidateAgainstSchema(rawSchema []byte, params map[string]any) ([]ValidationError, error) {
	if len(rawSchema) == 0 {
		return nil, nil
	}
	var schemaDoc any
	if err := json.Unmarshal(rawSchema, &schemaDoc); err != nil {
		return nil, fmt.Errorf("schemaexec: unmarshal schema: %w", err)
	}
	payload, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("schemaexec: marshal params: %w", err)
	}
	var payloadDoc any
	if err := json.Unmarshal(payload, &payloadDoc); err != nil {
		return nil, fmt.Errorf("schemaexec: unmarshal params: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("schemaexec: add schema resource: %w", err)
	}
	schema, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("schemaexec: compile schema: %w", err)
	}

	if err := schema.Validate(payloadDoc); err != nil {
		return flattenValidationError(err), nil
	}
	return nil, nil
}

// flattenValidationError walks a jsonschema/v6 *ValidationError tree (it
// nests causes for every sub-schema that failed) into a flat list of
// leaf failures, each tagged with the JSON pointer path to the offending
// instance location.
func flattenValidationError(err error) []ValidationError {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []ValidationError{{Path: "", Message: err.Error()}}
	}
	var out []ValidationError
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			path := "/" + joinPointer(e.InstanceLocation)
			out = append(out, ValidationError{Path: path, Message: e.Error()})
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return out
}

func joinPointer(segments []string) string {
	out := ""
	for i, s := range segments {
		if i > 0 {
			out += "/"
		}
		out += s
	}
	return out
}
