package schemaexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchemaPreservesDeclarationOrder(t *testing.T) {
	raw := []byte(`{
		"type": "object",
		"properties": {
			"zeta": {"type": "string"},
			"alpha": {"type": "integer"},
			"mid": {"type": "boolean"}
		},
		"required": ["alpha"]
	}`)
	schema, err := ParseSchema(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, schema.PropertyOrder)
	assert.True(t, schema.Required["alpha"])
	assert.False(t, schema.Required["zeta"])
}

func TestParseSchemaPropertyFields(t *testing.T) {
	raw := []byte(`{
		"properties": {
			"count": {
				"type": "integer",
				"minimum": 1,
				"maximum": 10,
				"default": 5
			},
			"mode": {
				"type": "string",
				"enum": ["fast", "slow"],
				"description": "execution mode"
			}
		}
	}`)
	schema, err := ParseSchema(raw)
	require.NoError(t, err)

	count := schema.Properties["count"]
	require.NotNil(t, count)
	assert.Equal(t, "integer", count.Type)
	assert.Equal(t, float64(1), *count.Minimum)
	assert.Equal(t, float64(10), *count.Maximum)
	assert.True(t, count.HasDefault)
	assert.Equal(t, float64(5), count.Default)

	mode := schema.Properties["mode"]
	require.NotNil(t, mode)
	assert.Equal(t, []any{"fast", "slow"}, mode.Enum)
	assert.Equal(t, "execution mode", mode.Description)
}

func TestParseSchemaEmptyProperties(t *testing.T) {
	schema, err := ParseSchema([]byte(`{"type": "object"}`))
	require.NoError(t, err)
	assert.Empty(t, schema.PropertyOrder)
	assert.Empty(t, schema.Properties)
}

func TestParseSchemaMapFallsBackToAlphabeticalOrder(t *testing.T) {
	doc := map[string]any{
		"properties": map[string]any{
			"zeta":  map[string]any{"type": "string"},
			"alpha": map[string]any{"type": "string"},
		},
	}
	schema, err := ParseSchemaMap(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, schema.PropertyOrder)
}

func TestParseSchemaInvalidJSON(t *testing.T) {
	_, err := ParseSchema([]byte(`{not valid`))
	assert.Error(t, err)
}
