package schemaexec

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/toolgateway/gateway/internal/extract"
)

func TestScoreEntityNameHintBeatsTypeFallback(t *testing.T) {
	spec := &PropertySpec{Type: "string"}
	pathEntity := extract.Entity{Text: "/var/log/app.log", Label: extract.LabelFilePath}
	score := scoreEntity("file_path", spec, pathEntity)
	assert.Equal(t, 0.9, score)
}

func TestScoreEntityEnumMatchWins(t *testing.T) {
	spec := &PropertySpec{Type: "string", Enum: []any{"fast", "slow"}}
	entity := extract.Entity{Text: "Fast", Label: extract.LabelOrg}
	assert.Equal(t, 1.0, scoreEntity("mode", spec, entity))
}

func TestScoreEntityNumericTypeCompatibility(t *testing.T) {
	spec := &PropertySpec{Type: "integer"}
	entity := extract.Entity{Text: "42", Label: extract.LabelQuantity}
	assert.Equal(t, 0.8, scoreEntity("count", spec, entity))
}

func TestScoreEntityNoMatch(t *testing.T) {
	spec := &PropertySpec{Type: "boolean"}
	entity := extract.Entity{Text: "not a boolean", Label: extract.LabelPerson}
	assert.Equal(t, 0.0, scoreEntity("enabled", spec, entity))
}

func TestAssignEntitiesGlobalGreedyAssignment(t *testing.T) {
	schema := &Schema{
		PropertyOrder: []string{"path", "url"},
		Properties: map[string]*PropertySpec{
			"path": {Type: "string"},
			"url":  {Type: "string"},
		},
	}
	entities := []extract.Entity{
		{Text: "/tmp/data", Label: extract.LabelFilePath, Start: 0},
		{Text: "http://example.com", Label: extract.LabelURL, Start: 20},
	}
	assigned := assignEntities(schema, entities)
	assert.Equal(t, "/tmp/data", assigned["path"].Text)
	assert.Equal(t, "http://example.com", assigned["url"].Text)
}

func TestAssignEntitiesEachEntityUsedAtMostOnce(t *testing.T) {
	schema := &Schema{
		PropertyOrder: []string{"first", "second"},
		Properties: map[string]*PropertySpec{
			"first":  {Type: "string"},
			"second": {Type: "string"},
		},
	}
	entities := []extract.Entity{
		{Text: "only-one", Label: extract.LabelPerson, Start: 0},
	}
	assigned := assignEntities(schema, entities)
	assert.Len(t, assigned, 1)
}
