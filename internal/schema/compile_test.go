package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *Config {
	return &Config{
		Name:        "line_items",
		Description: "Line items on an invoice",
		Fields: []Field{
			{Name: "name", Description: "Item name", Type: Scalar(String)},
			{Name: "price", Description: "Unit price", Type: Scalar(Number)},
			{Name: "taxed", Description: "Whether tax applies", Type: Scalar(Boolean)},
			{Name: "tags", Description: "Free-form labels", Type: ArrayOf(String)},
		},
	}
}

func TestCompileTopLevelShape(t *testing.T) {
	contract := Compile(testSchema())

	assert.Equal(t, "line_items", contract.Name)
	assert.Equal(t, "Line items on an invoice", contract.Description)
	assert.True(t, contract.Strict)

	params := contract.Parameters
	assert.Equal(t, "object", params["type"])
	assert.Equal(t, false, params["additionalProperties"])
	assert.Equal(t, []any{"instances"}, params["required"])

	props, ok := params["properties"].(map[string]any)
	require.True(t, ok)
	instances, ok := props["instances"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "array", instances["type"])
}

func TestCompileItemsRequireEveryField(t *testing.T) {
	contract := Compile(testSchema())

	items := contract.Parameters["properties"].(map[string]any)["instances"].(map[string]any)["items"].(map[string]any)
	assert.Equal(t, "object", items["type"])
	assert.Equal(t, false, items["additionalProperties"])
	assert.ElementsMatch(t, []any{"name", "price", "taxed", "tags"}, items["required"].([]any))

	props := items["properties"].(map[string]any)
	assert.Equal(t, "string", props["name"].(map[string]any)["type"])
	assert.Equal(t, "number", props["price"].(map[string]any)["type"])
	assert.Equal(t, "boolean", props["taxed"].(map[string]any)["type"])
}

func TestCompileArrayFieldItemDescription(t *testing.T) {
	cfg := &Config{
		Fields: []Field{
			{Name: "tags", Description: "Labels", Type: ArrayOf(String)},
			{Name: "scores", Description: "Scores", Type: ArrayOf(Number), ArrayItemDescription: "One score per category"},
		},
	}
	contract := Compile(cfg)
	props := contract.Parameters["properties"].(map[string]any)["instances"].(map[string]any)["items"].(map[string]any)["properties"].(map[string]any)

	tags := props["tags"].(map[string]any)
	assert.Equal(t, "array", tags["type"])
	assert.Equal(t, "An item of type string", tags["items"].(map[string]any)["description"])

	scores := props["scores"].(map[string]any)
	assert.Equal(t, "One score per category", scores["items"].(map[string]any)["description"])
}

func TestCompileAnonymousSchemaUsesDefaultToolName(t *testing.T) {
	cfg := &Config{Fields: []Field{{Name: "x", Type: Scalar(String)}}}
	assert.Equal(t, DefaultToolName, Compile(cfg).Name)
}
