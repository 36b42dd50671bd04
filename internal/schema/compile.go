package schema

import "fmt"

// ToolContract is the strict call contract handed to the extraction backend.
// Parameters is a JSON-Schema (draft 2020-12 subset) as a generic map; the
// same document is used to validate the model's arguments locally.
type ToolContract struct {
	Name        string
	Description string
	Strict      bool
	Parameters  map[string]any
}

// Compile builds the tool contract for a schema. The top level requires a
// single "instances" array; each element is a closed object requiring every
// declared field. Callers must Validate the schema first.
func Compile(cfg *Config) ToolContract {
	properties := make(map[string]any, len(cfg.Fields))
	required := make([]any, 0, len(cfg.Fields))
	for _, f := range cfg.Fields {
		properties[f.Name] = fieldSchema(f)
		required = append(required, f.Name)
	}

	return ToolContract{
		Name:        cfg.ToolName(),
		Description: cfg.Description,
		Strict:      true,
		Parameters: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"required":             []any{"instances"},
			"properties": map[string]any{
				"instances": map[string]any{
					"type":        "array",
					"description": "Array of objects to be generated",
					"items": map[string]any{
						"type":                 "object",
						"additionalProperties": false,
						"required":             required,
						"properties":           properties,
					},
				},
			},
		},
	}
}

func fieldSchema(f Field) map[string]any {
	if f.Type.Array {
		itemDesc := f.ArrayItemDescription
		if itemDesc == "" {
			itemDesc = fmt.Sprintf("An item of type %s", f.Type.Primitive)
		}
		return map[string]any{
			"type":        "array",
			"description": f.Description,
			"items": map[string]any{
				"type":        string(f.Type.Primitive),
				"description": itemDesc,
			},
		}
	}
	return map[string]any{
		"type":        string(f.Type.Primitive),
		"description": f.Description,
	}
}
