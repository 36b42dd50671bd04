package schema

import (
	"fmt"

	"github.com/tanjoen/forenaide/internal/common"
)

// Primitive is the scalar type of an extraction field.
type Primitive string

const (
	String  Primitive = "string"
	Number  Primitive = "number"
	Boolean Primitive = "boolean"
)

func (p Primitive) Valid() bool {
	switch p {
	case String, Number, Boolean:
		return true
	}
	return false
}

// FieldType is a primitive, optionally wrapped in an array.
type FieldType struct {
	Primitive Primitive `json:"primitive"`
	Array     bool      `json:"array,omitempty"`
}

func Scalar(p Primitive) FieldType  { return FieldType{Primitive: p} }
func ArrayOf(p Primitive) FieldType { return FieldType{Primitive: p, Array: true} }

// Field declares one column of the extraction output.
type Field struct {
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	Type                 FieldType `json:"type"`
	ArrayItemDescription string    `json:"array_item_description,omitempty"`
}

// Config is a user-declared extraction schema: the ordered set of fields
// every extracted row must carry.
type Config struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Fields      []Field `json:"fields"`
}

// DefaultToolName is used when a schema does not name its tool.
const DefaultToolName = "extraction_tool"

// RowInstance is one extracted record: field name -> value shaped per the
// field's declared type.
type RowInstance map[string]any

// Validate checks the schema invariants: at least one field, unique names,
// known primitives.
func (c *Config) Validate() error {
	if len(c.Fields) == 0 {
		return common.NewAppError("SCHEMA_EMPTY", "schema requires at least one field", common.ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(c.Fields))
	for _, f := range c.Fields {
		if f.Name == "" {
			return common.NewAppError("SCHEMA_FIELD_NAME", "field name is required", common.ErrInvalidInput)
		}
		if _, dup := seen[f.Name]; dup {
			return common.NewAppError("SCHEMA_FIELD_DUP", fmt.Sprintf("duplicate field name %q", f.Name), common.ErrInvalidInput)
		}
		seen[f.Name] = struct{}{}
		if !f.Type.Primitive.Valid() {
			return common.NewAppError("SCHEMA_FIELD_TYPE", fmt.Sprintf("field %q has unknown primitive %q", f.Name, f.Type.Primitive), common.ErrInvalidInput)
		}
	}
	return nil
}

// ToolName returns the declared tool name or the default.
func (c *Config) ToolName() string {
	if c.Name == "" {
		return DefaultToolName
	}
	return c.Name
}
