package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/tanjoen/forenaide/internal/common"
)

// ValidateResponse checks the model's tool arguments against the contract and
// returns the decoded row instances. Any shape mismatch surfaces as
// common.ErrSchemaValidation.
func ValidateResponse(contract ToolContract, data []byte) ([]RowInstance, error) {
	compiled, err := compileJSONSchema(contract.Parameters)
	if err != nil {
		return nil, fmt.Errorf("compile contract: %w", err)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: arguments are not valid json: %v", common.ErrSchemaValidation, err)
	}
	if err := compiled.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSchemaValidation, err)
	}

	// Shape is guaranteed by the schema past this point.
	obj := v.(map[string]any)
	raw := obj["instances"].([]any)
	rows := make([]RowInstance, 0, len(raw))
	for _, item := range raw {
		rows = append(rows, RowInstance(item.(map[string]any)))
	}
	return rows, nil
}

func compileJSONSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("contract.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("contract.json")
}
