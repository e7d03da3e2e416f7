package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	_ "github.com/santhosh-tekuri/jsonschema/v5/httploader"
)

// ValidateDocument validates any JSON-serializable Go value against a JSON
// schema string. The value is normalized through encoding/json first so
// structs, ints and nested maps validate the same way their wire form would.
func ValidateDocument(schemaJSON string, doc interface{}) error {
	if schemaJSON == "" {
		return nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document for validation: %w", err)
	}
	var data interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to unmarshal JSON data: %w. Data: %s", err, raw)
	}
	return validate(schemaJSON, data)
}

// ValidateParams validates task params, treating missing params as an empty object.
func ValidateParams(schemaJSON string, params map[string]interface{}) error {
	if params == nil {
		params = map[string]interface{}{}
	}
	return ValidateDocument(schemaJSON, params)
}

func validate(schemaJSON string, data interface{}) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("failed to add schema resource: %w", err)
	}
	sch, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("failed to compile JSON schema: %w. Schema: %s", err, schemaJSON)
	}

	if err := sch.Validate(data); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return fmt.Errorf("JSON data failed validation against schema: %v", validationErr)
		}
		return fmt.Errorf("JSON data failed validation (unexpected error type): %w", err)
	}
	return nil
}

// CompileSchema reports whether schemaJSON is a usable JSON schema.
func CompileSchema(schemaJSON string) error {
	if schemaJSON == "" {
		return nil
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("failed to add schema resource: %w", err)
	}
	if _, err := compiler.Compile("schema.json"); err != nil {
		return fmt.Errorf("failed to compile JSON schema: %w", err)
	}
	return nil
}
