package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const personSchema = `{
	"type": "object",
	"properties": { "name": {"type": "string"}, "age": {"type": "integer", "minimum": 0} },
	"required": ["name", "age"]
}`

func TestValidateParams_Valid(t *testing.T) {
	assert.NoError(t, ValidateParams(personSchema, map[string]interface{}{"name": "John Doe", "age": 30}))
}

func TestValidateParams_Invalid(t *testing.T) {
	err := ValidateParams(personSchema, map[string]interface{}{"name": "Test"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "missing properties: 'age'")
	}

	err = ValidateParams(personSchema, map[string]interface{}{"name": "Test", "age": "thirty"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "expected integer, but got string")
	}

	err = ValidateParams(personSchema, map[string]interface{}{"name": "Test", "age": -5})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "must be >= 0 but found -5")
	}
}

func TestValidateParams_EmptySchema(t *testing.T) {
	assert.NoError(t, ValidateParams("", map[string]interface{}{"name": "Test"}))
}

func TestValidateParams_InvalidSchema(t *testing.T) {
	err := ValidateParams(`{"type": "object", "properties": {"name": {"type": "str"}}}`, map[string]interface{}{"name": "Test"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "failed to compile JSON schema")
	}
}

func TestValidateDocument_GoValues(t *testing.T) {
	type person struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	assert.NoError(t, ValidateDocument(personSchema, person{Name: "Ada", Age: 36}))
	assert.NoError(t, ValidateDocument(personSchema, map[string]interface{}{"name": "Ada", "age": 36}))
	assert.Error(t, ValidateDocument(personSchema, person{Name: "Ada", Age: -1}))

	err := ValidateDocument(personSchema, make(chan int))
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "failed to marshal document")
	}
}

func TestValidateParams_NilParams(t *testing.T) {
	codeSchema := `{"type": "object", "required": ["code"]}`
	err := ValidateParams(codeSchema, nil)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "missing properties: 'code'")
	}
	assert.NoError(t, ValidateParams(`{"type": "object"}`, nil))
	assert.NoError(t, ValidateParams("", nil))
}

func TestCompileSchema(t *testing.T) {
	assert.NoError(t, CompileSchema(""))
	assert.NoError(t, CompileSchema(personSchema))
	assert.Error(t, CompileSchema(`{"type": "object"`))
}
