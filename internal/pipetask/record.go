package pipetask

import (
	"encoding/json"
	"fmt"
)

// Output is one result record produced by a task. Status is optional; every
// other key of the JSON object lands in Fields.
type Output struct {
	Status *bool
	Fields map[string]any
}

// NewOutput builds an Output carrying an explicit status.
func NewOutput(status bool, fields map[string]any) Output {
	return Output{Status: &status, Fields: fields}
}

// OK reports whether the record explicitly claims success.
func (o Output) OK() bool {
	return o.Status != nil && *o.Status
}

func (o Output) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(o.Fields)+1)
	for k, v := range o.Fields {
		doc[k] = v
	}
	if o.Status != nil {
		doc["status"] = *o.Status
	}
	return json.Marshal(doc)
}

func (o *Output) UnmarshalJSON(data []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("output record must be a JSON object: %w", err)
	}
	o.Status = nil
	if raw, ok := doc["status"]; ok {
		switch v := raw.(type) {
		case bool:
			o.Status = &v
		case nil:
		default:
			return fmt.Errorf("output status must be a boolean, got %T", raw)
		}
		delete(doc, "status")
	}
	o.Fields = nil
	if len(doc) > 0 {
		o.Fields = doc
	}
	return nil
}

// Input is what a task receives: the outputs of the tasks that ran before it
// plus variant specific parameters.
type Input struct {
	Last   []Output       `json:"last"`
	Params map[string]any `json:"params,omitempty"`
}

// StringParam returns Params[key] when it holds a string.
func (in Input) StringParam(key string) (string, bool) {
	v, ok := in.Params[key].(string)
	return v, ok
}
