// Package variants holds the task variants shipped with the worker.
package variants

import (
	"fmt"

	"pipetask-service/internal/pipetask"
)

// Type and variant names of the built-in tasks.
const (
	TypeEcho          = "echo"
	VariantEchoPlain  = "default"
	TypeScript        = "script"
	VariantPython     = "python"
	TypeGate          = "gate"
	VariantAllSucceed = "all-succeeded"
)

const pythonParamSchema = `{
	"type": "object",
	"properties": {
		"code": {"type": "string", "minLength": 1},
		"timeout_seconds": {"type": "number", "exclusiveMinimum": 0}
	},
	"required": ["code"]
}`

// Builtin returns the descriptors of every built-in variant.
func Builtin() []pipetask.Descriptor {
	return []pipetask.Descriptor{
		{
			TypeName:    TypeEcho,
			VariantName: VariantEchoPlain,
			Parallel:    true,
			ParamSchema: `{"type": "object"}`,
			New:         func() pipetask.Variant { return NewEchoVariant(0) },
		},
		{
			TypeName:    TypeScript,
			VariantName: VariantPython,
			ParamSchema: pythonParamSchema,
			New:         func() pipetask.Variant { return NewPythonVariant() },
		},
		{
			TypeName:    TypeGate,
			VariantName: VariantAllSucceed,
			Parallel:    true,
			New:         func() pipetask.Variant { return &GateVariant{} },
		},
	}
}

// Register adds the built-in variants to r.
func Register(r *pipetask.Registry) error {
	for _, d := range Builtin() {
		if err := r.Register(d); err != nil {
			return fmt.Errorf("failed to register %s: %w", d.Key(), err)
		}
	}
	return nil
}
