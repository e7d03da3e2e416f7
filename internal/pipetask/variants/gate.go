package variants

import (
	"context"

	"pipetask-service/internal/pipetask"
)

// GateVariant passes only when every previous output reported success. A
// closed gate yields no outputs, which leaves the task unsuccessful without
// raising an error.
type GateVariant struct{}

func (g *GateVariant) Execute(ctx context.Context, pipeline pipetask.Pipeline, input pipetask.Input) ([]pipetask.Output, error) {
	for _, prev := range input.Last {
		if !prev.OK() {
			return []pipetask.Output{}, nil
		}
	}
	return []pipetask.Output{pipetask.NewOutput(true, map[string]any{"checked": len(input.Last)})}, nil
}

// Kill has nothing to stop; the gate never blocks.
func (g *GateVariant) Kill() bool { return false }
