package variants

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipetask-service/internal/pipetask"
)

func TestGateVariant(t *testing.T) {
	yes, no := true, false
	testCases := []struct {
		name       string
		last       []pipetask.Output
		wantStatus bool
	}{
		{name: "all previous succeeded", last: []pipetask.Output{{Status: &yes}, {Status: &yes}}, wantStatus: true},
		{name: "one previous failed", last: []pipetask.Output{{Status: &yes}, {Status: &no}}, wantStatus: false},
		{name: "previous without status", last: []pipetask.Output{{}}, wantStatus: false},
		{name: "nothing ran before", last: nil, wantStatus: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			task := pipetask.New(TypeGate, VariantAllSucceed, &GateVariant{}, pipetask.WithLoggingLevel(0))

			outputs := task.Run(context.Background(), nil, pipetask.Input{Last: tc.last})

			require.NotNil(t, outputs, "a closed gate is not a failure")
			assert.Equal(t, tc.wantStatus, task.Status())
			assert.Empty(t, task.Logs())
		})
	}
}

func TestGateVariant_Kill(t *testing.T) {
	assert.False(t, (&GateVariant{}).Kill())
}
