package pipetask

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputJSON(t *testing.T) {
	var out Output
	require.NoError(t, json.Unmarshal([]byte(`{"status":true,"path":"/tmp/a","rows":3}`), &out))

	assert.True(t, out.OK())
	assert.Equal(t, map[string]any{"path": "/tmp/a", "rows": float64(3)}, out.Fields)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":true,"path":"/tmp/a","rows":3}`, string(data))
}

func TestOutputJSON_StatusOptional(t *testing.T) {
	var out Output
	require.NoError(t, json.Unmarshal([]byte(`{}`), &out))
	assert.Nil(t, out.Status)
	assert.False(t, out.OK())

	assert.Error(t, json.Unmarshal([]byte(`{"status":"yes"}`), &out))
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &out))
}

func TestInputJSON(t *testing.T) {
	var in Input
	require.NoError(t, json.Unmarshal([]byte(`{"last":[{"status":false},{}],"params":{"code":"print(1)"}}`), &in))

	require.Len(t, in.Last, 2)
	assert.False(t, in.Last[0].OK())
	assert.NotNil(t, in.Last[0].Status)
	assert.Nil(t, in.Last[1].Status)
	code, ok := in.StringParam("code")
	assert.True(t, ok)
	assert.Equal(t, "print(1)", code)
}
