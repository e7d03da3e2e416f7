package pipetask

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_NewTaskBuildsFreshVariant(t *testing.T) {
	r := NewRegistry()
	built := 0
	require.NoError(t, r.Register(Descriptor{
		TypeName:    "load",
		VariantName: "s3",
		Parallel:    true,
		New: func() Variant {
			built++
			return &stubVariant{outputs: []Output{{}}}
		},
	}))

	first, err := r.NewTask("load", "s3", WithSink(&recordingSink{}))
	require.NoError(t, err)
	second, err := r.NewTask("load", "s3", WithSink(&recordingSink{}))
	require.NoError(t, err)

	assert.Equal(t, 2, built)
	assert.NotSame(t, first, second)
	assert.True(t, first.IsParallel())
	assert.Equal(t, "load", first.TaskTypeName())
	assert.Equal(t, "s3", first.TaskVariantName())

	first.Run(context.Background(), nil, Input{})
	assert.True(t, first.Status())
	assert.Equal(t, StateCreated, second.State())
}

func TestRegistry_OptionsOverrideDescriptor(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Descriptor{TypeName: "a", VariantName: "b", Parallel: true, New: func() Variant { return &stubVariant{} }}))

	task, err := r.NewTask("a", "b", WithParallel(false), WithLoggingLevel(1))
	require.NoError(t, err)
	assert.False(t, task.IsParallel())
	assert.Equal(t, 1, task.LoggingLevel())
}

func TestRegistry_UnknownVariant(t *testing.T) {
	r := NewRegistry()

	_, err := r.Lookup("missing", "one")
	assert.ErrorIs(t, err, ErrVariantNotFound)
	assert.EqualError(t, err, "no task variant registered: missing/one")

	task, err := r.NewTask("missing", "one")
	assert.Nil(t, task)
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestRegistry_RejectsIncompleteDescriptors(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(Descriptor{VariantName: "x", New: func() Variant { return &stubVariant{} }}))
	assert.Error(t, r.Register(Descriptor{TypeName: "x", New: func() Variant { return &stubVariant{} }}))
	assert.Error(t, r.Register(Descriptor{TypeName: "x", VariantName: "y"}))
	assert.Empty(t, r.Descriptors())
}

func TestRegistry_DescriptorsAreSorted(t *testing.T) {
	r := NewRegistry()
	newStub := func() Variant { return &stubVariant{} }
	require.NoError(t, r.Register(Descriptor{TypeName: "b", VariantName: "one", New: newStub}))
	require.NoError(t, r.Register(Descriptor{TypeName: "a", VariantName: "two", New: newStub}))
	require.NoError(t, r.Register(Descriptor{TypeName: "a", VariantName: "one", New: newStub}))

	var keys []string
	for _, d := range r.Descriptors() {
		keys = append(keys, d.Key())
	}
	assert.Equal(t, []string{"a/one", "a/two", "b/one"}, keys)
}
