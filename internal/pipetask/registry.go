package pipetask

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

var ErrVariantNotFound = errors.New("no task variant registered")

// Descriptor is the static identity of a variant plus a constructor that
// yields a fresh instance per execution.
type Descriptor struct {
	TypeName    string
	VariantName string
	Parallel    bool
	// ParamSchema is the JSON schema Input.Params must satisfy. Empty means
	// anything goes.
	ParamSchema string
	New         func() Variant
}

func (d Descriptor) Key() string {
	return Key(d.TypeName, d.VariantName)
}

func Key(typeName, variantName string) string {
	return typeName + "/" + variantName
}

type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
}

func NewRegistry() *Registry {
	return &Registry{descriptors: make(map[string]Descriptor)}
}

// Register adds or replaces a variant.
func (r *Registry) Register(d Descriptor) error {
	if d.TypeName == "" || d.VariantName == "" {
		return fmt.Errorf("task variant needs both a type name and a variant name, got %q", d.Key())
	}
	if d.New == nil {
		return fmt.Errorf("task variant %s has no constructor", d.Key())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.descriptors[d.Key()]; exists {
		hlog.Warnf("Replacing task variant %s", d.Key())
	}
	r.descriptors[d.Key()] = d
	return nil
}

func (r *Registry) Lookup(typeName, variantName string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[Key(typeName, variantName)]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrVariantNotFound, Key(typeName, variantName))
	}
	return d, nil
}

// Descriptors lists every variant ordered by key.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// NewTask builds a Task around a fresh instance of the variant. Options are
// applied after the descriptor defaults.
func (r *Registry) NewTask(typeName, variantName string, opts ...Option) (*Task, error) {
	d, err := r.Lookup(typeName, variantName)
	if err != nil {
		return nil, err
	}
	all := append([]Option{WithParallel(d.Parallel)}, opts...)
	return New(d.TypeName, d.VariantName, d.New(), all...), nil
}
