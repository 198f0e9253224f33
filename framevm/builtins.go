package framevm

import (
	"maps"
	"slices"
)

// Names is a mutable scope. Frames share globals by passing the same map.
type Names map[string]Value

func (n Names) Clone() Names {
	ret := make(Names, len(n))
	maps.Copy(ret, n)
	return ret
}

// Builtins is the read-only registry shared by all frames of a VM.
type Builtins struct {
	values map[string]Value
}

func NewBuiltins(values map[string]Value) *Builtins {
	return &Builtins{
		values: maps.Clone(values),
	}
}

func (b *Builtins) Lookup(name string) (Value, bool) {
	if b == nil {
		return nil, false
	}
	v, ok := b.values[name]
	return v, ok
}

// Names returns the sorted registered names.
func (b *Builtins) Names() []string {
	if b == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(b.values))
}

// With returns a new registry holding b's values overridden by extra.
func (b *Builtins) With(extra map[string]Value) *Builtins {
	values := make(map[string]Value)
	if b != nil {
		maps.Copy(values, b.values)
	}
	maps.Copy(values, extra)
	return &Builtins{
		values: values,
	}
}
