package framevm

import (
	"fmt"
	"math"
)

type noneKey struct{}

type bigKey string

type tupleKey string

// hashKey maps a hashable value to a Go map key. Numbers that compare equal share a key.
func hashKey(v Value) (any, error) {
	switch v := v.(type) {
	case NoneType:
		return noneKey{}, nil
	case Bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case Int:
		return int64(v), nil
	case BigInt:
		return bigKey(v.i.String()), nil
	case Float:
		f := float64(v)
		if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			return int64(f), nil
		}
		return f, nil
	case Str:
		return string(v), nil
	case Tuple:
		keys := make([]any, 0, len(v))
		for _, elem := range v {
			k, err := hashKey(elem)
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
		}
		return tupleKey(fmt.Sprintf("%#v", keys)), nil
	case Slice:
		return nil, unsupported("hash", v)
	case *Function, *BoundMethod, *Builtin, *Type, *Code, *Range:
		return v, nil
	}
	return nil, unsupported("hash", v)
}

// Hashable reports whether v can be used as a Dict key or Set element.
func Hashable(v Value) bool {
	_, err := hashKey(v)
	return err == nil
}

type dictEntry struct {
	Key   Value
	Value Value
}

// Dict maps hashable keys to values and iterates in insertion order.
type Dict struct {
	index   map[any]int
	entries []dictEntry
}

func NewDict() *Dict {
	return &Dict{
		index: make(map[any]int),
	}
}

func (*Dict) Kind() Kind { return KindDict }

func (d *Dict) Len() int {
	return len(d.entries)
}

func (d *Dict) Get(key Value) (Value, bool, error) {
	k, err := hashKey(key)
	if err != nil {
		return nil, false, err
	}
	i, ok := d.index[k]
	if !ok {
		return nil, false, nil
	}
	return d.entries[i].Value, true, nil
}

func (d *Dict) Set(key, value Value) error {
	k, err := hashKey(key)
	if err != nil {
		return err
	}
	if i, ok := d.index[k]; ok {
		d.entries[i].Value = value
		return nil
	}
	if d.index == nil {
		d.index = make(map[any]int)
	}
	d.index[k] = len(d.entries)
	d.entries = append(d.entries, dictEntry{
		Key:   key,
		Value: value,
	})
	return nil
}

func (d *Dict) Delete(key Value) (Value, bool, error) {
	k, err := hashKey(key)
	if err != nil {
		return nil, false, err
	}
	i, ok := d.index[k]
	if !ok {
		return nil, false, nil
	}
	value := d.entries[i].Value
	delete(d.index, k)
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	for j := i; j < len(d.entries); j++ {
		jk, _ := hashKey(d.entries[j].Key)
		d.index[jk] = j
	}
	return value, true, nil
}

func (d *Dict) Keys() []Value {
	ret := make([]Value, 0, len(d.entries))
	for _, e := range d.entries {
		ret = append(ret, e.Key)
	}
	return ret
}

func (d *Dict) Values() []Value {
	ret := make([]Value, 0, len(d.entries))
	for _, e := range d.entries {
		ret = append(ret, e.Value)
	}
	return ret
}

// Items returns (key, value) tuples in insertion order.
func (d *Dict) Items() []Value {
	ret := make([]Value, 0, len(d.entries))
	for _, e := range d.entries {
		ret = append(ret, Tuple{e.Key, e.Value})
	}
	return ret
}

func (d *Dict) Clone() *Dict {
	ret := NewDict()
	for _, e := range d.entries {
		_ = ret.Set(e.Key, e.Value)
	}
	return ret
}

func (d *Dict) Clear() {
	d.index = make(map[any]int)
	d.entries = nil
}

// Set holds unique hashable elements, iterated in insertion order.
type Set struct {
	index map[any]int
	elems []Value
}

func NewSet(elems ...Value) (*Set, error) {
	s := &Set{
		index: make(map[any]int),
	}
	for _, e := range elems {
		if err := s.Add(e); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (*Set) Kind() Kind { return KindSet }

func (s *Set) Len() int {
	return len(s.elems)
}

func (s *Set) Add(v Value) error {
	k, err := hashKey(v)
	if err != nil {
		return err
	}
	if _, ok := s.index[k]; ok {
		return nil
	}
	if s.index == nil {
		s.index = make(map[any]int)
	}
	s.index[k] = len(s.elems)
	s.elems = append(s.elems, v)
	return nil
}

func (s *Set) Contains(v Value) (bool, error) {
	k, err := hashKey(v)
	if err != nil {
		return false, err
	}
	_, ok := s.index[k]
	return ok, nil
}

func (s *Set) Remove(v Value) (bool, error) {
	k, err := hashKey(v)
	if err != nil {
		return false, err
	}
	i, ok := s.index[k]
	if !ok {
		return false, nil
	}
	delete(s.index, k)
	s.elems = append(s.elems[:i], s.elems[i+1:]...)
	for j := i; j < len(s.elems); j++ {
		jk, _ := hashKey(s.elems[j])
		s.index[jk] = j
	}
	return true, nil
}

func (s *Set) Elems() []Value {
	return append([]Value(nil), s.elems...)
}

func (s *Set) Clone() *Set {
	ret, _ := NewSet(s.elems...)
	return ret
}

func setOp(op BinaryOperator, a, b *Set) (Value, error) {
	ret, _ := NewSet()
	switch op {
	case BinaryOr:
		for _, e := range a.elems {
			_ = ret.Add(e)
		}
		for _, e := range b.elems {
			_ = ret.Add(e)
		}
	case BinaryAnd:
		for _, e := range a.elems {
			if ok, _ := b.Contains(e); ok {
				_ = ret.Add(e)
			}
		}
	case BinarySubtract:
		for _, e := range a.elems {
			if ok, _ := b.Contains(e); !ok {
				_ = ret.Add(e)
			}
		}
	case BinaryXor:
		for _, e := range a.elems {
			if ok, _ := b.Contains(e); !ok {
				_ = ret.Add(e)
			}
		}
		for _, e := range b.elems {
			if ok, _ := a.Contains(e); !ok {
				_ = ret.Add(e)
			}
		}
	default:
		return nil, unsupported(op.String(), a, b)
	}
	return ret, nil
}

func isSubset(a, b *Set) bool {
	for _, e := range a.elems {
		if ok, _ := b.Contains(e); !ok {
			return false
		}
	}
	return true
}
