package framevm

import "math"

// Iterator is a one-shot cursor. Next reports false on exhaustion.
type Iterator interface {
	Value
	Next() (Value, bool)
}

// GetIter returns an iterator over v. Iterators iterate themselves.
func GetIter(v Value) (Iterator, error) {
	switch v := v.(type) {
	case Iterator:
		return v, nil
	case *List:
		return &listIterator{
			list: v,
		}, nil
	case Tuple:
		return &sliceIterator{
			elems: v,
		}, nil
	case Str:
		runes := []rune(v)
		elems := make([]Value, 0, len(runes))
		for _, r := range runes {
			elems = append(elems, Str(r))
		}
		return &sliceIterator{
			elems: elems,
		}, nil
	case *Dict:
		return &sliceIterator{
			elems: v.Keys(),
		}, nil
	case *Set:
		return &sliceIterator{
			elems: v.Elems(),
		}, nil
	case *Range:
		return &rangeIterator{
			r: v,
		}, nil
	}
	return nil, unsupported("iter", v)
}

// listIterator observes appends made to the list during iteration.
type listIterator struct {
	list *List
	i    int
}

func (*listIterator) Kind() Kind { return KindIterator }

func (l *listIterator) Next() (Value, bool) {
	if l.i >= len(l.list.Elems) {
		return nil, false
	}
	v := l.list.Elems[l.i]
	l.i++
	return v, true
}

type sliceIterator struct {
	elems []Value
	i     int
}

func (*sliceIterator) Kind() Kind { return KindIterator }

func (s *sliceIterator) Next() (Value, bool) {
	if s.i >= len(s.elems) {
		return nil, false
	}
	v := s.elems[s.i]
	s.i++
	return v, true
}

type rangeIterator struct {
	r *Range
	i uint64
}

func (*rangeIterator) Kind() Kind { return KindIterator }

func (r *rangeIterator) Next() (Value, bool) {
	if r.i >= r.r.size() {
		return nil, false
	}
	v := r.r.at(r.i)
	r.i++
	return v, true
}

// IteratorFunc adapts a function to Iterator. Host builtins like zip and enumerate use it.
type IteratorFunc func() (Value, bool)

func (IteratorFunc) Kind() Kind { return KindIterator }

func (f IteratorFunc) Next() (Value, bool) {
	return f()
}

// Range is the lazy integer sequence returned by range().
type Range struct {
	Start int64
	Stop  int64
	Step  int64
}

func NewRange(start, stop, step int64) (*Range, error) {
	if step == 0 {
		return nil, &ValueError{Msg: "range() arg 3 must not be zero"}
	}
	return &Range{
		Start: start,
		Stop:  stop,
		Step:  step,
	}, nil
}

func (*Range) Kind() Kind { return KindRange }

// size counts the elements in unsigned arithmetic, so spans wider than math.MaxInt64 stay exact.
func (r *Range) size() uint64 {
	switch {
	case r.Step > 0 && r.Start < r.Stop:
		span := uint64(r.Stop) - uint64(r.Start)
		return (span-1)/uint64(r.Step) + 1
	case r.Step < 0 && r.Start > r.Stop:
		span := uint64(r.Start) - uint64(r.Stop)
		return (span-1)/(0-uint64(r.Step)) + 1
	}
	return 0
}

// Len is the element count, or false when it does not fit in an int64.
func (r *Range) Len() (int64, bool) {
	n := r.size()
	if n > math.MaxInt64 {
		return 0, false
	}
	return int64(n), true
}

// At returns the i-th element. i must be within [0, Len()).
func (r *Range) At(i int64) Value {
	return r.at(uint64(i))
}

func (r *Range) at(i uint64) Value {
	return Int(int64(uint64(r.Start) + i*uint64(r.Step)))
}

func (r *Range) Contains(v Value) bool {
	n, ok := ToInt64(v)
	if !ok {
		if f, isFloat := v.(Float); isFloat && float64(f) == float64(int64(f)) {
			n = int64(f)
		} else {
			return false
		}
	}
	if r.Step > 0 && (n < r.Start || n >= r.Stop) {
		return false
	}
	if r.Step < 0 && (n > r.Start || n <= r.Stop) {
		return false
	}
	if r.Step > 0 {
		return (uint64(n)-uint64(r.Start))%uint64(r.Step) == 0
	}
	return (uint64(r.Start)-uint64(n))%(0-uint64(r.Step)) == 0
}

func (r *Range) elems() []Value {
	n := r.size()
	ret := make([]Value, 0, min(n, 1<<20))
	for i := range n {
		ret = append(ret, r.at(i))
	}
	return ret
}
