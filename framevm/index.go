package framevm

import (
	"slices"
)

// Subscript implements container[key].
func Subscript(container, key Value) (Value, error) {
	if s, ok := key.(Slice); ok {
		return sliceGet(container, s)
	}
	switch c := container.(type) {
	case *List:
		i, err := sequenceIndex(c, key, len(c.Elems))
		if err != nil {
			return nil, err
		}
		return c.Elems[i], nil
	case Tuple:
		i, err := sequenceIndex(c, key, len(c))
		if err != nil {
			return nil, err
		}
		return c[i], nil
	case Str:
		runes := []rune(c)
		i, err := sequenceIndex(c, key, len(runes))
		if err != nil {
			return nil, err
		}
		return Str(runes[i]), nil
	case *Range:
		n, err := rangeLen(c)
		if err != nil {
			return nil, err
		}
		i, err := sequenceIndex(c, key, n)
		if err != nil {
			return nil, err
		}
		return c.At(int64(i)), nil
	case *Dict:
		v, ok, err := c.Get(key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &KeyLookupError{Key: key}
		}
		return v, nil
	}
	return nil, unsupported("[]", container, key)
}

// SetSubscript implements container[key] = value.
func SetSubscript(container, key, value Value) error {
	if s, ok := key.(Slice); ok {
		return sliceSet(container, s, value)
	}
	switch c := container.(type) {
	case *List:
		i, err := sequenceIndex(c, key, len(c.Elems))
		if err != nil {
			return err
		}
		c.Elems[i] = value
		return nil
	case *Dict:
		return c.Set(key, value)
	}
	return unsupported("[]=", container, key)
}

// DelSubscript implements del container[key].
func DelSubscript(container, key Value) error {
	switch c := container.(type) {
	case *List:
		if s, ok := key.(Slice); ok {
			start, stop, step, err := s.Indices(len(c.Elems))
			if err != nil {
				return err
			}
			drop := make(map[int]bool)
			for _, i := range sliceRange(start, stop, step) {
				drop[i] = true
			}
			kept := c.Elems[:0:0]
			for i, e := range c.Elems {
				if !drop[i] {
					kept = append(kept, e)
				}
			}
			c.Elems = kept
			return nil
		}
		i, err := sequenceIndex(c, key, len(c.Elems))
		if err != nil {
			return err
		}
		c.Elems = slices.Delete(c.Elems, i, i+1)
		return nil
	case *Dict:
		_, ok, err := c.Delete(key)
		if err != nil {
			return err
		}
		if !ok {
			return &KeyLookupError{Key: key}
		}
		return nil
	}
	return unsupported("del []", container, key)
}

func sequenceIndex(container, key Value, length int) (int, error) {
	n, ok := ToInt64(key)
	if !ok {
		return 0, unsupported("[]", container, key)
	}
	i := n
	if i < 0 {
		i += int64(length)
	}
	if i < 0 || i >= int64(length) {
		return 0, &IndexRangeError{
			Kind:  container.Kind(),
			Index: int(n),
		}
	}
	return int(i), nil
}

// Indices resolves the slice against a sequence of the given length, clamping bounds the way
// Python does.
func (s Slice) Indices(length int) (start, stop, step int, err error) {
	step = 1
	if s.Step != nil && s.Step != None {
		n, ok := ToInt64(s.Step)
		if !ok {
			return 0, 0, 0, unsupported("slice", s.Step)
		}
		if n == 0 {
			return 0, 0, 0, &ValueError{Msg: "slice step cannot be zero"}
		}
		step = int(n)
	}

	lower, upper := 0, length
	if step < 0 {
		lower, upper = -1, length-1
	}

	bound := func(v Value, def int) (int, error) {
		if v == nil || v == None {
			return def, nil
		}
		n, ok := ToInt64(v)
		if !ok {
			return 0, unsupported("slice", v)
		}
		i := int(n)
		if i < 0 {
			i += length
			if i < lower {
				i = lower
			}
		} else if i > upper {
			i = upper
		}
		return i, nil
	}

	if step > 0 {
		start, err = bound(s.Start, lower)
		if err != nil {
			return
		}
		stop, err = bound(s.Stop, upper)
	} else {
		start, err = bound(s.Start, upper)
		if err != nil {
			return
		}
		stop, err = bound(s.Stop, lower)
	}
	return
}

func sliceRange(start, stop, step int) []int {
	var ret []int
	if step > 0 {
		for i := start; i < stop; i += step {
			ret = append(ret, i)
		}
	} else {
		for i := start; i > stop; i += step {
			ret = append(ret, i)
		}
	}
	return ret
}

func pick(elems []Value, s Slice) ([]Value, error) {
	start, stop, step, err := s.Indices(len(elems))
	if err != nil {
		return nil, err
	}
	idx := sliceRange(start, stop, step)
	ret := make([]Value, 0, len(idx))
	for _, i := range idx {
		ret = append(ret, elems[i])
	}
	return ret, nil
}

func sliceGet(container Value, s Slice) (Value, error) {
	switch c := container.(type) {
	case *List:
		elems, err := pick(c.Elems, s)
		if err != nil {
			return nil, err
		}
		return NewList(elems...), nil
	case Tuple:
		elems, err := pick(c, s)
		if err != nil {
			return nil, err
		}
		return Tuple(elems), nil
	case Str:
		runes := []rune(c)
		start, stop, step, err := s.Indices(len(runes))
		if err != nil {
			return nil, err
		}
		idx := sliceRange(start, stop, step)
		ret := make([]rune, 0, len(idx))
		for _, i := range idx {
			ret = append(ret, runes[i])
		}
		return Str(ret), nil
	case *Range:
		l, err := rangeLen(c)
		if err != nil {
			return nil, err
		}
		start, stop, step, err := s.Indices(l)
		if err != nil {
			return nil, err
		}
		n := int64(len(sliceRange(start, stop, step)))
		first := c.Start + int64(start)*c.Step
		return &Range{
			Start: first,
			Stop:  first + n*c.Step*int64(step),
			Step:  c.Step * int64(step),
		}, nil
	}
	return nil, unsupported("[:]", container)
}

func sliceSet(container Value, s Slice, value Value) error {
	l, ok := container.(*List)
	if !ok {
		return unsupported("[:]=", container, value)
	}
	elems, err := Elements(value)
	if err != nil {
		return err
	}
	start, stop, step, err := s.Indices(len(l.Elems))
	if err != nil {
		return err
	}
	if step == 1 {
		if stop < start {
			stop = start
		}
		l.Elems = slices.Concat(l.Elems[:start:start], elems, l.Elems[stop:])
		return nil
	}
	idx := sliceRange(start, stop, step)
	if len(idx) != len(elems) {
		return &ArityMismatchError{
			Want:   len(idx),
			Got:    len(elems),
			Detail: "extended slice assignment size mismatch",
		}
	}
	for j, i := range idx {
		l.Elems[i] = elems[j]
	}
	return nil
}

func rangeLen(r *Range) (int, error) {
	n, ok := r.Len()
	if !ok {
		return 0, &ValueError{Msg: "range has too many elements"}
	}
	return int(n), nil
}
