package framevm

import (
	"strings"
)

// Compare applies a CompareOp operator and returns a Bool.
func Compare(op Comparison, left, right Value) (Value, error) {
	switch op {
	case CmpEq:
		return Bool(Equal(left, right)), nil
	case CmpNe:
		return Bool(!Equal(left, right)), nil
	case CmpLt, CmpLe, CmpGt, CmpGe:
		ok, err := order(op, left, right)
		if err != nil {
			return nil, err
		}
		return Bool(ok), nil
	case CmpIn, CmpNotIn:
		ok, err := Contains(right, left)
		if err != nil {
			return nil, err
		}
		if op == CmpNotIn {
			ok = !ok
		}
		return Bool(ok), nil
	case CmpIs:
		return Bool(Identical(left, right)), nil
	case CmpIsNot:
		return Bool(!Identical(left, right)), nil
	case CmpExceptionMatch:
		ok, err := subclassMatch(left, right)
		if err != nil {
			return nil, err
		}
		return Bool(ok), nil
	case CmpBad:
		return nil, &InvalidComparisonError{Op: string(op)}
	}
	return nil, &UnsupportedOperationError{
		Op:     "CompareOp",
		Detail: "unknown comparison " + string(op),
	}
}

// Equal is structural equality.
func Equal(a, b Value) bool {
	if isNumber(a) && isNumber(b) {
		c, ok := compareNumbers(a, b)
		return ok && c == 0
	}
	switch a := a.(type) {
	case NoneType:
		_, ok := b.(NoneType)
		return ok
	case Str:
		bs, ok := b.(Str)
		return ok && a == bs
	case *List:
		bl, ok := b.(*List)
		return ok && (a == bl || equalValues(a.Elems, bl.Elems))
	case Tuple:
		bt, ok := b.(Tuple)
		return ok && equalValues(a, bt)
	case *Dict:
		bd, ok := b.(*Dict)
		if !ok || a.Len() != bd.Len() {
			return false
		}
		for _, e := range a.entries {
			v, found, err := bd.Get(e.Key)
			if err != nil || !found || !Equal(e.Value, v) {
				return false
			}
		}
		return true
	case *Set:
		bs, ok := b.(*Set)
		return ok && a.Len() == bs.Len() && isSubset(a, bs)
	case Slice:
		bs, ok := b.(Slice)
		return ok &&
			Equal(a.Start, bs.Start) &&
			Equal(a.Stop, bs.Stop) &&
			Equal(a.Step, bs.Step)
	case *Range:
		br, ok := b.(*Range)
		return ok && equalValues(a.elems(), br.elems())
	}
	return Identical(a, b)
}

func equalValues(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Identical implements the "is" operator.
func Identical(a, b Value) bool {
	switch a := a.(type) {
	case NoneType:
		_, ok := b.(NoneType)
		return ok
	case nullMarker:
		_, ok := b.(nullMarker)
		return ok
	case Bool:
		bb, ok := b.(Bool)
		return ok && a == bb
	case Int:
		bi, ok := b.(Int)
		return ok && a == bi
	case BigInt:
		bi, ok := b.(BigInt)
		return ok && a.i == bi.i
	case Float:
		bf, ok := b.(Float)
		return ok && a == bf
	case Str:
		bs, ok := b.(Str)
		return ok && a == bs
	case Tuple:
		bt, ok := b.(Tuple)
		return ok && len(a) == len(bt) && (len(a) == 0 || &a[0] == &bt[0])
	case Slice, IteratorFunc:
		return false
	}
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	return a == b
}

func order(op Comparison, left, right Value) (bool, error) {
	c, ok, err := compareOrdered(left, right)
	if err != nil {
		return false, &UnsupportedOperationError{
			Op:    string(op),
			Kinds: []Kind{kindOf(left), kindOf(right)},
		}
	}
	if !ok {
		return false, nil
	}
	if ls, isSet := left.(*Set); isSet {
		rs := right.(*Set)
		switch op {
		case CmpLt:
			return ls.Len() < rs.Len() && isSubset(ls, rs), nil
		case CmpLe:
			return isSubset(ls, rs), nil
		case CmpGt:
			return ls.Len() > rs.Len() && isSubset(rs, ls), nil
		case CmpGe:
			return isSubset(rs, ls), nil
		}
	}
	switch op {
	case CmpLt:
		return c < 0, nil
	case CmpLe:
		return c <= 0, nil
	case CmpGt:
		return c > 0, nil
	case CmpGe:
		return c >= 0, nil
	}
	return false, nil
}

// compareOrdered returns the three-way order of two values. ok is false for unordered
// pairs such as NaN operands.
func compareOrdered(left, right Value) (int, bool, error) {
	if isNumber(left) && isNumber(right) {
		c, ok := compareNumbers(left, right)
		return c, ok, nil
	}
	switch l := left.(type) {
	case Str:
		if r, ok := right.(Str); ok {
			return strings.Compare(string(l), string(r)), true, nil
		}
	case *List:
		if r, ok := right.(*List); ok {
			return compareSequences(l.Elems, r.Elems)
		}
	case Tuple:
		if r, ok := right.(Tuple); ok {
			return compareSequences(l, r)
		}
	case *Set:
		if _, ok := right.(*Set); ok {
			return 0, true, nil
		}
	}
	return 0, false, unsupported("<", left, right)
}

func compareSequences(a, b []Value) (int, bool, error) {
	for i := 0; i < len(a) && i < len(b); i++ {
		if Equal(a[i], b[i]) {
			continue
		}
		return compareOrdered(a[i], b[i])
	}
	switch {
	case len(a) < len(b):
		return -1, true, nil
	case len(a) > len(b):
		return 1, true, nil
	}
	return 0, true, nil
}

// Contains implements "item in container".
func Contains(container, item Value) (bool, error) {
	switch c := container.(type) {
	case Str:
		s, ok := item.(Str)
		if !ok {
			return false, unsupported("in", item, container)
		}
		return strings.Contains(string(c), string(s)), nil
	case *List:
		return containsValue(c.Elems, item), nil
	case Tuple:
		return containsValue(c, item), nil
	case *Dict:
		_, ok, err := c.Get(item)
		return ok, err
	case *Set:
		return c.Contains(item)
	case *Range:
		return c.Contains(item), nil
	case Iterator:
		for {
			v, ok := c.Next()
			if !ok {
				return false, nil
			}
			if Equal(v, item) {
				return true, nil
			}
		}
	}
	return false, unsupported("in", item, container)
}

func containsValue(elems []Value, item Value) bool {
	for _, e := range elems {
		if Equal(e, item) {
			return true
		}
	}
	return false
}
