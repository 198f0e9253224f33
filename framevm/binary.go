package framevm

import (
	"slices"
	"strings"
)

// Binary applies a BinaryOp operator to left and right.
func Binary(op BinaryOperator, left, right Value) (Value, error) {
	if !op.Valid() {
		return nil, &UnsupportedOperationError{
			Op:     "BinaryOp",
			Detail: "unknown binary operator " + op.String(),
		}
	}
	plain := op.Plain()

	if isNumber(left) && isNumber(right) {
		if plain == BinaryMatrixMultiply {
			return nil, unsupported(op.String(), left, right)
		}
		return numericBinary(plain, left, right)
	}

	switch l := left.(type) {

	case Str:
		switch plain {
		case BinaryAdd:
			if r, ok := right.(Str); ok {
				return l + r, nil
			}
		case BinaryMultiply:
			if n, ok := repeatCount(right); ok {
				return Str(strings.Repeat(string(l), n)), nil
			}
		case BinaryRemainder:
			return percentFormat(l, right)
		}

	case *List:
		switch plain {
		case BinaryAdd:
			if op != plain {
				// in-place add extends the receiver, which aliases observe
				elems, err := Elements(right)
				if err != nil {
					return nil, unsupported(op.String(), left, right)
				}
				l.Elems = append(l.Elems, elems...)
				return l, nil
			}
			if r, ok := right.(*List); ok {
				return NewList(slices.Concat(l.Elems, r.Elems)...), nil
			}
		case BinaryMultiply:
			if n, ok := repeatCount(right); ok {
				return NewList(repeatValues(l.Elems, n)...), nil
			}
		}

	case Tuple:
		switch plain {
		case BinaryAdd:
			if r, ok := right.(Tuple); ok {
				return Tuple(slices.Concat(l, r)), nil
			}
		case BinaryMultiply:
			if n, ok := repeatCount(right); ok {
				return Tuple(repeatValues(l, n)), nil
			}
		}

	case *Set:
		if r, ok := right.(*Set); ok {
			switch plain {
			case BinaryOr, BinaryAnd, BinaryXor, BinarySubtract:
				return setOp(plain, l, r)
			}
		}

	case *Dict:
		if r, ok := right.(*Dict); ok && plain == BinaryOr {
			ret := l.Clone()
			for _, e := range r.entries {
				if err := ret.Set(e.Key, e.Value); err != nil {
					return nil, err
				}
			}
			return ret, nil
		}

	case Bool, Int, BigInt:
		if plain == BinaryMultiply {
			if n, ok := repeatCount(left); ok {
				switch r := right.(type) {
				case Str:
					return Str(strings.Repeat(string(r), n)), nil
				case *List:
					return NewList(repeatValues(r.Elems, n)...), nil
				case Tuple:
					return Tuple(repeatValues(r, n)), nil
				}
			}
		}

	}

	return nil, unsupported(op.String(), left, right)
}

func repeatCount(v Value) (int, bool) {
	n, ok := ToInt64(v)
	if !ok {
		return 0, false
	}
	if n < 0 {
		n = 0
	}
	return int(n), true
}

func repeatValues(elems []Value, n int) []Value {
	ret := make([]Value, 0, len(elems)*n)
	for range n {
		ret = append(ret, elems...)
	}
	return ret
}

// Unary applies one of the unary opcodes.
func Unary(op Opcode, v Value) (Value, error) {
	switch op {
	case OpUnaryNot:
		return Bool(!Truth(v)), nil
	case OpUnaryNegative:
		return negate(v)
	case OpUnaryInvert:
		return invert(v)
	}
	return nil, unsupported(op.String(), v)
}
