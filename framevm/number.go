package framevm

import (
	"math"
	"math/big"
)

// intValue reports the integer view of Bool, Int and BigInt values.
func intValue(v Value) (small int64, large *big.Int, ok bool) {
	switch v := v.(type) {
	case Bool:
		if v {
			return 1, nil, true
		}
		return 0, nil, true
	case Int:
		return int64(v), nil, true
	case BigInt:
		return 0, v.i, true
	}
	return 0, nil, false
}

func toBig(small int64, large *big.Int) *big.Int {
	if large != nil {
		return large
	}
	return big.NewInt(small)
}

func floatValue(v Value) (float64, bool) {
	switch v := v.(type) {
	case Float:
		return float64(v), true
	case Bool, Int, BigInt:
		small, large, _ := intValue(v)
		if large != nil {
			f, _ := new(big.Float).SetInt(large).Float64()
			return f, true
		}
		return float64(small), true
	}
	return 0, false
}

func isNumber(v Value) bool {
	switch v.(type) {
	case Bool, Int, BigInt, Float:
		return true
	}
	return false
}

// ToInt64 converts integral values to int64.
func ToInt64(v Value) (int64, bool) {
	small, large, ok := intValue(v)
	if !ok {
		return 0, false
	}
	if large != nil {
		if !large.IsInt64() {
			return 0, false
		}
		return large.Int64(), true
	}
	return small, true
}

func numericBinary(op BinaryOperator, l, r Value) (Value, error) {
	_, lf := l.(Float)
	_, rf := r.(Float)
	if lf || rf {
		a, _ := floatValue(l)
		b, _ := floatValue(r)
		return floatBinary(op, a, b)
	}

	as, al, _ := intValue(l)
	bs, bl, _ := intValue(r)
	if al == nil && bl == nil {
		if res, ok, err := smallBinary(op, as, bs); ok || err != nil {
			return res, err
		}
	}
	return bigBinary(op, toBig(as, al), toBig(bs, bl))
}

// smallBinary computes int64 results, reporting ok=false when the result needs a BigInt.
func smallBinary(op BinaryOperator, a, b int64) (Value, bool, error) {
	switch op {
	case BinaryAdd:
		s := a + b
		if (a > 0 && b > 0 && s < 0) || (a < 0 && b < 0 && s >= 0) {
			return nil, false, nil
		}
		return Int(s), true, nil
	case BinarySubtract:
		d := a - b
		if (a >= 0 && b < 0 && d < 0) || (a < 0 && b > 0 && d >= 0) {
			return nil, false, nil
		}
		return Int(d), true, nil
	case BinaryMultiply:
		if a == 0 || b == 0 {
			return Int(0), true, nil
		}
		p := a * b
		if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
			return nil, false, nil
		}
		return Int(p), true, nil
	case BinaryFloorDivide:
		if b == 0 {
			return nil, false, &ZeroDivisionError{Op: "//"}
		}
		if a == math.MinInt64 && b == -1 {
			return nil, false, nil
		}
		q := a / b
		if a%b != 0 && (a < 0) != (b < 0) {
			q--
		}
		return Int(q), true, nil
	case BinaryRemainder:
		if b == 0 {
			return nil, false, &ZeroDivisionError{Op: "%"}
		}
		m := a % b
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return Int(m), true, nil
	case BinaryTrueDivide:
		if b == 0 {
			return nil, false, &ZeroDivisionError{Op: "/"}
		}
		return Float(float64(a) / float64(b)), true, nil
	case BinaryAnd:
		return Int(a & b), true, nil
	case BinaryOr:
		return Int(a | b), true, nil
	case BinaryXor:
		return Int(a ^ b), true, nil
	case BinaryRshift:
		if b < 0 {
			return nil, false, &ValueError{Msg: "negative shift count"}
		}
		if b >= 63 {
			if a < 0 {
				return Int(-1), true, nil
			}
			return Int(0), true, nil
		}
		return Int(a >> b), true, nil
	case BinaryLshift:
		if b < 0 {
			return nil, false, &ValueError{Msg: "negative shift count"}
		}
		if b < 63 {
			s := a << b
			if s>>b == a {
				return Int(s), true, nil
			}
		}
		return nil, false, nil
	case BinaryPower:
		if b < 0 {
			if a == 0 {
				return nil, false, &ZeroDivisionError{Op: "**"}
			}
			return Float(math.Pow(float64(a), float64(b))), true, nil
		}
		return nil, false, nil
	}
	return nil, false, unsupported(op.String(), Int(a), Int(b))
}

func bigBinary(op BinaryOperator, a, b *big.Int) (Value, error) {
	z := new(big.Int)
	switch op {
	case BinaryAdd:
		z.Add(a, b)
	case BinarySubtract:
		z.Sub(a, b)
	case BinaryMultiply:
		z.Mul(a, b)
	case BinaryFloorDivide, BinaryRemainder:
		if b.Sign() == 0 {
			return nil, &ZeroDivisionError{Op: op.String()}
		}
		q, m := new(big.Int), new(big.Int)
		// DivMod is Euclidean; adjust to floor semantics for negative divisors.
		q.DivMod(a, b, m)
		if m.Sign() != 0 && b.Sign() < 0 {
			q.Sub(q, big.NewInt(1))
			m.Add(m, b)
		}
		if op == BinaryFloorDivide {
			return MakeBigInt(q), nil
		}
		return MakeBigInt(m), nil
	case BinaryTrueDivide:
		if b.Sign() == 0 {
			return nil, &ZeroDivisionError{Op: "/"}
		}
		f, _ := new(big.Rat).SetFrac(a, b).Float64()
		return Float(f), nil
	case BinaryAnd:
		z.And(a, b)
	case BinaryOr:
		z.Or(a, b)
	case BinaryXor:
		z.Xor(a, b)
	case BinaryLshift, BinaryRshift:
		if b.Sign() < 0 {
			return nil, &ValueError{Msg: "negative shift count"}
		}
		if !b.IsInt64() || b.Int64() > math.MaxInt32 {
			return nil, &ValueError{Msg: "shift count too large"}
		}
		if op == BinaryLshift {
			z.Lsh(a, uint(b.Int64()))
		} else {
			z.Rsh(a, uint(b.Int64()))
		}
	case BinaryPower:
		if b.Sign() < 0 {
			if a.Sign() == 0 {
				return nil, &ZeroDivisionError{Op: "**"}
			}
			x, _ := new(big.Float).SetInt(a).Float64()
			y, _ := new(big.Float).SetInt(b).Float64()
			return Float(math.Pow(x, y)), nil
		}
		z.Exp(a, b, nil)
	default:
		return nil, unsupported(op.String(), MakeBigInt(a), MakeBigInt(b))
	}
	return MakeBigInt(z), nil
}

func floatBinary(op BinaryOperator, a, b float64) (Value, error) {
	switch op {
	case BinaryAdd:
		return Float(a + b), nil
	case BinarySubtract:
		return Float(a - b), nil
	case BinaryMultiply:
		return Float(a * b), nil
	case BinaryTrueDivide:
		if b == 0 {
			return nil, &ZeroDivisionError{Op: "/"}
		}
		return Float(a / b), nil
	case BinaryFloorDivide:
		if b == 0 {
			return nil, &ZeroDivisionError{Op: "//"}
		}
		div, _ := floatDivmod(a, b)
		return Float(div), nil
	case BinaryRemainder:
		if b == 0 {
			return nil, &ZeroDivisionError{Op: "%"}
		}
		_, mod := floatDivmod(a, b)
		return Float(mod), nil
	case BinaryPower:
		if a == 0 && b < 0 {
			return nil, &ZeroDivisionError{Op: "**"}
		}
		if a < 0 && b != math.Trunc(b) {
			return nil, &ValueError{Msg: "negative number cannot be raised to a fractional power"}
		}
		return Float(math.Pow(a, b)), nil
	}
	return nil, unsupported(op.String(), Float(a), Float(b))
}

// floatDivmod derives the quotient from the floored remainder, so a // b and a % b agree even
// when a / b rounds up to an integer.
func floatDivmod(a, b float64) (div, mod float64) {
	mod = math.Mod(a, b)
	div = (a - mod) / b
	if mod != 0 {
		if (b < 0) != (mod < 0) {
			mod += b
			div -= 1
		}
	} else {
		mod = math.Copysign(0, b)
	}
	if div != 0 {
		floor := math.Floor(div)
		if div-floor > 0.5 {
			floor += 1
		}
		div = floor
	} else {
		div = math.Copysign(0, a/b)
	}
	return div, mod
}

// compareNumbers returns -1, 0 or 1. ok is false when either side is NaN.
func compareNumbers(l, r Value) (int, bool) {
	_, lf := l.(Float)
	_, rf := r.(Float)
	if lf || rf {
		a, _ := floatValue(l)
		b, _ := floatValue(r)
		if math.IsNaN(a) || math.IsNaN(b) {
			return 0, false
		}
		switch {
		case a < b:
			return -1, true
		case a > b:
			return 1, true
		}
		return 0, true
	}
	as, al, _ := intValue(l)
	bs, bl, _ := intValue(r)
	if al == nil && bl == nil {
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		}
		return 0, true
	}
	return toBig(as, al).Cmp(toBig(bs, bl)), true
}

func negate(v Value) (Value, error) {
	switch v := v.(type) {
	case Float:
		return -v, nil
	case Bool, Int, BigInt:
		small, large, _ := intValue(v)
		if large == nil && small != math.MinInt64 {
			return Int(-small), nil
		}
		return MakeBigInt(new(big.Int).Neg(toBig(small, large))), nil
	}
	return nil, unsupported("unary -", v)
}

func invert(v Value) (Value, error) {
	switch v.(type) {
	case Bool, Int, BigInt:
		small, large, _ := intValue(v)
		if large == nil {
			return Int(^small), nil
		}
		return MakeBigInt(new(big.Int).Not(large)), nil
	}
	return nil, unsupported("unary ~", v)
}
