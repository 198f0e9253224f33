package framevm

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Type is a class value. Calling it converts or constructs a value of that type.
type Type struct {
	Name string
	Base *Type
	New  func(args []Value, kwargs Kwargs) (Value, error)
}

func (*Type) Kind() Kind { return KindType }

// IsSubtype reports whether t is base or derives from it.
func (t *Type) IsSubtype(base *Type) bool {
	for c := t; c != nil; c = c.Base {
		if c == base {
			return true
		}
	}
	return false
}

var (
	TypeObject   = &Type{Name: "object"}
	TypeNone     = &Type{Name: "NoneType", Base: TypeObject}
	TypeInt      = &Type{Name: "int", Base: TypeObject}
	TypeBool     = &Type{Name: "bool", Base: TypeInt}
	TypeFloat    = &Type{Name: "float", Base: TypeObject}
	TypeStr      = &Type{Name: "str", Base: TypeObject}
	TypeList     = &Type{Name: "list", Base: TypeObject}
	TypeTuple    = &Type{Name: "tuple", Base: TypeObject}
	TypeDict     = &Type{Name: "dict", Base: TypeObject}
	TypeSet      = &Type{Name: "set", Base: TypeObject}
	TypeSlice    = &Type{Name: "slice", Base: TypeObject}
	TypeRange    = &Type{Name: "range", Base: TypeObject}
	TypeFunction = &Type{Name: "function", Base: TypeObject}
	TypeMethod   = &Type{Name: "method", Base: TypeObject}
	TypeBuiltin  = &Type{Name: "builtin_function_or_method", Base: TypeObject}
	TypeIterator = &Type{Name: "iterator", Base: TypeObject}
	TypeCode     = &Type{Name: "code", Base: TypeObject}
	TypeType     = &Type{Name: "type", Base: TypeObject}
)

func init() {
	TypeInt.New = newInt
	TypeBool.New = func(args []Value, kwargs Kwargs) (Value, error) {
		if err := maxArgs("bool", args, kwargs, 1); err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return False, nil
		}
		return Bool(Truth(args[0])), nil
	}
	TypeFloat.New = newFloat
	TypeStr.New = func(args []Value, kwargs Kwargs) (Value, error) {
		if err := maxArgs("str", args, kwargs, 1); err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return Str(""), nil
		}
		return Str(ToStr(args[0])), nil
	}
	TypeList.New = func(args []Value, kwargs Kwargs) (Value, error) {
		if err := maxArgs("list", args, kwargs, 1); err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return NewList(), nil
		}
		elems, err := Elements(args[0])
		if err != nil {
			return nil, err
		}
		return NewList(elems...), nil
	}
	TypeTuple.New = func(args []Value, kwargs Kwargs) (Value, error) {
		if err := maxArgs("tuple", args, kwargs, 1); err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return Tuple{}, nil
		}
		if t, ok := args[0].(Tuple); ok {
			return t, nil
		}
		elems, err := Elements(args[0])
		if err != nil {
			return nil, err
		}
		return Tuple(elems), nil
	}
	TypeSet.New = func(args []Value, kwargs Kwargs) (Value, error) {
		if err := maxArgs("set", args, kwargs, 1); err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return NewSet()
		}
		elems, err := Elements(args[0])
		if err != nil {
			return nil, err
		}
		return NewSet(elems...)
	}
	TypeDict.New = newDict
	TypeSlice.New = func(args []Value, kwargs Kwargs) (Value, error) {
		if len(kwargs) > 0 || len(args) < 1 || len(args) > 3 {
			return nil, &ArityMismatchError{Want: 3, Got: len(args), Detail: "slice expected 1 to 3 arguments"}
		}
		switch len(args) {
		case 1:
			return Slice{Start: None, Stop: args[0], Step: None}, nil
		case 2:
			return Slice{Start: args[0], Stop: args[1], Step: None}, nil
		}
		return Slice{Start: args[0], Stop: args[1], Step: args[2]}, nil
	}
	TypeRange.New = newRange
	TypeType.New = func(args []Value, kwargs Kwargs) (Value, error) {
		if len(args) != 1 || len(kwargs) > 0 {
			return nil, &ArityMismatchError{Want: 1, Got: len(args), Detail: "type() takes 1 argument"}
		}
		return TypeOf(args[0]), nil
	}
}

// TypeOf returns the class of v.
func TypeOf(v Value) *Type {
	switch v.(type) {
	case Bool:
		return TypeBool
	case Int, BigInt:
		return TypeInt
	case Float:
		return TypeFloat
	case Str:
		return TypeStr
	case *List:
		return TypeList
	case Tuple:
		return TypeTuple
	case *Dict:
		return TypeDict
	case *Set:
		return TypeSet
	case Slice:
		return TypeSlice
	case *Range:
		return TypeRange
	case *Function:
		return TypeFunction
	case *BoundMethod:
		return TypeMethod
	case *Builtin:
		return TypeBuiltin
	case *Type:
		return TypeType
	case *Code:
		return TypeCode
	case Iterator:
		return TypeIterator
	}
	return TypeNone
}

// subclassMatch implements the exception match comparison: left is a type, right a type or
// a tuple of types.
func subclassMatch(left, right Value) (bool, error) {
	lt, ok := left.(*Type)
	if !ok {
		return false, unsupported(string(CmpExceptionMatch), left, right)
	}
	switch r := right.(type) {
	case *Type:
		return lt.IsSubtype(r), nil
	case Tuple:
		for _, elem := range r {
			ok, err := subclassMatch(left, elem)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	return false, unsupported(string(CmpExceptionMatch), left, right)
}

// IsInstance reports whether v is an instance of class, or of any class in a tuple.
func IsInstance(v, class Value) (bool, error) {
	return subclassMatch(TypeOf(v), class)
}

func maxArgs(name string, args []Value, kwargs Kwargs, n int) error {
	if len(kwargs) > 0 {
		return &ArityMismatchError{
			Detail: name + "() takes no keyword arguments",
		}
	}
	if len(args) > n {
		return &ArityMismatchError{
			Want:   n,
			Got:    len(args),
			Detail: name + "() takes at most " + strconv.Itoa(n) + " argument(s)",
		}
	}
	return nil
}

func newInt(args []Value, kwargs Kwargs) (Value, error) {
	base := Value(nil)
	if v, ok := kwargs.Get("base"); ok {
		base = v
		kwargs = kwargs.Without("base")
	}
	if err := maxArgs("int", args, kwargs, 2); err != nil {
		return nil, err
	}
	if len(args) == 2 {
		base = args[1]
	}
	if len(args) == 0 {
		return Int(0), nil
	}
	v := args[0]
	if base != nil {
		s, ok := v.(Str)
		if !ok {
			return nil, unsupported("int() with explicit base", v)
		}
		b, ok := ToInt64(base)
		if !ok || b == 1 || b < 0 || b > 36 {
			return nil, &ValueError{Msg: "int() base must be >= 2 and <= 36, or 0"}
		}
		return parseInt(string(s), int(b))
	}
	switch v := v.(type) {
	case Bool:
		if v {
			return Int(1), nil
		}
		return Int(0), nil
	case Int, BigInt:
		return v, nil
	case Float:
		f := float64(v)
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, &ValueError{Msg: "cannot convert float " + floatRepr(f) + " to integer"}
		}
		i, _ := big.NewFloat(math.Trunc(f)).Int(nil)
		return MakeBigInt(i), nil
	case Str:
		return parseInt(string(v), 10)
	}
	return nil, unsupported("int()", v)
}

func parseInt(s string, base int) (Value, error) {
	text := strings.TrimSpace(s)
	digits := strings.ReplaceAll(text, "_", "")
	neg := false
	if strings.HasPrefix(digits, "-") || strings.HasPrefix(digits, "+") {
		neg = digits[0] == '-'
		digits = digits[1:]
	}
	lower := strings.ToLower(digits)
	switch {
	case (base == 0 || base == 16) && strings.HasPrefix(lower, "0x"):
		digits, base = digits[2:], 16
	case (base == 0 || base == 8) && strings.HasPrefix(lower, "0o"):
		digits, base = digits[2:], 8
	case (base == 0 || base == 2) && strings.HasPrefix(lower, "0b"):
		digits, base = digits[2:], 2
	case base == 0:
		base = 10
	}
	i, ok := new(big.Int).SetString(digits, base)
	if !ok || digits == "" {
		return nil, &ValueError{
			Msg: "invalid literal for int() with base " + strconv.Itoa(base) + ": " + Repr(Str(s)),
		}
	}
	if neg {
		i.Neg(i)
	}
	return MakeBigInt(i), nil
}

func newFloat(args []Value, kwargs Kwargs) (Value, error) {
	if err := maxArgs("float", args, kwargs, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return Float(0), nil
	}
	switch v := args[0].(type) {
	case Float:
		return v, nil
	case Bool, Int, BigInt:
		f, _ := floatValue(v)
		return Float(f), nil
	case Str:
		text := strings.ToLower(strings.TrimSpace(string(v)))
		switch strings.TrimLeft(text, "+-") {
		case "inf", "infinity":
			if strings.HasPrefix(text, "-") {
				return Float(math.Inf(-1)), nil
			}
			return Float(math.Inf(1)), nil
		case "nan":
			return Float(math.NaN()), nil
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
		if err != nil {
			return nil, &ValueError{Msg: "could not convert string to float: " + Repr(v)}
		}
		return Float(f), nil
	}
	return nil, unsupported("float()", args[0])
}

func newDict(args []Value, kwargs Kwargs) (Value, error) {
	if len(args) > 1 {
		return nil, &ArityMismatchError{Want: 1, Got: len(args), Detail: "dict expected at most 1 argument"}
	}
	ret := NewDict()
	if len(args) == 1 {
		if d, ok := args[0].(*Dict); ok {
			ret = d.Clone()
		} else {
			pairs, err := Elements(args[0])
			if err != nil {
				return nil, err
			}
			for _, pair := range pairs {
				kv, err := Elements(pair)
				if err != nil {
					return nil, err
				}
				if len(kv) != 2 {
					return nil, &ValueError{Msg: "dictionary update sequence element has length " + strconv.Itoa(len(kv)) + "; 2 is required"}
				}
				if err := ret.Set(kv[0], kv[1]); err != nil {
					return nil, err
				}
			}
		}
	}
	for _, kw := range kwargs {
		if err := ret.Set(Str(kw.Name), kw.Value); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func newRange(args []Value, kwargs Kwargs) (Value, error) {
	if len(kwargs) > 0 || len(args) < 1 || len(args) > 3 {
		return nil, &ArityMismatchError{Want: 3, Got: len(args), Detail: "range expected 1 to 3 arguments"}
	}
	ints := make([]int64, len(args))
	for i, arg := range args {
		n, ok := ToInt64(arg)
		if !ok {
			return nil, unsupported("range()", arg)
		}
		ints[i] = n
	}
	switch len(ints) {
	case 1:
		return NewRange(0, ints[0], 1)
	case 2:
		return NewRange(ints[0], ints[1], 1)
	}
	return NewRange(ints[0], ints[1], ints[2])
}
