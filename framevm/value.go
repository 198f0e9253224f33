package framevm

import (
	"math/big"
	"slices"
)

// Kind tags the variant a Value belongs to.
type Kind uint8

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindStr
	KindList
	KindTuple
	KindDict
	KindSet
	KindSlice
	KindFunction
	KindBoundMethod
	KindBuiltin
	KindType
	KindIterator
	KindRange
	KindCode
	kindNull
)

var kindNames = [...]string{
	KindNone:        "NoneType",
	KindBool:        "bool",
	KindInt:         "int",
	KindFloat:       "float",
	KindStr:         "str",
	KindList:        "list",
	KindTuple:       "tuple",
	KindDict:        "dict",
	KindSet:         "set",
	KindSlice:       "slice",
	KindFunction:    "function",
	KindBoundMethod: "method",
	KindBuiltin:     "builtin_function_or_method",
	KindType:        "type",
	KindIterator:    "iterator",
	KindRange:       "range",
	KindCode:        "code",
	kindNull:        "NULL",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is a runtime value. Every value reports exactly one Kind.
type Value interface {
	Kind() Kind
}

type NoneType struct{}

var None Value = NoneType{}

func (NoneType) Kind() Kind { return KindNone }

type Bool bool

const (
	True  = Bool(true)
	False = Bool(false)
)

func (Bool) Kind() Kind { return KindBool }

type Int int64

func (Int) Kind() Kind { return KindInt }

// BigInt holds integers outside the int64 range. It is never mutated after creation.
type BigInt struct {
	i *big.Int
}

func (BigInt) Kind() Kind { return KindInt }

func (b BigInt) Big() *big.Int {
	return new(big.Int).Set(b.i)
}

// MakeBigInt returns an Int when i fits in int64, a BigInt otherwise.
func MakeBigInt(i *big.Int) Value {
	if i.IsInt64() {
		return Int(i.Int64())
	}
	return BigInt{i: i}
}

type Float float64

func (Float) Kind() Kind { return KindFloat }

type Str string

func (Str) Kind() Kind { return KindStr }

type List struct {
	Elems []Value
}

func NewList(elems ...Value) *List {
	return &List{
		Elems: elems,
	}
}

func (*List) Kind() Kind { return KindList }

type Tuple []Value

func (Tuple) Kind() Kind { return KindTuple }

// Slice is the value produced by BuildSlice. Absent bounds are None.
type Slice struct {
	Start Value
	Stop  Value
	Step  Value
}

func (Slice) Kind() Kind { return KindSlice }

type nullMarker struct{}

// Null is pushed by PushNull to mark a plain call prefix slot.
var Null Value = nullMarker{}

func (nullMarker) Kind() Kind { return kindNull }

// Truth reports the boolean interpretation of v.
func Truth(v Value) bool {
	switch v := v.(type) {
	case NoneType, nullMarker:
		return false
	case Bool:
		return bool(v)
	case Int:
		return v != 0
	case BigInt:
		return v.i.Sign() != 0
	case Float:
		return v != 0
	case Str:
		return v != ""
	case *List:
		return len(v.Elems) > 0
	case Tuple:
		return len(v) > 0
	case *Dict:
		return v.Len() > 0
	case *Set:
		return v.Len() > 0
	case *Range:
		return v.size() > 0
	}
	return true
}

// Len returns the number of elements of a sized value.
func Len(v Value) (int, bool) {
	switch v := v.(type) {
	case Str:
		return len([]rune(v)), true
	case *List:
		return len(v.Elems), true
	case Tuple:
		return len(v), true
	case *Dict:
		return v.Len(), true
	case *Set:
		return v.Len(), true
	case *Range:
		n, ok := v.Len()
		return int(n), ok
	}
	return 0, false
}

// Elements materializes the elements of an iterable value.
func Elements(v Value) ([]Value, error) {
	switch v := v.(type) {
	case *List:
		return slices.Clone(v.Elems), nil
	case Tuple:
		return slices.Clone([]Value(v)), nil
	}
	it, err := GetIter(v)
	if err != nil {
		return nil, err
	}
	var ret []Value
	for {
		elem, ok := it.Next()
		if !ok {
			break
		}
		ret = append(ret, elem)
	}
	return ret, nil
}

func kindOf(v Value) Kind {
	if v == nil {
		return KindNone
	}
	return v.Kind()
}
