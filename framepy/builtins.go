package framepy

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/reusee/pyframe/framevm"
)

func unsupported(op string, operands ...framevm.Value) error {
	kinds := make([]framevm.Kind, 0, len(operands))
	for _, v := range operands {
		kinds = append(kinds, v.Kind())
	}
	return &framevm.UnsupportedOperationError{
		Op:    op,
		Kinds: kinds,
	}
}

var Print = &framevm.Builtin{
	Name: "print",
	Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		sep, end := " ", "\n"
		for _, kw := range kwargs {
			s, ok := kw.Value.(framevm.Str)
			if !ok && kw.Value != framevm.None {
				return nil, unsupported("print "+kw.Name, kw.Value)
			}
			switch kw.Name {
			case "sep":
				if ok {
					sep = string(s)
				}
			case "end":
				if ok {
					end = string(s)
				}
			default:
				return nil, &framevm.ArityMismatchError{
					Detail: "print() got an unexpected keyword argument " + kw.Name,
				}
			}
		}
		var b strings.Builder
		for i, arg := range args {
			if i > 0 {
				b.WriteString(sep)
			}
			b.WriteString(framevm.ToStr(arg))
		}
		b.WriteString(end)
		if _, err := fmt.Fprint(f.VM().Output(), b.String()); err != nil {
			return nil, err
		}
		return framevm.None, nil
	},
}

var Len = &framevm.Builtin{
	Name: "len",
	Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		if err := framevm.WantArgs("len", args, kwargs, 1, 1); err != nil {
			return nil, err
		}
		n, ok := framevm.Len(args[0])
		if _, isRange := args[0].(*framevm.Range); isRange && !ok {
			return nil, &framevm.ValueError{Msg: "range has too many elements"}
		}
		if !ok {
			return nil, &framevm.UnsupportedOperationError{
				Op:     "len",
				Kinds:  []framevm.Kind{args[0].Kind()},
				Detail: "object has no len()",
			}
		}
		return framevm.Int(n), nil
	},
}

var Abs = &framevm.Builtin{
	Name: "abs",
	Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		if err := framevm.WantArgs("abs", args, kwargs, 1, 1); err != nil {
			return nil, err
		}
		if v, ok := args[0].(framevm.Float); ok {
			return framevm.Float(math.Abs(float64(v))), nil
		}
		negative, err := framevm.Compare(framevm.CmpLt, args[0], framevm.Int(0))
		if err != nil {
			return nil, err
		}
		if negative == framevm.True {
			return framevm.Unary(framevm.OpUnaryNegative, args[0])
		}
		if b, ok := args[0].(framevm.Bool); ok {
			if b {
				return framevm.Int(1), nil
			}
			return framevm.Int(0), nil
		}
		return args[0], nil
	},
}

// extreme implements min and max: one iterable or several arguments, with optional key and
// default.
func extreme(name string, better framevm.Comparison) *framevm.Builtin {
	return &framevm.Builtin{
		Name: name,
		Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
			var key, def framevm.Value
			for _, kw := range kwargs {
				switch kw.Name {
				case "key":
					key = kw.Value
				case "default":
					def = kw.Value
				default:
					return nil, &framevm.ArityMismatchError{
						Detail: name + "() got an unexpected keyword argument " + kw.Name,
					}
				}
			}
			if len(args) == 0 {
				return nil, &framevm.ArityMismatchError{
					Want:   1,
					Detail: name + " expected at least 1 argument",
				}
			}
			elems := args
			if len(args) == 1 {
				var err error
				elems, err = framevm.Elements(args[0])
				if err != nil {
					return nil, err
				}
			}
			if len(elems) == 0 {
				if def != nil {
					return def, nil
				}
				return nil, &framevm.ValueError{Msg: name + "() arg is an empty sequence"}
			}

			best := elems[0]
			bestKey := best
			if key != nil && key != framevm.None {
				k, err := f.Call(key, []framevm.Value{best}, nil)
				if err != nil {
					return nil, err
				}
				bestKey = k
			}
			for _, elem := range elems[1:] {
				k := elem
				if key != nil && key != framevm.None {
					var err error
					k, err = f.Call(key, []framevm.Value{elem}, nil)
					if err != nil {
						return nil, err
					}
				}
				ok, err := framevm.Compare(better, k, bestKey)
				if err != nil {
					return nil, err
				}
				if ok == framevm.True {
					best, bestKey = elem, k
				}
			}
			return best, nil
		},
	}
}

var (
	Min = extreme("min", framevm.CmpLt)
	Max = extreme("max", framevm.CmpGt)
)

var Sum = &framevm.Builtin{
	Name: "sum",
	Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		var start framevm.Value = framevm.Int(0)
		if v, ok := kwargs.Get("start"); ok {
			start = v
			kwargs = kwargs.Without("start")
		}
		if err := framevm.WantArgs("sum", args, kwargs, 1, 2); err != nil {
			return nil, err
		}
		if len(args) == 2 {
			start = args[1]
		}
		elems, err := framevm.Elements(args[0])
		if err != nil {
			return nil, err
		}
		acc := start
		for _, elem := range elems {
			acc, err = framevm.Binary(framevm.BinaryAdd, acc, elem)
			if err != nil {
				return nil, err
			}
		}
		return acc, nil
	},
}

var Sorted = &framevm.Builtin{
	Name: "sorted",
	Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		if len(args) != 1 {
			return nil, &framevm.ArityMismatchError{
				Want:   1,
				Got:    len(args),
				Detail: "sorted expected 1 argument",
			}
		}
		elems, err := framevm.Elements(args[0])
		if err != nil {
			return nil, err
		}
		sorted, err := framevm.SortValues(f, elems, kwargs)
		if err != nil {
			return nil, err
		}
		return framevm.NewList(sorted...), nil
	},
}

func sliceIterator(elems []framevm.Value) framevm.IteratorFunc {
	i := 0
	return func() (framevm.Value, bool) {
		if i >= len(elems) {
			return nil, false
		}
		v := elems[i]
		i++
		return v, true
	}
}

var Reversed = &framevm.Builtin{
	Name: "reversed",
	Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		if err := framevm.WantArgs("reversed", args, kwargs, 1, 1); err != nil {
			return nil, err
		}
		if _, ok := framevm.Len(args[0]); !ok {
			return nil, unsupported("reversed", args[0])
		}
		elems, err := framevm.Elements(args[0])
		if err != nil {
			return nil, err
		}
		for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
			elems[i], elems[j] = elems[j], elems[i]
		}
		return sliceIterator(elems), nil
	},
}

var Enumerate = &framevm.Builtin{
	Name: "enumerate",
	Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		var start framevm.Value = framevm.Int(0)
		if v, ok := kwargs.Get("start"); ok {
			start = v
			kwargs = kwargs.Without("start")
		}
		if err := framevm.WantArgs("enumerate", args, kwargs, 1, 2); err != nil {
			return nil, err
		}
		if len(args) == 2 {
			start = args[1]
		}
		n, ok := framevm.ToInt64(start)
		if !ok {
			return nil, unsupported("enumerate start", start)
		}
		it, err := framevm.GetIter(args[0])
		if err != nil {
			return nil, err
		}
		return framevm.IteratorFunc(func() (framevm.Value, bool) {
			v, ok := it.Next()
			if !ok {
				return nil, false
			}
			ret := framevm.Tuple{framevm.Int(n), v}
			n++
			return ret, true
		}), nil
	},
}

var Zip = &framevm.Builtin{
	Name: "zip",
	Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		if err := framevm.WantArgs("zip", args, kwargs, 0, math.MaxInt); err != nil {
			return nil, err
		}
		iters := make([]framevm.Iterator, 0, len(args))
		for _, arg := range args {
			it, err := framevm.GetIter(arg)
			if err != nil {
				return nil, err
			}
			iters = append(iters, it)
		}
		return framevm.IteratorFunc(func() (framevm.Value, bool) {
			if len(iters) == 0 {
				return nil, false
			}
			row := make(framevm.Tuple, 0, len(iters))
			for _, it := range iters {
				v, ok := it.Next()
				if !ok {
					return nil, false
				}
				row = append(row, v)
			}
			return row, true
		}), nil
	},
}

func truthScan(name string, want bool) *framevm.Builtin {
	return &framevm.Builtin{
		Name: name,
		Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
			if err := framevm.WantArgs(name, args, kwargs, 1, 1); err != nil {
				return nil, err
			}
			it, err := framevm.GetIter(args[0])
			if err != nil {
				return nil, err
			}
			for {
				v, ok := it.Next()
				if !ok {
					return framevm.Bool(!want), nil
				}
				if framevm.Truth(v) == want {
					return framevm.Bool(want), nil
				}
			}
		},
	}
}

var (
	Any = truthScan("any", true)
	All = truthScan("all", false)
)

var Repr = &framevm.Builtin{
	Name: "repr",
	Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		if err := framevm.WantArgs("repr", args, kwargs, 1, 1); err != nil {
			return nil, err
		}
		return framevm.Str(framevm.Repr(args[0])), nil
	},
}

var Format = &framevm.Builtin{
	Name: "format",
	Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		if err := framevm.WantArgs("format", args, kwargs, 1, 2); err != nil {
			return nil, err
		}
		spec := ""
		if len(args) == 2 {
			s, ok := args[1].(framevm.Str)
			if !ok {
				return nil, unsupported("format spec", args[1])
			}
			spec = string(s)
		}
		s, err := framevm.Format(args[0], spec)
		if err != nil {
			return nil, err
		}
		return framevm.Str(s), nil
	},
}

var Iter = &framevm.Builtin{
	Name: "iter",
	Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		if err := framevm.WantArgs("iter", args, kwargs, 1, 1); err != nil {
			return nil, err
		}
		return framevm.GetIter(args[0])
	},
}

var Next = &framevm.Builtin{
	Name: "next",
	Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		if err := framevm.WantArgs("next", args, kwargs, 1, 2); err != nil {
			return nil, err
		}
		it, ok := args[0].(framevm.Iterator)
		if !ok {
			return nil, &framevm.UnsupportedOperationError{
				Op:     "next",
				Kinds:  []framevm.Kind{args[0].Kind()},
				Detail: "object is not an iterator",
			}
		}
		v, ok := it.Next()
		if ok {
			return v, nil
		}
		if len(args) == 2 {
			return args[1], nil
		}
		return nil, &framevm.ValueError{Msg: "iterator is exhausted"}
	},
}

var IsInstance = &framevm.Builtin{
	Name: "isinstance",
	Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		if err := framevm.WantArgs("isinstance", args, kwargs, 2, 2); err != nil {
			return nil, err
		}
		ok, err := framevm.IsInstance(args[0], args[1])
		if err != nil {
			return nil, err
		}
		return framevm.Bool(ok), nil
	},
}

var Divmod = &framevm.Builtin{
	Name: "divmod",
	Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		if err := framevm.WantArgs("divmod", args, kwargs, 2, 2); err != nil {
			return nil, err
		}
		q, err := framevm.Binary(framevm.BinaryFloorDivide, args[0], args[1])
		if err != nil {
			return nil, err
		}
		r, err := framevm.Binary(framevm.BinaryRemainder, args[0], args[1])
		if err != nil {
			return nil, err
		}
		return framevm.Tuple{q, r}, nil
	},
}

var Pow = &framevm.Builtin{
	Name: "pow",
	Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		if err := framevm.WantArgs("pow", args, kwargs, 2, 2); err != nil {
			return nil, err
		}
		return framevm.Binary(framevm.BinaryPower, args[0], args[1])
	},
}

// Round rounds half to even like Python. Without ndigits the result is an int.
var Round = &framevm.Builtin{
	Name: "round",
	Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		if v, ok := kwargs.Get("ndigits"); ok {
			args = append(args, v)
			kwargs = kwargs.Without("ndigits")
		}
		if err := framevm.WantArgs("round", args, kwargs, 1, 2); err != nil {
			return nil, err
		}
		x, isFloat := args[0].(framevm.Float)
		if !isFloat {
			if _, ok := framevm.ToInt64(args[0]); !ok {
				if _, ok := args[0].(framevm.BigInt); !ok {
					return nil, unsupported("round", args[0])
				}
			}
			return args[0], nil
		}
		if len(args) == 1 || args[1] == framevm.None {
			r := math.RoundToEven(float64(x))
			if math.IsInf(r, 0) || math.IsNaN(r) {
				return nil, &framevm.ValueError{Msg: "cannot convert float " + framevm.Repr(x) + " to integer"}
			}
			return framevm.TypeInt.New([]framevm.Value{framevm.Float(r)}, nil)
		}
		n, ok := framevm.ToInt64(args[1])
		if !ok {
			return nil, unsupported("round ndigits", args[1])
		}
		scale := math.Pow(10, float64(n))
		return framevm.Float(math.RoundToEven(float64(x)*scale) / scale), nil
	},
}

var Chr = &framevm.Builtin{
	Name: "chr",
	Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		if err := framevm.WantArgs("chr", args, kwargs, 1, 1); err != nil {
			return nil, err
		}
		n, ok := framevm.ToInt64(args[0])
		if !ok {
			return nil, unsupported("chr", args[0])
		}
		if n < 0 || n > utf8.MaxRune {
			return nil, &framevm.ValueError{Msg: "chr() arg not in range(0x110000)"}
		}
		return framevm.Str(rune(n)), nil
	},
}

var Ord = &framevm.Builtin{
	Name: "ord",
	Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		if err := framevm.WantArgs("ord", args, kwargs, 1, 1); err != nil {
			return nil, err
		}
		s, ok := args[0].(framevm.Str)
		if !ok {
			return nil, unsupported("ord", args[0])
		}
		if utf8.RuneCountInString(string(s)) != 1 {
			return nil, &framevm.ValueError{
				Msg: fmt.Sprintf("ord() expected a character, but string of length %d found", utf8.RuneCountInString(string(s))),
			}
		}
		r, _ := utf8.DecodeRuneInString(string(s))
		return framevm.Int(r), nil
	},
}

// Hash returns equal hashes for values that compare equal.
var Hash = &framevm.Builtin{
	Name: "hash",
	Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		if err := framevm.WantArgs("hash", args, kwargs, 1, 1); err != nil {
			return nil, err
		}
		v := args[0]
		if !framevm.Hashable(v) {
			return nil, &framevm.UnsupportedOperationError{
				Op:     "hash",
				Kinds:  []framevm.Kind{v.Kind()},
				Detail: "unhashable type",
			}
		}
		switch v := v.(type) {
		case framevm.Bool, framevm.Int:
			n, _ := framevm.ToInt64(v)
			return framevm.Int(n), nil
		case framevm.Float:
			if float64(v) == math.Trunc(float64(v)) && math.Abs(float64(v)) < math.MaxInt64 {
				return framevm.Int(int64(v)), nil
			}
		}
		h := fnv.New64a()
		h.Write([]byte(v.Kind().String()))
		h.Write([]byte(framevm.Repr(v)))
		return framevm.Int(int64(h.Sum64() >> 1)), nil
	},
}

var Dir = &framevm.Builtin{
	Name: "dir",
	Fn: func(f *framevm.Frame, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		if err := framevm.WantArgs("dir", args, kwargs, 0, 1); err != nil {
			return nil, err
		}
		var names []string
		if len(args) == 0 {
			for name := range f.Locals() {
				names = append(names, name)
			}
		} else {
			names = framevm.AttrNames(args[0])
		}
		ret := framevm.NewList()
		for _, name := range names {
			ret.Elems = append(ret.Elems, framevm.Str(name))
		}
		sorted, err := framevm.SortValues(f, ret.Elems, nil)
		if err != nil {
			return nil, err
		}
		ret.Elems = sorted
		return ret, nil
	},
}

// Builtins returns the host registry shared by compiled programs. print writes to the VM's
// output.
func Builtins() *framevm.Builtins {
	values := map[string]framevm.Value{
		"int":   framevm.TypeInt,
		"float": framevm.TypeFloat,
		"str":   framevm.TypeStr,
		"bool":  framevm.TypeBool,
		"list":  framevm.TypeList,
		"tuple": framevm.TypeTuple,
		"dict":  framevm.TypeDict,
		"set":   framevm.TypeSet,
		"slice": framevm.TypeSlice,
		"range": framevm.TypeRange,
		"type":  framevm.TypeType,
	}
	for _, b := range []*framevm.Builtin{
		Print, Len, Abs, Min, Max, Sum, Sorted, Reversed, Enumerate, Zip, Any, All,
		Repr, Format, Iter, Next, IsInstance, Divmod, Pow, Round, Chr, Ord, Hash, Dir,
	} {
		values[b.Name] = b
	}
	return framevm.NewBuiltins(values)
}
