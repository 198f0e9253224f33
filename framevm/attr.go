package framevm

import (
	"sort"
	"strings"
	"unicode"
)

// AttrBinding is the result of an attribute lookup. Exactly one field is set: Method for a
// callable member bound to its receiver, Value for a plain attribute.
type AttrBinding struct {
	Method *BoundMethod
	Value  Value
}

// LookupAttr resolves name on v.
func LookupAttr(v Value, name string) (AttrBinding, error) {
	if table, ok := methods[kindOf(v)]; ok {
		if m, ok := table[name]; ok {
			return AttrBinding{
				Method: &BoundMethod{
					Name:     name,
					Receiver: v,
					Callee:   m,
				},
			}, nil
		}
	}
	if value, ok := dataAttr(v, name); ok {
		return AttrBinding{
			Value: value,
		}, nil
	}
	return AttrBinding{}, &AttributeLookupError{
		Kind: kindOf(v),
		Name: name,
	}
}

// GetAttr is the plain attribute load.
func GetAttr(v Value, name string) (Value, error) {
	b, err := LookupAttr(v, name)
	if err != nil {
		return nil, err
	}
	if b.Method != nil {
		return b.Method, nil
	}
	return b.Value, nil
}

// AttrNames lists the method names of v, sorted.
func AttrNames(v Value) []string {
	table := methods[kindOf(v)]
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func dataAttr(v Value, name string) (Value, bool) {
	switch v := v.(type) {
	case Slice:
		switch name {
		case "start":
			return v.Start, true
		case "stop":
			return v.Stop, true
		case "step":
			return v.Step, true
		}
	case *Range:
		switch name {
		case "start":
			return Int(v.Start), true
		case "stop":
			return Int(v.Stop), true
		case "step":
			return Int(v.Step), true
		}
	case *Function:
		switch name {
		case "__name__":
			return Str(v.Code.Name), true
		case "__code__":
			return v.Code, true
		case "__defaults__":
			if len(v.Defaults) == 0 {
				return None, true
			}
			return Tuple(v.Defaults), true
		case "__annotations__":
			if v.Annotations == nil {
				return NewDict(), true
			}
			return v.Annotations, true
		}
	case *BoundMethod:
		switch name {
		case "__self__":
			return v.Receiver, true
		case "__func__":
			return v.Callee, true
		case "__name__":
			return Str(v.Name), true
		}
	case *Builtin:
		if name == "__name__" {
			return Str(v.Name), true
		}
	case *Type:
		if name == "__name__" {
			return Str(v.Name), true
		}
	case *Code:
		switch name {
		case "co_name":
			return Str(v.Name), true
		case "co_argcount":
			return Int(v.ParamCount), true
		case "co_kwonlyargcount":
			return Int(len(v.KwOnlyNames)), true
		case "co_freevars":
			names := make(Tuple, 0, len(v.FreeVars))
			for _, n := range v.FreeVars {
				names = append(names, Str(n))
			}
			return names, true
		}
	case Int, BigInt, Bool:
		switch name {
		case "real", "numerator":
			small, large, _ := intValue(v)
			return MakeBigInt(toBig(small, large)), true
		case "imag":
			return Int(0), true
		case "denominator":
			return Int(1), true
		}
	case Float:
		switch name {
		case "real":
			return v, true
		case "imag":
			return Float(0), true
		}
	}
	return nil, false
}

type methodFunc = func(f *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error)

var methods = map[Kind]map[string]*Builtin{}

func defineMethods(kind Kind, fns map[string]methodFunc) {
	table := make(map[string]*Builtin, len(fns))
	for name, fn := range fns {
		qualified := kind.String() + "." + name
		table[name] = &Builtin{
			Name: qualified,
			Fn: func(f *Frame, args []Value, kwargs Kwargs) (Value, error) {
				if len(args) == 0 {
					return nil, &ArityMismatchError{
						Want:   1,
						Detail: qualified + " needs a receiver",
					}
				}
				return fn(f, args[0], args[1:], kwargs)
			},
		}
	}
	methods[kind] = table
}

// WantArgs checks a positional-only argument count.
func WantArgs(name string, args []Value, kwargs Kwargs, min, max int) error {
	if len(kwargs) > 0 {
		return &ArityMismatchError{
			Detail: name + "() takes no keyword arguments",
		}
	}
	if len(args) < min || len(args) > max {
		return &ArityMismatchError{
			Want:   max,
			Got:    len(args),
			Detail: name + "() got a wrong number of arguments",
		}
	}
	return nil
}

func init() {
	defineMethods(KindList, map[string]methodFunc{
		"append": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("append", args, kwargs, 1, 1); err != nil {
				return nil, err
			}
			l := recv.(*List)
			l.Elems = append(l.Elems, args[0])
			return None, nil
		},
		"extend": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("extend", args, kwargs, 1, 1); err != nil {
				return nil, err
			}
			elems, err := Elements(args[0])
			if err != nil {
				return nil, err
			}
			l := recv.(*List)
			l.Elems = append(l.Elems, elems...)
			return None, nil
		},
		"insert": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("insert", args, kwargs, 2, 2); err != nil {
				return nil, err
			}
			l := recv.(*List)
			n, ok := ToInt64(args[0])
			if !ok {
				return nil, unsupported("insert", args[0])
			}
			i := clampIndex(int(n), len(l.Elems))
			l.Elems = append(l.Elems, nil)
			copy(l.Elems[i+1:], l.Elems[i:])
			l.Elems[i] = args[1]
			return None, nil
		},
		"pop": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("pop", args, kwargs, 0, 1); err != nil {
				return nil, err
			}
			l := recv.(*List)
			if len(l.Elems) == 0 {
				return nil, &IndexRangeError{Kind: KindList, Index: -1}
			}
			var key Value = Int(-1)
			if len(args) == 1 {
				key = args[0]
			}
			i, err := sequenceIndex(l, key, len(l.Elems))
			if err != nil {
				return nil, err
			}
			v := l.Elems[i]
			l.Elems = append(l.Elems[:i], l.Elems[i+1:]...)
			return v, nil
		},
		"remove": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("remove", args, kwargs, 1, 1); err != nil {
				return nil, err
			}
			l := recv.(*List)
			for i, e := range l.Elems {
				if Equal(e, args[0]) {
					l.Elems = append(l.Elems[:i], l.Elems[i+1:]...)
					return None, nil
				}
			}
			return nil, &ValueError{Msg: "list.remove(x): x not in list"}
		},
		"index": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("index", args, kwargs, 1, 1); err != nil {
				return nil, err
			}
			return indexOf(recv.(*List).Elems, args[0])
		},
		"count": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("count", args, kwargs, 1, 1); err != nil {
				return nil, err
			}
			return countOf(recv.(*List).Elems, args[0]), nil
		},
		"clear": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("clear", args, kwargs, 0, 0); err != nil {
				return nil, err
			}
			recv.(*List).Elems = nil
			return None, nil
		},
		"copy": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("copy", args, kwargs, 0, 0); err != nil {
				return nil, err
			}
			return NewList(append([]Value(nil), recv.(*List).Elems...)...), nil
		},
		"reverse": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("reverse", args, kwargs, 0, 0); err != nil {
				return nil, err
			}
			elems := recv.(*List).Elems
			for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
				elems[i], elems[j] = elems[j], elems[i]
			}
			return None, nil
		},
		"sort": func(f *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if len(args) > 0 {
				return nil, &ArityMismatchError{Got: len(args), Detail: "sort() takes no positional arguments"}
			}
			l := recv.(*List)
			sorted, err := SortValues(f, l.Elems, kwargs)
			if err != nil {
				return nil, err
			}
			l.Elems = sorted
			return None, nil
		},
	})

	defineMethods(KindTuple, map[string]methodFunc{
		"index": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("index", args, kwargs, 1, 1); err != nil {
				return nil, err
			}
			return indexOf(recv.(Tuple), args[0])
		},
		"count": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("count", args, kwargs, 1, 1); err != nil {
				return nil, err
			}
			return countOf(recv.(Tuple), args[0]), nil
		},
	})

	defineMethods(KindDict, map[string]methodFunc{
		"get": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("get", args, kwargs, 1, 2); err != nil {
				return nil, err
			}
			v, ok, err := recv.(*Dict).Get(args[0])
			if err != nil {
				return nil, err
			}
			if ok {
				return v, nil
			}
			if len(args) == 2 {
				return args[1], nil
			}
			return None, nil
		},
		"keys": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("keys", args, kwargs, 0, 0); err != nil {
				return nil, err
			}
			return NewList(recv.(*Dict).Keys()...), nil
		},
		"values": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("values", args, kwargs, 0, 0); err != nil {
				return nil, err
			}
			return NewList(recv.(*Dict).Values()...), nil
		},
		"items": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("items", args, kwargs, 0, 0); err != nil {
				return nil, err
			}
			return NewList(recv.(*Dict).Items()...), nil
		},
		"pop": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("pop", args, kwargs, 1, 2); err != nil {
				return nil, err
			}
			v, ok, err := recv.(*Dict).Delete(args[0])
			if err != nil {
				return nil, err
			}
			if ok {
				return v, nil
			}
			if len(args) == 2 {
				return args[1], nil
			}
			return nil, &KeyLookupError{Key: args[0]}
		},
		"setdefault": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("setdefault", args, kwargs, 1, 2); err != nil {
				return nil, err
			}
			d := recv.(*Dict)
			v, ok, err := d.Get(args[0])
			if err != nil {
				return nil, err
			}
			if ok {
				return v, nil
			}
			var def Value = None
			if len(args) == 2 {
				def = args[1]
			}
			if err := d.Set(args[0], def); err != nil {
				return nil, err
			}
			return def, nil
		},
		"update": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if len(args) > 1 {
				return nil, &ArityMismatchError{Want: 1, Got: len(args), Detail: "update expected at most 1 argument"}
			}
			src, err := newDict(args, kwargs)
			if err != nil {
				return nil, err
			}
			d := recv.(*Dict)
			for _, e := range src.(*Dict).entries {
				if err := d.Set(e.Key, e.Value); err != nil {
					return nil, err
				}
			}
			return None, nil
		},
		"clear": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("clear", args, kwargs, 0, 0); err != nil {
				return nil, err
			}
			recv.(*Dict).Clear()
			return None, nil
		},
		"copy": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("copy", args, kwargs, 0, 0); err != nil {
				return nil, err
			}
			return recv.(*Dict).Clone(), nil
		},
	})

	setBinary := func(name string, op BinaryOperator) methodFunc {
		return func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs(name, args, kwargs, 1, 1); err != nil {
				return nil, err
			}
			elems, err := Elements(args[0])
			if err != nil {
				return nil, err
			}
			other, err := NewSet(elems...)
			if err != nil {
				return nil, err
			}
			return setOp(op, recv.(*Set), other)
		}
	}
	defineMethods(KindSet, map[string]methodFunc{
		"add": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("add", args, kwargs, 1, 1); err != nil {
				return nil, err
			}
			return None, recv.(*Set).Add(args[0])
		},
		"remove": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("remove", args, kwargs, 1, 1); err != nil {
				return nil, err
			}
			ok, err := recv.(*Set).Remove(args[0])
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, &KeyLookupError{Key: args[0]}
			}
			return None, nil
		},
		"discard": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("discard", args, kwargs, 1, 1); err != nil {
				return nil, err
			}
			_, err := recv.(*Set).Remove(args[0])
			return None, err
		},
		"update": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("update", args, kwargs, 1, 1); err != nil {
				return nil, err
			}
			elems, err := Elements(args[0])
			if err != nil {
				return nil, err
			}
			s := recv.(*Set)
			for _, e := range elems {
				if err := s.Add(e); err != nil {
					return nil, err
				}
			}
			return None, nil
		},
		"clear": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("clear", args, kwargs, 0, 0); err != nil {
				return nil, err
			}
			s := recv.(*Set)
			s.index = make(map[any]int)
			s.elems = nil
			return None, nil
		},
		"copy": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("copy", args, kwargs, 0, 0); err != nil {
				return nil, err
			}
			return recv.(*Set).Clone(), nil
		},
		"union":                setBinary("union", BinaryOr),
		"intersection":         setBinary("intersection", BinaryAnd),
		"difference":           setBinary("difference", BinarySubtract),
		"symmetric_difference": setBinary("symmetric_difference", BinaryXor),
		"issubset": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			other, err := setArg("issubset", args, kwargs)
			if err != nil {
				return nil, err
			}
			return Bool(isSubset(recv.(*Set), other)), nil
		},
		"issuperset": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			other, err := setArg("issuperset", args, kwargs)
			if err != nil {
				return nil, err
			}
			return Bool(isSubset(other, recv.(*Set))), nil
		},
	})

	strMethods := map[string]methodFunc{
		"join": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("join", args, kwargs, 1, 1); err != nil {
				return nil, err
			}
			elems, err := Elements(args[0])
			if err != nil {
				return nil, err
			}
			parts := make([]string, 0, len(elems))
			for _, e := range elems {
				s, ok := e.(Str)
				if !ok {
					return nil, unsupported("join", e)
				}
				parts = append(parts, string(s))
			}
			return Str(strings.Join(parts, string(recv.(Str)))), nil
		},
		"split": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("split", args, kwargs, 0, 2); err != nil {
				return nil, err
			}
			s := string(recv.(Str))
			limit := -1
			if len(args) == 2 {
				n, ok := ToInt64(args[1])
				if !ok {
					return nil, unsupported("split", args[1])
				}
				limit = int(n)
			}
			var parts []string
			if len(args) == 0 || args[0] == None {
				parts = splitFields(s, limit)
			} else {
				sep, ok := args[0].(Str)
				if !ok {
					return nil, unsupported("split", args[0])
				}
				if sep == "" {
					return nil, &ValueError{Msg: "empty separator"}
				}
				n := -1
				if limit >= 0 {
					n = limit + 1
				}
				parts = strings.SplitN(s, string(sep), n)
			}
			return strList(parts), nil
		},
		"splitlines": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("splitlines", args, kwargs, 0, 0); err != nil {
				return nil, err
			}
			s := strings.TrimSuffix(string(recv.(Str)), "\n")
			if s == "" {
				return NewList(), nil
			}
			return strList(strings.Split(s, "\n")), nil
		},
		"strip":  stripper("strip", strings.Trim, strings.TrimSpace),
		"lstrip": stripper("lstrip", strings.TrimLeft, func(s string) string { return strings.TrimLeftFunc(s, unicode.IsSpace) }),
		"rstrip": stripper("rstrip", strings.TrimRight, func(s string) string { return strings.TrimRightFunc(s, unicode.IsSpace) }),
		"upper":  strMap("upper", strings.ToUpper),
		"lower":  strMap("lower", strings.ToLower),
		"title":  strMap("title", titleCase),
		"capitalize": strMap("capitalize", func(s string) string {
			if s == "" {
				return s
			}
			runes := []rune(strings.ToLower(s))
			runes[0] = unicode.ToUpper(runes[0])
			return string(runes)
		}),
		"replace": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("replace", args, kwargs, 2, 3); err != nil {
				return nil, err
			}
			old, ok1 := args[0].(Str)
			repl, ok2 := args[1].(Str)
			if !ok1 || !ok2 {
				return nil, unsupported("replace", args[0], args[1])
			}
			n := -1
			if len(args) == 3 {
				c, ok := ToInt64(args[2])
				if !ok {
					return nil, unsupported("replace", args[2])
				}
				n = int(c)
			}
			return Str(strings.Replace(string(recv.(Str)), string(old), string(repl), n)), nil
		},
		"startswith": strPredicate("startswith", strings.HasPrefix),
		"endswith":   strPredicate("endswith", strings.HasSuffix),
		"find": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("find", args, kwargs, 1, 1); err != nil {
				return nil, err
			}
			sub, ok := args[0].(Str)
			if !ok {
				return nil, unsupported("find", args[0])
			}
			return Int(runeIndex(string(recv.(Str)), string(sub))), nil
		},
		"index": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("index", args, kwargs, 1, 1); err != nil {
				return nil, err
			}
			sub, ok := args[0].(Str)
			if !ok {
				return nil, unsupported("index", args[0])
			}
			i := runeIndex(string(recv.(Str)), string(sub))
			if i < 0 {
				return nil, &ValueError{Msg: "substring not found"}
			}
			return Int(i), nil
		},
		"count": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("count", args, kwargs, 1, 1); err != nil {
				return nil, err
			}
			sub, ok := args[0].(Str)
			if !ok {
				return nil, unsupported("count", args[0])
			}
			s := string(recv.(Str))
			if sub == "" {
				return Int(len([]rune(s)) + 1), nil
			}
			return Int(strings.Count(s, string(sub))), nil
		},
		"zfill": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("zfill", args, kwargs, 1, 1); err != nil {
				return nil, err
			}
			width, ok := ToInt64(args[0])
			if !ok {
				return nil, unsupported("zfill", args[0])
			}
			s := string(recv.(Str))
			n := len([]rune(s))
			if int(width) <= n {
				return Str(s), nil
			}
			sign := ""
			if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
				sign, s = s[:1], s[1:]
			}
			return Str(sign + strings.Repeat("0", int(width)-n) + s), nil
		},
		"isdigit": strClass("isdigit", unicode.IsDigit),
		"isalpha": strClass("isalpha", unicode.IsLetter),
		"isspace": strClass("isspace", unicode.IsSpace),
		"isupper": strClass("isupper", func(r rune) bool { return !unicode.IsLower(r) }),
		"islower": strClass("islower", func(r rune) bool { return !unicode.IsUpper(r) }),
		"format": func(f *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			s, err := formatMethod(string(recv.(Str)), args, kwargs)
			if err != nil {
				return nil, err
			}
			return Str(s), nil
		},
	}
	defineMethods(KindStr, strMethods)

	defineMethods(KindInt, map[string]methodFunc{
		"bit_length": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("bit_length", args, kwargs, 0, 0); err != nil {
				return nil, err
			}
			small, large, _ := intValue(recv)
			return Int(toBig(small, large).BitLen()), nil
		},
	})

	defineMethods(KindFloat, map[string]methodFunc{
		"is_integer": func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
			if err := WantArgs("is_integer", args, kwargs, 0, 0); err != nil {
				return nil, err
			}
			f := float64(recv.(Float))
			return Bool(f == float64(int64(f))), nil
		},
	})
}

func clampIndex(i, length int) int {
	if i < 0 {
		i += length
		if i < 0 {
			i = 0
		}
	}
	if i > length {
		i = length
	}
	return i
}

func indexOf(elems []Value, v Value) (Value, error) {
	for i, e := range elems {
		if Equal(e, v) {
			return Int(i), nil
		}
	}
	return nil, &ValueError{Msg: Repr(v) + " is not in sequence"}
}

func countOf(elems []Value, v Value) Value {
	n := 0
	for _, e := range elems {
		if Equal(e, v) {
			n++
		}
	}
	return Int(n)
}

func setArg(name string, args []Value, kwargs Kwargs) (*Set, error) {
	if err := WantArgs(name, args, kwargs, 1, 1); err != nil {
		return nil, err
	}
	elems, err := Elements(args[0])
	if err != nil {
		return nil, err
	}
	return NewSet(elems...)
}

func strList(parts []string) *List {
	elems := make([]Value, 0, len(parts))
	for _, p := range parts {
		elems = append(elems, Str(p))
	}
	return NewList(elems...)
}

func splitFields(s string, limit int) []string {
	if limit < 0 {
		return strings.Fields(s)
	}
	var ret []string
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	for s != "" {
		if len(ret) == limit {
			ret = append(ret, s)
			break
		}
		i := strings.IndexFunc(s, unicode.IsSpace)
		if i < 0 {
			ret = append(ret, s)
			break
		}
		ret = append(ret, s[:i])
		s = strings.TrimLeftFunc(s[i:], unicode.IsSpace)
	}
	return ret
}

func runeIndex(s, sub string) int {
	i := strings.Index(s, sub)
	if i < 0 {
		return -1
	}
	return len([]rune(s[:i]))
}

func titleCase(s string) string {
	runes := []rune(s)
	prev := false
	for i, r := range runes {
		if prev {
			runes[i] = unicode.ToLower(r)
		} else {
			runes[i] = unicode.ToUpper(r)
		}
		prev = unicode.IsLetter(r)
	}
	return string(runes)
}

func stripper(name string, withChars func(string, string) string, spaces func(string) string) methodFunc {
	return func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
		if err := WantArgs(name, args, kwargs, 0, 1); err != nil {
			return nil, err
		}
		s := string(recv.(Str))
		if len(args) == 0 || args[0] == None {
			return Str(spaces(s)), nil
		}
		chars, ok := args[0].(Str)
		if !ok {
			return nil, unsupported(name, args[0])
		}
		return Str(withChars(s, string(chars))), nil
	}
}

func strMap(name string, fn func(string) string) methodFunc {
	return func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
		if err := WantArgs(name, args, kwargs, 0, 0); err != nil {
			return nil, err
		}
		return Str(fn(string(recv.(Str)))), nil
	}
}

func strPredicate(name string, fn func(string, string) bool) methodFunc {
	return func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
		if err := WantArgs(name, args, kwargs, 1, 1); err != nil {
			return nil, err
		}
		s := string(recv.(Str))
		var candidates []Value
		if t, ok := args[0].(Tuple); ok {
			candidates = t
		} else {
			candidates = []Value{args[0]}
		}
		for _, c := range candidates {
			affix, ok := c.(Str)
			if !ok {
				return nil, unsupported(name, c)
			}
			if fn(s, string(affix)) {
				return True, nil
			}
		}
		return False, nil
	}
}

func strClass(name string, fn func(rune) bool) methodFunc {
	return func(_ *Frame, recv Value, args []Value, kwargs Kwargs) (Value, error) {
		if err := WantArgs(name, args, kwargs, 0, 0); err != nil {
			return nil, err
		}
		s := string(recv.(Str))
		if s == "" {
			return False, nil
		}
		for _, r := range s {
			if !fn(r) {
				return False, nil
			}
		}
		return True, nil
	}
}

// formatMethod implements str.format replacement fields: {}, {0}, {name}, with optional
// !conversion and :spec.
func formatMethod(format string, args []Value, kwargs Kwargs) (string, error) {
	var b strings.Builder
	auto := 0
	runes := []rune(format)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '}' {
			if i+1 < len(runes) && runes[i+1] == '}' {
				b.WriteRune('}')
				i++
				continue
			}
			return "", &ValueError{Msg: "single '}' encountered in format string"}
		}
		if r != '{' {
			b.WriteRune(r)
			continue
		}
		if i+1 < len(runes) && runes[i+1] == '{' {
			b.WriteRune('{')
			i++
			continue
		}
		end := i + 1
		for end < len(runes) && runes[end] != '}' {
			end++
		}
		if end >= len(runes) {
			return "", &ValueError{Msg: "expected '}' before end of string"}
		}
		field := string(runes[i+1 : end])
		i = end

		spec := ""
		if j := strings.IndexByte(field, ':'); j >= 0 {
			field, spec = field[:j], field[j+1:]
		}
		var conversion rune
		if j := strings.IndexByte(field, '!'); j >= 0 {
			if len(field) != j+2 {
				return "", &ValueError{Msg: "invalid conversion in format string"}
			}
			conversion = rune(field[j+1])
			field = field[:j]
		}

		var value Value
		switch {
		case field == "":
			if auto >= len(args) {
				return "", &IndexRangeError{Kind: KindTuple, Index: auto}
			}
			value = args[auto]
			auto++
		case field[0] >= '0' && field[0] <= '9':
			n := 0
			for _, c := range field {
				if c < '0' || c > '9' {
					return "", &ValueError{Msg: "invalid field " + field}
				}
				n = n*10 + int(c-'0')
			}
			if n >= len(args) {
				return "", &IndexRangeError{Kind: KindTuple, Index: n}
			}
			value = args[n]
		default:
			v, ok := kwargs.Get(field)
			if !ok {
				return "", &KeyLookupError{Key: Str(field)}
			}
			value = v
		}

		converted, err := Convert(value, conversion)
		if err != nil {
			return "", err
		}
		s, err := Format(converted, spec)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

// SortValues returns a sorted copy of elems. kwargs may carry key and reverse.
func SortValues(f *Frame, elems []Value, kwargs Kwargs) ([]Value, error) {
	var key Value
	reverse := false
	for _, kw := range kwargs {
		switch kw.Name {
		case "key":
			key = kw.Value
		case "reverse":
			reverse = Truth(kw.Value)
		default:
			return nil, &ArityMismatchError{Detail: "unexpected keyword argument " + kw.Name}
		}
	}

	keys := elems
	if key != nil && key != None {
		keys = make([]Value, len(elems))
		for i, e := range elems {
			k, err := f.Call(key, []Value{e}, nil)
			if err != nil {
				return nil, err
			}
			keys[i] = k
		}
	}

	idx := make([]int, len(elems))
	for i := range idx {
		idx[i] = i
	}
	var sortErr error
	sort.SliceStable(idx, func(a, b int) bool {
		if sortErr != nil {
			return false
		}
		l, r := keys[idx[a]], keys[idx[b]]
		if reverse {
			l, r = r, l
		}
		c, ok, err := compareOrdered(l, r)
		if err != nil {
			sortErr = err
			return false
		}
		return ok && c < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}

	ret := make([]Value, len(elems))
	for i, j := range idx {
		ret[i] = elems[j]
	}
	return ret, nil
}
