package framevm

// Function is a Code Unit bundled with its defaults and captured environment.
type Function struct {
	Code        *Code
	Defaults    []Value
	KwDefaults  map[string]Value
	Annotations Value
	Env         Names
}

func (*Function) Kind() Kind { return KindFunction }

// BoundMethod prepends Receiver to the arguments of Callee.
type BoundMethod struct {
	Name     string
	Receiver Value
	Callee   Value
}

func (*BoundMethod) Kind() Kind { return KindBoundMethod }

// Builtin is a host function.
type Builtin struct {
	Name string
	Fn   func(f *Frame, args []Value, kwargs Kwargs) (Value, error)
}

func (*Builtin) Kind() Kind { return KindBuiltin }

type Kwarg struct {
	Name  string
	Value Value
}

// Kwargs holds keyword arguments in call order.
type Kwargs []Kwarg

func (k Kwargs) Get(name string) (Value, bool) {
	for _, kw := range k {
		if kw.Name == name {
			return kw.Value, true
		}
	}
	return nil, false
}

func (k Kwargs) Without(name string) Kwargs {
	var ret Kwargs
	for _, kw := range k {
		if kw.Name != name {
			ret = append(ret, kw)
		}
	}
	return ret
}

// MakeFunction builds a Function. The captured environment is a copy of locals with the
// closure bundle merged over it, so later writes to locals are not observed.
func MakeFunction(code *Code, locals Names, defaults, kwdefaults, annotations, closure Value) (*Function, error) {
	fn := &Function{
		Code:        code,
		Annotations: annotations,
		Env:         locals.Clone(),
	}

	if defaults != nil {
		elems, err := Elements(defaults)
		if err != nil {
			return nil, err
		}
		if len(elems) > code.ParamCount {
			return nil, &ArityMismatchError{
				Want:   code.ParamCount,
				Got:    len(elems),
				Detail: "more defaults than parameters",
			}
		}
		fn.Defaults = elems
	}

	if kwdefaults != nil {
		d, ok := kwdefaults.(*Dict)
		if !ok {
			return nil, unsupported("keyword defaults", kwdefaults)
		}
		fn.KwDefaults = make(map[string]Value, d.Len())
		for _, e := range d.entries {
			name, ok := e.Key.(Str)
			if !ok {
				return nil, unsupported("keyword defaults", e.Key)
			}
			fn.KwDefaults[string(name)] = e.Value
		}
	}

	switch c := closure.(type) {
	case nil:
	case *Dict:
		for _, e := range c.entries {
			name, ok := e.Key.(Str)
			if !ok {
				return nil, unsupported("closure", e.Key)
			}
			fn.Env[string(name)] = e.Value
		}
	case Tuple:
		if len(c) != len(code.FreeVars) {
			return nil, &ArityMismatchError{
				Want:   len(code.FreeVars),
				Got:    len(c),
				Detail: "closure size does not match free variables of " + code.Name,
			}
		}
		for i, name := range code.FreeVars {
			fn.Env[name] = c[i]
		}
	default:
		return nil, unsupported("closure", closure)
	}

	return fn, nil
}
