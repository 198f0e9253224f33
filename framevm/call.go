package framevm

import (
	"fmt"
	"slices"

	"github.com/reusee/pyframe/logs"
)

// Call invokes callable with the frame's globals and builtins.
func (f *Frame) Call(callable Value, args []Value, kwargs Kwargs) (Value, error) {
	switch c := callable.(type) {
	case *Function:
		return f.callFunction(c, args, kwargs)
	case *BoundMethod:
		return f.Call(c.Callee, slices.Concat([]Value{c.Receiver}, args), kwargs)
	case *Builtin:
		return c.Fn(f, args, kwargs)
	case *Type:
		if c.New == nil {
			return nil, &UnsupportedOperationError{
				Op:     "call",
				Detail: fmt.Sprintf("cannot create '%s' instances", c.Name),
			}
		}
		return c.New(args, kwargs)
	}
	return nil, &UnsupportedOperationError{
		Op:     "call",
		Kinds:  []Kind{kindOf(callable)},
		Detail: "object is not callable",
	}
}

func (f *Frame) callFunction(fn *Function, args []Value, kwargs Kwargs) (Value, error) {
	vm := f.vm
	depth := f.depth + 1
	if vm.MaxDepth > 0 && depth > vm.MaxDepth {
		return nil, &DepthExceededError{Max: vm.MaxDepth}
	}

	locals, err := Bind(fn, args, kwargs)
	if err != nil {
		return nil, err
	}

	ctx := f.ctx
	trace := vm.tracing(ctx)
	if trace && vm.NewSpan != nil {
		ctx, _ = vm.NewSpan(ctx, "")
	}
	if trace {
		ctx = logs.WithCode(ctx, fn.Code.Name)
		vm.Logger.Log(ctx, vm.traceLevel(), "enter", "depth", depth)
	}

	child := vm.newFrame(ctx, fn.Code, f.globals, locals, depth)
	child.builtins = f.builtins
	ret, err := child.Run()
	if err != nil {
		return nil, err
	}

	if trace {
		vm.Logger.Log(ctx, vm.traceLevel(), "leave", "depth", depth)
	}
	return ret, nil
}

// Bind computes the initial locals of a call: the captured environment overlaid with parameters.
func Bind(fn *Function, args []Value, kwargs Kwargs) (Names, error) {
	code := fn.Code
	if len(args) > code.ParamCount {
		return nil, &ArityMismatchError{
			Want:   code.ParamCount,
			Got:    len(args),
			Detail: fmt.Sprintf("%s() takes %d positional arguments but %d were given", code.Name, code.ParamCount, len(args)),
		}
	}

	locals := fn.Env.Clone()
	bound := make(map[string]bool, len(code.ParamNames))

	firstDefault := code.ParamCount - len(fn.Defaults)
	for i := 0; i < code.ParamCount; i++ {
		name := code.ParamNames[i]
		if i < len(args) {
			locals[name] = args[i]
			bound[name] = true
		} else if i >= firstDefault {
			locals[name] = fn.Defaults[i-firstDefault]
			bound[name] = true
		}
	}

	for _, kw := range kwargs {
		if !slices.Contains(code.ParamNames[:code.ParamCount], kw.Name) &&
			!slices.Contains(code.KwOnlyNames, kw.Name) {
			return nil, &ArityMismatchError{
				Got:    len(args) + len(kwargs),
				Detail: fmt.Sprintf("%s() got an unexpected keyword argument '%s'", code.Name, kw.Name),
			}
		}
		locals[kw.Name] = kw.Value
		bound[kw.Name] = true
	}

	for _, name := range code.KwOnlyNames {
		if bound[name] {
			continue
		}
		v, ok := fn.KwDefaults[name]
		if !ok {
			return nil, &ArityMismatchError{
				Want:   code.ParamCount + len(code.KwOnlyNames),
				Got:    len(args) + len(kwargs),
				Detail: fmt.Sprintf("%s() missing required keyword-only argument: '%s'", code.Name, name),
			}
		}
		locals[name] = v
		bound[name] = true
	}

	for _, name := range code.ParamNames[:code.ParamCount] {
		if !bound[name] {
			return nil, &ArityMismatchError{
				Want:   code.ParamCount,
				Got:    len(args) + len(kwargs),
				Detail: fmt.Sprintf("%s() missing required argument: '%s'", code.Name, name),
			}
		}
	}

	return locals, nil
}
