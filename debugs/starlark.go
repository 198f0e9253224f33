package debugs

import (
	"context"
	"fmt"
	"math/big"
	"reflect"

	"github.com/reusee/pyframe/framevm"
	"github.com/reusee/starlarkutil"
	"go.starlark.net/starlark"
)

// caller invokes an interpreter callable on behalf of starlark code.
type caller func(callable framevm.Value, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error)

func vmCaller(ctx context.Context, vm *framevm.VM, globals framevm.Names) caller {
	return func(callable framevm.Value, args []framevm.Value, kwargs framevm.Kwargs) (framevm.Value, error) {
		return vm.Call(ctx, globals, callable, args, kwargs)
	}
}

// fromFrameValue converts an interpreter value. Callables become starlark builtins that run
// through call; values with no starlark counterpart are shown by their repr.
func fromFrameValue(v framevm.Value, call caller) starlark.Value {
	switch v := v.(type) {
	case nil, framevm.NoneType:
		return starlark.None
	case framevm.Bool:
		return starlark.Bool(v)
	case framevm.Int:
		return starlark.MakeInt64(int64(v))
	case framevm.BigInt:
		return starlark.MakeBigInt(v.Big())
	case framevm.Float:
		return starlark.Float(v)
	case framevm.Str:
		return starlark.String(v)
	case *framevm.List:
		return starlark.NewList(fromFrameValues(v.Elems, call))
	case framevm.Tuple:
		return starlark.Tuple(fromFrameValues(v, call))
	case *framevm.Dict:
		d := starlark.NewDict(v.Len())
		for _, item := range v.Items() {
			pair := item.(framevm.Tuple)
			d.SetKey(fromFrameValue(pair[0], call), fromFrameValue(pair[1], call))
		}
		return d
	case *framevm.Set:
		s := starlark.NewSet(v.Len())
		for _, elem := range v.Elems() {
			s.Insert(fromFrameValue(elem, call))
		}
		return s
	case *framevm.Function, *framevm.Builtin, *framevm.BoundMethod, *framevm.Type:
		if call == nil {
			break
		}
		callable := v
		return starlark.NewBuiltin(framevm.Repr(v), func(
			thread *starlark.Thread,
			fn *starlark.Builtin,
			args starlark.Tuple,
			kwargs []starlark.Tuple,
		) (starlark.Value, error) {
			frameArgs := make([]framevm.Value, 0, len(args))
			for _, arg := range args {
				a, err := toFrameValue(arg)
				if err != nil {
					return nil, err
				}
				frameArgs = append(frameArgs, a)
			}
			var frameKwargs framevm.Kwargs
			for _, kw := range kwargs {
				name, ok := starlark.AsString(kw[0])
				if !ok {
					return nil, fmt.Errorf("%s: keyword is not a string", fn.Name())
				}
				value, err := toFrameValue(kw[1])
				if err != nil {
					return nil, err
				}
				frameKwargs = append(frameKwargs, framevm.Kwarg{
					Name:  name,
					Value: value,
				})
			}
			ret, err := call(callable, frameArgs, frameKwargs)
			if err != nil {
				return nil, err
			}
			return fromFrameValue(ret, call), nil
		})
	}
	return starlark.String(framevm.Repr(v))
}

func fromFrameValues(values []framevm.Value, call caller) []starlark.Value {
	ret := make([]starlark.Value, 0, len(values))
	for _, v := range values {
		ret = append(ret, fromFrameValue(v, call))
	}
	return ret
}

// toFrameValue converts arguments passed from starlark back into the interpreter.
func toFrameValue(v starlark.Value) (framevm.Value, error) {
	switch v := v.(type) {
	case starlark.NoneType:
		return framevm.None, nil
	case starlark.Bool:
		return framevm.Bool(v), nil
	case starlark.Int:
		if n, ok := v.Int64(); ok {
			return framevm.Int(n), nil
		}
		return framevm.MakeBigInt(new(big.Int).Set(v.BigInt())), nil
	case starlark.Float:
		return framevm.Float(v), nil
	case starlark.String:
		return framevm.Str(v), nil
	case *starlark.List:
		elems := make([]framevm.Value, 0, v.Len())
		for i := range v.Len() {
			e, err := toFrameValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return framevm.NewList(elems...), nil
	case starlark.Tuple:
		elems := make(framevm.Tuple, 0, len(v))
		for _, elem := range v {
			e, err := toFrameValue(elem)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return elems, nil
	case *starlark.Dict:
		d := framevm.NewDict()
		for _, item := range v.Items() {
			k, err := toFrameValue(item[0])
			if err != nil {
				return nil, err
			}
			value, err := toFrameValue(item[1])
			if err != nil {
				return nil, err
			}
			if err := d.Set(k, value); err != nil {
				return nil, err
			}
		}
		return d, nil
	}
	return nil, fmt.Errorf("cannot pass starlark %s to the interpreter", v.Type())
}

// toStarlarkValue converts host Go values such as settings structs and helper funcs.
func toStarlarkValue(v any) starlark.Value {
	switch v := v.(type) {

	case nil:
		return starlark.None

	case framevm.Value:
		return fromFrameValue(v, nil)

	case bool:
		return starlark.Bool(v)

	case []byte:
		return starlark.Bytes(v)
	case string:
		return starlark.String(v)

	case int:
		return starlark.MakeInt(v)
	case int64:
		return starlark.MakeInt64(v)
	case uint64:
		return starlark.MakeUint64(v)

	case float64:
		return starlark.Float(v)

	case []any:
		elems := make([]starlark.Value, len(v))
		for i, e := range v {
			elems[i] = toStarlarkValue(e)
		}
		return starlark.NewList(elems)

	case map[string]any:
		d := starlark.NewDict(len(v))
		for k, val := range v {
			d.SetKey(starlark.String(k), toStarlarkValue(val))
		}
		return d

	}

	value := reflect.ValueOf(v)
	switch value.Kind() {

	case reflect.Bool:
		return starlark.Bool(value.Bool())

	case reflect.String:
		return starlark.String(value.String())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return starlark.MakeInt64(value.Int())

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return starlark.MakeUint64(value.Uint())

	case reflect.Float32, reflect.Float64:
		return starlark.Float(value.Float())

	case reflect.Slice, reflect.Array:
		l := value.Len()
		elems := make([]starlark.Value, l)
		for i := range l {
			elems[i] = toStarlarkValue(value.Index(i).Interface())
		}
		return starlark.NewList(elems)

	case reflect.Map:
		d := starlark.NewDict(value.Len())
		iter := value.MapRange()
		for iter.Next() {
			d.SetKey(
				toStarlarkValue(iter.Key().Interface()),
				toStarlarkValue(iter.Value().Interface()),
			)
		}
		return d

	case reflect.Struct:
		n := value.NumField()
		d := starlark.NewDict(n)
		typ := value.Type()
		for i := range n {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			d.SetKey(
				starlark.String(field.Name),
				toStarlarkValue(value.Field(i).Interface()),
			)
		}
		return d

	case reflect.Pointer, reflect.Interface:
		elem := value.Elem()
		if !elem.IsValid() {
			return starlark.None
		}
		return toStarlarkValue(elem.Interface())

	case reflect.Func:
		return starlarkutil.MakeFunc("", value.Interface())

	}

	panic(fmt.Errorf("unsupported type for starlark: %T", v))
}
