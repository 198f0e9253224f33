package framevm

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
)

// Run executes the frame until a return instruction or the end of the code.
func (f *Frame) Run() (Value, error) {
	trace := f.vm.tracing(f.ctx)
	insts := f.code.Instructions
	for f.pc < len(insts) {
		inst := insts[f.pc]
		pc := f.pc

		if trace {
			f.vm.Logger.Log(f.ctx, f.vm.traceLevel(), "exec",
				"op", inst.Op.String(),
				"offset", inst.Offset,
				"depth", f.depth,
				"stack", f.sp,
			)
		}

		done, err := f.step(inst)
		if err != nil {
			return nil, &ExecError{
				Code:   f.code.Name,
				Op:     inst.Op,
				Offset: inst.Offset,
				Err:    err,
			}
		}
		if done {
			return f.returnValue, nil
		}

		if f.pc == pc {
			f.pc++
		}
	}
	return f.returnValue, nil
}

// step executes one instruction. done reports a return.
func (f *Frame) step(inst Instruction) (bool, error) {
	switch inst.Op {

	case OpNop, OpResume, OpPrecall:

	case OpPushNull:
		f.Push(Null)

	case OpPopTop:
		f.Pop()

	case OpCopy:
		i, err := depthArg(inst)
		if err != nil {
			return false, err
		}
		if i > f.sp {
			return false, stackTooShallow(inst, i, f.sp)
		}
		f.Push(f.Peek(i))

	case OpSwap:
		i, err := depthArg(inst)
		if err != nil {
			return false, err
		}
		if i > f.sp {
			return false, stackTooShallow(inst, i, f.sp)
		}
		top := f.Peek(1)
		f.set(1, f.Peek(i))
		f.set(i, top)

	case OpLoadConst:
		v, err := valueArg(inst)
		if err != nil {
			return false, err
		}
		f.Push(v)

	case OpLoadName:
		name, err := nameArg(inst)
		if err != nil {
			return false, err
		}
		v, err := f.LoadName(name)
		if err != nil {
			return false, err
		}
		f.Push(v)

	case OpLoadGlobal:
		name, err := nameArg(inst)
		if err != nil {
			return false, err
		}
		v, err := f.LoadGlobal(name)
		if err != nil {
			return false, err
		}
		f.Push(v)

	case OpLoadFast:
		name, err := nameArg(inst)
		if err != nil {
			return false, err
		}
		v, err := f.LoadFast(name)
		if err != nil {
			return false, err
		}
		f.Push(v)

	case OpStoreName, OpStoreFast:
		name, err := nameArg(inst)
		if err != nil {
			return false, err
		}
		f.StoreName(name, f.Pop())

	case OpStoreGlobal:
		name, err := nameArg(inst)
		if err != nil {
			return false, err
		}
		f.StoreGlobal(name, f.Pop())

	case OpDeleteName, OpDeleteFast:
		name, err := nameArg(inst)
		if err != nil {
			return false, err
		}
		if err := f.DeleteName(name); err != nil {
			return false, err
		}

	case OpLoadAttr:
		attr, err := attrArg(inst)
		if err != nil {
			return false, err
		}
		v := f.Pop()
		if !attr.Method {
			a, err := GetAttr(v, attr.Name)
			if err != nil {
				return false, err
			}
			f.Push(a)
			break
		}
		binding, err := LookupAttr(v, attr.Name)
		if err != nil {
			return false, err
		}
		if binding.Method != nil {
			f.Push(binding.Method, v)
		} else {
			f.Push(Null, binding.Value)
		}

	case OpBinaryOp:
		op, err := binaryArg(inst)
		if err != nil {
			return false, err
		}
		right := f.Pop()
		left := f.Pop()
		result, err := Binary(op, left, right)
		if err != nil {
			return false, err
		}
		f.Push(result)

	case OpCompareOp:
		op, err := compareArg(inst)
		if err != nil {
			return false, err
		}
		right := f.Pop()
		left := f.Pop()
		result, err := Compare(op, left, right)
		if err != nil {
			return false, err
		}
		f.Push(result)

	case OpUnaryNegative, OpUnaryNot, OpUnaryInvert:
		result, err := Unary(inst.Op, f.Pop())
		if err != nil {
			return false, err
		}
		f.Push(result)

	case OpBinarySubscr:
		key := f.Pop()
		container := f.Pop()
		v, err := Subscript(container, key)
		if err != nil {
			return false, err
		}
		f.Push(v)

	case OpStoreSubscr:
		key := f.Pop()
		container := f.Pop()
		value := f.Pop()
		if err := SetSubscript(container, key, value); err != nil {
			return false, err
		}

	case OpDeleteSubscr:
		key := f.Pop()
		container := f.Pop()
		if err := DelSubscript(container, key); err != nil {
			return false, err
		}

	case OpBinarySlice:
		end := f.Pop()
		start := f.Pop()
		container := f.Pop()
		v, err := Subscript(container, Slice{Start: start, Stop: end, Step: None})
		if err != nil {
			return false, err
		}
		f.Push(v)

	case OpStoreSlice:
		end := f.Pop()
		start := f.Pop()
		container := f.Pop()
		value := f.Pop()
		if err := SetSubscript(container, Slice{Start: start, Stop: end, Step: None}, value); err != nil {
			return false, err
		}

	case OpBuildSlice:
		n, err := countArg(inst)
		if err != nil {
			return false, err
		}
		switch n {
		case 2:
			end := f.Pop()
			start := f.Pop()
			f.Push(Slice{Start: start, Stop: end, Step: None})
		case 3:
			step := f.Pop()
			end := f.Pop()
			start := f.Pop()
			f.Push(Slice{Start: start, Stop: end, Step: step})
		default:
			return false, &ArityMismatchError{
				Want:   2,
				Got:    n,
				Detail: "BuildSlice takes 2 or 3 operands",
			}
		}

	case OpBuildTuple:
		n, err := countArg(inst)
		if err != nil {
			return false, err
		}
		f.Push(Tuple(f.Popn(n)))

	case OpBuildList:
		n, err := countArg(inst)
		if err != nil {
			return false, err
		}
		f.Push(NewList(f.Popn(n)...))

	case OpBuildSet:
		n, err := countArg(inst)
		if err != nil {
			return false, err
		}
		s, err := NewSet(f.Popn(n)...)
		if err != nil {
			return false, err
		}
		f.Push(s)

	case OpBuildMap:
		n, err := countArg(inst)
		if err != nil {
			return false, err
		}
		items := f.Popn(2 * n)
		d := NewDict()
		for i := 0; i+1 < len(items); i += 2 {
			if err := d.Set(items[i], items[i+1]); err != nil {
				return false, err
			}
		}
		f.Push(d)

	case OpBuildString:
		n, err := countArg(inst)
		if err != nil {
			return false, err
		}
		var s string
		for _, part := range f.Popn(n) {
			s += ToStr(part)
		}
		f.Push(Str(s))

	case OpFormatValue:
		arg, err := formatArg(inst)
		if err != nil {
			return false, err
		}
		spec := ""
		if arg.HasSpec {
			s, ok := f.Pop().(Str)
			if !ok {
				return false, &UnsupportedOperationError{
					Op:     "FormatValue",
					Detail: "format spec is not a str",
				}
			}
			spec = string(s)
		}
		v, err := Convert(f.Pop(), arg.Conversion)
		if err != nil {
			return false, err
		}
		s, err := Format(v, spec)
		if err != nil {
			return false, err
		}
		f.Push(Str(s))

	case OpListExtend:
		i, err := depthArg(inst)
		if err != nil {
			return false, err
		}
		iterable := f.Pop()
		l, ok := f.Peek(i).(*List)
		if !ok {
			return false, unsupported("ListExtend", f.Peek(i))
		}
		elems, err := Elements(iterable)
		if err != nil {
			return false, err
		}
		l.Elems = append(l.Elems, elems...)

	case OpListAppend:
		i, err := depthArg(inst)
		if err != nil {
			return false, err
		}
		v := f.Pop()
		l, ok := f.Peek(i).(*List)
		if !ok {
			return false, unsupported("ListAppend", f.Peek(i))
		}
		l.Elems = append(l.Elems, v)

	case OpSetAdd:
		i, err := depthArg(inst)
		if err != nil {
			return false, err
		}
		v := f.Pop()
		s, ok := f.Peek(i).(*Set)
		if !ok {
			return false, unsupported("SetAdd", f.Peek(i))
		}
		if err := s.Add(v); err != nil {
			return false, err
		}

	case OpMapAdd:
		i, err := depthArg(inst)
		if err != nil {
			return false, err
		}
		value := f.Pop()
		key := f.Pop()
		d, ok := f.Peek(i).(*Dict)
		if !ok {
			return false, unsupported("MapAdd", f.Peek(i))
		}
		if err := d.Set(key, value); err != nil {
			return false, err
		}

	case OpUnpackSequence:
		n, err := countArg(inst)
		if err != nil {
			return false, err
		}
		elems, err := Elements(f.Pop())
		if err != nil {
			return false, err
		}
		if len(elems) != n {
			return false, &ArityMismatchError{
				Want:   n,
				Got:    len(elems),
				Detail: fmt.Sprintf("expected %d values to unpack, got %d", n, len(elems)),
			}
		}
		for i := len(elems) - 1; i >= 0; i-- {
			f.Push(elems[i])
		}

	case OpGetIter:
		it, err := GetIter(f.Pop())
		if err != nil {
			return false, err
		}
		f.Push(it)

	case OpForIter:
		it, ok := f.Top().(Iterator)
		if !ok {
			return false, unsupported("ForIter", f.Top())
		}
		v, ok := it.Next()
		if ok {
			f.Push(v)
			break
		}
		if err := f.jump(inst.Arg); err != nil {
			return false, err
		}

	case OpEndFor:
		f.Pop()

	case OpJumpForward, OpJumpBackward:
		if err := f.jump(inst.Arg); err != nil {
			return false, err
		}

	case OpPopJumpIfFalse:
		if !Truth(f.Pop()) {
			if err := f.jump(inst.Arg); err != nil {
				return false, err
			}
		}

	case OpPopJumpIfTrue:
		if Truth(f.Pop()) {
			if err := f.jump(inst.Arg); err != nil {
				return false, err
			}
		}

	case OpPopJumpIfNone:
		if _, ok := f.Pop().(NoneType); ok {
			if err := f.jump(inst.Arg); err != nil {
				return false, err
			}
		}

	case OpPopJumpIfNotNone:
		if _, ok := f.Pop().(NoneType); !ok {
			if err := f.jump(inst.Arg); err != nil {
				return false, err
			}
		}

	case OpMakeFunction:
		flags, err := flagsArg(inst)
		if err != nil {
			return false, err
		}
		var closure, annotations, kwdefaults, defaults Value
		if flags&FlagClosure != 0 {
			closure = f.Pop()
		}
		if flags&FlagAnnotations != 0 {
			annotations = f.Pop()
		}
		if flags&FlagKwDefaults != 0 {
			kwdefaults = f.Pop()
		}
		if flags&FlagDefaults != 0 {
			defaults = f.Pop()
		}
		codeValue := f.Pop()
		code, ok := codeValue.(*Code)
		if !ok {
			return false, unsupported("MakeFunction", codeValue)
		}
		fn, err := MakeFunction(code, f.locals, defaults, kwdefaults, annotations, closure)
		if err != nil {
			return false, err
		}
		f.Push(fn)

	case OpKwNames:
		names, err := namesArg(inst)
		if err != nil {
			return false, err
		}
		f.kwNames = names

	case OpCall:
		n, err := countArg(inst)
		if err != nil {
			return false, err
		}
		args := f.Popn(n)
		callable := f.Pop()
		if f.sp > 0 {
			switch below := f.Top().(type) {
			case nullMarker:
				f.Pop()
			case *BoundMethod:
				if Identical(below.Receiver, callable) {
					f.Pop()
					callable = below
				}
			}
		}
		kwNames := f.kwNames
		f.kwNames = nil
		if len(kwNames) > len(args) {
			return false, &ArityMismatchError{
				Want:   len(kwNames),
				Got:    len(args),
				Detail: "more keyword names than arguments",
			}
		}
		positional := args[:len(args)-len(kwNames)]
		var kwargs Kwargs
		for i, name := range kwNames {
			kwargs = append(kwargs, Kwarg{
				Name:  name,
				Value: args[len(positional)+i],
			})
		}
		result, err := f.Call(callable, positional, kwargs)
		if err != nil {
			return false, err
		}
		f.Push(result)

	case OpReturnValue:
		f.returnValue = f.Pop()
		return true, nil

	case OpReturnConst:
		v, err := valueArg(inst)
		if err != nil {
			return false, err
		}
		f.returnValue = v
		return true, nil

	default:
		return false, &UnsupportedOperationError{
			Op:     inst.Op.String(),
			Detail: "unknown opcode",
		}
	}

	return false, nil
}

func (v *VM) tracing(ctx context.Context) bool {
	if v.Logger == nil {
		return false
	}
	return v.Trace || v.Logger.Enabled(ctx, slog.LevelDebug)
}

func (v *VM) traceLevel() slog.Level {
	if v.Trace {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

func stackTooShallow(inst Instruction, want, got int) error {
	return &ArityMismatchError{
		Want:   want,
		Got:    got,
		Detail: inst.Op.String() + " reaches below the bottom of the stack",
	}
}

func intArg(arg any) (int, bool) {
	switch a := arg.(type) {
	case int:
		return a, true
	case int64:
		return int(a), true
	case int32:
		return int(a), true
	case uint8:
		return int(a), true
	case Int:
		return int(a), true
	case MakeFunctionFlags:
		return int(a), true
	case BinaryOperator:
		return int(a), true
	}
	return 0, false
}

func countArg(inst Instruction) (int, error) {
	n, ok := intArg(inst.Arg)
	if !ok || n < 0 {
		return 0, badOperand(inst)
	}
	return n, nil
}

// depthArg is the operand of Copy, Swap and the collection builders. 1 is the top.
func depthArg(inst Instruction) (int, error) {
	n, ok := intArg(inst.Arg)
	if !ok {
		return 0, badOperand(inst)
	}
	if n < 1 {
		return 0, &ArityMismatchError{
			Want:   1,
			Got:    n,
			Detail: inst.Op.String() + " depth must be at least 1",
		}
	}
	return n, nil
}

func nameArg(inst Instruction) (string, error) {
	switch a := inst.Arg.(type) {
	case string:
		return a, nil
	case Str:
		return string(a), nil
	}
	return "", badOperand(inst)
}

func valueArg(inst Instruction) (Value, error) {
	if inst.Arg == nil {
		return None, nil
	}
	if v, ok := inst.Arg.(Value); ok {
		return v, nil
	}
	v, err := FromGo(inst.Arg)
	if err != nil {
		return nil, badOperand(inst)
	}
	return v, nil
}

func attrArg(inst Instruction) (AttrArg, error) {
	switch a := inst.Arg.(type) {
	case AttrArg:
		return a, nil
	case *AttrArg:
		return *a, nil
	case string:
		return AttrArg{Name: a}, nil
	}
	return AttrArg{}, badOperand(inst)
}

func binaryArg(inst Instruction) (BinaryOperator, error) {
	switch a := inst.Arg.(type) {
	case string:
		if op, ok := ParseBinaryOperator(a); ok {
			return op, nil
		}
	default:
		if n, ok := intArg(a); ok {
			return BinaryOperator(n), nil
		}
	}
	return 0, &UnsupportedOperationError{
		Op:     "BinaryOp",
		Detail: fmt.Sprintf("unknown binary operator %v", inst.Arg),
	}
}

func compareArg(inst Instruction) (Comparison, error) {
	switch a := inst.Arg.(type) {
	case Comparison:
		return a, nil
	case string:
		return Comparison(a), nil
	case Str:
		return Comparison(a), nil
	}
	return "", badOperand(inst)
}

func formatArg(inst Instruction) (FormatArg, error) {
	switch a := inst.Arg.(type) {
	case nil:
		return FormatArg{}, nil
	case FormatArg:
		return a, nil
	case *FormatArg:
		return *a, nil
	}
	return FormatArg{}, badOperand(inst)
}

func flagsArg(inst Instruction) (MakeFunctionFlags, error) {
	if inst.Arg == nil {
		return 0, nil
	}
	n, ok := intArg(inst.Arg)
	if !ok || n < 0 || n > 0x0f {
		return 0, badOperand(inst)
	}
	return MakeFunctionFlags(n), nil
}

func namesArg(inst Instruction) ([]string, error) {
	switch a := inst.Arg.(type) {
	case []string:
		return a, nil
	case Tuple:
		names := make([]string, 0, len(a))
		for _, v := range a {
			s, ok := v.(Str)
			if !ok {
				return nil, badOperand(inst)
			}
			names = append(names, string(s))
		}
		return names, nil
	}
	return nil, badOperand(inst)
}

func badOperand(inst Instruction) error {
	return &UnsupportedOperationError{
		Op:     inst.Op.String(),
		Detail: "bad operand " + strconv.Quote(fmt.Sprintf("%v", inst.Arg)),
	}
}
