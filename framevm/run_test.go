package framevm

import (
	"context"
	"errors"
	"testing"
)

func inst(op Opcode, arg ...any) Instruction {
	ret := Instruction{
		Op: op,
	}
	if len(arg) > 0 {
		ret.Arg = arg[0]
	}
	return ret
}

// assemble numbers instructions with offsets 0, 2, 4... so index i is at offset 2*i.
func assemble(name string, params []string, insts ...Instruction) *Code {
	for i := range insts {
		insts[i].Offset = i * 2
	}
	return &Code{
		Name:         name,
		ParamNames:   params,
		ParamCount:   len(params),
		Instructions: insts,
	}
}

var testBuiltins = NewBuiltins(map[string]Value{
	"range": TypeRange,
	"list":  TypeList,
	"int":   TypeInt,
	"bool":  TypeBool,
	"len": &Builtin{
		Name: "len",
		Fn: func(_ *Frame, args []Value, _ Kwargs) (Value, error) {
			n, ok := Len(args[0])
			if !ok {
				return nil, unsupported("len", args[0])
			}
			return Int(n), nil
		},
	},
})

func run(t *testing.T, code *Code) Value {
	t.Helper()
	ret, err := Run(code, testBuiltins)
	if err != nil {
		t.Fatal(err)
	}
	return ret
}

func TestArithmetic(t *testing.T) {
	ret := run(t, assemble("main", nil,
		inst(OpLoadConst, Int(3)),
		inst(OpLoadConst, Int(4)),
		inst(OpBinaryOp, BinaryAdd),
		inst(OpReturnValue),
	))
	if !Equal(ret, Int(7)) {
		t.Fatalf("got %v", Repr(ret))
	}

	ret = run(t, assemble("main", nil,
		inst(OpLoadConst, Int(3)),
		inst(OpLoadConst, Int(4)),
		inst(OpCompareOp, CmpLt),
		inst(OpReturnValue),
	))
	if ret != True {
		t.Fatalf("got %v", Repr(ret))
	}

	// in-place operators behave like the plain form
	ret = run(t, assemble("main", nil,
		inst(OpLoadConst, Int(10)),
		inst(OpLoadConst, Int(4)),
		inst(OpBinaryOp, BinaryFloorDivide.Inplace()),
		inst(OpReturnValue),
	))
	if ret != Int(2) {
		t.Fatalf("got %v", Repr(ret))
	}
}

func TestRunOffTheEnd(t *testing.T) {
	ret := run(t, assemble("main", nil,
		inst(OpLoadConst, Int(1)),
		inst(OpStoreName, "x"),
	))
	if ret != None {
		t.Fatalf("got %v", Repr(ret))
	}
}

func TestNameResolution(t *testing.T) {
	vm := &VM{
		Builtins: NewBuiltins(map[string]Value{
			"x": Str("builtin"),
			"y": Str("builtin"),
			"z": Str("builtin"),
		}),
	}
	globals := Names{
		"x": Str("global"),
		"y": Str("global"),
	}
	f := vm.newFrame(context.Background(), assemble("f", nil), globals, Names{
		"x": Str("local"),
	}, 0)

	for name, expected := range map[string]Value{
		"x": Str("local"),
		"y": Str("global"),
		"z": Str("builtin"),
	} {
		v, err := f.LoadName(name)
		if err != nil {
			t.Fatal(err)
		}
		if v != expected {
			t.Fatalf("%s: got %v", name, v)
		}
	}

	v, err := f.LoadGlobal("x")
	if err != nil {
		t.Fatal(err)
	}
	if v != Str("global") {
		t.Fatalf("got %v", v)
	}

	_, err = f.LoadFast("y")
	var nameErr *NameLookupError
	if !errors.As(err, &nameErr) || nameErr.Name != "y" {
		t.Fatalf("got %v", err)
	}

	_, err = f.LoadName("nope")
	if !errors.As(err, &nameErr) || nameErr.Name != "nope" {
		t.Fatalf("got %v", err)
	}
}

func TestMissingNameFromCode(t *testing.T) {
	_, err := Run(assemble("main", nil,
		inst(OpLoadName, "missing"),
		inst(OpReturnValue),
	), testBuiltins)
	var nameErr *NameLookupError
	if !errors.As(err, &nameErr) {
		t.Fatalf("got %v", err)
	}
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("got %v", err)
	}
	if execErr.Op != OpLoadName || execErr.Offset != 0 || execErr.Code != "main" {
		t.Fatalf("got %+v", execErr)
	}
}

func TestPopnPush(t *testing.T) {
	vm := &VM{}
	for depth := 0; depth < 5; depth++ {
		for n := 0; n <= depth; n++ {
			f := vm.newFrame(context.Background(), assemble("f", nil), Names{}, Names{}, 0)
			for i := range depth {
				f.Push(Int(i))
			}
			values := f.Popn(n)
			if len(values) != n {
				t.Fatalf("got %v", values)
			}
			for i, v := range values {
				if v != Int(depth-n+i) {
					t.Fatalf("deepest first: got %v", values)
				}
			}
			f.Push(values...)
			if f.StackLen() != depth {
				t.Fatalf("got %d", f.StackLen())
			}
			for i := range depth {
				if f.Peek(depth-i) != Int(i) {
					t.Fatalf("got %v at %d", f.Peek(depth-i), i)
				}
			}
		}
	}
}

func countLoop(t *testing.T, iterable Value) int {
	t.Helper()
	ret := run(t, assemble("main", nil,
		inst(OpLoadConst, Int(0)), // 0
		inst(OpStoreName, "n"),    // 1
		inst(OpLoadConst, iterable),
		inst(OpGetIter),
		inst(OpForIter, 22), // 4
		inst(OpPopTop),
		inst(OpLoadName, "n"),
		inst(OpLoadConst, Int(1)),
		inst(OpBinaryOp, BinaryAdd.Inplace()),
		inst(OpStoreName, "n"),
		inst(OpJumpBackward, 8), // 10
		inst(OpEndFor),
		inst(OpLoadName, "n"),
		inst(OpReturnValue),
	))
	n, _ := ToInt64(ret)
	return int(n)
}

func TestForIter(t *testing.T) {
	if n := countLoop(t, NewList()); n != 0 {
		t.Fatalf("got %d", n)
	}
	for k := 1; k < 5; k++ {
		elems := make([]Value, k)
		for i := range elems {
			elems[i] = Int(i)
		}
		if n := countLoop(t, NewList(elems...)); n != k {
			t.Fatalf("got %d", n)
		}
	}
	r, _ := NewRange(0, 10, 3)
	if n := countLoop(t, r); n != 4 {
		t.Fatalf("got %d", n)
	}
	if n := countLoop(t, Str("héllo")); n != 5 {
		t.Fatalf("got %d", n)
	}
}

// stepForIter runs GetIter then one ForIter over iterable by hand and returns the frame.
func stepForIter(t *testing.T, iterable Value) *Frame {
	t.Helper()
	code := assemble("loop", nil,
		inst(OpLoadConst, iterable), // 0
		inst(OpGetIter),
		inst(OpForIter, 8), // 4
		inst(OpPopTop),
		inst(OpEndFor), // 8
		inst(OpReturnConst, None),
	)
	vm := &VM{
		Builtins: testBuiltins,
	}
	f := vm.newFrame(context.Background(), code, Names{}, Names{}, 0)
	for f.pc < 3 {
		pc := f.pc
		if _, err := f.step(code.Instructions[pc]); err != nil {
			t.Fatal(err)
		}
		if f.pc == pc {
			f.pc++
		}
	}
	return f
}

func TestForIterStack(t *testing.T) {
	// exhausted: jumps to the exit leaving only the iterator
	f := stepForIter(t, NewList())
	if f.PC() != 4 {
		t.Fatalf("got pc %d", f.PC())
	}
	if f.StackLen() != 1 {
		t.Fatalf("got depth %d", f.StackLen())
	}
	if _, ok := f.Top().(Iterator); !ok {
		t.Fatalf("got %T", f.Top())
	}

	// advanced: falls through with the value above the iterator
	f = stepForIter(t, NewList(Str("a")))
	if f.PC() != 3 {
		t.Fatalf("got pc %d", f.PC())
	}
	if f.StackLen() != 2 {
		t.Fatalf("got depth %d", f.StackLen())
	}
	if f.Top() != Str("a") {
		t.Fatalf("got %v", Repr(f.Top()))
	}
	if _, ok := f.Peek(1).(Iterator); !ok {
		t.Fatalf("got %T", f.Peek(1))
	}
}

func TestUnpackSequence(t *testing.T) {
	ret := run(t, assemble("main", nil,
		inst(OpLoadConst, Tuple{Int(1), Int(2), Int(3)}),
		inst(OpUnpackSequence, 3),
		inst(OpStoreName, "a"),
		inst(OpStoreName, "b"),
		inst(OpStoreName, "c"),
		inst(OpLoadName, "a"),
		inst(OpLoadName, "b"),
		inst(OpLoadName, "c"),
		inst(OpBuildTuple, 3),
		inst(OpReturnValue),
	))
	if !Equal(ret, Tuple{Int(1), Int(2), Int(3)}) {
		t.Fatalf("got %v", Repr(ret))
	}

	for _, m := range []int{2, 4} {
		elems := make([]Value, m)
		for i := range elems {
			elems[i] = Int(i)
		}
		_, err := Run(assemble("main", nil,
			inst(OpLoadConst, NewList(elems...)),
			inst(OpUnpackSequence, 3),
		), testBuiltins)
		var arity *ArityMismatchError
		if !errors.As(err, &arity) {
			t.Fatalf("got %v", err)
		}
		if arity.Want != 3 || arity.Got != m {
			t.Fatalf("got %+v", arity)
		}
	}
}

func TestCopySwap(t *testing.T) {
	ret := run(t, assemble("main", nil,
		inst(OpLoadConst, Int(1)),
		inst(OpLoadConst, Int(2)),
		inst(OpLoadConst, Int(3)),
		inst(OpSwap, 3),
		inst(OpCopy, 2),
		inst(OpBuildTuple, 4),
		inst(OpReturnValue),
	))
	if !Equal(ret, Tuple{Int(3), Int(2), Int(1), Int(2)}) {
		t.Fatalf("got %v", Repr(ret))
	}

	for _, op := range []Opcode{OpCopy, OpSwap} {
		_, err := Run(assemble("main", nil,
			inst(OpLoadConst, Int(1)),
			inst(op, 0),
		), testBuiltins)
		var arity *ArityMismatchError
		if !errors.As(err, &arity) {
			t.Fatalf("got %v", err)
		}
	}
}

func TestBuildCollections(t *testing.T) {
	ret := run(t, assemble("main", nil,
		inst(OpBuildTuple, 0),
		inst(OpBuildList, 0),
		inst(OpLoadConst, Tuple{Int(1), Int(2)}),
		inst(OpListExtend, 1),
		inst(OpLoadConst, Str("k")),
		inst(OpLoadConst, Int(1)),
		inst(OpBuildMap, 1),
		inst(OpLoadConst, Int(1)),
		inst(OpLoadConst, Int(1)),
		inst(OpBuildSet, 2),
		inst(OpBuildTuple, 4),
		inst(OpReturnValue),
	))
	tuple := ret.(Tuple)
	if len(tuple[0].(Tuple)) != 0 {
		t.Fatalf("got %v", Repr(tuple[0]))
	}
	if Repr(tuple[1]) != "[1, 2]" {
		t.Fatalf("got %v", Repr(tuple[1]))
	}
	if Repr(tuple[2]) != "{'k': 1}" {
		t.Fatalf("got %v", Repr(tuple[2]))
	}
	if Repr(tuple[3]) != "{1}" {
		t.Fatalf("got %v", Repr(tuple[3]))
	}
}

func TestFormatValueBuildString(t *testing.T) {
	ret := run(t, assemble("main", nil,
		inst(OpLoadConst, Str("x=")),
		inst(OpLoadConst, Float(3.14159)),
		inst(OpLoadConst, Str(".2f")),
		inst(OpFormatValue, FormatArg{HasSpec: true}),
		inst(OpLoadConst, Str(" s=")),
		inst(OpLoadConst, Str("hi")),
		inst(OpFormatValue, FormatArg{Conversion: 'r'}),
		inst(OpBuildString, 4),
		inst(OpReturnValue),
	))
	if ret != Str("x=3.14 s='hi'") {
		t.Fatalf("got %v", Repr(ret))
	}

	_, err := Run(assemble("main", nil,
		inst(OpLoadConst, Int(1)),
		inst(OpFormatValue, FormatArg{Conversion: 'x'}),
	), testBuiltins)
	var unsupportedErr *UnsupportedOperationError
	if !errors.As(err, &unsupportedErr) {
		t.Fatalf("got %v", err)
	}
}

func TestComparisonErrors(t *testing.T) {
	_, err := Run(assemble("main", nil,
		inst(OpLoadConst, Int(1)),
		inst(OpLoadConst, Int(2)),
		inst(OpCompareOp, CmpBad),
	), testBuiltins)
	var invalid *InvalidComparisonError
	if !errors.As(err, &invalid) {
		t.Fatalf("got %v", err)
	}

	_, err = Run(assemble("main", nil,
		inst(OpLoadConst, Int(1)),
		inst(OpLoadConst, Int(2)),
		inst(OpCompareOp, Comparison("<>")),
	), testBuiltins)
	var unsupportedErr *UnsupportedOperationError
	if !errors.As(err, &unsupportedErr) {
		t.Fatalf("got %v", err)
	}

	ret := run(t, assemble("main", nil,
		inst(OpLoadConst, TypeBool),
		inst(OpLoadConst, TypeInt),
		inst(OpCompareOp, CmpExceptionMatch),
		inst(OpReturnValue),
	))
	if ret != True {
		t.Fatalf("got %v", ret)
	}
}

func TestMissingJumpTarget(t *testing.T) {
	_, err := Run(assemble("main", nil,
		inst(OpJumpForward, 7),
	), testBuiltins)
	var unsupportedErr *UnsupportedOperationError
	if !errors.As(err, &unsupportedErr) {
		t.Fatalf("got %v", err)
	}
}

func TestConditionalJumps(t *testing.T) {
	branch := func(op Opcode, v Value) Value {
		return run(t, assemble("main", nil,
			inst(OpLoadConst, v),
			inst(op, 8),
			inst(OpLoadConst, Str("fallthrough")),
			inst(OpReturnValue),
			inst(OpLoadConst, Str("jumped")),
			inst(OpReturnValue),
		))
	}
	cases := []struct {
		op       Opcode
		v        Value
		expected Value
	}{
		{OpPopJumpIfFalse, False, Str("jumped")},
		{OpPopJumpIfFalse, Int(1), Str("fallthrough")},
		{OpPopJumpIfTrue, NewList(Int(1)), Str("jumped")},
		{OpPopJumpIfTrue, Str(""), Str("fallthrough")},
		{OpPopJumpIfNone, None, Str("jumped")},
		{OpPopJumpIfNone, False, Str("fallthrough")},
		{OpPopJumpIfNotNone, Int(0), Str("jumped")},
		{OpPopJumpIfNotNone, None, Str("fallthrough")},
	}
	for _, c := range cases {
		if got := branch(c.op, c.v); got != c.expected {
			t.Fatalf("%v %v: got %v", c.op, Repr(c.v), got)
		}
	}
}

func TestSubscriptOps(t *testing.T) {
	ret := run(t, assemble("main", nil,
		inst(OpLoadConst, Tuple{Int(1), Int(2), Int(3), Int(4)}),
		inst(OpStoreName, "t"),
		inst(OpBuildList, 0),
		inst(OpLoadName, "t"),
		inst(OpListExtend, 1),
		inst(OpStoreName, "l"),
		// l[0] = 10
		inst(OpLoadConst, Int(10)),
		inst(OpLoadName, "l"),
		inst(OpLoadConst, Int(0)),
		inst(OpStoreSubscr),
		// del l[-1]
		inst(OpLoadName, "l"),
		inst(OpLoadConst, Int(-1)),
		inst(OpDeleteSubscr),
		// l[1:2] = [7, 8]
		inst(OpLoadConst, Tuple{Int(7), Int(8)}),
		inst(OpLoadName, "l"),
		inst(OpLoadConst, Int(1)),
		inst(OpLoadConst, Int(2)),
		inst(OpStoreSlice),
		// l[::2]
		inst(OpLoadName, "l"),
		inst(OpLoadConst, None),
		inst(OpLoadConst, None),
		inst(OpLoadConst, Int(2)),
		inst(OpBuildSlice, 3),
		inst(OpBinarySubscr),
		// l[1:]
		inst(OpLoadName, "l"),
		inst(OpLoadConst, Int(1)),
		inst(OpLoadConst, None),
		inst(OpBinarySlice),
		inst(OpLoadName, "l"),
		inst(OpBuildTuple, 3),
		inst(OpReturnValue),
	))
	if s := Repr(ret); s != "([10, 8], [7, 8, 3], [10, 7, 8, 3])" {
		t.Fatalf("got %v", s)
	}

	_, err := Run(assemble("main", nil,
		inst(OpLoadConst, NewList()),
		inst(OpLoadConst, Int(0)),
		inst(OpBinarySubscr),
	), testBuiltins)
	var indexErr *IndexRangeError
	if !errors.As(err, &indexErr) {
		t.Fatalf("got %v", err)
	}

	_, err = Run(assemble("main", nil,
		inst(OpBuildMap, 0),
		inst(OpLoadConst, Str("k")),
		inst(OpBinarySubscr),
	), testBuiltins)
	var keyErr *KeyLookupError
	if !errors.As(err, &keyErr) {
		t.Fatalf("got %v", err)
	}
}

func TestLoadAttr(t *testing.T) {
	// method form with a callable member: BoundMethod then receiver
	ret := run(t, assemble("main", nil,
		inst(OpLoadConst, Str("a,b")),
		inst(OpLoadAttr, AttrArg{Name: "split", Method: true}),
		inst(OpLoadConst, Str(",")),
		inst(OpCall, 1),
		inst(OpReturnValue),
	))
	if Repr(ret) != "['a', 'b']" {
		t.Fatalf("got %v", Repr(ret))
	}

	// method form falling back to a plain attribute: null marker then value
	vm := &VM{}
	f := vm.newFrame(context.Background(), assemble("main", nil,
		inst(OpLoadConst, Slice{Start: Int(1), Stop: Int(5), Step: None}),
		inst(OpLoadAttr, AttrArg{Name: "stop", Method: true}),
	), Names{}, Names{}, 0)
	if _, err := f.Run(); err != nil {
		t.Fatal(err)
	}
	if f.StackLen() != 2 || f.Peek(2) != Null || f.Peek(1) != Int(5) {
		t.Fatalf("got %v %v", f.Peek(2), f.Peek(1))
	}

	// missing attribute
	_, err := Run(assemble("main", nil,
		inst(OpLoadConst, Int(1)),
		inst(OpLoadAttr, AttrArg{Name: "nope", Method: true}),
	), testBuiltins)
	var attrErr *AttributeLookupError
	if !errors.As(err, &attrErr) || attrErr.Name != "nope" {
		t.Fatalf("got %v", err)
	}
}

func TestLoopAccumulate(t *testing.T) {
	// total = 0; for i in range(5): total += i
	ret := run(t, assemble("main", nil,
		inst(OpLoadConst, Int(0)), // 0
		inst(OpStoreName, "total"),
		inst(OpPushNull),
		inst(OpLoadName, "range"),
		inst(OpLoadConst, Int(5)),
		inst(OpCall, 1), // 5
		inst(OpGetIter),
		inst(OpForIter, 30), // 7
		inst(OpStoreName, "i"),
		inst(OpLoadName, "total"),
		inst(OpLoadName, "i"), // 10
		inst(OpBinaryOp, BinaryAdd.Inplace()),
		inst(OpStoreName, "total"),
		inst(OpJumpBackward, 14),
		inst(OpNop),
		inst(OpEndFor), // 15
		inst(OpLoadName, "total"),
		inst(OpReturnValue),
	))
	if ret != Int(10) {
		t.Fatalf("got %v", Repr(ret))
	}
}
