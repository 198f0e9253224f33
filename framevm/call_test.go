package framevm

import (
	"context"
	"errors"
	"testing"
)

func TestDefaultsBinding(t *testing.T) {
	fn := &Function{
		Code: &Code{
			Name:       "f",
			ParamNames: []string{"a", "b", "c"},
			ParamCount: 3,
		},
		Defaults: []Value{Str("d0"), Str("d1")},
		Env:      Names{},
	}

	locals, err := Bind(fn, []Value{Str("a0")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if locals["a"] != Str("a0") || locals["b"] != Str("d0") || locals["c"] != Str("d1") {
		t.Fatalf("got %v", locals)
	}

	locals, err = Bind(fn, []Value{Str("a0")}, Kwargs{{Name: "c", Value: Str("kw")}})
	if err != nil {
		t.Fatal(err)
	}
	if locals["a"] != Str("a0") || locals["b"] != Str("d0") || locals["c"] != Str("kw") {
		t.Fatalf("got %v", locals)
	}

	var arity *ArityMismatchError
	_, err = Bind(fn, nil, nil)
	if !errors.As(err, &arity) {
		t.Fatalf("got %v", err)
	}
	_, err = Bind(fn, []Value{Int(1), Int(2), Int(3), Int(4)}, nil)
	if !errors.As(err, &arity) {
		t.Fatalf("got %v", err)
	}
	_, err = Bind(fn, []Value{Int(1)}, Kwargs{{Name: "nope", Value: Int(1)}})
	if !errors.As(err, &arity) {
		t.Fatalf("got %v", err)
	}
}

func TestKeywordOnlyBinding(t *testing.T) {
	fn := &Function{
		Code: &Code{
			Name:        "f",
			ParamNames:  []string{"a", "k"},
			ParamCount:  1,
			KwOnlyNames: []string{"k"},
		},
		KwDefaults: map[string]Value{
			"k": Int(9),
		},
		Env: Names{
			"outer": Int(1),
		},
	}
	locals, err := Bind(fn, []Value{Int(1)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if locals["k"] != Int(9) || locals["outer"] != Int(1) {
		t.Fatalf("got %v", locals)
	}
	locals, err = Bind(fn, []Value{Int(1)}, Kwargs{{Name: "k", Value: Int(2)}})
	if err != nil {
		t.Fatal(err)
	}
	if locals["k"] != Int(2) {
		t.Fatalf("got %v", locals)
	}
	// the captured environment is not touched by binding
	if _, ok := fn.Env["a"]; ok {
		t.Fatal()
	}
}

func factCode() *Code {
	return assemble("fact", []string{"n"},
		inst(OpLoadFast, "n"), // 0
		inst(OpLoadConst, Int(1)),
		inst(OpCompareOp, CmpLe),
		inst(OpPopJumpIfFalse, 10),
		inst(OpReturnConst, Int(1)),
		inst(OpLoadFast, "n"), // 5
		inst(OpPushNull),
		inst(OpLoadGlobal, "fact"),
		inst(OpLoadFast, "n"),
		inst(OpLoadConst, Int(1)),
		inst(OpBinaryOp, BinarySubtract), // 10
		inst(OpCall, 1),
		inst(OpBinaryOp, BinaryMultiply),
		inst(OpReturnValue),
	)
}

func callFact(n Value) *Code {
	return assemble("main", nil,
		inst(OpLoadConst, factCode()),
		inst(OpMakeFunction, 0),
		inst(OpStoreName, "fact"),
		inst(OpPushNull),
		inst(OpLoadName, "fact"),
		inst(OpLoadConst, n),
		inst(OpCall, 1),
		inst(OpReturnValue),
	)
}

func TestFactorial(t *testing.T) {
	ret := run(t, callFact(Int(5)))
	if ret != Int(120) {
		t.Fatalf("got %v", Repr(ret))
	}

	// promotes to arbitrary precision
	ret = run(t, callFact(Int(25)))
	if Repr(ret) != "15511210043330985984000000" {
		t.Fatalf("got %v", Repr(ret))
	}
}

func TestMaxDepth(t *testing.T) {
	vm := &VM{
		Builtins: testBuiltins,
		MaxDepth: 10,
	}
	_, err := vm.Exec(context.Background(), callFact(Int(50)), nil)
	var depthErr *DepthExceededError
	if !errors.As(err, &depthErr) {
		t.Fatalf("got %v", err)
	}
	if depthErr.Max != 10 {
		t.Fatalf("got %v", depthErr.Max)
	}

	ret, err := vm.Exec(context.Background(), callFact(Int(5)), nil)
	if err != nil {
		t.Fatal(err)
	}
	if ret != Int(120) {
		t.Fatalf("got %v", Repr(ret))
	}
}

func TestClosureSnapshot(t *testing.T) {
	get := assemble("get", nil,
		inst(OpLoadName, "i"),
		inst(OpReturnValue),
	)
	globals := Names{}
	vm := &VM{
		Builtins: testBuiltins,
	}
	ret, err := vm.Exec(context.Background(), assemble("main", nil,
		inst(OpBuildList, 0), // 0
		inst(OpStoreName, "fs"),
		inst(OpPushNull),
		inst(OpLoadName, "range"),
		inst(OpLoadConst, Int(3)),
		inst(OpCall, 1), // 5
		inst(OpGetIter),
		inst(OpForIter, 32),
		inst(OpStoreName, "i"),
		inst(OpLoadName, "fs"),
		inst(OpLoadAttr, AttrArg{Name: "append", Method: true}), // 10
		inst(OpLoadConst, get),
		inst(OpMakeFunction, 0),
		inst(OpCall, 1),
		inst(OpPopTop),
		inst(OpJumpBackward, 14), // 15
		inst(OpEndFor),
		inst(OpPushNull),
		inst(OpLoadName, "fs"),
		inst(OpLoadConst, Int(0)),
		inst(OpBinarySubscr), // 20
		inst(OpCall, 0),
		inst(OpReturnValue),
	), globals)
	if err != nil {
		t.Fatal(err)
	}
	if ret != Int(0) {
		t.Fatalf("got %v", Repr(ret))
	}
	if globals["i"] != Int(2) {
		t.Fatalf("got %v", globals["i"])
	}
	fs := globals["fs"].(*List)
	if len(fs.Elems) != 3 {
		t.Fatalf("got %v", Repr(fs))
	}
	for i, fn := range fs.Elems {
		v, err := vm.Call(context.Background(), globals, fn, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if v != Int(i) {
			t.Fatalf("got %v", v)
		}
	}
}

func TestMakeFunctionComponents(t *testing.T) {
	code := &Code{
		Name:        "f",
		ParamNames:  []string{"a", "b", "k"},
		ParamCount:  2,
		KwOnlyNames: []string{"k"},
		FreeVars:    []string{"x"},
		Instructions: []Instruction{
			{Op: OpLoadFast, Arg: "a", Offset: 0},
			{Op: OpLoadFast, Arg: "b", Offset: 2},
			{Op: OpLoadFast, Arg: "k", Offset: 4},
			{Op: OpLoadName, Arg: "x", Offset: 6},
			{Op: OpBuildTuple, Arg: 4, Offset: 8},
			{Op: OpReturnValue, Offset: 10},
		},
	}
	kwdefaults := NewDict()
	if err := kwdefaults.Set(Str("k"), Str("kd")); err != nil {
		t.Fatal(err)
	}
	annotations := NewDict()
	ret := run(t, assemble("main", nil,
		inst(OpLoadConst, code),
		inst(OpLoadConst, Tuple{Str("bd")}),
		inst(OpLoadConst, kwdefaults),
		inst(OpLoadConst, annotations),
		inst(OpLoadConst, Tuple{Str("xv")}),
		inst(OpMakeFunction, FlagDefaults|FlagKwDefaults|FlagAnnotations|FlagClosure),
		inst(OpStoreName, "f"),
		inst(OpPushNull),
		inst(OpLoadName, "f"),
		inst(OpLoadConst, Str("a0")),
		inst(OpCall, 1),
		inst(OpReturnValue),
	))
	if s := Repr(ret); s != "('a0', 'bd', 'kd', 'xv')" {
		t.Fatalf("got %v", s)
	}

	// closure bundle size must match free variables
	_, err := Run(assemble("main", nil,
		inst(OpLoadConst, code),
		inst(OpLoadConst, Tuple{}),
		inst(OpMakeFunction, FlagClosure),
	), testBuiltins)
	var arity *ArityMismatchError
	if !errors.As(err, &arity) {
		t.Fatalf("got %v", err)
	}
}

func TestKwNamesCall(t *testing.T) {
	code := assemble("sub", []string{"a", "b"},
		inst(OpLoadFast, "a"),
		inst(OpLoadFast, "b"),
		inst(OpBinaryOp, BinarySubtract),
		inst(OpReturnValue),
	)
	ret := run(t, assemble("main", nil,
		inst(OpLoadConst, code),
		inst(OpMakeFunction, 0),
		inst(OpStoreName, "sub"),
		inst(OpPushNull),
		inst(OpLoadName, "sub"),
		inst(OpLoadConst, Int(10)),
		inst(OpLoadConst, Int(1)),
		inst(OpKwNames, []string{"b"}),
		inst(OpCall, 2),
		inst(OpReturnValue),
	))
	if ret != Int(9) {
		t.Fatalf("got %v", Repr(ret))
	}
}

func TestCallTypesAndBuiltins(t *testing.T) {
	ret := run(t, assemble("main", nil,
		inst(OpPushNull),
		inst(OpLoadName, "int"),
		inst(OpLoadConst, Str(" 42 ")),
		inst(OpCall, 1),
		inst(OpPushNull),
		inst(OpLoadName, "list"),
		inst(OpPushNull),
		inst(OpLoadName, "range"),
		inst(OpLoadConst, Int(3)),
		inst(OpCall, 1),
		inst(OpCall, 1),
		inst(OpPushNull),
		inst(OpLoadName, "len"),
		inst(OpLoadConst, Str("héllo")),
		inst(OpCall, 1),
		inst(OpBuildTuple, 3),
		inst(OpReturnValue),
	))
	if s := Repr(ret); s != "(42, [0, 1, 2], 5)" {
		t.Fatalf("got %v", s)
	}

	_, err := Run(assemble("main", nil,
		inst(OpPushNull),
		inst(OpLoadConst, Int(1)),
		inst(OpCall, 0),
	), testBuiltins)
	var unsupportedErr *UnsupportedOperationError
	if !errors.As(err, &unsupportedErr) {
		t.Fatalf("got %v", err)
	}
}

func TestNestedExecErrors(t *testing.T) {
	bad := assemble("bad", nil,
		inst(OpLoadConst, Int(1)),
		inst(OpLoadConst, Int(0)),
		inst(OpBinaryOp, BinaryTrueDivide),
		inst(OpReturnValue),
	)
	_, err := Run(assemble("main", nil,
		inst(OpLoadConst, bad),
		inst(OpMakeFunction, 0),
		inst(OpPushNull),
		inst(OpSwap, 2),
		inst(OpCall, 0),
	), testBuiltins)
	var zero *ZeroDivisionError
	if !errors.As(err, &zero) {
		t.Fatalf("got %v", err)
	}
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("got %v", err)
	}
	// outermost frame first
	if execErr.Code != "main" || execErr.Op != OpCall {
		t.Fatalf("got %+v", execErr)
	}
	var inner *ExecError
	if !errors.As(execErr.Err, &inner) || inner.Code != "bad" {
		t.Fatalf("got %v", execErr.Err)
	}
}
