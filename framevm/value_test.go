package framevm

import (
	"errors"
	"math"
	"testing"
)

func TestBinaryNumbers(t *testing.T) {
	cases := []struct {
		op       BinaryOperator
		l, r     Value
		expected string
	}{
		{BinaryAdd, Int(3), Int(4), "7"},
		{BinaryAdd, Int(1), Float(0.5), "1.5"},
		{BinaryAdd, True, True, "2"},
		{BinaryTrueDivide, Int(6), Int(3), "2.0"},
		{BinaryFloorDivide, Int(-7), Int(2), "-4"},
		{BinaryRemainder, Int(-7), Int(2), "1"},
		{BinaryRemainder, Int(7), Int(-2), "-1"},
		{BinaryFloorDivide, Float(7), Float(2), "3.0"},
		{BinaryFloorDivide, Int(1), Float(0.1), "9.0"},
		{BinaryRemainder, Int(1), Float(0.1), "0.09999999999999995"},
		{BinaryFloorDivide, Float(-0.5), Float(1), "-1.0"},
		{BinaryRemainder, Float(-0.5), Float(1), "0.5"},
		{BinaryFloorDivide, Float(7), Float(-2), "-4.0"},
		{BinaryRemainder, Float(7), Float(-2), "-1.0"},
		{BinaryPower, Int(2), Int(10), "1024"},
		{BinaryPower, Int(2), Int(-1), "0.5"},
		{BinaryPower, Int(2), Int(100), "1267650600228229401496703205376"},
		{BinaryLshift, Int(1), Int(70), "1180591620717411303424"},
		{BinaryRshift, Int(-8), Int(1), "-4"},
		{BinaryAnd, Int(6), Int(3), "2"},
		{BinaryOr, Int(6), Int(3), "7"},
		{BinaryXor, Int(6), Int(3), "5"},
		{BinaryMultiply, Int(math.MaxInt64), Int(2), "18446744073709551614"},
		{BinarySubtract, Int(math.MinInt64), Int(1), "-9223372036854775809"},
	}
	for _, c := range cases {
		ret, err := Binary(c.op, c.l, c.r)
		if err != nil {
			t.Fatalf("%v %v %v: %v", Repr(c.l), c.op, Repr(c.r), err)
		}
		if s := Repr(ret); s != c.expected {
			t.Fatalf("%v %v %v: got %v", Repr(c.l), c.op, Repr(c.r), s)
		}
	}

	// big results demote when they fit again
	big, err := Binary(BinaryMultiply, Int(math.MaxInt64), Int(2))
	if err != nil {
		t.Fatal(err)
	}
	ret, err := Binary(BinaryFloorDivide, big, Int(2))
	if err != nil {
		t.Fatal(err)
	}
	if ret != Int(math.MaxInt64) {
		t.Fatalf("got %#v", ret)
	}
}

func TestBinaryErrors(t *testing.T) {
	var zero *ZeroDivisionError
	for _, op := range []BinaryOperator{BinaryTrueDivide, BinaryFloorDivide, BinaryRemainder} {
		if _, err := Binary(op, Int(1), Int(0)); !errors.As(err, &zero) {
			t.Fatalf("got %v", err)
		}
		if _, err := Binary(op, Float(1), Float(0)); !errors.As(err, &zero) {
			t.Fatalf("got %v", err)
		}
	}

	var valueErr *ValueError
	if _, err := Binary(BinaryLshift, Int(1), Int(-1)); !errors.As(err, &valueErr) {
		t.Fatalf("got %v", err)
	}

	var unsupportedErr *UnsupportedOperationError
	if _, err := Binary(BinaryAdd, Int(1), Str("a")); !errors.As(err, &unsupportedErr) {
		t.Fatalf("got %v", err)
	}
	if _, err := Binary(BinarySubtract, Str("a"), Str("a")); !errors.As(err, &unsupportedErr) {
		t.Fatalf("got %v", err)
	}
	if _, err := Binary(BinaryOperator(99), Int(1), Int(1)); !errors.As(err, &unsupportedErr) {
		t.Fatalf("got %v", err)
	}
}

func TestBinarySequences(t *testing.T) {
	cases := []struct {
		op       BinaryOperator
		l, r     Value
		expected string
	}{
		{BinaryAdd, Str("ab"), Str("cd"), "'abcd'"},
		{BinaryMultiply, Str("ab"), Int(3), "'ababab'"},
		{BinaryMultiply, Int(2), NewList(Int(1)), "[1, 1]"},
		{BinaryMultiply, Tuple{Int(1)}, Int(-1), "()"},
		{BinaryAdd, NewList(Int(1)), NewList(Int(2)), "[1, 2]"},
		{BinaryAdd, Tuple{Int(1)}, Tuple{Int(2)}, "(1, 2)"},
		{BinaryRemainder, Str("%d-%s"), Tuple{Int(1), Str("x")}, "'1-x'"},
		{BinaryRemainder, Str("%5.1f|%-4d|%x"), Tuple{Float(3.14159), Int(7), Int(255)}, "'  3.1|7   |ff'"},
		{BinaryRemainder, Str("%r %%"), Str("q"), `"'q' %"`},
	}
	for _, c := range cases {
		ret, err := Binary(c.op, c.l, c.r)
		if err != nil {
			t.Fatal(err)
		}
		if s := Repr(ret); s != c.expected {
			t.Fatalf("got %v, want %v", s, c.expected)
		}
	}

	// in-place add extends the list in place
	l := NewList(Int(1))
	ret, err := Binary(BinaryAdd.Inplace(), l, Tuple{Int(2)})
	if err != nil {
		t.Fatal(err)
	}
	if ret != Value(l) || len(l.Elems) != 2 {
		t.Fatalf("got %v", Repr(ret))
	}

	var valueErr *ValueError
	if _, err := Binary(BinaryRemainder, Str("%d %d"), Tuple{Int(1)}); !errors.As(err, &valueErr) {
		t.Fatalf("got %v", err)
	}
	if _, err := Binary(BinaryRemainder, Str("%d"), Tuple{Int(1), Int(2)}); !errors.As(err, &valueErr) {
		t.Fatalf("got %v", err)
	}
}

func TestSetAndDictOperators(t *testing.T) {
	a, _ := NewSet(Int(1), Int(2), Int(3))
	b, _ := NewSet(Int(2), Int(3), Int(4))
	for op, expected := range map[BinaryOperator]string{
		BinaryOr:       "{1, 2, 3, 4}",
		BinaryAnd:      "{2, 3}",
		BinarySubtract: "{1}",
		BinaryXor:      "{1, 4}",
	} {
		ret, err := Binary(op, a, b)
		if err != nil {
			t.Fatal(err)
		}
		if s := Repr(ret); s != expected {
			t.Fatalf("%v: got %v", op, s)
		}
	}

	d1 := NewDict()
	_ = d1.Set(Str("a"), Int(1))
	d2 := NewDict()
	_ = d2.Set(Str("a"), Int(2))
	_ = d2.Set(Str("b"), Int(3))
	ret, err := Binary(BinaryOr, d1, d2)
	if err != nil {
		t.Fatal(err)
	}
	if s := Repr(ret); s != "{'a': 2, 'b': 3}" {
		t.Fatalf("got %v", s)
	}
}

func TestCompare(t *testing.T) {
	a, _ := NewSet(Int(1))
	b, _ := NewSet(Int(1), Int(2))
	cases := []struct {
		op       Comparison
		l, r     Value
		expected bool
	}{
		{CmpEq, Int(1), Float(1), true},
		{CmpEq, True, Int(1), true},
		{CmpNe, Str("a"), Str("b"), true},
		{CmpLt, Str("a"), Str("b"), true},
		{CmpLt, Tuple{Int(1), Int(2)}, Tuple{Int(1), Int(3)}, true},
		{CmpLe, NewList(Int(1)), NewList(Int(1), Int(0)), true},
		{CmpEq, NewList(Int(1), Str("x")), NewList(Int(1), Str("x")), true},
		{CmpEq, NewList(Int(1)), Tuple{Int(1)}, false},
		{CmpLt, a, b, true},
		{CmpGt, a, b, false},
		{CmpGe, b, a, true},
		{CmpLt, Float(math.NaN()), Int(1), false},
		{CmpEq, Float(math.NaN()), Float(math.NaN()), false},
		{CmpIn, Str("ell"), Str("hello"), true},
		{CmpIn, Int(2), NewList(Int(1), Int(2)), true},
		{CmpNotIn, Int(3), Tuple{Int(1)}, true},
		{CmpIn, Int(4), &Range{Start: 0, Stop: 10, Step: 2}, true},
		{CmpIn, Int(5), &Range{Start: 0, Stop: 10, Step: 2}, false},
		{CmpIs, None, None, true},
		{CmpIsNot, NewList(), NewList(), true},
		{CmpExceptionMatch, TypeBool, Tuple{TypeStr, TypeInt}, true},
		{CmpExceptionMatch, TypeInt, TypeBool, false},
	}
	for _, c := range cases {
		ret, err := Compare(c.op, c.l, c.r)
		if err != nil {
			t.Fatalf("%v %v %v: %v", Repr(c.l), c.op, Repr(c.r), err)
		}
		if ret != Bool(c.expected) {
			t.Fatalf("%v %v %v: got %v", Repr(c.l), c.op, Repr(c.r), ret)
		}
	}

	var unsupportedErr *UnsupportedOperationError
	if _, err := Compare(CmpLt, Int(1), Str("a")); !errors.As(err, &unsupportedErr) {
		t.Fatalf("got %v", err)
	}
	if _, err := Compare(CmpIn, Int(1), Int(1)); !errors.As(err, &unsupportedErr) {
		t.Fatalf("got %v", err)
	}
}

func TestHashing(t *testing.T) {
	d := NewDict()
	if err := d.Set(Int(1), Str("int")); err != nil {
		t.Fatal(err)
	}
	if err := d.Set(Float(1), Str("float")); err != nil {
		t.Fatal(err)
	}
	if err := d.Set(True, Str("bool")); err != nil {
		t.Fatal(err)
	}
	if d.Len() != 1 {
		t.Fatalf("got %v", Repr(d))
	}
	if s := Repr(d); s != "{1: 'bool'}" {
		t.Fatalf("got %v", s)
	}

	if err := d.Set(Tuple{Int(1), Str("a")}, None); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := d.Get(Tuple{Int(1), Str("a")}); !ok {
		t.Fatal()
	}

	var unsupportedErr *UnsupportedOperationError
	if err := d.Set(NewList(), None); !errors.As(err, &unsupportedErr) {
		t.Fatalf("got %v", err)
	}
	if err := d.Set(Tuple{NewList()}, None); !errors.As(err, &unsupportedErr) {
		t.Fatalf("got %v", err)
	}

	if _, _, err := d.Delete(Int(1)); err != nil {
		t.Fatal(err)
	}
	if s := Repr(d); s != "{(1, 'a'): None}" {
		t.Fatalf("got %v", s)
	}
}

func TestRepr(t *testing.T) {
	cases := []struct {
		v        Value
		expected string
	}{
		{None, "None"},
		{True, "True"},
		{Float(1), "1.0"},
		{Float(0.1), "0.1"},
		{Float(1e16), "1e+16"},
		{Float(1.5e-7), "1.5e-07"},
		{Float(math.Inf(-1)), "-inf"},
		{Str("it's"), `"it's"`},
		{Str("a\nb"), `'a\nb'`},
		{Tuple{Int(1)}, "(1,)"},
		{Tuple{}, "()"},
		{NewList(Str("a"), None), "['a', None]"},
		{Slice{Start: None, Stop: Int(2), Step: None}, "slice(None, 2, None)"},
		{&Range{Start: 0, Stop: 3, Step: 1}, "range(0, 3)"},
		{TypeInt, "<class 'int'>"},
	}
	for _, c := range cases {
		if s := Repr(c.v); s != c.expected {
			t.Fatalf("got %v, want %v", s, c.expected)
		}
	}
	empty, _ := NewSet()
	if s := Repr(empty); s != "set()" {
		t.Fatalf("got %v", s)
	}
	if s := ToStr(Str("x")); s != "x" {
		t.Fatalf("got %v", s)
	}
	if s := ASCII(Str("é")); s != `'\xe9'` {
		t.Fatalf("got %v", s)
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		v        Value
		spec     string
		expected string
	}{
		{Int(42), "", "42"},
		{Int(42), "5", "   42"},
		{Int(42), "<5", "42   "},
		{Int(42), "^6", "  42  "},
		{Int(42), "*>6", "****42"},
		{Int(-42), "06", "-00042"},
		{Int(42), "+d", "+42"},
		{Int(1234567), ",", "1,234,567"},
		{Int(255), "x", "ff"},
		{Int(255), "#X", "0XFF"},
		{Int(5), "b", "101"},
		{Int(65), "c", "A"},
		{Int(3), ".2f", "3.00"},
		{Float(3.14159), ".2f", "3.14"},
		{Float(0.5), "%", "50.000000%"},
		{Float(1234.5), "e", "1.234500e+03"},
		{Float(1234.5), ".3g", "1.23e+03"},
		{Float(1.0), ".3", "1.0"},
		{Float(-1.5), "8.2f", "   -1.50"},
		{Float(math.Inf(1)), "f", "inf"},
		{Str("ab"), "<4", "ab  "},
		{Str("ab"), ">4", "  ab"},
		{Str("abcdef"), ".3", "abc"},
		{True, "", "True"},
	}
	for _, c := range cases {
		s, err := Format(c.v, c.spec)
		if err != nil {
			t.Fatalf("%v %q: %v", Repr(c.v), c.spec, err)
		}
		if s != c.expected {
			t.Fatalf("%v %q: got %q, want %q", Repr(c.v), c.spec, s, c.expected)
		}
	}

	var valueErr *ValueError
	if _, err := Format(Str("a"), "d"); !errors.As(err, &valueErr) {
		t.Fatalf("got %v", err)
	}
	if _, err := Format(Float(1), "x"); !errors.As(err, &valueErr) {
		t.Fatalf("got %v", err)
	}
}

func TestSlicing(t *testing.T) {
	l := NewList(Int(0), Int(1), Int(2), Int(3), Int(4))
	cases := []struct {
		s        Slice
		expected string
	}{
		{Slice{Start: Int(1), Stop: Int(3), Step: None}, "[1, 2]"},
		{Slice{Start: Int(-2), Stop: None, Step: None}, "[3, 4]"},
		{Slice{Start: None, Stop: None, Step: Int(-1)}, "[4, 3, 2, 1, 0]"},
		{Slice{Start: Int(10), Stop: Int(20), Step: None}, "[]"},
		{Slice{Start: Int(-100), Stop: Int(2), Step: None}, "[0, 1]"},
		{Slice{Start: Int(4), Stop: Int(0), Step: Int(-2)}, "[4, 2]"},
	}
	for _, c := range cases {
		ret, err := Subscript(l, c.s)
		if err != nil {
			t.Fatal(err)
		}
		if s := Repr(ret); s != c.expected {
			t.Fatalf("%v: got %v", Repr(c.s), s)
		}
	}

	ret, err := Subscript(Str("héllo"), Slice{Start: Int(1), Stop: Int(3), Step: None})
	if err != nil {
		t.Fatal(err)
	}
	if ret != Str("él") {
		t.Fatalf("got %v", ret)
	}

	r, _ := NewRange(0, 10, 1)
	ret, err = Subscript(r, Slice{Start: Int(2), Stop: None, Step: Int(3)})
	if err != nil {
		t.Fatal(err)
	}
	elems, _ := Elements(ret)
	if s := Repr(Tuple(elems)); s != "(2, 5, 8)" {
		t.Fatalf("got %v", s)
	}

	var valueErr *ValueError
	if _, err := Subscript(l, Slice{Start: None, Stop: None, Step: Int(0)}); !errors.As(err, &valueErr) {
		t.Fatalf("got %v", err)
	}

	if err := SetSubscript(l, Slice{Start: None, Stop: None, Step: Int(2)}, Tuple{Int(9)}); err == nil {
		t.Fatal("expected size mismatch")
	}
	if err := DelSubscript(l, Slice{Start: None, Stop: None, Step: Int(2)}); err != nil {
		t.Fatal(err)
	}
	if s := Repr(l); s != "[1, 3]" {
		t.Fatalf("got %v", s)
	}
}

func TestRangeLen(t *testing.T) {
	cases := []struct {
		start, stop, step int64
		expected          int64
	}{
		{0, 10, 1, 10},
		{0, 10, 3, 4},
		{10, 0, -1, 10},
		{10, 0, -3, 4},
		{0, 0, 1, 0},
		{5, 0, 1, 0},
		{0, math.MaxInt64, 2, 1 << 62},
		{math.MaxInt64, 0, -2, 1 << 62},
		{0, math.MaxInt64, 1, math.MaxInt64},
		{math.MinInt64 + 1, 0, 1, math.MaxInt64},
		{math.MinInt64, math.MaxInt64, math.MaxInt64, 3},
		{math.MaxInt64, math.MinInt64, math.MinInt64, 2},
	}
	for _, c := range cases {
		r, err := NewRange(c.start, c.stop, c.step)
		if err != nil {
			t.Fatal(err)
		}
		n, ok := r.Len()
		if !ok || n != c.expected {
			t.Fatalf("%v: got %d %v", Repr(r), n, ok)
		}
	}
	if _, err := NewRange(0, 1, 0); err == nil {
		t.Fatal()
	}

	// one more element than an int64 counts
	r, err := NewRange(math.MinInt64, math.MaxInt64, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Len(); ok {
		t.Fatal("should not fit")
	}
	if !Truth(r) {
		t.Fatal("should be true")
	}
	if _, err := Subscript(r, Int(0)); err == nil {
		t.Fatal("should fail")
	}
}

func TestWideRangeIteration(t *testing.T) {
	r, err := NewRange(math.MaxInt64-6, math.MaxInt64, 3)
	if err != nil {
		t.Fatal(err)
	}
	it, err := GetIter(r)
	if err != nil {
		t.Fatal(err)
	}
	var got []Value
	for v, ok := it.Next(); ok; v, ok = it.Next() {
		got = append(got, v)
	}
	if len(got) != 2 || got[0] != Int(math.MaxInt64-6) || got[1] != Int(math.MaxInt64-3) {
		t.Fatalf("got %v", got)
	}

	wide, err := NewRange(0, math.MaxInt64, 2)
	if err != nil {
		t.Fatal(err)
	}
	it, err = GetIter(wide)
	if err != nil {
		t.Fatal(err)
	}
	for i := range 3 {
		v, ok := it.Next()
		if !ok || v != Int(2*i) {
			t.Fatalf("got %v %v", v, ok)
		}
	}

	if !wide.Contains(Int(math.MaxInt64 - 1)) {
		t.Fatal("should contain")
	}
	if wide.Contains(Int(math.MaxInt64)) {
		t.Fatal("should not contain")
	}
	down, err := NewRange(math.MaxInt64, math.MinInt64, -3)
	if err != nil {
		t.Fatal(err)
	}
	if !down.Contains(Int(math.MaxInt64 - 3)) || down.Contains(Int(math.MaxInt64-1)) {
		t.Fatal()
	}
}

func TestTruth(t *testing.T) {
	empty, _ := NewSet()
	for _, v := range []Value{None, False, Int(0), Float(0), Str(""), NewList(), Tuple{}, NewDict(), empty, &Range{Start: 0, Stop: 0, Step: 1}} {
		if Truth(v) {
			t.Fatalf("%v should be false", Repr(v))
		}
	}
	for _, v := range []Value{True, Int(-1), Float(0.1), Str("a"), NewList(None), Tuple{None}, TypeInt} {
		if !Truth(v) {
			t.Fatalf("%v should be true", Repr(v))
		}
	}
}

func TestConversions(t *testing.T) {
	cases := []struct {
		typ      *Type
		args     []Value
		expected string
	}{
		{TypeInt, []Value{Str("0x1f"), Int(0)}, "31"},
		{TypeInt, []Value{Str("-1_000")}, "-1000"},
		{TypeInt, []Value{Float(-3.9)}, "-3"},
		{TypeFloat, []Value{Str(" 2.5 ")}, "2.5"},
		{TypeFloat, []Value{Str("-inf")}, "-inf"},
		{TypeStr, []Value{Float(2)}, "'2.0'"},
		{TypeBool, []Value{Str("")}, "False"},
		{TypeTuple, []Value{Str("ab")}, "('a', 'b')"},
		{TypeSet, []Value{NewList(Int(1), Int(1))}, "{1}"},
		{TypeDict, []Value{NewList(Tuple{Str("a"), Int(1)})}, "{'a': 1}"},
		{TypeType, []Value{True}, "<class 'bool'>"},
	}
	for _, c := range cases {
		ret, err := c.typ.New(c.args, nil)
		if err != nil {
			t.Fatalf("%s: %v", c.typ.Name, err)
		}
		if s := Repr(ret); s != c.expected {
			t.Fatalf("%s: got %v", c.typ.Name, s)
		}
	}

	var valueErr *ValueError
	if _, err := TypeInt.New([]Value{Str("x")}, nil); !errors.As(err, &valueErr) {
		t.Fatalf("got %v", err)
	}
	if _, err := TypeFloat.New([]Value{Str("x")}, nil); !errors.As(err, &valueErr) {
		t.Fatalf("got %v", err)
	}

	ok, err := IsInstance(True, TypeInt)
	if err != nil || !ok {
		t.Fatalf("got %v %v", ok, err)
	}
}

func TestMethods(t *testing.T) {
	call := func(recv Value, name string, args ...Value) Value {
		t.Helper()
		m, err := GetAttr(recv, name)
		if err != nil {
			t.Fatal(err)
		}
		vm := &VM{}
		ret, err := vm.Call(t.Context(), nil, m, args, nil)
		if err != nil {
			t.Fatal(err)
		}
		return ret
	}

	l := NewList(Int(3), Int(1), Int(2))
	call(l, "append", Int(0))
	call(l, "sort")
	if s := Repr(l); s != "[0, 1, 2, 3]" {
		t.Fatalf("got %v", s)
	}
	if v := call(l, "pop"); v != Int(3) {
		t.Fatalf("got %v", v)
	}
	call(l, "insert", Int(0), Int(9))
	call(l, "reverse")
	if s := Repr(l); s != "[2, 1, 0, 9]" {
		t.Fatalf("got %v", s)
	}
	if v := call(l, "index", Int(0)); v != Int(2) {
		t.Fatalf("got %v", v)
	}

	d := NewDict()
	call(d, "setdefault", Str("a"), Int(1))
	if v := call(d, "get", Str("b"), Int(5)); v != Int(5) {
		t.Fatalf("got %v", v)
	}
	if s := Repr(call(d, "items")); s != "[('a', 1)]" {
		t.Fatalf("got %v", s)
	}

	if v := call(Str(","), "join", NewList(Str("a"), Str("b"))); v != Str("a,b") {
		t.Fatalf("got %v", v)
	}
	if s := Repr(call(Str(" a  b "), "split")); s != "['a', 'b']" {
		t.Fatalf("got %v", s)
	}
	if v := call(Str("{} {!r:>5}|{0:03d}"), "format", Int(1), Str("a")); v != Str("1   'a'|001") {
		t.Fatalf("got %v", v)
	}
	if v := call(Str("hello"), "upper"); v != Str("HELLO") {
		t.Fatalf("got %v", v)
	}
	if v := call(Str("hello"), "startswith", Tuple{Str("x"), Str("he")}); v != True {
		t.Fatalf("got %v", v)
	}
	if v := call(Str("-5"), "zfill", Int(4)); v != Str("-005") {
		t.Fatalf("got %v", v)
	}
}
