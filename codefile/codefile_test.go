package codefile

import (
	"bytes"
	"math"
	"math/big"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/reusee/pyframe/framepy"
	"github.com/reusee/pyframe/framevm"
)

func TestDecodeFact(t *testing.T) {
	f, err := os.Open("testdata/fact.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	code, err := Decode(f)
	if err != nil {
		t.Fatal(err)
	}

	fact, ok := code.Instructions[1].Arg.(*framevm.Code)
	if !ok {
		t.Fatalf("got %T", code.Instructions[1].Arg)
	}
	if fact.ParamCount != 1 || fact.ParamNames[0] != "n" {
		t.Fatalf("got %v", fact.ParamNames)
	}
	if inst := fact.Instructions[7]; inst.Offset != 14 || inst.Op != framevm.OpLoadFast {
		t.Fatalf("got %+v", inst)
	}
	if op := code.Instructions[3].Op; op != framevm.OpStoreName {
		t.Fatalf("got %v", op)
	}

	ret, err := framevm.Run(code, framepy.Builtins())
	if err != nil {
		t.Fatal(err)
	}
	if ret != framevm.Int(120) {
		t.Fatalf("got %v", framevm.Repr(ret))
	}
}

const roundTripSource = `
def f(a, b=2, *, c=3):
    return [a, b, c]

def outer(n):
    def inner(x):
        return x + n
    return inner

xs = [x * 2 for x in range(4) if x != 1]
d = {"k": f(1, c=4)}
s = "hello"[1:3] + "world"[::-1]
r = outer(10)(5) + len(xs)
big = 123456789012345678901234567890
fl = 2.0
t = (1, "a", None, True)
s2 = "{} is {}".format(s, s.upper())
`

func TestRoundTrip(t *testing.T) {
	code, err := framepy.Compile("roundtrip", strings.NewReader(roundTripSource))
	if err != nil {
		t.Fatal(err)
	}

	buf := new(bytes.Buffer)
	if err := Encode(buf, code); err != nil {
		t.Fatal(err)
	}
	decoded, err := Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("%v\n%s", err, buf.String())
	}
	assertSameCode(t, code, decoded)

	// encoding is stable
	buf2 := new(bytes.Buffer)
	if err := Encode(buf2, decoded); err != nil {
		t.Fatal(err)
	}
	if buf.String() != buf2.String() {
		t.Fatalf("got\n%s\nwant\n%s", buf2.String(), buf.String())
	}

	run := func(code *framevm.Code) framevm.Names {
		vm := &framevm.VM{
			Builtins: framepy.Builtins(),
		}
		globals := framevm.Names{}
		if _, err := vm.Exec(t.Context(), code, globals); err != nil {
			t.Fatal(err)
		}
		return globals
	}
	want := run(code)
	got := run(decoded)
	for _, name := range []string{"xs", "d", "s", "r", "big", "fl", "t", "s2"} {
		if framevm.Repr(got[name]) != framevm.Repr(want[name]) {
			t.Fatalf("%s: got %s, want %s", name, framevm.Repr(got[name]), framevm.Repr(want[name]))
		}
	}
	if r := got["r"]; r != framevm.Int(18) {
		t.Fatalf("got %v", framevm.Repr(r))
	}
}

func assertSameCode(t *testing.T, want, got *framevm.Code) {
	t.Helper()
	if got.Name != want.Name ||
		got.ParamCount != want.ParamCount ||
		len(got.ParamNames) != len(want.ParamNames) ||
		len(got.KwOnlyNames) != len(want.KwOnlyNames) ||
		len(got.FreeVars) != len(want.FreeVars) {
		t.Fatalf("%s: header mismatch: got %+v", want.Name, got)
	}
	if len(got.Instructions) != len(want.Instructions) {
		t.Fatalf("%s: got %d instructions, want %d", want.Name, len(got.Instructions), len(want.Instructions))
	}
	for i, w := range want.Instructions {
		g := got.Instructions[i]
		if g.Op != w.Op || g.Offset != w.Offset {
			t.Fatalf("%s: instruction %d: got %+v, want %+v", want.Name, i, g, w)
		}
		if wc, ok := w.Arg.(*framevm.Code); ok {
			gc, ok := g.Arg.(*framevm.Code)
			if !ok {
				t.Fatalf("%s: instruction %d: got %T", want.Name, i, g.Arg)
			}
			assertSameCode(t, wc, gc)
			continue
		}
		if !sameOperand(w.Arg, g.Arg) {
			t.Fatalf("%s: instruction %d (%v): got %#v, want %#v", want.Name, i, w.Op, g.Arg, w.Arg)
		}
	}
}

func sameOperand(want, got any) bool {
	if wv, ok := want.(framevm.Value); ok {
		gv, ok := got.(framevm.Value)
		return ok && wv.Kind() == gv.Kind() && framevm.Equal(wv, gv)
	}
	if want == nil {
		return got == nil
	}
	if n, ok := toInt(want); ok {
		m, ok := toInt(got)
		return ok && n == m
	}
	return reflect.DeepEqual(want, got)
}

func TestConstants(t *testing.T) {
	huge, _ := new(big.Int).SetString("-99999999999999999999999", 10)
	for _, v := range []framevm.Value{
		framevm.None,
		framevm.True,
		framevm.Int(-42),
		framevm.MakeBigInt(huge),
		framevm.Float(0.1),
		framevm.Float(3),
		framevm.Float(math.Inf(-1)),
		framevm.Str("123"),
		framevm.Str("null"),
		framevm.Str("multi\nline: yes"),
		framevm.Tuple{framevm.Int(1), framevm.Tuple{framevm.Str("x")}},
		framevm.NewList(framevm.Int(1), framevm.Float(1)),
	} {
		node, err := encodeValue(v)
		if err != nil {
			t.Fatal(err)
		}
		got, err := decodeValue(node)
		if err != nil {
			t.Fatal(err)
		}
		if got.Kind() != v.Kind() || framevm.Repr(got) != framevm.Repr(v) {
			t.Fatalf("got %s, want %s", framevm.Repr(got), framevm.Repr(v))
		}
	}

	nan, err := decodeValue(scalar("!!float", ".nan"))
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(float64(nan.(framevm.Float))) {
		t.Fatalf("got %v", nan)
	}

	if _, err := encodeValue(framevm.NewDict()); err == nil {
		t.Fatal("should fail")
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, src := range []string{
		"name: x\nparams: []\ninstructions:\n  - {op: Bogus}\n",
		"name: x\nparams: []\ninstructions:\n  - {op: PopTop, arg: 1}\n",
		"name: x\nparams: []\ninstructions:\n  - {op: BinaryOp, arg: \"<>\"}\n",
		"name: x\nparams: []\ninstructions:\n  - {op: Nop, offset: 0}\n  - {op: Nop, offset: 0}\n",
		"name: x\nparams: []\nunknown: 1\ninstructions: []\n",
		"name: x\nparams: []\ninstructions:\n  - {op: MakeFunction, arg: [bogus]}\n",
		"name: x\nparams: []\ninstructions:\n  - {op: Nop, bogus: 1}\n",
		"name: x\nparams: []\ninstructions:\n  - Nop\n",
		"name: x\nparams: []\ninstructions:\n  - op: LoadConst\n    arg: !code {name: f, params: [], extra: 1, instructions: []}\n",
		"",
	} {
		_, err := Decode(strings.NewReader(src))
		if err == nil {
			t.Fatalf("should fail: %q", src)
		}
	}
}

func TestEncodeErrors(t *testing.T) {
	code := &framevm.Code{
		Name: "bad",
		Instructions: []framevm.Instruction{
			{Op: framevm.OpLoadName, Arg: 1},
		},
	}
	err := Encode(new(bytes.Buffer), code)
	if err == nil {
		t.Fatal("should fail")
	}
	if !strings.Contains(err.Error(), "bad name operand") {
		t.Fatalf("got %v", err)
	}

	if err := Encode(new(bytes.Buffer), nil); err == nil {
		t.Fatal("should fail")
	}
}

func TestDisassemble(t *testing.T) {
	code, err := framepy.Compile("dis", strings.NewReader(`
def f(x):
    return x.upper()
`))
	if err != nil {
		t.Fatal(err)
	}
	buf := new(strings.Builder)
	if err := Disassemble(buf, code); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Disassembly of dis:",
		"Disassembly of f:",
		"<code f>",
		"upper (method)",
		"ReturnConst        None",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in\n%s", want, out)
		}
	}
}

func TestDecodeEncoded(t *testing.T) {
	code, err := framepy.Compile("encoded", strings.NewReader(`
def add(a, b=1):
    return a + b

x = add(2)
y = add(2, b=x)
`))
	if err != nil {
		t.Fatal(err)
	}
	buf := new(bytes.Buffer)
	if err := Encode(buf, code); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "arg:") {
		t.Fatalf("no operands in\n%s", buf.String())
	}
	decoded, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	vm := &framevm.VM{
		Builtins: framepy.Builtins(),
	}
	globals := framevm.Names{}
	if _, err := vm.Exec(t.Context(), decoded, globals); err != nil {
		t.Fatal(err)
	}
	if globals["x"] != framevm.Int(3) || globals["y"] != framevm.Int(5) {
		t.Fatalf("got %v %v", globals["x"], globals["y"])
	}
}

func TestDecodeUnknownFieldMessage(t *testing.T) {
	_, err := Decode(strings.NewReader("name: x\nparams: []\nversion: 2\ninstructions: []\n"))
	if err == nil || !strings.Contains(err.Error(), "field version not found") {
		t.Fatalf("got %v", err)
	}
}
