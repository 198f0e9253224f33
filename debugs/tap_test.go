package debugs

import (
	"strings"
	"testing"

	"github.com/reusee/dscope"
	"github.com/reusee/pyframe/framepy"
	"github.com/reusee/pyframe/framevm"
	"github.com/reusee/pyframe/logs"
	"go.starlark.net/starlark"
)

func TestTap(t *testing.T) {
	dscope.New(
		new(logs.Module),
		new(Module),
	).Call(func(
		tap Tap,
	) {
		tap(t.Context(), "test", framepy.NewVM(nil, nil, 0, false), framevm.Names{
			"foo": framevm.Int(42),
		})
	})
}

func TestBindings(t *testing.T) {
	vm := framepy.NewVM(nil, nil, 10, false)
	globals := framevm.Names{}
	if _, err := framepy.Exec(t.Context(), vm, globals, "<test>", `
base = 100
def add(a, b=1):
    return base + a + b
`); err != nil {
		t.Fatal(err)
	}

	bindings := Bindings(t.Context(), vm, globals)
	if ok, err := starlark.Equal(bindings["base"], starlark.MakeInt(100)); err != nil || !ok {
		t.Fatalf("got %v", bindings["base"])
	}

	thread := &starlark.Thread{Name: "test"}
	ret, err := starlark.Call(thread, bindings["add"], starlark.Tuple{starlark.MakeInt(1)}, []starlark.Tuple{
		{starlark.String("b"), starlark.MakeInt(10)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := ret.(starlark.Int).Int64(); !ok || n != 111 {
		t.Fatalf("got %v", ret)
	}

	ret, err = starlark.Call(thread, bindings["py"], starlark.Tuple{starlark.String("x = add(2)\nx * 2")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := starlark.AsString(ret); s != "206" {
		t.Fatalf("got %v", ret)
	}
	if globals["x"] != framevm.Int(103) {
		t.Fatalf("got %v", globals["x"])
	}

	ret, err = starlark.Call(thread, bindings["py"], starlark.Tuple{starlark.String("nope")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := starlark.AsString(ret); !strings.HasPrefix(s, "error: ") {
		t.Fatalf("got %v", ret)
	}

	info, ok := bindings["vm"].(*starlark.Dict)
	if !ok {
		t.Fatalf("got %T", bindings["vm"])
	}
	depth, found, err := info.Get(starlark.String("MaxDepth"))
	if err != nil || !found {
		t.Fatalf("got %v %v", found, err)
	}
	if ok, err := starlark.Equal(depth, starlark.MakeInt(10)); err != nil || !ok {
		t.Fatalf("got %v %v %v", depth, found, err)
	}
}
