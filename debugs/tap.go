package debugs

import (
	"context"
	"maps"
	"slices"

	"github.com/reusee/pyframe/framepy"
	"github.com/reusee/pyframe/framevm"
	"github.com/reusee/pyframe/logs"
	"go.starlark.net/repl"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Tap opens a starlark REPL over the globals left by a run. Interpreter functions stay callable
// and py(src) evaluates a snippet in the interpreter against the same globals.
type Tap func(ctx context.Context, what string, vm *framevm.VM, globals framevm.Names)

type vmInfo struct {
	MaxDepth int
	Trace    bool
	Builtins []string
}

// Bindings returns the starlark globals a tap session starts with.
func Bindings(ctx context.Context, vm *framevm.VM, globals framevm.Names) starlark.StringDict {
	call := vmCaller(ctx, vm, globals)
	mappings := make(starlark.StringDict, len(globals)+2)
	for name, value := range globals {
		mappings[name] = fromFrameValue(value, call)
	}
	mappings["vm"] = toStarlarkValue(vmInfo{
		MaxDepth: vm.MaxDepth,
		Trace:    vm.Trace,
		Builtins: vm.Builtins.Names(),
	})
	mappings["py"] = toStarlarkValue(func(src string) string {
		ret, err := framepy.Exec(ctx, vm, globals, "<tap>", src)
		if err != nil {
			return "error: " + err.Error()
		}
		return framevm.Repr(ret)
	})
	return mappings
}

func (Module) Tap(
	logger logs.Logger,
) Tap {
	return func(ctx context.Context, what string, vm *framevm.VM, globals framevm.Names) {
		logger.InfoContext(ctx, "tap: "+what,
			"globals", slices.Sorted(maps.Keys(globals)),
		)
		defer func() {
			logger.InfoContext(ctx, "tap end: "+what)
		}()

		thread := &starlark.Thread{
			Name: "repl",
		}
		repl.REPLOptions(&syntax.FileOptions{
			Set:             true,
			While:           true,
			TopLevelControl: true,
		}, thread, Bindings(ctx, vm, globals))
	}
}
