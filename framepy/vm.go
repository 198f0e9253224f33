package framepy

import (
	"context"
	"os"

	"github.com/reusee/dscope"
	"github.com/reusee/pyframe/frameconfigs"
	"github.com/reusee/pyframe/framevm"
	"github.com/reusee/pyframe/logs"
)

type Module struct {
	dscope.Module
}

// NewVM returns a VM with the host builtins that prints to stdout.
func NewVM(logger logs.Logger, newSpan logs.NewSpan, maxDepth int, trace bool) *framevm.VM {
	return &framevm.VM{
		Builtins: Builtins(),
		Logger:   logger,
		NewSpan:  newSpan,
		Trace:    trace,
		MaxDepth: maxDepth,
		Stdout:   os.Stdout,
	}
}

func (Module) VM(
	logger logs.Logger,
	newSpan logs.NewSpan,
	maxDepth frameconfigs.MaxCallDepth,
	trace frameconfigs.Trace,
) *framevm.VM {
	return NewVM(logger, newSpan, int(maxDepth), bool(trace))
}

// Exec compiles src as an interactive snippet and runs it against globals, which keep their
// bindings across calls. The value of a trailing expression is returned.
func Exec(ctx context.Context, vm *framevm.VM, globals framevm.Names, name string, src string) (framevm.Value, error) {
	code, err := CompileInteractive(name, src)
	if err != nil {
		return nil, err
	}
	ret, err := vm.Exec(ctx, code, globals)
	if err != nil {
		return nil, wrap(err)
	}
	return ret, nil
}
