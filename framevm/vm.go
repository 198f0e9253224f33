package framevm

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/reusee/pyframe/logs"
)

// VM holds what every frame of one execution shares.
type VM struct {
	Builtins *Builtins
	Logger   *slog.Logger
	// NewSpan, when set, opens a logging span per traced call.
	NewSpan logs.NewSpan
	// Trace logs every instruction and call at info level instead of debug.
	Trace bool
	// MaxDepth limits nested calls. Zero means no limit.
	MaxDepth int
	Stdout   io.Writer
}

// Run executes code in a fresh scope used as both locals and globals.
func Run(code *Code, builtins *Builtins) (Value, error) {
	vm := &VM{
		Builtins: builtins,
	}
	return vm.Exec(context.Background(), code, Names{})
}

// Exec runs code as a root frame over globals, which are also its locals.
func (v *VM) Exec(ctx context.Context, code *Code, globals Names) (Value, error) {
	if globals == nil {
		globals = Names{}
	}
	if v.tracing(ctx) {
		ctx = logs.WithCode(ctx, code.Name)
		v.Logger.Log(ctx, v.traceLevel(), "exec code", "instructions", len(code.Instructions))
	}
	f := v.newFrame(ctx, code, globals, globals, 0)
	ret, err := f.Run()
	if err != nil {
		return nil, logs.WrapSpan(ctx, err)
	}
	return ret, nil
}

// Call invokes callable from the host, resolving globals from the given scope.
func (v *VM) Call(ctx context.Context, globals Names, callable Value, args []Value, kwargs Kwargs) (Value, error) {
	if globals == nil {
		globals = Names{}
	}
	host := v.newFrame(ctx, &Code{Name: "<host>"}, globals, globals, 0)
	ret, err := host.Call(callable, args, kwargs)
	if err != nil {
		return nil, logs.WrapSpan(ctx, err)
	}
	return ret, nil
}

// Output is where print writes.
func (v *VM) Output() io.Writer {
	if v.Stdout != nil {
		return v.Stdout
	}
	return os.Stdout
}
