package main

import (
	"context"
	"fmt"
	"os"

	"github.com/reusee/dscope"
	"github.com/reusee/pyframe/cmds"
	"github.com/reusee/pyframe/codefile"
	"github.com/reusee/pyframe/debugs"
	"github.com/reusee/pyframe/frameconfigs"
	"github.com/reusee/pyframe/framepy"
	"github.com/reusee/pyframe/framevm"
	"github.com/reusee/pyframe/logs"
	"github.com/reusee/pyframe/modes"
	"golang.org/x/term"
)

var tapFlag = cmds.Switch("-tap", "open a starlark REPL over the globals after each run")

// action runs once the scope is built, after every flag has been read.
type action func(scope dscope.Scope) error

var actions []action

func init() {
	cmds.Define("run", cmds.Func(func(path string) {
		actions = append(actions, runAction(path))
	}).Args("file").Desc("execute a .py source or a .yaml code file"))

	cmds.Define("eval", cmds.Func(func(src string) {
		actions = append(actions, evalAction(src))
	}).Args("source").Desc("execute a snippet and print its value"))

	cmds.Define("dis", cmds.Func(func(path string) {
		actions = append(actions, dumpAction(path))
	}).Args("file").Desc("compile a source and write the code file to stdout"))

	cmds.Define("asm", cmds.Func(func(path string) {
		actions = append(actions, disassembleAction(path))
	}).Args("file").Desc("print an instruction listing"))

	cmds.Define("repl", cmds.Func(func() {
		actions = append(actions, replAction())
	}).Desc("read and execute lines interactively"))

	cmds.Fallback(func(word string) error {
		if _, err := os.Stat(word); err != nil {
			return fmt.Errorf("%w: %s", cmds.ErrUnknownCommand, word)
		}
		actions = append(actions, runAction(word))
		return nil
	})
}

func main() {
	if err := cmds.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		cmds.GlobalExecutor.PrintUsage()
		os.Exit(2)
	}
	if len(actions) == 0 {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			actions = append(actions, replAction())
		} else {
			actions = append(actions, stdinAction())
		}
	}

	scope := dscope.New(
		new(logs.Module),
		new(frameconfigs.Module),
		new(framepy.Module),
		new(debugs.Module),
	).Fork(
		modes.ForProduction(),
	)

	for _, action := range actions {
		if err := action(scope); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
}

func runAction(path string) action {
	return func(scope dscope.Scope) (err error) {
		code, err := loadCode(path)
		if err != nil {
			return err
		}
		scope.Call(func(
			vm *framevm.VM,
			tap debugs.Tap,
		) {
			ctx := context.Background()
			globals := framevm.Names{}
			var ret framevm.Value
			ret, err = vm.Exec(ctx, code, globals)
			if *tapFlag {
				tap(ctx, path, vm, globals)
			}
			if err == nil {
				printResult(vm, ret)
			}
		})
		return
	}
}

func stdinAction() action {
	return func(scope dscope.Scope) (err error) {
		code, err := framepy.Compile("<stdin>", os.Stdin)
		if err != nil {
			return err
		}
		scope.Call(func(
			vm *framevm.VM,
		) {
			_, err = vm.Exec(context.Background(), code, nil)
		})
		return
	}
}

func evalAction(src string) action {
	return func(scope dscope.Scope) (err error) {
		scope.Call(func(
			vm *framevm.VM,
		) {
			var ret framevm.Value
			ret, err = framepy.Exec(context.Background(), vm, framevm.Names{}, "<eval>", src)
			if err == nil {
				printResult(vm, ret)
			}
		})
		return
	}
}

func dumpAction(path string) action {
	return func(dscope.Scope) error {
		code, err := loadCode(path)
		if err != nil {
			return err
		}
		return codefile.Encode(os.Stdout, code)
	}
}

func disassembleAction(path string) action {
	return func(dscope.Scope) error {
		code, err := loadCode(path)
		if err != nil {
			return err
		}
		return codefile.Disassemble(os.Stdout, code)
	}
}

func replAction() action {
	return func(scope dscope.Scope) (err error) {
		scope.Call(func(
			vm *framevm.VM,
			history frameconfigs.HistoryFile,
			preload frameconfigs.Preload,
			tap debugs.Tap,
			logger logs.Logger,
		) {
			globals := framevm.Names{}
			if err = preloadGlobals(vm, globals, preload); err != nil {
				return
			}
			err = runREPL(vm, globals, string(history), tap, logger)
		})
		return
	}
}

// preloadGlobals executes each file in order over one set of globals.
func preloadGlobals(vm *framevm.VM, globals framevm.Names, paths []string) error {
	for _, path := range paths {
		code, err := loadCode(path)
		if err != nil {
			return err
		}
		if _, err := vm.Exec(context.Background(), code, globals); err != nil {
			return err
		}
	}
	return nil
}

func printResult(vm *framevm.VM, ret framevm.Value) {
	if ret == nil || ret == framevm.None {
		return
	}
	fmt.Fprintln(vm.Output(), framevm.Repr(ret))
}
