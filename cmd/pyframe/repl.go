package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/reusee/pyframe/debugs"
	"github.com/reusee/pyframe/framepy"
	"github.com/reusee/pyframe/framevm"
	"github.com/reusee/pyframe/logs"
)

const (
	prompt         = ">>> "
	continuePrompt = "... "
	tapCommand     = ":tap"
)

func runREPL(vm *framevm.VM, globals framevm.Names, historyFile string, tap debugs.Tap, logger logs.Logger) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      prompt,
		HistoryFile: historyFile,
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	vm.Stdout = rl.Stdout()

	ctx := context.Background()
	var block []string
	for {
		if len(block) > 0 {
			rl.SetPrompt(continuePrompt)
		} else {
			rl.SetPrompt(prompt)
		}
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			block = nil
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if len(block) == 0 && strings.TrimSpace(line) == tapCommand {
			tap(ctx, "repl", vm, globals)
			continue
		}

		var src string
		var more bool
		block, src, more = feedLine(block, line)
		if more || src == "" {
			continue
		}
		ret, err := framepy.Exec(ctx, vm, globals, "<stdin>", src)
		if err != nil {
			logger.Debug("repl error", "error", err)
			fmt.Fprintf(rl.Stderr(), "error: %v\n", err)
			continue
		}
		printResult(vm, ret)
	}
}

// feedLine adds one input line. A line ending with a colon opens a block that an empty line
// closes; src is the complete snippet once more is false.
func feedLine(block []string, line string) (_ []string, src string, more bool) {
	trimmed := strings.TrimSpace(line)
	if len(block) == 0 {
		if trimmed == "" {
			return nil, "", false
		}
		if !strings.HasSuffix(trimmed, ":") {
			return nil, line, false
		}
		return []string{line}, "", true
	}
	if trimmed != "" {
		return append(block, line), "", true
	}
	return nil, strings.Join(block, "\n") + "\n", false
}
