package framepy

import (
	"io"

	"github.com/reusee/e5"
	"github.com/reusee/pyframe/framevm"
	"go.starlark.net/syntax"
)

var wrap = e5.Wrap.With(e5.WrapStacktrace)

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// Compile translates a module source into a Code Unit that returns None.
func Compile(name string, source io.Reader) (*framevm.Code, error) {
	return compileFile(name, source, false)
}

// CompileInteractive is Compile for a REPL line: a trailing expression statement becomes the
// return value.
func CompileInteractive(name string, source string) (*framevm.Code, error) {
	return compileFile(name, source, true)
}

func compileFile(name string, source any, interactive bool) (*framevm.Code, error) {
	file, err := fileOptions.Parse(name, source, 0)
	if err != nil {
		return nil, wrap(err)
	}

	stmts := file.Stmts
	var last *syntax.ExprStmt
	if interactive && len(stmts) > 0 {
		if s, ok := stmts[len(stmts)-1].(*syntax.ExprStmt); ok {
			last = s
			stmts = stmts[:len(stmts)-1]
		}
	}

	c := newCompiler(name, moduleScope())
	if err := c.compileStmts(stmts); err != nil {
		return nil, wrap(err)
	}
	if last != nil {
		if err := c.compileExpr(last.X); err != nil {
			return nil, wrap(err)
		}
		c.emit(framevm.OpReturnValue, nil)
	} else {
		c.emit(framevm.OpReturnConst, framevm.None)
	}

	return c.finish(nil, nil), nil
}
