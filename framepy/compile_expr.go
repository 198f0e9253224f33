package framepy

import (
	"github.com/reusee/pyframe/framevm"
	"go.starlark.net/syntax"
)

var binaryOps = map[syntax.Token]framevm.BinaryOperator{
	syntax.PLUS:       framevm.BinaryAdd,
	syntax.MINUS:      framevm.BinarySubtract,
	syntax.STAR:       framevm.BinaryMultiply,
	syntax.SLASH:      framevm.BinaryTrueDivide,
	syntax.SLASHSLASH: framevm.BinaryFloorDivide,
	syntax.PERCENT:    framevm.BinaryRemainder,
	syntax.AMP:        framevm.BinaryAnd,
	syntax.PIPE:       framevm.BinaryOr,
	syntax.CIRCUMFLEX: framevm.BinaryXor,
	syntax.LTLT:       framevm.BinaryLshift,
	syntax.GTGT:       framevm.BinaryRshift,
	syntax.STARSTAR:   framevm.BinaryPower,
}

var comparisons = map[syntax.Token]framevm.Comparison{
	syntax.EQL:    framevm.CmpEq,
	syntax.NEQ:    framevm.CmpNe,
	syntax.LT:     framevm.CmpLt,
	syntax.LE:     framevm.CmpLe,
	syntax.GT:     framevm.CmpGt,
	syntax.GE:     framevm.CmpGe,
	syntax.IN:     framevm.CmpIn,
	syntax.NOT_IN: framevm.CmpNotIn,
}

var constants = map[string]framevm.Value{
	"None":  framevm.None,
	"True":  framevm.True,
	"False": framevm.False,
}

func (c *compiler) compileExpr(expr syntax.Expr) error {
	switch e := expr.(type) {
	case *syntax.Literal:
		v, err := framevm.FromGo(e.Value)
		if err != nil {
			return c.errorf(e, "%v", err)
		}
		c.emit(framevm.OpLoadConst, v)
	case *syntax.Ident:
		if v, ok := constants[e.Name]; ok {
			c.emit(framevm.OpLoadConst, v)
			break
		}
		c.emit(c.scope.loadOp(e.Name), e.Name)
	case *syntax.UnaryExpr:
		return c.compileUnaryExpr(e)
	case *syntax.BinaryExpr:
		return c.compileBinaryExpr(e)
	case *syntax.CallExpr:
		return c.compileCallExpr(e)
	case *syntax.ListExpr:
		if err := c.compileExprs(e.List); err != nil {
			return err
		}
		c.emit(framevm.OpBuildList, len(e.List))
	case *syntax.TupleExpr:
		if err := c.compileExprs(e.List); err != nil {
			return err
		}
		c.emit(framevm.OpBuildTuple, len(e.List))
	case *syntax.DictExpr:
		for _, entry := range e.List {
			entry := entry.(*syntax.DictEntry)
			if err := c.compileExpr(entry.Key); err != nil {
				return err
			}
			if err := c.compileExpr(entry.Value); err != nil {
				return err
			}
		}
		c.emit(framevm.OpBuildMap, len(e.List))
	case *syntax.IndexExpr:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		if err := c.compileExpr(e.Y); err != nil {
			return err
		}
		c.emit(framevm.OpBinarySubscr, nil)
	case *syntax.ParenExpr:
		return c.compileExpr(e.X)
	case *syntax.SliceExpr:
		return c.compileSliceExpr(e)
	case *syntax.DotExpr:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		c.emit(framevm.OpLoadAttr, framevm.AttrArg{
			Name: e.Name.Name,
		})
	case *syntax.CondExpr:
		return c.compileCondExpr(e)
	case *syntax.LambdaExpr:
		return c.compileLambdaExpr(e)
	case *syntax.Comprehension:
		return c.compileComprehension(e)
	default:
		return c.errorf(expr, "unsupported expression: %T", expr)
	}
	return nil
}

func (c *compiler) compileExprs(exprs []syntax.Expr) error {
	for _, expr := range exprs {
		if err := c.compileExpr(expr); err != nil {
			return err
		}
	}
	return nil
}

// compileOptional pushes None for an omitted slice bound.
func (c *compiler) compileOptional(expr syntax.Expr) error {
	if expr == nil {
		c.emit(framevm.OpLoadConst, framevm.None)
		return nil
	}
	return c.compileExpr(expr)
}

func (c *compiler) compileSliceKey(e *syntax.SliceExpr) error {
	for _, bound := range []syntax.Expr{e.Lo, e.Hi, e.Step} {
		if err := c.compileOptional(bound); err != nil {
			return err
		}
	}
	c.emit(framevm.OpBuildSlice, 3)
	return nil
}

func (c *compiler) compileSliceExpr(e *syntax.SliceExpr) error {
	if err := c.compileExpr(e.X); err != nil {
		return err
	}
	if e.Step == nil {
		if err := c.compileOptional(e.Lo); err != nil {
			return err
		}
		if err := c.compileOptional(e.Hi); err != nil {
			return err
		}
		c.emit(framevm.OpBinarySlice, nil)
		return nil
	}
	if err := c.compileSliceKey(e); err != nil {
		return err
	}
	c.emit(framevm.OpBinarySubscr, nil)
	return nil
}

func (c *compiler) compileUnaryExpr(e *syntax.UnaryExpr) error {
	switch e.Op {
	case syntax.PLUS:
		return c.compileExpr(e.X)
	case syntax.MINUS:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		c.emit(framevm.OpUnaryNegative, nil)
	case syntax.NOT:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		c.emit(framevm.OpUnaryNot, nil)
	case syntax.TILDE:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		c.emit(framevm.OpUnaryInvert, nil)
	default:
		return c.errorf(e, "unsupported unary op: %v", e.Op)
	}
	return nil
}

func (c *compiler) compileBinaryExpr(e *syntax.BinaryExpr) error {
	// and / or keep the deciding operand as the result
	if e.Op == syntax.AND || e.Op == syntax.OR {
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		c.emit(framevm.OpCopy, 1)
		jump := framevm.OpPopJumpIfFalse
		if e.Op == syntax.OR {
			jump = framevm.OpPopJumpIfTrue
		}
		jumpEndIP := c.emit(jump, 0)
		c.emit(framevm.OpPopTop, nil)
		if err := c.compileExpr(e.Y); err != nil {
			return err
		}
		c.patchJump(jumpEndIP, c.currentIP())
		return nil
	}

	if err := c.compileExpr(e.X); err != nil {
		return err
	}
	if err := c.compileExpr(e.Y); err != nil {
		return err
	}
	if op, ok := binaryOps[e.Op]; ok {
		c.emit(framevm.OpBinaryOp, op)
		return nil
	}
	if cmp, ok := comparisons[e.Op]; ok {
		c.emit(framevm.OpCompareOp, cmp)
		return nil
	}
	return c.errorf(e, "unsupported binary op: %v", e.Op)
}

func (c *compiler) compileCallExpr(e *syntax.CallExpr) error {
	if dot, ok := e.Fn.(*syntax.DotExpr); ok {
		if err := c.compileExpr(dot.X); err != nil {
			return err
		}
		c.emit(framevm.OpLoadAttr, framevm.AttrArg{
			Name:   dot.Name.Name,
			Method: true,
		})
	} else {
		c.emit(framevm.OpPushNull, nil)
		if err := c.compileExpr(e.Fn); err != nil {
			return err
		}
	}

	var kwNames []string
	for _, arg := range e.Args {
		switch arg := arg.(type) {
		case *syntax.BinaryExpr:
			if arg.Op == syntax.EQ {
				id, ok := arg.X.(*syntax.Ident)
				if !ok {
					return c.errorf(arg, "keyword must be an identifier")
				}
				kwNames = append(kwNames, id.Name)
				if err := c.compileExpr(arg.Y); err != nil {
					return err
				}
				continue
			}
		case *syntax.UnaryExpr:
			if arg.Op == syntax.STAR || arg.Op == syntax.STARSTAR {
				return c.errorf(arg, "argument unpacking is not supported")
			}
		}
		if len(kwNames) > 0 {
			return c.errorf(arg, "positional argument follows keyword argument")
		}
		if err := c.compileExpr(arg); err != nil {
			return err
		}
	}

	if len(kwNames) > 0 {
		c.emit(framevm.OpKwNames, kwNames)
	}
	c.emit(framevm.OpCall, len(e.Args))
	return nil
}

func (c *compiler) compileCondExpr(e *syntax.CondExpr) error {
	if err := c.compileExpr(e.Cond); err != nil {
		return err
	}
	jumpFalseIP := c.emit(framevm.OpPopJumpIfFalse, 0)

	if err := c.compileExpr(e.True); err != nil {
		return err
	}
	jumpEndIP := c.emit(framevm.OpJumpForward, 0)

	c.patchJump(jumpFalseIP, c.currentIP())
	if err := c.compileExpr(e.False); err != nil {
		return err
	}
	c.patchJump(jumpEndIP, c.currentIP())
	return nil
}

// Comprehensions run inline: the result collection stays on the stack under one iterator per
// for clause, and the loop variables are bound in the enclosing scope. The parser yields only
// list and dict comprehensions.
func (c *compiler) compileComprehension(e *syntax.Comprehension) error {
	entry, isDict := e.Body.(*syntax.DictEntry)
	if isDict {
		c.emit(framevm.OpBuildMap, 0)
	} else {
		c.emit(framevm.OpBuildList, 0)
	}

	depth := 1
	for _, clause := range e.Clauses {
		if _, ok := clause.(*syntax.ForClause); ok {
			depth++
		}
	}

	return c.compileComprehensionClauses(e, 0, func() error {
		if isDict {
			if err := c.compileExpr(entry.Key); err != nil {
				return err
			}
			if err := c.compileExpr(entry.Value); err != nil {
				return err
			}
			c.emit(framevm.OpMapAdd, depth)
			return nil
		}
		if err := c.compileExpr(e.Body); err != nil {
			return err
		}
		c.emit(framevm.OpListAppend, depth)
		return nil
	})
}

func (c *compiler) compileComprehensionClauses(e *syntax.Comprehension, idx int, body func() error) error {
	if idx >= len(e.Clauses) {
		return body()
	}

	switch cl := e.Clauses[idx].(type) {
	case *syntax.ForClause:
		if err := c.compileExpr(cl.X); err != nil {
			return err
		}
		c.emit(framevm.OpGetIter, nil)

		loopHeadIP := c.currentIP()
		forIterIP := c.emit(framevm.OpForIter, 0)
		if err := c.compileStore(cl.Vars); err != nil {
			return err
		}
		if err := c.compileComprehensionClauses(e, idx+1, body); err != nil {
			return err
		}
		c.emit(framevm.OpJumpBackward, loopHeadIP)
		c.patchJump(forIterIP, c.emit(framevm.OpEndFor, nil))

	case *syntax.IfClause:
		if err := c.compileExpr(cl.Cond); err != nil {
			return err
		}
		jumpFalseIP := c.emit(framevm.OpPopJumpIfFalse, 0)
		if err := c.compileComprehensionClauses(e, idx+1, body); err != nil {
			return err
		}
		c.patchJump(jumpFalseIP, c.currentIP())

	default:
		return c.errorf(e, "unsupported comprehension clause: %T", cl)
	}

	return nil
}
