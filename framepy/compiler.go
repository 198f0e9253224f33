package framepy

import (
	"fmt"
	"slices"

	"github.com/reusee/pyframe/framevm"
	"go.starlark.net/syntax"
)

type compiler struct {
	name  string
	insts []framevm.Instruction
	scope *scope
	loops []*loopContext
}

type loopContext struct {
	continueAt int
	breaks     []int
}

// CompileError reports source that has no instruction form.
type CompileError struct {
	Pos syntax.Position
	Msg string
}

func (e *CompileError) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

func newCompiler(name string, s *scope) *compiler {
	c := &compiler{
		name:  name,
		scope: s,
	}
	c.emit(framevm.OpResume, 0)
	return c
}

func (c *compiler) errorf(node syntax.Node, format string, args ...any) error {
	start, _ := node.Span()
	return &CompileError{
		Pos: start,
		Msg: fmt.Sprintf(format, args...),
	}
}

func (c *compiler) emit(op framevm.Opcode, arg any) int {
	c.insts = append(c.insts, framevm.Instruction{
		Op:  op,
		Arg: arg,
	})
	return len(c.insts) - 1
}

func (c *compiler) currentIP() int {
	return len(c.insts)
}

// jump operands hold instruction indexes until finish turns them into offsets
func (c *compiler) patchJump(ip int, target int) {
	c.insts[ip].Arg = target
}

func (c *compiler) finish(params, kwOnly []string) *framevm.Code {
	insts := make([]framevm.Instruction, len(c.insts))
	for i, inst := range c.insts {
		inst.Offset = 2 * i
		if inst.Op.IsJump() {
			inst.Arg = 2 * inst.Arg.(int)
		}
		insts[i] = inst
	}
	code := &framevm.Code{
		Name:         c.name,
		ParamNames:   slices.Concat(params, kwOnly),
		ParamCount:   len(params),
		KwOnlyNames:  kwOnly,
		Instructions: insts,
	}
	if c.scope != nil {
		code.FreeVars = c.scope.free
	}
	return code
}

func (c *compiler) compileStmts(stmts []syntax.Stmt) error {
	for _, stmt := range stmts {
		if err := c.compileStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) compileStmt(stmt syntax.Stmt) error {
	switch s := stmt.(type) {
	case *syntax.ExprStmt:
		if err := c.compileExpr(s.X); err != nil {
			return err
		}
		c.emit(framevm.OpPopTop, nil)
	case *syntax.AssignStmt:
		if s.Op == syntax.EQ {
			if err := c.compileExpr(s.RHS); err != nil {
				return err
			}
			return c.compileStore(s.LHS)
		}
		return c.compileAugmentedAssign(s)
	case *syntax.DefStmt:
		return c.compileDef(s)
	case *syntax.ReturnStmt:
		if s.Result == nil {
			c.emit(framevm.OpReturnConst, framevm.None)
			return nil
		}
		if err := c.compileExpr(s.Result); err != nil {
			return err
		}
		c.emit(framevm.OpReturnValue, nil)
	case *syntax.IfStmt:
		return c.compileIf(s)
	case *syntax.WhileStmt:
		return c.compileWhile(s)
	case *syntax.ForStmt:
		return c.compileFor(s)
	case *syntax.BranchStmt:
		return c.compileBranch(s)
	case *syntax.LoadStmt:
		return c.errorf(s, "load statements are not supported")
	default:
		return c.errorf(stmt, "unsupported statement type: %T", stmt)
	}
	return nil
}

func (c *compiler) compileStore(lhs syntax.Expr) error {
	switch node := lhs.(type) {
	case *syntax.Ident:
		c.emit(c.scope.storeOp(), node.Name)
	case *syntax.ParenExpr:
		return c.compileStore(node.X)
	case *syntax.ListExpr:
		return c.compileUnpack(node.List)
	case *syntax.TupleExpr:
		return c.compileUnpack(node.List)
	case *syntax.IndexExpr:
		if err := c.compileExpr(node.X); err != nil {
			return err
		}
		if err := c.compileExpr(node.Y); err != nil {
			return err
		}
		c.emit(framevm.OpStoreSubscr, nil)
	case *syntax.SliceExpr:
		if err := c.compileExpr(node.X); err != nil {
			return err
		}
		if node.Step == nil {
			if err := c.compileOptional(node.Lo); err != nil {
				return err
			}
			if err := c.compileOptional(node.Hi); err != nil {
				return err
			}
			c.emit(framevm.OpStoreSlice, nil)
			return nil
		}
		if err := c.compileSliceKey(node); err != nil {
			return err
		}
		c.emit(framevm.OpStoreSubscr, nil)
	case *syntax.DotExpr:
		return c.errorf(node, "attribute assignment is not supported")
	default:
		return c.errorf(lhs, "unsupported assignment target: %T", lhs)
	}
	return nil
}

func (c *compiler) compileUnpack(targets []syntax.Expr) error {
	c.emit(framevm.OpUnpackSequence, len(targets))
	for _, target := range targets {
		if err := c.compileStore(target); err != nil {
			return err
		}
	}
	return nil
}

var augmentedOps = map[syntax.Token]framevm.BinaryOperator{
	syntax.PLUS_EQ:       framevm.BinaryAdd,
	syntax.MINUS_EQ:      framevm.BinarySubtract,
	syntax.STAR_EQ:       framevm.BinaryMultiply,
	syntax.SLASH_EQ:      framevm.BinaryTrueDivide,
	syntax.SLASHSLASH_EQ: framevm.BinaryFloorDivide,
	syntax.PERCENT_EQ:    framevm.BinaryRemainder,
	syntax.AMP_EQ:        framevm.BinaryAnd,
	syntax.PIPE_EQ:       framevm.BinaryOr,
	syntax.CIRCUMFLEX_EQ: framevm.BinaryXor,
	syntax.LTLT_EQ:       framevm.BinaryLshift,
	syntax.GTGT_EQ:       framevm.BinaryRshift,
}

func (c *compiler) compileAugmentedAssign(s *syntax.AssignStmt) error {
	plain, ok := augmentedOps[s.Op]
	if !ok {
		return c.errorf(s, "augmented assignment op %s not supported", s.Op)
	}
	op := plain.Inplace()

	switch lhs := s.LHS.(type) {
	case *syntax.Ident:
		c.emit(c.scope.loadOp(lhs.Name), lhs.Name)
		if err := c.compileExpr(s.RHS); err != nil {
			return err
		}
		c.emit(framevm.OpBinaryOp, op)
		c.emit(c.scope.storeOp(), lhs.Name)
		return nil

	case *syntax.IndexExpr:
		if err := c.compileExpr(lhs.X); err != nil {
			return err
		}
		if err := c.compileExpr(lhs.Y); err != nil {
			return err
		}

	case *syntax.SliceExpr:
		if err := c.compileExpr(lhs.X); err != nil {
			return err
		}
		if err := c.compileSliceKey(lhs); err != nil {
			return err
		}

	case *syntax.ParenExpr:
		return c.compileAugmentedAssign(&syntax.AssignStmt{
			OpPos: s.OpPos,
			Op:    s.Op,
			LHS:   lhs.X,
			RHS:   s.RHS,
		})

	default:
		return c.errorf(s.LHS, "unsupported augmented assignment target: %T", s.LHS)
	}

	// container, key -> value, container, key
	c.emit(framevm.OpCopy, 2)
	c.emit(framevm.OpCopy, 2)
	c.emit(framevm.OpBinarySubscr, nil)
	if err := c.compileExpr(s.RHS); err != nil {
		return err
	}
	c.emit(framevm.OpBinaryOp, op)
	c.emit(framevm.OpSwap, 3)
	c.emit(framevm.OpSwap, 2)
	c.emit(framevm.OpStoreSubscr, nil)
	return nil
}

func (c *compiler) compileBranch(s *syntax.BranchStmt) error {
	if s.Token == syntax.PASS {
		c.emit(framevm.OpNop, nil)
		return nil
	}

	if len(c.loops) == 0 {
		return c.errorf(s, "%s outside loop", s.Token)
	}
	loop := c.loops[len(c.loops)-1]

	switch s.Token {
	case syntax.BREAK:
		loop.breaks = append(loop.breaks, c.emit(framevm.OpJumpForward, 0))
	case syntax.CONTINUE:
		c.emit(framevm.OpJumpBackward, loop.continueAt)
	}
	return nil
}

func (c *compiler) compileIf(s *syntax.IfStmt) error {
	if err := c.compileExpr(s.Cond); err != nil {
		return err
	}
	jumpFalseIP := c.emit(framevm.OpPopJumpIfFalse, 0)

	if err := c.compileStmts(s.True); err != nil {
		return err
	}

	if len(s.False) == 0 {
		c.patchJump(jumpFalseIP, c.currentIP())
		return nil
	}

	jumpEndIP := c.emit(framevm.OpJumpForward, 0)
	c.patchJump(jumpFalseIP, c.currentIP())
	if err := c.compileStmts(s.False); err != nil {
		return err
	}
	c.patchJump(jumpEndIP, c.currentIP())
	return nil
}

func (c *compiler) compileWhile(s *syntax.WhileStmt) error {
	startIP := c.currentIP()
	loop := &loopContext{
		continueAt: startIP,
	}
	c.loops = append(c.loops, loop)

	if err := c.compileExpr(s.Cond); err != nil {
		return err
	}
	jumpExitIP := c.emit(framevm.OpPopJumpIfFalse, 0)

	if err := c.compileStmts(s.Body); err != nil {
		return err
	}
	c.emit(framevm.OpJumpBackward, startIP)

	c.patchJump(jumpExitIP, c.currentIP())
	for _, ip := range loop.breaks {
		c.patchJump(ip, c.currentIP())
	}
	c.loops = c.loops[:len(c.loops)-1]
	return nil
}

func (c *compiler) compileFor(s *syntax.ForStmt) error {
	if err := c.compileExpr(s.X); err != nil {
		return err
	}
	c.emit(framevm.OpGetIter, nil)

	loopHeadIP := c.currentIP()
	loop := &loopContext{
		continueAt: loopHeadIP,
	}
	c.loops = append(c.loops, loop)

	forIterIP := c.emit(framevm.OpForIter, 0)
	if err := c.compileStore(s.Vars); err != nil {
		return err
	}
	if err := c.compileStmts(s.Body); err != nil {
		return err
	}
	c.emit(framevm.OpJumpBackward, loopHeadIP)

	// exhaustion and break both land on EndFor, which drops the iterator
	endIP := c.emit(framevm.OpEndFor, nil)
	c.patchJump(forIterIP, endIP)
	for _, ip := range loop.breaks {
		c.patchJump(ip, endIP)
	}

	c.loops = c.loops[:len(c.loops)-1]
	return nil
}

type params struct {
	names      []string
	defaults   []syntax.Expr
	kwOnly     []string
	kwDefaults []*syntax.BinaryExpr
}

func (c *compiler) extractParams(exprs []syntax.Expr) (*params, error) {
	ret := new(params)
	star := false
	for _, p := range exprs {
		switch p := p.(type) {

		case *syntax.Ident:
			if star {
				ret.kwOnly = append(ret.kwOnly, p.Name)
				continue
			}
			if len(ret.defaults) > 0 {
				return nil, c.errorf(p, "non-default argument follows default argument")
			}
			ret.names = append(ret.names, p.Name)

		case *syntax.BinaryExpr:
			id, ok := p.X.(*syntax.Ident)
			if p.Op != syntax.EQ || !ok {
				return nil, c.errorf(p, "parameter name must be identifier")
			}
			if star {
				ret.kwOnly = append(ret.kwOnly, id.Name)
				ret.kwDefaults = append(ret.kwDefaults, p)
				continue
			}
			ret.names = append(ret.names, id.Name)
			ret.defaults = append(ret.defaults, p.Y)

		case *syntax.UnaryExpr:
			if p.Op == syntax.STAR && p.X == nil && !star {
				star = true
				continue
			}
			return nil, c.errorf(p, "variadic parameters are not supported")

		default:
			return nil, c.errorf(p, "complex parameters not supported")
		}
	}
	return ret, nil
}

func (c *compiler) compileFunction(ps *params, code *framevm.Code) error {
	c.emit(framevm.OpLoadConst, code)
	var flags framevm.MakeFunctionFlags

	if len(ps.defaults) > 0 {
		for _, d := range ps.defaults {
			if err := c.compileExpr(d); err != nil {
				return err
			}
		}
		c.emit(framevm.OpBuildTuple, len(ps.defaults))
		flags |= framevm.FlagDefaults
	}

	if len(ps.kwDefaults) > 0 {
		for _, kw := range ps.kwDefaults {
			c.emit(framevm.OpLoadConst, framevm.Str(kw.X.(*syntax.Ident).Name))
			if err := c.compileExpr(kw.Y); err != nil {
				return err
			}
		}
		c.emit(framevm.OpBuildMap, len(ps.kwDefaults))
		flags |= framevm.FlagKwDefaults
	}

	c.emit(framevm.OpMakeFunction, flags)
	return nil
}

func (c *compiler) compileDef(s *syntax.DefStmt) error {
	ps, err := c.extractParams(s.Params)
	if err != nil {
		return err
	}

	body := make([]syntax.Node, 0, len(s.Body))
	for _, stmt := range s.Body {
		body = append(body, stmt)
	}
	sub := newCompiler(s.Name.Name, functionScope(c.scope, slices.Concat(ps.names, ps.kwOnly), body...))
	if err := sub.compileStmts(s.Body); err != nil {
		return err
	}
	sub.emit(framevm.OpReturnConst, framevm.None)

	if err := c.compileFunction(ps, sub.finish(ps.names, ps.kwOnly)); err != nil {
		return err
	}
	c.emit(c.scope.storeOp(), s.Name.Name)
	return nil
}

func (c *compiler) compileLambdaExpr(e *syntax.LambdaExpr) error {
	ps, err := c.extractParams(e.Params)
	if err != nil {
		return err
	}
	sub := newCompiler("<lambda>", functionScope(c.scope, slices.Concat(ps.names, ps.kwOnly), e.Body))
	if err := sub.compileExpr(e.Body); err != nil {
		return err
	}
	sub.emit(framevm.OpReturnValue, nil)
	return c.compileFunction(ps, sub.finish(ps.names, ps.kwOnly))
}
