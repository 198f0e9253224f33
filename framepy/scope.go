package framepy

import (
	"slices"

	"github.com/reusee/pyframe/framevm"
	"go.starlark.net/syntax"
)

// scope tracks which names a code unit binds. Module scope has no locals set and addresses
// everything by name.
type scope struct {
	parent   *scope
	function bool
	locals   map[string]bool
	free     []string
}

func moduleScope() *scope {
	return &scope{}
}

func functionScope(parent *scope, params []string, body ...syntax.Node) *scope {
	s := &scope{
		parent:   parent,
		function: true,
		locals:   make(map[string]bool),
	}
	for _, name := range params {
		s.locals[name] = true
	}
	for _, node := range body {
		syntax.Walk(node, func(n syntax.Node) bool {
			switch n := n.(type) {
			case *syntax.AssignStmt:
				bindTargets(n.LHS, s.locals)
			case *syntax.ForStmt:
				bindTargets(n.Vars, s.locals)
			case *syntax.ForClause:
				bindTargets(n.Vars, s.locals)
			case *syntax.DefStmt:
				s.locals[n.Name.Name] = true
				return false
			case *syntax.LambdaExpr:
				return false
			}
			return true
		})
	}
	return s
}

func bindTargets(expr syntax.Expr, names map[string]bool) {
	switch e := expr.(type) {
	case *syntax.Ident:
		names[e.Name] = true
	case *syntax.ParenExpr:
		bindTargets(e.X, names)
	case *syntax.TupleExpr:
		for _, elem := range e.List {
			bindTargets(elem, names)
		}
	case *syntax.ListExpr:
		for _, elem := range e.List {
			bindTargets(elem, names)
		}
	}
}

// loadOp picks the instruction that reads name.
// Names bound by an enclosing function are free and resolve through the captured environment.
func (s *scope) loadOp(name string) framevm.Opcode {
	if !s.function {
		return framevm.OpLoadName
	}
	if s.locals[name] {
		return framevm.OpLoadFast
	}
	for p := s.parent; p != nil && p.function; p = p.parent {
		if p.locals[name] {
			for q := s; q != p; q = q.parent {
				q.addFree(name)
			}
			return framevm.OpLoadName
		}
	}
	return framevm.OpLoadGlobal
}

func (s *scope) storeOp() framevm.Opcode {
	if s.function {
		return framevm.OpStoreFast
	}
	return framevm.OpStoreName
}

func (s *scope) addFree(name string) {
	if !slices.Contains(s.free, name) {
		s.free = append(s.free, name)
	}
}
