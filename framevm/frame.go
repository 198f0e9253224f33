package framevm

import (
	"context"
	"strconv"
)

// Frame is one activation of a Code Unit.
type Frame struct {
	vm       *VM
	ctx      context.Context
	code     *Code
	builtins *Builtins
	globals  Names
	locals   Names
	depth    int

	stack []Value
	sp    int
	pc    int

	offsetToIndex map[int]int
	kwNames       []string
	returnValue   Value
}

func (v *VM) newFrame(ctx context.Context, code *Code, globals, locals Names, depth int) *Frame {
	offsetToIndex := make(map[int]int, len(code.Instructions))
	for i, inst := range code.Instructions {
		offsetToIndex[inst.Offset] = i
	}
	return &Frame{
		vm:            v,
		ctx:           ctx,
		code:          code,
		builtins:      v.Builtins,
		globals:       globals,
		locals:        locals,
		depth:         depth,
		stack:         make([]Value, 0, 16),
		offsetToIndex: offsetToIndex,
		returnValue:   None,
	}
}

func (f *Frame) Code() *Code {
	return f.code
}

func (f *Frame) VM() *VM {
	return f.vm
}

func (f *Frame) Context() context.Context {
	return f.ctx
}

func (f *Frame) Globals() Names {
	return f.globals
}

func (f *Frame) Locals() Names {
	return f.locals
}

func (f *Frame) Builtins() *Builtins {
	return f.builtins
}

// Depth is the call depth of the frame. The root frame is 0.
func (f *Frame) Depth() int {
	return f.depth
}

// PC is the index of the current instruction.
func (f *Frame) PC() int {
	return f.pc
}

// StackLen is the number of values on the operand stack.
func (f *Frame) StackLen() int {
	return f.sp
}

func (f *Frame) Push(values ...Value) {
	for _, v := range values {
		if f.sp < len(f.stack) {
			f.stack[f.sp] = v
		} else {
			f.stack = append(f.stack, v)
		}
		f.sp++
	}
}

// Pop removes the top value. Popping an empty stack yields None.
func (f *Frame) Pop() Value {
	if f.sp <= 0 {
		return None
	}
	f.sp--
	v := f.stack[f.sp]
	f.stack[f.sp] = nil
	return v
}

// Popn removes the top n values and returns them deepest first.
func (f *Frame) Popn(n int) []Value {
	if n <= 0 {
		return []Value{}
	}
	if n > f.sp {
		n = f.sp
	}
	start := f.sp - n
	ret := make([]Value, n)
	copy(ret, f.stack[start:f.sp])
	clear(f.stack[start:f.sp])
	f.sp = start
	return ret
}

// Top returns the top value without removing it.
func (f *Frame) Top() Value {
	return f.Peek(1)
}

// Peek returns the value at depth i without removing it. Depth 1 is the top.
func (f *Frame) Peek(i int) Value {
	if i < 1 || i > f.sp {
		return None
	}
	return f.stack[f.sp-i]
}

func (f *Frame) set(i int, v Value) {
	f.stack[f.sp-i] = v
}

// LoadName resolves name through locals, globals and builtins in that order.
func (f *Frame) LoadName(name string) (Value, error) {
	if v, ok := f.locals[name]; ok {
		return v, nil
	}
	return f.LoadGlobal(name)
}

// LoadGlobal resolves name through globals and builtins.
func (f *Frame) LoadGlobal(name string) (Value, error) {
	if v, ok := f.globals[name]; ok {
		return v, nil
	}
	if v, ok := f.builtins.Lookup(name); ok {
		return v, nil
	}
	return nil, &NameLookupError{Name: name}
}

// LoadFast reads a local only.
func (f *Frame) LoadFast(name string) (Value, error) {
	if v, ok := f.locals[name]; ok {
		return v, nil
	}
	return nil, &NameLookupError{Name: name}
}

func (f *Frame) StoreName(name string, v Value) {
	f.locals[name] = v
}

func (f *Frame) StoreGlobal(name string, v Value) {
	f.globals[name] = v
}

func (f *Frame) DeleteName(name string) error {
	if _, ok := f.locals[name]; !ok {
		return &NameLookupError{Name: name}
	}
	delete(f.locals, name)
	return nil
}

func (f *Frame) jump(target any) error {
	offset, ok := intArg(target)
	if !ok {
		return &UnsupportedOperationError{
			Op:     "jump",
			Detail: "jump operand is not an offset",
		}
	}
	i, ok := f.offsetToIndex[offset]
	if !ok {
		return &UnsupportedOperationError{
			Op:     "jump",
			Detail: "no instruction at offset " + strconv.Itoa(offset),
		}
	}
	f.pc = i
	return nil
}
