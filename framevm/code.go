package framevm

// Code is the immutable static description of one callable unit.
// Operands are embedded in instructions; there is no constant pool.
type Code struct {
	Name string
	// ParamNames lists positional parameters first, then keyword-only parameters.
	ParamNames   []string
	ParamCount   int
	KwOnlyNames  []string
	FreeVars     []string
	Instructions []Instruction
}

func (*Code) Kind() Kind { return KindCode }

// Instruction is one decoded instruction. Offset is the position in the original stream and is
// only used to resolve jump targets.
type Instruction struct {
	Op     Opcode
	Arg    any
	Offset int
}

// AttrArg is the LoadAttr operand. Method selects the method-form lookup that feeds a Call.
type AttrArg struct {
	Name   string
	Method bool
}

// FormatArg is the FormatValue operand. Conversion is 0, 's', 'r' or 'a'.
// HasSpec means a format spec string sits on the stack above the value.
type FormatArg struct {
	Conversion rune
	HasSpec    bool
}

// MakeFunctionFlags selects which optional components MakeFunction pops.
type MakeFunctionFlags uint8

const (
	FlagDefaults MakeFunctionFlags = 1 << iota
	FlagKwDefaults
	FlagAnnotations
	FlagClosure
)
