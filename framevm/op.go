package framevm

import (
	"strconv"
	"strings"
)

type Opcode uint8

const (
	OpNop Opcode = iota
	OpResume
	OpPrecall
	OpPushNull
	OpPopTop
	OpCopy
	OpSwap

	OpLoadConst
	OpLoadName
	OpLoadGlobal
	OpLoadFast
	OpStoreName
	OpStoreFast
	OpStoreGlobal
	OpDeleteName
	OpDeleteFast
	OpLoadAttr

	OpBinaryOp
	OpCompareOp
	OpUnaryNegative
	OpUnaryNot
	OpUnaryInvert

	OpBinarySubscr
	OpStoreSubscr
	OpDeleteSubscr
	OpBinarySlice
	OpStoreSlice
	OpBuildSlice

	OpBuildTuple
	OpBuildList
	OpBuildSet
	OpBuildMap
	OpBuildString
	OpFormatValue
	OpListExtend
	OpListAppend
	OpSetAdd
	OpMapAdd
	OpUnpackSequence

	OpGetIter
	OpForIter
	OpEndFor

	OpJumpForward
	OpJumpBackward
	OpPopJumpIfFalse
	OpPopJumpIfTrue
	OpPopJumpIfNone
	OpPopJumpIfNotNone

	OpMakeFunction
	OpKwNames
	OpCall
	OpReturnValue
	OpReturnConst

	numOpcodes
)

var opcodeNames = [...]string{
	OpNop:              "Nop",
	OpResume:           "Resume",
	OpPrecall:          "Precall",
	OpPushNull:         "PushNull",
	OpPopTop:           "PopTop",
	OpCopy:             "Copy",
	OpSwap:             "Swap",
	OpLoadConst:        "LoadConst",
	OpLoadName:         "LoadName",
	OpLoadGlobal:       "LoadGlobal",
	OpLoadFast:         "LoadFast",
	OpStoreName:        "StoreName",
	OpStoreFast:        "StoreFast",
	OpStoreGlobal:      "StoreGlobal",
	OpDeleteName:       "DeleteName",
	OpDeleteFast:       "DeleteFast",
	OpLoadAttr:         "LoadAttr",
	OpBinaryOp:         "BinaryOp",
	OpCompareOp:        "CompareOp",
	OpUnaryNegative:    "UnaryNegative",
	OpUnaryNot:         "UnaryNot",
	OpUnaryInvert:      "UnaryInvert",
	OpBinarySubscr:     "BinarySubscr",
	OpStoreSubscr:      "StoreSubscr",
	OpDeleteSubscr:     "DeleteSubscr",
	OpBinarySlice:      "BinarySlice",
	OpStoreSlice:       "StoreSlice",
	OpBuildSlice:       "BuildSlice",
	OpBuildTuple:       "BuildTuple",
	OpBuildList:        "BuildList",
	OpBuildSet:         "BuildSet",
	OpBuildMap:         "BuildMap",
	OpBuildString:      "BuildString",
	OpFormatValue:      "FormatValue",
	OpListExtend:       "ListExtend",
	OpListAppend:       "ListAppend",
	OpSetAdd:           "SetAdd",
	OpMapAdd:           "MapAdd",
	OpUnpackSequence:   "UnpackSequence",
	OpGetIter:          "GetIter",
	OpForIter:          "ForIter",
	OpEndFor:           "EndFor",
	OpJumpForward:      "JumpForward",
	OpJumpBackward:     "JumpBackward",
	OpPopJumpIfFalse:   "PopJumpIfFalse",
	OpPopJumpIfTrue:    "PopJumpIfTrue",
	OpPopJumpIfNone:    "PopJumpIfNone",
	OpPopJumpIfNotNone: "PopJumpIfNotNone",
	OpMakeFunction:     "MakeFunction",
	OpKwNames:          "KwNames",
	OpCall:             "Call",
	OpReturnValue:      "ReturnValue",
	OpReturnConst:      "ReturnConst",
}

func (o Opcode) String() string {
	if o < numOpcodes {
		return opcodeNames[o]
	}
	return "Opcode(" + strconv.Itoa(int(o)) + ")"
}

var opcodesByName = func() map[string]Opcode {
	m := make(map[string]Opcode, numOpcodes)
	for op := range numOpcodes {
		m[normalizeOpName(opcodeNames[op])] = op
	}
	return m
}()

func normalizeOpName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}

// ParseOpcode accepts both "LoadName" and CPython style "LOAD_NAME" spellings.
func ParseOpcode(name string) (Opcode, bool) {
	op, ok := opcodesByName[normalizeOpName(name)]
	return op, ok
}

// IsJump reports whether the operand of o is a target offset.
func (o Opcode) IsJump() bool {
	switch o {
	case OpJumpForward, OpJumpBackward,
		OpPopJumpIfFalse, OpPopJumpIfTrue,
		OpPopJumpIfNone, OpPopJumpIfNotNone,
		OpForIter:
		return true
	}
	return false
}

// BinaryOperator numbers follow CPython's NB_* table.
type BinaryOperator int

const (
	BinaryAdd BinaryOperator = iota
	BinaryAnd
	BinaryFloorDivide
	BinaryLshift
	BinaryMatrixMultiply
	BinaryMultiply
	BinaryRemainder
	BinaryOr
	BinaryPower
	BinaryRshift
	BinarySubtract
	BinaryTrueDivide
	BinaryXor

	// in-place forms are BinaryInplaceOffset + plain form
	BinaryInplaceOffset = 13
)

var binarySymbols = [...]string{
	BinaryAdd:            "+",
	BinaryAnd:            "&",
	BinaryFloorDivide:    "//",
	BinaryLshift:         "<<",
	BinaryMatrixMultiply: "@",
	BinaryMultiply:       "*",
	BinaryRemainder:      "%",
	BinaryOr:             "|",
	BinaryPower:          "**",
	BinaryRshift:         ">>",
	BinarySubtract:       "-",
	BinaryTrueDivide:     "/",
	BinaryXor:            "^",
}

// Plain maps in-place forms to their plain operator.
func (b BinaryOperator) Plain() BinaryOperator {
	if b >= BinaryInplaceOffset && b < 2*BinaryInplaceOffset {
		return b - BinaryInplaceOffset
	}
	return b
}

func (b BinaryOperator) Inplace() BinaryOperator {
	return b.Plain() + BinaryInplaceOffset
}

func (b BinaryOperator) Valid() bool {
	return b >= 0 && b < 2*BinaryInplaceOffset
}

func (b BinaryOperator) String() string {
	if !b.Valid() {
		return "BinaryOperator(" + strconv.Itoa(int(b)) + ")"
	}
	s := binarySymbols[b.Plain()]
	if b >= BinaryInplaceOffset {
		s += "="
	}
	return s
}

// ParseBinaryOperator maps a symbol like "+" or "+=" to its operator.
func ParseBinaryOperator(sym string) (BinaryOperator, bool) {
	inplace := false
	if len(sym) > 1 && strings.HasSuffix(sym, "=") && sym != "==" {
		inplace = true
		sym = strings.TrimSuffix(sym, "=")
	}
	for i, s := range binarySymbols {
		if s == sym {
			op := BinaryOperator(i)
			if inplace {
				op = op.Inplace()
			}
			return op, true
		}
	}
	return 0, false
}

// Comparison is the text form of a CompareOp operand.
type Comparison string

const (
	CmpLt             Comparison = "<"
	CmpLe             Comparison = "<="
	CmpEq             Comparison = "=="
	CmpNe             Comparison = "!="
	CmpGt             Comparison = ">"
	CmpGe             Comparison = ">="
	CmpIn             Comparison = "in"
	CmpNotIn          Comparison = "not in"
	CmpIs             Comparison = "is"
	CmpIsNot          Comparison = "is not"
	CmpExceptionMatch Comparison = "exception match"
	// CmpBad always fails. It exists to exercise the failure path.
	CmpBad Comparison = "BAD"
)
