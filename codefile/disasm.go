package codefile

import (
	"fmt"
	"io"
	"strings"

	"github.com/reusee/pyframe/framevm"
)

// Disassemble writes a listing of code followed by the listings of nested code constants.
func Disassemble(w io.Writer, code *framevm.Code) error {
	queue := []*framevm.Code{code}
	for len(queue) > 0 {
		code := queue[0]
		queue = queue[1:]

		if _, err := fmt.Fprintf(w, "Disassembly of %s:\n", code.Name); err != nil {
			return err
		}
		for _, inst := range code.Instructions {
			if nested, ok := inst.Arg.(*framevm.Code); ok {
				queue = append(queue, nested)
			}
			line := fmt.Sprintf("%6d %-18s %s", inst.Offset, inst.Op, describeOperand(inst))
			if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
				return err
			}
		}
		if len(queue) > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
	}
	return nil
}

func describeOperand(inst framevm.Instruction) string {
	if inst.Arg == nil {
		if kindOfOperand(inst.Op) == operandConst {
			return "None"
		}
		return ""
	}
	if inst.Op.IsJump() {
		return fmt.Sprintf("(to %v)", inst.Arg)
	}
	switch a := inst.Arg.(type) {
	case *framevm.Code:
		return "<code " + a.Name + ">"
	case framevm.AttrArg:
		if a.Method {
			return a.Name + " (method)"
		}
		return a.Name
	case framevm.MakeFunctionFlags:
		var names []string
		for _, f := range flagNames {
			if a&f.flag != 0 {
				names = append(names, f.name)
			}
		}
		return strings.Join(names, ", ")
	case framevm.BinaryOperator:
		return a.String()
	case []string:
		return "(" + strings.Join(a, ", ") + ")"
	case framevm.Value:
		return framevm.Repr(a)
	}
	return fmt.Sprint(inst.Arg)
}
