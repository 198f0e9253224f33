package codefile

import (
	"fmt"
	"strconv"

	"github.com/reusee/pyframe/framevm"
	"gopkg.in/yaml.v3"
)

type operandKind uint8

const (
	operandNone operandKind = iota
	operandInt
	operandName
	operandConst
	operandAttr
	operandBinary
	operandCompare
	operandFlags
	operandFormat
	operandNames
)

func kindOfOperand(op framevm.Opcode) operandKind {
	if op.IsJump() {
		return operandInt
	}
	switch op {
	case framevm.OpResume, framevm.OpPrecall, framevm.OpCopy, framevm.OpSwap,
		framevm.OpBuildSlice, framevm.OpBuildTuple, framevm.OpBuildList, framevm.OpBuildSet,
		framevm.OpBuildMap, framevm.OpBuildString, framevm.OpListExtend, framevm.OpListAppend,
		framevm.OpSetAdd, framevm.OpMapAdd, framevm.OpUnpackSequence, framevm.OpCall:
		return operandInt
	case framevm.OpLoadName, framevm.OpLoadGlobal, framevm.OpLoadFast,
		framevm.OpStoreName, framevm.OpStoreFast, framevm.OpStoreGlobal,
		framevm.OpDeleteName, framevm.OpDeleteFast:
		return operandName
	case framevm.OpLoadConst, framevm.OpReturnConst:
		return operandConst
	case framevm.OpLoadAttr:
		return operandAttr
	case framevm.OpBinaryOp:
		return operandBinary
	case framevm.OpCompareOp:
		return operandCompare
	case framevm.OpMakeFunction:
		return operandFlags
	case framevm.OpFormatValue:
		return operandFormat
	case framevm.OpKwNames:
		return operandNames
	}
	return operandNone
}

var flagNames = []struct {
	flag framevm.MakeFunctionFlags
	name string
}{
	{framevm.FlagDefaults, "defaults"},
	{framevm.FlagKwDefaults, "kwdefaults"},
	{framevm.FlagAnnotations, "annotations"},
	{framevm.FlagClosure, "closure"},
}

type attrDisk struct {
	Name   string `yaml:"name"`
	Method bool   `yaml:"method,omitempty"`
}

type formatDisk struct {
	Conversion string `yaml:"conversion,omitempty"`
	Spec       bool   `yaml:"spec,omitempty"`
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   tag,
		Value: value,
	}
}

func flowStrings(strs []string) *yaml.Node {
	node := &yaml.Node{
		Kind:  yaml.SequenceNode,
		Style: yaml.FlowStyle,
	}
	for _, s := range strs {
		node.Content = append(node.Content, scalar("!!str", s))
	}
	return node
}

func toInt(arg any) (int, bool) {
	switch a := arg.(type) {
	case int:
		return a, true
	case int64:
		return int(a), true
	case framevm.Int:
		return int(a), true
	case framevm.MakeFunctionFlags:
		return int(a), true
	case framevm.BinaryOperator:
		return int(a), true
	}
	return 0, false
}

func encodeOperand(op framevm.Opcode, arg any) (*yaml.Node, error) {
	kind := kindOfOperand(op)
	if arg == nil && kind != operandConst {
		return nil, nil
	}

	switch kind {

	case operandNone:
		return nil, nil

	case operandInt:
		n, ok := toInt(arg)
		if !ok {
			return nil, fmt.Errorf("bad integer operand %T", arg)
		}
		return scalar("!!int", strconv.Itoa(n)), nil

	case operandName:
		switch a := arg.(type) {
		case string:
			return scalar("!!str", a), nil
		case framevm.Str:
			return scalar("!!str", string(a)), nil
		}
		return nil, fmt.Errorf("bad name operand %T", arg)

	case operandConst:
		v, err := framevm.FromGo(arg)
		if err != nil {
			return nil, err
		}
		return encodeValue(v)

	case operandAttr:
		var attr framevm.AttrArg
		switch a := arg.(type) {
		case framevm.AttrArg:
			attr = a
		case *framevm.AttrArg:
			attr = *a
		case string:
			attr.Name = a
		default:
			return nil, fmt.Errorf("bad attribute operand %T", arg)
		}
		if !attr.Method {
			return scalar("!!str", attr.Name), nil
		}
		node := new(yaml.Node)
		if err := node.Encode(attrDisk{
			Name:   attr.Name,
			Method: true,
		}); err != nil {
			return nil, err
		}
		node.Style = yaml.FlowStyle
		return node, nil

	case operandBinary:
		switch a := arg.(type) {
		case string:
			return scalar("!!str", a), nil
		}
		n, ok := toInt(arg)
		if !ok || !framevm.BinaryOperator(n).Valid() {
			return nil, fmt.Errorf("bad binary operator %v", arg)
		}
		return scalar("!!str", framevm.BinaryOperator(n).String()), nil

	case operandCompare:
		switch a := arg.(type) {
		case framevm.Comparison:
			return scalar("!!str", string(a)), nil
		case string:
			return scalar("!!str", a), nil
		case framevm.Str:
			return scalar("!!str", string(a)), nil
		}
		return nil, fmt.Errorf("bad comparison operand %T", arg)

	case operandFlags:
		n, ok := toInt(arg)
		if !ok {
			return nil, fmt.Errorf("bad flags operand %T", arg)
		}
		var names []string
		for _, f := range flagNames {
			if framevm.MakeFunctionFlags(n)&f.flag != 0 {
				names = append(names, f.name)
			}
		}
		return flowStrings(names), nil

	case operandFormat:
		var format framevm.FormatArg
		switch a := arg.(type) {
		case framevm.FormatArg:
			format = a
		case *framevm.FormatArg:
			format = *a
		default:
			return nil, fmt.Errorf("bad format operand %T", arg)
		}
		disk := formatDisk{
			Spec: format.HasSpec,
		}
		if format.Conversion != 0 {
			disk.Conversion = string(format.Conversion)
		}
		node := new(yaml.Node)
		if err := node.Encode(disk); err != nil {
			return nil, err
		}
		node.Style = yaml.FlowStyle
		return node, nil

	case operandNames:
		switch a := arg.(type) {
		case []string:
			return flowStrings(a), nil
		case framevm.Tuple:
			names := make([]string, 0, len(a))
			for _, v := range a {
				s, ok := v.(framevm.Str)
				if !ok {
					return nil, fmt.Errorf("bad keyword name %s", framevm.Repr(v))
				}
				names = append(names, string(s))
			}
			return flowStrings(names), nil
		}
		return nil, fmt.Errorf("bad names operand %T", arg)
	}

	return nil, fmt.Errorf("unknown operand kind %d", kind)
}

func decodeOperand(op framevm.Opcode, node *yaml.Node) (any, error) {
	kind := kindOfOperand(op)
	if node == nil {
		if kind == operandConst {
			return framevm.None, nil
		}
		return nil, nil
	}
	if node.ShortTag() == "!!null" && kind != operandConst {
		return nil, nil
	}
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}

	switch kind {

	case operandNone:
		return nil, fmt.Errorf("%v takes no operand", op)

	case operandInt:
		var n int
		if err := node.Decode(&n); err != nil {
			return nil, err
		}
		return n, nil

	case operandName:
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: name must be a scalar", node.Line)
		}
		return node.Value, nil

	case operandConst:
		return decodeValue(node)

	case operandAttr:
		if node.Kind == yaml.ScalarNode {
			return framevm.AttrArg{
				Name: node.Value,
			}, nil
		}
		var disk attrDisk
		if err := node.Decode(&disk); err != nil {
			return nil, err
		}
		return framevm.AttrArg{
			Name:   disk.Name,
			Method: disk.Method,
		}, nil

	case operandBinary:
		if node.ShortTag() == "!!int" {
			var n int
			if err := node.Decode(&n); err != nil {
				return nil, err
			}
			if !framevm.BinaryOperator(n).Valid() {
				return nil, fmt.Errorf("line %d: bad binary operator %d", node.Line, n)
			}
			return framevm.BinaryOperator(n), nil
		}
		b, ok := framevm.ParseBinaryOperator(node.Value)
		if !ok {
			return nil, fmt.Errorf("line %d: bad binary operator %q", node.Line, node.Value)
		}
		return b, nil

	case operandCompare:
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: comparison must be a scalar", node.Line)
		}
		return framevm.Comparison(node.Value), nil

	case operandFlags:
		if node.Kind == yaml.ScalarNode {
			var n int
			if err := node.Decode(&n); err != nil {
				return nil, err
			}
			return framevm.MakeFunctionFlags(n), nil
		}
		var names []string
		if err := node.Decode(&names); err != nil {
			return nil, err
		}
		var flags framevm.MakeFunctionFlags
	next:
		for _, name := range names {
			for _, f := range flagNames {
				if f.name == name {
					flags |= f.flag
					continue next
				}
			}
			return nil, fmt.Errorf("line %d: unknown function flag %q", node.Line, name)
		}
		return flags, nil

	case operandFormat:
		var disk formatDisk
		if err := node.Decode(&disk); err != nil {
			return nil, err
		}
		format := framevm.FormatArg{
			HasSpec: disk.Spec,
		}
		switch disk.Conversion {
		case "":
		case "s", "r", "a":
			format.Conversion = rune(disk.Conversion[0])
		default:
			return nil, fmt.Errorf("line %d: bad conversion %q", node.Line, disk.Conversion)
		}
		return format, nil

	case operandNames:
		var names []string
		if err := node.Decode(&names); err != nil {
			return nil, err
		}
		return names, nil
	}

	return nil, fmt.Errorf("unknown operand kind %d", kind)
}
