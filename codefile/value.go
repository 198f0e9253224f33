package codefile

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/reusee/pyframe/framevm"
	"gopkg.in/yaml.v3"
)

const (
	tagBig  = "!big"
	tagList = "!list"
	tagCode = "!code"
)

// encodeValue writes a constant. Tuples are plain sequences; other values with no native YAML
// form carry a local tag.
func encodeValue(v framevm.Value) (*yaml.Node, error) {
	switch v := v.(type) {
	case framevm.NoneType:
		return scalar("!!null", "null"), nil
	case framevm.Bool:
		return scalar("!!bool", strconv.FormatBool(bool(v))), nil
	case framevm.Int:
		return scalar("!!int", strconv.FormatInt(int64(v), 10)), nil
	case framevm.BigInt:
		return scalar(tagBig, v.Big().String()), nil
	case framevm.Float:
		return scalar("!!float", formatFloat(float64(v))), nil
	case framevm.Str:
		return scalar("!!str", string(v)), nil
	case framevm.Tuple:
		return encodeSequence("", v)
	case *framevm.List:
		return encodeSequence(tagList, v.Elems)
	case *framevm.Code:
		disk, err := toDisk(v)
		if err != nil {
			return nil, err
		}
		node := new(yaml.Node)
		if err := node.Encode(disk); err != nil {
			return nil, err
		}
		node.Tag = tagCode
		return node, nil
	}
	return nil, fmt.Errorf("no document form for %s constant", v.Kind())
}

func encodeSequence(tag string, elems []framevm.Value) (*yaml.Node, error) {
	node := &yaml.Node{
		Kind:  yaml.SequenceNode,
		Tag:   tag,
		Style: yaml.FlowStyle,
	}
	for _, elem := range elems {
		e, err := encodeValue(elem)
		if err != nil {
			return nil, err
		}
		if e.Kind == yaml.MappingNode {
			node.Style = 0
		}
		node.Content = append(node.Content, e)
	}
	return node, nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func parseFloat(s string) (float64, error) {
	switch s {
	case ".inf", "+.inf", ".Inf", "+.Inf", ".INF", "+.INF":
		return math.Inf(1), nil
	case "-.inf", "-.Inf", "-.INF":
		return math.Inf(-1), nil
	case ".nan", ".NaN", ".NAN":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func decodeValue(node *yaml.Node) (framevm.Value, error) {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}

	switch node.Kind {

	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!null":
			return framevm.None, nil
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return nil, err
			}
			return framevm.Bool(b), nil
		case "!!int", tagBig:
			i, ok := new(big.Int).SetString(node.Value, 0)
			if !ok {
				return nil, fmt.Errorf("line %d: bad integer %q", node.Line, node.Value)
			}
			return framevm.MakeBigInt(i), nil
		case "!!float":
			f, err := parseFloat(node.Value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", node.Line, err)
			}
			return framevm.Float(f), nil
		case "!!str":
			return framevm.Str(node.Value), nil
		}

	case yaml.SequenceNode:
		elems := make([]framevm.Value, 0, len(node.Content))
		for _, n := range node.Content {
			v, err := decodeValue(n)
			if err != nil {
				return nil, err
			}
			elems = append(elems, v)
		}
		if node.Tag == tagList {
			return framevm.NewList(elems...), nil
		}
		return framevm.Tuple(elems), nil

	case yaml.MappingNode:
		if node.Tag == tagCode {
			plain := *node
			plain.Tag = ""
			return decodeCode(&plain)
		}
	}

	return nil, fmt.Errorf("line %d: unsupported constant with tag %s", node.Line, node.ShortTag())
}
