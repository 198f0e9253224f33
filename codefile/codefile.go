package codefile

import (
	"bytes"
	"fmt"
	"io"
	"slices"

	"github.com/reusee/e5"
	"github.com/reusee/pyframe/framevm"
	"gopkg.in/yaml.v3"
)

var wrap = e5.Wrap.With(e5.WrapStacktrace)

type codeDisk struct {
	Name         string            `yaml:"name"`
	Params       []string          `yaml:"params,flow"`
	KwOnly       []string          `yaml:"kwonly,omitempty,flow"`
	FreeVars     []string          `yaml:"free_vars,omitempty,flow"`
	Instructions []instructionDisk `yaml:"instructions"`
}

type instructionDisk struct {
	Op     string     `yaml:"op"`
	Arg    *yaml.Node `yaml:"arg,omitempty"`
	Offset *int       `yaml:"offset,omitempty"`
}

var (
	codeKeys        = []string{"name", "params", "kwonly", "free_vars", "instructions"}
	instructionKeys = []string{"op", "arg", "offset"}
)

// Decode reads one code document. Instructions without an offset get twice their index.
func Decode(r io.Reader) (*framevm.Code, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, wrap(fmt.Errorf("codefile: parse: %w", err))
	}
	code, err := decodeCode(&doc)
	if err != nil {
		return nil, wrap(err)
	}
	return code, nil
}

// decodeCode rejects unknown keys by hand. Strict decoding would also reject the keys of the
// raw operand nodes.
func decodeCode(node *yaml.Node) (*framevm.Code, error) {
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, fmt.Errorf("codefile: empty document")
		}
		node = node.Content[0]
	}
	if err := checkKeys(node, codeKeys); err != nil {
		return nil, err
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "instructions" {
			continue
		}
		for _, inst := range node.Content[i+1].Content {
			if err := checkKeys(inst, instructionKeys); err != nil {
				return nil, err
			}
		}
	}
	var disk codeDisk
	if err := node.Decode(&disk); err != nil {
		return nil, fmt.Errorf("codefile: parse: %w", err)
	}
	return disk.toCode()
}

func checkKeys(node *yaml.Node, allowed []string) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("codefile: line %d: expecting a mapping", node.Line)
	}
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i]
		if !slices.Contains(allowed, key.Value) {
			return fmt.Errorf("codefile: line %d: field %s not found", key.Line, key.Value)
		}
	}
	return nil
}

// Encode writes code as one YAML document.
func Encode(w io.Writer, code *framevm.Code) error {
	disk, err := toDisk(code)
	if err != nil {
		return wrap(err)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(disk); err != nil {
		return wrap(fmt.Errorf("codefile: marshal %s: %w", code.Name, err))
	}
	if err := enc.Close(); err != nil {
		return wrap(fmt.Errorf("codefile: encoder close: %w", err))
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return wrap(err)
	}
	return nil
}

func toDisk(code *framevm.Code) (*codeDisk, error) {
	if code == nil {
		return nil, fmt.Errorf("codefile: nil code")
	}
	if code.ParamCount > len(code.ParamNames) {
		return nil, fmt.Errorf("codefile: %s: param count %d exceeds %d names", code.Name, code.ParamCount, len(code.ParamNames))
	}
	disk := &codeDisk{
		Name:         code.Name,
		Params:       code.ParamNames[:code.ParamCount],
		KwOnly:       code.KwOnlyNames,
		FreeVars:     code.FreeVars,
		Instructions: make([]instructionDisk, 0, len(code.Instructions)),
	}
	if disk.Params == nil {
		disk.Params = []string{}
	}
	for i, inst := range code.Instructions {
		arg, err := encodeOperand(inst.Op, inst.Arg)
		if err != nil {
			return nil, fmt.Errorf("codefile: %s: instruction %d (%v): %w", code.Name, i, inst.Op, err)
		}
		offset := inst.Offset
		disk.Instructions = append(disk.Instructions, instructionDisk{
			Op:     inst.Op.String(),
			Arg:    arg,
			Offset: &offset,
		})
	}
	return disk, nil
}

func (d *codeDisk) toCode() (*framevm.Code, error) {
	code := &framevm.Code{
		Name:         d.Name,
		ParamNames:   append(append([]string{}, d.Params...), d.KwOnly...),
		ParamCount:   len(d.Params),
		KwOnlyNames:  d.KwOnly,
		FreeVars:     d.FreeVars,
		Instructions: make([]framevm.Instruction, 0, len(d.Instructions)),
	}
	seen := make(map[int]bool, len(d.Instructions))
	for i, inst := range d.Instructions {
		op, ok := framevm.ParseOpcode(inst.Op)
		if !ok {
			return nil, fmt.Errorf("codefile: %s: instruction %d: unknown opcode %q", d.Name, i, inst.Op)
		}
		arg, err := decodeOperand(op, inst.Arg)
		if err != nil {
			return nil, fmt.Errorf("codefile: %s: instruction %d (%v): %w", d.Name, i, op, err)
		}
		offset := 2 * i
		if inst.Offset != nil {
			offset = *inst.Offset
		}
		if seen[offset] {
			return nil, fmt.Errorf("codefile: %s: instruction %d: duplicated offset %d", d.Name, i, offset)
		}
		seen[offset] = true
		code.Instructions = append(code.Instructions, framevm.Instruction{
			Op:     op,
			Arg:    arg,
			Offset: offset,
		})
	}
	return code, nil
}
