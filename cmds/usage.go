package cmds

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

func (p *Executor) PrintUsage() {
	p.WriteUsage(os.Stderr)
}

// WriteUsage lists the defined words with their descriptions. Aliases share one line.
func (p *Executor) WriteUsage(w io.Writer) {
	seen := make(map[*Command]bool)
	var names []string
	for name := range p.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		command := p.commands[name]
		if seen[command] || command != nil && slices.Contains(command.Aliases, name) {
			continue
		}
		seen[command] = true
		writeCommand(w, name, command, 0)
	}
}

func writeCommand(w io.Writer, name string, command *Command, depth int) {
	if command == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	line := indent + name
	for _, arg := range command.ArgNames {
		line += " <" + arg + ">"
	}
	if len(command.Aliases) > 0 {
		line += " (" + strings.Join(command.Aliases, ", ") + ")"
	}
	if command.Description != "" {
		line += "\t" + command.Description
	}
	fmt.Fprintln(w, line)
	subs := make([]string, 0, len(command.Subs))
	for sub := range command.Subs {
		subs = append(subs, sub)
	}
	slices.Sort(subs)
	for _, sub := range subs {
		writeCommand(w, sub, command.Subs[sub], depth+1)
	}
}
