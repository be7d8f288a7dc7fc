package repl

import (
	"sort"
	"strings"
)

// Completer knows the command paths the shell accepts.
type Completer struct {
	commands []string
	roots    map[string]bool
}

// NewCompleter creates a Completer for the given command paths,
// e.g. "auth login" or "profile show".
func NewCompleter(commands []string) *Completer {
	c := &Completer{roots: make(map[string]bool)}
	for _, cmd := range commands {
		cmd = strings.TrimSpace(cmd)
		if cmd == "" {
			continue
		}
		c.commands = append(c.commands, cmd)
		root, _, _ := strings.Cut(cmd, " ")
		c.roots[root] = true
	}
	sort.Strings(c.commands)
	return c
}

// Commands returns the known command paths in sorted order.
func (c *Completer) Commands() []string {
	return append([]string(nil), c.commands...)
}

// Known reports whether word is the first word of a known command.
// An empty Completer accepts everything.
func (c *Completer) Known(word string) bool {
	return len(c.roots) == 0 || c.roots[word]
}

// Complete returns completion suggestions for the given prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
