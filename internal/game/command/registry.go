package command

import (
	"fmt"
	"slices"
	"strings"
)

// Registry resolves protocol keywords, canonical or alias, to commands.
type Registry struct {
	byKeyword map[string]*Command
	ordered   []*Command
}

// NewRegistry indexes cmds by keyword.
//
// Precondition: Keywords are uppercase and unique across names and aliases;
// every command names a handler.
// Postcondition: Returns a Registry or an error naming the first bad entry.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{byKeyword: make(map[string]*Command, len(cmds))}
	for i := range cmds {
		cmd := &cmds[i]
		if cmd.Handler == "" {
			return nil, fmt.Errorf("command %q has no handler", cmd.Name)
		}
		for _, kw := range append([]string{cmd.Name}, cmd.Aliases...) {
			if kw == "" || kw != strings.ToUpper(kw) {
				return nil, fmt.Errorf("keyword %q of %q must be non-empty uppercase", kw, cmd.Name)
			}
			if prev, taken := r.byKeyword[kw]; taken {
				if kw == cmd.Name && prev.Name == kw {
					return nil, fmt.Errorf("duplicate command name: %q", kw)
				}
				return nil, fmt.Errorf("duplicate alias %q: used by %q and %q", kw, prev.Name, cmd.Name)
			}
			r.byKeyword[kw] = cmd
		}
		r.ordered = append(r.ordered, cmd)
	}
	slices.SortFunc(r.ordered, func(a, b *Command) int { return strings.Compare(a.Name, b.Name) })
	return r, nil
}

// DefaultRegistry creates a Registry with all protocol commands.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinCommands())
	if err != nil {
		panic(fmt.Sprintf("building default registry: %v", err))
	}
	return r
}

// Resolve looks up a command by keyword or alias.
//
// Precondition: input is already uppercased, as Parse returns it.
func (r *Registry) Resolve(input string) (*Command, bool) {
	cmd, ok := r.byKeyword[input]
	return cmd, ok
}

// Commands returns every command sorted by name.
func (r *Registry) Commands() []*Command {
	return slices.Clone(r.ordered)
}

// InCategory returns the commands of one category sorted by name.
func (r *Registry) InCategory(category string) []*Command {
	var out []*Command
	for _, cmd := range r.ordered {
		if cmd.Category == category {
			out = append(out, cmd)
		}
	}
	return out
}
