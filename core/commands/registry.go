package commands

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrInvalidCommand is returned for empty names, names with spaces or the marker, or missing descriptions.
	ErrInvalidCommand = errors.New("commands: invalid command")
	// ErrDuplicateCommand is returned when a name is registered twice.
	ErrDuplicateCommand = errors.New("commands: duplicate command")
)

// Registry holds commands in registration order.
type Registry struct {
	commands map[Name]Command
	order    []Name
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[Name]Command)}
}

// Register adds a command.
func (r *Registry) Register(cmd Command) error {
	name := string(cmd.Name)
	if name == "" || cmd.Description == "" || strings.HasPrefix(name, "/") || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidCommand, name)
	}
	if _, exists := r.commands[cmd.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateCommand, name)
	}
	r.commands[cmd.Name] = cmd
	r.order = append(r.order, cmd.Name)
	return nil
}

// Lookup finds a command by the exact text of a command event.
// Text carrying parameters ("addbook Dune") does not match.
func (r *Registry) Lookup(text string) (Command, bool) {
	if r == nil {
		return Command{}, false
	}
	cmd, ok := r.commands[Name(text)]
	return cmd, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name Name) bool {
	_, ok := r.Lookup(string(name))
	return ok
}

// List returns commands in registration order, optionally without hidden ones.
func (r *Registry) List(visibleOnly bool) []Command {
	list := make([]Command, 0, len(r.order))
	for _, name := range r.order {
		cmd := r.commands[name]
		if visibleOnly && cmd.Hidden {
			continue
		}
		list = append(list, cmd)
	}
	return list
}

// HelpText renders the visible commands, one per line.
func (r *Registry) HelpText() string {
	var b strings.Builder
	b.WriteString("Available commands:")
	for _, cmd := range r.List(true) {
		fmt.Fprintf(&b, "\n/%s - %s", cmd.Name, cmd.Description)
	}
	return b.String()
}
