// Package commands defines the command vocabulary understood by the session.
package commands

// Name is a command name without the leading marker.
type Name string

// Recognized command names. Matching is exact and case-sensitive.
const (
	Start   Name = "start"
	Help    Name = "help"
	AddBook Name = "addbook"
	List    Name = "list"
	Cancel  Name = "cancel"
	Quit    Name = "quit"
	Exit    Name = "exit"
)

// Command represents a command with its description and visibility metadata.
type Command struct {
	Name        Name
	Description string
	// Hidden commands work but are left out of help and menus.
	Hidden bool
}

// Default returns the vocabulary of the book dialog.
func Default() *Registry {
	r := NewRegistry()
	for _, c := range []Command{
		{Name: Start, Description: "start the conversation", Hidden: true},
		{Name: AddBook, Description: "add a new book"},
		{Name: List, Description: "list all books"},
		{Name: Cancel, Description: "cancel adding a book"},
		{Name: Help, Description: "show this help"},
		{Name: Quit, Description: "end the session"},
		{Name: Exit, Description: "end the session", Hidden: true},
	} {
		// The built-in table is valid by construction.
		_ = r.Register(c)
	}
	return r
}
