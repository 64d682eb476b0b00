// Package expression splits raw input lines into commands and literals.
//
// Grammar:
//
//	expression ::= literal | command
//	command    ::= '/' name [params]
//
// Parameters after the command name are kept as part of the command text and
// never split.
package expression

// Marker is the first byte of every command line.
const Marker = '/'

// Event is a classified input line.
type Event struct {
	// Text is the line without the marker for commands and the line verbatim for literals.
	Text      string
	IsCommand bool
}

// Kind names the event class for logs and metrics.
func (e Event) Kind() string {
	if e.IsCommand {
		return "command"
	}
	return "literal"
}

// Listener receives classified events.
type Listener interface {
	OnCommand(text string)
	OnLiteral(text string)
}

// Classify tags a line as a command or a literal. It never fails; an empty
// line is an empty literal.
func Classify(line string) Event {
	if len(line) > 0 && line[0] == Marker {
		return Event{Text: line[1:], IsCommand: true}
	}
	return Event{Text: line}
}

// Dispatch classifies line and forwards it to the matching entry point of l.
func Dispatch(line string, l Listener) Event {
	ev := Classify(line)
	if l == nil {
		return ev
	}
	if ev.IsCommand {
		l.OnCommand(ev.Text)
	} else {
		l.OnLiteral(ev.Text)
	}
	return ev
}
