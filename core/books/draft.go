package books

// Phase is the step of the two-step capture a Draft is in.
type Phase int

const (
	// AwaitingName expects the next literal to be the book name.
	AwaitingName Phase = iota
	// AwaitingDescription expects the next literal to be the description.
	AwaitingDescription
)

func (p Phase) String() string {
	if p == AwaitingDescription {
		return "awaiting_description"
	}
	return "awaiting_name"
}

// Draft accumulates a book entry across two literals: name, then description.
type Draft struct {
	name  string
	phase Phase
}

// Reset discards any captured data and expects a name next.
func (d *Draft) Reset() {
	*d = Draft{}
}

// Phase reports the current capture step.
func (d *Draft) Phase() Phase {
	return d.phase
}

// Name returns the captured name, empty while awaiting it.
func (d *Draft) Name() string {
	return d.name
}

// SetName stores the name and moves to the description step.
func (d *Draft) SetName(name string) {
	d.name = name
	d.phase = AwaitingDescription
}

// Complete builds the entry from the stored name and description and resets the draft.
func (d *Draft) Complete(description string) Entry {
	e := Entry{Name: d.name, Description: description}
	d.Reset()
	return e
}
