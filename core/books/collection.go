// Package books holds the in-memory book list of a session.
package books

import (
	"fmt"
	"strings"
)

// Entry is a captured book record. It is never modified after creation.
type Entry struct {
	Name        string
	Description string
}

// Collection is an append-only list of entries in insertion order.
// The zero value is ready to use. It is owned by a single session and not
// safe for concurrent use.
type Collection struct {
	entries []Entry
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Append adds e at the end. Duplicates are kept.
func (c *Collection) Append(e Entry) {
	c.entries = append(c.entries, e)
}

// Len reports the number of entries.
func (c *Collection) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the entries in insertion order.
func (c *Collection) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// ListAll renders every entry as a numbered line, then a total line:
//
//	1. Dune - Sci-fi classic
//	Total: 1
func (c *Collection) ListAll() string {
	var b strings.Builder
	for i, e := range c.entries {
		fmt.Fprintf(&b, "%d. %s", i+1, e.Name)
		if e.Description != "" {
			fmt.Fprintf(&b, " - %s", e.Description)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Total: %d", len(c.entries))
	return b.String()
}
