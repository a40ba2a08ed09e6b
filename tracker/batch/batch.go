// Package batch implements the logging screen: an in-progress batch of
// item/quantity lines, item guidance, catalog search and the camera toggle.
package batch

import (
	"encoding/json"

	"github.com/banditrecycle/server/store"
)

// Batch is an ordered list of lines with unique item types and
// quantities of at least one.
type Batch struct {
	lines []store.Line
}

func (b *Batch) index(itemTypeID string) int {
	for i, ln := range b.lines {
		if ln.ItemTypeID == itemTypeID {
			return i
		}
	}
	return -1
}

// Add appends itemTypeID with quantity 1, or increments it if present.
func (b *Batch) Add(itemTypeID string) {
	if i := b.index(itemTypeID); i >= 0 {
		b.lines[i].Quantity++
		return
	}
	b.lines = append(b.lines, store.Line{ItemTypeID: itemTypeID, Quantity: 1})
}

// Increment raises the quantity of an existing line. Unknown ids are ignored.
func (b *Batch) Increment(itemTypeID string) {
	b.adjust(itemTypeID, 1)
}

// Decrement lowers the quantity of an existing line, never below 1.
func (b *Batch) Decrement(itemTypeID string) {
	b.adjust(itemTypeID, -1)
}

func (b *Batch) adjust(itemTypeID string, delta int) {
	if i := b.index(itemTypeID); i >= 0 {
		b.lines[i].Quantity = max(1, b.lines[i].Quantity+delta)
	}
}

// Remove deletes the line for itemTypeID.
func (b *Batch) Remove(itemTypeID string) {
	if i := b.index(itemTypeID); i >= 0 {
		b.lines = append(b.lines[:i], b.lines[i+1:]...)
	}
}

// Lines returns a copy of the lines in insertion order.
func (b *Batch) Lines() []store.Line {
	return append([]store.Line(nil), b.lines...)
}

// Quantity returns the quantity of itemTypeID, or 0 when absent.
func (b *Batch) Quantity(itemTypeID string) int {
	if i := b.index(itemTypeID); i >= 0 {
		return b.lines[i].Quantity
	}
	return 0
}

// Total is the sum of all quantities.
func (b *Batch) Total() int {
	n := 0
	for _, ln := range b.lines {
		n += ln.Quantity
	}
	return n
}

func (b *Batch) IsEmpty() bool { return len(b.lines) == 0 }

func (b *Batch) Clear() { b.lines = nil }

func (b Batch) MarshalJSON() ([]byte, error) {
	if b.lines == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(b.lines)
}

func (b *Batch) UnmarshalJSON(data []byte) error {
	var lines []store.Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	b.lines = b.lines[:0]
	for _, ln := range lines {
		if ln.ItemTypeID == "" || ln.Quantity < 1 || b.index(ln.ItemTypeID) >= 0 {
			continue
		}
		b.lines = append(b.lines, ln)
	}
	return nil
}
